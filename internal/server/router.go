package server

import (
	"github.com/kataras/iris/v12"

	"github.com/MainDotCpp/BlueUnion/internal/config"
	"github.com/MainDotCpp/BlueUnion/internal/datamodels/order"
	"github.com/MainDotCpp/BlueUnion/internal/datamodels/product"
	"github.com/MainDotCpp/BlueUnion/internal/errs"
	"github.com/MainDotCpp/BlueUnion/internal/infra/mq"
	"github.com/MainDotCpp/BlueUnion/internal/infra/redis"
	"github.com/MainDotCpp/BlueUnion/internal/middleware"
	"github.com/MainDotCpp/BlueUnion/internal/repository/mysql"
	"github.com/MainDotCpp/BlueUnion/internal/service"
)

// RegisterRoutes 注册前台商城的 HTTP 路由
func RegisterRoutes(app *iris.Application, cfg *config.Config) {
	// 初始化基础设施
	db := mysql.Init(&cfg.MySQL)
	redisClient := redis.Init(&cfg.Redis)
	mqConn := mq.Init(&cfg.RabbitMQ)

	// 仓储与服务
	productRepo := mysql.NewProductRepository(db)
	categoryRepo := mysql.NewCategoryRepository(db)
	inventoryRepo := mysql.NewInventoryRepository(db)
	orderRepo := mysql.NewOrderRepository(db)

	productSvc := service.NewProductService(db, productRepo, redisClient)
	categorySvc := service.NewCategoryService(categoryRepo, productRepo)
	inventorySvc := service.NewInventoryService(inventoryRepo, productRepo, redisClient)
	fulfillSvc := service.NewFulfillmentService(db, redisClient, mqConn)
	orderSvc := service.NewOrderService(db, orderRepo, inventoryRepo, fulfillSvc)

	api := app.Party("/api")

	// 健康检查
	api.Get("/health", func(ctx iris.Context) {
		ctx.JSON(iris.Map{"code": 0, "msg": "ok"})
	})

	// 分类导航（树）
	api.Get("/categories", func(ctx iris.Context) {
		tree, err := categorySvc.Tree(ctx.Request().Context())
		if err != nil {
			fail(ctx, err)
			return
		}
		ok(ctx, tree)
	})

	// 商品列表：仅上架商品，支持分类/关键字筛选
	api.Get("/products", func(ctx iris.Context) {
		f := product.ListFilter{
			Status: product.StatusActive,
			Search: ctx.URLParam("q"),
			Page:   ctx.URLParamIntDefault("page", 1),
			Limit:  ctx.URLParamIntDefault("limit", 20),
		}
		if slug := ctx.URLParam("category"); slug != "" {
			c, err := categorySvc.GetBySlug(ctx.Request().Context(), slug)
			if err != nil {
				fail(ctx, err)
				return
			}
			f.CategoryID = c.ID
		}
		list, total, err := productSvc.List(ctx.Request().Context(), f)
		if err != nil {
			fail(ctx, err)
			return
		}
		okPage(ctx, list, total, f.Page, f.Limit)
	})

	// 商品详情：返回可用库存数量并累计浏览
	api.Get("/products/{slug}", func(ctx iris.Context) {
		slug := ctx.Params().Get("slug")
		p, err := productSvc.GetBySlug(ctx.Request().Context(), slug)
		if err != nil {
			fail(ctx, err)
			return
		}
		available, err := inventorySvc.AvailableCount(ctx.Request().Context(), p.ID)
		if err != nil {
			fail(ctx, err)
			return
		}
		productSvc.RecordView(ctx.Request().Context(), p.ID)
		ctx.JSON(iris.Map{
			"code": 0,
			"data": iris.Map{
				"product":        p,
				"availableStock": available,
			},
		})
	})

	// 直购下单：走与后台提卡相同的交付原语，返回卡密
	api.Post("/buy", middleware.BuyRateLimit(), func(ctx iris.Context) {
		var req struct {
			Slug     string `json:"slug"`
			Quantity int    `json:"quantity"`
			Email    string `json:"email"`
		}
		if err := ctx.ReadJSON(&req); err != nil {
			ctx.StopWithJSON(400, iris.Map{"code": 400, "msg": err.Error()})
			return
		}
		if req.Email == "" {
			fail(ctx, errs.ErrMissingFields)
			return
		}
		p, err := productSvc.GetBySlug(ctx.Request().Context(), req.Slug)
		if err != nil {
			fail(ctx, err)
			return
		}
		if p.Status != product.StatusActive || !p.AutoDeliver {
			fail(ctx, &errs.Error{Kind: errs.KindValidation, Message: "商品暂不可购买"})
			return
		}
		result, err := fulfillSvc.Fulfill(ctx.Request().Context(), service.FulfillInput{
			ProductID:     p.ID,
			Quantity:      req.Quantity,
			BuyerEmail:    req.Email,
			Note:          "前台直购",
			PaymentMethod: order.PaymentMethodStorefront,
		})
		if err != nil {
			fail(ctx, err)
			return
		}
		ok(ctx, result)
	})

	// 订单自助查询：订单号 + 下单邮箱
	api.Get("/orders/{orderNo}", func(ctx iris.Context) {
		orderNo := ctx.Params().Get("orderNo")
		email := ctx.URLParam("email")
		o, err := orderSvc.GetByOrderNo(ctx.Request().Context(), orderNo)
		if err != nil {
			fail(ctx, err)
			return
		}
		if email == "" || o.BuyerEmail != email {
			fail(ctx, errs.ErrOrderNotFound)
			return
		}
		units, err := orderSvc.UnitsByOrder(ctx.Request().Context(), o.ID)
		if err != nil {
			fail(ctx, err)
			return
		}
		ctx.JSON(iris.Map{
			"code": 0,
			"data": iris.Map{
				"order": o,
				"cards": units,
			},
		})
	})
}
