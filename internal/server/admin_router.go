package server

import (
	"strings"
	"time"

	"github.com/kataras/iris/v12"
	"github.com/shopspring/decimal"

	"github.com/MainDotCpp/BlueUnion/internal/auth"
	"github.com/MainDotCpp/BlueUnion/internal/config"
	"github.com/MainDotCpp/BlueUnion/internal/datamodels/category"
	"github.com/MainDotCpp/BlueUnion/internal/datamodels/inventory"
	"github.com/MainDotCpp/BlueUnion/internal/datamodels/order"
	"github.com/MainDotCpp/BlueUnion/internal/datamodels/product"
	"github.com/MainDotCpp/BlueUnion/internal/infra/mq"
	"github.com/MainDotCpp/BlueUnion/internal/infra/redis"
	"github.com/MainDotCpp/BlueUnion/internal/repository/mysql"
	"github.com/MainDotCpp/BlueUnion/internal/service"
)

// productRequest 商品创建/更新入参
type productRequest struct {
	Name          string           `json:"name"`
	Slug          string           `json:"slug"`
	Description   string           `json:"description"`
	Image         string           `json:"image"`
	Price         decimal.Decimal  `json:"price"`
	OriginalPrice *decimal.Decimal `json:"originalPrice"`
	CategoryID    int64            `json:"categoryId"`
	Status        string           `json:"status"`
	Featured      bool             `json:"featured"`
	Sort          int              `json:"sort"`
	StockType     string           `json:"stockType"`
	AutoDeliver   *bool            `json:"autoDeliver"`
}

func (r *productRequest) applyTo(p *product.Product) {
	p.Name = r.Name
	p.Slug = r.Slug
	p.Description = r.Description
	p.Image = r.Image
	p.Price = r.Price
	p.OriginalPrice = r.OriginalPrice
	p.CategoryID = r.CategoryID
	if r.Status != "" {
		p.Status = r.Status
	}
	p.Featured = r.Featured
	p.Sort = r.Sort
	if r.StockType != "" {
		p.StockType = r.StockType
	}
	if r.AutoDeliver != nil {
		p.AutoDeliver = *r.AutoDeliver
	}
}

// categoryRequest 分类创建/更新入参
type categoryRequest struct {
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
	Sort        int    `json:"sort"`
	Status      string `json:"status"`
	ParentID    *int64 `json:"parentId"`
}

func (r *categoryRequest) applyTo(c *category.Category) {
	c.Name = r.Name
	c.Slug = r.Slug
	c.Description = r.Description
	c.Icon = r.Icon
	c.Sort = r.Sort
	if r.Status != "" {
		c.Status = r.Status
	}
	c.ParentID = r.ParentID
}

// RegisterAdminRoutes 注册后台管理端的 HTTP 路由
// 端口通常是 8081，与前台 Web 服务分离。
func RegisterAdminRoutes(app *iris.Application, cfg *config.Config) {
	// 初始化基础设施
	db := mysql.Init(&cfg.MySQL)
	redisClient := redis.Init(&cfg.Redis)
	mqConn := mq.Init(&cfg.RabbitMQ)

	// 仓储与服务
	productRepo := mysql.NewProductRepository(db)
	categoryRepo := mysql.NewCategoryRepository(db)
	inventoryRepo := mysql.NewInventoryRepository(db)
	orderRepo := mysql.NewOrderRepository(db)
	userRepo := mysql.NewUserRepository(db)

	productSvc := service.NewProductService(db, productRepo, redisClient)
	categorySvc := service.NewCategoryService(categoryRepo, productRepo)
	inventorySvc := service.NewInventoryService(inventoryRepo, productRepo, redisClient)
	fulfillSvc := service.NewFulfillmentService(db, redisClient, mqConn)
	orderSvc := service.NewOrderService(db, orderRepo, inventoryRepo, fulfillSvc)
	userSvc := service.NewUserService(userRepo, &cfg.JWT)

	ring := auth.NewRing(cfg.Auth.Nodes, cfg.Auth.HashReplicas)
	tokenCache := auth.NewTokenCache(redisClient, ring, time.Duration(cfg.Auth.TokenCacheTTLSeconds)*time.Second)

	api := app.Party("/api")

	// 登录
	api.Post("/auth/login", func(ctx iris.Context) {
		var req struct {
			Username string `json:"username"`
			Password string `json:"password"`
		}
		if err := ctx.ReadJSON(&req); err != nil {
			ctx.StopWithJSON(400, iris.Map{"code": 400, "msg": err.Error()})
			return
		}
		token, err := userSvc.Login(ctx.Request().Context(), req.Username, req.Password)
		if err != nil {
			ctx.StopWithJSON(401, iris.Map{"code": 401, "msg": err.Error()})
			return
		}
		ok(ctx, iris.Map{"token": token})
	})

	// 需要登录的接口
	authAPI := api.Party("/", func(ctx iris.Context) {
		token := strings.TrimPrefix(ctx.GetHeader("Authorization"), "Bearer ")
		if token == "" {
			ctx.StopWithJSON(401, iris.Map{"code": 401, "msg": "missing token"})
			return
		}
		// 先查缓存，未命中再做签名校验
		claims, hit, _ := tokenCache.Get(ctx.Request().Context(), token)
		if !hit {
			var err error
			claims, err = auth.ParseToken(&cfg.JWT, token)
			if err != nil {
				ctx.StopWithJSON(401, iris.Map{"code": 401, "msg": "invalid token"})
				return
			}
			_ = tokenCache.Set(ctx.Request().Context(), token, claims)
		}
		ctx.Values().Set("user_id", claims.UserID)
		ctx.Values().Set("username", claims.Username)
		ctx.Values().Set("role", claims.Role)
		ctx.Next()
	})

	authAPI.Get("/auth/me", func(ctx iris.Context) {
		ok(ctx, iris.Map{
			"id":       ctx.Values().Get("user_id"),
			"username": ctx.Values().GetString("username"),
			"role":     ctx.Values().GetString("role"),
		})
	})

	// ---------- 商品管理 ----------

	authAPI.Get("/products", func(ctx iris.Context) {
		f := product.ListFilter{
			Status:     ctx.URLParam("status"),
			CategoryID: int64(ctx.URLParamIntDefault("categoryId", 0)),
			Search:     ctx.URLParam("search"),
			Page:       ctx.URLParamIntDefault("page", 1),
			Limit:      ctx.URLParamIntDefault("limit", 10),
		}
		list, total, err := productSvc.List(ctx.Request().Context(), f)
		if err != nil {
			fail(ctx, err)
			return
		}
		okPage(ctx, list, total, f.Page, f.Limit)
	})

	authAPI.Post("/products", func(ctx iris.Context) {
		var req productRequest
		if err := ctx.ReadJSON(&req); err != nil {
			ctx.StopWithJSON(400, iris.Map{"code": 400, "msg": err.Error()})
			return
		}
		p := &product.Product{}
		req.applyTo(p)
		if err := productSvc.Create(ctx.Request().Context(), p); err != nil {
			fail(ctx, err)
			return
		}
		ok(ctx, p)
	})

	// 商品详情，带库存统计
	authAPI.Get("/products/{id:int64}", func(ctx iris.Context) {
		id, _ := ctx.Params().GetInt64("id")
		p, err := productSvc.Get(ctx.Request().Context(), id)
		if err != nil {
			fail(ctx, err)
			return
		}
		stats, err := inventorySvc.Stats(ctx.Request().Context(), id)
		if err != nil {
			fail(ctx, err)
			return
		}
		ctx.JSON(iris.Map{
			"code": 0,
			"data": iris.Map{
				"product":        p,
				"inventoryStats": stats,
			},
		})
	})

	authAPI.Put("/products/{id:int64}", func(ctx iris.Context) {
		id, _ := ctx.Params().GetInt64("id")
		p, err := productSvc.Get(ctx.Request().Context(), id)
		if err != nil {
			fail(ctx, err)
			return
		}
		var req productRequest
		if err := ctx.ReadJSON(&req); err != nil {
			ctx.StopWithJSON(400, iris.Map{"code": 400, "msg": err.Error()})
			return
		}
		req.applyTo(p)
		if err := productSvc.Update(ctx.Request().Context(), p); err != nil {
			fail(ctx, err)
			return
		}
		ok(ctx, p)
	})

	authAPI.Delete("/products/{id:int64}", func(ctx iris.Context) {
		id, _ := ctx.Params().GetInt64("id")
		if err := productSvc.Delete(ctx.Request().Context(), id); err != nil {
			fail(ctx, err)
			return
		}
		ok(ctx, iris.Map{"deleted": id})
	})

	// 手动提卡：生成订单并返回卡密
	authAPI.Post("/products/{id:int64}/extract-cards", func(ctx iris.Context) {
		id, _ := ctx.Params().GetInt64("id")
		var req struct {
			Quantity   int    `json:"quantity"`
			BuyerEmail string `json:"buyerEmail"`
			Note       string `json:"note"`
		}
		if err := ctx.ReadJSON(&req); err != nil {
			ctx.StopWithJSON(400, iris.Map{"code": 400, "msg": err.Error()})
			return
		}
		result, err := fulfillSvc.Fulfill(ctx.Request().Context(), service.FulfillInput{
			ProductID:  id,
			Quantity:   req.Quantity,
			BuyerEmail: req.BuyerEmail,
			Note:       req.Note,
			Operator:   ctx.Values().GetString("username"),
		})
		if err != nil {
			fail(ctx, err)
			return
		}
		ok(ctx, result)
	})

	// ---------- 分类管理 ----------

	authAPI.Get("/categories", func(ctx iris.Context) {
		list, err := categorySvc.ListAll(ctx.Request().Context())
		if err != nil {
			fail(ctx, err)
			return
		}
		ok(ctx, list)
	})

	authAPI.Post("/categories", func(ctx iris.Context) {
		var req categoryRequest
		if err := ctx.ReadJSON(&req); err != nil {
			ctx.StopWithJSON(400, iris.Map{"code": 400, "msg": err.Error()})
			return
		}
		c := &category.Category{}
		req.applyTo(c)
		if err := categorySvc.Create(ctx.Request().Context(), c); err != nil {
			fail(ctx, err)
			return
		}
		ok(ctx, c)
	})

	authAPI.Put("/categories/{id:int64}", func(ctx iris.Context) {
		id, _ := ctx.Params().GetInt64("id")
		c, err := categorySvc.Get(ctx.Request().Context(), id)
		if err != nil {
			fail(ctx, err)
			return
		}
		var req categoryRequest
		if err := ctx.ReadJSON(&req); err != nil {
			ctx.StopWithJSON(400, iris.Map{"code": 400, "msg": err.Error()})
			return
		}
		req.applyTo(c)
		if err := categorySvc.Update(ctx.Request().Context(), c); err != nil {
			fail(ctx, err)
			return
		}
		ok(ctx, c)
	})

	authAPI.Delete("/categories/{id:int64}", func(ctx iris.Context) {
		id, _ := ctx.Params().GetInt64("id")
		if err := categorySvc.Delete(ctx.Request().Context(), id); err != nil {
			fail(ctx, err)
			return
		}
		ok(ctx, iris.Map{"deleted": id})
	})

	// ---------- 库存管理 ----------

	authAPI.Get("/inventory", func(ctx iris.Context) {
		f := inventory.ListFilter{
			ProductID: int64(ctx.URLParamIntDefault("productId", 0)),
			Status:    ctx.URLParam("status"),
			BatchID:   ctx.URLParam("batchId"),
			Page:      ctx.URLParamIntDefault("page", 1),
			Limit:     ctx.URLParamIntDefault("limit", 20),
		}
		list, total, err := inventorySvc.List(ctx.Request().Context(), f)
		if err != nil {
			fail(ctx, err)
			return
		}
		stats, err := inventorySvc.Stats(ctx.Request().Context(), f.ProductID)
		if err != nil {
			fail(ctx, err)
			return
		}
		ctx.JSON(iris.Map{
			"code":  0,
			"data":  list,
			"stats": stats,
			"total": total,
			"page":  f.Page,
			"limit": f.Limit,
		})
	})

	authAPI.Get("/inventory/{id:int64}", func(ctx iris.Context) {
		id, _ := ctx.Params().GetInt64("id")
		u, err := inventorySvc.GetUnit(ctx.Request().Context(), id)
		if err != nil {
			fail(ctx, err)
			return
		}
		ok(ctx, u)
	})

	// 批量导入卡密
	authAPI.Post("/inventory", func(ctx iris.Context) {
		var req struct {
			ProductID int64                `json:"productId"`
			Items     []service.ImportItem `json:"items"`
		}
		if err := ctx.ReadJSON(&req); err != nil {
			ctx.StopWithJSON(400, iris.Map{"code": 400, "msg": err.Error()})
			return
		}
		result, err := inventorySvc.Import(ctx.Request().Context(), req.ProductID, req.Items, ctx.Values().GetString("username"))
		if err != nil {
			fail(ctx, err)
			return
		}
		ok(ctx, result)
	})

	// ---------- 订单管理 ----------

	authAPI.Get("/orders", func(ctx iris.Context) {
		f := order.ListFilter{
			OrderNo:       ctx.URLParam("orderNo"),
			BuyerEmail:    ctx.URLParam("buyerEmail"),
			Status:        ctx.URLParam("status"),
			PaymentStatus: ctx.URLParam("paymentStatus"),
			Page:          ctx.URLParamIntDefault("page", 1),
			Limit:         ctx.URLParamIntDefault("limit", 10),
		}
		list, total, err := orderSvc.List(ctx.Request().Context(), f)
		if err != nil {
			fail(ctx, err)
			return
		}
		okPage(ctx, list, total, f.Page, f.Limit)
	})

	// 订单详情，含消耗的卡密
	authAPI.Get("/orders/{id:int64}", func(ctx iris.Context) {
		id, _ := ctx.Params().GetInt64("id")
		o, err := orderSvc.Get(ctx.Request().Context(), id)
		if err != nil {
			fail(ctx, err)
			return
		}
		units, err := orderSvc.UnitsByOrder(ctx.Request().Context(), id)
		if err != nil {
			fail(ctx, err)
			return
		}
		ctx.JSON(iris.Map{
			"code": 0,
			"data": iris.Map{
				"order":     o,
				"inventory": units,
			},
		})
	})

	// 退款：订单标记已退款，卡密释放回库存池
	authAPI.Post("/orders/{id:int64}/refund", func(ctx iris.Context) {
		id, _ := ctx.Params().GetInt64("id")
		var req struct {
			RefundAmount *decimal.Decimal `json:"refundAmount"`
			RefundReason string           `json:"refundReason"`
		}
		if err := ctx.ReadJSON(&req); err != nil {
			ctx.StopWithJSON(400, iris.Map{"code": 400, "msg": err.Error()})
			return
		}
		o, err := orderSvc.Refund(ctx.Request().Context(), id, req.RefundAmount, req.RefundReason)
		if err != nil {
			fail(ctx, err)
			return
		}
		ok(ctx, o)
	})

	// ---------- 看板 ----------

	authAPI.Get("/stats/dashboard", func(ctx iris.Context) {
		rctx := ctx.Request().Context()
		now := time.Now()
		dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

		todayOrders, todayRevenue, err := orderSvc.CountSince(rctx, dayStart)
		if err != nil {
			fail(ctx, err)
			return
		}
		orderStats, err := orderSvc.CountByStatus(rctx)
		if err != nil {
			fail(ctx, err)
			return
		}
		invStats, err := inventorySvc.Stats(rctx, 0)
		if err != nil {
			fail(ctx, err)
			return
		}
		topProducts, err := productSvc.TopBySales(rctx, 5)
		if err != nil {
			fail(ctx, err)
			return
		}
		ok(ctx, iris.Map{
			"todayOrders":  todayOrders,
			"todayRevenue": todayRevenue,
			"orderStats":   orderStats,
			"invStats":     invStats,
			"topProducts":  topProducts,
		})
	})

	// 进程内监控计数
	authAPI.Get("/stats/monitor", func(ctx iris.Context) {
		ok(ctx, service.GetMonitor().GetStats())
	})
}
