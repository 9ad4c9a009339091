package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/MainDotCpp/BlueUnion/internal/datamodels/category"
	"github.com/MainDotCpp/BlueUnion/internal/datamodels/product"
	"github.com/MainDotCpp/BlueUnion/internal/repository/mysql"
)

// setupDB 每个测试一个独立的内存库
func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, mysql.Migrate(db))
	return db
}

// fixture 一组常用服务，redis/mq 留空
type fixture struct {
	db           *gorm.DB
	productSvc   *ProductService
	categorySvc  *CategoryService
	inventorySvc *InventoryService
	fulfillSvc   *FulfillmentService
	orderSvc     *OrderService
}

func setup(t *testing.T) *fixture {
	t.Helper()
	db := setupDB(t)
	productRepo := mysql.NewProductRepository(db)
	categoryRepo := mysql.NewCategoryRepository(db)
	inventoryRepo := mysql.NewInventoryRepository(db)
	orderRepo := mysql.NewOrderRepository(db)

	fulfillSvc := NewFulfillmentService(db, nil, nil)
	return &fixture{
		db:           db,
		productSvc:   NewProductService(db, productRepo, nil),
		categorySvc:  NewCategoryService(categoryRepo, productRepo),
		inventorySvc: NewInventoryService(inventoryRepo, productRepo, nil),
		fulfillSvc:   fulfillSvc,
		orderSvc:     NewOrderService(db, orderRepo, inventoryRepo, fulfillSvc),
	}
}

// seedProduct 建一个分类 + 上架商品
func (f *fixture) seedProduct(t *testing.T, price string) *product.Product {
	t.Helper()
	ctx := context.Background()

	c := &category.Category{Name: "游戏点卡", Slug: "game-cards-" + t.Name()}
	require.NoError(t, f.categorySvc.Create(ctx, c))

	p := &product.Product{
		Name:       "Steam 充值卡",
		Slug:       "steam-card-" + t.Name(),
		Price:      decimal.RequireFromString(price),
		CategoryID: c.ID,
		Status:     product.StatusActive,
	}
	require.NoError(t, f.productSvc.Create(ctx, p))
	return p
}

// seedUnits 导入 n 条卡密，返回导入顺序的卡密内容
func (f *fixture) seedUnits(t *testing.T, productID int64, n int) []string {
	t.Helper()
	items := make([]ImportItem, n)
	secrets := make([]string, n)
	for i := 0; i < n; i++ {
		secrets[i] = fmt.Sprintf("CARD-%s-%04d", t.Name(), i)
		items[i] = ImportItem{CardNumber: secrets[i]}
	}
	res, err := f.inventorySvc.Import(context.Background(), productID, items, "tester")
	require.NoError(t, err)
	require.Equal(t, n, res.Success)
	return secrets
}
