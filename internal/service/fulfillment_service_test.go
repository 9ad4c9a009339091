package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/MainDotCpp/BlueUnion/internal/datamodels/inventory"
	"github.com/MainDotCpp/BlueUnion/internal/datamodels/order"
	"github.com/MainDotCpp/BlueUnion/internal/datamodels/product"
	"github.com/MainDotCpp/BlueUnion/internal/errs"
)

func TestFulfillCreatesDeliveredOrder(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	p := f.seedProduct(t, "10.00")
	secrets := f.seedUnits(t, p.ID, 5)

	res, err := f.fulfillSvc.Fulfill(ctx, FulfillInput{
		ProductID: p.ID,
		Quantity:  2,
		Operator:  "admin",
	})
	require.NoError(t, err)
	require.Len(t, res.Units, 2)
	assert.Equal(t, 2, res.QuantityFulfilled)
	assert.True(t, res.TotalAmount.Equal(decimal.RequireFromString("20.00")),
		"总价应为单价快照乘以数量, got %s", res.TotalAmount)

	// 先进先出，先导入的先出库
	assert.Equal(t, secrets[0], res.Units[0].CardNumber)
	assert.Equal(t, secrets[1], res.Units[1].CardNumber)

	o, err := f.orderSvc.Get(ctx, res.OrderID)
	require.NoError(t, err)
	assert.Equal(t, order.StatusDelivered, o.Status)
	assert.Equal(t, order.PaymentPaid, o.PaymentStatus)
	assert.Equal(t, order.PaymentMethodAdminExtract, o.PaymentMethod)
	assert.Equal(t, "admin@system.local", o.BuyerEmail)
	assert.True(t, o.PaidAmount.Equal(res.TotalAmount))
	require.NotNil(t, o.PaidAt)
	require.NotNil(t, o.DeliveredAt)
	assert.Contains(t, o.DeliveryInfo, `"operator":"admin"`)
	require.Len(t, o.Items, 1)
	assert.Equal(t, p.Name, o.Items[0].ProductName)
	assert.Equal(t, 2, o.Items[0].Quantity)
	assert.True(t, o.Items[0].Subtotal.Equal(res.TotalAmount))

	// 卡密绑定到订单并转为已售
	units, err := f.orderSvc.UnitsByOrder(ctx, res.OrderID)
	require.NoError(t, err)
	require.Len(t, units, 2)
	for _, u := range units {
		assert.Equal(t, inventory.StatusSold, u.Status)
		require.NotNil(t, u.OrderID)
		assert.Equal(t, res.OrderID, *u.OrderID)
		require.NotNil(t, u.SoldAt)
	}

	// 销量累加，剩余库存减少
	fresh, err := f.productSvc.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), fresh.SalesCount)
	avail, err := f.inventorySvc.AvailableCount(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), avail)
}

func TestFulfillInsufficientStock(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	p := f.seedProduct(t, "5.00")
	f.seedUnits(t, p.ID, 3)

	_, err := f.fulfillSvc.Fulfill(ctx, FulfillInput{ProductID: p.ID, Quantity: 5})
	require.Error(t, err)
	var ise *errs.InsufficientStockError
	require.ErrorAs(t, err, &ise)
	assert.Equal(t, int64(3), ise.Available)

	// 整体回滚，不留半截订单也不占用库存
	var orderCount int64
	require.NoError(t, f.db.Model(&order.Order{}).Count(&orderCount).Error)
	assert.Zero(t, orderCount)
	avail, err := f.inventorySvc.AvailableCount(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), avail)
	fresh, err := f.productSvc.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Zero(t, fresh.SalesCount)
}

func TestFulfillDrainsStockExactly(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	p := f.seedProduct(t, "1.50")
	secrets := f.seedUnits(t, p.ID, 4)

	claimed := make([]string, 0, 4)
	for i := 0; i < 4; i++ {
		res, err := f.fulfillSvc.Fulfill(ctx, FulfillInput{ProductID: p.ID, Quantity: 1})
		require.NoError(t, err)
		require.Len(t, res.Units, 1)
		claimed = append(claimed, res.Units[0].CardNumber)
	}
	// 每次提取的都是最早导入的那张，互不重复
	assert.Equal(t, secrets, claimed)

	_, err := f.fulfillSvc.Fulfill(ctx, FulfillInput{ProductID: p.ID, Quantity: 1})
	var ise *errs.InsufficientStockError
	require.ErrorAs(t, err, &ise)
	assert.Zero(t, ise.Available)
}

func TestFulfillValidation(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, err := f.fulfillSvc.Fulfill(ctx, FulfillInput{ProductID: 1, Quantity: 0})
	assert.ErrorIs(t, err, errs.ErrInvalidQuantity)

	_, err = f.fulfillSvc.Fulfill(ctx, FulfillInput{ProductID: 9999, Quantity: 1})
	assert.ErrorIs(t, err, errs.ErrProductNotFound)
}

func TestFulfillStorefrontOrderNo(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	p := f.seedProduct(t, "8.88")
	f.seedUnits(t, p.ID, 1)

	res, err := f.fulfillSvc.Fulfill(ctx, FulfillInput{
		ProductID:     p.ID,
		Quantity:      1,
		BuyerEmail:    "buyer@example.com",
		PaymentMethod: order.PaymentMethodStorefront,
	})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(res.OrderNo, "SHOP_"))

	o, err := f.orderSvc.GetByOrderNo(ctx, res.OrderNo)
	require.NoError(t, err)
	assert.Equal(t, "buyer@example.com", o.BuyerEmail)
	assert.Equal(t, order.PaymentMethodStorefront, o.PaymentMethod)
}

func TestGenOrderNo(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 200; i++ {
		no := genOrderNo(order.PaymentMethodAdminExtract)
		assert.True(t, strings.HasPrefix(no, "ADMIN_"))
		parts := strings.Split(no, "_")
		require.Len(t, parts, 3)
		assert.Len(t, parts[2], 9)
		assert.False(t, seen[no], "订单号重复: %s", no)
		seen[no] = true
	}
}

func TestFulfillStockConflictRollsBack(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	p := f.seedProduct(t, "10.00")
	f.seedUnits(t, p.ID, 3)

	var first inventory.Unit
	require.NoError(t, f.db.Where("product_id = ?", p.ID).Order("id ASC").First(&first).Error)

	// 在锁定选取和占用写入之间把第一张卡标记为已占用，
	// 模拟并发事务抢先占用选中的库存
	stolen := false
	err := f.db.Callback().Update().Before("gorm:update").Register("claim_race", func(tx *gorm.DB) {
		if stolen {
			return
		}
		dest, ok := tx.Statement.Dest.(map[string]interface{})
		if !ok || dest["status"] != inventory.StatusSold {
			return
		}
		stolen = true
		tx.Session(&gorm.Session{NewDB: true}).
			Exec("UPDATE inventory SET status = ? WHERE id = ?", inventory.StatusSold, first.ID)
	})
	require.NoError(t, err)

	_, err = f.fulfillSvc.Fulfill(ctx, FulfillInput{ProductID: p.ID, Quantity: 2})
	require.ErrorIs(t, err, errs.ErrStockConflict)
	assert.Equal(t, errs.KindConcurrency, errs.KindOf(err))

	// 整体回滚：不留订单、不占库存、销量不变
	var orderCount int64
	require.NoError(t, f.db.Model(&order.Order{}).Count(&orderCount).Error)
	assert.Zero(t, orderCount)
	var avail int64
	require.NoError(t, f.db.Model(&inventory.Unit{}).
		Where("product_id = ? AND status = ?", p.ID, inventory.StatusAvailable).
		Count(&avail).Error)
	assert.Equal(t, int64(3), avail)
	fresh, err := f.productSvc.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Zero(t, fresh.SalesCount)

	// 冲突消除后重试成功
	require.NoError(t, f.db.Callback().Update().Remove("claim_race"))
	res, err := f.fulfillSvc.Fulfill(ctx, FulfillInput{ProductID: p.ID, Quantity: 2})
	require.NoError(t, err)
	assert.Len(t, res.Units, 2)
}

func TestFulfillConcurrentExhaustion(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	// 单连接让并发事务排队执行，库存竞争发生在事务边界上
	sqlDB, err := f.db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	p := f.seedProduct(t, "2.00")
	f.seedUnits(t, p.ID, 4)

	const workers = 8
	var wg sync.WaitGroup
	results := make(chan *FulfillResult, workers)
	failures := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := f.fulfillSvc.Fulfill(ctx, FulfillInput{ProductID: p.ID, Quantity: 1})
			if err != nil {
				failures <- err
				return
			}
			results <- res
		}()
	}
	wg.Wait()
	close(results)
	close(failures)

	// 恰好 4 个成功，每张卡只被占用一次
	claimed := make(map[int64]bool)
	for res := range results {
		require.Len(t, res.Units, 1)
		u := res.Units[0]
		assert.False(t, claimed[u.UnitID], "卡 %d 被重复占用", u.UnitID)
		claimed[u.UnitID] = true
	}
	assert.Len(t, claimed, 4)

	// 其余请求拿到库存不足或并发冲突，不存在第三种结果
	nfail := 0
	for err := range failures {
		nfail++
		var ise *errs.InsufficientStockError
		if !errors.As(err, &ise) {
			assert.ErrorIs(t, err, errs.ErrStockConflict)
		}
	}
	assert.Equal(t, workers-4, nfail)

	fresh, err := f.productSvc.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(4), fresh.SalesCount)
	var sold int64
	require.NoError(t, f.db.Model(&inventory.Unit{}).
		Where("product_id = ? AND status = ?", p.ID, inventory.StatusSold).
		Count(&sold).Error)
	assert.Equal(t, int64(4), sold)
}

func TestFulfillSoldOutUnitsNotReclaimed(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	p := f.seedProduct(t, "3.00")
	secrets := f.seedUnits(t, p.ID, 2)

	first, err := f.fulfillSvc.Fulfill(ctx, FulfillInput{ProductID: p.ID, Quantity: 1})
	require.NoError(t, err)
	second, err := f.fulfillSvc.Fulfill(ctx, FulfillInput{ProductID: p.ID, Quantity: 1})
	require.NoError(t, err)

	assert.Equal(t, secrets[0], first.Units[0].CardNumber)
	assert.Equal(t, secrets[1], second.Units[0].CardNumber)
	assert.NotEqual(t, first.OrderID, second.OrderID)

	var p2 product.Product
	require.NoError(t, f.db.First(&p2, p.ID).Error)
	assert.Equal(t, int64(2), p2.SalesCount)
}
