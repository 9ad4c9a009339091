package service

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/MainDotCpp/BlueUnion/internal/datamodels/inventory"
	"github.com/MainDotCpp/BlueUnion/internal/datamodels/order"
	"github.com/MainDotCpp/BlueUnion/internal/errs"
)

// OrderService 订单查询与退款
type OrderService struct {
	db            *gorm.DB
	repo          order.Repository
	inventoryRepo inventory.Repository
	fulfillSvc    *FulfillmentService // 复用它的缓存失效和 MQ 投递
}

// NewOrderService 创建订单服务
func NewOrderService(db *gorm.DB, repo order.Repository, inventoryRepo inventory.Repository, fulfillSvc *FulfillmentService) *OrderService {
	return &OrderService{db: db, repo: repo, inventoryRepo: inventoryRepo, fulfillSvc: fulfillSvc}
}

// Get 查询订单详情
func (s *OrderService) Get(ctx context.Context, id int64) (*order.Order, error) {
	o, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.ErrOrderNotFound
		}
		return nil, err
	}
	return o, nil
}

// GetByOrderNo 按订单号查询（前台自助查单）
func (s *OrderService) GetByOrderNo(ctx context.Context, orderNo string) (*order.Order, error) {
	o, err := s.repo.GetByOrderNo(ctx, orderNo)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.ErrOrderNotFound
		}
		return nil, err
	}
	return o, nil
}

// List 订单列表
func (s *OrderService) List(ctx context.Context, f order.ListFilter) ([]*order.Order, int64, error) {
	return s.repo.List(ctx, f)
}

// CountByStatus 订单状态分布（看板）
func (s *OrderService) CountByStatus(ctx context.Context) (map[string]int64, error) {
	return s.repo.CountByStatus(ctx)
}

// CountSince 自某时刻起的订单数与实收金额，不含已退款订单
func (s *OrderService) CountSince(ctx context.Context, since time.Time) (int64, decimal.Decimal, error) {
	return s.repo.CountSince(ctx, since)
}

// UnitsByOrder 查询订单消耗的库存记录（卡密对管理员可见）
func (s *OrderService) UnitsByOrder(ctx context.Context, orderID int64) ([]*inventory.Unit, error) {
	return s.inventoryRepo.ListByOrder(ctx, orderID)
}

// Refund 退款：订单标记为已退款，已售卡密释放回可用池。
// 不回退销量，也不对接任何支付网关，金额字段只做账面记录。
// 已退款的订单再次退款会被拒绝，因此对调用方重试是安全的。
func (s *OrderService) Refund(ctx context.Context, orderID int64, amount *decimal.Decimal, reason string) (*order.Order, error) {
	var refunded *order.Order
	var productIDs []int64

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now()

		// 1) 锁定订单并校验状态
		var o order.Order
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&o, orderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errs.ErrOrderNotFound
			}
			return err
		}
		if o.Status == order.StatusRefunded {
			return errs.ErrAlreadyRefunded
		}

		// 2) 退款金额缺省为实付金额
		refundAmount := o.PaidAmount
		if amount != nil {
			refundAmount = *amount
		}
		o.Status = order.StatusRefunded
		o.PaymentStatus = order.PaymentRefunded
		o.RefundAmount = &refundAmount
		o.RefundReason = reason
		o.RefundAt = &now
		if err := tx.Save(&o).Error; err != nil {
			return err
		}

		// 3) 释放该订单占用的已售卡密；其他状态的记录不动
		var units []*inventory.Unit
		if err := tx.Where("order_id = ? AND status = ?", orderID, inventory.StatusSold).
			Find(&units).Error; err != nil {
			return err
		}
		if len(units) > 0 {
			if err := tx.Model(&inventory.Unit{}).
				Where("order_id = ? AND status = ?", orderID, inventory.StatusSold).
				Updates(map[string]interface{}{
					"status":   inventory.StatusAvailable,
					"order_id": nil,
					"sold_at":  nil,
				}).Error; err != nil {
				return err
			}
			seen := make(map[int64]bool)
			for _, u := range units {
				if !seen[u.ProductID] {
					seen[u.ProductID] = true
					productIDs = append(productIDs, u.ProductID)
				}
			}
		}

		refunded = &o
		return nil
	})
	if err != nil {
		return nil, err
	}
	GetMonitor().RecordRefund()

	if s.fulfillSvc != nil {
		for _, pid := range productIDs {
			s.fulfillSvc.invalidateStockCache(pid)
		}
		s.fulfillSvc.publish(DeliveryMessage{
			Type:       "refunded",
			OrderID:    refunded.ID,
			OrderNo:    refunded.OrderNo,
			BuyerEmail: refunded.BuyerEmail,
		})
	}

	return refunded, nil
}
