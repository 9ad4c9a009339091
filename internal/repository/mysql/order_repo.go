package mysql

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/MainDotCpp/BlueUnion/internal/datamodels/order"
)

type orderRepo struct {
	db *gorm.DB
}

// NewOrderRepository 创建订单仓储
func NewOrderRepository(db *gorm.DB) order.Repository {
	return &orderRepo{db: db}
}

func (r *orderRepo) GetByID(ctx context.Context, id int64) (*order.Order, error) {
	var o order.Order
	if err := r.db.WithContext(ctx).Preload("Items").First(&o, id).Error; err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *orderRepo) GetByOrderNo(ctx context.Context, orderNo string) (*order.Order, error) {
	var o order.Order
	if err := r.db.WithContext(ctx).Preload("Items").
		Where("order_no = ?", orderNo).
		First(&o).Error; err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *orderRepo) List(ctx context.Context, f order.ListFilter) ([]*order.Order, int64, error) {
	query := r.db.WithContext(ctx).Model(&order.Order{})
	if f.OrderNo != "" {
		query = query.Where("order_no LIKE ?", "%"+f.OrderNo+"%")
	}
	if f.BuyerEmail != "" {
		query = query.Where("buyer_email LIKE ?", "%"+f.BuyerEmail+"%")
	}
	if f.Status != "" {
		query = query.Where("status = ?", f.Status)
	}
	if f.PaymentStatus != "" {
		query = query.Where("payment_status = ?", f.PaymentStatus)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if f.Limit > 0 {
		page := f.Page
		if page < 1 {
			page = 1
		}
		query = query.Offset((page - 1) * f.Limit).Limit(f.Limit)
	}

	var list []*order.Order
	if err := query.Preload("Items").
		Order("created_at DESC").
		Find(&list).Error; err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

func (r *orderRepo) CountByStatus(ctx context.Context) (map[string]int64, error) {
	type row struct {
		Status string
		Count  int64
	}
	var rows []row
	if err := r.db.WithContext(ctx).Model(&order.Order{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	stats := make(map[string]int64, len(rows))
	for _, v := range rows {
		stats[v.Status] = v.Count
	}
	return stats, nil
}

func (r *orderRepo) CountSince(ctx context.Context, since time.Time) (int64, decimal.Decimal, error) {
	type row struct {
		Count   int64
		Revenue decimal.Decimal
	}
	var v row
	err := r.db.WithContext(ctx).Model(&order.Order{}).
		Select("COUNT(*) AS count, COALESCE(SUM(paid_amount), 0) AS revenue").
		Where("created_at >= ? AND status <> ?", since, order.StatusRefunded).
		Scan(&v).Error
	if err != nil {
		return 0, decimal.Zero, err
	}
	return v.Count, v.Revenue, nil
}
