package mysql

import (
	"context"

	"gorm.io/gorm"

	"github.com/MainDotCpp/BlueUnion/internal/datamodels/inventory"
)

type inventoryRepo struct {
	db *gorm.DB
}

// NewInventoryRepository 创建库存仓储
func NewInventoryRepository(db *gorm.DB) inventory.Repository {
	return &inventoryRepo{db: db}
}

func (r *inventoryRepo) GetByID(ctx context.Context, id int64) (*inventory.Unit, error) {
	var u inventory.Unit
	if err := r.db.WithContext(ctx).First(&u, id).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *inventoryRepo) List(ctx context.Context, f inventory.ListFilter) ([]*inventory.Unit, int64, error) {
	query := r.db.WithContext(ctx).Model(&inventory.Unit{})
	if f.ProductID > 0 {
		query = query.Where("product_id = ?", f.ProductID)
	}
	if f.Status != "" {
		query = query.Where("status = ?", f.Status)
	}
	if f.BatchID != "" {
		query = query.Where("batch_id = ?", f.BatchID)
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

	var list []*inventory.Unit
	if err := query.Order("created_at DESC").Find(&list).Error; err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

func (r *inventoryRepo) BatchCreate(ctx context.Context, units []*inventory.Unit) error {
	return r.db.WithContext(ctx).CreateInBatches(units, 200).Error
}

func (r *inventoryRepo) CountAvailable(ctx context.Context, productID int64) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&inventory.Unit{}).
		Where("product_id = ? AND status = ?", productID, inventory.StatusAvailable).
		Count(&n).Error
	return n, err
}

func (r *inventoryRepo) CountByStatus(ctx context.Context, productID int64) (map[string]int64, error) {
	type row struct {
		Status string
		Count  int64
	}
	query := r.db.WithContext(ctx).Model(&inventory.Unit{}).
		Select("status, COUNT(*) AS count").
		Group("status")
	if productID > 0 {
		query = query.Where("product_id = ?", productID)
	}
	var rows []row
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	stats := make(map[string]int64, len(rows))
	for _, v := range rows {
		stats[v.Status] = v.Count
	}
	return stats, nil
}

func (r *inventoryRepo) ListByOrder(ctx context.Context, orderID int64) ([]*inventory.Unit, error) {
	var list []*inventory.Unit
	if err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("id ASC").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}
