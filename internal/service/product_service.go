package service

import (
	"context"
	"errors"
	"fmt"

	radix "github.com/mediocregopher/radix/v3"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/MainDotCpp/BlueUnion/internal/datamodels/inventory"
	"github.com/MainDotCpp/BlueUnion/internal/datamodels/product"
	"github.com/MainDotCpp/BlueUnion/internal/errs"
)

const redisViewKey = "product:view:%d" // productID

// ProductService 商品管理
type ProductService struct {
	db    *gorm.DB
	repo  product.Repository
	redis radix.Client // 可为 nil，浏览计数直接落库
}

// NewProductService 创建商品服务
func NewProductService(db *gorm.DB, repo product.Repository, redis radix.Client) *ProductService {
	return &ProductService{db: db, repo: repo, redis: redis}
}

// Get 查询商品
func (s *ProductService) Get(ctx context.Context, id int64) (*product.Product, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.ErrProductNotFound
		}
		return nil, err
	}
	return p, nil
}

// GetBySlug 按 slug 查询商品（前台详情页入口）
func (s *ProductService) GetBySlug(ctx context.Context, slug string) (*product.Product, error) {
	p, err := s.repo.GetBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.ErrProductNotFound
		}
		return nil, err
	}
	return p, nil
}

// List 商品列表
func (s *ProductService) List(ctx context.Context, f product.ListFilter) ([]*product.Product, int64, error) {
	return s.repo.List(ctx, f)
}

// Create 创建商品，slug 全局唯一
func (s *ProductService) Create(ctx context.Context, p *product.Product) error {
	if p.Name == "" || p.Slug == "" || p.CategoryID <= 0 {
		return errs.ErrMissingFields
	}
	if p.Price.IsNegative() {
		return &errs.Error{Kind: errs.KindValidation, Message: "价格不能为负"}
	}
	if _, err := s.repo.GetBySlug(ctx, p.Slug); err == nil {
		return errs.ErrSlugTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	if p.Status == "" {
		p.Status = product.StatusDraft
	}
	if p.StockType == "" {
		p.StockType = product.StockTypeCard
	}
	return s.repo.Create(ctx, p)
}

// Update 更新商品，slug 变化时做唯一性检查
func (s *ProductService) Update(ctx context.Context, p *product.Product) error {
	existing, err := s.Get(ctx, p.ID)
	if err != nil {
		return err
	}
	if p.Slug != existing.Slug {
		if _, err := s.repo.GetBySlug(ctx, p.Slug); err == nil {
			return errs.ErrSlugTaken
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
	}
	if p.Price.IsNegative() {
		return &errs.Error{Kind: errs.KindValidation, Message: "价格不能为负"}
	}
	return s.repo.Update(ctx, p)
}

// Delete 删除商品，连同它的全部库存记录一起删（级联）
func (s *ProductService) Delete(ctx context.Context, id int64) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("product_id = ?", id).Delete(&inventory.Unit{}).Error; err != nil {
			return err
		}
		return tx.Delete(&product.Product{}, id).Error
	})
}

// TopBySales 销量榜（后台看板用）
func (s *ProductService) TopBySales(ctx context.Context, limit int) ([]*product.Product, error) {
	return s.repo.TopBySales(ctx, limit)
}

// RecordView 记录一次浏览。有 Redis 时先在 Redis 累加，由 view-sync 定时刷库；
// 没有 Redis 时直接落库。
func (s *ProductService) RecordView(ctx context.Context, productID int64) {
	if s.redis != nil {
		key := fmt.Sprintf(redisViewKey, productID)
		if err := s.redis.Do(radix.Cmd(nil, "INCR", key)); err != nil {
			GetMonitor().RecordRedisError()
			zap.L().Warn("incr view counter failed", zap.Error(err))
		}
		return
	}
	if err := s.repo.AddViewCount(ctx, productID, 1); err != nil {
		zap.L().Warn("add view count failed", zap.Error(err))
	}
}
