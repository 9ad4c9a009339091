package service

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/MainDotCpp/BlueUnion/internal/datamodels/category"
	"github.com/MainDotCpp/BlueUnion/internal/datamodels/product"
	"github.com/MainDotCpp/BlueUnion/internal/errs"
)

// CategoryService 分类管理，parentId 自引用构成树
type CategoryService struct {
	repo        category.Repository
	productRepo product.Repository
}

// NewCategoryService 创建分类服务
func NewCategoryService(repo category.Repository, productRepo product.Repository) *CategoryService {
	return &CategoryService{repo: repo, productRepo: productRepo}
}

// Get 查询分类
func (s *CategoryService) Get(ctx context.Context, id int64) (*category.Category, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.ErrCategoryNotFound
		}
		return nil, err
	}
	return c, nil
}

// GetBySlug 按 slug 查询分类
func (s *CategoryService) GetBySlug(ctx context.Context, slug string) (*category.Category, error) {
	c, err := s.repo.GetBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.ErrCategoryNotFound
		}
		return nil, err
	}
	return c, nil
}

// ListAll 全部分类（后台）
func (s *CategoryService) ListAll(ctx context.Context) ([]*category.Category, error) {
	return s.repo.ListAll(ctx)
}

// Tree 有效分类组装成树（前台导航）
func (s *CategoryService) Tree(ctx context.Context) ([]*category.Category, error) {
	list, err := s.repo.ListByStatus(ctx, category.StatusActive)
	if err != nil {
		return nil, err
	}
	byID := make(map[int64]*category.Category, len(list))
	for _, c := range list {
		byID[c.ID] = c
	}
	var roots []*category.Category
	for _, c := range list {
		if c.ParentID != nil {
			if parent, ok := byID[*c.ParentID]; ok {
				parent.Children = append(parent.Children, c)
				continue
			}
		}
		roots = append(roots, c)
	}
	return roots, nil
}

// Create 创建分类：slug 唯一，父分类必须存在
func (s *CategoryService) Create(ctx context.Context, c *category.Category) error {
	if c.Name == "" || c.Slug == "" {
		return errs.ErrMissingFields
	}
	if _, err := s.repo.GetBySlug(ctx, c.Slug); err == nil {
		return errs.ErrSlugTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	if c.ParentID != nil {
		if _, err := s.repo.GetByID(ctx, *c.ParentID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errs.ErrParentNotFound
			}
			return err
		}
	}
	if c.Status == "" {
		c.Status = category.StatusActive
	}
	return s.repo.Create(ctx, c)
}

// Update 更新分类：不能把自己设为父分类，slug 变化时查重
func (s *CategoryService) Update(ctx context.Context, c *category.Category) error {
	existing, err := s.Get(ctx, c.ID)
	if err != nil {
		return err
	}
	if c.Slug != existing.Slug {
		if _, err := s.repo.GetBySlug(ctx, c.Slug); err == nil {
			return errs.ErrSlugTaken
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
	}
	if c.ParentID != nil {
		if *c.ParentID == c.ID {
			return errs.ErrSelfParent
		}
		if _, err := s.repo.GetByID(ctx, *c.ParentID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errs.ErrParentNotFound
			}
			return err
		}
	}
	return s.repo.Update(ctx, c)
}

// Delete 删除分类：还有子分类或商品时拒绝（显式前置检查，不依赖数据库约束）
func (s *CategoryService) Delete(ctx context.Context, id int64) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	children, err := s.repo.CountChildren(ctx, id)
	if err != nil {
		return err
	}
	if children > 0 {
		return errs.ErrCategoryHasChildren
	}
	products, err := s.productRepo.CountByCategory(ctx, id)
	if err != nil {
		return err
	}
	if products > 0 {
		return errs.ErrCategoryHasProducts
	}
	return s.repo.Delete(ctx, id)
}
