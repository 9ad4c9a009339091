package category

import (
	"context"
	"time"
)

// 分类状态
const (
	StatusActive   = "ACTIVE"
	StatusInactive = "INACTIVE"
)

// Category 商品分类，parentId 自引用构成森林
type Category struct {
	ID          int64     `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"size:64;not null" json:"name"`
	Slug        string    `gorm:"size:128;uniqueIndex;not null" json:"slug"`
	Description string    `gorm:"size:512" json:"description"`
	Icon        string    `gorm:"size:256" json:"icon"`
	Sort        int       `gorm:"default:0" json:"sort"`
	Status      string    `gorm:"size:16;index;not null;default:ACTIVE" json:"status"`
	ParentID    *int64    `gorm:"index" json:"parentId,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`

	Children []*Category `gorm:"-" json:"children,omitempty"`
}

func (Category) TableName() string { return "categories" }

// Repository 分类仓储接口
type Repository interface {
	GetByID(ctx context.Context, id int64) (*Category, error)
	GetBySlug(ctx context.Context, slug string) (*Category, error)
	ListAll(ctx context.Context) ([]*Category, error)
	ListByStatus(ctx context.Context, status string) ([]*Category, error)
	CountChildren(ctx context.Context, parentID int64) (int64, error)
	Create(ctx context.Context, c *Category) error
	Update(ctx context.Context, c *Category) error
	Delete(ctx context.Context, id int64) error
}
