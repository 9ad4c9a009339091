package product

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// 商品状态
const (
	StatusDraft    = "DRAFT"
	StatusActive   = "ACTIVE"
	StatusInactive = "INACTIVE"
	StatusSoldOut  = "SOLD_OUT"
)

// 库存类型
const (
	StockTypeCard    = "CARD"    // 卡密
	StockTypeAccount = "ACCOUNT" // 账号
)

// Product 商品模型
type Product struct {
	ID            int64            `gorm:"primaryKey" json:"id"`
	Name          string           `gorm:"size:128;not null" json:"name"`
	Slug          string           `gorm:"size:128;uniqueIndex;not null" json:"slug"`
	Description   string           `gorm:"size:1024" json:"description"`
	Image         string           `gorm:"size:512" json:"image"`
	Price         decimal.Decimal  `gorm:"type:decimal(10,2);not null" json:"price"`
	OriginalPrice *decimal.Decimal `gorm:"type:decimal(10,2)" json:"originalPrice,omitempty"` // 划线价，仅展示
	CategoryID    int64            `gorm:"index;not null" json:"categoryId"`
	Status        string           `gorm:"size:16;index;not null;default:DRAFT" json:"status"`
	Featured      bool             `gorm:"index" json:"featured"`
	Sort          int              `gorm:"default:0" json:"sort"`
	StockType     string           `gorm:"size:16;not null;default:CARD" json:"stockType"`
	AutoDeliver   bool             `gorm:"default:true" json:"autoDeliver"`
	SalesCount    int64            `gorm:"not null;default:0" json:"salesCount"`
	ViewCount     int64            `gorm:"not null;default:0" json:"viewCount"`
	CreatedAt     time.Time        `json:"createdAt"`
	UpdatedAt     time.Time        `json:"updatedAt"`
}

func (Product) TableName() string { return "products" }

// ListFilter 列表查询条件
type ListFilter struct {
	Status     string
	CategoryID int64
	Search     string // 按名称/描述模糊匹配
	Page       int
	Limit      int
}

// Repository 商品仓储接口
type Repository interface {
	GetByID(ctx context.Context, id int64) (*Product, error)
	GetBySlug(ctx context.Context, slug string) (*Product, error)
	List(ctx context.Context, f ListFilter) ([]*Product, int64, error)
	CountByCategory(ctx context.Context, categoryID int64) (int64, error)
	TopBySales(ctx context.Context, limit int) ([]*Product, error)
	Create(ctx context.Context, p *Product) error
	Update(ctx context.Context, p *Product) error
	AddViewCount(ctx context.Context, id, delta int64) error
}
