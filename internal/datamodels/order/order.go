package order

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// 订单状态
const (
	StatusPending   = "PENDING"
	StatusPaid      = "PAID"
	StatusDelivered = "DELIVERED"
	StatusCompleted = "COMPLETED"
	StatusCancelled = "CANCELLED"
	StatusRefunded  = "REFUNDED"
)

// 支付状态（与订单状态独立维护）
const (
	PaymentUnpaid   = "UNPAID"
	PaymentPaid     = "PAID"
	PaymentRefunded = "REFUNDED"
)

// 支付方式哨兵值
const (
	PaymentMethodAdminExtract = "ADMIN_EXTRACT" // 管理员手动提卡
	PaymentMethodStorefront   = "STOREFRONT"    // 前台直购
)

// Order 订单模型
type Order struct {
	ID             int64            `gorm:"primaryKey" json:"id"`
	OrderNo        string           `gorm:"size:64;uniqueIndex;not null" json:"orderNo"`
	UserID         *int64           `gorm:"index" json:"userId,omitempty"`
	BuyerEmail     string           `gorm:"size:128;index" json:"buyerEmail"`
	TotalAmount    decimal.Decimal  `gorm:"type:decimal(10,2);not null" json:"totalAmount"`
	PaidAmount     decimal.Decimal  `gorm:"type:decimal(10,2);not null" json:"paidAmount"`
	DiscountAmount decimal.Decimal  `gorm:"type:decimal(10,2);not null" json:"discountAmount"`
	Status         string           `gorm:"size:16;index;not null;default:PENDING" json:"status"`
	PaymentStatus  string           `gorm:"size:16;index;not null;default:UNPAID" json:"paymentStatus"`
	PaymentMethod  string           `gorm:"size:32" json:"paymentMethod,omitempty"`
	TransactionID  string           `gorm:"size:128" json:"transactionId,omitempty"`
	PaidAt         *time.Time       `json:"paidAt,omitempty"`
	DeliveredAt    *time.Time       `json:"deliveredAt,omitempty"`
	DeliveryInfo   string           `gorm:"type:text" json:"deliveryInfo,omitempty"` // JSON 文本，记录交付方式
	RefundAmount   *decimal.Decimal `gorm:"type:decimal(10,2)" json:"refundAmount,omitempty"`
	RefundReason   string           `gorm:"size:512" json:"refundReason,omitempty"`
	RefundAt       *time.Time       `json:"refundAt,omitempty"`
	CreatedAt      time.Time        `gorm:"index" json:"createdAt"`
	UpdatedAt      time.Time        `json:"updatedAt"`

	Items []*Item `gorm:"foreignKey:OrderID" json:"orderItems,omitempty"`
}

func (Order) TableName() string { return "orders" }

// Item 订单项，商品名称/图片/单价为下单时快照
type Item struct {
	ID           int64           `gorm:"primaryKey" json:"id"`
	OrderID      int64           `gorm:"index;not null" json:"orderId"`
	ProductID    int64           `gorm:"index;not null" json:"productId"`
	ProductName  string          `gorm:"size:128;not null" json:"productName"`
	ProductImage string          `gorm:"size:512" json:"productImage,omitempty"`
	Quantity     int             `gorm:"not null" json:"quantity"`
	Price        decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price"`
	Subtotal     decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"subtotal"` // = Price × Quantity
	CreatedAt    time.Time       `json:"createdAt"`
}

func (Item) TableName() string { return "order_items" }

// ListFilter 订单列表查询条件
type ListFilter struct {
	OrderNo       string // 模糊匹配
	BuyerEmail    string // 模糊匹配
	Status        string
	PaymentStatus string
	Page          int
	Limit         int
}

// Repository 订单仓储接口
type Repository interface {
	GetByID(ctx context.Context, id int64) (*Order, error)
	GetByOrderNo(ctx context.Context, orderNo string) (*Order, error)
	List(ctx context.Context, f ListFilter) ([]*Order, int64, error)
	CountByStatus(ctx context.Context) (map[string]int64, error)
	CountSince(ctx context.Context, since time.Time) (int64, decimal.Decimal, error)
}
