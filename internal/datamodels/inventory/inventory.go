package inventory

import (
	"context"
	"time"
)

// 库存状态机：AVAILABLE -> SOLD（提卡），SOLD -> AVAILABLE（退款释放）。
// RESERVED 为预留状态，当前没有任何流程会产生或消费它；
// EXPIRED 为终态，只由（范围外的）过期清理流程写入。
const (
	StatusAvailable = "AVAILABLE"
	StatusReserved  = "RESERVED"
	StatusSold      = "SOLD"
	StatusExpired   = "EXPIRED"
)

// Unit 单个可交付的库存记录（一条卡密或一个账号）
type Unit struct {
	ID           int64      `gorm:"primaryKey" json:"id"`
	ProductID    int64      `gorm:"index;not null" json:"productId"`
	CardNumber   string     `gorm:"type:text;not null" json:"cardNumber"` // 卡密内容
	CardPassword string     `gorm:"size:256" json:"cardPassword,omitempty"`
	AccountInfo  string     `gorm:"type:text" json:"accountInfo,omitempty"`
	Status       string     `gorm:"size:16;index;not null;default:AVAILABLE" json:"status"`
	OrderID      *int64     `gorm:"index" json:"orderId,omitempty"` // 仅 SOLD 时非空
	SoldAt       *time.Time `json:"soldAt,omitempty"`
	BatchID      string     `gorm:"size:64;index" json:"batchId"` // 同批导入共享
	ImportedBy   string     `gorm:"size:64" json:"importedBy,omitempty"`
	ExpiresAt    *time.Time `json:"expiresAt,omitempty"`
	CreatedAt    time.Time  `gorm:"index" json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

func (Unit) TableName() string { return "inventory" }

// ListFilter 库存列表查询条件
type ListFilter struct {
	ProductID int64
	Status    string
	BatchID   string
	Page      int
	Limit     int
}

// Repository 库存仓储接口
type Repository interface {
	GetByID(ctx context.Context, id int64) (*Unit, error)
	List(ctx context.Context, f ListFilter) ([]*Unit, int64, error)
	BatchCreate(ctx context.Context, units []*Unit) error
	CountAvailable(ctx context.Context, productID int64) (int64, error)
	// CountByStatus 返回各状态的数量统计，productID 为 0 时统计全部
	CountByStatus(ctx context.Context, productID int64) (map[string]int64, error)
	ListByOrder(ctx context.Context, orderID int64) ([]*Unit, error)
}
