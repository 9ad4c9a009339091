package user

import (
	"context"
	"time"
)

// 角色
const (
	RoleAdmin    = "ADMIN"
	RoleOperator = "OPERATOR"
)

// 账号状态
const (
	StatusActive   = "ACTIVE"
	StatusDisabled = "DISABLED"
)

// User 后台管理用户
type User struct {
	ID        int64     `gorm:"primaryKey" json:"id"`
	Username  string    `gorm:"size:64;uniqueIndex;not null" json:"username"`
	Password  string    `gorm:"size:128;not null" json:"-"` // sha256(password+salt)
	Salt      string    `gorm:"size:32;not null" json:"-"`
	Role      string    `gorm:"size:16;not null;default:ADMIN" json:"role"`
	Status    string    `gorm:"size:16;not null;default:ACTIVE" json:"status"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (User) TableName() string { return "users" }

// Repository 用户仓储接口
type Repository interface {
	GetByID(ctx context.Context, id int64) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	Create(ctx context.Context, u *User) error
}
