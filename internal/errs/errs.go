package errs

import (
	"errors"
	"fmt"
)

// Kind 错误分类，HTTP 层据此映射状态码
type Kind string

const (
	KindNotFound    Kind = "not_found"
	KindValidation  Kind = "validation"
	KindConflict    Kind = "conflict"
	KindConcurrency Kind = "concurrency" // 可重试
	KindInternal    Kind = "internal"
)

// Error 业务错误，带分类和对用户展示的消息
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) ErrorKind() Kind { return e.Kind }

// Is 支持 errors.Is 按哨兵比较（忽略包装的底层错误）
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && e.Message == t.Message
}

// 哨兵错误定义
var (
	ErrProductNotFound  = &Error{Kind: KindNotFound, Message: "产品不存在"}
	ErrCategoryNotFound = &Error{Kind: KindNotFound, Message: "分类不存在"}
	ErrParentNotFound   = &Error{Kind: KindValidation, Message: "父分类不存在"}
	ErrOrderNotFound    = &Error{Kind: KindNotFound, Message: "订单不存在"}
	ErrUserNotFound     = &Error{Kind: KindNotFound, Message: "用户不存在"}
	ErrUnitNotFound     = &Error{Kind: KindNotFound, Message: "库存记录不存在"}

	ErrInvalidQuantity = &Error{Kind: KindValidation, Message: "提卡数量必须大于0"}
	ErrEmptyImport     = &Error{Kind: KindValidation, Message: "请提供产品ID和库存数据"}
	ErrMissingFields   = &Error{Kind: KindValidation, Message: "缺少必填字段"}
	ErrInvalidPassword = &Error{Kind: KindValidation, Message: "用户名或密码错误"}

	ErrSlugTaken           = &Error{Kind: KindConflict, Message: "URL slug 已存在"}
	ErrUsernameTaken       = &Error{Kind: KindConflict, Message: "用户名已存在"}
	ErrSelfParent          = &Error{Kind: KindValidation, Message: "不能将自己设为父分类"}
	ErrCategoryHasChildren = &Error{Kind: KindConflict, Message: "该分类下还有子分类，无法删除"}
	ErrCategoryHasProducts = &Error{Kind: KindConflict, Message: "该分类下还有产品，无法删除"}
	ErrAlreadyRefunded     = &Error{Kind: KindConflict, Message: "订单已退款"}

	// ErrStockConflict 选中的库存在提交前被并发事务抢占，整单回滚，调用方可重试
	ErrStockConflict = &Error{Kind: KindConcurrency, Message: "库存被并发占用，请重试"}
)

// InsufficientStockError 库存不足，携带当前可用数量
type InsufficientStockError struct {
	Available int64
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("库存不足，当前可用: %d", e.Available)
}

func (e *InsufficientStockError) ErrorKind() Kind { return KindConflict }

// Wrap 包装底层错误为内部错误
func Wrap(msg string, err error) *Error {
	return &Error{Kind: KindInternal, Message: msg, Err: err}
}

type kinder interface {
	ErrorKind() Kind
}

// KindOf 提取错误分类，未分类的一律视为内部错误
func KindOf(err error) Kind {
	var k kinder
	if errors.As(err, &k) {
		return k.ErrorKind()
	}
	return KindInternal
}
