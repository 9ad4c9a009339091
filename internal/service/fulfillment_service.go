package service

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	radix "github.com/mediocregopher/radix/v3"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/MainDotCpp/BlueUnion/internal/datamodels/inventory"
	"github.com/MainDotCpp/BlueUnion/internal/datamodels/order"
	"github.com/MainDotCpp/BlueUnion/internal/datamodels/product"
	"github.com/MainDotCpp/BlueUnion/internal/errs"
)

const (
	// DeliveryQueue 发货/退款通知队列
	DeliveryQueue = "delivery_queue"

	redisStockKey = "inventory:avail:%d" // productID
)

// DeliveryMessage 投递到 MQ 的发货通知
type DeliveryMessage struct {
	Type        string `json:"type"` // delivered / refunded
	OrderID     int64  `json:"order_id"`
	OrderNo     string `json:"order_no"`
	BuyerEmail  string `json:"buyer_email"`
	ProductName string `json:"product_name,omitempty"`
	Quantity    int    `json:"quantity"`
}

// FulfillInput 提卡请求
type FulfillInput struct {
	ProductID     int64
	Quantity      int
	BuyerEmail    string
	Note          string
	Operator      string // 触发提卡的管理员，前台下单时为空
	PaymentMethod string // 缺省 ADMIN_EXTRACT
}

// ClaimedUnit 提取到的卡密
type ClaimedUnit struct {
	UnitID       int64  `json:"id"`
	CardNumber   string `json:"cardNumber"`
	CardPassword string `json:"cardPassword,omitempty"`
}

// FulfillResult 提卡结果，CardNumber 即需要交付给买家的内容
type FulfillResult struct {
	OrderID           int64           `json:"orderId"`
	OrderNo           string          `json:"orderNo"`
	TotalAmount       decimal.Decimal `json:"totalAmount"`
	Units             []ClaimedUnit   `json:"cards"`
	QuantityFulfilled int             `json:"quantity"`
}

// FulfillmentService 库存交付核心：把可用库存原子地转成已售并绑定到新订单。
// 后台手动提卡和前台直购走的是同一个入口，只是 BuyerEmail/Note 不同。
type FulfillmentService struct {
	db     *gorm.DB
	redis  radix.Client     // 可为 nil，仅影响缓存失效
	mqConn *amqp.Connection // 可为 nil，仅影响通知投递
}

// NewFulfillmentService 创建交付服务
func NewFulfillmentService(db *gorm.DB, redis radix.Client, mqConn *amqp.Connection) *FulfillmentService {
	return &FulfillmentService{db: db, redis: redis, mqConn: mqConn}
}

// deliveryInfo 写进订单的交付说明
type deliveryInfo struct {
	Type        string    `json:"type"`
	Note        string    `json:"note"`
	Operator    string    `json:"operator,omitempty"`
	ExtractedAt time.Time `json:"extractedAt"`
}

// Fulfill 执行提卡：FIFO 选取可用库存、创建订单、绑定卡密、累加销量。
// 整个过程在一个事务内完成，任何一步失败都整体回滚。
// 注意：本操作不幂等，重复调用会各自占用库存并生成新订单。
func (s *FulfillmentService) Fulfill(ctx context.Context, in FulfillInput) (*FulfillResult, error) {
	GetMonitor().RecordFulfillRequest()

	if in.Quantity < 1 {
		return nil, errs.ErrInvalidQuantity
	}
	if in.PaymentMethod == "" {
		in.PaymentMethod = order.PaymentMethodAdminExtract
	}
	if in.BuyerEmail == "" {
		in.BuyerEmail = "admin@system.local"
	}

	var result *FulfillResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now()

		// 1) 锁定商品，顺带拿到单价和当前销量
		var p product.Product
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&p, in.ProductID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errs.ErrProductNotFound
			}
			return err
		}

		// 2) 按创建时间先进先出锁定候选库存，id 作为同秒导入的次序兜底
		var units []*inventory.Unit
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("product_id = ? AND status = ?", in.ProductID, inventory.StatusAvailable).
			Order("created_at ASC, id ASC").
			Limit(in.Quantity).
			Find(&units).Error; err != nil {
			return err
		}
		if len(units) < in.Quantity {
			return &errs.InsufficientStockError{Available: int64(len(units))}
		}

		// 3) 创建订单，手动提卡直接落在已发货/已支付
		total := p.Price.Mul(decimal.NewFromInt(int64(in.Quantity)))
		note := in.Note
		if note == "" {
			note = "管理员手动提卡"
		}
		info, _ := json.Marshal(deliveryInfo{
			Type:        in.PaymentMethod,
			Note:        note,
			Operator:    in.Operator,
			ExtractedAt: now,
		})
		o := order.Order{
			OrderNo:        genOrderNo(in.PaymentMethod),
			BuyerEmail:     in.BuyerEmail,
			TotalAmount:    total,
			PaidAmount:     total,
			DiscountAmount: decimal.Zero,
			Status:         order.StatusDelivered,
			PaymentStatus:  order.PaymentPaid,
			PaymentMethod:  in.PaymentMethod,
			PaidAt:         &now,
			DeliveredAt:    &now,
			DeliveryInfo:   string(info),
		}
		if err := tx.Create(&o).Error; err != nil {
			return err
		}

		// 4) 订单项快照，小计在写入时固定
		item := order.Item{
			OrderID:      o.ID,
			ProductID:    p.ID,
			ProductName:  p.Name,
			ProductImage: p.Image,
			Quantity:     in.Quantity,
			Price:        p.Price,
			Subtotal:     total,
		}
		if err := tx.Create(&item).Error; err != nil {
			return err
		}

		// 5) 占用库存。再次校验 status=AVAILABLE，写入行数对不上说明
		// 有并发事务抢先占用了其中的卡，整单回滚交给调用方重试。
		ids := make([]int64, len(units))
		for i, u := range units {
			ids[i] = u.ID
		}
		res := tx.Model(&inventory.Unit{}).
			Where("id IN ? AND status = ?", ids, inventory.StatusAvailable).
			Updates(map[string]interface{}{
				"status":   inventory.StatusSold,
				"order_id": o.ID,
				"sold_at":  now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected != int64(len(ids)) {
			return errs.ErrStockConflict
		}

		// 6) 累加销量
		if err := tx.Model(&product.Product{}).
			Where("id = ?", p.ID).
			UpdateColumn("sales_count", gorm.Expr("sales_count + ?", in.Quantity)).Error; err != nil {
			return err
		}

		claimed := make([]ClaimedUnit, len(units))
		for i, u := range units {
			claimed[i] = ClaimedUnit{
				UnitID:       u.ID,
				CardNumber:   u.CardNumber,
				CardPassword: u.CardPassword,
			}
		}
		result = &FulfillResult{
			OrderID:           o.ID,
			OrderNo:           o.OrderNo,
			TotalAmount:       o.TotalAmount,
			Units:             claimed,
			QuantityFulfilled: len(claimed),
		}

		return nil
	})
	if err != nil {
		GetMonitor().RecordFulfillError()
		return nil, err
	}
	GetMonitor().RecordFulfillSuccess()

	// 事务外的善后：缓存失效 + 发货通知，失败只记录不影响结果
	s.invalidateStockCache(in.ProductID)
	s.publish(DeliveryMessage{
		Type:       "delivered",
		OrderID:    result.OrderID,
		OrderNo:    result.OrderNo,
		BuyerEmail: in.BuyerEmail,
		Quantity:   result.QuantityFulfilled,
	})

	return result, nil
}

func (s *FulfillmentService) invalidateStockCache(productID int64) {
	if s.redis == nil {
		return
	}
	key := fmt.Sprintf(redisStockKey, productID)
	if err := s.redis.Do(radix.Cmd(nil, "DEL", key)); err != nil {
		GetMonitor().RecordRedisError()
		zap.L().Warn("invalidate stock cache failed", zap.Error(err))
	}
}

func (s *FulfillmentService) publish(m DeliveryMessage) {
	if s.mqConn == nil {
		return
	}
	ch, err := s.mqConn.Channel()
	if err != nil {
		GetMonitor().RecordMQError()
		zap.L().Warn("open mq channel failed", zap.Error(err))
		return
	}
	defer ch.Close()

	if _, err = ch.QueueDeclare(DeliveryQueue, true, false, false, false, nil); err != nil {
		GetMonitor().RecordMQError()
		zap.L().Warn("declare delivery queue failed", zap.Error(err))
		return
	}
	body, _ := json.Marshal(m)
	err = ch.PublishWithContext(context.Background(), "", DeliveryQueue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         body,
	})
	if err != nil {
		GetMonitor().RecordMQError()
		zap.L().Warn("publish delivery message failed", zap.Error(err))
	}
}

const orderNoCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// genOrderNo 生成订单号：<前缀>_<毫秒时间戳>_<9位随机串>
func genOrderNo(method string) string {
	prefix := "ADMIN"
	if method == order.PaymentMethodStorefront {
		prefix = "SHOP"
	}
	buf := make([]byte, 9)
	_, _ = rand.Read(buf)
	for i, b := range buf {
		buf[i] = orderNoCharset[int(b)%len(orderNoCharset)]
	}
	return fmt.Sprintf("%s_%d_%s", prefix, time.Now().UnixMilli(), buf)
}
