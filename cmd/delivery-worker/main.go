package main

import (
	"encoding/json"
	"log"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/MainDotCpp/BlueUnion/internal/config"
	"github.com/MainDotCpp/BlueUnion/internal/infra/mq"
	"github.com/MainDotCpp/BlueUnion/internal/logging"
	"github.com/MainDotCpp/BlueUnion/internal/service"
)

// 发货通知 worker：消费提卡/退款消息并向买家发送通知。
// 当前的"发送"是结构化日志占位，接邮件通道时只需要替换 notify。
func main() {
	_ = godotenv.Load()

	cfg, err := config.Load("./config")
	if err != nil {
		log.Fatalf("load config failed: %v", err)
	}
	if err := logging.Init(&cfg.Log); err != nil {
		log.Fatalf("init logger failed: %v", err)
	}

	mqConn := mq.Init(&cfg.RabbitMQ)

	ch, err := mqConn.Channel()
	if err != nil {
		zap.L().Fatal("open channel failed", zap.Error(err))
	}
	defer ch.Close()

	if _, err = ch.QueueDeclare(service.DeliveryQueue, true, false, false, false, nil); err != nil {
		zap.L().Fatal("declare queue failed", zap.Error(err))
	}

	// 手动确认模式（auto-ack=false）
	msgs, err := ch.Consume(service.DeliveryQueue, "", false, false, false, false, nil)
	if err != nil {
		zap.L().Fatal("consume failed", zap.Error(err))
	}

	zap.L().Info("delivery worker started, waiting for messages...")

	for d := range msgs {
		var m service.DeliveryMessage
		if err := json.Unmarshal(d.Body, &m); err != nil {
			zap.L().Warn("invalid message, dropping", zap.Error(err))
			// 消息格式错误，拒绝并丢弃
			_ = d.Nack(false, false)
			service.GetMonitor().RecordWorkerFailed()
			continue
		}

		if err := notify(&m); err != nil {
			zap.L().Error("notify failed, requeue", zap.String("order_no", m.OrderNo), zap.Error(err))
			_ = d.Nack(false, true)
			service.GetMonitor().RecordWorkerFailed()
			continue
		}

		_ = d.Ack(false)
		service.GetMonitor().RecordWorkerProcessed()
	}
}

func notify(m *service.DeliveryMessage) error {
	switch m.Type {
	case "refunded":
		zap.L().Info("refund notice",
			zap.String("order_no", m.OrderNo),
			zap.String("buyer_email", m.BuyerEmail))
	default:
		zap.L().Info("delivery notice",
			zap.String("order_no", m.OrderNo),
			zap.String("buyer_email", m.BuyerEmail),
			zap.Int("quantity", m.Quantity))
	}
	return nil
}
