package mq

import (
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/MainDotCpp/BlueUnion/internal/config"
)

var (
	conn *amqp.Connection
	once sync.Once
)

// Init 建立 RabbitMQ 连接，连接异常断开时记录日志。
// 没有自动重连，进程靠编排层拉起。
func Init(cfg *config.RabbitMQConfig) *amqp.Connection {
	once.Do(func() {
		c, err := amqp.Dial(cfg.URL)
		if err != nil {
			zap.L().Fatal("connect rabbitmq failed", zap.Error(err))
		}
		go func() {
			if e := <-c.NotifyClose(make(chan *amqp.Error, 1)); e != nil {
				zap.L().Error("rabbitmq connection closed", zap.Error(e))
			}
		}()
		conn = c
	})
	return conn
}
