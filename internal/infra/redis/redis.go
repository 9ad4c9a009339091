package redis

import (
	"sync"

	radix "github.com/mediocregopher/radix/v3"
	"go.uber.org/zap"

	"github.com/MainDotCpp/BlueUnion/internal/config"
)

const poolSize = 10

var (
	client radix.Client
	once   sync.Once
)

// Init 初始化 Redis 连接池并做一次连通性探测，失败直接退出
func Init(cfg *config.RedisConfig) radix.Client {
	once.Do(func() {
		pool, err := radix.NewPool("tcp", cfg.Addr, poolSize)
		if err != nil {
			zap.L().Fatal("connect redis failed", zap.String("addr", cfg.Addr), zap.Error(err))
		}
		if err := pool.Do(radix.Cmd(nil, "PING")); err != nil {
			zap.L().Fatal("redis ping failed", zap.String("addr", cfg.Addr), zap.Error(err))
		}
		client = pool
	})
	return client
}
