package main

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	radix "github.com/mediocregopher/radix/v3"
	"go.uber.org/zap"

	"github.com/MainDotCpp/BlueUnion/internal/config"
	"github.com/MainDotCpp/BlueUnion/internal/datamodels/product"
	"github.com/MainDotCpp/BlueUnion/internal/infra/redis"
	"github.com/MainDotCpp/BlueUnion/internal/logging"
	"github.com/MainDotCpp/BlueUnion/internal/repository/mysql"
	"github.com/MainDotCpp/BlueUnion/internal/service"
)

const (
	redisViewKey  = "product:view:%d" // productID
	flushInterval = 1 * time.Minute
)

// 浏览计数回写：前台详情页把浏览次数先累加在 Redis，
// 这里定时取走增量累加到 products.view_count。
func main() {
	_ = godotenv.Load()

	cfg, err := config.Load("./config")
	if err != nil {
		log.Fatalf("load config failed: %v", err)
	}
	if err := logging.Init(&cfg.Log); err != nil {
		log.Fatalf("init logger failed: %v", err)
	}

	db := mysql.Init(&cfg.MySQL)
	redisClient := redis.Init(&cfg.Redis)
	productRepo := mysql.NewProductRepository(db)

	zap.L().Info("view-sync started", zap.Duration("interval", flushInterval))

	ticker := time.NewTicker(flushInterval)
	defer ticker.Stop()

	// 立即执行一次
	flush(context.Background(), productRepo, redisClient)

	for range ticker.C {
		flush(context.Background(), productRepo, redisClient)
	}
}

func flush(ctx context.Context, productRepo product.Repository, redisClient radix.Client) {
	// 全量商品的 key 是可枚举的，不需要 SCAN
	products, _, err := productRepo.List(ctx, product.ListFilter{})
	if err != nil {
		zap.L().Error("list products failed", zap.Error(err))
		return
	}

	flushed := 0
	for _, p := range products {
		key := fmt.Sprintf(redisViewKey, p.ID)

		var raw string
		// GETDEL 原子取走增量，中间新产生的计数落在下一轮
		if err := redisClient.Do(radix.Cmd(&raw, "GETDEL", key)); err != nil {
			zap.L().Warn("getdel view counter failed", zap.Int64("product_id", p.ID), zap.Error(err))
			continue
		}
		if raw == "" {
			continue
		}
		delta, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || delta <= 0 {
			continue
		}
		if err := productRepo.AddViewCount(ctx, p.ID, delta); err != nil {
			service.GetMonitor().RecordDBError()
			zap.L().Error("flush view count failed", zap.Int64("product_id", p.ID), zap.Error(err))
			// 回写失败则把增量补回去，避免丢计数
			_ = redisClient.Do(radix.FlatCmd(nil, "INCRBY", key, delta))
			continue
		}
		flushed++
	}

	if flushed > 0 {
		zap.L().Info("view counters flushed", zap.Int("products", flushed))
	}
}
