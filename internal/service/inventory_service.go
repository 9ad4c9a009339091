package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	radix "github.com/mediocregopher/radix/v3"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/MainDotCpp/BlueUnion/internal/datamodels/inventory"
	"github.com/MainDotCpp/BlueUnion/internal/datamodels/product"
	"github.com/MainDotCpp/BlueUnion/internal/errs"
)

const stockCacheTTLSeconds = 30

// ImportItem 批量导入的一行
type ImportItem struct {
	CardNumber   string     `json:"cardNumber"`
	CardPassword string     `json:"cardPassword,omitempty"`
	AccountInfo  string     `json:"accountInfo,omitempty"`
	ExpiresAt    *time.Time `json:"expiresAt,omitempty"`
}

// ImportResult 导入结果
type ImportResult struct {
	Success int    `json:"success"`
	Failed  int    `json:"failed"`
	BatchID string `json:"batchId"`
}

// InventoryService 库存管理：批量导入、查询、统计
type InventoryService struct {
	repo        inventory.Repository
	productRepo product.Repository
	redis       radix.Client // 可为 nil
}

// NewInventoryService 创建库存服务
func NewInventoryService(repo inventory.Repository, productRepo product.Repository, redis radix.Client) *InventoryService {
	return &InventoryService{repo: repo, productRepo: productRepo, redis: redis}
}

// Import 批量导入卡密。同一批共享一个 batchId，状态一律写为 AVAILABLE，
// 卡密为空的行计入 failed 并跳过。
func (s *InventoryService) Import(ctx context.Context, productID int64, items []ImportItem, importedBy string) (*ImportResult, error) {
	if productID <= 0 || len(items) == 0 {
		return nil, errs.ErrEmptyImport
	}
	if _, err := s.productRepo.GetByID(ctx, productID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.ErrProductNotFound
		}
		return nil, err
	}

	batchID := fmt.Sprintf("batch_%s", uuid.NewString())
	units := make([]*inventory.Unit, 0, len(items))
	failed := 0
	for _, it := range items {
		cardNumber := strings.TrimSpace(it.CardNumber)
		if cardNumber == "" {
			failed++
			continue
		}
		units = append(units, &inventory.Unit{
			ProductID:    productID,
			CardNumber:   cardNumber,
			CardPassword: strings.TrimSpace(it.CardPassword),
			AccountInfo:  it.AccountInfo,
			Status:       inventory.StatusAvailable,
			BatchID:      batchID,
			ImportedBy:   importedBy,
			ExpiresAt:    it.ExpiresAt,
		})
	}
	if len(units) == 0 {
		return nil, errs.ErrEmptyImport
	}

	if err := s.repo.BatchCreate(ctx, units); err != nil {
		return nil, err
	}
	GetMonitor().RecordImport(len(units))
	s.invalidateStockCache(productID)

	return &ImportResult{
		Success: len(units),
		Failed:  failed,
		BatchID: batchID,
	}, nil
}

// GetUnit 查询单条库存记录（后台排查卡密归属用）
func (s *InventoryService) GetUnit(ctx context.Context, id int64) (*inventory.Unit, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.ErrUnitNotFound
		}
		return nil, err
	}
	return u, nil
}

// List 库存列表
func (s *InventoryService) List(ctx context.Context, f inventory.ListFilter) ([]*inventory.Unit, int64, error) {
	return s.repo.List(ctx, f)
}

// Stats 按状态统计库存数量
func (s *InventoryService) Stats(ctx context.Context, productID int64) (map[string]int64, error) {
	return s.repo.CountByStatus(ctx, productID)
}

// AvailableCount 查询某商品的可用库存，优先走 Redis 缓存，
// 未命中则落库查询并写回（短 TTL，提卡/退款/导入时主动失效）。
func (s *InventoryService) AvailableCount(ctx context.Context, productID int64) (int64, error) {
	key := fmt.Sprintf(redisStockKey, productID)
	if s.redis != nil {
		var raw string
		if err := s.redis.Do(radix.Cmd(&raw, "GET", key)); err == nil && raw != "" {
			if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
				return n, nil
			}
		}
	}

	n, err := s.repo.CountAvailable(ctx, productID)
	if err != nil {
		return 0, err
	}
	if s.redis != nil {
		if err := s.redis.Do(radix.FlatCmd(nil, "SETEX", key, stockCacheTTLSeconds, n)); err != nil {
			GetMonitor().RecordRedisError()
			zap.L().Warn("cache available stock failed", zap.Error(err))
		}
	}
	return n, nil
}

func (s *InventoryService) invalidateStockCache(productID int64) {
	if s.redis == nil {
		return
	}
	key := fmt.Sprintf(redisStockKey, productID)
	if err := s.redis.Do(radix.Cmd(nil, "DEL", key)); err != nil {
		GetMonitor().RecordRedisError()
		zap.L().Warn("invalidate stock cache failed", zap.Error(err))
	}
}
