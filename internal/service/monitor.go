package service

import (
	"sync"
	"time"
)

// Monitor 进程内计数器，用于运维观察提卡/退款/导入与基础设施错误
type Monitor struct {
	mu sync.RWMutex

	// 错误统计
	RedisErrors   int64
	MQErrors      int64
	DBErrors      int64
	FulfillErrors int64
	WorkerErrors  int64

	// 业务统计
	FulfillRequests int64
	FulfillSuccess  int64
	RefundCount     int64
	ImportedUnits   int64
	WorkerProcessed int64
	WorkerFailed    int64

	// 时间统计
	LastRedisError  time.Time
	LastMQError     time.Time
	LastDBError     time.Time
	LastFulfillTime time.Time
	LastWorkerTime  time.Time
}

var globalMonitor = &Monitor{}

// GetMonitor 获取全局监控实例
func GetMonitor() *Monitor {
	return globalMonitor
}

// RecordRedisError 记录Redis错误
func (m *Monitor) RecordRedisError() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RedisErrors++
	m.LastRedisError = time.Now()
}

// RecordMQError 记录MQ错误
func (m *Monitor) RecordMQError() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.MQErrors++
	m.LastMQError = time.Now()
}

// RecordDBError 记录数据库错误
func (m *Monitor) RecordDBError() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DBErrors++
	m.LastDBError = time.Now()
}

// RecordFulfillRequest 记录提卡请求
func (m *Monitor) RecordFulfillRequest() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.FulfillRequests++
	m.LastFulfillTime = time.Now()
}

// RecordFulfillSuccess 记录提卡成功
func (m *Monitor) RecordFulfillSuccess() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.FulfillSuccess++
}

// RecordFulfillError 记录提卡失败
func (m *Monitor) RecordFulfillError() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.FulfillErrors++
}

// RecordRefund 记录退款
func (m *Monitor) RecordRefund() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RefundCount++
}

// RecordImport 记录导入的库存条数
func (m *Monitor) RecordImport(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ImportedUnits += int64(n)
}

// RecordWorkerProcessed 记录Worker处理成功
func (m *Monitor) RecordWorkerProcessed() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.WorkerProcessed++
	m.LastWorkerTime = time.Now()
}

// RecordWorkerFailed 记录Worker处理失败
func (m *Monitor) RecordWorkerFailed() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.WorkerFailed++
	m.WorkerErrors++
}

// GetStats 获取统计信息
func (m *Monitor) GetStats() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	successRate := float64(0)
	if m.FulfillRequests > 0 {
		successRate = float64(m.FulfillSuccess) / float64(m.FulfillRequests) * 100
	}

	workerSuccessRate := float64(0)
	totalWorker := m.WorkerProcessed + m.WorkerFailed
	if totalWorker > 0 {
		workerSuccessRate = float64(m.WorkerProcessed) / float64(totalWorker) * 100
	}

	return map[string]interface{}{
		"errors": map[string]interface{}{
			"redis":   m.RedisErrors,
			"mq":      m.MQErrors,
			"db":      m.DBErrors,
			"fulfill": m.FulfillErrors,
			"worker":  m.WorkerErrors,
		},
		"business": map[string]interface{}{
			"fulfill_requests":     m.FulfillRequests,
			"fulfill_success":      m.FulfillSuccess,
			"fulfill_success_rate": successRate,
			"refund_count":         m.RefundCount,
			"imported_units":       m.ImportedUnits,
			"worker_processed":     m.WorkerProcessed,
			"worker_failed":        m.WorkerFailed,
			"worker_success_rate":  workerSuccessRate,
		},
		"last_events": map[string]interface{}{
			"redis_error":  m.LastRedisError,
			"mq_error":     m.LastMQError,
			"db_error":     m.LastDBError,
			"last_fulfill": m.LastFulfillTime,
			"last_worker":  m.LastWorkerTime,
		},
	}
}

// Reset 重置统计（用于测试或定期清理）
func (m *Monitor) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RedisErrors = 0
	m.MQErrors = 0
	m.DBErrors = 0
	m.FulfillErrors = 0
	m.WorkerErrors = 0
	m.FulfillRequests = 0
	m.FulfillSuccess = 0
	m.RefundCount = 0
	m.ImportedUnits = 0
	m.WorkerProcessed = 0
	m.WorkerFailed = 0
}
