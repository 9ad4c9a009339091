package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMonitorCountersAndReset(t *testing.T) {
	m := &Monitor{}

	m.RecordFulfillRequest()
	m.RecordFulfillRequest()
	m.RecordFulfillSuccess()
	m.RecordFulfillError()
	m.RecordRefund()
	m.RecordImport(10)
	m.RecordWorkerProcessed()
	m.RecordWorkerFailed()
	m.RecordRedisError()

	stats := m.GetStats()
	business, ok := stats["business"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, int64(2), business["fulfill_requests"])
	assert.Equal(t, int64(1), business["fulfill_success"])
	assert.Equal(t, float64(50), business["fulfill_success_rate"])
	assert.Equal(t, int64(10), business["imported_units"])
	assert.Equal(t, float64(50), business["worker_success_rate"])

	errStats, ok := stats["errors"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, int64(1), errStats["redis"])
	assert.Equal(t, int64(1), errStats["fulfill"])

	m.Reset()
	stats = m.GetStats()
	business = stats["business"].(map[string]interface{})
	assert.Equal(t, int64(0), business["fulfill_requests"])
	assert.Equal(t, float64(0), business["fulfill_success_rate"])
}
