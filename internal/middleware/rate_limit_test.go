package middleware

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTokenBucketExhaustion(t *testing.T) {
	tb := NewTokenBucket(3, 0.001)
	for i := 0; i < 3; i++ {
		assert.True(t, tb.Allow(), "第 %d 个请求应放行", i+1)
	}
	assert.False(t, tb.Allow(), "令牌耗尽后应拒绝")
}

func TestTokenBucketRefill(t *testing.T) {
	tb := NewTokenBucket(1, 10)
	assert.True(t, tb.Allow())
	assert.False(t, tb.Allow())

	// 10个/秒的速率下 150ms 足够补回一个，容量为1所以只放行一个
	time.Sleep(150 * time.Millisecond)
	assert.True(t, tb.Allow())
	assert.False(t, tb.Allow())
}
