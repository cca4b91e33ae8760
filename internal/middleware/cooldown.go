package middleware

import (
	"fmt"
	"sync"
	"time"
)

// ==================== CooldownLimiter 操作冷却 ====================

// CooldownLimiter 同一操作者同一类操作的最小间隔
// 批量状态变更一次会并发打出全部请求，防止连续点击重复触发
type CooldownLimiter struct {
	locks sync.Map // key -> *lockEntry
	now   func() time.Time
}

type lockEntry struct {
	lastTime time.Time
	mu       sync.Mutex
}

func NewCooldownLimiter() *CooldownLimiter {
	return &CooldownLimiter{now: time.Now}
}

// SetClock 测试用
func (r *CooldownLimiter) SetClock(now func() time.Time) {
	r.now = now
}

// CheckResult 检查结果
type CheckResult struct {
	Allowed    bool          // 是否允许
	RetryAfter time.Duration // 剩余冷却时间
}

// Check 检查并在允许时记录本次执行时间
func (r *CooldownLimiter) Check(key string, interval time.Duration) CheckResult {
	actual, _ := r.locks.LoadOrStore(key, &lockEntry{})
	entry := actual.(*lockEntry)

	entry.mu.Lock()
	defer entry.mu.Unlock()

	now := r.now()
	elapsed := now.Sub(entry.lastTime)

	if elapsed < interval {
		return CheckResult{
			Allowed:    false,
			RetryAfter: interval - elapsed,
		}
	}

	entry.lastTime = now
	return CheckResult{Allowed: true}
}

// Reset 清除指定 key
func (r *CooldownLimiter) Reset(key string) {
	r.locks.Delete(key)
}

// ==================== Key 生成 ====================

// Operation 受冷却限制的操作
type Operation string

const (
	OpBulkVendorStatus  Operation = "bulk_vendor_status"
	OpBulkListingActive Operation = "bulk_listing_active"
	OpBulkAuctionStatus Operation = "bulk_auction_status"
)

// AdminOperationKey 操作者级 key
func AdminOperationKey(adminID int64, op Operation) string {
	return fmt.Sprintf("admin:%d:%s", adminID, op)
}

// DefaultCooldown 默认冷却间隔
const DefaultCooldown = 3 * time.Second
