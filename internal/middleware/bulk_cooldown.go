package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// ==================== 批量操作冷却中间件 ====================

// BulkCooldown 按操作者 + 操作类型限制批量请求频率
//
// 使用示例:
//
//	vendors.POST("/bulk/status",
//	    middleware.BulkCooldown(limiter, middleware.OpBulkVendorStatus, 0),
//	    vendorCtl.BulkSetStatus,
//	)
//
// interval 为 0 时使用 DefaultCooldown
func BulkCooldown(limiter *CooldownLimiter, op Operation, interval time.Duration) gin.HandlerFunc {
	if interval == 0 {
		interval = DefaultCooldown
	}

	return func(c *gin.Context) {
		key := AdminOperationKey(GetSession(c).AdminID, op)

		result := limiter.Check(key, interval)
		if !result.Allowed {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"code":    429,
				"message": formatRetryMessage(result.RetryAfter),
				"data": gin.H{
					"retry_after": retryAfterSeconds(result.RetryAfter),
					"operation":   op,
				},
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

// ==================== 辅助函数 ====================

func retryAfterSeconds(d time.Duration) int {
	s := int(d / time.Second)
	if d%time.Second != 0 {
		s++
	}
	return s
}

func formatRetryMessage(d time.Duration) string {
	seconds := retryAfterSeconds(d)

	if seconds < 60 {
		return fmt.Sprintf("操作过于频繁，请 %d 秒后重试", seconds)
	}

	minutes := seconds / 60
	remainingSeconds := seconds % 60

	if remainingSeconds == 0 {
		return fmt.Sprintf("操作过于频繁，请 %d 分钟后重试", minutes)
	}

	return fmt.Sprintf("操作过于频繁，请 %d 分 %d 秒后重试", minutes, remainingSeconds)
}
