package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"market_admin_v1/internal/model"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func performRequest(r http.Handler, method, path, token string) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// ==================== JWT 测试 ====================

func TestJWTAuth_InjectsSession(t *testing.T) {
	token, err := GenerateAccessToken(model.Session{AdminID: 3, Username: "ops", Role: "admin", VendorID: 7})
	require.NoError(t, err)

	var got model.Session
	var auditID int64
	r := gin.New()
	r.GET("/me", JWTAuth(), func(c *gin.Context) {
		got = GetSession(c)
		auditID = GetAuditUserID(c.Request.Context())
		c.Status(http.StatusOK)
	})

	w := performRequest(r, http.MethodGet, "/me", token)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, model.Session{AdminID: 3, Username: "ops", Role: "admin", VendorID: 7}, got)
	assert.Equal(t, int64(3), auditID)
}

func TestJWTAuth_Rejects(t *testing.T) {
	r := gin.New()
	r.GET("/me", JWTAuth(), func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusUnauthorized, performRequest(r, http.MethodGet, "/me", "").Code)
	assert.Equal(t, http.StatusUnauthorized, performRequest(r, http.MethodGet, "/me", "garbage").Code)

	req, _ := http.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Token abc")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireRole(t *testing.T) {
	token, _ := GenerateAccessToken(model.Session{AdminID: 1, Role: "vendor"})
	r := gin.New()
	r.POST("/vendors/bulk/status", JWTAuth(), RequireRole("admin"), func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusForbidden, performRequest(r, http.MethodPost, "/vendors/bulk/status", token).Code)
}

// ==================== 冷却测试 ====================

func TestBulkCooldown(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	limiter := NewCooldownLimiter()
	limiter.SetClock(func() time.Time { return now })

	token, _ := GenerateAccessToken(model.Session{AdminID: 1, Role: "admin"})
	r := gin.New()
	r.POST("/bulk", JWTAuth(), BulkCooldown(limiter, OpBulkVendorStatus, 0), func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusOK, performRequest(r, http.MethodPost, "/bulk", token).Code)

	now = now.Add(time.Second)
	w := performRequest(r, http.MethodPost, "/bulk", token)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, w.Body.String(), "2 秒后重试")

	// 其他操作者不受影响
	other, _ := GenerateAccessToken(model.Session{AdminID: 2, Role: "admin"})
	assert.Equal(t, http.StatusOK, performRequest(r, http.MethodPost, "/bulk", other).Code)

	now = now.Add(DefaultCooldown)
	assert.Equal(t, http.StatusOK, performRequest(r, http.MethodPost, "/bulk", token).Code)
}

func TestFormatRetryMessage(t *testing.T) {
	assert.Equal(t, "操作过于频繁，请 1 秒后重试", formatRetryMessage(300*time.Millisecond))
	assert.Equal(t, "操作过于频繁，请 2 分钟后重试", formatRetryMessage(2*time.Minute))
	assert.Equal(t, "操作过于频繁，请 1 分 5 秒后重试", formatRetryMessage(65*time.Second))
}

// ==================== 请求 ID 测试 ====================

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := performRequest(r, http.MethodGet, "/ping", "")
	assert.NotEmpty(t, w.Header().Get(HeaderRequestID))

	req, _ := http.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(HeaderRequestID, "req-1")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "req-1", w.Header().Get(HeaderRequestID))
}

// ==================== 审计回调测试 ====================

func TestAuditCallbacks(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.Vendor{}))
	require.NoError(t, RegisterAuditCallbacks(db))

	ctx := WithAuditInfo(context.Background(), 9, "ops")
	v := &model.Vendor{Name: "老王相机铺"}
	require.NoError(t, db.WithContext(ctx).Create(v).Error)
	assert.Equal(t, int64(9), v.CreatedBy)
	assert.Equal(t, int64(9), v.UpdatedBy)

	ctx = WithAuditInfo(context.Background(), 12, "reviewer")
	require.NoError(t, db.WithContext(ctx).Model(&model.Vendor{}).Where("id = ?", v.ID).
		Updates(map[string]interface{}{"status": "approved"}).Error)

	var got model.Vendor
	require.NoError(t, db.First(&got, v.ID).Error)
	assert.Equal(t, int64(9), got.CreatedBy)
	assert.Equal(t, int64(12), got.UpdatedBy)
	assert.Equal(t, model.VendorStatusApproved, got.Status)
}
