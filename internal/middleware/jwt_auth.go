package middleware

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"market_admin_v1/internal/logging"
	"market_admin_v1/internal/model"
)

// ==================== JWT 配置 ====================

// JWTConfig JWT 配置
type JWTConfig struct {
	SecretKey      string        // 签名密钥
	AccessTokenTTL time.Duration // Access Token 有效期
	Issuer         string        // 签发者
}

// DefaultJWTConfig 默认配置
func DefaultJWTConfig() *JWTConfig {
	return &JWTConfig{
		SecretKey:      "market-admin-secret-key-change-in-production",
		AccessTokenTTL: 8 * time.Hour,
		Issuer:         "market-admin",
	}
}

// 全局配置
var jwtConfig = DefaultJWTConfig()

// SetJWTConfig 设置 JWT 配置
func SetJWTConfig(cfg *JWTConfig) {
	jwtConfig = cfg
}

// ==================== Claims 定义 ====================

// AdminClaims 管理员声明
// vendor_id 非 0 表示商家子账号，只能操作自己的商品
type AdminClaims struct {
	AdminID  int64  `json:"admin_id"`
	Username string `json:"username"`
	Role     string `json:"role"`
	VendorID int64  `json:"vendor_id,omitempty"`
	jwt.RegisteredClaims
}

func (c *AdminClaims) Session() model.Session {
	return model.Session{
		AdminID:  c.AdminID,
		Username: c.Username,
		Role:     c.Role,
		VendorID: c.VendorID,
	}
}

// ==================== Token 生成 ====================

// GenerateAccessToken 生成 Access Token
func GenerateAccessToken(s model.Session) (string, error) {
	now := time.Now()
	claims := &AdminClaims{
		AdminID:  s.AdminID,
		Username: s.Username,
		Role:     s.Role,
		VendorID: s.VendorID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    jwtConfig.Issuer,
			Subject:   "access",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(jwtConfig.AccessTokenTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(jwtConfig.SecretKey))
}

// ==================== Token 解析 ====================

// ParseToken 解析 Token
func ParseToken(tokenString string) (*AdminClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &AdminClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return []byte(jwtConfig.SecretKey), nil
	})

	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*AdminClaims); ok && token.Valid {
		return claims, nil
	}

	return nil, errors.New("invalid token")
}

// ==================== Gin 中间件 ====================

// ContextKeySession gin context 中的会话
const ContextKeySession = "session"

func unauthorized(c *gin.Context, msg string) {
	c.JSON(http.StatusUnauthorized, gin.H{
		"code":    401,
		"message": msg,
	})
	c.Abort()
}

// JWTAuth JWT 认证中间件
// 解析出的会话写入 gin context，操作者 ID 写入 request context 供日志与审计使用
func JWTAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			unauthorized(c, "未提供认证信息")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			unauthorized(c, "认证格式错误，应为 Bearer {token}")
			return
		}

		claims, err := ParseToken(parts[1])
		if err != nil {
			unauthorized(c, "Token 无效或已过期")
			return
		}
		if claims.Subject != "access" {
			unauthorized(c, "Token 类型错误")
			return
		}

		session := claims.Session()
		c.Set(ContextKeySession, session)

		ctx := logging.WithAdminID(c.Request.Context(), session.AdminID)
		ctx = WithAuditInfo(ctx, session.AdminID, session.Username)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// RequireRole 角色权限校验中间件
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := GetSession(c).Role
		for _, r := range roles {
			if role == r {
				c.Next()
				return
			}
		}

		c.JSON(http.StatusForbidden, gin.H{
			"code":    403,
			"message": "无权限访问",
		})
		c.Abort()
	}
}

// GetSession 从 Context 获取会话，未登录返回零值
func GetSession(c *gin.Context) model.Session {
	if v, exists := c.Get(ContextKeySession); exists {
		if s, ok := v.(model.Session); ok {
			return s
		}
	}
	return model.Session{}
}
