package model

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

// ErrNotFound 记录不存在，各记录服务实现统一返回
var ErrNotFound = errors.New("记录不存在")

type BaseModel struct {
	ID        int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// --- 审计字段 ---
	CreatedBy int64 `gorm:"comment:创建人ID" json:"created_by"`
	UpdatedBy int64 `gorm:"comment:更新人ID" json:"updated_by"`
}

// Session 当前操作者上下文
// 由 JWT 中间件或 CLI 显式构造，随每次流水线调用传入
type Session struct {
	AdminID  int64  `json:"admin_id"`
	Username string `json:"username"`
	Role     string `json:"role"`
	VendorID int64  `json:"vendor_id"`
}
