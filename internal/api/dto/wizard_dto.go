package dto

import "market_admin_v1/internal/model"

// ==================== 请求 DTO ====================

// CreateWizardRequest 创建向导会话；ListingID 非空时进入编辑模式
type CreateWizardRequest struct {
	ListingID int64 `json:"listing_id"`
	VendorID  int64 `json:"vendor_id"`
}

// UpdateFieldsRequest 表单原始输入
type UpdateFieldsRequest struct {
	Fields map[string]string `json:"fields" binding:"required"`
}

// ==================== 响应 DTO ====================

// WizardStateResponse 向导当前状态
type WizardStateResponse struct {
	SessionID string                   `json:"session_id"`
	Mode      string                   `json:"mode"` // create, edit
	ListingID int64                    `json:"listing_id,omitempty"`
	VendorID  int64                    `json:"vendor_id"`
	Step      int                      `json:"step"`
	Draft     model.ListingDraft       `json:"draft"`
	Errors    map[string]string        `json:"errors"`
	Assets    []model.MediaAsset       `json:"assets"`
	Existing  *ExistingMediaResponse   `json:"existing,omitempty"`
	Notices   []string                 `json:"notices"`
	Saving    bool                     `json:"saving"`
	Progress  map[string]ProgressEvent `json:"progress,omitempty"`
}

// ExistingMediaResponse 编辑模式下已持久化的媒体
type ExistingMediaResponse struct {
	Images   []string `json:"images"`
	Videos   []string `json:"videos"`
	Manifest string   `json:"manifest"`
	// Main 主图为保留图片时的 URL；为空表示主图在待上传图片中
	Main string `json:"main,omitempty"`
}

// AddFilesResponse 添加文件结果
type AddFilesResponse struct {
	Accepted []model.MediaAsset `json:"accepted"`
	Rejected []string           `json:"rejected"`
}

// SubmitResponse 提交结果；Warning 非空表示记录已保存但媒体不完整
type SubmitResponse struct {
	ListingID int64  `json:"listing_id"`
	Warning   string `json:"warning,omitempty"`
	Closed    bool   `json:"closed"`
}

// ==================== 进度 ====================

const (
	StageUploading = "uploading"
	StageUploaded  = "uploaded"
	StageFailed    = "failed"
	StageCleared   = "cleared"
	StageDone      = "done"
)

// ProgressEvent SSE进度事件
type ProgressEvent struct {
	SessionID string `json:"session_id"`
	File      string `json:"file,omitempty"`
	Stage     string `json:"stage"` // uploading, uploaded, failed, cleared, done
	Progress  int    `json:"progress"`
	Loaded    int64  `json:"loaded,omitempty"`
	Total     int64  `json:"total,omitempty"`
	Message   string `json:"message,omitempty"`
}
