package service

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"market_admin_v1/internal/model"
)

var (
	ErrSaving          = errors.New("正在保存，暂不可修改")
	ErrStepLocked      = errors.New("不能跳转到该步骤")
	ErrSessionNotFound = errors.New("向导会话不存在或已过期")
	ErrAssetNotFound   = errors.New("媒体文件不存在")
	ErrNotEditMode     = errors.New("仅编辑模式可用")
	ErrWizardClosed    = errors.New("向导已完成发布")
	ErrVendorRequired  = errors.New("请指定商家")
)

// 发布阶段
const (
	PhaseCreate = "create" // 阶段一：创建/更新记录
	PhaseUpload = "upload" // 阶段二：上传媒体
	PhasePatch  = "patch"  // 阶段二：回写路径
)

// ValidationError 字段级校验错误，只在本地产生，不会发到服务端
type ValidationError struct {
	Step   int
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return fmt.Sprintf("第 %d 步校验失败: %s", e.Step+1, strings.Join(parts, "; "))
}

// UploadRejected 单个文件不符合类型/大小策略
type UploadRejected struct {
	FileName string
	Kind     model.MediaKind
	Reason   string
}

func (e *UploadRejected) Error() string {
	return fmt.Sprintf("文件 %s 被拒绝: %s", e.FileName, e.Reason)
}

// RequestFailure 网络或服务错误，带所在阶段
type RequestFailure struct {
	Phase string
	Err   error
}

func (e *RequestFailure) Error() string {
	switch e.Phase {
	case PhaseCreate:
		return fmt.Sprintf("保存商品失败: %v", e.Err)
	case PhaseUpload:
		return fmt.Sprintf("上传媒体失败: %v", e.Err)
	case PhasePatch:
		return fmt.Sprintf("更新媒体路径失败: %v", e.Err)
	}
	return fmt.Sprintf("请求失败: %v", e.Err)
}

func (e *RequestFailure) Unwrap() error { return e.Err }

// PartialPublishWarning 阶段一成功、阶段二失败，记录存在但媒体不完整
type PartialPublishWarning struct {
	RecordID      int64
	Phase         string
	OrphanedBlobs []string // 已上传但未被记录引用的对象
	Err           error
}

func (e *PartialPublishWarning) Error() string {
	if len(e.OrphanedBlobs) > 0 {
		return fmt.Sprintf("商品 %d 已保存，但媒体路径未写入（%d 个文件未被引用）: %v", e.RecordID, len(e.OrphanedBlobs), e.Err)
	}
	return fmt.Sprintf("商品 %d 已保存，但媒体上传失败: %v", e.RecordID, e.Err)
}

func (e *PartialPublishWarning) Unwrap() error { return e.Err }
