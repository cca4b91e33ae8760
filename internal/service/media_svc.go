package service

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"market_admin_v1/internal/model"
	"market_admin_v1/pkg/utils"
)

const (
	MB = 1 << 20

	// NoticeTTL 拒绝提示的展示时长
	NoticeTTL = 5 * time.Second
)

// ==================== 策略 ====================

// MediaPolicy 每类媒体允许的类型与大小
// Extensions 仅在 MIME 无法识别时兜底
type MediaPolicy struct {
	MimeTypes  []string
	Extensions []string
	MaxBytes   int64
}

var spreadsheetPolicy = MediaPolicy{
	MimeTypes: []string{
		"application/vnd.ms-excel",
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		"text/csv",
	},
	Extensions: []string{".xls", ".xlsx", ".csv"},
	MaxBytes:   10 * MB,
}

var DefaultMediaPolicies = map[model.MediaKind]MediaPolicy{
	model.MediaKindImage: {
		MimeTypes: []string{"image/jpeg", "image/png", "image/gif", "image/webp"},
		MaxBytes:  10 * MB,
	},
	model.MediaKindVideo: {
		MimeTypes: []string{"video/mp4", "video/mpeg", "video/quicktime", "video/webm"},
		MaxBytes:  100 * MB,
	},
	model.MediaKindDocument: spreadsheetPolicy,
	model.MediaKindManifest: spreadsheetPolicy,
}

// ==================== 分类器 ====================

// PreviewFunc 为图片生成预览
type PreviewFunc func(f model.FileHandle) (string, error)

// ImagePreview 默认预览：读取文件生成缩略图 data URL
func ImagePreview(f model.FileHandle) (string, error) {
	if f.Open == nil {
		return "", fmt.Errorf("文件不可读: %s", f.Name)
	}
	rc, err := f.Open()
	if err != nil {
		return "", err
	}
	defer rc.Close()
	return utils.MakePreview(rc)
}

type ClassifyResult struct {
	Accepted []model.MediaAsset
	Rejected []*UploadRejected
}

// Messages 拒绝提示文案
func (r ClassifyResult) Messages() []string {
	msgs := make([]string, 0, len(r.Rejected))
	for _, rej := range r.Rejected {
		msgs = append(msgs, rej.Error())
	}
	return msgs
}

type MediaClassifier struct {
	policies map[model.MediaKind]MediaPolicy
	preview  PreviewFunc
}

func NewMediaClassifier(preview PreviewFunc) *MediaClassifier {
	return &MediaClassifier{
		policies: DefaultMediaPolicies,
		preview:  preview,
	}
}

// Classify 按策略校验一批同类文件；被拒绝的文件不影响同批其他文件
func (c *MediaClassifier) Classify(kind model.MediaKind, files []model.FileHandle) ClassifyResult {
	var result ClassifyResult

	policy, ok := c.policies[kind]
	if !ok {
		for _, f := range files {
			result.Rejected = append(result.Rejected, &UploadRejected{FileName: f.Name, Kind: kind, Reason: "未知的媒体类型"})
		}
		return result
	}

	for _, f := range files {
		if reason := c.check(policy, f); reason != "" {
			result.Rejected = append(result.Rejected, &UploadRejected{FileName: f.Name, Kind: kind, Reason: reason})
			continue
		}

		asset := model.MediaAsset{
			ID:   uuid.NewString(),
			File: f,
			Name: f.Name,
			Kind: kind,
			Size: f.Size,
		}
		if kind == model.MediaKindImage && c.preview != nil {
			preview, err := c.preview(f)
			if err != nil {
				slog.Debug("media_preview_failed", "file", f.Name, "error", err)
			}
			asset.Preview = preview
		}
		result.Accepted = append(result.Accepted, asset)
	}

	return result
}

func (c *MediaClassifier) check(policy MediaPolicy, f model.FileHandle) string {
	if strings.Contains(f.Name, model.PathSeparator) {
		return "文件名不能包含逗号"
	}
	ct := c.contentType(f)
	typeOK := slices.Contains(policy.MimeTypes, ct)
	if !typeOK && len(policy.Extensions) > 0 {
		typeOK = slices.Contains(policy.Extensions, strings.ToLower(filepath.Ext(f.Name)))
	}
	if !typeOK {
		if ct == "" {
			ct = "未知类型"
		}
		return fmt.Sprintf("不支持的文件类型 %s", ct)
	}
	if f.Size > policy.MaxBytes {
		return fmt.Sprintf("文件大小 %.1fMB 超过上限 %dMB", float64(f.Size)/MB, policy.MaxBytes/MB)
	}
	return ""
}

// contentType 声明的类型为空时按内容嗅探
func (c *MediaClassifier) contentType(f model.FileHandle) string {
	ct := normalizeMime(f.ContentType)
	if ct != "" && ct != "application/octet-stream" {
		return ct
	}
	if f.Open == nil {
		return ct
	}
	rc, err := f.Open()
	if err != nil {
		return ct
	}
	defer rc.Close()
	m, err := mimetype.DetectReader(rc)
	if err != nil {
		return ct
	}
	return normalizeMime(m.String())
}

func normalizeMime(ct string) string {
	ct, _, _ = strings.Cut(ct, ";")
	return strings.ToLower(strings.TrimSpace(ct))
}

// ==================== 提示 ====================

// NoticeBoard 临时提示，过期后自动消失
type NoticeBoard struct {
	mu    sync.Mutex
	ttl   time.Duration
	now   func() time.Time
	items []notice
}

type notice struct {
	message   string
	expiresAt time.Time
}

func NewNoticeBoard(ttl time.Duration) *NoticeBoard {
	return &NoticeBoard{ttl: ttl, now: time.Now}
}

// SetClock 替换时钟（测试用）
func (b *NoticeBoard) SetClock(now func() time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.now = now
}

func (b *NoticeBoard) Post(messages ...string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	exp := b.now().Add(b.ttl)
	for _, m := range messages {
		b.items = append(b.items, notice{message: m, expiresAt: exp})
	}
}

// Active 当前未过期的提示
func (b *NoticeBoard) Active() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	now := b.now()
	b.items = slices.DeleteFunc(b.items, func(n notice) bool { return !now.Before(n.expiresAt) })
	out := make([]string, 0, len(b.items))
	for _, n := range b.items {
		out = append(out, n.message)
	}
	return out
}

// ==================== 媒体集合 ====================

// MediaSet 向导持有的待上传媒体，图片有序且最多一张主图
// mainExternal 为 true 时主图是集合外的已持久化图片，待上传图片都不是主图
type MediaSet struct {
	images    []model.MediaAsset
	videos    []model.MediaAsset
	documents []model.MediaAsset
	manifests []model.MediaAsset

	mainExternal bool
}

func (s *MediaSet) list(kind model.MediaKind) *[]model.MediaAsset {
	switch kind {
	case model.MediaKindImage:
		return &s.images
	case model.MediaKindVideo:
		return &s.videos
	case model.MediaKindDocument:
		return &s.documents
	default:
		return &s.manifests
	}
}

// Add 追加到各自序列末尾
func (s *MediaSet) Add(assets ...model.MediaAsset) {
	for _, a := range assets {
		a.IsMain = false
		l := s.list(a.Kind)
		*l = append(*l, a)
	}
	s.renumber()
}

// Remove 移除媒体；移除主图时新的第一张成为主图
func (s *MediaSet) Remove(id string) (model.MediaAsset, bool) {
	for _, l := range []*[]model.MediaAsset{&s.images, &s.videos, &s.documents, &s.manifests} {
		idx := slices.IndexFunc(*l, func(a model.MediaAsset) bool { return a.ID == id })
		if idx < 0 {
			continue
		}
		removed := (*l)[idx]
		*l = slices.Delete(*l, idx, idx+1)
		if removed.IsMain && len(s.images) > 0 {
			s.setMain(s.images[0].ID)
		}
		s.renumber()
		return removed, true
	}
	return model.MediaAsset{}, false
}

// Promote 显式指定主图
func (s *MediaSet) Promote(id string) error {
	if !slices.ContainsFunc(s.images, func(a model.MediaAsset) bool { return a.ID == id }) {
		return ErrAssetNotFound
	}
	s.mainExternal = false
	s.setMain(id)
	return nil
}

// SetExternalMain 主图交给集合外的图片；取消后第一张待上传图片成为主图
func (s *MediaSet) SetExternalMain(external bool) {
	s.mainExternal = external
	if external {
		s.setMain("")
	}
	s.renumber()
}

func (s *MediaSet) ExternalMain() bool {
	return s.mainExternal
}

// MainID 待上传图片中的主图，没有时为空
func (s *MediaSet) MainID() string {
	for _, a := range s.images {
		if a.IsMain {
			return a.ID
		}
	}
	return ""
}

func (s *MediaSet) setMain(id string) {
	for i := range s.images {
		s.images[i].IsMain = s.images[i].ID == id
	}
}

func (s *MediaSet) renumber() {
	hasMain := false
	for i := range s.images {
		s.images[i].Position = i
		hasMain = hasMain || s.images[i].IsMain
	}
	if !hasMain && !s.mainExternal && len(s.images) > 0 {
		s.images[0].IsMain = true
	}
	for _, l := range [][]model.MediaAsset{s.videos, s.documents, s.manifests} {
		for i := range l {
			l[i].Position = i
		}
	}
}

// Images 按位置排列
func (s *MediaSet) Images() []model.MediaAsset {
	return slices.Clone(s.images)
}

// OrderedImages 主图在前，其余保持原顺序
func (s *MediaSet) OrderedImages() []model.MediaAsset {
	out := make([]model.MediaAsset, 0, len(s.images))
	for _, a := range s.images {
		if a.IsMain {
			out = append(out, a)
		}
	}
	for _, a := range s.images {
		if !a.IsMain {
			out = append(out, a)
		}
	}
	return out
}

func (s *MediaSet) ImageCount() int {
	return len(s.images)
}

// Pending 全部待上传媒体：图片（主图在前）、视频、文档、清单
func (s *MediaSet) Pending() []model.MediaAsset {
	out := s.OrderedImages()
	out = append(out, s.videos...)
	out = append(out, s.documents...)
	out = append(out, s.manifests...)
	return out
}

func (s *MediaSet) Len() int {
	return len(s.images) + len(s.videos) + len(s.documents) + len(s.manifests)
}
