package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"market_admin_v1/internal/api/dto"
	"market_admin_v1/internal/model"
)

// ==================== 接口定义 ====================

// UploadService 批量上传，整批成功或失败，不返回逐个文件的结果
type UploadService interface {
	UploadBatch(ctx context.Context, files []model.FileHandle, pathPrefix string) error
}

// ==================== 编排 ====================

// UploadOrchestrator 计算存储路径、发起一次批量上传并在本地拼出公开 URL
type UploadOrchestrator struct {
	uploader     UploadService
	publicPrefix string
}

func NewUploadOrchestrator(uploader UploadService, publicPrefix string) *UploadOrchestrator {
	return &UploadOrchestrator{
		uploader:     uploader,
		publicPrefix: strings.TrimRight(publicPrefix, "/"),
	}
}

// ComputePathPrefix {vendorID}/Products/{entityID}
func ComputePathPrefix(vendorID, entityID int64) string {
	return model.NewProductLocation(vendorID, entityID).Prefix()
}

// Upload 所有待上传文件（不分类型）一次性提交
func (o *UploadOrchestrator) Upload(ctx context.Context, assets []model.MediaAsset, pathPrefix string) error {
	if len(assets) == 0 {
		return nil
	}
	files := make([]model.FileHandle, 0, len(assets))
	for _, a := range assets {
		files = append(files, a.File)
	}

	start := time.Now()
	if err := o.uploader.UploadBatch(ctx, files, pathPrefix); err != nil {
		return err
	}
	slog.Info("media_batch_uploaded", "prefix", pathPrefix, "files", len(files), "elapsed", time.Since(start))
	return nil
}

// PublicURL {publicPrefix}/{pathPrefix}/{filename}
// 同名文件会覆盖之前的对象
func (o *UploadOrchestrator) PublicURL(pathPrefix, filename string) string {
	return fmt.Sprintf("%s/%s/%s", o.publicPrefix, pathPrefix, filename)
}

// Aggregate 按类型汇总 URL；有清单文件时文档不写入 manifest_url
func (o *UploadOrchestrator) Aggregate(assets []model.MediaAsset, pathPrefix string) model.MediaPaths {
	var paths model.MediaPaths
	var documents, manifests []string

	for _, a := range assets {
		url := o.PublicURL(pathPrefix, a.File.Name)
		switch a.Kind {
		case model.MediaKindImage:
			paths.Images = append(paths.Images, url)
		case model.MediaKindVideo:
			paths.Videos = append(paths.Videos, url)
		case model.MediaKindDocument:
			documents = append(documents, url)
		case model.MediaKindManifest:
			manifests = append(manifests, url)
		}
	}

	switch {
	case len(manifests) > 0:
		paths.Manifest = model.JoinPaths(manifests)
	case len(documents) > 0:
		paths.Manifest = model.JoinPaths(documents)
	}
	return paths
}

// URLs 全部文件的公开地址
func (o *UploadOrchestrator) URLs(assets []model.MediaAsset, pathPrefix string) []string {
	urls := make([]string, 0, len(assets))
	for _, a := range assets {
		urls = append(urls, o.PublicURL(pathPrefix, a.File.Name))
	}
	return urls
}

// ==================== 进度订阅 ====================

type progressKey struct{}

// WithProgressKey 将进度订阅键放入 context，上传层据此推送进度
func WithProgressKey(ctx context.Context, key string) context.Context {
	return context.WithValue(ctx, progressKey{}, key)
}

func progressKeyFrom(ctx context.Context) string {
	key, _ := ctx.Value(progressKey{}).(string)
	return key
}

// ProgressHub 上传进度的订阅与推送
type ProgressHub struct {
	subscribers     map[string][]chan dto.ProgressEvent
	latest          map[string]map[string]dto.ProgressEvent
	subscriberMutex sync.RWMutex
}

func NewProgressHub() *ProgressHub {
	return &ProgressHub{
		subscribers: make(map[string][]chan dto.ProgressEvent),
		latest:      make(map[string]map[string]dto.ProgressEvent),
	}
}

// Subscribe 订阅会话进度
func (h *ProgressHub) Subscribe(key string) chan dto.ProgressEvent {
	h.subscriberMutex.Lock()
	defer h.subscriberMutex.Unlock()

	ch := make(chan dto.ProgressEvent, 32)
	h.subscribers[key] = append(h.subscribers[key], ch)
	return ch
}

// Unsubscribe 取消订阅
func (h *ProgressHub) Unsubscribe(key string, ch chan dto.ProgressEvent) {
	h.subscriberMutex.Lock()
	defer h.subscriberMutex.Unlock()

	subs := h.subscribers[key]
	for i, sub := range subs {
		if sub == ch {
			h.subscribers[key] = append(subs[:i], subs[i+1:]...)
			close(ch)
			break
		}
	}

	if len(h.subscribers[key]) == 0 {
		delete(h.subscribers, key)
	}
}

// Publish 推送进度并记录每个文件的最新状态
func (h *ProgressHub) Publish(key string, event dto.ProgressEvent) {
	if key == "" {
		return
	}
	h.subscriberMutex.Lock()
	defer h.subscriberMutex.Unlock()

	if event.File != "" {
		if h.latest[key] == nil {
			h.latest[key] = make(map[string]dto.ProgressEvent)
		}
		h.latest[key][event.File] = event
	}

	for _, ch := range h.subscribers[key] {
		select {
		case ch <- event:
		default:
			// channel 已满，跳过
		}
	}
}

// Snapshot 各文件最新进度
func (h *ProgressHub) Snapshot(key string) map[string]dto.ProgressEvent {
	h.subscriberMutex.RLock()
	defer h.subscriberMutex.RUnlock()

	out := make(map[string]dto.ProgressEvent, len(h.latest[key]))
	for k, v := range h.latest[key] {
		out[k] = v
	}
	return out
}

// Clear 清除单个文件的进度（文件被移除时）
func (h *ProgressHub) Clear(key, file string) {
	h.subscriberMutex.Lock()
	delete(h.latest[key], file)
	h.subscriberMutex.Unlock()

	h.Publish(key, dto.ProgressEvent{SessionID: key, Stage: dto.StageCleared, Message: file})
}

// Drop 会话结束时清理全部进度
func (h *ProgressHub) Drop(key string) {
	h.subscriberMutex.Lock()
	defer h.subscriberMutex.Unlock()
	delete(h.latest, key)
}

// ==================== 存储批量上传 ====================

// StorageBatchUploader 基于 StorageProvider 的 UploadService 实现
// 有文件失败时删除同批已上传的对象
type StorageBatchUploader struct {
	provider    StorageProvider
	hub         *ProgressHub
	concurrency int
}

func NewStorageBatchUploader(provider StorageProvider, hub *ProgressHub, concurrency int) *StorageBatchUploader {
	if concurrency <= 0 {
		concurrency = 4
	}
	return &StorageBatchUploader{
		provider:    provider,
		hub:         hub,
		concurrency: concurrency,
	}
}

func (u *StorageBatchUploader) UploadBatch(ctx context.Context, files []model.FileHandle, pathPrefix string) error {
	key := progressKeyFrom(ctx)

	var (
		mu       sync.Mutex
		uploaded []string
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(u.concurrency)
	for _, f := range files {
		objectKey := pathPrefix + "/" + f.Name
		g.Go(func() error {
			if err := u.put(gctx, key, objectKey, f); err != nil {
				u.publish(key, dto.ProgressEvent{SessionID: key, File: f.Name, Stage: dto.StageFailed, Message: err.Error()})
				return fmt.Errorf("上传 %s 失败: %w", f.Name, err)
			}
			mu.Lock()
			uploaded = append(uploaded, objectKey)
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		for _, k := range uploaded {
			if derr := u.provider.Delete(context.WithoutCancel(ctx), k); derr != nil {
				slog.Warn("storage_rollback_failed", "key", k, "error", derr)
			}
		}
		return err
	}
	return nil
}

func (u *StorageBatchUploader) put(ctx context.Context, key, objectKey string, f model.FileHandle) error {
	if f.Open == nil {
		return fmt.Errorf("文件不可读")
	}
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	body := &progressReader{
		r:     rc,
		total: f.Size,
		report: func(loaded int64, percent int) {
			u.publish(key, dto.ProgressEvent{
				SessionID: key,
				File:      f.Name,
				Stage:     dto.StageUploading,
				Progress:  percent,
				Loaded:    loaded,
				Total:     f.Size,
			})
		},
	}
	if err := u.provider.Put(ctx, objectKey, body, f.Size, f.ContentType); err != nil {
		return err
	}

	u.publish(key, dto.ProgressEvent{SessionID: key, File: f.Name, Stage: dto.StageUploaded, Progress: 100, Loaded: f.Size, Total: f.Size})
	return nil
}

func (u *StorageBatchUploader) publish(key string, event dto.ProgressEvent) {
	if u.hub != nil {
		u.hub.Publish(key, event)
	}
}

// progressReader 统计实际读取的字节数，每前进 5% 上报一次
type progressReader struct {
	r      io.Reader
	total  int64
	loaded int64
	last   int
	report func(loaded int64, percent int)
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 {
		p.loaded += int64(n)
		percent := 0
		if p.total > 0 {
			percent = int(p.loaded * 100 / p.total)
			if percent > 99 {
				percent = 99
			}
		}
		if percent-p.last >= 5 {
			p.last = percent
			p.report(p.loaded, percent)
		}
	}
	return n, err
}
