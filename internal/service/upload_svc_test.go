package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"market_admin_v1/internal/api/dto"
	"market_admin_v1/internal/model"
)

// ==================== Mock 实现 ====================

type mockUploader struct {
	mu            sync.Mutex
	calls         int
	prefixes      []string
	files         [][]model.FileHandle
	uploadBatchFn func(ctx context.Context, files []model.FileHandle, pathPrefix string) error
}

func (m *mockUploader) UploadBatch(ctx context.Context, files []model.FileHandle, pathPrefix string) error {
	m.mu.Lock()
	m.calls++
	m.prefixes = append(m.prefixes, pathPrefix)
	m.files = append(m.files, files)
	m.mu.Unlock()
	if m.uploadBatchFn != nil {
		return m.uploadBatchFn(ctx, files, pathPrefix)
	}
	return nil
}

type memoryProvider struct {
	mu      sync.Mutex
	objects map[string]string
	failOn  string
}

func newMemoryProvider() *memoryProvider {
	return &memoryProvider{objects: make(map[string]string)}
}

func (p *memoryProvider) Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	if p.failOn != "" && strings.HasSuffix(key, p.failOn) {
		return errors.New("模拟存储失败")
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.objects[key] = string(data)
	return nil
}

func (p *memoryProvider) Delete(ctx context.Context, key string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.objects, key)
	return nil
}

func asset(name string, kind model.MediaKind) model.MediaAsset {
	return model.MediaAsset{ID: name, Name: name, Kind: kind, File: model.MemoryFile(name, "", []byte(name))}
}

// ==================== 路径与 URL 测试 ====================

func TestComputePathPrefix(t *testing.T) {
	assert.Equal(t, "7/Products/101", ComputePathPrefix(7, 101))
}

func TestUploadOrchestrator_PublicURL(t *testing.T) {
	o := NewUploadOrchestrator(&mockUploader{}, "https://cdn.example.com/")
	assert.Equal(t, "https://cdn.example.com/7/Products/101/a.png", o.PublicURL("7/Products/101", "a.png"))
}

func TestUploadOrchestrator_Upload_SingleBatch(t *testing.T) {
	up := &mockUploader{}
	o := NewUploadOrchestrator(up, "https://cdn")

	assets := []model.MediaAsset{
		asset("a.png", model.MediaKindImage),
		asset("v.mp4", model.MediaKindVideo),
		asset("m.csv", model.MediaKindManifest),
	}
	require.NoError(t, o.Upload(context.Background(), assets, "7/Products/101"))

	assert.Equal(t, 1, up.calls)
	assert.Equal(t, []string{"7/Products/101"}, up.prefixes)
	assert.Len(t, up.files[0], 3)
}

func TestUploadOrchestrator_Upload_Empty(t *testing.T) {
	up := &mockUploader{}
	o := NewUploadOrchestrator(up, "https://cdn")

	assert.NoError(t, o.Upload(context.Background(), nil, "7/Products/101"))
	assert.Equal(t, 0, up.calls)
}

// ==================== 汇总测试 ====================

func TestUploadOrchestrator_Aggregate(t *testing.T) {
	o := NewUploadOrchestrator(&mockUploader{}, "https://cdn")
	prefix := "7/Products/101"

	t.Run("文档写入清单", func(t *testing.T) {
		paths := o.Aggregate([]model.MediaAsset{
			asset("a.png", model.MediaKindImage),
			asset("b.png", model.MediaKindImage),
			asset("v.mp4", model.MediaKindVideo),
			asset("d.xlsx", model.MediaKindDocument),
		}, prefix)

		assert.Equal(t, []string{"https://cdn/7/Products/101/a.png", "https://cdn/7/Products/101/b.png"}, paths.Images)
		assert.Equal(t, []string{"https://cdn/7/Products/101/v.mp4"}, paths.Videos)
		assert.Equal(t, "https://cdn/7/Products/101/d.xlsx", paths.Manifest)
	})

	t.Run("清单优先于文档", func(t *testing.T) {
		paths := o.Aggregate([]model.MediaAsset{
			asset("d1.xlsx", model.MediaKindDocument),
			asset("m.csv", model.MediaKindManifest),
			asset("d2.csv", model.MediaKindDocument),
		}, prefix)

		assert.Equal(t, "https://cdn/7/Products/101/m.csv", paths.Manifest)
		assert.NotContains(t, paths.Manifest, "d1.xlsx")
	})
}

// ==================== 存储批量上传测试 ====================

func TestStorageBatchUploader_UploadBatch(t *testing.T) {
	provider := newMemoryProvider()
	hub := NewProgressHub()
	u := NewStorageBatchUploader(provider, hub, 2)

	ctx := WithProgressKey(context.Background(), "s1")
	ch := hub.Subscribe("s1")
	defer hub.Unsubscribe("s1", ch)

	files := []model.FileHandle{
		model.MemoryFile("a.png", "image/png", []byte(strings.Repeat("a", 1000))),
		model.MemoryFile("b.png", "image/png", []byte("bb")),
	}
	require.NoError(t, u.UploadBatch(ctx, files, "7/Products/101"))

	assert.Equal(t, strings.Repeat("a", 1000), provider.objects["7/Products/101/a.png"])
	assert.Equal(t, "bb", provider.objects["7/Products/101/b.png"])

	snap := hub.Snapshot("s1")
	assert.Equal(t, dto.StageUploaded, snap["a.png"].Stage)
	assert.Equal(t, 100, snap["b.png"].Progress)

	select {
	case ev := <-ch:
		assert.Equal(t, "s1", ev.SessionID)
	case <-time.After(time.Second):
		t.Fatal("超时等待进度事件")
	}
}

func TestStorageBatchUploader_AllOrNothing(t *testing.T) {
	provider := newMemoryProvider()
	provider.failOn = "bad.png"
	u := NewStorageBatchUploader(provider, nil, 1)

	files := []model.FileHandle{
		model.MemoryFile("good.png", "image/png", []byte("g")),
		model.MemoryFile("bad.png", "image/png", []byte("b")),
	}
	err := u.UploadBatch(context.Background(), files, "7/Products/101")

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "bad.png")
	assert.Empty(t, provider.objects)
}

// ==================== 进度订阅测试 ====================

func TestProgressHub_ClearRemovesFile(t *testing.T) {
	hub := NewProgressHub()
	hub.Publish("s1", dto.ProgressEvent{SessionID: "s1", File: "a.png", Stage: dto.StageUploading, Progress: 40})
	hub.Publish("s1", dto.ProgressEvent{SessionID: "s1", File: "b.png", Stage: dto.StageUploading, Progress: 10})

	ch := hub.Subscribe("s1")
	hub.Clear("s1", "a.png")

	snap := hub.Snapshot("s1")
	assert.NotContains(t, snap, "a.png")
	assert.Contains(t, snap, "b.png")

	ev := <-ch
	assert.Equal(t, dto.StageCleared, ev.Stage)
	assert.Equal(t, "a.png", ev.Message)
	hub.Unsubscribe("s1", ch)
}

func TestProgressReader_ReportsRealBytes(t *testing.T) {
	var reports []int
	r := &progressReader{
		r:      strings.NewReader(strings.Repeat("x", 100)),
		total:  100,
		report: func(loaded int64, percent int) { reports = append(reports, percent) },
	}

	buf := make([]byte, 10)
	for {
		if _, err := r.Read(buf); err == io.EOF {
			break
		}
	}

	assert.Equal(t, int64(100), r.loaded)
	assert.Equal(t, []int{10, 20, 30, 40, 50, 60, 70, 80, 90, 99}, reports)
}
