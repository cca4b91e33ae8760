package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"market_admin_v1/internal/model"
	"market_admin_v1/pkg/event"
)

// ==================== Mock 实现 ====================

// mockRecords 内存记录服务，可通过 fn 字段注入失败
type mockRecords struct {
	mu      sync.Mutex
	nextID  int64
	data    map[string]map[int64]map[string]interface{}
	inserts int
	updates []map[string]interface{}

	insertFn func(kind string, fields map[string]interface{}) (int64, error)
	updateFn func(kind string, id int64, fields map[string]interface{}) error
	getAllFn func(kind string) ([]map[string]interface{}, error)
}

func newMockRecords() *mockRecords {
	return &mockRecords{nextID: 100, data: make(map[string]map[int64]map[string]interface{})}
}

func (m *mockRecords) seed(kind string, id int64, fields map[string]interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data[kind] == nil {
		m.data[kind] = make(map[int64]map[string]interface{})
	}
	row := map[string]interface{}{"id": float64(id)}
	for k, v := range fields {
		row[k] = v
	}
	m.data[kind][id] = row
}

func (m *mockRecords) Insert(ctx context.Context, kind string, fields map[string]interface{}) (int64, error) {
	m.mu.Lock()
	m.inserts++
	m.mu.Unlock()
	if m.insertFn != nil {
		return m.insertFn(kind, fields)
	}
	m.mu.Lock()
	m.nextID++
	id := m.nextID
	m.mu.Unlock()
	m.seed(kind, id, fields)
	return id, nil
}

func (m *mockRecords) Update(ctx context.Context, kind string, id int64, fields map[string]interface{}) error {
	m.mu.Lock()
	m.updates = append(m.updates, fields)
	m.mu.Unlock()
	if m.updateFn != nil {
		if err := m.updateFn(kind, id, fields); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.data[kind][id]
	if !ok {
		return errors.New("记录不存在")
	}
	for k, v := range fields {
		row[k] = v
	}
	return nil
}

func (m *mockRecords) GetByID(ctx context.Context, kind string, id int64) (map[string]interface{}, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.data[kind][id]
	if !ok {
		return nil, errors.New("记录不存在")
	}
	return row, nil
}

func (m *mockRecords) GetAll(ctx context.Context, kind string) ([]map[string]interface{}, error) {
	if m.getAllFn != nil {
		return m.getAllFn(kind)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var rows []map[string]interface{}
	for _, row := range m.data[kind] {
		copied := make(map[string]interface{}, len(row))
		for k, v := range row {
			copied[k] = v
		}
		rows = append(rows, copied)
	}
	return rows, nil
}

func (m *mockRecords) field(kind string, id int64, key string) interface{} {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data[kind][id][key]
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []event.Event
}

func (p *recordingPublisher) Publish(ctx context.Context, e event.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

// ==================== 测试辅助函数 ====================

const testPublicPrefix = "https://cdn.example.com"

func validDraft() model.ListingDraft {
	start := time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)
	return model.ListingDraft{
		Name:           "复古相机",
		Description:    "九成新",
		CategoryID:     "cameras",
		Location:       "上海",
		Condition:      "used",
		Quantity:       1,
		StartingPrice:  99,
		AuctionStart:   start,
		AuctionEnd:     start.Add(48 * time.Hour),
		ShippingOption: "standard",
	}
}

func newTestReconciler(records RecordService, up UploadService, strategy PublishStrategy) (*RecordReconciler, *recordingPublisher) {
	pub := &recordingPublisher{}
	return NewRecordReconciler(records, NewUploadOrchestrator(up, testPublicPrefix), pub, strategy), pub
}

// ==================== 两阶段创建测试 ====================

func TestRecordReconciler_Create_InsertFailureAbortsBeforeUpload(t *testing.T) {
	records := newMockRecords()
	records.insertFn = func(kind string, fields map[string]interface{}) (int64, error) {
		return 0, errors.New("insert rejected")
	}
	up := &mockUploader{}
	rec, pub := newTestReconciler(records, up, StrategyTwoPhase)

	_, err := rec.Create(context.Background(), &CreateRequest{
		VendorID: 7,
		Draft:    validDraft(),
		Assets:   []model.MediaAsset{asset("a.png", model.MediaKindImage)},
	})

	var rf *RequestFailure
	require.ErrorAs(t, err, &rf)
	assert.Equal(t, PhaseCreate, rf.Phase)
	assert.Equal(t, 0, up.calls)
	assert.Empty(t, pub.events)
}

func TestRecordReconciler_Create_UploadFailureKeepsDegradedRecord(t *testing.T) {
	records := newMockRecords()
	records.insertFn = func(kind string, fields map[string]interface{}) (int64, error) {
		records.seed(kind, 101, fields)
		return 101, nil
	}
	up := &mockUploader{uploadBatchFn: func(ctx context.Context, files []model.FileHandle, pathPrefix string) error {
		return errors.New("upload failed")
	}}
	rec, _ := newTestReconciler(records, up, StrategyTwoPhase)

	result, err := rec.Create(context.Background(), &CreateRequest{
		VendorID: 7,
		Draft:    validDraft(),
		Assets:   []model.MediaAsset{asset("a.png", model.MediaKindImage)},
	})

	require.NoError(t, err)
	assert.Equal(t, int64(101), result.ListingID)
	require.NotNil(t, result.Warning)
	assert.Equal(t, PhaseUpload, result.Warning.Phase)

	for _, key := range []string{"image_path", "video_path", "manifest_url"} {
		v := records.field(model.EntityKindListing, 101, key)
		assert.True(t, v == nil || v == "", "%s 应为空", key)
	}
	assert.Empty(t, records.updates)
}

func TestRecordReconciler_Create_NoFilesSkipsUpload(t *testing.T) {
	records := newMockRecords()
	up := &mockUploader{}
	rec, pub := newTestReconciler(records, up, StrategyTwoPhase)

	result, err := rec.Create(context.Background(), &CreateRequest{VendorID: 7, Draft: validDraft()})

	require.NoError(t, err)
	assert.Nil(t, result.Warning)
	assert.Equal(t, 0, up.calls)
	assert.Empty(t, records.updates)
	require.Len(t, pub.events, 1)
	assert.Equal(t, event.TypeListingPublished, pub.events[0].Type)
}

func TestRecordReconciler_Create_PatchFailureReportsOrphans(t *testing.T) {
	records := newMockRecords()
	records.updateFn = func(kind string, id int64, fields map[string]interface{}) error {
		return errors.New("patch failed")
	}
	rec, _ := newTestReconciler(records, &mockUploader{}, StrategyTwoPhase)

	result, err := rec.Create(context.Background(), &CreateRequest{
		VendorID: 7,
		Draft:    validDraft(),
		Assets:   []model.MediaAsset{asset("a.png", model.MediaKindImage), asset("v.mp4", model.MediaKindVideo)},
	})

	require.NoError(t, err)
	require.NotNil(t, result.Warning)
	assert.Equal(t, PhasePatch, result.Warning.Phase)
	assert.Len(t, result.Warning.OrphanedBlobs, 2)
	assert.Contains(t, result.Warning.Error(), "2 个文件未被引用")
}

func TestRecordReconciler_Create_FieldsAreNumericAndCarryKey(t *testing.T) {
	records := newMockRecords()
	var inserted map[string]interface{}
	records.insertFn = func(kind string, fields map[string]interface{}) (int64, error) {
		inserted = fields
		return 1, nil
	}
	rec, _ := newTestReconciler(records, &mockUploader{}, StrategyTwoPhase)

	_, err := rec.Create(context.Background(), &CreateRequest{VendorID: 7, Draft: validDraft(), IdempotencyKey: "k-1"})

	require.NoError(t, err)
	assert.IsType(t, 0, inserted["quantity"])
	assert.IsType(t, 0.0, inserted["starting_price"])
	assert.Equal(t, int64(7), inserted["vendor_id"])
	assert.Equal(t, "k-1", inserted["idempotency_key"])
	assert.NotContains(t, inserted, "image_path")
}

// ==================== 完整发布场景 ====================

func TestRecordReconciler_PublishScenario(t *testing.T) {
	classifier := NewMediaClassifier(nil)
	images := classifier.Classify(model.MediaKindImage, []model.FileHandle{
		{Name: "a.png", ContentType: "image/png", Size: 2 * MB},
		{Name: "b.png", ContentType: "image/png", Size: 3 * MB},
	})
	videos := classifier.Classify(model.MediaKindVideo, []model.FileHandle{
		{Name: "c.mov", ContentType: "video/quicktime", Size: 150 * MB},
	})

	require.Len(t, videos.Rejected, 1)
	assert.Contains(t, strings.Join(videos.Messages(), "\n"), "c.mov")

	var set MediaSet
	set.Add(images.Accepted...)
	set.Add(videos.Accepted...)

	records := newMockRecords()
	records.insertFn = func(kind string, fields map[string]interface{}) (int64, error) {
		records.seed(kind, 101, fields)
		return 101, nil
	}
	up := &mockUploader{}
	rec, _ := newTestReconciler(records, up, StrategyTwoPhase)

	result, err := rec.Create(context.Background(), &CreateRequest{VendorID: 7, Draft: validDraft(), Assets: set.Pending()})

	require.NoError(t, err)
	assert.Nil(t, result.Warning)
	assert.Equal(t, []string{"7/Products/101"}, up.prefixes)
	assert.Equal(t,
		testPublicPrefix+"/7/Products/101/a.png,"+testPublicPrefix+"/7/Products/101/b.png",
		records.field(model.EntityKindListing, 101, "image_path"))
	assert.Equal(t, "", records.field(model.EntityKindListing, 101, "video_path"))
}

// ==================== 先上传策略 ====================

func TestRecordReconciler_UploadFirst(t *testing.T) {
	records := newMockRecords()
	var inserted map[string]interface{}
	records.insertFn = func(kind string, fields map[string]interface{}) (int64, error) {
		inserted = fields
		return 55, nil
	}
	up := &mockUploader{}
	rec, _ := newTestReconciler(records, up, StrategyUploadFirst)

	result, err := rec.Create(context.Background(), &CreateRequest{
		VendorID:       7,
		Draft:          validDraft(),
		Assets:         []model.MediaAsset{asset("a.png", model.MediaKindImage)},
		IdempotencyKey: "attempt-1",
	})

	require.NoError(t, err)
	assert.Equal(t, int64(55), result.ListingID)
	assert.Equal(t, []string{"7/Products/attempt-1"}, up.prefixes)
	assert.Equal(t, testPublicPrefix+"/7/Products/attempt-1/a.png", inserted["image_path"])
	assert.Empty(t, records.updates)
}

func TestRecordReconciler_UploadFirst_UploadFailureCreatesNothing(t *testing.T) {
	records := newMockRecords()
	up := &mockUploader{uploadBatchFn: func(ctx context.Context, files []model.FileHandle, pathPrefix string) error {
		return errors.New("offline")
	}}
	rec, _ := newTestReconciler(records, up, StrategyUploadFirst)

	_, err := rec.Create(context.Background(), &CreateRequest{
		VendorID: 7,
		Draft:    validDraft(),
		Assets:   []model.MediaAsset{asset("a.png", model.MediaKindImage)},
	})

	var rf *RequestFailure
	require.ErrorAs(t, err, &rf)
	assert.Equal(t, PhaseUpload, rf.Phase)
	assert.Equal(t, 0, records.inserts)
}

func TestParsePublishStrategy(t *testing.T) {
	s, err := ParsePublishStrategy("")
	require.NoError(t, err)
	assert.Equal(t, StrategyTwoPhase, s)

	_, err = ParsePublishStrategy("three_phase")
	assert.Error(t, err)
}

// ==================== 编辑测试 ====================

func TestRecordReconciler_Edit_MergesRetainedAndNew(t *testing.T) {
	records := newMockRecords()
	records.seed(model.EntityKindListing, 101, map[string]interface{}{
		"image_path":   "old1,old2",
		"manifest_url": "old.csv",
	})
	up := &mockUploader{}
	rec, _ := newTestReconciler(records, up, StrategyTwoPhase)

	original := validDraft()
	edited := original
	edited.Name = "新名称"

	result, err := rec.Edit(context.Background(), &EditRequest{
		ListingID: 101,
		VendorID:  7,
		Original:  original,
		Draft:     edited,
		Assets:    []model.MediaAsset{asset("c.png", model.MediaKindImage)},
		Retained:  model.MediaPaths{Images: []string{"old2"}, Manifest: "old.csv"},
	})

	require.NoError(t, err)
	assert.Nil(t, result.Warning)

	// 第一次更新只包含变化字段
	require.Len(t, records.updates, 2)
	assert.Equal(t, map[string]interface{}{"name": "新名称"}, records.updates[0])

	assert.Equal(t, "old2,"+testPublicPrefix+"/7/Products/101/c.png", records.field(model.EntityKindListing, 101, "image_path"))
	assert.Equal(t, "old.csv", records.field(model.EntityKindListing, 101, "manifest_url"))
}

func TestRecordReconciler_Edit_NewManifestReplacesExisting(t *testing.T) {
	records := newMockRecords()
	records.seed(model.EntityKindListing, 101, map[string]interface{}{"manifest_url": "old.csv"})
	rec, _ := newTestReconciler(records, &mockUploader{}, StrategyTwoPhase)

	_, err := rec.Edit(context.Background(), &EditRequest{
		ListingID: 101,
		VendorID:  7,
		Original:  validDraft(),
		Draft:     validDraft(),
		Assets:    []model.MediaAsset{asset("d.xlsx", model.MediaKindDocument)},
		Retained:  model.MediaPaths{Manifest: "old.csv"},
	})

	require.NoError(t, err)
	assert.Equal(t, testPublicPrefix+"/7/Products/101/d.xlsx", records.field(model.EntityKindListing, 101, "manifest_url"))
}

func TestRecordReconciler_Edit_UpdateFailureLeavesRecord(t *testing.T) {
	records := newMockRecords()
	records.seed(model.EntityKindListing, 101, map[string]interface{}{"name": "旧"})
	records.updateFn = func(kind string, id int64, fields map[string]interface{}) error {
		return errors.New("conflict")
	}
	up := &mockUploader{}
	rec, _ := newTestReconciler(records, up, StrategyTwoPhase)

	edited := validDraft()
	edited.Name = "新"
	_, err := rec.Edit(context.Background(), &EditRequest{
		ListingID: 101, VendorID: 7, Original: validDraft(), Draft: edited,
		Assets: []model.MediaAsset{asset("c.png", model.MediaKindImage)},
	})

	var rf *RequestFailure
	require.ErrorAs(t, err, &rf)
	assert.Equal(t, 0, up.calls)
	assert.Equal(t, "旧", records.field(model.EntityKindListing, 101, "name"))
}

func TestRecordReconciler_Edit_PrunedURLsWithoutNewFiles(t *testing.T) {
	records := newMockRecords()
	records.seed(model.EntityKindListing, 101, map[string]interface{}{"image_path": "old1,old2"})
	up := &mockUploader{}
	rec, _ := newTestReconciler(records, up, StrategyTwoPhase)

	_, err := rec.Edit(context.Background(), &EditRequest{
		ListingID: 101, VendorID: 7, Original: validDraft(), Draft: validDraft(),
		Retained:        model.MediaPaths{Images: []string{"old2"}},
		RetainedChanged: true,
	})

	require.NoError(t, err)
	assert.Equal(t, 0, up.calls)
	assert.Equal(t, "old2", records.field(model.EntityKindListing, 101, "image_path"))
}

func TestRecordReconciler_Edit_MainAssetSavedFirst(t *testing.T) {
	records := newMockRecords()
	records.seed(model.EntityKindListing, 101, map[string]interface{}{"image_path": "old1,old2"})
	rec, _ := newTestReconciler(records, &mockUploader{}, StrategyTwoPhase)

	result, err := rec.Edit(context.Background(), &EditRequest{
		ListingID: 101, VendorID: 7, Original: validDraft(), Draft: validDraft(),
		Assets: []model.MediaAsset{
			asset("c.png", model.MediaKindImage),
			asset("d.png", model.MediaKindImage),
		},
		Retained:    model.MediaPaths{Images: []string{"old1", "old2"}},
		MainAssetID: "d.png",
	})

	require.NoError(t, err)
	want := []string{testPublicPrefix + "/7/Products/101/d.png", "old1", "old2", testPublicPrefix + "/7/Products/101/c.png"}
	assert.Equal(t, want, result.Paths.Images)
	assert.Equal(t, strings.Join(want, ","), records.field(model.EntityKindListing, 101, "image_path"))
}

func TestRecordReconciler_Edit_UploadFailureReportsPersistedPaths(t *testing.T) {
	records := newMockRecords()
	records.seed(model.EntityKindListing, 101, map[string]interface{}{"image_path": "old1,old2"})
	up := &mockUploader{uploadBatchFn: func(ctx context.Context, files []model.FileHandle, pathPrefix string) error {
		return errors.New("bucket unavailable")
	}}
	rec, pub := newTestReconciler(records, up, StrategyTwoPhase)

	result, err := rec.Edit(context.Background(), &EditRequest{
		ListingID: 101, VendorID: 7, Original: validDraft(), Draft: validDraft(),
		Assets:          []model.MediaAsset{asset("c.png", model.MediaKindImage)},
		Persisted:       model.MediaPaths{Images: []string{"old1", "old2"}},
		Retained:        model.MediaPaths{Images: []string{"old2"}},
		RetainedChanged: true,
	})

	require.NoError(t, err)
	require.NotNil(t, result.Warning)
	assert.Equal(t, []string{"old1", "old2"}, result.Paths.Images)
	assert.Equal(t, "old1,old2", records.field(model.EntityKindListing, 101, "image_path"))

	require.Len(t, pub.events, 1)
	assert.Equal(t, 2, pub.events[0].Payload["images"])
}
