package service

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"

	"market_admin_v1/internal/logging"
	"market_admin_v1/internal/model"
	"market_admin_v1/pkg/event"
)

// ==================== 接口定义 ====================

// RecordService 记录服务
type RecordService interface {
	Insert(ctx context.Context, kind string, fields map[string]interface{}) (int64, error)
	Update(ctx context.Context, kind string, id int64, fields map[string]interface{}) error
	GetByID(ctx context.Context, kind string, id int64) (map[string]interface{}, error)
	GetAll(ctx context.Context, kind string) ([]map[string]interface{}, error)
}

// PublishStrategy 写入顺序
type PublishStrategy string

const (
	// StrategyTwoPhase 先建空记录拿到 ID，再上传并回写路径
	StrategyTwoPhase PublishStrategy = "two_phase"
	// StrategyUploadFirst 先用客户端生成的键上传，再一次性创建完整记录
	StrategyUploadFirst PublishStrategy = "upload_first"
)

func ParsePublishStrategy(s string) (PublishStrategy, error) {
	switch PublishStrategy(s) {
	case "", StrategyTwoPhase:
		return StrategyTwoPhase, nil
	case StrategyUploadFirst:
		return StrategyUploadFirst, nil
	}
	return "", fmt.Errorf("未知的发布策略: %s", s)
}

// ==================== 请求与结果 ====================

type CreateRequest struct {
	Session        model.Session
	VendorID       int64
	Draft          model.ListingDraft
	Assets         []model.MediaAsset // 图片主图在前
	IdempotencyKey string
}

type EditRequest struct {
	Session   model.Session
	ListingID int64
	VendorID  int64
	Original  model.ListingDraft
	Draft     model.ListingDraft
	Assets    []model.MediaAsset
	// Persisted 进入编辑时记录上的媒体路径，写入失败时即为记录的实际状态
	Persisted model.MediaPaths
	// Retained 保留的已持久化 URL（含 existingManifestUrl），主图为保留图片时排在第一位
	Retained model.MediaPaths
	// RetainedChanged 用户删除或重排过已持久化的 URL
	RetainedChanged bool
	// MainAssetID 新上传图片被指定为主图时非空
	MainAssetID string
}

type PublishResult struct {
	ListingID int64
	Paths     model.MediaPaths
	// Warning 非空时记录已保存但媒体不完整
	Warning *PartialPublishWarning
}

// ==================== 协调器 ====================

// RecordReconciler 记录写入与媒体挂载
type RecordReconciler struct {
	records  RecordService
	uploads  *UploadOrchestrator
	events   event.Publisher
	strategy PublishStrategy
}

func NewRecordReconciler(records RecordService, uploads *UploadOrchestrator, events event.Publisher, strategy PublishStrategy) *RecordReconciler {
	if events == nil {
		events = event.NopPublisher{}
	}
	if strategy == "" {
		strategy = StrategyTwoPhase
	}
	return &RecordReconciler{
		records:  records,
		uploads:  uploads,
		events:   events,
		strategy: strategy,
	}
}

func (r *RecordReconciler) Strategy() PublishStrategy {
	return r.strategy
}

// Create 新建商品
func (r *RecordReconciler) Create(ctx context.Context, req *CreateRequest) (*PublishResult, error) {
	fields := req.Draft.Fields()
	fields["vendor_id"] = req.VendorID
	if req.IdempotencyKey != "" {
		fields["idempotency_key"] = req.IdempotencyKey
	}

	var (
		result *PublishResult
		err    error
	)
	if r.strategy == StrategyUploadFirst {
		result, err = r.createUploadFirst(ctx, req, fields)
	} else {
		result, err = r.createTwoPhase(ctx, req, fields)
	}
	if err != nil {
		return nil, err
	}

	r.emit(ctx, event.TypeListingPublished, req.Session, req.VendorID, result)
	return result, nil
}

func (r *RecordReconciler) createTwoPhase(ctx context.Context, req *CreateRequest, fields map[string]interface{}) (*PublishResult, error) {
	log := logging.WithFields(ctx, "vendor_id", req.VendorID, "strategy", StrategyTwoPhase)

	// 阶段一：创建不含媒体路径的记录
	id, err := r.records.Insert(ctx, model.EntityKindListing, fields)
	if err != nil {
		log.Error("listing_create_failed", "error", err)
		return nil, &RequestFailure{Phase: PhaseCreate, Err: err}
	}
	log = log.With("listing_id", id)

	result := &PublishResult{ListingID: id}
	if len(req.Assets) == 0 {
		log.Info("listing_created", "files", 0)
		return result, nil
	}

	// 阶段二：上传并回写路径
	prefix := ComputePathPrefix(req.VendorID, id)
	paths, warning := r.attach(ctx, id, prefix, req.Assets, model.MediaPaths{}, "")
	result.Warning = warning
	if warning != nil {
		log.Warn("listing_media_incomplete", "phase", warning.Phase, "error", warning.Err)
	} else {
		result.Paths = paths
		log.Info("listing_created", "files", len(req.Assets))
	}
	return result, nil
}

func (r *RecordReconciler) createUploadFirst(ctx context.Context, req *CreateRequest, fields map[string]interface{}) (*PublishResult, error) {
	log := logging.WithFields(ctx, "vendor_id", req.VendorID, "strategy", StrategyUploadFirst)

	var paths model.MediaPaths
	var uploaded []string
	if len(req.Assets) > 0 {
		key := req.IdempotencyKey
		if key == "" {
			key = uuid.NewString()
		}
		prefix := model.StorageLocation{VendorID: req.VendorID, EntityKind: model.StorageKindProducts, EntityID: key}.Prefix()

		if err := r.uploads.Upload(ctx, req.Assets, prefix); err != nil {
			log.Error("listing_upload_failed", "prefix", prefix, "error", err)
			return nil, &RequestFailure{Phase: PhaseUpload, Err: err}
		}
		paths = r.uploads.Aggregate(req.Assets, prefix)
		uploaded = r.uploads.URLs(req.Assets, prefix)
		for k, v := range paths.Fields() {
			fields[k] = v
		}
	}

	id, err := r.records.Insert(ctx, model.EntityKindListing, fields)
	if err != nil {
		log.Error("listing_create_failed", "error", err, "orphaned", len(uploaded))
		return nil, &RequestFailure{Phase: PhaseCreate, Err: err}
	}

	log.Info("listing_created", "listing_id", id, "files", len(req.Assets))
	return &PublishResult{ListingID: id, Paths: paths}, nil
}

// Edit 编辑已有商品：字段差异更新，再合并保留的旧 URL 与新上传的 URL
func (r *RecordReconciler) Edit(ctx context.Context, req *EditRequest) (*PublishResult, error) {
	log := logging.WithFields(ctx, "listing_id", req.ListingID, "vendor_id", req.VendorID)

	// 阶段一：仅提交变化的字段，失败时原记录不变
	if diff := req.Draft.Diff(req.Original); len(diff) > 0 {
		if err := r.records.Update(ctx, model.EntityKindListing, req.ListingID, diff); err != nil {
			log.Error("listing_update_failed", "error", err)
			return nil, &RequestFailure{Phase: PhaseCreate, Err: err}
		}
	}

	result := &PublishResult{ListingID: req.ListingID, Paths: req.Retained}

	switch {
	case len(req.Assets) > 0:
		prefix := ComputePathPrefix(req.VendorID, req.ListingID)
		mainURL := ""
		if req.MainAssetID != "" {
			if i := slices.IndexFunc(req.Assets, func(a model.MediaAsset) bool { return a.ID == req.MainAssetID }); i >= 0 {
				mainURL = r.uploads.PublicURL(prefix, req.Assets[i].File.Name)
			}
		}
		result.Paths, result.Warning = r.attach(ctx, req.ListingID, prefix, req.Assets, req.Retained, mainURL)
	case req.RetainedChanged:
		if err := r.records.Update(ctx, model.EntityKindListing, req.ListingID, req.Retained.Fields()); err != nil {
			result.Warning = &PartialPublishWarning{RecordID: req.ListingID, Phase: PhasePatch, Err: err}
		}
	}

	if result.Warning != nil {
		// 媒体未写入时删除与重排均未生效，返回记录上的原路径
		result.Paths = req.Persisted
		log.Warn("listing_media_incomplete", "phase", result.Warning.Phase, "error", result.Warning.Err)
	} else {
		log.Info("listing_updated", "files", len(req.Assets))
	}

	r.emit(ctx, event.TypeListingUpdated, req.Session, req.VendorID, result)
	return result, nil
}

// attach 上传后回写路径；失败只产生警告，不回滚阶段一
// mainURL 非空时该图片排在第一位；返回的路径仅在无警告时有效
func (r *RecordReconciler) attach(ctx context.Context, id int64, prefix string, assets []model.MediaAsset, retained model.MediaPaths, mainURL string) (model.MediaPaths, *PartialPublishWarning) {
	if err := r.uploads.Upload(ctx, assets, prefix); err != nil {
		return model.MediaPaths{}, &PartialPublishWarning{RecordID: id, Phase: PhaseUpload, Err: err}
	}

	paths := retained.Merge(r.uploads.Aggregate(assets, prefix)).WithMainImage(mainURL)
	if err := r.records.Update(ctx, model.EntityKindListing, id, paths.Fields()); err != nil {
		return model.MediaPaths{}, &PartialPublishWarning{
			RecordID:      id,
			Phase:         PhasePatch,
			OrphanedBlobs: r.uploads.URLs(assets, prefix),
			Err:           err,
		}
	}
	return paths, nil
}

func (r *RecordReconciler) emit(ctx context.Context, typ string, session model.Session, vendorID int64, result *PublishResult) {
	err := r.events.Publish(ctx, event.Event{
		Type:       typ,
		EntityKind: model.EntityKindListing,
		EntityID:   result.ListingID,
		ActorID:    session.AdminID,
		Payload: map[string]interface{}{
			"vendor_id":      vendorID,
			"media_complete": result.Warning == nil,
			"images":         len(result.Paths.Images),
		},
		At: time.Now(),
	})
	if err != nil {
		logging.FromContext(ctx).Warn("event_publish_failed", "type", typ, "listing_id", result.ListingID, "error", err)
	}
}
