package service

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"sync"

	"github.com/google/uuid"

	"market_admin_v1/internal/api/dto"
	"market_admin_v1/internal/logging"
	"market_admin_v1/internal/model"
)

const (
	WizardModeCreate = "create"
	WizardModeEdit   = "edit"
)

// ==================== 向导状态机 ====================

// WizardController 四步发布向导：基本信息 → 价格/拍卖 → 物流/清单 → 媒体/发布
// saving 期间拒绝所有修改操作，是同一草稿重复发布的唯一防护
type WizardController struct {
	mu sync.Mutex

	id        string
	mode      string
	session   model.Session
	vendorID  int64
	listingID int64

	step     int
	draft    model.ListingDraft
	original model.ListingDraft
	errors   map[string]string
	saving   bool
	closed   bool

	media           MediaSet
	persisted       model.MediaPaths
	existing        model.MediaPaths
	existingChanged bool
	notices         *NoticeBoard

	// 每次发布尝试的幂等键，失败重试时保持不变
	idempotencyKey string

	classifier *MediaClassifier
	reconciler *RecordReconciler
	progress   *ProgressHub
}

func NewWizard(session model.Session, vendorID int64, classifier *MediaClassifier, reconciler *RecordReconciler, progress *ProgressHub) *WizardController {
	return &WizardController{
		id:             uuid.NewString(),
		mode:           WizardModeCreate,
		session:        session,
		vendorID:       vendorID,
		draft:          model.NewListingDraft(),
		errors:         make(map[string]string),
		notices:        NewNoticeBoard(NoticeTTL),
		idempotencyKey: uuid.NewString(),
		classifier:     classifier,
		reconciler:     reconciler,
		progress:       progress,
	}
}

// NewEditWizard 从已有记录进入编辑模式，已持久化的 URL 可被保留或删除
func NewEditWizard(session model.Session, listing *model.Listing, classifier *MediaClassifier, reconciler *RecordReconciler, progress *ProgressHub) *WizardController {
	w := NewWizard(session, listing.VendorID, classifier, reconciler, progress)
	w.mode = WizardModeEdit
	w.listingID = listing.ID
	w.draft = model.DraftFromListing(listing)
	w.original = model.DraftFromListing(listing)
	w.persisted = listing.MediaPaths()
	w.existing = listing.MediaPaths()
	// 保留的第一张图片仍是主图，直到用户指定新图片
	if len(w.existing.Images) > 0 {
		w.media.SetExternalMain(true)
	}
	return w
}

func (w *WizardController) ID() string {
	return w.id
}

// validate 当前步骤校验，调用方持有锁
func (w *WizardController) validate(step int) map[string]string {
	return w.draft.ValidateStep(step, w.media.ImageCount()+len(w.existing.Images))
}

func (w *WizardController) mutable() error {
	if w.closed {
		return ErrWizardClosed
	}
	if w.saving {
		return ErrSaving
	}
	return nil
}

// ==================== 导航 ====================

// Next 当前步骤校验通过才前进一步；最后一步只做校验
func (w *WizardController) Next() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if errs := w.validate(w.step); len(errs) > 0 {
		w.errors = errs
		return &ValidationError{Step: w.step, Fields: errs}
	}
	w.errors = make(map[string]string)
	if w.step < model.StepCount-1 {
		w.step++
	}
	return nil
}

// Back 无条件后退
func (w *WizardController) Back() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.step > 0 {
		w.step--
	}
	w.errors = make(map[string]string)
}

// JumpTo 可跳回任意之前的步骤；向前只能到下一步且当前步骤需校验通过
func (w *WizardController) JumpTo(step int) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	switch {
	case step < 0 || step >= model.StepCount:
		return ErrStepLocked
	case step <= w.step:
		w.step = step
		w.errors = make(map[string]string)
		return nil
	case step == w.step+1:
		if errs := w.validate(w.step); len(errs) > 0 {
			w.errors = errs
			return &ValidationError{Step: w.step, Fields: errs}
		}
		w.step = step
		w.errors = make(map[string]string)
		return nil
	default:
		return ErrStepLocked
	}
}

// ==================== 编辑 ====================

// UpdateFields 写入原始输入，数值在此处完成转换
func (w *WizardController) UpdateFields(patch model.DraftPatch) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.mutable(); err != nil {
		return err
	}
	draft := w.draft
	if err := patch.Apply(&draft); err != nil {
		return err
	}
	w.draft = draft
	for k := range patch {
		delete(w.errors, k)
	}
	return nil
}

// AddFiles 分类后加入媒体集合，拒绝提示进入临时通知
func (w *WizardController) AddFiles(kind model.MediaKind, files []model.FileHandle) (ClassifyResult, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.mutable(); err != nil {
		return ClassifyResult{}, err
	}
	result := w.classifier.Classify(kind, files)
	w.media.Add(result.Accepted...)
	if len(result.Rejected) > 0 {
		w.notices.Post(result.Messages()...)
	}
	if w.media.ImageCount() > 0 {
		delete(w.errors, "images")
	}
	return result, nil
}

// RemoveAsset 移除待上传媒体并清除其进度
func (w *WizardController) RemoveAsset(id string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.mutable(); err != nil {
		return err
	}
	removed, ok := w.media.Remove(id)
	if !ok {
		return ErrAssetNotFound
	}
	// 编辑模式下移除新主图后，合并顺序中的第一张是保留图片
	if removed.IsMain && len(w.existing.Images) > 0 {
		w.media.SetExternalMain(true)
	}
	if w.progress != nil {
		w.progress.Clear(w.id, removed.File.Name)
	}
	return nil
}

// PromoteImage 指定待上传图片为主图，编辑模式下排在保留图片之前
func (w *WizardController) PromoteImage(id string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.mutable(); err != nil {
		return err
	}
	return w.media.Promote(id)
}

// RemoveExistingURL 编辑模式下删除已持久化的 URL
func (w *WizardController) RemoveExistingURL(url string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.mutable(); err != nil {
		return err
	}
	if w.mode != WizardModeEdit {
		return ErrNotEditMode
	}

	removed := false
	if i := slices.Index(w.existing.Images, url); i >= 0 {
		w.existing.Images = slices.Delete(w.existing.Images, i, i+1)
		removed = true
	} else if i := slices.Index(w.existing.Videos, url); i >= 0 {
		w.existing.Videos = slices.Delete(w.existing.Videos, i, i+1)
		removed = true
	} else if w.existing.Manifest != "" && w.existing.Manifest == url {
		w.existing.Manifest = ""
		removed = true
	}
	if !removed {
		return ErrAssetNotFound
	}
	if len(w.existing.Images) == 0 && w.media.ExternalMain() {
		w.media.SetExternalMain(false)
	}
	w.existingChanged = true
	return nil
}

// PromoteExistingURL 编辑模式下指定保留图片为主图
func (w *WizardController) PromoteExistingURL(url string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.mutable(); err != nil {
		return err
	}
	if w.mode != WizardModeEdit {
		return ErrNotEditMode
	}
	if !slices.Contains(w.existing.Images, url) {
		return ErrAssetNotFound
	}

	if w.existing.Images[0] != url {
		w.existing = w.existing.WithMainImage(url)
		w.existingChanged = true
	}
	w.media.SetExternalMain(true)
	return nil
}

// ==================== 提交 ====================

// Submit 依次校验全部步骤，失败时跳到第一个未通过的步骤
// 发布一旦开始不可取消，结束后 saving 一定被清除；成功（含媒体警告）后向导关闭
func (w *WizardController) Submit(ctx context.Context) (*PublishResult, error) {
	w.mu.Lock()
	if err := w.mutable(); err != nil {
		w.mu.Unlock()
		return nil, err
	}
	for step := 0; step < model.StepCount; step++ {
		if errs := w.validate(step); len(errs) > 0 {
			w.step = step
			w.errors = errs
			w.mu.Unlock()
			return nil, &ValidationError{Step: step, Fields: errs}
		}
	}
	w.saving = true
	w.errors = make(map[string]string)
	mode := w.mode
	createReq, editReq := w.buildRequests()
	w.mu.Unlock()

	defer func() {
		w.mu.Lock()
		w.saving = false
		w.mu.Unlock()
	}()

	runCtx := WithProgressKey(context.WithoutCancel(ctx), w.id)
	log := logging.WithFields(runCtx, "wizard_id", w.id, "mode", mode)

	var (
		result *PublishResult
		err    error
	)
	if mode == WizardModeEdit {
		result, err = w.reconciler.Edit(runCtx, editReq)
	} else {
		result, err = w.reconciler.Create(runCtx, createReq)
	}
	if err != nil {
		log.Error("wizard_submit_failed", "error", err)
		return nil, err
	}

	w.mu.Lock()
	w.closed = true
	w.listingID = result.ListingID
	w.mu.Unlock()

	if w.progress != nil {
		w.progress.Publish(w.id, dto.ProgressEvent{SessionID: w.id, Stage: dto.StageDone, Progress: 100})
	}
	log.Info("wizard_submitted", "listing_id", result.ListingID, "degraded", result.Warning != nil)
	return result, nil
}

// buildRequests 在锁内复制提交所需状态
func (w *WizardController) buildRequests() (*CreateRequest, *EditRequest) {
	assets := w.media.Pending()
	if w.mode == WizardModeEdit {
		return nil, &EditRequest{
			Session:         w.session,
			ListingID:       w.listingID,
			VendorID:        w.vendorID,
			Original:        w.original,
			Draft:           w.draft,
			Assets:          assets,
			Persisted:       w.persisted,
			Retained:        model.MediaPaths{Images: slices.Clone(w.existing.Images), Videos: slices.Clone(w.existing.Videos), Manifest: w.existing.Manifest},
			RetainedChanged: w.existingChanged,
			MainAssetID:     w.media.MainID(),
		}
	}
	return &CreateRequest{
		Session:        w.session,
		VendorID:       w.vendorID,
		Draft:          w.draft,
		Assets:         assets,
		IdempotencyKey: w.idempotencyKey,
	}, nil
}

// ==================== 状态 ====================

func (w *WizardController) Step() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.step
}

func (w *WizardController) Saving() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.saving
}

func (w *WizardController) Closed() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closed
}

func (w *WizardController) Errors() map[string]string {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make(map[string]string, len(w.errors))
	for k, v := range w.errors {
		out[k] = v
	}
	return out
}

func (w *WizardController) Notices() []string {
	return w.notices.Active()
}

// Snapshot 当前完整状态
func (w *WizardController) Snapshot() dto.WizardStateResponse {
	w.mu.Lock()
	defer w.mu.Unlock()

	errs := make(map[string]string, len(w.errors))
	for k, v := range w.errors {
		errs[k] = v
	}
	state := dto.WizardStateResponse{
		SessionID: w.id,
		Mode:      w.mode,
		ListingID: w.listingID,
		VendorID:  w.vendorID,
		Step:      w.step,
		Draft:     w.draft,
		Errors:    errs,
		Assets:    w.media.Pending(),
		Notices:   w.notices.Active(),
		Saving:    w.saving,
	}
	if w.mode == WizardModeEdit {
		state.Existing = &dto.ExistingMediaResponse{
			Images:   slices.Clone(w.existing.Images),
			Videos:   slices.Clone(w.existing.Videos),
			Manifest: w.existing.Manifest,
		}
		if w.media.ExternalMain() && len(w.existing.Images) > 0 {
			state.Existing.Main = w.existing.Images[0]
		}
	}
	if w.progress != nil {
		state.Progress = w.progress.Snapshot(w.id)
	}
	return state
}

// ==================== 会话管理 ====================

// WizardService 管理向导会话
type WizardService struct {
	store      *WizardSessionStore
	records    RecordService
	classifier *MediaClassifier
	reconciler *RecordReconciler
	progress   *ProgressHub
}

func NewWizardService(store *WizardSessionStore, records RecordService, classifier *MediaClassifier, reconciler *RecordReconciler, progress *ProgressHub) *WizardService {
	return &WizardService{
		store:      store,
		records:    records,
		classifier: classifier,
		reconciler: reconciler,
		progress:   progress,
	}
}

// Create 新建发布向导；商家账号固定为自己的商家
func (s *WizardService) Create(ctx context.Context, session model.Session, vendorID int64) (*WizardController, error) {
	if session.VendorID != 0 {
		vendorID = session.VendorID
	}
	if vendorID == 0 {
		return nil, ErrVendorRequired
	}
	w := NewWizard(session, vendorID, s.classifier, s.reconciler, s.progress)
	s.store.Put(w)
	logging.FromContext(ctx).Info("wizard_created", "wizard_id", w.ID(), "vendor_id", vendorID)
	return w, nil
}

// CreateEdit 编辑已有商品
func (s *WizardService) CreateEdit(ctx context.Context, session model.Session, listingID int64) (*WizardController, error) {
	row, err := s.records.GetByID(ctx, model.EntityKindListing, listingID)
	if err != nil {
		return nil, fmt.Errorf("获取商品失败: %w", err)
	}
	listing, err := decodeListing(row)
	if err != nil {
		return nil, err
	}
	if session.VendorID != 0 && listing.VendorID != session.VendorID {
		return nil, fmt.Errorf("获取商品失败: %w", model.ErrNotFound)
	}

	w := NewEditWizard(session, listing, s.classifier, s.reconciler, s.progress)
	s.store.Put(w)
	logging.FromContext(ctx).Info("wizard_created", "wizard_id", w.ID(), "listing_id", listingID, "mode", WizardModeEdit)
	return w, nil
}

// Get 获取会话并续期
func (s *WizardService) Get(id string) (*WizardController, error) {
	w, ok := s.store.Get(id)
	if !ok {
		return nil, ErrSessionNotFound
	}
	return w, nil
}

// Submit 提交；成功后会话被丢弃
func (s *WizardService) Submit(ctx context.Context, id string) (*PublishResult, error) {
	w, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	result, err := w.Submit(ctx)
	if err != nil {
		return nil, err
	}
	s.Discard(id)
	return result, nil
}

// Alive 会话是否仍有效
func (s *WizardService) Alive(id string) bool {
	return s.store.Has(id)
}

// Discard 关闭/取消向导，草稿被丢弃
func (s *WizardService) Discard(id string) {
	s.store.Delete(id)
	if s.progress != nil {
		s.progress.Drop(id)
	}
}

// Sweep 清理过期会话
func (s *WizardService) Sweep() int {
	return s.store.Sweep()
}

func (s *WizardService) Progress() *ProgressHub {
	return s.progress
}

// ==================== 辅助函数 ====================

func decodeListing(row map[string]interface{}) (*model.Listing, error) {
	data, err := json.Marshal(row)
	if err != nil {
		return nil, fmt.Errorf("解析商品失败: %v", err)
	}
	var listing model.Listing
	if err := json.Unmarshal(data, &listing); err != nil {
		return nil, fmt.Errorf("解析商品失败: %v", err)
	}
	return &listing, nil
}
