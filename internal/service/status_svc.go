package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"market_admin_v1/internal/logging"
	"market_admin_v1/internal/model"
	"market_admin_v1/pkg/event"
)

// ==================== 接口定义 ====================

// StatusBackend 权威状态的读写
type StatusBackend[S comparable] interface {
	Apply(ctx context.Context, req model.StatusTransitionRequest[S]) error
	FetchAll(ctx context.Context) (map[int64]S, error)
}

// ==================== 协调器 ====================

// Coordinator 状态变更：先改本地视图，再发请求
// 单个失败时回滚本地值；批量全部结束后重新拉取列表校正
// 不做加锁，多人同时修改同一实体时以服务端最后一次写入为准
type Coordinator[S comparable] struct {
	kind      string
	eventType string
	backend   StatusBackend[S]
	events    event.Publisher
	valid     func(S) bool

	mu   sync.RWMutex
	view map[int64]S
}

func NewCoordinator[S comparable](kind, eventType string, backend StatusBackend[S], events event.Publisher, valid func(S) bool) *Coordinator[S] {
	if events == nil {
		events = event.NopPublisher{}
	}
	return &Coordinator[S]{
		kind:      kind,
		eventType: eventType,
		backend:   backend,
		events:    events,
		valid:     valid,
		view:      make(map[int64]S),
	}
}

// Refresh 以服务端列表覆盖本地视图
func (c *Coordinator[S]) Refresh(ctx context.Context) error {
	fresh, err := c.backend.FetchAll(ctx)
	if err != nil {
		return fmt.Errorf("刷新列表失败: %w", err)
	}
	c.mu.Lock()
	c.view = fresh
	c.mu.Unlock()
	return nil
}

func (c *Coordinator[S]) Get(id int64) (S, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s, ok := c.view[id]
	return s, ok
}

// View 本地视图副本
func (c *Coordinator[S]) View() map[int64]S {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[int64]S, len(c.view))
	for k, v := range c.view {
		out[k] = v
	}
	return out
}

type prior[S comparable] struct {
	value S
	known bool
}

// optimistic 写入目标值并返回旧值
func (c *Coordinator[S]) optimistic(id int64, target S) prior[S] {
	c.mu.Lock()
	defer c.mu.Unlock()
	old, ok := c.view[id]
	c.view[id] = target
	return prior[S]{value: old, known: ok}
}

func (c *Coordinator[S]) revert(id int64, p prior[S]) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if p.known {
		c.view[id] = p.value
	} else {
		delete(c.view, id)
	}
}

// Transition 单个实体状态变更，失败时恢复原值
func (c *Coordinator[S]) Transition(ctx context.Context, req model.StatusTransitionRequest[S]) error {
	if c.valid != nil && !c.valid(req.Target) {
		return fmt.Errorf("非法状态: %v", req.Target)
	}

	p := c.optimistic(req.EntityID, req.Target)
	if err := c.backend.Apply(ctx, req); err != nil {
		c.revert(req.EntityID, p)
		logging.FromContext(ctx).Warn("status_transition_failed", "kind", c.kind, "id", req.EntityID, "target", req.Target, "error", err)
		return &RequestFailure{Phase: "status", Err: err}
	}

	c.emit(ctx, req)
	return nil
}

// BulkTransition 并发发出全部请求（不限并发），等待全部结束后统计并重新拉取列表
// 不会自动重试；失败项在刷新后显示服务端的原状态
func (c *Coordinator[S]) BulkTransition(ctx context.Context, ids []int64, target S, justification string) (model.BulkOperationResult, error) {
	var result model.BulkOperationResult
	if c.valid != nil && !c.valid(target) {
		return result, fmt.Errorf("非法状态: %v", target)
	}

	ids = uniqueIDs(ids)
	priors := make([]prior[S], len(ids))
	for i, id := range ids {
		priors[i] = c.optimistic(id, target)
	}

	errs := make([]error, len(ids))
	var wg sync.WaitGroup
	for i, id := range ids {
		wg.Add(1)
		go func(idx int, entityID int64) {
			defer wg.Done()
			req := model.StatusTransitionRequest[S]{EntityID: entityID, Target: target, Justification: justification}
			if err := c.backend.Apply(ctx, req); err != nil {
				errs[idx] = err
				return
			}
			c.emit(ctx, req)
		}(i, id)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			result.FailedCount++
			result.FailedIDs = append(result.FailedIDs, ids[i])
		} else {
			result.SucceededCount++
		}
	}

	log := logging.WithFields(ctx, "kind", c.kind, "target", target)
	log.Info("bulk_transition_settled", "succeeded", result.SucceededCount, "failed", result.FailedCount)

	if err := c.Refresh(ctx); err != nil {
		// 拉取失败时退回到逐项回滚
		for i, e := range errs {
			if e != nil {
				c.revert(ids[i], priors[i])
			}
		}
		log.Warn("bulk_refetch_failed", "error", err)
		return result, err
	}
	return result, nil
}

func (c *Coordinator[S]) emit(ctx context.Context, req model.StatusTransitionRequest[S]) {
	err := c.events.Publish(ctx, event.Event{
		Type:       c.eventType,
		EntityKind: c.kind,
		EntityID:   req.EntityID,
		Payload: map[string]interface{}{
			"target":        req.Target,
			"justification": req.Justification,
		},
		At: time.Now(),
	})
	if err != nil {
		logging.FromContext(ctx).Warn("event_publish_failed", "type", c.eventType, "id", req.EntityID, "error", err)
	}
}

func uniqueIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// ==================== 基于记录服务的实现 ====================

// fieldBackend 单字段状态，读写都经过 RecordService
type fieldBackend[S comparable] struct {
	records RecordService
	kind    string
	field   string
	// reason 非空时同时写入变更理由
	reason string
	encode  func(S) interface{}
	decode  func(row map[string]interface{}, field string) S
}

func (b *fieldBackend[S]) Apply(ctx context.Context, req model.StatusTransitionRequest[S]) error {
	fields := map[string]interface{}{b.field: b.encode(req.Target)}
	if b.reason != "" {
		fields[b.reason] = req.Justification
	}
	return b.records.Update(ctx, b.kind, req.EntityID, fields)
}

func (b *fieldBackend[S]) FetchAll(ctx context.Context) (map[int64]S, error) {
	rows, err := b.records.GetAll(ctx, b.kind)
	if err != nil {
		return nil, err
	}
	out := make(map[int64]S, len(rows))
	for _, row := range rows {
		id := getMapInt64(row, "id")
		if id == 0 {
			continue
		}
		out[id] = b.decode(row, b.field)
	}
	return out, nil
}

// NewVendorStatusCoordinator 商家审核：pending / approved / rejected 任意互转
func NewVendorStatusCoordinator(records RecordService, events event.Publisher) *Coordinator[model.VendorStatus] {
	backend := &fieldBackend[model.VendorStatus]{
		records: records,
		kind:    model.EntityKindVendor,
		field:   "status",
		reason:  "status_reason",
		encode:  func(s model.VendorStatus) interface{} { return string(s) },
		decode: func(row map[string]interface{}, field string) model.VendorStatus {
			return model.VendorStatus(getMapString(row, field))
		},
	}
	return NewCoordinator[model.VendorStatus](model.EntityKindVendor, event.TypeVendorStatusChange, backend, events, model.VendorStatus.Valid)
}

// NewListingActiveCoordinator 商品上下架，字段统一为 is_active
func NewListingActiveCoordinator(records RecordService, events event.Publisher) *Coordinator[bool] {
	backend := &fieldBackend[bool]{
		records: records,
		kind:    model.EntityKindListing,
		field:   "is_active",
		encode:  func(b bool) interface{} { return b },
		decode:  getMapBool,
	}
	return NewCoordinator[bool](model.EntityKindListing, event.TypeListingStatusChange, backend, events, nil)
}

// NewAuctionStatusCoordinator 拍卖状态：draft / scheduled / live / ended 任意互转
func NewAuctionStatusCoordinator(records RecordService, events event.Publisher) *Coordinator[model.AuctionStatus] {
	backend := &fieldBackend[model.AuctionStatus]{
		records: records,
		kind:    model.EntityKindListing,
		field:   "auction_status",
		encode:  func(s model.AuctionStatus) interface{} { return string(s) },
		decode: func(row map[string]interface{}, field string) model.AuctionStatus {
			return model.AuctionStatus(getMapString(row, field))
		},
	}
	return NewCoordinator[model.AuctionStatus](model.EntityKindListing, event.TypeListingStatusChange, backend, events, model.AuctionStatus.Valid)
}
