package task

import (
	"context"
	"time"

	"market_admin_v1/internal/logging"
	"market_admin_v1/internal/model"
	"market_admin_v1/pkg/event"
)

// ==================== 媒体缺失巡检 ====================

// DegradedListingFinder 查询媒体字段为空的商品
type DegradedListingFinder interface {
	ListDegraded(ctx context.Context, before time.Time, limit int) ([]model.Listing, error)
}

// MediaAuditTask 定时找出“记录已创建、媒体未挂载”的商品并发出事件
// 只上报，不修复：上传失败后的补传由运营在编辑流程中完成
type MediaAuditTask struct {
	finder    DegradedListingFinder
	events    event.Publisher
	olderThan time.Duration
	batchSize int
	now       func() time.Time
}

func NewMediaAuditTask(finder DegradedListingFinder, events event.Publisher, olderThan time.Duration) *MediaAuditTask {
	if events == nil {
		events = event.NopPublisher{}
	}
	if olderThan <= 0 {
		olderThan = time.Hour
	}
	return &MediaAuditTask{
		finder:    finder,
		events:    events,
		olderThan: olderThan,
		batchSize: 200,
		now:       time.Now,
	}
}

// RunOnce 执行一次巡检，返回发现的商品数
func (t *MediaAuditTask) RunOnce(ctx context.Context) (int, error) {
	log := logging.WithFields(ctx, "task", "media_audit")

	listings, err := t.finder.ListDegraded(ctx, t.now().Add(-t.olderThan), t.batchSize)
	if err != nil {
		log.Error("media_audit_query_failed", "error", err)
		return 0, err
	}

	for _, l := range listings {
		log.Warn("listing_media_incomplete", "listing_id", l.ID, "vendor_id", l.VendorID, "created_at", l.CreatedAt)
		err := t.events.Publish(ctx, event.Event{
			Type:       event.TypeListingMediaIncomplete,
			EntityKind: model.EntityKindListing,
			EntityID:   l.ID,
			Payload: map[string]interface{}{
				"vendor_id": l.VendorID,
				"name":      l.Name,
			},
			At: t.now(),
		})
		if err != nil {
			log.Warn("event_publish_failed", "listing_id", l.ID, "error", err)
		}
	}
	return len(listings), nil
}
