package event

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"
)

const (
	TypeListingPublished    = "listing.published"
	TypeListingUpdated      = "listing.updated"
	TypeListingStatusChange = "listing.status_changed"
	TypeVendorStatusChange  = "vendor.status_changed"

	// TypeListingMediaIncomplete 巡检发现已创建但媒体字段为空的商品
	TypeListingMediaIncomplete = "listing.media_incomplete"
)

// Event 领域事件
type Event struct {
	Type       string                 `json:"type"`
	EntityKind string                 `json:"entity_kind"`
	EntityID   int64                  `json:"entity_id"`
	ActorID    int64                  `json:"actor_id,omitempty"`
	Payload    map[string]interface{} `json:"payload,omitempty"`
	At         time.Time              `json:"at"`
}

// Publisher 事件发布；发布失败不影响业务结果，由调用方记录日志
type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

// ==================== Kafka ====================

type KafkaPublisher struct {
	writer *kafka.Writer
}

func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafka.Hash{},
			RequiredAcks:           kafka.RequireOne,
			AllowAutoTopicCreation: true,
		},
	}
}

// Publish 以实体 ID 为 key，同一实体的事件进入同一分区
func (p *KafkaPublisher) Publish(ctx context.Context, e Event) error {
	if e.At.IsZero() {
		e.At = time.Now()
	}
	value, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("序列化事件失败: %w", err)
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(e.EntityKind + ":" + strconv.FormatInt(e.EntityID, 10)),
		Value: value,
		Headers: []kafka.Header{
			{Key: "type", Value: []byte(e.Type)},
		},
	})
	if err != nil {
		return fmt.Errorf("发送事件失败: %w", err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// ==================== 无操作 ====================

// NopPublisher 未配置 Kafka 时使用，仅记录调试日志
type NopPublisher struct{}

func (NopPublisher) Publish(ctx context.Context, e Event) error {
	slog.Debug("event_skipped", "type", e.Type, "entity_kind", e.EntityKind, "entity_id", e.EntityID)
	return nil
}

func (NopPublisher) Close() error { return nil }
