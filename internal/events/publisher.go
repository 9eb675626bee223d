package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// DefaultStreamMaxLen caps each stream at roughly this many entries.
const DefaultStreamMaxLen int64 = 100_000

// Publisher appends ledger and account events to Redis Streams, trimming each
// stream approximately to maxLen.
type Publisher struct {
	client *redis.Client
	maxLen int64
	now    func() time.Time
	logger *zap.Logger
}

func NewPublisher(client *redis.Client, maxLen int64, logger *zap.Logger) *Publisher {
	if maxLen <= 0 {
		maxLen = DefaultStreamMaxLen
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Publisher{
		client: client,
		maxLen: maxLen,
		now:    func() time.Time { return time.Now().UTC() },
		logger: logger,
	}
}

// Publish writes data under eventType to stream and returns once Redis has
// assigned the entry an id.
func (p *Publisher) Publish(ctx context.Context, stream, eventType string, data any) error {
	payload, err := encodeEvent(Event{Type: eventType, Timestamp: p.now(), Data: data})
	if err != nil {
		return err
	}

	id, err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: stream,
		MaxLen: p.maxLen,
		Approx: true,
		Values: map[string]any{"event": payload},
	}).Result()
	if err != nil {
		return fmt.Errorf("failed to publish %s to %s: %w", eventType, stream, err)
	}

	p.logger.Debug("event published",
		zap.String("stream", stream),
		zap.String("type", eventType),
		zap.String("entryId", id),
	)
	return nil
}

// encodeEvent renders the envelope read back by DecodeMessage.
func encodeEvent(event Event) (string, error) {
	raw, err := json.Marshal(event)
	if err != nil {
		return "", fmt.Errorf("failed to marshal %s event: %w", event.Type, err)
	}
	return string(raw), nil
}

// NopPublisher drops every event. It stands in when no Redis is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, string, string, any) error { return nil }
