// Package events publishes search lifecycle events for downstream consumers.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rotisserie/eris"

	"github.com/sells-group/leadgen-cli/internal/model"
)

// Event types.
const (
	TypeLeadAccepted = "lead.accepted"
	TypeJobFinished  = "job.finished"
)

// Event is one published message.
type Event struct {
	Type      string             `json:"type"`
	JobID     string             `json:"job_id"`
	ProductID string             `json:"product_id"`
	Status    string             `json:"status,omitempty"`
	Lead      *model.LeadSummary `json:"lead,omitempty"`
	Stats     *model.Stats       `json:"stats,omitempty"`
	At        time.Time          `json:"at"`
}

// Publisher delivers events. Callers treat failures as non-fatal.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// NopPublisher discards every event.
type NopPublisher struct{}

// Publish implements Publisher.
func (NopPublisher) Publish(context.Context, Event) error { return nil }

// redisPublisher is the part of *redis.Client used here.
type redisPublisher interface {
	Publish(ctx context.Context, channel string, message any) *redis.IntCmd
}

// RedisPublisher publishes events as JSON on a Redis pub/sub channel.
type RedisPublisher struct {
	rdb     redisPublisher
	channel string
}

// NewRedisPublisher creates a publisher on channel.
func NewRedisPublisher(rdb redisPublisher, channel string) *RedisPublisher {
	return &RedisPublisher{rdb: rdb, channel: channel}
}

// Publish implements Publisher.
func (p *RedisPublisher) Publish(ctx context.Context, e Event) error {
	if e.At.IsZero() {
		e.At = time.Now().UTC()
	}
	payload, err := json.Marshal(e)
	if err != nil {
		return eris.Wrap(err, "events: marshal")
	}
	if err := p.rdb.Publish(ctx, p.channel, payload).Err(); err != nil {
		return eris.Wrapf(err, "events: publish %s", e.Type)
	}
	return nil
}

// NewRedisClient parses redisURL and verifies connectivity.
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, eris.Wrapf(err, "events: parse redis url")
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, eris.Wrap(err, "events: redis ping")
	}
	return client, nil
}
