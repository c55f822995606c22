package repository

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const webhookLedgerPrefix = "eatsy:webhook:event:"

// WebhookLedger remembers processed gateway event ids so replays can be
// acknowledged without touching the order store.
type WebhookLedger interface {
	Seen(ctx context.Context, eventID string) (bool, error)
	Mark(ctx context.Context, eventID string) error
}

type RedisWebhookLedger struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisWebhookLedger(client *redis.Client, ttl time.Duration) *RedisWebhookLedger {
	if ttl <= 0 {
		ttl = 72 * time.Hour
	}
	return &RedisWebhookLedger{client: client, ttl: ttl}
}

func (l *RedisWebhookLedger) Seen(ctx context.Context, eventID string) (bool, error) {
	n, err := l.client.Exists(ctx, webhookLedgerPrefix+eventID).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (l *RedisWebhookLedger) Mark(ctx context.Context, eventID string) error {
	return l.client.Set(ctx, webhookLedgerPrefix+eventID, time.Now().UTC().Format(time.RFC3339), l.ttl).Err()
}
