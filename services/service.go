package services

import (
	"context"
	"time"

	"github.com/Manish-456/eatsy-backend/common/logger"
	"github.com/Manish-456/eatsy-backend/events"
	"github.com/Manish-456/eatsy-backend/models"
	"go.uber.org/zap"
)

// Metrics records business counters. *aws.MetricsClient satisfies it.
type Metrics interface {
	RecordCount(ctx context.Context, metricName string, dimensions map[string]string) error
}

// notifier carries the best-effort side effects shared by the order flows.
type notifier struct {
	publisher events.Publisher
	metrics   Metrics
	logger    *zap.Logger
}

func (n notifier) count(ctx context.Context, name string, dims map[string]string) {
	if n.metrics == nil {
		return
	}
	if err := n.metrics.RecordCount(ctx, name, dims); err != nil {
		logger.For(ctx, n.logger).Warn("failed to record metric", zap.String("metric", name), zap.Error(err))
	}
}

// publish never fails the caller; a lost event is logged.
func (n notifier) publish(ctx context.Context, event models.OrderEvent) {
	if n.publisher == nil {
		return
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := n.publisher.Publish(ctx, event); err != nil {
		logger.For(ctx, n.logger).Warn("failed to publish order event",
			zap.String("type", event.Type),
			zap.String("order_id", event.OrderID),
			zap.Error(err))
	}
}
