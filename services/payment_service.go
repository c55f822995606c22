package services

import (
	"context"
	"errors"
	"net/http"

	apperrors "github.com/Manish-456/eatsy-backend/common/errors"
	"github.com/Manish-456/eatsy-backend/common/logger"
	"github.com/Manish-456/eatsy-backend/events"
	"github.com/Manish-456/eatsy-backend/models"
	awspkg "github.com/Manish-456/eatsy-backend/pkg/aws"
	"github.com/Manish-456/eatsy-backend/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PaymentService reconciles gateway callbacks into orders.
type PaymentService interface {
	HandleWebhook(ctx context.Context, payload []byte, signature string) error
}

type paymentService struct {
	orders  repository.OrderRepository
	gateway PaymentGateway
	ledger  repository.WebhookLedger
	notifier
}

// NewPaymentService builds the reconciler. ledger may be nil.
func NewPaymentService(
	orders repository.OrderRepository,
	gateway PaymentGateway,
	ledger repository.WebhookLedger,
	publisher events.Publisher,
	metrics Metrics,
	logger *zap.Logger,
) PaymentService {
	return &paymentService{
		orders:   orders,
		gateway:  gateway,
		ledger:   ledger,
		notifier: notifier{publisher: publisher, metrics: metrics, logger: logger},
	}
}

// HandleWebhook verifies the callback on its raw bytes and, for a completed
// checkout, marks the correlated order paid. Replays leave the order as is.
func (s *paymentService) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	log := logger.For(ctx, s.logger)

	event, err := s.gateway.ParseWebhook(payload, signature)
	if err != nil {
		s.count(ctx, awspkg.MetricWebhookRejected, nil)
		if errors.Is(err, ErrWebhookSignature) {
			log.Warn("webhook signature verification failed", zap.Error(err))
			return apperrors.InvalidSignature(err)
		}
		log.Warn("webhook payload rejected", zap.Error(err))
		return apperrors.New(http.StatusBadRequest, "Invalid webhook payload", err)
	}

	if event.Type != EventCheckoutCompleted {
		log.Debug("ignoring webhook event", zap.String("event_type", event.Type), zap.String("event_id", event.ID))
		return nil
	}

	if s.ledger != nil && event.ID != "" {
		seen, err := s.ledger.Seen(ctx, event.ID)
		if err != nil {
			log.Warn("webhook ledger unavailable", zap.Error(err))
		} else if seen {
			log.Info("webhook event already processed", zap.String("event_id", event.ID))
			return nil
		}
	}

	if event.Checkout == nil || event.Checkout.OrderID == "" {
		log.Warn("completed checkout without order id", zap.String("event_id", event.ID))
		return apperrors.ErrOrderNotFound
	}
	orderID, err := uuid.Parse(event.Checkout.OrderID)
	if err != nil {
		return apperrors.ErrOrderNotFound
	}

	order, applied, err := s.orders.MarkPaid(ctx, orderID, event.Checkout.AmountTotal)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.ErrOrderNotFound
		}
		return apperrors.Internal("Error processing webhook", err)
	}

	if applied {
		log.Info("Order paid",
			zap.String("order_id", order.ID.String()),
			zap.Int64("total_amount", event.Checkout.AmountTotal),
			zap.String("event_id", event.ID))
		s.publish(ctx, models.OrderEvent{
			Type:         models.EventOrderPaid,
			OrderID:      order.ID.String(),
			RestaurantID: order.RestaurantID,
			UserID:       order.UserID,
			Status:       models.StatusPaid,
			Previous:     models.StatusPlaced,
			TotalAmount:  order.TotalAmount,
		})
		s.count(ctx, awspkg.MetricPaymentSucceeded, nil)
	} else {
		log.Info("checkout completion already applied",
			zap.String("order_id", order.ID.String()),
			zap.String("status", string(order.Status)))
	}

	if s.ledger != nil && event.ID != "" {
		if err := s.ledger.Mark(ctx, event.ID); err != nil {
			log.Warn("failed to record webhook event", zap.String("event_id", event.ID), zap.Error(err))
		}
	}
	return nil
}
