package services

import (
	"context"
	"errors"
	"fmt"

	apperrors "github.com/Manish-456/eatsy-backend/common/errors"
	"github.com/Manish-456/eatsy-backend/common/logger"
	"github.com/Manish-456/eatsy-backend/events"
	"github.com/Manish-456/eatsy-backend/models"
	awspkg "github.com/Manish-456/eatsy-backend/pkg/aws"
	"github.com/Manish-456/eatsy-backend/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DeliveredPolicy decides what happens to an order once it is delivered.
type DeliveredPolicy string

const (
	// DeliveredDelete removes the order and its cart.
	DeliveredDelete DeliveredPolicy = "delete"
	// DeliveredRetain keeps the order with status delivered.
	DeliveredRetain DeliveredPolicy = "retain"
)

// ErrOrderStatusChanged is returned when the order moved while an update was
// being applied.
var ErrOrderStatusChanged = apperrors.Conflict("Order status changed, reload and try again")

// ownerTransitions lists what a restaurant owner may do from each state.
// paid is entered only through payment reconciliation and placed is never
// re-entered.
var ownerTransitions = map[models.OrderStatus][]models.OrderStatus{
	models.StatusPlaced:         {models.StatusCancelled},
	models.StatusPaid:           {models.StatusInProgress, models.StatusCancelled},
	models.StatusInProgress:     {models.StatusOutForDelivery, models.StatusCancelled},
	models.StatusOutForDelivery: {models.StatusDelivered},
}

// CanOwnerTransition reports whether the owner may move an order from one
// status to another.
func CanOwnerTransition(from, to models.OrderStatus) bool {
	for _, next := range ownerTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// OrderService manages order listings and fulfillment.
type OrderService interface {
	ListForUser(ctx context.Context, userID string) ([]models.OrderView, error)
	ListForOwner(ctx context.Context, ownerID string) ([]models.OrderView, error)
	UpdateStatus(ctx context.Context, ownerID, orderID, status string) (*models.Order, error)
}

type orderService struct {
	orders      repository.OrderRepository
	restaurants repository.RestaurantRepository
	users       repository.UserRepository
	policy      DeliveredPolicy
	notifier
}

func NewOrderService(
	orders repository.OrderRepository,
	restaurants repository.RestaurantRepository,
	users repository.UserRepository,
	policy DeliveredPolicy,
	publisher events.Publisher,
	metrics Metrics,
	logger *zap.Logger,
) OrderService {
	if policy != DeliveredRetain {
		policy = DeliveredDelete
	}
	return &orderService{
		orders:      orders,
		restaurants: restaurants,
		users:       users,
		policy:      policy,
		notifier:    notifier{publisher: publisher, metrics: metrics, logger: logger},
	}
}

func (s *orderService) ListForUser(ctx context.Context, userID string) ([]models.OrderView, error) {
	orders, err := s.orders.FindByUserID(ctx, userID)
	if err != nil {
		return nil, apperrors.Internal("Error fetching orders", err)
	}

	ids := uniqueIDs(orders, func(o models.Order) string { return o.RestaurantID })
	restaurants, err := s.restaurants.FindByIDs(ctx, ids)
	if err != nil {
		return nil, apperrors.Internal("Error fetching orders", err)
	}
	byID := make(map[string]*models.Restaurant, len(restaurants))
	for i := range restaurants {
		byID[restaurants[i].ID] = &restaurants[i]
	}

	views := make([]models.OrderView, len(orders))
	for i, o := range orders {
		views[i] = models.OrderView{Order: o, Restaurant: byID[o.RestaurantID]}
	}
	return views, nil
}

func (s *orderService) ListForOwner(ctx context.Context, ownerID string) ([]models.OrderView, error) {
	restaurant, err := s.restaurants.FindByUserID(ctx, ownerID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.ErrRestaurantNotFound
		}
		return nil, apperrors.Internal("Error fetching orders", err)
	}

	orders, err := s.orders.FindByRestaurantID(ctx, restaurant.ID)
	if err != nil {
		return nil, apperrors.Internal("Error fetching orders", err)
	}

	ids := uniqueIDs(orders, func(o models.Order) string { return o.UserID })
	users, err := s.users.FindByIDs(ctx, ids)
	if err != nil {
		return nil, apperrors.Internal("Error fetching orders", err)
	}
	byID := make(map[string]*models.User, len(users))
	for i := range users {
		byID[users[i].ID] = &users[i]
	}

	views := make([]models.OrderView, len(orders))
	for i, o := range orders {
		views[i] = models.OrderView{Order: o, Restaurant: restaurant, User: byID[o.UserID]}
	}
	return views, nil
}

// UpdateStatus applies one owner transition. The write only succeeds if the
// order is still in the status that was checked.
func (s *orderService) UpdateStatus(ctx context.Context, ownerID, orderID, status string) (*models.Order, error) {
	log := logger.For(ctx, s.logger)

	to, ok := models.ParseOrderStatus(status)
	if !ok {
		return nil, apperrors.Validation("Invalid order status", fmt.Sprintf("unknown status %q", status))
	}

	id, err := uuid.Parse(orderID)
	if err != nil {
		return nil, apperrors.ErrOrderNotFound
	}

	order, err := s.orders.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.ErrOrderNotFound
		}
		return nil, apperrors.Internal("Error updating order status", err)
	}

	restaurant, err := s.restaurants.FindByID(ctx, order.RestaurantID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.Internal("Error updating order status", err)
	}
	if restaurant == nil || restaurant.UserID != ownerID {
		log.Warn("order status update by non-owner", zap.String("order_id", orderID), zap.String("user_id", ownerID))
		return nil, apperrors.ErrNotOrderOwner
	}

	from := order.Status
	if !CanOwnerTransition(from, to) {
		return nil, apperrors.Validation("Invalid status transition", fmt.Sprintf("cannot move order from %s to %s", from, to))
	}

	var applied bool
	if to == models.StatusDelivered && s.policy == DeliveredDelete {
		applied, err = s.orders.DeleteIfStatus(ctx, id, from)
	} else {
		applied, err = s.orders.UpdateStatus(ctx, id, from, to)
	}
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.ErrOrderNotFound
		}
		return nil, apperrors.Internal("Error updating order status", err)
	}
	if !applied {
		return nil, ErrOrderStatusChanged
	}

	order.Status = to
	log.Info("Order status updated",
		zap.String("order_id", orderID),
		zap.String("from", string(from)),
		zap.String("to", string(to)))

	s.publish(ctx, models.OrderEvent{
		Type:         models.EventOrderStatusChanged,
		OrderID:      order.ID.String(),
		RestaurantID: order.RestaurantID,
		UserID:       order.UserID,
		Status:       to,
		Previous:     from,
		TotalAmount:  order.TotalAmount,
	})
	s.count(ctx, awspkg.MetricOrderStatusChanged, map[string]string{"Status": string(to)})
	if to == models.StatusDelivered {
		s.count(ctx, awspkg.MetricOrdersDelivered, nil)
	}
	return order, nil
}

func uniqueIDs(orders []models.Order, key func(models.Order) string) []string {
	seen := make(map[string]struct{}, len(orders))
	ids := make([]string, 0, len(orders))
	for _, o := range orders {
		k := key(o)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		ids = append(ids, k)
	}
	return ids
}
