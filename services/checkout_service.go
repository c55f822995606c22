package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	apperrors "github.com/Manish-456/eatsy-backend/common/errors"
	"github.com/Manish-456/eatsy-backend/common/logger"
	"github.com/Manish-456/eatsy-backend/events"
	"github.com/Manish-456/eatsy-backend/models"
	awspkg "github.com/Manish-456/eatsy-backend/pkg/aws"
	"github.com/Manish-456/eatsy-backend/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CheckoutService turns a cart into a hosted checkout session and a placed
// order.
type CheckoutService interface {
	CreateCheckoutSession(ctx context.Context, userID string, req models.CheckoutSessionRequest) (string, error)
}

type CheckoutConfig struct {
	Currency    string
	FrontendURL string
}

type checkoutService struct {
	restaurants repository.RestaurantRepository
	menuItems   repository.MenuItemRepository
	orders      repository.OrderRepository
	gateway     PaymentGateway
	cfg         CheckoutConfig
	notifier
}

func NewCheckoutService(
	restaurants repository.RestaurantRepository,
	menuItems repository.MenuItemRepository,
	orders repository.OrderRepository,
	gateway PaymentGateway,
	cfg CheckoutConfig,
	publisher events.Publisher,
	metrics Metrics,
	logger *zap.Logger,
) CheckoutService {
	if cfg.Currency == "" {
		cfg.Currency = "usd"
	}
	cfg.FrontendURL = strings.TrimRight(cfg.FrontendURL, "/")
	return &checkoutService{
		restaurants: restaurants,
		menuItems:   menuItems,
		orders:      orders,
		gateway:     gateway,
		cfg:         cfg,
		notifier:    notifier{publisher: publisher, metrics: metrics, logger: logger},
	}
}

// CreateCheckoutSession prices the cart from stored menu prices, opens a
// session at the gateway and only then persists the order. If the order
// cannot be stored the session is expired so it can never be paid.
func (s *checkoutService) CreateCheckoutSession(ctx context.Context, userID string, req models.CheckoutSessionRequest) (string, error) {
	log := logger.For(ctx, s.logger)

	restaurant, err := s.restaurants.FindByID(ctx, req.RestaurantID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", apperrors.ErrRestaurantNotFound
		}
		return "", apperrors.Internal("Error creating checkout session", err)
	}

	menu, err := s.menuItems.FindByRestaurantID(ctx, restaurant.ID)
	if err != nil {
		return "", apperrors.Internal("Error creating checkout session", err)
	}

	lines, cart, err := priceCart(req.CartItems, menu)
	if err != nil {
		return "", err
	}

	orderID := uuid.New()
	input := CheckoutSessionInput{
		OrderID:       orderID.String(),
		RestaurantID:  restaurant.ID,
		Currency:      s.cfg.Currency,
		Lines:         lines,
		DeliveryPrice: restaurant.DeliveryPrice,
		CustomerEmail: req.DeliveryDetails.Email,
		SuccessURL:    s.cfg.FrontendURL + "/order-status?success=true",
		CancelURL:     fmt.Sprintf("%s/detail/%s?canceled=true", s.cfg.FrontendURL, restaurant.ID),
	}
	quoted := input.Total()

	session, err := s.gateway.CreateCheckoutSession(ctx, input)
	if err != nil {
		s.count(ctx, awspkg.MetricCheckoutFailed, nil)
		return "", apperrors.Gateway("Error creating checkout session", err)
	}
	if session.URL == "" {
		s.expire(ctx, session.ID)
		s.count(ctx, awspkg.MetricCheckoutFailed, nil)
		return "", apperrors.Gateway("Error creating checkout session", errors.New("gateway returned a session without url"))
	}

	order := &models.Order{
		ID:                orderID,
		RestaurantID:      restaurant.ID,
		UserID:            userID,
		Status:            models.StatusPlaced,
		CheckoutSessionID: session.ID,
		DeliveryDetails:   req.DeliveryDetails,
		CartItems:         cart,
	}
	if err := s.orders.Create(ctx, order); err != nil {
		s.expire(ctx, session.ID)
		return "", apperrors.Internal("Error creating checkout session", err)
	}

	log.Info("Checkout session created",
		zap.String("order_id", orderID.String()),
		zap.String("restaurant_id", restaurant.ID),
		zap.String("session_id", session.ID),
		zap.Int64("quoted_total", quoted))

	s.publish(ctx, models.OrderEvent{
		Type:         models.EventCheckoutCreated,
		OrderID:      orderID.String(),
		RestaurantID: restaurant.ID,
		UserID:       userID,
		Status:       models.StatusPlaced,
		TotalAmount:  &quoted,
	})
	s.count(ctx, awspkg.MetricCheckoutSessions, nil)
	return session.URL, nil
}

func (s *checkoutService) expire(ctx context.Context, sessionID string) {
	if sessionID == "" {
		return
	}
	if err := s.gateway.ExpireCheckoutSession(ctx, sessionID); err != nil {
		logger.For(ctx, s.logger).Error("failed to expire orphaned checkout session",
			zap.String("session_id", sessionID), zap.Error(err))
	}
}

// priceCart resolves every cart line against the restaurant's menu. A line
// naming an item the restaurant does not sell rejects the whole cart.
func priceCart(cartItems []models.CheckoutCartItem, menu []models.MenuItem) ([]CheckoutLine, []models.CartItem, error) {
	byID := make(map[string]models.MenuItem, len(menu))
	for _, m := range menu {
		byID[m.ID] = m
	}

	lines := make([]CheckoutLine, 0, len(cartItems))
	cart := make([]models.CartItem, 0, len(cartItems))
	for _, ci := range cartItems {
		item, ok := byID[ci.MenuItemID]
		if !ok {
			return nil, nil, apperrors.Validation("Menu item not found", fmt.Sprintf("menu item %s does not belong to this restaurant", ci.MenuItemID))
		}
		if ci.Quantity <= 0 {
			return nil, nil, apperrors.Validation("Invalid quantity", fmt.Sprintf("quantity for %s must be greater than zero", ci.MenuItemID))
		}
		qty := int64(ci.Quantity)
		lines = append(lines, CheckoutLine{Name: item.Name, UnitAmount: item.Price, Quantity: qty})
		cart = append(cart, models.CartItem{
			MenuItemID: item.ID,
			Name:       item.Name,
			Quantity:   qty,
			UnitPrice:  item.Price,
		})
	}
	return lines, cart, nil
}
