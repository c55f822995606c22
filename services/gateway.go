package services

import (
	"context"
	"errors"
)

// EventCheckoutCompleted is the only gateway event that changes an order.
const EventCheckoutCompleted = "checkout.session.completed"

// ErrWebhookSignature marks a callback whose signature did not verify.
var ErrWebhookSignature = errors.New("webhook signature verification failed")

// PaymentGateway is the hosted checkout provider.
type PaymentGateway interface {
	CreateCheckoutSession(ctx context.Context, input CheckoutSessionInput) (*CheckoutSession, error)
	ExpireCheckoutSession(ctx context.Context, sessionID string) error
	// ParseWebhook verifies sig against the raw payload before decoding it.
	ParseWebhook(payload []byte, sig string) (*WebhookEvent, error)
}

// CheckoutLine is one priced cart line.
type CheckoutLine struct {
	Name       string
	UnitAmount int64
	Quantity   int64
}

type CheckoutSessionInput struct {
	OrderID       string
	RestaurantID  string
	Currency      string
	Lines         []CheckoutLine
	DeliveryPrice int64
	CustomerEmail string
	SuccessURL    string
	CancelURL     string
}

// Total is the amount the customer will be charged.
func (in CheckoutSessionInput) Total() int64 {
	total := in.DeliveryPrice
	for _, l := range in.Lines {
		total += l.UnitAmount * l.Quantity
	}
	return total
}

type CheckoutSession struct {
	ID  string
	URL string
}

// WebhookEvent is a verified gateway callback. Checkout is set only for
// completed checkouts.
type WebhookEvent struct {
	ID       string
	Type     string
	Checkout *CompletedCheckout
}

type CompletedCheckout struct {
	SessionID    string
	OrderID      string
	RestaurantID string
	AmountTotal  int64
}
