package services

import (
	"context"
	"errors"
	"net/http"
	"testing"

	apperrors "github.com/Manish-456/eatsy-backend/common/errors"
	"github.com/Manish-456/eatsy-backend/models"
	awspkg "github.com/Manish-456/eatsy-backend/pkg/aws"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type checkoutFixture struct {
	svc       CheckoutService
	orders    *fakeOrderRepo
	gateway   *fakeGateway
	publisher *fakePublisher
	metrics   *fakeMetrics
}

func newCheckoutFixture() *checkoutFixture {
	restaurants := newFakeRestaurantRepo(models.Restaurant{ID: "r1", UserID: "owner", Name: "Pasta Place", DeliveryPrice: 500})
	menu := newFakeMenuRepo(
		models.MenuItem{ID: "m1", RestaurantID: "r1", Name: "Margherita", Price: 250},
		models.MenuItem{ID: "m2", RestaurantID: "r1", Name: "Tiramisu", Price: 200},
		models.MenuItem{ID: "other", RestaurantID: "r2", Name: "Sushi", Price: 900},
	)
	f := &checkoutFixture{
		orders:    newFakeOrderRepo(),
		gateway:   &fakeGateway{sessionURL: "https://checkout.stripe.test/c/pay/cs_test_1"},
		publisher: &fakePublisher{},
		metrics:   &fakeMetrics{},
	}
	f.svc = NewCheckoutService(restaurants, menu, f.orders, f.gateway,
		CheckoutConfig{FrontendURL: "http://localhost:5173/"}, f.publisher, f.metrics, zap.NewNop())
	return f
}

func checkoutRequest(items ...models.CheckoutCartItem) models.CheckoutSessionRequest {
	return models.CheckoutSessionRequest{
		RestaurantID: "r1",
		CartItems:    items,
		DeliveryDetails: models.DeliveryDetails{
			Name: "Ada", Email: "ada@example.com", AddressLine1: "1 Main St", City: "London", Country: "UK",
		},
	}
}

func TestCheckout_PricesFromStoredMenu(t *testing.T) {
	f := newCheckoutFixture()

	url, err := f.svc.CreateCheckoutSession(context.Background(), "u1", checkoutRequest(
		models.CheckoutCartItem{MenuItemID: "m1", Name: "renamed by client", Quantity: 2},
		models.CheckoutCartItem{MenuItemID: "m2", Quantity: 1},
	))
	require.NoError(t, err)
	assert.Equal(t, "https://checkout.stripe.test/c/pay/cs_test_1", url)

	require.Len(t, f.gateway.inputs, 1)
	in := f.gateway.inputs[0]
	assert.Equal(t, "usd", in.Currency)
	assert.Equal(t, int64(500), in.DeliveryPrice)
	assert.Equal(t, int64(1200), in.Total())
	assert.Equal(t, "Margherita", in.Lines[0].Name)
	assert.Equal(t, "ada@example.com", in.CustomerEmail)
	assert.Equal(t, "http://localhost:5173/order-status?success=true", in.SuccessURL)
	assert.Equal(t, "http://localhost:5173/detail/r1?canceled=true", in.CancelURL)

	require.Len(t, f.orders.orders, 1)
	for id, o := range f.orders.orders {
		assert.Equal(t, in.OrderID, id.String())
		assert.Equal(t, models.StatusPlaced, o.Status)
		assert.Nil(t, o.TotalAmount)
		assert.Equal(t, "cs_test_1", o.CheckoutSessionID)
		assert.Equal(t, "u1", o.UserID)
		require.Len(t, o.CartItems, 2)
		assert.Equal(t, int64(250), o.CartItems[0].UnitPrice)
		assert.Equal(t, int64(2), o.CartItems[0].Quantity)
	}

	require.Len(t, f.publisher.events, 1)
	assert.Equal(t, models.EventCheckoutCreated, f.publisher.events[0].Type)
	require.NotNil(t, f.publisher.events[0].TotalAmount)
	assert.Equal(t, int64(1200), *f.publisher.events[0].TotalAmount)
	assert.Equal(t, 1, f.metrics.counts[awspkg.MetricCheckoutSessions])
}

func TestCheckout_ForeignMenuItemRejectedBeforeGateway(t *testing.T) {
	f := newCheckoutFixture()

	_, err := f.svc.CreateCheckoutSession(context.Background(), "u1", checkoutRequest(
		models.CheckoutCartItem{MenuItemID: "m1", Quantity: 1},
		models.CheckoutCartItem{MenuItemID: "other", Quantity: 1},
	))
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, apperrors.StatusCode(err))
	assert.Empty(t, f.gateway.inputs)
	assert.Empty(t, f.orders.orders)
}

func TestCheckout_UnknownRestaurant(t *testing.T) {
	f := newCheckoutFixture()
	req := checkoutRequest(models.CheckoutCartItem{MenuItemID: "m1", Quantity: 1})
	req.RestaurantID = "missing"

	_, err := f.svc.CreateCheckoutSession(context.Background(), "u1", req)
	assert.ErrorIs(t, err, apperrors.ErrRestaurantNotFound)
	assert.Empty(t, f.gateway.inputs)
}

func TestCheckout_GatewayFailureStoresNothing(t *testing.T) {
	f := newCheckoutFixture()
	f.gateway.createErr = errors.New("card network down")

	_, err := f.svc.CreateCheckoutSession(context.Background(), "u1", checkoutRequest(
		models.CheckoutCartItem{MenuItemID: "m1", Quantity: 1},
	))
	require.Error(t, err)
	assert.Equal(t, http.StatusInternalServerError, apperrors.StatusCode(err))
	assert.Empty(t, f.orders.orders)
	assert.Equal(t, 1, f.metrics.counts[awspkg.MetricCheckoutFailed])
}

func TestCheckout_SessionWithoutURLIsExpired(t *testing.T) {
	f := newCheckoutFixture()
	f.gateway.sessionURL = ""

	_, err := f.svc.CreateCheckoutSession(context.Background(), "u1", checkoutRequest(
		models.CheckoutCartItem{MenuItemID: "m1", Quantity: 1},
	))
	require.Error(t, err)
	assert.Equal(t, []string{"cs_test_1"}, f.gateway.expired)
	assert.Empty(t, f.orders.orders)
}

func TestCheckout_PersistFailureExpiresSession(t *testing.T) {
	f := newCheckoutFixture()
	f.orders.createErr = errors.New("connection reset")

	_, err := f.svc.CreateCheckoutSession(context.Background(), "u1", checkoutRequest(
		models.CheckoutCartItem{MenuItemID: "m1", Quantity: 1},
	))
	require.Error(t, err)
	assert.Equal(t, http.StatusInternalServerError, apperrors.StatusCode(err))
	assert.Equal(t, []string{"cs_test_1"}, f.gateway.expired)
	assert.Empty(t, f.publisher.events)
}

func TestPriceCart_RejectsNonPositiveQuantity(t *testing.T) {
	menu := []models.MenuItem{{ID: "m1", Name: "Margherita", Price: 250}}

	_, _, err := priceCart([]models.CheckoutCartItem{{MenuItemID: "m1", Quantity: 0}}, menu)
	assert.Equal(t, http.StatusBadRequest, apperrors.StatusCode(err))

	lines, cart, err := priceCart([]models.CheckoutCartItem{{MenuItemID: "m1", Quantity: 3}}, menu)
	require.NoError(t, err)
	assert.Equal(t, []CheckoutLine{{Name: "Margherita", UnitAmount: 250, Quantity: 3}}, lines)
	assert.Equal(t, int64(750), cart[0].UnitPrice*cart[0].Quantity)
}
