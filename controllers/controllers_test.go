package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	apperrors "github.com/Manish-456/eatsy-backend/common/errors"
	"github.com/Manish-456/eatsy-backend/middleware"
	"github.com/Manish-456/eatsy-backend/models"
	"github.com/Manish-456/eatsy-backend/repository"
	"github.com/Manish-456/eatsy-backend/services"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// ---- fakes ----

type fakeUserService struct {
	created bool
	subject string
}

func (f *fakeUserService) Create(_ context.Context, subject string, req models.CreateUserRequest) (*models.User, bool, error) {
	f.subject = subject
	return &models.User{ID: "u1", Auth0ID: req.Auth0ID, Email: req.Email}, f.created, nil
}

func (f *fakeUserService) Get(_ context.Context, userID string) (*models.User, error) {
	if userID != "u1" {
		return nil, apperrors.ErrUserNotFound
	}
	return &models.User{ID: "u1"}, nil
}

func (f *fakeUserService) Update(_ context.Context, userID string, req models.UpdateUserRequest) (*models.User, error) {
	return &models.User{ID: userID, Name: req.Name, City: req.City}, nil
}

type fakeRestaurantService struct {
	params models.SearchParams
	empty  bool
}

func (f *fakeRestaurantService) Get(_ context.Context, id string) (*models.RestaurantWithMenu, error) {
	if id != "r1" {
		return nil, apperrors.ErrRestaurantNotFound
	}
	return &models.RestaurantWithMenu{Restaurant: &models.Restaurant{ID: "r1"}, MenuItems: []models.MenuItem{}}, nil
}

func (f *fakeRestaurantService) Search(_ context.Context, p models.SearchParams) (*models.SearchResult, error) {
	f.params = p
	if f.empty {
		return &models.SearchResult{Data: []models.Restaurant{}, Pagination: models.Pagination{Page: 1, Pages: 1}}, services.ErrNoRestaurantsInCity
	}
	return &models.SearchResult{Data: []models.Restaurant{{ID: "r1"}}, Pagination: models.Pagination{Total: 1, Page: p.Page, Pages: 1}}, nil
}

type fakeMyRestaurantService struct {
	input    models.RestaurantInput
	image    *models.ImageUpload
	removed  bool
	deleteID string
}

func (f *fakeMyRestaurantService) Get(context.Context, string) (*models.RestaurantWithMenu, error) {
	return nil, apperrors.ErrRestaurantNotFound
}

func (f *fakeMyRestaurantService) Create(_ context.Context, userID string, in models.RestaurantInput, image *models.ImageUpload) (*models.RestaurantWithMenu, error) {
	f.input, f.image = in, image
	return &models.RestaurantWithMenu{Restaurant: &models.Restaurant{ID: "r1", UserID: userID, Name: in.Name}}, nil
}

func (f *fakeMyRestaurantService) Update(_ context.Context, userID string, in models.RestaurantInput, image *models.ImageUpload) (*models.RestaurantWithMenu, error) {
	f.input, f.image = in, image
	return &models.RestaurantWithMenu{Restaurant: &models.Restaurant{ID: "r1", UserID: userID, Name: in.Name}}, nil
}

func (f *fakeMyRestaurantService) RemoveImage(context.Context, string) (bool, error) {
	return f.removed, nil
}

func (f *fakeMyRestaurantService) DeleteMenuItem(_ context.Context, _ string, id string) error {
	f.deleteID = id
	if id == "in-use" {
		return services.ErrMenuItemInUse
	}
	return nil
}

type fakeOrderService struct {
	orderID string
	status  string
}

func (f *fakeOrderService) ListForUser(context.Context, string) ([]models.OrderView, error) {
	return []models.OrderView{}, nil
}

func (f *fakeOrderService) ListForOwner(context.Context, string) ([]models.OrderView, error) {
	return []models.OrderView{}, nil
}

func (f *fakeOrderService) UpdateStatus(_ context.Context, _ string, orderID, status string) (*models.Order, error) {
	f.orderID, f.status = orderID, status
	return &models.Order{Status: models.OrderStatus(status)}, nil
}

type fakeCheckoutService struct {
	req models.CheckoutSessionRequest
}

func (f *fakeCheckoutService) CreateCheckoutSession(_ context.Context, _ string, req models.CheckoutSessionRequest) (string, error) {
	f.req = req
	return "https://checkout.stripe.test/c/pay/cs_1", nil
}

type fakePaymentService struct {
	payload   []byte
	signature string
	err       error
}

func (f *fakePaymentService) HandleWebhook(_ context.Context, payload []byte, signature string) error {
	f.payload, f.signature = payload, signature
	return f.err
}

// ---- helpers ----

func withUser(userID string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.Auth0IDKey, "auth0|abc")
		if userID != "" {
			c.Set(middleware.UserIDKey, userID)
		}
		c.Next()
	}
}

func do(r http.Handler, method, path, contentType string, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// ---- users ----

func TestCreateCurrentUser(t *testing.T) {
	svc := &fakeUserService{created: true}
	uc := NewUserController(svc)
	r := gin.New()
	r.POST("/api/user", withUser(""), uc.CreateCurrentUser)

	w := do(r, http.MethodPost, "/api/user", "application/json", []byte(`{"auth0Id":"auth0|abc","email":"ada@example.com"}`))
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "auth0|abc", svc.subject)

	svc.created = false
	w = do(r, http.MethodPost, "/api/user", "application/json", []byte(`{"auth0Id":"auth0|abc","email":"ada@example.com"}`))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Body.String())

	w = do(r, http.MethodPost, "/api/user", "application/json", []byte(`{"auth0Id":"auth0|abc","email":"not-an-email"}`))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "email must be a valid email")
}

func TestCreateCurrentUser_WithoutIdentity(t *testing.T) {
	r := gin.New()
	r.POST("/api/user", NewUserController(&fakeUserService{}).CreateCurrentUser)

	w := do(r, http.MethodPost, "/api/user", "application/json", []byte(`{}`))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestUpdateCurrentUser_Validation(t *testing.T) {
	r := gin.New()
	r.PUT("/api/user", withUser("u1"), NewUserController(&fakeUserService{}).UpdateCurrentUser)

	w := do(r, http.MethodPut, "/api/user", "application/json", []byte(`{"name":"Ada","city":"London","country":"UK"}`))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"message":"Invalid request","details":["addressLine1 is required"]}`, w.Body.String())

	w = do(r, http.MethodPut, "/api/user", "application/json", []byte(`{"name":"Ada","addressLine1":"1 Main St","city":"London","country":"UK"}`))
	assert.Equal(t, http.StatusOK, w.Code)
}

// ---- public restaurants ----

func TestSearchRestaurants(t *testing.T) {
	svc := &fakeRestaurantService{}
	r := gin.New()
	rc := NewRestaurantController(svc)
	r.GET("/api/restaurant/search/:city", rc.SearchRestaurants)

	w := do(r, http.MethodGet, "/api/restaurant/search/London?searchQuery=%20pasta%20&selectedCuisines=Italian,,Pizza&sortOption=deliveryPrice&page=2", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.SearchParams{
		City:             "London",
		SearchQuery:      "pasta",
		SelectedCuisines: []string{"Italian", "Pizza"},
		SortOption:       "deliveryPrice",
		Page:             2,
	}, svc.params)

	do(r, http.MethodGet, "/api/restaurant/search/London?page=abc", "", nil)
	assert.Equal(t, 1, svc.params.Page)
	assert.Equal(t, "lastUpdated", svc.params.SortOption)

	do(r, http.MethodGet, "/api/restaurant/search/London?page=9223372036854775807", "", nil)
	assert.Equal(t, repository.MaxSearchPage, svc.params.Page)
}

func TestSearchRestaurants_EmptyCity(t *testing.T) {
	r := gin.New()
	r.GET("/api/restaurant/search/:city", NewRestaurantController(&fakeRestaurantService{empty: true}).SearchRestaurants)

	w := do(r, http.MethodGet, "/api/restaurant/search/Boston", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"data":[],"pagination":{"total":0,"page":1,"pages":1}}`, w.Body.String())
}

func TestGetRestaurant(t *testing.T) {
	r := gin.New()
	r.GET("/api/restaurant/:restaurantId", NewRestaurantController(&fakeRestaurantService{}).GetRestaurant)

	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/api/restaurant/r1", "", nil).Code)
	assert.Equal(t, http.StatusNotFound, do(r, http.MethodGet, "/api/restaurant/nope", "", nil).Code)
}

// ---- owner restaurant ----

type formPart struct {
	name, value string
}

func multipartBody(t *testing.T, fields []formPart, image []byte, imageType string) ([]byte, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, f := range fields {
		require.NoError(t, mw.WriteField(f.name, f.value))
	}
	if image != nil {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="imageFile"; filename="front.png"`)
		h.Set("Content-Type", imageType)
		part, err := mw.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write(image)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return buf.Bytes(), mw.FormDataContentType()
}

func restaurantFields() []formPart {
	return []formPart{
		{"name", "Pasta Place"},
		{"city", "London"},
		{"country", "UK"},
		{"deliveryPrice", "500"},
		{"estimatedDeliveryTime", "30"},
		{"cuisines[1]", "Pizza"},
		{"cuisines[0]", "Italian"},
		{"menuItems[0][name]", "Margherita"},
		{"menuItems[0][price]", "250"},
		{"menuItems[1][_id]", "m2"},
		{"menuItems[1][name]", "Tiramisu"},
		{"menuItems[1][price]", "200"},
	}
}

func myRestaurantRouter(svc *fakeMyRestaurantService, orders *fakeOrderService) *gin.Engine {
	mc := NewMyRestaurantController(svc, orders)
	r := gin.New()
	g := r.Group("/api/my/restaurant", withUser("u1"))
	g.GET("", mc.GetMyRestaurant)
	g.POST("", mc.CreateMyRestaurant)
	g.PUT("", mc.UpdateMyRestaurant)
	g.DELETE("/remove-image", mc.RemoveRestaurantImage)
	g.DELETE("/menu-item/:menuItemId", mc.DeleteMenuItem)
	g.PATCH("/order/:orderId/status", mc.UpdateOrderStatus)
	return r
}

func TestCreateMyRestaurant_Multipart(t *testing.T) {
	svc := &fakeMyRestaurantService{}
	r := myRestaurantRouter(svc, &fakeOrderService{})

	body, ct := multipartBody(t, restaurantFields(), []byte("\x89PNG\r\n\x1a\nrest"), "image/png")
	w := do(r, http.MethodPost, "/api/my/restaurant", ct, body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	assert.Equal(t, "Pasta Place", svc.input.Name)
	assert.Equal(t, int64(500), *svc.input.DeliveryPrice)
	assert.Equal(t, 30, *svc.input.EstimatedDeliveryTime)
	assert.Equal(t, []string{"Italian", "Pizza"}, svc.input.Cuisines)
	require.Len(t, svc.input.MenuItems, 2)
	assert.Equal(t, "Margherita", svc.input.MenuItems[0].Name)
	assert.Equal(t, "m2", svc.input.MenuItems[1].ID)
	assert.Equal(t, int64(200), *svc.input.MenuItems[1].Price)
	require.NotNil(t, svc.image)
	assert.Equal(t, "image/png", svc.image.ContentType)
}

func TestCreateMyRestaurant_MultipartJSONMenu(t *testing.T) {
	svc := &fakeMyRestaurantService{}
	r := myRestaurantRouter(svc, &fakeOrderService{})

	body, ct := multipartBody(t, []formPart{
		{"name", "Pasta Place"},
		{"city", "London"},
		{"country", "UK"},
		{"deliveryPrice", "0"},
		{"estimatedDeliveryTime", "15"},
		{"cuisines", "Italian"},
		{"cuisines", "Pizza"},
		{"menuItems", `[{"name":"Margherita","price":250}]`},
	}, nil, "")
	w := do(r, http.MethodPost, "/api/my/restaurant", ct, body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, []string{"Italian", "Pizza"}, svc.input.Cuisines)
	assert.Equal(t, int64(0), *svc.input.DeliveryPrice)
	assert.Len(t, svc.input.MenuItems, 1)
	assert.Nil(t, svc.image)
}

func TestCreateMyRestaurant_JSON(t *testing.T) {
	svc := &fakeMyRestaurantService{}
	r := myRestaurantRouter(svc, &fakeOrderService{})

	w := do(r, http.MethodPost, "/api/my/restaurant", "application/json", []byte(`{
		"name":"Pasta Place","city":"London","country":"UK",
		"deliveryPrice":500,"estimatedDeliveryTime":30,"cuisines":["Italian"],
		"menuItems":[{"name":"Margherita","price":250}]}`))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Len(t, svc.input.MenuItems, 1)
}

func TestCreateMyRestaurant_Validation(t *testing.T) {
	r := myRestaurantRouter(&fakeMyRestaurantService{}, &fakeOrderService{})

	tests := map[string]struct {
		fields []formPart
		detail string
	}{
		"missing cuisines": {
			fields: []formPart{{"name", "P"}, {"city", "L"}, {"country", "UK"}, {"deliveryPrice", "1"}, {"estimatedDeliveryTime", "1"}},
			detail: "cuisines is required",
		},
		"negative price": {
			fields: []formPart{{"name", "P"}, {"city", "L"}, {"country", "UK"}, {"deliveryPrice", "-1"}, {"estimatedDeliveryTime", "1"}, {"cuisines", "Thai"}},
			detail: "deliveryPrice must be greater than or equal to 0",
		},
		"non numeric time": {
			fields: []formPart{{"name", "P"}, {"city", "L"}, {"country", "UK"}, {"deliveryPrice", "1"}, {"estimatedDeliveryTime", "soon"}, {"cuisines", "Thai"}},
			detail: "estimatedDeliveryTime must be an integer",
		},
		"menu item without name": {
			fields: []formPart{{"name", "P"}, {"city", "L"}, {"country", "UK"}, {"deliveryPrice", "1"}, {"estimatedDeliveryTime", "1"}, {"cuisines", "Thai"}, {"menuItems[0][price]", "5"}},
			detail: "menuItems[0].name is required",
		},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			body, ct := multipartBody(t, tt.fields, nil, "")
			w := do(r, http.MethodPost, "/api/my/restaurant", ct, body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, w.Body.String(), tt.detail)
		})
	}
}

func TestCreateMyRestaurant_ImageTooLarge(t *testing.T) {
	svc := &fakeMyRestaurantService{}
	r := myRestaurantRouter(svc, &fakeOrderService{})

	big := bytes.Repeat([]byte{0xff}, services.MaxImageSize+1)
	body, ct := multipartBody(t, restaurantFields(), big, "image/jpeg")
	w := do(r, http.MethodPost, "/api/my/restaurant", ct, body)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Nil(t, svc.image)
}

func TestRemoveRestaurantImage(t *testing.T) {
	svc := &fakeMyRestaurantService{}
	r := myRestaurantRouter(svc, &fakeOrderService{})

	assert.Equal(t, http.StatusNoContent, do(r, http.MethodDelete, "/api/my/restaurant/remove-image", "", nil).Code)

	svc.removed = true
	w := do(r, http.MethodDelete, "/api/my/restaurant/remove-image", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "message")
}

func TestDeleteMenuItem(t *testing.T) {
	svc := &fakeMyRestaurantService{}
	r := myRestaurantRouter(svc, &fakeOrderService{})

	assert.Equal(t, http.StatusOK, do(r, http.MethodDelete, "/api/my/restaurant/menu-item/m1", "", nil).Code)
	assert.Equal(t, "m1", svc.deleteID)
	assert.Equal(t, http.StatusConflict, do(r, http.MethodDelete, "/api/my/restaurant/menu-item/in-use", "", nil).Code)
}

func TestGetMyRestaurant_NotFound(t *testing.T) {
	r := myRestaurantRouter(&fakeMyRestaurantService{}, &fakeOrderService{})
	w := do(r, http.MethodGet, "/api/my/restaurant", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"message":"Restaurant not found"}`, w.Body.String())
}

func TestUpdateOrderStatus(t *testing.T) {
	orders := &fakeOrderService{}
	r := myRestaurantRouter(&fakeMyRestaurantService{}, orders)

	w := do(r, http.MethodPatch, "/api/my/restaurant/order/o-1/status", "application/json", []byte(`{"status":"in_progress"}`))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "o-1", orders.orderID)
	assert.Equal(t, "in_progress", orders.status)

	w = do(r, http.MethodPatch, "/api/my/restaurant/order/o-1/status", "application/json", []byte(`{}`))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// ---- orders ----

func orderRouter(checkout *fakeCheckoutService, payments *fakePaymentService) *gin.Engine {
	oc := NewOrderController(&fakeOrderService{}, checkout, payments)
	r := gin.New()
	r.GET("/api/order", withUser("u1"), oc.GetMyOrders)
	r.POST("/api/order/checkout-session", withUser("u1"), oc.CreateCheckoutSession)
	r.POST("/api/order/checkout/webhook", oc.StripeWebhook)
	return r
}

func TestCreateCheckoutSession(t *testing.T) {
	checkout := &fakeCheckoutService{}
	r := orderRouter(checkout, &fakePaymentService{})

	body := []byte(`{
		"restaurantId":"r1",
		"cartItems":[{"menuItemId":"m1","name":"Margherita","quantity":"2"}],
		"deliveryDetails":{"email":"ada@example.com","name":"Ada","addressLine1":"1 Main St","city":"London","country":"UK"}}`)
	w := do(r, http.MethodPost, "/api/order/checkout-session", "application/json", body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.JSONEq(t, `{"url":"https://checkout.stripe.test/c/pay/cs_1"}`, w.Body.String())
	assert.Equal(t, models.Quantity(2), checkout.req.CartItems[0].Quantity)
}

func TestCreateCheckoutSession_Validation(t *testing.T) {
	r := orderRouter(&fakeCheckoutService{}, &fakePaymentService{})

	for name, body := range map[string]string{
		"zero quantity": `{"restaurantId":"r1","cartItems":[{"menuItemId":"m1","quantity":0}],"deliveryDetails":{"email":"a@b.co","name":"A","addressLine1":"x","city":"y","country":"z"}}`,
		"empty cart":    `{"restaurantId":"r1","cartItems":[],"deliveryDetails":{"email":"a@b.co","name":"A","addressLine1":"x","city":"y","country":"z"}}`,
		"bad email":     `{"restaurantId":"r1","cartItems":[{"menuItemId":"m1","quantity":1}],"deliveryDetails":{"email":"nope","name":"A","addressLine1":"x","city":"y","country":"z"}}`,
		"word quantity": `{"restaurantId":"r1","cartItems":[{"menuItemId":"m1","quantity":"two"}],"deliveryDetails":{"email":"a@b.co","name":"A","addressLine1":"x","city":"y","country":"z"}}`,
	} {
		t.Run(name, func(t *testing.T) {
			w := do(r, http.MethodPost, "/api/order/checkout-session", "application/json", []byte(body))
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestStripeWebhook_PassesRawBody(t *testing.T) {
	payments := &fakePaymentService{}
	r := orderRouter(&fakeCheckoutService{}, payments)

	raw := []byte("{\"id\": \"evt_1\",\n  \"type\": \"checkout.session.completed\"}")
	req := httptest.NewRequest(http.MethodPost, "/api/order/checkout/webhook", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Stripe-Signature", "t=1,v1=abc")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"received":true}`, w.Body.String())
	assert.Equal(t, raw, payments.payload)
	assert.Equal(t, "t=1,v1=abc", payments.signature)
}

func TestStripeWebhook_Rejected(t *testing.T) {
	payments := &fakePaymentService{err: apperrors.InvalidSignature(assert.AnError)}
	r := orderRouter(&fakeCheckoutService{}, payments)

	w := do(r, http.MethodPost, "/api/order/checkout/webhook", "application/json", []byte(`{}`))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "Invalid webhook signature", body["message"])
	assert.False(t, strings.Contains(w.Body.String(), assert.AnError.Error()))
}

func TestFieldPath(t *testing.T) {
	assert.Equal(t, "menuItems[0].name", fieldPath("RestaurantInput.MenuItems[0].Name"))
	assert.Equal(t, "deliveryDetails.addressLine1", fieldPath("CheckoutSessionRequest.DeliveryDetails.AddressLine1"))
}
