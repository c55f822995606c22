package routes

import (
	"net/http"

	"github.com/Manish-456/eatsy-backend/controllers"
	"github.com/gin-gonic/gin"
)

// Access is the authentication a route requires.
type Access int

const (
	// Public routes need no credential.
	Public Access = iota
	// Identity routes need a verified token but no stored user.
	Identity
	// User routes need a verified token that maps to a stored user.
	User
)

func (a Access) String() string {
	switch a {
	case Public:
		return "public"
	case Identity:
		return "identity"
	case User:
		return "user"
	}
	return "unknown"
}

// Route is one entry of the routing table.
type Route struct {
	Method  string
	Path    string
	Access  Access
	Handler gin.HandlerFunc
}

// Guard provides the identity middleware. *middleware.Authenticator
// implements it.
type Guard interface {
	JWTCheck() gin.HandlerFunc
	JWTParse() gin.HandlerFunc
}

type Controllers struct {
	Users        *controllers.UserController
	Restaurants  *controllers.RestaurantController
	MyRestaurant *controllers.MyRestaurantController
	Orders       *controllers.OrderController
}

// Table lists every API route with its access level.
func Table(h Controllers) []Route {
	return []Route{
		{http.MethodPost, "/api/user", Identity, h.Users.CreateCurrentUser},
		{http.MethodGet, "/api/user", User, h.Users.GetCurrentUser},
		{http.MethodPut, "/api/user", User, h.Users.UpdateCurrentUser},

		{http.MethodGet, "/api/restaurant/search/:city", Public, h.Restaurants.SearchRestaurants},
		{http.MethodGet, "/api/restaurant/:restaurantId", Public, h.Restaurants.GetRestaurant},

		{http.MethodGet, "/api/my/restaurant", User, h.MyRestaurant.GetMyRestaurant},
		{http.MethodPost, "/api/my/restaurant", User, h.MyRestaurant.CreateMyRestaurant},
		{http.MethodPut, "/api/my/restaurant", User, h.MyRestaurant.UpdateMyRestaurant},
		{http.MethodDelete, "/api/my/restaurant/remove-image", User, h.MyRestaurant.RemoveRestaurantImage},
		{http.MethodDelete, "/api/my/restaurant/menu-item/:menuItemId", User, h.MyRestaurant.DeleteMenuItem},
		{http.MethodGet, "/api/my/restaurant/order", User, h.MyRestaurant.GetMyRestaurantOrders},
		{http.MethodPatch, "/api/my/restaurant/order/:orderId/status", User, h.MyRestaurant.UpdateOrderStatus},

		{http.MethodGet, "/api/order", User, h.Orders.GetMyOrders},
		{http.MethodPost, "/api/order/checkout-session", User, h.Orders.CreateCheckoutSession},
		{http.MethodPost, "/api/order/checkout/webhook", Public, h.Orders.StripeWebhook},
	}
}

// Register mounts the table on r, prefixing each handler with the middleware
// its access level requires, and adds the health check.
func Register(r gin.IRoutes, guard Guard, table []Route) {
	for _, rt := range table {
		var chain []gin.HandlerFunc
		switch rt.Access {
		case Identity:
			chain = append(chain, guard.JWTCheck())
		case User:
			chain = append(chain, guard.JWTCheck(), guard.JWTParse())
		}
		chain = append(chain, rt.Handler)
		r.Handle(rt.Method, rt.Path, chain...)
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "Server is up and running"})
	})
}
