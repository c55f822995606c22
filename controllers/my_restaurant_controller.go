package controllers

import (
	"net/http"

	apperrors "github.com/Manish-456/eatsy-backend/common/errors"
	"github.com/Manish-456/eatsy-backend/middleware"
	"github.com/Manish-456/eatsy-backend/models"
	"github.com/Manish-456/eatsy-backend/services"
	"github.com/gin-gonic/gin"
)

// MyRestaurantController serves the signed-in owner's restaurant, menu and
// incoming orders.
type MyRestaurantController struct {
	restaurants services.MyRestaurantService
	orders      services.OrderService
}

func NewMyRestaurantController(restaurants services.MyRestaurantService, orders services.OrderService) *MyRestaurantController {
	return &MyRestaurantController{restaurants: restaurants, orders: orders}
}

func (mc *MyRestaurantController) GetMyRestaurant(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	result, err := mc.restaurants.Get(c.Request.Context(), userID)
	if err != nil {
		apperrors.Write(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (mc *MyRestaurantController) CreateMyRestaurant(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	in, image, err := bindRestaurantInput(c)
	if err != nil {
		apperrors.Write(c, err)
		return
	}

	result, err := mc.restaurants.Create(c.Request.Context(), userID, in, image)
	if err != nil {
		apperrors.Write(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (mc *MyRestaurantController) UpdateMyRestaurant(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	in, image, err := bindRestaurantInput(c)
	if err != nil {
		apperrors.Write(c, err)
		return
	}

	result, err := mc.restaurants.Update(c.Request.Context(), userID, in, image)
	if err != nil {
		apperrors.Write(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// RemoveRestaurantImage answers 204 when there was no image to remove.
func (mc *MyRestaurantController) RemoveRestaurantImage(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	removed, err := mc.restaurants.RemoveImage(c.Request.Context(), userID)
	if err != nil {
		apperrors.Write(c, err)
		return
	}
	if !removed {
		c.Status(http.StatusNoContent)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Image removed successfully"})
}

func (mc *MyRestaurantController) DeleteMenuItem(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	if err := mc.restaurants.DeleteMenuItem(c.Request.Context(), userID, c.Param("menuItemId")); err != nil {
		apperrors.Write(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Menu item deleted successfully"})
}

func (mc *MyRestaurantController) GetMyRestaurantOrders(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	orders, err := mc.orders.ListForOwner(c.Request.Context(), userID)
	if err != nil {
		apperrors.Write(c, err)
		return
	}
	c.JSON(http.StatusOK, orders)
}

func (mc *MyRestaurantController) UpdateOrderStatus(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var req models.UpdateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}

	order, err := mc.orders.UpdateStatus(c.Request.Context(), userID, c.Param("orderId"), req.Status)
	if err != nil {
		apperrors.Write(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func requireUser(c *gin.Context) (string, bool) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		apperrors.Write(c, apperrors.Unauthenticated("Unauthorized"))
		return "", false
	}
	return userID, true
}
