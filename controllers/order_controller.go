package controllers

import (
	"io"
	"net/http"

	apperrors "github.com/Manish-456/eatsy-backend/common/errors"
	"github.com/Manish-456/eatsy-backend/models"
	"github.com/Manish-456/eatsy-backend/services"
	"github.com/gin-gonic/gin"
)

// maxWebhookBody matches the gateway's documented upper bound for event
// payloads.
const maxWebhookBody = 65536

type OrderController struct {
	orders   services.OrderService
	checkout services.CheckoutService
	payments services.PaymentService
}

func NewOrderController(orders services.OrderService, checkout services.CheckoutService, payments services.PaymentService) *OrderController {
	return &OrderController{orders: orders, checkout: checkout, payments: payments}
}

func (oc *OrderController) GetMyOrders(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	orders, err := oc.orders.ListForUser(c.Request.Context(), userID)
	if err != nil {
		apperrors.Write(c, err)
		return
	}
	c.JSON(http.StatusOK, orders)
}

func (oc *OrderController) CreateCheckoutSession(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var req models.CheckoutSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}

	url, err := oc.checkout.CreateCheckoutSession(c.Request.Context(), userID, req)
	if err != nil {
		apperrors.Write(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url})
}

// StripeWebhook hands the untouched request body to reconciliation; the
// signature covers the exact bytes.
func (oc *OrderController) StripeWebhook(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		apperrors.Write(c, apperrors.Validation("Invalid webhook payload", nil))
		return
	}

	if err := oc.payments.HandleWebhook(c.Request.Context(), payload, c.GetHeader("Stripe-Signature")); err != nil {
		apperrors.Write(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"received": true})
}
