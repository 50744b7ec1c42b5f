package handlers

import (
	"net/http"

	"farm_store/internal/models"
	"farm_store/internal/services"

	"github.com/gin-gonic/gin"
)

type CheckoutHandler struct {
	checkout services.CheckoutService
	carts    services.CartService
	orders   services.OrderService
}

func NewCheckoutHandler(checkout services.CheckoutService, carts services.CartService, orders services.OrderService) *CheckoutHandler {
	return &CheckoutHandler{checkout: checkout, carts: carts, orders: orders}
}

func (h *CheckoutHandler) Quote(c *gin.Context) {
	current, err := h.carts.Get(c.Request.Context(), cartID(c))
	if err != nil {
		fail(c, err)
		return
	}
	method := models.DeliveryMethod(c.DefaultQuery("delivery_method", string(models.DeliveryPickup)))
	quote, err := h.checkout.Quote(current, method)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, quote)
}

func (h *CheckoutHandler) CreatePayPalOrder(c *gin.Context) {
	var req struct {
		DeliveryMethod models.DeliveryMethod `json:"delivery_method" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "CheckoutHandler.CreatePayPalOrder", "delivery_method is required")
		return
	}

	current, err := h.carts.Get(c.Request.Context(), cartID(c))
	if err != nil {
		fail(c, err)
		return
	}
	intent, err := h.checkout.CreatePaymentIntent(c.Request.Context(), current, req.DeliveryMethod)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusCreated, intent)
}

// Checkout places the order and clears the cart only once the order exists.
func (h *CheckoutHandler) Checkout(c *gin.Context) {
	var req services.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "CheckoutHandler.Checkout", "invalid request format")
		return
	}

	id := cartID(c)
	current, err := h.carts.Get(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	result, err := h.checkout.Checkout(c.Request.Context(), req, current)
	if err != nil {
		fail(c, err)
		return
	}
	if result.ClearCart {
		if err := h.carts.Clear(c.Request.Context(), id); err != nil {
			// the order stands; a stale cart is only an annoyance
			_ = c.Error(err)
		}
	}
	respond(c, http.StatusCreated, result.Order)
}

func (h *CheckoutHandler) GetOrder(c *gin.Context) {
	order, err := h.orders.GetByNumber(c.Request.Context(), c.Param("number"))
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, order)
}
