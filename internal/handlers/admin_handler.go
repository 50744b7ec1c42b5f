package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"farm_store/internal/middleware"
	"farm_store/internal/models"
	"farm_store/internal/services"

	"github.com/gin-gonic/gin"
)

// AdminHandler is the back office: session, products, orders and messages.
type AdminHandler struct {
	auth     services.AuthService
	catalog  services.CatalogService
	orders   services.OrderService
	contacts services.ContactService
}

func NewAdminHandler(auth services.AuthService, catalog services.CatalogService, orders services.OrderService, contacts services.ContactService) *AdminHandler {
	return &AdminHandler{auth: auth, catalog: catalog, orders: orders, contacts: contacts}
}

func (h *AdminHandler) Login(c *gin.Context) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "AdminHandler.Login", "invalid request format")
		return
	}
	token, session, err := h.auth.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{
		"token":    token,
		"username": session.Username,
	})
}

func (h *AdminHandler) Logout(c *gin.Context) {
	if err := h.auth.Logout(c.Request.Context(), middleware.BearerToken(c)); err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, nil)
}

// Products

func (h *AdminHandler) ListProducts(c *gin.Context) {
	products, err := h.catalog.ListAll(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, products)
}

func (h *AdminHandler) CreateProduct(c *gin.Context) {
	var draft models.ProductDraft
	if err := c.ShouldBindJSON(&draft); err != nil {
		badRequest(c, "AdminHandler.CreateProduct", "invalid request format")
		return
	}
	product, err := h.catalog.Create(c.Request.Context(), draft)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusCreated, product)
}

func (h *AdminHandler) UpdateProduct(c *gin.Context) {
	id, ok := parseID(c, "AdminHandler.UpdateProduct")
	if !ok {
		return
	}
	var patch models.ProductPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		badRequest(c, "AdminHandler.UpdateProduct", "invalid request format")
		return
	}
	product, err := h.catalog.Update(c.Request.Context(), id, patch)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, product)
}

func (h *AdminHandler) DeleteProduct(c *gin.Context) {
	id, ok := parseID(c, "AdminHandler.DeleteProduct")
	if !ok {
		return
	}
	if err := h.catalog.Delete(c.Request.Context(), id); err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, nil)
}

// Orders

func (h *AdminHandler) ListOrders(c *gin.Context) {
	filter := models.OrderFilter{Status: models.OrderStatus(c.Query("status"))}
	if raw := c.Query("archived"); raw != "" {
		archived, err := strconv.ParseBool(raw)
		if err != nil {
			badRequest(c, "AdminHandler.ListOrders", "archived must be true or false")
			return
		}
		filter.Archived = &archived
	}
	orders, err := h.orders.List(c.Request.Context(), filter)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, orders)
}

func (h *AdminHandler) GetOrder(c *gin.Context) {
	id, ok := parseID(c, "AdminHandler.GetOrder")
	if !ok {
		return
	}
	order, err := h.orders.Get(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, order)
}

// UpdateOrderStatus accepts an optional expected_status; when given, the
// change applies only if the order still holds it.
func (h *AdminHandler) UpdateOrderStatus(c *gin.Context) {
	id, ok := parseID(c, "AdminHandler.UpdateOrderStatus")
	if !ok {
		return
	}
	var req struct {
		Status         models.OrderStatus `json:"status" binding:"required"`
		ExpectedStatus models.OrderStatus `json:"expected_status"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "AdminHandler.UpdateOrderStatus", "status is required")
		return
	}

	var (
		order *models.Order
		err   error
	)
	if req.ExpectedStatus != "" {
		order, err = h.orders.SetStatusFrom(c.Request.Context(), id, req.ExpectedStatus, req.Status)
	} else {
		order, err = h.orders.SetStatus(c.Request.Context(), id, req.Status)
	}
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, order)
}

// UpdatePaymentStatus records payment collected outside checkout, such as
// cash at pickup. Marking a pending order paid moves it to processing.
func (h *AdminHandler) UpdatePaymentStatus(c *gin.Context) {
	id, ok := parseID(c, "AdminHandler.UpdatePaymentStatus")
	if !ok {
		return
	}
	var req struct {
		PaymentStatus models.PaymentStatus `json:"payment_status" binding:"required"`
		PaymentID     string               `json:"payment_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "AdminHandler.UpdatePaymentStatus", "payment_status is required")
		return
	}

	order, err := h.orders.SetPaymentStatus(c.Request.Context(), id, req.PaymentStatus, strings.TrimSpace(req.PaymentID))
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, order)
}

func (h *AdminHandler) ArchiveOrder(c *gin.Context) {
	id, ok := parseID(c, "AdminHandler.ArchiveOrder")
	if !ok {
		return
	}
	order, err := h.orders.Archive(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, order)
}

func (h *AdminHandler) RestoreOrder(c *gin.Context) {
	id, ok := parseID(c, "AdminHandler.RestoreOrder")
	if !ok {
		return
	}
	order, err := h.orders.Restore(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, order)
}

func (h *AdminHandler) DeleteOrder(c *gin.Context) {
	id, ok := parseID(c, "AdminHandler.DeleteOrder")
	if !ok {
		return
	}
	if err := h.orders.Delete(c.Request.Context(), id); err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, nil)
}

// Contact messages

func (h *AdminHandler) ListContacts(c *gin.Context) {
	msgs, err := h.contacts.List(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, msgs)
}

func (h *AdminHandler) UpdateContact(c *gin.Context) {
	id, ok := parseID(c, "AdminHandler.UpdateContact")
	if !ok {
		return
	}
	var req struct {
		Status models.ContactStatus `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "AdminHandler.UpdateContact", "status is required")
		return
	}
	msg, err := h.contacts.SetStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, msg)
}

func (h *AdminHandler) DeleteContact(c *gin.Context) {
	id, ok := parseID(c, "AdminHandler.DeleteContact")
	if !ok {
		return
	}
	if err := h.contacts.Delete(c.Request.Context(), id); err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, nil)
}
