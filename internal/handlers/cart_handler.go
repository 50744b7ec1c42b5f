package handlers

import (
	"net/http"

	"farm_store/internal/cart"
	"farm_store/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	CartIDHeader = "X-Cart-ID"
	cartCookie   = "cart_id"
)

type CartHandler struct {
	carts services.CartService
}

func NewCartHandler(carts services.CartService) *CartHandler {
	return &CartHandler{carts: carts}
}

type cartView struct {
	ID         string          `json:"id"`
	Items      []cart.Item     `json:"items"`
	Subtotal   decimal.Decimal `json:"subtotal"`
	AddOnTotal decimal.Decimal `json:"add_on_total"`
	Total      decimal.Decimal `json:"total"`
}

func newCartView(id string, c *cart.Cart) cartView {
	return cartView{
		ID:         id,
		Items:      c.Items,
		Subtotal:   c.Subtotal(),
		AddOnTotal: c.AddOnTotal(),
		Total:      c.Total(),
	}
}

// cartID resolves the shopper's cart from the header or cookie, minting a new
// id for first-time visitors. The id is echoed back either way.
func cartID(c *gin.Context) string {
	id := c.GetHeader(CartIDHeader)
	if id == "" {
		id, _ = c.Cookie(cartCookie)
	}
	if _, err := uuid.Parse(id); err != nil {
		id = uuid.NewString()
	}
	c.Header(CartIDHeader, id)
	c.SetCookie(cartCookie, id, 30*24*3600, "/", "", false, true)
	return id
}

func (h *CartHandler) Get(c *gin.Context) {
	id := cartID(c)
	current, err := h.carts.Get(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, newCartView(id, current))
}

func (h *CartHandler) AddItem(c *gin.Context) {
	var req struct {
		ProductID     uint `json:"product_id" binding:"required"`
		Quantity      int  `json:"quantity"`
		AddOnIncluded bool `json:"add_on_included"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "CartHandler.AddItem", "product_id is required")
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	id := cartID(c)
	updated, err := h.carts.AddItem(c.Request.Context(), id, req.ProductID, req.Quantity, req.AddOnIncluded)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, newCartView(id, updated))
}

func (h *CartHandler) UpdateItem(c *gin.Context) {
	var req struct {
		Quantity int `json:"quantity" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "CartHandler.UpdateItem", "quantity is required")
		return
	}

	id := cartID(c)
	updated, err := h.carts.UpdateQuantity(c.Request.Context(), id, c.Param("line"), req.Quantity)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, newCartView(id, updated))
}

func (h *CartHandler) RemoveItem(c *gin.Context) {
	id := cartID(c)
	updated, err := h.carts.RemoveItem(c.Request.Context(), id, c.Param("line"))
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, newCartView(id, updated))
}

func (h *CartHandler) ToggleAddOn(c *gin.Context) {
	var req struct {
		LineID   string `json:"line_id" binding:"required"`
		Included bool   `json:"included"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "CartHandler.ToggleAddOn", "line_id is required")
		return
	}

	id := cartID(c)
	updated, err := h.carts.ToggleAddOn(c.Request.Context(), id, req.LineID, req.Included)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, newCartView(id, updated))
}

func (h *CartHandler) Clear(c *gin.Context) {
	id := cartID(c)
	if err := h.carts.Clear(c.Request.Context(), id); err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, newCartView(id, cart.New()))
}
