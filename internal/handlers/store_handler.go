package handlers

import (
	"net/http"

	"farm_store/internal/services"

	"github.com/gin-gonic/gin"
)

// StoreHandler serves the customer-facing catalog.
type StoreHandler struct {
	catalog services.CatalogService
}

func NewStoreHandler(catalog services.CatalogService) *StoreHandler {
	return &StoreHandler{catalog: catalog}
}

func (h *StoreHandler) ListProducts(c *gin.Context) {
	products, err := h.catalog.ListActive(c.Request.Context(), c.Query("category"))
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, products)
}

func (h *StoreHandler) GetProduct(c *gin.Context) {
	id, ok := parseID(c, "StoreHandler.GetProduct")
	if !ok {
		return
	}
	product, err := h.catalog.GetActive(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, product)
}
