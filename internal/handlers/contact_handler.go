package handlers

import (
	"net/http"

	"farm_store/internal/services"

	"github.com/gin-gonic/gin"
)

type ContactHandler struct {
	contacts services.ContactService
}

func NewContactHandler(contacts services.ContactService) *ContactHandler {
	return &ContactHandler{contacts: contacts}
}

func (h *ContactHandler) Submit(c *gin.Context) {
	var req struct {
		Name    string `json:"name"`
		Email   string `json:"email"`
		Message string `json:"message"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "ContactHandler.Submit", "invalid request format")
		return
	}
	msg, err := h.contacts.Submit(c.Request.Context(), req.Name, req.Email, req.Message)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusCreated, msg)
}
