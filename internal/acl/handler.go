package acl

import (
	"net/http"

	"topicslog/auth"
	"topicslog/internal/domain"
	"topicslog/internal/errors"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

type ShareRequest struct {
	Handle string      `json:"user_id" binding:"required"`
	Role   domain.Role `json:"role" binding:"omitempty,oneof=edit read"`
}

// ListShares handles GET /topics/:id/shares
func (h *Handler) ListShares(c *gin.Context) {
	shares, err := h.service.ListShares(c.Request.Context(), auth.UID(c), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": shares})
}

// AddShare handles POST /topics/:id/shares
func (h *Handler) AddShare(c *gin.Context) {
	var req ShareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}

	topic, err := h.service.GrantShare(c.Request.Context(), auth.UID(c), c.Param("id"), req.Handle, req.Role)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": topic, "message": "Shared."})
}

// RemoveShare handles DELETE /topics/:id/shares/:handle
func (h *Handler) RemoveShare(c *gin.Context) {
	topic, err := h.service.RevokeShare(c.Request.Context(), auth.UID(c), c.Param("id"), c.Param("handle"))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": topic, "message": "Removed."})
}
