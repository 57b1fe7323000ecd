package assets

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	cache *Cache
}

func NewHandler(cache *Cache) *Handler {
	return &Handler{cache: cache}
}

// Serve handles GET /app/*path
func (h *Handler) Serve(c *gin.Context) {
	asset, err := h.cache.Get(c.Request.Context(), c.Param("path"))
	if err != nil {
		c.Error(err)
		return
	}

	c.Header("X-Asset-Generation", h.cache.Generation())
	c.Header("Cache-Control", "no-cache")
	c.Data(http.StatusOK, asset.ContentType, asset.Body)
}
