package topic

import (
	"net/http"
	"net/url"

	"topicslog/auth"
	"topicslog/internal/domain"
	"topicslog/internal/errors"
	"topicslog/internal/utils"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

type CreateTopicRequest struct {
	Name    string          `json:"name" binding:"required,max=255"`
	Columns []domain.Column `json:"columns" binding:"omitempty,dive"`
}

type RowRequest struct {
	Values map[string]string `json:"values" binding:"required"`
}

// Create handles POST /topics
func (h *Handler) Create(c *gin.Context) {
	var form CreateTopicRequest
	if err := c.ShouldBindJSON(&form); err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}

	topic, err := h.service.CreateTopic(c.Request.Context(), auth.UID(c), form.Name, form.Columns)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, topic)
}

// List handles GET /topics?filter=&q=
func (h *Handler) List(c *gin.Context) {
	filter, query := utils.GetTopicQueryParams(c)
	topics, err := h.service.ListTopics(c.Request.Context(), auth.UID(c), filter, query)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": topics})
}

// Show handles GET /topics/:id
func (h *Handler) Show(c *gin.Context) {
	topic, err := h.service.OpenTopic(c.Request.Context(), auth.UID(c), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, topic)
}

// ListRows handles GET /topics/:id/rows?sort=&q=
func (h *Handler) ListRows(c *gin.Context) {
	order, query := utils.GetRowQueryParams(c)
	rows, err := h.service.ListRows(c.Request.Context(), auth.UID(c), c.Param("id"), order, query)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": rows, "sort": order.Name()})
}

// CreateRow handles POST /topics/:id/rows
func (h *Handler) CreateRow(c *gin.Context) {
	var form RowRequest
	if err := c.ShouldBindJSON(&form); err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}

	ctx := WithSubmission(c.Request.Context(), c.GetHeader(SubmissionHeader))
	row, err := h.service.CreateRow(ctx, auth.UID(c), c.Param("id"), form.Values)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, row)
}

// UpdateRow handles PUT /topics/:id/rows/:rowId
func (h *Handler) UpdateRow(c *gin.Context) {
	var form RowRequest
	if err := c.ShouldBindJSON(&form); err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}

	ctx := WithSubmission(c.Request.Context(), c.GetHeader(SubmissionHeader))
	row, err := h.service.UpdateRow(ctx, auth.UID(c), c.Param("id"), c.Param("rowId"), form.Values)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, row)
}

// DeleteRow handles DELETE /topics/:id/rows/:rowId
func (h *Handler) DeleteRow(c *gin.Context) {
	if err := h.service.DeleteRow(c.Request.Context(), auth.UID(c), c.Param("id"), c.Param("rowId")); err != nil {
		c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Export handles GET /topics/:id/export.csv?sort=&q=
func (h *Handler) Export(c *gin.Context) {
	order, query := utils.GetRowQueryParams(c)
	filename, body, err := h.service.Export(c.Request.Context(), auth.UID(c), c.Param("id"), order, query)
	if err != nil {
		c.Error(err)
		return
	}

	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+url.PathEscape(filename))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", []byte(body))
}
