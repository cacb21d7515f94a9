package handlers

import (
	"net/http"
	"time"

	"easypro/models"
	"easypro/services/writer"
	"easypro/utils"

	"github.com/gin-gonic/gin"
)

// WriterHandler exposes writer profile management and availability lookups.
type WriterHandler struct {
	Svc writer.WriterService
}

func NewWriterHandler(svc writer.WriterService) *WriterHandler {
	return &WriterHandler{Svc: svc}
}

// CreateWriterHandler registers a new writer. Admin only.
func (h *WriterHandler) CreateWriterHandler(c *gin.Context) {
	var w models.Writer
	if err := c.ShouldBindJSON(&w); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid request payload", err.Error())
		return
	}
	created, err := h.Svc.Create(c.Request.Context(), &w)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

// GetWriterHandler returns one writer together with their reviews.
func (h *WriterHandler) GetWriterHandler(c *gin.Context) {
	w, reviews, err := h.Svc.GetWithReviews(c.Request.Context(), c.Param("id"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"writer": w, "reviews": reviews})
}

// AvailableWritersHandler finds writers who match a subject and, when a
// deadline is given, can take the work on in time. Deadline is RFC 3339.
func (h *WriterHandler) AvailableWritersHandler(c *gin.Context) {
	var deadline *time.Time
	if raw := c.Query("deadline"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			utils.RespondError(c, utils.NewValidationError("deadline must be RFC 3339"))
			return
		}
		deadline = &t
	}

	writers, err := h.Svc.Available(c.Request.Context(), c.Query("subject"), deadline)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"writers": writers, "count": len(writers)})
}

// UpdateWriterHandler edits a writer's profile. Admin only.
func (h *WriterHandler) UpdateWriterHandler(c *gin.Context) {
	var w models.Writer
	if err := c.ShouldBindJSON(&w); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid request payload", err.Error())
		return
	}
	w.ID = c.Param("id")
	updated, err := h.Svc.Update(c.Request.Context(), &w)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// DeleteWriterHandler removes a writer. Admin only.
func (h *WriterHandler) DeleteWriterHandler(c *gin.Context) {
	if err := h.Svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "writer deleted"})
}
