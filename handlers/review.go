package handlers

import (
	"net/http"

	"easypro/middleware"
	"easypro/models"
	"easypro/services/review"
	"easypro/utils"

	"github.com/gin-gonic/gin"
)

// ReviewHandler exposes review submission and listing.
type ReviewHandler struct {
	Svc review.ReviewService
}

func NewReviewHandler(svc review.ReviewService) *ReviewHandler {
	return &ReviewHandler{Svc: svc}
}

// CreateReviewHandler records the caller's review of a completed order.
func (h *ReviewHandler) CreateReviewHandler(c *gin.Context) {
	var r models.Review
	if err := c.ShouldBindJSON(&r); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid request payload", err.Error())
		return
	}

	created, err := h.Svc.Create(c.Request.Context(), &r, c.GetString(middleware.ContextUserID))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

// ListWriterReviewsHandler lists every review left for a writer.
func (h *ReviewHandler) ListWriterReviewsHandler(c *gin.Context) {
	reviews, err := h.Svc.ListByWriter(c.Request.Context(), c.Param("id"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reviews": reviews, "count": len(reviews)})
}
