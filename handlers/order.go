package handlers

import (
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"easypro/database/repository/order"
	"easypro/middleware"
	"easypro/models"
	"easypro/services/order"
	"easypro/services/storage"
	"easypro/utils"

	"github.com/gin-gonic/gin"
)

// OrderHandler exposes the order lifecycle over HTTP. Order payloads arrive
// either as JSON (attachments as storage handles) or as multipart forms with
// the attachment files inline.
type OrderHandler struct {
	Svc     order.OrderService
	Storage storage.StorageService
}

func NewOrderHandler(svc order.OrderService, store storage.StorageService) *OrderHandler {
	return &OrderHandler{Svc: svc, Storage: store}
}

// CreateOrderHandler places a new order for the authenticated user.
func (h *OrderHandler) CreateOrderHandler(c *gin.Context) {
	var o models.Order
	if strings.HasPrefix(c.ContentType(), "multipart/form-data") {
		parsed, err := h.orderFromForm(c)
		if err != nil {
			utils.RespondError(c, err)
			return
		}
		o = *parsed
	} else if err := c.ShouldBindJSON(&o); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid request payload", err.Error())
		return
	}
	o.Owner = c.GetString(middleware.ContextUserID)

	created, err := h.Svc.Create(c.Request.Context(), &o)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

// GetOrderHandler fetches one order, review included when completed.
func (h *OrderHandler) GetOrderHandler(c *gin.Context) {
	o, err := h.Svc.GetByID(c.Request.Context(), c.Param("id"),
		c.GetString(middleware.ContextUserID), c.GetString(middleware.ContextRole))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

// ListOrdersHandler returns a page of the caller's orders. Admins see all
// orders and may filter by owner.
func (h *OrderHandler) ListOrdersHandler(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	filter := orderRepo.ListFilter{
		Owner: c.Query("owner"),
		State: models.OrderState(c.Query("state")),
		Kind:  models.OrderKind(c.Query("kind")),
		Page:  page,
		Limit: limit,
	}

	orders, total, err := h.Svc.List(c.Request.Context(), filter,
		c.GetString(middleware.ContextUserID), c.GetString(middleware.ContextRole))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"orders": orders,
		"total":  total,
		"page":   page,
		"limit":  limit,
	})
}

// UpdateOrderHandler edits an order's owner-editable fields. Files in a
// multipart request replace the order's attachment set.
func (h *OrderHandler) UpdateOrderHandler(c *gin.Context) {
	var o models.Order
	if strings.HasPrefix(c.ContentType(), "multipart/form-data") {
		parsed, err := h.orderFromForm(c)
		if err != nil {
			utils.RespondError(c, err)
			return
		}
		o = *parsed
	} else if err := c.ShouldBindJSON(&o); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid request payload", err.Error())
		return
	}
	o.ID = c.Param("id")

	updated, err := h.Svc.Update(c.Request.Context(), &o, c.GetString(middleware.ContextUserID))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// AssignOrderHandler hands the order to a writer. Admin only.
func (h *OrderHandler) AssignOrderHandler(c *gin.Context) {
	var req struct {
		WriterID string `json:"writerId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid request payload", err.Error())
		return
	}

	o, err := h.Svc.Assign(c.Request.Context(), c.Param("id"), req.WriterID)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

// SubmitResponseHandler accepts a multipart form with parallel "titles" and
// "files" fields and attaches the delivered work to the order. Admin only.
func (h *OrderHandler) SubmitResponseHandler(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid multipart form", err.Error())
		return
	}
	titles := form.Value["titles"]
	files := form.File["files"]
	if len(titles) != len(files) {
		utils.RespondError(c, utils.NewValidationError("each response title needs exactly one file"))
		return
	}

	tempDir := os.TempDir()
	localPaths := make([]string, 0, len(files))
	for _, fh := range files {
		path := filepath.Join(tempDir, fh.Filename)
		if err := c.SaveUploadedFile(fh, path); err != nil {
			utils.JSONError(c, http.StatusInternalServerError, "failed to save uploaded file", err.Error())
			return
		}
		defer os.Remove(path)
		localPaths = append(localPaths, path)
	}

	o, err := h.Svc.SubmitResponse(c.Request.Context(), c.Param("id"), titles, localPaths)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

// CompleteOrderHandler marks the order completed. Admin only.
func (h *OrderHandler) CompleteOrderHandler(c *gin.Context) {
	o, err := h.Svc.Complete(c.Request.Context(), c.Param("id"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

// orderFromForm builds an order from multipart form fields and uploads any
// "attachments" files, recording their handles on the order.
func (h *OrderHandler) orderFromForm(c *gin.Context) (*models.Order, error) {
	o := &models.Order{
		Kind:           models.OrderKind(c.PostForm("kind")),
		Subject:        c.PostForm("subject"),
		PaperType:      c.PostForm("paperType"),
		ToolName:       c.PostForm("toolName"),
		Instructions:   c.PostForm("instructions"),
		AssignedWriter: c.PostForm("writerId"),
	}
	if v := c.PostForm("pageCount"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, utils.NewValidationError("pageCount must be a number")
		}
		o.PageCount = n
	}
	if v := c.PostForm("slideCount"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, utils.NewValidationError("slideCount must be a number")
		}
		o.SlideCount = n
	}
	if v := c.PostForm("deadline"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return nil, utils.NewValidationError("deadline must be RFC 3339")
		}
		o.Deadline = t
	}

	form, err := c.MultipartForm()
	if err != nil {
		return nil, utils.NewValidationError("invalid multipart form")
	}
	files := form.File["attachments"]
	if len(files) == 0 {
		return o, nil
	}

	tempDir := os.TempDir()
	localPaths := make([]string, 0, len(files))
	for _, fh := range files {
		path := filepath.Join(tempDir, fh.Filename)
		if err := c.SaveUploadedFile(fh, path); err != nil {
			return nil, utils.NewUploadError("failed to save uploaded file: " + err.Error())
		}
		defer os.Remove(path)
		localPaths = append(localPaths, path)
	}
	urls, err := h.Storage.UploadFiles(c.Request.Context(), localPaths, "orders/attachments")
	if err != nil {
		return nil, utils.NewUploadError("failed to upload attachments: " + err.Error())
	}
	o.Attachments = urls
	return o, nil
}

// CancelOrderHandler cancels the order on behalf of its owner or an admin.
func (h *OrderHandler) CancelOrderHandler(c *gin.Context) {
	o, err := h.Svc.Cancel(c.Request.Context(), c.Param("id"),
		c.GetString(middleware.ContextUserID), c.GetString(middleware.ContextRole))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}
