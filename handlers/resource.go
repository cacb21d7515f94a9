package handlers

import (
	"net/http"
	"os"
	"path/filepath"

	"easypro/database/repository/resource"
	"easypro/middleware"
	"easypro/models"
	"easypro/services/resource"
	"easypro/utils"

	"github.com/gin-gonic/gin"
)

// ResourceHandler exposes the resource catalog.
type ResourceHandler struct {
	Svc resource.ResourceService
}

func NewResourceHandler(svc resource.ResourceService) *ResourceHandler {
	return &ResourceHandler{Svc: svc}
}

// CreateResourceHandler publishes a resource from a multipart form. The
// "file" part is optional when a URL is provided in the form fields.
func (h *ResourceHandler) CreateResourceHandler(c *gin.Context) {
	res := models.Resource{
		Title:       c.PostForm("title"),
		Subject:     c.PostForm("subject"),
		Description: c.PostForm("description"),
		Type:        c.PostForm("type"),
		Tags:        c.PostFormArray("tags"),
		URL:         c.PostForm("url"),
		AuthorID:    c.GetString(middleware.ContextUserID),
	}

	var localPath string
	if fh, err := c.FormFile("file"); err == nil {
		localPath = filepath.Join(os.TempDir(), fh.Filename)
		if err := c.SaveUploadedFile(fh, localPath); err != nil {
			utils.JSONError(c, http.StatusInternalServerError, "failed to save uploaded file", err.Error())
			return
		}
		defer os.Remove(localPath)
	}

	created, err := h.Svc.Create(c.Request.Context(), &res, localPath)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

// GetResourceHandler fetches a resource and counts the view.
func (h *ResourceHandler) GetResourceHandler(c *gin.Context) {
	res, err := h.Svc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// SearchResourcesHandler filters the catalog by subject, tag, and type.
func (h *ResourceHandler) SearchResourcesHandler(c *gin.Context) {
	criteria := resourceRepo.SearchCriteria{
		Subject: c.Query("subject"),
		Tag:     c.Query("tag"),
		Type:    c.Query("type"),
	}
	resources, err := h.Svc.Search(c.Request.Context(), criteria)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"resources": resources, "count": len(resources)})
}

// UpdateResourceHandler edits a resource's catalog fields.
func (h *ResourceHandler) UpdateResourceHandler(c *gin.Context) {
	var res models.Resource
	if err := c.ShouldBindJSON(&res); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid request payload", err.Error())
		return
	}
	res.ID = c.Param("id")

	updated, err := h.Svc.Update(c.Request.Context(), &res,
		c.GetString(middleware.ContextUserID), c.GetString(middleware.ContextRole))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// DeleteResourceHandler removes a resource from the catalog.
func (h *ResourceHandler) DeleteResourceHandler(c *gin.Context) {
	err := h.Svc.Delete(c.Request.Context(), c.Param("id"),
		c.GetString(middleware.ContextUserID), c.GetString(middleware.ContextRole))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "resource deleted"})
}
