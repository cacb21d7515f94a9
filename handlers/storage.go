package handlers

import (
	"net/http"
	"os"
	"path/filepath"

	"easypro/services/storage"
	"easypro/utils"

	"github.com/gin-gonic/gin"
)

// StorageHandler exposes direct file uploads. Clients upload a file here
// first and pass the returned handle in later JSON requests, typically for
// profile images.
type StorageHandler struct {
	StorageSvc storage.StorageService
}

func NewStorageHandler(svc storage.StorageService) *StorageHandler {
	return &StorageHandler{StorageSvc: svc}
}

// allowedBuckets defines permitted buckets for direct uploads.
var allowedBuckets = map[string]bool{
	"profiles":  true,
	"documents": true,
}

// UploadFileHandler uploads a single file into the named bucket and returns
// its handle.
func (h *StorageHandler) UploadFileHandler(c *gin.Context) {
	bucket := c.Param("bucket")
	if !allowedBuckets[bucket] {
		utils.RespondError(c, utils.NewValidationError("invalid bucket; allowed values are 'profiles' and 'documents'"))
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		utils.RespondError(c, utils.NewValidationError("file not provided"))
		return
	}

	tempFilePath := filepath.Join(os.TempDir(), fileHeader.Filename)
	if err := c.SaveUploadedFile(fileHeader, tempFilePath); err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "failed to save file", err.Error())
		return
	}
	defer os.Remove(tempFilePath)

	url, err := h.StorageSvc.UploadFile(c.Request.Context(), tempFilePath, bucket)
	if err != nil {
		utils.RespondError(c, utils.NewUploadError("failed to upload file: "+err.Error()))
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url})
}
