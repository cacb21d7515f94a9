package storage

import "context"

// StorageService is the boundary to the blob store. Uploads return opaque
// URL handles; the core never interprets them. Implementations must be safe
// to retry, and a failed upload surfaces as an error without any order
// having been persisted.
type StorageService interface {
	// UploadFile stores one local file under the destination folder and
	// returns its retrieval URL.
	UploadFile(ctx context.Context, localFilePath, destFolder string) (string, error)
	// UploadFiles stores several local files and returns their retrieval
	// URLs in the same order.
	UploadFiles(ctx context.Context, localFilePaths []string, destFolder string) ([]string, error)
	// DeleteFile removes a stored file by its handle.
	DeleteFile(ctx context.Context, handle string) error
}
