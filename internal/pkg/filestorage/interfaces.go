package filestorage

import (
	"mime/multipart"
)

// FileStorage defines the interface for file storage operations
type FileStorage interface {
	// SaveFile stores an upload and returns its public URL
	SaveFile(fileHeader *multipart.FileHeader) (string, error)

	// DeleteFile removes a stored file given its URL or path
	DeleteFile(fileURL string) error
}
