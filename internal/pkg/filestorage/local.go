package filestorage

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/yigit/practicelog/internal/pkg/logger"
)

// ErrNoFile is returned when no upload was supplied
var ErrNoFile = errors.New("no file uploaded")

// LocalStorage handles saving files to the local filesystem.
type LocalStorage struct {
	basePath string // The root directory where files will be stored
	baseURL  string // Public URL the directory is served under, e.g. http://host/uploads
}

// NewLocalStorage creates a new LocalStorage instance, creating basePath if needed.
func NewLocalStorage(basePath, baseURL string) (*LocalStorage, error) {
	if err := os.MkdirAll(basePath, os.ModePerm); err != nil {
		logger.Error().Err(err).Str("path", basePath).Msg("Failed to create storage directory")
		return nil, fmt.Errorf("failed to create storage directory %s: %w", basePath, err)
	}
	logger.Info().Str("path", basePath).Msg("Local storage directory ensured")

	return &LocalStorage{
		basePath: basePath,
		baseURL:  strings.TrimRight(baseURL, "/"),
	}, nil
}

// SaveFile stores the upload under a uuid name, keeping its extension
func (ls *LocalStorage) SaveFile(fileHeader *multipart.FileHeader) (string, error) {
	if fileHeader == nil {
		return "", ErrNoFile
	}

	file, err := fileHeader.Open()
	if err != nil {
		logger.Error().Err(err).Str("filename", fileHeader.Filename).Msg("Failed to open uploaded file")
		return "", fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer file.Close()

	uniqueFilename := uuid.New().String() + strings.ToLower(filepath.Ext(fileHeader.Filename))
	dstPath := filepath.Join(ls.basePath, uniqueFilename)

	dst, err := os.Create(dstPath)
	if err != nil {
		logger.Error().Err(err).Str("path", dstPath).Msg("Failed to create destination file")
		return "", fmt.Errorf("failed to create destination file: %w", err)
	}
	defer dst.Close()

	if _, err = io.Copy(dst, file); err != nil {
		logger.Error().Err(err).Str("path", dstPath).Msg("Failed to copy uploaded file content")
		_ = os.Remove(dstPath)
		return "", fmt.Errorf("failed to save file content: %w", err)
	}

	accessiblePath := "/uploads/" + uniqueFilename
	if ls.baseURL != "" {
		accessiblePath = ls.baseURL + "/" + uniqueFilename
	}

	logger.Info().Str("filename", fileHeader.Filename).Str("saved_as", uniqueFilename).Str("url", accessiblePath).Msg("File saved successfully")
	return accessiblePath, nil
}

// DeleteFile removes a stored file. A missing file is not an error.
func (ls *LocalStorage) DeleteFile(fileURL string) error {
	physicalPath := ls.GetFullPath(fileURL)
	if physicalPath == "" {
		return fmt.Errorf("invalid file path: %s", fileURL)
	}

	if err := os.Remove(physicalPath); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger.Warn().Str("path", physicalPath).Msg("File to delete does not exist")
			return nil
		}
		logger.Error().Err(err).Str("path", physicalPath).Msg("Failed to delete file")
		return fmt.Errorf("failed to delete file: %w", err)
	}

	logger.Info().Str("path", physicalPath).Msg("File deleted successfully")
	return nil
}

// GetFullPath returns the filesystem path for a stored file URL
func (ls *LocalStorage) GetFullPath(fileURL string) string {
	filename := filepath.Base(fileURL)
	if filename == "" || filename == "." || filename == "/" || filename == "uploads" {
		return ""
	}
	return filepath.Join(ls.basePath, filename)
}
