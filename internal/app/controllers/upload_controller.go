package controllers

import (
	"errors"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/yigit/practicelog/internal/app/models/dto"
	"github.com/yigit/practicelog/internal/pkg/filestorage"
)

// UploadController stores media files on local disk
type UploadController struct {
	storage  filestorage.FileStorage
	maxBytes int64
	logger   zerolog.Logger
}

// NewUploadController creates a new UploadController.
// Request bodies larger than maxBytes are rejected.
func NewUploadController(storage filestorage.FileStorage, maxBytes int64, logger zerolog.Logger) *UploadController {
	return &UploadController{storage: storage, maxBytes: maxBytes, logger: logger}
}

// Upload stores every file of the "file" and "files" form fields
// @Summary Upload media files
// @Tags uploads
// @Accept multipart/form-data
// @Produce json
// @Param files formData file true "One or more files"
// @Success 201 {object} dto.APIResponse{data=dto.UploadResponse}
// @Failure 400 {object} dto.ErrorResponse
// @Failure 413 {object} dto.ErrorResponse
// @Router /uploads [post]
func (c *UploadController) Upload(ctx *gin.Context) {
	if c.maxBytes > 0 {
		ctx.Request.Body = http.MaxBytesReader(ctx.Writer, ctx.Request.Body, c.maxBytes)
	}
	form, err := ctx.MultipartForm()
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			errorDetail := dto.NewErrorDetail(dto.ErrorCodePayloadTooLarge, "upload exceeds size limit").
				WithDetails(map[string]int64{"limitBytes": tooLarge.Limit})
			ctx.JSON(http.StatusRequestEntityTooLarge, dto.NewErrorResponse(errorDetail))
			return
		}
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeBadRequest, "multipart form expected").WithDetails(err.Error())
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return
	}

	var headers []*multipart.FileHeader
	headers = append(headers, form.File["file"]...)
	headers = append(headers, form.File["files"]...)
	if len(headers) == 0 {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "no files uploaded").WithField("files")
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return
	}

	urls := make([]string, 0, len(headers))
	for _, h := range headers {
		url, err := c.storage.SaveFile(h)
		if err != nil {
			c.logger.Error().Err(err).Str("filename", h.Filename).Msg("Upload failed")
			for _, saved := range urls {
				_ = c.storage.DeleteFile(saved)
			}
			ctx.JSON(http.StatusInternalServerError, dto.NewErrorResponse(
				dto.NewErrorDetail(dto.ErrorCodeInternalServer, "failed to store upload")))
			return
		}
		urls = append(urls, url)
	}

	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(dto.UploadResponse{URLs: urls}, "Files uploaded"))
}
