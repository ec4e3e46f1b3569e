package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yigit/practicelog/internal/app/models/dto"
	"github.com/yigit/practicelog/internal/pkg/apperrors"
)

// HandleAPIError handles common API errors and returns appropriate responses
func HandleAPIError(c *gin.Context, err error) {
	status, detail := errorDetail(err)
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, dto.NewErrorResponse(detail))
}

func errorDetail(err error) (int, *dto.ErrorDetail) {
	var custom *apperrors.CustomError
	message := func(fallback string) string {
		if errors.As(err, &custom) && custom.Message != "" {
			return custom.Message
		}
		return fallback
	}

	switch {
	case apperrors.IsConfiguration(err):
		return http.StatusServiceUnavailable, dto.NewErrorDetail(dto.ErrorCodeNotConfigured, message("Service is not configured")).
			WithSeverity(dto.ErrorSeverityCritical)
	case apperrors.IsProvider(err):
		return http.StatusBadGateway, dto.NewErrorDetail(dto.ErrorCodeExternalServiceError, "Upstream data provider failed")
	case errors.Is(err, apperrors.ErrInvalidCredentials):
		return http.StatusUnauthorized, dto.NewErrorDetail(dto.ErrorCodeInvalidCredentials, message("Invalid credentials"))
	case errors.Is(err, apperrors.ErrTokenExpired):
		return http.StatusUnauthorized, dto.NewErrorDetail(dto.ErrorCodeExpiredToken, "Session expired")
	case errors.Is(err, apperrors.ErrTokenInvalid):
		return http.StatusUnauthorized, dto.NewErrorDetail(dto.ErrorCodeInvalidToken, "Invalid session")
	case errors.Is(err, apperrors.ErrBadRequest):
		return http.StatusBadRequest, dto.NewErrorDetail(dto.ErrorCodeBadRequest, message("Bad request"))
	case errors.Is(err, apperrors.ErrMemberNotFound):
		detail := dto.NewErrorDetail(dto.ErrorCodeResourceNotFound, message("Member not found"))
		if custom != nil && custom.Details != nil {
			detail = detail.WithDetails(custom.Details)
		}
		return http.StatusNotFound, detail
	default:
		return http.StatusInternalServerError, dto.NewErrorDetail(dto.ErrorCodeInternalServer, "Internal server error")
	}
}
