package notion

import (
	"errors"
	"fmt"
	"net/http"
)

// APIError is a non-2xx response from the provider
type APIError struct {
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("notion: http %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("notion: http %d %s: %s", e.Status, e.Code, e.Message)
}

// Retryable reports whether the request may succeed if repeated
func (e *APIError) Retryable() bool {
	return e.Status == http.StatusTooManyRequests || e.Status >= http.StatusInternalServerError
}

// IsNotFound reports whether err is a provider 404
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}
