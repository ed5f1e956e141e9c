package httputil

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/docagenda/scheduling-api/pkg/errors"
)

// Response wraps all API responses.
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *Error      `json:"error,omitempty"`
}

// Error represents an API error.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// RespondWithSuccess sends a success response.
func RespondWithSuccess(c *gin.Context, status int, data interface{}) {
	c.JSON(status, Response{
		Success: true,
		Data:    data,
	})
}

// RespondWithError maps a scheduling error kind to an HTTP status and sends
// the envelope. Unknown errors become opaque 500s.
func RespondWithError(c *gin.Context, err error) {
	kind := apperrors.KindOf(err)
	status := statusFor(kind)

	message := "internal server error"
	if status < http.StatusInternalServerError {
		message = err.Error()
	}

	c.JSON(status, Response{
		Success: false,
		Error: &Error{
			Code:    kind.String(),
			Message: message,
		},
	})
}

func statusFor(kind apperrors.Kind) int {
	switch kind {
	case apperrors.KindNotFound:
		return http.StatusNotFound
	case apperrors.KindForbidden, apperrors.KindTenantMismatch:
		return http.StatusForbidden
	case apperrors.KindSlotConflict, apperrors.KindInvalidTransition,
		apperrors.KindAlreadyCancelled, apperrors.KindAlreadyConfirmed:
		return http.StatusConflict
	case apperrors.KindValidation, apperrors.KindInvalidAvailability,
		apperrors.KindOutsideAvailability:
		return http.StatusUnprocessableEntity
	case apperrors.KindStorageUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
