package errors

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"

	apperrors "github.com/customeros/invoicextract/internal/errors"
)

type ErrorResponse struct {
	Error     string `json:"error"`
	RequestId string `json:"requestId,omitempty"`
}

// StatusFor maps application errors to HTTP status codes.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, apperrors.ErrRunInProgress):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func Respond(c *gin.Context, err error, requestId string) {
	c.JSON(StatusFor(err), ErrorResponse{Error: err.Error(), RequestId: requestId})
}
