package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sadopc/dbschema/internal/dialect"
	"github.com/sadopc/dbschema/internal/export"
)

// APIResponse is the JSON envelope for every non-export response.
type APIResponse struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

func success(c *gin.Context, data interface{}, message string) {
	c.JSON(http.StatusOK, APIResponse{
		Status:  "success",
		Message: message,
		Data:    data,
	})
}

func fail(c *gin.Context, statusCode int, err error, message string) {
	resp := APIResponse{
		Status:  "error",
		Message: message,
	}
	if err != nil {
		resp.Error = err.Error()
	}
	c.AbortWithStatusJSON(statusCode, resp)
}

// statusFor maps an export error to an HTTP status: an unsupported driver
// is the client's choice of endpoint, a table without columns was most
// likely misspelled, anything else is a provider failure.
func statusFor(err error) int {
	switch {
	case errors.Is(err, dialect.ErrUnsupportedDriver):
		return http.StatusUnprocessableEntity
	case errors.Is(err, export.ErrNoColumns):
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}
