package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/zypocare/governance-backend/internal/platform/apierr"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

// RespondServiceError translates a service error into its HTTP shape. The
// business kind rides along as the machine-readable code.
func RespondServiceError(c *gin.Context, err error) {
	kind, ok := apierr.KindOf(err)
	if !ok {
		c.JSON(http.StatusInternalServerError, ErrorEnvelope{
			Error: APIError{Message: "internal error"},
		})
		return
	}
	c.JSON(apierr.HTTPStatus(kind), ErrorEnvelope{
		Error: APIError{Message: err.Error(), Code: string(kind)},
	})
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, ErrorEnvelope{
		Error: APIError{Message: msg, Code: code},
	})
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

func RespondCreated(c *gin.Context, payload any) {
	c.JSON(http.StatusCreated, payload)
}
