package utils

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type JSONResponse struct {
	Status  bool        `json:"status"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// ErrorEnvelope is the uniform error body produced by the HTTP boundary.
type ErrorEnvelope struct {
	Type      ErrorKind   `json:"type"`
	Message   string      `json:"message"`
	Details   interface{} `json:"details,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

func RespondJSON(c *gin.Context, code int, message string, data interface{}) {
	c.JSON(code, JSONResponse{
		Status:  code >= 200 && code < 300,
		Message: message,
		Data:    data,
	})
}

// RespondError -> memetakan error domain ke status code + envelope seragam
func RespondError(c *gin.Context, err error) {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			appErr = NewNotFoundError("record not found")
		} else {
			appErr = NewInternalError(err.Error())
		}
	}

	c.JSON(appErr.Kind.HTTPStatus(), ErrorEnvelope{
		Type:      appErr.Kind,
		Message:   appErr.Message,
		Details:   appErr.Details,
		Timestamp: time.Now(),
	})
}

// RespondErrorWithCode -> untuk boundary yang sudah tahu status code-nya
// (mis. bad request body dari binding).
func RespondErrorWithCode(c *gin.Context, code int, err error) {
	var kind ErrorKind
	switch code {
	case 400:
		kind = KindValidation
	case 401:
		kind = KindUnauthorized
	case 403:
		kind = KindForbidden
	case 404:
		kind = KindNotFound
	case 409:
		kind = KindConflict
	case 422:
		kind = KindBusinessRule
	default:
		kind = KindInternal
	}
	c.JSON(code, ErrorEnvelope{
		Type:      kind,
		Message:   err.Error(),
		Timestamp: time.Now(),
	})
}
