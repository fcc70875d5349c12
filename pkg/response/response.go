package response

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/codesurge/hackathon/internal/apperr"
	"github.com/codesurge/hackathon/pkg/logger"
)

const codeOK = "OK"

// Response is the unified API response format.
type Response struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// ErrorResponse is the body of every failed request. Data carries the
// partial outcome of batch operations that failed for some items.
type ErrorResponse struct {
	Code      string      `json:"code"`
	Message   string      `json:"message"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data,omitempty"`
}

// Success sends a 200 OK response with data.
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    codeOK,
		Message: "ok",
		Data:    data,
	})
}

// Created sends a 201 Created response with data.
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Response{
		Code:    codeOK,
		Message: "created",
		Data:    data,
	})
}

// Error renders err through apperr. Unknown errors become a generic 500
// and their cause is only logged.
func Error(c *gin.Context, err error) {
	ErrorWithData(c, err, nil)
}

// ErrorWithData renders err like Error and attaches data to the body.
func ErrorWithData(c *gin.Context, err error, data interface{}) {
	appErr := apperr.From(err)
	status := appErr.HTTPStatus()
	if status >= http.StatusInternalServerError {
		logger.Error().Err(err).
			Str("request_id", logger.RequestID(c)).
			Str("path", c.Request.URL.Path).
			Msg("[API] Internal error")
	}
	c.JSON(status, ErrorResponse{
		Code:      appErr.Code,
		Message:   appErr.Message,
		Timestamp: time.Now().UTC(),
		Data:      data,
	})
}

// Abort renders err like Error and stops the handler chain.
func Abort(c *gin.Context, err error) {
	Error(c, err)
	c.Abort()
}

// Convenience error response functions

func BadRequest(c *gin.Context, msg string) {
	Error(c, apperr.Validation(msg))
}

func Unauthorized(c *gin.Context, msg string) {
	Error(c, apperr.Unauthorized(apperr.CodeUnauthorized, msg))
}

func Forbidden(c *gin.Context, msg string) {
	Error(c, apperr.Forbidden(msg))
}
