// Package handlers translates HTTP requests into application-service calls
// and application errors into HTTP responses.
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/turtacn/GovMatch-Engine/pkg/errors"
)

// errorResponse is the wire shape of every error.
type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

// respondError maps an application error to its HTTP status and body.
// Unknown errors become opaque 500s; internal detail never leaks for those.
func respondError(c *gin.Context, err error) {
	code := errors.GetCode(err)
	status := errors.HTTPStatusForCode(code)

	resp := errorResponse{Code: string(code), Message: errors.DefaultMessageForCode(code)}
	if appErr, ok := err.(*errors.AppError); ok && errors.IsClientError(code) {
		resp.Message = appErr.Message
		resp.Detail = appErr.Detail
	}
	c.AbortWithStatusJSON(status, resp)
}
