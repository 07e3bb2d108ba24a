package handler

import (
	"errors"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/protocol/consts"

	"github.com/Daltonopenclaw/agent-forge/internal/domain"
)

// Response is the unified API response envelope.
type Response struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// ListResponse is the envelope for list endpoints.
type ListResponse struct {
	Items      interface{} `json:"items"`
	TotalCount int         `json:"totalCount"`
}

// SuccessResponse writes a 200 envelope.
func SuccessResponse(c *app.RequestContext, data interface{}) {
	c.JSON(consts.StatusOK, Response{
		Code:    "SUCCESS",
		Message: "operation successful",
		Data:    data,
	})
}

// CreatedResponse writes a 201 envelope.
func CreatedResponse(c *app.RequestContext, data interface{}) {
	c.JSON(consts.StatusCreated, Response{
		Code:    "CREATED",
		Message: "resource created successfully",
		Data:    data,
	})
}

// NoContentResponse writes a bare 204, used by delete endpoints.
func NoContentResponse(c *app.RequestContext) {
	c.Status(consts.StatusNoContent)
}

// BadRequestResponse writes a 400 with a caller-supplied message, used for
// binding failures before a domain error exists.
func BadRequestResponse(c *app.RequestContext, message string) {
	c.JSON(consts.StatusBadRequest, Response{
		Code:    "BAD_REQUEST",
		Message: message,
	})
}

// errorStatus maps a domain error to its HTTP status and envelope code.
func errorStatus(err error) (int, string) {
	switch {
	case domain.IsNotFound(err):
		return consts.StatusNotFound, "NOT_FOUND"
	case domain.IsAlreadyExists(err):
		return consts.StatusConflict, "ALREADY_EXISTS"
	case domain.IsInvalidInput(err):
		return consts.StatusBadRequest, "INVALID_INPUT"
	case domain.IsConflict(err):
		return consts.StatusConflict, "CONFLICT"
	case domain.IsUnauthorized(err):
		return consts.StatusUnauthorized, "UNAUTHORIZED"
	case domain.IsForbidden(err):
		return consts.StatusForbidden, "FORBIDDEN"
	}
	return consts.StatusInternalServerError, "INTERNAL_ERROR"
}

// ErrorResponse writes the envelope for a domain error. Only the
// user-facing message is exposed; internal detail stays in the logs.
func ErrorResponse(c *app.RequestContext, err error) {
	status, code := errorStatus(err)

	message := "internal server error"
	var domainErr *domain.DomainError
	if status != consts.StatusInternalServerError && errors.As(err, &domainErr) {
		message = domainErr.UserMessage()
	}

	c.JSON(status, Response{
		Code:    code,
		Message: message,
	})
}
