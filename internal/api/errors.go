package api

import (
	"accounts/internal/apperror"
	"accounts/internal/service"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// 错误码定义
const (
	// 通用错误码
	ErrCodeInvalidRequest = "ERR_INVALID_REQUEST"
	ErrCodeUnauthorized   = "ERR_UNAUTHORIZED"
	ErrCodeForbidden      = "ERR_FORBIDDEN"
	ErrCodeNotFound       = "ERR_NOT_FOUND"
	ErrCodeConflict       = "ERR_CONFLICT"
	ErrCodeInternalError  = "ERR_INTERNAL_ERROR"

	// 认证错误码
	ErrCodeInvalidCredentials = "ERR_INVALID_CREDENTIALS"
	ErrCodeAccountLocked      = "ERR_ACCOUNT_LOCKED"
	ErrCodeSessionExpired     = "ERR_SESSION_EXPIRED"

	// 业务逻辑错误码
	ErrCodeMissingField     = "ERR_MISSING_FIELD"
	ErrCodeInvalidUserID    = "ERR_INVALID_USER_ID"
	ErrCodeCannotModifySelf = "ERR_CANNOT_MODIFY_SELF"
)

// APIError 统一的 API 错误响应结构
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// ErrorResponse 返回统一格式的错误响应
func ErrorResponse(c *gin.Context, status int, code string, message string) {
	c.AbortWithStatusJSON(status, APIError{
		Code:    code,
		Message: message,
	})
}

// ErrorResponseWithDetails 返回带详情的错误响应
func ErrorResponseWithDetails(c *gin.Context, status int, code string, message string, details any) {
	c.AbortWithStatusJSON(status, APIError{
		Code:    code,
		Message: message,
		Details: details,
	})
}

// BadRequest 400 错误请求
func BadRequest(c *gin.Context, code string, message string) {
	ErrorResponse(c, http.StatusBadRequest, code, message)
}

// Unauthorized 401 未授权
func Unauthorized(c *gin.Context, message string) {
	ErrorResponse(c, http.StatusUnauthorized, ErrCodeUnauthorized, message)
}

// Forbidden 403 禁止访问
func Forbidden(c *gin.Context, message string) {
	ErrorResponse(c, http.StatusForbidden, ErrCodeForbidden, message)
}

// InternalError 500 服务器内部错误
func InternalError(c *gin.Context, message string) {
	ErrorResponse(c, http.StatusInternalServerError, ErrCodeInternalError, message)
}

// MissingField 缺少必填字段
func MissingField(c *gin.Context, field string) {
	ErrorResponseWithDetails(c, http.StatusBadRequest, ErrCodeMissingField, field+" is required", gin.H{"field": field})
}

// InvalidPayload 无效的请求体
func InvalidPayload(c *gin.Context) {
	ErrorResponse(c, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid request payload")
}

// RenderError writes err as an APIError. Errors carrying an
// *apperror.HTTPError keep their status and detail; anything else is logged
// and reported as a generic 500 with fallback as the message.
func RenderError(c *gin.Context, err error, fallback string) {
	var httpErr *apperror.HTTPError
	if !errors.As(err, &httpErr) {
		logrus.WithError(err).
			WithField("request_id", RequestID(c)).
			WithField("path", c.FullPath()).
			Error(fallback)
		InternalError(c, fallback)
		return
	}
	ErrorResponse(c, httpErr.StatusCode, codeFor(httpErr), httpErr.Detail)
}

func codeFor(err *apperror.HTTPError) string {
	switch {
	case errors.Is(err, apperror.ErrUnauthorized):
		if err.Detail == service.DetailInvalidCredentials {
			return ErrCodeInvalidCredentials
		}
		return ErrCodeUnauthorized
	case errors.Is(err, apperror.ErrForbidden):
		if err.Detail == service.DetailAccountLocked {
			return ErrCodeAccountLocked
		}
		return ErrCodeForbidden
	case errors.Is(err, apperror.ErrNotFound):
		return ErrCodeNotFound
	case errors.Is(err, apperror.ErrConflict):
		return ErrCodeConflict
	case errors.Is(err, apperror.ErrValidation):
		return ErrCodeInvalidRequest
	default:
		return ErrCodeInternalError
	}
}
