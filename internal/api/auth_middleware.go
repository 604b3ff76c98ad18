package api

import (
	"accounts/internal/apperror"
	"accounts/internal/auth"
	"accounts/internal/entity/db"
	"accounts/internal/metrics"
	"accounts/internal/service"
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	currentUserContextKey = "current-user"
)

// RequestUser 存储请求上下文中的认证用户信息
type RequestUser struct {
	ID       uuid.UUID
	Nickname string
	Role     db.UserRole
}

// HasAnyRole reports whether the user holds one of roles.
func (u *RequestUser) HasAnyRole(roles ...db.UserRole) bool {
	if u == nil {
		return false
	}
	for _, role := range roles {
		if u.Role == role {
			return true
		}
	}
	return false
}

// AuthMiddleware JWT 认证中间件。令牌校验失败时原样返回 401 详情。
func (h *HTTPHandler) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := strings.TrimSpace(c.GetHeader("Authorization"))
		if authHeader == "" {
			Unauthorized(c, "Not authenticated")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
			Unauthorized(c, "Invalid authorization header")
			return
		}

		claims, err := h.tokens.VerifyAccessToken(strings.TrimSpace(parts[1]))
		if err != nil {
			recordTokenFailure(err)
			var httpErr *apperror.HTTPError
			if errors.As(err, &httpErr) {
				code := ErrCodeUnauthorized
				if httpErr.Detail == auth.DetailTokenExpired {
					code = ErrCodeSessionExpired
				}
				ErrorResponse(c, httpErr.StatusCode, code, httpErr.Detail)
				return
			}
			RenderError(c, err, "failed to verify token")
			return
		}

		userID, err := uuid.Parse(claims.Subject())
		if err != nil {
			metrics.RecordTokenVerification(metrics.ResultInvalid)
			Unauthorized(c, auth.DetailTokenInvalid)
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()

		user, err := h.accounts.GetUser(ctx, userID)
		if err != nil {
			if errors.Is(err, apperror.ErrNotFound) {
				metrics.RecordTokenVerification(metrics.ResultInvalid)
				Unauthorized(c, auth.DetailTokenInvalid)
				return
			}
			logrus.WithError(err).WithField("user_id", userID).Error("failed to load user")
			InternalError(c, "failed to load user")
			return
		}
		if user.IsLocked {
			metrics.RecordTokenVerification(metrics.ResultLocked)
			ErrorResponse(c, http.StatusForbidden, ErrCodeAccountLocked, service.DetailAccountLocked)
			return
		}

		metrics.RecordTokenVerification(metrics.ResultSuccess)
		c.Set(currentUserContextKey, &RequestUser{
			ID:       user.ID,
			Nickname: user.Nickname,
			Role:     user.Role,
		})
		c.Next()
	}
}

func recordTokenFailure(err error) {
	var httpErr *apperror.HTTPError
	if errors.As(err, &httpErr) && httpErr.Detail == auth.DetailTokenExpired {
		metrics.RecordTokenVerification(metrics.ResultExpired)
		return
	}
	metrics.RecordTokenVerification(metrics.ResultInvalid)
}

// RequireRoles 角色守卫中间件，须位于 AuthMiddleware 之后
func RequireRoles(roles ...db.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := CurrentUser(c)
		if user == nil {
			Unauthorized(c, "Not authenticated")
			return
		}
		if !user.HasAnyRole(roles...) {
			Forbidden(c, "insufficient permissions")
			return
		}
		c.Next()
	}
}

// CurrentUser 从上下文获取当前认证用户
func CurrentUser(c *gin.Context) *RequestUser {
	value, exists := c.Get(currentUserContextKey)
	if !exists {
		return nil
	}
	user, ok := value.(*RequestUser)
	if !ok {
		return nil
	}
	return user
}
