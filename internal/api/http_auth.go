package api

import (
	"accounts/internal/entity/converter"
	"accounts/internal/entity/dto"
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func (h *HTTPHandler) Register(c *gin.Context) {
	var req dto.AuthRegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		InvalidPayload(c)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	user, err := h.accounts.Register(ctx, req)
	if err != nil {
		RenderError(c, err, "failed to register user")
		return
	}

	c.JSON(http.StatusCreated, converter.UserToSummary(user))
}

func (h *HTTPHandler) Login(c *gin.Context) {
	var req dto.AuthLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		InvalidPayload(c)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	result, err := h.accounts.Login(ctx, req.Email, req.Password)
	if err != nil {
		RenderError(c, err, "failed to log in")
		return
	}

	c.JSON(http.StatusOK, dto.AuthResponse{
		AccessToken: result.AccessToken,
		TokenType:   "bearer",
		ExpiresAt:   result.ExpiresAt,
		User:        converter.UserToSummary(result.User),
	})
}

func (h *HTTPHandler) VerifyEmail(c *gin.Context) {
	id, ok := parseUserID(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	user, err := h.accounts.VerifyEmail(ctx, id, c.Param("token"))
	if err != nil {
		RenderError(c, err, "failed to verify email")
		return
	}

	c.JSON(http.StatusOK, converter.UserToSummary(user))
}

func (h *HTTPHandler) Me(c *gin.Context) {
	current := CurrentUser(c)
	if current == nil {
		Unauthorized(c, "Not authenticated")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	user, err := h.accounts.GetUser(ctx, current.ID)
	if err != nil {
		RenderError(c, err, "failed to load profile")
		return
	}

	c.JSON(http.StatusOK, converter.UserToSummary(user))
}

// parseUserID reads the :id path parameter and writes a 400 when it is not
// a UUID.
func parseUserID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(strings.TrimSpace(c.Param("id")))
	if err != nil {
		BadRequest(c, ErrCodeInvalidUserID, "invalid user id")
		return uuid.Nil, false
	}
	return id, true
}
