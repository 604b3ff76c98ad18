package api

import (
	"accounts/internal/entity/converter"
	"accounts/internal/entity/dto"
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// UpdateMe 更新当前用户的个人资料
func (h *HTTPHandler) UpdateMe(c *gin.Context) {
	current := CurrentUser(c)
	if current == nil {
		Unauthorized(c, "Not authenticated")
		return
	}

	var req dto.ProfileUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		InvalidPayload(c)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	user, err := h.accounts.UpdateProfile(ctx, current.ID, req)
	if err != nil {
		RenderError(c, err, "failed to update profile")
		return
	}
	c.JSON(http.StatusOK, converter.UserToSummary(user))
}

// UploadMyPicture 上传当前用户的头像
func (h *HTTPHandler) UploadMyPicture(c *gin.Context) {
	current := CurrentUser(c)
	if current == nil {
		Unauthorized(c, "Not authenticated")
		return
	}

	var req dto.ProfilePictureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		MissingField(c, "image")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 4*requestTimeout)
	defer cancel()

	user, err := h.accounts.UploadProfilePicture(ctx, current.ID, req.Image)
	if err != nil {
		RenderError(c, err, "failed to upload profile picture")
		return
	}
	c.JSON(http.StatusOK, converter.UserToSummary(user))
}

func (h *HTTPHandler) ListUsers(c *gin.Context) {
	var query dto.UserQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		BadRequest(c, ErrCodeInvalidRequest, "invalid query parameters")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	users, meta, err := h.accounts.ListUsers(ctx, &query)
	if err != nil {
		RenderError(c, err, "failed to load users")
		return
	}

	c.JSON(http.StatusOK, dto.UserListResponse{
		Users: converter.UsersToSummaries(users),
		Meta:  meta,
	})
}

func (h *HTTPHandler) GetUser(c *gin.Context) {
	id, ok := parseUserID(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	user, err := h.accounts.GetUser(ctx, id)
	if err != nil {
		RenderError(c, err, "failed to load user")
		return
	}
	c.JSON(http.StatusOK, converter.UserToSummary(user))
}

// UpdateUserRole 修改用户角色，仅管理员可用，且不能修改自己的角色
func (h *HTTPHandler) UpdateUserRole(c *gin.Context) {
	id, ok := parseUserID(c)
	if !ok {
		return
	}
	if current := CurrentUser(c); current != nil && current.ID == id {
		BadRequest(c, ErrCodeCannotModifySelf, "cannot change your own role")
		return
	}

	var req dto.RoleUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		MissingField(c, "role")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	user, err := h.accounts.ChangeRole(ctx, id, req.Role)
	if err != nil {
		RenderError(c, err, "failed to update role")
		return
	}
	c.JSON(http.StatusOK, converter.UserToSummary(user))
}

// LockUser 锁定账户。目标角色高于调用者时拒绝
func (h *HTTPHandler) LockUser(c *gin.Context) {
	id, ok := parseUserID(c)
	if !ok {
		return
	}
	if current := CurrentUser(c); current != nil && current.ID == id {
		BadRequest(c, ErrCodeCannotModifySelf, "cannot lock your own account")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	if !h.canManage(ctx, c, id) {
		return
	}
	user, err := h.accounts.LockUser(ctx, id)
	if err != nil {
		RenderError(c, err, "failed to lock user")
		return
	}
	c.JSON(http.StatusOK, converter.UserToSummary(user))
}

// UnlockUser 解锁账户，规则同 LockUser
func (h *HTTPHandler) UnlockUser(c *gin.Context) {
	id, ok := parseUserID(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	if !h.canManage(ctx, c, id) {
		return
	}
	user, err := h.accounts.UnlockUser(ctx, id)
	if err != nil {
		RenderError(c, err, "failed to unlock user")
		return
	}
	c.JSON(http.StatusOK, converter.UserToSummary(user))
}

// canManage loads the target user and refuses the request when the target's
// role is above the caller's. It writes the error response itself.
func (h *HTTPHandler) canManage(ctx context.Context, c *gin.Context, id uuid.UUID) bool {
	current := CurrentUser(c)
	if current == nil {
		Unauthorized(c, "Not authenticated")
		return false
	}
	target, err := h.accounts.GetUser(ctx, id)
	if err != nil {
		RenderError(c, err, "failed to load user")
		return false
	}
	if target.Role.Outranks(current.Role) {
		Forbidden(c, "cannot manage a user with a higher role")
		return false
	}
	return true
}
