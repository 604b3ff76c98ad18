package dto

import (
	"accounts/internal/entity/common"
	"time"
)

// UserSummary is a lightweight user description returned to clients.
type UserSummary struct {
	ID                  string     `json:"id"`
	Nickname            string     `json:"nickname"`
	Email               string     `json:"email"`
	FirstName           *string    `json:"first_name,omitempty"`
	LastName            *string    `json:"last_name,omitempty"`
	Bio                 *string    `json:"bio,omitempty"`
	ProfilePictureURL   *string    `json:"profile_picture_url,omitempty"`
	LinkedInProfileURL  *string    `json:"linkedin_profile_url,omitempty"`
	GitHubProfileURL    *string    `json:"github_profile_url,omitempty"`
	Role                string     `json:"role"`
	IsLocked            bool       `json:"is_locked"`
	EmailVerified       bool       `json:"email_verified"`
	FailedLoginAttempts int        `json:"failed_login_attempts"`
	LastLoginAt         *time.Time `json:"last_login_at,omitempty"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

// UserQuery supports listing users with pagination.
type UserQuery struct {
	common.BaseParams
	Role    string `json:"role" form:"role" query:"role"`
	Keyword string `json:"keyword" form:"keyword" query:"keyword"`
}

// ProfileUpdateRequest is the payload for updating the caller's own profile.
type ProfileUpdateRequest struct {
	Nickname           *string `json:"nickname,omitempty"`
	FirstName          *string `json:"first_name,omitempty"`
	LastName           *string `json:"last_name,omitempty"`
	Bio                *string `json:"bio,omitempty"`
	ProfilePictureURL  *string `json:"profile_picture_url,omitempty"`
	LinkedInProfileURL *string `json:"linkedin_profile_url,omitempty"`
	GitHubProfileURL   *string `json:"github_profile_url,omitempty"`
}

// RoleUpdateRequest is the payload for changing a user's role.
type RoleUpdateRequest struct {
	Role string `json:"role" binding:"required"`
}

// UserListResponse is the response for listing users.
type UserListResponse struct {
	Users []UserSummary `json:"users"`
	Meta  *common.Meta  `json:"meta"`
}

// ProfilePictureRequest carries an inline image as base64 or a data URL.
type ProfilePictureRequest struct {
	Image string `json:"image" binding:"required"`
}
