package converter

import (
	"accounts/internal/entity/db"
	"accounts/internal/entity/dto"
)

// UserToSummary converts a db.User to dto.UserSummary.
func UserToSummary(u *db.User) dto.UserSummary {
	if u == nil {
		return dto.UserSummary{}
	}
	return dto.UserSummary{
		ID:                  u.ID.String(),
		Nickname:            u.Nickname,
		Email:               u.Email,
		FirstName:           u.FirstName,
		LastName:            u.LastName,
		Bio:                 u.Bio,
		ProfilePictureURL:   u.ProfilePictureURL,
		LinkedInProfileURL:  u.LinkedInProfileURL,
		GitHubProfileURL:    u.GitHubProfileURL,
		Role:                u.Role.Name(),
		IsLocked:            u.IsLocked,
		EmailVerified:       u.EmailVerified,
		FailedLoginAttempts: u.FailedLoginAttempts,
		LastLoginAt:         u.LastLoginAt,
		CreatedAt:           u.CreatedAt,
		UpdatedAt:           u.UpdatedAt,
	}
}

// UsersToSummaries converts a slice of db.User to dto.UserSummary.
func UsersToSummaries(users []db.User) []dto.UserSummary {
	summaries := make([]dto.UserSummary, len(users))
	for i := range users {
		summaries[i] = UserToSummary(&users[i])
	}
	return summaries
}
