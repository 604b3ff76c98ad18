package db

import (
	"database/sql/driver"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UserRole is the authorization level attached to a user.
type UserRole string

const (
	UserRoleAnonymous     UserRole = "ANONYMOUS"
	UserRoleAuthenticated UserRole = "AUTHENTICATED"
	UserRoleManager       UserRole = "MANAGER"
	UserRoleAdmin         UserRole = "ADMIN"
)

var userRoles = []UserRole{
	UserRoleAnonymous,
	UserRoleAuthenticated,
	UserRoleManager,
	UserRoleAdmin,
}

// UserRoles lists every known role.
func UserRoles() []UserRole {
	out := make([]UserRole, len(userRoles))
	copy(out, userRoles)
	return out
}

// ParseUserRole accepts a role name in any letter case.
func ParseUserRole(value string) (UserRole, error) {
	role := UserRole(strings.ToUpper(strings.TrimSpace(value)))
	if !role.Valid() {
		return "", fmt.Errorf("unknown user role %q", value)
	}
	return role, nil
}

func (r UserRole) Valid() bool {
	for _, known := range userRoles {
		if r == known {
			return true
		}
	}
	return false
}

// Rank orders roles from ANONYMOUS (0) to ADMIN. Unknown roles rank -1.
func (r UserRole) Rank() int {
	for i, known := range userRoles {
		if r == known {
			return i
		}
	}
	return -1
}

// Outranks reports whether r is strictly above other.
func (r UserRole) Outranks(other UserRole) bool {
	return r.Rank() > other.Rank()
}

func (r UserRole) Name() string {
	return string(r)
}

// Value implements driver.Valuer and refuses to persist unknown roles.
func (r UserRole) Value() (driver.Value, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("unknown user role %q", string(r))
	}
	return string(r), nil
}

// Scan implements sql.Scanner.
func (r *UserRole) Scan(value interface{}) error {
	var raw string
	switch v := value.(type) {
	case string:
		raw = v
	case []byte:
		raw = string(v)
	default:
		return fmt.Errorf("unsupported type for UserRole: %T", value)
	}
	role, err := ParseUserRole(raw)
	if err != nil {
		return err
	}
	*r = role
	return nil
}

// User is a persisted user account.
type User struct {
	ID                  uuid.UUID  `gorm:"column:id;type:varchar(36);primaryKey" json:"id"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
	Nickname            string     `gorm:"column:nickname;type:varchar(50);uniqueIndex;not null" json:"nickname"`
	Email               string     `gorm:"column:email;type:varchar(255);uniqueIndex;not null" json:"email"`
	HashedPassword      string     `gorm:"column:hashed_password;type:varchar(255);not null" json:"-"`
	FirstName           *string    `gorm:"column:first_name;type:varchar(100)" json:"first_name,omitempty"`
	LastName            *string    `gorm:"column:last_name;type:varchar(100)" json:"last_name,omitempty"`
	Bio                 *string    `gorm:"column:bio;type:varchar(500)" json:"bio,omitempty"`
	ProfilePictureURL   *string    `gorm:"column:profile_picture_url;type:varchar(255)" json:"profile_picture_url,omitempty"`
	ProfilePictureKey   *string    `gorm:"column:profile_picture_key;type:varchar(255)" json:"-"`
	LinkedInProfileURL  *string    `gorm:"column:linkedin_profile_url;type:varchar(255)" json:"linkedin_profile_url,omitempty"`
	GitHubProfileURL    *string    `gorm:"column:github_profile_url;type:varchar(255)" json:"github_profile_url,omitempty"`
	Role                UserRole   `gorm:"column:role;type:varchar(20);index;not null" json:"role"`
	FailedLoginAttempts int        `gorm:"column:failed_login_attempts;not null;default:0" json:"failed_login_attempts"`
	LastLoginAt         *time.Time `gorm:"column:last_login_at" json:"last_login_at,omitempty"`
	IsLocked            bool       `gorm:"column:is_locked;not null;default:false" json:"is_locked"`
	EmailVerified       bool       `gorm:"column:email_verified;not null;default:false" json:"email_verified"`
	VerificationToken   *string    `gorm:"column:verification_token;type:varchar(64)" json:"-"`
}

// TableName 指定表名。
func (User) TableName() string {
	return "users"
}

// NewUser returns an unlocked, unverified AUTHENTICATED user.
func NewUser(nickname, email, hashedPassword string) *User {
	return &User{
		Nickname:       nickname,
		Email:          email,
		HashedPassword: hashedPassword,
		Role:           UserRoleAuthenticated,
	}
}

// BeforeCreate assigns the identifier and the default role.
func (u *User) BeforeCreate(_ *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if u.Role == "" {
		u.Role = UserRoleAuthenticated
	}
	return nil
}

func (u *User) HasRole(role UserRole) bool {
	return u.Role == role
}

func (u *User) LockAccount() {
	u.IsLocked = true
}

func (u *User) UnlockAccount() {
	u.IsLocked = false
}

func (u *User) VerifyEmail() {
	u.EmailVerified = true
}

// RecordFailedLogin bumps the failure counter and locks the account once it
// reaches maxAttempts. A non-positive maxAttempts never locks.
func (u *User) RecordFailedLogin(maxAttempts int) bool {
	u.FailedLoginAttempts++
	if maxAttempts > 0 && u.FailedLoginAttempts >= maxAttempts {
		u.LockAccount()
	}
	return u.IsLocked
}

// RecordSuccessfulLogin resets the failure counter and stamps the login time.
func (u *User) RecordSuccessfulLogin(at time.Time) {
	u.FailedLoginAttempts = 0
	u.LastLoginAt = &at
}

func (u *User) String() string {
	return fmt.Sprintf("<User %s, Role: %s>", u.Nickname, u.Role.Name())
}
