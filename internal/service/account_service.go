package service

import (
	"accounts/internal/apperror"
	"accounts/internal/auth"
	"accounts/internal/entity/common"
	"accounts/internal/entity/db"
	"accounts/internal/entity/dto"
	"accounts/internal/metrics"
	"accounts/internal/model"
	"accounts/internal/storage"
	"accounts/internal/utils"
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const (
	minPasswordLength = 8
	maxNicknameLength = 50

	// MaxProfilePictureBytes caps decoded profile picture uploads.
	MaxProfilePictureBytes = 5 << 20

	profilePictureCategory = "pictures"
)

const (
	// DetailInvalidCredentials is shared by unknown email and wrong password
	// so the response does not reveal which accounts exist.
	DetailInvalidCredentials = "invalid email or password"
	DetailAccountLocked      = "account locked"
)

// AccountOptions tunes AccountService behaviour.
type AccountOptions struct {
	// MaxLoginAttempts locks an account after this many consecutive
	// failures. Zero disables lockout.
	MaxLoginAttempts int
	// PublicBaseURL prefixes stored object keys to form picture URLs.
	PublicBaseURL string
}

// LoginResult is returned by a successful Login.
type LoginResult struct {
	User        *db.User
	AccessToken string
	ExpiresAt   time.Time
}

// AccountService 账户服务，封装注册、登录与用户管理的业务逻辑
type AccountService struct {
	repo    model.Repository
	hasher  *auth.Hasher
	tokens  *auth.Manager
	storage storage.Storage
	opts    AccountOptions

	now      func() time.Time
	newToken func() string
}

// NewAccountService 创建账户服务实例。store 可以为 nil，此时头像上传不可用。
func NewAccountService(repo model.Repository, hasher *auth.Hasher, tokens *auth.Manager, store storage.Storage, opts AccountOptions) *AccountService {
	return &AccountService{
		repo:     repo,
		hasher:   hasher,
		tokens:   tokens,
		storage:  store,
		opts:     opts,
		now:      time.Now,
		newToken: func() string { return strings.ReplaceAll(uuid.NewString(), "-", "") },
	}
}

// Register creates an account. The first account ever created becomes ADMIN.
func (s *AccountService) Register(ctx context.Context, req dto.AuthRegisterRequest) (*db.User, error) {
	nickname := strings.TrimSpace(req.Nickname)
	email := normalizeEmail(req.Email)

	if nickname == "" {
		return nil, apperror.Validation("nickname is required")
	}
	if len(nickname) > maxNicknameLength {
		return nil, apperror.Validation(fmt.Sprintf("nickname must be at most %d characters", maxNicknameLength))
	}
	if email == "" || !strings.Contains(email, "@") {
		return nil, apperror.Validation("a valid email is required")
	}
	if len(req.Password) < minPasswordLength {
		return nil, apperror.Validation(fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}

	if err := s.ensureAvailable(ctx, nickname, email); err != nil {
		return nil, err
	}

	hashed, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := db.NewUser(nickname, email, hashed)
	user.FirstName = trimmedOrNil(req.FirstName)
	user.LastName = trimmedOrNil(req.LastName)
	token := s.newToken()
	user.VerificationToken = &token

	total, err := s.repo.CountUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("count users: %w", err)
	}
	if total == 0 {
		user.Role = db.UserRoleAdmin
	}

	if err := s.repo.CreateUser(ctx, user); err != nil {
		if errors.Is(err, db.ErrDuplicateUser) {
			return nil, apperror.Conflict("nickname or email already registered")
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"user_id": user.ID,
		"role":    user.Role,
	}).Info("user registered")
	logrus.WithFields(logrus.Fields{
		"user_id": user.ID,
		"token":   token,
	}).Debug("email verification token issued")
	return user, nil
}

func (s *AccountService) ensureAvailable(ctx context.Context, nickname, email string) error {
	if _, err := s.repo.GetUserByNickname(ctx, nickname); err == nil {
		return apperror.Conflict("nickname already registered")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("lookup nickname: %w", err)
	}
	if _, err := s.repo.GetUserByEmail(ctx, email); err == nil {
		return apperror.Conflict("email already registered")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("lookup email: %w", err)
	}
	return nil
}

// Login checks credentials and issues an access token. Each wrong password
// counts towards the lockout threshold.
func (s *AccountService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	user, err := s.repo.GetUserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			metrics.RecordLoginAttempt(metrics.ResultFailure)
			return nil, apperror.Unauthorized(DetailInvalidCredentials)
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	if user.IsLocked {
		metrics.RecordLoginAttempt(metrics.ResultLocked)
		return nil, apperror.Forbidden(DetailAccountLocked)
	}

	ok, err := s.hasher.Verify(password, user.HashedPassword)
	if err != nil {
		logrus.WithError(err).WithField("user_id", user.ID).Error("stored password hash is unusable")
		return nil, fmt.Errorf("verify password: %w", err)
	}
	if !ok {
		locked := user.RecordFailedLogin(s.opts.MaxLoginAttempts)
		if err := s.repo.SaveUser(ctx, user); err != nil {
			return nil, fmt.Errorf("record failed login: %w", err)
		}
		if locked {
			logrus.WithField("user_id", user.ID).Warn("account locked after repeated login failures")
			metrics.RecordLoginAttempt(metrics.ResultLocked)
			return nil, apperror.Forbidden(DetailAccountLocked)
		}
		metrics.RecordLoginAttempt(metrics.ResultFailure)
		return nil, apperror.Unauthorized(DetailInvalidCredentials)
	}

	now := s.now().UTC()
	user.RecordSuccessfulLogin(now)
	if err := s.repo.SaveUser(ctx, user); err != nil {
		return nil, fmt.Errorf("record login: %w", err)
	}

	expiry := s.tokens.DefaultExpiry()
	token, err := s.tokens.CreateAccessToken(auth.Claims{
		"sub":  user.ID.String(),
		"role": user.Role.Name(),
	}, expiry)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}

	metrics.RecordLoginAttempt(metrics.ResultSuccess)
	return &LoginResult{User: user, AccessToken: token, ExpiresAt: now.Add(expiry)}, nil
}

// VerifyEmail consumes the one-shot verification token. Anonymous accounts
// are promoted to AUTHENTICATED.
func (s *AccountService) VerifyEmail(ctx context.Context, id uuid.UUID, token string) (*db.User, error) {
	user, err := s.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	if user.EmailVerified {
		return user, nil
	}
	token = strings.TrimSpace(token)
	if token == "" || user.VerificationToken == nil || *user.VerificationToken != token {
		return nil, apperror.Validation("invalid verification token")
	}

	user.VerifyEmail()
	user.VerificationToken = nil
	if user.HasRole(db.UserRoleAnonymous) {
		user.Role = db.UserRoleAuthenticated
	}
	if err := s.repo.SaveUser(ctx, user); err != nil {
		return nil, fmt.Errorf("save user: %w", err)
	}
	return user, nil
}

// UpdateProfile applies the non-nil fields of req. An empty string clears an
// optional field.
func (s *AccountService) UpdateProfile(ctx context.Context, id uuid.UUID, req dto.ProfileUpdateRequest) (*db.User, error) {
	user, err := s.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Nickname != nil {
		nickname := strings.TrimSpace(*req.Nickname)
		if nickname == "" || len(nickname) > maxNicknameLength {
			return nil, apperror.Validation(fmt.Sprintf("nickname must be 1-%d characters", maxNicknameLength))
		}
		user.Nickname = nickname
	}
	if req.FirstName != nil {
		user.FirstName = trimmedOrNil(req.FirstName)
	}
	if req.LastName != nil {
		user.LastName = trimmedOrNil(req.LastName)
	}
	if req.Bio != nil {
		user.Bio = trimmedOrNil(req.Bio)
	}

	urlFields := []struct {
		name   string
		value  *string
		target **string
	}{
		{"profile_picture_url", req.ProfilePictureURL, &user.ProfilePictureURL},
		{"linkedin_profile_url", req.LinkedInProfileURL, &user.LinkedInProfileURL},
		{"github_profile_url", req.GitHubProfileURL, &user.GitHubProfileURL},
	}
	for _, field := range urlFields {
		if field.value == nil {
			continue
		}
		value := trimmedOrNil(field.value)
		if value != nil && !isWebURL(*value) {
			return nil, apperror.Validation(field.name + " must be an http or https URL")
		}
		*field.target = value
	}

	if err := s.save(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// ChangeRole sets the role of the user identified by id.
func (s *AccountService) ChangeRole(ctx context.Context, id uuid.UUID, roleName string) (*db.User, error) {
	role, err := db.ParseUserRole(roleName)
	if err != nil {
		return nil, apperror.Validation(err.Error())
	}
	user, err := s.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	if user.HasRole(role) {
		return user, nil
	}
	previous := user.Role
	user.Role = role
	if err := s.save(ctx, user); err != nil {
		return nil, err
	}
	logrus.WithFields(logrus.Fields{"user_id": id, "from": previous, "to": role}).Info("user role changed")
	return user, nil
}

// LockUser locks an account. Locking a locked account is a no-op.
func (s *AccountService) LockUser(ctx context.Context, id uuid.UUID) (*db.User, error) {
	user, err := s.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	user.LockAccount()
	if err := s.save(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// UnlockUser unlocks an account and clears its failed login counter.
func (s *AccountService) UnlockUser(ctx context.Context, id uuid.UUID) (*db.User, error) {
	user, err := s.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	user.UnlockAccount()
	user.FailedLoginAttempts = 0
	if err := s.save(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// UploadProfilePicture decodes an inline base64 or data URL image, stores it
// and points ProfilePictureURL at the stored object. The object previously
// uploaded by this user, tracked by ProfilePictureKey, is deleted.
func (s *AccountService) UploadProfilePicture(ctx context.Context, id uuid.UUID, payload string) (*db.User, error) {
	if s.storage == nil {
		return nil, errors.New("storage is not configured")
	}
	data, ext, err := utils.DecodeImagePayload(payload, MaxProfilePictureBytes)
	if err != nil {
		return nil, apperror.Validation(err.Error())
	}

	user, err := s.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	previousKey := user.ProfilePictureKey

	key, err := s.storage.Save(ctx, data, storage.SaveOptions{
		Category:  profilePictureCategory,
		BaseName:  fmt.Sprintf("%s-%d", user.ID, s.now().UnixNano()),
		Extension: ext,
	})
	if err != nil {
		return nil, fmt.Errorf("store profile picture: %w", err)
	}

	publicURL := storage.PublicURL(s.opts.PublicBaseURL, key)
	user.ProfilePictureURL = &publicURL
	user.ProfilePictureKey = &key
	if err := s.save(ctx, user); err != nil {
		return nil, err
	}

	if previousKey != nil && *previousKey != key {
		s.removeStoredPicture(ctx, *previousKey)
	}
	return user, nil
}

// removeStoredPicture deletes an object written by UploadProfilePicture.
// Failures are logged only.
func (s *AccountService) removeStoredPicture(ctx context.Context, key string) {
	deleter, ok := s.storage.(storage.Deleter)
	if !ok {
		return
	}
	if err := deleter.Delete(ctx, key); err != nil {
		logrus.WithError(err).WithField("key", key).Warn("failed to delete previous profile picture")
	}
}

// GetUser 根据 ID 获取用户
func (s *AccountService) GetUser(ctx context.Context, id uuid.UUID) (*db.User, error) {
	if id == uuid.Nil {
		return nil, apperror.NotFound("user not found")
	}
	user, err := s.repo.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("user not found")
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

// ListUsers 分页获取用户列表
func (s *AccountService) ListUsers(ctx context.Context, query *dto.UserQuery) ([]db.User, *common.Meta, error) {
	if query == nil {
		query = &dto.UserQuery{}
	}
	if strings.TrimSpace(query.Role) != "" {
		if _, err := db.ParseUserRole(query.Role); err != nil {
			return nil, nil, apperror.Validation(err.Error())
		}
	}
	users, meta, err := s.repo.ListUsers(ctx, query)
	if err != nil {
		return nil, nil, fmt.Errorf("list users: %w", err)
	}
	return users, meta, nil
}

func (s *AccountService) save(ctx context.Context, user *db.User) error {
	if err := s.repo.SaveUser(ctx, user); err != nil {
		switch {
		case errors.Is(err, db.ErrDuplicateUser):
			return apperror.Conflict("nickname or email already registered")
		case errors.Is(err, gorm.ErrRecordNotFound):
			return apperror.NotFound("user not found")
		default:
			return fmt.Errorf("save user: %w", err)
		}
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func trimmedOrNil(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func isWebURL(raw string) bool {
	parsed, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (parsed.Scheme == "http" || parsed.Scheme == "https") && parsed.Host != ""
}
