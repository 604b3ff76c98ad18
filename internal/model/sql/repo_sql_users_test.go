package sql

import (
	"accounts/internal/entity/db"
	"accounts/internal/entity/dto"
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestRepository(t *testing.T) *GormRepository {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, AutoMigrate(gdb))

	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	return NewGormRepository(gdb)
}

func createTestUser(t *testing.T, repo *GormRepository, nickname string, role db.UserRole) *db.User {
	t.Helper()
	user := db.NewUser(nickname, nickname+"@example.com", "hashed_password")
	user.Role = role
	require.NoError(t, repo.CreateUser(context.Background(), user))
	return user
}

func TestCreateUserAssignsIDAndDefaults(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	user := &db.User{Nickname: "fresh", Email: "fresh@example.com", HashedPassword: "hash"}
	require.NoError(t, repo.CreateUser(ctx, user))
	assert.NotEqual(t, uuid.Nil, user.ID)

	stored, err := repo.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, db.UserRoleAuthenticated, stored.Role)
	assert.False(t, stored.IsLocked)
	assert.False(t, stored.EmailVerified)
	assert.Zero(t, stored.FailedLoginAttempts)
	assert.Nil(t, stored.LastLoginAt)
}

func TestDuplicateNickname(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	existing := createTestUser(t, repo, "john_doe", db.UserRoleAuthenticated)

	duplicate := db.NewUser(existing.Nickname, "newemail@example.com", "hashed_password")
	err := repo.CreateUser(ctx, duplicate)
	require.Error(t, err)
	assert.True(t, errors.Is(err, db.ErrDuplicateUser))
	assert.True(t, errors.Is(err, gorm.ErrDuplicatedKey))

	// the repository stays usable after the failed insert
	other := db.NewUser("someone_else", "else@example.com", "hashed_password")
	require.NoError(t, repo.CreateUser(ctx, other))
}

func TestDuplicateEmail(t *testing.T) {
	repo := newTestRepository(t)
	existing := createTestUser(t, repo, "jane_doe", db.UserRoleAuthenticated)

	duplicate := db.NewUser("newnickname", existing.Email, "hashed_password")
	err := repo.CreateUser(context.Background(), duplicate)
	require.ErrorIs(t, err, db.ErrDuplicateUser)
}

func TestUniqueNicknameAndEmail(t *testing.T) {
	repo := newTestRepository(t)

	user1 := db.NewUser("uniqueuser1", "uniqueemail1@example.com", "hashed_password")
	user2 := db.NewUser("uniqueuser2", "uniqueemail2@example.com", "hashed_password")
	require.NoError(t, repo.CreateUsers(context.Background(), []*db.User{user1, user2}))

	assert.NotEqual(t, uuid.Nil, user1.ID)
	assert.NotEqual(t, uuid.Nil, user2.ID)
	assert.NotEqual(t, user1.ID, user2.ID)
}

func TestCreateUsersIsAllOrNothing(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	users := []*db.User{
		db.NewUser("batch1", "batch1@example.com", "hash"),
		db.NewUser("batch1", "batch2@example.com", "hash"),
	}
	require.ErrorIs(t, repo.CreateUsers(ctx, users), db.ErrDuplicateUser)

	count, err := repo.CountUsers(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestUserRolesPersist(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	for _, role := range []db.UserRole{db.UserRoleAuthenticated, db.UserRoleAdmin, db.UserRoleManager} {
		created := createTestUser(t, repo, "role_"+string(role), role)
		stored, err := repo.GetUserByID(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, role, stored.Role)
		assert.True(t, stored.HasRole(role))
	}
}

func TestCreateUserRejectsUnknownRole(t *testing.T) {
	repo := newTestRepository(t)
	user := db.NewUser("rogue", "rogue@example.com", "hash")
	user.Role = db.UserRole("ROOT")
	require.Error(t, repo.CreateUser(context.Background(), user))
}

func TestSaveUserPersistsMutations(t *testing.T) {
	picture := "http://myprofile/picture.png"
	linkedin := "http://www.linkedin.com/profile"
	github := "http://www.github.com/profile"
	lastLogin := time.Now().UTC()

	tests := []struct {
		name   string
		mutate func(u *db.User)
		check  func(t *testing.T, u *db.User)
	}{
		{
			name:   "failed login attempts increment",
			mutate: func(u *db.User) { u.FailedLoginAttempts++ },
			check:  func(t *testing.T, u *db.User) { assert.Equal(t, 1, u.FailedLoginAttempts) },
		},
		{
			name:   "last login update",
			mutate: func(u *db.User) { u.LastLoginAt = &lastLogin },
			check: func(t *testing.T, u *db.User) {
				require.NotNil(t, u.LastLoginAt)
				assert.True(t, u.LastLoginAt.Equal(lastLogin), "got %v want %v", u.LastLoginAt, lastLogin)
			},
		},
		{
			name:   "account lock",
			mutate: func(u *db.User) { u.LockAccount() },
			check:  func(t *testing.T, u *db.User) { assert.True(t, u.IsLocked) },
		},
		{
			name:   "email verification",
			mutate: func(u *db.User) { u.VerifyEmail() },
			check:  func(t *testing.T, u *db.User) { assert.True(t, u.EmailVerified) },
		},
		{
			name:   "profile picture url",
			mutate: func(u *db.User) { u.ProfilePictureURL = &picture },
			check: func(t *testing.T, u *db.User) {
				require.NotNil(t, u.ProfilePictureURL)
				assert.Equal(t, picture, *u.ProfilePictureURL)
			},
		},
		{
			name:   "linkedin url",
			mutate: func(u *db.User) { u.LinkedInProfileURL = &linkedin },
			check: func(t *testing.T, u *db.User) {
				require.NotNil(t, u.LinkedInProfileURL)
				assert.Equal(t, linkedin, *u.LinkedInProfileURL)
			},
		},
		{
			name:   "github url",
			mutate: func(u *db.User) { u.GitHubProfileURL = &github },
			check: func(t *testing.T, u *db.User) {
				require.NotNil(t, u.GitHubProfileURL)
				assert.Equal(t, github, *u.GitHubProfileURL)
			},
		},
		{
			name:   "role update",
			mutate: func(u *db.User) { u.Role = db.UserRoleAdmin },
			check:  func(t *testing.T, u *db.User) { assert.Equal(t, db.UserRoleAdmin, u.Role) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newTestRepository(t)
			ctx := context.Background()
			user := createTestUser(t, repo, "mutable", db.UserRoleAuthenticated)

			tt.mutate(user)
			require.NoError(t, repo.SaveUser(ctx, user))

			refreshed, err := repo.GetUserByID(ctx, user.ID)
			require.NoError(t, err)
			tt.check(t, refreshed)
		})
	}
}

func TestLockThenUnlockPersists(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	user := createTestUser(t, repo, "lockable", db.UserRoleAuthenticated)
	require.False(t, user.IsLocked)

	user.LockAccount()
	require.NoError(t, repo.SaveUser(ctx, user))
	refreshed, err := repo.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, refreshed.IsLocked)

	refreshed.UnlockAccount()
	require.NoError(t, repo.SaveUser(ctx, refreshed))
	refreshed, err = repo.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.False(t, refreshed.IsLocked)
}

func TestSaveUserDuplicateNickname(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	createTestUser(t, repo, "taken", db.UserRoleAuthenticated)
	user := createTestUser(t, repo, "free", db.UserRoleAuthenticated)

	user.Nickname = "taken"
	require.ErrorIs(t, repo.SaveUser(ctx, user), db.ErrDuplicateUser)
}

func TestSaveUserMissing(t *testing.T) {
	repo := newTestRepository(t)
	ghost := db.NewUser("ghost", "ghost@example.com", "hash")
	ghost.ID = uuid.New()
	require.ErrorIs(t, repo.SaveUser(context.Background(), ghost), gorm.ErrRecordNotFound)
}

func TestLookups(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	user := createTestUser(t, repo, "lookup", db.UserRoleAuthenticated)

	byNickname, err := repo.GetUserByNickname(ctx, "lookup")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byNickname.ID)

	byEmail, err := repo.GetUserByEmail(ctx, "LOOKUP@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byEmail.ID)

	_, err = repo.GetUserByID(ctx, uuid.New())
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	_, err = repo.GetUserByNickname(ctx, "  ")
	assert.Error(t, err)
}

func TestListUsers(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	createTestUser(t, repo, "alice", db.UserRoleAdmin)
	createTestUser(t, repo, "bob", db.UserRoleAuthenticated)
	createTestUser(t, repo, "carol", db.UserRoleAuthenticated)

	users, meta, err := repo.ListUsers(ctx, &dto.UserQuery{Role: "authenticated"})
	require.NoError(t, err)
	assert.Len(t, users, 2)
	assert.Equal(t, int64(2), meta.Total)

	users, _, err = repo.ListUsers(ctx, &dto.UserQuery{Keyword: "ALI"})
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "alice", users[0].Nickname)

	query := &dto.UserQuery{}
	query.PageSize = 2
	query.Page = 2
	users, meta, err = repo.ListUsers(ctx, query)
	require.NoError(t, err)
	assert.Len(t, users, 1)
	assert.Equal(t, int64(3), meta.Total)

	_, _, err = repo.ListUsers(ctx, &dto.UserQuery{Role: "root"})
	assert.Error(t, err)
}
