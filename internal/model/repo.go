package model

import (
	"accounts/internal/entity/common"
	"accounts/internal/entity/db"
	"accounts/internal/entity/dto"
	"context"

	"github.com/google/uuid"
)

// Repository 定义数据库操作接口
type Repository interface {
	// CreateUser inserts user and assigns its ID. A nickname or email
	// collision returns db.ErrDuplicateUser.
	CreateUser(ctx context.Context, user *db.User) error
	// CreateUsers inserts all users or none of them.
	CreateUsers(ctx context.Context, users []*db.User) error
	// SaveUser persists every mutable field of an existing user.
	SaveUser(ctx context.Context, user *db.User) error
	GetUserByID(ctx context.Context, id uuid.UUID) (*db.User, error)
	GetUserByNickname(ctx context.Context, nickname string) (*db.User, error)
	GetUserByEmail(ctx context.Context, email string) (*db.User, error)
	ListUsers(ctx context.Context, params *dto.UserQuery) ([]db.User, *common.Meta, error)
	CountUsers(ctx context.Context) (int64, error)
}
