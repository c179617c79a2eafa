// dao/user_dao.go
package dao

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	dg_errors "github.com/securenet/dyngroups/errors"
	"github.com/securenet/dyngroups/model"
)

type UserDAO struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewUserDAO(db *gorm.DB, log *zap.Logger) *UserDAO {
	return &UserDAO{db: db, log: log}
}

func (dao *UserDAO) CreateUser(ctx context.Context, user model.User) (*model.User, error) {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	if err := dao.db.WithContext(ctx).Create(&user).Error; err != nil {
		dao.log.Error("Failed to create user", zap.Error(err), zap.String("username", user.Username))
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, dg_errors.ErrUserConflict
		}
		return nil, fmt.Errorf("%w: %v", dg_errors.ErrDatabaseOperation, err)
	}
	dao.log.Info("User created successfully", zap.String("userID", user.ID), zap.String("username", user.Username))
	return &user, nil
}

func (dao *UserDAO) GetUser(ctx context.Context, userID string) (*model.User, error) {
	var user model.User
	err := dao.db.WithContext(ctx).First(&user, "id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, dg_errors.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", dg_errors.ErrDatabaseOperation, err)
	}
	return &user, nil
}

func (dao *UserDAO) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	var user model.User
	err := dao.db.WithContext(ctx).First(&user, "username = ?", username).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, dg_errors.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", dg_errors.ErrDatabaseOperation, err)
	}
	return &user, nil
}

// ListUsers returns every user, active or not, ordered by username.
func (dao *UserDAO) ListUsers(ctx context.Context) ([]model.User, error) {
	var users []model.User
	if err := dao.db.WithContext(ctx).Order("username ASC").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("%w: %v", dg_errors.ErrDatabaseOperation, err)
	}
	return users, nil
}
