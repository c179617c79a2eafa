// dao/group_dao.go
package dao

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	dg_errors "github.com/securenet/dyngroups/errors"
	"github.com/securenet/dyngroups/model"
)

// GroupDAO manages groups and the user_groups membership table.
type GroupDAO struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewGroupDAO(db *gorm.DB, log *zap.Logger) *GroupDAO {
	return &GroupDAO{db: db, log: log}
}

func (dao *GroupDAO) CreateGroup(ctx context.Context, group model.Group) (*model.Group, error) {
	if group.ID == "" {
		group.ID = uuid.New().String()
	}
	if err := dao.db.WithContext(ctx).Create(&group).Error; err != nil {
		dao.log.Error("Failed to create group", zap.Error(err), zap.String("name", group.Name))
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, dg_errors.ErrGroupConflict
		}
		return nil, fmt.Errorf("%w: %v", dg_errors.ErrDatabaseOperation, err)
	}
	dao.log.Info("Group created successfully", zap.String("groupID", group.ID), zap.String("name", group.Name))
	return &group, nil
}

func (dao *GroupDAO) GetGroup(ctx context.Context, groupID string) (*model.Group, error) {
	return dao.findGroup(ctx, "id = ?", groupID)
}

func (dao *GroupDAO) GetGroupByName(ctx context.Context, name string) (*model.Group, error) {
	return dao.findGroup(ctx, "name = ?", name)
}

func (dao *GroupDAO) findGroup(ctx context.Context, where string, arg string) (*model.Group, error) {
	var group model.Group
	err := dao.db.WithContext(ctx).First(&group, where, arg).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, dg_errors.ErrGroupNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", dg_errors.ErrDatabaseOperation, err)
	}
	return &group, nil
}

func (dao *GroupDAO) ListGroups(ctx context.Context) ([]model.Group, error) {
	var groups []model.Group
	if err := dao.db.WithContext(ctx).Order("name ASC").Find(&groups).Error; err != nil {
		return nil, fmt.Errorf("%w: %v", dg_errors.ErrDatabaseOperation, err)
	}
	return groups, nil
}

// ListUserGroups returns the groups userID currently belongs to.
func (dao *GroupDAO) ListUserGroups(ctx context.Context, userID string) ([]model.Group, error) {
	var groups []model.Group
	err := dao.db.WithContext(ctx).
		Model(&model.Group{}).
		Joins("JOIN user_groups ON user_groups.group_id = groups.id").
		Where("user_groups.user_id = ?", userID).
		Order("groups.name ASC").
		Find(&groups).Error
	if err != nil {
		return nil, fmt.Errorf("%w: %v", dg_errors.ErrDatabaseOperation, err)
	}
	return groups, nil
}

// ListMemberships returns every membership row keyed by user ID.
func (dao *GroupDAO) ListMemberships(ctx context.Context) (map[string]map[string]bool, error) {
	var rows []model.GroupMembership
	if err := dao.db.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("%w: %v", dg_errors.ErrDatabaseOperation, err)
	}
	memberships := make(map[string]map[string]bool)
	for _, row := range rows {
		if memberships[row.UserID] == nil {
			memberships[row.UserID] = make(map[string]bool)
		}
		memberships[row.UserID][row.GroupID] = true
	}
	return memberships, nil
}

// AddMember inserts the membership and reports whether a row was created.
// An existing membership is not an error.
func (dao *GroupDAO) AddMember(ctx context.Context, userID, groupID string) (bool, error) {
	membership := model.GroupMembership{UserID: userID, GroupID: groupID}
	result := dao.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Omit(clause.Associations).
		Create(&membership)
	if result.Error != nil {
		dao.log.Error("Failed to add group member",
			zap.Error(result.Error),
			zap.String("userID", userID),
			zap.String("groupID", groupID))
		if errors.Is(result.Error, gorm.ErrForeignKeyViolated) {
			return false, fmt.Errorf("%w: user %s or group %s", dg_errors.ErrGroupNotFound, userID, groupID)
		}
		return false, fmt.Errorf("%w: %v", dg_errors.ErrDatabaseOperation, result.Error)
	}
	return result.RowsAffected == 1, nil
}

// RemoveMember deletes the membership and reports whether a row was removed.
func (dao *GroupDAO) RemoveMember(ctx context.Context, userID, groupID string) (bool, error) {
	result := dao.db.WithContext(ctx).
		Where("user_id = ? AND group_id = ?", userID, groupID).
		Delete(&model.GroupMembership{})
	if result.Error != nil {
		dao.log.Error("Failed to remove group member",
			zap.Error(result.Error),
			zap.String("userID", userID),
			zap.String("groupID", groupID))
		return false, fmt.Errorf("%w: %v", dg_errors.ErrDatabaseOperation, result.Error)
	}
	return result.RowsAffected == 1, nil
}
