// dao/rule_dao.go
package dao

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	dg_errors "github.com/securenet/dyngroups/errors"
	"github.com/securenet/dyngroups/model"
)

// RuleDAO persists rules and rule sets.
type RuleDAO struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewRuleDAO(db *gorm.DB, log *zap.Logger) *RuleDAO {
	return &RuleDAO{db: db, log: log}
}

func (dao *RuleDAO) CreateRule(ctx context.Context, rule model.Rule) (*model.Rule, error) {
	start := time.Now()
	if rule.ID == "" {
		rule.ID = uuid.New().String()
	}

	if err := dao.db.WithContext(ctx).Create(&rule).Error; err != nil {
		dao.log.Error("Failed to create rule",
			zap.Error(err),
			zap.String("groupID", rule.GroupID),
			zap.String("attribute", rule.Attribute))
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, dg_errors.ErrRuleConflict
		}
		return nil, fmt.Errorf("%w: %v", dg_errors.ErrDatabaseOperation, err)
	}

	dao.log.Info("Rule created successfully",
		zap.String("ruleID", rule.ID),
		zap.String("groupID", rule.GroupID),
		zap.Duration("duration", time.Since(start)))
	return &rule, nil
}

func (dao *RuleDAO) GetRule(ctx context.Context, ruleID string) (*model.Rule, error) {
	var rule model.Rule
	err := dao.db.WithContext(ctx).First(&rule, "id = ?", ruleID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, dg_errors.ErrRuleNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", dg_errors.ErrDatabaseOperation, err)
	}
	return &rule, nil
}

// ListRules returns the rules of groupID (all groups when empty), highest
// priority first.
func (dao *RuleDAO) ListRules(ctx context.Context, groupID string, activeOnly bool) ([]model.Rule, error) {
	tx := dao.db.WithContext(ctx).Model(&model.Rule{})
	if groupID != "" {
		tx = tx.Where("group_id = ?", groupID)
	}
	if activeOnly {
		tx = tx.Where("is_active = ?", true)
	}

	var rules []model.Rule
	if err := tx.Order("priority DESC").Order("created_at ASC").Find(&rules).Error; err != nil {
		return nil, fmt.Errorf("%w: %v", dg_errors.ErrDatabaseOperation, err)
	}
	return rules, nil
}

// FindRule looks up a rule with the same target and condition.
func (dao *RuleDAO) FindRule(ctx context.Context, groupID, attribute string, operator model.Operator, value model.RuleValue) (*model.Rule, error) {
	var rule model.Rule
	err := dao.db.WithContext(ctx).
		Where("group_id = ? AND attribute = ? AND operator = ? AND value = ?", groupID, attribute, operator, value).
		First(&rule).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, dg_errors.ErrRuleNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", dg_errors.ErrDatabaseOperation, err)
	}
	return &rule, nil
}

func (dao *RuleDAO) SetRuleActive(ctx context.Context, ruleID string, active bool) error {
	result := dao.db.WithContext(ctx).Model(&model.Rule{}).Where("id = ?", ruleID).Update("is_active", active)
	if result.Error != nil {
		return fmt.Errorf("%w: %v", dg_errors.ErrDatabaseOperation, result.Error)
	}
	if result.RowsAffected == 0 {
		return dg_errors.ErrRuleNotFound
	}
	dao.log.Info("Rule activation changed", zap.String("ruleID", ruleID), zap.Bool("active", active))
	return nil
}

// CreateRuleSet stores a rule set and its ordered member rules in one transaction.
func (dao *RuleDAO) CreateRuleSet(ctx context.Context, set model.RuleSet) (*model.RuleSet, error) {
	if set.ID == "" {
		set.ID = uuid.New().String()
	}

	err := dao.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&set).Error; err != nil {
			return fmt.Errorf("%w: %v", dg_errors.ErrDatabaseOperation, err)
		}

		for position, ruleID := range set.RuleIDs {
			var count int64
			if err := tx.Model(&model.Rule{}).Where("id = ?", ruleID).Count(&count).Error; err != nil {
				return fmt.Errorf("%w: %v", dg_errors.ErrDatabaseOperation, err)
			}
			if count == 0 {
				return fmt.Errorf("%w: %s", dg_errors.ErrRuleNotFound, ruleID)
			}

			member := model.RuleSetMember{RuleSetID: set.ID, RuleID: ruleID, Position: position}
			if err := tx.Create(&member).Error; err != nil {
				if errors.Is(err, gorm.ErrDuplicatedKey) {
					return fmt.Errorf("%w: rule %s listed twice", dg_errors.ErrInvalidRuleSetData, ruleID)
				}
				return fmt.Errorf("%w: %v", dg_errors.ErrDatabaseOperation, err)
			}
		}
		return nil
	})
	if err != nil {
		dao.log.Error("Failed to create rule set", zap.Error(err), zap.String("name", set.Name))
		return nil, err
	}

	rules, err := dao.loadRuleSetRules(ctx, set.ID)
	if err != nil {
		return nil, err
	}
	set.Rules = rules

	dao.log.Info("Rule set created successfully",
		zap.String("ruleSetID", set.ID),
		zap.String("condition", string(set.Condition)),
		zap.Int("ruleCount", len(set.RuleIDs)))
	return &set, nil
}

func (dao *RuleDAO) GetRuleSet(ctx context.Context, ruleSetID string) (*model.RuleSet, error) {
	var set model.RuleSet
	err := dao.db.WithContext(ctx).First(&set, "id = ?", ruleSetID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, dg_errors.ErrRuleSetNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", dg_errors.ErrDatabaseOperation, err)
	}

	if err := dao.attachRules(ctx, &set); err != nil {
		return nil, err
	}
	return &set, nil
}

// ListRuleSets returns the rule sets of groupID (all groups when empty) with
// their member rules loaded in order.
func (dao *RuleDAO) ListRuleSets(ctx context.Context, groupID string, activeOnly bool) ([]model.RuleSet, error) {
	tx := dao.db.WithContext(ctx).Model(&model.RuleSet{})
	if groupID != "" {
		tx = tx.Where("group_id = ?", groupID)
	}
	if activeOnly {
		tx = tx.Where("is_active = ?", true)
	}

	var sets []model.RuleSet
	if err := tx.Order("created_at ASC").Find(&sets).Error; err != nil {
		return nil, fmt.Errorf("%w: %v", dg_errors.ErrDatabaseOperation, err)
	}

	for i := range sets {
		if err := dao.attachRules(ctx, &sets[i]); err != nil {
			return nil, err
		}
	}
	return sets, nil
}

func (dao *RuleDAO) SetRuleSetActive(ctx context.Context, ruleSetID string, active bool) error {
	result := dao.db.WithContext(ctx).Model(&model.RuleSet{}).Where("id = ?", ruleSetID).Update("is_active", active)
	if result.Error != nil {
		return fmt.Errorf("%w: %v", dg_errors.ErrDatabaseOperation, result.Error)
	}
	if result.RowsAffected == 0 {
		return dg_errors.ErrRuleSetNotFound
	}
	dao.log.Info("Rule set activation changed", zap.String("ruleSetID", ruleSetID), zap.Bool("active", active))
	return nil
}

func (dao *RuleDAO) attachRules(ctx context.Context, set *model.RuleSet) error {
	rules, err := dao.loadRuleSetRules(ctx, set.ID)
	if err != nil {
		return err
	}
	set.Rules = rules
	set.RuleIDs = make([]string, 0, len(rules))
	for _, rule := range rules {
		set.RuleIDs = append(set.RuleIDs, rule.ID)
	}
	return nil
}

func (dao *RuleDAO) loadRuleSetRules(ctx context.Context, ruleSetID string) ([]model.Rule, error) {
	var rules []model.Rule
	err := dao.db.WithContext(ctx).
		Model(&model.Rule{}).
		Joins("JOIN dynamic_group_rule_set_rules ON dynamic_group_rule_set_rules.rule_id = dynamic_group_rules.id").
		Where("dynamic_group_rule_set_rules.rule_set_id = ?", ruleSetID).
		Order("dynamic_group_rule_set_rules.position ASC").
		Find(&rules).Error
	if err != nil {
		return nil, fmt.Errorf("%w: %v", dg_errors.ErrDatabaseOperation, err)
	}
	return rules, nil
}
