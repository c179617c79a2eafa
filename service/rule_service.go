// service/rule_service.go
package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/securenet/dyngroups/dao"
	dg_errors "github.com/securenet/dyngroups/errors"
	"github.com/securenet/dyngroups/logging"
	"github.com/securenet/dyngroups/model"
	"github.com/securenet/dyngroups/util"
)

// RuleService handles business logic for rules and rule sets
type RuleService struct {
	ruleDAO        *dao.RuleDAO
	groupDAO       *dao.GroupDAO
	validationUtil *util.ValidationUtil
	eventBus       *util.EventBus
	log            *zap.Logger
}

func NewRuleService(ruleDAO *dao.RuleDAO, groupDAO *dao.GroupDAO, validationUtil *util.ValidationUtil, eventBus *util.EventBus, log *zap.Logger) *RuleService {
	return &RuleService{
		ruleDAO:        ruleDAO,
		groupDAO:       groupDAO,
		validationUtil: validationUtil,
		eventBus:       eventBus,
		log:            logging.OrNop(log),
	}
}

func (s *RuleService) CreateRule(ctx context.Context, rule model.Rule) (*model.Rule, error) {
	if err := s.validationUtil.ValidateRule(rule); err != nil {
		return nil, err
	}
	if _, err := s.groupDAO.GetGroup(ctx, rule.GroupID); err != nil {
		return nil, err
	}

	existing, err := s.ruleDAO.FindRule(ctx, rule.GroupID, rule.Attribute, rule.Operator, rule.Value)
	if err != nil && !errors.Is(err, dg_errors.ErrRuleNotFound) {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: identical rule %s exists", dg_errors.ErrRuleConflict, existing.ID)
	}

	created, err := s.ruleDAO.CreateRule(ctx, rule)
	if err != nil {
		return nil, err
	}

	s.eventBus.Publish(ctx, util.EventRuleCreated, *created)
	return created, nil
}

func (s *RuleService) GetRule(ctx context.Context, ruleID string) (*model.Rule, error) {
	return s.ruleDAO.GetRule(ctx, ruleID)
}

func (s *RuleService) ListRules(ctx context.Context, groupID string, activeOnly bool) ([]model.Rule, error) {
	return s.ruleDAO.ListRules(ctx, groupID, activeOnly)
}

// DeactivateRule marks a rule inactive. Rules are never deleted.
func (s *RuleService) DeactivateRule(ctx context.Context, ruleID string) error {
	if err := s.ruleDAO.SetRuleActive(ctx, ruleID, false); err != nil {
		return err
	}
	rule, err := s.ruleDAO.GetRule(ctx, ruleID)
	if err != nil {
		return err
	}
	s.eventBus.Publish(ctx, util.EventRuleDeactivated, *rule)
	return nil
}

func (s *RuleService) CreateRuleSet(ctx context.Context, set model.RuleSet) (*model.RuleSet, error) {
	if err := s.validationUtil.ValidateRuleSet(set); err != nil {
		return nil, err
	}
	if _, err := s.groupDAO.GetGroup(ctx, set.GroupID); err != nil {
		return nil, err
	}
	return s.ruleDAO.CreateRuleSet(ctx, set)
}

func (s *RuleService) ListRuleSets(ctx context.Context, groupID string, activeOnly bool) ([]model.RuleSet, error) {
	return s.ruleDAO.ListRuleSets(ctx, groupID, activeOnly)
}

func (s *RuleService) DeactivateRuleSet(ctx context.Context, ruleSetID string) error {
	return s.ruleDAO.SetRuleSetActive(ctx, ruleSetID, false)
}

// SetupDefaultRules creates the default rules and rule sets. Entries whose
// group does not exist are logged and skipped, existing entries are left
// alone. It returns the number of rules and rule sets created.
func (s *RuleService) SetupDefaultRules(ctx context.Context) (int, error) {
	created := 0

	for _, def := range defaultRules {
		_, isNew, err := s.ensureRule(ctx, def)
		if err != nil {
			if errors.Is(err, dg_errors.ErrGroupNotFound) {
				s.log.Error("Skipping default rule for unknown group",
					zap.String("group", def.group),
					zap.String("rule", def.description))
				continue
			}
			return created, err
		}
		if isNew {
			created++
		}
	}

	for _, def := range defaultRuleSets {
		n, err := s.ensureRuleSet(ctx, def)
		created += n
		if err != nil {
			if errors.Is(err, dg_errors.ErrGroupNotFound) {
				s.log.Error("Skipping default rule set for unknown group",
					zap.String("group", def.group),
					zap.String("ruleSet", def.name))
				continue
			}
			return created, err
		}
	}

	s.log.Info("Default rules set up", zap.Int("created", created))
	return created, nil
}

func (s *RuleService) ensureRule(ctx context.Context, def defaultRule) (*model.Rule, bool, error) {
	group, err := s.groupDAO.GetGroupByName(ctx, def.group)
	if err != nil {
		return nil, false, err
	}

	existing, err := s.ruleDAO.FindRule(ctx, group.ID, def.attribute, def.operator, def.value)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, dg_errors.ErrRuleNotFound) {
		return nil, false, err
	}

	rule := model.Rule{
		GroupID:     group.ID,
		Attribute:   def.attribute,
		Operator:    def.operator,
		Value:       def.value,
		IsActive:    true,
		Priority:    def.priority,
		Description: def.description,
	}
	if err := s.validationUtil.ValidateRule(rule); err != nil {
		return nil, false, err
	}
	created, err := s.ruleDAO.CreateRule(ctx, rule)
	if err != nil {
		return nil, false, err
	}
	s.eventBus.Publish(ctx, util.EventRuleCreated, *created)
	return created, true, nil
}

func (s *RuleService) ensureRuleSet(ctx context.Context, def defaultRuleSet) (int, error) {
	group, err := s.groupDAO.GetGroupByName(ctx, def.group)
	if err != nil {
		return 0, err
	}

	sets, err := s.ruleDAO.ListRuleSets(ctx, group.ID, false)
	if err != nil {
		return 0, err
	}
	for _, set := range sets {
		if set.Name == def.name {
			return 0, nil
		}
	}

	created := 0
	ruleIDs := make([]string, 0, len(def.rules))
	for _, ruleDef := range def.rules {
		rule, isNew, err := s.ensureRule(ctx, ruleDef)
		if err != nil {
			return created, err
		}
		if isNew {
			created++
		}
		ruleIDs = append(ruleIDs, rule.ID)
	}

	set := model.RuleSet{
		GroupID:   group.ID,
		Name:      def.name,
		Condition: def.condition,
		IsActive:  true,
		RuleIDs:   ruleIDs,
	}
	if err := s.validationUtil.ValidateRuleSet(set); err != nil {
		return created, err
	}
	if _, err := s.ruleDAO.CreateRuleSet(ctx, set); err != nil {
		return created, err
	}
	return created + 1, nil
}
