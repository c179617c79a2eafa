// test/mock/services.go
package mock

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/securenet/dyngroups/model"
)

// MockRuleService is a mock implementation of service.IRuleService
type MockRuleService struct {
	mock.Mock
}

func (m *MockRuleService) CreateRule(ctx context.Context, rule model.Rule) (*model.Rule, error) {
	args := m.Called(ctx, rule)
	created, _ := args.Get(0).(*model.Rule)
	return created, args.Error(1)
}

func (m *MockRuleService) GetRule(ctx context.Context, ruleID string) (*model.Rule, error) {
	args := m.Called(ctx, ruleID)
	rule, _ := args.Get(0).(*model.Rule)
	return rule, args.Error(1)
}

func (m *MockRuleService) ListRules(ctx context.Context, groupID string, activeOnly bool) ([]model.Rule, error) {
	args := m.Called(ctx, groupID, activeOnly)
	rules, _ := args.Get(0).([]model.Rule)
	return rules, args.Error(1)
}

func (m *MockRuleService) DeactivateRule(ctx context.Context, ruleID string) error {
	args := m.Called(ctx, ruleID)
	return args.Error(0)
}

func (m *MockRuleService) CreateRuleSet(ctx context.Context, set model.RuleSet) (*model.RuleSet, error) {
	args := m.Called(ctx, set)
	created, _ := args.Get(0).(*model.RuleSet)
	return created, args.Error(1)
}

func (m *MockRuleService) ListRuleSets(ctx context.Context, groupID string, activeOnly bool) ([]model.RuleSet, error) {
	args := m.Called(ctx, groupID, activeOnly)
	sets, _ := args.Get(0).([]model.RuleSet)
	return sets, args.Error(1)
}

func (m *MockRuleService) DeactivateRuleSet(ctx context.Context, ruleSetID string) error {
	args := m.Called(ctx, ruleSetID)
	return args.Error(0)
}

func (m *MockRuleService) SetupDefaultRules(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

// MockMembershipService is a mock implementation of service.IMembershipService
type MockMembershipService struct {
	mock.Mock
}

func (m *MockMembershipService) Reconcile(ctx context.Context) (*model.ReconcilePlan, error) {
	args := m.Called(ctx)
	plan, _ := args.Get(0).(*model.ReconcilePlan)
	return plan, args.Error(1)
}

func (m *MockMembershipService) Apply(ctx context.Context, actions []model.MembershipAction) (*model.ApplyResult, error) {
	args := m.Called(ctx, actions)
	result, _ := args.Get(0).(*model.ApplyResult)
	return result, args.Error(1)
}

func (m *MockMembershipService) Run(ctx context.Context, dryRun bool) (*model.RunResult, error) {
	args := m.Called(ctx, dryRun)
	run, _ := args.Get(0).(*model.RunResult)
	return run, args.Error(1)
}

func (m *MockMembershipService) EvaluateUser(ctx context.Context, userID string) (*model.UserEvaluation, error) {
	args := m.Called(ctx, userID)
	evaluation, _ := args.Get(0).(*model.UserEvaluation)
	return evaluation, args.Error(1)
}

func (m *MockMembershipService) UserAttributes(ctx context.Context, userID string) (model.AttributeMap, error) {
	args := m.Called(ctx, userID)
	attrs, _ := args.Get(0).(model.AttributeMap)
	return attrs, args.Error(1)
}
