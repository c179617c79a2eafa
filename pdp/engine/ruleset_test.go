package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/securenet/dyngroups/model"
	pdp_model "github.com/securenet/dyngroups/pdp/model"
)

func newRuleSetEvaluator() *RuleSetEvaluator {
	return NewRuleSetEvaluator(NewRuleEvaluator(nil, nil), nil)
}

var (
	alwaysTrue  = rule("role", model.OperatorIsNotNull, model.NullValue())
	alwaysFalse = rule("role", model.OperatorIsNull, model.NullValue())
	broken      = rule("role", model.Operator("matches_fuzzy"), model.StringValue("x"))
)

func TestRuleSetConditions(t *testing.T) {
	e := newRuleSetEvaluator()
	attrs := model.AttributeMap{"role": "admin"}

	tests := []struct {
		name      string
		condition model.Condition
		rules     []model.Rule
		want      bool
	}{
		{"AND empty", model.ConditionAnd, nil, true},
		{"AND all true", model.ConditionAnd, []model.Rule{alwaysTrue, alwaysTrue}, true},
		{"AND one false", model.ConditionAnd, []model.Rule{alwaysTrue, alwaysFalse}, false},
		{"OR empty", model.ConditionOr, nil, false},
		{"OR one true", model.ConditionOr, []model.Rule{alwaysFalse, alwaysTrue}, true},
		{"OR all false", model.ConditionOr, []model.Rule{alwaysFalse, alwaysFalse}, false},
		{"NOT empty", model.ConditionNot, nil, true},
		{"NOT one true", model.ConditionNot, []model.Rule{alwaysTrue}, false},
		{"NOT none true", model.ConditionNot, []model.Rule{alwaysFalse, alwaysFalse}, true},
		{"NOT mixed", model.ConditionNot, []model.Rule{alwaysFalse, alwaysTrue}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			set := model.RuleSet{ID: "s1", Condition: tt.condition, Rules: tt.rules, IsActive: true}
			got, err := e.Evaluate(set, attrs)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRuleSetOrderDoesNotMatter(t *testing.T) {
	e := newRuleSetEvaluator()
	attrs := model.AttributeMap{"role": "admin"}

	for _, condition := range []model.Condition{model.ConditionAnd, model.ConditionOr, model.ConditionNot} {
		forward, _ := e.Evaluate(model.RuleSet{Condition: condition, Rules: []model.Rule{alwaysTrue, alwaysFalse}}, attrs)
		backward, _ := e.Evaluate(model.RuleSet{Condition: condition, Rules: []model.Rule{alwaysFalse, alwaysTrue}}, attrs)
		assert.Equal(t, forward, backward, string(condition))
	}
}

func TestRuleSetSkipsInactiveRules(t *testing.T) {
	e := newRuleSetEvaluator()
	inactive := alwaysFalse
	inactive.IsActive = false

	got, err := e.Evaluate(model.RuleSet{Condition: model.ConditionAnd, Rules: []model.Rule{alwaysTrue, inactive}}, model.AttributeMap{"role": "admin"})
	require.NoError(t, err)
	assert.True(t, got)
}

func TestRuleSetFailingRuleCountsAsNoMatch(t *testing.T) {
	e := newRuleSetEvaluator()
	attrs := model.AttributeMap{"role": "admin"}

	got, err := e.Evaluate(model.RuleSet{Condition: model.ConditionAnd, Rules: []model.Rule{alwaysTrue, broken}}, attrs)
	assert.False(t, got)
	assert.ErrorIs(t, err, pdp_model.ErrUnknownOperator)

	got, err = e.Evaluate(model.RuleSet{Condition: model.ConditionOr, Rules: []model.Rule{alwaysTrue, broken}}, attrs)
	assert.True(t, got)
	assert.ErrorIs(t, err, pdp_model.ErrUnknownOperator)

	got, err = e.Evaluate(model.RuleSet{Condition: model.ConditionNot, Rules: []model.Rule{broken}}, attrs)
	assert.True(t, got)
	assert.Error(t, err)
}

func TestRuleSetUnknownCondition(t *testing.T) {
	e := newRuleSetEvaluator()
	got, err := e.Evaluate(model.RuleSet{ID: "s1", Condition: "XOR", Rules: []model.Rule{alwaysTrue}}, model.AttributeMap{"role": "admin"})
	assert.False(t, got)
	assert.ErrorIs(t, err, pdp_model.ErrUnknownCondition)
}
