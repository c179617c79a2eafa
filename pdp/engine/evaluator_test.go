package engine

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/securenet/dyngroups/model"
	pdp_model "github.com/securenet/dyngroups/pdp/model"
)

func rule(attribute string, op model.Operator, value model.RuleValue) model.Rule {
	return model.Rule{ID: "r1", GroupID: "g1", Attribute: attribute, Operator: op, Value: value, IsActive: true}
}

type recordingObserver struct {
	outcomes []string
}

func (o *recordingObserver) ObserveRuleEvaluation(_ string, outcome string) {
	o.outcomes = append(o.outcomes, outcome)
}

func TestEvaluateAbsentAttribute(t *testing.T) {
	e := NewRuleEvaluator(nil, nil)
	empty := model.AttributeMap{}

	tests := []struct {
		op    model.Operator
		value model.RuleValue
		want  bool
	}{
		{model.OperatorEquals, model.StringValue("Sales"), false},
		{model.OperatorEquals, model.NullValue(), true},
		{model.OperatorNotEquals, model.StringValue("Sales"), true},
		{model.OperatorContains, model.StringValue("a"), false},
		{model.OperatorNotContains, model.StringValue("a"), true},
		{model.OperatorStartsWith, model.StringValue("a"), false},
		{model.OperatorEndsWith, model.StringValue("a"), false},
		{model.OperatorRegexMatch, model.StringValue(".*"), false},
		{model.OperatorInList, model.ListValue("a", "b"), false},
		{model.OperatorNotInList, model.ListValue("a", "b"), true},
		{model.OperatorGreaterThan, model.NumberValue(1), false},
		{model.OperatorLessThan, model.NumberValue(1), false},
		{model.OperatorIsNull, model.NullValue(), true},
		{model.OperatorIsNotNull, model.NullValue(), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.op), func(t *testing.T) {
			got, err := e.Evaluate(rule("department", tt.op, tt.value), empty)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEvaluateFalsyAttribute(t *testing.T) {
	e := NewRuleEvaluator(nil, nil)
	attrs := model.AttributeMap{"title": "", "group_count": 0}

	got, err := e.Evaluate(rule("title", model.OperatorNotContains, model.StringValue("x")), attrs)
	require.NoError(t, err)
	assert.True(t, got)

	got, err = e.Evaluate(rule("title", model.OperatorIsNull, model.NullValue()), attrs)
	require.NoError(t, err)
	assert.False(t, got, "empty string is present, not null")

	got, err = e.Evaluate(rule("group_count", model.OperatorLessThan, model.NumberValue(5)), attrs)
	require.NoError(t, err)
	assert.False(t, got, "zero is treated as no value")

	got, err = e.Evaluate(rule("group_count", model.OperatorGreaterThan, model.NumberValue(0)), model.AttributeMap{"group_count": 3})
	require.NoError(t, err)
	assert.False(t, got, "zero comparison value is treated as no value")
}

func TestEvaluatePresentAttribute(t *testing.T) {
	e := NewRuleEvaluator(nil, nil)
	attrs := model.AttributeMap{
		"department":        "Sales",
		"email":             "jane@securenet.io",
		"role":              "analyst",
		"days_until_expiry": 10,
		"score":             "42.5",
		"is_active":         true,
		"current_groups":    []string{"Sales", "VPN Users"},
	}

	tests := []struct {
		name string
		rule model.Rule
		want bool
	}{
		{"equals string", rule("department", model.OperatorEquals, model.StringValue("Sales")), true},
		{"equals is case sensitive", rule("department", model.OperatorEquals, model.StringValue("sales")), false},
		{"equals number", rule("days_until_expiry", model.OperatorEquals, model.NumberValue(10)), true},
		{"equals bool", rule("is_active", model.OperatorEquals, model.BoolValue(true)), true},
		{"equals list", rule("current_groups", model.OperatorEquals, model.ListValue("Sales", "VPN Users")), true},
		{"equals type mismatch", rule("days_until_expiry", model.OperatorEquals, model.StringValue("10")), false},
		{"not equals", rule("department", model.OperatorNotEquals, model.StringValue("Engineering")), true},
		{"contains", rule("email", model.OperatorContains, model.StringValue("@securenet")), true},
		{"contains in group list", rule("current_groups", model.OperatorContains, model.StringValue("VPN")), true},
		{"not contains", rule("email", model.OperatorNotContains, model.StringValue("@securenet")), false},
		{"starts with", rule("email", model.OperatorStartsWith, model.StringValue("jane")), true},
		{"ends with", rule("email", model.OperatorEndsWith, model.StringValue(".io")), true},
		{"ends with miss", rule("email", model.OperatorEndsWith, model.StringValue(".com")), false},
		{"regex prefix", rule("role", model.OperatorRegexMatch, model.StringValue("ana")), true},
		{"regex anchored at start", rule("role", model.OperatorRegexMatch, model.StringValue("lyst")), false},
		{"regex pattern", rule("email", model.OperatorRegexMatch, model.StringValue(`[a-z]+@securenet\.`)), true},
		{"in list", rule("role", model.OperatorInList, model.ListValue("admin", "analyst")), true},
		{"in list miss", rule("role", model.OperatorInList, model.ListValue("admin")), false},
		{"in list needs a list", rule("role", model.OperatorInList, model.StringValue("analyst")), false},
		{"not in list", rule("role", model.OperatorNotInList, model.ListValue("admin")), true},
		{"not in list needs a list", rule("role", model.OperatorNotInList, model.StringValue("analyst")), true},
		{"in list with list attribute", rule("current_groups", model.OperatorInList, model.ListValue("Sales")), false},
		{"in list number", rule("days_until_expiry", model.OperatorInList, model.ListValue("10", "20")), true},
		{"greater than", rule("days_until_expiry", model.OperatorGreaterThan, model.NumberValue(5)), true},
		{"less than", rule("days_until_expiry", model.OperatorLessThan, model.NumberValue(90)), true},
		{"less than miss", rule("days_until_expiry", model.OperatorLessThan, model.NumberValue(10)), false},
		{"numeric string", rule("score", model.OperatorGreaterThan, model.NumberValue(40)), true},
		{"is null", rule("department", model.OperatorIsNull, model.NullValue()), false},
		{"is not null", rule("department", model.OperatorIsNotNull, model.NullValue()), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := e.Evaluate(tt.rule, attrs)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEvaluateUnknownOperator(t *testing.T) {
	e := NewRuleEvaluator(nil, nil)
	r := rule("department", model.Operator("matches_fuzzy"), model.StringValue("Sales"))
	attrs := model.AttributeMap{"department": "Sales"}

	assert.NotPanics(t, func() {
		got, err := e.Evaluate(r, attrs)
		assert.False(t, got)
		assert.ErrorIs(t, err, pdp_model.ErrUnknownOperator)

		var evalErr *pdp_model.EvalError
		require.True(t, errors.As(err, &evalErr))
		assert.Equal(t, "r1", evalErr.RuleID)
	})
	assert.False(t, e.Matches(r, attrs))
}

func TestEvaluateErrorsNeverMatch(t *testing.T) {
	e := NewRuleEvaluator(nil, nil)
	attrs := model.AttributeMap{"department": "Sales", "role": "admin"}

	tests := []struct {
		name string
		rule model.Rule
		want error
	}{
		{"failed cast", rule("department", model.OperatorGreaterThan, model.NumberValue(3)), pdp_model.ErrNumericCast},
		{"list compared numerically", rule("role", model.OperatorLessThan, model.ListValue("1")), pdp_model.ErrNumericCast},
		{"bad regex", rule("role", model.OperatorRegexMatch, model.StringValue("(")), pdp_model.ErrInvalidPattern},
		{"contains with number", rule("role", model.OperatorContains, model.NumberValue(1)), pdp_model.ErrInvalidRuleValue},
		{"not contains with number", rule("role", model.OperatorNotContains, model.NumberValue(1)), pdp_model.ErrInvalidRuleValue},
		{"starts with list", rule("role", model.OperatorStartsWith, model.ListValue("a")), pdp_model.ErrInvalidRuleValue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := e.Evaluate(tt.rule, attrs)
			assert.False(t, got)
			assert.ErrorIs(t, err, tt.want)
			assert.False(t, e.Matches(tt.rule, attrs))
		})
	}
}

func TestEvaluateReportsOutcomes(t *testing.T) {
	obs := &recordingObserver{}
	e := NewRuleEvaluator(nil, obs)
	attrs := model.AttributeMap{"department": "Sales"}

	e.Evaluate(rule("department", model.OperatorEquals, model.StringValue("Sales")), attrs)
	e.Evaluate(rule("department", model.OperatorEquals, model.StringValue("HR")), attrs)
	e.Evaluate(rule("department", model.Operator("bogus"), model.NullValue()), attrs)

	assert.Equal(t, []string{pdp_model.OutcomeMatch, pdp_model.OutcomeNoMatch, pdp_model.OutcomeError}, obs.outcomes)
}

func TestEvaluateNilAttributeMap(t *testing.T) {
	e := NewRuleEvaluator(nil, nil)
	got, err := e.Evaluate(rule("department", model.OperatorIsNull, model.NullValue()), nil)
	require.NoError(t, err)
	assert.True(t, got)
}

func TestEvaluateBooleanStringForm(t *testing.T) {
	e := NewRuleEvaluator(nil, nil)
	attrs := model.AttributeMap{model.AttrIsActive: true}

	got, err := e.Evaluate(rule(model.AttrIsActive, model.OperatorContains, model.StringValue("true")), attrs)
	require.NoError(t, err)
	assert.True(t, got)

	got, err = e.Evaluate(rule(model.AttrIsActive, model.OperatorContains, model.StringValue("True")), attrs)
	require.NoError(t, err)
	assert.False(t, got, "booleans render in lower case")

	got, err = e.Evaluate(rule(model.AttrIsActive, model.OperatorInList, model.ListValue("true", "yes")), attrs)
	require.NoError(t, err)
	assert.True(t, got)
}
