package model

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownOperator  = errors.New("unknown operator")
	ErrUnknownCondition = errors.New("unknown rule set condition")
	ErrInvalidRuleValue = errors.New("rule value not valid for operator")
	ErrNumericCast      = errors.New("value is not numeric")
	ErrInvalidPattern   = errors.New("invalid regular expression")
)

// EvalError reports a rule or rule set that could not be evaluated. A rule
// that fails to evaluate never matches.
type EvalError struct {
	RuleID    string
	RuleSetID string
	Attribute string
	Operator  string
	Err       error
}

func (e *EvalError) Error() string {
	if e.RuleSetID != "" && e.RuleID == "" {
		return fmt.Sprintf("rule set %s: %v", e.RuleSetID, e.Err)
	}
	return fmt.Sprintf("rule %s (%s %s): %v", e.RuleID, e.Attribute, e.Operator, e.Err)
}

func (e *EvalError) Unwrap() error {
	return e.Err
}

// Outcome labels used for evaluation metrics.
const (
	OutcomeMatch   = "match"
	OutcomeNoMatch = "no_match"
	OutcomeError   = "error"
)

// EvaluationObserver receives one outcome per evaluated rule.
type EvaluationObserver interface {
	ObserveRuleEvaluation(operator, outcome string)
}
