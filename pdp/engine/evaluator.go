package engine

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/securenet/dyngroups/logging"
	"github.com/securenet/dyngroups/model"
	pdp_model "github.com/securenet/dyngroups/pdp/model"
)

// RuleEvaluator applies a single rule to an attribute map.
type RuleEvaluator struct {
	log      *zap.Logger
	observer pdp_model.EvaluationObserver
	patterns sync.Map // pattern -> *regexp.Regexp
}

// NewRuleEvaluator creates an evaluator. observer may be nil.
func NewRuleEvaluator(log *zap.Logger, observer pdp_model.EvaluationObserver) *RuleEvaluator {
	return &RuleEvaluator{
		log:      logging.OrNop(log),
		observer: observer,
	}
}

// Evaluate reports whether rule matches attrs. A non-nil error is always a
// *pdp_model.EvalError and the boolean is then false.
func (e *RuleEvaluator) Evaluate(rule model.Rule, attrs model.AttributeMap) (bool, error) {
	attr := attrs[rule.Attribute]

	matched, err := e.apply(rule.Operator, attr, rule.Value)
	outcome := pdp_model.OutcomeNoMatch
	switch {
	case err != nil:
		outcome = pdp_model.OutcomeError
	case matched:
		outcome = pdp_model.OutcomeMatch
	}
	if e.observer != nil {
		e.observer.ObserveRuleEvaluation(string(rule.Operator), outcome)
	}

	if err != nil {
		return false, &pdp_model.EvalError{
			RuleID:    rule.ID,
			Attribute: rule.Attribute,
			Operator:  string(rule.Operator),
			Err:       err,
		}
	}
	return matched, nil
}

// Matches is Evaluate with failures logged and treated as non-matching.
func (e *RuleEvaluator) Matches(rule model.Rule, attrs model.AttributeMap) bool {
	matched, err := e.Evaluate(rule, attrs)
	if err != nil {
		e.logFailure(err)
		return false
	}
	return matched
}

func (e *RuleEvaluator) logFailure(err error) {
	var evalErr *pdp_model.EvalError
	if !errors.As(err, &evalErr) {
		e.log.Error("Rule evaluation failed", zap.Error(err))
		return
	}

	fields := []zap.Field{
		zap.String("ruleID", evalErr.RuleID),
		zap.String("attribute", evalErr.Attribute),
		zap.String("operator", evalErr.Operator),
		zap.Error(evalErr.Err),
	}
	if errors.Is(err, pdp_model.ErrUnknownOperator) {
		e.log.Warn("Unknown rule operator", fields...)
		return
	}
	e.log.Error("Rule evaluation failed", fields...)
}

func (e *RuleEvaluator) apply(op model.Operator, attr any, value model.RuleValue) (bool, error) {
	switch op {
	case model.OperatorEquals:
		return valuesEqual(attr, value), nil

	case model.OperatorNotEquals:
		return !valuesEqual(attr, value), nil

	case model.OperatorContains, model.OperatorNotContains:
		negate := op == model.OperatorNotContains
		if isFalsy(attr) {
			return negate, nil
		}
		needle, err := stringOperand(value)
		if err != nil {
			return false, err
		}
		return strings.Contains(stringify(attr), needle) != negate, nil

	case model.OperatorStartsWith, model.OperatorEndsWith:
		if isFalsy(attr) {
			return false, nil
		}
		affix, err := stringOperand(value)
		if err != nil {
			return false, err
		}
		if op == model.OperatorStartsWith {
			return strings.HasPrefix(stringify(attr), affix), nil
		}
		return strings.HasSuffix(stringify(attr), affix), nil

	case model.OperatorRegexMatch:
		if isFalsy(attr) {
			return false, nil
		}
		pattern, err := stringOperand(value)
		if err != nil {
			return false, err
		}
		re, err := e.compile(pattern)
		if err != nil {
			return false, err
		}
		return re.MatchString(stringify(attr)), nil

	case model.OperatorInList, model.OperatorNotInList:
		negate := op == model.OperatorNotInList
		if value.Kind != model.ValueList {
			return negate, nil
		}
		return inList(attr, value.List) != negate, nil

	case model.OperatorGreaterThan, model.OperatorLessThan:
		if isFalsy(attr) || isFalsy(value.Interface()) {
			return false, nil
		}
		left, err := toFloat(attr)
		if err != nil {
			return false, err
		}
		right, err := toFloat(value.Interface())
		if err != nil {
			return false, err
		}
		if op == model.OperatorGreaterThan {
			return left > right, nil
		}
		return left < right, nil

	case model.OperatorIsNull:
		return attr == nil, nil

	case model.OperatorIsNotNull:
		return attr != nil, nil

	default:
		return false, fmt.Errorf("%w: %q", pdp_model.ErrUnknownOperator, op)
	}
}

func (e *RuleEvaluator) compile(pattern string) (*regexp.Regexp, error) {
	if cached, ok := e.patterns.Load(pattern); ok {
		return cached.(*regexp.Regexp), nil
	}
	re, err := compileAnchored(pattern)
	if err != nil {
		return nil, err
	}
	e.patterns.Store(pattern, re)
	return re, nil
}
