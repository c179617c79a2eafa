package engine

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/securenet/dyngroups/logging"
	"github.com/securenet/dyngroups/model"
	pdp_model "github.com/securenet/dyngroups/pdp/model"
)

// RuleSetEvaluator combines the results of the active member rules of a set.
type RuleSetEvaluator struct {
	rules *RuleEvaluator
	log   *zap.Logger
}

func NewRuleSetEvaluator(rules *RuleEvaluator, log *zap.Logger) *RuleSetEvaluator {
	return &RuleSetEvaluator{rules: rules, log: logging.OrNop(log)}
}

// Evaluate folds the member rule results with the set condition: AND needs
// all rules to match, OR at least one, NOT none. Rules that fail to evaluate
// count as non-matching and their errors are joined into the returned error.
func (e *RuleSetEvaluator) Evaluate(set model.RuleSet, attrs model.AttributeMap) (bool, error) {
	var errs []error
	evaluated, matched := 0, 0

	for _, rule := range set.Rules {
		if !rule.IsActive {
			continue
		}
		evaluated++

		ok, err := e.rules.Evaluate(rule, attrs)
		if err != nil {
			e.rules.logFailure(err)
			errs = append(errs, err)
			continue
		}
		if ok {
			matched++
		}
	}

	var result bool
	switch set.Condition {
	case model.ConditionAnd:
		result = matched == evaluated
	case model.ConditionOr:
		result = matched > 0
	case model.ConditionNot:
		result = matched == 0
	default:
		e.log.Warn("Unknown rule set condition",
			zap.String("ruleSetID", set.ID),
			zap.String("condition", string(set.Condition)))
		errs = append(errs, &pdp_model.EvalError{
			RuleSetID: set.ID,
			Err:       fmt.Errorf("%w: %q", pdp_model.ErrUnknownCondition, set.Condition),
		})
		return false, errors.Join(errs...)
	}

	e.log.Debug("Rule set evaluated",
		zap.String("ruleSetID", set.ID),
		zap.String("condition", string(set.Condition)),
		zap.Int("evaluated", evaluated),
		zap.Int("matched", matched),
		zap.Bool("result", result))

	return result, errors.Join(errs...)
}
