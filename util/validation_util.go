// util/validation_util.go

package util

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	dg_errors "github.com/securenet/dyngroups/errors"
	"github.com/securenet/dyngroups/model"
)

type ValidationUtil struct {
	validate *validator.Validate
}

func NewValidationUtil() *ValidationUtil {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("operator", func(fl validator.FieldLevel) bool {
		return model.Operator(fl.Field().String()).Valid()
	})
	return &ValidationUtil{validate: v}
}

// ValidateRule checks the rule fields and that its value suits its operator.
func (v *ValidationUtil) ValidateRule(rule model.Rule) error {
	if err := v.validate.Struct(rule); err != nil {
		return fmt.Errorf("%w: %s", dg_errors.ErrInvalidRuleData, describe(err))
	}
	if err := checkOperatorValue(rule.Operator, rule.Value); err != nil {
		return fmt.Errorf("%w: %v", dg_errors.ErrInvalidRuleData, err)
	}
	return nil
}

func (v *ValidationUtil) ValidateRuleSet(set model.RuleSet) error {
	if err := v.validate.Struct(set); err != nil {
		return fmt.Errorf("%w: %s", dg_errors.ErrInvalidRuleSetData, describe(err))
	}
	seen := make(map[string]bool, len(set.RuleIDs))
	for _, id := range set.RuleIDs {
		if id == "" {
			return fmt.Errorf("%w: empty rule id", dg_errors.ErrInvalidRuleSetData)
		}
		if seen[id] {
			return fmt.Errorf("%w: rule %s listed twice", dg_errors.ErrInvalidRuleSetData, id)
		}
		seen[id] = true
	}
	return nil
}

func (v *ValidationUtil) ValidateUser(user model.User) error {
	if strings.TrimSpace(user.Username) == "" {
		return fmt.Errorf("%w: username cannot be empty", dg_errors.ErrInvalidUserData)
	}
	if user.Email != "" {
		if err := v.validate.Var(user.Email, "email"); err != nil {
			return fmt.Errorf("%w: invalid email %q", dg_errors.ErrInvalidUserData, user.Email)
		}
	}
	return nil
}

func (v *ValidationUtil) ValidateGroup(group model.Group) error {
	if strings.TrimSpace(group.Name) == "" {
		return fmt.Errorf("%w: group name cannot be empty", dg_errors.ErrInvalidGroupData)
	}
	return nil
}

func checkOperatorValue(op model.Operator, value model.RuleValue) error {
	switch op {
	case model.OperatorContains, model.OperatorNotContains,
		model.OperatorStartsWith, model.OperatorEndsWith:
		if value.Kind != model.ValueString || value.Str == "" {
			return fmt.Errorf("operator %s needs a non-empty string value", op)
		}
	case model.OperatorRegexMatch:
		if value.Kind != model.ValueString || value.Str == "" {
			return fmt.Errorf("operator %s needs a pattern", op)
		}
		if _, err := regexp.Compile(value.Str); err != nil {
			return fmt.Errorf("invalid pattern %q: %v", value.Str, err)
		}
	case model.OperatorInList, model.OperatorNotInList:
		if value.Kind != model.ValueList {
			return fmt.Errorf("operator %s needs a list value", op)
		}
	case model.OperatorGreaterThan, model.OperatorLessThan:
		if value.Kind != model.ValueNumber {
			return fmt.Errorf("operator %s needs a numeric value", op)
		}
	}
	return nil
}

func describe(err error) string {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		parts = append(parts, fmt.Sprintf("%s failed on '%s'", strings.ToLower(fe.Field()), fe.Tag()))
	}
	return strings.Join(parts, "; ")
}
