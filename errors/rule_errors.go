// errors/rule_errors.go
package errors

import "errors"

var (
	ErrRuleNotFound       = errors.New("rule not found")
	ErrInvalidRuleData    = errors.New("invalid rule data")
	ErrRuleConflict       = errors.New("rule conflict")
	ErrRuleSetNotFound    = errors.New("rule set not found")
	ErrInvalidRuleSetData = errors.New("invalid rule set data")
)
