package model

import (
	"fmt"
	"time"
)

type Operator string

const (
	OperatorEquals      Operator = "equals"
	OperatorNotEquals   Operator = "not_equals"
	OperatorContains    Operator = "contains"
	OperatorNotContains Operator = "not_contains"
	OperatorStartsWith  Operator = "starts_with"
	OperatorEndsWith    Operator = "ends_with"
	OperatorRegexMatch  Operator = "regex_match"
	OperatorInList      Operator = "in_list"
	OperatorNotInList   Operator = "not_in_list"
	OperatorGreaterThan Operator = "greater_than"
	OperatorLessThan    Operator = "less_than"
	OperatorIsNull      Operator = "is_null"
	OperatorIsNotNull   Operator = "is_not_null"
)

// Operators lists every operator a rule may use.
var Operators = []Operator{
	OperatorEquals, OperatorNotEquals,
	OperatorContains, OperatorNotContains,
	OperatorStartsWith, OperatorEndsWith,
	OperatorRegexMatch,
	OperatorInList, OperatorNotInList,
	OperatorGreaterThan, OperatorLessThan,
	OperatorIsNull, OperatorIsNotNull,
}

func (o Operator) Valid() bool {
	for _, op := range Operators {
		if o == op {
			return true
		}
	}
	return false
}

// Condition combines the results of the rules of a RuleSet.
type Condition string

const (
	ConditionAnd Condition = "AND"
	ConditionOr  Condition = "OR"
	// ConditionNot matches when none of the member rules match.
	ConditionNot Condition = "NOT"
)

type Rule struct {
	ID          string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	GroupID     string    `json:"group_id" gorm:"type:varchar(36);not null;index" validate:"required"`
	Attribute   string    `json:"attribute" gorm:"not null" validate:"required,max=64"`
	Operator    Operator  `json:"operator" gorm:"type:varchar(32);not null" validate:"required,operator"`
	Value       RuleValue `json:"value" gorm:"type:text"`
	IsActive    bool      `json:"is_active" gorm:"not null;index"`
	Priority    int       `json:"priority" gorm:"not null"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (Rule) TableName() string {
	return "dynamic_group_rules"
}

// Label is a human-readable description of the rule, used in reasons.
func (r Rule) Label() string {
	if r.Description != "" {
		return r.Description
	}
	return fmt.Sprintf("%s %s %s", r.Attribute, r.Operator, r.Value)
}

type RuleSet struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	GroupID   string    `json:"group_id" gorm:"type:varchar(36);not null;index" validate:"required"`
	Name      string    `json:"name" gorm:"not null" validate:"required,max=128"`
	Condition Condition `json:"condition" gorm:"type:varchar(8);not null" validate:"required,oneof=AND OR NOT"`
	IsActive  bool      `json:"is_active" gorm:"not null;index"`
	RuleIDs   []string  `json:"rule_ids" gorm:"-"`
	Rules     []Rule    `json:"rules,omitempty" gorm:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (RuleSet) TableName() string {
	return "dynamic_group_rule_sets"
}

// RuleSetMember links a rule into a rule set at a position.
type RuleSetMember struct {
	RuleSetID string `gorm:"primaryKey;type:varchar(36)"`
	RuleID    string `gorm:"primaryKey;type:varchar(36);index"`
	Position  int    `gorm:"not null"`
}

func (RuleSetMember) TableName() string {
	return "dynamic_group_rule_set_rules"
}
