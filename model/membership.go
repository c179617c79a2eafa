package model

import "time"

type MembershipActionType string

const (
	ActionAdd    MembershipActionType = "add"
	ActionRemove MembershipActionType = "remove"
)

// MembershipAction is a proposed change produced by reconciliation.
type MembershipAction struct {
	UserID     string               `json:"user_id"`
	Username   string               `json:"username,omitempty"`
	GroupID    string               `json:"group_id"`
	GroupName  string               `json:"group_name"`
	Action     MembershipActionType `json:"action"`
	Reasons    []string             `json:"reasons"`
	RuleIDs    []string             `json:"rule_ids,omitempty"`
	RuleSetIDs []string             `json:"rule_set_ids,omitempty"`
}

type ReconcilePlan struct {
	ToAdd           []MembershipAction `json:"to_add"`
	ToRemove        []MembershipAction `json:"to_remove"`
	UsersEvaluated  int                `json:"users_evaluated"`
	GroupsEvaluated int                `json:"groups_evaluated"`
	GeneratedAt     time.Time          `json:"generated_at"`
}

// Actions returns the adds followed by the removes.
func (p *ReconcilePlan) Actions() []MembershipAction {
	actions := make([]MembershipAction, 0, len(p.ToAdd)+len(p.ToRemove))
	actions = append(actions, p.ToAdd...)
	return append(actions, p.ToRemove...)
}

func (p *ReconcilePlan) Empty() bool {
	return len(p.ToAdd) == 0 && len(p.ToRemove) == 0
}

type ApplyResult struct {
	Added   int `json:"added"`
	Removed int `json:"removed"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`
}

// RunResult is the outcome of a reconcile-then-apply pass.
type RunResult struct {
	Plan   *ReconcilePlan `json:"plan"`
	Result *ApplyResult   `json:"result,omitempty"`
	DryRun bool           `json:"dry_run"`
}

// GroupMatch is a group a user qualifies for, with the matching reasons.
type GroupMatch struct {
	GroupID   string   `json:"group_id"`
	GroupName string   `json:"group_name"`
	Reasons   []string `json:"reasons"`
	IsMember  bool     `json:"is_member"`
}

// UserEvaluation is the attribute map of one user and the groups it
// qualifies for.
type UserEvaluation struct {
	UserID     string       `json:"user_id"`
	Username   string       `json:"username"`
	Attributes AttributeMap `json:"attributes"`
	Matches    []GroupMatch `json:"matches"`
}
