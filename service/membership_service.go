// service/membership_service.go
package service

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/securenet/dyngroups/audit"
	"github.com/securenet/dyngroups/dao"
	dg_errors "github.com/securenet/dyngroups/errors"
	"github.com/securenet/dyngroups/logging"
	"github.com/securenet/dyngroups/metrics"
	"github.com/securenet/dyngroups/model"
	"github.com/securenet/dyngroups/pdp/engine"
	"github.com/securenet/dyngroups/util"
)

// MembershipService reconciles group membership with the active rules.
type MembershipService struct {
	userDAO      *dao.UserDAO
	groupDAO     *dao.GroupDAO
	ruleDAO      *dao.RuleDAO
	resolver     *engine.AttributeResolver
	rules        *engine.RuleEvaluator
	ruleSets     *engine.RuleSetEvaluator
	auditService audit.Service
	eventBus     *util.EventBus
	metrics      *metrics.Collector
	locker       Locker
	log          *zap.Logger
	now          func() time.Time
}

type MembershipDeps struct {
	UserDAO      *dao.UserDAO
	GroupDAO     *dao.GroupDAO
	RuleDAO      *dao.RuleDAO
	Resolver     *engine.AttributeResolver
	Rules        *engine.RuleEvaluator
	RuleSets     *engine.RuleSetEvaluator
	AuditService audit.Service
	EventBus     *util.EventBus
	Metrics      *metrics.Collector
	Locker       Locker
}

func NewMembershipService(deps MembershipDeps, log *zap.Logger) *MembershipService {
	locker := deps.Locker
	if locker == nil {
		locker = NewLocalLocker()
	}
	return &MembershipService{
		userDAO:      deps.UserDAO,
		groupDAO:     deps.GroupDAO,
		ruleDAO:      deps.RuleDAO,
		resolver:     deps.Resolver,
		rules:        deps.Rules,
		ruleSets:     deps.RuleSets,
		auditService: deps.AuditService,
		eventBus:     deps.EventBus,
		metrics:      deps.Metrics,
		locker:       locker,
		log:          logging.OrNop(log),
		now:          time.Now,
	}
}

// groupTarget is a group with the active rules and rule sets assigning it.
type groupTarget struct {
	group    model.Group
	rules    []model.Rule
	ruleSets []model.RuleSet
}

// loadTargets returns the groups that have at least one active rule or rule
// set, ordered by name. Rules that belong to an active rule set are only
// evaluated through that set.
func (s *MembershipService) loadTargets(ctx context.Context) ([]*groupTarget, error) {
	rules, err := s.ruleDAO.ListRules(ctx, "", true)
	if err != nil {
		return nil, fmt.Errorf("failed to load rules: %w", err)
	}
	sets, err := s.ruleDAO.ListRuleSets(ctx, "", true)
	if err != nil {
		return nil, fmt.Errorf("failed to load rule sets: %w", err)
	}
	groups, err := s.groupDAO.ListGroups(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load groups: %w", err)
	}

	byID := make(map[string]model.Group, len(groups))
	for _, g := range groups {
		byID[g.ID] = g
	}

	// Only a set of the rule's own group takes the rule over.
	inSet := make(map[string]bool)
	for _, set := range sets {
		for _, id := range set.RuleIDs {
			inSet[set.GroupID+"/"+id] = true
		}
	}

	targets := make(map[string]*groupTarget)
	target := func(groupID string) *groupTarget {
		group, ok := byID[groupID]
		if !ok {
			s.log.Warn("Rule targets an unknown group", zap.String("groupID", groupID))
			return nil
		}
		t, ok := targets[groupID]
		if !ok {
			t = &groupTarget{group: group}
			targets[groupID] = t
		}
		return t
	}

	for _, rule := range rules {
		if inSet[rule.GroupID+"/"+rule.ID] {
			continue
		}
		if t := target(rule.GroupID); t != nil {
			t.rules = append(t.rules, rule)
		}
	}
	for _, set := range sets {
		if t := target(set.GroupID); t != nil {
			t.ruleSets = append(t.ruleSets, set)
		}
	}

	ordered := make([]*groupTarget, 0, len(targets))
	for _, t := range targets {
		ordered = append(ordered, t)
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].group.Name < ordered[j].group.Name })
	return ordered, nil
}

// evaluate returns the reasons attrs qualifies for the target group. No
// reasons means the user should not be a member.
func (s *MembershipService) evaluate(t *groupTarget, attrs model.AttributeMap) (reasons, ruleIDs, ruleSetIDs []string) {
	if attrs.IsEmpty() {
		return nil, nil, nil
	}
	for _, rule := range t.rules {
		if s.rules.Matches(rule, attrs) {
			reasons = append(reasons, rule.Label())
			ruleIDs = append(ruleIDs, rule.ID)
		}
	}
	for _, set := range t.ruleSets {
		matched, err := s.ruleSets.Evaluate(set, attrs)
		if err != nil {
			s.log.Warn("Rule set evaluated with errors",
				zap.String("ruleSetID", set.ID),
				zap.String("ruleSet", set.Name),
				zap.Error(err))
		}
		if matched {
			reasons = append(reasons, fmt.Sprintf("rule set '%s'", set.Name))
			ruleSetIDs = append(ruleSetIDs, set.ID)
		}
	}
	return reasons, ruleIDs, ruleSetIDs
}

// Reconcile compares the membership every user should have with the
// membership it has and returns the corrective actions. Nothing is written.
func (s *MembershipService) Reconcile(ctx context.Context) (*model.ReconcilePlan, error) {
	start := s.now()

	targets, err := s.loadTargets(ctx)
	if err != nil {
		return nil, err
	}
	users, err := s.userDAO.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load users: %w", err)
	}
	memberships, err := s.groupDAO.ListMemberships(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load memberships: %w", err)
	}

	plan := &model.ReconcilePlan{
		ToAdd:           []model.MembershipAction{},
		ToRemove:        []model.MembershipAction{},
		UsersEvaluated:  len(users),
		GroupsEvaluated: len(targets),
		GeneratedAt:     start.UTC(),
	}
	if len(targets) == 0 {
		return plan, nil
	}

	for _, user := range users {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		attrs, err := s.resolver.ResolveFresh(ctx, user.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve attributes of user %s: %w", user.ID, err)
		}

		for _, t := range targets {
			reasons, ruleIDs, ruleSetIDs := s.evaluate(t, attrs)
			isMember := memberships[user.ID][t.group.ID]

			switch {
			case len(reasons) > 0 && !isMember:
				plan.ToAdd = append(plan.ToAdd, model.MembershipAction{
					UserID:     user.ID,
					Username:   user.Username,
					GroupID:    t.group.ID,
					GroupName:  t.group.Name,
					Action:     model.ActionAdd,
					Reasons:    reasons,
					RuleIDs:    ruleIDs,
					RuleSetIDs: ruleSetIDs,
				})
			case len(reasons) == 0 && isMember:
				plan.ToRemove = append(plan.ToRemove, model.MembershipAction{
					UserID:    user.ID,
					Username:  user.Username,
					GroupID:   t.group.ID,
					GroupName: t.group.Name,
					Action:    model.ActionRemove,
					Reasons:   []string{fmt.Sprintf("no active rule or rule set for group '%s' matched", t.group.Name)},
				})
			}
		}
	}

	s.log.Info("Reconciliation planned",
		zap.Int("users", plan.UsersEvaluated),
		zap.Int("groups", plan.GroupsEvaluated),
		zap.Int("toAdd", len(plan.ToAdd)),
		zap.Int("toRemove", len(plan.ToRemove)),
		zap.Duration("duration", s.now().Sub(start)))
	return plan, nil
}

// Apply performs the actions one by one. A failing action is logged and
// skipped; earlier changes are kept. Adds of existing memberships and
// removes of missing ones are skipped and not counted.
func (s *MembershipService) Apply(ctx context.Context, actions []model.MembershipAction) (*model.ApplyResult, error) {
	result := &model.ApplyResult{}

	for _, action := range actions {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		changed, err := s.applyOne(ctx, action)
		switch {
		case err != nil:
			result.Failed++
			s.observeChange(action.Action, "failed")
			s.log.Error("Failed to apply membership action",
				zap.Error(err),
				zap.String("userID", action.UserID),
				zap.String("groupID", action.GroupID),
				zap.String("action", string(action.Action)))
		case !changed:
			result.Skipped++
			s.observeChange(action.Action, "skipped")
		case action.Action == model.ActionAdd:
			result.Added++
			s.observeChange(action.Action, "applied")
		default:
			result.Removed++
			s.observeChange(action.Action, "applied")
		}
	}

	s.log.Info("Membership changes applied",
		zap.Int("added", result.Added),
		zap.Int("removed", result.Removed),
		zap.Int("skipped", result.Skipped),
		zap.Int("failed", result.Failed))
	return result, nil
}

func (s *MembershipService) applyOne(ctx context.Context, action model.MembershipAction) (bool, error) {
	current, err := s.groupDAO.ListUserGroups(ctx, action.UserID)
	if err != nil {
		return false, err
	}
	before := make([]string, 0, len(current))
	for _, g := range current {
		before = append(before, g.Name)
	}

	var (
		changed     bool
		after       []string
		auditAction string
		event       string
	)
	switch action.Action {
	case model.ActionAdd:
		changed, err = s.groupDAO.AddMember(ctx, action.UserID, action.GroupID)
		after = append(slices.Clone(before), action.GroupName)
		sort.Strings(after)
		auditAction, event = audit.ActionGroupAdd, util.EventMembershipAdded
	case model.ActionRemove:
		changed, err = s.groupDAO.RemoveMember(ctx, action.UserID, action.GroupID)
		after = slices.DeleteFunc(slices.Clone(before), func(name string) bool { return name == action.GroupName })
		auditAction, event = audit.ActionGroupRemove, util.EventMembershipRemoved
	default:
		return false, fmt.Errorf("unknown membership action %q", action.Action)
	}
	if err != nil || !changed {
		return false, err
	}

	entry := audit.AuditEntry{
		UserID:            action.UserID,
		GroupID:           action.GroupID,
		RuleID:            firstOf(action.RuleIDs),
		RuleSetID:         firstOf(action.RuleSetIDs),
		Action:            auditAction,
		GroupsBefore:      before,
		GroupsAfter:       after,
		EvaluationSummary: strings.Join(action.Reasons, "; "),
	}
	if err := s.auditService.LogMembershipChange(ctx, entry); err != nil {
		s.log.Error("Failed to write audit entry",
			zap.Error(err),
			zap.String("userID", action.UserID),
			zap.String("groupID", action.GroupID))
	}

	s.resolver.Invalidate(ctx, action.UserID)
	s.eventBus.Publish(ctx, event, action)
	return true, nil
}

// Run reconciles and, unless dryRun is set, applies the plan. Only one run
// may be in progress at a time.
func (s *MembershipService) Run(ctx context.Context, dryRun bool) (*model.RunResult, error) {
	locked, err := s.locker.TryLock(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire reconcile lock: %w", err)
	}
	if !locked {
		return nil, dg_errors.ErrReconcileInProgress
	}
	defer func() {
		if err := s.locker.Unlock(context.WithoutCancel(ctx)); err != nil {
			s.log.Warn("Failed to release reconcile lock", zap.Error(err))
		}
	}()

	start := s.now()
	mode := "apply"
	if dryRun {
		mode = "dry_run"
	}

	plan, err := s.Reconcile(ctx)
	if err != nil {
		s.observeRun(mode, "error", start)
		return nil, err
	}
	run := &model.RunResult{Plan: plan, DryRun: dryRun}
	if dryRun {
		s.observeRun(mode, "success", start)
		return run, nil
	}

	result, err := s.Apply(ctx, plan.Actions())
	run.Result = result
	if err != nil {
		s.observeRun(mode, "error", start)
		return run, err
	}

	s.observeRun(mode, "success", start)
	s.eventBus.Publish(ctx, util.EventReconcileFinished, *result)
	return run, nil
}

// EvaluateUser returns the attributes of a user and the groups it qualifies
// for without changing anything.
func (s *MembershipService) EvaluateUser(ctx context.Context, userID string) (*model.UserEvaluation, error) {
	user, err := s.userDAO.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	attrs, err := s.resolver.ResolveFresh(ctx, userID)
	if err != nil {
		return nil, err
	}
	targets, err := s.loadTargets(ctx)
	if err != nil {
		return nil, err
	}
	memberships, err := s.groupDAO.ListMemberships(ctx)
	if err != nil {
		return nil, err
	}

	evaluation := &model.UserEvaluation{
		UserID:     user.ID,
		Username:   user.Username,
		Attributes: attrs,
		Matches:    []model.GroupMatch{},
	}
	for _, t := range targets {
		reasons, _, _ := s.evaluate(t, attrs)
		if len(reasons) == 0 {
			continue
		}
		evaluation.Matches = append(evaluation.Matches, model.GroupMatch{
			GroupID:   t.group.ID,
			GroupName: t.group.Name,
			Reasons:   reasons,
			IsMember:  memberships[userID][t.group.ID],
		})
	}
	return evaluation, nil
}

// UserAttributes returns the attribute map of a user, served from the
// attribute cache when one is configured. Reconciliation never reads it.
func (s *MembershipService) UserAttributes(ctx context.Context, userID string) (model.AttributeMap, error) {
	attrs, err := s.resolver.Resolve(ctx, userID)
	if err != nil {
		return nil, err
	}
	if attrs.IsEmpty() {
		return nil, fmt.Errorf("%w: %s", dg_errors.ErrUserNotFound, userID)
	}
	return attrs, nil
}

func (s *MembershipService) observeChange(action model.MembershipActionType, status string) {
	if s.metrics != nil {
		s.metrics.ObserveMembershipChange(string(action), status)
	}
}

func (s *MembershipService) observeRun(mode, result string, start time.Time) {
	if s.metrics != nil {
		s.metrics.ObserveReconcile(mode, result, s.now().Sub(start))
	}
}

func firstOf(ids []string) *string {
	if len(ids) == 0 {
		return nil
	}
	id := ids[0]
	return &id
}
