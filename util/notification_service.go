// util/notification_service.go

package util

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/securenet/dyngroups/logging"
	"github.com/securenet/dyngroups/model"
)

// NotificationService reports membership and rule changes. Notifications
// are written to the log.
type NotificationService struct {
	log *zap.Logger
}

func NewNotificationService(log *zap.Logger) *NotificationService {
	return &NotificationService{log: logging.OrNop(log)}
}

// Register subscribes the service to the events it reports on.
func (n *NotificationService) Register(bus *EventBus) {
	bus.Subscribe(EventMembershipAdded, n.handleMembership)
	bus.Subscribe(EventMembershipRemoved, n.handleMembership)
	bus.Subscribe(EventRuleCreated, n.handleRule)
	bus.Subscribe(EventRuleDeactivated, n.handleRule)
	bus.Subscribe(EventReconcileFinished, n.handleReconcile)
}

func (n *NotificationService) handleMembership(ctx context.Context, event Event) error {
	action, ok := event.Payload.(model.MembershipAction)
	if !ok {
		return fmt.Errorf("unexpected payload %T for %s", event.Payload, event.Type)
	}
	return n.NotifyMembershipChange(ctx, action)
}

func (n *NotificationService) handleRule(ctx context.Context, event Event) error {
	rule, ok := event.Payload.(model.Rule)
	if !ok {
		return fmt.Errorf("unexpected payload %T for %s", event.Payload, event.Type)
	}
	return n.NotifyRuleChange(ctx, event.Type, rule)
}

func (n *NotificationService) handleReconcile(ctx context.Context, event Event) error {
	result, ok := event.Payload.(model.ApplyResult)
	if !ok {
		return fmt.Errorf("unexpected payload %T for %s", event.Payload, event.Type)
	}
	n.log.Info("NOTIFICATION: Reconciliation finished",
		zap.Int("added", result.Added),
		zap.Int("removed", result.Removed),
		zap.Int("failed", result.Failed))
	return nil
}

func (n *NotificationService) NotifyMembershipChange(ctx context.Context, action model.MembershipAction) error {
	switch action.Action {
	case model.ActionAdd:
		n.log.Info("NOTIFICATION: User added to group",
			zap.String("userID", action.UserID),
			zap.String("username", action.Username),
			zap.String("group", action.GroupName),
			zap.Strings("reasons", action.Reasons))
	case model.ActionRemove:
		n.log.Info("NOTIFICATION: User removed from group",
			zap.String("userID", action.UserID),
			zap.String("username", action.Username),
			zap.String("group", action.GroupName))
	default:
		return fmt.Errorf("unknown membership action: %s", action.Action)
	}
	return nil
}

func (n *NotificationService) NotifyRuleChange(ctx context.Context, changeType string, rule model.Rule) error {
	n.log.Info("NOTIFICATION: Rule changed",
		zap.String("changeType", changeType),
		zap.String("ruleID", rule.ID),
		zap.String("groupID", rule.GroupID),
		zap.String("rule", rule.Label()))
	return nil
}
