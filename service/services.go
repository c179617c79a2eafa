// service/services.go
package service

import (
	"context"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/securenet/dyngroups/audit"
	"github.com/securenet/dyngroups/config"
	"github.com/securenet/dyngroups/dao"
	"github.com/securenet/dyngroups/metrics"
	"github.com/securenet/dyngroups/model"
	"github.com/securenet/dyngroups/pdp/engine"
	pdp_model "github.com/securenet/dyngroups/pdp/model"
	"github.com/securenet/dyngroups/util"
)

type IRuleService interface {
	CreateRule(ctx context.Context, rule model.Rule) (*model.Rule, error)
	GetRule(ctx context.Context, ruleID string) (*model.Rule, error)
	ListRules(ctx context.Context, groupID string, activeOnly bool) ([]model.Rule, error)
	DeactivateRule(ctx context.Context, ruleID string) error
	CreateRuleSet(ctx context.Context, set model.RuleSet) (*model.RuleSet, error)
	ListRuleSets(ctx context.Context, groupID string, activeOnly bool) ([]model.RuleSet, error)
	DeactivateRuleSet(ctx context.Context, ruleSetID string) error
	SetupDefaultRules(ctx context.Context) (int, error)
}

type IMembershipService interface {
	Reconcile(ctx context.Context) (*model.ReconcilePlan, error)
	Apply(ctx context.Context, actions []model.MembershipAction) (*model.ApplyResult, error)
	Run(ctx context.Context, dryRun bool) (*model.RunResult, error)
	EvaluateUser(ctx context.Context, userID string) (*model.UserEvaluation, error)
	UserAttributes(ctx context.Context, userID string) (model.AttributeMap, error)
}

type Services struct {
	Rule       IRuleService
	Membership IMembershipService
	Audit      audit.Service
	Users      *dao.UserDAO
	Groups     *dao.GroupDAO
}

// Infrastructure carries the optional collaborators of the services. Any
// field may be nil.
type Infrastructure struct {
	Cache    engine.AttributeCache
	Locker   Locker
	EventBus *util.EventBus
	Metrics  *metrics.Collector
}

func InitializeServices(
	conn *gorm.DB,
	cfg *config.Configuration,
	auditService audit.Service,
	validationUtil *util.ValidationUtil,
	infra Infrastructure,
	log *zap.Logger,
) (*Services, error) {
	userDAO := dao.NewUserDAO(conn, log)
	groupDAO := dao.NewGroupDAO(conn, log)
	ruleDAO := dao.NewRuleDAO(conn, log)

	var observer pdp_model.EvaluationObserver
	if infra.Metrics != nil {
		observer = infra.Metrics
	}
	ruleEvaluator := engine.NewRuleEvaluator(log, observer)
	resolver := engine.NewAttributeResolver(userDAO, groupDAO, infra.Cache, log, cfg.Reconcile.ExpirySentinelDays)

	services := &Services{
		Rule: NewRuleService(ruleDAO, groupDAO, validationUtil, infra.EventBus, log),
		Membership: NewMembershipService(MembershipDeps{
			UserDAO:      userDAO,
			GroupDAO:     groupDAO,
			RuleDAO:      ruleDAO,
			Resolver:     resolver,
			Rules:        ruleEvaluator,
			RuleSets:     engine.NewRuleSetEvaluator(ruleEvaluator, log),
			AuditService: auditService,
			EventBus:     infra.EventBus,
			Metrics:      infra.Metrics,
			Locker:       infra.Locker,
		}, log),
		Audit:  auditService,
		Users:  userDAO,
		Groups: groupDAO,
	}

	return services, nil
}
