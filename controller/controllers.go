// controller/controllers.go
package controller

import (
	"go.uber.org/zap"

	"github.com/securenet/dyngroups/logging"
	"github.com/securenet/dyngroups/service"
)

type Controllers struct {
	Rule       *RuleController
	Membership *MembershipController
	Audit      *AuditController
}

func InitializeControllers(services *service.Services, log *zap.Logger) *Controllers {
	log = logging.OrNop(log)
	return &Controllers{
		Rule:       NewRuleController(services.Rule, log),
		Membership: NewMembershipController(services.Membership, log),
		Audit:      NewAuditController(services.Audit, log),
	}
}
