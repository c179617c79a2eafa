// controller/membership_controller.go
package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/securenet/dyngroups/service"
	"github.com/securenet/dyngroups/util"
)

type MembershipController struct {
	membershipService service.IMembershipService
	log               *zap.Logger
}

func NewMembershipController(membershipService service.IMembershipService, log *zap.Logger) *MembershipController {
	return &MembershipController{membershipService: membershipService, log: log}
}

func (mc *MembershipController) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/reconcile", mc.Reconcile)
	r.POST("/reconcile/apply", mc.Apply)
	r.GET("/users/:id/attributes", mc.UserAttributes)
	r.GET("/users/:id/evaluation", mc.EvaluateUser)
}

// Reconcile returns the plan without applying it.
func (mc *MembershipController) Reconcile(c *gin.Context) {
	plan, err := mc.membershipService.Reconcile(c)
	if err != nil {
		util.RespondWithError(c, mc.log, util.StatusForError(err), "Failed to reconcile memberships", err)
		return
	}

	c.JSON(http.StatusOK, plan)
}

// Apply reconciles and applies the resulting plan.
func (mc *MembershipController) Apply(c *gin.Context) {
	run, err := mc.membershipService.Run(c, false)
	if err != nil {
		util.RespondWithError(c, mc.log, util.StatusForError(err), "Failed to apply memberships", err)
		return
	}

	userID := util.GetUserIDFromContext(c)
	mc.log.Info("Reconciliation applied via API",
		zap.String("userID", userID),
		zap.Int("added", run.Result.Added),
		zap.Int("removed", run.Result.Removed))
	c.JSON(http.StatusOK, run)
}

func (mc *MembershipController) UserAttributes(c *gin.Context) {
	attrs, err := mc.membershipService.UserAttributes(c, c.Param("id"))
	if err != nil {
		util.RespondWithError(c, mc.log, util.StatusForError(err), "Failed to resolve user attributes", err)
		return
	}

	c.JSON(http.StatusOK, attrs)
}

// EvaluateUser shows the groups a user qualifies for, computed from fresh
// attributes.
func (mc *MembershipController) EvaluateUser(c *gin.Context) {
	evaluation, err := mc.membershipService.EvaluateUser(c, c.Param("id"))
	if err != nil {
		util.RespondWithError(c, mc.log, util.StatusForError(err), "Failed to evaluate user", err)
		return
	}

	c.JSON(http.StatusOK, evaluation)
}
