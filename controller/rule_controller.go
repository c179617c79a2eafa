// controller/rule_controller.go
package controller

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/securenet/dyngroups/model"
	"github.com/securenet/dyngroups/service"
	"github.com/securenet/dyngroups/util"
)

type RuleController struct {
	ruleService service.IRuleService
	log         *zap.Logger
}

func NewRuleController(ruleService service.IRuleService, log *zap.Logger) *RuleController {
	return &RuleController{ruleService: ruleService, log: log}
}

// RegisterRoutes registers the rule and rule set routes
func (rc *RuleController) RegisterRoutes(r *gin.RouterGroup) {
	rules := r.Group("/rules")
	{
		rules.POST("", rc.CreateRule)
		rules.GET("", rc.ListRules)
		rules.GET("/:id", rc.GetRule)
		rules.DELETE("/:id", rc.DeactivateRule)
		rules.POST("/setup-defaults", rc.SetupDefaultRules)
	}

	ruleSets := r.Group("/rule-sets")
	{
		ruleSets.POST("", rc.CreateRuleSet)
		ruleSets.GET("", rc.ListRuleSets)
		ruleSets.DELETE("/:id", rc.DeactivateRuleSet)
	}
}

func (rc *RuleController) CreateRule(c *gin.Context) {
	var rule model.Rule
	if err := c.ShouldBindJSON(&rule); err != nil {
		util.RespondWithError(c, rc.log, http.StatusBadRequest, "Invalid rule data", err)
		return
	}

	created, err := rc.ruleService.CreateRule(c, rule)
	if err != nil {
		util.RespondWithError(c, rc.log, util.StatusForError(err), "Failed to create rule", err)
		return
	}

	c.JSON(http.StatusCreated, created)
}

func (rc *RuleController) GetRule(c *gin.Context) {
	rule, err := rc.ruleService.GetRule(c, c.Param("id"))
	if err != nil {
		util.RespondWithError(c, rc.log, util.StatusForError(err), "Failed to retrieve rule", err)
		return
	}

	c.JSON(http.StatusOK, rule)
}

// ListRules supports ?group_id= and ?active=true
func (rc *RuleController) ListRules(c *gin.Context) {
	activeOnly, err := activeParam(c)
	if err != nil {
		util.RespondWithError(c, rc.log, http.StatusBadRequest, "Invalid active parameter", err)
		return
	}

	rules, err := rc.ruleService.ListRules(c, c.Query("group_id"), activeOnly)
	if err != nil {
		util.RespondWithError(c, rc.log, util.StatusForError(err), "Failed to list rules", err)
		return
	}

	c.JSON(http.StatusOK, rules)
}

func (rc *RuleController) DeactivateRule(c *gin.Context) {
	if err := rc.ruleService.DeactivateRule(c, c.Param("id")); err != nil {
		util.RespondWithError(c, rc.log, util.StatusForError(err), "Failed to deactivate rule", err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (rc *RuleController) SetupDefaultRules(c *gin.Context) {
	created, err := rc.ruleService.SetupDefaultRules(c)
	if err != nil {
		util.RespondWithError(c, rc.log, util.StatusForError(err), "Failed to set up default rules", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"created": created})
}

func (rc *RuleController) CreateRuleSet(c *gin.Context) {
	var set model.RuleSet
	if err := c.ShouldBindJSON(&set); err != nil {
		util.RespondWithError(c, rc.log, http.StatusBadRequest, "Invalid rule set data", err)
		return
	}

	created, err := rc.ruleService.CreateRuleSet(c, set)
	if err != nil {
		util.RespondWithError(c, rc.log, util.StatusForError(err), "Failed to create rule set", err)
		return
	}

	c.JSON(http.StatusCreated, created)
}

func (rc *RuleController) ListRuleSets(c *gin.Context) {
	activeOnly, err := activeParam(c)
	if err != nil {
		util.RespondWithError(c, rc.log, http.StatusBadRequest, "Invalid active parameter", err)
		return
	}

	sets, err := rc.ruleService.ListRuleSets(c, c.Query("group_id"), activeOnly)
	if err != nil {
		util.RespondWithError(c, rc.log, util.StatusForError(err), "Failed to list rule sets", err)
		return
	}

	c.JSON(http.StatusOK, sets)
}

func (rc *RuleController) DeactivateRuleSet(c *gin.Context) {
	if err := rc.ruleService.DeactivateRuleSet(c, c.Param("id")); err != nil {
		util.RespondWithError(c, rc.log, util.StatusForError(err), "Failed to deactivate rule set", err)
		return
	}

	c.Status(http.StatusNoContent)
}

func activeParam(c *gin.Context) (bool, error) {
	raw := c.Query("active")
	if raw == "" {
		return false, nil
	}
	active, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid active value %q", raw)
	}
	return active, nil
}
