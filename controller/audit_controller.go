// controller/audit_controller.go
package controller

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/securenet/dyngroups/audit"
	dg_errors "github.com/securenet/dyngroups/errors"
	"github.com/securenet/dyngroups/util"
	helper_util "github.com/securenet/dyngroups/util/helper"
)

type AuditController struct {
	auditService audit.Service
	log          *zap.Logger
}

func NewAuditController(auditService audit.Service, log *zap.Logger) *AuditController {
	return &AuditController{auditService: auditService, log: log}
}

func (ac *AuditController) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/audit", ac.QueryLogs)
}

// QueryLogs supports ?user_id=&group_id=&from=&to=&limit=&offset=
func (ac *AuditController) QueryLogs(c *gin.Context) {
	limit, offset, err := helper_util.GetPaginationParams(c)
	if err != nil {
		util.RespondWithError(c, ac.log, http.StatusBadRequest, "Invalid pagination parameters", err)
		return
	}

	from, err := helper_util.ParseOptionalTime(c.Query("from"))
	if err != nil {
		util.RespondWithError(c, ac.log, http.StatusBadRequest, "Invalid audit query",
			fmt.Errorf("%w: from: %v", dg_errors.ErrInvalidAuditQuery, err))
		return
	}
	to, err := helper_util.ParseOptionalTime(c.Query("to"))
	if err != nil {
		util.RespondWithError(c, ac.log, http.StatusBadRequest, "Invalid audit query",
			fmt.Errorf("%w: to: %v", dg_errors.ErrInvalidAuditQuery, err))
		return
	}

	entries, err := ac.auditService.QueryLogs(c, audit.AuditQuery{
		UserID:  c.Query("user_id"),
		GroupID: c.Query("group_id"),
		From:    from,
		To:      to,
		Limit:   limit,
		Offset:  offset,
	})
	if err != nil {
		util.RespondWithError(c, ac.log, util.StatusForError(err), "Failed to query audit logs", err)
		return
	}

	c.JSON(http.StatusOK, entries)
}
