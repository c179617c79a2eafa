package controller_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/securenet/dyngroups/audit"
	"github.com/securenet/dyngroups/controller"
	dg_errors "github.com/securenet/dyngroups/errors"
	"github.com/securenet/dyngroups/model"
	"github.com/securenet/dyngroups/service"
	mocks "github.com/securenet/dyngroups/test/mock"
)

type fixture struct {
	router     *gin.Engine
	rules      *mocks.MockRuleService
	membership *mocks.MockMembershipService
	audit      *mocks.MockAuditService
}

func setupRouter(t *testing.T) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	f := &fixture{
		router:     gin.New(),
		rules:      new(mocks.MockRuleService),
		membership: new(mocks.MockMembershipService),
		audit:      new(mocks.MockAuditService),
	}
	controllers := controller.InitializeControllers(&service.Services{
		Rule:       f.rules,
		Membership: f.membership,
		Audit:      f.audit,
	}, zap.NewNop())

	api := f.router.Group("/api/v1")
	controllers.Rule.RegisterRoutes(api)
	controllers.Membership.RegisterRoutes(api)
	controllers.Audit.RegisterRoutes(api)

	t.Cleanup(func() {
		f.rules.AssertExpectations(t)
		f.membership.AssertExpectations(t)
		f.audit.AssertExpectations(t)
	})
	return f
}

func (f *fixture) do(method, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	f.router.ServeHTTP(w, req)
	return w
}

func TestRuleController(t *testing.T) {
	t.Run("CreateRule_Success", func(t *testing.T) {
		f := setupRouter(t)
		f.rules.On("CreateRule", mock.Anything, mock.MatchedBy(func(r model.Rule) bool {
			return r.Operator == model.OperatorInList && len(r.Value.List) == 2
		})).Return(&model.Rule{ID: "r1", Operator: model.OperatorInList}, nil)

		w := f.do("POST", "/api/v1/rules", `{"group_id":"g1","attribute":"role","operator":"in_list","value":["admin","ops"],"is_active":true}`)
		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Contains(t, w.Body.String(), `"id":"r1"`)
	})

	t.Run("CreateRule_Invalid", func(t *testing.T) {
		f := setupRouter(t)
		f.rules.On("CreateRule", mock.Anything, mock.Anything).Return(nil, dg_errors.ErrInvalidRuleData)

		w := f.do("POST", "/api/v1/rules", `{"group_id":"g1","attribute":"role","operator":"nope"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("CreateRule_MalformedJSON", func(t *testing.T) {
		f := setupRouter(t)
		w := f.do("POST", "/api/v1/rules", `{"group_id":`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("GetRule_NotFound", func(t *testing.T) {
		f := setupRouter(t)
		f.rules.On("GetRule", mock.Anything, "missing").Return(nil, dg_errors.ErrRuleNotFound)

		w := f.do("GET", "/api/v1/rules/missing", "")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("ListRules_Filters", func(t *testing.T) {
		f := setupRouter(t)
		f.rules.On("ListRules", mock.Anything, "g1", true).Return([]model.Rule{{ID: "r1"}}, nil)

		w := f.do("GET", "/api/v1/rules?group_id=g1&active=true", "")
		assert.Equal(t, http.StatusOK, w.Code)

		var rules []model.Rule
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rules))
		assert.Len(t, rules, 1)
	})

	t.Run("ListRules_BadActive", func(t *testing.T) {
		f := setupRouter(t)
		w := f.do("GET", "/api/v1/rules?active=maybe", "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("DeactivateRule", func(t *testing.T) {
		f := setupRouter(t)
		f.rules.On("DeactivateRule", mock.Anything, "r1").Return(nil)

		w := f.do("DELETE", "/api/v1/rules/r1", "")
		assert.Equal(t, http.StatusNoContent, w.Code)
	})

	t.Run("SetupDefaults", func(t *testing.T) {
		f := setupRouter(t)
		f.rules.On("SetupDefaultRules", mock.Anything).Return(7, nil)

		w := f.do("POST", "/api/v1/rules/setup-defaults", "")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"created":7}`, w.Body.String())
	})

	t.Run("CreateRuleSet", func(t *testing.T) {
		f := setupRouter(t)
		f.rules.On("CreateRuleSet", mock.Anything, mock.MatchedBy(func(s model.RuleSet) bool {
			return s.Condition == model.ConditionNot && len(s.RuleIDs) == 1
		})).Return(&model.RuleSet{ID: "s1"}, nil)

		w := f.do("POST", "/api/v1/rule-sets", `{"group_id":"g1","name":"n","condition":"NOT","rule_ids":["r1"]}`)
		assert.Equal(t, http.StatusCreated, w.Code)
	})

	t.Run("DeactivateRuleSet_NotFound", func(t *testing.T) {
		f := setupRouter(t)
		f.rules.On("DeactivateRuleSet", mock.Anything, "s9").Return(dg_errors.ErrRuleSetNotFound)

		w := f.do("DELETE", "/api/v1/rule-sets/s9", "")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestMembershipController(t *testing.T) {
	t.Run("Reconcile", func(t *testing.T) {
		f := setupRouter(t)
		f.membership.On("Reconcile", mock.Anything).Return(&model.ReconcilePlan{
			ToAdd: []model.MembershipAction{{UserID: "u1", GroupID: "g1", Action: model.ActionAdd, Reasons: []string{"r"}}},
		}, nil)

		w := f.do("POST", "/api/v1/reconcile", "")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"user_id":"u1"`)
	})

	t.Run("Apply", func(t *testing.T) {
		f := setupRouter(t)
		f.membership.On("Run", mock.Anything, false).Return(&model.RunResult{
			Plan:   &model.ReconcilePlan{},
			Result: &model.ApplyResult{Added: 2, Removed: 1},
		}, nil)

		w := f.do("POST", "/api/v1/reconcile/apply", "")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"added":2`)
	})

	t.Run("Apply_InProgress", func(t *testing.T) {
		f := setupRouter(t)
		f.membership.On("Run", mock.Anything, false).Return(nil, dg_errors.ErrReconcileInProgress)

		w := f.do("POST", "/api/v1/reconcile/apply", "")
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("UserAttributes", func(t *testing.T) {
		f := setupRouter(t)
		f.membership.On("UserAttributes", mock.Anything, "u1").Return(model.AttributeMap{"department": "Sales"}, nil)

		w := f.do("GET", "/api/v1/users/u1/attributes", "")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"department":"Sales"`)
	})

	t.Run("UserAttributes_NotFound", func(t *testing.T) {
		f := setupRouter(t)
		f.membership.On("UserAttributes", mock.Anything, "ghost").Return(nil, dg_errors.ErrUserNotFound)

		w := f.do("GET", "/api/v1/users/ghost/attributes", "")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("EvaluateUser", func(t *testing.T) {
		f := setupRouter(t)
		f.membership.On("EvaluateUser", mock.Anything, "u1").Return(&model.UserEvaluation{
			UserID:  "u1",
			Matches: []model.GroupMatch{{GroupName: "Sales", IsMember: true}},
		}, nil)

		w := f.do("GET", "/api/v1/users/u1/evaluation", "")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"group_name":"Sales"`)
	})
}

func TestAuditController(t *testing.T) {
	t.Run("QueryLogs", func(t *testing.T) {
		f := setupRouter(t)
		from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		f.audit.On("QueryLogs", mock.Anything, audit.AuditQuery{
			UserID: "u1", From: from, Limit: 10, Offset: 5,
		}).Return([]audit.AuditEntry{{ID: "a1", UserID: "u1"}}, nil)

		w := f.do("GET", "/api/v1/audit?user_id=u1&from=2024-01-01T00:00:00Z&limit=10&offset=5", "")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"id":"a1"`)
	})

	t.Run("QueryLogs_BadTime", func(t *testing.T) {
		f := setupRouter(t)
		w := f.do("GET", "/api/v1/audit?to=yesterday", "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
