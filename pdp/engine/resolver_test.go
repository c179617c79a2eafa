package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	dg_errors "github.com/securenet/dyngroups/errors"
	"github.com/securenet/dyngroups/model"
	mocks "github.com/securenet/dyngroups/test/mock"
)

var fixedNow = time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

func newResolver(users *mocks.MockUserReader, memberships *mocks.MockMembershipReader, cache AttributeCache) *AttributeResolver {
	return NewAttributeResolver(users, memberships, cache, nil, 0).WithClock(func() time.Time { return fixedNow })
}

func TestResolveUnknownUser(t *testing.T) {
	ctx := context.Background()
	users := new(mocks.MockUserReader)
	memberships := new(mocks.MockMembershipReader)
	users.On("GetUser", ctx, "ghost").Return(nil, dg_errors.ErrUserNotFound)

	attrs, err := newResolver(users, memberships, nil).Resolve(ctx, "ghost")
	require.NoError(t, err)
	assert.NotNil(t, attrs)
	assert.Empty(t, attrs)
	memberships.AssertNotCalled(t, "ListUserGroups", mock.Anything, mock.Anything)
}

func TestResolveStorageError(t *testing.T) {
	ctx := context.Background()
	users := new(mocks.MockUserReader)
	users.On("GetUser", ctx, "u1").Return(nil, errors.New("disk I/O error"))

	_, err := newResolver(users, new(mocks.MockMembershipReader), nil).Resolve(ctx, "u1")
	assert.Error(t, err)
}

func TestResolveDerivedAttributes(t *testing.T) {
	ctx := context.Background()
	expires := fixedNow.Add(10 * 24 * time.Hour)
	user := &model.User{
		ID:               "u1",
		Username:         "jdoe",
		Role:             "analyst",
		Email:            "jdoe@securenet.io",
		Department:       "Sales",
		AccountType:      "contractor",
		AccountExpiresAt: &expires,
		IsActive:         true,
	}

	users := new(mocks.MockUserReader)
	memberships := new(mocks.MockMembershipReader)
	users.On("GetUser", ctx, "u1").Return(user, nil)
	memberships.On("ListUserGroups", ctx, "u1").Return([]model.Group{{ID: "g1", Name: "Sales"}, {ID: "g2", Name: "VPN Users"}}, nil)

	attrs, err := newResolver(users, memberships, nil).Resolve(ctx, "u1")
	require.NoError(t, err)

	assert.Equal(t, "Sales", attrs[model.AttrDepartment])
	assert.Equal(t, "securenet.io", attrs[model.AttrEmailDomain])
	assert.Equal(t, false, attrs[model.AttrIsExpired])
	assert.Equal(t, 10, attrs[model.AttrDaysUntilExpiry])
	assert.Equal(t, []string{"Sales", "VPN Users"}, attrs[model.AttrCurrentGroups])
	assert.Equal(t, 2, attrs[model.AttrGroupCount])
	assert.Equal(t, "2026-10-29T12:00:00Z", attrs[model.AttrAccountExpiresAt])
	assert.NotContains(t, attrs, model.AttrTitle)

	matched := NewRuleEvaluator(nil, nil).Matches(rule(model.AttrDaysUntilExpiry, model.OperatorLessThan, model.NumberValue(90)), attrs)
	assert.True(t, matched)
}

func TestResolveExpiryEdgeCases(t *testing.T) {
	ctx := context.Background()
	expired := fixedNow.Add(-36 * time.Hour)

	users := new(mocks.MockUserReader)
	memberships := new(mocks.MockMembershipReader)
	users.On("GetUser", ctx, "old").Return(&model.User{ID: "old", Username: "old", AccountExpiresAt: &expired}, nil)
	users.On("GetUser", ctx, "forever").Return(&model.User{ID: "forever", Username: "forever", Email: "no-at-sign"}, nil)
	memberships.On("ListUserGroups", ctx, mock.Anything).Return([]model.Group{}, nil)

	r := newResolver(users, memberships, nil)

	attrs, err := r.Resolve(ctx, "old")
	require.NoError(t, err)
	assert.Equal(t, true, attrs[model.AttrIsExpired])
	assert.Equal(t, -2, attrs[model.AttrDaysUntilExpiry])
	assert.NotContains(t, attrs, model.AttrEmailDomain)

	attrs, err = r.Resolve(ctx, "forever")
	require.NoError(t, err)
	assert.Equal(t, false, attrs[model.AttrIsExpired])
	assert.Equal(t, DefaultExpirySentinelDays, attrs[model.AttrDaysUntilExpiry])
	assert.NotContains(t, attrs, model.AttrEmailDomain)
	assert.Equal(t, 0, attrs[model.AttrGroupCount])
}

func TestResolveUsesCache(t *testing.T) {
	ctx := context.Background()
	users := new(mocks.MockUserReader)
	memberships := new(mocks.MockMembershipReader)
	cache := new(mocks.MockAttributeCache)

	cached := model.AttributeMap{model.AttrUserID: "u1", model.AttrDepartment: "Sales"}
	cache.On("GetAttributes", ctx, "u1").Return(cached, nil)

	attrs, err := newResolver(users, memberships, cache).Resolve(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, cached, attrs)
	users.AssertNotCalled(t, "GetUser", mock.Anything, mock.Anything)
}

func TestResolvePopulatesCacheOnMiss(t *testing.T) {
	ctx := context.Background()
	users := new(mocks.MockUserReader)
	memberships := new(mocks.MockMembershipReader)
	cache := new(mocks.MockAttributeCache)

	cache.On("GetAttributes", ctx, "u1").Return(nil, nil)
	users.On("GetUser", ctx, "u1").Return(&model.User{ID: "u1", Username: "u1"}, nil)
	memberships.On("ListUserGroups", ctx, "u1").Return([]model.Group{}, nil)
	cache.On("SetAttributes", ctx, "u1", mock.AnythingOfType("model.AttributeMap")).Return(errors.New("redis down"))
	cache.On("InvalidateAttributes", ctx, "u1").Return(nil)

	r := newResolver(users, memberships, cache)
	attrs, err := r.Resolve(ctx, "u1")
	require.NoError(t, err, "cache failures are not fatal")
	assert.Equal(t, "u1", attrs[model.AttrUsername])

	r.Invalidate(ctx, "u1")
	cache.AssertExpectations(t)
}

func TestResolveFreshSkipsCacheRead(t *testing.T) {
	ctx := context.Background()
	users := new(mocks.MockUserReader)
	memberships := new(mocks.MockMembershipReader)
	cache := new(mocks.MockAttributeCache)

	users.On("GetUser", ctx, "u1").Return(&model.User{ID: "u1", Username: "u1", Department: "Sales"}, nil)
	memberships.On("ListUserGroups", ctx, "u1").Return([]model.Group{}, nil)
	cache.On("SetAttributes", ctx, "u1", mock.AnythingOfType("model.AttributeMap")).Return(nil)

	attrs, err := newResolver(users, memberships, cache).ResolveFresh(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "Sales", attrs[model.AttrDepartment])
	cache.AssertNotCalled(t, "GetAttributes", mock.Anything, mock.Anything)
	cache.AssertExpectations(t)
}
