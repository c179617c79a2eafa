package engine

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"

	dg_errors "github.com/securenet/dyngroups/errors"
	"github.com/securenet/dyngroups/logging"
	"github.com/securenet/dyngroups/model"
)

// DefaultExpirySentinelDays is days_until_expiry for accounts without an expiry.
const DefaultExpirySentinelDays = 9999

type UserReader interface {
	GetUser(ctx context.Context, userID string) (*model.User, error)
}

type MembershipReader interface {
	ListUserGroups(ctx context.Context, userID string) ([]model.Group, error)
}

// AttributeCache is an optional read-through cache of resolved attributes.
type AttributeCache interface {
	GetAttributes(ctx context.Context, userID string) (model.AttributeMap, error)
	SetAttributes(ctx context.Context, userID string, attrs model.AttributeMap) error
	InvalidateAttributes(ctx context.Context, userID string) error
}

// AttributeResolver builds the attribute map of a user.
type AttributeResolver struct {
	users        UserReader
	memberships  MembershipReader
	cache        AttributeCache
	log          *zap.Logger
	now          func() time.Time
	sentinelDays int
}

// NewAttributeResolver creates a resolver. cache may be nil.
func NewAttributeResolver(users UserReader, memberships MembershipReader, cache AttributeCache, log *zap.Logger, sentinelDays int) *AttributeResolver {
	if sentinelDays <= 0 {
		sentinelDays = DefaultExpirySentinelDays
	}
	return &AttributeResolver{
		users:        users,
		memberships:  memberships,
		cache:        cache,
		log:          logging.OrNop(log),
		now:          time.Now,
		sentinelDays: sentinelDays,
	}
}

// WithClock replaces the time source used for expiry calculations.
func (r *AttributeResolver) WithClock(now func() time.Time) *AttributeResolver {
	r.now = now
	return r
}

// Resolve returns the attributes of userID, served from the cache when one
// is configured. An unknown user yields an empty map and no error.
func (r *AttributeResolver) Resolve(ctx context.Context, userID string) (model.AttributeMap, error) {
	if r.cache != nil {
		cached, err := r.cache.GetAttributes(ctx, userID)
		if err != nil {
			r.log.Warn("Attribute cache read failed", zap.Error(err), zap.String("userID", userID))
		} else if cached != nil {
			return cached, nil
		}
	}
	return r.ResolveFresh(ctx, userID)
}

// ResolveFresh builds the attributes of userID from storage, ignoring any
// cached copy, and refreshes the cache with the result. Evaluation always
// goes through here.
func (r *AttributeResolver) ResolveFresh(ctx context.Context, userID string) (model.AttributeMap, error) {
	user, err := r.users.GetUser(ctx, userID)
	if errors.Is(err, dg_errors.ErrUserNotFound) {
		r.log.Debug("User not found, resolving empty attribute map", zap.String("userID", userID))
		return model.AttributeMap{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user %s: %w", userID, err)
	}

	groups, err := r.memberships.ListUserGroups(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load groups of user %s: %w", userID, err)
	}

	attrs := r.build(user, groups)

	if r.cache != nil {
		if err := r.cache.SetAttributes(ctx, userID, attrs); err != nil {
			r.log.Warn("Attribute cache write failed", zap.Error(err), zap.String("userID", userID))
		}
	}
	return attrs, nil
}

// Invalidate drops any cached attributes of userID.
func (r *AttributeResolver) Invalidate(ctx context.Context, userID string) {
	if r.cache == nil {
		return
	}
	if err := r.cache.InvalidateAttributes(ctx, userID); err != nil {
		r.log.Warn("Attribute cache invalidation failed", zap.Error(err), zap.String("userID", userID))
	}
}

func (r *AttributeResolver) build(user *model.User, groups []model.Group) model.AttributeMap {
	attrs := model.AttributeMap{
		model.AttrUserID:   user.ID,
		model.AttrUsername: user.Username,
		model.AttrIsActive: user.IsActive,
	}

	// empty columns are treated as NULL
	optional := map[string]string{
		model.AttrRole:        user.Role,
		model.AttrEmail:       user.Email,
		model.AttrDepartment:  user.Department,
		model.AttrTitle:       user.Title,
		model.AttrAccountType: user.AccountType,
	}
	for key, value := range optional {
		if value != "" {
			attrs[key] = value
		}
	}

	if user.Email != "" && strings.Contains(user.Email, "@") {
		attrs[model.AttrEmailDomain] = strings.Split(user.Email, "@")[1]
	}

	attrs[model.AttrIsExpired] = false
	attrs[model.AttrDaysUntilExpiry] = r.sentinelDays
	if user.AccountExpiresAt != nil {
		now := r.now()
		expires := *user.AccountExpiresAt
		attrs[model.AttrAccountExpiresAt] = expires.UTC().Format(time.RFC3339)
		attrs[model.AttrIsExpired] = now.After(expires)
		attrs[model.AttrDaysUntilExpiry] = int(math.Floor(expires.Sub(now).Hours() / 24))
	}

	names := make([]string, 0, len(groups))
	for _, group := range groups {
		names = append(names, group.Name)
	}
	attrs[model.AttrCurrentGroups] = names
	attrs[model.AttrGroupCount] = len(names)

	return attrs
}
