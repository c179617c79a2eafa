// service/seed.go
package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/securenet/dyngroups/dao"
	dg_errors "github.com/securenet/dyngroups/errors"
	"github.com/securenet/dyngroups/model"
)

var demoGroups = []model.Group{
	{Name: "Administrators", Description: "Platform administrators"},
	{Name: "Security Team", Description: "Security operations and engineering"},
	{Name: "Engineering", Description: "Product engineering"},
	{Name: "Sales", Description: "Sales organisation"},
	{Name: "Executives", Description: "Leadership"},
	{Name: "Internal Staff", Description: "Everyone with a company address"},
	{Name: "Expiring Accounts", Description: "Accounts expiring within 30 days"},
	{Name: "Expired Accounts", Description: "Accounts past their expiry"},
	{Name: "Contractors", Description: "Active external contractors"},
	{Name: "Standard Users", Description: "Users without privileged roles"},
}

type demoUser struct {
	user        model.User
	expiresDays *int
}

func days(n int) *int { return &n }

var demoUsers = []demoUser{
	{user: model.User{Username: "admin", Role: "admin", Email: "admin@securenet.com", Department: "IT", Title: "System Administrator", AccountType: "employee"}},
	{user: model.User{Username: "jsmith", Role: "analyst", Email: "jsmith@securenet.com", Department: "Security", Title: "Security Analyst", AccountType: "employee"}},
	{user: model.User{Username: "mchen", Role: "engineer", Email: "mchen@securenet.com", Department: "Engineering", Title: "Senior Engineer", AccountType: "employee"}},
	{user: model.User{Username: "agarcia", Role: "sales", Email: "agarcia@securenet.com", Department: "Sales", Title: "Account Executive", AccountType: "employee"}},
	{user: model.User{Username: "lwong", Role: "executive", Email: "lwong@securenet.com", Department: "Executive", Title: "Chief Technology Officer", AccountType: "employee"}},
	{user: model.User{Username: "rpatel", Role: "engineer", Email: "rpatel@partner.io", Department: "DevOps", Title: "DevOps Consultant", AccountType: "contractor"}, expiresDays: days(20)},
	{user: model.User{Username: "tkim", Role: "analyst", Email: "tkim@partner.io", Department: "Security", Title: "Penetration Tester", AccountType: "contractor"}, expiresDays: days(-5)},
	{user: model.User{Username: "svc-backup", Role: "service", AccountType: "service"}},
}

// SeedResult counts the directory entries created by SeedDirectory.
type SeedResult struct {
	Groups int `json:"groups"`
	Users  int `json:"users"`
}

// SeedDirectory creates the SecureNet demo groups and users. Existing
// entries are left untouched.
func SeedDirectory(ctx context.Context, users *dao.UserDAO, groups *dao.GroupDAO, now time.Time, log *zap.Logger) (*SeedResult, error) {
	result := &SeedResult{}

	for _, group := range demoGroups {
		_, err := groups.CreateGroup(ctx, group)
		switch {
		case errors.Is(err, dg_errors.ErrGroupConflict):
			continue
		case err != nil:
			return result, err
		}
		result.Groups++
	}

	for _, demo := range demoUsers {
		user := demo.user
		user.IsActive = true
		if demo.expiresDays != nil {
			expires := now.AddDate(0, 0, *demo.expiresDays).UTC()
			user.AccountExpiresAt = &expires
		}
		_, err := users.CreateUser(ctx, user)
		switch {
		case errors.Is(err, dg_errors.ErrUserConflict):
			continue
		case err != nil:
			return result, err
		}
		result.Users++
	}

	if log != nil {
		log.Info("Directory seeded", zap.Int("groups", result.Groups), zap.Int("users", result.Users))
	}
	return result, nil
}
