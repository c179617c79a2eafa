package dao_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/securenet/dyngroups/dao"
	"github.com/securenet/dyngroups/db"
	"github.com/securenet/dyngroups/model"
)

type fixture struct {
	ctx    context.Context
	conn   *gorm.DB
	rules  *dao.RuleDAO
	users  *dao.UserDAO
	groups *dao.GroupDAO
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	conn, err := db.OpenMemory(uuid.NewString())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close(conn, nil) })
	require.NoError(t, db.Migrate(conn))

	log := zap.NewNop()
	return &fixture{
		ctx:    context.Background(),
		conn:   conn,
		rules:  dao.NewRuleDAO(conn, log),
		users:  dao.NewUserDAO(conn, log),
		groups: dao.NewGroupDAO(conn, log),
	}
}

func (f *fixture) group(t *testing.T, name string) *model.Group {
	t.Helper()
	g, err := f.groups.CreateGroup(f.ctx, model.Group{Name: name})
	require.NoError(t, err)
	return g
}

func (f *fixture) user(t *testing.T, username string) *model.User {
	t.Helper()
	u, err := f.users.CreateUser(f.ctx, model.User{Username: username, IsActive: true})
	require.NoError(t, err)
	return u
}
