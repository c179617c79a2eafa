// test/mock/directory.go
package mock

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/securenet/dyngroups/model"
)

// MockUserReader is a mock implementation of engine.UserReader
type MockUserReader struct {
	mock.Mock
}

func (m *MockUserReader) GetUser(ctx context.Context, userID string) (*model.User, error) {
	args := m.Called(ctx, userID)
	user, _ := args.Get(0).(*model.User)
	return user, args.Error(1)
}

// MockMembershipReader is a mock implementation of engine.MembershipReader
type MockMembershipReader struct {
	mock.Mock
}

func (m *MockMembershipReader) ListUserGroups(ctx context.Context, userID string) ([]model.Group, error) {
	args := m.Called(ctx, userID)
	groups, _ := args.Get(0).([]model.Group)
	return groups, args.Error(1)
}

// MockAttributeCache is a mock implementation of engine.AttributeCache
type MockAttributeCache struct {
	mock.Mock
}

func (m *MockAttributeCache) GetAttributes(ctx context.Context, userID string) (model.AttributeMap, error) {
	args := m.Called(ctx, userID)
	attrs, _ := args.Get(0).(model.AttributeMap)
	return attrs, args.Error(1)
}

func (m *MockAttributeCache) SetAttributes(ctx context.Context, userID string, attrs model.AttributeMap) error {
	args := m.Called(ctx, userID, attrs)
	return args.Error(0)
}

func (m *MockAttributeCache) InvalidateAttributes(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}
