// test/mock/audit.go
package mock

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/securenet/dyngroups/audit"
)

// MockAuditService is a mock implementation of audit.Service
type MockAuditService struct {
	mock.Mock
}

func (m *MockAuditService) LogMembershipChange(ctx context.Context, entry audit.AuditEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockAuditService) QueryLogs(ctx context.Context, query audit.AuditQuery) ([]audit.AuditEntry, error) {
	args := m.Called(ctx, query)
	entries, _ := args.Get(0).([]audit.AuditEntry)
	return entries, args.Error(1)
}

// MockAuditRepository is a mock implementation of audit.Repository
type MockAuditRepository struct {
	mock.Mock
}

func (m *MockAuditRepository) LogMembershipChange(ctx context.Context, entry audit.AuditEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockAuditRepository) QueryLogs(ctx context.Context, query audit.AuditQuery) ([]audit.AuditEntry, error) {
	args := m.Called(ctx, query)
	entries, _ := args.Get(0).([]audit.AuditEntry)
	return entries, args.Error(1)
}
