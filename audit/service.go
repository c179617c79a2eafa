// audit/service.go
package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Service interface {
	LogMembershipChange(ctx context.Context, entry AuditEntry) error
	QueryLogs(ctx context.Context, query AuditQuery) ([]AuditEntry, error)
}

type service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) Service {
	return &service{repo: repo, now: time.Now}
}

// LogMembershipChange fills in the identifier and timestamp when missing.
func (s *service) LogMembershipChange(ctx context.Context, entry AuditEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = s.now().UTC()
	}
	if entry.GroupsBefore == nil {
		entry.GroupsBefore = StringList{}
	}
	if entry.GroupsAfter == nil {
		entry.GroupsAfter = StringList{}
	}
	return s.repo.LogMembershipChange(ctx, entry)
}

func (s *service) QueryLogs(ctx context.Context, query AuditQuery) ([]AuditEntry, error) {
	return s.repo.QueryLogs(ctx, query)
}
