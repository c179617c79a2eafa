// audit/repository.go
package audit

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const defaultQueryLimit = 100

type Repository interface {
	LogMembershipChange(ctx context.Context, entry AuditEntry) error
	QueryLogs(ctx context.Context, query AuditQuery) ([]AuditEntry, error)
}

// GormRepository stores audit entries in the relational database.
type GormRepository struct {
	db *gorm.DB
}

func NewGormRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

func (r *GormRepository) LogMembershipChange(ctx context.Context, entry AuditEntry) error {
	if err := r.db.WithContext(ctx).Create(&entry).Error; err != nil {
		return fmt.Errorf("failed to insert audit entry: %w", err)
	}
	return nil
}

func (r *GormRepository) QueryLogs(ctx context.Context, query AuditQuery) ([]AuditEntry, error) {
	tx := r.db.WithContext(ctx).Model(&AuditEntry{})
	if query.UserID != "" {
		tx = tx.Where("user_id = ?", query.UserID)
	}
	if query.GroupID != "" {
		tx = tx.Where("group_id = ?", query.GroupID)
	}
	if !query.From.IsZero() {
		tx = tx.Where("created_at >= ?", query.From.UTC())
	}
	if !query.To.IsZero() {
		tx = tx.Where("created_at <= ?", query.To.UTC())
	}

	limit := query.Limit
	if limit <= 0 {
		limit = defaultQueryLimit
	}

	var entries []AuditEntry
	if err := tx.Order("created_at DESC").Limit(limit).Offset(query.Offset).Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("failed to query audit entries: %w", err)
	}
	return entries, nil
}

// MirroredRepository writes to a primary repository and copies each entry
// to best-effort mirrors. Queries are served by the primary.
type MirroredRepository struct {
	primary Repository
	mirrors []Repository
	log     *zap.Logger
}

func NewMirroredRepository(log *zap.Logger, primary Repository, mirrors ...Repository) *MirroredRepository {
	return &MirroredRepository{primary: primary, mirrors: mirrors, log: log}
}

func (r *MirroredRepository) LogMembershipChange(ctx context.Context, entry AuditEntry) error {
	if err := r.primary.LogMembershipChange(ctx, entry); err != nil {
		return err
	}
	for _, mirror := range r.mirrors {
		if err := mirror.LogMembershipChange(ctx, entry); err != nil {
			r.log.Warn("Failed to mirror audit entry", zap.Error(err), zap.String("entryID", entry.ID))
		}
	}
	return nil
}

func (r *MirroredRepository) QueryLogs(ctx context.Context, query AuditQuery) ([]AuditEntry, error) {
	return r.primary.QueryLogs(ctx, query)
}
