package services

import (
	"context"
	"fmt"
	"time"

	"github.com/epmosta/maintenance-api/internal/models"
	"github.com/epmosta/maintenance-api/internal/repository"
	"gorm.io/gorm"
)

// AuditService writes and queries the append-only action journal. Entries
// are never updated or deleted once written.
type AuditService struct {
	repo repository.AuditRepository
}

func NewAuditService(repo repository.AuditRepository) *AuditService {
	return &AuditService{repo: repo}
}

// Log records an audit entry. The action must belong to the closed action
// set; anything else is rejected so the journal stays filterable.
func (s *AuditService) Log(ctx context.Context, userID *uint, action, targetType string, targetID *uint, details, ip string) error {
	if !models.ValidAuditAction(action) {
		return Validation(fmt.Sprintf("action d'audit inconnue: %s", action))
	}
	entry := &models.AuditLog{
		UserID:     userID,
		Action:     action,
		TargetType: targetType,
		TargetID:   targetID,
		Details:    details,
		IPAddress:  ip,
	}
	return s.repo.Create(ctx, entry)
}

// LogTx records an audit entry inside the caller's transaction so the
// journal line commits or rolls back together with the change it records.
func (s *AuditService) LogTx(ctx context.Context, tx *gorm.DB, userID *uint, action, targetType string, targetID *uint, details, ip string) error {
	if !models.ValidAuditAction(action) {
		return Validation(fmt.Sprintf("action d'audit inconnue: %s", action))
	}
	entry := &models.AuditLog{
		UserID:     userID,
		Action:     action,
		TargetType: targetType,
		TargetID:   targetID,
		Details:    details,
		IPAddress:  ip,
	}
	return s.repo.CreateTx(ctx, tx, entry)
}

// List retrieves audit entries with filters, newest first
func (s *AuditService) List(ctx context.Context, query *repository.ListQuery) ([]models.AuditLog, int64, error) {
	return s.repo.List(ctx, query)
}

// ListForExport retrieves all matching entries without pagination
func (s *AuditService) ListForExport(ctx context.Context, query *repository.ListQuery) ([]models.AuditLog, error) {
	return s.repo.ListForExport(ctx, query)
}

// ActivityStats summarizes recent journal activity
type ActivityStats struct {
	Today        int64            `json:"today"`
	ThisWeek     int64            `json:"this_week"`
	ActionCounts map[string]int64 `json:"action_counts"`
}

// Stats returns today / this-week entry counts and a per-action breakdown
// over the last seven days.
func (s *AuditService) Stats(ctx context.Context) (*ActivityStats, error) {
	now := time.Now()
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	weekAgo := now.AddDate(0, 0, -7)

	today, err := s.repo.CountSince(ctx, startOfDay)
	if err != nil {
		return nil, err
	}
	week, err := s.repo.CountSince(ctx, weekAgo)
	if err != nil {
		return nil, err
	}
	actions, err := s.repo.ActionCounts(ctx, weekAgo)
	if err != nil {
		return nil, err
	}

	return &ActivityStats{
		Today:        today,
		ThisWeek:     week,
		ActionCounts: actions,
	}, nil
}
