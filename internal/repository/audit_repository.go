package repository

import (
	"context"
	"time"

	"github.com/epmosta/maintenance-api/internal/models"
	"gorm.io/gorm"
)

// AuditRepository defines the interface for audit log data access.
// Entries are append-only: there is no update or delete.
type AuditRepository interface {
	Create(ctx context.Context, entry *models.AuditLog) error
	// CreateTx writes the entry inside the caller's transaction so the
	// audit line commits or rolls back with the change it records.
	CreateTx(ctx context.Context, tx *gorm.DB, entry *models.AuditLog) error
	List(ctx context.Context, query *ListQuery) ([]models.AuditLog, int64, error)
	ListForExport(ctx context.Context, query *ListQuery) ([]models.AuditLog, error)
	CountSince(ctx context.Context, since time.Time) (int64, error)
	ActionCounts(ctx context.Context, since time.Time) (map[string]int64, error)
}

type auditRepository struct {
	db *gorm.DB
}

// NewAuditRepository creates a new audit repository
func NewAuditRepository(db *gorm.DB) AuditRepository {
	return &auditRepository{db: db}
}

func (r *auditRepository) Create(ctx context.Context, entry *models.AuditLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *auditRepository) CreateTx(ctx context.Context, tx *gorm.DB, entry *models.AuditLog) error {
	return tx.WithContext(ctx).Create(entry).Error
}

func (r *auditRepository) applyFilters(db *gorm.DB, query *ListQuery) *gorm.DB {
	if query.Search != "" {
		db = db.Where("details ILIKE ?", "%"+query.Search+"%")
	}
	if query.Filters["user_id"] != "" {
		db = db.Where("user_id = ?", query.Filters["user_id"])
	}
	if query.Filters["action"] != "" {
		db = db.Where("action = ?", query.Filters["action"])
	}
	if query.Filters["target_type"] != "" {
		db = db.Where("target_type = ?", query.Filters["target_type"])
	}
	if query.Filters["target_id"] != "" {
		db = db.Where("target_id = ?", query.Filters["target_id"])
	}
	if query.Filters["date_from"] != "" {
		db = db.Where("created_at >= ?", query.Filters["date_from"])
	}
	if query.Filters["date_to"] != "" {
		db = db.Where("created_at <= ?", query.Filters["date_to"])
	}
	return db
}

func (r *auditRepository) List(ctx context.Context, query *ListQuery) ([]models.AuditLog, int64, error) {
	var entries []models.AuditLog
	var total int64

	db := r.applyFilters(r.db.WithContext(ctx).Model(&models.AuditLog{}), query)

	db.Count(&total)

	if query.PerPage > 0 {
		db = db.Offset((query.Page - 1) * query.PerPage).Limit(query.PerPage)
	}

	err := db.
		Order("created_at DESC").
		Preload("User").
		Find(&entries).Error
	return entries, total, err
}

func (r *auditRepository) ListForExport(ctx context.Context, query *ListQuery) ([]models.AuditLog, error) {
	var entries []models.AuditLog
	db := r.applyFilters(r.db.WithContext(ctx).Model(&models.AuditLog{}), query)
	err := db.
		Order("created_at DESC").
		Preload("User").
		Find(&entries).Error
	return entries, err
}

func (r *auditRepository) CountSince(ctx context.Context, since time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.AuditLog{}).
		Where("created_at >= ?", since).
		Count(&count).Error
	return count, err
}

func (r *auditRepository) ActionCounts(ctx context.Context, since time.Time) (map[string]int64, error) {
	type row struct {
		Action string
		Count  int64
	}
	var rows []row
	err := r.db.WithContext(ctx).
		Model(&models.AuditLog{}).
		Select("action, COUNT(*) AS count").
		Where("created_at >= ?", since).
		Group("action").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int64, len(rows))
	for _, r := range rows {
		counts[r.Action] = r.Count
	}
	return counts, nil
}
