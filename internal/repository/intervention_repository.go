package repository

import (
	"context"

	"github.com/epmosta/maintenance-api/internal/models"
	"gorm.io/gorm"
)

// InterventionRepository defines the interface for intervention data access
type InterventionRepository interface {
	FindByID(ctx context.Context, id uint) (*models.Intervention, error)
	FindByTicketID(ctx context.Context, ticketID uint) (*models.Intervention, error)
	Create(ctx context.Context, intervention *models.Intervention) error
	// Update persists the intervention together with its replaced part and
	// file sets. Parts removed from the slice are deleted.
	Update(ctx context.Context, intervention *models.Intervention) error
	List(ctx context.Context, query *ListQuery) ([]models.Intervention, int64, error)
	DeletePartsNotIn(ctx context.Context, interventionID uint, keepIDs []uint) error
	AddFile(ctx context.Context, file *models.AttachedFile) error
	FindFile(ctx context.Context, fileID uint) (*models.AttachedFile, error)
	DeleteFile(ctx context.Context, fileID uint) error
	RepairTypeCounts(ctx context.Context) (map[string]int64, error)
	CountWithFiles(ctx context.Context) (int64, error)
}

type interventionRepository struct {
	db *gorm.DB
}

// NewInterventionRepository creates a new intervention repository
func NewInterventionRepository(db *gorm.DB) InterventionRepository {
	return &interventionRepository{db: db}
}

func (r *interventionRepository) FindByID(ctx context.Context, id uint) (*models.Intervention, error) {
	var intervention models.Intervention
	err := r.db.WithContext(ctx).
		Preload("Parts").
		Preload("Files").
		Preload("Files.UploadedBy").
		Preload("Ticket").
		Preload("Ticket.Equipment").
		Preload("Ticket.Technician").
		First(&intervention, id).Error
	if err != nil {
		return nil, err
	}
	return &intervention, nil
}

func (r *interventionRepository) FindByTicketID(ctx context.Context, ticketID uint) (*models.Intervention, error) {
	var intervention models.Intervention
	err := r.db.WithContext(ctx).
		Preload("Parts").
		Preload("Files").
		Preload("Files.UploadedBy").
		Where("ticket_id = ?", ticketID).
		First(&intervention).Error
	if err != nil {
		return nil, err
	}
	return &intervention, nil
}

func (r *interventionRepository) Create(ctx context.Context, intervention *models.Intervention) error {
	return r.db.WithContext(ctx).Create(intervention).Error
}

func (r *interventionRepository) Update(ctx context.Context, intervention *models.Intervention) error {
	return r.db.WithContext(ctx).
		Session(&gorm.Session{FullSaveAssociations: true}).
		Save(intervention).Error
}

func (r *interventionRepository) List(ctx context.Context, query *ListQuery) ([]models.Intervention, int64, error) {
	var interventions []models.Intervention
	var total int64

	db := r.db.WithContext(ctx).Model(&models.Intervention{})

	if query.Search != "" {
		db = db.Where("details ILIKE ?", "%"+query.Search+"%")
	}
	if query.Filters["repair_type"] != "" {
		db = db.Where("repair_type = ?", query.Filters["repair_type"])
	}
	if query.Filters["ticket_id"] != "" {
		db = db.Where("ticket_id = ?", query.Filters["ticket_id"])
	}
	if query.Filters["date_from"] != "" {
		db = db.Where("created_at >= ?", query.Filters["date_from"])
	}
	if query.Filters["date_to"] != "" {
		db = db.Where("created_at <= ?", query.Filters["date_to"])
	}

	db.Count(&total)

	if query.PerPage > 0 {
		db = db.Offset((query.Page - 1) * query.PerPage).Limit(query.PerPage)
	}

	err := db.
		Order("created_at DESC").
		Preload("Parts").
		Preload("Files").
		Preload("Ticket").
		Preload("Ticket.Equipment").
		Find(&interventions).Error
	return interventions, total, err
}

func (r *interventionRepository) DeletePartsNotIn(ctx context.Context, interventionID uint, keepIDs []uint) error {
	db := r.db.WithContext(ctx).Where("intervention_id = ?", interventionID)
	if len(keepIDs) > 0 {
		db = db.Where("id NOT IN ?", keepIDs)
	}
	return db.Delete(&models.SparePart{}).Error
}

func (r *interventionRepository) AddFile(ctx context.Context, file *models.AttachedFile) error {
	return r.db.WithContext(ctx).Create(file).Error
}

func (r *interventionRepository) FindFile(ctx context.Context, fileID uint) (*models.AttachedFile, error) {
	var file models.AttachedFile
	err := r.db.WithContext(ctx).
		Preload("UploadedBy").
		First(&file, fileID).Error
	if err != nil {
		return nil, err
	}
	return &file, nil
}

func (r *interventionRepository) DeleteFile(ctx context.Context, fileID uint) error {
	return r.db.WithContext(ctx).Delete(&models.AttachedFile{}, fileID).Error
}

func (r *interventionRepository) RepairTypeCounts(ctx context.Context) (map[string]int64, error) {
	type row struct {
		RepairType string
		Count      int64
	}
	var rows []row
	err := r.db.WithContext(ctx).
		Model(&models.Intervention{}).
		Select("repair_type, COUNT(*) AS count").
		Group("repair_type").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int64, len(rows))
	for _, r := range rows {
		counts[r.RepairType] = r.Count
	}
	return counts, nil
}

func (r *interventionRepository) CountWithFiles(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Intervention{}).
		Where("EXISTS (SELECT 1 FROM attached_files WHERE attached_files.intervention_id = interventions.id)").
		Count(&count).Error
	return count, err
}
