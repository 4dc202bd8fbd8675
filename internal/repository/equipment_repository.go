package repository

import (
	"context"
	"errors"

	"github.com/epmosta/maintenance-api/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// EquipmentRepository defines the interface for equipment data access
type EquipmentRepository interface {
	FindByCode(ctx context.Context, code string) (*models.Equipment, error)
	Create(ctx context.Context, equipment *models.Equipment) error
	Update(ctx context.Context, equipment *models.Equipment) error
	Delete(ctx context.Context, code string) error
	List(ctx context.Context, query *ListQuery) ([]models.Equipment, int64, error)
	ListAll(ctx context.Context) ([]models.Equipment, error)
	// Upsert inserts the equipment or updates its mutable fields when the
	// code already exists. Used by the CSV import.
	Upsert(ctx context.Context, equipment *models.Equipment) error
	CountByCategory(ctx context.Context) (map[string]int64, error)
}

type equipmentRepository struct {
	db *gorm.DB
}

// NewEquipmentRepository creates a new equipment repository
func NewEquipmentRepository(db *gorm.DB) EquipmentRepository {
	return &equipmentRepository{db: db}
}

func (r *equipmentRepository) FindByCode(ctx context.Context, code string) (*models.Equipment, error) {
	var equipment models.Equipment
	err := r.db.WithContext(ctx).
		Preload("Category").
		Preload("Office").
		Preload("Office.Direction").
		Where("code = ?", code).
		First(&equipment).Error
	if err != nil {
		return nil, err
	}
	return &equipment, nil
}

func (r *equipmentRepository) Create(ctx context.Context, equipment *models.Equipment) error {
	if err := r.db.WithContext(ctx).Create(equipment).Error; err != nil {
		if isDuplicateKeyError(err, "equipment_pkey") {
			return errors.New("an equipment with this code already exists")
		}
		return err
	}
	return nil
}

func (r *equipmentRepository) Update(ctx context.Context, equipment *models.Equipment) error {
	return r.db.WithContext(ctx).Save(equipment).Error
}

func (r *equipmentRepository) Delete(ctx context.Context, code string) error {
	return r.db.WithContext(ctx).
		Where("code = ?", code).
		Delete(&models.Equipment{}).Error
}

func (r *equipmentRepository) List(ctx context.Context, query *ListQuery) ([]models.Equipment, int64, error) {
	var items []models.Equipment
	var total int64

	db := r.db.WithContext(ctx).Model(&models.Equipment{})

	// Apply search
	if query.Search != "" {
		search := "%" + query.Search + "%"
		db = db.Where("code ILIKE ? OR name ILIKE ? OR brand ILIKE ?", search, search, search)
	}

	// Apply filters
	if query.Filters["brand"] != "" {
		db = db.Where("brand ILIKE ?", "%"+query.Filters["brand"]+"%")
	}
	if query.Filters["category_id"] != "" {
		db = db.Where("category_id = ?", query.Filters["category_id"])
	}
	if query.Filters["office_id"] != "" {
		db = db.Where("office_id = ?", query.Filters["office_id"])
	}
	if query.Filters["direction_id"] != "" {
		db = db.Joins("JOIN offices ON offices.id = equipment.office_id").
			Where("offices.direction_id = ?", query.Filters["direction_id"])
	}

	// Count total
	db.Count(&total)

	// Apply sorting
	if query.SortBy != "" {
		order := query.SortBy
		if query.SortDir == "desc" {
			order += " DESC"
		}
		db = db.Order(order)
	} else {
		db = db.Order("code ASC")
	}

	// Apply pagination
	if query.PerPage > 0 {
		db = db.Offset((query.Page - 1) * query.PerPage).Limit(query.PerPage)
	}

	err := db.
		Preload("Category").
		Preload("Office").
		Preload("Office.Direction").
		Find(&items).Error
	return items, total, err
}

func (r *equipmentRepository) ListAll(ctx context.Context) ([]models.Equipment, error) {
	var items []models.Equipment
	err := r.db.WithContext(ctx).
		Preload("Category").
		Preload("Office").
		Preload("Office.Direction").
		Order("code ASC").
		Find(&items).Error
	return items, err
}

func (r *equipmentRepository) Upsert(ctx context.Context, equipment *models.Equipment) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "code"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"name", "brand", "acquisition_date", "description",
				"category_id", "office_id", "updated_at",
			}),
		}).
		Create(equipment).Error
}

func (r *equipmentRepository) CountByCategory(ctx context.Context) (map[string]int64, error) {
	type row struct {
		Name  string
		Count int64
	}
	var rows []row
	err := r.db.WithContext(ctx).
		Model(&models.Equipment{}).
		Select("COALESCE(categories.name, 'uncategorized') AS name, COUNT(*) AS count").
		Joins("LEFT JOIN categories ON categories.id = equipment.category_id").
		Group("categories.name").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int64, len(rows))
	for _, r := range rows {
		counts[r.Name] = r.Count
	}
	return counts, nil
}
