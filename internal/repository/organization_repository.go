package repository

import (
	"context"

	"github.com/epmosta/maintenance-api/internal/models"
	"gorm.io/gorm"
)

// OrganizationRepository covers the small lookup tables: directions,
// offices and equipment categories.
type OrganizationRepository interface {
	ListDirections(ctx context.Context) ([]models.Direction, error)
	FindDirection(ctx context.Context, id uint) (*models.Direction, error)
	ListOffices(ctx context.Context, directionID *uint) ([]models.Office, error)
	ListCategories(ctx context.Context) ([]models.Category, error)
	CreateCategory(ctx context.Context, category *models.Category) error
	// GetOrCreate helpers back the equipment CSV import, which references
	// directions, offices and categories by name.
	GetOrCreateDirection(ctx context.Context, name string) (*models.Direction, error)
	GetOrCreateOffice(ctx context.Context, name string, directionID uint) (*models.Office, error)
	GetOrCreateCategory(ctx context.Context, name string) (*models.Category, error)
}

type organizationRepository struct {
	db *gorm.DB
}

// NewOrganizationRepository creates a new organization repository
func NewOrganizationRepository(db *gorm.DB) OrganizationRepository {
	return &organizationRepository{db: db}
}

func (r *organizationRepository) ListDirections(ctx context.Context) ([]models.Direction, error) {
	var directions []models.Direction
	err := r.db.WithContext(ctx).Order("name ASC").Find(&directions).Error
	return directions, err
}

func (r *organizationRepository) FindDirection(ctx context.Context, id uint) (*models.Direction, error) {
	var direction models.Direction
	if err := r.db.WithContext(ctx).First(&direction, id).Error; err != nil {
		return nil, err
	}
	return &direction, nil
}

func (r *organizationRepository) ListOffices(ctx context.Context, directionID *uint) ([]models.Office, error) {
	var offices []models.Office
	db := r.db.WithContext(ctx).Preload("Direction").Order("name ASC")
	if directionID != nil {
		db = db.Where("direction_id = ?", *directionID)
	}
	err := db.Find(&offices).Error
	return offices, err
}

func (r *organizationRepository) ListCategories(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	err := r.db.WithContext(ctx).Order("name ASC").Find(&categories).Error
	return categories, err
}

func (r *organizationRepository) CreateCategory(ctx context.Context, category *models.Category) error {
	return r.db.WithContext(ctx).Create(category).Error
}

func (r *organizationRepository) GetOrCreateDirection(ctx context.Context, name string) (*models.Direction, error) {
	var direction models.Direction
	err := r.db.WithContext(ctx).
		Where("name = ?", name).
		FirstOrCreate(&direction, models.Direction{Name: name}).Error
	if err != nil {
		return nil, err
	}
	return &direction, nil
}

func (r *organizationRepository) GetOrCreateOffice(ctx context.Context, name string, directionID uint) (*models.Office, error) {
	var office models.Office
	err := r.db.WithContext(ctx).
		Where("name = ? AND direction_id = ?", name, directionID).
		FirstOrCreate(&office, models.Office{Name: name, DirectionID: directionID}).Error
	if err != nil {
		return nil, err
	}
	return &office, nil
}

func (r *organizationRepository) GetOrCreateCategory(ctx context.Context, name string) (*models.Category, error) {
	var category models.Category
	err := r.db.WithContext(ctx).
		Where("name = ?", name).
		FirstOrCreate(&category, models.Category{Name: name}).Error
	if err != nil {
		return nil, err
	}
	return &category, nil
}
