package repository

import (
	"context"
	"time"

	"github.com/epmosta/maintenance-api/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TicketRepository defines the interface for ticket data access
type TicketRepository interface {
	FindByID(ctx context.Context, id uint) (*models.Ticket, error)
	FindByIDWithDetails(ctx context.Context, id uint) (*models.Ticket, error)
	// FindByIDForUpdate loads the ticket row with a row-level lock. It must
	// be called inside a transaction; concurrent status changes on the same
	// ticket serialize on this lock.
	FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id uint) (*models.Ticket, error)
	Create(ctx context.Context, ticket *models.Ticket) error
	Update(ctx context.Context, ticket *models.Ticket) error
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context, query *ListQuery) ([]models.Ticket, int64, error)
	ListForExport(ctx context.Context, query *ListQuery) ([]models.Ticket, error)
	CountActiveByEquipment(ctx context.Context, equipmentCode string) (int64, error)
	StatusCounts(ctx context.Context) (map[string]int64, error)
	// StatusCountsForUser restricts the per-status counts to one user's
	// tickets, matching on the given column (employee_id or technician_id).
	StatusCountsForUser(ctx context.Context, column string, userID uint) (map[string]int64, error)
	CountByEquipmentBrand(ctx context.Context) (map[string]int64, error)
	AverageResolutionHours(ctx context.Context) (float64, error)
	// FindCompletedUnnotified returns completed tickets whose completion
	// email has not gone out yet. Used by the resend sweep.
	FindCompletedUnnotified(ctx context.Context) ([]models.Ticket, error)
	// MarkEmailSent flips the email_sent flag. Returns false when the flag
	// was already set, so two dispatchers never both claim the send.
	MarkEmailSent(ctx context.Context, ticketID uint) (bool, error)
	// ReleaseEmailFlag clears email_sent after a failed send so the hourly
	// sweep retries. Targeted update only, it must never touch other columns.
	ReleaseEmailFlag(ctx context.Context, ticketID uint) error
}

type ticketRepository struct {
	db *gorm.DB
}

// NewTicketRepository creates a new ticket repository
func NewTicketRepository(db *gorm.DB) TicketRepository {
	return &ticketRepository{db: db}
}

func (r *ticketRepository) FindByID(ctx context.Context, id uint) (*models.Ticket, error) {
	var ticket models.Ticket
	err := r.db.WithContext(ctx).First(&ticket, id).Error
	if err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (r *ticketRepository) FindByIDWithDetails(ctx context.Context, id uint) (*models.Ticket, error) {
	var ticket models.Ticket
	err := r.db.WithContext(ctx).
		Preload("Equipment").
		Preload("Equipment.Category").
		Preload("Equipment.Office").
		Preload("Equipment.Office.Direction").
		Preload("Employee").
		Preload("Technician").
		Preload("Intervention").
		Preload("Intervention.Parts").
		Preload("Intervention.Files").
		First(&ticket, id).Error
	if err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (r *ticketRepository) FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id uint) (*models.Ticket, error) {
	var ticket models.Ticket
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&ticket, id).Error
	if err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (r *ticketRepository) Create(ctx context.Context, ticket *models.Ticket) error {
	return r.db.WithContext(ctx).Create(ticket).Error
}

func (r *ticketRepository) Update(ctx context.Context, ticket *models.Ticket) error {
	return r.db.WithContext(ctx).Save(ticket).Error
}

func (r *ticketRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.Ticket{}, id).Error
}

func (r *ticketRepository) applyFilters(db *gorm.DB, query *ListQuery) *gorm.DB {
	if query.Search != "" {
		search := "%" + query.Search + "%"
		db = db.Where("tickets.description ILIKE ? OR tickets.equipment_code ILIKE ?", search, search)
	}
	if query.Filters["status"] != "" {
		db = db.Where("tickets.status = ?", query.Filters["status"])
	}
	if query.Filters["urgency"] != "" {
		db = db.Where("tickets.urgency = ?", query.Filters["urgency"])
	}
	if query.Filters["employee_id"] != "" {
		db = db.Where("tickets.employee_id = ?", query.Filters["employee_id"])
	}
	if query.Filters["technician_id"] != "" {
		db = db.Where("tickets.technician_id = ?", query.Filters["technician_id"])
	}
	if query.Filters["equipment_code"] != "" {
		db = db.Where("tickets.equipment_code ILIKE ?", "%"+query.Filters["equipment_code"]+"%")
	}
	if query.Filters["category_id"] != "" {
		db = db.Joins("JOIN equipment ON equipment.code = tickets.equipment_code").
			Where("equipment.category_id = ?", query.Filters["category_id"])
	}
	if query.Filters["direction_id"] != "" {
		db = db.Joins("JOIN users employees ON employees.id = tickets.employee_id").
			Where("employees.direction_id = ?", query.Filters["direction_id"])
	}
	if query.Filters["date_from"] != "" {
		db = db.Where("tickets.created_at >= ?", query.Filters["date_from"])
	}
	if query.Filters["date_to"] != "" {
		db = db.Where("tickets.created_at <= ?", query.Filters["date_to"])
	}
	return db
}

func (r *ticketRepository) List(ctx context.Context, query *ListQuery) ([]models.Ticket, int64, error) {
	var tickets []models.Ticket
	var total int64

	db := r.applyFilters(r.db.WithContext(ctx).Model(&models.Ticket{}), query)

	// Count total
	db.Count(&total)

	// Apply sorting
	if query.SortBy != "" {
		order := "tickets." + query.SortBy
		if query.SortDir == "desc" {
			order += " DESC"
		}
		db = db.Order(order)
	} else {
		db = db.Order("tickets.created_at DESC")
	}

	// Apply pagination
	if query.PerPage > 0 {
		db = db.Offset((query.Page - 1) * query.PerPage).Limit(query.PerPage)
	}

	err := db.
		Preload("Equipment").
		Preload("Employee").
		Preload("Technician").
		Find(&tickets).Error
	return tickets, total, err
}

func (r *ticketRepository) ListForExport(ctx context.Context, query *ListQuery) ([]models.Ticket, error) {
	var tickets []models.Ticket
	db := r.applyFilters(r.db.WithContext(ctx).Model(&models.Ticket{}), query)
	err := db.
		Order("tickets.created_at DESC").
		Preload("Equipment").
		Preload("Employee").
		Preload("Technician").
		Preload("Intervention").
		Preload("Intervention.Parts").
		Find(&tickets).Error
	return tickets, err
}

func (r *ticketRepository) MarkEmailSent(ctx context.Context, ticketID uint) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Ticket{}).
		Where("id = ? AND email_sent = ?", ticketID, false).
		Update("email_sent", true)
	return res.RowsAffected > 0, res.Error
}

func (r *ticketRepository) ReleaseEmailFlag(ctx context.Context, ticketID uint) error {
	return r.db.WithContext(ctx).
		Model(&models.Ticket{}).
		Where("id = ?", ticketID).
		Update("email_sent", false).Error
}

func (r *ticketRepository) CountActiveByEquipment(ctx context.Context, equipmentCode string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Ticket{}).
		Where("equipment_code = ? AND status IN ?", equipmentCode, models.ActiveTicketStatuses).
		Count(&count).Error
	return count, err
}

func (r *ticketRepository) StatusCounts(ctx context.Context) (map[string]int64, error) {
	type row struct {
		Status string
		Count  int64
	}
	var rows []row
	err := r.db.WithContext(ctx).
		Model(&models.Ticket{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int64, len(rows))
	for _, r := range rows {
		counts[r.Status] = r.Count
	}
	return counts, nil
}

func (r *ticketRepository) StatusCountsForUser(ctx context.Context, column string, userID uint) (map[string]int64, error) {
	type row struct {
		Status string
		Count  int64
	}
	var rows []row
	err := r.db.WithContext(ctx).
		Model(&models.Ticket{}).
		Select("status, COUNT(*) AS count").
		Where(column+" = ?", userID).
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int64, len(rows))
	for _, r := range rows {
		counts[r.Status] = r.Count
	}
	return counts, nil
}

func (r *ticketRepository) CountByEquipmentBrand(ctx context.Context) (map[string]int64, error) {
	type row struct {
		Brand string
		Count int64
	}
	var rows []row
	err := r.db.WithContext(ctx).
		Model(&models.Ticket{}).
		Select("COALESCE(NULLIF(equipment.brand, ''), 'unknown') AS brand, COUNT(*) AS count").
		Joins("JOIN equipment ON equipment.code = tickets.equipment_code").
		Group("equipment.brand").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int64, len(rows))
	for _, r := range rows {
		counts[r.Brand] = r.Count
	}
	return counts, nil
}

func (r *ticketRepository) AverageResolutionHours(ctx context.Context) (float64, error) {
	var avg *float64
	err := r.db.WithContext(ctx).
		Model(&models.Ticket{}).
		Select("AVG(EXTRACT(EPOCH FROM (updated_at - created_at)) / 3600)").
		Where("status IN ?", []string{models.TicketStatusValidated, models.TicketStatusRefused}).
		Scan(&avg).Error
	if err != nil || avg == nil {
		return 0, err
	}
	return *avg, nil
}

func (r *ticketRepository) FindCompletedUnnotified(ctx context.Context) ([]models.Ticket, error) {
	var tickets []models.Ticket
	// Only sweep tickets older than a minute so we never race the
	// post-commit dispatch of a just-completed ticket.
	cutoff := time.Now().Add(-time.Minute)
	err := r.db.WithContext(ctx).
		Where("status = ? AND email_sent = ? AND updated_at < ?",
			models.TicketStatusCompleted, false, cutoff).
		Preload("Equipment").
		Preload("Employee").
		Preload("Technician").
		Find(&tickets).Error
	return tickets, err
}
