package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/epmosta/maintenance-api/internal/models"
	"github.com/epmosta/maintenance-api/internal/repository"
	"gorm.io/gorm"
)

// EquipmentService handles the equipment registry
type EquipmentService struct {
	equipmentRepo repository.EquipmentRepository
	ticketRepo    repository.TicketRepository
	orgRepo       repository.OrganizationRepository
	auditSvc      *AuditService
}

// NewEquipmentService creates a new equipment service
func NewEquipmentService(
	equipmentRepo repository.EquipmentRepository,
	ticketRepo repository.TicketRepository,
	orgRepo repository.OrganizationRepository,
	auditSvc *AuditService,
) *EquipmentService {
	return &EquipmentService{
		equipmentRepo: equipmentRepo,
		ticketRepo:    ticketRepo,
		orgRepo:       orgRepo,
		auditSvc:      auditSvc,
	}
}

// EquipmentInput carries the registry payload
type EquipmentInput struct {
	Code            string  `json:"code" binding:"required"`
	Name            string  `json:"name" binding:"required"`
	Brand           string  `json:"brand"`
	AcquisitionDate string  `json:"acquisition_date"`
	Description     *string `json:"description"`
	CategoryID      *uint   `json:"category_id"`
	OfficeID        *uint   `json:"office_id"`
}

func parseAcquisitionDate(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	for _, layout := range []string{"2006-01-02", "02/01/2006"} {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, Validation(fmt.Sprintf("date d'acquisition invalide: %s", value))
}

// Get loads one equipment by code
func (s *EquipmentService) Get(ctx context.Context, code string) (*models.Equipment, error) {
	equipment, err := s.equipmentRepo.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return equipment, nil
}

// List returns equipment with filters and pagination
func (s *EquipmentService) List(ctx context.Context, query *repository.ListQuery) ([]models.Equipment, int64, error) {
	return s.equipmentRepo.List(ctx, query)
}

// Create registers a new equipment. Admin only (enforced at the route).
func (s *EquipmentService) Create(ctx context.Context, actor *models.User, input EquipmentInput, ip string) (*models.Equipment, error) {
	acquired, err := parseAcquisitionDate(input.AcquisitionDate)
	if err != nil {
		return nil, err
	}

	equipment := &models.Equipment{
		Code:            strings.TrimSpace(input.Code),
		Name:            input.Name,
		Brand:           input.Brand,
		AcquisitionDate: acquired,
		Description:     input.Description,
		CategoryID:      input.CategoryID,
		OfficeID:        input.OfficeID,
	}
	if equipment.Code == "" {
		return nil, Validation("le code équipement est obligatoire")
	}

	if err := s.equipmentRepo.Create(ctx, equipment); err != nil {
		return nil, err
	}

	details := fmt.Sprintf("Équipement %s (%s) créé", equipment.Name, equipment.Code)
	if err := s.auditSvc.Log(ctx, &actor.ID, models.ActionEquipmentCreate, "Equipment", nil, details, ip); err != nil {
		return nil, err
	}
	return s.equipmentRepo.FindByCode(ctx, equipment.Code)
}

// Update edits an equipment's registry fields. The code itself is immutable.
func (s *EquipmentService) Update(ctx context.Context, actor *models.User, code string, input EquipmentInput, ip string) (*models.Equipment, error) {
	equipment, err := s.equipmentRepo.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if input.Name != "" {
		equipment.Name = input.Name
	}
	equipment.Brand = input.Brand
	equipment.Description = input.Description
	equipment.CategoryID = input.CategoryID
	equipment.OfficeID = input.OfficeID
	if input.AcquisitionDate != "" {
		acquired, err := parseAcquisitionDate(input.AcquisitionDate)
		if err != nil {
			return nil, err
		}
		equipment.AcquisitionDate = acquired
	}

	if err := s.equipmentRepo.Update(ctx, equipment); err != nil {
		return nil, err
	}

	details := fmt.Sprintf("Équipement %s modifié", equipment.Code)
	if err := s.auditSvc.Log(ctx, &actor.ID, models.ActionEquipmentUpdate, "Equipment", nil, details, ip); err != nil {
		return nil, err
	}
	return s.equipmentRepo.FindByCode(ctx, equipment.Code)
}

// Delete removes an equipment from the registry. Refused while the
// equipment still has an active ticket.
func (s *EquipmentService) Delete(ctx context.Context, actor *models.User, code string, ip string) error {
	equipment, err := s.equipmentRepo.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}

	active, err := s.ticketRepo.CountActiveByEquipment(ctx, code)
	if err != nil {
		return err
	}
	if active > 0 {
		return Validation("impossible de supprimer un équipement avec une demande en cours")
	}

	if err := s.equipmentRepo.Delete(ctx, code); err != nil {
		return err
	}

	details := fmt.Sprintf("Équipement %s (%s) supprimé", equipment.Name, equipment.Code)
	return s.auditSvc.Log(ctx, &actor.ID, models.ActionEquipmentDelete, "Equipment", nil, details, ip)
}

// csvHeader is the canonical column order for import and export
var csvHeader = []string{"code", "name", "brand", "acquisition_date", "description", "category", "office", "direction"}

// ImportResult summarizes a CSV import run
type ImportResult struct {
	Imported int      `json:"imported"`
	Skipped  int      `json:"skipped"`
	Errors   []string `json:"errors,omitempty"`
}

// ImportCSV upserts equipment rows from a CSV stream. Categories, offices
// and directions are created on the fly when referenced by name. Bad rows
// are skipped and reported, they never abort the run.
func (s *EquipmentService) ImportCSV(ctx context.Context, actor *models.User, r io.Reader, ip string) (*ImportResult, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, Validation("fichier CSV vide ou illisible")
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	if _, ok := cols["code"]; !ok {
		return nil, Validation("colonne 'code' manquante")
	}
	if _, ok := cols["name"]; !ok {
		return nil, Validation("colonne 'name' manquante")
	}

	field := func(record []string, name string) string {
		idx, ok := cols[name]
		if !ok || idx >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[idx])
	}

	result := &ImportResult{}
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			result.Skipped++
			result.Errors = append(result.Errors, fmt.Sprintf("ligne %d: %v", line, err))
			continue
		}

		code := field(record, "code")
		name := field(record, "name")
		if code == "" || name == "" {
			result.Skipped++
			result.Errors = append(result.Errors, fmt.Sprintf("ligne %d: code ou nom manquant", line))
			continue
		}

		acquired, err := parseAcquisitionDate(field(record, "acquisition_date"))
		if err != nil {
			result.Skipped++
			result.Errors = append(result.Errors, fmt.Sprintf("ligne %d: %v", line, err))
			continue
		}

		equipment := &models.Equipment{
			Code:            code,
			Name:            name,
			Brand:           field(record, "brand"),
			AcquisitionDate: acquired,
		}
		if desc := field(record, "description"); desc != "" {
			equipment.Description = &desc
		}

		if categoryName := field(record, "category"); categoryName != "" {
			category, err := s.orgRepo.GetOrCreateCategory(ctx, categoryName)
			if err != nil {
				result.Skipped++
				result.Errors = append(result.Errors, fmt.Sprintf("ligne %d: %v", line, err))
				continue
			}
			equipment.CategoryID = &category.ID
		}

		officeName := field(record, "office")
		directionName := field(record, "direction")
		if officeName != "" {
			if directionName == "" {
				result.Skipped++
				result.Errors = append(result.Errors, fmt.Sprintf("ligne %d: bureau sans direction", line))
				continue
			}
			direction, err := s.orgRepo.GetOrCreateDirection(ctx, directionName)
			if err != nil {
				result.Skipped++
				result.Errors = append(result.Errors, fmt.Sprintf("ligne %d: %v", line, err))
				continue
			}
			office, err := s.orgRepo.GetOrCreateOffice(ctx, officeName, direction.ID)
			if err != nil {
				result.Skipped++
				result.Errors = append(result.Errors, fmt.Sprintf("ligne %d: %v", line, err))
				continue
			}
			equipment.OfficeID = &office.ID
		}

		if err := s.equipmentRepo.Upsert(ctx, equipment); err != nil {
			result.Skipped++
			result.Errors = append(result.Errors, fmt.Sprintf("ligne %d: %v", line, err))
			continue
		}
		result.Imported++
	}

	details := fmt.Sprintf("Import CSV équipements: %d importés, %d ignorés", result.Imported, result.Skipped)
	if err := s.auditSvc.Log(ctx, &actor.ID, models.ActionImportCSV, "Equipment", nil, details, ip); err != nil {
		return nil, err
	}
	return result, nil
}

// ExportCSV renders the full registry as a CSV document
func (s *EquipmentService) ExportCSV(ctx context.Context, actor *models.User, ip string) ([]byte, string, error) {
	items, err := s.equipmentRepo.ListAll(ctx)
	if err != nil {
		return nil, "", err
	}

	buf := new(bytes.Buffer)
	writer := csv.NewWriter(buf)
	_ = writer.Write(csvHeader)

	for _, e := range items {
		acquired := ""
		if !e.AcquisitionDate.IsZero() {
			acquired = e.AcquisitionDate.Format("2006-01-02")
		}
		description := ""
		if e.Description != nil {
			description = *e.Description
		}
		category, office, direction := "", "", ""
		if e.Category != nil {
			category = e.Category.Name
		}
		if e.Office != nil {
			office = e.Office.Name
			direction = e.Office.Direction.Name
		}
		_ = writer.Write([]string{e.Code, e.Name, e.Brand, acquired, description, category, office, direction})
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, "", err
	}

	details := fmt.Sprintf("Export CSV équipements (%d lignes)", len(items))
	if err := s.auditSvc.Log(ctx, &actor.ID, models.ActionExportCSV, "Equipment", nil, details, ip); err != nil {
		return nil, "", err
	}

	filename := fmt.Sprintf("equipment_%s.csv", time.Now().Format("2006-01-02"))
	return buf.Bytes(), filename, nil
}

// Directions lists all directions
func (s *EquipmentService) Directions(ctx context.Context) ([]models.Direction, error) {
	return s.orgRepo.ListDirections(ctx)
}

// Offices lists offices, optionally scoped to one direction
func (s *EquipmentService) Offices(ctx context.Context, directionID *uint) ([]models.Office, error) {
	return s.orgRepo.ListOffices(ctx, directionID)
}

// Categories lists all equipment categories
func (s *EquipmentService) Categories(ctx context.Context) ([]models.Category, error) {
	return s.orgRepo.ListCategories(ctx)
}
