package services

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"

	"github.com/epmosta/maintenance-api/internal/models"
	"github.com/epmosta/maintenance-api/internal/repository"
	"github.com/epmosta/maintenance-api/internal/storage"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// InterventionService handles the technician's repair reports
type InterventionService struct {
	db               *gorm.DB
	interventionRepo repository.InterventionRepository
	ticketRepo       repository.TicketRepository
	auditSvc         *AuditService
	storage          *storage.LocalStorage
}

// NewInterventionService creates a new intervention service
func NewInterventionService(
	db *gorm.DB,
	interventionRepo repository.InterventionRepository,
	ticketRepo repository.TicketRepository,
	auditSvc *AuditService,
	storage *storage.LocalStorage,
) *InterventionService {
	return &InterventionService{
		db:               db,
		interventionRepo: interventionRepo,
		ticketRepo:       ticketRepo,
		auditSvc:         auditSvc,
		storage:          storage,
	}
}

// SparePartInput is one cost line in the technician's report. A zero ID
// means a new part; a known ID updates the existing line in place.
type SparePartInput struct {
	ID        uint   `json:"id"`
	Name      string `json:"name" binding:"required"`
	UnitPrice string `json:"unit_price" binding:"required"`
	Quantity  int    `json:"quantity"`
}

// InterventionInput carries the report payload
type InterventionInput struct {
	Details    string           `json:"details" binding:"required"`
	RepairType string           `json:"repair_type"`
	Parts      []SparePartInput `json:"parts"`
}

func (s *InterventionService) buildParts(inputs []SparePartInput, interventionID uint) ([]models.SparePart, error) {
	parts := make([]models.SparePart, 0, len(inputs))
	for _, in := range inputs {
		if in.Name == "" {
			return nil, Validation("le nom de la pièce est obligatoire")
		}
		price, err := decimal.NewFromString(in.UnitPrice)
		if err != nil {
			return nil, Validation(fmt.Sprintf("prix unitaire invalide: %s", in.UnitPrice))
		}
		if !price.IsPositive() {
			return nil, Validation("le prix unitaire doit être supérieur à zéro")
		}
		quantity := in.Quantity
		if quantity == 0 {
			quantity = 1
		}
		if quantity < 0 {
			return nil, Validation("la quantité ne peut pas être négative")
		}
		parts = append(parts, models.SparePart{
			ID:             in.ID,
			InterventionID: interventionID,
			Name:           in.Name,
			UnitPrice:      price,
			Quantity:       quantity,
		})
	}
	return parts, nil
}

// Create writes the repair report for a ticket. Only the assigned
// technician may report, at most once per ticket.
func (s *InterventionService) Create(ctx context.Context, actor *models.User, ticketID uint, input InterventionInput, ip string) (*models.Intervention, error) {
	ticket, err := s.ticketRepo.FindByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if ticket.TechnicianID == nil || *ticket.TechnicianID != actor.ID {
		return nil, ErrUnauthorized
	}
	if _, err := s.interventionRepo.FindByTicketID(ctx, ticketID); err == nil {
		return nil, ErrDuplicate
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	if input.RepairType == "" {
		input.RepairType = models.RepairTypeInternal
	}
	if !models.ValidRepairType(input.RepairType) {
		return nil, Validation(fmt.Sprintf("type de réparation invalide: %s", input.RepairType))
	}

	parts, err := s.buildParts(input.Parts, 0)
	if err != nil {
		return nil, err
	}

	intervention := &models.Intervention{
		TicketID:   ticketID,
		Details:    input.Details,
		RepairType: input.RepairType,
		Parts:      parts,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(intervention).Error; err != nil {
			return err
		}
		details := fmt.Sprintf("Intervention créée pour la demande #%d (%s, %d pièces)",
			ticketID, intervention.RepairType, len(intervention.Parts))
		return s.auditSvc.LogTx(ctx, tx, &actor.ID, models.ActionInterventionCreate, "Intervention", &intervention.ID, details, ip)
	})
	if err != nil {
		return nil, err
	}

	return s.interventionRepo.FindByID(ctx, intervention.ID)
}

// Update replaces the report's details and part lines. Parts whose ID
// survives in the payload keep their row; the rest are deleted, new lines
// are inserted. The ticket must not be closed yet.
func (s *InterventionService) Update(ctx context.Context, actor *models.User, interventionID uint, input InterventionInput, ip string) (*models.Intervention, error) {
	intervention, err := s.interventionRepo.FindByID(ctx, interventionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	ticket, err := s.ticketRepo.FindByID(ctx, intervention.TicketID)
	if err != nil {
		return nil, err
	}
	if ticket.TechnicianID == nil || *ticket.TechnicianID != actor.ID {
		return nil, ErrUnauthorized
	}
	if ticket.IsTerminal() {
		return nil, ErrInvalidState
	}

	if input.RepairType != "" {
		if !models.ValidRepairType(input.RepairType) {
			return nil, Validation(fmt.Sprintf("type de réparation invalide: %s", input.RepairType))
		}
		intervention.RepairType = input.RepairType
	}
	if input.Details != "" {
		intervention.Details = input.Details
	}

	parts, err := s.buildParts(input.Parts, intervention.ID)
	if err != nil {
		return nil, err
	}

	// Existing part IDs referenced by the payload must belong to this
	// intervention.
	existing := make(map[uint]bool, len(intervention.Parts))
	for _, p := range intervention.Parts {
		existing[p.ID] = true
	}
	keepIDs := make([]uint, 0, len(parts))
	for _, p := range parts {
		if p.ID != 0 {
			if !existing[p.ID] {
				return nil, Validation(fmt.Sprintf("pièce inconnue: %d", p.ID))
			}
			keepIDs = append(keepIDs, p.ID)
		}
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		del := tx.Where("intervention_id = ?", intervention.ID)
		if len(keepIDs) > 0 {
			del = del.Where("id NOT IN ?", keepIDs)
		}
		if err := del.Delete(&models.SparePart{}).Error; err != nil {
			return err
		}
		for i := range parts {
			if err := tx.Save(&parts[i]).Error; err != nil {
				return err
			}
		}
		if err := tx.Model(&models.Intervention{}).
			Where("id = ?", intervention.ID).
			Updates(map[string]interface{}{
				"details":     intervention.Details,
				"repair_type": intervention.RepairType,
			}).Error; err != nil {
			return err
		}
		details := fmt.Sprintf("Intervention #%d modifiée (%d pièces)", intervention.ID, len(parts))
		return s.auditSvc.LogTx(ctx, tx, &actor.ID, models.ActionInterventionUpdate, "Intervention", &intervention.ID, details, ip)
	})
	if err != nil {
		return nil, err
	}

	return s.interventionRepo.FindByID(ctx, intervention.ID)
}

// Get loads a report with its parts and files
func (s *InterventionService) Get(ctx context.Context, id uint) (*models.Intervention, error) {
	intervention, err := s.interventionRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return intervention, nil
}

// GetByTicket loads the report attached to a ticket
func (s *InterventionService) GetByTicket(ctx context.Context, ticketID uint) (*models.Intervention, error) {
	intervention, err := s.interventionRepo.FindByTicketID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return intervention, nil
}

// List returns reports with filters, admin view
func (s *InterventionService) List(ctx context.Context, query *repository.ListQuery) ([]models.Intervention, int64, error) {
	return s.interventionRepo.List(ctx, query)
}

// AttachFileInput carries upload metadata alongside the multipart file
type AttachFileInput struct {
	FileType    string
	Description string
}

// AttachFile stores a document on an intervention. The upload is checked
// against the extension allow-list and the 5 MiB ceiling before anything
// touches disk.
func (s *InterventionService) AttachFile(ctx context.Context, actor *models.User, interventionID uint, file multipart.File, header *multipart.FileHeader, input AttachFileInput, ip string) (*models.AttachedFile, error) {
	intervention, err := s.interventionRepo.FindByID(ctx, interventionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	ticket, err := s.ticketRepo.FindByID(ctx, intervention.TicketID)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && (ticket.TechnicianID == nil || *ticket.TechnicianID != actor.ID) {
		return nil, ErrUnauthorized
	}

	if header.Size > models.MaxAttachmentSize {
		return nil, Validation(fmt.Sprintf("fichier trop volumineux (max %d Mo)", models.MaxAttachmentSize/(1024*1024)))
	}
	if !models.AllowedAttachmentExtension(header.Filename) {
		return nil, Validation("type de fichier non autorisé")
	}
	if input.FileType == "" {
		input.FileType = models.FileTypeOther
	}
	if !models.ValidFileType(input.FileType) {
		return nil, Validation(fmt.Sprintf("type de document invalide: %s", input.FileType))
	}

	path, err := s.storage.Upload(file, header, "interventions")
	if err != nil {
		return nil, err
	}

	attached := &models.AttachedFile{
		InterventionID: interventionID,
		Path:           path,
		FileName:       header.Filename,
		FileType:       input.FileType,
		Description:    input.Description,
		Size:           header.Size,
		UploadedByID:   &actor.ID,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(attached).Error; err != nil {
			return err
		}
		details := fmt.Sprintf("Fichier %s (%s) joint à l'intervention #%d", attached.FileName, attached.FileType, interventionID)
		return s.auditSvc.LogTx(ctx, tx, &actor.ID, models.ActionFileUpload, "AttachedFile", &attached.ID, details, ip)
	})
	if err != nil {
		// The DB row never landed, drop the orphan from disk.
		s.storage.Delete(path)
		return nil, err
	}

	return attached, nil
}

// OpenFile returns the stored file metadata and its absolute path for
// streaming back to the client.
func (s *InterventionService) OpenFile(ctx context.Context, fileID uint) (*models.AttachedFile, string, error) {
	file, err := s.interventionRepo.FindFile(ctx, fileID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", ErrNotFound
		}
		return nil, "", err
	}
	fullPath := s.storage.GetFullPath(file.Path)
	if !s.storage.Exists(file.Path) {
		return nil, "", ErrNotFound
	}
	return file, fullPath, nil
}

// DeleteFile removes an attached document. Admin only.
func (s *InterventionService) DeleteFile(ctx context.Context, actor *models.User, fileID uint, ip string) error {
	if !actor.IsAdmin() {
		return ErrUnauthorized
	}
	file, err := s.interventionRepo.FindFile(ctx, fileID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		details := fmt.Sprintf("Fichier %s supprimé de l'intervention #%d", file.FileName, file.InterventionID)
		if err := s.auditSvc.LogTx(ctx, tx, &actor.ID, models.ActionFileDelete, "AttachedFile", &file.ID, details, ip); err != nil {
			return err
		}
		return tx.Delete(&models.AttachedFile{}, file.ID).Error
	})
	if err != nil {
		return err
	}

	// Disk cleanup runs after the commit; a leftover file is harmless.
	s.storage.Delete(file.Path)
	return nil
}
