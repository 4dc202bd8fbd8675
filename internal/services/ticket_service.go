package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/epmosta/maintenance-api/internal/jobs"
	"github.com/epmosta/maintenance-api/internal/models"
	"github.com/epmosta/maintenance-api/internal/repository"
	"github.com/epmosta/maintenance-api/internal/statemachine"
	"github.com/epmosta/maintenance-api/pkg/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TicketService handles the maintenance request workflow
type TicketService struct {
	db              *gorm.DB
	ticketRepo      repository.TicketRepository
	equipmentRepo   repository.EquipmentRepository
	userRepo        repository.UserRepository
	auditSvc        *AuditService
	notificationSvc *NotificationService
	worker          *jobs.Worker
}

// NewTicketService creates a new ticket service
func NewTicketService(
	db *gorm.DB,
	ticketRepo repository.TicketRepository,
	equipmentRepo repository.EquipmentRepository,
	userRepo repository.UserRepository,
	auditSvc *AuditService,
	notificationSvc *NotificationService,
	worker *jobs.Worker,
) *TicketService {
	return &TicketService{
		db:              db,
		ticketRepo:      ticketRepo,
		equipmentRepo:   equipmentRepo,
		userRepo:        userRepo,
		auditSvc:        auditSvc,
		notificationSvc: notificationSvc,
		worker:          worker,
	}
}

// CreateTicketInput carries the employee's request payload
type CreateTicketInput struct {
	EquipmentCode string `json:"equipment_code" binding:"required"`
	Urgency       string `json:"urgency"`
	Description   string `json:"description" binding:"required"`
}

// Create files a new maintenance request. Only employees file requests; the
// equipment must belong to the employee's direction and must not already
// have an active ticket.
func (s *TicketService) Create(ctx context.Context, actor *models.User, input CreateTicketInput, ip string) (*models.Ticket, error) {
	if !actor.IsEmployee() {
		return nil, ErrUnauthorized
	}
	if input.Urgency == "" {
		input.Urgency = models.UrgencyMedium
	}
	if !models.ValidUrgency(input.Urgency) {
		return nil, Validation(fmt.Sprintf("urgence invalide: %s", input.Urgency))
	}
	if input.Description == "" {
		return nil, Validation("la description est obligatoire")
	}

	equipment, err := s.equipmentRepo.FindByCode(ctx, input.EquipmentCode)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	dirID := equipment.DirectionID()
	if dirID == nil || actor.DirectionID == nil || *dirID != *actor.DirectionID {
		return nil, ErrUnauthorized
	}

	ticket := &models.Ticket{
		EquipmentCode: equipment.Code,
		EmployeeID:    actor.ID,
		Urgency:       input.Urgency,
		Description:   input.Description,
		Status:        models.TicketStatusPending,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Lock the equipment row so two simultaneous requests on the same
		// equipment serialize the active-ticket check.
		var locked models.Equipment
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("code = ?", equipment.Code).
			First(&locked).Error; err != nil {
			return err
		}

		var active int64
		if err := tx.Model(&models.Ticket{}).
			Where("equipment_code = ? AND status IN ?", equipment.Code, models.ActiveTicketStatuses).
			Count(&active).Error; err != nil {
			return err
		}
		if active > 0 {
			return Validation("cet équipement a déjà une demande en cours")
		}

		if err := tx.Create(ticket).Error; err != nil {
			return err
		}

		details := fmt.Sprintf("Demande créée pour %s (%s), urgence %s", equipment.Name, equipment.Code, ticket.Urgency)
		return s.auditSvc.LogTx(ctx, tx, &actor.ID, models.ActionTicketCreate, "Ticket", &ticket.ID, details, ip)
	})
	if err != nil {
		return nil, err
	}

	return s.ticketRepo.FindByIDWithDetails(ctx, ticket.ID)
}

// Get loads a ticket, enforcing visibility: employees see their own
// requests, technicians the ones assigned to them, admins everything.
func (s *TicketService) Get(ctx context.Context, actor *models.User, id uint) (*models.Ticket, error) {
	ticket, err := s.ticketRepo.FindByIDWithDetails(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if !s.canView(actor, ticket) {
		return nil, ErrUnauthorized
	}
	return ticket, nil
}

func (s *TicketService) canView(actor *models.User, ticket *models.Ticket) bool {
	switch {
	case actor.IsAdmin():
		return true
	case actor.IsTechnician():
		return ticket.TechnicianID != nil && *ticket.TechnicianID == actor.ID
	default:
		return ticket.EmployeeID == actor.ID
	}
}

// List returns tickets visible to the actor. Employees and technicians get
// a forced scope on top of whatever filters they pass.
func (s *TicketService) List(ctx context.Context, actor *models.User, query *repository.ListQuery) ([]models.Ticket, int64, error) {
	switch {
	case actor.IsAdmin():
		// no forced scope
	case actor.IsTechnician():
		query.Filters["technician_id"] = fmt.Sprintf("%d", actor.ID)
	default:
		query.Filters["employee_id"] = fmt.Sprintf("%d", actor.ID)
	}
	return s.ticketRepo.List(ctx, query)
}

// UpdateTicketInput carries the fields an employee may still edit
type UpdateTicketInput struct {
	Urgency     string `json:"urgency"`
	Description string `json:"description"`
}

// Update edits a pending ticket. Only the owning employee may edit, and
// only while no technician has been assigned.
func (s *TicketService) Update(ctx context.Context, actor *models.User, id uint, input UpdateTicketInput, ip string) (*models.Ticket, error) {
	ticket, err := s.ticketRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if ticket.EmployeeID != actor.ID {
		return nil, ErrUnauthorized
	}
	if !ticket.MayEdit() {
		return nil, ErrInvalidState
	}
	if input.Urgency != "" {
		if !models.ValidUrgency(input.Urgency) {
			return nil, Validation(fmt.Sprintf("urgence invalide: %s", input.Urgency))
		}
		ticket.Urgency = input.Urgency
	}
	if input.Description != "" {
		ticket.Description = input.Description
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(ticket).Error; err != nil {
			return err
		}
		details := fmt.Sprintf("Demande #%d modifiée", ticket.ID)
		return s.auditSvc.LogTx(ctx, tx, &actor.ID, models.ActionTicketUpdate, "Ticket", &ticket.ID, details, ip)
	})
	if err != nil {
		return nil, err
	}
	return s.ticketRepo.FindByIDWithDetails(ctx, ticket.ID)
}

// Delete removes a pending ticket. Only the owning employee may delete it.
// The audit line is written first so the journal keeps a trace of the
// deleted request.
func (s *TicketService) Delete(ctx context.Context, actor *models.User, id uint, ip string) error {
	ticket, err := s.ticketRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	if ticket.EmployeeID != actor.ID {
		return ErrUnauthorized
	}
	if !ticket.MayDelete() {
		return ErrInvalidState
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		details := fmt.Sprintf("Demande #%d supprimée (%s)", ticket.ID, ticket.EquipmentCode)
		if err := s.auditSvc.LogTx(ctx, tx, &actor.ID, models.ActionTicketDelete, "Ticket", &ticket.ID, details, ip); err != nil {
			return err
		}
		return tx.Delete(&models.Ticket{}, ticket.ID).Error
	})
}

// Assign gives a pending ticket to a technician. Admin only.
func (s *TicketService) Assign(ctx context.Context, actor *models.User, ticketID, technicianID uint, ip string) (*models.Ticket, error) {
	if !actor.IsAdmin() {
		return nil, ErrUnauthorized
	}

	technician, err := s.userRepo.FindByID(ctx, technicianID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, Validation("technicien introuvable")
		}
		return nil, err
	}
	if !technician.IsTechnician() || !technician.IsActive() {
		return nil, Validation("l'utilisateur choisi n'est pas un technicien actif")
	}

	before, err := s.ticketRepo.FindByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ticket, err := s.ticketRepo.FindByIDForUpdate(ctx, tx, ticketID)
		if err != nil {
			return err
		}
		if ticket.Status != before.Status {
			return ErrConcurrencyConflict
		}

		tfsm := statemachine.NewTicketFSM(ticket)
		if err := tfsm.Assign(ctx); err != nil {
			return ErrInvalidState
		}
		ticket.TechnicianID = &technicianID

		if err := tx.Save(ticket).Error; err != nil {
			return err
		}
		details := fmt.Sprintf("Demande #%d assignée à %s", ticket.ID, technician.FullName())
		return s.auditSvc.LogTx(ctx, tx, &actor.ID, models.ActionAssign, "Ticket", &ticket.ID, details, ip)
	})
	if err != nil {
		return nil, err
	}

	s.worker.EnqueueAsync(func(jobCtx context.Context) error {
		return s.notificationSvc.NotifyAssigned(jobCtx, ticketID)
	})

	return s.ticketRepo.FindByIDWithDetails(ctx, ticketID)
}

// ChangeStatus moves a ticket between assigned, in_progress and completed.
// Only the assigned technician may do this. Concurrent changes on the same
// ticket serialize on a row lock; the losing caller gets a conflict.
func (s *TicketService) ChangeStatus(ctx context.Context, actor *models.User, ticketID uint, newStatus string, ip string) (*models.Ticket, error) {
	if !models.ValidStatus(newStatus) {
		return nil, Validation(fmt.Sprintf("statut invalide: %s", newStatus))
	}

	before, err := s.ticketRepo.FindByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if before.TechnicianID == nil || *before.TechnicianID != actor.ID {
		return nil, ErrUnauthorized
	}

	completed := false
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ticket, err := s.ticketRepo.FindByIDForUpdate(ctx, tx, ticketID)
		if err != nil {
			return err
		}
		if ticket.Status != before.Status {
			return ErrConcurrencyConflict
		}

		tfsm := statemachine.NewTicketFSM(ticket)
		if err := tfsm.SetStatus(ctx, newStatus); err != nil {
			return ErrInvalidState
		}
		completed = ticket.Status == models.TicketStatusCompleted

		if err := tx.Save(ticket).Error; err != nil {
			return err
		}
		details := fmt.Sprintf("Demande #%d: %s → %s", ticket.ID, before.Status, ticket.Status)
		return s.auditSvc.LogTx(ctx, tx, &actor.ID, models.ActionStatusChange, "Ticket", &ticket.ID, details, ip)
	})
	if err != nil {
		return nil, err
	}

	if completed {
		// Dispatch after commit so a rollback never triggers an email.
		s.worker.EnqueueAsync(func(jobCtx context.Context) error {
			return s.notificationSvc.NotifyCompletion(jobCtx, ticketID)
		})
	}

	return s.ticketRepo.FindByIDWithDetails(ctx, ticketID)
}

// Validate closes a completed ticket as accepted by the employee
func (s *TicketService) Validate(ctx context.Context, actor *models.User, ticketID uint, ip string) (*models.Ticket, error) {
	return s.closeTicket(ctx, actor, ticketID, true, ip)
}

// Refuse closes a completed ticket as rejected by the employee. A refused
// ticket frees the equipment for a new request.
func (s *TicketService) Refuse(ctx context.Context, actor *models.User, ticketID uint, ip string) (*models.Ticket, error) {
	return s.closeTicket(ctx, actor, ticketID, false, ip)
}

func (s *TicketService) closeTicket(ctx context.Context, actor *models.User, ticketID uint, accept bool, ip string) (*models.Ticket, error) {
	before, err := s.ticketRepo.FindByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if before.EmployeeID != actor.ID {
		return nil, ErrUnauthorized
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ticket, err := s.ticketRepo.FindByIDForUpdate(ctx, tx, ticketID)
		if err != nil {
			return err
		}
		if ticket.Status != before.Status {
			return ErrConcurrencyConflict
		}

		tfsm := statemachine.NewTicketFSM(ticket)
		action := models.ActionTicketValidate
		verb := "validée"
		if accept {
			err = tfsm.Validate(ctx)
		} else {
			err = tfsm.Refuse(ctx)
			action = models.ActionTicketRefuse
			verb = "refusée"
		}
		if err != nil {
			return ErrInvalidState
		}

		if err := tx.Save(ticket).Error; err != nil {
			return err
		}
		details := fmt.Sprintf("Demande #%d %s par l'employé", ticket.ID, verb)
		return s.auditSvc.LogTx(ctx, tx, &actor.ID, action, "Ticket", &ticket.ID, details, ip)
	})
	if err != nil {
		return nil, err
	}

	return s.ticketRepo.FindByIDWithDetails(ctx, ticketID)
}

// TechnicianSuggestions ranks active technicians for assignment, least
// loaded first.
func (s *TicketService) TechnicianSuggestions(ctx context.Context, actor *models.User) ([]models.User, error) {
	if !actor.IsAdmin() {
		return nil, ErrUnauthorized
	}
	return s.userRepo.FindTechniciansByLoad(ctx)
}

// ResendCompletionEmails sweeps completed tickets whose notification never
// went out. Scheduled hourly by the worker.
func (s *TicketService) ResendCompletionEmails(ctx context.Context) error {
	tickets, err := s.ticketRepo.FindCompletedUnnotified(ctx)
	if err != nil {
		return err
	}
	for _, ticket := range tickets {
		if err := s.notificationSvc.NotifyCompletion(ctx, ticket.ID); err != nil {
			logger.Error(fmt.Sprintf("[Tickets] Resend for ticket %d failed: %v", ticket.ID, err))
		}
	}
	return nil
}
