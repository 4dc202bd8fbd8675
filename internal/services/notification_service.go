package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/epmosta/maintenance-api/internal/models"
	"github.com/epmosta/maintenance-api/internal/repository"
	"github.com/epmosta/maintenance-api/pkg/logger"
	"gorm.io/gorm"
)

// NotificationService dispatches workflow emails. Sends are at-least-once:
// the ticket's email_sent flag is claimed before the send, and released if
// the send fails so the hourly sweep retries it.
type NotificationService struct {
	ticketRepo repository.TicketRepository
	userRepo   repository.UserRepository
	emailSvc   *EmailService
}

func NewNotificationService(ticketRepo repository.TicketRepository, userRepo repository.UserRepository, emailSvc *EmailService) *NotificationService {
	return &NotificationService{
		ticketRepo: ticketRepo,
		userRepo:   userRepo,
		emailSvc:   emailSvc,
	}
}

// NotifyCompletion emails the requesting employee that the repair is done.
// Safe to call more than once for the same ticket.
func (s *NotificationService) NotifyCompletion(ctx context.Context, ticketID uint) error {
	ticket, err := s.ticketRepo.FindByIDWithDetails(ctx, ticketID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}
	if ticket.Status != models.TicketStatusCompleted || ticket.EmailSent {
		return nil
	}

	claimed, err := s.ticketRepo.MarkEmailSent(ctx, ticketID)
	if err != nil {
		return err
	}
	if !claimed {
		// Another dispatcher got there first.
		return nil
	}

	if err := s.emailSvc.SendTicketCompleted(ctx, ticket); err != nil {
		logger.Error(fmt.Sprintf("[Notifications] Completion email for ticket %d failed: %v", ticketID, err))
		if resetErr := s.ticketRepo.ReleaseEmailFlag(ctx, ticketID); resetErr != nil {
			logger.Error(fmt.Sprintf("[Notifications] Could not release email flag for ticket %d: %v", ticketID, resetErr))
		}
		return err
	}

	logger.Info(fmt.Sprintf("[Notifications] Completion email sent for ticket %d to %s", ticketID, ticket.Employee.Email))
	return nil
}

// NotifyAssigned emails the technician who just received a ticket.
// Best-effort: a failure is logged, never retried.
func (s *NotificationService) NotifyAssigned(ctx context.Context, ticketID uint) error {
	ticket, err := s.ticketRepo.FindByIDWithDetails(ctx, ticketID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}
	if ticket.Technician == nil {
		return nil
	}
	if err := s.emailSvc.SendTicketAssigned(ctx, ticket); err != nil {
		logger.Error(fmt.Sprintf("[Notifications] Assignment email for ticket %d failed: %v", ticketID, err))
		return err
	}
	return nil
}
