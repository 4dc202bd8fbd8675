package services

import (
	"context"
	"testing"

	"github.com/epmosta/maintenance-api/internal/models"
	"github.com/epmosta/maintenance-api/internal/repository"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

type mockTicketRepo struct {
	repository.TicketRepository
	mockFindByIDWithDetails func(ctx context.Context, id uint) (*models.Ticket, error)
	mockMarkEmailSent       func(ctx context.Context, ticketID uint) (bool, error)
	markEmailSentCalls      int
}

func (m *mockTicketRepo) FindByIDWithDetails(ctx context.Context, id uint) (*models.Ticket, error) {
	return m.mockFindByIDWithDetails(ctx, id)
}

func (m *mockTicketRepo) MarkEmailSent(ctx context.Context, ticketID uint) (bool, error) {
	m.markEmailSentCalls++
	return m.mockMarkEmailSent(ctx, ticketID)
}

func TestNotifyCompletion_TicketMissing(t *testing.T) {
	mockRepo := &mockTicketRepo{
		mockFindByIDWithDetails: func(ctx context.Context, id uint) (*models.Ticket, error) {
			return nil, gorm.ErrRecordNotFound
		},
	}
	service := NewNotificationService(mockRepo, nil, nil)

	// A deleted ticket is not an error for the dispatcher
	assert.NoError(t, service.NotifyCompletion(context.Background(), 42))
	assert.Equal(t, 0, mockRepo.markEmailSentCalls)
}

func TestNotifyCompletion_NotCompleted(t *testing.T) {
	mockRepo := &mockTicketRepo{
		mockFindByIDWithDetails: func(ctx context.Context, id uint) (*models.Ticket, error) {
			return &models.Ticket{ID: id, Status: models.TicketStatusInProgress}, nil
		},
	}
	service := NewNotificationService(mockRepo, nil, nil)

	assert.NoError(t, service.NotifyCompletion(context.Background(), 7))
	assert.Equal(t, 0, mockRepo.markEmailSentCalls)
}

func TestNotifyCompletion_AlreadySent(t *testing.T) {
	mockRepo := &mockTicketRepo{
		mockFindByIDWithDetails: func(ctx context.Context, id uint) (*models.Ticket, error) {
			return &models.Ticket{ID: id, Status: models.TicketStatusCompleted, EmailSent: true}, nil
		},
	}
	service := NewNotificationService(mockRepo, nil, nil)

	assert.NoError(t, service.NotifyCompletion(context.Background(), 7))
	assert.Equal(t, 0, mockRepo.markEmailSentCalls)
}

func TestNotifyCompletion_ClaimLost(t *testing.T) {
	mockRepo := &mockTicketRepo{
		mockFindByIDWithDetails: func(ctx context.Context, id uint) (*models.Ticket, error) {
			return &models.Ticket{ID: id, Status: models.TicketStatusCompleted}, nil
		},
		mockMarkEmailSent: func(ctx context.Context, ticketID uint) (bool, error) {
			// Another dispatcher flipped the flag first
			return false, nil
		},
	}
	// The email service is nil: if the claim-lost path ever tried to send,
	// the test would panic.
	service := NewNotificationService(mockRepo, nil, nil)

	assert.NoError(t, service.NotifyCompletion(context.Background(), 7))
	assert.Equal(t, 1, mockRepo.markEmailSentCalls)
}
