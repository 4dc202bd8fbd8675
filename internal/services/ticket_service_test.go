package services

import (
	"context"
	"errors"
	"testing"

	"github.com/epmosta/maintenance-api/internal/models"
	"github.com/epmosta/maintenance-api/internal/repository"
	"github.com/stretchr/testify/assert"
)

type mockScopedTicketRepo struct {
	repository.TicketRepository
	mockFindByID            func(ctx context.Context, id uint) (*models.Ticket, error)
	mockFindByIDWithDetails func(ctx context.Context, id uint) (*models.Ticket, error)
	lastListQuery           *repository.ListQuery
}

func (m *mockScopedTicketRepo) FindByID(ctx context.Context, id uint) (*models.Ticket, error) {
	return m.mockFindByID(ctx, id)
}

func (m *mockScopedTicketRepo) FindByIDWithDetails(ctx context.Context, id uint) (*models.Ticket, error) {
	return m.mockFindByIDWithDetails(ctx, id)
}

func (m *mockScopedTicketRepo) List(ctx context.Context, query *repository.ListQuery) ([]models.Ticket, int64, error) {
	m.lastListQuery = query
	return nil, 0, nil
}

func ticketFixture() *models.Ticket {
	technicianID := uint(5)
	return &models.Ticket{
		ID:           10,
		EmployeeID:   2,
		TechnicianID: &technicianID,
		Status:       models.TicketStatusAssigned,
	}
}

func TestTicketGet_Visibility(t *testing.T) {
	mockRepo := &mockScopedTicketRepo{
		mockFindByIDWithDetails: func(ctx context.Context, id uint) (*models.Ticket, error) {
			return ticketFixture(), nil
		},
	}
	service := NewTicketService(nil, mockRepo, nil, nil, nil, nil, nil)
	ctx := context.Background()

	admin := &models.User{ID: 1, Role: models.RoleAdmin}
	ticket, err := service.Get(ctx, admin, 10)
	assert.NoError(t, err)
	assert.NotNil(t, ticket)

	owner := &models.User{ID: 2, Role: models.RoleEmployee}
	_, err = service.Get(ctx, owner, 10)
	assert.NoError(t, err)

	assignedTech := &models.User{ID: 5, Role: models.RoleTechnician}
	_, err = service.Get(ctx, assignedTech, 10)
	assert.NoError(t, err)

	otherEmployee := &models.User{ID: 9, Role: models.RoleEmployee}
	_, err = service.Get(ctx, otherEmployee, 10)
	assert.ErrorIs(t, err, ErrUnauthorized)

	otherTech := &models.User{ID: 8, Role: models.RoleTechnician}
	_, err = service.Get(ctx, otherTech, 10)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestTicketList_ForcedScope(t *testing.T) {
	mockRepo := &mockScopedTicketRepo{}
	service := NewTicketService(nil, mockRepo, nil, nil, nil, nil, nil)
	ctx := context.Background()

	employee := &models.User{ID: 2, Role: models.RoleEmployee}
	_, _, err := service.List(ctx, employee, repository.NewListQuery())
	assert.NoError(t, err)
	assert.Equal(t, "2", mockRepo.lastListQuery.Filters["employee_id"])

	technician := &models.User{ID: 5, Role: models.RoleTechnician}
	_, _, err = service.List(ctx, technician, repository.NewListQuery())
	assert.NoError(t, err)
	assert.Equal(t, "5", mockRepo.lastListQuery.Filters["technician_id"])

	// A technician cannot widen their scope by passing a filter
	query := repository.NewListQuery()
	query.Filters["technician_id"] = "99"
	_, _, err = service.List(ctx, technician, query)
	assert.NoError(t, err)
	assert.Equal(t, "5", mockRepo.lastListQuery.Filters["technician_id"])

	admin := &models.User{ID: 1, Role: models.RoleAdmin}
	_, _, err = service.List(ctx, admin, repository.NewListQuery())
	assert.NoError(t, err)
	assert.Empty(t, mockRepo.lastListQuery.Filters["employee_id"])
	assert.Empty(t, mockRepo.lastListQuery.Filters["technician_id"])
}

func TestTicketDelete_OwnerOnly(t *testing.T) {
	mockRepo := &mockScopedTicketRepo{
		mockFindByID: func(ctx context.Context, id uint) (*models.Ticket, error) {
			return &models.Ticket{ID: 10, EmployeeID: 2, Status: models.TicketStatusPending}, nil
		},
	}
	service := NewTicketService(nil, mockRepo, nil, nil, nil, nil, nil)
	ctx := context.Background()

	admin := &models.User{ID: 1, Role: models.RoleAdmin}
	err := service.Delete(ctx, admin, 10, "127.0.0.1")
	assert.ErrorIs(t, err, ErrUnauthorized)

	otherEmployee := &models.User{ID: 9, Role: models.RoleEmployee}
	err = service.Delete(ctx, otherEmployee, 10, "127.0.0.1")
	assert.ErrorIs(t, err, ErrUnauthorized)

	// Once the ticket left pending, even the owner cannot delete it.
	mockRepo.mockFindByID = func(ctx context.Context, id uint) (*models.Ticket, error) {
		return &models.Ticket{ID: 10, EmployeeID: 2, Status: models.TicketStatusAssigned}, nil
	}
	owner := &models.User{ID: 2, Role: models.RoleEmployee}
	err = service.Delete(ctx, owner, 10, "127.0.0.1")
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestTechnicianSuggestions_AdminOnly(t *testing.T) {
	service := NewTicketService(nil, nil, nil, nil, nil, nil, nil)
	ctx := context.Background()

	for _, role := range []string{models.RoleEmployee, models.RoleTechnician} {
		_, err := service.TechnicianSuggestions(ctx, &models.User{ID: 4, Role: role})
		assert.True(t, errors.Is(err, ErrUnauthorized), role)
	}
}
