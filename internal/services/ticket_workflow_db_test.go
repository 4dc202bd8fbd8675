package services

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/epmosta/maintenance-api/internal/database"
	"github.com/epmosta/maintenance-api/internal/models"
	"github.com/epmosta/maintenance-api/internal/repository"
)

func openTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return db
}

type workflowFixture struct {
	db         *gorm.DB
	service    *TicketService
	ticket     *models.Ticket
	employee   *models.User
	technician *models.User
}

func newWorkflowFixture(t *testing.T, status string) *workflowFixture {
	db := openTestDB(t)

	direction := &models.Direction{Name: "Direction Informatique"}
	require.NoError(t, db.Create(direction).Error)
	office := &models.Office{Name: "Bureau 12", DirectionID: direction.ID}
	require.NoError(t, db.Create(office).Error)

	employee := &models.User{
		Email:             "amina@example.com",
		EncryptedPassword: "x",
		Role:              models.RoleEmployee,
		FirstName:         "Amina",
		DirectionID:       &direction.ID,
	}
	require.NoError(t, db.Create(employee).Error)
	technician := &models.User{
		Email:             "karim@example.com",
		EncryptedPassword: "x",
		Role:              models.RoleTechnician,
		FirstName:         "Karim",
	}
	require.NoError(t, db.Create(technician).Error)

	equipment := &models.Equipment{Code: "IMP-001", Name: "Imprimante", OfficeID: &office.ID}
	require.NoError(t, db.Create(equipment).Error)

	ticket := &models.Ticket{
		EquipmentCode: equipment.Code,
		EmployeeID:    employee.ID,
		TechnicianID:  &technician.ID,
		Urgency:       models.UrgencyMedium,
		Description:   "L'imprimante ne démarre plus",
		Status:        status,
	}
	require.NoError(t, db.Create(ticket).Error)

	auditSvc := NewAuditService(repository.NewAuditRepository(db))
	service := NewTicketService(
		db,
		repository.NewTicketRepository(db),
		repository.NewEquipmentRepository(db),
		repository.NewUserRepository(db),
		auditSvc,
		nil,
		nil,
	)

	return &workflowFixture{db: db, service: service, ticket: ticket, employee: employee, technician: technician}
}

func (f *workflowFixture) auditCount(t *testing.T) int64 {
	var count int64
	require.NoError(t, f.db.Model(&models.AuditLog{}).Count(&count).Error)
	return count
}

func TestChangeStatus_RepeatedCompletionRejected(t *testing.T) {
	f := newWorkflowFixture(t, models.TicketStatusCompleted)
	ctx := context.Background()

	_, err := f.service.ChangeStatus(ctx, f.technician, f.ticket.ID, models.TicketStatusCompleted, "127.0.0.1")
	assert.ErrorIs(t, err, ErrInvalidState)

	var reloaded models.Ticket
	require.NoError(t, f.db.First(&reloaded, f.ticket.ID).Error)
	assert.Equal(t, models.TicketStatusCompleted, reloaded.Status)
	assert.Zero(t, f.auditCount(t))
}

func TestChangeStatus_SameStatusRejected(t *testing.T) {
	ctx := context.Background()

	for _, status := range []string{models.TicketStatusAssigned, models.TicketStatusInProgress} {
		f := newWorkflowFixture(t, status)

		_, err := f.service.ChangeStatus(ctx, f.technician, f.ticket.ID, status, "127.0.0.1")
		assert.ErrorIs(t, err, ErrInvalidState, status)
		assert.Zero(t, f.auditCount(t), status)
	}
}

func TestChangeStatus_ValidTransitionAudited(t *testing.T) {
	f := newWorkflowFixture(t, models.TicketStatusAssigned)
	ctx := context.Background()

	ticket, err := f.service.ChangeStatus(ctx, f.technician, f.ticket.ID, models.TicketStatusInProgress, "127.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, models.TicketStatusInProgress, ticket.Status)

	var entries []models.AuditLog
	require.NoError(t, f.db.Find(&entries).Error)
	require.Len(t, entries, 1)
	assert.Equal(t, models.ActionStatusChange, entries[0].Action)
}

func TestCreate_EmployeeOnly(t *testing.T) {
	f := newWorkflowFixture(t, models.TicketStatusValidated)
	ctx := context.Background()
	input := CreateTicketInput{EquipmentCode: "IMP-001", Description: "Bac papier cassé"}

	_, err := f.service.Create(ctx, f.technician, input, "127.0.0.1")
	assert.ErrorIs(t, err, ErrUnauthorized)

	admin := &models.User{ID: 99, Role: models.RoleAdmin}
	_, err = f.service.Create(ctx, admin, input, "127.0.0.1")
	assert.ErrorIs(t, err, ErrUnauthorized)

	var count int64
	require.NoError(t, f.db.Model(&models.Ticket{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)

	ticket, err := f.service.Create(ctx, f.employee, input, "127.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, models.TicketStatusPending, ticket.Status)
	assert.Equal(t, f.employee.ID, ticket.EmployeeID)
}
