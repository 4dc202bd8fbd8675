package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"testing"
	"time"

	"github.com/epmosta/maintenance-api/internal/models"
	"github.com/epmosta/maintenance-api/internal/repository"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

type mockExportTicketRepo struct {
	repository.TicketRepository
	mockListForExport func(ctx context.Context, query *repository.ListQuery) ([]models.Ticket, error)
}

func (m *mockExportTicketRepo) ListForExport(ctx context.Context, query *repository.ListQuery) ([]models.Ticket, error) {
	return m.mockListForExport(ctx, query)
}

func sampleExportTickets() []models.Ticket {
	technician := &models.User{FirstName: "Karim", LastName: "Benali"}
	return []models.Ticket{
		{
			ID:            1,
			EquipmentCode: "PC-001",
			Equipment:     models.Equipment{Code: "PC-001", Name: "Poste fixe"},
			Employee:      models.User{FirstName: "Amina", LastName: "Haddad"},
			Technician:    technician,
			Urgency:       models.UrgencyHigh,
			Status:        models.TicketStatusValidated,
			CreatedAt:     time.Date(2026, 5, 12, 9, 30, 0, 0, time.UTC),
			Intervention: &models.Intervention{
				Parts: []models.SparePart{
					{Name: "Alimentation", UnitPrice: decimal.RequireFromString("45.50"), Quantity: 1},
				},
			},
		},
		{
			ID:            2,
			EquipmentCode: "PR-002",
			Equipment:     models.Equipment{Code: "PR-002", Name: "Imprimante"},
			Employee:      models.User{FirstName: "Yacine", LastName: "Mansouri"},
			Urgency:       models.UrgencyLow,
			Status:        models.TicketStatusPending,
			CreatedAt:     time.Date(2026, 5, 13, 14, 0, 0, 0, time.UTC),
		},
	}
}

func TestTicketsCSV(t *testing.T) {
	mockRepo := &mockExportTicketRepo{
		mockListForExport: func(ctx context.Context, query *repository.ListQuery) ([]models.Ticket, error) {
			return sampleExportTickets(), nil
		},
	}
	auditRepo := &mockAuditRepo{}
	service := NewExportService(mockRepo, nil, NewAuditService(auditRepo))

	actor := &models.User{ID: 1, Role: models.RoleAdmin}
	data, filename, err := service.TicketsCSV(context.Background(), actor, repository.NewListQuery(), "127.0.0.1")
	assert.NoError(t, err)
	assert.Contains(t, filename, ".csv")

	records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	assert.NoError(t, err)
	if assert.Len(t, records, 3) {
		assert.Equal(t, "Code équipement", records[0][1])

		assert.Equal(t, "1", records[1][0])
		assert.Equal(t, "Karim Benali", records[1][4])
		assert.Equal(t, "45.50", records[1][7])

		// No technician and no report on the pending ticket
		assert.Equal(t, "", records[2][4])
		assert.Equal(t, "", records[2][7])
	}

	// The export itself lands in the journal
	if assert.Len(t, auditRepo.created, 1) {
		assert.Equal(t, models.ActionExportCSV, auditRepo.created[0].Action)
	}
}

func TestTicketsXLSX(t *testing.T) {
	mockRepo := &mockExportTicketRepo{
		mockListForExport: func(ctx context.Context, query *repository.ListQuery) ([]models.Ticket, error) {
			return sampleExportTickets(), nil
		},
	}
	auditRepo := &mockAuditRepo{}
	service := NewExportService(mockRepo, nil, NewAuditService(auditRepo))

	actor := &models.User{ID: 1, Role: models.RoleAdmin}
	data, filename, err := service.TicketsXLSX(context.Background(), actor, repository.NewListQuery(), "")
	assert.NoError(t, err)
	assert.Contains(t, filename, ".xlsx")
	assert.NotEmpty(t, data)

	if assert.Len(t, auditRepo.created, 1) {
		assert.Equal(t, models.ActionExportXLSX, auditRepo.created[0].Action)
	}
}

func TestTicketsPDF(t *testing.T) {
	mockRepo := &mockExportTicketRepo{
		mockListForExport: func(ctx context.Context, query *repository.ListQuery) ([]models.Ticket, error) {
			return sampleExportTickets(), nil
		},
	}
	auditRepo := &mockAuditRepo{}
	service := NewExportService(mockRepo, nil, NewAuditService(auditRepo))

	actor := &models.User{ID: 1, Role: models.RoleAdmin}
	data, filename, err := service.TicketsPDF(context.Background(), actor, repository.NewListQuery(), "")
	assert.NoError(t, err)
	assert.Contains(t, filename, ".pdf")
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF")))

	if assert.Len(t, auditRepo.created, 1) {
		assert.Equal(t, models.ActionExportPDF, auditRepo.created[0].Action)
	}
}
