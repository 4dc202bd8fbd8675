package repository

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/epmosta/maintenance-api/internal/database"
	"github.com/epmosta/maintenance-api/internal/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return db
}

func seedTicket(t *testing.T, db *gorm.DB, ticket *models.Ticket) *models.Ticket {
	require.NoError(t, db.Create(ticket).Error)
	return ticket
}

func TestMarkEmailSent_ClaimsOnce(t *testing.T) {
	db := setupTestDB(t)
	repo := NewTicketRepository(db)
	ctx := context.Background()

	ticket := seedTicket(t, db, &models.Ticket{
		EquipmentCode: "IMP-001",
		EmployeeID:    1,
		Description:   "Écran noir",
		Status:        models.TicketStatusCompleted,
	})

	claimed, err := repo.MarkEmailSent(ctx, ticket.ID)
	require.NoError(t, err)
	assert.True(t, claimed)

	// Second dispatcher loses the claim.
	claimed, err = repo.MarkEmailSent(ctx, ticket.ID)
	require.NoError(t, err)
	assert.False(t, claimed)
}

func TestReleaseEmailFlag_TouchesOnlyTheFlag(t *testing.T) {
	db := setupTestDB(t)
	repo := NewTicketRepository(db)
	ctx := context.Background()

	ticket := seedTicket(t, db, &models.Ticket{
		EquipmentCode: "IMP-001",
		EmployeeID:    1,
		Description:   "Écran noir",
		Status:        models.TicketStatusCompleted,
		EmailSent:     true,
	})

	// The employee validates while the failed send is being released; the
	// release must not write the status back.
	require.NoError(t, db.Model(&models.Ticket{}).
		Where("id = ?", ticket.ID).
		Update("status", models.TicketStatusValidated).Error)

	require.NoError(t, repo.ReleaseEmailFlag(ctx, ticket.ID))

	var reloaded models.Ticket
	require.NoError(t, db.First(&reloaded, ticket.ID).Error)
	assert.False(t, reloaded.EmailSent)
	assert.Equal(t, models.TicketStatusValidated, reloaded.Status)
}
