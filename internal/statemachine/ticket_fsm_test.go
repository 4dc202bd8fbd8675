package statemachine

import (
	"context"
	"testing"

	"github.com/epmosta/maintenance-api/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestTicketFSM_Assign(t *testing.T) {
	ticket := &models.Ticket{Status: models.TicketStatusPending}
	tfsm := NewTicketFSM(ticket)

	err := tfsm.Assign(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, models.TicketStatusAssigned, ticket.Status)
}

func TestTicketFSM_Assign_NotPending(t *testing.T) {
	for _, status := range []string{
		models.TicketStatusAssigned,
		models.TicketStatusInProgress,
		models.TicketStatusCompleted,
		models.TicketStatusValidated,
		models.TicketStatusRefused,
	} {
		ticket := &models.Ticket{Status: status}
		tfsm := NewTicketFSM(ticket)

		err := tfsm.Assign(context.Background())
		assert.Error(t, err, "assign should fail from %s", status)
		assert.Equal(t, status, ticket.Status)
	}
}

func TestTicketFSM_TechnicianFlow(t *testing.T) {
	ticket := &models.Ticket{Status: models.TicketStatusAssigned}
	tfsm := NewTicketFSM(ticket)
	ctx := context.Background()

	assert.NoError(t, tfsm.SetStatus(ctx, models.TicketStatusInProgress))
	assert.Equal(t, models.TicketStatusInProgress, ticket.Status)

	// Technician can step back before completing
	assert.NoError(t, tfsm.SetStatus(ctx, models.TicketStatusAssigned))
	assert.Equal(t, models.TicketStatusAssigned, ticket.Status)

	assert.NoError(t, tfsm.SetStatus(ctx, models.TicketStatusInProgress))
	assert.NoError(t, tfsm.SetStatus(ctx, models.TicketStatusCompleted))
	assert.Equal(t, models.TicketStatusCompleted, ticket.Status)
}

func TestTicketFSM_CompleteFromAssigned(t *testing.T) {
	ticket := &models.Ticket{Status: models.TicketStatusAssigned}
	tfsm := NewTicketFSM(ticket)

	err := tfsm.SetStatus(context.Background(), models.TicketStatusCompleted)
	assert.NoError(t, err)
	assert.Equal(t, models.TicketStatusCompleted, ticket.Status)
}

func TestTicketFSM_SetStatus_UnreachableTargets(t *testing.T) {
	ctx := context.Background()

	// A technician can never push a ticket back to pending or close it
	ticket := &models.Ticket{Status: models.TicketStatusInProgress}
	tfsm := NewTicketFSM(ticket)
	assert.Error(t, tfsm.SetStatus(ctx, models.TicketStatusPending))
	assert.Error(t, tfsm.SetStatus(ctx, models.TicketStatusValidated))
	assert.Error(t, tfsm.SetStatus(ctx, models.TicketStatusRefused))
	assert.Equal(t, models.TicketStatusInProgress, ticket.Status)

	// Completed tickets are out of the technician's hands
	ticket = &models.Ticket{Status: models.TicketStatusCompleted}
	tfsm = NewTicketFSM(ticket)
	assert.Error(t, tfsm.SetStatus(ctx, models.TicketStatusInProgress))
	assert.Equal(t, models.TicketStatusCompleted, ticket.Status)
}

func TestTicketFSM_Validate(t *testing.T) {
	ticket := &models.Ticket{Status: models.TicketStatusCompleted}
	tfsm := NewTicketFSM(ticket)

	err := tfsm.Validate(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, models.TicketStatusValidated, ticket.Status)
}

func TestTicketFSM_Refuse(t *testing.T) {
	ticket := &models.Ticket{Status: models.TicketStatusCompleted}
	tfsm := NewTicketFSM(ticket)

	err := tfsm.Refuse(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, models.TicketStatusRefused, ticket.Status)
}

func TestTicketFSM_Validate_NotCompleted(t *testing.T) {
	for _, status := range []string{
		models.TicketStatusPending,
		models.TicketStatusAssigned,
		models.TicketStatusInProgress,
		models.TicketStatusValidated,
		models.TicketStatusRefused,
	} {
		ticket := &models.Ticket{Status: status}
		tfsm := NewTicketFSM(ticket)

		assert.Error(t, tfsm.Validate(context.Background()), "validate should fail from %s", status)
		assert.Error(t, NewTicketFSM(&models.Ticket{Status: status}).Refuse(context.Background()), "refuse should fail from %s", status)
	}
}

func TestTicketFSM_TerminalStatesAreFinal(t *testing.T) {
	ctx := context.Background()
	for _, status := range []string{models.TicketStatusValidated, models.TicketStatusRefused} {
		ticket := &models.Ticket{Status: status}
		tfsm := NewTicketFSM(ticket)

		assert.Error(t, tfsm.Assign(ctx))
		assert.Error(t, tfsm.SetStatus(ctx, models.TicketStatusInProgress))
		assert.Error(t, tfsm.Validate(ctx))
		assert.Error(t, tfsm.Refuse(ctx))
		assert.Equal(t, status, ticket.Status)
	}
}
