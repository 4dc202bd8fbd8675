package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidStatus(t *testing.T) {
	for _, status := range []string{
		TicketStatusPending, TicketStatusAssigned, TicketStatusInProgress,
		TicketStatusCompleted, TicketStatusValidated, TicketStatusRefused,
	} {
		assert.True(t, ValidStatus(status), status)
	}
	assert.False(t, ValidStatus("archived"))
	assert.False(t, ValidStatus(""))
}

func TestValidUrgency(t *testing.T) {
	assert.True(t, ValidUrgency(UrgencyLow))
	assert.True(t, ValidUrgency(UrgencyMedium))
	assert.True(t, ValidUrgency(UrgencyHigh))
	assert.False(t, ValidUrgency("critical"))
}

func TestTicketIsActive(t *testing.T) {
	for _, status := range ActiveTicketStatuses {
		assert.True(t, (&Ticket{Status: status}).IsActive(), status)
	}
	assert.False(t, (&Ticket{Status: TicketStatusValidated}).IsActive())
	assert.False(t, (&Ticket{Status: TicketStatusRefused}).IsActive())
}

func TestTicketIsTerminal(t *testing.T) {
	assert.True(t, (&Ticket{Status: TicketStatusValidated}).IsTerminal())
	assert.True(t, (&Ticket{Status: TicketStatusRefused}).IsTerminal())
	assert.False(t, (&Ticket{Status: TicketStatusCompleted}).IsTerminal())
	assert.False(t, (&Ticket{Status: TicketStatusPending}).IsTerminal())
}

func TestTicketPermissionHelpers(t *testing.T) {
	pending := &Ticket{Status: TicketStatusPending}
	assert.True(t, pending.MayEdit())
	assert.True(t, pending.MayDelete())
	assert.True(t, pending.MayAssign())
	assert.False(t, pending.MayProgress())
	assert.False(t, pending.MayValidate())

	assigned := &Ticket{Status: TicketStatusAssigned}
	assert.False(t, assigned.MayEdit())
	assert.False(t, assigned.MayAssign())
	assert.True(t, assigned.MayProgress())

	completed := &Ticket{Status: TicketStatusCompleted}
	assert.False(t, completed.MayProgress())
	assert.True(t, completed.MayValidate())

	validated := &Ticket{Status: TicketStatusValidated}
	assert.False(t, validated.MayEdit())
	assert.False(t, validated.MayProgress())
	assert.False(t, validated.MayValidate())
}
