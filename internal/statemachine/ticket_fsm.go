package statemachine

import (
	"context"
	"fmt"

	"github.com/epmosta/maintenance-api/internal/models"
	"github.com/looplab/fsm"
)

// TicketFSM wraps a ticket with its state machine
type TicketFSM struct {
	ticket *models.Ticket
	fsm    *fsm.FSM
}

// NewTicketFSM creates a new ticket state machine
func NewTicketFSM(ticket *models.Ticket) *TicketFSM {
	tfsm := &TicketFSM{
		ticket: ticket,
	}

	tfsm.fsm = fsm.NewFSM(
		ticket.Status,
		fsm.Events{
			// pending → assigned
			{Name: "assign", Src: []string{models.TicketStatusPending}, Dst: models.TicketStatusAssigned},

			// assigned → in_progress
			{Name: "start", Src: []string{models.TicketStatusAssigned}, Dst: models.TicketStatusInProgress},

			// in_progress → assigned (technician steps back before completing)
			{Name: "pause", Src: []string{models.TicketStatusInProgress}, Dst: models.TicketStatusAssigned},

			// assigned/in_progress → completed
			{Name: "complete", Src: []string{models.TicketStatusAssigned, models.TicketStatusInProgress}, Dst: models.TicketStatusCompleted},

			// completed → validated
			{Name: "validate", Src: []string{models.TicketStatusCompleted}, Dst: models.TicketStatusValidated},

			// completed → refused
			{Name: "refuse", Src: []string{models.TicketStatusCompleted}, Dst: models.TicketStatusRefused},
		},
		fsm.Callbacks{},
	)

	return tfsm
}

// Assign transitions the ticket to assigned state
func (t *TicketFSM) Assign(ctx context.Context) error {
	if !t.ticket.MayAssign() {
		return fmt.Errorf("ticket cannot be assigned in current state: %s", t.ticket.Status)
	}

	if err := t.fsm.Event(ctx, "assign"); err != nil {
		return fmt.Errorf("failed to assign ticket: %w", err)
	}

	t.ticket.Status = t.fsm.Current()
	return nil
}

// SetStatus moves the ticket to the technician-requested status. Only the
// assigned/in_progress/completed triangle is reachable this way.
func (t *TicketFSM) SetStatus(ctx context.Context, status string) error {
	if !t.ticket.MayProgress() {
		return fmt.Errorf("ticket cannot change status in current state: %s", t.ticket.Status)
	}

	var event string
	switch status {
	case models.TicketStatusAssigned:
		event = "pause"
	case models.TicketStatusInProgress:
		event = "start"
	case models.TicketStatusCompleted:
		event = "complete"
	default:
		return fmt.Errorf("status %q is not reachable by a technician", status)
	}

	if err := t.fsm.Event(ctx, event); err != nil {
		return fmt.Errorf("failed to change ticket status: %w", err)
	}

	t.ticket.Status = t.fsm.Current()
	return nil
}

// Validate transitions the ticket to validated state
func (t *TicketFSM) Validate(ctx context.Context) error {
	if !t.ticket.MayValidate() {
		return fmt.Errorf("ticket cannot be validated in current state: %s", t.ticket.Status)
	}

	if err := t.fsm.Event(ctx, "validate"); err != nil {
		return fmt.Errorf("failed to validate ticket: %w", err)
	}

	t.ticket.Status = t.fsm.Current()
	return nil
}

// Refuse transitions the ticket to refused state
func (t *TicketFSM) Refuse(ctx context.Context) error {
	if !t.ticket.MayValidate() {
		return fmt.Errorf("ticket cannot be refused in current state: %s", t.ticket.Status)
	}

	if err := t.fsm.Event(ctx, "refuse"); err != nil {
		return fmt.Errorf("failed to refuse ticket: %w", err)
	}

	t.ticket.Status = t.fsm.Current()
	return nil
}

// Current returns the current state
func (t *TicketFSM) Current() string {
	return t.fsm.Current()
}

// Can checks if a transition is possible
func (t *TicketFSM) Can(event string) bool {
	return t.fsm.Can(event)
}
