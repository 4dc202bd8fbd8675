package models

import (
	"time"
)

// Ticket represents a maintenance request filed against an equipment item
type Ticket struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	EquipmentCode string    `gorm:"not null;index;size:50" json:"equipment_code"`
	EmployeeID    uint      `gorm:"not null;index" json:"employee_id"`
	TechnicianID  *uint     `gorm:"index" json:"technician_id"`
	Urgency       string    `gorm:"default:medium" json:"urgency"`
	Description   string    `gorm:"type:text;not null" json:"description"`
	Status        string    `gorm:"default:pending;index" json:"status"`
	EmailSent     bool      `gorm:"default:false" json:"email_sent"`
	CreatedAt     time.Time `gorm:"index" json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`

	// Associations
	Equipment    Equipment     `gorm:"foreignKey:EquipmentCode;references:Code" json:"equipment,omitempty"`
	Employee     User          `gorm:"foreignKey:EmployeeID" json:"employee,omitempty"`
	Technician   *User         `gorm:"foreignKey:TechnicianID" json:"technician,omitempty"`
	Intervention *Intervention `gorm:"foreignKey:TicketID" json:"intervention,omitempty"`
}

// TableName specifies the table name for Ticket
func (Ticket) TableName() string {
	return "tickets"
}

// Ticket status constants
const (
	TicketStatusPending    = "pending"
	TicketStatusAssigned   = "assigned"
	TicketStatusInProgress = "in_progress"
	TicketStatusCompleted  = "completed"
	TicketStatusValidated  = "validated"
	TicketStatusRefused    = "refused"
)

// Urgency constants
const (
	UrgencyLow    = "low"
	UrgencyMedium = "medium"
	UrgencyHigh   = "high"
)

// ActiveTicketStatuses are the statuses that block a new ticket on the same
// equipment. A ticket stops being active only once the employee has validated
// or refused the repair.
var ActiveTicketStatuses = []string{
	TicketStatusPending,
	TicketStatusAssigned,
	TicketStatusInProgress,
	TicketStatusCompleted,
}

// ValidStatus reports whether status belongs to the closed status set.
func ValidStatus(status string) bool {
	switch status {
	case TicketStatusPending, TicketStatusAssigned, TicketStatusInProgress,
		TicketStatusCompleted, TicketStatusValidated, TicketStatusRefused:
		return true
	}
	return false
}

// ValidUrgency reports whether urgency belongs to the closed urgency set.
func ValidUrgency(urgency string) bool {
	switch urgency {
	case UrgencyLow, UrgencyMedium, UrgencyHigh:
		return true
	}
	return false
}

// IsActive returns true while the ticket blocks new tickets on its equipment
func (t *Ticket) IsActive() bool {
	for _, s := range ActiveTicketStatuses {
		if t.Status == s {
			return true
		}
	}
	return false
}

// IsTerminal returns true once the ticket reached an end state
func (t *Ticket) IsTerminal() bool {
	return t.Status == TicketStatusValidated || t.Status == TicketStatusRefused
}

// MayEdit returns true if the owning employee can still modify the ticket
func (t *Ticket) MayEdit() bool {
	return t.Status == TicketStatusPending
}

// MayDelete returns true if the owning employee can still delete the ticket
func (t *Ticket) MayDelete() bool {
	return t.Status == TicketStatusPending
}

// MayAssign returns true if an admin can assign a technician
func (t *Ticket) MayAssign() bool {
	return t.Status == TicketStatusPending
}

// MayProgress returns true if the assigned technician can move the ticket
func (t *Ticket) MayProgress() bool {
	return t.Status == TicketStatusAssigned || t.Status == TicketStatusInProgress
}

// MayValidate returns true if the employee can validate or refuse the repair
func (t *Ticket) MayValidate() bool {
	return t.Status == TicketStatusCompleted
}

// TicketResponse is the JSON response format for tickets
type TicketResponse struct {
	ID             uint                  `json:"id"`
	EquipmentCode  string                `json:"equipment_code"`
	EquipmentName  string                `json:"equipment_name,omitempty"`
	EmployeeID     uint                  `json:"employee_id"`
	EmployeeName   string                `json:"employee_name,omitempty"`
	TechnicianID   *uint                 `json:"technician_id"`
	TechnicianName string                `json:"technician_name,omitempty"`
	Urgency        string                `json:"urgency"`
	Description    string                `json:"description"`
	Status         string                `json:"status"`
	EmailSent      bool                  `json:"email_sent"`
	Intervention   *InterventionResponse `json:"intervention,omitempty"`
	CreatedAt      time.Time             `json:"created_at"`
	UpdatedAt      time.Time             `json:"updated_at"`
}

// ToResponse converts Ticket to TicketResponse
func (t *Ticket) ToResponse() TicketResponse {
	resp := TicketResponse{
		ID:            t.ID,
		EquipmentCode: t.EquipmentCode,
		EmployeeID:    t.EmployeeID,
		TechnicianID:  t.TechnicianID,
		Urgency:       t.Urgency,
		Description:   t.Description,
		Status:        t.Status,
		EmailSent:     t.EmailSent,
		CreatedAt:     t.CreatedAt,
		UpdatedAt:     t.UpdatedAt,
	}
	resp.EquipmentName = t.Equipment.Name
	resp.EmployeeName = t.Employee.FullName()
	if t.Technician != nil {
		resp.TechnicianName = t.Technician.FullName()
	}
	if t.Intervention != nil {
		ir := t.Intervention.ToResponse()
		resp.Intervention = &ir
	}
	return resp
}
