package models

import (
	"time"
)

// AuditLog is an append-only record of a state-changing action
type AuditLog struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	UserID     *uint     `gorm:"index" json:"user_id"`
	Action     string    `gorm:"size:50;not null;index" json:"action"`
	TargetType string    `gorm:"size:50" json:"target_type"`
	TargetID   *uint     `json:"target_id"`
	Details    string    `gorm:"type:text" json:"details"`
	IPAddress  string    `gorm:"size:45" json:"ip_address"`
	CreatedAt  time.Time `gorm:"index" json:"created_at"`

	// Associations
	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

// TableName specifies the table name for AuditLog
func (AuditLog) TableName() string {
	return "audit_logs"
}

// Audit action kinds. The set is closed; the query surface filters on it.
const (
	// Employee actions
	ActionTicketCreate   = "DEMANDE_CREATION"
	ActionTicketUpdate   = "DEMANDE_MODIFICATION"
	ActionTicketDelete   = "DEMANDE_SUPPRESSION"
	ActionTicketValidate = "DEMANDE_VALIDATION"
	ActionTicketRefuse   = "DEMANDE_REFUS"

	// Technician actions
	ActionInterventionCreate = "INTERVENTION_CREATION"
	ActionInterventionUpdate = "INTERVENTION_MODIFICATION"
	ActionStatusChange       = "STATUT_CHANGE"
	ActionFileUpload         = "FICHIER_UPLOAD"

	// Admin actions
	ActionAssign          = "ASSIGNATION"
	ActionEquipmentCreate = "EQUIPEMENT_CREATION"
	ActionEquipmentUpdate = "EQUIPEMENT_MODIFICATION"
	ActionEquipmentDelete = "EQUIPEMENT_SUPPRESSION"
	ActionFileDelete      = "FICHIER_SUPPRESSION"
	ActionImportCSV       = "IMPORT_CSV"
	ActionExportCSV       = "EXPORT_CSV"
	ActionExportPDF       = "EXPORT_PDF"
	ActionExportXLSX      = "EXPORT_XLSX"
	ActionExportWord      = "EXPORT_WORD"
)

// ValidAuditAction reports whether action belongs to the closed action set.
func ValidAuditAction(action string) bool {
	switch action {
	case ActionTicketCreate, ActionTicketUpdate, ActionTicketDelete,
		ActionTicketValidate, ActionTicketRefuse,
		ActionInterventionCreate, ActionInterventionUpdate,
		ActionStatusChange, ActionFileUpload,
		ActionAssign, ActionEquipmentCreate, ActionEquipmentUpdate,
		ActionEquipmentDelete, ActionFileDelete,
		ActionImportCSV, ActionExportCSV, ActionExportPDF,
		ActionExportXLSX, ActionExportWord:
		return true
	}
	return false
}

// AuditLogResponse is the JSON response format for audit entries
type AuditLogResponse struct {
	ID         uint      `json:"id"`
	UserID     *uint     `json:"user_id"`
	UserName   string    `json:"user_name"`
	Action     string    `json:"action"`
	TargetType string    `json:"target_type"`
	TargetID   *uint     `json:"target_id"`
	Details    string    `json:"details"`
	IPAddress  string    `json:"ip_address"`
	CreatedAt  time.Time `json:"created_at"`
}

// ToResponse converts AuditLog to AuditLogResponse
func (l *AuditLog) ToResponse() AuditLogResponse {
	resp := AuditLogResponse{
		ID:         l.ID,
		UserID:     l.UserID,
		Action:     l.Action,
		TargetType: l.TargetType,
		TargetID:   l.TargetID,
		Details:    l.Details,
		IPAddress:  l.IPAddress,
		CreatedAt:  l.CreatedAt,
	}
	if l.User != nil {
		resp.UserName = l.User.FullName()
	}
	return resp
}
