package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidAuditAction(t *testing.T) {
	for _, action := range []string{
		ActionTicketCreate, ActionTicketUpdate, ActionTicketDelete,
		ActionTicketValidate, ActionTicketRefuse, ActionStatusChange,
		ActionAssign, ActionInterventionCreate, ActionInterventionUpdate,
		ActionFileUpload, ActionFileDelete,
		ActionEquipmentCreate, ActionEquipmentUpdate, ActionEquipmentDelete,
		ActionImportCSV, ActionExportCSV, ActionExportPDF, ActionExportXLSX,
	} {
		assert.True(t, ValidAuditAction(action), action)
	}

	// The journal only accepts actions from the closed set
	assert.False(t, ValidAuditAction("UTILISATEUR_CREATION"))
	assert.False(t, ValidAuditAction("demande_creation"))
	assert.False(t, ValidAuditAction(""))
}
