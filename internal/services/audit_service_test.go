package services

import (
	"context"
	"testing"

	"github.com/epmosta/maintenance-api/internal/models"
	"github.com/epmosta/maintenance-api/internal/repository"
	"github.com/stretchr/testify/assert"
)

type mockAuditRepo struct {
	repository.AuditRepository
	created []*models.AuditLog
}

func (m *mockAuditRepo) Create(ctx context.Context, entry *models.AuditLog) error {
	m.created = append(m.created, entry)
	return nil
}

func TestAuditService_Log_RejectsUnknownAction(t *testing.T) {
	mockRepo := &mockAuditRepo{}
	service := NewAuditService(mockRepo)

	userID := uint(3)
	err := service.Log(context.Background(), &userID, "UTILISATEUR_CREATION", "user", nil, "", "127.0.0.1")
	assert.Error(t, err)
	assert.True(t, IsValidation(err))
	assert.Empty(t, mockRepo.created)
}

func TestAuditService_Log_WritesEntry(t *testing.T) {
	mockRepo := &mockAuditRepo{}
	service := NewAuditService(mockRepo)

	userID := uint(3)
	targetID := uint(12)
	err := service.Log(context.Background(), &userID, models.ActionStatusChange, "ticket", &targetID, "#12: assigned → in_progress", "10.0.0.9")
	assert.NoError(t, err)

	if assert.Len(t, mockRepo.created, 1) {
		entry := mockRepo.created[0]
		assert.Equal(t, models.ActionStatusChange, entry.Action)
		assert.Equal(t, "ticket", entry.TargetType)
		assert.Equal(t, &targetID, entry.TargetID)
		assert.Equal(t, "10.0.0.9", entry.IPAddress)
	}
}

func TestAuditService_Log_SystemActor(t *testing.T) {
	mockRepo := &mockAuditRepo{}
	service := NewAuditService(mockRepo)

	// A nil user ID records a system-originated entry
	err := service.Log(context.Background(), nil, models.ActionExportCSV, "ticket", nil, "export automatique", "")
	assert.NoError(t, err)
	if assert.Len(t, mockRepo.created, 1) {
		assert.Nil(t, mockRepo.created[0].UserID)
	}
}
