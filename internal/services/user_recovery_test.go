package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/epmosta/maintenance-api/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestGenerateTempPassword(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 20; i++ {
		password, err := GenerateTempPassword()
		assert.NoError(t, err)
		assert.Len(t, password, 8)
		assert.False(t, seen[password], "passwords should not repeat")
		seen[password] = true
	}
}

func TestGenerateRecoveryCode(t *testing.T) {
	code, err := GenerateRecoveryCode()
	assert.NoError(t, err)
	assert.Len(t, code, 6)
	for _, c := range code {
		assert.True(t, c >= '0' && c <= '9')
	}
}

func TestVerifyRecoveryCode(t *testing.T) {
	now := time.Now()
	code := "123456"
	mockRepo := &mockUserRepo{
		mockFindByEmail: func(ctx context.Context, email string) (*models.User, error) {
			return &models.User{ID: 1, Email: email, RecoveryCode: &code, RecoveryCodeSentAt: &now}, nil
		},
	}
	service := NewUserService(mockRepo, nil, nil)
	ctx := context.Background()

	valid, err := service.VerifyRecoveryCode(ctx, "user@example.com", "123456")
	assert.NoError(t, err)
	assert.True(t, valid)

	valid, err = service.VerifyRecoveryCode(ctx, "user@example.com", "654321")
	assert.NoError(t, err)
	assert.False(t, valid)
}

func TestVerifyRecoveryCode_Expired(t *testing.T) {
	sentAt := time.Now().Add(-16 * time.Minute)
	code := "123456"
	mockRepo := &mockUserRepo{
		mockFindByEmail: func(ctx context.Context, email string) (*models.User, error) {
			return &models.User{ID: 1, Email: email, RecoveryCode: &code, RecoveryCodeSentAt: &sentAt}, nil
		},
	}
	service := NewUserService(mockRepo, nil, nil)

	valid, err := service.VerifyRecoveryCode(context.Background(), "user@example.com", "123456")
	assert.NoError(t, err)
	assert.False(t, valid)
}

func TestVerifyRecoveryCode_UnknownEmail(t *testing.T) {
	mockRepo := &mockUserRepo{
		mockFindByEmail: func(ctx context.Context, email string) (*models.User, error) {
			return nil, errors.New("record not found")
		},
	}
	service := NewUserService(mockRepo, nil, nil)

	// Unknown accounts are indistinguishable from bad codes
	valid, err := service.VerifyRecoveryCode(context.Background(), "ghost@example.com", "123456")
	assert.NoError(t, err)
	assert.False(t, valid)
}
