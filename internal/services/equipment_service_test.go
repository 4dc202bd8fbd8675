package services

import (
	"context"
	"strings"
	"testing"

	"github.com/epmosta/maintenance-api/internal/models"
	"github.com/epmosta/maintenance-api/internal/repository"
	"github.com/stretchr/testify/assert"
)

type mockEquipmentRepo struct {
	repository.EquipmentRepository
	upserted []*models.Equipment
}

func (m *mockEquipmentRepo) Upsert(ctx context.Context, equipment *models.Equipment) error {
	m.upserted = append(m.upserted, equipment)
	return nil
}

type mockOrgRepo struct {
	repository.OrganizationRepository
	categories map[string]uint
	directions map[string]uint
	offices    map[string]uint
	nextID     uint
}

func newMockOrgRepo() *mockOrgRepo {
	return &mockOrgRepo{
		categories: map[string]uint{},
		directions: map[string]uint{},
		offices:    map[string]uint{},
	}
}

func (m *mockOrgRepo) allocate(byName map[string]uint, name string) uint {
	if id, ok := byName[name]; ok {
		return id
	}
	m.nextID++
	byName[name] = m.nextID
	return m.nextID
}

func (m *mockOrgRepo) GetOrCreateCategory(ctx context.Context, name string) (*models.Category, error) {
	return &models.Category{ID: m.allocate(m.categories, name), Name: name}, nil
}

func (m *mockOrgRepo) GetOrCreateDirection(ctx context.Context, name string) (*models.Direction, error) {
	return &models.Direction{ID: m.allocate(m.directions, name), Name: name}, nil
}

func (m *mockOrgRepo) GetOrCreateOffice(ctx context.Context, name string, directionID uint) (*models.Office, error) {
	return &models.Office{ID: m.allocate(m.offices, name), Name: name, DirectionID: directionID}, nil
}

func TestParseAcquisitionDate(t *testing.T) {
	date, err := parseAcquisitionDate("2024-03-15")
	assert.NoError(t, err)
	assert.Equal(t, 2024, date.Year())

	date, err = parseAcquisitionDate("15/03/2024")
	assert.NoError(t, err)
	assert.Equal(t, 15, date.Day())

	date, err = parseAcquisitionDate("")
	assert.NoError(t, err)
	assert.True(t, date.IsZero())

	_, err = parseAcquisitionDate("15-03-2024")
	assert.Error(t, err)
	assert.True(t, IsValidation(err))
}

func TestImportCSV(t *testing.T) {
	equipmentRepo := &mockEquipmentRepo{}
	orgRepo := newMockOrgRepo()
	auditRepo := &mockAuditRepo{}
	service := NewEquipmentService(equipmentRepo, nil, orgRepo, NewAuditService(auditRepo))

	csvData := strings.Join([]string{
		"code,name,brand,acquisition_date,description,category,office,direction",
		"PC-001,Poste fixe,Dell,2023-01-10,Poste comptabilité,Informatique,Bureau 12,Finances",
		"PR-002,Imprimante laser,HP,,,Informatique,,",
		",Sans code,,,,,,",
		"CL-003,Climatiseur,LG,2022-06-01,,Climatisation,Salle serveur,Finances",
	}, "\n")

	actor := &models.User{ID: 1, Role: models.RoleAdmin}
	result, err := service.ImportCSV(context.Background(), actor, strings.NewReader(csvData), "127.0.0.1")
	assert.NoError(t, err)

	assert.Equal(t, 3, result.Imported)
	assert.Equal(t, 1, result.Skipped)
	if assert.Len(t, result.Errors, 1) {
		assert.Contains(t, result.Errors[0], "ligne 4")
	}

	if assert.Len(t, equipmentRepo.upserted, 3) {
		first := equipmentRepo.upserted[0]
		assert.Equal(t, "PC-001", first.Code)
		assert.Equal(t, "Dell", first.Brand)
		assert.NotNil(t, first.CategoryID)
		assert.NotNil(t, first.OfficeID)

		// Second row has no office, so no office lookup ran
		assert.Nil(t, equipmentRepo.upserted[1].OfficeID)
	}

	// Same category name resolves to the same record
	assert.Len(t, orgRepo.categories, 2)
	assert.Len(t, orgRepo.directions, 1)

	// The run is journaled once
	if assert.Len(t, auditRepo.created, 1) {
		assert.Equal(t, models.ActionImportCSV, auditRepo.created[0].Action)
		assert.Contains(t, auditRepo.created[0].Details, "3 importés")
	}
}

func TestImportCSV_MissingCodeColumn(t *testing.T) {
	service := NewEquipmentService(&mockEquipmentRepo{}, nil, newMockOrgRepo(), NewAuditService(&mockAuditRepo{}))

	actor := &models.User{ID: 1, Role: models.RoleAdmin}
	_, err := service.ImportCSV(context.Background(), actor, strings.NewReader("name,brand\nPoste,Dell"), "")
	assert.Error(t, err)
	assert.True(t, IsValidation(err))
}

func TestImportCSV_OfficeWithoutDirection(t *testing.T) {
	equipmentRepo := &mockEquipmentRepo{}
	service := NewEquipmentService(equipmentRepo, nil, newMockOrgRepo(), NewAuditService(&mockAuditRepo{}))

	csvData := "code,name,office,direction\nPC-010,Poste,Bureau 3,\n"
	actor := &models.User{ID: 1, Role: models.RoleAdmin}
	result, err := service.ImportCSV(context.Background(), actor, strings.NewReader(csvData), "")
	assert.NoError(t, err)
	assert.Equal(t, 0, result.Imported)
	assert.Equal(t, 1, result.Skipped)
	assert.Contains(t, result.Errors[0], "bureau sans direction")
	assert.Empty(t, equipmentRepo.upserted)
}
