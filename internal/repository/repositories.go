package repository

import (
	"gorm.io/gorm"
)

// Repositories holds all repository instances
type Repositories struct {
	User         UserRepository
	Equipment    EquipmentRepository
	Ticket       TicketRepository
	Intervention InterventionRepository
	Audit        AuditRepository
	Organization OrganizationRepository
	RefreshToken RefreshTokenRepository
}

// NewRepositories creates all repository instances
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		User:         NewUserRepository(db),
		Equipment:    NewEquipmentRepository(db),
		Ticket:       NewTicketRepository(db),
		Intervention: NewInterventionRepository(db),
		Audit:        NewAuditRepository(db),
		Organization: NewOrganizationRepository(db),
		RefreshToken: NewRefreshTokenRepository(db),
	}
}

// ListQuery represents common query parameters
type ListQuery struct {
	Page    int
	PerPage int
	Search  string
	SortBy  string
	SortDir string
	Filters map[string]string
}

// NewListQuery creates a ListQuery with defaults
func NewListQuery() *ListQuery {
	return &ListQuery{
		Page:    1,
		PerPage: 20,
		Filters: make(map[string]string),
	}
}
