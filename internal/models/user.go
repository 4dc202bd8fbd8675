package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// User represents a user in the system
type User struct {
	ID                 uint       `gorm:"primaryKey" json:"id"`
	Email              string     `gorm:"uniqueIndex;not null" json:"email"`
	EncryptedPassword  string     `gorm:"column:encrypted_password;not null" json:"-"`
	Role               string     `gorm:"default:employee;index" json:"role"`
	FirstName          string     `json:"first_name"`
	LastName           string     `json:"last_name"`
	Phone              string     `json:"phone"`
	Status             string     `gorm:"default:active" json:"status"`
	DirectionID        *uint      `gorm:"index" json:"direction_id"`
	RecoveryCode       *string    `gorm:"size:10" json:"-"`
	RecoveryCodeSentAt *time.Time `json:"-"`
	DiscardedAt        *time.Time `gorm:"index" json:"-"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`

	// Associations
	Direction       *Direction `gorm:"foreignKey:DirectionID" json:"direction,omitempty"`
	CreatedTickets  []Ticket   `gorm:"foreignKey:EmployeeID" json:"created_tickets,omitempty"`
	AssignedTickets []Ticket   `gorm:"foreignKey:TechnicianID" json:"assigned_tickets,omitempty"`

	// OpenTickets is populated by the technician workload query, not a column.
	OpenTickets int64 `gorm:"->;-:migration" json:"open_tickets"`
}

// TableName specifies the table name for User
func (User) TableName() string {
	return "users"
}

// BeforeCreate hook for setting defaults
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.Role == "" {
		u.Role = RoleEmployee
	}
	if u.Status == "" {
		u.Status = StatusActive
	}
	return nil
}

// Role constants
const (
	RoleAdmin      = "admin"
	RoleTechnician = "technician"
	RoleEmployee   = "employee"
)

// Status constants
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

// ValidRole reports whether role belongs to the closed role set.
func ValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleTechnician, RoleEmployee:
		return true
	}
	return false
}

// IsAdmin returns true if user has admin role
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// IsTechnician returns true if user has technician role
func (u *User) IsTechnician() bool {
	return u.Role == RoleTechnician
}

// IsEmployee returns true if user has employee role
func (u *User) IsEmployee() bool {
	return u.Role == RoleEmployee
}

// IsActive returns true if user status is active
func (u *User) IsActive() bool {
	return u.Status == StatusActive && u.DiscardedAt == nil
}

// FullName returns the display name for the user
func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// UserResponse is the JSON response format for users
type UserResponse struct {
	ID          uint      `json:"id"`
	Email       string    `json:"email"`
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
	FullName    string    `json:"full_name"`
	Phone       string    `json:"phone"`
	Role        string    `json:"role"`
	Status      string    `json:"status"`
	DirectionID *uint     `json:"direction_id"`
	Direction   string    `json:"direction,omitempty"`
	OpenTickets int64     `json:"open_tickets"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ToResponse converts User to UserResponse
func (u *User) ToResponse() UserResponse {
	resp := UserResponse{
		ID:          u.ID,
		Email:       u.Email,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		FullName:    u.FullName(),
		Phone:       u.Phone,
		Role:        u.Role,
		Status:      u.Status,
		DirectionID: u.DirectionID,
		OpenTickets: u.OpenTickets,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
	if u.Direction != nil {
		resp.Direction = u.Direction.Name
	}
	return resp
}
