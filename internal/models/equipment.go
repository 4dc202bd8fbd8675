package models

import (
	"time"
)

// Equipment is an inventory item addressable by its barcode code
type Equipment struct {
	Code            string    `gorm:"primaryKey;size:50" json:"code"`
	Name            string    `gorm:"not null" json:"name"`
	Brand           string    `json:"brand"`
	AcquisitionDate time.Time `json:"acquisition_date"`
	Description     *string   `gorm:"type:text" json:"description"`
	CategoryID      *uint     `gorm:"index" json:"category_id"`
	OfficeID        *uint     `gorm:"index" json:"office_id"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`

	// Associations
	Category *Category `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	Office   *Office   `gorm:"foreignKey:OfficeID" json:"office,omitempty"`
	Tickets  []Ticket  `gorm:"foreignKey:EquipmentCode" json:"tickets,omitempty"`
}

// TableName specifies the table name for Equipment
func (Equipment) TableName() string {
	return "equipment"
}

// DirectionID returns the direction the equipment's office belongs to, if any
func (e *Equipment) DirectionID() *uint {
	if e.Office == nil {
		return nil
	}
	return &e.Office.DirectionID
}

// EquipmentResponse is the JSON response format for equipment
type EquipmentResponse struct {
	Code            string    `json:"code"`
	Name            string    `json:"name"`
	Brand           string    `json:"brand"`
	AcquisitionDate time.Time `json:"acquisition_date"`
	Description     *string   `json:"description"`
	Category        string    `json:"category,omitempty"`
	Office          string    `json:"office,omitempty"`
	Direction       string    `json:"direction,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// ToResponse converts Equipment to EquipmentResponse
func (e *Equipment) ToResponse() EquipmentResponse {
	resp := EquipmentResponse{
		Code:            e.Code,
		Name:            e.Name,
		Brand:           e.Brand,
		AcquisitionDate: e.AcquisitionDate,
		Description:     e.Description,
		CreatedAt:       e.CreatedAt,
		UpdatedAt:       e.UpdatedAt,
	}
	if e.Category != nil {
		resp.Category = e.Category.Name
	}
	if e.Office != nil {
		resp.Office = e.Office.Name
		resp.Direction = e.Office.Direction.Name
	}
	return resp
}
