package models

// Direction is a top-level organizational unit
type Direction struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"uniqueIndex;not null" json:"name"`

	// Associations
	Offices   []Office `gorm:"foreignKey:DirectionID" json:"offices,omitempty"`
	Employees []User   `gorm:"foreignKey:DirectionID" json:"employees,omitempty"`
}

// TableName specifies the table name for Direction
func (Direction) TableName() string {
	return "directions"
}

// Office is a physical office attached to a direction
type Office struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Name        string `gorm:"not null;uniqueIndex:idx_offices_name_direction" json:"name"`
	DirectionID uint   `gorm:"not null;uniqueIndex:idx_offices_name_direction;index" json:"direction_id"`

	// Associations
	Direction Direction   `gorm:"foreignKey:DirectionID" json:"direction,omitempty"`
	Equipment []Equipment `gorm:"foreignKey:OfficeID" json:"equipment,omitempty"`
}

// TableName specifies the table name for Office
func (Office) TableName() string {
	return "offices"
}

// Category classifies equipment (PC, printer, etc.)
type Category struct {
	ID          uint    `gorm:"primaryKey" json:"id"`
	Name        string  `gorm:"uniqueIndex;not null" json:"name"`
	Description *string `gorm:"type:text" json:"description"`

	// Associations
	Equipment []Equipment `gorm:"foreignKey:CategoryID" json:"equipment,omitempty"`
}

// TableName specifies the table name for Category
func (Category) TableName() string {
	return "categories"
}
