package models

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Intervention is the technician's repair report, one-to-one with a ticket
type Intervention struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	TicketID   uint      `gorm:"not null;uniqueIndex" json:"ticket_id"`
	Details    string    `gorm:"type:text;not null" json:"details"`
	RepairType string    `gorm:"default:internal" json:"repair_type"`
	CreatedAt  time.Time `gorm:"index" json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`

	// Associations
	Ticket Ticket         `gorm:"foreignKey:TicketID" json:"ticket,omitempty"`
	Parts  []SparePart    `gorm:"foreignKey:InterventionID;constraint:OnDelete:CASCADE" json:"parts,omitempty"`
	Files  []AttachedFile `gorm:"foreignKey:InterventionID;constraint:OnDelete:CASCADE" json:"files,omitempty"`
}

// TableName specifies the table name for Intervention
func (Intervention) TableName() string {
	return "interventions"
}

// Repair type constants
const (
	RepairTypeInternal = "internal"
	RepairTypeExternal = "external"
)

// ValidRepairType reports whether rt belongs to the closed repair-type set.
func ValidRepairType(rt string) bool {
	return rt == RepairTypeInternal || rt == RepairTypeExternal
}

// TotalPartsCost sums unit price times quantity over all parts using exact
// decimal arithmetic. The result feeds financial exports, so no floats.
func (i *Intervention) TotalPartsCost() decimal.Decimal {
	total := decimal.Zero
	for _, part := range i.Parts {
		total = total.Add(part.LineCost())
	}
	return total
}

// SparePart is a cost line item used during an intervention
type SparePart struct {
	ID             uint            `gorm:"primaryKey" json:"id"`
	InterventionID uint            `gorm:"not null;index" json:"intervention_id"`
	Name           string          `gorm:"not null" json:"name"`
	UnitPrice      decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"unit_price"`
	Quantity       int             `gorm:"default:1;not null" json:"quantity"`
}

// TableName specifies the table name for SparePart
func (SparePart) TableName() string {
	return "spare_parts"
}

// LineCost returns unit price times quantity
func (p *SparePart) LineCost() decimal.Decimal {
	return p.UnitPrice.Mul(decimal.NewFromInt(int64(p.Quantity)))
}

// AttachedFile is a document attached to an intervention
type AttachedFile struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	InterventionID uint      `gorm:"not null;index" json:"intervention_id"`
	Path           string    `gorm:"not null" json:"-"`
	FileName       string    `gorm:"not null" json:"file_name"`
	FileType       string    `gorm:"default:other;index" json:"file_type"`
	Description    string    `gorm:"type:text" json:"description"`
	Size           int64     `gorm:"default:0" json:"size"`
	UploadedByID   *uint     `json:"uploaded_by_id"`
	CreatedAt      time.Time `json:"created_at"`

	// Associations
	UploadedBy *User `gorm:"foreignKey:UploadedByID" json:"uploaded_by,omitempty"`
}

// TableName specifies the table name for AttachedFile
func (AttachedFile) TableName() string {
	return "attached_files"
}

// File type constants
const (
	FileTypeInvoice     = "invoice"
	FileTypePhotoBefore = "photo_before"
	FileTypePhotoAfter  = "photo_after"
	FileTypeQuote       = "quote"
	FileTypeDiagnostic  = "diagnostic"
	FileTypeWarranty    = "warranty"
	FileTypeOther       = "other"
)

// MaxAttachmentSize is the upload ceiling for intervention documents (5 MiB)
const MaxAttachmentSize = 5 * 1024 * 1024

// AllowedAttachmentExtensions is the upload allow-list
var AllowedAttachmentExtensions = []string{"pdf", "doc", "docx", "jpg", "jpeg", "png"}

// ValidFileType reports whether ft belongs to the closed file-type set.
func ValidFileType(ft string) bool {
	switch ft {
	case FileTypeInvoice, FileTypePhotoBefore, FileTypePhotoAfter,
		FileTypeQuote, FileTypeDiagnostic, FileTypeWarranty, FileTypeOther:
		return true
	}
	return false
}

// AllowedAttachmentExtension reports whether the filename carries an
// extension from the allow-list.
func AllowedAttachmentExtension(filename string) bool {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	for _, allowed := range AllowedAttachmentExtensions {
		if ext == allowed {
			return true
		}
	}
	return false
}

// Extension returns the lowercase file extension without the dot
func (f *AttachedFile) Extension() string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(f.FileName), "."))
}

// IsImage returns true if the file is an image
func (f *AttachedFile) IsImage() bool {
	switch f.Extension() {
	case "jpg", "jpeg", "png":
		return true
	}
	return false
}

// HumanSize formats the size as B/KB/MB
func (f *AttachedFile) HumanSize() string {
	switch {
	case f.Size < 1024:
		return fmt.Sprintf("%d B", f.Size)
	case f.Size < 1024*1024:
		return fmt.Sprintf("%.1f KB", float64(f.Size)/1024)
	default:
		return fmt.Sprintf("%.1f MB", float64(f.Size)/(1024*1024))
	}
}

// InterventionResponse is the JSON response format for interventions
type InterventionResponse struct {
	ID             uint                `json:"id"`
	TicketID       uint                `json:"ticket_id"`
	Details        string              `json:"details"`
	RepairType     string              `json:"repair_type"`
	Parts          []SparePartResponse `json:"parts"`
	Files          []FileResponse      `json:"files"`
	TotalPartsCost string              `json:"total_parts_cost"`
	CreatedAt      time.Time           `json:"created_at"`
	UpdatedAt      time.Time           `json:"updated_at"`
}

// SparePartResponse is the JSON response format for spare parts
type SparePartResponse struct {
	ID        uint   `json:"id"`
	Name      string `json:"name"`
	UnitPrice string `json:"unit_price"`
	Quantity  int    `json:"quantity"`
	LineCost  string `json:"line_cost"`
}

// FileResponse is the JSON response format for attached files
type FileResponse struct {
	ID          uint      `json:"id"`
	FileName    string    `json:"file_name"`
	FileType    string    `json:"file_type"`
	Description string    `json:"description"`
	Size        int64     `json:"size"`
	HumanSize   string    `json:"human_size"`
	CreatedAt   time.Time `json:"created_at"`
}

// ToResponse converts Intervention to InterventionResponse
func (i *Intervention) ToResponse() InterventionResponse {
	resp := InterventionResponse{
		ID:             i.ID,
		TicketID:       i.TicketID,
		Details:        i.Details,
		RepairType:     i.RepairType,
		TotalPartsCost: i.TotalPartsCost().StringFixed(2),
		CreatedAt:      i.CreatedAt,
		UpdatedAt:      i.UpdatedAt,
	}
	for _, part := range i.Parts {
		resp.Parts = append(resp.Parts, SparePartResponse{
			ID:        part.ID,
			Name:      part.Name,
			UnitPrice: part.UnitPrice.StringFixed(2),
			Quantity:  part.Quantity,
			LineCost:  part.LineCost().StringFixed(2),
		})
	}
	for _, file := range i.Files {
		resp.Files = append(resp.Files, FileResponse{
			ID:          file.ID,
			FileName:    file.FileName,
			FileType:    file.FileType,
			Description: file.Description,
			Size:        file.Size,
			HumanSize:   file.HumanSize(),
			CreatedAt:   file.CreatedAt,
		})
	}
	return resp
}
