package models

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestTotalPartsCost_ExactDecimal(t *testing.T) {
	// 19.99 * 3 must be exactly 59.97, not a float approximation
	intervention := &Intervention{
		Parts: []SparePart{
			{Name: "Barrette RAM", UnitPrice: decimal.RequireFromString("19.99"), Quantity: 3},
		},
	}
	assert.True(t, intervention.TotalPartsCost().Equal(decimal.RequireFromString("59.97")))
}

func TestTotalPartsCost_MultipleLines(t *testing.T) {
	intervention := &Intervention{
		Parts: []SparePart{
			{Name: "Disque SSD", UnitPrice: decimal.RequireFromString("89.90"), Quantity: 1},
			{Name: "Câble SATA", UnitPrice: decimal.RequireFromString("4.50"), Quantity: 2},
			{Name: "Pâte thermique", UnitPrice: decimal.RequireFromString("0.10"), Quantity: 10},
		},
	}
	assert.True(t, intervention.TotalPartsCost().Equal(decimal.RequireFromString("99.90")))
}

func TestTotalPartsCost_NoParts(t *testing.T) {
	intervention := &Intervention{}
	assert.True(t, intervention.TotalPartsCost().IsZero())
}

func TestSparePartLineCost(t *testing.T) {
	part := &SparePart{UnitPrice: decimal.RequireFromString("12.34"), Quantity: 4}
	assert.True(t, part.LineCost().Equal(decimal.RequireFromString("49.36")))
}

func TestValidRepairType(t *testing.T) {
	assert.True(t, ValidRepairType(RepairTypeInternal))
	assert.True(t, ValidRepairType(RepairTypeExternal))
	assert.False(t, ValidRepairType("outsourced"))
	assert.False(t, ValidRepairType(""))
}

func TestValidFileType(t *testing.T) {
	assert.True(t, ValidFileType(FileTypeInvoice))
	assert.True(t, ValidFileType(FileTypeOther))
	assert.False(t, ValidFileType("receipt"))
}

func TestAllowedAttachmentExtension(t *testing.T) {
	assert.True(t, AllowedAttachmentExtension("facture.pdf"))
	assert.True(t, AllowedAttachmentExtension("photo.JPG"))
	assert.True(t, AllowedAttachmentExtension("devis.docx"))
	assert.False(t, AllowedAttachmentExtension("script.sh"))
	assert.False(t, AllowedAttachmentExtension("archive.zip"))
	assert.False(t, AllowedAttachmentExtension("noextension"))
}

func TestAttachedFileExtension(t *testing.T) {
	f := &AttachedFile{FileName: "Photo.Avant.JPEG"}
	assert.Equal(t, "jpeg", f.Extension())
	assert.True(t, f.IsImage())

	f = &AttachedFile{FileName: "facture.pdf"}
	assert.False(t, f.IsImage())
}

func TestAttachedFileHumanSize(t *testing.T) {
	assert.Equal(t, "512 B", (&AttachedFile{Size: 512}).HumanSize())
	assert.Equal(t, "2.0 KB", (&AttachedFile{Size: 2048}).HumanSize())
	assert.Equal(t, "1.5 MB", (&AttachedFile{Size: 3 * 1024 * 1024 / 2}).HumanSize())
}
