package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"time"

	"github.com/epmosta/maintenance-api/internal/models"
	"github.com/epmosta/maintenance-api/internal/repository"
	"github.com/jung-kurt/gofpdf"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// ExportService renders tickets, repair reports and the audit journal to
// CSV, XLSX and PDF. Every export writes an audit line.
type ExportService struct {
	ticketRepo       repository.TicketRepository
	interventionRepo repository.InterventionRepository
	auditSvc         *AuditService
}

func NewExportService(ticketRepo repository.TicketRepository, interventionRepo repository.InterventionRepository, auditSvc *AuditService) *ExportService {
	return &ExportService{
		ticketRepo:       ticketRepo,
		interventionRepo: interventionRepo,
		auditSvc:         auditSvc,
	}
}

func ticketRow(t *models.Ticket) []string {
	technician := ""
	if t.Technician != nil {
		technician = t.Technician.FullName()
	}
	cost := ""
	if t.Intervention != nil {
		cost = t.Intervention.TotalPartsCost().StringFixed(2)
	}
	return []string{
		fmt.Sprintf("%d", t.ID),
		t.EquipmentCode,
		t.Equipment.Name,
		t.Employee.FullName(),
		technician,
		t.Urgency,
		t.Status,
		cost,
		t.CreatedAt.Format("2006-01-02 15:04"),
	}
}

var ticketHeader = []string{"ID", "Code équipement", "Équipement", "Demandeur", "Technicien", "Urgence", "Statut", "Coût pièces", "Créée le"}

// TicketsCSV exports the filtered ticket list as CSV
func (s *ExportService) TicketsCSV(ctx context.Context, actor *models.User, query *repository.ListQuery, ip string) ([]byte, string, error) {
	tickets, err := s.ticketRepo.ListForExport(ctx, query)
	if err != nil {
		return nil, "", err
	}

	buf := new(bytes.Buffer)
	writer := csv.NewWriter(buf)
	_ = writer.Write(ticketHeader)
	for i := range tickets {
		_ = writer.Write(ticketRow(&tickets[i]))
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, "", err
	}

	details := fmt.Sprintf("Export CSV demandes (%d lignes)", len(tickets))
	if err := s.auditSvc.Log(ctx, &actor.ID, models.ActionExportCSV, "Ticket", nil, details, ip); err != nil {
		return nil, "", err
	}

	filename := fmt.Sprintf("tickets_%s.csv", time.Now().Format("2006-01-02"))
	return buf.Bytes(), filename, nil
}

// TicketsXLSX exports the filtered ticket list as a spreadsheet
func (s *ExportService) TicketsXLSX(ctx context.Context, actor *models.User, query *repository.ListQuery, ip string) ([]byte, string, error) {
	tickets, err := s.ticketRepo.ListForExport(ctx, query)
	if err != nil {
		return nil, "", err
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := "Demandes"
	_ = f.SetSheetName("Sheet1", sheet)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E0E0E0"}, Pattern: 1},
	})

	for col, title := range ticketHeader {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		_ = f.SetCellValue(sheet, cell, title)
		_ = f.SetCellStyle(sheet, cell, cell, headerStyle)
	}

	for i := range tickets {
		row := ticketRow(&tickets[i])
		for col, value := range row {
			cell, _ := excelize.CoordinatesToCellName(col+1, i+2)
			_ = f.SetCellValue(sheet, cell, value)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, "", err
	}

	details := fmt.Sprintf("Export XLSX demandes (%d lignes)", len(tickets))
	if err := s.auditSvc.Log(ctx, &actor.ID, models.ActionExportXLSX, "Ticket", nil, details, ip); err != nil {
		return nil, "", err
	}

	filename := fmt.Sprintf("tickets_%s.xlsx", time.Now().Format("2006-01-02"))
	return buf.Bytes(), filename, nil
}

// TicketsPDF exports the filtered ticket list as a landscape PDF table
func (s *ExportService) TicketsPDF(ctx context.Context, actor *models.User, query *repository.ListQuery, ip string) ([]byte, string, error) {
	tickets, err := s.ticketRepo.ListForExport(ctx, query)
	if err != nil {
		return nil, "", err
	}

	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 14)
	pdf.Cell(80, 10, "Demandes de maintenance")
	pdf.SetFont("Arial", "", 9)
	pdf.Cell(60, 10, time.Now().Format("02/01/2006 15:04"))
	pdf.Ln(12)

	widths := []float64{12, 28, 45, 40, 40, 20, 25, 25, 32}
	pdf.SetFont("Arial", "B", 9)
	pdf.SetFillColor(224, 224, 224)
	for i, title := range ticketHeader {
		pdf.CellFormat(widths[i], 8, title, "1", 0, "L", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 8)
	for i := range tickets {
		row := ticketRow(&tickets[i])
		for j, value := range row {
			pdf.CellFormat(widths[j], 7, value, "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}

	buf := new(bytes.Buffer)
	if err := pdf.Output(buf); err != nil {
		return nil, "", err
	}

	details := fmt.Sprintf("Export PDF demandes (%d lignes)", len(tickets))
	if err := s.auditSvc.Log(ctx, &actor.ID, models.ActionExportPDF, "Ticket", nil, details, ip); err != nil {
		return nil, "", err
	}

	filename := fmt.Sprintf("tickets_%s.pdf", time.Now().Format("2006-01-02"))
	return buf.Bytes(), filename, nil
}

// InterventionPDF renders one repair report, with its spare part table and
// total, as a printable PDF.
func (s *ExportService) InterventionPDF(ctx context.Context, actor *models.User, interventionID uint, ip string) ([]byte, string, error) {
	intervention, err := s.interventionRepo.FindByID(ctx, interventionID)
	if err != nil {
		return nil, "", ErrNotFound
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(120, 10, fmt.Sprintf("Rapport d'intervention #%d", intervention.ID))
	pdf.Ln(12)

	pdf.SetFont("Arial", "", 10)
	pdf.Cell(50, 8, "Demande:")
	pdf.Cell(60, 8, fmt.Sprintf("#%d", intervention.TicketID))
	pdf.Ln(6)
	pdf.Cell(50, 8, "Equipement:")
	pdf.Cell(100, 8, fmt.Sprintf("%s (%s)", intervention.Ticket.Equipment.Name, intervention.Ticket.EquipmentCode))
	pdf.Ln(6)
	if intervention.Ticket.Technician != nil {
		pdf.Cell(50, 8, "Technicien:")
		pdf.Cell(100, 8, intervention.Ticket.Technician.FullName())
		pdf.Ln(6)
	}
	pdf.Cell(50, 8, "Type de reparation:")
	pdf.Cell(60, 8, intervention.RepairType)
	pdf.Ln(6)
	pdf.Cell(50, 8, "Date:")
	pdf.Cell(60, 8, intervention.CreatedAt.Format("02/01/2006"))
	pdf.Ln(10)

	pdf.SetFont("Arial", "B", 11)
	pdf.Cell(60, 8, "Details")
	pdf.Ln(7)
	pdf.SetFont("Arial", "", 10)
	pdf.MultiCell(180, 6, intervention.Details, "", "L", false)
	pdf.Ln(6)

	pdf.SetFont("Arial", "B", 11)
	pdf.Cell(60, 8, "Pieces detachees")
	pdf.Ln(7)

	pdf.SetFont("Arial", "B", 9)
	pdf.SetFillColor(224, 224, 224)
	pdf.CellFormat(80, 8, "Piece", "1", 0, "L", true, 0, "")
	pdf.CellFormat(35, 8, "Prix unitaire", "1", 0, "R", true, 0, "")
	pdf.CellFormat(25, 8, "Quantite", "1", 0, "R", true, 0, "")
	pdf.CellFormat(35, 8, "Total", "1", 0, "R", true, 0, "")
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 9)
	total := decimal.Zero
	for _, part := range intervention.Parts {
		line := part.LineCost()
		total = total.Add(line)
		pdf.CellFormat(80, 7, part.Name, "1", 0, "L", false, 0, "")
		pdf.CellFormat(35, 7, part.UnitPrice.StringFixed(2), "1", 0, "R", false, 0, "")
		pdf.CellFormat(25, 7, fmt.Sprintf("%d", part.Quantity), "1", 0, "R", false, 0, "")
		pdf.CellFormat(35, 7, line.StringFixed(2), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}

	pdf.SetFont("Arial", "B", 9)
	pdf.CellFormat(140, 8, "Cout total des pieces", "1", 0, "R", false, 0, "")
	pdf.CellFormat(35, 8, total.StringFixed(2), "1", 0, "R", false, 0, "")
	pdf.Ln(-1)

	buf := new(bytes.Buffer)
	if err := pdf.Output(buf); err != nil {
		return nil, "", err
	}

	details := fmt.Sprintf("Export PDF intervention #%d", intervention.ID)
	if err := s.auditSvc.Log(ctx, &actor.ID, models.ActionExportPDF, "Intervention", &intervention.ID, details, ip); err != nil {
		return nil, "", err
	}

	filename := fmt.Sprintf("intervention_%d.pdf", intervention.ID)
	return buf.Bytes(), filename, nil
}

// AuditCSV exports the filtered journal as CSV
func (s *ExportService) AuditCSV(ctx context.Context, actor *models.User, query *repository.ListQuery, ip string) ([]byte, string, error) {
	entries, err := s.auditSvc.ListForExport(ctx, query)
	if err != nil {
		return nil, "", err
	}

	buf := new(bytes.Buffer)
	writer := csv.NewWriter(buf)
	_ = writer.Write([]string{"Date", "Utilisateur", "Action", "Cible", "Détails", "IP"})
	for _, e := range entries {
		userName := ""
		if e.User != nil {
			userName = e.User.FullName()
		}
		target := e.TargetType
		if e.TargetID != nil {
			target = fmt.Sprintf("%s #%d", e.TargetType, *e.TargetID)
		}
		_ = writer.Write([]string{
			e.CreatedAt.Format("2006-01-02 15:04:05"),
			userName,
			e.Action,
			target,
			e.Details,
			e.IPAddress,
		})
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, "", err
	}

	details := fmt.Sprintf("Export CSV journal (%d lignes)", len(entries))
	if err := s.auditSvc.Log(ctx, &actor.ID, models.ActionExportCSV, "AuditLog", nil, details, ip); err != nil {
		return nil, "", err
	}

	filename := fmt.Sprintf("audit_%s.csv", time.Now().Format("2006-01-02"))
	return buf.Bytes(), filename, nil
}

// AuditPDF exports the filtered journal as a landscape PDF table
func (s *ExportService) AuditPDF(ctx context.Context, actor *models.User, query *repository.ListQuery, ip string) ([]byte, string, error) {
	entries, err := s.auditSvc.ListForExport(ctx, query)
	if err != nil {
		return nil, "", err
	}

	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 14)
	pdf.Cell(80, 10, "Journal d'audit")
	pdf.SetFont("Arial", "", 9)
	pdf.Cell(60, 10, time.Now().Format("02/01/2006 15:04"))
	pdf.Ln(12)

	headers := []string{"Date", "Utilisateur", "Action", "Cible", "Details"}
	widths := []float64{35, 45, 48, 30, 110}
	pdf.SetFont("Arial", "B", 9)
	pdf.SetFillColor(224, 224, 224)
	for i, title := range headers {
		pdf.CellFormat(widths[i], 8, title, "1", 0, "L", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 8)
	for _, e := range entries {
		userName := ""
		if e.User != nil {
			userName = e.User.FullName()
		}
		target := e.TargetType
		if e.TargetID != nil {
			target = fmt.Sprintf("%s #%d", e.TargetType, *e.TargetID)
		}
		row := []string{
			e.CreatedAt.Format("02/01/2006 15:04"),
			userName,
			e.Action,
			target,
			e.Details,
		}
		for j, value := range row {
			pdf.CellFormat(widths[j], 7, value, "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}

	buf := new(bytes.Buffer)
	if err := pdf.Output(buf); err != nil {
		return nil, "", err
	}

	details := fmt.Sprintf("Export PDF journal (%d lignes)", len(entries))
	if err := s.auditSvc.Log(ctx, &actor.ID, models.ActionExportPDF, "AuditLog", nil, details, ip); err != nil {
		return nil, "", err
	}

	filename := fmt.Sprintf("audit_%s.pdf", time.Now().Format("2006-01-02"))
	return buf.Bytes(), filename, nil
}
