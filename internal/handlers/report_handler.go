package handlers

import (
	"net/http"

	"github.com/epmosta/maintenance-api/internal/services"
	"github.com/gin-gonic/gin"
)

type ReportHandler struct {
	reportService *services.ReportService
	exportService *services.ExportService
	userService   *services.UserService
}

func NewReportHandler(reportService *services.ReportService, exportService *services.ExportService, userService *services.UserService) *ReportHandler {
	return &ReportHandler{reportService: reportService, exportService: exportService, userService: userService}
}

// @Summary Dashboard
// @Description Aggregated counters for the admin overview
// @Tags Reports
// @Produce json
// @Success 200 {object} services.Dashboard
// @Security BearerAuth
// @Router /reports/dashboard [get]
func (h *ReportHandler) Dashboard(c *gin.Context) {
	dashboard, err := h.reportService.Dashboard(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"dashboard": dashboard})
}

// @Summary Role Summary
// @Description Ticket counters scoped to the caller's role
// @Tags Reports
// @Produce json
// @Success 200 {object} services.Summary
// @Security BearerAuth
// @Router /reports/summary [get]
func (h *ReportHandler) Summary(c *gin.Context) {
	actor, ok := currentUser(c, h.userService)
	if !ok {
		return
	}

	summary, err := h.reportService.Summary(c.Request.Context(), actor)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"summary": summary})
}

// @Summary Export Tickets CSV
// @Description Downloads the filtered ticket list as CSV
// @Tags Reports
// @Produce text/csv
// @Success 200 {file} binary
// @Security BearerAuth
// @Router /reports/tickets/csv [get]
func (h *ReportHandler) TicketsCSV(c *gin.Context) {
	actor, ok := currentUser(c, h.userService)
	if !ok {
		return
	}

	data, filename, err := h.exportService.TicketsCSV(c.Request.Context(), actor, parseTicketListQuery(c), c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.Header("Content-Disposition", "attachment; filename=\""+filename+"\"")
	c.Data(http.StatusOK, "text/csv", data)
}

// @Summary Export Tickets XLSX
// @Description Downloads the filtered ticket list as an Excel workbook
// @Tags Reports
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Success 200 {file} binary
// @Security BearerAuth
// @Router /reports/tickets/xlsx [get]
func (h *ReportHandler) TicketsXLSX(c *gin.Context) {
	actor, ok := currentUser(c, h.userService)
	if !ok {
		return
	}

	data, filename, err := h.exportService.TicketsXLSX(c.Request.Context(), actor, parseTicketListQuery(c), c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.Header("Content-Disposition", "attachment; filename=\""+filename+"\"")
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}

// @Summary Export Tickets PDF
// @Description Downloads the filtered ticket list as PDF
// @Tags Reports
// @Produce application/pdf
// @Success 200 {file} binary
// @Security BearerAuth
// @Router /reports/tickets/pdf [get]
func (h *ReportHandler) TicketsPDF(c *gin.Context) {
	actor, ok := currentUser(c, h.userService)
	if !ok {
		return
	}

	data, filename, err := h.exportService.TicketsPDF(c.Request.Context(), actor, parseTicketListQuery(c), c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.Header("Content-Disposition", "attachment; filename=\""+filename+"\"")
	c.Data(http.StatusOK, "application/pdf", data)
}
