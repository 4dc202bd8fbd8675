package handlers

import (
	"net/http"
	"strconv"

	"github.com/epmosta/maintenance-api/internal/repository"
	"github.com/epmosta/maintenance-api/internal/services"
	"github.com/gin-gonic/gin"
)

type AuditHandler struct {
	auditService  *services.AuditService
	exportService *services.ExportService
	userService   *services.UserService
}

func NewAuditHandler(auditService *services.AuditService, exportService *services.ExportService, userService *services.UserService) *AuditHandler {
	return &AuditHandler{auditService: auditService, exportService: exportService, userService: userService}
}

func parseAuditListQuery(c *gin.Context) *repository.ListQuery {
	query := repository.NewListQuery()
	query.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	query.PerPage, _ = strconv.Atoi(c.DefaultQuery("per_page", "20"))
	query.Search = c.Query("search_term")
	for _, key := range []string{"user_id", "action", "target_type", "target_id", "date_from", "date_to"} {
		if v := c.Query(key); v != "" {
			query.Filters[key] = v
		}
	}
	return query
}

// @Summary List Journal Entries
// @Description Paginated audit journal, newest first (admin only)
// @Tags Journal
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param per_page query int false "Items per page" default(20)
// @Param action query string false "Filter by action"
// @Param user_id query int false "Filter by actor"
// @Param date_from query string false "Start date (YYYY-MM-DD)"
// @Param date_to query string false "End date (YYYY-MM-DD)"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /journal [get]
func (h *AuditHandler) Index(c *gin.Context) {
	query := parseAuditListQuery(c)
	entries, total, err := h.auditService.List(c.Request.Context(), query)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	responses := make([]interface{}, 0, len(entries))
	for i := range entries {
		responses = append(responses, entries[i].ToResponse())
	}
	c.JSON(http.StatusOK, gin.H{"entries": responses, "pagination": gin.H{"total": total, "page": query.Page, "per_page": query.PerPage}})
}

// @Summary Journal Stats
// @Description Activity counters for the admin dashboard
// @Tags Journal
// @Produce json
// @Success 200 {object} services.ActivityStats
// @Security BearerAuth
// @Router /journal/stats [get]
func (h *AuditHandler) Stats(c *gin.Context) {
	stats, err := h.auditService.Stats(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"stats": stats})
}

// @Summary Export Journal CSV
// @Tags Journal
// @Produce text/csv
// @Success 200 {file} binary
// @Security BearerAuth
// @Router /journal/export/csv [get]
func (h *AuditHandler) ExportCSV(c *gin.Context) {
	actor, ok := currentUser(c, h.userService)
	if !ok {
		return
	}

	data, filename, err := h.exportService.AuditCSV(c.Request.Context(), actor, parseAuditListQuery(c), c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.Header("Content-Disposition", "attachment; filename=\""+filename+"\"")
	c.Data(http.StatusOK, "text/csv", data)
}

// @Summary Export Journal PDF
// @Tags Journal
// @Produce application/pdf
// @Success 200 {file} binary
// @Security BearerAuth
// @Router /journal/export/pdf [get]
func (h *AuditHandler) ExportPDF(c *gin.Context) {
	actor, ok := currentUser(c, h.userService)
	if !ok {
		return
	}

	data, filename, err := h.exportService.AuditPDF(c.Request.Context(), actor, parseAuditListQuery(c), c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.Header("Content-Disposition", "attachment; filename=\""+filename+"\"")
	c.Data(http.StatusOK, "application/pdf", data)
}
