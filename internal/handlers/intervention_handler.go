package handlers

import (
	"net/http"
	"strconv"

	"github.com/epmosta/maintenance-api/internal/repository"
	"github.com/epmosta/maintenance-api/internal/services"
	"github.com/gin-gonic/gin"
)

type InterventionHandler struct {
	interventionService *services.InterventionService
	exportService       *services.ExportService
	userService         *services.UserService
}

func NewInterventionHandler(interventionService *services.InterventionService, exportService *services.ExportService, userService *services.UserService) *InterventionHandler {
	return &InterventionHandler{
		interventionService: interventionService,
		exportService:       exportService,
		userService:         userService,
	}
}

// @Summary List Interventions
// @Tags Interventions
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param per_page query int false "Items per page" default(20)
// @Param repair_type query string false "Filter by repair type"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /interventions [get]
func (h *InterventionHandler) Index(c *gin.Context) {
	query := repository.NewListQuery()
	query.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	query.PerPage, _ = strconv.Atoi(c.DefaultQuery("per_page", "20"))
	query.Search = c.Query("search_term")
	if v := c.Query("repair_type"); v != "" {
		query.Filters["repair_type"] = v
	}

	interventions, total, err := h.interventionService.List(c.Request.Context(), query)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	responses := make([]interface{}, 0, len(interventions))
	for i := range interventions {
		responses = append(responses, interventions[i].ToResponse())
	}
	c.JSON(http.StatusOK, gin.H{"interventions": responses, "pagination": gin.H{"total": total, "page": query.Page, "per_page": query.PerPage}})
}

// @Summary Get Intervention
// @Tags Interventions
// @Produce json
// @Param intervention_id path int true "Intervention ID"
// @Success 200 {object} models.InterventionResponse
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /interventions/{intervention_id} [get]
func (h *InterventionHandler) Show(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("intervention_id"), 10, 32)
	intervention, err := h.interventionService.Get(c.Request.Context(), uint(id))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"intervention": intervention.ToResponse()})
}

// @Summary Get Ticket Intervention
// @Description Fetches the repair report attached to a ticket
// @Tags Interventions
// @Produce json
// @Param ticket_id path int true "Ticket ID"
// @Success 200 {object} models.InterventionResponse
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /tickets/{ticket_id}/intervention [get]
func (h *InterventionHandler) ShowByTicket(c *gin.Context) {
	ticketID, _ := strconv.ParseUint(c.Param("ticket_id"), 10, 32)
	intervention, err := h.interventionService.GetByTicket(c.Request.Context(), uint(ticketID))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"intervention": intervention.ToResponse()})
}

// @Summary Create Intervention
// @Description Technician files the repair report for their assigned ticket
// @Tags Interventions
// @Accept json
// @Produce json
// @Param ticket_id path int true "Ticket ID"
// @Param request body services.InterventionInput true "Report Data"
// @Success 201 {object} models.InterventionResponse
// @Failure 422 {object} map[string]string
// @Security BearerAuth
// @Router /tickets/{ticket_id}/intervention [post]
func (h *InterventionHandler) Create(c *gin.Context) {
	actor, ok := currentUser(c, h.userService)
	if !ok {
		return
	}

	ticketID, _ := strconv.ParseUint(c.Param("ticket_id"), 10, 32)
	var input services.InterventionInput
	if err := BindNestedOrFlat(c, "intervention", &input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	intervention, err := h.interventionService.Create(c.Request.Context(), actor, uint(ticketID), input, c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"intervention": intervention.ToResponse()})
}

// @Summary Update Intervention
// @Description Edits the report while the ticket is still open
// @Tags Interventions
// @Accept json
// @Produce json
// @Param intervention_id path int true "Intervention ID"
// @Param request body services.InterventionInput true "Report Data"
// @Success 200 {object} models.InterventionResponse
// @Security BearerAuth
// @Router /interventions/{intervention_id} [put]
func (h *InterventionHandler) Update(c *gin.Context) {
	actor, ok := currentUser(c, h.userService)
	if !ok {
		return
	}

	id, _ := strconv.ParseUint(c.Param("intervention_id"), 10, 32)
	var input services.InterventionInput
	if err := BindNestedOrFlat(c, "intervention", &input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	intervention, err := h.interventionService.Update(c.Request.Context(), actor, uint(id), input, c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"intervention": intervention.ToResponse()})
}

// @Summary Attach File
// @Description Uploads a document (facture, devis, photo...) on an intervention
// @Tags Interventions
// @Accept multipart/form-data
// @Produce json
// @Param intervention_id path int true "Intervention ID"
// @Param file formData file true "Document"
// @Param file_type formData string false "Document type"
// @Param description formData string false "Description"
// @Success 201 {object} map[string]interface{}
// @Failure 422 {object} map[string]string
// @Security BearerAuth
// @Router /interventions/{intervention_id}/files [post]
func (h *InterventionHandler) AttachFile(c *gin.Context) {
	actor, ok := currentUser(c, h.userService)
	if !ok {
		return
	}

	id, _ := strconv.ParseUint(c.Param("intervention_id"), 10, 32)
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Le fichier est requis"})
		return
	}
	defer file.Close()

	input := services.AttachFileInput{
		FileType:    c.PostForm("file_type"),
		Description: c.PostForm("description"),
	}

	attached, err := h.interventionService.AttachFile(c.Request.Context(), actor, uint(id), file, header, input, c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"file": attached})
}

// @Summary Download File
// @Description Streams an attached document back to the caller
// @Tags Interventions
// @Produce octet-stream
// @Param file_id path int true "File ID"
// @Success 200 {file} binary
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /files/{file_id} [get]
func (h *InterventionHandler) DownloadFile(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("file_id"), 10, 32)
	attached, fullPath, err := h.interventionService.OpenFile(c.Request.Context(), uint(id))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.Header("Content-Disposition", "attachment; filename=\""+attached.FileName+"\"")
	c.File(fullPath)
}

// @Summary Delete File
// @Description Removes an attached document (admin only)
// @Tags Interventions
// @Produce json
// @Param file_id path int true "File ID"
// @Success 200 {object} map[string]string
// @Security BearerAuth
// @Router /files/{file_id} [delete]
func (h *InterventionHandler) DeleteFile(c *gin.Context) {
	actor, ok := currentUser(c, h.userService)
	if !ok {
		return
	}

	id, _ := strconv.ParseUint(c.Param("file_id"), 10, 32)
	if err := h.interventionService.DeleteFile(c.Request.Context(), actor, uint(id), c.ClientIP()); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Fichier supprimé"})
}

// @Summary Intervention PDF
// @Description Generates the printable repair report
// @Tags Interventions
// @Produce application/pdf
// @Param intervention_id path int true "Intervention ID"
// @Success 200 {file} binary
// @Security BearerAuth
// @Router /interventions/{intervention_id}/pdf [get]
func (h *InterventionHandler) PDF(c *gin.Context) {
	actor, ok := currentUser(c, h.userService)
	if !ok {
		return
	}

	id, _ := strconv.ParseUint(c.Param("intervention_id"), 10, 32)
	data, filename, err := h.exportService.InterventionPDF(c.Request.Context(), actor, uint(id), c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.Header("Content-Disposition", "attachment; filename=\""+filename+"\"")
	c.Data(http.StatusOK, "application/pdf", data)
}
