package handlers

import (
	"net/http"
	"strconv"

	"github.com/epmosta/maintenance-api/internal/repository"
	"github.com/epmosta/maintenance-api/internal/services"
	"github.com/gin-gonic/gin"
)

type TicketHandler struct {
	ticketService *services.TicketService
	userService   *services.UserService
}

func NewTicketHandler(ticketService *services.TicketService, userService *services.UserService) *TicketHandler {
	return &TicketHandler{ticketService: ticketService, userService: userService}
}

func parseTicketListQuery(c *gin.Context) *repository.ListQuery {
	query := repository.NewListQuery()
	query.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	query.PerPage, _ = strconv.Atoi(c.DefaultQuery("per_page", "20"))
	query.Search = c.Query("search_term")
	query.SortBy = c.Query("sort_by")
	query.SortDir = c.Query("sort_dir")
	for _, key := range []string{"status", "urgency", "technician_id", "employee_id", "equipment_code", "category_id", "direction_id", "date_from", "date_to"} {
		if v := c.Query(key); v != "" {
			query.Filters[key] = v
		}
	}
	return query
}

// @Summary List Tickets
// @Description Paginated ticket list, scoped to the caller's role
// @Tags Tickets
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param per_page query int false "Items per page" default(20)
// @Param status query string false "Filter by status"
// @Param urgency query string false "Filter by urgency"
// @Param equipment_code query string false "Filter by equipment code"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /tickets [get]
func (h *TicketHandler) Index(c *gin.Context) {
	actor, ok := currentUser(c, h.userService)
	if !ok {
		return
	}

	query := parseTicketListQuery(c)
	tickets, total, err := h.ticketService.List(c.Request.Context(), actor, query)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	responses := make([]interface{}, 0, len(tickets))
	for i := range tickets {
		responses = append(responses, tickets[i].ToResponse())
	}
	c.JSON(http.StatusOK, gin.H{"tickets": responses, "pagination": gin.H{"total": total, "page": query.Page, "per_page": query.PerPage}})
}

// @Summary Get Ticket
// @Tags Tickets
// @Produce json
// @Param ticket_id path int true "Ticket ID"
// @Success 200 {object} models.TicketResponse
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /tickets/{ticket_id} [get]
func (h *TicketHandler) Show(c *gin.Context) {
	actor, ok := currentUser(c, h.userService)
	if !ok {
		return
	}

	id, _ := strconv.ParseUint(c.Param("ticket_id"), 10, 32)
	ticket, err := h.ticketService.Get(c.Request.Context(), actor, uint(id))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ticket": ticket.ToResponse()})
}

// @Summary Create Ticket
// @Description Files a maintenance request against an equipment (employee only)
// @Tags Tickets
// @Accept json
// @Produce json
// @Param request body services.CreateTicketInput true "Ticket Data"
// @Success 201 {object} models.TicketResponse
// @Failure 422 {object} map[string]string
// @Security BearerAuth
// @Router /tickets [post]
func (h *TicketHandler) Create(c *gin.Context) {
	actor, ok := currentUser(c, h.userService)
	if !ok {
		return
	}

	var input services.CreateTicketInput
	if err := BindNestedOrFlat(c, "ticket", &input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ticket, err := h.ticketService.Create(c.Request.Context(), actor, input, c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"ticket": ticket.ToResponse()})
}

// @Summary Update Ticket
// @Description Edits a pending ticket (owner only)
// @Tags Tickets
// @Accept json
// @Produce json
// @Param ticket_id path int true "Ticket ID"
// @Param request body services.UpdateTicketInput true "Ticket Data"
// @Success 200 {object} models.TicketResponse
// @Security BearerAuth
// @Router /tickets/{ticket_id} [put]
func (h *TicketHandler) Update(c *gin.Context) {
	actor, ok := currentUser(c, h.userService)
	if !ok {
		return
	}

	id, _ := strconv.ParseUint(c.Param("ticket_id"), 10, 32)
	var input services.UpdateTicketInput
	if err := BindNestedOrFlat(c, "ticket", &input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ticket, err := h.ticketService.Update(c.Request.Context(), actor, uint(id), input, c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ticket": ticket.ToResponse()})
}

// @Summary Delete Ticket
// @Description Deletes a pending ticket (owner only)
// @Tags Tickets
// @Produce json
// @Param ticket_id path int true "Ticket ID"
// @Success 200 {object} map[string]string
// @Security BearerAuth
// @Router /tickets/{ticket_id} [delete]
func (h *TicketHandler) Delete(c *gin.Context) {
	actor, ok := currentUser(c, h.userService)
	if !ok {
		return
	}

	id, _ := strconv.ParseUint(c.Param("ticket_id"), 10, 32)
	if err := h.ticketService.Delete(c.Request.Context(), actor, uint(id), c.ClientIP()); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Demande supprimée"})
}

type AssignRequest struct {
	TechnicianID uint `json:"technician_id" binding:"required"`
}

// @Summary Assign Ticket
// @Description Assigns a pending ticket to a technician (admin only)
// @Tags Tickets
// @Accept json
// @Produce json
// @Param ticket_id path int true "Ticket ID"
// @Param request body AssignRequest true "Technician"
// @Success 200 {object} models.TicketResponse
// @Failure 409 {object} map[string]string
// @Security BearerAuth
// @Router /tickets/{ticket_id}/assign [post]
func (h *TicketHandler) Assign(c *gin.Context) {
	actor, ok := currentUser(c, h.userService)
	if !ok {
		return
	}

	id, _ := strconv.ParseUint(c.Param("ticket_id"), 10, 32)
	var req AssignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "technician_id est requis"})
		return
	}

	ticket, err := h.ticketService.Assign(c.Request.Context(), actor, uint(id), req.TechnicianID, c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ticket": ticket.ToResponse()})
}

type StatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// @Summary Change Ticket Status
// @Description Technician moves the ticket between assigned, in_progress and completed
// @Tags Tickets
// @Accept json
// @Produce json
// @Param ticket_id path int true "Ticket ID"
// @Param request body StatusRequest true "Target status"
// @Success 200 {object} models.TicketResponse
// @Failure 409 {object} map[string]string
// @Security BearerAuth
// @Router /tickets/{ticket_id}/status [post]
func (h *TicketHandler) ChangeStatus(c *gin.Context) {
	actor, ok := currentUser(c, h.userService)
	if !ok {
		return
	}

	id, _ := strconv.ParseUint(c.Param("ticket_id"), 10, 32)
	var req StatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "status est requis"})
		return
	}

	ticket, err := h.ticketService.ChangeStatus(c.Request.Context(), actor, uint(id), req.Status, c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ticket": ticket.ToResponse()})
}

// @Summary Validate Ticket
// @Description Employee accepts the completed repair
// @Tags Tickets
// @Produce json
// @Param ticket_id path int true "Ticket ID"
// @Success 200 {object} models.TicketResponse
// @Security BearerAuth
// @Router /tickets/{ticket_id}/validate [post]
func (h *TicketHandler) Validate(c *gin.Context) {
	actor, ok := currentUser(c, h.userService)
	if !ok {
		return
	}

	id, _ := strconv.ParseUint(c.Param("ticket_id"), 10, 32)
	ticket, err := h.ticketService.Validate(c.Request.Context(), actor, uint(id), c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ticket": ticket.ToResponse()})
}

// @Summary Refuse Ticket
// @Description Employee rejects the completed repair
// @Tags Tickets
// @Produce json
// @Param ticket_id path int true "Ticket ID"
// @Success 200 {object} models.TicketResponse
// @Security BearerAuth
// @Router /tickets/{ticket_id}/refuse [post]
func (h *TicketHandler) Refuse(c *gin.Context) {
	actor, ok := currentUser(c, h.userService)
	if !ok {
		return
	}

	id, _ := strconv.ParseUint(c.Param("ticket_id"), 10, 32)
	ticket, err := h.ticketService.Refuse(c.Request.Context(), actor, uint(id), c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ticket": ticket.ToResponse()})
}

// @Summary Technician Suggestions
// @Description Active technicians ranked by open workload (admin only)
// @Tags Tickets
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /tickets/technicians [get]
func (h *TicketHandler) Technicians(c *gin.Context) {
	actor, ok := currentUser(c, h.userService)
	if !ok {
		return
	}

	technicians, err := h.ticketService.TechnicianSuggestions(c.Request.Context(), actor)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	responses := make([]interface{}, 0, len(technicians))
	for i := range technicians {
		responses = append(responses, technicians[i].ToResponse())
	}
	c.JSON(http.StatusOK, gin.H{"technicians": responses})
}
