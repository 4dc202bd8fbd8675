package handlers

import (
	"net/http"
	"strconv"

	"github.com/epmosta/maintenance-api/internal/repository"
	"github.com/epmosta/maintenance-api/internal/services"
	"github.com/gin-gonic/gin"
)

type EquipmentHandler struct {
	equipmentService *services.EquipmentService
	userService      *services.UserService
}

func NewEquipmentHandler(equipmentService *services.EquipmentService, userService *services.UserService) *EquipmentHandler {
	return &EquipmentHandler{equipmentService: equipmentService, userService: userService}
}

// @Summary List Equipment
// @Tags Equipment
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param per_page query int false "Items per page" default(20)
// @Param search_term query string false "Search code, name or brand"
// @Param brand query string false "Filter by brand"
// @Param category_id query int false "Filter by category"
// @Param office_id query int false "Filter by office"
// @Param direction_id query int false "Filter by direction"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /equipment [get]
func (h *EquipmentHandler) Index(c *gin.Context) {
	query := repository.NewListQuery()
	query.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	query.PerPage, _ = strconv.Atoi(c.DefaultQuery("per_page", "20"))
	query.Search = c.Query("search_term")
	query.SortBy = c.Query("sort_by")
	query.SortDir = c.Query("sort_dir")
	for _, key := range []string{"brand", "category_id", "office_id", "direction_id"} {
		if v := c.Query(key); v != "" {
			query.Filters[key] = v
		}
	}

	items, total, err := h.equipmentService.List(c.Request.Context(), query)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	responses := make([]interface{}, 0, len(items))
	for i := range items {
		responses = append(responses, items[i].ToResponse())
	}
	c.JSON(http.StatusOK, gin.H{"equipment": responses, "pagination": gin.H{"total": total, "page": query.Page, "per_page": query.PerPage}})
}

// @Summary Get Equipment
// @Tags Equipment
// @Produce json
// @Param code path string true "Inventory code"
// @Success 200 {object} models.EquipmentResponse
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /equipment/{code} [get]
func (h *EquipmentHandler) Show(c *gin.Context) {
	equipment, err := h.equipmentService.Get(c.Request.Context(), c.Param("code"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"equipment": equipment.ToResponse()})
}

// @Summary Create Equipment
// @Description Registers an equipment in the inventory (admin only)
// @Tags Equipment
// @Accept json
// @Produce json
// @Param request body services.EquipmentInput true "Equipment Data"
// @Success 201 {object} models.EquipmentResponse
// @Failure 409 {object} map[string]string
// @Security BearerAuth
// @Router /equipment [post]
func (h *EquipmentHandler) Create(c *gin.Context) {
	actor, ok := currentUser(c, h.userService)
	if !ok {
		return
	}

	var input services.EquipmentInput
	if err := BindNestedOrFlat(c, "equipment", &input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	equipment, err := h.equipmentService.Create(c.Request.Context(), actor, input, c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"equipment": equipment.ToResponse()})
}

// @Summary Update Equipment
// @Tags Equipment
// @Accept json
// @Produce json
// @Param code path string true "Inventory code"
// @Param request body services.EquipmentInput true "Equipment Data"
// @Success 200 {object} models.EquipmentResponse
// @Security BearerAuth
// @Router /equipment/{code} [put]
func (h *EquipmentHandler) Update(c *gin.Context) {
	actor, ok := currentUser(c, h.userService)
	if !ok {
		return
	}

	var input services.EquipmentInput
	if err := BindNestedOrFlat(c, "equipment", &input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	equipment, err := h.equipmentService.Update(c.Request.Context(), actor, c.Param("code"), input, c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"equipment": equipment.ToResponse()})
}

// @Summary Delete Equipment
// @Description Removes an equipment with no active tickets (admin only)
// @Tags Equipment
// @Produce json
// @Param code path string true "Inventory code"
// @Success 200 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Security BearerAuth
// @Router /equipment/{code} [delete]
func (h *EquipmentHandler) Delete(c *gin.Context) {
	actor, ok := currentUser(c, h.userService)
	if !ok {
		return
	}

	if err := h.equipmentService.Delete(c.Request.Context(), actor, c.Param("code"), c.ClientIP()); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Équipement supprimé"})
}

// @Summary Import Equipment CSV
// @Description Upserts inventory rows from an uploaded CSV file (admin only)
// @Tags Equipment
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "CSV file"
// @Success 200 {object} services.ImportResult
// @Failure 422 {object} map[string]string
// @Security BearerAuth
// @Router /equipment/import [post]
func (h *EquipmentHandler) ImportCSV(c *gin.Context) {
	actor, ok := currentUser(c, h.userService)
	if !ok {
		return
	}

	file, _, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Le fichier CSV est requis"})
		return
	}
	defer file.Close()

	result, err := h.equipmentService.ImportCSV(c.Request.Context(), actor, file, c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"result": result})
}

// @Summary Export Equipment CSV
// @Description Downloads the full inventory as CSV
// @Tags Equipment
// @Produce text/csv
// @Success 200 {file} binary
// @Security BearerAuth
// @Router /equipment/export [get]
func (h *EquipmentHandler) ExportCSV(c *gin.Context) {
	actor, ok := currentUser(c, h.userService)
	if !ok {
		return
	}

	data, filename, err := h.equipmentService.ExportCSV(c.Request.Context(), actor, c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.Header("Content-Disposition", "attachment; filename=\""+filename+"\"")
	c.Data(http.StatusOK, "text/csv", data)
}

// @Summary List Directions
// @Tags Organization
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /directions [get]
func (h *EquipmentHandler) Directions(c *gin.Context) {
	directions, err := h.equipmentService.Directions(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"directions": directions})
}

// @Summary List Offices
// @Tags Organization
// @Produce json
// @Param direction_id query int false "Filter by direction"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /offices [get]
func (h *EquipmentHandler) Offices(c *gin.Context) {
	var directionID *uint
	if v := c.Query("direction_id"); v != "" {
		if id, err := strconv.ParseUint(v, 10, 32); err == nil {
			parsed := uint(id)
			directionID = &parsed
		}
	}

	offices, err := h.equipmentService.Offices(c.Request.Context(), directionID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"offices": offices})
}

// @Summary List Categories
// @Tags Organization
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /categories [get]
func (h *EquipmentHandler) Categories(c *gin.Context) {
	categories, err := h.equipmentService.Categories(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": categories})
}
