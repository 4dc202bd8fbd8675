package handlers

import (
	"errors"
	"net/http"

	"github.com/epmosta/maintenance-api/internal/middleware"
	"github.com/epmosta/maintenance-api/internal/models"
	"github.com/epmosta/maintenance-api/internal/services"
	"github.com/gin-gonic/gin"
)

// Handlers holds all handler instances
type Handlers struct {
	Health       *HealthHandler
	Auth         *AuthHandler
	User         *UserHandler
	Ticket       *TicketHandler
	Intervention *InterventionHandler
	Equipment    *EquipmentHandler
	Audit        *AuditHandler
	Report       *ReportHandler
	Job          *JobHandler
}

// NewHandlers creates all handler instances
func NewHandlers(svcs *services.Services) *Handlers {
	return &Handlers{
		Health:       NewHealthHandler(),
		Auth:         NewAuthHandler(svcs.Auth, svcs.User),
		User:         NewUserHandler(svcs.User),
		Ticket:       NewTicketHandler(svcs.Ticket, svcs.User),
		Intervention: NewInterventionHandler(svcs.Intervention, svcs.Export, svcs.User),
		Equipment:    NewEquipmentHandler(svcs.Equipment, svcs.User),
		Audit:        NewAuditHandler(svcs.Audit, svcs.Export, svcs.User),
		Report:       NewReportHandler(svcs.Report, svcs.Export, svcs.User),
		Job:          NewJobHandler(svcs.Job),
	}
}

// currentUser loads the authenticated user for handlers that pass an actor
// down to the service layer.
func currentUser(c *gin.Context, userSvc *services.UserService) (*models.User, bool) {
	user, err := userSvc.FindByID(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Utilisateur introuvable"})
		return nil, false
	}
	return user, true
}

// respondServiceError maps service errors onto HTTP statuses
func respondServiceError(c *gin.Context, err error) {
	var ve *services.ValidationError
	switch {
	case errors.As(err, &ve):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": ve.Message})
	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrUnauthorized):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrInvalidState),
		errors.Is(err, services.ErrConcurrencyConflict),
		errors.Is(err, services.ErrDuplicate):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
