package services

import (
	"github.com/epmosta/maintenance-api/internal/config"
	"github.com/epmosta/maintenance-api/internal/jobs"
	"github.com/epmosta/maintenance-api/internal/repository"
	"github.com/epmosta/maintenance-api/internal/storage"
	"gorm.io/gorm"
)

// Services holds all service instances
type Services struct {
	Auth         *AuthService
	User         *UserService
	Ticket       *TicketService
	Intervention *InterventionService
	Equipment    *EquipmentService
	Notification *NotificationService
	Audit        *AuditService
	Report       *ReportService
	Export       *ExportService
	Email        *EmailService
	Job          *JobService
}

// NewServices creates all service instances
func NewServices(repos *repository.Repositories, worker *jobs.Worker, storage *storage.LocalStorage, cfg *config.Config, db *gorm.DB) *Services {
	emailSvc := NewEmailService(cfg)
	auditSvc := NewAuditService(repos.Audit)
	notificationSvc := NewNotificationService(repos.Ticket, repos.User, emailSvc)

	return &Services{
		Auth:         NewAuthService(repos.User, repos.RefreshToken, cfg),
		User:         NewUserService(repos.User, worker, emailSvc),
		Ticket:       NewTicketService(db, repos.Ticket, repos.Equipment, repos.User, auditSvc, notificationSvc, worker),
		Intervention: NewInterventionService(db, repos.Intervention, repos.Ticket, auditSvc, storage),
		Equipment:    NewEquipmentService(repos.Equipment, repos.Ticket, repos.Organization, auditSvc),
		Notification: notificationSvc,
		Audit:        auditSvc,
		Report:       NewReportService(repos.Ticket, repos.Intervention, repos.Equipment, auditSvc),
		Export:       NewExportService(repos.Ticket, repos.Intervention, auditSvc),
		Email:        emailSvc,
		Job:          NewJobService(worker),
	}
}
