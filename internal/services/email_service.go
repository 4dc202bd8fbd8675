package services

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"

	"github.com/epmosta/maintenance-api/internal/config"
	"github.com/epmosta/maintenance-api/internal/models"
	"github.com/epmosta/maintenance-api/pkg/logger"
	"github.com/resend/resend-go/v2"
)

//go:embed templates/email/*.html
var emailTemplates embed.FS

type EmailService struct {
	config       *config.Config
	resendClient *resend.Client
}

func NewEmailService(cfg *config.Config) *EmailService {
	client := resend.NewClient(cfg.ResendAPIKey)
	return &EmailService{
		config:       cfg,
		resendClient: client,
	}
}

func (s *EmailService) send(to, subject, body string) error {
	params := &resend.SendEmailRequest{
		From:    s.config.FromEmail,
		To:      []string{to},
		Subject: subject,
		Html:    body,
	}
	if _, err := s.resendClient.Emails.Send(params); err != nil {
		logger.Error(fmt.Sprintf("Failed to send email to %s: %v", to, err))
		return err
	}
	logger.Info(fmt.Sprintf("📧 [Email Sent] To: %s | Subject: %s", to, subject))
	return nil
}

// SendTicketCompleted tells the requesting employee the repair is done and
// awaits their validation.
func (s *EmailService) SendTicketCompleted(ctx context.Context, ticket *models.Ticket) error {
	technicianName := ""
	if ticket.Technician != nil {
		technicianName = ticket.Technician.FullName()
	}
	data := struct {
		Name           string
		TicketID       uint
		EquipmentName  string
		EquipmentCode  string
		TechnicianName string
		CompletedAt    string
		AppURL         string
	}{
		Name:           ticket.Employee.FullName(),
		TicketID:       ticket.ID,
		EquipmentName:  ticket.Equipment.Name,
		EquipmentCode:  ticket.EquipmentCode,
		TechnicianName: technicianName,
		CompletedAt:    ticket.UpdatedAt.Format("02/01/2006 15:04"),
		AppURL:         s.config.AppURL,
	}

	body, err := s.renderTemplate("ticket_completed.html", data)
	if err != nil {
		return err
	}
	subject := fmt.Sprintf("Réparation terminée — demande #%d", ticket.ID)
	return s.send(ticket.Employee.Email, subject, body)
}

// SendTicketAssigned tells a technician a ticket landed on their queue
func (s *EmailService) SendTicketAssigned(ctx context.Context, ticket *models.Ticket) error {
	data := struct {
		Name          string
		TicketID      uint
		EquipmentName string
		EquipmentCode string
		Urgency       string
		Description   string
		AppURL        string
	}{
		Name:          ticket.Technician.FullName(),
		TicketID:      ticket.ID,
		EquipmentName: ticket.Equipment.Name,
		EquipmentCode: ticket.EquipmentCode,
		Urgency:       ticket.Urgency,
		Description:   ticket.Description,
		AppURL:        s.config.AppURL,
	}

	body, err := s.renderTemplate("ticket_assigned.html", data)
	if err != nil {
		return err
	}
	subject := fmt.Sprintf("Nouvelle intervention — demande #%d", ticket.ID)
	return s.send(ticket.Technician.Email, subject, body)
}

// SendAccountCreated welcomes a freshly provisioned user
func (s *EmailService) SendAccountCreated(ctx context.Context, user *models.User, tempPassword string) error {
	data := struct {
		Name         string
		Email        string
		TempPassword string
		AppURL       string
	}{
		Name:         user.FullName(),
		Email:        user.Email,
		TempPassword: tempPassword,
		AppURL:       s.config.AppURL,
	}

	body, err := s.renderTemplate("account_created.html", data)
	if err != nil {
		return err
	}
	return s.send(user.Email, "Bienvenue sur la plateforme de maintenance", body)
}

// SendRecoveryCode emails a password reset code
func (s *EmailService) SendRecoveryCode(ctx context.Context, user *models.User, code string) error {
	data := struct {
		Name    string
		Code    string
		Minutes int
		AppURL  string
	}{
		Name:    user.FullName(),
		Code:    code,
		Minutes: 15,
		AppURL:  s.config.AppURL,
	}

	body, err := s.renderTemplate("reset_code.html", data)
	if err != nil {
		return err
	}
	return s.send(user.Email, "Code de réinitialisation", body)
}

func (s *EmailService) renderTemplate(name string, data interface{}) (string, error) {
	tmpl, err := template.ParseFS(emailTemplates, "templates/email/"+name)
	if err != nil {
		return "", fmt.Errorf("failed to parse template %s: %w", name, err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template %s: %w", name, err)
	}

	return buf.String(), nil
}
