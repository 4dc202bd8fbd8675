package services

import (
	"context"

	"github.com/epmosta/maintenance-api/internal/models"
	"github.com/epmosta/maintenance-api/internal/repository"
)

// ReportService aggregates dashboard figures
type ReportService struct {
	ticketRepo       repository.TicketRepository
	interventionRepo repository.InterventionRepository
	equipmentRepo    repository.EquipmentRepository
	auditSvc         *AuditService
}

func NewReportService(
	ticketRepo repository.TicketRepository,
	interventionRepo repository.InterventionRepository,
	equipmentRepo repository.EquipmentRepository,
	auditSvc *AuditService,
) *ReportService {
	return &ReportService{
		ticketRepo:       ticketRepo,
		interventionRepo: interventionRepo,
		equipmentRepo:    equipmentRepo,
		auditSvc:         auditSvc,
	}
}

// Dashboard is the admin landing page payload
type Dashboard struct {
	TicketsByStatus       map[string]int64 `json:"tickets_by_status"`
	TicketsByBrand        map[string]int64 `json:"tickets_by_brand"`
	EquipmentByCategory   map[string]int64 `json:"equipment_by_category"`
	RepairTypes           map[string]int64 `json:"repair_types"`
	InterventionsWithDocs int64            `json:"interventions_with_docs"`
	AvgResolutionHours    float64          `json:"avg_resolution_hours"`
	AuditActivity         *ActivityStats   `json:"audit_activity"`
}

// Dashboard builds the full admin overview in one call
func (s *ReportService) Dashboard(ctx context.Context) (*Dashboard, error) {
	statusCounts, err := s.ticketRepo.StatusCounts(ctx)
	if err != nil {
		return nil, err
	}
	brandCounts, err := s.ticketRepo.CountByEquipmentBrand(ctx)
	if err != nil {
		return nil, err
	}
	categoryCounts, err := s.equipmentRepo.CountByCategory(ctx)
	if err != nil {
		return nil, err
	}
	repairTypes, err := s.interventionRepo.RepairTypeCounts(ctx)
	if err != nil {
		return nil, err
	}
	withDocs, err := s.interventionRepo.CountWithFiles(ctx)
	if err != nil {
		return nil, err
	}
	avgHours, err := s.ticketRepo.AverageResolutionHours(ctx)
	if err != nil {
		return nil, err
	}
	activity, err := s.auditSvc.Stats(ctx)
	if err != nil {
		return nil, err
	}

	return &Dashboard{
		TicketsByStatus:       statusCounts,
		TicketsByBrand:        brandCounts,
		EquipmentByCategory:   categoryCounts,
		RepairTypes:           repairTypes,
		InterventionsWithDocs: withDocs,
		AvgResolutionHours:    avgHours,
		AuditActivity:         activity,
	}, nil
}

// Summary is the role-scoped landing payload: employees see their own
// requests, technicians their workload.
type Summary struct {
	Role            string           `json:"role"`
	TicketsByStatus map[string]int64 `json:"tickets_by_status"`
	OpenTickets     int64            `json:"open_tickets"`
	TotalTickets    int64            `json:"total_tickets"`
}

func (s *ReportService) Summary(ctx context.Context, actor *models.User) (*Summary, error) {
	column := "employee_id"
	if actor.IsTechnician() {
		column = "technician_id"
	}

	var counts map[string]int64
	var err error
	if actor.IsAdmin() {
		counts, err = s.ticketRepo.StatusCounts(ctx)
	} else {
		counts, err = s.ticketRepo.StatusCountsForUser(ctx, column, actor.ID)
	}
	if err != nil {
		return nil, err
	}

	summary := &Summary{Role: actor.Role, TicketsByStatus: counts}
	for status, count := range counts {
		summary.TotalTickets += count
		for _, active := range models.ActiveTicketStatuses {
			if status == active {
				summary.OpenTickets += count
			}
		}
	}
	return summary, nil
}
