package service

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/agservice/internal/auth"
	"github.com/spec-kit/agservice/internal/domain"
	"github.com/spec-kit/agservice/internal/repository"
	apperrors "github.com/spec-kit/agservice/pkg/util/errorutil"
)

// ServiceRequestService coordinates the after-sales request workflows.
type ServiceRequestService struct {
	requests repository.ServiceRequestRepository
}

// NewServiceRequestService builds the service.
func NewServiceRequestService(requests repository.ServiceRequestRepository) *ServiceRequestService {
	return &ServiceRequestService{requests: requests}
}

// ServiceRequestCreateInput describes a new request.
type ServiceRequestCreateInput struct {
	FarmCode      string
	EquipmentCode string
	Category      string
	Title         string
	Description   string
	VisitDate     *time.Time
}

// DashboardSummary aggregates request counts for the dashboard.
type DashboardSummary struct {
	Total    int64
	ByStatus []domain.StatusCount
}

var dashboardStatuses = []domain.ServiceRequestStatus{
	domain.ServiceRequestReceived,
	domain.ServiceRequestScheduled,
	domain.ServiceRequestInProgress,
	domain.ServiceRequestDone,
}

// Create stores a new request on behalf of the caller carried by ctx.
func (s *ServiceRequestService) Create(ctx context.Context, input ServiceRequestCreateInput) (*domain.ServiceRequest, error) {
	id, ok := auth.IdentityFromContext(ctx)
	if !ok {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	req := &domain.ServiceRequest{
		FarmCode:      input.FarmCode,
		EquipmentCode: input.EquipmentCode,
		Category:      input.Category,
		Title:         input.Title,
		Description:   input.Description,
		Status:        domain.ServiceRequestReceived,
		RequestedBy:   id.Subject,
		VisitDate:     input.VisitDate,
	}
	if err := s.requests.Create(ctx, req); err != nil {
		return nil, err
	}
	return req, nil
}

// Get returns one request.
func (s *ServiceRequestService) Get(ctx context.Context, id int64) (*domain.ServiceRequest, error) {
	req, err := s.requests.GetByID(ctx, id)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.NewNotFound("service request", map[string]any{"id": id})
	}
	return req, err
}

// List returns one page of matching requests and the total match count.
func (s *ServiceRequestService) List(ctx context.Context, filter repository.ServiceRequestFilter) ([]domain.ServiceRequest, int64, error) {
	items, err := s.requests.ListWithFilter(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.requests.Count(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// Delete removes a request.
func (s *ServiceRequestService) Delete(ctx context.Context, id int64) error {
	err := s.requests.Delete(ctx, id)
	if errors.Is(err, pgx.ErrNoRows) {
		return apperrors.NewNotFound("service request", map[string]any{"id": id})
	}
	return err
}

// Summary counts requests per status. Statuses without rows are reported as
// zero so the dashboard layout is stable.
func (s *ServiceRequestService) Summary(ctx context.Context) (*DashboardSummary, error) {
	rows, err := s.requests.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}
	counts := make(map[domain.ServiceRequestStatus]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] += row.Count
	}

	summary := &DashboardSummary{ByStatus: make([]domain.StatusCount, 0, len(dashboardStatuses))}
	for _, status := range dashboardStatuses {
		summary.ByStatus = append(summary.ByStatus, domain.StatusCount{Status: status, Count: counts[status]})
		summary.Total += counts[status]
		delete(counts, status)
	}
	for _, n := range counts {
		summary.Total += n
	}
	return summary, nil
}
