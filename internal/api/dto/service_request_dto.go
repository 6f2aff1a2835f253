package dto

import (
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"

	"github.com/spec-kit/agservice/internal/domain"
)

// VisitDateLayout is the calendar date format accepted for visits.
const VisitDateLayout = "2006-01-02"

// CreateServiceRequest payload for POST /api/as/write.
type CreateServiceRequest struct {
	FarmCode      string `json:"farmCode"`
	EquipmentCode string `json:"equipmentCode"`
	Category      string `json:"category"`
	Title         string `json:"title"`
	Description   string `json:"description"`
	VisitDate     string `json:"visitDate"`
}

// Normalize trims every text field.
func (r *CreateServiceRequest) Normalize() {
	r.FarmCode = strings.TrimSpace(r.FarmCode)
	r.EquipmentCode = strings.TrimSpace(r.EquipmentCode)
	r.Category = strings.TrimSpace(r.Category)
	r.Title = strings.TrimSpace(r.Title)
	r.Description = strings.TrimSpace(r.Description)
	r.VisitDate = strings.TrimSpace(r.VisitDate)
}

// Validate checks required fields and lengths.
func (r CreateServiceRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.FarmCode, validation.Required, validation.Length(1, 20)),
		validation.Field(&r.EquipmentCode, validation.Required, validation.Length(1, 20)),
		validation.Field(&r.Category, validation.Length(0, 50)),
		validation.Field(&r.Title, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.VisitDate, validation.Date(VisitDateLayout)),
	)
}

// ParsedVisitDate returns the visit date, nil when not given. Call after
// Validate.
func (r CreateServiceRequest) ParsedVisitDate() *time.Time {
	if r.VisitDate == "" {
		return nil
	}
	t, err := time.Parse(VisitDateLayout, r.VisitDate)
	if err != nil {
		return nil
	}
	return &t
}

// ServiceRequestResponse is the API view of a request.
type ServiceRequestResponse struct {
	ID            int64                       `json:"id"`
	FarmCode      string                      `json:"farmCode"`
	EquipmentCode string                      `json:"equipmentCode"`
	Category      string                      `json:"category"`
	Title         string                      `json:"title"`
	Description   string                      `json:"description"`
	Status        domain.ServiceRequestStatus `json:"status"`
	RequestedBy   string                      `json:"requestedBy"`
	VisitDate     string                      `json:"visitDate,omitempty"`
	CreatedAt     time.Time                   `json:"createdAt"`
	UpdatedAt     time.Time                   `json:"updatedAt"`
}

// NewServiceRequestResponse maps the domain value.
func NewServiceRequestResponse(req *domain.ServiceRequest) ServiceRequestResponse {
	resp := ServiceRequestResponse{
		ID:            req.ID,
		FarmCode:      req.FarmCode,
		EquipmentCode: req.EquipmentCode,
		Category:      req.Category,
		Title:         req.Title,
		Description:   req.Description,
		Status:        req.Status,
		RequestedBy:   req.RequestedBy,
		CreatedAt:     req.CreatedAt,
		UpdatedAt:     req.UpdatedAt,
	}
	if req.VisitDate != nil {
		resp.VisitDate = req.VisitDate.Format(VisitDateLayout)
	}
	return resp
}

// ServiceRequestPage is one page of a list response.
type ServiceRequestPage struct {
	Items    []ServiceRequestResponse `json:"items"`
	Total    int64                    `json:"total"`
	Page     int                      `json:"page"`
	PageSize int                      `json:"pageSize"`
}

// StatusCountResponse is one dashboard bucket.
type StatusCountResponse struct {
	Status domain.ServiceRequestStatus `json:"status"`
	Count  int64                       `json:"count"`
}

// DashboardSummaryResponse is the body of GET /api/dash/summary.
type DashboardSummaryResponse struct {
	Total    int64                 `json:"total"`
	ByStatus []StatusCountResponse `json:"byStatus"`
}
