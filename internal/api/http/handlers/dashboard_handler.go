package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/agservice/internal/api/dto"
	"github.com/spec-kit/agservice/internal/service"
)

// DashboardHandler serves dashboard aggregates.
type DashboardHandler struct {
	service *service.ServiceRequestService
}

// NewDashboardHandler constructs handler.
func NewDashboardHandler(requests *service.ServiceRequestService) *DashboardHandler {
	return &DashboardHandler{service: requests}
}

// Summary GET /api/dash/summary.
func (h *DashboardHandler) Summary(c *fiber.Ctx) error {
	summary, err := h.service.Summary(c.UserContext())
	if err != nil {
		return err
	}
	resp := dto.DashboardSummaryResponse{
		Total:    summary.Total,
		ByStatus: make([]dto.StatusCountResponse, 0, len(summary.ByStatus)),
	}
	for _, sc := range summary.ByStatus {
		resp.ByStatus = append(resp.ByStatus, dto.StatusCountResponse{Status: sc.Status, Count: sc.Count})
	}
	return c.JSON(fiber.Map{"data": resp})
}
