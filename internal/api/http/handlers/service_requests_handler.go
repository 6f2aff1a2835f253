package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"

	"github.com/spec-kit/agservice/internal/api/dto"
	"github.com/spec-kit/agservice/internal/domain"
	"github.com/spec-kit/agservice/internal/repository"
	"github.com/spec-kit/agservice/internal/service"
	apperrors "github.com/spec-kit/agservice/pkg/util/errorutil"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// ServiceRequestsHandler manages the /api/as endpoints.
type ServiceRequestsHandler struct {
	service *service.ServiceRequestService
}

// NewServiceRequestsHandler constructs handler.
func NewServiceRequestsHandler(requests *service.ServiceRequestService) *ServiceRequestsHandler {
	return &ServiceRequestsHandler{service: requests}
}

// List GET /api/as/list.
func (h *ServiceRequestsHandler) List(c *fiber.Ctx) error {
	filter, page, err := parseServiceRequestQuery(c)
	if err != nil {
		return err
	}
	items, total, err := h.service.List(c.UserContext(), filter)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.ServiceRequestPage{
		Items:    toResponses(items),
		Total:    total,
		Page:     page,
		PageSize: filter.Limit,
	}})
}

// Get GET /api/as/:id.
func (h *ServiceRequestsHandler) Get(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	req, err := h.service.Get(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewServiceRequestResponse(req)})
}

// Write POST /api/as/write.
func (h *ServiceRequestsHandler) Write(c *fiber.Ctx) error {
	var req dto.CreateServiceRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		return validationFailed(err)
	}

	created, err := h.service.Create(c.UserContext(), service.ServiceRequestCreateInput{
		FarmCode:      req.FarmCode,
		EquipmentCode: req.EquipmentCode,
		Category:      req.Category,
		Title:         req.Title,
		Description:   req.Description,
		VisitDate:     req.ParsedVisitDate(),
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewServiceRequestResponse(created)})
}

// Delete DELETE /api/as/delete/:id.
func (h *ServiceRequestsHandler) Delete(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	if err := h.service.Delete(c.UserContext(), id); err != nil {
		return err
	}
	c.Status(http.StatusNoContent)
	return nil
}

func pathID(c *fiber.Ctx) (int64, error) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.NewValidationError("invalid id", map[string]any{"id": c.Params("id")})
	}
	return id, nil
}

func validationFailed(err error) error {
	details := map[string]any{}
	if errs, ok := err.(validation.Errors); ok {
		for field, fieldErr := range errs {
			details[field] = fieldErr.Error()
		}
	}
	return apperrors.NewValidationError("validation failed", details)
}

// parseServiceRequestQuery reads farm, equipment, status (comma separated),
// q, from, to (YYYY-MM-DD), page and size. It returns the 1-based page.
func parseServiceRequestQuery(c *fiber.Ctx) (repository.ServiceRequestFilter, int, error) {
	filter := repository.ServiceRequestFilter{}
	// Query values alias the request buffer; copy those kept in the filter.
	if farm := utils.CopyString(strings.TrimSpace(c.Query("farm"))); farm != "" {
		filter.FarmCode = &farm
	}
	if equipment := utils.CopyString(strings.TrimSpace(c.Query("equipment"))); equipment != "" {
		filter.EquipmentCode = &equipment
	}
	if statusStr := c.Query("status"); statusStr != "" {
		for _, part := range strings.Split(statusStr, ",") {
			status := domain.ServiceRequestStatus(utils.CopyString(strings.ToUpper(strings.TrimSpace(part))))
			if !status.Valid() {
				return filter, 0, apperrors.NewValidationError("unknown status", map[string]any{"status": part})
			}
			filter.Statuses = append(filter.Statuses, status)
		}
	}
	if q := utils.CopyString(c.Query("q")); q != "" {
		filter.SearchTerm = &q
	}
	if from := parseDate(c.Query("from")); from != nil {
		filter.CreatedFrom = from
	}
	if to := parseDate(c.Query("to")); to != nil {
		end := to.AddDate(0, 0, 1).Add(-time.Nanosecond)
		filter.CreatedTo = &end
	}

	page := parseInt(c.Query("page"), 1)
	pageSize := parseInt(c.Query("size"), defaultPageSize)
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	filter.Limit = pageSize
	filter.Offset = (page - 1) * pageSize
	return filter, page, nil
}

func parseDate(val string) *time.Time {
	if val == "" {
		return nil
	}
	t, err := time.Parse(dto.VisitDateLayout, val)
	if err != nil {
		return nil
	}
	return &t
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}
