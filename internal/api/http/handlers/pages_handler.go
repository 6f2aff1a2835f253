package handlers

import (
	"embed"
	"html/template"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/agservice/internal/api/dto"
	"github.com/spec-kit/agservice/internal/auth"
	"github.com/spec-kit/agservice/internal/domain"
	"github.com/spec-kit/agservice/internal/service"
)

//go:embed templates/*.html
var templateFS embed.FS

// DashboardPath is where the site root sends visitors.
const DashboardPath = "/as/dashboard"

// PagesHandler renders the server-side HTML shells.
type PagesHandler struct {
	tmpl     *template.Template
	requests *service.ServiceRequestService
}

// NewPagesHandler parses the embedded templates.
func NewPagesHandler(requests *service.ServiceRequestService) (*PagesHandler, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	return &PagesHandler{tmpl: tmpl, requests: requests}, nil
}

type pageData struct {
	Title    string
	Username string
	Redirect string
	Summary  *service.DashboardSummary
	Items    []dto.ServiceRequestResponse
	Total    int64
}

func (h *PagesHandler) render(c *fiber.Ctx, name string, data pageData) error {
	if id, ok := auth.IdentityFromCtx(c); ok {
		data.Username = id.Subject
	}
	c.Type("html", "utf-8")
	return h.tmpl.ExecuteTemplate(c, name, data)
}

// Root handles GET /.
func (h *PagesHandler) Root(c *fiber.Ctx) error {
	return c.Redirect(DashboardPath, fiber.StatusFound)
}

// Login handles GET /login. The redirect parameter is echoed into the form
// so the client can return there after signing in.
func (h *PagesHandler) Login(c *fiber.Ctx) error {
	return h.render(c, "login", pageData{Title: "Sign in", Redirect: safeRedirect(c.Query("redirect"))})
}

// safeRedirect keeps only same-site absolute paths.
func safeRedirect(raw string) string {
	if !strings.HasPrefix(raw, "/") || strings.HasPrefix(raw, "//") || strings.HasPrefix(raw, "/\\") {
		return "/"
	}
	return raw
}

// Signup handles GET /signup.
func (h *PagesHandler) Signup(c *fiber.Ctx) error {
	return h.render(c, "signup", pageData{Title: "Sign up"})
}

// Forbidden handles GET /403.
func (h *PagesHandler) Forbidden(c *fiber.Ctx) error {
	c.Status(fiber.StatusForbidden)
	return h.render(c, "forbidden", pageData{Title: "Access denied"})
}

// Dashboard handles GET /as/dashboard.
func (h *PagesHandler) Dashboard(c *fiber.Ctx) error {
	summary, err := h.requests.Summary(c.UserContext())
	if err != nil {
		return err
	}
	return h.render(c, "dashboard", pageData{Title: "Dashboard", Summary: summary})
}

// List handles GET /as/list with the same query parameters as the API.
func (h *PagesHandler) List(c *fiber.Ctx) error {
	filter, _, err := parseServiceRequestQuery(c)
	if err != nil {
		return err
	}
	items, total, err := h.requests.List(c.UserContext(), filter)
	if err != nil {
		return err
	}
	return h.render(c, "list", pageData{Title: "Service requests", Items: toResponses(items), Total: total})
}

func toResponses(items []domain.ServiceRequest) []dto.ServiceRequestResponse {
	out := make([]dto.ServiceRequestResponse, 0, len(items))
	for i := range items {
		out = append(out, dto.NewServiceRequestResponse(&items[i]))
	}
	return out
}
