package handlers

import (
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/sip-gateway/internal/api/dto"
	"github.com/spec-kit/sip-gateway/internal/domain"
	"github.com/spec-kit/sip-gateway/internal/repository"
	"github.com/spec-kit/sip-gateway/internal/service"
)

// AdminHandler exposes account management and usage audit endpoints.
type AdminHandler struct {
	auth  *service.AuthService
	usage repository.UsageRepository
}

// NewAdminHandler constructs handler.
func NewAdminHandler(authService *service.AuthService, usage repository.UsageRepository) *AdminHandler {
	return &AdminHandler{auth: authService, usage: usage}
}

// CreateOperator handles POST /api/admin/operators.
func (h *AdminHandler) CreateOperator(c *fiber.Ctx) error {
	var req dto.CreateOperatorRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if req.Email == "" || req.Password == "" || req.Role == "" {
		return fiber.NewError(http.StatusBadRequest, "email, password and role required")
	}

	op, err := h.auth.CreateOperator(c.UserContext(), req.Email, req.Password, domain.Role(req.Role))
	if err != nil {
		return err
	}

	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": operatorView(op)})
}

// OperatorDetails handles GET /api/admin/operators/:operatorId.
func (h *AdminHandler) OperatorDetails(c *fiber.Ctx) error {
	op, err := h.auth.GetOperator(c.UserContext(), c.Params("operatorId"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": operatorView(op)})
}

// UpdateOperator handles PUT /api/admin/operators/:operatorId.
func (h *AdminHandler) UpdateOperator(c *fiber.Ctx) error {
	var req dto.UpdateOperatorRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}

	patch := service.OperatorPatch{
		Password: req.Password,
		Active:   req.Active,
	}
	if req.Role != nil {
		role := domain.Role(*req.Role)
		patch.Role = &role
	}

	op, err := h.auth.UpdateOperator(c.UserContext(), c.Params("operatorId"), patch)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": operatorView(op)})
}

// UsageHistory handles GET /api/admin/usage/:subjectId. Returns the
// locally retained usage records, newest first.
func (h *AdminHandler) UsageHistory(c *fiber.Ctx) error {
	limit, _ := strconv.Atoi(c.Query("limit"))

	records, err := h.usage.ListBySubject(c.UserContext(), c.Params("subjectId"), limit)
	if err != nil {
		return err
	}

	out := make([]fiber.Map, 0, len(records))
	for _, rec := range records {
		out = append(out, fiber.Map{
			"id":              rec.ID,
			"subjectId":       rec.SubjectID,
			"kind":            rec.Kind,
			"durationSeconds": rec.DurationSeconds,
			"cost":            rec.Cost,
			"recordedAt":      rec.Timestamp,
		})
	}
	return c.JSON(fiber.Map{"data": out, "count": len(out)})
}

func operatorView(op *domain.Operator) fiber.Map {
	return fiber.Map{
		"id":        op.ID,
		"email":     op.Email,
		"role":      op.Role,
		"active":    op.Active,
		"createdAt": op.CreatedAt,
		"updatedAt": op.UpdatedAt,
	}
}
