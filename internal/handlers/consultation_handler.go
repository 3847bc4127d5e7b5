package handlers

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/damil-o/TrainerBizBack/internal/models"
	"github.com/damil-o/TrainerBizBack/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
)

type ConsultationHandler struct {
	service consultationApplicationService
}

type consultationApplicationService interface {
	Create(ctx context.Context, input services.CreateConsultationInput) (*models.Consultation, error)
	List(ctx context.Context, actorID int64, isAdmin bool) ([]models.Consultation, error)
	Cancel(ctx context.Context, consultationID int64) (*models.Consultation, error)
	CreateMeetingLink(ctx context.Context, consultationID int64) (*models.Consultation, error)
}

func NewConsultationHandler(service *services.ConsultationService) *ConsultationHandler {
	return &ConsultationHandler{service: service}
}

type createConsultationRequest struct {
	UserID          int64  `json:"user_id"`
	Kind            string `json:"kind"`
	ScheduledAt     string `json:"scheduled_at"`
	DurationMinutes int    `json:"duration_minutes"`
}

// Create schedules a free call for a client; consultations are set up by the
// trainer, not requested by clients.
func (h *ConsultationHandler) Create(c *fiber.Ctx) error {
	var req createConsultationRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if req.UserID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "user_id is required"})
	}
	scheduledAt, err := time.Parse(time.RFC3339, strings.TrimSpace(req.ScheduledAt))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "scheduled_at must be a valid RFC3339 timestamp"})
	}
	if req.DurationMinutes <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "duration_minutes must be greater than 0"})
	}

	consultation, err := h.service.Create(c.Context(), services.CreateConsultationInput{
		UserID:          req.UserID,
		Kind:            strings.TrimSpace(req.Kind),
		ScheduledAt:     scheduledAt,
		DurationMinutes: req.DurationMinutes,
	})
	if err != nil {
		return mapConsultationError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"consultation": consultation})
}

func (h *ConsultationHandler) List(c *fiber.Ctx) error {
	identity, ok := identityFrom(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	consultations, err := h.service.List(c.Context(), identity.UserID, identity.IsAdmin)
	if err != nil {
		return mapConsultationError(c, err)
	}

	return c.JSON(fiber.Map{"consultations": consultations})
}

func (h *ConsultationHandler) Cancel(c *fiber.Ctx) error {
	consultationID, err := parseIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid consultation id"})
	}

	consultation, err := h.service.Cancel(c.Context(), consultationID)
	if err != nil {
		return mapConsultationError(c, err)
	}

	return c.JSON(fiber.Map{"consultation": consultation})
}

func (h *ConsultationHandler) CreateMeetingLink(c *fiber.Ctx) error {
	consultationID, err := parseIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid consultation id"})
	}

	consultation, err := h.service.CreateMeetingLink(c.Context(), consultationID)
	if err != nil {
		return mapConsultationError(c, err)
	}

	return c.JSON(fiber.Map{"consultation": consultation})
}

func mapConsultationError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request"})
	case errors.Is(err, services.ErrInvalidStateTransition):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrConsultationNotFound), errors.Is(err, pgx.ErrNoRows):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Consultation not found"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to process consultation request"})
	}
}
