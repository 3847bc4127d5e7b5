package handlers

import (
	"errors"
	"strings"

	"github.com/damil-o/TrainerBizBack/internal/models"
	"github.com/damil-o/TrainerBizBack/internal/repository"
	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
)

type ServiceHandler struct {
	serviceRepo *repository.ServiceRepository
}

func NewServiceHandler(serviceRepo *repository.ServiceRepository) *ServiceHandler {
	return &ServiceHandler{serviceRepo: serviceRepo}
}

type createServiceRequest struct {
	Title             string  `json:"title"`
	Description       *string `json:"description"`
	Type              string  `json:"type"`
	Price             float64 `json:"price"`
	DurationWeeks     *int    `json:"duration_weeks"`
	SessionCount      *int    `json:"session_count"`
	IncludesMeet      bool    `json:"includes_meet"`
	IncludesNutrition bool    `json:"includes_nutrition"`
	IncludesWorkout   bool    `json:"includes_workout"`
}

type updateServiceRequest struct {
	Title             *string  `json:"title"`
	Description       *string  `json:"description"`
	Price             *float64 `json:"price"`
	DurationWeeks     *int     `json:"duration_weeks"`
	SessionCount      *int     `json:"session_count"`
	IncludesMeet      *bool    `json:"includes_meet"`
	IncludesNutrition *bool    `json:"includes_nutrition"`
	IncludesWorkout   *bool    `json:"includes_workout"`
	Active            *bool    `json:"active"`
}

func validServiceType(serviceType string) bool {
	switch serviceType {
	case models.ServiceTypeRecurring, models.ServiceTypeProgram,
		models.ServiceTypeOneTime, models.ServiceTypeDownloadable:
		return true
	default:
		return false
	}
}

// ListPublic is the storefront catalog: active services only, no auth.
func (h *ServiceHandler) ListPublic(c *fiber.Ctx) error {
	services, err := h.serviceRepo.ListActive(c.Context())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to list services"})
	}
	return c.JSON(fiber.Map{"services": services})
}

func (h *ServiceHandler) ListAll(c *fiber.Ctx) error {
	services, err := h.serviceRepo.ListAll(c.Context())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to list services"})
	}
	return c.JSON(fiber.Map{"services": services})
}

func (h *ServiceHandler) Get(c *fiber.Ctx) error {
	serviceID, err := parseIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid service id"})
	}

	service, err := h.serviceRepo.GetByID(c.Context(), serviceID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Service not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch service"})
	}

	return c.JSON(fiber.Map{"service": service})
}

func (h *ServiceHandler) Create(c *fiber.Ctx) error {
	var req createServiceRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "title is required"})
	}
	if !validServiceType(req.Type) {
		return c.Status(fiber.StatusBadRequest).
			JSON(fiber.Map{"error": "type must be recurring, program, one-time, or downloadable"})
	}
	if req.Price < 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "price must not be negative"})
	}
	if req.DurationWeeks != nil && *req.DurationWeeks <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "duration_weeks must be greater than 0"})
	}
	if (req.Type == models.ServiceTypeRecurring || req.Type == models.ServiceTypeProgram) && req.DurationWeeks == nil {
		return c.Status(fiber.StatusBadRequest).
			JSON(fiber.Map{"error": "duration_weeks is required for recurring and program services"})
	}

	service, err := h.serviceRepo.Create(c.Context(), repository.CreateServiceInput{
		Title:             req.Title,
		Description:       req.Description,
		Type:              req.Type,
		Price:             req.Price,
		DurationWeeks:     req.DurationWeeks,
		SessionCount:      req.SessionCount,
		IncludesMeet:      req.IncludesMeet,
		IncludesNutrition: req.IncludesNutrition,
		IncludesWorkout:   req.IncludesWorkout,
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create service"})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"service": service})
}

func (h *ServiceHandler) Update(c *fiber.Ctx) error {
	serviceID, err := parseIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid service id"})
	}

	var req updateServiceRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if req.Title != nil && strings.TrimSpace(*req.Title) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "title must not be empty"})
	}
	if req.Price != nil && *req.Price < 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "price must not be negative"})
	}
	if req.DurationWeeks != nil && *req.DurationWeeks <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "duration_weeks must be greater than 0"})
	}

	service, err := h.serviceRepo.UpdatePartial(c.Context(), serviceID, repository.UpdateServiceInput{
		Title:             req.Title,
		Description:       req.Description,
		Price:             req.Price,
		DurationWeeks:     req.DurationWeeks,
		SessionCount:      req.SessionCount,
		IncludesMeet:      req.IncludesMeet,
		IncludesNutrition: req.IncludesNutrition,
		IncludesWorkout:   req.IncludesWorkout,
		Active:            req.Active,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Service not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update service"})
	}

	return c.JSON(fiber.Map{"service": service})
}

// Delete deactivates; the row stays so past purchases keep their reference.
func (h *ServiceHandler) Delete(c *fiber.Ctx) error {
	serviceID, err := parseIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid service id"})
	}

	service, err := h.serviceRepo.Deactivate(c.Context(), serviceID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Service not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to deactivate service"})
	}

	return c.JSON(fiber.Map{"service": service})
}
