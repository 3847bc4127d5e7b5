package handlers

import (
	"context"
	"log"
	"net/mail"
	"strings"

	"github.com/damil-o/TrainerBizBack/internal/models"
	"github.com/damil-o/TrainerBizBack/internal/repository"
	"github.com/damil-o/TrainerBizBack/internal/services"
	"github.com/gofiber/fiber/v2"
)

type LeadHandler struct {
	leadRepo leadStore
	sink     services.LeadSink
}

type leadStore interface {
	Create(ctx context.Context, lead *models.Lead) error
}

func NewLeadHandler(leadRepo *repository.LeadRepository, sink services.LeadSink) *LeadHandler {
	return &LeadHandler{leadRepo: leadRepo, sink: sink}
}

type createLeadRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Create captures a marketing-site signup. The local insert is the source of
// truth; the spreadsheet append is best effort and never fails the request.
func (h *LeadHandler) Create(c *fiber.Ctx) error {
	var req createLeadRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "name is required"})
	}
	parsedEmail, err := mail.ParseAddress(strings.TrimSpace(req.Email))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid email format"})
	}

	lead := &models.Lead{
		Name:  req.Name,
		Email: strings.ToLower(parsedEmail.Address),
	}
	if err := h.leadRepo.Create(c.Context(), lead); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to save lead"})
	}

	if h.sink != nil {
		if err := h.sink.AppendLead(c.Context(), lead.Name, lead.Email, lead.CreatedAt); err != nil {
			log.Printf("append lead to sheet: %v", err)
		}
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"lead": lead})
}
