package handlers

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/damil-o/TrainerBizBack/internal/models"
	"github.com/damil-o/TrainerBizBack/internal/repository"
	"github.com/damil-o/TrainerBizBack/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
)

const maxTestimonialVideoSizeBytes = 100 * 1024 * 1024

type TestimonialHandler struct {
	testimonialRepo *repository.TestimonialRepository
	storageService  services.StorageService
}

func NewTestimonialHandler(testimonialRepo *repository.TestimonialRepository, storageService services.StorageService) *TestimonialHandler {
	return &TestimonialHandler{testimonialRepo: testimonialRepo, storageService: storageService}
}

type submitTestimonialRequest struct {
	Kind     string  `json:"kind"`
	Content  *string `json:"content"`
	VideoURL *string `json:"video_url"`
}

// Submit stores a testimonial as pending; it only reaches the public list
// after an admin approves it.
func (h *TestimonialHandler) Submit(c *fiber.Ctx) error {
	identity, ok := identityFrom(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	var req submitTestimonialRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	switch strings.TrimSpace(req.Kind) {
	case models.TestimonialKindText:
		if req.Content == nil || strings.TrimSpace(*req.Content) == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "content is required for text testimonials"})
		}
		req.VideoURL = nil
	case models.TestimonialKindVideo:
		if req.VideoURL == nil || strings.TrimSpace(*req.VideoURL) == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "video_url is required for video testimonials"})
		}
	default:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "kind must be text or video"})
	}

	testimonial, err := h.testimonialRepo.Create(c.Context(), repository.CreateTestimonialInput{
		UserID:   identity.UserID,
		Kind:     strings.TrimSpace(req.Kind),
		Content:  req.Content,
		VideoURL: req.VideoURL,
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to save testimonial"})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"testimonial": testimonial})
}

// UploadVideo stores the raw video and returns its URL; the client follows
// up with a Submit carrying that URL.
func (h *TestimonialHandler) UploadVideo(c *fiber.Ctx) error {
	identity, ok := identityFrom(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}
	if h.storageService == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "Storage service is not configured"})
	}

	fileHeader, err := c.FormFile("video")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "video file is required"})
	}
	if fileHeader.Size <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "video file is empty"})
	}
	if fileHeader.Size > maxTestimonialVideoSizeBytes {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "video file exceeds 100MB limit"})
	}

	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	switch ext {
	case ".mp4", ".webm", ".mov":
	default:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "video must be an mp4, webm, or mov file"})
	}

	file, err := fileHeader.Open()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to open video file"})
	}
	defer file.Close()

	filename := fmt.Sprintf("%d-%d%s", identity.UserID, time.Now().UnixNano(), ext)
	videoURL, err := h.storageService.UploadFile(c.Context(), file, filename, "testimonials/videos")
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to upload video"})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"video_url": videoURL})
}

// ListPublic is unauthenticated: approved testimonials, featured first.
func (h *TestimonialHandler) ListPublic(c *fiber.Ctx) error {
	testimonials, err := h.testimonialRepo.ListApproved(c.Context())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to list testimonials"})
	}
	return c.JSON(fiber.Map{"testimonials": testimonials})
}

func (h *TestimonialHandler) ListAll(c *fiber.Ctx) error {
	testimonials, err := h.testimonialRepo.ListAll(c.Context())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to list testimonials"})
	}
	return c.JSON(fiber.Map{"testimonials": testimonials})
}

type moderateTestimonialRequest struct {
	Status string `json:"status"`
}

func (h *TestimonialHandler) SetStatus(c *fiber.Ctx) error {
	testimonialID, err := parseIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid testimonial id"})
	}

	var req moderateTestimonialRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	status := strings.TrimSpace(req.Status)
	if status != models.TestimonialStatusApproved && status != models.TestimonialStatusRejected {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "status must be approved or rejected"})
	}

	testimonial, err := h.testimonialRepo.SetStatus(c.Context(), testimonialID, status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Testimonial not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update testimonial"})
	}

	return c.JSON(fiber.Map{"testimonial": testimonial})
}

type featureTestimonialRequest struct {
	Featured bool `json:"featured"`
}

func (h *TestimonialHandler) SetFeatured(c *fiber.Ctx) error {
	testimonialID, err := parseIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid testimonial id"})
	}

	var req featureTestimonialRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	testimonial, err := h.testimonialRepo.SetFeatured(c.Context(), testimonialID, req.Featured)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Testimonial not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update testimonial"})
	}

	return c.JSON(fiber.Map{"testimonial": testimonial})
}
