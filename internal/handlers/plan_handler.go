package handlers

import (
	"context"
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

const maxPlanFileSizeBytes = 25 * 1024 * 1024

type PlanHandler struct {
	planRepo       *repository.PlanFileRepository
	purchaseRepo   planPurchaseReader
	storageService services.StorageService
	notifier       planNotifier
}

type planPurchaseReader interface {
	GetByID(ctx context.Context, purchaseID int64) (*models.Purchase, error)
}

type planNotifier interface {
	NotifyUser(ctx context.Context, input services.SendNotificationInput)
}

func NewPlanHandler(
	planRepo *repository.PlanFileRepository,
	purchaseRepo planPurchaseReader,
	storageService services.StorageService,
	notifier planNotifier,
) *PlanHandler {
	return &PlanHandler{
		planRepo:       planRepo,
		purchaseRepo:   purchaseRepo,
		storageService: storageService,
		notifier:       notifier,
	}
}

func validPlanKind(kind string) bool {
	switch kind {
	case models.PlanFileKindDiet, models.PlanFileKindServicePlan, models.PlanFileKindResource:
		return true
	default:
		return false
	}
}

// Upload stores a plan PDF and attaches it to a purchase, a service, or the
// global resource library depending on kind. Multipart form: file plus kind,
// title, and the matching id field.
func (h *PlanHandler) Upload(c *fiber.Ctx) error {
	identity, ok := identityFrom(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}
	if h.storageService == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "Storage service is not configured"})
	}

	kind := strings.TrimSpace(c.FormValue("kind"))
	if !validPlanKind(kind) {
		return c.Status(fiber.StatusBadRequest).
			JSON(fiber.Map{"error": "kind must be diet, service_plan, or resource"})
	}
	title := strings.TrimSpace(c.FormValue("title"))
	if title == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "title is required"})
	}

	var purchaseID, serviceID *int64
	var dietOwnerID int64
	switch kind {
	case models.PlanFileKindDiet:
		id := parseFormID(c, "purchase_id")
		if id <= 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "purchase_id is required for diet plans"})
		}
		purchase, err := h.purchaseRepo.GetByID(c.Context(), id)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Purchase not found"})
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch purchase"})
		}
		purchaseID = &purchase.ID
		dietOwnerID = purchase.UserID
	case models.PlanFileKindServicePlan:
		id := parseFormID(c, "service_id")
		if id <= 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "service_id is required for service plans"})
		}
		serviceID = &id
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "file is required"})
	}
	if fileHeader.Size <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "file is empty"})
	}
	if fileHeader.Size > maxPlanFileSizeBytes {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "file exceeds 25MB limit"})
	}
	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	if ext != ".pdf" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "file must be a pdf"})
	}

	file, err := fileHeader.Open()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to open file"})
	}
	defer file.Close()

	filename := fmt.Sprintf("%d-%d%s", identity.UserID, time.Now().UnixNano(), ext)
	fileURL, err := h.storageService.UploadFile(c.Context(), file, filename, "plans/"+kind)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to upload file"})
	}

	planFile, err := h.planRepo.Create(c.Context(), repository.CreatePlanFileInput{
		Kind:       kind,
		PurchaseID: purchaseID,
		ServiceID:  serviceID,
		UploaderID: identity.UserID,
		Title:      title,
		FileURL:    fileURL,
		FileSize:   fileHeader.Size,
	})
	if err != nil {
		_ = h.storageService.DeleteFile(c.Context(), fileURL)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to save plan file"})
	}

	if kind == models.PlanFileKindDiet && dietOwnerID > 0 {
		h.notifier.NotifyUser(c.Context(), services.SendNotificationInput{
			UserID:     dietOwnerID,
			Title:      "New plan available",
			Message:    fmt.Sprintf("A new file was added to your plan: %s", title),
			Type:       models.NotificationTypeResource,
			PurchaseID: purchaseID,
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"plan_file": planFile})
}

// ListForPurchase returns the files attached to one purchase; clients only
// see their own purchases.
func (h *PlanHandler) ListForPurchase(c *fiber.Ctx) error {
	identity, ok := identityFrom(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	purchaseID, err := parseIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid purchase id"})
	}

	purchase, err := h.purchaseRepo.GetByID(c.Context(), purchaseID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Purchase not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch purchase"})
	}
	if !identity.IsAdmin && purchase.UserID != identity.UserID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}

	files, err := h.planRepo.ListByPurchaseID(c.Context(), purchaseID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to list plan files"})
	}

	return c.JSON(fiber.Map{"plan_files": files})
}

// ListResources returns the global resource library.
func (h *PlanHandler) ListResources(c *fiber.Ctx) error {
	files, err := h.planRepo.ListByKind(c.Context(), models.PlanFileKindResource)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to list resources"})
	}
	return c.JSON(fiber.Map{"plan_files": files})
}

func (h *PlanHandler) Delete(c *fiber.Ctx) error {
	planFileID, err := parseIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid plan file id"})
	}

	planFile, err := h.planRepo.GetByID(c.Context(), planFileID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Plan file not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch plan file"})
	}

	if err := h.planRepo.Delete(c.Context(), planFileID); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to delete plan file"})
	}
	if h.storageService != nil {
		_ = h.storageService.DeleteFile(c.Context(), planFile.FileURL)
	}

	return c.JSON(fiber.Map{"deleted": true})
}

func parseFormID(c *fiber.Ctx, field string) int64 {
	var id int64
	_, err := fmt.Sscanf(strings.TrimSpace(c.FormValue(field)), "%d", &id)
	if err != nil {
		return 0
	}
	return id
}
