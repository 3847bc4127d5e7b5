package handlers

import (
	"context"
	"errors"
	"strings"

	"github.com/damil-o/TrainerBizBack/internal/models"
	"github.com/damil-o/TrainerBizBack/internal/repository"
	"github.com/damil-o/TrainerBizBack/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
)

type NotificationHandler struct {
	notificationRepo *repository.NotificationRepository
	pushRepo         *repository.PushSubscriptionRepository
	sender           notificationSender
}

type notificationSender interface {
	Send(ctx context.Context, input services.SendNotificationInput) (*models.Notification, error)
}

func NewNotificationHandler(
	notificationRepo *repository.NotificationRepository,
	pushRepo *repository.PushSubscriptionRepository,
	sender *services.NotificationService,
) *NotificationHandler {
	return &NotificationHandler{
		notificationRepo: notificationRepo,
		pushRepo:         pushRepo,
		sender:           sender,
	}
}

func (h *NotificationHandler) List(c *fiber.Ctx) error {
	identity, ok := identityFrom(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	notifications, err := h.notificationRepo.ListByUserID(c.Context(), identity.UserID, c.QueryBool("unread"))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to list notifications"})
	}

	return c.JSON(fiber.Map{"notifications": notifications})
}

func (h *NotificationHandler) UnreadCount(c *fiber.Ctx) error {
	identity, ok := identityFrom(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	count, err := h.notificationRepo.UnreadCount(c.Context(), identity.UserID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to count notifications"})
	}

	return c.JSON(fiber.Map{"unread": count})
}

func (h *NotificationHandler) MarkRead(c *fiber.Ctx) error {
	identity, ok := identityFrom(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	notificationID, err := parseIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid notification id"})
	}

	notification, err := h.notificationRepo.MarkRead(c.Context(), notificationID, identity.UserID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Notification not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to mark notification"})
	}

	return c.JSON(fiber.Map{"notification": notification})
}

func (h *NotificationHandler) MarkAllRead(c *fiber.Ctx) error {
	identity, ok := identityFrom(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	updated, err := h.notificationRepo.MarkAllRead(c.Context(), identity.UserID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to mark notifications"})
	}

	return c.JSON(fiber.Map{"updated": updated})
}

type sendNotificationRequest struct {
	UserID     int64  `json:"user_id"`
	Title      string `json:"title"`
	Message    string `json:"message"`
	Type       string `json:"type"`
	PurchaseID *int64 `json:"purchase_id"`
}

// Send lets an admin push an arbitrary notification to one client.
func (h *NotificationHandler) Send(c *fiber.Ctx) error {
	var req sendNotificationRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	notification, err := h.sender.Send(c.Context(), services.SendNotificationInput{
		UserID:     req.UserID,
		Title:      req.Title,
		Message:    req.Message,
		Type:       req.Type,
		PurchaseID: req.PurchaseID,
	})
	if err != nil {
		if errors.Is(err, services.ErrInvalidInput) {
			return c.Status(fiber.StatusBadRequest).
				JSON(fiber.Map{"error": "user_id, title, and message are required"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to send notification"})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"notification": notification})
}

type pushSubscribeRequest struct {
	Endpoint string `json:"endpoint"`
	Keys     struct {
		P256dh string `json:"p256dh"`
		Auth   string `json:"auth"`
	} `json:"keys"`
}

// SubscribePush registers the browser push subscription sent by the service
// worker, in the standard PushSubscription JSON shape.
func (h *NotificationHandler) SubscribePush(c *fiber.Ctx) error {
	identity, ok := identityFrom(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	var req pushSubscribeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if strings.TrimSpace(req.Endpoint) == "" || req.Keys.P256dh == "" || req.Keys.Auth == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "endpoint and keys are required"})
	}

	sub := &models.PushSubscription{
		UserID:   identity.UserID,
		Endpoint: strings.TrimSpace(req.Endpoint),
		P256dh:   req.Keys.P256dh,
		Auth:     req.Keys.Auth,
	}
	if err := h.pushRepo.Upsert(c.Context(), sub); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to save subscription"})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"subscription": sub})
}

type pushUnsubscribeRequest struct {
	Endpoint string `json:"endpoint"`
}

func (h *NotificationHandler) UnsubscribePush(c *fiber.Ctx) error {
	var req pushUnsubscribeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if strings.TrimSpace(req.Endpoint) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "endpoint is required"})
	}

	if err := h.pushRepo.DeleteByEndpoint(c.Context(), strings.TrimSpace(req.Endpoint)); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to remove subscription"})
	}

	return c.JSON(fiber.Map{"deleted": true})
}
