package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/damil-o/TrainerBizBack/internal/models"
	"github.com/damil-o/TrainerBizBack/internal/services"
	"github.com/gofiber/fiber/v2"
)

type stubNotificationSender struct {
	result    *models.Notification
	err       error
	lastInput services.SendNotificationInput
}

func (s *stubNotificationSender) Send(_ context.Context, input services.SendNotificationInput) (*models.Notification, error) {
	s.lastInput = input
	return s.result, s.err
}

func TestSendNotificationCreatesRow(t *testing.T) {
	sender := &stubNotificationSender{
		result: &models.Notification{ID: 1, UserID: 42, Title: "Check in", Type: models.NotificationTypeInfo},
	}
	handler := &NotificationHandler{sender: sender}

	app := fiber.New()
	app.Use(identityMiddleware(1, true))
	app.Post("/api/v1/admin/notifications", handler.Send)

	body := `{"user_id": 42, "title": "Check in", "message": "How did the first week go?"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/notifications", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	if sender.lastInput.UserID != 42 || sender.lastInput.Title != "Check in" {
		t.Fatalf("unexpected forwarded input: %+v", sender.lastInput)
	}
}

func TestSendNotificationRejectsMissingFields(t *testing.T) {
	sender := &stubNotificationSender{err: services.ErrInvalidInput}
	handler := &NotificationHandler{sender: sender}

	app := fiber.New()
	app.Use(identityMiddleware(1, true))
	app.Post("/api/v1/admin/notifications", handler.Send)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/notifications", strings.NewReader(`{"user_id": 42}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}
