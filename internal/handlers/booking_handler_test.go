package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/damil-o/TrainerBizBack/internal/models"
	"github.com/damil-o/TrainerBizBack/internal/repository"
	"github.com/damil-o/TrainerBizBack/internal/services"
	"github.com/gofiber/fiber/v2"
)

type stubBookingService struct {
	createResult *models.Booking
	createErr    error
	listResult   []models.Booking
	listErr      error
	getResult    *models.Booking
	getErr       error
	updateResult *models.Booking
	updateErr    error
	linkResult   *models.Booking
	linkErr      error
	lastCreate   services.CreateBookingInput
	lastStatus   string
	lastActorID  int64
}

func (s *stubBookingService) Create(_ context.Context, actorID int64, _ bool, input services.CreateBookingInput) (*models.Booking, error) {
	s.lastActorID = actorID
	s.lastCreate = input
	return s.createResult, s.createErr
}

func (s *stubBookingService) List(_ context.Context, actorID int64, _ bool, _ repository.BookingListFilter) ([]models.Booking, error) {
	s.lastActorID = actorID
	return s.listResult, s.listErr
}

func (s *stubBookingService) Get(_ context.Context, actorID int64, _ bool, _ int64) (*models.Booking, error) {
	s.lastActorID = actorID
	return s.getResult, s.getErr
}

func (s *stubBookingService) UpdateStatus(_ context.Context, actorID int64, _ bool, _ int64, requestedStatus string) (*models.Booking, error) {
	s.lastActorID = actorID
	s.lastStatus = requestedStatus
	return s.updateResult, s.updateErr
}

func (s *stubBookingService) CreateMeetingLink(_ context.Context, _ int64) (*models.Booking, error) {
	return s.linkResult, s.linkErr
}

func TestCreateBookingSchedulesSession(t *testing.T) {
	service := &stubBookingService{
		createResult: &models.Booking{ID: 3, UserID: 42, Status: models.BookingStatusScheduled},
	}
	handler := &BookingHandler{service: service}

	app := fiber.New()
	app.Use(identityMiddleware(42, false))
	app.Post("/api/v1/bookings", handler.Create)

	body := `{"purchase_id": 7, "scheduled_at": "2026-09-03T10:00:00Z", "duration_minutes": 45}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/bookings", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	if service.lastCreate.PurchaseID != 7 || service.lastCreate.DurationMinutes != 45 {
		t.Fatalf("unexpected forwarded input: %+v", service.lastCreate)
	}
	want := time.Date(2026, 9, 3, 10, 0, 0, 0, time.UTC)
	if !service.lastCreate.ScheduledAt.Equal(want) {
		t.Fatalf("expected scheduled_at %v, got %v", want, service.lastCreate.ScheduledAt)
	}
}

func TestCreateBookingRejectsBadTimestamp(t *testing.T) {
	handler := &BookingHandler{service: &stubBookingService{}}

	app := fiber.New()
	app.Use(identityMiddleware(42, false))
	app.Post("/api/v1/bookings", handler.Create)

	body := `{"purchase_id": 7, "scheduled_at": "tomorrow", "duration_minutes": 45}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/bookings", strings.NewReader(body))
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

func TestCreateBookingWithoutValidPurchaseIsUnprocessable(t *testing.T) {
	service := &stubBookingService{createErr: services.ErrNoCompletedPurchase}
	handler := &BookingHandler{service: service}

	app := fiber.New()
	app.Use(identityMiddleware(42, false))
	app.Post("/api/v1/bookings", handler.Create)

	body := `{"purchase_id": 7, "scheduled_at": "2026-09-03T10:00:00Z", "duration_minutes": 45}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/bookings", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", resp.StatusCode)
	}
}

func TestCreateBookingConflictIsReported(t *testing.T) {
	service := &stubBookingService{createErr: services.ErrConflict}
	handler := &BookingHandler{service: service}

	app := fiber.New()
	app.Use(identityMiddleware(42, false))
	app.Post("/api/v1/bookings", handler.Create)

	body := `{"purchase_id": 7, "scheduled_at": "2026-09-03T10:00:00Z", "duration_minutes": 45}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/bookings", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409, got %d", resp.StatusCode)
	}
}

func TestListBookingsRejectsUnknownTimeframe(t *testing.T) {
	handler := &BookingHandler{service: &stubBookingService{}}

	app := fiber.New()
	app.Use(identityMiddleware(42, false))
	app.Get("/api/v1/bookings", handler.List)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/bookings?timeframe=soon", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestUpdateBookingStatusForwardsRequestedStatus(t *testing.T) {
	service := &stubBookingService{
		updateResult: &models.Booking{ID: 3, Status: models.BookingStatusCancelled},
	}
	handler := &BookingHandler{service: service}

	app := fiber.New()
	app.Use(identityMiddleware(42, false))
	app.Patch("/api/v1/bookings/:id/status", handler.UpdateStatus)

	req := httptest.NewRequest(http.MethodPatch, "/api/v1/bookings/3/status", strings.NewReader(`{"status": "cancelled"}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if service.lastStatus != "cancelled" {
		t.Fatalf("expected forwarded status, got %q", service.lastStatus)
	}
}

func TestCreateMeetingLinkUnknownBooking(t *testing.T) {
	service := &stubBookingService{linkErr: services.ErrBookingNotFound}
	handler := &BookingHandler{service: service}

	app := fiber.New()
	app.Use(identityMiddleware(1, true))
	app.Post("/api/v1/admin/bookings/:id/meeting-link", handler.CreateMeetingLink)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/bookings/99/meeting-link", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}
