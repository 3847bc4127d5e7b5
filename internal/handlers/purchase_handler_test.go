package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/damil-o/TrainerBizBack/internal/middleware"
	"github.com/damil-o/TrainerBizBack/internal/models"
	"github.com/damil-o/TrainerBizBack/internal/repository"
	"github.com/damil-o/TrainerBizBack/internal/services"
	"github.com/gofiber/fiber/v2"
)

type stubPurchaseService struct {
	checkoutResult  *models.Purchase
	checkoutErr     error
	verifyResult    *models.Purchase
	verifyErr       error
	completeResult  *models.Purchase
	completeErr     error
	cancelResult    *models.Purchase
	cancelErr       error
	listResult      []models.Purchase
	listErr         error
	getResult       *models.PurchaseDetail
	getErr          error
	scanResult      *services.ExpiryScanResult
	scanErr         error
	lastUserID      int64
	lastCheckout    services.CheckoutInput
	lastVerify      services.VerifyPaymentInput
	lastListFilter  repository.PurchaseListFilter
	lastPurchaseID  int64
	scanInvocations int
}

func (s *stubPurchaseService) Checkout(_ context.Context, userID int64, input services.CheckoutInput) (*models.Purchase, error) {
	s.lastUserID = userID
	s.lastCheckout = input
	return s.checkoutResult, s.checkoutErr
}

func (s *stubPurchaseService) VerifyPayment(_ context.Context, input services.VerifyPaymentInput) (*models.Purchase, error) {
	s.lastVerify = input
	return s.verifyResult, s.verifyErr
}

func (s *stubPurchaseService) CompleteManually(_ context.Context, purchaseID int64) (*models.Purchase, error) {
	s.lastPurchaseID = purchaseID
	return s.completeResult, s.completeErr
}

func (s *stubPurchaseService) Cancel(_ context.Context, purchaseID int64) (*models.Purchase, error) {
	s.lastPurchaseID = purchaseID
	return s.cancelResult, s.cancelErr
}

func (s *stubPurchaseService) List(_ context.Context, filter repository.PurchaseListFilter) ([]models.Purchase, error) {
	s.lastListFilter = filter
	return s.listResult, s.listErr
}

func (s *stubPurchaseService) Get(_ context.Context, actorID int64, _ bool, purchaseID int64) (*models.PurchaseDetail, error) {
	s.lastUserID = actorID
	s.lastPurchaseID = purchaseID
	return s.getResult, s.getErr
}

func (s *stubPurchaseService) RunExpiryScan(_ context.Context) (*services.ExpiryScanResult, error) {
	s.scanInvocations++
	return s.scanResult, s.scanErr
}

func identityMiddleware(userID int64, isAdmin bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		middleware.WithIdentity(c, middleware.Identity{UserID: userID, IsAdmin: isAdmin})
		return c.Next()
	}
}

func TestCheckoutCreatesPurchase(t *testing.T) {
	service := &stubPurchaseService{
		checkoutResult: &models.Purchase{ID: 9, UserID: 42, ServiceID: 3, PaymentStatus: "pending"},
	}
	handler := &PurchaseHandler{service: service}

	app := fiber.New()
	app.Use(identityMiddleware(42, false))
	app.Post("/api/v1/purchases/checkout", handler.Checkout)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/purchases/checkout", strings.NewReader(`{"service_id": 3}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	if service.lastUserID != 42 {
		t.Fatalf("expected actor id 42, got %d", service.lastUserID)
	}
	if service.lastCheckout.ServiceID != 3 {
		t.Fatalf("expected service id 3, got %d", service.lastCheckout.ServiceID)
	}
}

func TestCheckoutRejectsMissingServiceID(t *testing.T) {
	handler := &PurchaseHandler{service: &stubPurchaseService{}}

	app := fiber.New()
	app.Use(identityMiddleware(42, false))
	app.Post("/api/v1/purchases/checkout", handler.Checkout)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/purchases/checkout", strings.NewReader(`{}`))
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

func TestVerifyPaymentForwardsReferences(t *testing.T) {
	service := &stubPurchaseService{
		verifyResult: &models.Purchase{ID: 9, PaymentStatus: "completed"},
	}
	handler := &PurchaseHandler{service: service}

	app := fiber.New()
	app.Post("/api/payments/verify", handler.VerifyPayment)

	req := httptest.NewRequest(http.MethodPost, "/api/payments/verify",
		strings.NewReader(`{"tx_ref": "TBB-abc", "transaction_id": "991"}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if service.lastVerify.TxRef != "TBB-abc" || service.lastVerify.TransactionID != "991" {
		t.Fatalf("unexpected forwarded input: %+v", service.lastVerify)
	}
}

func TestVerifyPaymentFailedVerdictIsRejected(t *testing.T) {
	service := &stubPurchaseService{verifyErr: services.ErrVerificationFailed}
	handler := &PurchaseHandler{service: service}

	app := fiber.New()
	app.Post("/api/payments/verify", handler.VerifyPayment)

	req := httptest.NewRequest(http.MethodPost, "/api/payments/verify", strings.NewReader(`{"tx_ref": "TBB-abc"}`))
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

func TestListForcesOwnPurchasesForClients(t *testing.T) {
	service := &stubPurchaseService{listResult: []models.Purchase{{ID: 1, UserID: 42}}}
	handler := &PurchaseHandler{service: service}

	app := fiber.New()
	app.Use(identityMiddleware(42, false))
	app.Get("/api/v1/purchases", handler.List)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/purchases?user_id=7", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if service.lastListFilter.UserID != 42 {
		t.Fatalf("expected filter pinned to caller, got %d", service.lastListFilter.UserID)
	}
}

func TestGetForbiddenForOtherClients(t *testing.T) {
	service := &stubPurchaseService{getErr: services.ErrForbidden}
	handler := &PurchaseHandler{service: service}

	app := fiber.New()
	app.Use(identityMiddleware(42, false))
	app.Get("/api/v1/purchases/:id", handler.Get)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/purchases/5", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.StatusCode)
	}
}

func TestDeliverPDFRejectsMissingFields(t *testing.T) {
	handler := NewPurchaseHandler(nil, nil)
	handler.service = &stubPurchaseService{}
	handler.delivery = &stubDeliveryService{err: services.ErrMissingDeliveryField}

	app := fiber.New()
	app.Use(identityMiddleware(1, true))
	app.Post("/api/v1/admin/purchases/deliver", handler.DeliverPDF)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/purchases/deliver", strings.NewReader(`{"purchase_id": 4}`))
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

type stubDeliveryService struct {
	result *models.Purchase
	err    error
}

func (s *stubDeliveryService) DeliverPDF(_ context.Context, _ services.DeliverPDFInput) (*models.Purchase, error) {
	return s.result, s.err
}

func TestCheckExpiringReportsScanResult(t *testing.T) {
	service := &stubPurchaseService{scanResult: &services.ExpiryScanResult{Scanned: 4, Warned: 2, Deactivated: 1}}
	handler := &PurchaseHandler{service: service}

	app := fiber.New()
	app.Use(identityMiddleware(1, true))
	app.Post("/api/v1/admin/purchases/check-expiring", handler.CheckExpiring)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/purchases/check-expiring", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if service.scanInvocations != 1 {
		t.Fatalf("expected one scan, got %d", service.scanInvocations)
	}
}

func TestMapPurchaseErrorDefaultsToInternalServerError(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		return mapPurchaseError(c, errors.New("boom"))
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.StatusCode)
	}
}
