package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/damil-o/TrainerBizBack/internal/models"
	"github.com/damil-o/TrainerBizBack/internal/repository"
	"github.com/jackc/pgx/v5"
)

type stubPurchaseStore struct {
	created            *repository.CreatePurchaseInput
	createResult       *models.Purchase
	byTxRef            *models.Purchase
	byTxRefErr         error
	completeResult     *models.Purchase
	completeErr        error
	completeCalls      int
	updateStatusResult *models.Purchase
	updateStatusErr    error
	expiring           []models.Purchase
	deactivated        int64
}

func (s *stubPurchaseStore) Create(_ context.Context, input repository.CreatePurchaseInput) (*models.Purchase, error) {
	s.created = &input
	if s.createResult != nil {
		return s.createResult, nil
	}
	return &models.Purchase{
		ID:            1,
		UserID:        input.UserID,
		ServiceID:     input.ServiceID,
		Amount:        input.Amount,
		PaymentStatus: models.PaymentStatusPending,
		TxRef:         input.TxRef,
		ExpiresAt:     input.ExpiresAt,
	}, nil
}

func (s *stubPurchaseStore) GetByID(_ context.Context, _ int64) (*models.Purchase, error) {
	return nil, pgx.ErrNoRows
}

func (s *stubPurchaseStore) GetByTxRef(_ context.Context, _ string) (*models.Purchase, error) {
	if s.byTxRefErr != nil {
		return nil, s.byTxRefErr
	}
	return s.byTxRef, nil
}

func (s *stubPurchaseStore) List(_ context.Context, _ repository.PurchaseListFilter) ([]models.Purchase, error) {
	return nil, nil
}

func (s *stubPurchaseStore) Complete(_ context.Context, _ int64, _ string, _ *string) (*models.Purchase, error) {
	s.completeCalls++
	return s.completeResult, s.completeErr
}

func (s *stubPurchaseStore) UpdatePaymentStatusIfCurrent(_ context.Context, _ int64, _, _ string) (*models.Purchase, error) {
	return s.updateStatusResult, s.updateStatusErr
}

func (s *stubPurchaseStore) ListExpiringWithin(_ context.Context, _ time.Duration) ([]models.Purchase, error) {
	return s.expiring, nil
}

func (s *stubPurchaseStore) DeactivateExpired(_ context.Context) (int64, error) {
	return s.deactivated, nil
}

type stubServiceReader struct {
	service *models.Service
	err     error
}

func (s *stubServiceReader) GetByID(_ context.Context, _ int64) (*models.Service, error) {
	return s.service, s.err
}

type stubVerifier struct {
	result *PaymentVerification
	err    error
	calls  int
}

func (s *stubVerifier) VerifyTransaction(_ context.Context, _ string) (*PaymentVerification, error) {
	s.calls++
	return s.result, s.err
}

func (s *stubVerifier) VerifyByReference(_ context.Context, _ string) (*PaymentVerification, error) {
	s.calls++
	return s.result, s.err
}

type recordingNotifier struct {
	userNotices  []SendNotificationInput
	adminNotices []string
	dedupKeys    []string
	seen         map[string]bool
}

func (n *recordingNotifier) NotifyUser(_ context.Context, input SendNotificationInput) {
	n.userNotices = append(n.userNotices, input)
}

func (n *recordingNotifier) NotifyAdmins(_ context.Context, title, _, _ string, _ *int64) {
	n.adminNotices = append(n.adminNotices, title)
}

func (n *recordingNotifier) SendDeduped(_ context.Context, _ SendNotificationInput, dedupKey string) (bool, error) {
	n.dedupKeys = append(n.dedupKeys, dedupKey)
	if n.seen == nil {
		n.seen = make(map[string]bool)
	}
	if n.seen[dedupKey] {
		return false, nil
	}
	n.seen[dedupKey] = true
	return true, nil
}

func intPtr(v int) *int { return &v }

func TestExpiryForRecurringServiceRunsWeeksFromPurchase(t *testing.T) {
	purchasedAt := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	service := &models.Service{Type: models.ServiceTypeRecurring, DurationWeeks: intPtr(4)}

	expiresAt := ExpiryFor(service, purchasedAt)
	if expiresAt == nil {
		t.Fatal("expected an expiry for a recurring service")
	}
	want := purchasedAt.Add(4 * 7 * 24 * time.Hour)
	if !expiresAt.Equal(want) {
		t.Fatalf("expected %v, got %v", want, *expiresAt)
	}
}

func TestExpiryForOneTimeAndDownloadableNeverExpire(t *testing.T) {
	purchasedAt := time.Now().UTC()
	for _, serviceType := range []string{models.ServiceTypeOneTime, models.ServiceTypeDownloadable} {
		service := &models.Service{Type: serviceType, DurationWeeks: intPtr(8)}
		if expiresAt := ExpiryFor(service, purchasedAt); expiresAt != nil {
			t.Fatalf("expected no expiry for %s service, got %v", serviceType, *expiresAt)
		}
	}
}

func TestCheckoutCreatesPendingPurchaseWithExpiry(t *testing.T) {
	store := &stubPurchaseStore{}
	reader := &stubServiceReader{service: &models.Service{
		ID:            3,
		Title:         "Monthly coaching",
		Type:          models.ServiceTypeRecurring,
		Price:         120,
		DurationWeeks: intPtr(4),
		Active:        true,
	}}
	notifier := &recordingNotifier{}
	svc := NewPurchaseService(store, reader, &stubVerifier{}, notifier, nil, "")

	purchase, err := svc.Checkout(context.Background(), 42, CheckoutInput{ServiceID: 3})
	if err != nil {
		t.Fatalf("Checkout: %v", err)
	}
	if store.created == nil {
		t.Fatal("expected a purchase insert")
	}
	if !strings.HasPrefix(store.created.TxRef, "TBB-") {
		t.Fatalf("expected generated tx_ref, got %q", store.created.TxRef)
	}
	if store.created.ExpiresAt == nil {
		t.Fatal("expected an expiry on a recurring purchase")
	}
	if purchase.PaymentStatus != models.PaymentStatusPending {
		t.Fatalf("expected pending status, got %q", purchase.PaymentStatus)
	}
	if len(notifier.adminNotices) != 1 {
		t.Fatalf("expected one admin notice, got %d", len(notifier.adminNotices))
	}
}

func TestCheckoutRejectsInactiveService(t *testing.T) {
	reader := &stubServiceReader{service: &models.Service{ID: 3, Active: false}}
	svc := NewPurchaseService(&stubPurchaseStore{}, reader, &stubVerifier{}, &recordingNotifier{}, nil, "")

	if _, err := svc.Checkout(context.Background(), 42, CheckoutInput{ServiceID: 3}); !errors.Is(err, ErrServiceNotFound) {
		t.Fatalf("expected ErrServiceNotFound, got %v", err)
	}
}

func TestVerifyPaymentRequiresAReference(t *testing.T) {
	svc := NewPurchaseService(&stubPurchaseStore{}, &stubServiceReader{}, &stubVerifier{}, &recordingNotifier{}, nil, "")

	if _, err := svc.VerifyPayment(context.Background(), VerifyPaymentInput{}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestVerifyPaymentFailedVerdictWritesNothing(t *testing.T) {
	store := &stubPurchaseStore{}
	verifier := &stubVerifier{result: &PaymentVerification{Status: "failed", TxRef: "TBB-x"}}
	svc := NewPurchaseService(store, &stubServiceReader{}, verifier, &recordingNotifier{}, nil, "")

	_, err := svc.VerifyPayment(context.Background(), VerifyPaymentInput{TxRef: "TBB-x"})
	if !errors.Is(err, ErrVerificationFailed) {
		t.Fatalf("expected ErrVerificationFailed, got %v", err)
	}
	if store.completeCalls != 0 {
		t.Fatalf("expected no completion write, got %d", store.completeCalls)
	}
}

func TestVerifyPaymentGatewayErrorWritesNothing(t *testing.T) {
	store := &stubPurchaseStore{}
	verifier := &stubVerifier{err: errors.New("gateway unreachable")}
	svc := NewPurchaseService(store, &stubServiceReader{}, verifier, &recordingNotifier{}, nil, "")

	_, err := svc.VerifyPayment(context.Background(), VerifyPaymentInput{TransactionID: "991"})
	if !errors.Is(err, ErrVerificationFailed) {
		t.Fatalf("expected ErrVerificationFailed, got %v", err)
	}
	if store.completeCalls != 0 {
		t.Fatalf("expected no completion write, got %d", store.completeCalls)
	}
}

func TestVerifyPaymentIsIdempotentForCompletedPurchase(t *testing.T) {
	completed := &models.Purchase{ID: 7, UserID: 42, PaymentStatus: models.PaymentStatusCompleted, TxRef: "TBB-x"}
	store := &stubPurchaseStore{byTxRef: completed}
	verifier := &stubVerifier{result: &PaymentVerification{Status: "successful", TxRef: "TBB-x", Amount: 120}}
	notifier := &recordingNotifier{}
	svc := NewPurchaseService(store, &stubServiceReader{}, verifier, notifier, nil, "")

	purchase, err := svc.VerifyPayment(context.Background(), VerifyPaymentInput{TxRef: "TBB-x"})
	if err != nil {
		t.Fatalf("VerifyPayment: %v", err)
	}
	if purchase.ID != 7 {
		t.Fatalf("expected purchase 7, got %d", purchase.ID)
	}
	if store.completeCalls != 0 {
		t.Fatalf("expected no second completion, got %d", store.completeCalls)
	}
	if len(notifier.userNotices) != 0 {
		t.Fatalf("expected no duplicate notice, got %d", len(notifier.userNotices))
	}
}

func TestVerifyPaymentRejectsUnderpayment(t *testing.T) {
	pending := &models.Purchase{ID: 7, UserID: 42, Amount: 120, PaymentStatus: models.PaymentStatusPending, TxRef: "TBB-x"}
	store := &stubPurchaseStore{byTxRef: pending}
	verifier := &stubVerifier{result: &PaymentVerification{Status: "successful", TxRef: "TBB-x", Amount: 80}}
	svc := NewPurchaseService(store, &stubServiceReader{}, verifier, &recordingNotifier{}, nil, "")

	if _, err := svc.VerifyPayment(context.Background(), VerifyPaymentInput{TxRef: "TBB-x"}); !errors.Is(err, ErrAmountMismatch) {
		t.Fatalf("expected ErrAmountMismatch, got %v", err)
	}
	if store.completeCalls != 0 {
		t.Fatalf("expected no completion write, got %d", store.completeCalls)
	}
}

func TestVerifyPaymentRejectsWrongCurrency(t *testing.T) {
	pending := &models.Purchase{ID: 7, UserID: 42, Amount: 120, PaymentStatus: models.PaymentStatusPending, TxRef: "TBB-x"}
	store := &stubPurchaseStore{byTxRef: pending}
	verifier := &stubVerifier{result: &PaymentVerification{Status: "successful", TxRef: "TBB-x", Amount: 120, Currency: "USD"}}
	svc := NewPurchaseService(store, &stubServiceReader{}, verifier, &recordingNotifier{}, nil, "NGN")

	if _, err := svc.VerifyPayment(context.Background(), VerifyPaymentInput{TxRef: "TBB-x"}); !errors.Is(err, ErrCurrencyMismatch) {
		t.Fatalf("expected ErrCurrencyMismatch, got %v", err)
	}
	if store.completeCalls != 0 {
		t.Fatalf("expected no completion write, got %d", store.completeCalls)
	}
}

func TestVerifyPaymentAcceptsConfiguredCurrency(t *testing.T) {
	pending := &models.Purchase{ID: 7, UserID: 42, Amount: 120, PaymentStatus: models.PaymentStatusPending, TxRef: "TBB-x"}
	completed := &models.Purchase{ID: 7, UserID: 42, Amount: 120, PaymentStatus: models.PaymentStatusCompleted, TxRef: "TBB-x"}
	store := &stubPurchaseStore{byTxRef: pending, completeResult: completed}
	verifier := &stubVerifier{result: &PaymentVerification{Status: "successful", TxRef: "TBB-x", Amount: 120, Currency: "ngn"}}
	svc := NewPurchaseService(store, &stubServiceReader{}, verifier, &recordingNotifier{}, nil, "NGN")

	if _, err := svc.VerifyPayment(context.Background(), VerifyPaymentInput{TxRef: "TBB-x"}); err != nil {
		t.Fatalf("VerifyPayment: %v", err)
	}
	if store.completeCalls != 1 {
		t.Fatalf("expected one completion write, got %d", store.completeCalls)
	}
}

func TestVerifyPaymentCompletesPendingPurchase(t *testing.T) {
	pending := &models.Purchase{ID: 7, UserID: 42, Amount: 120, PaymentStatus: models.PaymentStatusPending, TxRef: "TBB-x"}
	completed := &models.Purchase{ID: 7, UserID: 42, Amount: 120, PaymentStatus: models.PaymentStatusCompleted, TxRef: "TBB-x"}
	store := &stubPurchaseStore{byTxRef: pending, completeResult: completed}
	verifier := &stubVerifier{result: &PaymentVerification{Status: "successful", TxRef: "TBB-x", TransactionID: "991", Amount: 120}}
	notifier := &recordingNotifier{}
	svc := NewPurchaseService(store, &stubServiceReader{}, verifier, notifier, nil, "")

	purchase, err := svc.VerifyPayment(context.Background(), VerifyPaymentInput{TxRef: "TBB-x"})
	if err != nil {
		t.Fatalf("VerifyPayment: %v", err)
	}
	if purchase.PaymentStatus != models.PaymentStatusCompleted {
		t.Fatalf("expected completed status, got %q", purchase.PaymentStatus)
	}
	if store.completeCalls != 1 {
		t.Fatalf("expected one completion write, got %d", store.completeCalls)
	}
	if len(notifier.userNotices) != 1 {
		t.Fatalf("expected one user notice, got %d", len(notifier.userNotices))
	}
}

func TestRunExpiryScanWarnsOncePerExpiryDate(t *testing.T) {
	expiresAt := time.Now().UTC().Add(3 * 24 * time.Hour)
	store := &stubPurchaseStore{
		expiring: []models.Purchase{
			{ID: 1, UserID: 10, ExpiresAt: &expiresAt},
			{ID: 2, UserID: 11, ExpiresAt: &expiresAt},
		},
		deactivated: 3,
	}
	notifier := &recordingNotifier{}
	svc := NewPurchaseService(store, &stubServiceReader{}, &stubVerifier{}, notifier, nil, "")

	first, err := svc.RunExpiryScan(context.Background())
	if err != nil {
		t.Fatalf("RunExpiryScan: %v", err)
	}
	if first.Scanned != 2 || first.Warned != 2 {
		t.Fatalf("expected 2 scanned and 2 warned, got %+v", first)
	}
	if first.Deactivated != 3 {
		t.Fatalf("expected 3 deactivated, got %d", first.Deactivated)
	}

	// Same window, same expiry dates: the dedup key suppresses every warning.
	second, err := svc.RunExpiryScan(context.Background())
	if err != nil {
		t.Fatalf("RunExpiryScan: %v", err)
	}
	if second.Warned != 0 {
		t.Fatalf("expected no repeat warnings, got %d", second.Warned)
	}
}

func TestExpiryDedupKeyIsStableWithinADay(t *testing.T) {
	expiresAt := time.Date(2026, 6, 10, 23, 30, 0, 0, time.UTC)
	a := expiryDedupKey(5, expiresAt)
	b := expiryDedupKey(5, expiresAt.Add(-2*time.Hour))
	if a != b {
		t.Fatalf("expected identical keys within a day, got %q and %q", a, b)
	}
	if a == expiryDedupKey(6, expiresAt) {
		t.Fatal("expected purchase id to be part of the key")
	}
}
