package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/damil-o/TrainerBizBack/internal/models"
	"github.com/damil-o/TrainerBizBack/internal/repository"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

var (
	ErrForbidden              = errors.New("forbidden")
	ErrInvalidStateTransition = errors.New("invalid state transition")
	ErrServiceNotFound        = errors.New("service not found")
	ErrPurchaseNotFound       = errors.New("purchase not found")
	ErrVerificationFailed     = errors.New("payment verification failed")
	ErrAmountMismatch         = errors.New("paid amount below purchase amount")
	ErrCurrencyMismatch       = errors.New("payment made in an unexpected currency")
)

// ExpiryWarningWindow is how far ahead the scheduled scan looks for
// purchases about to lapse.
const ExpiryWarningWindow = 7 * 24 * time.Hour

type serviceReader interface {
	GetByID(ctx context.Context, serviceID int64) (*models.Service, error)
}

type purchaseStore interface {
	Create(ctx context.Context, input repository.CreatePurchaseInput) (*models.Purchase, error)
	GetByID(ctx context.Context, purchaseID int64) (*models.Purchase, error)
	GetByTxRef(ctx context.Context, txRef string) (*models.Purchase, error)
	List(ctx context.Context, filter repository.PurchaseListFilter) ([]models.Purchase, error)
	Complete(ctx context.Context, purchaseID int64, transactionID string, paymentMethod *string) (*models.Purchase, error)
	UpdatePaymentStatusIfCurrent(ctx context.Context, purchaseID int64, currentStatus, nextStatus string) (*models.Purchase, error)
	ListExpiringWithin(ctx context.Context, window time.Duration) ([]models.Purchase, error)
	DeactivateExpired(ctx context.Context) (int64, error)
}

type purchaseNotifier interface {
	NotifyUser(ctx context.Context, input SendNotificationInput)
	NotifyAdmins(ctx context.Context, title, message, notificationType string, purchaseID *int64)
	SendDeduped(ctx context.Context, input SendNotificationInput, dedupKey string) (bool, error)
}

type PurchaseService struct {
	purchaseRepo purchaseStore
	serviceRepo  serviceReader
	verifier     PaymentVerifier
	notifier     purchaseNotifier
	feed         ChangeFeed
	currency     string
}

// NewPurchaseService wires the purchase workflow. currency is the code
// payments are expected in; empty skips the currency check.
func NewPurchaseService(
	purchaseRepo purchaseStore,
	serviceRepo serviceReader,
	verifier PaymentVerifier,
	notifier purchaseNotifier,
	feed ChangeFeed,
	currency string,
) *PurchaseService {
	return &PurchaseService{
		purchaseRepo: purchaseRepo,
		serviceRepo:  serviceRepo,
		verifier:     verifier,
		notifier:     notifier,
		feed:         feed,
		currency:     strings.TrimSpace(currency),
	}
}

// ExpiryFor computes when a purchase of the service lapses. Recurring and
// program services run duration_weeks from the purchase time; one-time and
// downloadable services never expire.
func ExpiryFor(service *models.Service, purchasedAt time.Time) *time.Time {
	if !service.Expires() {
		return nil
	}
	expiresAt := purchasedAt.UTC().Add(time.Duration(*service.DurationWeeks) * 7 * 24 * time.Hour)
	return &expiresAt
}

type CheckoutInput struct {
	ServiceID     int64
	PaymentMethod *string
}

func (s *PurchaseService) Checkout(ctx context.Context, userID int64, input CheckoutInput) (*models.Purchase, error) {
	if userID <= 0 || input.ServiceID <= 0 {
		return nil, ErrInvalidInput
	}

	service, err := s.serviceRepo.GetByID(ctx, input.ServiceID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrServiceNotFound
		}
		return nil, err
	}
	if !service.Active {
		return nil, ErrServiceNotFound
	}

	now := time.Now().UTC()
	purchase, err := s.purchaseRepo.Create(ctx, repository.CreatePurchaseInput{
		UserID:        userID,
		ServiceID:     service.ID,
		Amount:        service.Price,
		PaymentMethod: input.PaymentMethod,
		TxRef:         "TBB-" + uuid.NewString(),
		ExpiresAt:     ExpiryFor(service, now),
	})
	if err != nil {
		return nil, err
	}

	s.notifier.NotifyAdmins(ctx,
		"New pending purchase",
		fmt.Sprintf("%s purchased for %.2f, awaiting payment", service.Title, purchase.Amount),
		models.NotificationTypePurchase,
		&purchase.ID,
	)
	s.publish(purchase, "insert")
	return purchase, nil
}

type VerifyPaymentInput struct {
	TxRef         string
	TransactionID string
}

// VerifyPayment asks the gateway about the transaction and completes the
// matching purchase only on a "successful" verdict. Any other verdict
// leaves the purchase untouched.
func (s *PurchaseService) VerifyPayment(ctx context.Context, input VerifyPaymentInput) (*models.Purchase, error) {
	txRef := strings.TrimSpace(input.TxRef)
	transactionID := strings.TrimSpace(input.TransactionID)
	if txRef == "" && transactionID == "" {
		return nil, ErrInvalidInput
	}

	var verification *PaymentVerification
	var err error
	if transactionID != "" {
		verification, err = s.verifier.VerifyTransaction(ctx, transactionID)
	} else {
		verification, err = s.verifier.VerifyByReference(ctx, txRef)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrVerificationFailed, err)
	}
	if !verification.Successful() {
		return nil, ErrVerificationFailed
	}
	if s.currency != "" && !strings.EqualFold(verification.Currency, s.currency) {
		return nil, ErrCurrencyMismatch
	}

	lookupRef := verification.TxRef
	if lookupRef == "" {
		lookupRef = txRef
	}
	purchase, err := s.purchaseRepo.GetByTxRef(ctx, lookupRef)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPurchaseNotFound
		}
		return nil, err
	}

	if purchase.PaymentStatus == models.PaymentStatusCompleted {
		return purchase, nil
	}
	if purchase.PaymentStatus != models.PaymentStatusPending {
		return nil, ErrInvalidStateTransition
	}
	if verification.Amount < purchase.Amount {
		return nil, ErrAmountMismatch
	}

	completed, err := s.purchaseRepo.Complete(ctx, purchase.ID, verification.TransactionID, verification.PaymentType)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvalidStateTransition
		}
		return nil, err
	}

	s.notifier.NotifyUser(ctx, SendNotificationInput{
		UserID:     completed.UserID,
		Title:      "Payment confirmed",
		Message:    "Your payment was verified and your plan is now active.",
		Type:       models.NotificationTypePurchase,
		PurchaseID: &completed.ID,
	})
	s.publish(completed, "update")
	return completed, nil
}

// CompleteManually is the admin override for offline payments.
func (s *PurchaseService) CompleteManually(ctx context.Context, purchaseID int64) (*models.Purchase, error) {
	purchase, err := s.purchaseRepo.UpdatePaymentStatusIfCurrent(
		ctx, purchaseID, models.PaymentStatusPending, models.PaymentStatusCompleted)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvalidStateTransition
		}
		return nil, err
	}

	s.notifier.NotifyUser(ctx, SendNotificationInput{
		UserID:     purchase.UserID,
		Title:      "Payment confirmed",
		Message:    "Your payment was recorded and your plan is now active.",
		Type:       models.NotificationTypePurchase,
		PurchaseID: &purchase.ID,
	})
	s.publish(purchase, "update")
	return purchase, nil
}

func (s *PurchaseService) Cancel(ctx context.Context, purchaseID int64) (*models.Purchase, error) {
	purchase, err := s.purchaseRepo.UpdatePaymentStatusIfCurrent(
		ctx, purchaseID, models.PaymentStatusPending, models.PaymentStatusCancelled)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvalidStateTransition
		}
		return nil, err
	}
	s.publish(purchase, "update")
	return purchase, nil
}

func (s *PurchaseService) List(ctx context.Context, filter repository.PurchaseListFilter) ([]models.Purchase, error) {
	return s.purchaseRepo.List(ctx, filter)
}

// Get enforces ownership: non-admin callers only see their own purchases.
func (s *PurchaseService) Get(ctx context.Context, actorID int64, isAdmin bool, purchaseID int64) (*models.PurchaseDetail, error) {
	purchase, err := s.purchaseRepo.GetByID(ctx, purchaseID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPurchaseNotFound
		}
		return nil, err
	}
	if !isAdmin && purchase.UserID != actorID {
		return nil, ErrForbidden
	}

	detail := &models.PurchaseDetail{Purchase: *purchase}
	service, err := s.serviceRepo.GetByID(ctx, purchase.ServiceID)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}
	if err == nil {
		detail.Service = service
	}
	return detail, nil
}

type ExpiryScanResult struct {
	Scanned     int   `json:"scanned"`
	Warned      int   `json:"warned"`
	Deactivated int64 `json:"deactivated"`
}

// RunExpiryScan warns owners of purchases lapsing within the window and
// deactivates purchases already past expiry. The warning is keyed on
// (purchase, kind, expiry date), so repeated runs inside the window insert
// nothing new.
func (s *PurchaseService) RunExpiryScan(ctx context.Context) (*ExpiryScanResult, error) {
	expiring, err := s.purchaseRepo.ListExpiringWithin(ctx, ExpiryWarningWindow)
	if err != nil {
		return nil, err
	}

	result := &ExpiryScanResult{Scanned: len(expiring)}
	for _, purchase := range expiring {
		purchase := purchase
		daysLeft := int(time.Until(*purchase.ExpiresAt).Hours()/24) + 1
		dedupKey := expiryDedupKey(purchase.ID, *purchase.ExpiresAt)

		inserted, err := s.notifier.SendDeduped(ctx, SendNotificationInput{
			UserID:     purchase.UserID,
			Title:      "Plan expiring soon",
			Message:    fmt.Sprintf("Your plan expires in %d day(s). Renew to keep your sessions.", daysLeft),
			Type:       models.NotificationTypeExpiry,
			PurchaseID: &purchase.ID,
		}, dedupKey)
		if err != nil {
			return nil, err
		}
		if inserted {
			result.Warned++
		}
	}

	deactivated, err := s.purchaseRepo.DeactivateExpired(ctx)
	if err != nil {
		return nil, err
	}
	result.Deactivated = deactivated
	return result, nil
}

func expiryDedupKey(purchaseID int64, expiresAt time.Time) string {
	return fmt.Sprintf("purchase:%d:%s:%s", purchaseID, models.NotificationTypeExpiry, expiresAt.UTC().Format("2006-01-02"))
}

func (s *PurchaseService) publish(purchase *models.Purchase, action string) {
	if s.feed == nil {
		return
	}
	s.feed.PublishToUser(purchase.UserID, "purchases", action, purchase)
}
