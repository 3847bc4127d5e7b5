package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/damil-o/TrainerBizBack/internal/models"
	"github.com/jackc/pgx/v5"
)

var ErrMissingDeliveryField = errors.New("purchase id, pdf path and user email are all required")

// signedURLTTL bounds how long an emailed download link stays valid.
const signedURLTTL = 24 * time.Hour

type deliveryPurchaseStore interface {
	GetByID(ctx context.Context, purchaseID int64) (*models.Purchase, error)
	MarkDelivered(ctx context.Context, purchaseID int64) (*models.Purchase, error)
}

type signedURLProvider interface {
	GetSignedURL(ctx context.Context, fileURL string, ttl time.Duration) (string, error)
}

type DeliveryService struct {
	purchaseRepo deliveryPurchaseStore
	storage      signedURLProvider
	mailer       Mailer
}

func NewDeliveryService(purchaseRepo deliveryPurchaseStore, storage signedURLProvider, mailer Mailer) *DeliveryService {
	return &DeliveryService{
		purchaseRepo: purchaseRepo,
		storage:      storage,
		mailer:       mailer,
	}
}

type DeliverPDFInput struct {
	PurchaseID int64
	PDFPath    string
	UserEmail  string
}

// DeliverPDF emails a time-limited download link for a purchased file and
// marks the purchase delivered. Validation happens before either provider is
// touched.
func (s *DeliveryService) DeliverPDF(ctx context.Context, input DeliverPDFInput) (*models.Purchase, error) {
	if input.PurchaseID <= 0 || strings.TrimSpace(input.PDFPath) == "" || strings.TrimSpace(input.UserEmail) == "" {
		return nil, ErrMissingDeliveryField
	}

	purchase, err := s.purchaseRepo.GetByID(ctx, input.PurchaseID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPurchaseNotFound
		}
		return nil, err
	}
	if purchase.PaymentStatus != models.PaymentStatusCompleted {
		return nil, ErrInvalidStateTransition
	}

	signedURL, err := s.storage.GetSignedURL(ctx, input.PDFPath, signedURLTTL)
	if err != nil {
		return nil, fmt.Errorf("sign download url: %w", err)
	}

	body := fmt.Sprintf(
		"Thank you for your purchase!\n\nDownload your plan here (link valid for 24 hours):\n%s\n",
		signedURL,
	)
	if err := s.mailer.Send(ctx, input.UserEmail, "Your plan is ready", body); err != nil {
		return nil, fmt.Errorf("email download link: %w", err)
	}

	return s.purchaseRepo.MarkDelivered(ctx, purchase.ID)
}
