package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/damil-o/TrainerBizBack/internal/models"
	"github.com/jackc/pgx/v5"
)

type stubDeliveryStore struct {
	purchase       *models.Purchase
	getErr         error
	delivered      *models.Purchase
	deliveredCalls int
}

func (s *stubDeliveryStore) GetByID(_ context.Context, _ int64) (*models.Purchase, error) {
	return s.purchase, s.getErr
}

func (s *stubDeliveryStore) MarkDelivered(_ context.Context, _ int64) (*models.Purchase, error) {
	s.deliveredCalls++
	return s.delivered, nil
}

type stubSigner struct {
	signed string
	err    error
	calls  int
}

func (s *stubSigner) GetSignedURL(_ context.Context, _ string, _ time.Duration) (string, error) {
	s.calls++
	return s.signed, s.err
}

type stubMailer struct {
	err   error
	calls int
	to    string
	body  string
}

func (m *stubMailer) Send(_ context.Context, to, _, body string) error {
	m.calls++
	m.to = to
	m.body = body
	return m.err
}

func TestDeliverPDFValidatesBeforeTouchingProviders(t *testing.T) {
	signer := &stubSigner{}
	mailer := &stubMailer{}
	svc := NewDeliveryService(&stubDeliveryStore{}, signer, mailer)

	inputs := []DeliverPDFInput{
		{PDFPath: "plans/x.pdf", UserEmail: "a@b.com"},
		{PurchaseID: 1, UserEmail: "a@b.com"},
		{PurchaseID: 1, PDFPath: "plans/x.pdf"},
		{PurchaseID: 1, PDFPath: "   ", UserEmail: "a@b.com"},
	}
	for _, input := range inputs {
		if _, err := svc.DeliverPDF(context.Background(), input); !errors.Is(err, ErrMissingDeliveryField) {
			t.Fatalf("input %+v: expected ErrMissingDeliveryField, got %v", input, err)
		}
	}
	if signer.calls != 0 || mailer.calls != 0 {
		t.Fatalf("expected no provider calls, got signer=%d mailer=%d", signer.calls, mailer.calls)
	}
}

func TestDeliverPDFRequiresCompletedPurchase(t *testing.T) {
	store := &stubDeliveryStore{purchase: &models.Purchase{ID: 4, PaymentStatus: models.PaymentStatusPending}}
	svc := NewDeliveryService(store, &stubSigner{}, &stubMailer{})

	input := DeliverPDFInput{PurchaseID: 4, PDFPath: "plans/x.pdf", UserEmail: "a@b.com"}
	if _, err := svc.DeliverPDF(context.Background(), input); !errors.Is(err, ErrInvalidStateTransition) {
		t.Fatalf("expected ErrInvalidStateTransition, got %v", err)
	}
}

func TestDeliverPDFUnknownPurchase(t *testing.T) {
	store := &stubDeliveryStore{getErr: pgx.ErrNoRows}
	svc := NewDeliveryService(store, &stubSigner{}, &stubMailer{})

	input := DeliverPDFInput{PurchaseID: 4, PDFPath: "plans/x.pdf", UserEmail: "a@b.com"}
	if _, err := svc.DeliverPDF(context.Background(), input); !errors.Is(err, ErrPurchaseNotFound) {
		t.Fatalf("expected ErrPurchaseNotFound, got %v", err)
	}
}

func TestDeliverPDFEmailsSignedLinkAndMarksDelivered(t *testing.T) {
	completed := &models.Purchase{ID: 4, PaymentStatus: models.PaymentStatusCompleted}
	store := &stubDeliveryStore{
		purchase:  completed,
		delivered: &models.Purchase{ID: 4, PaymentStatus: models.PaymentStatusCompleted, Delivered: true},
	}
	signer := &stubSigner{signed: "https://storage.example.com/signed/x.pdf?token=abc"}
	mailer := &stubMailer{}
	svc := NewDeliveryService(store, signer, mailer)

	purchase, err := svc.DeliverPDF(context.Background(), DeliverPDFInput{
		PurchaseID: 4,
		PDFPath:    "plans/x.pdf",
		UserEmail:  "client@example.com",
	})
	if err != nil {
		t.Fatalf("DeliverPDF: %v", err)
	}
	if !purchase.Delivered {
		t.Fatal("expected purchase marked delivered")
	}
	if mailer.to != "client@example.com" {
		t.Fatalf("expected mail to client, got %q", mailer.to)
	}
	if !strings.Contains(mailer.body, signer.signed) {
		t.Fatalf("expected signed link in body, got %q", mailer.body)
	}
	if store.deliveredCalls != 1 {
		t.Fatalf("expected one delivered write, got %d", store.deliveredCalls)
	}
}

func TestDeliverPDFMailFailureLeavesPurchaseUndelivered(t *testing.T) {
	completed := &models.Purchase{ID: 4, PaymentStatus: models.PaymentStatusCompleted}
	store := &stubDeliveryStore{purchase: completed}
	mailer := &stubMailer{err: errors.New("smtp down")}
	svc := NewDeliveryService(store, &stubSigner{signed: "https://x"}, mailer)

	input := DeliverPDFInput{PurchaseID: 4, PDFPath: "plans/x.pdf", UserEmail: "a@b.com"}
	if _, err := svc.DeliverPDF(context.Background(), input); err == nil {
		t.Fatal("expected mail failure to surface")
	}
	if store.deliveredCalls != 0 {
		t.Fatalf("expected no delivered write, got %d", store.deliveredCalls)
	}
}
