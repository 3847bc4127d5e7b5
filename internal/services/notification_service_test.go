package services

import (
	"context"
	"errors"
	"testing"

	"github.com/damil-o/TrainerBizBack/internal/models"
	"github.com/damil-o/TrainerBizBack/internal/repository"
)

type stubNotificationStore struct {
	inserts      int
	dedupInserts int
	seen         map[string]bool
	lastInput    repository.CreateNotificationInput
	createErr    error
}

func (s *stubNotificationStore) Create(_ context.Context, input repository.CreateNotificationInput) (*models.Notification, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	s.inserts++
	s.lastInput = input
	return &models.Notification{
		ID:      int64(s.inserts),
		UserID:  input.UserID,
		Title:   input.Title,
		Message: input.Message,
		Type:    input.Type,
	}, nil
}

func (s *stubNotificationStore) CreateDeduped(_ context.Context, input repository.CreateNotificationInput, dedupKey string) (bool, error) {
	if s.seen == nil {
		s.seen = make(map[string]bool)
	}
	if s.seen[dedupKey] {
		return false, nil
	}
	s.seen[dedupKey] = true
	s.dedupInserts++
	s.lastInput = input
	return true, nil
}

type stubAdminLister struct {
	ids []int64
	err error
}

func (s *stubAdminLister) ListAdminUserIDs(_ context.Context) ([]int64, error) {
	return s.ids, s.err
}

type stubPushStore struct {
	subs    []models.PushSubscription
	deleted []string
}

func (s *stubPushStore) ListByUserID(_ context.Context, _ int64) ([]models.PushSubscription, error) {
	return s.subs, nil
}

func (s *stubPushStore) DeleteByEndpoint(_ context.Context, endpoint string) error {
	s.deleted = append(s.deleted, endpoint)
	return nil
}

type stubPushSender struct {
	err   error
	calls int
}

func (s *stubPushSender) Send(_ context.Context, _ models.PushSubscription, _ []byte) error {
	s.calls++
	return s.err
}

func TestSendInsertsExactlyOneRow(t *testing.T) {
	store := &stubNotificationStore{}
	svc := NewNotificationService(store, &stubAdminLister{}, &stubPushStore{}, &stubPushSender{}, nil)

	notification, err := svc.Send(context.Background(), SendNotificationInput{
		UserID:  42,
		Title:   "Payment confirmed",
		Message: "Your plan is active.",
	})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if store.inserts != 1 {
		t.Fatalf("expected one insert, got %d", store.inserts)
	}
	if notification.Type != models.NotificationTypeInfo {
		t.Fatalf("expected default info type, got %q", notification.Type)
	}
}

func TestSendRejectsBlankFields(t *testing.T) {
	svc := NewNotificationService(&stubNotificationStore{}, &stubAdminLister{}, &stubPushStore{}, &stubPushSender{}, nil)

	inputs := []SendNotificationInput{
		{Title: "t", Message: "m"},
		{UserID: 1, Message: "m"},
		{UserID: 1, Title: "t", Message: "   "},
	}
	for _, input := range inputs {
		if _, err := svc.Send(context.Background(), input); !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("input %+v: expected ErrInvalidInput, got %v", input, err)
		}
	}
}

func TestSendDedupedSuppressesRepeatKey(t *testing.T) {
	store := &stubNotificationStore{}
	svc := NewNotificationService(store, &stubAdminLister{}, &stubPushStore{}, &stubPushSender{}, nil)

	input := SendNotificationInput{UserID: 42, Title: "Plan expiring soon", Message: "3 days left", Type: models.NotificationTypeExpiry}

	inserted, err := svc.SendDeduped(context.Background(), input, "purchase:7:expiry_warning:2026-09-01")
	if err != nil || !inserted {
		t.Fatalf("expected first insert, got inserted=%v err=%v", inserted, err)
	}
	inserted, err = svc.SendDeduped(context.Background(), input, "purchase:7:expiry_warning:2026-09-01")
	if err != nil {
		t.Fatalf("SendDeduped: %v", err)
	}
	if inserted {
		t.Fatal("expected duplicate key to be suppressed")
	}
	if store.dedupInserts != 1 {
		t.Fatalf("expected one row, got %d", store.dedupInserts)
	}
}

func TestNotifyAdminsFansOutToEveryAdmin(t *testing.T) {
	store := &stubNotificationStore{}
	admins := &stubAdminLister{ids: []int64{1, 5, 9}}
	svc := NewNotificationService(store, admins, &stubPushStore{}, &stubPushSender{}, nil)

	svc.NotifyAdmins(context.Background(), "New pending purchase", "awaiting payment", models.NotificationTypePurchase, nil)

	if store.inserts != 3 {
		t.Fatalf("expected 3 inserts, got %d", store.inserts)
	}
}

func TestSendPrunesGonePushEndpoints(t *testing.T) {
	pushStore := &stubPushStore{subs: []models.PushSubscription{
		{UserID: 42, Endpoint: "https://push.example.com/gone"},
	}}
	sender := &stubPushSender{err: ErrPushGone}
	svc := NewNotificationService(&stubNotificationStore{}, &stubAdminLister{}, pushStore, sender, nil)

	if _, err := svc.Send(context.Background(), SendNotificationInput{UserID: 42, Title: "t", Message: "m"}); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if len(pushStore.deleted) != 1 || pushStore.deleted[0] != "https://push.example.com/gone" {
		t.Fatalf("expected gone endpoint pruned, got %v", pushStore.deleted)
	}
}
