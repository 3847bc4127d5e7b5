package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/damil-o/TrainerBizBack/internal/models"
	"github.com/damil-o/TrainerBizBack/internal/repository"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrConflict            = errors.New("conflict")
	ErrInvalidStatus       = errors.New("invalid status")
	ErrBookingNotFound     = errors.New("booking not found")
	ErrNoCompletedPurchase = errors.New("no completed purchase for this service")
)

// calendarLockKey serializes writes to the single trainer calendar.
const calendarLockKey = 914237

type bookingNotifier interface {
	NotifyUser(ctx context.Context, input SendNotificationInput)
	NotifyAdmins(ctx context.Context, title, message, notificationType string, purchaseID *int64)
}

type BookingService struct {
	db          *pgxpool.Pool
	bookingRepo *repository.BookingRepository
	meetings    MeetingProvider
	notifier    bookingNotifier
	feed        ChangeFeed
}

func NewBookingService(
	db *pgxpool.Pool,
	bookingRepo *repository.BookingRepository,
	meetings MeetingProvider,
	notifier bookingNotifier,
	feed ChangeFeed,
) *BookingService {
	return &BookingService{
		db:          db,
		bookingRepo: bookingRepo,
		meetings:    meetings,
		notifier:    notifier,
		feed:        feed,
	}
}

type CreateBookingInput struct {
	PurchaseID      int64
	ScheduledAt     time.Time
	DurationMinutes int
	Notes           *string
}

// Create schedules a session against a purchase. The purchase must be
// completed, active and unexpired; the check runs in the same transaction
// as the insert, under the calendar lock, so two racing requests cannot both
// pass the gate or double-book the slot.
func (s *BookingService) Create(
	ctx context.Context,
	actorID int64,
	isAdmin bool,
	input CreateBookingInput,
) (*models.Booking, error) {
	if input.PurchaseID <= 0 || input.DurationMinutes <= 0 {
		return nil, ErrInvalidInput
	}
	if input.ScheduledAt.Before(time.Now().Add(-1 * time.Minute)) {
		return nil, ErrInvalidInput
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	txBookingRepo := repository.NewBookingRepository(tx)
	txPurchaseRepo := repository.NewPurchaseRepository(tx)

	if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock($1)", calendarLockKey); err != nil {
		return nil, err
	}

	purchase, err := txPurchaseRepo.GetByIDForUpdate(ctx, input.PurchaseID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPurchaseNotFound
		}
		return nil, err
	}
	if !isAdmin && purchase.UserID != actorID {
		return nil, ErrForbidden
	}
	if err := purchaseBookable(purchase); err != nil {
		return nil, err
	}

	hasConflict, err := txBookingRepo.HasConflict(ctx, input.ScheduledAt.UTC(), input.DurationMinutes)
	if err != nil {
		return nil, err
	}
	if hasConflict {
		return nil, ErrConflict
	}

	booking, err := txBookingRepo.Create(ctx, repository.CreateBookingInput{
		PurchaseID:      purchase.ID,
		UserID:          purchase.UserID,
		ScheduledAt:     input.ScheduledAt.UTC(),
		DurationMinutes: input.DurationMinutes,
		Notes:           input.Notes,
	})
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	when := booking.ScheduledAt.Format(time.RFC1123)
	if isAdmin && actorID != purchase.UserID {
		s.notifier.NotifyUser(ctx, SendNotificationInput{
			UserID:     purchase.UserID,
			Title:      "Session scheduled",
			Message:    fmt.Sprintf("A training session was scheduled for %s.", when),
			Type:       models.NotificationTypeBooking,
			PurchaseID: &purchase.ID,
		})
	} else {
		s.notifier.NotifyAdmins(ctx,
			"Session booked",
			fmt.Sprintf("A client booked a session for %s.", when),
			models.NotificationTypeBooking,
			&purchase.ID,
		)
	}
	s.publish(booking, "insert")
	return booking, nil
}

// purchaseBookable is the gate a purchase must pass before any booking can
// reference it.
func purchaseBookable(purchase *models.Purchase) error {
	if purchase.PaymentStatus != models.PaymentStatusCompleted {
		return ErrNoCompletedPurchase
	}
	if !purchase.Active {
		return ErrNoCompletedPurchase
	}
	if purchase.ExpiresAt != nil && !purchase.ExpiresAt.After(time.Now().UTC()) {
		return ErrNoCompletedPurchase
	}
	return nil
}

func (s *BookingService) List(
	ctx context.Context,
	actorID int64,
	isAdmin bool,
	filter repository.BookingListFilter,
) ([]models.Booking, error) {
	if !isAdmin {
		filter.UserID = actorID
	}
	return s.bookingRepo.List(ctx, filter)
}

func (s *BookingService) Get(ctx context.Context, actorID int64, isAdmin bool, bookingID int64) (*models.Booking, error) {
	booking, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	if !isAdmin && booking.UserID != actorID {
		return nil, ErrForbidden
	}
	return booking, nil
}

func (s *BookingService) UpdateStatus(
	ctx context.Context,
	actorID int64,
	isAdmin bool,
	bookingID int64,
	requestedStatus string,
) (*models.Booking, error) {
	booking, err := s.Get(ctx, actorID, isAdmin, bookingID)
	if err != nil {
		return nil, err
	}

	nextStatus, err := normalizeBookingStatus(requestedStatus)
	if err != nil {
		return nil, err
	}
	if err := validateBookingTransition(isAdmin, booking, nextStatus); err != nil {
		return nil, err
	}

	updated, err := s.bookingRepo.UpdateStatusIfCurrent(ctx, bookingID, booking.Status, nextStatus)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvalidStateTransition
		}
		return nil, err
	}
	s.publish(updated, "update")
	return updated, nil
}

// CreateMeetingLink is a separate on-demand step after scheduling; today the
// provider fabricates the link, later a calendar API takes its place.
func (s *BookingService) CreateMeetingLink(ctx context.Context, bookingID int64) (*models.Booking, error) {
	booking, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	if booking.Status != models.BookingStatusScheduled {
		return nil, ErrInvalidStateTransition
	}

	link, err := s.meetings.CreateLink(ctx, "Training session", booking.ScheduledAt, booking.DurationMinutes)
	if err != nil {
		return nil, fmt.Errorf("create meeting link: %w", err)
	}

	updated, err := s.bookingRepo.SetMeetingLink(ctx, bookingID, link)
	if err != nil {
		return nil, err
	}

	s.notifier.NotifyUser(ctx, SendNotificationInput{
		UserID:  updated.UserID,
		Title:   "Meeting link ready",
		Message: "Your session meeting link is ready: " + link,
		Type:    models.NotificationTypeBooking,
	})
	s.publish(updated, "update")
	return updated, nil
}

func normalizeBookingStatus(status string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "complete", "completed":
		return models.BookingStatusCompleted, nil
	case "cancel", "cancelled", "canceled":
		return models.BookingStatusCancelled, nil
	default:
		return "", ErrInvalidStatus
	}
}

func validateBookingTransition(isAdmin bool, booking *models.Booking, nextStatus string) error {
	if booking.Status != models.BookingStatusScheduled {
		return ErrInvalidStateTransition
	}
	if nextStatus == models.BookingStatusCompleted && !isAdmin {
		return ErrForbidden
	}
	return nil
}

func (s *BookingService) publish(booking *models.Booking, action string) {
	if s.feed == nil {
		return
	}
	s.feed.PublishToUser(booking.UserID, "bookings", action, booking)
}
