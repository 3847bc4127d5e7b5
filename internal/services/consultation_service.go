package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/damil-o/TrainerBizBack/internal/models"
	"github.com/damil-o/TrainerBizBack/internal/repository"
	"github.com/jackc/pgx/v5"
)

var ErrConsultationNotFound = errors.New("consultation not found")

type consultationStore interface {
	Create(ctx context.Context, input repository.CreateConsultationInput) (*models.Consultation, error)
	GetByID(ctx context.Context, consultationID int64) (*models.Consultation, error)
	ListByUserID(ctx context.Context, userID int64) ([]models.Consultation, error)
	ListAll(ctx context.Context) ([]models.Consultation, error)
	UpdateStatusIfCurrent(ctx context.Context, consultationID int64, currentStatus, nextStatus string) (*models.Consultation, error)
	SetMeetingLink(ctx context.Context, consultationID int64, link string) (*models.Consultation, error)
}

type ConsultationService struct {
	consultationRepo consultationStore
	meetings         MeetingProvider
	notifier         bookingNotifier
}

func NewConsultationService(
	consultationRepo consultationStore,
	meetings MeetingProvider,
	notifier bookingNotifier,
) *ConsultationService {
	return &ConsultationService{
		consultationRepo: consultationRepo,
		meetings:         meetings,
		notifier:         notifier,
	}
}

type CreateConsultationInput struct {
	UserID          int64
	Kind            string
	ScheduledAt     time.Time
	DurationMinutes int
}

func (s *ConsultationService) Create(ctx context.Context, input CreateConsultationInput) (*models.Consultation, error) {
	if input.UserID <= 0 || input.DurationMinutes <= 0 {
		return nil, ErrInvalidInput
	}
	if input.Kind != models.ConsultationKindInitial && input.Kind != models.ConsultationKindWeekly {
		return nil, ErrInvalidInput
	}
	if input.ScheduledAt.Before(time.Now().Add(-1 * time.Minute)) {
		return nil, ErrInvalidInput
	}

	consultation, err := s.consultationRepo.Create(ctx, repository.CreateConsultationInput{
		UserID:          input.UserID,
		Kind:            input.Kind,
		ScheduledAt:     input.ScheduledAt.UTC(),
		DurationMinutes: input.DurationMinutes,
	})
	if err != nil {
		return nil, err
	}

	s.notifier.NotifyUser(ctx, SendNotificationInput{
		UserID:  consultation.UserID,
		Title:   "Consultation scheduled",
		Message: fmt.Sprintf("A free consultation was scheduled for %s.", consultation.ScheduledAt.Format(time.RFC1123)),
		Type:    models.NotificationTypeBooking,
	})
	return consultation, nil
}

func (s *ConsultationService) List(ctx context.Context, actorID int64, isAdmin bool) ([]models.Consultation, error) {
	if isAdmin {
		return s.consultationRepo.ListAll(ctx)
	}
	return s.consultationRepo.ListByUserID(ctx, actorID)
}

func (s *ConsultationService) Cancel(ctx context.Context, consultationID int64) (*models.Consultation, error) {
	consultation, err := s.consultationRepo.UpdateStatusIfCurrent(
		ctx, consultationID, models.BookingStatusScheduled, models.BookingStatusCancelled)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvalidStateTransition
		}
		return nil, err
	}

	s.notifier.NotifyUser(ctx, SendNotificationInput{
		UserID:  consultation.UserID,
		Title:   "Consultation cancelled",
		Message: "Your consultation was cancelled. Reach out to reschedule.",
		Type:    models.NotificationTypeBooking,
	})
	return consultation, nil
}

func (s *ConsultationService) CreateMeetingLink(ctx context.Context, consultationID int64) (*models.Consultation, error) {
	consultation, err := s.consultationRepo.GetByID(ctx, consultationID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrConsultationNotFound
		}
		return nil, err
	}
	if consultation.Status != models.BookingStatusScheduled {
		return nil, ErrInvalidStateTransition
	}

	link, err := s.meetings.CreateLink(ctx, "Consultation", consultation.ScheduledAt, consultation.DurationMinutes)
	if err != nil {
		return nil, fmt.Errorf("create meeting link: %w", err)
	}

	updated, err := s.consultationRepo.SetMeetingLink(ctx, consultationID, link)
	if err != nil {
		return nil, err
	}

	s.notifier.NotifyUser(ctx, SendNotificationInput{
		UserID:  updated.UserID,
		Title:   "Meeting link ready",
		Message: "Your consultation meeting link is ready: " + link,
		Type:    models.NotificationTypeBooking,
	})
	return updated, nil
}
