package services

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"strings"

	"github.com/damil-o/TrainerBizBack/internal/models"
	"github.com/damil-o/TrainerBizBack/internal/repository"
)

var ErrInvalidInput = errors.New("invalid input")

type notificationStore interface {
	Create(ctx context.Context, input repository.CreateNotificationInput) (*models.Notification, error)
	CreateDeduped(ctx context.Context, input repository.CreateNotificationInput, dedupKey string) (bool, error)
}

type adminLister interface {
	ListAdminUserIDs(ctx context.Context) ([]int64, error)
}

type pushSubscriptionStore interface {
	ListByUserID(ctx context.Context, userID int64) ([]models.PushSubscription, error)
	DeleteByEndpoint(ctx context.Context, endpoint string) error
}

// ChangeFeed receives entity change events for connected clients. The
// realtime hub implements it; a nil feed disables publishing.
type ChangeFeed interface {
	PublishToUser(userID int64, table, action string, record any)
	Broadcast(table, action string, record any)
}

type SendNotificationInput struct {
	UserID     int64
	Title      string
	Message    string
	Type       string
	PurchaseID *int64
}

type NotificationService struct {
	notificationRepo notificationStore
	profileRepo      adminLister
	pushRepo         pushSubscriptionStore
	pushSender       PushSender
	feed             ChangeFeed
}

func NewNotificationService(
	notificationRepo notificationStore,
	profileRepo adminLister,
	pushRepo pushSubscriptionStore,
	pushSender PushSender,
	feed ChangeFeed,
) *NotificationService {
	return &NotificationService{
		notificationRepo: notificationRepo,
		profileRepo:      profileRepo,
		pushRepo:         pushRepo,
		pushSender:       pushSender,
		feed:             feed,
	}
}

// Send inserts exactly one notification row, then publishes it to the change
// feed and pushes it to the user's browser subscriptions. Only the insert
// can fail the call; feed and push are best effort.
func (s *NotificationService) Send(ctx context.Context, input SendNotificationInput) (*models.Notification, error) {
	if input.UserID <= 0 || strings.TrimSpace(input.Title) == "" || strings.TrimSpace(input.Message) == "" {
		return nil, ErrInvalidInput
	}
	if strings.TrimSpace(input.Type) == "" {
		input.Type = models.NotificationTypeInfo
	}

	notification, err := s.notificationRepo.Create(ctx, repository.CreateNotificationInput{
		UserID:     input.UserID,
		Title:      input.Title,
		Message:    input.Message,
		Type:       input.Type,
		PurchaseID: input.PurchaseID,
	})
	if err != nil {
		return nil, err
	}

	s.publish(notification)
	s.push(ctx, notification)
	return notification, nil
}

// SendDeduped is Send with a structured idempotency key; a duplicate key is
// a silent no-op.
func (s *NotificationService) SendDeduped(ctx context.Context, input SendNotificationInput, dedupKey string) (bool, error) {
	if input.UserID <= 0 || dedupKey == "" {
		return false, ErrInvalidInput
	}
	if strings.TrimSpace(input.Type) == "" {
		input.Type = models.NotificationTypeInfo
	}

	inserted, err := s.notificationRepo.CreateDeduped(ctx, repository.CreateNotificationInput{
		UserID:     input.UserID,
		Title:      input.Title,
		Message:    input.Message,
		Type:       input.Type,
		PurchaseID: input.PurchaseID,
	}, dedupKey)
	if err != nil || !inserted {
		return inserted, err
	}

	s.push(ctx, &models.Notification{
		UserID:  input.UserID,
		Title:   input.Title,
		Message: input.Message,
		Type:    input.Type,
	})
	return true, nil
}

// NotifyUser is the fire-and-forget fan-out used by other services: failures
// are logged and swallowed so they never fail the triggering action.
func (s *NotificationService) NotifyUser(ctx context.Context, input SendNotificationInput) {
	if _, err := s.Send(ctx, input); err != nil {
		log.Printf("notify user %d: %v", input.UserID, err)
	}
}

// NotifyAdmins fans one notification out to every admin profile.
func (s *NotificationService) NotifyAdmins(ctx context.Context, title, message, notificationType string, purchaseID *int64) {
	adminIDs, err := s.profileRepo.ListAdminUserIDs(ctx)
	if err != nil {
		log.Printf("list admins for fan-out: %v", err)
		return
	}
	for _, adminID := range adminIDs {
		s.NotifyUser(ctx, SendNotificationInput{
			UserID:     adminID,
			Title:      title,
			Message:    message,
			Type:       notificationType,
			PurchaseID: purchaseID,
		})
	}
}

func (s *NotificationService) publish(notification *models.Notification) {
	if s.feed == nil {
		return
	}
	s.feed.PublishToUser(notification.UserID, "notifications", "insert", notification)
}

func (s *NotificationService) push(ctx context.Context, notification *models.Notification) {
	if s.pushSender == nil || s.pushRepo == nil {
		return
	}

	subs, err := s.pushRepo.ListByUserID(ctx, notification.UserID)
	if err != nil {
		log.Printf("list push subscriptions for user %d: %v", notification.UserID, err)
		return
	}

	payload, err := json.Marshal(map[string]string{
		"title":   notification.Title,
		"message": notification.Message,
		"type":    notification.Type,
	})
	if err != nil {
		log.Printf("encode push payload: %v", err)
		return
	}

	for _, sub := range subs {
		if err := s.pushSender.Send(ctx, sub, payload); err != nil {
			if errors.Is(err, ErrPushGone) {
				if err := s.pushRepo.DeleteByEndpoint(ctx, sub.Endpoint); err != nil {
					log.Printf("prune push subscription: %v", err)
				}
				continue
			}
			log.Printf("push to user %d: %v", notification.UserID, err)
		}
	}
}
