package repository

import (
	"context"

	"github.com/damil-o/TrainerBizBack/internal/models"
)

type CreateNotificationInput struct {
	UserID     int64
	Title      string
	Message    string
	Type       string
	PurchaseID *int64
}

type NotificationRepository struct {
	db DBTX
}

func NewNotificationRepository(db DBTX) *NotificationRepository {
	return &NotificationRepository{db: db}
}

const notificationColumns = `id, user_id, title, message, type, purchase_id, read, created_at`

func (r *NotificationRepository) Create(ctx context.Context, input CreateNotificationInput) (*models.Notification, error) {
	query := `
		INSERT INTO notifications (user_id, title, message, type, purchase_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + notificationColumns
	return r.scanOne(r.db.QueryRow(ctx, query,
		input.UserID,
		input.Title,
		input.Message,
		input.Type,
		input.PurchaseID,
	))
}

// CreateDeduped inserts a notification carrying a structured idempotency key.
// A second insert with the same key is a no-op and reports inserted=false.
// The conflict target repeats the partial-index predicate; Postgres only
// infers a partial unique index as arbiter when the predicate is spelled out.
func (r *NotificationRepository) CreateDeduped(
	ctx context.Context,
	input CreateNotificationInput,
	dedupKey string,
) (bool, error) {
	query := `
		INSERT INTO notifications (user_id, title, message, type, purchase_id, dedup_key)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (dedup_key) WHERE dedup_key IS NOT NULL DO NOTHING
	`
	tag, err := r.db.Exec(ctx, query,
		input.UserID,
		input.Title,
		input.Message,
		input.Type,
		input.PurchaseID,
		dedupKey,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *NotificationRepository) ListByUserID(ctx context.Context, userID int64, unreadOnly bool) ([]models.Notification, error) {
	query := `SELECT ` + notificationColumns + ` FROM notifications WHERE user_id = $1`
	if unreadOnly {
		query += ` AND read = FALSE`
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	notifications := make([]models.Notification, 0)
	for rows.Next() {
		var notification models.Notification
		if err := scanNotification(rows, &notification); err != nil {
			return nil, err
		}
		notifications = append(notifications, notification)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return notifications, nil
}

func (r *NotificationRepository) UnreadCount(ctx context.Context, userID int64) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND read = FALSE`
	if err := r.db.QueryRow(ctx, query, userID).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

// MarkRead only touches the caller's own rows.
func (r *NotificationRepository) MarkRead(ctx context.Context, notificationID, userID int64) (*models.Notification, error) {
	query := `
		UPDATE notifications
		SET read = TRUE
		WHERE id = $1 AND user_id = $2
		RETURNING ` + notificationColumns
	return r.scanOne(r.db.QueryRow(ctx, query, notificationID, userID))
}

func (r *NotificationRepository) MarkAllRead(ctx context.Context, userID int64) (int64, error) {
	tag, err := r.db.Exec(ctx, `UPDATE notifications SET read = TRUE WHERE user_id = $1 AND read = FALSE`, userID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func scanNotification(row rowScanner, notification *models.Notification) error {
	return row.Scan(
		&notification.ID,
		&notification.UserID,
		&notification.Title,
		&notification.Message,
		&notification.Type,
		&notification.PurchaseID,
		&notification.Read,
		&notification.CreatedAt,
	)
}

func (r *NotificationRepository) scanOne(row rowScanner) (*models.Notification, error) {
	var notification models.Notification
	if err := scanNotification(row, &notification); err != nil {
		return nil, err
	}
	return &notification, nil
}
