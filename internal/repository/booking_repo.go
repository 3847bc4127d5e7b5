package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/damil-o/TrainerBizBack/internal/models"
)

type CreateBookingInput struct {
	PurchaseID      int64
	UserID          int64
	ScheduledAt     time.Time
	DurationMinutes int
	Notes           *string
}

type BookingListFilter struct {
	UserID    int64
	Status    string
	Timeframe string
}

type BookingRepository struct {
	db DBTX
}

func NewBookingRepository(db DBTX) *BookingRepository {
	return &BookingRepository{db: db}
}

const bookingColumns = `id, purchase_id, user_id, scheduled_at, duration_min, status,
	meeting_link, notes, created_at, updated_at`

func (r *BookingRepository) Create(ctx context.Context, input CreateBookingInput) (*models.Booking, error) {
	query := `
		INSERT INTO bookings (purchase_id, user_id, scheduled_at, duration_min, status, notes)
		VALUES ($1, $2, $3, $4, 'scheduled', $5)
		RETURNING ` + bookingColumns
	return r.scanOne(r.db.QueryRow(ctx, query,
		input.PurchaseID,
		input.UserID,
		input.ScheduledAt,
		input.DurationMinutes,
		input.Notes,
	))
}

func (r *BookingRepository) GetByID(ctx context.Context, bookingID int64) (*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`
	return r.scanOne(r.db.QueryRow(ctx, query, bookingID))
}

func (r *BookingRepository) List(ctx context.Context, filter BookingListFilter) ([]models.Booking, error) {
	args := []any{}
	whereParts := []string{}

	if filter.UserID > 0 {
		args = append(args, filter.UserID)
		whereParts = append(whereParts, fmt.Sprintf("user_id = $%d", len(args)))
	}
	if status := strings.TrimSpace(filter.Status); status != "" {
		args = append(args, status)
		whereParts = append(whereParts, fmt.Sprintf("status = $%d", len(args)))
	}
	switch strings.TrimSpace(filter.Timeframe) {
	case "upcoming":
		whereParts = append(whereParts, "(scheduled_at + (duration_min * INTERVAL '1 minute')) > NOW()")
	case "past":
		whereParts = append(whereParts, "(scheduled_at + (duration_min * INTERVAL '1 minute')) <= NOW()")
	}

	where := ""
	if len(whereParts) > 0 {
		where = "WHERE " + strings.Join(whereParts, " AND ")
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM bookings
		%s
		ORDER BY scheduled_at ASC, id ASC
	`, bookingColumns, where)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	bookings := make([]models.Booking, 0)
	for rows.Next() {
		var booking models.Booking
		if err := scanBooking(rows, &booking); err != nil {
			return nil, err
		}
		bookings = append(bookings, booking)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return bookings, nil
}

func (r *BookingRepository) UpdateStatusIfCurrent(
	ctx context.Context,
	bookingID int64,
	currentStatus string,
	nextStatus string,
) (*models.Booking, error) {
	query := `
		UPDATE bookings
		SET status = $3, updated_at = NOW()
		WHERE id = $1 AND status = $2
		RETURNING ` + bookingColumns
	return r.scanOne(r.db.QueryRow(ctx, query, bookingID, currentStatus, nextStatus))
}

func (r *BookingRepository) SetMeetingLink(ctx context.Context, bookingID int64, link string) (*models.Booking, error) {
	query := `
		UPDATE bookings
		SET meeting_link = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + bookingColumns
	return r.scanOne(r.db.QueryRow(ctx, query, bookingID, link))
}

// HasConflict checks the single trainer calendar for an overlapping
// non-cancelled booking.
func (r *BookingRepository) HasConflict(
	ctx context.Context,
	requestedTime time.Time,
	durationMinutes int,
) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1
			FROM bookings
			WHERE status <> 'cancelled'
			  AND scheduled_at < ($1::timestamptz + ($2::int * INTERVAL '1 minute'))
			  AND (scheduled_at + (duration_min * INTERVAL '1 minute')) > $1::timestamptz
		)
	`
	var hasConflict bool
	if err := r.db.QueryRow(ctx, query, requestedTime, durationMinutes).Scan(&hasConflict); err != nil {
		return false, err
	}
	return hasConflict, nil
}

func scanBooking(row rowScanner, booking *models.Booking) error {
	return row.Scan(
		&booking.ID,
		&booking.PurchaseID,
		&booking.UserID,
		&booking.ScheduledAt,
		&booking.DurationMinutes,
		&booking.Status,
		&booking.MeetingLink,
		&booking.Notes,
		&booking.CreatedAt,
		&booking.UpdatedAt,
	)
}

func (r *BookingRepository) scanOne(row rowScanner) (*models.Booking, error) {
	var booking models.Booking
	if err := scanBooking(row, &booking); err != nil {
		return nil, err
	}
	return &booking, nil
}
