package repository

import (
	"context"
	"time"

	"github.com/damil-o/TrainerBizBack/internal/models"
)

type CreateConsultationInput struct {
	UserID          int64
	Kind            string
	ScheduledAt     time.Time
	DurationMinutes int
}

type ConsultationRepository struct {
	db DBTX
}

func NewConsultationRepository(db DBTX) *ConsultationRepository {
	return &ConsultationRepository{db: db}
}

const consultationColumns = `id, user_id, kind, scheduled_at, duration_min, status,
	meeting_link, created_at, updated_at`

func (r *ConsultationRepository) Create(ctx context.Context, input CreateConsultationInput) (*models.Consultation, error) {
	query := `
		INSERT INTO consultations (user_id, kind, scheduled_at, duration_min, status)
		VALUES ($1, $2, $3, $4, 'scheduled')
		RETURNING ` + consultationColumns
	return r.scanOne(r.db.QueryRow(ctx, query,
		input.UserID,
		input.Kind,
		input.ScheduledAt,
		input.DurationMinutes,
	))
}

func (r *ConsultationRepository) GetByID(ctx context.Context, consultationID int64) (*models.Consultation, error) {
	query := `SELECT ` + consultationColumns + ` FROM consultations WHERE id = $1`
	return r.scanOne(r.db.QueryRow(ctx, query, consultationID))
}

func (r *ConsultationRepository) ListByUserID(ctx context.Context, userID int64) ([]models.Consultation, error) {
	query := `SELECT ` + consultationColumns + ` FROM consultations WHERE user_id = $1 ORDER BY scheduled_at ASC, id ASC`
	return r.list(ctx, query, userID)
}

func (r *ConsultationRepository) ListAll(ctx context.Context) ([]models.Consultation, error) {
	query := `SELECT ` + consultationColumns + ` FROM consultations ORDER BY scheduled_at ASC, id ASC`
	return r.list(ctx, query)
}

func (r *ConsultationRepository) UpdateStatusIfCurrent(
	ctx context.Context,
	consultationID int64,
	currentStatus string,
	nextStatus string,
) (*models.Consultation, error) {
	query := `
		UPDATE consultations
		SET status = $3, updated_at = NOW()
		WHERE id = $1 AND status = $2
		RETURNING ` + consultationColumns
	return r.scanOne(r.db.QueryRow(ctx, query, consultationID, currentStatus, nextStatus))
}

func (r *ConsultationRepository) SetMeetingLink(ctx context.Context, consultationID int64, link string) (*models.Consultation, error) {
	query := `
		UPDATE consultations
		SET meeting_link = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + consultationColumns
	return r.scanOne(r.db.QueryRow(ctx, query, consultationID, link))
}

func (r *ConsultationRepository) list(ctx context.Context, query string, args ...any) ([]models.Consultation, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	consultations := make([]models.Consultation, 0)
	for rows.Next() {
		var consultation models.Consultation
		if err := scanConsultation(rows, &consultation); err != nil {
			return nil, err
		}
		consultations = append(consultations, consultation)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return consultations, nil
}

func scanConsultation(row rowScanner, consultation *models.Consultation) error {
	return row.Scan(
		&consultation.ID,
		&consultation.UserID,
		&consultation.Kind,
		&consultation.ScheduledAt,
		&consultation.DurationMinutes,
		&consultation.Status,
		&consultation.MeetingLink,
		&consultation.CreatedAt,
		&consultation.UpdatedAt,
	)
}

func (r *ConsultationRepository) scanOne(row rowScanner) (*models.Consultation, error) {
	var consultation models.Consultation
	if err := scanConsultation(row, &consultation); err != nil {
		return nil, err
	}
	return &consultation, nil
}
