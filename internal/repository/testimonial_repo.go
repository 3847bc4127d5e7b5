package repository

import (
	"context"

	"github.com/damil-o/TrainerBizBack/internal/models"
)

type CreateTestimonialInput struct {
	UserID   int64
	Kind     string
	Content  *string
	VideoURL *string
}

type TestimonialRepository struct {
	db DBTX
}

func NewTestimonialRepository(db DBTX) *TestimonialRepository {
	return &TestimonialRepository{db: db}
}

const testimonialColumns = `id, user_id, kind, content, video_url, status, featured, created_at, updated_at`

func (r *TestimonialRepository) Create(ctx context.Context, input CreateTestimonialInput) (*models.Testimonial, error) {
	query := `
		INSERT INTO testimonials (user_id, kind, content, video_url, status)
		VALUES ($1, $2, $3, $4, 'pending')
		RETURNING ` + testimonialColumns
	return r.scanOne(r.db.QueryRow(ctx, query,
		input.UserID,
		input.Kind,
		input.Content,
		input.VideoURL,
	))
}

func (r *TestimonialRepository) GetByID(ctx context.Context, testimonialID int64) (*models.Testimonial, error) {
	query := `SELECT ` + testimonialColumns + ` FROM testimonials WHERE id = $1`
	return r.scanOne(r.db.QueryRow(ctx, query, testimonialID))
}

func (r *TestimonialRepository) ListApproved(ctx context.Context) ([]models.Testimonial, error) {
	query := `
		SELECT ` + testimonialColumns + `
		FROM testimonials
		WHERE status = 'approved'
		ORDER BY featured DESC, created_at DESC, id DESC
	`
	return r.list(ctx, query)
}

func (r *TestimonialRepository) ListAll(ctx context.Context) ([]models.Testimonial, error) {
	query := `SELECT ` + testimonialColumns + ` FROM testimonials ORDER BY created_at DESC, id DESC`
	return r.list(ctx, query)
}

func (r *TestimonialRepository) SetStatus(ctx context.Context, testimonialID int64, status string) (*models.Testimonial, error) {
	query := `
		UPDATE testimonials
		SET status = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + testimonialColumns
	return r.scanOne(r.db.QueryRow(ctx, query, testimonialID, status))
}

func (r *TestimonialRepository) SetFeatured(ctx context.Context, testimonialID int64, featured bool) (*models.Testimonial, error) {
	query := `
		UPDATE testimonials
		SET featured = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + testimonialColumns
	return r.scanOne(r.db.QueryRow(ctx, query, testimonialID, featured))
}

func (r *TestimonialRepository) list(ctx context.Context, query string, args ...any) ([]models.Testimonial, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	testimonials := make([]models.Testimonial, 0)
	for rows.Next() {
		var testimonial models.Testimonial
		if err := scanTestimonial(rows, &testimonial); err != nil {
			return nil, err
		}
		testimonials = append(testimonials, testimonial)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return testimonials, nil
}

func scanTestimonial(row rowScanner, testimonial *models.Testimonial) error {
	return row.Scan(
		&testimonial.ID,
		&testimonial.UserID,
		&testimonial.Kind,
		&testimonial.Content,
		&testimonial.VideoURL,
		&testimonial.Status,
		&testimonial.Featured,
		&testimonial.CreatedAt,
		&testimonial.UpdatedAt,
	)
}

func (r *TestimonialRepository) scanOne(row rowScanner) (*models.Testimonial, error) {
	var testimonial models.Testimonial
	if err := scanTestimonial(row, &testimonial); err != nil {
		return nil, err
	}
	return &testimonial, nil
}
