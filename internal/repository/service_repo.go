package repository

import (
	"context"

	"github.com/damil-o/TrainerBizBack/internal/models"
)

type CreateServiceInput struct {
	Title             string
	Description       *string
	Type              string
	Price             float64
	DurationWeeks     *int
	SessionCount      *int
	IncludesMeet      bool
	IncludesNutrition bool
	IncludesWorkout   bool
}

type UpdateServiceInput struct {
	Title             *string
	Description       *string
	Price             *float64
	DurationWeeks     *int
	SessionCount      *int
	IncludesMeet      *bool
	IncludesNutrition *bool
	IncludesWorkout   *bool
	Active            *bool
}

type ServiceRepository struct {
	db DBTX
}

func NewServiceRepository(db DBTX) *ServiceRepository {
	return &ServiceRepository{db: db}
}

const serviceColumns = `id, title, description, type, price, duration_weeks, session_count,
	includes_meet, includes_nutrition, includes_workout, active, created_at, updated_at`

func (r *ServiceRepository) Create(ctx context.Context, input CreateServiceInput) (*models.Service, error) {
	query := `
		INSERT INTO services (title, description, type, price, duration_weeks, session_count,
			includes_meet, includes_nutrition, includes_workout)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING ` + serviceColumns
	return r.scanOne(r.db.QueryRow(ctx, query,
		input.Title,
		input.Description,
		input.Type,
		input.Price,
		input.DurationWeeks,
		input.SessionCount,
		input.IncludesMeet,
		input.IncludesNutrition,
		input.IncludesWorkout,
	))
}

func (r *ServiceRepository) GetByID(ctx context.Context, serviceID int64) (*models.Service, error) {
	query := `SELECT ` + serviceColumns + ` FROM services WHERE id = $1`
	return r.scanOne(r.db.QueryRow(ctx, query, serviceID))
}

func (r *ServiceRepository) UpdatePartial(ctx context.Context, serviceID int64, input UpdateServiceInput) (*models.Service, error) {
	query := `
		UPDATE services
		SET title = COALESCE($1, title),
			description = COALESCE($2, description),
			price = COALESCE($3, price),
			duration_weeks = COALESCE($4, duration_weeks),
			session_count = COALESCE($5, session_count),
			includes_meet = COALESCE($6, includes_meet),
			includes_nutrition = COALESCE($7, includes_nutrition),
			includes_workout = COALESCE($8, includes_workout),
			active = COALESCE($9, active),
			updated_at = NOW()
		WHERE id = $10
		RETURNING ` + serviceColumns
	return r.scanOne(r.db.QueryRow(ctx, query,
		input.Title,
		input.Description,
		input.Price,
		input.DurationWeeks,
		input.SessionCount,
		input.IncludesMeet,
		input.IncludesNutrition,
		input.IncludesWorkout,
		input.Active,
		serviceID,
	))
}

// Deactivate is the delete operation; services are never removed so old
// purchases keep their reference.
func (r *ServiceRepository) Deactivate(ctx context.Context, serviceID int64) (*models.Service, error) {
	query := `
		UPDATE services
		SET active = FALSE, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + serviceColumns
	return r.scanOne(r.db.QueryRow(ctx, query, serviceID))
}

func (r *ServiceRepository) ListActive(ctx context.Context) ([]models.Service, error) {
	query := `SELECT ` + serviceColumns + ` FROM services WHERE active = TRUE ORDER BY price ASC, id ASC`
	return r.list(ctx, query)
}

func (r *ServiceRepository) ListAll(ctx context.Context) ([]models.Service, error) {
	query := `SELECT ` + serviceColumns + ` FROM services ORDER BY created_at DESC, id DESC`
	return r.list(ctx, query)
}

func (r *ServiceRepository) list(ctx context.Context, query string, args ...any) ([]models.Service, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	services := make([]models.Service, 0)
	for rows.Next() {
		var service models.Service
		if err := scanService(rows, &service); err != nil {
			return nil, err
		}
		services = append(services, service)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return services, nil
}

func scanService(row rowScanner, service *models.Service) error {
	return row.Scan(
		&service.ID,
		&service.Title,
		&service.Description,
		&service.Type,
		&service.Price,
		&service.DurationWeeks,
		&service.SessionCount,
		&service.IncludesMeet,
		&service.IncludesNutrition,
		&service.IncludesWorkout,
		&service.Active,
		&service.CreatedAt,
		&service.UpdatedAt,
	)
}

func (r *ServiceRepository) scanOne(row rowScanner) (*models.Service, error) {
	var service models.Service
	if err := scanService(row, &service); err != nil {
		return nil, err
	}
	return &service, nil
}
