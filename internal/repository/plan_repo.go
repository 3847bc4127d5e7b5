package repository

import (
	"context"

	"github.com/damil-o/TrainerBizBack/internal/models"
)

type CreatePlanFileInput struct {
	Kind       string
	PurchaseID *int64
	ServiceID  *int64
	UploaderID int64
	Title      string
	FileURL    string
	FileSize   int64
}

type PlanFileRepository struct {
	db DBTX
}

func NewPlanFileRepository(db DBTX) *PlanFileRepository {
	return &PlanFileRepository{db: db}
}

const planFileColumns = `id, kind, purchase_id, service_id, uploader_id, title, file_url, file_size, created_at`

func (r *PlanFileRepository) Create(ctx context.Context, input CreatePlanFileInput) (*models.PlanFile, error) {
	query := `
		INSERT INTO plan_files (kind, purchase_id, service_id, uploader_id, title, file_url, file_size)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + planFileColumns
	return r.scanOne(r.db.QueryRow(ctx, query,
		input.Kind,
		input.PurchaseID,
		input.ServiceID,
		input.UploaderID,
		input.Title,
		input.FileURL,
		input.FileSize,
	))
}

func (r *PlanFileRepository) GetByID(ctx context.Context, planFileID int64) (*models.PlanFile, error) {
	query := `SELECT ` + planFileColumns + ` FROM plan_files WHERE id = $1`
	return r.scanOne(r.db.QueryRow(ctx, query, planFileID))
}

func (r *PlanFileRepository) ListByPurchaseID(ctx context.Context, purchaseID int64) ([]models.PlanFile, error) {
	query := `SELECT ` + planFileColumns + ` FROM plan_files WHERE purchase_id = $1 ORDER BY created_at DESC, id DESC`
	return r.list(ctx, query, purchaseID)
}

func (r *PlanFileRepository) ListByServiceID(ctx context.Context, serviceID int64) ([]models.PlanFile, error) {
	query := `SELECT ` + planFileColumns + ` FROM plan_files WHERE service_id = $1 ORDER BY created_at DESC, id DESC`
	return r.list(ctx, query, serviceID)
}

func (r *PlanFileRepository) ListByKind(ctx context.Context, kind string) ([]models.PlanFile, error) {
	query := `SELECT ` + planFileColumns + ` FROM plan_files WHERE kind = $1 ORDER BY created_at DESC, id DESC`
	return r.list(ctx, query, kind)
}

func (r *PlanFileRepository) Delete(ctx context.Context, planFileID int64) error {
	_, err := r.db.Exec(ctx, `DELETE FROM plan_files WHERE id = $1`, planFileID)
	return err
}

func (r *PlanFileRepository) list(ctx context.Context, query string, args ...any) ([]models.PlanFile, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	files := make([]models.PlanFile, 0)
	for rows.Next() {
		var file models.PlanFile
		if err := scanPlanFile(rows, &file); err != nil {
			return nil, err
		}
		files = append(files, file)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return files, nil
}

func scanPlanFile(row rowScanner, file *models.PlanFile) error {
	return row.Scan(
		&file.ID,
		&file.Kind,
		&file.PurchaseID,
		&file.ServiceID,
		&file.UploaderID,
		&file.Title,
		&file.FileURL,
		&file.FileSize,
		&file.CreatedAt,
	)
}

func (r *PlanFileRepository) scanOne(row rowScanner) (*models.PlanFile, error) {
	var file models.PlanFile
	if err := scanPlanFile(row, &file); err != nil {
		return nil, err
	}
	return &file, nil
}
