package repository

import (
	"context"

	"github.com/damil-o/TrainerBizBack/internal/models"
)

type LeadRepository struct {
	db DBTX
}

func NewLeadRepository(db DBTX) *LeadRepository {
	return &LeadRepository{db: db}
}

func (r *LeadRepository) Create(ctx context.Context, lead *models.Lead) error {
	query := `
		INSERT INTO leads (name, email)
		VALUES ($1, $2)
		RETURNING id, created_at
	`
	return r.db.QueryRow(ctx, query, lead.Name, lead.Email).Scan(&lead.ID, &lead.CreatedAt)
}
