package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/damil-o/TrainerBizBack/internal/models"
)

type CreatePurchaseInput struct {
	UserID        int64
	ServiceID     int64
	Amount        float64
	PaymentMethod *string
	TxRef         string
	ExpiresAt     *time.Time
}

type PurchaseListFilter struct {
	UserID        int64
	PaymentStatus string
	ActiveOnly    bool
}

type PurchaseRepository struct {
	db DBTX
}

func NewPurchaseRepository(db DBTX) *PurchaseRepository {
	return &PurchaseRepository{db: db}
}

const purchaseColumns = `id, user_id, service_id, amount, payment_method, payment_status,
	tx_ref, transaction_id, delivered, active, expires_at, purchased_at, created_at, updated_at`

func (r *PurchaseRepository) Create(ctx context.Context, input CreatePurchaseInput) (*models.Purchase, error) {
	query := `
		INSERT INTO purchases (user_id, service_id, amount, payment_method, payment_status, tx_ref, expires_at)
		VALUES ($1, $2, $3, $4, 'pending', $5, $6)
		RETURNING ` + purchaseColumns
	return r.scanOne(r.db.QueryRow(ctx, query,
		input.UserID,
		input.ServiceID,
		input.Amount,
		input.PaymentMethod,
		input.TxRef,
		input.ExpiresAt,
	))
}

func (r *PurchaseRepository) GetByID(ctx context.Context, purchaseID int64) (*models.Purchase, error) {
	query := `SELECT ` + purchaseColumns + ` FROM purchases WHERE id = $1`
	return r.scanOne(r.db.QueryRow(ctx, query, purchaseID))
}

func (r *PurchaseRepository) GetByIDForUpdate(ctx context.Context, purchaseID int64) (*models.Purchase, error) {
	query := `SELECT ` + purchaseColumns + ` FROM purchases WHERE id = $1 FOR UPDATE`
	return r.scanOne(r.db.QueryRow(ctx, query, purchaseID))
}

func (r *PurchaseRepository) GetByTxRef(ctx context.Context, txRef string) (*models.Purchase, error) {
	query := `SELECT ` + purchaseColumns + ` FROM purchases WHERE tx_ref = $1`
	return r.scanOne(r.db.QueryRow(ctx, query, txRef))
}

func (r *PurchaseRepository) List(ctx context.Context, filter PurchaseListFilter) ([]models.Purchase, error) {
	args := []any{}
	whereParts := []string{}

	if filter.UserID > 0 {
		args = append(args, filter.UserID)
		whereParts = append(whereParts, fmt.Sprintf("user_id = $%d", len(args)))
	}
	if status := strings.TrimSpace(filter.PaymentStatus); status != "" {
		args = append(args, status)
		whereParts = append(whereParts, fmt.Sprintf("payment_status = $%d", len(args)))
	}
	if filter.ActiveOnly {
		whereParts = append(whereParts, "active = TRUE")
	}

	where := ""
	if len(whereParts) > 0 {
		where = "WHERE " + strings.Join(whereParts, " AND ")
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM purchases
		%s
		ORDER BY purchased_at DESC, id DESC
	`, purchaseColumns, where)

	return r.list(ctx, query, args...)
}

func (r *PurchaseRepository) UpdatePaymentStatusIfCurrent(
	ctx context.Context,
	purchaseID int64,
	currentStatus string,
	nextStatus string,
) (*models.Purchase, error) {
	query := `
		UPDATE purchases
		SET payment_status = $3, updated_at = NOW()
		WHERE id = $1 AND payment_status = $2
		RETURNING ` + purchaseColumns
	return r.scanOne(r.db.QueryRow(ctx, query, purchaseID, currentStatus, nextStatus))
}

// Complete records the verified gateway transaction and flips the purchase to
// completed in one statement.
func (r *PurchaseRepository) Complete(
	ctx context.Context,
	purchaseID int64,
	transactionID string,
	paymentMethod *string,
) (*models.Purchase, error) {
	query := `
		UPDATE purchases
		SET payment_status = 'completed',
			transaction_id = $2,
			payment_method = COALESCE($3, payment_method),
			updated_at = NOW()
		WHERE id = $1 AND payment_status = 'pending'
		RETURNING ` + purchaseColumns
	return r.scanOne(r.db.QueryRow(ctx, query, purchaseID, transactionID, paymentMethod))
}

func (r *PurchaseRepository) MarkDelivered(ctx context.Context, purchaseID int64) (*models.Purchase, error) {
	query := `
		UPDATE purchases
		SET delivered = TRUE, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + purchaseColumns
	return r.scanOne(r.db.QueryRow(ctx, query, purchaseID))
}

// ListExpiringWithin returns active completed purchases whose expiry falls
// inside the window starting now.
func (r *PurchaseRepository) ListExpiringWithin(ctx context.Context, window time.Duration) ([]models.Purchase, error) {
	query := `
		SELECT ` + purchaseColumns + `
		FROM purchases
		WHERE active = TRUE
		  AND payment_status = 'completed'
		  AND expires_at IS NOT NULL
		  AND expires_at > NOW()
		  AND expires_at <= NOW() + $1::interval
		ORDER BY expires_at ASC, id ASC
	`
	return r.list(ctx, query, fmt.Sprintf("%d seconds", int(window.Seconds())))
}

// DeactivateExpired flips purchases whose expiry has passed.
func (r *PurchaseRepository) DeactivateExpired(ctx context.Context) (int64, error) {
	query := `
		UPDATE purchases
		SET active = FALSE, updated_at = NOW()
		WHERE active = TRUE AND expires_at IS NOT NULL AND expires_at <= NOW()
	`
	tag, err := r.db.Exec(ctx, query)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *PurchaseRepository) list(ctx context.Context, query string, args ...any) ([]models.Purchase, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	purchases := make([]models.Purchase, 0)
	for rows.Next() {
		var purchase models.Purchase
		if err := scanPurchase(rows, &purchase); err != nil {
			return nil, err
		}
		purchases = append(purchases, purchase)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return purchases, nil
}

func scanPurchase(row rowScanner, purchase *models.Purchase) error {
	return row.Scan(
		&purchase.ID,
		&purchase.UserID,
		&purchase.ServiceID,
		&purchase.Amount,
		&purchase.PaymentMethod,
		&purchase.PaymentStatus,
		&purchase.TxRef,
		&purchase.TransactionID,
		&purchase.Delivered,
		&purchase.Active,
		&purchase.ExpiresAt,
		&purchase.PurchasedAt,
		&purchase.CreatedAt,
		&purchase.UpdatedAt,
	)
}

func (r *PurchaseRepository) scanOne(row rowScanner) (*models.Purchase, error) {
	var purchase models.Purchase
	if err := scanPurchase(row, &purchase); err != nil {
		return nil, err
	}
	return &purchase, nil
}
