package models

import "time"

const (
	PaymentStatusPending   = "pending"
	PaymentStatusCompleted = "completed"
	PaymentStatusCancelled = "cancelled"
)

type Purchase struct {
	ID            int64      `json:"id"`
	UserID        int64      `json:"user_id"`
	ServiceID     int64      `json:"service_id"`
	Amount        float64    `json:"amount"`
	PaymentMethod *string    `json:"payment_method"`
	PaymentStatus string     `json:"payment_status"`
	TxRef         string     `json:"tx_ref"`
	TransactionID *string    `json:"transaction_id"`
	Delivered     bool       `json:"delivered"`
	Active        bool       `json:"active"`
	ExpiresAt     *time.Time `json:"expires_at"`
	PurchasedAt   time.Time  `json:"purchased_at"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

type PurchaseDetail struct {
	Purchase
	Service *Service `json:"service,omitempty"`
}
