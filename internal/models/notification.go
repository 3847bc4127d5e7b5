package models

import "time"

const (
	NotificationTypeInfo     = "info"
	NotificationTypePurchase = "purchase"
	NotificationTypeBooking  = "booking"
	NotificationTypeResource = "resource"
	NotificationTypeExpiry   = "expiry_warning"
)

type Notification struct {
	ID         int64     `json:"id"`
	UserID     int64     `json:"user_id"`
	Title      string    `json:"title"`
	Message    string    `json:"message"`
	Type       string    `json:"type"`
	PurchaseID *int64    `json:"purchase_id,omitempty"`
	Read       bool      `json:"read"`
	CreatedAt  time.Time `json:"created_at"`
}

type PushSubscription struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Endpoint  string    `json:"endpoint"`
	P256dh    string    `json:"p256dh"`
	Auth      string    `json:"auth"`
	CreatedAt time.Time `json:"created_at"`
}
