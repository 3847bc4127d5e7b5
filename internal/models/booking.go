package models

import "time"

const (
	BookingStatusScheduled = "scheduled"
	BookingStatusCompleted = "completed"
	BookingStatusCancelled = "cancelled"
)

type Booking struct {
	ID              int64     `json:"id"`
	PurchaseID      int64     `json:"purchase_id"`
	UserID          int64     `json:"user_id"`
	ScheduledAt     time.Time `json:"scheduled_at"`
	DurationMinutes int       `json:"duration_minutes"`
	Status          string    `json:"status"`
	MeetingLink     *string   `json:"meeting_link"`
	Notes           *string   `json:"notes"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

const (
	ConsultationKindInitial = "initial"
	ConsultationKindWeekly  = "weekly"
)

// Consultation is a free standalone call, not tied to a purchase.
type Consultation struct {
	ID              int64     `json:"id"`
	UserID          int64     `json:"user_id"`
	Kind            string    `json:"kind"`
	ScheduledAt     time.Time `json:"scheduled_at"`
	DurationMinutes int       `json:"duration_minutes"`
	Status          string    `json:"status"`
	MeetingLink     *string   `json:"meeting_link"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}
