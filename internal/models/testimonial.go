package models

import "time"

const (
	TestimonialKindText  = "text"
	TestimonialKindVideo = "video"

	TestimonialStatusPending  = "pending"
	TestimonialStatusApproved = "approved"
	TestimonialStatusRejected = "rejected"
)

type Testimonial struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Kind      string    `json:"kind"`
	Content   *string   `json:"content"`
	VideoURL  *string   `json:"video_url"`
	Status    string    `json:"status"`
	Featured  bool      `json:"featured"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
