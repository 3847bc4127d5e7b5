package models

import "time"

type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type Profile struct {
	ID         int64      `json:"id"`
	UserID     int64      `json:"user_id"`
	FullName   string     `json:"full_name"`
	Phone      *string    `json:"phone"`
	AvatarURL  *string    `json:"avatar_url"`
	IsAdmin    bool       `json:"is_admin"`
	IsBlocked  bool       `json:"is_blocked"`
	IsOnline   bool       `json:"is_online"`
	LastSeenAt *time.Time `json:"last_seen_at"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}
