package models

import "time"

// Service types. Recurring and program services carry a duration and expire;
// one-time and downloadable services never expire.
const (
	ServiceTypeRecurring    = "recurring"
	ServiceTypeProgram      = "program"
	ServiceTypeOneTime      = "one-time"
	ServiceTypeDownloadable = "downloadable"
)

type Service struct {
	ID                int64     `json:"id"`
	Title             string    `json:"title"`
	Description       *string   `json:"description"`
	Type              string    `json:"type"`
	Price             float64   `json:"price"`
	DurationWeeks     *int      `json:"duration_weeks"`
	SessionCount      *int      `json:"session_count"`
	IncludesMeet      bool      `json:"includes_meet"`
	IncludesNutrition bool      `json:"includes_nutrition"`
	IncludesWorkout   bool      `json:"includes_workout"`
	Active            bool      `json:"active"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

func (s *Service) Expires() bool {
	return (s.Type == ServiceTypeRecurring || s.Type == ServiceTypeProgram) &&
		s.DurationWeeks != nil && *s.DurationWeeks > 0
}
