package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// MeetingProvider creates a joinable call link for a scheduled slot. The
// stub below synthesizes Google-Meet-shaped links without any calendar API;
// a real Calendar integration slots in behind the same interface.
type MeetingProvider interface {
	CreateLink(ctx context.Context, topic string, start time.Time, durationMinutes int) (string, error)
}

type StubMeetProvider struct{}

func NewStubMeetProvider() *StubMeetProvider {
	return &StubMeetProvider{}
}

func (p *StubMeetProvider) CreateLink(_ context.Context, _ string, _ time.Time, _ int) (string, error) {
	code := meetCode()
	return "https://meet.google.com/" + code, nil
}

// meetCode renders a xxx-yyyy-zzz code from random bytes, letters only.
func meetCode() string {
	id := uuid.New()
	letters := make([]byte, 10)
	for i, b := range id[:10] {
		letters[i] = 'a' + b%26
	}
	return fmt.Sprintf("%s-%s-%s", letters[0:3], letters[3:7], letters[7:10])
}
