package services

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// LeadSink records a marketing lead in an external system.
type LeadSink interface {
	AppendLead(ctx context.Context, name, email string, at time.Time) error
}

// SheetsLeadSink appends one row per lead to a fixed spreadsheet range.
type SheetsLeadSink struct {
	credentialsFile string
	spreadsheetID   string
	appendRange     string
}

func NewSheetsLeadSink(credentialsFile, spreadsheetID, appendRange string) *SheetsLeadSink {
	return &SheetsLeadSink{
		credentialsFile: credentialsFile,
		spreadsheetID:   spreadsheetID,
		appendRange:     appendRange,
	}
}

func (s *SheetsLeadSink) AppendLead(ctx context.Context, name, email string, at time.Time) error {
	srv, err := sheets.NewService(ctx, option.WithCredentialsFile(s.credentialsFile))
	if err != nil {
		return fmt.Errorf("create sheets client: %w", err)
	}

	values := &sheets.ValueRange{
		Values: [][]any{{name, email, at.UTC().Format(time.RFC3339)}},
	}
	_, err = srv.Spreadsheets.Values.
		Append(s.spreadsheetID, s.appendRange, values).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("append lead row: %w", err)
	}
	return nil
}
