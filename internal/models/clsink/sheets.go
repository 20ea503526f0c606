package clsink

import (
	"context"
	"fmt"

	"resumetracker/internal/models/clvisit"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// Sheets ajoute les visites à une feuille Google Sheets
type Sheets struct {
	values      *sheets.SpreadsheetsValuesService
	sheetID     string
	appendRange string
	readRange   string
}

// NewSheets crée le client depuis le JSON d'un compte de service
func NewSheets(ctx context.Context, credentials []byte, sheetID, appendRange, readRange string, opts ...option.ClientOption) (*Sheets, error) {
	creds, err := google.CredentialsFromJSON(ctx, credentials, sheets.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("google credentials: %w", err)
	}

	opts = append([]option.ClientOption{option.WithCredentials(creds)}, opts...)
	srv, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return NewSheetsWithService(srv, sheetID, appendRange, readRange), nil
}

func NewSheetsWithService(srv *sheets.Service, sheetID, appendRange, readRange string) *Sheets {
	return &Sheets{
		values:      srv.Spreadsheets.Values,
		sheetID:     sheetID,
		appendRange: appendRange,
		readRange:   readRange,
	}
}

func (s *Sheets) Name() string {
	return "sheets"
}

// Append ajoute une ligne, sans timeout propre
func (s *Sheets) Append(ctx context.Context, rec clvisit.Record) error {
	body := &sheets.ValueRange{Values: [][]any{rec.Row()}}
	_, err := s.values.Append(s.sheetID, s.appendRange, body).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("sheets append: %w", err)
	}
	return nil
}

func (s *Sheets) Rows(ctx context.Context) ([][]any, error) {
	resp, err := s.values.Get(s.sheetID, s.readRange).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("sheets get: %w", err)
	}
	return resp.Values, nil
}
