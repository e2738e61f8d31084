package sheetsdb

import (
	"context"

	"github.com/pkg/errors"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// Spreadsheet is the part of the Sheets API the store needs. Ranges use A1 notation; a bare tab
// title is the whole tab.
type Spreadsheet interface {
	Tabs(ctx context.Context) ([]string, error)
	AddTab(ctx context.Context, title string) error
	Read(ctx context.Context, rng string) ([][]interface{}, error)
	Write(ctx context.Context, rng string, rows [][]interface{}) error
	Append(ctx context.Context, rng string, rows [][]interface{}) error
}

type googleSpreadsheet struct {
	srv *sheets.Service
	id  string
}

var _ Spreadsheet = (*googleSpreadsheet)(nil) // interface compliance check

// NewGoogleSpreadsheet opens the spreadsheet id with the service account key in credentialsFile.
func NewGoogleSpreadsheet(ctx context.Context, id, credentialsFile string) (Spreadsheet, error) {
	srv, err := sheets.NewService(ctx,
		option.WithCredentialsFile(credentialsFile),
		option.WithScopes(sheets.SpreadsheetsScope),
	)
	if err != nil {
		return nil, errors.Wrap(err, "creating sheets service")
	}
	return &googleSpreadsheet{srv: srv, id: id}, nil
}

func (gs *googleSpreadsheet) Tabs(ctx context.Context) ([]string, error) {
	ss, err := gs.srv.Spreadsheets.Get(gs.id).Fields("sheets.properties.title").Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	titles := make([]string, 0, len(ss.Sheets))
	for _, sh := range ss.Sheets {
		if sh.Properties != nil {
			titles = append(titles, sh.Properties.Title)
		}
	}
	return titles, nil
}

func (gs *googleSpreadsheet) AddTab(ctx context.Context, title string) error {
	req := &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{{
			AddSheet: &sheets.AddSheetRequest{
				Properties: &sheets.SheetProperties{Title: title},
			},
		}},
	}
	_, err := gs.srv.Spreadsheets.BatchUpdate(gs.id, req).Context(ctx).Do()
	return err
}

// Read returns raw cell values: numbers as float64, booleans as bool, everything else as string.
func (gs *googleSpreadsheet) Read(ctx context.Context, rng string) ([][]interface{}, error) {
	resp, err := gs.srv.Spreadsheets.Values.Get(gs.id, rng).
		ValueRenderOption("UNFORMATTED_VALUE").
		DateTimeRenderOption("FORMATTED_STRING").
		Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	return resp.Values, nil
}

func (gs *googleSpreadsheet) Write(ctx context.Context, rng string, rows [][]interface{}) error {
	_, err := gs.srv.Spreadsheets.Values.Update(gs.id, rng, &sheets.ValueRange{Values: rows}).
		ValueInputOption("RAW").
		Context(ctx).Do()
	return err
}

func (gs *googleSpreadsheet) Append(ctx context.Context, rng string, rows [][]interface{}) error {
	_, err := gs.srv.Spreadsheets.Values.Append(gs.id, rng, &sheets.ValueRange{Values: rows}).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	return err
}
