package sheets

import (
	"context"

	gsheets "google.golang.org/api/sheets/v4"
)

const (
	valueInputUserEntered = "USER_ENTERED"
	insertDataInsertRows  = "INSERT_ROWS"
)

// ValuesAPI is the slice of the Sheets values API used by Client.
type ValuesAPI interface {
	Get(ctx context.Context, spreadsheetID, rng string) ([][]interface{}, error)
	Append(ctx context.Context, spreadsheetID, rng string, row []interface{}) error
}

type googleValues struct {
	svc *gsheets.SpreadsheetsValuesService
}

func (g googleValues) Get(ctx context.Context, spreadsheetID, rng string) ([][]interface{}, error) {
	resp, err := g.svc.Get(spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	return resp.Values, nil
}

func (g googleValues) Append(ctx context.Context, spreadsheetID, rng string, row []interface{}) error {
	body := &gsheets.ValueRange{Values: [][]interface{}{row}}
	_, err := g.svc.Append(spreadsheetID, rng, body).
		ValueInputOption(valueInputUserEntered).
		InsertDataOption(insertDataInsertRows).
		Context(ctx).
		Do()
	return err
}
