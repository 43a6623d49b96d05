// Package sheets reads reference lists and balances from the budget
// spreadsheet and appends committed transactions to it.
package sheets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/shopspring/decimal"
	"google.golang.org/api/option"
	gsheets "google.golang.org/api/sheets/v4"

	"github.com/m3rciful/budgetbot/budget/model"
	coreconfig "github.com/m3rciful/budgetbot/core/config"
	"github.com/m3rciful/budgetbot/core/logger"
)

// ErrUnavailable is returned, wrapped together with the cause, for every
// failure to reach or read the spreadsheet.
var ErrUnavailable = errors.New("store unavailable")

// Ranges are the A1 ranges the client reads and writes.
type Ranges struct {
	Categories   string
	Wallets      string
	Balances     string
	Transactions string
}

// Options configures a Client.
type Options struct {
	SpreadsheetID string
	Ranges        Ranges
	// Credentials returns the service account JSON key. It is called on first use.
	Credentials func() ([]byte, error)
	// API replaces the Google client, mainly in tests.
	API ValuesAPI
}

// Client talks to one spreadsheet. It is safe for concurrent use.
type Client struct {
	id     string
	ranges Ranges
	creds  func() ([]byte, error)

	mu  sync.Mutex
	api ValuesAPI
}

// New constructs a Client. Authentication happens lazily on the first call.
func New(opts Options) *Client {
	return &Client{
		id:     opts.SpreadsheetID,
		ranges: opts.Ranges,
		creds:  opts.Credentials,
		api:    opts.API,
	}
}

// NewFromConfig builds a Client from the sheets configuration section.
func NewFromConfig(cfg coreconfig.SheetsConfig) *Client {
	return New(Options{
		SpreadsheetID: cfg.SpreadsheetID,
		Ranges: Ranges{
			Categories:   cfg.CategoriesRange,
			Wallets:      cfg.WalletsRange,
			Balances:     cfg.BalancesRange,
			Transactions: cfg.TransactionsRange,
		},
		Credentials: cfg.Credentials,
	})
}

// values returns the cached API handle, dialing on first use.
// A failed dial is not cached so the next call retries it.
func (c *Client) values(ctx context.Context) (ValuesAPI, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.api != nil {
		return c.api, nil
	}
	if c.creds == nil {
		return nil, errors.New("no credentials configured")
	}
	creds, err := c.creds()
	if err != nil {
		return nil, fmt.Errorf("load credentials: %w", err)
	}
	svc, err := gsheets.NewService(ctx,
		option.WithCredentialsJSON(creds),
		option.WithScopes(gsheets.SpreadsheetsScope),
	)
	if err != nil {
		return nil, fmt.Errorf("create service: %w", err)
	}
	c.api = googleValues{svc: svc.Spreadsheets.Values}
	logger.Sheets.LogAttrs(ctx, slog.LevelInfo, "sheets.auth", slog.String("status", "ok"))
	return c.api, nil
}

// Categories returns the category names in sheet order.
func (c *Client) Categories(ctx context.Context) ([]string, error) {
	return c.list(ctx, "categories", c.ranges.Categories)
}

// Wallets returns the wallet names in sheet order.
func (c *Client) Wallets(ctx context.Context) ([]string, error) {
	return c.list(ctx, "wallets", c.ranges.Wallets)
}

// Balances returns one entry per named wallet row. Unparseable balances
// read as zero and a missing currency reads as model.UnknownCurrency.
func (c *Client) Balances(ctx context.Context) ([]model.WalletBalance, error) {
	rows, err := c.get(ctx, "balances", c.ranges.Balances)
	if err != nil {
		return nil, err
	}
	out := make([]model.WalletBalance, 0, len(rows))
	for _, row := range rows {
		name := strings.TrimSpace(cell(row, 0))
		if name == "" {
			continue
		}
		raw := cell(row, 1)
		balance, ok := parseBalance(raw)
		if !ok {
			logger.Sheets.LogAttrs(ctx, slog.LevelWarn, "sheets.balance.unparsed",
				slog.String("wallet", logger.SanitizeLimit(name, 64)),
				slog.String("raw", logger.SanitizeLimit(raw, 64)),
			)
		}
		currency := strings.ToUpper(strings.TrimSpace(cell(row, 2)))
		if currency == "" {
			currency = model.UnknownCurrency
		}
		out = append(out, model.WalletBalance{Name: name, Balance: balance, Currency: currency})
	}
	return out, nil
}

// AppendTransaction writes tx after the last row of the transactions range.
// Columns B and D stay blank because the sheet keeps formulas there.
func (c *Client) AppendTransaction(ctx context.Context, tx model.Transaction) error {
	start := time.Now()
	row := []interface{}{tx.Date, "", tx.Amount.InexactFloat64(), "", tx.Category, tx.Wallet, tx.Note}

	err := c.call(ctx, func(api ValuesAPI) error {
		return api.Append(ctx, c.id, c.ranges.Transactions, row)
	})
	c.log(ctx, "append", c.ranges.Transactions, start, 1, err)
	if err != nil {
		return wrap("append", err)
	}
	return nil
}

func (c *Client) list(ctx context.Context, op, rng string) ([]string, error) {
	rows, err := c.get(ctx, op, rng)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, row := range rows {
		for i := range row {
			if v := strings.TrimSpace(cell(row, i)); v != "" {
				out = append(out, v)
			}
		}
	}
	return out, nil
}

func (c *Client) get(ctx context.Context, op, rng string) ([][]interface{}, error) {
	start := time.Now()
	var rows [][]interface{}
	err := c.call(ctx, func(api ValuesAPI) error {
		var err error
		rows, err = api.Get(ctx, c.id, rng)
		return err
	})
	c.log(ctx, op, rng, start, len(rows), err)
	if err != nil {
		return nil, wrap(op, err)
	}
	return rows, nil
}

func (c *Client) call(ctx context.Context, fn func(ValuesAPI) error) error {
	api, err := c.values(ctx)
	if err != nil {
		return err
	}
	return fn(api)
}

func (c *Client) log(ctx context.Context, op, rng string, start time.Time, rows int, err error) {
	attrs := []slog.Attr{
		slog.String("op", op),
		slog.String("range", rng),
		slog.String("status", logger.Status(err)),
		slog.Int("rows", rows),
		slog.Duration("duration", logger.Took(start)),
	}
	level := slog.LevelDebug
	if err != nil {
		level = slog.LevelError
		attrs = append(attrs, slog.String("err", logger.SanitizeLimit(err.Error(), 256)))
	}
	logger.Sheets.LogAttrs(ctx, level, "sheets.call", attrs...)
}

func wrap(op string, err error) error {
	return fmt.Errorf("sheets %s: %w: %w", op, ErrUnavailable, err)
}

// cell renders the i-th cell of row as text; missing cells are empty.
func cell(row []interface{}, i int) string {
	if i >= len(row) || row[i] == nil {
		return ""
	}
	switch v := row[i].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}

// parseBalance drops all whitespace and reads the first comma as the
// decimal point. An empty cell is zero; unparseable text yields zero and false.
func parseBalance(raw string) (decimal.Decimal, bool) {
	s := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, raw)
	if s == "" {
		return decimal.Zero, true
	}
	s = strings.Replace(s, ",", ".", 1)
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}
