package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"budgetbook/internal/core"
	ports "budgetbook/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

var monthNames = []string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

var headerRow = []any{"Month", "Budget", "Spent", "Remaining", "Days"}

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	// Base name without year (e.g. "Ledger"); code prefixes year and appends the user.
	base string
}

// Ensure interface conformance
var _ ports.YearMirror = (*Client)(nil)

// NewFromEnv creates a Sheets client using environment variables and service account credentials.
// Required: GOOGLE_SPREADSHEET_ID
// Optional: GOOGLE_SHEET_NAME (default "Ledger").
func NewFromEnv(ctx context.Context) (*Client, error) {
	spreadsheetID := strings.TrimSpace(os.Getenv("GOOGLE_SPREADSHEET_ID"))
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	svc, err := newSheetsService(ctx)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return New(svc, spreadsheetID, os.Getenv("GOOGLE_SHEET_NAME")), nil
}

// New wraps an existing Sheets service.
func New(svc *gsheet.Service, spreadsheetID, base string) *Client {
	base = strings.TrimSpace(base)
	if base == "" {
		base = "Ledger"
	}
	return &Client{svc: svc, spreadsheetID: spreadsheetID, base: base}
}

// newSheetsService initializes a Sheets Service using Service Account credentials.
// Uses GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS.
func newSheetsService(ctx context.Context) (*gsheet.Service, error) {
	serviceAccountJSON := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	serviceAccountFile := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	var err error

	switch {
	case serviceAccountJSON != "":
		slog.InfoContext(ctx, "Using inline JSON credentials")
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		slog.InfoContext(ctx, "Reading credentials from file", "path", serviceAccountFile)
		credentialsJSON, err = os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

// WriteYear creates the user's year sheet when missing and overwrites it
// with a header plus one row per month.
func (c *Client) WriteYear(ctx context.Context, userID string, year int, months []core.MonthSummary) (string, error) {
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}
	if userID == "" {
		return "", core.ErrMissingUser
	}
	if err := core.ValidateYear(year); err != nil {
		return "", err
	}
	name := c.sheetName(userID, year)
	if err := c.ensureSheet(ctx, name); err != nil {
		return "", err
	}

	rows := yearRows(months)
	rng := fmt.Sprintf("%s!A1:E%d", quoteSheet(name), len(rows))
	vr := &gsheet.ValueRange{Values: rows}
	start := time.Now()
	_, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, vr).
		ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to update %s: %w", rng, err)
	}
	slog.DebugContext(ctx, "Year sheet written", "sheet", name, "rows", len(rows), "duration", time.Since(start))
	return rng, nil
}

// ClearUser deletes every year sheet that belongs to userID.
func (c *Client) ClearUser(ctx context.Context, userID string) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}
	if userID == "" {
		return core.ErrMissingUser
	}
	ss, err := c.svc.Spreadsheets.Get(c.spreadsheetID).Fields("sheets.properties").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("read spreadsheet: %w", err)
	}
	var reqs []*gsheet.Request
	for _, sh := range ss.Sheets {
		if sh.Properties == nil || !c.ownsSheet(sh.Properties.Title, userID) {
			continue
		}
		reqs = append(reqs, &gsheet.Request{
			DeleteSheet: &gsheet.DeleteSheetRequest{SheetId: sh.Properties.SheetId},
		})
	}
	if len(reqs) == 0 {
		return nil
	}
	_, err = c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, &gsheet.BatchUpdateSpreadsheetRequest{Requests: reqs}).
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("delete sheets for %s: %w", userID, err)
	}
	slog.InfoContext(ctx, "User sheets cleared", "user_id", userID, "sheets", len(reqs))
	return nil
}

func (c *Client) ensureSheet(ctx context.Context, name string) error {
	ss, err := c.svc.Spreadsheets.Get(c.spreadsheetID).Fields("sheets.properties.title").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("read spreadsheet: %w", err)
	}
	for _, sh := range ss.Sheets {
		if sh.Properties != nil && sh.Properties.Title == name {
			return nil
		}
	}
	req := &gsheet.BatchUpdateSpreadsheetRequest{Requests: []*gsheet.Request{{
		AddSheet: &gsheet.AddSheetRequest{Properties: &gsheet.SheetProperties{Title: name}},
	}}}
	if _, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("add sheet %s: %w", name, err)
	}
	return nil
}

func (c *Client) sheetName(userID string, year int) string {
	return yearPrefixedName(c.base, year) + " " + userID
}

// ownsSheet matches "<year> <base> <userID>".
func (c *Client) ownsSheet(title, userID string) bool {
	i := strings.IndexByte(title, ' ')
	if i <= 0 {
		return false
	}
	y, err := strconv.Atoi(title[:i])
	if err != nil {
		return false
	}
	return title == c.sheetName(userID, y)
}

// yearRows renders the header and one row per month. Months without a
// summary are written as zeros so stale values are overwritten.
func yearRows(months []core.MonthSummary) [][]any {
	byMonth := make(map[int]core.MonthSummary, len(months))
	for _, m := range months {
		byMonth[m.Month] = m
	}
	rows := make([][]any, 0, 13)
	rows = append(rows, headerRow)
	for i, name := range monthNames {
		m, ok := byMonth[i+1]
		if !ok {
			rows = append(rows, []any{name, "", "0", "0", 0})
			continue
		}
		budget := ""
		if m.BudgetSet {
			budget = m.Budget.String()
		}
		rows = append(rows, []any{name, budget, m.Spent.String(), m.Remaining.String(), m.Days})
	}
	return rows
}

func quoteSheet(name string) string {
	return "'" + strings.ReplaceAll(name, "'", "''") + "'"
}

func yearPrefixedName(base string, year int) string {
	base = strings.TrimSpace(base)
	if base == "" {
		return strconv.Itoa(year)
	}
	return fmt.Sprintf("%d %s", year, base)
}
