package google

import (
	"context"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"fintrack/internal/analytics"
	"fintrack/internal/core"
	"fintrack/internal/log"
	ports "fintrack/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	monthlySheet  string
	logger        *log.Logger
}

// Ensure interface conformance
var _ ports.AnalyticsWriter = (*Client)(nil)

// NewFromEnv creates a Sheets client using service account credentials
// from the environment. spreadsheetID is required; monthlySheet defaults
// to "Analytics".
func NewFromEnv(ctx context.Context, spreadsheetID, monthlySheet string, logger *log.Logger) (*Client, error) {
	if strings.TrimSpace(spreadsheetID) == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	if logger == nil {
		logger = log.NewSilent()
	}
	logger = logger.WithComponent(log.ComponentSheets)

	svc, err := newSheetsService(ctx, logger)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return NewWithService(svc, spreadsheetID, monthlySheet, logger), nil
}

// NewWithService wraps an already configured service.
func NewWithService(svc *gsheet.Service, spreadsheetID, monthlySheet string, logger *log.Logger) *Client {
	if strings.TrimSpace(monthlySheet) == "" {
		monthlySheet = "Analytics"
	}
	if logger == nil {
		logger = log.NewSilent()
	}
	return &Client{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		monthlySheet:  monthlySheet,
		logger:        logger,
	}
}

// newSheetsService initializes a Sheets Service using Service Account credentials.
// Uses GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS.
func newSheetsService(ctx context.Context, logger *log.Logger) (*gsheet.Service, error) {
	serviceAccountJSON := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	serviceAccountFile := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))

	// Also check the standard Google Cloud environment variable
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	var err error

	switch {
	case serviceAccountJSON != "":
		logger.DebugContext(ctx, "Using inline JSON credentials")
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		logger.DebugContext(ctx, "Reading credentials from file", "path", serviceAccountFile)
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

	logger.InfoContext(ctx, "Google Sheets service created successfully")
	return service, nil
}

// WriteMonthly replaces the monthly sheet with a header and one row per month.
func (c *Client) WriteMonthly(ctx context.Context, m analytics.Monthly) error {
	rows := make([][]any, 0, m.Len()+1)
	rows = append(rows, headerRow(ports.MonthlyHeader))
	for i, label := range m.Labels {
		rows = append(rows, []any{label, amount(m.ExpenseTotals[i]), amount(m.IncomeTotals[i])})
	}
	return c.replace(ctx, c.monthlySheet, "C", rows)
}

// WriteRanking replaces the sheet named title with the ranking table.
func (c *Client) WriteRanking(ctx context.Context, title string, ranked []analytics.Ranked) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return errors.New("ranking title is required")
	}
	rows := make([][]any, 0, len(ranked)+1)
	rows = append(rows, headerRow(ports.RankingHeader))
	for _, r := range ranked {
		rows = append(rows, []any{r.Name, amount(r.Total)})
	}
	return c.replace(ctx, title, "B", rows)
}

// replace makes sure the tab exists, clears columns A..lastCol and writes
// rows from A1.
func (c *Client) replace(ctx context.Context, sheet, lastCol string, rows [][]any) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}
	if err := c.ensureSheet(ctx, sheet); err != nil {
		return err
	}

	clearRange := fmt.Sprintf("%s!A:%s", quoteSheet(sheet), lastCol)
	if _, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, clearRange, &gsheet.ClearValuesRequest{}).
		Context(ctx).Do(); err != nil {
		return fmt.Errorf("failed to clear %s: %w", clearRange, err)
	}

	dataRange := fmt.Sprintf("%s!A1:%s%d", quoteSheet(sheet), lastCol, len(rows))
	vr := &gsheet.ValueRange{Values: rows}
	if _, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, dataRange, vr).
		ValueInputOption("USER_ENTERED").Context(ctx).Do(); err != nil {
		return fmt.Errorf("failed to update %s: %w", dataRange, err)
	}

	c.logger.InfoContext(ctx, "Sheet updated",
		log.FieldOperation, log.OpExport,
		"sheet", sheet,
		"rows", len(rows)-1)
	return nil
}

func (c *Client) ensureSheet(ctx context.Context, sheet string) error {
	ss, err := c.svc.Spreadsheets.Get(c.spreadsheetID).Fields("sheets.properties.title").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("read spreadsheet %s: %w", c.spreadsheetID, err)
	}
	if slices.ContainsFunc(ss.Sheets, func(s *gsheet.Sheet) bool {
		return s.Properties != nil && s.Properties.Title == sheet
	}) {
		return nil
	}

	req := &gsheet.BatchUpdateSpreadsheetRequest{Requests: []*gsheet.Request{{
		AddSheet: &gsheet.AddSheetRequest{Properties: &gsheet.SheetProperties{Title: sheet}},
	}}}
	if _, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("add sheet %s: %w", sheet, err)
	}
	c.logger.InfoContext(ctx, "Sheet created", "sheet", sheet)
	return nil
}

func headerRow(cols []string) []any {
	row := make([]any, len(cols))
	for i, c := range cols {
		row[i] = c
	}
	return row
}

func amount(m core.Money) float64 {
	return m.Decimal().InexactFloat64()
}

// quoteSheet wraps a tab name in single quotes when A1 notation needs it.
func quoteSheet(name string) string {
	if strings.ContainsAny(name, " '!") {
		return "'" + strings.ReplaceAll(name, "'", "''") + "'"
	}
	return name
}
