// Package google mirrors ledger entries into a Google Sheets worksheet, one row per entry
// keyed by the entry id in column A.
package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"creditregister/internal/core"
	"creditregister/internal/ports"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

const defaultCacheValidDuration = 2 * time.Minute

// Config selects the target worksheet and the service account used to reach it.
type Config struct {
	SpreadsheetID      string
	SheetName          string
	ServiceAccountJSON string
	ServiceAccountFile string
}

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string

	// Column A (entry ids) cached between writes; row n is ids[n-1].
	mu                 sync.Mutex
	cachedIDs          []string
	cachedRowCount     int
	cacheExpiresAt     time.Time
	cacheValidDuration time.Duration
}

// Ensure interface conformance
var _ ports.EntryMirror = (*Client)(nil)

// New creates a Sheets client authenticated with service account credentials.
// When opts are given they replace the credential options entirely and cfg's credentials
// are not read (tests use this to point the client at a fake endpoint).
func New(ctx context.Context, cfg Config, opts ...goption.ClientOption) (*Client, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	sheetName := strings.TrimSpace(cfg.SheetName)
	if sheetName == "" {
		sheetName = "Entries"
	}

	if len(opts) == 0 {
		creds, err := credentialsJSON(ctx, cfg)
		if err != nil {
			return nil, err
		}
		opts = []goption.ClientOption{
			goption.WithCredentialsJSON(creds),
			goption.WithScopes(gsheet.SpreadsheetsScope),
		}
	}

	svc, err := gsheet.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	slog.InfoContext(ctx, "Google Sheets mirror ready",
		"spreadsheet_id", cfg.SpreadsheetID,
		"sheet", sheetName)

	return &Client{
		svc:                svc,
		spreadsheetID:      cfg.SpreadsheetID,
		sheetName:          sheetName,
		cacheValidDuration: defaultCacheValidDuration,
	}, nil
}

// credentialsJSON reads inline JSON first, then the file, then GOOGLE_APPLICATION_CREDENTIALS.
func credentialsJSON(ctx context.Context, cfg Config) ([]byte, error) {
	serviceAccountJSON := strings.TrimSpace(cfg.ServiceAccountJSON)
	serviceAccountFile := strings.TrimSpace(cfg.ServiceAccountFile)

	// Also check the standard Google Cloud environment variable
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	switch {
	case serviceAccountJSON != "":
		slog.DebugContext(ctx, "Using inline JSON credentials")
		return []byte(serviceAccountJSON), nil
	case serviceAccountFile != "":
		slog.DebugContext(ctx, "Reading credentials from file", "path", serviceAccountFile)
		b, err := os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return b, nil
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}
}

// Upsert writes e to its existing row, or appends a new row when the id is not in the sheet yet.
func (c *Client) Upsert(ctx context.Context, e core.LedgerEntry) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}

	ids, err := c.idColumn(ctx)
	if err != nil {
		return err
	}

	row := findRow(ids, e.ID)
	if row == 0 {
		if len(ids) == 0 {
			if err := c.writeRow(ctx, 1, headerRow()); err != nil {
				return fmt.Errorf("write header: %w", err)
			}
			c.rememberRow(1, headerID)
			ids = []string{headerID}
		}
		row = len(ids) + 1
	}

	if err := c.writeRow(ctx, row, entryRow(e)); err != nil {
		c.InvalidateRowCache()
		return fmt.Errorf("write entry %d: %w", e.ID, err)
	}
	c.rememberRow(row, idString(e.ID))

	slog.InfoContext(ctx, "Mirrored entry to Google Sheets",
		"id", e.ID,
		"row", row,
		"sheet", c.sheetName)
	return nil
}

// Remove clears the row holding id. A missing row is not an error.
func (c *Client) Remove(ctx context.Context, id int64) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}

	ids, err := c.idColumn(ctx)
	if err != nil {
		return err
	}
	row := findRow(ids, id)
	if row == 0 {
		slog.DebugContext(ctx, "Entry not present in sheet, nothing to remove", "id", id)
		return nil
	}

	rng := fmt.Sprintf("%s!A%d:%s%d", c.sheetName, row, lastColumn, row)
	if _, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, rng, &gsheet.ClearValuesRequest{}).Context(ctx).Do(); err != nil {
		c.InvalidateRowCache()
		return fmt.Errorf("clear %s: %w", rng, err)
	}
	c.rememberRow(row, "")

	slog.InfoContext(ctx, "Removed entry from Google Sheets", "id", id, "row", row)
	return nil
}

func (c *Client) writeRow(ctx context.Context, row int, values []any) error {
	rng := fmt.Sprintf("%s!A%d:%s%d", c.sheetName, row, lastColumn, row)
	vr := &gsheet.ValueRange{Values: [][]any{values}}
	_, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, vr).
		ValueInputOption("RAW").Context(ctx).Do()
	return err
}

// idColumn returns column A, from cache while it is fresh.
func (c *Client) idColumn(ctx context.Context) ([]string, error) {
	c.mu.Lock()
	if time.Now().Before(c.cacheExpiresAt) {
		ids := append([]string(nil), c.cachedIDs...)
		c.mu.Unlock()
		return ids, nil
	}
	c.mu.Unlock()

	rng := fmt.Sprintf("%s!A:A", c.sheetName)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to get sheet dimensions for %s: %w", c.sheetName, err)
	}
	ids := firstColumn(resp.Values)

	c.mu.Lock()
	c.cachedIDs = ids
	c.cachedRowCount = len(ids)
	c.cacheExpiresAt = time.Now().Add(c.cacheValidDuration)
	c.mu.Unlock()

	return append([]string(nil), ids...), nil
}

func (c *Client) rememberRow(row int, id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !time.Now().Before(c.cacheExpiresAt) {
		return
	}
	for len(c.cachedIDs) < row {
		c.cachedIDs = append(c.cachedIDs, "")
	}
	c.cachedIDs[row-1] = id
	c.cachedRowCount = len(c.cachedIDs)
}

// InvalidateRowCache forces the next write to re-read column A.
func (c *Client) InvalidateRowCache() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cachedIDs = nil
	c.cachedRowCount = 0
	c.cacheExpiresAt = time.Time{}
}
