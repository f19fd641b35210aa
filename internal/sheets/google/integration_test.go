//go:build integration

package google

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"

	"bilancio/internal/core"
)

// Integration tests require real Google Sheets credentials
// Run with: go test -tags=integration ./internal/sheets/google

func integrationClient(t *testing.T) *Client {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	opts := Options{
		SpreadsheetID:      os.Getenv("GOOGLE_SPREADSHEET_ID"),
		SheetName:          os.Getenv("GOOGLE_SHEET_NAME"),
		ServiceAccountJSON: os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"),
		ServiceAccountFile: os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"),
		OAuthClientFile:    os.Getenv("GOOGLE_OAUTH_CLIENT_FILE"),
		OAuthTokenFile:     os.Getenv("GOOGLE_OAUTH_TOKEN_FILE"),
	}
	if opts.SpreadsheetID == "" {
		t.Skip("GOOGLE_SPREADSHEET_ID not set, skipping integration test")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	c, err := New(ctx, opts)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return c
}

func TestIntegration_UpsertAndDelete(t *testing.T) {
	c := integrationClient(t)
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	tx := core.Transaction{
		ID:          uuid.NewString(),
		Type:        core.Expense,
		Amount:      core.Money{Cents: 123},
		Date:        core.DateOf(time.Now()),
		Category:    core.CategoryOther,
		Description: "integration test",
	}

	if err := c.UpsertTransaction(ctx, "integration", tx); err != nil {
		t.Fatalf("insert: %v", err)
	}
	tx.Amount = core.Money{Cents: 456}
	if err := c.UpsertTransaction(ctx, "integration", tx); err != nil {
		t.Fatalf("update: %v", err)
	}

	c.mu.Lock()
	keys, err := c.readKeys(ctx)
	c.mu.Unlock()
	if err != nil {
		t.Fatal(err)
	}
	count := 0
	for _, row := range keys {
		if len(row) > 0 && row[0] == tx.ID {
			count++
		}
	}
	if count != 1 {
		t.Errorf("found %d rows for %s, want 1", count, tx.ID)
	}

	if err := c.DeleteTransaction(ctx, "integration", tx.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := c.DeleteTransaction(ctx, "integration", tx.ID); err != nil {
		t.Errorf("second delete: %v", err)
	}
}
