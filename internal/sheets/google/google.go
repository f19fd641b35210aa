package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2"
	goauth "golang.org/x/oauth2/google"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"bilancio/internal/core"
	"bilancio/internal/sheets"
)

// Ensure interface conformance
var _ sheets.TransactionMirror = (*Client)(nil)

var errNotInitialized = errors.New("sheets service not initialized")

// Options selects the spreadsheet and how to authenticate. Service account
// credentials win over OAuth when both are set.
type Options struct {
	SpreadsheetID      string
	SheetName          string
	ServiceAccountJSON string
	ServiceAccountFile string
	OAuthClientFile    string
	OAuthTokenFile     string
}

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string

	// serializes find-then-write so two upserts of one id cannot both append
	mu      sync.Mutex
	sheetID *int64
}

// New creates a Sheets client for the mirror sheet.
func New(ctx context.Context, opts Options) (*Client, error) {
	spreadsheetID := strings.TrimSpace(opts.SpreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	sheetName := strings.TrimSpace(opts.SheetName)
	if sheetName == "" {
		sheetName = "Transactions"
	}

	svc, err := newSheetsService(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return &Client{svc: svc, spreadsheetID: spreadsheetID, sheetName: sheetName}, nil
}

// newSheetsService prefers service account credentials and falls back to an
// OAuth client plus a token saved by sheets-auth.
func newSheetsService(ctx context.Context, opts Options) (*gsheet.Service, error) {
	switch {
	case strings.TrimSpace(opts.ServiceAccountJSON) != "":
		slog.InfoContext(ctx, "Using inline service account credentials")
		return serviceAccountService(ctx, []byte(opts.ServiceAccountJSON))
	case strings.TrimSpace(opts.ServiceAccountFile) != "":
		slog.InfoContext(ctx, "Reading service account credentials", "path", opts.ServiceAccountFile)
		b, err := os.ReadFile(opts.ServiceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return serviceAccountService(ctx, b)
	case opts.OAuthClientFile != "" && opts.OAuthTokenFile != "":
		slog.InfoContext(ctx, "Using OAuth credentials", "client_file", opts.OAuthClientFile, "token_file", opts.OAuthTokenFile)
		return oauthService(ctx, opts.OAuthClientFile, opts.OAuthTokenFile)
	default:
		return nil, errors.New("missing credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_OAUTH_CLIENT_FILE with GOOGLE_OAUTH_TOKEN_FILE)")
	}
}

func serviceAccountService(ctx context.Context, credentialsJSON []byte) (*gsheet.Service, error) {
	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return svc, nil
}

func oauthService(ctx context.Context, clientFile, tokenFile string) (*gsheet.Service, error) {
	b, err := os.ReadFile(clientFile)
	if err != nil {
		return nil, fmt.Errorf("read oauth client file: %w", err)
	}
	cfg, err := goauth.ConfigFromJSON(b, gsheet.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("oauth config: %w", err)
	}
	tok, err := LoadToken(tokenFile)
	if err != nil {
		return nil, err
	}

	// the token source keeps ctx for refreshes, so it must outlive New
	ctx = context.WithValue(context.WithoutCancel(ctx), oauth2.HTTPClient, newHTTPClientWithPooling())
	svc, err := gsheet.NewService(ctx, goption.WithHTTPClient(cfg.Client(ctx, tok)))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return svc, nil
}

// LoadToken reads an OAuth token saved by SaveToken.
func LoadToken(path string) (*oauth2.Token, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open token file: %w", err)
	}
	defer f.Close()
	var tok oauth2.Token
	if err := json.NewDecoder(f).Decode(&tok); err != nil {
		return nil, fmt.Errorf("decode token: %w", err)
	}
	return &tok, nil
}

// SaveToken writes tok with owner-only permissions.
func SaveToken(path string, tok *oauth2.Token) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("open token file: %w", err)
	}
	if err := json.NewEncoder(f).Encode(tok); err != nil {
		f.Close()
		return fmt.Errorf("write token: %w", err)
	}
	return f.Close()
}

// newHTTPClientWithPooling creates an HTTP client tuned for the Sheets API.
func newHTTPClientWithPooling() *http.Client {
	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}

	transport := &http.Transport{
		DialContext:           dialer.DialContext,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   10,
		MaxConnsPerHost:       50,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 30 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		ForceAttemptHTTP2:     true,
	}

	return &http.Client{
		Transport: transport,
		Timeout:   60 * time.Second,
	}
}

func (c *Client) UpsertTransaction(ctx context.Context, userID string, tx core.Transaction) error {
	if err := tx.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	if tx.ID == "" {
		return core.ErrMissingID
	}
	if c.svc == nil {
		return errNotInitialized
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	keys, err := c.readKeys(ctx)
	if err != nil {
		return err
	}

	row := sheets.FormatRow(userID, tx)
	if idx := sheets.FindRow(keys, userID, tx.ID); idx >= 0 {
		rng := sheets.RowRange(c.sheetName, idx+1)
		_, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, &gsheet.ValueRange{Values: [][]any{row}}).
			ValueInputOption("USER_ENTERED").Context(ctx).Do()
		if err != nil {
			return fmt.Errorf("update %s: %w", rng, err)
		}
		return nil
	}

	values := [][]any{row}
	if len(keys) == 0 {
		values = [][]any{sheets.Header, row}
	}
	rng := sheets.TableRange(c.sheetName)
	_, err = c.svc.Spreadsheets.Values.Append(c.spreadsheetID, rng, &gsheet.ValueRange{Values: values}).
		ValueInputOption("USER_ENTERED").InsertDataOption("INSERT_ROWS").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("append to %s: %w", rng, err)
	}
	return nil
}

func (c *Client) DeleteTransaction(ctx context.Context, userID, id string) error {
	if id == "" {
		return core.ErrMissingID
	}
	if c.svc == nil {
		return errNotInitialized
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	keys, err := c.readKeys(ctx)
	if err != nil {
		return err
	}
	idx := sheets.FindRow(keys, userID, id)
	if idx < 0 {
		return nil
	}
	sheetID, err := c.sheetIDLocked(ctx)
	if err != nil {
		return err
	}

	req := &gsheet.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheet.Request{{
			DeleteDimension: &gsheet.DeleteDimensionRequest{
				Range: &gsheet.DimensionRange{
					SheetId:         sheetID,
					Dimension:       "ROWS",
					StartIndex:      int64(idx),
					EndIndex:        int64(idx + 1),
					ForceSendFields: []string{"SheetId", "StartIndex"},
				},
			},
		}},
	}
	if _, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("delete row %d of %s: %w", idx+1, c.sheetName, err)
	}
	return nil
}

func (c *Client) readKeys(ctx context.Context) ([][]any, error) {
	rng := sheets.KeyColumnsRange(c.sheetName)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rng, err)
	}
	return resp.Values, nil
}

// sheetIDLocked resolves the numeric id of the mirror tab once. Caller holds mu.
func (c *Client) sheetIDLocked(ctx context.Context) (int64, error) {
	if c.sheetID != nil {
		return *c.sheetID, nil
	}
	ss, err := c.svc.Spreadsheets.Get(c.spreadsheetID).Fields("sheets.properties").Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("read spreadsheet metadata: %w", err)
	}
	id, ok := findSheetID(ss.Sheets, c.sheetName)
	if !ok {
		return 0, fmt.Errorf("sheet %q not found in spreadsheet", c.sheetName)
	}
	c.sheetID = &id
	return id, nil
}

func findSheetID(tabs []*gsheet.Sheet, name string) (int64, bool) {
	for _, s := range tabs {
		if s == nil || s.Properties == nil {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(s.Properties.Title), name) {
			return s.Properties.SheetId, true
		}
	}
	return 0, false
}
