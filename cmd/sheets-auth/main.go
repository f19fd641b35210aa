// Command sheets-auth runs the OAuth consent flow once and stores the token
// the worker uses to write to the spreadsheet.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	goauth "golang.org/x/oauth2/google"
	gsheet "google.golang.org/api/sheets/v4"

	"bilancio/internal/cli"
	"bilancio/internal/log"
	"bilancio/internal/sheets/google"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(nil, log.ComponentSheets)

	if err := run(logger); err != nil {
		logger.Error("Authorization failed", "error", err)
		os.Exit(1)
	}
}

func run(logger *log.Logger) error {
	var (
		b   []byte
		err error
	)
	clientJSON := os.Getenv("GOOGLE_OAUTH_CLIENT_JSON")
	clientFile := os.Getenv("GOOGLE_OAUTH_CLIENT_FILE")
	switch {
	case clientJSON != "":
		b = []byte(clientJSON)
	case clientFile != "":
		if b, err = os.ReadFile(clientFile); err != nil {
			return fmt.Errorf("read client file: %w", err)
		}
	default:
		return errors.New("set GOOGLE_OAUTH_CLIENT_JSON or GOOGLE_OAUTH_CLIENT_FILE")
	}

	cfg, err := goauth.ConfigFromJSON(b, gsheet.SpreadsheetsScope)
	if err != nil {
		return fmt.Errorf("oauth config: %w", err)
	}

	// The OAuth client must list http://localhost:<port>/callback as an
	// authorized redirect URI.
	redirectPort := os.Getenv("OAUTH_REDIRECT_PORT")
	if redirectPort == "" {
		redirectPort = "8085"
	}
	cfg.RedirectURL = "http://localhost:" + redirectPort + "/callback"

	state := uuid.NewString()
	codeCh := make(chan string, 1)
	mux := http.NewServeMux()
	srv := &http.Server{Addr: "localhost:" + redirectPort, Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	mux.HandleFunc("GET /callback", func(w http.ResponseWriter, r *http.Request) {
		if errStr := r.URL.Query().Get("error"); errStr != "" {
			http.Error(w, "OAuth error: "+errStr, http.StatusBadRequest)
			return
		}
		if r.URL.Query().Get("state") != state {
			http.Error(w, "state mismatch", http.StatusBadRequest)
			return
		}
		fmt.Fprintln(w, "You may close this window and return to the terminal.")
		select {
		case codeCh <- r.URL.Query().Get("code"):
		default:
		}
	})
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Callback server failed", "error", err)
		}
	}()
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}()

	fmt.Printf("Open this URL to authorize:\n%s\n", cfg.AuthCodeURL(state, oauth2.AccessTypeOffline))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var code string
	select {
	case code = <-codeCh:
	case <-time.After(5 * time.Minute):
		return errors.New("authorization timed out")
	case <-ctx.Done():
		return errors.New("interrupted")
	}

	tok, err := cfg.Exchange(ctx, code)
	if err != nil {
		return fmt.Errorf("token exchange: %w", err)
	}

	outFile := os.Getenv("GOOGLE_OAUTH_TOKEN_FILE")
	if outFile == "" {
		outFile = "token.json"
	}
	if err := google.SaveToken(outFile, tok); err != nil {
		return err
	}
	logger.Info("Saved OAuth token", "path", outFile)
	return nil
}
