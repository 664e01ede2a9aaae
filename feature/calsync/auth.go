package calsync

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/goccy/go-json"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
)

// ErrNoToken is returned when no cached token exists and no authorization
// code is available to obtain one.
var ErrNoToken = errors.New("calsync: no OAuth token, run 'planner sync auth' first")

// TokenFile stores an OAuth token as JSON on disk.
type TokenFile struct {
	Path string
}

// Load returns the cached token, or nil when the file does not exist.
func (f TokenFile) Load() (*oauth2.Token, error) {
	data, err := os.ReadFile(f.Path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read token: %w", err)
	}
	var token oauth2.Token
	if err := json.Unmarshal(data, &token); err != nil {
		return nil, fmt.Errorf("failed to parse token %s: %w", f.Path, err)
	}
	return &token, nil
}

// Save writes token with owner-only permissions.
func (f TokenFile) Save(token *oauth2.Token) error {
	data, err := json.Marshal(token)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(f.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("failed to create token dir: %w", err)
		}
	}
	if err := os.WriteFile(f.Path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write token: %w", err)
	}
	return nil
}

// autoSaveTokenSource persists tokens whenever the wrapped source refreshes them.
type autoSaveTokenSource struct {
	mu     sync.Mutex
	source oauth2.TokenSource
	file   TokenFile
	last   *oauth2.Token
}

func (a *autoSaveTokenSource) Token() (*oauth2.Token, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	token, err := a.source.Token()
	if err != nil {
		return nil, err
	}
	if a.last == nil || a.last.AccessToken != token.AccessToken {
		if err := a.file.Save(token); err != nil {
			return nil, fmt.Errorf("failed to save refreshed token: %w", err)
		}
		a.last = token
	}
	return token, nil
}

// OAuthConfig reads the client credentials file for the calendar events scope.
func OAuthConfig(credentialsPath string) (*oauth2.Config, error) {
	data, err := os.ReadFile(credentialsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read credentials: %w", err)
	}
	cfg, err := google.ConfigFromJSON(data, calendar.CalendarEventsScope)
	if err != nil {
		return nil, fmt.Errorf("failed to parse credentials: %w", err)
	}
	return cfg, nil
}

// AuthURL returns the consent URL the user visits to get an authorization code.
func AuthURL(cfg *oauth2.Config) string {
	return cfg.AuthCodeURL("planner-sync", oauth2.AccessTypeOffline)
}

// Exchange trades an authorization code read from r for a token and caches it.
func Exchange(ctx context.Context, cfg *oauth2.Config, file TokenFile, r io.Reader) (*oauth2.Token, error) {
	var code string
	if _, err := fmt.Fscanln(r, &code); err != nil {
		return nil, fmt.Errorf("failed to read authorization code: %w", err)
	}
	token, err := cfg.Exchange(ctx, strings.TrimSpace(code))
	if err != nil {
		return nil, fmt.Errorf("failed to exchange authorization code: %w", err)
	}
	if err := file.Save(token); err != nil {
		return nil, err
	}
	return token, nil
}

// HTTPClient returns a client authorized with the cached token. Refreshed
// tokens are written back to file.
func HTTPClient(ctx context.Context, cfg *oauth2.Config, file TokenFile) (*http.Client, error) {
	token, err := file.Load()
	if err != nil {
		return nil, err
	}
	if token == nil {
		return nil, ErrNoToken
	}
	source := &autoSaveTokenSource{
		source: oauth2.ReuseTokenSource(token, cfg.TokenSource(ctx, token)),
		file:   file,
		last:   token,
	}
	return oauth2.NewClient(ctx, source), nil
}
