package googlecal

import (
	"context"
	"errors"
	"os"
	"sync"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gcal "google.golang.org/api/calendar/v3"

	"kscal/internal/calendar"
	appLog "kscal/internal/log"
)

// DefaultUserKey identifies the single credential slot. Token storage is
// in-memory only: restarting the process requires a fresh login.
const DefaultUserKey = "default"

// TokenStore keeps OAuth tokens per user key, in memory.
type TokenStore struct {
	mu     sync.RWMutex
	tokens map[string]*oauth2.Token
}

func NewTokenStore() *TokenStore {
	return &TokenStore{tokens: make(map[string]*oauth2.Token)}
}

func (s *TokenStore) Set(userKey string, tok *oauth2.Token) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[userKey] = tok
}

func (s *TokenStore) Get(userKey string) (*oauth2.Token, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tok, ok := s.tokens[userKey]
	return tok, ok
}

// OAuthConfig builds the Google OAuth2 code-flow configuration from the
// environment (GOOGLE_CLIENT_ID / GOOGLE_CLIENT_SECRET). The caller is
// expected to have loaded a .env file beforehand if one exists.
func OAuthConfig(redirectURL string) (*oauth2.Config, error) {
	clientID := os.Getenv("GOOGLE_CLIENT_ID")
	clientSecret := os.Getenv("GOOGLE_CLIENT_SECRET")
	if clientID == "" || clientSecret == "" {
		return nil, errors.New("GOOGLE_CLIENT_ID / GOOGLE_CLIENT_SECRET are not set")
	}

	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURL,
		Scopes:       []string{gcal.CalendarScope},
		Endpoint:     google.Endpoint,
	}, nil
}

// Refresh proactively refreshes the stored token so interactive requests do
// not pay the refresh round-trip. Called from the cron schedule in cmd.
// A missing token is not an error here; it just means nobody logged in yet.
func Refresh(ctx context.Context, cfg *oauth2.Config, store *TokenStore, userKey string) error {
	tok, ok := store.Get(userKey)
	if !ok {
		appLog.Debug("token refresh skipped; no stored token", "user_key", userKey)
		return nil
	}

	newTok, err := cfg.TokenSource(ctx, tok).Token()
	if err != nil {
		appLog.Error("token refresh failed", err, "user_key", userKey)
		return errors.Join(calendar.ErrAuthRequired, err)
	}
	if newTok.AccessToken != tok.AccessToken {
		store.Set(userKey, newTok)
		appLog.Info("oauth token refreshed", "user_key", userKey, "expiry", newTok.Expiry)
	}
	return nil
}
