package googlecal

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"kscal/internal/calendar"
)

func TestTokenStore(t *testing.T) {
	s := NewTokenStore()

	_, ok := s.Get(DefaultUserKey)
	assert.False(t, ok)

	tok := &oauth2.Token{AccessToken: "abc", Expiry: time.Now().Add(time.Hour)}
	s.Set(DefaultUserKey, tok)

	got, ok := s.Get(DefaultUserKey)
	require.True(t, ok)
	assert.Equal(t, "abc", got.AccessToken)

	// Keys are independent slots.
	_, ok = s.Get("someone-else")
	assert.False(t, ok)
}

func TestOAuthConfigFromEnv(t *testing.T) {
	t.Run("missing credentials", func(t *testing.T) {
		t.Setenv("GOOGLE_CLIENT_ID", "")
		t.Setenv("GOOGLE_CLIENT_SECRET", "")
		_, err := OAuthConfig("http://localhost:8001/auth/callback")
		assert.Error(t, err)
	})

	t.Run("reads both variables", func(t *testing.T) {
		t.Setenv("GOOGLE_CLIENT_ID", "id-123")
		t.Setenv("GOOGLE_CLIENT_SECRET", "secret-456")

		cfg, err := OAuthConfig("http://localhost:8001/auth/callback")
		require.NoError(t, err)
		assert.Equal(t, "id-123", cfg.ClientID)
		assert.Equal(t, "secret-456", cfg.ClientSecret)
		assert.Equal(t, "http://localhost:8001/auth/callback", cfg.RedirectURL)
		require.Len(t, cfg.Scopes, 1)
	})
}

func TestRefreshWithoutToken(t *testing.T) {
	cfg := &oauth2.Config{ClientID: "id", ClientSecret: "secret"}
	store := NewTokenStore()

	// Nobody logged in yet: a no-op, not an error.
	err := Refresh(context.Background(), cfg, store, DefaultUserKey)
	assert.NoError(t, err)
}

func TestListEventsWithoutToken(t *testing.T) {
	cfg := &oauth2.Config{ClientID: "id", ClientSecret: "secret"}
	c := NewClient(cfg, NewTokenStore(), DefaultUserKey, "primary", time.UTC)

	_, err := c.ListEvents(context.Background(), time.Now(), time.Now().Add(time.Hour))
	assert.ErrorIs(t, err, calendar.ErrAuthRequired)

	_, err = c.UpsertEvent(context.Background(), "", calendar.EventPayload{})
	assert.ErrorIs(t, err, calendar.ErrAuthRequired)
}
