package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFirstRunCreatesDefaultFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.yaml")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "127.0.0.1:8001", cfg.Listen)
	assert.Equal(t, "Asia/Seoul", cfg.Timezone)
	assert.Equal(t, ",", cfg.Delimiter)
	assert.Equal(t, "primary", cfg.CalendarID)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestLoadExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte(`
listen: "0.0.0.0:9000"
timezone: "Asia/Seoul"
calendar_id: "team@example.com"
ics:
  - url: "https://example.com/feed.ics"
    id: "team"
basic_auth:
  username: "user"
  password: "pass"
`)
	require.NoError(t, os.WriteFile(path, data, 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:9000", cfg.Listen)
	assert.Equal(t, "team@example.com", cfg.CalendarID)
	require.Len(t, cfg.ICS, 1)
	assert.Equal(t, "https://example.com/feed.ics", cfg.ICS[0].URL)
	require.NotNil(t, cfg.BasicAuth)
	assert.Equal(t, "user", cfg.BasicAuth.Username)

	// Unset fields are normalized to defaults.
	assert.Equal(t, ",", cfg.Delimiter)
	assert.Equal(t, "*/30 * * * *", cfg.RefreshCron)
}

func TestLoadMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("listen: [unclosed"), 0o600))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestNormalize(t *testing.T) {
	var cfg Config
	cfg.Normalize()

	assert.Equal(t, "127.0.0.1:8001", cfg.Listen)
	assert.Equal(t, "Asia/Seoul", cfg.Timezone)
	assert.Equal(t, "Leo97/KoELECTRA-small-v3-modu-ner", cfg.Tagger.Model)
	assert.NotNil(t, cfg.ICS)
	assert.Nil(t, cfg.BasicAuth)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	cfg := DefaultConfig()
	cfg.Listen = "127.0.0.1:9999"
	cfg.ICS = []ICSConfig{{URL: "https://example.com/a.ics", ID: "a", Name: "A"}}
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.Listen, loaded.Listen)
	assert.Equal(t, cfg.ICS, loaded.ICS)
}
