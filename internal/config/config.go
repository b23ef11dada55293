package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ICSConfig describes a single read-only ICS subscription used as an extra
// source of existing events for duplicate detection.
type ICSConfig struct {
	// URL is the ICS subscription endpoint.
	URL string `yaml:"url" json:"url"`
	// ID is an internal identifier used for caching and logging.
	ID string `yaml:"id" json:"id"`
	// Name is a human-friendly label.
	Name string `yaml:"name" json:"name"`
}

// BasicAuthConfig holds HTTP Basic Auth credentials for the API.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// TaggerConfig controls the optional ONNX entity tagger. The engine is fully
// functional with the tagger disabled; it only loses one source of location
// candidates and the noun fallback for event labels.
type TaggerConfig struct {
	Enabled bool `yaml:"enabled" json:"enabled"`
	// Model is the Hugging Face model name of a token-classification model.
	Model string `yaml:"model" json:"model"`
	// ModelDir is where downloaded models are stored.
	ModelDir string `yaml:"model_dir" json:"model_dir"`
}

// Config is the top-level application configuration.
//
// Google OAuth client credentials intentionally do NOT live here; they are
// read from the environment (GOOGLE_CLIENT_ID / GOOGLE_CLIENT_SECRET),
// optionally via a .env file, so the config file stays safe to share.
type Config struct {
	// Listen is the HTTP listen address for the API.
	Listen string `yaml:"listen" json:"listen"`

	// Timezone is the IANA civil timezone all timestamps are resolved into
	// (e.g. "Asia/Seoul"). Input text never carries timezone information,
	// so this single zone is authoritative.
	Timezone string `yaml:"timezone" json:"timezone"`

	// Delimiter splits the raw input into per-event clauses.
	Delimiter string `yaml:"delimiter" json:"delimiter"`

	// CalendarID is the Google Calendar to reconcile against.
	CalendarID string `yaml:"calendar_id" json:"calendar_id"`

	// RefreshCron is a cron-style schedule for proactive OAuth token
	// refresh (e.g. "*/30 * * * *").
	RefreshCron string `yaml:"refresh" json:"refresh"`

	// RedirectURL is the OAuth callback URL registered with Google.
	RedirectURL string `yaml:"redirect_url" json:"redirect_url"`

	// LocationKeywordsPath / EventKeywordsPath point at flat JSON string
	// arrays. Missing or malformed files degrade to built-in defaults.
	LocationKeywordsPath string `yaml:"location_keywords" json:"location_keywords"`
	EventKeywordsPath    string `yaml:"event_keywords" json:"event_keywords"`

	// Tagger configures the optional entity tagger.
	Tagger TaggerConfig `yaml:"tagger" json:"tagger"`

	// ICS is an optional list of read-only subscription sources consulted
	// for duplicate detection in addition to Google Calendar.
	ICS []ICSConfig `yaml:"ics" json:"ics"`

	// BasicAuth, if non-nil, enables HTTP Basic Authentication on all
	// endpoints except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:               "127.0.0.1:8001",
		Timezone:             "Asia/Seoul",
		Delimiter:            ",",
		CalendarID:           "primary",
		RefreshCron:          "*/30 * * * *",
		RedirectURL:          "http://localhost:8001/auth/callback",
		LocationKeywordsPath: "location_keywords.json",
		EventKeywordsPath:    "event_keywords.json",
		Tagger: TaggerConfig{
			Enabled:  false,
			Model:    "Leo97/KoELECTRA-small-v3-modu-ner",
			ModelDir: "./models",
		},
		ICS:       []ICSConfig{},
		BasicAuth: nil,
	}
}

// Normalize fills in missing/zero values with sensible defaults so that
// partially-filled configs still behave correctly.
func (c *Config) Normalize() {
	if c.Listen == "" {
		c.Listen = "127.0.0.1:8001"
	}
	if c.Timezone == "" {
		c.Timezone = "Asia/Seoul"
	}
	if c.Delimiter == "" {
		c.Delimiter = ","
	}
	if c.CalendarID == "" {
		c.CalendarID = "primary"
	}
	if c.RefreshCron == "" {
		c.RefreshCron = "*/30 * * * *"
	}
	if c.RedirectURL == "" {
		c.RedirectURL = "http://localhost:8001/auth/callback"
	}
	if c.LocationKeywordsPath == "" {
		c.LocationKeywordsPath = "location_keywords.json"
	}
	if c.EventKeywordsPath == "" {
		c.EventKeywordsPath = "event_keywords.json"
	}
	if c.Tagger.Model == "" {
		c.Tagger.Model = "Leo97/KoELECTRA-small-v3-modu-ner"
	}
	if c.Tagger.ModelDir == "" {
		c.Tagger.ModelDir = "./models"
	}
	if c.ICS == nil {
		c.ICS = []ICSConfig{}
	}
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - If the file does not exist:
//   - create parent directory if needed
//   - write a default config with 0600 perms
//   - return the default config
//   - If the file exists:
//   - read YAML and unmarshal into Config
//   - normalize defaults
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			// First run: create default config file.
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				// Even if save fails, return cfg with error so caller can decide.
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()

	return &cfg, nil
}

// Save writes the given configuration to the specified path.
//
// Implementation details:
//   - Ensures parent directory exists (0700).
//   - Marshals cfg to YAML.
//   - Writes atomically via a temp file + rename.
//   - Ensures final file permissions are 0600.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	// Atomic write: write to temp file in same directory then rename.
	tmp, err := os.CreateTemp(dir, ".kscal-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	// Ensure we clean up temp file on error.
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}

	// Flush and close before chmod/rename.
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}

	if err := os.Rename(tmpName, path); err != nil {
		return err
	}

	return nil
}

// Save is a convenience method on Config that delegates to the package-level
// Save function.
func (c *Config) Save(path string) error {
	return Save(path, c)
}
