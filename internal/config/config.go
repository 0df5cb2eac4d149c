// Package config loads nocoview settings from a JSON config file with
// environment variable overrides. The config lives in a project-local
// .nocoview directory when present, falling back to ~/.nocoview.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Query modes for the natural-language filter feature.
const (
	QueryModeFuzzy = "fuzzy" // fuzzy partial-ratio matching with threshold
	QueryModePlain = "plain" // direct comparison expressions
	QueryModeOff   = "off"   // NL querying disabled, no LLM key needed
)

// DefaultModel is the Gemini model used for query translation.
const DefaultModel = "gemini-3-flash-preview"

// LoggingConfig controls the categorized debug logging in internal/logging.
// It is read independently by that package; it is mirrored here so Save
// round-trips the full file.
type LoggingConfig struct {
	DebugMode  bool            `json:"debug_mode"`
	Categories map[string]bool `json:"categories,omitempty"`
	Level      string          `json:"level,omitempty"`
}

// Config holds user preferences and connection settings.
type Config struct {
	BaseURL         string        `json:"base_url"`         // NocoDB table records endpoint
	APIToken        string        `json:"api_token"`        // xc-token; NOCODB_API_TOKEN overrides
	GeminiAPIKey    string        `json:"gemini_api_key"`   // GEMINI_API_KEY overrides
	PageSize        int           `json:"page_size"`        // records per page
	CacheTTLSeconds int           `json:"cache_ttl_seconds"`
	FuzzyThreshold  int           `json:"fuzzy_threshold"`  // 0-100
	Model           string        `json:"model"`
	QueryMode       string        `json:"query_mode"`       // fuzzy, plain, off
	Theme           string        `json:"theme"`            // "light" or "dark"
	Logging         LoggingConfig `json:"logging"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		BaseURL:         "http://localhost:8080/api/v2/tables/mywi4xbh6va660a/records",
		PageSize:        100,
		CacheTTLSeconds: 300,
		FuzzyThreshold:  70,
		Model:           DefaultModel,
		QueryMode:       QueryModeFuzzy,
		Theme:           "light",
	}
}

// ConfigDir returns the directory where config is stored.
func ConfigDir() (string, error) {
	// Prefer project-local .nocoview directory if present or creatable.
	if cwd, err := os.Getwd(); err == nil {
		localDir := filepath.Join(cwd, ".nocoview")
		if stat, err := os.Stat(localDir); (err == nil && stat.IsDir()) || os.IsNotExist(err) {
			return localDir, nil
		}
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".nocoview"), nil
}

// ConfigFile returns the full path to the config file.
func ConfigFile() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// Load reads the configuration from disk and applies environment overrides.
func Load() (Config, error) {
	cfg := DefaultConfig()

	path, err := ConfigFile()
	if err != nil {
		return applyEnv(cfg), err
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return applyEnv(cfg), nil
	}
	if err != nil {
		return applyEnv(cfg), err
	}

	if err := json.Unmarshal(data, &cfg); err != nil {
		return applyEnv(DefaultConfig()), fmt.Errorf("parse %s: %w", path, err)
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = 100
	}
	if cfg.CacheTTLSeconds <= 0 {
		cfg.CacheTTLSeconds = 300
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.QueryMode == "" {
		cfg.QueryMode = QueryModeFuzzy
	}
	return applyEnv(cfg), nil
}

// applyEnv layers environment variables over file values. Environment always
// wins so credentials never need to live on disk.
func applyEnv(cfg Config) Config {
	if v := os.Getenv("NOCODB_API_TOKEN"); v != "" {
		cfg.APIToken = v
	}
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		cfg.GeminiAPIKey = v
	}
	if v := os.Getenv("NOCOVIEW_BASE_URL"); v != "" {
		cfg.BaseURL = v
	}
	if os.Getenv("NOCOVIEW_DARK_MODE") == "1" {
		cfg.Theme = "dark"
	}
	return cfg
}

// Save writes the configuration to disk.
func Save(cfg Config) error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	path, err := ConfigFile()
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// CacheTTL returns the fetch cache TTL as a duration.
func (c Config) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSeconds) * time.Second
}

// Validate fails fast on missing credentials, naming the variable so the user
// knows what to export. Called before any fetch is attempted.
func (c Config) Validate() error {
	if strings.TrimSpace(c.BaseURL) == "" {
		return fmt.Errorf("base_url is not configured")
	}
	if strings.TrimSpace(c.APIToken) == "" {
		return fmt.Errorf("NOCODB_API_TOKEN is not set. Please configure it in your environment")
	}
	if c.QueryMode != QueryModeOff && strings.TrimSpace(c.GeminiAPIKey) == "" {
		return fmt.Errorf("GEMINI_API_KEY is not set. The natural language query feature will not work")
	}
	if c.FuzzyThreshold < 0 || c.FuzzyThreshold > 100 {
		return fmt.Errorf("fuzzy_threshold must be between 0 and 100, got %d", c.FuzzyThreshold)
	}
	switch c.QueryMode {
	case QueryModeFuzzy, QueryModePlain, QueryModeOff:
	default:
		return fmt.Errorf("query_mode must be one of fuzzy, plain, off; got %q", c.QueryMode)
	}
	return nil
}
