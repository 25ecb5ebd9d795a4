package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvAPIKey names the environment variable that carries the
// TradingEconomics credential. It wins over the config file so the key can
// stay out of version control.
const EnvAPIKey = "TRADING_ECONOMICS_API_KEY"

const (
	defaultListen  = "127.0.0.1:8080"
	defaultRefresh = "0 * * * *"
	defaultSource  = "auto"
	defaultBaseURL = "https://api.tradingeconomics.com"
)

// BasicAuthConfig holds HTTP Basic Auth credentials for the API.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// APIConfig configures the TradingEconomics client.
type APIConfig struct {
	BaseURL string `yaml:"base_url" json:"base_url"`

	// Key is sent verbatim in the Authorization header. Empty means the
	// anonymous guest credential.
	Key string `yaml:"key,omitempty" json:"-"`

	// CacheTTL is how long a fetched payload is reused.
	CacheTTL time.Duration `yaml:"cache_ttl" json:"cache_ttl"`

	// CacheDir, if set, persists payloads on disk instead of in memory.
	CacheDir string `yaml:"cache_dir,omitempty" json:"cache_dir,omitempty"`

	Timeout       time.Duration `yaml:"timeout" json:"timeout"`
	RatePerSecond float64       `yaml:"rate_per_second" json:"rate_per_second"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address for the API.
	Listen string `yaml:"listen" json:"listen"`

	// RefreshCron is a standard 5-field cron expression that controls how
	// often the remote calendar is re-fetched and the event cache warmed.
	RefreshCron string `yaml:"refresh" json:"refresh"`

	// Source selects where events come from:
	//   - "auto" (default): remote calendar, computed schedule when empty
	//   - "api": remote calendar only
	//   - "computed": rule engine only
	Source string `yaml:"source" json:"source"`

	// WarmYearsAhead is how many years after the current one are warmed on
	// each refresh.
	WarmYearsAhead int `yaml:"warm_years_ahead" json:"warm_years_ahead"`

	// EventsCacheTTL bounds how long the HTTP layer reuses built event lists.
	EventsCacheTTL time.Duration `yaml:"events_cache_ttl" json:"events_cache_ttl"`

	API APIConfig `yaml:"api" json:"api"`

	// CORSOrigins lists the origins allowed to call the API from a browser.
	CORSOrigins []string `yaml:"cors_origins" json:"cors_origins"`

	LogLevel string `yaml:"log_level" json:"log_level"`

	// BasicAuth, if non-nil, enables HTTP Basic Authentication on all
	// endpoints except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:         defaultListen,
		RefreshCron:    defaultRefresh,
		Source:         defaultSource,
		WarmYearsAhead: 1,
		EventsCacheTTL: 10 * time.Minute,
		API: APIConfig{
			BaseURL:       defaultBaseURL,
			CacheTTL:      time.Hour,
			Timeout:       15 * time.Second,
			RatePerSecond: 1,
		},
		CORSOrigins: []string{"*"},
		LogLevel:    "INFO",
	}
}

// Normalize fills in missing/zero values with sensible defaults so that
// partially-filled configs still behave correctly.
func (c *Config) Normalize() {
	d := DefaultConfig()

	if c.Listen == "" {
		c.Listen = d.Listen
	}
	if strings.TrimSpace(c.RefreshCron) == "" {
		c.RefreshCron = d.RefreshCron
	}
	switch c.Source {
	case "auto", "api", "computed":
	default:
		c.Source = d.Source
	}
	if c.WarmYearsAhead < 0 {
		c.WarmYearsAhead = 0
	}
	if c.EventsCacheTTL <= 0 {
		c.EventsCacheTTL = d.EventsCacheTTL
	}

	if c.API.BaseURL == "" {
		c.API.BaseURL = d.API.BaseURL
	}
	if c.API.CacheTTL <= 0 {
		c.API.CacheTTL = d.API.CacheTTL
	}
	if c.API.Timeout <= 0 {
		c.API.Timeout = d.API.Timeout
	}
	// Negative disables pacing; only zero is replaced.
	if c.API.RatePerSecond == 0 {
		c.API.RatePerSecond = d.API.RatePerSecond
	}

	if c.CORSOrigins == nil {
		c.CORSOrigins = d.CORSOrigins
	}
	if c.LogLevel == "" {
		c.LogLevel = d.LogLevel
	}
	if c.BasicAuth != nil && c.BasicAuth.Username == "" && c.BasicAuth.Password == "" {
		c.BasicAuth = nil
	}
}

// ApplyEnv loads envFile (if non-empty and present) into the process
// environment without overriding variables that are already set, then
// applies environment overrides to c.
func (c *Config) ApplyEnv(envFile string) error {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	if key := strings.TrimSpace(os.Getenv(EnvAPIKey)); key != "" {
		c.API.Key = key
	}
	return nil
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - If the file does not exist, a default config is written with 0600
//     perms and returned.
//   - If the file exists, it is unmarshalled and normalized.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				// Even if save fails, return cfg with error so caller can decide.
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()

	return cfg, nil
}

// Save writes cfg to path atomically (temp file + rename) with 0600
// permissions, creating the parent directory (0700) if needed.
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

	tmp, err := os.CreateTemp(dir, ".econcal-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
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

	return os.Rename(tmpName, path)
}

func (c *Config) Save(path string) error {
	return Save(path, c)
}
