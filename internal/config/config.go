// Package config gathers settings from the environment (and .env.local), an
// optional YAML file, and command-line flags, in that order.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/joho/godotenv"

	"github.com/pinkertons/activity-ledger/internal/geocoding"
)

var (
	ErrMissingDatabase     = errors.New("DATABASE_URL or DB_HOST/DB_NAME/DB_USER must be set")
	ErrMissingSchema       = errors.New("DB_SCHEMA must not be empty")
	ErrInvalidBatchSize    = errors.New("IMPORT_BATCH_SIZE must be positive")
	ErrInvalidMinInterval  = errors.New("GEOCODE_MIN_INTERVAL must be positive")
	ErrMissingUserAgent    = errors.New("NOMINATIM_USER_AGENT must be set when geocoding is enabled")
	ErrInvalidGeocodeCache = errors.New("GEOCODE_CACHE_SIZE must be positive")
)

type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Import   ImportConfig   `yaml:"import"`
	Geocode  GeocodeConfig  `yaml:"geocode"`
	LogMode  string         `yaml:"log_mode"`
	Port     string         `yaml:"port"`
	// Origins allowed to call the read API from a browser.
	CORSOrigins []string `yaml:"cors_origins"`
}

type DatabaseConfig struct {
	URL      string `yaml:"url"`
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslmode"`
	Schema   string `yaml:"schema"`
}

type ImportConfig struct {
	BatchSize int `yaml:"batch_size"`
}

type GeocodeConfig struct {
	Enabled        bool          `yaml:"enabled"`
	Provider       string        `yaml:"provider"`
	APIKey         string        `yaml:"api_key"`
	AllowedRegions []string      `yaml:"allowed_regions"`
	URL            string        `yaml:"url"`
	UserAgent      string        `yaml:"user_agent"`
	Country        string        `yaml:"country"`
	MinInterval    time.Duration `yaml:"min_interval"`
	CacheSize      int           `yaml:"cache_size"`
	Timeout        time.Duration `yaml:"timeout"`
}

// Default returns the settings used when nothing overrides them.
func Default() Config {
	return Config{
		Database: DatabaseConfig{
			Port:    "5432",
			SSLMode: "prefer",
			Schema:  "elpaso",
		},
		Import: ImportConfig{BatchSize: 100},
		Geocode: GeocodeConfig{
			Provider:       "nominatim",
			AllowedRegions: []string{"TX", "AZ", "NM"},
			URL:            geocoding.DefaultBaseURL,
			UserAgent:      geocoding.DefaultUserAgent,
			Country:        geocoding.DefaultCountry,
			MinInterval:    geocoding.DefaultMinInterval,
			CacheSize:      geocoding.DefaultCacheSize,
			Timeout:        10 * time.Second,
		},
		LogMode:     "dev",
		Port:        "5050",
		CORSOrigins: []string{"http://localhost:1313"},
	}
}

// Load reads .env.local if present, applies the environment over the
// defaults, then overlays the YAML file at path when path is non-empty.
func Load(path string) (Config, error) {
	_ = godotenv.Load(".env.local")

	cfg, err := LoadFromEnv()
	if err != nil {
		return cfg, err
	}
	if path != "" {
		if err := LoadFile(path, &cfg); err != nil {
			return cfg, err
		}
	}
	return cfg, nil
}

// LoadFromEnv applies environment variables over Default.
func LoadFromEnv() (Config, error) {
	cfg := Default()
	e := envReader{}

	e.stringVar("DATABASE_URL", &cfg.Database.URL)
	e.stringVar("DB_HOST", &cfg.Database.Host)
	e.stringVar("DB_PORT", &cfg.Database.Port)
	e.stringVar("DB_NAME", &cfg.Database.Name)
	e.stringVar("DB_USER", &cfg.Database.User)
	e.stringVar("DB_PASSWORD", &cfg.Database.Password)
	e.stringVar("DB_SSLMODE", &cfg.Database.SSLMode)
	e.stringVar("DB_SCHEMA", &cfg.Database.Schema)

	e.intVar("IMPORT_BATCH_SIZE", &cfg.Import.BatchSize)

	e.boolVar("GEOCODE_ENABLED", &cfg.Geocode.Enabled)
	if v, ok := os.LookupEnv("GEOCODE_ALLOWED_REGIONS"); ok {
		cfg.Geocode.AllowedRegions = geocoding.ParseRegions(v)
	}
	e.stringVar("GEOCODE_PROVIDER", &cfg.Geocode.Provider)
	e.stringVar("GOOGLE_MAPS_API_KEY", &cfg.Geocode.APIKey)
	e.stringVar("NOMINATIM_URL", &cfg.Geocode.URL)
	e.stringVar("NOMINATIM_USER_AGENT", &cfg.Geocode.UserAgent)
	e.stringVar("GEOCODE_COUNTRY", &cfg.Geocode.Country)
	e.durationVar("GEOCODE_MIN_INTERVAL", &cfg.Geocode.MinInterval)
	e.intVar("GEOCODE_CACHE_SIZE", &cfg.Geocode.CacheSize)
	e.durationVar("GEOCODE_TIMEOUT", &cfg.Geocode.Timeout)

	e.stringVar("LOG_MODE", &cfg.LogMode)
	e.stringVar("PORT", &cfg.Port)
	if v, ok := os.LookupEnv("CORS_ALLOWED_ORIGINS"); ok {
		cfg.CORSOrigins = splitList(v)
	}

	return cfg, errors.Join(e.errs...)
}

// LoadFile overlays the keys present in a YAML file onto cfg.
func LoadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to unmarshal config %s: %w", path, err)
	}
	return nil
}

// Validate checks the settings every command needs.
func (c Config) Validate() error {
	var errs []error
	if c.Database.URL == "" && (c.Database.Host == "" || c.Database.Name == "" || c.Database.User == "") {
		errs = append(errs, ErrMissingDatabase)
	}
	if strings.TrimSpace(c.Database.Schema) == "" {
		errs = append(errs, ErrMissingSchema)
	}
	if c.Import.BatchSize <= 0 {
		errs = append(errs, ErrInvalidBatchSize)
	}
	if c.Geocode.Enabled {
		if c.Geocode.MinInterval <= 0 {
			errs = append(errs, ErrInvalidMinInterval)
		}
		if strings.TrimSpace(c.Geocode.UserAgent) == "" {
			errs = append(errs, ErrMissingUserAgent)
		}
		if c.Geocode.CacheSize <= 0 {
			errs = append(errs, ErrInvalidGeocodeCache)
		}
		if strings.EqualFold(c.Geocode.Provider, "google") && c.Geocode.APIKey == "" {
			errs = append(errs, geocoding.ErrMissingAPIKey)
		}
	}
	return errors.Join(errs...)
}

// DSN returns DATABASE_URL, or a key/value DSN built from the DB_* parts.
func (d DatabaseConfig) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// envReader collects parse errors so every bad variable is reported at once.
type envReader struct {
	errs []error
}

func (e *envReader) stringVar(key string, dst *string) {
	if v, ok := os.LookupEnv(key); ok {
		*dst = strings.TrimSpace(v)
	}
}

func (e *envReader) intVar(key string, dst *int) {
	v, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(v) == "" {
		return
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s: %w", key, err))
		return
	}
	*dst = n
}

func (e *envReader) boolVar(key string, dst *bool) {
	v, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(v) == "" {
		return
	}
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s: %w", key, err))
		return
	}
	*dst = b
}

func (e *envReader) durationVar(key string, dst *time.Duration) {
	v, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(v) == "" {
		return
	}
	d, err := time.ParseDuration(strings.TrimSpace(v))
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s: %w", key, err))
		return
	}
	*dst = d
}
