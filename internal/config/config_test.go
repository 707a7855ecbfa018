package config

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/pinkertons/activity-ledger/internal/geocoding"
)

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://ledger@localhost/pinkertons")
	t.Setenv("DB_SCHEMA", "archive")
	t.Setenv("IMPORT_BATCH_SIZE", "25")
	t.Setenv("GEOCODE_ENABLED", "true")
	t.Setenv("GEOCODE_ALLOWED_REGIONS", "texas, nm,TX")
	t.Setenv("GEOCODE_MIN_INTERVAL", "1500ms")

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv: %v", err)
	}
	if cfg.Database.DSN() != "postgres://ledger@localhost/pinkertons" || cfg.Database.Schema != "archive" {
		t.Errorf("database = %+v", cfg.Database)
	}
	if cfg.Import.BatchSize != 25 || !cfg.Geocode.Enabled || cfg.Geocode.MinInterval != 1500*time.Millisecond {
		t.Errorf("cfg = %+v", cfg)
	}
	if want := []string{"TX", "NM"}; !reflect.DeepEqual(cfg.Geocode.AllowedRegions, want) {
		t.Errorf("regions = %v, want %v", cfg.Geocode.AllowedRegions, want)
	}
	if cfg.Geocode.CacheSize != 1000 || cfg.Port != "5050" {
		t.Errorf("defaults lost: %+v", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestLoadFromEnvReportsBadValues(t *testing.T) {
	t.Setenv("IMPORT_BATCH_SIZE", "lots")
	t.Setenv("GEOCODE_TIMEOUT", "soon")

	_, err := LoadFromEnv()
	if err == nil {
		t.Fatal("want error for unparseable variables")
	}
}

func TestDSNFromParts(t *testing.T) {
	d := DatabaseConfig{Host: "db", Port: "5433", Name: "ledger", User: "pink", Password: "secret", SSLMode: "disable"}
	want := "host=db port=5433 user=pink password=secret dbname=ledger sslmode=disable"
	if got := d.DSN(); got != want {
		t.Errorf("DSN = %q, want %q", got, want)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		want   error
	}{
		{"no database", func(c *Config) {}, ErrMissingDatabase},
		{"empty schema", func(c *Config) { c.Database.URL = "x"; c.Database.Schema = " " }, ErrMissingSchema},
		{"zero batch", func(c *Config) { c.Database.URL = "x"; c.Import.BatchSize = 0 }, ErrInvalidBatchSize},
		{"geocode without interval", func(c *Config) {
			c.Database.URL = "x"
			c.Geocode.Enabled = true
			c.Geocode.MinInterval = 0
		}, ErrInvalidMinInterval},
		{"geocode without agent", func(c *Config) {
			c.Database.URL = "x"
			c.Geocode.Enabled = true
			c.Geocode.UserAgent = ""
		}, ErrMissingUserAgent},
		{"google without key", func(c *Config) {
			c.Database.URL = "x"
			c.Geocode.Enabled = true
			c.Geocode.Provider = "google"
		}, geocoding.ErrMissingAPIKey},
		{"valid", func(c *Config) { c.Database.URL = "x" }, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(&cfg)
			err := cfg.Validate()
			if tt.want == nil {
				if err != nil {
					t.Errorf("Validate = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("Validate = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestLoadFileOverlays(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.yaml")
	data := []byte(`
database:
  schema: ledger_1905
geocode:
  enabled: true
  allowed_regions: [TX, CO]
  cache_size: 50
`)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatal(err)
	}

	cfg := Default()
	cfg.Database.URL = "postgres://from-env"
	if err := LoadFile(path, &cfg); err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.Database.Schema != "ledger_1905" || cfg.Database.URL != "postgres://from-env" {
		t.Errorf("database = %+v", cfg.Database)
	}
	if !cfg.Geocode.Enabled || cfg.Geocode.CacheSize != 50 || !reflect.DeepEqual(cfg.Geocode.AllowedRegions, []string{"TX", "CO"}) {
		t.Errorf("geocode = %+v", cfg.Geocode)
	}
	if cfg.Geocode.UserAgent == "" {
		t.Error("keys absent from the file must keep their values")
	}
}
