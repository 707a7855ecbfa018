package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pinkertons/activity-ledger/internal/activityimport"
	"github.com/pinkertons/activity-ledger/internal/config"
	"github.com/pinkertons/activity-ledger/internal/db"
	"github.com/pinkertons/activity-ledger/internal/geocoding"
	"github.com/pinkertons/activity-ledger/internal/logger"
	"github.com/pinkertons/activity-ledger/internal/store"
)

var (
	configPath string
	logMode    string
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "activity-import",
		Short:         "Load the Pinkerton activity ledger into Postgres",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "optional YAML config file")
	rootCmd.PersistentFlags().StringVar(&logMode, "log-mode", "", "dev or prod (overrides LOG_MODE)")

	rootCmd.AddCommand(createImportCmd())
	rootCmd.AddCommand(createGeocodeCmd())
	rootCmd.AddCommand(createBackfillCmd())
	rootCmd.AddCommand(createMigrateCmd())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// env carries what every subcommand sets up first.
type env struct {
	cfg config.Config
	log *logger.Logger
}

func setup(needDB bool) (*env, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if logMode != "" {
		cfg.LogMode = logMode
	}
	if needDB {
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return nil, err
	}
	return &env{cfg: cfg, log: log}, nil
}

func (e *env) openStore() (*store.Store, func(), error) {
	gdb, err := db.Open(e.cfg.Database, e.cfg.LogMode, e.log)
	if err != nil {
		return nil, nil, err
	}
	closeFn := func() {
		if err := db.Close(gdb); err != nil {
			e.log.Warn("closing database", "error", err)
		}
	}
	return store.New(gdb, e.log), closeFn, nil
}

func (e *env) geocoder() (*geocoding.Geocoder, error) {
	g, _, err := geocoding.New(geocoding.Options{
		Provider:    e.cfg.Geocode.Provider,
		APIKey:      e.cfg.Geocode.APIKey,
		BaseURL:     e.cfg.Geocode.URL,
		UserAgent:   e.cfg.Geocode.UserAgent,
		Country:     e.cfg.Geocode.Country,
		Timeout:     e.cfg.Geocode.Timeout,
		MinInterval: e.cfg.Geocode.MinInterval,
		CacheSize:   e.cfg.Geocode.CacheSize,
	}, e.log)
	return g, err
}

// regionsFlag returns the --regions value when given, else the configured list.
func (e *env) regionsFlag(cmd *cobra.Command, value string) []string {
	if cmd.Flags().Changed("regions") {
		return geocoding.ParseRegions(value)
	}
	return e.cfg.Geocode.AllowedRegions
}

func createImportCmd() *cobra.Command {
	var (
		csvPath   string
		crosswalk string
		geocode   bool
		regions   string
		batchSize int
	)
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import the activity ledger CSV",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(true)
			if err != nil {
				return err
			}
			defer e.log.Sync()

			s, closeDB, err := e.openStore()
			if err != nil {
				return err
			}
			defer closeDB()

			// A fresh database would otherwise fail every row separately.
			if err := db.Migrate(s, e.cfg.Database.Schema); err != nil {
				return fmt.Errorf("preparing schema: %w", err)
			}

			cfg := activityimport.Config{
				CSVPath:       csvPath,
				CrosswalkPath: crosswalk,
				BatchSize:     e.cfg.Import.BatchSize,
				Geocode:       e.cfg.Geocode.Enabled,
				Regions:       e.regionsFlag(cmd, regions),
			}
			if cmd.Flags().Changed("geocode") {
				cfg.Geocode = geocode
			}
			if cmd.Flags().Changed("batch-size") {
				cfg.BatchSize = batchSize
			}

			if cfg.Geocode {
				g, err := e.geocoder()
				if err != nil {
					return err
				}
				_, err = activityimport.Run(cmd.Context(), cfg, s, g, e.log)
				return err
			}
			_, err = activityimport.Run(cmd.Context(), cfg, s, nil, e.log)
			return err
		},
	}
	cmd.Flags().StringVar(&csvPath, "csv", "", "path to the activity ledger CSV export")
	cmd.Flags().StringVar(&crosswalk, "crosswalk", "", "optional location crosswalk CSV")
	cmd.Flags().BoolVar(&geocode, "geocode", false, "geocode locations that still lack coordinates")
	cmd.Flags().StringVar(&regions, "regions", "", "comma-separated allowed states, e.g. TX,AZ,NM")
	cmd.Flags().IntVar(&batchSize, "batch-size", activityimport.DefaultBatchSize, "rows per commit")
	_ = cmd.MarkFlagRequired("csv")
	return cmd
}

func createGeocodeCmd() *cobra.Command {
	var locality, street, name, regions string
	cmd := &cobra.Command{
		Use:   "geocode",
		Short: "Geocode one location and print its coordinates",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(false)
			if err != nil {
				return err
			}
			defer e.log.Sync()

			g, err := e.geocoder()
			if err != nil {
				return err
			}
			c := g.Resolve(cmd.Context(), locality, street, name, e.regionsFlag(cmd, regions))
			if c == nil {
				return fmt.Errorf("no coordinates found")
			}
			return json.NewEncoder(cmd.OutOrStdout()).Encode(c)
		},
	}
	cmd.Flags().StringVar(&locality, "locality", "", "city and state")
	cmd.Flags().StringVar(&street, "street", "", "street address")
	cmd.Flags().StringVar(&name, "name", "", "place name")
	cmd.Flags().StringVar(&regions, "regions", "", "comma-separated allowed states; empty means any")
	return cmd
}

func createBackfillCmd() *cobra.Command {
	var regions string
	cmd := &cobra.Command{
		Use:   "backfill",
		Short: "Geocode stored locations that have no coordinates",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(true)
			if err != nil {
				return err
			}
			defer e.log.Sync()

			s, closeDB, err := e.openStore()
			if err != nil {
				return err
			}
			defer closeDB()

			g, err := e.geocoder()
			if err != nil {
				return err
			}
			res, err := activityimport.Backfill(cmd.Context(), s, g, e.regionsFlag(cmd, regions), e.log)
			if err != nil {
				return err
			}
			return json.NewEncoder(cmd.OutOrStdout()).Encode(res)
		},
	}
	cmd.Flags().StringVar(&regions, "regions", "", "comma-separated allowed states")
	return cmd
}

func createMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the schema and tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(true)
			if err != nil {
				return err
			}
			defer e.log.Sync()

			s, closeDB, err := e.openStore()
			if err != nil {
				return err
			}
			defer closeDB()

			if err := db.Migrate(s, e.cfg.Database.Schema); err != nil {
				return err
			}
			e.log.Info("migration complete", "schema", e.cfg.Database.Schema)
			return nil
		},
	}
}
