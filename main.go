package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/pinkertons/activity-ledger/internal/api"
	"github.com/pinkertons/activity-ledger/internal/config"
	"github.com/pinkertons/activity-ledger/internal/db"
	"github.com/pinkertons/activity-ledger/internal/logger"
	"github.com/pinkertons/activity-ledger/internal/store"
)

func main() {
	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.LogMode)
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger:", err)
		os.Exit(1)
	}
	defer log.Sync()

	gdb, err := db.Open(cfg.Database, cfg.LogMode, log)
	if err != nil {
		log.Fatal("Failed to connect to database", "error", err)
	}
	s := store.New(gdb, log)

	r := api.SetupRoutes(s, cfg.CORSOrigins, log)

	log.Info("Server listening", "port", cfg.Port)
	if err := http.ListenAndServe("0.0.0.0:"+cfg.Port, r); err != nil {
		log.Fatal("server stopped", "error", err)
	}
}
