package main

import (
	"fmt"
	"os"

	"quiz-review/internal/config"
	"quiz-review/internal/database"
	"quiz-review/internal/logger"

	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

func main() {
	fs := pflag.NewFlagSet("migrate", pflag.ExitOnError)
	fs.String("config", "", "config file")
	fs.String("store", "", "attempt store file")
	fs.String("log-level", "", "log level")
	down := fs.Bool("down", false, "roll back every migration instead of applying them")
	_ = fs.Parse(os.Args[1:])

	if err := config.BindFlags(fs); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to bind flags: %v\n", err)
		os.Exit(1)
	}
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Initialize(cfg.Logger); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	l := logger.Get()
	defer logger.Sync()

	db, err := database.NewSQLXSQLiteDB(cfg.Store.Path, cfg.Store.BusyTimeoutMs)
	if err != nil {
		l.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	if *down {
		if err := database.RollbackMigrations(db.DB); err != nil {
			l.Fatal("Failed to roll back migrations", zap.Error(err))
		}
		return
	}

	if err := database.RunMigrations(db.DB); err != nil {
		l.Fatal("Failed to run migrations", zap.Error(err))
	}
	version, dirty, ok, err := database.SchemaVersion(db.DB)
	if err != nil {
		l.Fatal("Failed to read schema version", zap.Error(err))
	}
	if ok {
		fmt.Printf("attempt store %s at schema version %d (dirty=%t)\n", cfg.Store.Path, version, dirty)
	}
}
