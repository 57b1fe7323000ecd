package main

import (
	"fmt"

	"topicslog/internal/config"
	"topicslog/internal/db"
	"topicslog/internal/logger"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE:  runMigrate,
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	zl, err := logger.New(cfg.LogLevel, !cfg.IsProduction())
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer zl.Sync()
	sugar := zl.Sugar()

	conn, err := db.Open(cfg, sugar)
	if err != nil {
		return fmt.Errorf("connect db: %w", err)
	}
	defer db.Close(conn)

	return db.Migrate(conn, sugar)
}
