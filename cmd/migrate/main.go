package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"sort"

	"listentg/internal/constants"
	"listentg/internal/migrations"
	"listentg/internal/security"

	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"
	flag "github.com/spf13/pflag"
)

func main() {
	dbPath := flag.String("db", constants.DefaultDatabasePath, "Path to the database file")
	status := flag.Bool("status", false, "List applied and pending migrations without applying them")
	flag.Parse()

	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	if err := run(context.Background(), *dbPath, *status, logger); err != nil {
		logger.WithError(err).Fatal("Migration failed")
	}
}

func run(ctx context.Context, dbPath string, statusOnly bool, logger *logrus.Logger) error {
	if err := security.ValidateFilePath(dbPath); err != nil {
		return fmt.Errorf("invalid database path: %w", err)
	}
	if _, err := os.Stat(dbPath); os.IsNotExist(err) && statusOnly {
		return fmt.Errorf("database file not found: %s", dbPath)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if statusOnly {
		return printStatus(ctx, db, logger)
	}

	applied, err := migrations.Apply(ctx, db)
	if err != nil {
		return err
	}
	if len(applied) == 0 {
		logger.Info("Schema is up to date")
		return nil
	}
	logger.WithField("versions", applied).Info("Migrations applied")
	return nil
}

func printStatus(ctx context.Context, db *sql.DB, logger *logrus.Logger) error {
	all, err := migrations.All()
	if err != nil {
		return err
	}
	applied, err := migrations.AppliedVersions(ctx, db)
	if err != nil {
		return err
	}

	sort.Slice(all, func(i, j int) bool { return all[i].Version < all[j].Version })
	for _, m := range all {
		logger.WithFields(logrus.Fields{
			"version": m.Version,
			"name":    m.Name,
			"applied": applied[m.Version],
		}).Info("Migration")
	}
	return nil
}
