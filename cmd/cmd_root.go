// Copyright 2026 The GeoDedup Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	_ "github.com/duckdb/duckdb-go/v2" // register duckdb driver
	"github.com/spf13/cobra"

	"github.com/jcodagnone/geodedup/store"
)

const dbFile = "geodedup.duckdb"

type logWriter struct {
	writer io.Writer
}

func (w *logWriter) Write(bytes []byte) (int, error) {
	return fmt.Fprintf(w.writer, "%s %s", time.Now().Format("2006-01-02 15:04:05"), string(bytes))
}

func init() {
	log.SetFlags(0)
	log.SetOutput(&logWriter{writer: os.Stderr})
}

type dedupOptions struct {
	DbPath    string
	Workers   int
	Method    string
	Unit      string
	Threshold float64
	Columns   store.Columns
	Out       string
	DryRun    bool
	Addr      string
	MaxPoints int
}

var options = &dedupOptions{}

var rootCmd = &cobra.Command{
	Use:   "geodedup",
	Short: "distance matrices and duplicate removal for geographic points",
	Long: `
geodedup loads geographic points from CSV files, computes pairwise distances
and removes points that are redundant observations of the same place, keeping
in every cluster of nearby points the ones with the highest criterion value.
`,
	SilenceUsage: true,
}

var Version = "dev"

func Execute(version string) {
	Version = version

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)

	stop()

	if err != nil {
		os.Exit(1)
	}
}

// openRepository opens the points database under --db-path. With mustExist
// it fails instead of creating an empty database.
func openRepository(mustExist bool) (*sql.DB, store.PointRepository, error) {
	if err := os.MkdirAll(options.DbPath, 0o750); err != nil {
		return nil, nil, fmt.Errorf("creating db directory: %w", err)
	}

	dbpath := filepath.Join(options.DbPath, dbFile)
	if mustExist {
		if _, err := os.Stat(dbpath); os.IsNotExist(err) {
			return nil, nil, fmt.Errorf("database not found at %s - run 'load' first", dbpath)
		}
	}

	db, err := sql.Open("duckdb", dbpath)
	if err != nil {
		return nil, nil, fmt.Errorf("opening database: %w", err)
	}

	repo := store.NewPointRepository(db)
	if err := repo.CreateSchema(); err != nil {
		db.Close()

		return nil, nil, fmt.Errorf("creating schema: %w", err)
	}

	return db, repo, nil
}

// loadPoints returns every stored point, failing when there are none.
func loadPoints(repo store.PointRepository) ([]*store.Record, error) {
	records, err := repo.ListPoints()
	if err != nil {
		return nil, err
	}

	if len(records) == 0 {
		return nil, fmt.Errorf("no points stored in %s - run 'load' first", options.DbPath)
	}

	return records, nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&options.DbPath,
		"db-path",
		"db",
		"Directory where the points database is stored",
	)
	rootCmd.PersistentFlags().IntVar(
		&options.Workers,
		"workers",
		0,
		"Goroutines used to compute distances. Defaults to the number of CPUs",
	)
}
