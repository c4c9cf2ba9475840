// Copyright 2026 The GeoDedup Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jcodagnone/geodedup/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Runs the HTTP API",
	Long: `Serves POST /api/matrix, /api/nearest and /api/resolve, and Prometheus
metrics on GET /metrics. When a database exists under --db-path the stored
points and runs are also served on GET /api/points and /api/runs.`,
	Args: cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		opts := server.ServerOptions{
			MaxPoints: options.MaxPoints,
			Workers:   options.Workers,
			Logger:    log.Default(),
		}

		if _, err := os.Stat(filepath.Join(options.DbPath, dbFile)); err == nil {
			db, repo, err := openRepository(true)
			if err != nil {
				return err
			}
			defer db.Close()

			opts.Repo = repo
		} else {
			log.Printf("⚠️ No database at %s, stored points are not served", options.DbPath)
		}

		fmt.Printf("🌍 Listening on http://%s\n", options.Addr)

		return server.NewServer(opts).Run(options.Addr)
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Prints the version",
	Args:  cobra.NoArgs,
	Run: func(_ *cobra.Command, _ []string) {
		fmt.Printf("geodedup %s\n", Version)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
	serveCmd.Flags().StringVar(&options.Addr, "addr", "localhost:8080", "Address to listen on")
	serveCmd.Flags().IntVar(&options.MaxPoints, "max-points", server.DefaultMaxPoints, "Maximum points accepted per request")
}
