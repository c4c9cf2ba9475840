// Copyright 2026 The GeoDedup Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jcodagnone/geodedup/store"
	"github.com/jcodagnone/geodedup/utils"
)

var loadCmd = &cobra.Command{
	Use:   "load <file.csv>",
	Short: "Replaces the stored points with the rows of a CSV file",
	Long: `Reads a CSV file and stores one point per row. Column names are matched
ignoring case and accents, so --lat-col latitud matches a "Latitud" header.

Loading a file discards the previously stored points and resolver runs.`,
	Args: cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		db, repo, err := openRepository(false)
		if err != nil {
			return err
		}
		defer db.Close()

		n, err := repo.ImportCSV(args[0], options.Columns)
		if err != nil {
			return fmt.Errorf("loading %s: %w", args[0], err)
		}

		fmt.Printf("✅ Loaded %s points from %s\n", utils.FormatInt(int64(n)), args[0])

		return nil
	},
}

func init() {
	rootCmd.AddCommand(loadCmd)

	defaults := store.DefaultColumns()
	loadCmd.Flags().StringVar(&options.Columns.Lat, "lat-col", defaults.Lat, "Column holding the latitude")
	loadCmd.Flags().StringVar(&options.Columns.Lng, "lng-col", defaults.Lng, "Column holding the longitude")
	loadCmd.Flags().StringVar(
		&options.Columns.Criterion,
		"criterion-col",
		defaults.Criterion,
		"Column ranking duplicates, lower values are dropped first. Empty means every point scores 0",
	)
	loadCmd.Flags().StringVar(&options.Columns.Name, "name-col", defaults.Name, "Optional column holding a label")
}
