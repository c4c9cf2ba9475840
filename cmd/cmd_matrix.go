// Copyright 2026 The GeoDedup Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/jcodagnone/geodedup/dedup"
	"github.com/jcodagnone/geodedup/spatial"
	"github.com/jcodagnone/geodedup/store"
	"github.com/jcodagnone/geodedup/utils"
)

var matrixCmd = &cobra.Command{
	Use:   "matrix",
	Short: "Writes the pairwise distance matrix of the stored points as CSV",
	Long: `Writes one CSV row per stored point with its distance to every other point,
in point ID order. Rows are computed in parallel and progress is reported on
stderr.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		opts, err := matrixOptions()
		if err != nil {
			return err
		}

		db, repo, err := openRepository(true)
		if err != nil {
			return err
		}
		defer db.Close()

		records, err := loadPoints(repo)
		if err != nil {
			return err
		}

		points, _ := store.Arrays(records)
		opts.Progress = dedup.NewProgress(len(points), "computing distances")

		m, err := dedup.ComputeMatrix(cmd.Context(), points, opts)
		if err != nil {
			return fmt.Errorf("computing distance matrix: %w", err)
		}

		out := io.Writer(os.Stdout)
		if options.Out != "" {
			f, err := os.Create(options.Out)
			if err != nil {
				return fmt.Errorf("creating %s: %w", options.Out, err)
			}
			defer f.Close()

			out = f
		}

		if err := writeMatrix(out, m); err != nil {
			return fmt.Errorf("writing matrix: %w", err)
		}

		if options.Out != "" {
			log.Printf("✅ Wrote %s×%s %s matrix to %s",
				utils.FormatInt(int64(m.Len())), utils.FormatInt(int64(m.Len())), m.Unit(), options.Out)
		}

		return nil
	},
}

func matrixOptions() (dedup.MatrixOptions, error) {
	method, err := dedup.ParseMethod(options.Method)
	if err != nil {
		return dedup.MatrixOptions{}, err
	}

	unit, err := spatial.ParseUnit(options.Unit)
	if err != nil {
		return dedup.MatrixOptions{}, err
	}

	return dedup.MatrixOptions{Method: method, Unit: unit, Workers: options.Workers}, nil
}

func writeMatrix(out io.Writer, m *dedup.DistanceMatrix) error {
	w := csv.NewWriter(out)

	record := make([]string, m.Len())
	for i := range m.Len() {
		for j, d := range m.Row(i) {
			record[j] = strconv.FormatFloat(d, 'f', 3, 64)
		}

		if err := w.Write(record); err != nil {
			return err
		}
	}

	w.Flush()

	return w.Error()
}

func addDistanceFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&options.Method, "method", "geodesic", "Distance method: geodesic, haversine or resolver")
	cmd.Flags().StringVar(&options.Unit, "unit", "meters", "Distance unit: meters, kilometers, miles or nautical")
}

func init() {
	rootCmd.AddCommand(matrixCmd)
	addDistanceFlags(matrixCmd)
	matrixCmd.Flags().StringVarP(&options.Out, "out", "o", "", "Write the matrix to this file instead of stdout")
}

