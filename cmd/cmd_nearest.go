// Copyright 2026 The GeoDedup Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jcodagnone/geodedup/dedup"
	"github.com/jcodagnone/geodedup/store"
	"github.com/jcodagnone/geodedup/utils"
)

var nearestCmd = &cobra.Command{
	Use:   "nearest",
	Short: "Lists the closest other point of every stored point",
	Args:  cobra.NoArgs,
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

		neighbors, err := dedup.Nearest(points, m)
		if err != nil {
			return fmt.Errorf("finding nearest neighbors: %w", err)
		}

		printNeighbors(os.Stdout, records, neighbors, m.Unit().String())

		return nil
	},
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}

	return string(r[:n-1]) + "…"
}

func printNeighbors(w io.Writer, records []*store.Record, neighbors []dedup.Neighbor, unit string) {
	a, b, c := strings.Repeat("─", 6), strings.Repeat("─", 24), strings.Repeat("─", 14)
	fmt.Fprintf(w, "╭─%6s─┬─%-24s─┬─%6s─┬─%-24s─┬─%14s─╮\n", a, b, a, b, c)
	fmt.Fprintf(w, "│ %6s │ %-24s │ %6s │ %-24s │ %14s │\n", "Id", "Name", "Near", "Name", unit)
	fmt.Fprintf(w, "├─%6s─┼─%-24s─┼─%6s─┼─%-24s─┼─%14s─┤\n", a, b, a, b, c)

	for _, n := range neighbors {
		near, nearName, dist := "-", "", "-"
		if n.NeighborIndex >= 0 {
			near = fmt.Sprint(records[n.NeighborIndex].ID)
			nearName = records[n.NeighborIndex].Name
			dist = utils.FormatFloat(n.Distance, 2)
		}

		fmt.Fprintf(w, "│ %6d │ %-24s │ %6s │ %-24s │ %14s │\n",
			records[n.Index].ID, truncate(records[n.Index].Name, 24), near, truncate(nearName, 24), dist)
	}

	fmt.Fprintf(w, "╰─%6s─┴─%-24s─┴─%6s─┴─%-24s─┴─%14s─╯\n", a, b, a, b, c)
}

func init() {
	rootCmd.AddCommand(nearestCmd)
	addDistanceFlags(nearestCmd)
}
