// Copyright 2026 The GeoDedup Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"
	"log"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jcodagnone/geodedup/dedup"
	"github.com/jcodagnone/geodedup/store"
	"github.com/jcodagnone/geodedup/utils"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "Drops stored points closer than --threshold meters to a better one",
	Long: `Builds the graph of stored points closer than --threshold meters and, in
every connected group, drops the point with the lowest criterion value. The
graph is rebuilt from the remaining points until no close pair is left.

The run and its dropped points are stored unless --dry-run is given. --out
writes the surviving points of this run to a CSV file that 'load' accepts,
with or without --dry-run.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		db, repo, err := openRepository(true)
		if err != nil {
			return err
		}
		defer db.Close()

		records, err := loadPoints(repo)
		if err != nil {
			return err
		}

		points, criteria := store.Arrays(records)

		res, err := dedup.Resolve(cmd.Context(), points, criteria, options.Threshold, dedup.ResolveOptions{
			Workers: options.Workers,
			Logger:  log.Default(),
		})
		if err != nil {
			return fmt.Errorf("resolving duplicates: %w", err)
		}

		log.Printf("✅ %s of %s points dropped after %d passes",
			utils.FormatInt(int64(len(res.Drop))), utils.FormatInt(int64(len(points))), res.Iterations)

		drop := make([]int, len(res.Drop))
		for i, idx := range res.Drop {
			drop[i] = records[idx].ID
			fmt.Println(drop[i])
		}

		if !options.DryRun {
			run := &store.Run{
				Threshold:  options.Threshold,
				Points:     len(points),
				Dropped:    len(res.Drop),
				Iterations: res.Iterations,
			}

			if err := repo.SaveRun(run, drop); err != nil {
				return fmt.Errorf("saving run: %w", err)
			}

			log.Printf("💾 Saved run %d", run.ID)
		}

		if options.Out != "" {
			keep := dedup.Keep(len(records), res.Drop)
			ids := make([]int, len(keep))

			for i, idx := range keep {
				ids[i] = records[idx].ID
			}

			// written from this pass so a dry run exports without storing flags
			n, err := repo.ExportPointsCSV(options.Out, ids)
			if err != nil {
				return err
			}

			log.Printf("📄 Wrote %s kept points to %s", utils.FormatInt(int64(n)), options.Out)
		}

		return nil
	},
}

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Lists the stored resolver runs",
	Args:  cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		db, repo, err := openRepository(true)
		if err != nil {
			return err
		}
		defer db.Close()

		runs, err := repo.ListRuns()
		if err != nil {
			return err
		}

		a, b, c := strings.Repeat("─", 4), strings.Repeat("─", 19), strings.Repeat("─", 10)
		fmt.Printf("╭─%4s─┬─%-19s─┬─%10s─┬─%10s─┬─%10s─┬─%6s─╮\n", a, b, c, c, c, a+"──")
		fmt.Printf("│ %4s │ %-19s │ %10s │ %10s │ %10s │ %6s │\n", "Id", "Date", "Threshold", "Points", "Dropped", "Passes")
		fmt.Printf("├─%4s─┼─%-19s─┼─%10s─┼─%10s─┼─%10s─┼─%6s─┤\n", a, b, c, c, c, a+"──")

		for _, r := range runs {
			fmt.Printf("│ %4d │ %-19s │ %10s │ %10s │ %10s │ %6d │\n",
				r.ID,
				r.CreatedAt.Format("2006-01-02 15:04:05"),
				utils.FormatFloat(r.Threshold, 1),
				utils.FormatInt(int64(r.Points)),
				utils.FormatInt(int64(r.Dropped)),
				r.Iterations,
			)
		}

		fmt.Printf("╰─%4s─┴─%-19s─┴─%10s─┴─%10s─┴─%10s─┴─%6s─╯\n", a, b, c, c, c, a+"──")

		return nil
	},
}

func init() {
	rootCmd.AddCommand(resolveCmd)
	rootCmd.AddCommand(runsCmd)
	resolveCmd.Flags().Float64Var(&options.Threshold, "threshold", 100, "Distance in meters below which two points are duplicates")
	resolveCmd.Flags().BoolVar(&options.DryRun, "dry-run", false, "Do not store the run")
	resolveCmd.Flags().StringVarP(&options.Out, "out", "o", "", "Write the kept points to this CSV file")
}
