package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	appctx "rtoflow/internal/core/context"
	"rtoflow/internal/core/id"
	"rtoflow/internal/infrastructure/importer"
)

func batchCmd(setup setupFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batch [file.csv]",
		Short: "Process a CSV of order identifiers",
		Long: `Process every order in a CSV file. The first column is the order name
(with or without '#'), the optional second column the quantity to return.

Examples:
  rto batch rto.csv
  rto batch rto.csv --workers 4 --json > results.json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reason, _ := cmd.Flags().GetString("reason")
			note, _ := cmd.Flags().GetString("note")
			workers, _ := cmd.Flags().GetInt("workers")
			asJSON, _ := cmd.Flags().GetBool("json")
			envFile, _ := cmd.Flags().GetString("env-file")

			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open %s: %w", args[0], err)
			}
			defer f.Close()

			rows, err := importer.ParseCSV(f)
			if err != nil {
				return err
			}
			if len(rows) == 0 {
				return fmt.Errorf("%s: no orders to process", args[0])
			}

			env, err := setup(cmd.Context(), envFile, workers)
			if err != nil {
				return err
			}
			defer env.close()

			reason, note = resolve(reason, note, env.config.RTO.DefaultReason, env.config.RTO.DefaultNote)
			jobs := importer.Jobs(rows, reason, note)

			batchID := id.NewString()
			ctx := appctx.WithBatch(cmd.Context(), &appctx.BatchContext{BatchID: batchID, Source: "cli", Size: len(jobs)})
			results := env.runner.Run(ctx, jobs)

			return writeReport(cmd.OutOrStdout(), newReport(batchID, results), asJSON)
		},
	}

	cmd.Flags().StringP("reason", "r", "", "return reason (default from RTO_DEFAULT_REASON)")
	cmd.Flags().StringP("note", "n", "", "return note (default from RTO_DEFAULT_NOTE)")
	cmd.Flags().IntP("workers", "w", 0, "concurrent jobs (default from RTO_WORKERS)")
	cmd.Flags().Bool("json", false, "output as JSON")

	return cmd
}

func resolve(reason, note, defaultReason, defaultNote string) (string, string) {
	if reason = strings.TrimSpace(reason); reason == "" {
		reason = defaultReason
	}
	if note = strings.TrimSpace(note); note == "" {
		note = defaultNote
	}
	return reason, note
}
