package main

import (
	"strings"

	"github.com/spf13/cobra"

	appctx "rtoflow/internal/core/context"
	"rtoflow/internal/core/id"
	"rtoflow/internal/domain/rto"
)

func singleCmd(setup setupFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "single [orderName]",
		Short: "Return one order to origin",
		Long: `Return one order to origin. Exits with status 1 unless the return was created.

Examples:
  rto single MA779 --quantity 2
  rto single '#MA779' --reason UNWANTED --note "Refused at door"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			quantity, _ := cmd.Flags().GetInt("quantity")
			reason, _ := cmd.Flags().GetString("reason")
			note, _ := cmd.Flags().GetString("note")
			asJSON, _ := cmd.Flags().GetBool("json")
			envFile, _ := cmd.Flags().GetString("env-file")

			env, err := setup(cmd.Context(), envFile, 1)
			if err != nil {
				return err
			}
			defer env.close()

			reason, note = resolve(reason, note, env.config.RTO.DefaultReason, env.config.RTO.DefaultNote)
			job := rto.ReturnJob{
				OrderIdentifier:   strings.TrimSpace(args[0]),
				RequestedQuantity: max(1, quantity),
				Reason:            reason,
				Note:              note,
			}

			batchID := id.NewString()
			ctx := appctx.WithBatch(cmd.Context(), &appctx.BatchContext{BatchID: batchID, Source: "cli-single", Size: 1})
			result, ok := env.runner.RunSingle(ctx, job)

			if err := writeReport(cmd.OutOrStdout(), newReport(batchID, []rto.JobResult{result}), asJSON); err != nil {
				return err
			}
			if !ok {
				return errJobFailed
			}
			return nil
		},
	}

	cmd.Flags().IntP("quantity", "q", 1, "units to return")
	cmd.Flags().StringP("reason", "r", "", "return reason (default from RTO_DEFAULT_REASON)")
	cmd.Flags().StringP("note", "n", "", "return note (default from RTO_DEFAULT_NOTE)")
	cmd.Flags().Bool("json", false, "output as JSON")

	return cmd
}
