package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"rtoflow/internal/domain/rto"
)

// statusOrder fixes the summary line order.
var statusOrder = []rto.Status{
	rto.StatusReturnCreated,
	rto.StatusSkippedPaid,
	rto.StatusNotFound,
	rto.StatusNoReturnables,
	rto.StatusZeroRemaining,
	rto.StatusError,
}

type report struct {
	BatchID string             `json:"batchId"`
	Summary map[rto.Status]int `json:"summary"`
	Results []rto.JobResult    `json:"results"`
}

func newReport(batchID string, results []rto.JobResult) report {
	return report{BatchID: batchID, Summary: rto.Summarize(results), Results: results}
}

func writeReport(w io.Writer, r report, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ORDER\tSTATUS\tQTY\tRETURN\tMESSAGE")
	for _, res := range r.Results {
		qty := "-"
		if res.Quantity > 0 {
			qty = fmt.Sprint(res.Quantity)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", res.OrderIdentifier, res.Status, qty, dash(res.ReturnID), dash(res.Message))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(w, "\nbatch %s:", r.BatchID)
	for _, s := range statusOrder {
		if n := r.Summary[s]; n > 0 {
			fmt.Fprintf(w, " %s=%d", s, n)
		}
	}
	_, err := fmt.Fprintln(w)
	return err
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
