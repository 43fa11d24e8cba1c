package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/datar-psa/nlgeval"
	"github.com/datar-psa/nlgeval/embedding"
)

var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "List available metrics and the field each one reports",
	Args:  cobra.NoArgs,
	RunE:  listMetrics,
}

func listMetrics(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "METRIC\tADAPTER\tFIELD")
	for _, name := range nlgeval.HostedMetrics {
		fmt.Fprintf(w, "%s\thosted\t%s\n", name, nlgeval.ScoreFieldName[name])
	}
	for _, name := range nlgeval.SimilarityMeasures {
		field := nlgeval.ScoreFieldName[name]
		if name == "infolm" {
			field = "<measure> (default " + embedding.MeasureFisherRao + ")"
		}
		fmt.Fprintf(w, "%s\tsimilarity\t%s\n", name, field)
	}
	return w.Flush()
}
