package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/datar-psa/nlgeval"
)

var (
	demoReferences  = []string{"I like my cakes very much", "I hate these cakes!"}
	demoPredictions = []string{"I adore my cakes", "These cakes are bad!"}
)

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Score two example pairs with every metric",
	Args:  cobra.NoArgs,
	RunE:  runDemo,
}

func runDemo(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	rt, err := setup(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer rt.Close()

	metrics, err := nlgeval.LoadAllMetrics(rt.options...)
	if err != nil {
		return err
	}

	scores, scoreErr := nlgeval.ScoreAll(ctx, metrics, demoReferences, demoPredictions, nlgeval.WithLogger(logger))
	if err := writeJSON(cmd.OutOrStdout(), scores); err != nil {
		return err
	}
	return scoreErr
}

// writeJSON prints v as JSON indented by two spaces.
func writeJSON(w io.Writer, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode scores: %w", err)
	}
	_, err = fmt.Fprintln(w, string(b))
	return err
}
