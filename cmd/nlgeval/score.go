package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/datar-psa/nlgeval"
	"github.com/datar-psa/nlgeval/tokenize"
)

var (
	referencesPath  string
	predictionsPath string
	metricNames     []string
	splitSentences  bool
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score a predictions file against a references file",
	Long: "Reads one example per line from --references and --predictions and prints the per-example scores of each metric as JSON.\n" +
		"With --sentences, each file is read as a document and split into sentences instead.",
	Args: cobra.NoArgs,
	RunE: runScore,
}

func init() {
	scoreCmd.Flags().StringVarP(&referencesPath, "references", "r", "", "file with one reference per line (required)")
	scoreCmd.Flags().StringVarP(&predictionsPath, "predictions", "p", "", "file with one prediction per line (required)")
	scoreCmd.Flags().StringSliceVarP(&metricNames, "metrics", "m", nlgeval.AllMetrics, "metrics to compute")
	scoreCmd.Flags().BoolVar(&splitSentences, "sentences", false, "split each file into sentences instead of lines")
	_ = scoreCmd.MarkFlagRequired("references")
	_ = scoreCmd.MarkFlagRequired("predictions")
}

func runScore(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}

	references, err := readExamples(referencesPath, splitSentences)
	if err != nil {
		return err
	}
	predictions, err := readExamples(predictionsPath, splitSentences)
	if err != nil {
		return err
	}
	if len(references) != len(predictions) {
		return fmt.Errorf("%w: %d references, %d predictions", nlgeval.ErrLengthMismatch, len(references), len(predictions))
	}

	rt, err := setup(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer rt.Close()

	metrics, err := nlgeval.LoadMetrics(metricNames, rt.options...)
	if err != nil {
		return err
	}

	scores, scoreErr := nlgeval.ScoreAll(ctx, metrics, references, predictions, nlgeval.WithLogger(logger))
	if err := writeJSON(cmd.OutOrStdout(), scores); err != nil {
		return err
	}
	return scoreErr
}

// readExamples returns the non-empty lines of path, or its sentences when sentences is set.
func readExamples(path string, sentences bool) ([]string, error) {
	if sentences {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		return tokenize.Sentences(string(data))
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	defer f.Close()

	var out []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		out = append(out, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return out, nil
}
