// Command nlgeval scores predictions against references with NLG evaluation metrics.
package main

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/datar-psa/nlgeval/config"
	"github.com/datar-psa/nlgeval/internal/log"
)

var (
	configPath string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:           "nlgeval",
	Short:         "Score generated text against references",
	Long:          "nlgeval computes BLEU, sacreBLEU, chrF, METEOR, BERTScore, BaryScore, DepthScore and InfoLM over parallel references and predictions.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML configuration file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error); overrides the configuration")

	rootCmd.AddCommand(demoCmd)
	rootCmd.AddCommand(scoreCmd)
	rootCmd.AddCommand(metricsCmd)
}

// loadConfig loads the configuration and returns a logger tagged with a fresh run id.
func loadConfig() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	log.SetLevel(cfg.LogLevel)
	logger := log.Default.With(zap.String("run_id", uuid.NewString()))
	return cfg, logger, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Default.Error("nlgeval failed", zap.Error(err))
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
