package main

import (
	"fmt"
	"math/rand"

	"github.com/spf13/cobra"

	"github.com/born-ml/makemore/internal/backend/cpu"
	"github.com/born-ml/makemore/internal/checkpoint"
)

var (
	sampleCheckpoint  string
	sampleNum         int
	sampleMaxLength   int
	sampleTemperature float32
	sampleTopK        int
	sampleGreedy      bool
)

var sampleCmd = &cobra.Command{
	Use:   "sample",
	Short: "Generate names from a saved checkpoint",
	Args:  cobra.NoArgs,
	RunE:  runSample,
}

func init() {
	sampleCmd.Flags().StringVarP(&sampleCheckpoint, "checkpoint", "m", "", "checkpoint path (default: checkpoint from config)")
	sampleCmd.Flags().IntVarP(&sampleNum, "num", "n", 0, "number of names (default: sample.num from config)")
	sampleCmd.Flags().IntVar(&sampleMaxLength, "max-length", 0, "maximum name length (default: sample.max_length from config)")
	sampleCmd.Flags().Float32VarP(&sampleTemperature, "temperature", "t", 0, "softmax temperature (default: sample.temperature from config)")
	sampleCmd.Flags().IntVar(&sampleTopK, "top-k", 0, "sample from the k most likely symbols, 0 = all")
	sampleCmd.Flags().BoolVar(&sampleGreedy, "greedy", false, "always pick the most likely symbol")
}

func runSample(cmd *cobra.Command, _ []string) error {
	flags := cmd.Flags()
	if flags.Changed("checkpoint") {
		cfg.Checkpoint = sampleCheckpoint
	}
	if flags.Changed("num") {
		cfg.Sample.Num = sampleNum
	}
	if flags.Changed("max-length") {
		cfg.Sample.MaxLength = sampleMaxLength
	}
	if flags.Changed("temperature") {
		cfg.Sample.Temperature = sampleTemperature
	}
	if flags.Changed("top-k") {
		cfg.Sample.TopK = sampleTopK
	}
	if flags.Changed("greedy") {
		cfg.Sample.Greedy = sampleGreedy
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if cfg.Checkpoint == "" {
		return fmt.Errorf("no checkpoint given (use --checkpoint or set checkpoint in the config file)")
	}

	backend := cpu.New()
	m, err := checkpoint.Load(cfg.Checkpoint, backend)
	if err != nil {
		return err
	}
	logger.WithField("path", cfg.Checkpoint).WithField("model", m.Config().Kind).Debug("checkpoint loaded")

	rng := rand.New(rand.NewSource(cfg.Seed)) //nolint:gosec // reproducible runs
	return printNames(cmd.OutOrStdout(), m, backend, rng, cfg.Sample.Num)
}
