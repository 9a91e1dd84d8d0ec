package main

import (
	"fmt"
	"math/rand"
	"os"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/born-ml/makemore/internal/config"
	"github.com/born-ml/makemore/internal/corpus"
	"github.com/born-ml/makemore/internal/model"
)

var (
	configFile string
	verbose    bool
	seed       int64
	corpusPath string
	modelKind  string
)

// Set by PersistentPreRunE.
var (
	cfg    *config.Config
	logger *logrus.Logger
)

var rootCmd = &cobra.Command{
	Use:   "makemore",
	Short: "character-level name generator",
	Long: `makemore learns to make more of the words it is given.

It trains a character-level language model (bigram, MLP, MLP with batch
norm, or WaveNet-style hierarchy) on a list of names and samples new ones.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		color.New(color.FgRed).Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file path (default: makemore.yaml, config/makemore.yaml, ~/.makemore/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug output")
	rootCmd.PersistentFlags().Int64Var(&seed, "seed", config.DefaultSeed, "random seed")
	rootCmd.PersistentFlags().StringVar(&corpusPath, "corpus", "", "word list, one word per line")
	rootCmd.PersistentFlags().StringVar(&modelKind, "model", "", fmt.Sprintf("model kind %v", model.Kinds))

	rootCmd.AddCommand(trainCmd)
	rootCmd.AddCommand(sampleCmd)
	rootCmd.AddCommand(encodeCmd)
	rootCmd.AddCommand(gradcheckCmd)
	rootCmd.AddCommand(versionCmd)
}

// setup builds the logger, loads the config file and applies the
// persistent flag overrides.
func setup(cmd *cobra.Command, _ []string) error {
	logger = newLogger(cmd.ErrOrStderr(), verbose)

	manager := config.NewManager(configFile, logger)
	if err := manager.LoadConfig(); err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	cfg = manager.GetConfig()

	flags := cmd.Flags()
	if flags.Changed("model") {
		kind, err := model.ParseKind(modelKind)
		if err != nil {
			return err
		}
		if kind != cfg.Model.Kind {
			if err := switchKind(cfg, kind, manager.Path() == ""); err != nil {
				return err
			}
		}
	}
	if flags.Changed("seed") {
		cfg.Seed = seed
	}
	if flags.Changed("corpus") {
		cfg.Corpus = corpusPath
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	logger.WithFields(logrus.Fields{"model": cfg.Model.Kind, "seed": cfg.Seed}).Debug("configuration ready")
	return nil
}

// switchKind replaces the model section with the defaults for kind. Without
// a config file the training defaults follow the kind too.
func switchKind(c *config.Config, kind model.Kind, defaults bool) error {
	def, err := config.Default(kind)
	if err != nil {
		return err
	}
	c.Model = def.Model
	if defaults {
		c.Train = def.Train
	}
	return nil
}

// loadCorpus reads the configured word list and splits it.
func loadCorpus(rng *rand.Rand) (trainWords, devWords, testWords []string, err error) {
	if cfg.Corpus == "" {
		return nil, nil, nil, fmt.Errorf("no corpus given (use --corpus or set corpus in the config file)")
	}
	words, err := corpus.LoadWords(cfg.Corpus)
	if err != nil {
		return nil, nil, nil, err
	}
	if len(words) == 0 {
		return nil, nil, nil, fmt.Errorf("corpus %s has no words", cfg.Corpus)
	}

	trainWords, devWords, testWords, err = corpus.SplitWords(words, rng, cfg.Split.Train, cfg.Split.Dev)
	if err != nil {
		return nil, nil, nil, err
	}
	logger.WithFields(logrus.Fields{
		"words": len(words),
		"train": len(trainWords),
		"dev":   len(devWords),
		"test":  len(testWords),
	}).Info("corpus loaded")
	return trainWords, devWords, testWords, nil
}
