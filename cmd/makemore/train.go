package main

import (
	"fmt"
	"io"
	"math/rand"
	"os"
	"os/signal"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/born-ml/makemore/internal/autodiff"
	"github.com/born-ml/makemore/internal/backend/cpu"
	"github.com/born-ml/makemore/internal/checkpoint"
	"github.com/born-ml/makemore/internal/corpus"
	"github.com/born-ml/makemore/internal/generate"
	"github.com/born-ml/makemore/internal/model"
	"github.com/born-ml/makemore/internal/nn"
	"github.com/born-ml/makemore/internal/tensor"
	"github.com/born-ml/makemore/internal/train"
)

var (
	trainEpochs    int
	trainBatchSize int
	trainLR        float32
	trainOut       string
	trainSamples   int
)

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Train a model on the corpus and sample from it",
	Args:  cobra.NoArgs,
	RunE:  runTrain,
}

func init() {
	trainCmd.Flags().IntVar(&trainEpochs, "epochs", 0, "number of epochs (default from config)")
	trainCmd.Flags().IntVar(&trainBatchSize, "batch-size", 0, "examples per step, 0 = full batch (default from config)")
	trainCmd.Flags().Float32Var(&trainLR, "lr", 0, "learning rate (default from config)")
	trainCmd.Flags().StringVarP(&trainOut, "out", "o", "", "write a checkpoint to this path (default: checkpoint from config)")
	trainCmd.Flags().IntVar(&trainSamples, "samples", 0, "names to print after training (default: sample.num from config)")
}

func runTrain(cmd *cobra.Command, _ []string) error {
	flags := cmd.Flags()
	if flags.Changed("epochs") {
		cfg.Train.Epochs = trainEpochs
	}
	if flags.Changed("batch-size") {
		cfg.Train.BatchSize = trainBatchSize
	}
	if flags.Changed("lr") {
		cfg.Train.LearningRate = trainLR
	}
	if flags.Changed("out") {
		cfg.Checkpoint = trainOut
	}
	if flags.Changed("samples") {
		cfg.Sample.Num = trainSamples
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	rng := rand.New(rand.NewSource(cfg.Seed)) //nolint:gosec // reproducible runs
	trainWords, devWords, testWords, err := loadCorpus(rng)
	if err != nil {
		return err
	}

	width := cfg.Model.ContextWidth
	trainSet, err := corpus.Encode(trainWords, width)
	if err != nil {
		return err
	}
	devSet, err := encodeOptional(devWords, width)
	if err != nil {
		return err
	}
	testSet, err := encodeOptional(testWords, width)
	if err != nil {
		return err
	}

	backend := autodiff.New(cpu.New())
	m, err := model.New(cfg.Model, backend, rng)
	if err != nil {
		return err
	}
	logger.WithFields(logrus.Fields{
		"model":      cfg.Model.Kind,
		"parameters": nn.NumParameters(m.Parameters()),
		"examples":   trainSet.Len(),
	}).Info("model built")

	trainer, err := train.NewTrainer(m, backend, cfg.Train, rng, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	start := time.Now()
	if _, err := trainer.Fit(ctx, trainSet, devSet); err != nil {
		return err
	}
	logger.WithField("elapsed", time.Since(start).Round(time.Millisecond)).Info("training finished")

	splits := []struct {
		name string
		ds   *corpus.Dataset
	}{{"train", trainSet}, {"test", testSet}}
	for _, split := range splits {
		if split.ds == nil {
			continue
		}
		loss, err := trainer.Evaluate(split.ds)
		if err != nil {
			return err
		}
		logger.WithFields(logrus.Fields{"split": split.name, "loss": fmt.Sprintf("%.4f", loss)}).Info("final loss")
	}

	if cfg.Checkpoint != "" {
		if err := checkpoint.Save(cfg.Checkpoint, m); err != nil {
			return err
		}
		logger.WithField("path", cfg.Checkpoint).Info("checkpoint saved")
	}

	return printNames(cmd.OutOrStdout(), m, backend, rng, cfg.Sample.Num)
}

func encodeOptional(words []string, width int) (*corpus.Dataset, error) {
	if len(words) == 0 {
		return nil, nil
	}
	return corpus.Encode(words, width)
}

// printNames writes n generated names to out, one per line.
func printNames[B tensor.Backend](out io.Writer, m model.Model[B], backend B, rng *rand.Rand, n int) error {
	if n == 0 {
		return nil
	}

	predictor := model.NewPredictor(m, backend, model.WithTemperature(cfg.Sample.Temperature))
	gen, err := generate.NewGenerator(predictor, m.ContextWidth(), rng,
		generate.WithMaxLength(cfg.Sample.MaxLength),
		generate.WithSampling(cfg.Sample.SamplingConfig()),
	)
	if err != nil {
		return err
	}

	results, err := gen.GenerateN(n)
	if err != nil {
		return err
	}
	for _, r := range results {
		if r.Reason == generate.ReasonMaxLength {
			logger.WithField("name", r.Name).Debug("hit max length")
		}
		fmt.Fprintln(out, r.Name)
	}
	return nil
}
