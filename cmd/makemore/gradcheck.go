package main

import (
	"fmt"
	"math/rand"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/born-ml/makemore/internal/autodiff"
	"github.com/born-ml/makemore/internal/backend/cpu"
	"github.com/born-ml/makemore/internal/corpus"
	"github.com/born-ml/makemore/internal/gradcheck"
	"github.com/born-ml/makemore/internal/model"
)

var (
	gradcheckBatch     int
	gradcheckSamples   int
	gradcheckTolerance float64
)

var gradcheckCmd = &cobra.Command{
	Use:   "gradcheck",
	Short: "Compare autodiff gradients with finite differences",
	Args:  cobra.NoArgs,
	RunE:  runGradcheck,
}

func init() {
	gradcheckCmd.Flags().IntVar(&gradcheckBatch, "batch", 32, "examples in the checked batch")
	gradcheckCmd.Flags().IntVar(&gradcheckSamples, "samples", 20, "weights checked per parameter, 0 = all")
	gradcheckCmd.Flags().Float64Var(&gradcheckTolerance, "tolerance", 0.05, "largest accepted relative error")
}

func runGradcheck(cmd *cobra.Command, _ []string) error {
	rng := rand.New(rand.NewSource(cfg.Seed)) //nolint:gosec // reproducible runs

	words := []string{"emma", "olivia", "ava", "isabella", "sophia"}
	if cfg.Corpus != "" {
		var err error
		if words, err = corpus.LoadWords(cfg.Corpus); err != nil {
			return err
		}
	}
	ds, err := corpus.Encode(words, cfg.Model.ContextWidth)
	if err != nil {
		return err
	}
	if ds.Len() == 0 {
		return fmt.Errorf("corpus %s has no words", cfg.Corpus)
	}
	ds.Shuffle(rng)

	backend := autodiff.New(cpu.New())
	m, err := model.New(cfg.Model, backend, rng)
	if err != nil {
		return err
	}

	report, err := gradcheck.Check(m, backend, ds.Batches(gradcheckBatch)[0], rng, gradcheck.Options{Samples: gradcheckSamples})
	if err != nil {
		return err
	}
	logger.WithFields(logrus.Fields{"model": cfg.Model.Kind, "loss": fmt.Sprintf("%.4f", report.Loss)}).Info("gradient check done")

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "parameter\tchecked\tmax abs\tmax rel")
	for _, r := range report.Results {
		fmt.Fprintf(w, "%s\t%d\t%.2e\t%.2e\n", r.Name, r.Checked, r.MaxAbsError, r.MaxRelError)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if worst := report.MaxRelError(); worst > gradcheckTolerance {
		return fmt.Errorf("max relative error %.2e exceeds tolerance %.2e", worst, gradcheckTolerance)
	}
	color.New(color.FgGreen).Fprintln(cmd.OutOrStdout(), "gradients match")
	return nil
}
