// Package train fits a model to an encoded corpus.
package train

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/born-ml/makemore/internal/autodiff"
	"github.com/born-ml/makemore/internal/corpus"
	"github.com/born-ml/makemore/internal/model"
	"github.com/born-ml/makemore/internal/nn"
	"github.com/born-ml/makemore/internal/optim"
	"github.com/born-ml/makemore/internal/tensor"
)

// evalBatchSize bounds the rows per forward pass in Evaluate.
const evalBatchSize = 4096

// Epoch summarizes one pass over the training set.
type Epoch struct {
	Epoch     int // 1-based
	Steps     int // optimizer steps taken so far
	TrainLoss float64
	DevLoss   float64 // NaN without a dev set
	LR        float32 // learning rate of the last step
	Duration  time.Duration
}

// History records every completed epoch.
type History struct {
	Epochs []Epoch
}

// Last returns the most recent epoch, or false when none completed.
func (h History) Last() (Epoch, bool) {
	if len(h.Epochs) == 0 {
		return Epoch{}, false
	}
	return h.Epochs[len(h.Epochs)-1], true
}

// Trainer runs mini-batch gradient descent on a model.
type Trainer[B autodiff.BackwardCapable] struct {
	model   model.Model[B]
	backend B
	config  Config
	opt     optim.Optimizer
	sched   optim.Schedule
	loss    *nn.CrossEntropyLoss[B]
	rng     *rand.Rand
	logger  logrus.FieldLogger

	step int
}

// NewTrainer creates a trainer for m. rng drives shuffling.
func NewTrainer[B autodiff.BackwardCapable](m model.Model[B], backend B, cfg Config, rng *rand.Rand, logger logrus.FieldLogger) (*Trainer[B], error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("train config: %w", err)
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	var opt optim.Optimizer
	switch strings.ToLower(cfg.Optimizer) {
	case OptimizerSGD:
		opt = optim.NewSGD(m.Parameters(), optim.SGDConfig{LR: cfg.LearningRate, Momentum: cfg.Momentum}, backend)
	default:
		opt = optim.NewAdam(m.Parameters(), optim.AdamConfig{LR: cfg.LearningRate}, backend)
	}

	var sched optim.Schedule = optim.Constant(cfg.LearningRate)
	if cfg.DecayStep > 0 {
		decay, err := optim.NewStepDecay(cfg.LearningRate, cfg.DecayFactor, cfg.DecayStep)
		if err != nil {
			return nil, fmt.Errorf("train config: %w", err)
		}
		sched = decay
	}

	return &Trainer[B]{
		model:   m,
		backend: backend,
		config:  cfg,
		opt:     opt,
		sched:   sched,
		loss:    nn.NewCrossEntropyLoss[B](),
		rng:     rng,
		logger:  logger,
	}, nil
}

// Steps returns the number of optimizer steps taken.
func (t *Trainer[B]) Steps() int {
	return t.step
}

// Fit trains for the configured number of epochs. When Shuffle is set the
// training set is permuted in place before every epoch. dev may be nil.
//
// Cancellation is checked before every step; the history of the completed
// epochs is returned together with the context error.
func (t *Trainer[B]) Fit(ctx context.Context, train, dev *corpus.Dataset) (History, error) {
	var hist History
	if train == nil || train.Len() == 0 {
		return hist, fmt.Errorf("empty training set")
	}
	if err := t.checkWidth(train); err != nil {
		return hist, err
	}
	if dev != nil {
		if err := t.checkWidth(dev); err != nil {
			return hist, err
		}
	}

	t.logger.WithFields(logrus.Fields{
		"model":      t.model.Config().Kind,
		"parameters": nn.NumParameters(t.model.Parameters()),
		"examples":   train.Len(),
		"epochs":     t.config.Epochs,
		"batch_size": t.config.BatchSize,
		"optimizer":  t.config.Optimizer,
	}).Info("training started")

	tape := t.backend.GetTape()
	tape.StartRecording()
	defer func() {
		tape.StopRecording()
		tape.Clear()
	}()

	for epoch := 1; epoch <= t.config.Epochs; epoch++ {
		start := time.Now()
		t.model.SetTraining(true)
		if t.config.Shuffle {
			train.Shuffle(t.rng)
		}

		batches := train.Batches(t.config.BatchSize)
		total := 0.0
		for _, batch := range batches {
			if err := ctx.Err(); err != nil {
				return hist, fmt.Errorf("training stopped at step %d: %w", t.step, err)
			}

			loss, err := t.Step(batch)
			if err != nil {
				return hist, err
			}
			total += float64(loss) * float64(batch.Size())

			if t.config.LogEvery > 0 && t.step%t.config.LogEvery == 0 {
				t.logger.WithFields(logrus.Fields{
					"step": t.step,
					"loss": loss,
					"lr":   t.opt.GetLR(),
				}).Debug("step")
			}
		}

		rec := Epoch{
			Epoch:     epoch,
			Steps:     t.step,
			TrainLoss: total / float64(train.Len()),
			DevLoss:   math.NaN(),
			LR:        t.opt.GetLR(),
		}
		if dev != nil && dev.Len() > 0 {
			devLoss, err := t.Evaluate(dev)
			if err != nil {
				return hist, err
			}
			rec.DevLoss = devLoss
		}
		rec.Duration = time.Since(start)
		hist.Epochs = append(hist.Epochs, rec)

		fields := logrus.Fields{
			"epoch": epoch,
			"loss":  fmt.Sprintf("%.4f", rec.TrainLoss),
			"lr":    rec.LR,
		}
		if !math.IsNaN(rec.DevLoss) {
			fields["dev_loss"] = fmt.Sprintf("%.4f", rec.DevLoss)
		}
		t.logger.WithFields(fields).Info("epoch done")
	}
	return hist, nil
}

// Step runs one forward/backward pass on batch and updates the parameters.
// Returns the batch loss before the update.
func (t *Trainer[B]) Step(batch corpus.Batch) (float32, error) {
	optim.Apply(t.opt, t.sched, t.step)

	x, y, err := t.tensors(batch)
	if err != nil {
		return 0, err
	}

	tape := t.backend.GetTape()
	if !tape.IsRecording() {
		tape.StartRecording()
		defer tape.StopRecording()
	}
	tape.Clear()

	loss := t.loss.Forward(t.model.Forward(x), y)
	value := loss.Item()
	if math.IsNaN(float64(value)) || math.IsInf(float64(value), 0) {
		return 0, fmt.Errorf("loss diverged at step %d: %v", t.step, value)
	}

	grads := autodiff.Backward(loss, t.backend)
	t.opt.Step(grads)
	tape.Clear()

	t.step++
	return value, nil
}

// Evaluate returns the mean cross-entropy over ds with the model in
// evaluation mode. Nothing is recorded on the tape.
func (t *Trainer[B]) Evaluate(ds *corpus.Dataset) (float64, error) {
	if ds == nil || ds.Len() == 0 {
		return 0, fmt.Errorf("empty evaluation set")
	}
	if err := t.checkWidth(ds); err != nil {
		return 0, err
	}

	t.model.SetTraining(false)
	total := 0.0
	var evalErr error
	autodiff.NoGrad(t.backend, func() {
		for _, batch := range ds.Batches(evalBatchSize) {
			x, y, err := t.tensors(batch)
			if err != nil {
				evalErr = err
				return
			}
			loss := t.loss.Forward(t.model.Forward(x), y)
			total += float64(loss.Item()) * float64(batch.Size())
		}
	})
	if evalErr != nil {
		return 0, evalErr
	}
	return total / float64(ds.Len()), nil
}

func (t *Trainer[B]) tensors(batch corpus.Batch) (*tensor.Tensor[int32, B], *tensor.Tensor[int32, B], error) {
	n := batch.Size()
	x, err := tensor.FromSlice(batch.Contexts, tensor.Shape{n, t.model.ContextWidth()}, t.backend)
	if err != nil {
		return nil, nil, fmt.Errorf("batch contexts: %w", err)
	}
	y, err := tensor.FromSlice(batch.Targets, tensor.Shape{n}, t.backend)
	if err != nil {
		return nil, nil, fmt.Errorf("batch targets: %w", err)
	}
	return x, y, nil
}

func (t *Trainer[B]) checkWidth(ds *corpus.Dataset) error {
	if ds.Width != t.model.ContextWidth() {
		return fmt.Errorf("dataset context width %d does not match model width %d", ds.Width, t.model.ContextWidth())
	}
	return nil
}
