package optim

import "fmt"

// Schedule maps a step count to a learning rate.
type Schedule interface {
	LR(step int) float32
}

// Constant keeps the learning rate fixed.
type Constant float32

// LR returns the fixed rate.
func (c Constant) LR(int) float32 {
	return float32(c)
}

// StepDecay multiplies the base rate by Factor once Step steps have run
// and again every Step steps after that.
//
//	lr(step) = Base * Factor^(step / Step)
//
// With Base 0.1, Factor 0.1, Step 100000 this is the classic makemore
// "drop the learning rate 10x late in training" schedule.
type StepDecay struct {
	Base   float32
	Factor float32
	Step   int
}

// NewStepDecay validates and builds a StepDecay schedule.
func NewStepDecay(base, factor float32, step int) (StepDecay, error) {
	if step <= 0 {
		return StepDecay{}, fmt.Errorf("step decay interval must be positive, got %d", step)
	}
	if factor <= 0 || factor > 1 {
		return StepDecay{}, fmt.Errorf("step decay factor must be in (0, 1], got %g", factor)
	}
	return StepDecay{Base: base, Factor: factor, Step: step}, nil
}

// LR returns the decayed rate for step.
func (s StepDecay) LR(step int) float32 {
	lr := s.Base
	for i := 0; i < step/s.Step; i++ {
		lr *= s.Factor
	}
	return lr
}

// Apply sets opt's learning rate for step.
func Apply(opt Optimizer, sched Schedule, step int) {
	opt.SetLR(sched.LR(step))
}
