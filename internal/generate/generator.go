package generate

import (
	"fmt"
	"math/rand"
	"strings"

	"github.com/born-ml/makemore/internal/vocab"
)

// DefaultMaxLength bounds the number of sampling steps per name.
const DefaultMaxLength = 50

// Stop reasons reported in Result.Reason.
const (
	ReasonBoundary  = "boundary"
	ReasonMaxLength = "max_length"
)

// Predictor maps a context window of symbol codes to vocab.Size
// non-negative weights for the next symbol. The weights need not be
// normalized. Implementations must not retain or modify context.
type Predictor interface {
	Predict(context []int32) ([]float64, error)
}

// PredictorFunc adapts a function to the Predictor interface.
type PredictorFunc func(context []int32) ([]float64, error)

// Predict calls f(context).
func (f PredictorFunc) Predict(context []int32) ([]float64, error) {
	return f(context)
}

// State is the phase of a generation run.
type State int

// Generation states.
const (
	StateStart State = iota
	StateGenerating
	StateDone
)

func (s State) String() string {
	switch s {
	case StateStart:
		return "start"
	case StateGenerating:
		return "generating"
	case StateDone:
		return "done"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Result is one generated name.
type Result struct {
	Name   string // Generated letters, without boundary symbols
	Steps  int    // Number of symbols sampled, including a final boundary
	Reason string // ReasonBoundary or ReasonMaxLength
}

// Generator samples names from a Predictor.
type Generator struct {
	predictor Predictor
	sampler   *Sampler
	width     int
	maxLength int

	state State
}

// GeneratorOption configures a Generator.
type GeneratorOption func(*generatorOptions)

type generatorOptions struct {
	maxLength int
	sampling  SamplingConfig
}

// WithMaxLength sets the step bound. Values below 1 keep the default.
func WithMaxLength(n int) GeneratorOption {
	return func(o *generatorOptions) {
		if n > 0 {
			o.maxLength = n
		}
	}
}

// WithSampling sets the sampling strategy.
func WithSampling(config SamplingConfig) GeneratorOption {
	return func(o *generatorOptions) {
		o.sampling = config
	}
}

// NewGenerator creates a generator for a model with the given context
// width. Every draw comes from rng.
//
// Example:
//
//	gen, err := generate.NewGenerator(pred, 3, rand.New(rand.NewSource(42)),
//	    generate.WithMaxLength(20))
//	res, err := gen.Generate()
func NewGenerator(predictor Predictor, width int, rng *rand.Rand, opts ...GeneratorOption) (*Generator, error) {
	if predictor == nil {
		return nil, fmt.Errorf("nil predictor")
	}
	if width < 1 {
		return nil, fmt.Errorf("context width must be positive, got %d", width)
	}
	if rng == nil {
		return nil, fmt.Errorf("nil random source")
	}

	options := &generatorOptions{
		maxLength: DefaultMaxLength,
		sampling:  DefaultSamplingConfig(),
	}
	for _, opt := range opts {
		opt(options)
	}

	return &Generator{
		predictor: predictor,
		sampler:   NewSampler(options.sampling, rng),
		width:     width,
		maxLength: options.maxLength,
	}, nil
}

// MaxLength returns the step bound.
func (g *Generator) MaxLength() int {
	return g.maxLength
}

// State returns the phase of the current or last run.
func (g *Generator) State() State {
	return g.state
}

// Generate samples one name.
//
// The context starts as width boundary codes. Each step predicts, samples
// and either stops on the boundary symbol (which is not appended) or appends
// the letter and slides the window. After MaxLength letters the run stops
// without a final boundary.
func (g *Generator) Generate() (Result, error) {
	g.state = StateStart

	context := make([]int32, g.width)
	for i := range context {
		context[i] = vocab.Boundary
	}

	var name strings.Builder
	g.state = StateGenerating
	for step := 1; step <= g.maxLength; step++ {
		weights, err := g.predictor.Predict(context)
		if err != nil {
			g.state = StateDone
			return Result{}, fmt.Errorf("predict step %d: %w", step, err)
		}

		code, err := g.sampler.Sample(weights)
		if err != nil {
			g.state = StateDone
			return Result{}, fmt.Errorf("sample step %d: %w", step, err)
		}

		if code == vocab.Boundary {
			g.state = StateDone
			return Result{Name: name.String(), Steps: step, Reason: ReasonBoundary}, nil
		}

		r, err := vocab.Decode(code)
		if err != nil {
			g.state = StateDone
			return Result{}, fmt.Errorf("decode step %d: %w", step, err)
		}
		name.WriteRune(r)

		copy(context, context[1:])
		context[g.width-1] = code
	}

	g.state = StateDone
	return Result{Name: name.String(), Steps: g.maxLength, Reason: ReasonMaxLength}, nil
}

// GenerateN samples n names one after another from the same random source.
func (g *Generator) GenerateN(n int) ([]Result, error) {
	if n < 0 {
		return nil, fmt.Errorf("negative name count %d", n)
	}
	results := make([]Result, 0, n)
	for i := 0; i < n; i++ {
		res, err := g.Generate()
		if err != nil {
			return results, fmt.Errorf("name %d: %w", i, err)
		}
		results = append(results, res)
	}
	return results, nil
}
