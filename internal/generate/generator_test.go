package generate

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/makemore/internal/vocab"
)

// constant always predicts the same weights.
func constant(weights []float64) Predictor {
	return PredictorFunc(func([]int32) ([]float64, error) {
		return weights, nil
	})
}

// lookup predicts a point mass on table[context], or the boundary when the
// context is not in the table.
type lookup struct {
	table    map[string]int
	contexts [][]int32
}

func (l *lookup) Predict(context []int32) ([]float64, error) {
	l.contexts = append(l.contexts, append([]int32{}, context...))
	key, err := vocab.DecodeCodes(context)
	if err != nil {
		return nil, err
	}
	if next, ok := l.table[key]; ok {
		return oneHot(next), nil
	}
	return oneHot(0), nil
}

func newRNG() *rand.Rand {
	return rand.New(rand.NewSource(42))
}

func TestGenerate_BoundaryOnly(t *testing.T) {
	gen, err := NewGenerator(constant(oneHot(0)), 3, newRNG())
	require.NoError(t, err)

	res, err := gen.Generate()
	require.NoError(t, err)
	assert.Equal(t, "", res.Name)
	assert.Equal(t, 1, res.Steps)
	assert.Equal(t, ReasonBoundary, res.Reason)
	assert.Equal(t, StateDone, gen.State())
}

func TestGenerate_NeverBoundaryStopsAtBound(t *testing.T) {
	weights := uniform()
	weights[0] = 0

	gen, err := NewGenerator(constant(weights), 3, newRNG(), WithMaxLength(5))
	require.NoError(t, err)

	res, err := gen.Generate()
	require.NoError(t, err)
	assert.Len(t, res.Name, 5)
	assert.Equal(t, 5, res.Steps)
	assert.Equal(t, ReasonMaxLength, res.Reason)
	for _, r := range res.Name {
		assert.True(t, r >= 'a' && r <= 'z', "rune %q", r)
	}
}

func TestGenerate_DefaultMaxLength(t *testing.T) {
	gen, err := NewGenerator(constant(oneHot(1)), 1, newRNG(), WithMaxLength(0))
	require.NoError(t, err)
	assert.Equal(t, DefaultMaxLength, gen.MaxLength())

	res, err := gen.Generate()
	require.NoError(t, err)
	assert.Len(t, res.Name, DefaultMaxLength)
}

func TestGenerate_SlidesWindow(t *testing.T) {
	model := &lookup{table: map[string]int{
		"...": 5,  // e
		"..e": 13, // m
		".em": 13, // m
		"emm": 1,  // a
	}}

	gen, err := NewGenerator(model, 3, newRNG())
	require.NoError(t, err)

	res, err := gen.Generate()
	require.NoError(t, err)
	assert.Equal(t, "emma", res.Name)
	assert.Equal(t, 5, res.Steps)
	assert.Equal(t, ReasonBoundary, res.Reason)

	assert.Equal(t, [][]int32{
		{0, 0, 0},
		{0, 0, 5},
		{0, 5, 13},
		{5, 13, 13},
		{13, 13, 1},
	}, model.contexts)
}

func TestGenerate_WidthOne(t *testing.T) {
	model := &lookup{table: map[string]int{".": 1, "a": 2}}

	gen, err := NewGenerator(model, 1, newRNG())
	require.NoError(t, err)

	res, err := gen.Generate()
	require.NoError(t, err)
	assert.Equal(t, "ab", res.Name)
	assert.Equal(t, [][]int32{{0}, {1}, {2}}, model.contexts)
}

func TestGenerate_Deterministic(t *testing.T) {
	weights := uniform()
	run := func() []Result {
		gen, err := NewGenerator(constant(weights), 3, newRNG(), WithMaxLength(10))
		require.NoError(t, err)
		res, err := gen.GenerateN(20)
		require.NoError(t, err)
		return res
	}
	assert.Equal(t, run(), run())
}

func TestGenerate_PredictorError(t *testing.T) {
	boom := errors.New("boom")
	gen, err := NewGenerator(PredictorFunc(func([]int32) ([]float64, error) {
		return nil, boom
	}), 3, newRNG())
	require.NoError(t, err)

	_, err = gen.Generate()
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, StateDone, gen.State())
}

func TestGenerate_InvalidDistribution(t *testing.T) {
	gen, err := NewGenerator(constant([]float64{1, 2, 3}), 3, newRNG())
	require.NoError(t, err)

	_, err = gen.Generate()
	var distErr *InvalidDistributionError
	assert.True(t, errors.As(err, &distErr))
}

func TestGenerateN(t *testing.T) {
	gen, err := NewGenerator(constant(oneHot(0)), 2, newRNG())
	require.NoError(t, err)

	results, err := gen.GenerateN(5)
	require.NoError(t, err)
	assert.Len(t, results, 5)
	for _, r := range results {
		assert.Equal(t, "", r.Name)
	}

	results, err = gen.GenerateN(0)
	require.NoError(t, err)
	assert.Empty(t, results)

	_, err = gen.GenerateN(-1)
	assert.Error(t, err)
}

func TestNewGenerator_Errors(t *testing.T) {
	_, err := NewGenerator(nil, 3, newRNG())
	assert.Error(t, err)

	_, err = NewGenerator(constant(uniform()), 0, newRNG())
	assert.Error(t, err)

	_, err = NewGenerator(constant(uniform()), 3, nil)
	assert.Error(t, err)
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "start", StateStart.String())
	assert.Equal(t, "generating", StateGenerating.String())
	assert.Equal(t, "done", StateDone.String())
	assert.Equal(t, "State(7)", State(7).String())
}
