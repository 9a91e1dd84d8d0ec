package corpus

import (
	"fmt"
	"math/rand"
)

// Dataset holds encoded examples. Contexts is flattened row-major, so
// example i has context Contexts[i*Width:(i+1)*Width] and target Targets[i].
type Dataset struct {
	Width    int
	Contexts []int32
	Targets  []int32
}

// Batch is a contiguous slice of examples.
type Batch struct {
	Contexts []int32 // len = Size*Width
	Targets  []int32 // len = Size
}

// Size returns the number of examples in the batch.
func (b Batch) Size() int {
	return len(b.Targets)
}

// Len returns the number of examples.
func (d *Dataset) Len() int {
	return len(d.Targets)
}

// Example returns the context and target of example i.
// Panics if i is out of range.
func (d *Dataset) Example(i int) ([]int32, int32) {
	if i < 0 || i >= d.Len() {
		panic(fmt.Sprintf("corpus: example %d out of range [0, %d)", i, d.Len()))
	}
	return d.Contexts[i*d.Width : (i+1)*d.Width], d.Targets[i]
}

// Batches splits the dataset into consecutive batches of size examples. The
// last batch may be smaller. A size of 0 or less yields one batch holding
// everything. The batches share storage with the dataset.
func (d *Dataset) Batches(size int) []Batch {
	n := d.Len()
	if n == 0 {
		return nil
	}
	if size <= 0 || size > n {
		size = n
	}

	batches := make([]Batch, 0, (n+size-1)/size)
	for start := 0; start < n; start += size {
		end := start + size
		if end > n {
			end = n
		}
		batches = append(batches, Batch{
			Contexts: d.Contexts[start*d.Width : end*d.Width],
			Targets:  d.Targets[start:end],
		})
	}
	return batches
}

// Shuffle permutes the examples in place. Contexts stay paired with their
// targets.
func (d *Dataset) Shuffle(rng *rand.Rand) {
	w := d.Width
	tmp := make([]int32, w)
	rng.Shuffle(d.Len(), func(i, j int) {
		d.Targets[i], d.Targets[j] = d.Targets[j], d.Targets[i]
		a := d.Contexts[i*w : (i+1)*w]
		b := d.Contexts[j*w : (j+1)*w]
		copy(tmp, a)
		copy(a, b)
		copy(b, tmp)
	})
}

// Subset returns a new dataset holding copies of the given examples in the
// given order.
func (d *Dataset) Subset(indices []int) *Dataset {
	out := &Dataset{
		Width:    d.Width,
		Contexts: make([]int32, 0, len(indices)*d.Width),
		Targets:  make([]int32, 0, len(indices)),
	}
	for _, i := range indices {
		ctx, target := d.Example(i)
		out.Contexts = append(out.Contexts, ctx...)
		out.Targets = append(out.Targets, target)
	}
	return out
}
