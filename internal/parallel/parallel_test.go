package parallel

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFor_VisitsEachIndexOnce(t *testing.T) {
	cfg := Config{Enabled: true, NumWorkers: 4, MinChunkSize: 8}

	n := 1000
	visits := make([]int32, n)
	For(n, func(i int) {
		atomic.AddInt32(&visits[i], 1)
	}, cfg)

	for i, v := range visits {
		assert.Equal(t, int32(1), v, "index %d", i)
	}
}

func TestFor_Sequential(t *testing.T) {
	order := make([]int, 0, 50)
	For(50, func(i int) {
		order = append(order, i)
	}, Sequential())

	for i, v := range order {
		assert.Equal(t, i, v)
	}
}

func TestFor_SmallRangeRunsInline(t *testing.T) {
	cfg := Config{Enabled: true, NumWorkers: 8, MinChunkSize: 64}

	// Appending without synchronization is only safe if nothing runs concurrently.
	var seen []int
	For(100, func(i int) {
		seen = append(seen, i)
	}, cfg)
	assert.Len(t, seen, 100)
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.GreaterOrEqual(t, cfg.NumWorkers, 1)
	assert.Equal(t, cfg.NumWorkers > 1, cfg.Enabled)
	assert.NotEmpty(t, CPUName())
}

func BenchmarkFor(b *testing.B) {
	cfg := DefaultConfig()
	n := 10000

	b.Run("parallel", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			var sum int64
			For(n, func(i int) {
				atomic.AddInt64(&sum, int64(i))
			}, cfg)
		}
	})

	b.Run("sequential", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			var sum int64
			For(n, func(i int) {
				atomic.AddInt64(&sum, int64(i))
			}, Sequential())
		}
	})
}
