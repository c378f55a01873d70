package parallel

import (
	"sync/atomic"
	"testing"
)

func TestFor(t *testing.T) {
	cfg := DefaultConfig()

	var counter int64
	n := 100000

	For(n, func(_ int) {
		atomic.AddInt64(&counter, 1)
	}, cfg)

	if counter != int64(n) {
		t.Errorf("Expected %d, got %d", n, counter)
	}
}

func TestFor_Sequential(t *testing.T) {
	cfg := Config{Enabled: false}

	var counter int64
	For(100, func(_ int) {
		atomic.AddInt64(&counter, 1)
	}, cfg)

	if counter != 100 {
		t.Errorf("Expected 100, got %d", counter)
	}
}

func TestFor_SmallChunk(t *testing.T) {
	// Test that small work units fall back to sequential.
	cfg := DefaultConfig()

	var counter int64
	n := cfg.MinChunkSize - 1

	For(n, func(_ int) {
		atomic.AddInt64(&counter, 1)
	}, cfg)

	if counter != int64(n) {
		t.Errorf("Expected %d, got %d", n, counter)
	}
}

func TestForRange(t *testing.T) {
	cfg := DefaultConfig()

	n := 100000
	covered := make([]int32, n)

	ForRange(n, func(start, end int) {
		for i := start; i < end; i++ {
			atomic.AddInt32(&covered[i], 1)
		}
	}, cfg)

	for i, c := range covered {
		if c != 1 {
			t.Fatalf("index %d covered %d times, want exactly once", i, c)
		}
	}
}

func TestForRange_SmallFallsBackToSingleChunk(t *testing.T) {
	cfg := DefaultConfig()

	var calls, total int
	ForRange(10, func(start, end int) {
		calls++
		total += end - start
	}, cfg)

	if calls != 1 {
		t.Errorf("Expected single chunk for small n, got %d calls", calls)
	}
	if total != 10 {
		t.Errorf("Expected 10 items covered, got %d", total)
	}
}

func TestForRange_Empty(t *testing.T) {
	cfg := DefaultConfig()

	called := false
	ForRange(0, func(_, _ int) {
		called = true
	}, cfg)

	if called {
		t.Error("ForRange(0, ...) should not invoke the body")
	}
}

func BenchmarkFor(b *testing.B) {
	cfg := DefaultConfig()
	n := 100000

	b.Run("parallel", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			var sum int64
			For(n, func(i int) {
				atomic.AddInt64(&sum, int64(i))
			}, cfg)
		}
	})

	b.Run("sequential", func(b *testing.B) {
		cfgSeq := cfg
		cfgSeq.Enabled = false
		for i := 0; i < b.N; i++ {
			var sum int64
			For(n, func(i int) {
				atomic.AddInt64(&sum, int64(i))
			}, cfgSeq)
		}
	})
}

func BenchmarkForRange(b *testing.B) {
	cfg := DefaultConfig()
	vals := make([]float32, 1<<20)

	b.Run("parallel", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			ForRange(len(vals), func(start, end int) {
				for j := start; j < end; j++ {
					vals[j] *= 0.5
				}
			}, cfg)
		}
	})

	b.Run("sequential", func(b *testing.B) {
		cfgSeq := cfg
		cfgSeq.Enabled = false
		for i := 0; i < b.N; i++ {
			ForRange(len(vals), func(start, end int) {
				for j := start; j < end; j++ {
					vals[j] *= 0.5
				}
			}, cfgSeq)
		}
	})
}
