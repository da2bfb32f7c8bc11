package collatz_test

import (
	"testing"

	"github.com/katalvlaran/collatz/collatz"
	"github.com/katalvlaran/collatz/u128"
)

// benchmarkFind runs Find for target with a fresh memo per iteration.
func benchmarkFind(b *testing.B, target int, opts ...collatz.Option) {
	b.ResetTimer() // ignore setup time
	for i := 0; i < b.N; i++ {
		if _, err := collatz.Find(target, opts...); err != nil {
			b.Fatalf("Find failed: %v", err)
		}
	}
}

// BenchmarkFind_Small benchmarks a target answered by 27.
func BenchmarkFind_Small(b *testing.B) {
	benchmarkFind(b, 112)
}

// BenchmarkFind_Medium benchmarks a target answered by 6319.
func BenchmarkFind_Medium(b *testing.B) {
	benchmarkFind(b, 200)
}

// BenchmarkFind_Large benchmarks a target answered by 126575.
func BenchmarkFind_Large(b *testing.B) {
	benchmarkFind(b, 300)
}

// BenchmarkFind_SharedMemo measures repeated queries against a warm memo.
func BenchmarkFind_SharedMemo(b *testing.B) {
	memo := collatz.NewMemo()
	if _, err := collatz.Find(200, collatz.WithMemo(memo)); err != nil {
		b.Fatalf("warm-up failed: %v", err)
	}
	benchmarkFind(b, 200, collatz.WithMemo(memo))
}

// BenchmarkPathLength_Long benchmarks a single long chain without reuse.
func BenchmarkPathLength_Long(b *testing.B) {
	n := u128.From64(837799)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := collatz.PathLength(n); err != nil {
			b.Fatalf("PathLength failed: %v", err)
		}
	}
}
