package anniversary

import (
	"testing"
	"time"
)

func TestRealisticDurationBounds(t *testing.T) {
	// Jitter is ±15%, so the hard envelope is [0.85*min, 1.15*max].
	lo := time.Duration(float64(minPlayTime) * 0.85)
	hi := time.Duration(float64(maxPlayTime) * 1.15)

	for _, score := range []int64{-100, 0, 500, 5000, 1 << 40} {
		for i := 0; i < 50; i++ {
			d := RealisticDuration(score)
			if d < lo || d > hi {
				t.Fatalf("score %d: duration %v outside [%v, %v]", score, d, lo, hi)
			}
		}
	}
}

func TestRealisticDurationVaries(t *testing.T) {
	seen := map[time.Duration]bool{}
	for i := 0; i < 20; i++ {
		seen[RealisticDuration(5000)] = true
	}
	if len(seen) < 2 {
		t.Error("expected jitter to produce varying durations")
	}
}

func TestWhatValue(t *testing.T) {
	got := whatValue(90 * time.Second)
	want := "91327"
	if got != want {
		t.Errorf("whatValue(90s) = %s, want %s", got, want)
	}
}
