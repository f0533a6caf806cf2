package ta

import (
	"math"
	"testing"
)

func TestRollingMeanUnfilledWindow(t *testing.T) {
	values := []float64{1, 2, 3}
	if got := RollingMean(values, 1, 3); !math.IsNaN(got) {
		t.Fatalf("expected NaN for unfilled window, got %v", got)
	}
	if got := RollingMean(values, 2, 3); got != 2 {
		t.Fatalf("expected mean 2, got %v", got)
	}
}

func TestRollingZZeroVariance(t *testing.T) {
	values := []float64{5, 5, 5, 5}
	if got := RollingZ(values, 3, 4); got != 0 {
		t.Fatalf("expected 0 for zero-variance window, got %v", got)
	}
}

func TestRollingZIncludesCurrentRow(t *testing.T) {
	values := []float64{1, 1, 1, 4}
	got := RollingZ(values, 3, 4)
	// mean 1.75, std sqrt(1.6875); z = 2.25/1.29904 = 1.7320...
	want := (4 - 1.75) / math.Sqrt(1.6875)
	if math.Abs(got-want) > 1e-12 {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestPctChange(t *testing.T) {
	values := []float64{100, 0, 110}
	if got := PctChange(values, 2, 2); math.Abs(got-0.1) > 1e-12 {
		t.Fatalf("expected 0.1, got %v", got)
	}
	if got := PctChange(values, 2, 1); !math.IsNaN(got) {
		t.Fatalf("expected NaN for zero base, got %v", got)
	}
	if got := PctChange(values, 0, 1); !math.IsNaN(got) {
		t.Fatalf("expected NaN when lag runs off the front, got %v", got)
	}
}

func TestPercentileInterpolates(t *testing.T) {
	values := []float64{4, 1, 3, 2}
	if got := Percentile(values, 50); got != 2.5 {
		t.Fatalf("expected 2.5, got %v", got)
	}
	if got := Percentile(values, 0); got != 1 {
		t.Fatalf("expected min, got %v", got)
	}
	if got := Percentile(values, 100); got != 4 {
		t.Fatalf("expected max, got %v", got)
	}
}

func TestRSISeriesWarmupAndBounds(t *testing.T) {
	closes := make([]float64, 30)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}
	rsi := RSISeries(closes, 14)
	if rsi == nil {
		t.Fatal("expected series, got nil")
	}
	for i := 0; i < 14; i++ {
		if !math.IsNaN(rsi[i]) {
			t.Fatalf("expected NaN during warmup at %d, got %v", i, rsi[i])
		}
	}
	// Monotonically rising closes mean no losses at all.
	if rsi[29] != 100 {
		t.Fatalf("expected RSI 100 for straight uptrend, got %v", rsi[29])
	}
}

func TestRSISeriesTooShort(t *testing.T) {
	if got := RSISeries([]float64{1, 2, 3}, 14); got != nil {
		t.Fatalf("expected nil for short series, got %v", got)
	}
}
