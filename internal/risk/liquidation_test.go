package risk

import (
	"math"
	"testing"
)

func TestLiquidationRiskStatic(t *testing.T) {
	// OI growth at the clip ceiling plus a 3-sigma funding z-score.
	if got := liquidationRiskStatic(0.5, 3.0); got != 66 {
		t.Fatalf("expected 66, got %v", got)
	}
	// Inputs beyond the clips score the same as the clip values.
	if got := liquidationRiskStatic(5.0, 30.0); got != 66 {
		t.Fatalf("expected clipped inputs to score 66, got %v", got)
	}
	if got := liquidationRiskStatic(0, 0); got != 0 {
		t.Fatalf("expected 0 for calm inputs, got %v", got)
	}
	// Negative pressure floors at zero, never goes negative.
	if got := liquidationRiskStatic(-0.5, -3.0); got != 0 {
		t.Fatalf("expected floor at 0, got %v", got)
	}
}

func TestLiquidationRiskDynamicCeiling(t *testing.T) {
	// All four terms at their clip ceilings: 25+30+15+10 = 80.
	got := liquidationRiskDynamic(0.5, 3.0, 0.3, 0.02)
	want := 0.5*50 + 3.0*10 + 0.3*50 + 0.02*500
	if math.Abs(got-want) > 1e-12 {
		t.Fatalf("expected %v, got %v", want, got)
	}
	if got > 100 {
		t.Fatalf("score above cap: %v", got)
	}
}

func TestClampHandlesNaN(t *testing.T) {
	if got := clamp(math.NaN(), 0, 100); got != 0 {
		t.Fatalf("expected NaN to clamp to floor, got %v", got)
	}
}
