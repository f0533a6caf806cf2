package collector

import (
	"context"
	"errors"
	"testing"
	"time"

	"whale-sentry/internal/domain"

	"go.opentelemetry.io/otel/trace"
)

func TestGetRiskPredictionDegradesToNeutral(t *testing.T) {
	c := newTestCollector(&stubRisk{err: errors.New("db down")}, &stubPremiums{}, &stubWhales{})

	res := c.GetRiskPrediction(context.Background(), "BTC")
	if res.RiskScore != 50 || res.HighVolatilityProb != 0.5 {
		t.Fatalf("expected neutral result, got score %v prob %v", res.RiskScore, res.HighVolatilityProb)
	}
	if res.Indicators == nil {
		t.Fatal("neutral result must carry an empty indicator map")
	}
}

func TestGetRiskPredictionPassesThrough(t *testing.T) {
	want := domain.RiskResult{Coin: "BTC", RiskScore: 72.5, HighVolatilityProb: 0.725}
	c := newTestCollector(&stubRisk{res: &want}, &stubPremiums{}, &stubWhales{})

	res := c.GetRiskPrediction(context.Background(), "BTC")
	if res.RiskScore != 72.5 {
		t.Fatalf("expected pass-through score, got %v", res.RiskScore)
	}
}

func TestGetFeatureValuesNeverNil(t *testing.T) {
	c := newTestCollector(&stubRisk{err: errors.New("down")}, &stubPremiums{}, &stubWhales{})

	feats := c.GetFeatureValues(context.Background(), "BTC")
	if feats == nil {
		t.Fatal("expected empty map, got nil")
	}
}

func TestGetPremiumDataNeutralWhenEmpty(t *testing.T) {
	c := newTestCollector(&stubRisk{}, &stubPremiums{}, &stubWhales{})

	snap := c.GetPremiumData(context.Background(), "BTC")
	if snap.Premium != 0 {
		t.Fatalf("expected zero premium, got %v", snap.Premium)
	}
	if snap.Coin != "BTC" {
		t.Fatalf("expected coin on neutral snapshot, got %q", snap.Coin)
	}
}

func TestGetPremiumDataNeutralOnError(t *testing.T) {
	c := newTestCollector(&stubRisk{}, &stubPremiums{err: errors.New("down")}, &stubWhales{})

	snap := c.GetPremiumData(context.Background(), "BTC")
	if snap.Premium != 0 {
		t.Fatalf("expected zero premium on error, got %v", snap.Premium)
	}
}

func TestGetCurrentPriceFromPremiumSnapshot(t *testing.T) {
	snap := &domain.PremiumSnapshot{Coin: "BTC", DomesticPrice: 95000000, GlobalPrice: 94000000, Premium: 0.0106, CapturedAt: time.Now()}
	c := newTestCollector(&stubRisk{}, &stubPremiums{snap: snap}, &stubWhales{})

	if got := c.GetCurrentPrice(context.Background(), "BTC"); got != 95000000 {
		t.Fatalf("expected domestic price, got %v", got)
	}
}

func TestGetWhaleDataEmptyOnError(t *testing.T) {
	c := newTestCollector(&stubRisk{}, &stubPremiums{}, &stubWhales{err: errors.New("down")})

	if got := c.GetWhaleData(context.Background(), "BTC", 10); got != nil {
		t.Fatalf("expected nil on error, got %v", got)
	}
}

func newTestCollector(risk RiskSource, premiums PremiumSource, whales WhaleSource) *Collector {
	tracer := trace.NewNoopTracerProvider().Tracer("test")
	// nil cache: every read is a miss, every write a no-op.
	return New(tracer, nil, risk, premiums, whales)
}

type stubRisk struct {
	res *domain.RiskResult
	err error
}

func (s *stubRisk) PredictRisk(context.Context, string, time.Time) (*domain.RiskResult, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.res != nil {
		return s.res, nil
	}
	return &domain.RiskResult{RiskScore: 50, HighVolatilityProb: 0.5, Indicators: map[string]float64{}}, nil
}

type stubPremiums struct {
	snap *domain.PremiumSnapshot
	err  error
}

func (s *stubPremiums) LatestSnapshot(context.Context, string) (*domain.PremiumSnapshot, error) {
	return s.snap, s.err
}

type stubWhales struct {
	transfers []domain.WhaleTransfer
	err       error
}

func (s *stubWhales) RecentTransfers(context.Context, string, int) ([]domain.WhaleTransfer, error) {
	return s.transfers, s.err
}
