package strategy

import (
	"context"
	"fmt"
	"math"
	"time"

	"whale-sentry/internal/domain"

	"go.opentelemetry.io/otel/trace"
)

// Signal weighting. Buy blends the model probability with what the features
// themselves say; sell leans harder on the probability plus realized P&L.
const (
	buyVolWeight     = 0.4
	buyFeatureWeight = 0.4
	buyDynamicWeight = 0.2

	sellVolWeight    = 0.6
	sellProfitWeight = 0.4

	signalThreshold = 60.0
)

// Collector is the data façade the strategy reads from. Implementations
// degrade to neutral values rather than erroring.
type Collector interface {
	GetRiskPrediction(ctx context.Context, coin string) domain.RiskResult
	GetFeatureValues(ctx context.Context, coin string) map[string]float64
	GetCurrentPrice(ctx context.Context, coin string) float64
}

// DataDriven scores buy and sell signals from the risk model's probability,
// the per-feature direction readings, and (for sells) position P&L. Feature
// importance comes from the loaded model artifact; features the artifact does
// not rank fall out of the weighted vote.
type DataDriven struct {
	tracer     trace.Tracer
	collector  Collector
	importance map[string]float64

	takeProfitPct float64
	stopLossPct   float64
}

func NewDataDriven(tracer trace.Tracer, collector Collector, importance map[string]float64, takeProfitPct, stopLossPct float64) *DataDriven {
	return &DataDriven{
		tracer:        tracer,
		collector:     collector,
		importance:    importance,
		takeProfitPct: takeProfitPct,
		stopLossPct:   stopLossPct,
	}
}

// EvaluateBuy scores the case for opening a position. The signal fires at 60
// or above.
func (s *DataDriven) EvaluateBuy(ctx context.Context, coin string) domain.SignalScore {
	ctx, span := s.tracer.Start(ctx, "strategy.evaluate-buy")
	defer span.End()

	risk := s.collector.GetRiskPrediction(ctx, coin)
	feats := s.collector.GetFeatureValues(ctx, coin)

	volScore := clamp((0.5-risk.HighVolatilityProb)*200, 0, 100)
	featureScore := s.featureScore(feats)
	dynScore := dynamicScore(feats)

	signal := volScore*buyVolWeight + featureScore*buyFeatureWeight + dynScore*buyDynamicWeight

	return domain.SignalScore{
		Coin:        coin,
		Buy:         signal >= signalThreshold,
		SignalScore: signal,
		Components: map[string]float64{
			"volatility_score": volScore,
			"feature_score":    featureScore,
			"dynamic_score":    dynScore,
			"risk_score":       risk.RiskScore,
		},
		Reason: fmt.Sprintf("vol=%.1f feat=%.1f dyn=%.1f", volScore, featureScore, dynScore),
	}
}

// EvaluateSell scores the case for closing the open position. Take-profit and
// stop-loss pin the profit component at 100; the blended score still gates
// at 60, so a calm model can hold through either trigger.
func (s *DataDriven) EvaluateSell(ctx context.Context, coin string, pos *domain.Position) domain.SignalScore {
	ctx, span := s.tracer.Start(ctx, "strategy.evaluate-sell")
	defer span.End()

	risk := s.collector.GetRiskPrediction(ctx, coin)
	price := s.collector.GetCurrentPrice(ctx, coin)

	pnlPct := 0.0
	if pos != nil && pos.EntryPrice > 0 && price > 0 {
		pnlPct = (price - pos.EntryPrice) / pos.EntryPrice
	}

	volScore := clamp((risk.HighVolatilityProb-0.3)*200, 0, 100)

	profitScore := math.Min(math.Abs(pnlPct)*500, 100)
	trigger := ""
	switch {
	case pnlPct >= s.takeProfitPct:
		profitScore = 100
		trigger = fmt.Sprintf("take profit at %+.2f%%", pnlPct*100)
	case pnlPct <= s.stopLossPct:
		profitScore = 100
		trigger = fmt.Sprintf("stop loss at %+.2f%%", pnlPct*100)
	}

	signal := volScore*sellVolWeight + profitScore*sellProfitWeight

	reason := fmt.Sprintf("vol=%.1f pnl=%+.2f%%", volScore, pnlPct*100)
	if trigger != "" {
		reason = trigger + ", " + reason
	}

	return domain.SignalScore{
		Coin:        coin,
		Sell:        signal >= signalThreshold,
		SignalScore: signal,
		Components: map[string]float64{
			"volatility_score": volScore,
			"profit_score":     profitScore,
			"pnl_pct":          pnlPct,
			"risk_score":       risk.RiskScore,
		},
		Reason: reason,
	}
}

// HoldingAge reports how long the position has been open. Zero for nil.
func HoldingAge(pos *domain.Position, now time.Time) time.Duration {
	if pos == nil {
		return 0
	}
	return now.Sub(pos.EntryTime)
}

// featureScore is a weighted vote over feature directions. Each ranked
// feature pushes the 50-neutral baseline up or down in proportion to its
// importance; an empty overlap stays at 50.
func (s *DataDriven) featureScore(feats map[string]float64) float64 {
	var weighted, total float64
	for name, imp := range s.importance {
		v, ok := feats[name]
		if !ok || imp <= 0 {
			continue
		}
		weighted += float64(featureDirection(name, v)) * imp * 100
		total += imp
	}
	if total == 0 {
		return 50
	}
	return clamp(50+(weighted/total)/2, 0, 100)
}

// dynamicScore is an unweighted vote over the delta/accel readings. Absent
// dynamic features leave it at the 50 baseline.
func dynamicScore(feats map[string]float64) float64 {
	dynamic := []string{"oi_delta", "funding_delta", "net_flow_delta", "volatility_delta"}
	var sum float64
	var n int
	for _, name := range dynamic {
		v, ok := feats[name]
		if !ok {
			continue
		}
		sum += float64(featureDirection(name, v)) * 50
		n++
	}
	if n == 0 {
		return 50
	}
	return clamp(50+sum/float64(n), 0, 100)
}

// featureDirection maps a feature reading to a bullish (+1), bearish (-1) or
// neutral (0) vote.
func featureDirection(name string, v float64) int {
	switch name {
	case "whale_conc_change_7d":
		// Concentration falling means whales distributing to smaller holders.
		return sign(-v)
	case "funding_rate_zscore", "avg_funding_rate", "funding_rate", "funding_delta":
		// Negative funding pays longs; crowded shorts tend to squeeze up.
		return sign(-v)
	case "volatility_ratio":
		if v < 1 {
			return 1
		}
		if v > 1 {
			return -1
		}
		return 0
	case "net_flow_usd", "net_flow_delta":
		return sign(v)
	case "oi_growth_7d", "oi_delta":
		return sign(v)
	case "long_position_pct":
		// A crowded long book is fragile.
		if v > 0.5 {
			return -1
		}
		if v < 0.5 {
			return 1
		}
		return 0
	case "volatility_delta":
		return sign(-v)
	}
	return 0
}

func sign(v float64) int {
	if v > 0 {
		return 1
	}
	if v < 0 {
		return -1
	}
	return 0
}

func clamp(v, lo, hi float64) float64 {
	if v != v {
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
