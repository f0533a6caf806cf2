package risk

import (
	"context"
	"math"
	"time"

	"whale-sentry/internal/domain"
	"whale-sentry/internal/features"

	"go.opentelemetry.io/otel/trace"
)

// trailingWindowDays is how much history a point prediction loads. It covers
// the 30-row funding z-score window with room for collection gaps.
const trailingWindowDays = 60

// DataLoader is the external storage collaborator. Rows come back sorted
// ascending by date; gaps are allowed.
type DataLoader interface {
	LoadRiskData(ctx context.Context, coin string, from, to time.Time) ([]domain.MarketRow, error)
	LoadRiskDataWeekly(ctx context.Context, coin string, from, to time.Time) ([]domain.WeeklyMarketRow, error)
}

// Predictor owns one loaded model variant and exposes point-in-time and
// batched risk scoring. The model handle is loaded once at construction and
// immutable afterwards.
type Predictor struct {
	tracer         trace.Tracer
	loader         DataLoader
	engine         *features.Engine
	model          variantModel
	importance     map[string]float64
	includeDynamic bool
}

// NewPredictor loads the requested variant from the artifact source. It
// fails fast with ErrModelUnavailable when no artifact exists: without a
// model there is nothing useful to do.
func NewPredictor(ctx context.Context, tracer trace.Tracer, src ArtifactSource, loader DataLoader, variant domain.ModelVariant) (*Predictor, error) {
	if !variant.IsValid() {
		variant = domain.VariantAuto
	}
	model, importance, err := loadVariant(ctx, src, variant)
	if err != nil {
		return nil, err
	}
	return &Predictor{
		tracer:         tracer,
		loader:         loader,
		engine:         features.NewEngine(),
		model:          model,
		importance:     importance,
		includeDynamic: model.Variant().IncludesDynamic(),
	}, nil
}

// Variant reports which model variant backs this predictor.
func (p *Predictor) Variant() domain.ModelVariant {
	return p.model.Variant()
}

// FeatureImportance returns the importance map declared by the loaded
// artifact's metadata, or nil when the artifact carries none.
func (p *Predictor) FeatureImportance() map[string]float64 {
	if len(p.importance) == 0 {
		return nil
	}
	out := make(map[string]float64, len(p.importance))
	for k, v := range p.importance {
		out[k] = v
	}
	return out
}

// PredictRisk scores one coin on one date using the trailing window ending
// there. A date with no feature row yields a DateNotFoundError naming the
// closest alternative instead of silently substituting it.
func (p *Predictor) PredictRisk(ctx context.Context, coin string, target time.Time) (*domain.RiskResult, error) {
	_, span := p.tracer.Start(ctx, "risk-predictor.predict")
	defer span.End()

	from := target.AddDate(0, 0, -trailingWindowDays)
	rows, err := p.loader.LoadRiskData(ctx, coin, from, target)
	if err != nil {
		return nil, err
	}
	return p.scoreWindow(rows, coin, target)
}

// PredictBatch scores every available date in [start, end]. Each date is
// scored against its own trailing window, so results agree exactly with the
// point path. Dates without enough history are skipped; an empty range
// yields an empty slice, not an error.
func (p *Predictor) PredictBatch(ctx context.Context, coin string, start, end time.Time) ([]domain.RiskResult, error) {
	_, span := p.tracer.Start(ctx, "risk-predictor.predict-batch")
	defer span.End()

	from := start.AddDate(0, 0, -trailingWindowDays)
	rows, err := p.loader.LoadRiskData(ctx, coin, from, end)
	if err != nil {
		return nil, err
	}

	out := make([]domain.RiskResult, 0, len(rows))
	for i := range rows {
		d := rows[i].Date
		if d.Before(start) || d.After(end) {
			continue
		}
		windowFrom := d.AddDate(0, 0, -trailingWindowDays)
		window := sliceWindow(rows, windowFrom, d)
		res, err := p.scoreWindow(window, coin, d)
		if err != nil {
			// Head rows without a filled volatility window, or a gap the
			// feature engine dropped. Batch semantics: skip, not fail.
			continue
		}
		out = append(out, *res)
	}
	return out, nil
}

func (p *Predictor) scoreWindow(rows []domain.MarketRow, coin string, target time.Time) (*domain.RiskResult, error) {
	if len(rows) == 0 {
		return nil, domain.ErrInsufficientData
	}

	featRows, _ := p.engine.BuildRows(rows, p.includeDynamic)
	if len(featRows) == 0 {
		return nil, domain.ErrInsufficientData
	}

	idx := -1
	for i := range featRows {
		if sameDay(featRows[i].Date, target) {
			idx = i
			break
		}
	}
	if idx < 0 {
		closest, diff := closestDate(featRows, target)
		return nil, &domain.DateNotFoundError{Requested: target, Closest: closest, DaysDiff: diff}
	}

	names := p.model.FeatureNames()
	window := make([][]float64, idx+1)
	var zeroFilled []string
	for i := 0; i <= idx; i++ {
		vector, missing := buildVector(&featRows[i], names)
		window[i] = vector
		if i == idx {
			zeroFilled = missing
		}
	}

	prob := clamp(p.model.Infer(window), 0, 1)
	row := &featRows[idx]

	liq := 0.0
	if p.includeDynamic {
		liq = liquidationRiskDynamic(row.OIGrowth7d, row.FundingRateZscore, row.OIAccel, row.VolatilityAccel)
	} else {
		liq = liquidationRiskStatic(row.OIGrowth7d, row.FundingRateZscore)
	}

	return &domain.RiskResult{
		Coin:               coin,
		Date:               row.Date,
		HighVolatilityProb: prob,
		RiskScore:          prob * 100,
		LiquidationRisk:    liq,
		Indicators:         indicatorsFor(row),
		ZeroFilled:         zeroFilled,
		ModelVariant:       p.model.Variant(),
	}, nil
}

// buildVector orders the row's features as the artifact declares. Absent or
// non-finite features become 0.0 rather than failing; the names of those
// zero-filled slots are returned so results stay auditable.
func buildVector(row *domain.FeatureRow, names []string) ([]float64, []string) {
	vector := make([]float64, len(names))
	var missing []string
	for i, name := range names {
		v, ok := row.Value(name)
		if !ok || math.IsNaN(v) || math.IsInf(v, 0) {
			vector[i] = 0
			missing = append(missing, name)
			continue
		}
		vector[i] = v
	}
	return vector, missing
}

func indicatorsFor(row *domain.FeatureRow) map[string]float64 {
	out := map[string]float64{
		"whale_conc_change_7d": row.WhaleConcChange7d,
		"funding_rate":         row.AvgFundingRate,
		"oi_growth_7d":         row.OIGrowth7d,
		"volatility_24h":       row.Volatility24h,
		"funding_rate_zscore":  row.FundingRateZscore,
		"long_position_pct":    row.LongPositionPct,
		"volatility_ratio":     row.VolatilityRatio,
	}
	if row.HasDynamic {
		out["volatility_delta"] = row.VolatilityDelta
		out["oi_delta"] = row.OIDelta
		out["funding_delta"] = row.FundingDelta
		out["net_flow_delta"] = row.NetFlowDelta
		out["oi_accel"] = row.OIAccel
		out["volatility_accel"] = row.VolatilityAccel
	}
	return out
}

func closestDate(rows []domain.FeatureRow, target time.Time) (time.Time, int) {
	best := rows[0].Date
	bestDiff := absDays(target, best)
	for i := 1; i < len(rows); i++ {
		diff := absDays(target, rows[i].Date)
		if diff < bestDiff {
			best = rows[i].Date
			bestDiff = diff
		}
	}
	return best, bestDiff
}

func absDays(a, b time.Time) int {
	d := dateOnly(a).Sub(dateOnly(b))
	if d < 0 {
		d = -d
	}
	return int(d / (24 * time.Hour))
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func sliceWindow(rows []domain.MarketRow, from, to time.Time) []domain.MarketRow {
	out := make([]domain.MarketRow, 0, len(rows))
	for i := range rows {
		if rows[i].Date.Before(from) || rows[i].Date.After(to) {
			continue
		}
		out = append(out, rows[i])
	}
	return out
}
