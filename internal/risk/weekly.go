package risk

import (
	"context"
	"math"
	"time"

	"whale-sentry/internal/domain"
)

// Weekly scoring. The weekly dataset has no trained classifier behind it, so
// the risk score here is an independent composite rule, not model output.
//
// The point and batch paths map risk score to probability with different
// offsets ((score-10)/40 vs (score-20)/60). That asymmetry is carried over
// from the platform's reference behavior on purpose; see DESIGN.md.

const trailingWindowWeeks = 52

func (p *Predictor) PredictRiskWeekly(ctx context.Context, coin string, target time.Time) (*domain.RiskResult, error) {
	_, span := p.tracer.Start(ctx, "risk-predictor.predict-weekly")
	defer span.End()

	from := target.AddDate(0, 0, -7*trailingWindowWeeks)
	rows, err := p.loader.LoadRiskDataWeekly(ctx, coin, from, target)
	if err != nil {
		return nil, err
	}
	featRows := p.engine.BuildWeeklyRows(rows)
	if len(featRows) == 0 {
		return nil, domain.ErrInsufficientData
	}

	idx := weekIndexFor(featRows, target)
	if idx < 0 {
		closest, diff := closestWeek(featRows, target)
		return nil, &domain.DateNotFoundError{Requested: target, Closest: closest, DaysDiff: diff}
	}

	row := &featRows[idx]
	score := weeklyRiskScore(row)
	return &domain.RiskResult{
		Coin:               coin,
		Date:               row.WeekStart,
		HighVolatilityProb: clamp((score-10)/40, 0, 1),
		RiskScore:          score,
		LiquidationRisk:    weeklyLiquidationRisk(row),
		Indicators:         weeklyIndicators(row),
		ModelVariant:       p.model.Variant(),
	}, nil
}

func (p *Predictor) PredictBatchWeekly(ctx context.Context, coin string, start, end time.Time) ([]domain.RiskResult, error) {
	_, span := p.tracer.Start(ctx, "risk-predictor.predict-batch-weekly")
	defer span.End()

	from := start.AddDate(0, 0, -7*trailingWindowWeeks)
	rows, err := p.loader.LoadRiskDataWeekly(ctx, coin, from, end)
	if err != nil {
		return nil, err
	}
	featRows := p.engine.BuildWeeklyRows(rows)

	out := make([]domain.RiskResult, 0, len(featRows))
	for i := range featRows {
		row := &featRows[i]
		if row.WeekStart.Before(start) || row.WeekStart.After(end) {
			continue
		}
		score := weeklyRiskScore(row)
		out = append(out, domain.RiskResult{
			Coin:               coin,
			Date:               row.WeekStart,
			HighVolatilityProb: clamp((score-20)/60, 0, 1),
			RiskScore:          score,
			LiquidationRisk:    weeklyLiquidationRisk(row),
			Indicators:         weeklyIndicators(row),
			ModelVariant:       p.model.Variant(),
		})
	}
	return out, nil
}

func weeklyRiskScore(row *domain.WeeklyFeatureRow) float64 {
	volScore := clamp(row.VolatilityRatio*100, 0, 100)
	whaleScore := clamp(math.Abs(row.WhaleConcChange7d)*200, 0, 100)
	rsiScore := math.Abs(row.RSI-50) * 2
	return volScore*0.5 + whaleScore*0.3 + rsiScore*0.2
}

// weeklyLiquidationRisk reuses the static daily formula when leverage data
// was collected for the whole window, otherwise falls back to the weekly
// trading range as a rough proxy.
func weeklyLiquidationRisk(row *domain.WeeklyFeatureRow) float64 {
	if row.HasLeverageData {
		return liquidationRiskStatic(row.OIGrowth7d, row.FundingRateZscore)
	}
	return clamp(row.WeeklyRangePct*5, 0, 100)
}

func weeklyIndicators(row *domain.WeeklyFeatureRow) map[string]float64 {
	out := map[string]float64{
		"volatility_ratio":     row.VolatilityRatio,
		"whale_conc_change_7d": row.WhaleConcChange7d,
		"rsi":                  row.RSI,
		"weekly_range_pct":     row.WeeklyRangePct,
	}
	if row.HasLeverageData {
		out["oi_growth_7d"] = row.OIGrowth7d
		out["funding_rate_zscore"] = row.FundingRateZscore
	}
	return out
}

// weekIndexFor matches the week whose 7-day span contains the target date.
func weekIndexFor(rows []domain.WeeklyFeatureRow, target time.Time) int {
	t := dateOnly(target)
	for i := range rows {
		start := dateOnly(rows[i].WeekStart)
		if !t.Before(start) && t.Before(start.AddDate(0, 0, 7)) {
			return i
		}
	}
	return -1
}

func closestWeek(rows []domain.WeeklyFeatureRow, target time.Time) (time.Time, int) {
	best := rows[0].WeekStart
	bestDiff := absDays(target, best)
	for i := 1; i < len(rows); i++ {
		diff := absDays(target, rows[i].WeekStart)
		if diff < bestDiff {
			best = rows[i].WeekStart
			bestDiff = diff
		}
	}
	return best, bestDiff
}
