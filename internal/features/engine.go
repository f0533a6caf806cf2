package features

import (
	"math"
	"sort"

	"whale-sentry/internal/domain"
	"whale-sentry/internal/ta"
)

const (
	featureSpecVersion = "v1"

	whaleLagRows      = 7
	oiGrowthLagRows   = 7
	fundingZWindow    = 30
	volatilityWindow  = 7
	highVolPercentile = 80.0
	highVolAbsolute   = 0.05

	rsiPeriod = 14
)

// BaseFeatureNames is the fixed, ordered feature set of the non-dynamic path.
var BaseFeatureNames = []string{
	"avg_funding_rate",
	"sum_open_interest",
	"long_position_pct",
	"whale_conc_change_7d",
	"funding_rate_zscore",
	"oi_growth_7d",
	"volatility_ratio",
}

// DynamicFeatureNames extends the base set on the dynamic path.
var DynamicFeatureNames = []string{
	"volatility_delta",
	"oi_delta",
	"funding_delta",
	"net_flow_delta",
	"oi_accel",
	"volatility_accel",
}

func FeatureSpecVersion() string {
	return featureSpecVersion
}

type Engine struct{}

func NewEngine() *Engine {
	return &Engine{}
}

// BuildRows derives the feature table from raw daily market rows. The input
// is never mutated; rows are re-sorted ascending by date. Rows whose
// volatility_ratio window does not fit are dropped; every other undefined
// value degrades to its neutral policy value instead.
func (e *Engine) BuildRows(rows []domain.MarketRow, includeDynamic bool) ([]domain.FeatureRow, []string) {
	sorted := sortRows(rows)
	n := len(sorted)
	if n == 0 {
		return nil, featureNames(includeDynamic)
	}

	funding := make([]float64, n)
	oi := make([]float64, n)
	vol := make([]float64, n)
	whale := make([]float64, n)
	netFlow := make([]float64, n)
	for i := range sorted {
		funding[i] = sorted[i].AvgFundingRate
		oi[i] = sorted[i].SumOpenInterest
		vol[i] = sorted[i].Volatility24h
		whale[i] = sorted[i].Top100RichestPct
		netFlow[i] = sorted[i].NetFlowUSD
	}

	highVolThreshold := ta.Percentile(vol, highVolPercentile)

	oiDelta := make([]float64, n)
	volDelta := make([]float64, n)
	for i := range sorted {
		oiDelta[i] = zeroIfBad(ta.PctChange(oi, i, 1))
		volDelta[i] = 0
		if i > 0 {
			volDelta[i] = vol[i] - vol[i-1]
		}
	}

	out := make([]domain.FeatureRow, 0, n)
	for i := range sorted {
		row := domain.FeatureRow{
			Coin:            sorted[i].Coin,
			Date:            sorted[i].Date,
			AvgFundingRate:  funding[i],
			SumOpenInterest: oi[i],
			LongShortRatio:  sorted[i].LongShortRatio,
			Volatility24h:   vol[i],
			NetFlowUSD:      netFlow[i],
		}

		row.WhaleConcChange7d = whaleConcChange(sorted, whale, i)
		row.FundingRateZscore = fundingZscore(funding, i)
		row.OIGrowth7d = zeroIfBad(ta.PctChange(oi, i, oiGrowthLagRows))
		row.LongPositionPct = longPositionPct(sorted[i].LongShortRatio)

		ratio := volatilityRatio(vol, i)
		if math.IsNaN(ratio) {
			// The one place rows disappear: the short volatility window
			// has not filled yet.
			continue
		}
		row.VolatilityRatio = ratio

		row.TargetHighVol = 0
		if i+1 < n && (vol[i+1] > highVolThreshold || vol[i+1] > highVolAbsolute) {
			row.TargetHighVol = 1
		}

		if includeDynamic {
			row.HasDynamic = true
			row.VolatilityDelta = volDelta[i]
			row.OIDelta = oiDelta[i]
			if i > 0 {
				row.FundingDelta = funding[i] - funding[i-1]
				row.NetFlowDelta = netFlow[i] - netFlow[i-1]
				row.OIAccel = oiDelta[i] - oiDelta[i-1]
				row.VolatilityAccel = volDelta[i] - volDelta[i-1]
			}
		}

		out = append(out, row)
	}
	return out, featureNames(includeDynamic)
}

// BuildWeeklyRows derives the weekly feature table. The weekly dataset carries
// price levels, so RSI and the weekly trading range are available here.
func (e *Engine) BuildWeeklyRows(rows []domain.WeeklyMarketRow) []domain.WeeklyFeatureRow {
	sorted := sortWeekly(rows)
	n := len(sorted)
	if n == 0 {
		return nil
	}

	vol := make([]float64, n)
	whale := make([]float64, n)
	closes := make([]float64, n)
	oi := make([]float64, n)
	funding := make([]float64, n)
	leverage := true
	for i := range sorted {
		vol[i] = sorted[i].Volatility
		whale[i] = sorted[i].Top100RichestPct
		closes[i] = sorted[i].ClosePrice
		oi[i] = sorted[i].SumOpenInterest
		funding[i] = sorted[i].AvgFundingRate
		if !sorted[i].HasLeverageData {
			leverage = false
		}
	}

	rsi := ta.RSISeries(closes, rsiPeriod)

	out := make([]domain.WeeklyFeatureRow, 0, n)
	for i := range sorted {
		row := domain.WeeklyFeatureRow{
			Coin:      sorted[i].Coin,
			WeekStart: sorted[i].WeekStart,
		}

		ratio := volatilityRatio(vol, i)
		if math.IsNaN(ratio) {
			ratio = 1.0
		}
		row.VolatilityRatio = ratio

		row.WhaleConcChange7d = 0
		if sorted[i].HasWhaleData && i >= whaleLagRows && whale[i-whaleLagRows] != 0 {
			row.WhaleConcChange7d = (whale[i] - whale[i-whaleLagRows]) / whale[i-whaleLagRows]
		}

		row.RSI = 50
		if rsi != nil && i < len(rsi) && !math.IsNaN(rsi[i]) {
			row.RSI = rsi[i]
		}

		if sorted[i].LowPrice > 0 {
			// Percent units, matching the downstream weekly scoring rule.
			row.WeeklyRangePct = (sorted[i].HighPrice - sorted[i].LowPrice) / sorted[i].LowPrice * 100
		}

		if leverage {
			row.OIGrowth7d = zeroIfBad(ta.PctChange(oi, i, oiGrowthLagRows))
			row.FundingRateZscore = fundingZscore(funding, i)
			row.HasLeverageData = true
		}

		out = append(out, row)
	}
	return out
}

func featureNames(includeDynamic bool) []string {
	names := append([]string(nil), BaseFeatureNames...)
	if includeDynamic {
		names = append(names, DynamicFeatureNames...)
	}
	return names
}

func whaleConcChange(rows []domain.MarketRow, whale []float64, idx int) float64 {
	if idx < whaleLagRows {
		return 0
	}
	if !rows[idx].HasWhaleData || !rows[idx-whaleLagRows].HasWhaleData {
		return 0
	}
	base := whale[idx-whaleLagRows]
	if base == 0 {
		return 0
	}
	return (whale[idx] - base) / base
}

func fundingZscore(funding []float64, idx int) float64 {
	z := ta.RollingZ(funding, idx, fundingZWindow)
	return zeroIfBad(z)
}

// longPositionPct maps the long/short ratio into a 0..1 long share. A zero
// ratio is treated as neutral (1.0), never as an all-short book.
func longPositionPct(ratio float64) float64 {
	if ratio == 0 {
		ratio = 1.0
	}
	return ratio / (1 + ratio)
}

// volatilityRatio is today's volatility over the 7-row rolling mean. A zero
// mean yields the neutral 1.0; an unfilled window yields NaN so the caller
// can drop the row.
func volatilityRatio(vol []float64, idx int) float64 {
	mean := ta.RollingMean(vol, idx, volatilityWindow)
	if math.IsNaN(mean) {
		return math.NaN()
	}
	if mean == 0 {
		return 1.0
	}
	return vol[idx] / mean
}

func zeroIfBad(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

func sortRows(in []domain.MarketRow) []domain.MarketRow {
	out := make([]domain.MarketRow, len(in))
	copy(out, in)
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

func sortWeekly(in []domain.WeeklyMarketRow) []domain.WeeklyMarketRow {
	out := make([]domain.WeeklyMarketRow, len(in))
	copy(out, in)
	sort.Slice(out, func(i, j int) bool { return out[i].WeekStart.Before(out[j].WeekStart) })
	return out
}
