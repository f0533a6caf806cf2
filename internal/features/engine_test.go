package features

import (
	"math"
	"testing"
	"time"

	"whale-sentry/internal/domain"
)

func TestBuildRowsDropsUnfilledVolatilityWindow(t *testing.T) {
	e := NewEngine()
	rows := dailyRows(40)

	feats, names := e.BuildRows(rows, false)
	if len(names) != len(BaseFeatureNames) {
		t.Fatalf("expected %d feature names, got %d", len(BaseFeatureNames), len(names))
	}
	// The 7-row volatility window first fits at index 6.
	if len(feats) != 40-6 {
		t.Fatalf("expected %d rows after warmup drop, got %d", 40-6, len(feats))
	}
	if !feats[0].Date.Equal(rows[6].Date) {
		t.Fatalf("expected first kept row %v, got %v", rows[6].Date, feats[0].Date)
	}
}

func TestBuildRowsDeterministic(t *testing.T) {
	e := NewEngine()
	rows := dailyRows(40)

	a, _ := e.BuildRows(rows, true)
	b, _ := e.BuildRows(rows, true)
	if len(a) != len(b) {
		t.Fatalf("row counts differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("row %d differs between runs", i)
		}
	}
}

func TestBuildRowsFeaturePolicies(t *testing.T) {
	e := NewEngine()
	rows := dailyRows(40)

	feats, _ := e.BuildRows(rows, false)
	last := feats[len(feats)-1]

	// Constant funding: zero variance degrades the z-score to 0.
	if last.FundingRateZscore != 0 {
		t.Fatalf("expected zero funding z-score, got %v", last.FundingRateZscore)
	}

	// Constant volatility: ratio sits exactly at neutral.
	if math.Abs(last.VolatilityRatio-1.0) > 1e-12 {
		t.Fatalf("expected neutral volatility ratio, got %v", last.VolatilityRatio)
	}

	// long/short ratio 1.2 -> long share 1.2/2.2.
	want := 1.2 / 2.2
	if math.Abs(last.LongPositionPct-want) > 1e-12 {
		t.Fatalf("expected long position pct %v, got %v", want, last.LongPositionPct)
	}

	// OI compounds 0.1% per day, so 7-day growth is 1.001^7 - 1.
	wantGrowth := math.Pow(1.001, 7) - 1
	if math.Abs(last.OIGrowth7d-wantGrowth) > 1e-9 {
		t.Fatalf("expected oi growth %v, got %v", wantGrowth, last.OIGrowth7d)
	}

	// Flat whale concentration means no 7-day change.
	if last.WhaleConcChange7d != 0 {
		t.Fatalf("expected zero whale change, got %v", last.WhaleConcChange7d)
	}

	// The final row has no next-day volatility to label against.
	if last.TargetHighVol != 0 {
		t.Fatalf("expected final row label 0, got %d", last.TargetHighVol)
	}

	if last.HasDynamic {
		t.Fatal("dynamic columns should be absent on the base path")
	}
}

func TestBuildRowsZeroRatioIsNeutralLongShare(t *testing.T) {
	if got := longPositionPct(0); got != 0.5 {
		t.Fatalf("expected 0.5 for missing ratio, got %v", got)
	}
}

func TestBuildRowsDynamicColumns(t *testing.T) {
	e := NewEngine()
	rows := dailyRows(40)

	feats, names := e.BuildRows(rows, true)
	if len(names) != len(BaseFeatureNames)+len(DynamicFeatureNames) {
		t.Fatalf("expected %d names, got %d", len(BaseFeatureNames)+len(DynamicFeatureNames), len(names))
	}
	last := feats[len(feats)-1]
	if !last.HasDynamic {
		t.Fatal("expected dynamic columns on the dynamic path")
	}
	// OI compounds at a fixed rate, so the one-day delta is constant and its
	// acceleration is zero.
	if math.Abs(last.OIDelta-0.001) > 1e-9 {
		t.Fatalf("expected oi delta 0.001, got %v", last.OIDelta)
	}
	if math.Abs(last.OIAccel) > 1e-9 {
		t.Fatalf("expected zero oi accel, got %v", last.OIAccel)
	}
}

func TestBuildRowsUnsortedInput(t *testing.T) {
	e := NewEngine()
	rows := dailyRows(40)
	// Reverse the input; output order must not change.
	for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
		rows[i], rows[j] = rows[j], rows[i]
	}

	feats, _ := e.BuildRows(rows, false)
	for i := 1; i < len(feats); i++ {
		if !feats[i].Date.After(feats[i-1].Date) {
			t.Fatalf("rows out of order at %d", i)
		}
	}
}

func TestBuildWeeklyRowsDefaults(t *testing.T) {
	e := NewEngine()
	rows := weeklyRows(20)

	feats := e.BuildWeeklyRows(rows)
	if len(feats) != 20 {
		t.Fatalf("expected all 20 weekly rows kept, got %d", len(feats))
	}

	first := feats[0]
	// Unfilled volatility window degrades to neutral instead of dropping.
	if first.VolatilityRatio != 1.0 {
		t.Fatalf("expected neutral ratio on first weekly row, got %v", first.VolatilityRatio)
	}
	// RSI warmup falls back to the 50 midpoint.
	if first.RSI != 50 {
		t.Fatalf("expected RSI fallback 50, got %v", first.RSI)
	}

	last := feats[len(feats)-1]
	// Range is (high-low)/low in percent units.
	want := (105.0 - 95.0) / 95.0 * 100
	if math.Abs(last.WeeklyRangePct-want) > 1e-9 {
		t.Fatalf("expected weekly range %v, got %v", want, last.WeeklyRangePct)
	}
	if last.HasLeverageData {
		t.Fatal("leverage columns should be absent when any week lacks them")
	}
}

func dailyRows(n int) []domain.MarketRow {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rows := make([]domain.MarketRow, n)
	for i := range rows {
		rows[i] = domain.MarketRow{
			Coin:             "BTC",
			Date:             start.AddDate(0, 0, i),
			AvgFundingRate:   0.0001,
			SumOpenInterest:  1000 * math.Pow(1.001, float64(i)),
			LongShortRatio:   1.2,
			Volatility24h:    0.02,
			Top100RichestPct: 14.5,
			NetFlowUSD:       0,
			HasWhaleData:     true,
		}
	}
	return rows
}

func weeklyRows(n int) []domain.WeeklyMarketRow {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rows := make([]domain.WeeklyMarketRow, n)
	for i := range rows {
		rows[i] = domain.WeeklyMarketRow{
			Coin:             "BTC",
			WeekStart:        start.AddDate(0, 0, 7*i),
			ClosePrice:       100,
			HighPrice:        105,
			LowPrice:         95,
			Volatility:       0.03,
			Top100RichestPct: 14.5,
			HasWhaleData:     true,
			HasLeverageData:  false,
		}
	}
	return rows
}
