package domain

import (
	"errors"
	"fmt"
	"time"
)

// ModelVariant identifies which trained classifier backs the risk predictor.
type ModelVariant string

const (
	VariantAuto    ModelVariant = "auto"
	VariantLegacy  ModelVariant = "legacy"
	VariantDynamic ModelVariant = "dynamic"
	VariantHybrid  ModelVariant = "hybrid"
	VariantLSTM    ModelVariant = "lstm"
)

func (v ModelVariant) IsValid() bool {
	switch v {
	case VariantAuto, VariantLegacy, VariantDynamic, VariantHybrid, VariantLSTM:
		return true
	}
	return false
}

// IncludesDynamic reports whether a variant consumes the delta/accel feature columns.
func (v ModelVariant) IncludesDynamic() bool {
	switch v {
	case VariantDynamic, VariantHybrid, VariantLSTM:
		return true
	}
	return false
}

// ErrModelUnavailable is returned at predictor construction when no trained
// artifact exists for the requested (or auto-resolved) variant.
var ErrModelUnavailable = errors.New("no trained model artifact available")

// ErrInsufficientData is returned when a window holds fewer rows than the
// rolling features need.
var ErrInsufficientData = errors.New("insufficient rows for rolling window")

// DateNotFoundError reports a requested date with no matching feature row,
// carrying the nearest available date so callers can re-prompt.
type DateNotFoundError struct {
	Requested time.Time
	Closest   time.Time
	DaysDiff  int
}

func (e *DateNotFoundError) Error() string {
	return fmt.Sprintf("no feature row for %s (closest: %s, %d days away)",
		e.Requested.Format("2006-01-02"), e.Closest.Format("2006-01-02"), e.DaysDiff)
}

// MarketRow is one collected day (or week) of market data for a coin.
type MarketRow struct {
	Coin              string    `json:"coin"`
	Date              time.Time `json:"date"`
	AvgFundingRate    float64   `json:"avg_funding_rate"`
	SumOpenInterest   float64   `json:"sum_open_interest"`
	LongShortRatio    float64   `json:"long_short_ratio"`
	Volatility24h     float64   `json:"volatility_24h"`
	Top100RichestPct  float64   `json:"top100_richest_pct"`
	AvgTransactionBTC float64   `json:"avg_transaction_value_btc"`
	NetFlowUSD        float64   `json:"net_flow_usd"`
	HasWhaleData      bool      `json:"has_whale_data"`
}

// WeeklyMarketRow is one aggregated week of market data. The weekly dataset
// has price levels but no trained classifier behind it.
type WeeklyMarketRow struct {
	Coin             string    `json:"coin"`
	WeekStart        time.Time `json:"week_start"`
	ClosePrice       float64   `json:"close_price"`
	HighPrice        float64   `json:"high_price"`
	LowPrice         float64   `json:"low_price"`
	Volatility       float64   `json:"volatility"`
	Top100RichestPct float64   `json:"top100_richest_pct"`
	SumOpenInterest  float64   `json:"sum_open_interest"`
	AvgFundingRate   float64   `json:"avg_funding_rate"`
	HasWhaleData     bool      `json:"has_whale_data"`
	HasLeverageData  bool      `json:"has_leverage_data"`
}

// FeatureRow is the derived feature table row produced by the feature engine.
// Dynamic columns are only populated on the dynamic path.
type FeatureRow struct {
	Coin string
	Date time.Time

	AvgFundingRate  float64
	SumOpenInterest float64
	LongShortRatio  float64
	Volatility24h   float64
	NetFlowUSD      float64

	WhaleConcChange7d float64
	FundingRateZscore float64
	OIGrowth7d        float64
	LongPositionPct   float64
	VolatilityRatio   float64
	TargetHighVol     int

	HasDynamic      bool
	VolatilityDelta float64
	OIDelta         float64
	FundingDelta    float64
	NetFlowDelta    float64
	OIAccel         float64
	VolatilityAccel float64
}

// Value returns a named feature column from the row. The second return is
// false when the name is unknown, which downstream code zero-fills.
func (r *FeatureRow) Value(name string) (float64, bool) {
	switch name {
	case "avg_funding_rate":
		return r.AvgFundingRate, true
	case "sum_open_interest":
		return r.SumOpenInterest, true
	case "long_position_pct":
		return r.LongPositionPct, true
	case "whale_conc_change_7d":
		return r.WhaleConcChange7d, true
	case "funding_rate_zscore":
		return r.FundingRateZscore, true
	case "oi_growth_7d":
		return r.OIGrowth7d, true
	case "volatility_ratio":
		return r.VolatilityRatio, true
	case "net_flow_usd":
		return r.NetFlowUSD, true
	case "volatility_delta":
		if !r.HasDynamic {
			return 0, false
		}
		return r.VolatilityDelta, true
	case "oi_delta":
		if !r.HasDynamic {
			return 0, false
		}
		return r.OIDelta, true
	case "funding_delta":
		if !r.HasDynamic {
			return 0, false
		}
		return r.FundingDelta, true
	case "net_flow_delta":
		if !r.HasDynamic {
			return 0, false
		}
		return r.NetFlowDelta, true
	case "oi_accel":
		if !r.HasDynamic {
			return 0, false
		}
		return r.OIAccel, true
	case "volatility_accel":
		if !r.HasDynamic {
			return 0, false
		}
		return r.VolatilityAccel, true
	}
	return 0, false
}

// WeeklyFeatureRow is the derived weekly feature row.
type WeeklyFeatureRow struct {
	Coin      string
	WeekStart time.Time

	VolatilityRatio   float64
	WhaleConcChange7d float64
	RSI               float64
	WeeklyRangePct    float64

	OIGrowth7d        float64
	FundingRateZscore float64
	HasLeverageData   bool
}

// RiskResult is one risk scoring outcome. LiquidationRisk is the hand-built
// composite, not model output; both numbers travel together.
type RiskResult struct {
	Coin               string             `json:"coin"`
	Date               time.Time          `json:"date"`
	HighVolatilityProb float64            `json:"high_volatility_prob"`
	RiskScore          float64            `json:"risk_score"`
	LiquidationRisk    float64            `json:"liquidation_risk"`
	Indicators         map[string]float64 `json:"indicators"`
	ZeroFilled         []string           `json:"zero_filled,omitempty"`
	ModelVariant       ModelVariant       `json:"model_variant"`
}

// SignalScore is one buy/sell evaluation. Recomputed on every poll.
type SignalScore struct {
	Coin        string             `json:"coin"`
	Buy         bool               `json:"buy_signal"`
	Sell        bool               `json:"sell_signal"`
	SignalScore float64            `json:"signal_score"`
	Components  map[string]float64 `json:"components"`
	Reason      string             `json:"reason"`
}

// Position is the single open position the trade engine may hold.
type Position struct {
	Coin       string    `json:"coin"`
	Quantity   float64   `json:"quantity"`
	EntryPrice float64   `json:"entry_price"`
	EntryTime  time.Time `json:"entry_time"`
}

// TradeSide labels executed decisions.
type TradeSide string

const (
	SideBuy  TradeSide = "buy"
	SideSell TradeSide = "sell"
)

// TradeDecision is a persisted record of an executed order decision.
type TradeDecision struct {
	ID          int64     `json:"id"`
	Coin        string    `json:"coin"`
	Side        TradeSide `json:"side"`
	Quantity    float64   `json:"quantity"`
	Price       float64   `json:"price"`
	SignalScore float64   `json:"signal_score"`
	Premium     float64   `json:"premium"`
	Multiplier  float64   `json:"multiplier"`
	Reason      string    `json:"reason"`
	DecidedAt   time.Time `json:"decided_at"`
}

// PremiumSnapshot is one observation of the cross-exchange price premium.
type PremiumSnapshot struct {
	Coin          string    `json:"coin"`
	DomesticPrice float64   `json:"domestic_price"`
	GlobalPrice   float64   `json:"global_price"`
	Premium       float64   `json:"premium"`
	CapturedAt    time.Time `json:"captured_at"`
}

// WhaleTransfer is one large on-chain transfer observation.
type WhaleTransfer struct {
	ID         int64     `json:"id"`
	Coin       string    `json:"coin"`
	Amount     float64   `json:"amount"`
	AmountUSD  float64   `json:"amount_usd"`
	ToExchange bool      `json:"to_exchange"`
	CapturedAt time.Time `json:"captured_at"`
}

// ModelArtifact is one stored trained-model blob plus its metadata.
type ModelArtifact struct {
	ID           int64
	ModelKey     string
	Version      int
	ArtifactBlob []byte
	MetadataJSON string
	IsActive     bool
	TrainedAt    time.Time
	CreatedAt    time.Time
}

// SupportedCoins lists the coins the platform tracks.
var SupportedCoins = []string{"BTC", "ETH", "XRP", "SOL", "DOGE"}

// IsSupportedCoin reports whether the symbol is tracked.
func IsSupportedCoin(coin string) bool {
	for _, c := range SupportedCoins {
		if c == coin {
			return true
		}
	}
	return false
}
