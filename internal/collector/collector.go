package collector

import (
	"context"
	"log"
	"time"

	"whale-sentry/internal/cache"
	"whale-sentry/internal/domain"

	"go.opentelemetry.io/otel/trace"
)

// Cache TTLs. Risk predictions move daily, prices and premiums move fast.
const (
	riskTTL    = 60 * time.Second
	priceTTL   = 30 * time.Second
	premiumTTL = 30 * time.Second
)

type RiskSource interface {
	PredictRisk(ctx context.Context, coin string, target time.Time) (*domain.RiskResult, error)
}

type PremiumSource interface {
	LatestSnapshot(ctx context.Context, coin string) (*domain.PremiumSnapshot, error)
}

type WhaleSource interface {
	RecentTransfers(ctx context.Context, coin string, limit int) ([]domain.WhaleTransfer, error)
}

// Collector is the read façade the strategy layer polls. It never returns an
// error: every failure degrades to a neutral value so one flaky dependency
// cannot stall the trade loop. Failures are logged, not hidden.
type Collector struct {
	tracer   trace.Tracer
	cache    *cache.TTLCache
	risk     RiskSource
	premiums PremiumSource
	whales   WhaleSource
}

func New(tracer trace.Tracer, ttlCache *cache.TTLCache, risk RiskSource, premiums PremiumSource, whales WhaleSource) *Collector {
	return &Collector{
		tracer:   tracer,
		cache:    ttlCache,
		risk:     risk,
		premiums: premiums,
		whales:   whales,
	}
}

// GetRiskPrediction returns today's risk result for the coin. When the
// predictor cannot score (no data, date gap), the neutral 50-score result
// comes back instead.
func (c *Collector) GetRiskPrediction(ctx context.Context, coin string) domain.RiskResult {
	ctx, span := c.tracer.Start(ctx, "collector.get-risk-prediction")
	defer span.End()

	key := "collector:risk:" + coin
	var cached domain.RiskResult
	if c.cache.GetJSON(ctx, key, &cached) {
		return cached
	}

	res, err := c.risk.PredictRisk(ctx, coin, time.Now().UTC())
	if err != nil {
		log.Printf("collector: risk prediction for %s unavailable, using neutral: %v", coin, err)
		return neutralRisk(coin)
	}

	c.cache.SetJSON(ctx, key, res, riskTTL)
	return *res
}

// GetFeatureValues returns the indicator map behind today's risk result.
// Empty map, never nil, when nothing is available.
func (c *Collector) GetFeatureValues(ctx context.Context, coin string) map[string]float64 {
	res := c.GetRiskPrediction(ctx, coin)
	if res.Indicators == nil {
		return map[string]float64{}
	}
	return res.Indicators
}

// GetPremiumData returns the latest cross-exchange premium snapshot, or a
// zero-premium snapshot when none has been captured.
func (c *Collector) GetPremiumData(ctx context.Context, coin string) domain.PremiumSnapshot {
	ctx, span := c.tracer.Start(ctx, "collector.get-premium-data")
	defer span.End()

	key := "collector:premium:" + coin
	var cached domain.PremiumSnapshot
	if c.cache.GetJSON(ctx, key, &cached) {
		return cached
	}

	snap, err := c.premiums.LatestSnapshot(ctx, coin)
	if err != nil {
		log.Printf("collector: premium for %s unavailable, using neutral: %v", coin, err)
		return neutralPremium(coin)
	}
	if snap == nil {
		return neutralPremium(coin)
	}

	c.cache.SetJSON(ctx, key, snap, premiumTTL)
	return *snap
}

// GetCurrentPrice returns the domestic-exchange price from the latest premium
// snapshot, or 0 when no price has been observed.
func (c *Collector) GetCurrentPrice(ctx context.Context, coin string) float64 {
	ctx, span := c.tracer.Start(ctx, "collector.get-current-price")
	defer span.End()

	key := "collector:price:" + coin
	var cached float64
	if c.cache.GetJSON(ctx, key, &cached) {
		return cached
	}

	snap := c.GetPremiumData(ctx, coin)
	if snap.DomesticPrice > 0 {
		c.cache.SetJSON(ctx, key, snap.DomesticPrice, priceTTL)
	}
	return snap.DomesticPrice
}

// GetWhaleData returns recent large transfers, newest first. Empty on error.
func (c *Collector) GetWhaleData(ctx context.Context, coin string, limit int) []domain.WhaleTransfer {
	ctx, span := c.tracer.Start(ctx, "collector.get-whale-data")
	defer span.End()

	transfers, err := c.whales.RecentTransfers(ctx, coin, limit)
	if err != nil {
		log.Printf("collector: whale transfers for %s unavailable: %v", coin, err)
		return nil
	}
	return transfers
}

func neutralRisk(coin string) domain.RiskResult {
	return domain.RiskResult{
		Coin:               coin,
		Date:               time.Now().UTC(),
		HighVolatilityProb: 0.5,
		RiskScore:          50,
		LiquidationRisk:    0,
		Indicators:         map[string]float64{},
	}
}

func neutralPremium(coin string) domain.PremiumSnapshot {
	return domain.PremiumSnapshot{Coin: coin, Premium: 0, CapturedAt: time.Now().UTC()}
}
