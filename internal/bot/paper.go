package bot

import (
	"context"
	"fmt"
	"time"

	"whale-sentry/internal/domain"
)

// PaperExecutor simulates fills at the collector's current price. No real
// exchange connectivity; this is the default executor.
type PaperExecutor struct {
	prices interface {
		GetCurrentPrice(ctx context.Context, coin string) float64
	}
}

func NewPaperExecutor(prices MarketReader) *PaperExecutor {
	return &PaperExecutor{prices: prices}
}

func (p *PaperExecutor) Buy(ctx context.Context, coin string, krwBudget float64) (*domain.Position, error) {
	price := p.prices.GetCurrentPrice(ctx, coin)
	if price <= 0 {
		return nil, fmt.Errorf("no price available for %s", coin)
	}
	return &domain.Position{
		Coin:       coin,
		Quantity:   krwBudget / price,
		EntryPrice: price,
		EntryTime:  time.Now().UTC(),
	}, nil
}

func (p *PaperExecutor) Sell(ctx context.Context, pos domain.Position) (float64, error) {
	price := p.prices.GetCurrentPrice(ctx, pos.Coin)
	if price <= 0 {
		return 0, fmt.Errorf("no price available for %s", pos.Coin)
	}
	return price, nil
}
