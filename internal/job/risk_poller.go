package job

import (
	"context"
	"errors"
	"log"
	"time"

	"whale-sentry/internal/domain"

	"go.opentelemetry.io/otel/trace"
)

// RiskScorer scores one coin on one date.
type RiskScorer interface {
	PredictRisk(ctx context.Context, coin string, target time.Time) (*domain.RiskResult, error)
}

// ResultStore persists scoring outcomes.
type ResultStore interface {
	UpsertResult(ctx context.Context, res domain.RiskResult) error
}

// RiskPoller periodically scores every supported coin and persists the
// results, so history survives model swaps and restarts.
type RiskPoller struct {
	tracer       trace.Tracer
	scorer       RiskScorer
	store        ResultStore
	pollInterval time.Duration
}

func NewRiskPoller(tracer trace.Tracer, scorer RiskScorer, store ResultStore, pollIntervalSecs int) *RiskPoller {
	return &RiskPoller{
		tracer:       tracer,
		scorer:       scorer,
		store:        store,
		pollInterval: time.Duration(pollIntervalSecs) * time.Second,
	}
}

// Start runs the scoring loop. Blocks until ctx is cancelled.
func (p *RiskPoller) Start(ctx context.Context) {
	log.Println("risk poller starting...")

	p.scoreAll(ctx)

	ticker := time.NewTicker(p.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("risk poller stopped")
			return
		case <-ticker.C:
			p.scoreAll(ctx)
		}
	}
}

func (p *RiskPoller) scoreAll(ctx context.Context) {
	ctx, span := p.tracer.Start(ctx, "risk-poller.score-all")
	defer span.End()

	now := time.Now().UTC()
	for _, coin := range domain.SupportedCoins {
		res, err := p.scorer.PredictRisk(ctx, coin, now)
		if err != nil {
			var dnf *domain.DateNotFoundError
			if errors.As(err, &dnf) || errors.Is(err, domain.ErrInsufficientData) {
				// Today's row has not been collected yet. Normal early in the day.
				continue
			}
			log.Printf("risk poller: scoring %s failed: %v", coin, err)
			continue
		}
		if err := p.store.UpsertResult(ctx, *res); err != nil {
			log.Printf("risk poller: persisting %s result failed: %v", coin, err)
		}
	}
}
