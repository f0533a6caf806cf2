package anomaly

import (
	"context"
	"testing"
	"time"

	"whale-sentry/internal/domain"

	"go.opentelemetry.io/otel/trace"
)

func TestScoreTransfersSmallSample(t *testing.T) {
	d := NewDetector(trace.NewNoopTracerProvider().Tracer("test"))

	transfers := make([]domain.WhaleTransfer, minTransfers-1)
	for i := range transfers {
		transfers[i] = domain.WhaleTransfer{Coin: "BTC", Amount: 100, AmountUSD: 1e7, CapturedAt: time.Now()}
	}

	if got := d.ScoreTransfers(context.Background(), transfers); got != nil {
		t.Fatalf("expected nil below %d transfers, got %d scores", minTransfers, len(got))
	}
}

func TestScoreTransfersPreservesOrder(t *testing.T) {
	d := NewDetector(trace.NewNoopTracerProvider().Tracer("test"))

	transfers := make([]domain.WhaleTransfer, 32)
	for i := range transfers {
		transfers[i] = domain.WhaleTransfer{
			Coin:       "BTC",
			Amount:     10 + float64(i%4),
			AmountUSD:  1e6 + float64(i%4)*1e5,
			ToExchange: i%2 == 0,
		}
	}
	// One transfer two orders of magnitude above its peers.
	transfers[7].Amount = 5000
	transfers[7].AmountUSD = 5e8

	scores := d.ScoreTransfers(context.Background(), transfers)
	if len(scores) != len(transfers) {
		t.Fatalf("expected %d scores, got %d", len(transfers), len(scores))
	}
	for i := range scores {
		if scores[i].Transfer.Amount != transfers[i].Amount {
			t.Fatalf("score %d does not match input order", i)
		}
	}
}

func TestMaxScore(t *testing.T) {
	if got := MaxScore(nil); got != 0 {
		t.Fatalf("expected 0 for empty batch, got %v", got)
	}

	scores := []Score{{AnomalyScore: 0.3}, {AnomalyScore: 0.8}, {AnomalyScore: 0.5}}
	if got := MaxScore(scores); got != 0.8 {
		t.Fatalf("expected 0.8, got %v", got)
	}
}

func TestLogScale(t *testing.T) {
	if got := logScale(0); got != 0 {
		t.Fatalf("expected 0 for zero input, got %v", got)
	}
	if logScale(-100) != logScale(100) {
		t.Fatal("expected symmetric scaling for negative amounts")
	}
	if logScale(1e9) >= 25 {
		t.Fatal("expected heavy compression of large values")
	}
}
