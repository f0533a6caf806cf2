package anomaly

import (
	"context"
	"math"

	"whale-sentry/internal/domain"

	"github.com/narumiruna/go-iforest/pkg/iforest"
	"go.opentelemetry.io/otel/trace"
)

// minTransfers is the smallest sample an isolation forest can say anything
// useful about.
const minTransfers = 16

// Score is one transfer ranked by how unusual it looks against its peers.
type Score struct {
	Transfer     domain.WhaleTransfer `json:"transfer"`
	AnomalyScore float64              `json:"anomaly_score"`
}

// Detector flags unusual whale transfers with an isolation forest over
// (amount, usd value, direction). The forest is refit on every call; whale
// transfer batches are small enough that this stays cheap.
type Detector struct {
	tracer trace.Tracer
}

func NewDetector(tracer trace.Tracer) *Detector {
	return &Detector{tracer: tracer}
}

// ScoreTransfers ranks transfers by anomaly score, preserving input order.
// Fewer than minTransfers rows yields nil: too small a sample to call
// anything an outlier.
func (d *Detector) ScoreTransfers(ctx context.Context, transfers []domain.WhaleTransfer) []Score {
	_, span := d.tracer.Start(ctx, "anomaly-detector.score-transfers")
	defer span.End()

	if len(transfers) < minTransfers {
		return nil
	}

	samples := make([][]float64, len(transfers))
	for i, t := range transfers {
		direction := 0.0
		if t.ToExchange {
			direction = 1.0
		}
		samples[i] = []float64{
			logScale(t.Amount),
			logScale(t.AmountUSD),
			direction,
		}
	}

	forest := iforest.New()
	forest.Fit(samples)
	scores := forest.Score(samples)

	out := make([]Score, len(transfers))
	for i := range transfers {
		out[i] = Score{Transfer: transfers[i], AnomalyScore: scores[i]}
	}
	return out
}

// MaxScore returns the highest anomaly score in the batch, 0 when empty.
func MaxScore(scores []Score) float64 {
	max := 0.0
	for _, s := range scores {
		if s.AnomalyScore > max {
			max = s.AnomalyScore
		}
	}
	return max
}

// logScale compresses heavy-tailed transfer sizes so one mega-transfer does
// not flatten the rest of the feature space.
func logScale(v float64) float64 {
	return math.Log1p(math.Abs(v))
}
