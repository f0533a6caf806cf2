package repository

import (
	"context"

	"whale-sentry/internal/domain"

	"go.opentelemetry.io/otel/trace"
)

// DecisionRepository is the audit log of executed trade decisions.
type DecisionRepository struct {
	pool   PgxPool
	tracer trace.Tracer
}

func NewDecisionRepository(pool PgxPool, tracer trace.Tracer) *DecisionRepository {
	return &DecisionRepository{pool: pool, tracer: tracer}
}

func (r *DecisionRepository) InsertDecision(ctx context.Context, d domain.TradeDecision) error {
	_, span := r.tracer.Start(ctx, "decision-repo.insert-decision")
	defer span.End()

	_, err := r.pool.Exec(ctx,
		`INSERT INTO trade_decisions (
		     coin, side, quantity, price, signal_score, premium, multiplier, reason, decided_at
		 ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		d.Coin, string(d.Side), d.Quantity, d.Price, d.SignalScore, d.Premium, d.Multiplier, d.Reason, d.DecidedAt.UTC(),
	)
	return err
}

// RecentDecisions returns the newest decisions for the coin, newest first.
func (r *DecisionRepository) RecentDecisions(ctx context.Context, coin string, limit int) ([]domain.TradeDecision, error) {
	_, span := r.tracer.Start(ctx, "decision-repo.recent-decisions")
	defer span.End()

	rows, err := r.pool.Query(ctx,
		`SELECT id, coin, side, quantity, price, signal_score, premium, multiplier, reason, decided_at
		 FROM trade_decisions
		 WHERE coin = $1
		 ORDER BY decided_at DESC
		 LIMIT $2`,
		coin, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.TradeDecision
	for rows.Next() {
		var d domain.TradeDecision
		var side string
		if err := rows.Scan(
			&d.ID, &d.Coin, &side, &d.Quantity, &d.Price, &d.SignalScore,
			&d.Premium, &d.Multiplier, &d.Reason, &d.DecidedAt,
		); err != nil {
			return nil, err
		}
		d.Side = domain.TradeSide(side)
		d.DecidedAt = d.DecidedAt.UTC()
		out = append(out, d)
	}
	return out, rows.Err()
}
