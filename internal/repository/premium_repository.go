package repository

import (
	"context"
	"errors"
	"time"

	"whale-sentry/internal/domain"

	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel/trace"
)

type PremiumRepository struct {
	pool   PgxPool
	tracer trace.Tracer
}

func NewPremiumRepository(pool PgxPool, tracer trace.Tracer) *PremiumRepository {
	return &PremiumRepository{pool: pool, tracer: tracer}
}

func (r *PremiumRepository) InsertSnapshot(ctx context.Context, s domain.PremiumSnapshot) error {
	_, span := r.tracer.Start(ctx, "premium-repo.insert-snapshot")
	defer span.End()

	_, err := r.pool.Exec(ctx,
		`INSERT INTO premium_snapshots (coin, domestic_price, global_price, premium, captured_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		s.Coin, s.DomesticPrice, s.GlobalPrice, s.Premium, s.CapturedAt.UTC(),
	)
	return err
}

// LatestSnapshot returns the most recent premium observation for the coin,
// or (nil, nil) when none has been captured yet.
func (r *PremiumRepository) LatestSnapshot(ctx context.Context, coin string) (*domain.PremiumSnapshot, error) {
	_, span := r.tracer.Start(ctx, "premium-repo.latest-snapshot")
	defer span.End()

	var s domain.PremiumSnapshot
	err := r.pool.QueryRow(ctx,
		`SELECT coin, domestic_price, global_price, premium, captured_at
		 FROM premium_snapshots
		 WHERE coin = $1
		 ORDER BY captured_at DESC
		 LIMIT 1`,
		coin,
	).Scan(&s.Coin, &s.DomesticPrice, &s.GlobalPrice, &s.Premium, &s.CapturedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	s.CapturedAt = s.CapturedAt.UTC()
	return &s, nil
}

// SnapshotsSince returns premium observations captured at or after the cutoff,
// oldest first.
func (r *PremiumRepository) SnapshotsSince(ctx context.Context, coin string, since time.Time) ([]domain.PremiumSnapshot, error) {
	_, span := r.tracer.Start(ctx, "premium-repo.snapshots-since")
	defer span.End()

	rows, err := r.pool.Query(ctx,
		`SELECT coin, domestic_price, global_price, premium, captured_at
		 FROM premium_snapshots
		 WHERE coin = $1 AND captured_at >= $2
		 ORDER BY captured_at ASC`,
		coin, since.UTC(),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.PremiumSnapshot
	for rows.Next() {
		var s domain.PremiumSnapshot
		if err := rows.Scan(&s.Coin, &s.DomesticPrice, &s.GlobalPrice, &s.Premium, &s.CapturedAt); err != nil {
			return nil, err
		}
		s.CapturedAt = s.CapturedAt.UTC()
		out = append(out, s)
	}
	return out, rows.Err()
}
