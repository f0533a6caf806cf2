package repository

import (
	"context"

	"whale-sentry/internal/domain"

	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel/trace"
)

type WhaleRepository struct {
	pool   PgxPool
	tracer trace.Tracer
}

func NewWhaleRepository(pool PgxPool, tracer trace.Tracer) *WhaleRepository {
	return &WhaleRepository{pool: pool, tracer: tracer}
}

func (r *WhaleRepository) InsertTransfers(ctx context.Context, transfers []domain.WhaleTransfer) error {
	if len(transfers) == 0 {
		return nil
	}

	_, span := r.tracer.Start(ctx, "whale-repo.insert-transfers")
	defer span.End()

	batch := &pgx.Batch{}
	for i := range transfers {
		t := transfers[i]
		batch.Queue(
			`INSERT INTO whale_transfers (coin, amount, amount_usd, to_exchange, captured_at)
			 VALUES ($1, $2, $3, $4, $5)`,
			t.Coin, t.Amount, t.AmountUSD, t.ToExchange, t.CapturedAt.UTC(),
		)
	}

	br := r.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range transfers {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// RecentTransfers returns the newest transfers for the coin, newest first.
func (r *WhaleRepository) RecentTransfers(ctx context.Context, coin string, limit int) ([]domain.WhaleTransfer, error) {
	_, span := r.tracer.Start(ctx, "whale-repo.recent-transfers")
	defer span.End()

	rows, err := r.pool.Query(ctx,
		`SELECT id, coin, amount, amount_usd, to_exchange, captured_at
		 FROM whale_transfers
		 WHERE coin = $1
		 ORDER BY captured_at DESC
		 LIMIT $2`,
		coin, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.WhaleTransfer
	for rows.Next() {
		var t domain.WhaleTransfer
		if err := rows.Scan(&t.ID, &t.Coin, &t.Amount, &t.AmountUSD, &t.ToExchange, &t.CapturedAt); err != nil {
			return nil, err
		}
		t.CapturedAt = t.CapturedAt.UTC()
		out = append(out, t)
	}
	return out, rows.Err()
}
