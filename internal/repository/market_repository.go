package repository

import (
	"context"
	"time"

	"whale-sentry/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel/trace"
)

const createMarketTables = `
CREATE TABLE IF NOT EXISTS market_rows (
    coin                      TEXT        NOT NULL,
    date                      DATE        NOT NULL,
    avg_funding_rate          DOUBLE PRECISION NOT NULL DEFAULT 0,
    sum_open_interest         DOUBLE PRECISION NOT NULL DEFAULT 0,
    long_short_ratio          DOUBLE PRECISION NOT NULL DEFAULT 1,
    volatility_24h            DOUBLE PRECISION NOT NULL DEFAULT 0,
    top100_richest_pct        DOUBLE PRECISION NOT NULL DEFAULT 0,
    avg_transaction_value_btc DOUBLE PRECISION NOT NULL DEFAULT 0,
    net_flow_usd              DOUBLE PRECISION NOT NULL DEFAULT 0,
    has_whale_data            BOOLEAN     NOT NULL DEFAULT FALSE,
    PRIMARY KEY (coin, date)
);

CREATE TABLE IF NOT EXISTS market_rows_weekly (
    coin               TEXT        NOT NULL,
    week_start         DATE        NOT NULL,
    close_price        DOUBLE PRECISION NOT NULL DEFAULT 0,
    high_price         DOUBLE PRECISION NOT NULL DEFAULT 0,
    low_price          DOUBLE PRECISION NOT NULL DEFAULT 0,
    volatility         DOUBLE PRECISION NOT NULL DEFAULT 0,
    top100_richest_pct DOUBLE PRECISION NOT NULL DEFAULT 0,
    sum_open_interest  DOUBLE PRECISION NOT NULL DEFAULT 0,
    avg_funding_rate   DOUBLE PRECISION NOT NULL DEFAULT 0,
    has_whale_data     BOOLEAN     NOT NULL DEFAULT FALSE,
    has_leverage_data  BOOLEAN     NOT NULL DEFAULT FALSE,
    PRIMARY KEY (coin, week_start)
);

CREATE INDEX IF NOT EXISTS idx_market_rows_coin_date
    ON market_rows (coin, date DESC);
`

type PgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// MarketRepository is the queryable data source behind the risk predictor.
type MarketRepository struct {
	pool   PgxPool
	tracer trace.Tracer
}

func NewMarketRepository(pool PgxPool, tracer trace.Tracer) *MarketRepository {
	return &MarketRepository{pool: pool, tracer: tracer}
}

func (r *MarketRepository) RunMigrations(ctx context.Context) error {
	_, span := r.tracer.Start(ctx, "market-repo.run-migrations")
	defer span.End()

	_, err := r.pool.Exec(ctx, createMarketTables)
	return err
}

func (r *MarketRepository) UpsertRows(ctx context.Context, rows []domain.MarketRow) error {
	if len(rows) == 0 {
		return nil
	}

	_, span := r.tracer.Start(ctx, "market-repo.upsert-rows")
	defer span.End()

	batch := &pgx.Batch{}
	for i := range rows {
		row := rows[i]
		batch.Queue(
			`INSERT INTO market_rows (
			     coin, date, avg_funding_rate, sum_open_interest, long_short_ratio,
			     volatility_24h, top100_richest_pct, avg_transaction_value_btc,
			     net_flow_usd, has_whale_data
			 ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			 ON CONFLICT (coin, date) DO UPDATE SET
			     avg_funding_rate = EXCLUDED.avg_funding_rate,
			     sum_open_interest = EXCLUDED.sum_open_interest,
			     long_short_ratio = EXCLUDED.long_short_ratio,
			     volatility_24h = EXCLUDED.volatility_24h,
			     top100_richest_pct = EXCLUDED.top100_richest_pct,
			     avg_transaction_value_btc = EXCLUDED.avg_transaction_value_btc,
			     net_flow_usd = EXCLUDED.net_flow_usd,
			     has_whale_data = EXCLUDED.has_whale_data`,
			row.Coin, row.Date.UTC(), row.AvgFundingRate, row.SumOpenInterest, row.LongShortRatio,
			row.Volatility24h, row.Top100RichestPct, row.AvgTransactionBTC,
			row.NetFlowUSD, row.HasWhaleData,
		)
	}

	br := r.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range rows {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// LoadRiskData returns daily rows for the coin in [from, to], ascending by
// date. Gaps are allowed; callers handle them.
func (r *MarketRepository) LoadRiskData(ctx context.Context, coin string, from, to time.Time) ([]domain.MarketRow, error) {
	_, span := r.tracer.Start(ctx, "market-repo.load-risk-data")
	defer span.End()

	rows, err := r.pool.Query(ctx,
		`SELECT coin, date, avg_funding_rate, sum_open_interest, long_short_ratio,
		        volatility_24h, top100_richest_pct, avg_transaction_value_btc,
		        net_flow_usd, has_whale_data
		 FROM market_rows
		 WHERE coin = $1 AND date >= $2 AND date <= $3
		 ORDER BY date ASC`,
		coin, from.UTC(), to.UTC(),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.MarketRow
	for rows.Next() {
		var m domain.MarketRow
		if err := rows.Scan(
			&m.Coin, &m.Date, &m.AvgFundingRate, &m.SumOpenInterest, &m.LongShortRatio,
			&m.Volatility24h, &m.Top100RichestPct, &m.AvgTransactionBTC,
			&m.NetFlowUSD, &m.HasWhaleData,
		); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *MarketRepository) UpsertWeeklyRows(ctx context.Context, rows []domain.WeeklyMarketRow) error {
	if len(rows) == 0 {
		return nil
	}

	_, span := r.tracer.Start(ctx, "market-repo.upsert-weekly-rows")
	defer span.End()

	batch := &pgx.Batch{}
	for i := range rows {
		row := rows[i]
		batch.Queue(
			`INSERT INTO market_rows_weekly (
			     coin, week_start, close_price, high_price, low_price, volatility,
			     top100_richest_pct, sum_open_interest, avg_funding_rate,
			     has_whale_data, has_leverage_data
			 ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
			 ON CONFLICT (coin, week_start) DO UPDATE SET
			     close_price = EXCLUDED.close_price,
			     high_price = EXCLUDED.high_price,
			     low_price = EXCLUDED.low_price,
			     volatility = EXCLUDED.volatility,
			     top100_richest_pct = EXCLUDED.top100_richest_pct,
			     sum_open_interest = EXCLUDED.sum_open_interest,
			     avg_funding_rate = EXCLUDED.avg_funding_rate,
			     has_whale_data = EXCLUDED.has_whale_data,
			     has_leverage_data = EXCLUDED.has_leverage_data`,
			row.Coin, row.WeekStart.UTC(), row.ClosePrice, row.HighPrice, row.LowPrice, row.Volatility,
			row.Top100RichestPct, row.SumOpenInterest, row.AvgFundingRate,
			row.HasWhaleData, row.HasLeverageData,
		)
	}

	br := r.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range rows {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

func (r *MarketRepository) LoadRiskDataWeekly(ctx context.Context, coin string, from, to time.Time) ([]domain.WeeklyMarketRow, error) {
	_, span := r.tracer.Start(ctx, "market-repo.load-risk-data-weekly")
	defer span.End()

	rows, err := r.pool.Query(ctx,
		`SELECT coin, week_start, close_price, high_price, low_price, volatility,
		        top100_richest_pct, sum_open_interest, avg_funding_rate,
		        has_whale_data, has_leverage_data
		 FROM market_rows_weekly
		 WHERE coin = $1 AND week_start >= $2 AND week_start <= $3
		 ORDER BY week_start ASC`,
		coin, from.UTC(), to.UTC(),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.WeeklyMarketRow
	for rows.Next() {
		var m domain.WeeklyMarketRow
		if err := rows.Scan(
			&m.Coin, &m.WeekStart, &m.ClosePrice, &m.HighPrice, &m.LowPrice, &m.Volatility,
			&m.Top100RichestPct, &m.SumOpenInterest, &m.AvgFundingRate,
			&m.HasWhaleData, &m.HasLeverageData,
		); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
