package repository

import (
	"context"
	"encoding/json"
	"time"

	"whale-sentry/internal/domain"

	"go.opentelemetry.io/otel/trace"
)

// PredictionRepository persists risk scoring outcomes so historical scores
// can be replayed without re-running the model.
type PredictionRepository struct {
	pool   PgxPool
	tracer trace.Tracer
}

func NewPredictionRepository(pool PgxPool, tracer trace.Tracer) *PredictionRepository {
	return &PredictionRepository{pool: pool, tracer: tracer}
}

func (r *PredictionRepository) UpsertResult(ctx context.Context, res domain.RiskResult) error {
	_, span := r.tracer.Start(ctx, "prediction-repo.upsert-result")
	defer span.End()

	indicators, err := json.Marshal(res.Indicators)
	if err != nil {
		return err
	}

	_, err = r.pool.Exec(ctx,
		`INSERT INTO risk_predictions (
		     coin, date, high_volatility_prob, risk_score, liquidation_risk,
		     indicators, model_variant
		 ) VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (coin, date, model_variant) DO UPDATE SET
		     high_volatility_prob = EXCLUDED.high_volatility_prob,
		     risk_score = EXCLUDED.risk_score,
		     liquidation_risk = EXCLUDED.liquidation_risk,
		     indicators = EXCLUDED.indicators`,
		res.Coin, res.Date.UTC(), res.HighVolatilityProb, res.RiskScore, res.LiquidationRisk,
		indicators, string(res.ModelVariant),
	)
	return err
}

func (r *PredictionRepository) ListResults(ctx context.Context, coin string, from, to time.Time) ([]domain.RiskResult, error) {
	_, span := r.tracer.Start(ctx, "prediction-repo.list-results")
	defer span.End()

	rows, err := r.pool.Query(ctx,
		`SELECT coin, date, high_volatility_prob, risk_score, liquidation_risk,
		        indicators, model_variant
		 FROM risk_predictions
		 WHERE coin = $1 AND date >= $2 AND date <= $3
		 ORDER BY date ASC`,
		coin, from.UTC(), to.UTC(),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.RiskResult
	for rows.Next() {
		var res domain.RiskResult
		var indicators []byte
		var variant string
		if err := rows.Scan(
			&res.Coin, &res.Date, &res.HighVolatilityProb, &res.RiskScore, &res.LiquidationRisk,
			&indicators, &variant,
		); err != nil {
			return nil, err
		}
		if len(indicators) > 0 {
			if err := json.Unmarshal(indicators, &res.Indicators); err != nil {
				return nil, err
			}
		}
		res.ModelVariant = domain.ModelVariant(variant)
		out = append(out, res)
	}
	return out, rows.Err()
}
