package registry

import (
	"context"
	"errors"
	"time"

	"whale-sentry/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel/trace"
)

type pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Repository stores trained model artifacts keyed by variant name.
type Repository struct {
	pool   pool
	tracer trace.Tracer
}

func NewRepository(pool pool, tracer trace.Tracer) *Repository {
	return &Repository{pool: pool, tracer: tracer}
}

func (r *Repository) NextVersion(ctx context.Context, modelKey string) (int, error) {
	_, span := r.tracer.Start(ctx, "model-registry.next-version")
	defer span.End()

	var version int
	err := r.pool.QueryRow(ctx, `SELECT COALESCE(MAX(version), 0) + 1 FROM model_artifacts WHERE model_key = $1`, modelKey).Scan(&version)
	return version, err
}

func (r *Repository) InsertArtifact(ctx context.Context, artifact domain.ModelArtifact) (*domain.ModelArtifact, error) {
	_, span := r.tracer.Start(ctx, "model-registry.insert")
	defer span.End()

	if artifact.ModelKey == "" || artifact.Version <= 0 {
		return nil, errors.New("invalid artifact payload")
	}
	var out domain.ModelArtifact
	err := r.pool.QueryRow(ctx, `
INSERT INTO model_artifacts (
    model_key, version, artifact_blob, metadata_json, is_active, trained_at
) VALUES (
    $1, $2, $3, $4, $5, COALESCE($6, NOW())
)
RETURNING id, model_key, version, artifact_blob, metadata_json, is_active, trained_at, created_at`,
		artifact.ModelKey,
		artifact.Version,
		artifact.ArtifactBlob,
		fallbackJSON(artifact.MetadataJSON),
		artifact.IsActive,
		nullIfZeroTime(artifact.TrainedAt),
	).Scan(
		&out.ID,
		&out.ModelKey,
		&out.Version,
		&out.ArtifactBlob,
		&out.MetadataJSON,
		&out.IsActive,
		&out.TrainedAt,
		&out.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	normalizeTimes(&out)
	return &out, nil
}

// GetActive returns the newest active artifact for a variant, or nil when
// none exists.
func (r *Repository) GetActive(ctx context.Context, modelKey string) (*domain.ModelArtifact, error) {
	_, span := r.tracer.Start(ctx, "model-registry.get-active")
	defer span.End()

	var out domain.ModelArtifact
	err := r.pool.QueryRow(ctx, `
SELECT id, model_key, version, artifact_blob, metadata_json, is_active, trained_at, created_at
FROM model_artifacts
WHERE model_key = $1 AND is_active = TRUE
ORDER BY version DESC
LIMIT 1`, modelKey).Scan(
		&out.ID,
		&out.ModelKey,
		&out.Version,
		&out.ArtifactBlob,
		&out.MetadataJSON,
		&out.IsActive,
		&out.TrainedAt,
		&out.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	normalizeTimes(&out)
	return &out, nil
}

func (r *Repository) ActivateArtifact(ctx context.Context, modelKey string, version int) error {
	_, span := r.tracer.Start(ctx, "model-registry.activate")
	defer span.End()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `UPDATE model_artifacts SET is_active = FALSE WHERE model_key = $1`, modelKey); err != nil {
		return err
	}
	tag, err := tx.Exec(ctx, `UPDATE model_artifacts SET is_active = TRUE WHERE model_key = $1 AND version = $2`, modelKey, version)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return tx.Commit(ctx)
}

func normalizeTimes(artifact *domain.ModelArtifact) {
	artifact.TrainedAt = artifact.TrainedAt.UTC()
	artifact.CreatedAt = artifact.CreatedAt.UTC()
}

func fallbackJSON(v string) string {
	if v == "" {
		return "{}"
	}
	return v
}

func nullIfZeroTime(v time.Time) any {
	if v.IsZero() {
		return nil
	}
	return v.UTC()
}
