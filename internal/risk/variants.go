package risk

import (
	"context"
	"encoding/json"
	"fmt"

	"whale-sentry/internal/domain"
	"whale-sentry/internal/ml/models/boost"
	"whale-sentry/internal/ml/models/linear"
	"whale-sentry/internal/ml/models/lstm"
)

// ArtifactSource supplies trained artifacts, keyed by variant name.
type ArtifactSource interface {
	GetActive(ctx context.Context, modelKey string) (*domain.ModelArtifact, error)
}

// variantModel is the closed set of loaded classifiers. Infer receives the
// feature vectors of the whole trailing window in date order, target row
// last; point models read only the last vector, the sequence model consumes
// all of them.
type variantModel interface {
	Variant() domain.ModelVariant
	FeatureNames() []string
	Infer(window [][]float64) float64
}

type linearVariant struct {
	variant domain.ModelVariant
	model   *linear.Model
}

func (v *linearVariant) Variant() domain.ModelVariant { return v.variant }
func (v *linearVariant) FeatureNames() []string       { return v.model.FeatureNames() }

func (v *linearVariant) Infer(window [][]float64) float64 {
	if len(window) == 0 {
		return 0.5
	}
	return v.model.PredictProb(window[len(window)-1])
}

type hybridVariant struct {
	model *boost.Model
}

func (v *hybridVariant) Variant() domain.ModelVariant { return domain.VariantHybrid }
func (v *hybridVariant) FeatureNames() []string       { return v.model.FeatureNames() }

func (v *hybridVariant) Infer(window [][]float64) float64 {
	if len(window) == 0 {
		return 0.5
	}
	return v.model.PredictProb(window[len(window)-1])
}

type lstmVariant struct {
	model *lstm.Model
}

func (v *lstmVariant) Variant() domain.ModelVariant { return domain.VariantLSTM }
func (v *lstmVariant) FeatureNames() []string       { return v.model.FeatureNames() }

// Infer runs the full window as a sequence and keeps the last output. The
// recurrent cell needs history, so a single row would be meaningless here.
func (v *lstmVariant) Infer(window [][]float64) float64 {
	probs := v.model.Predict(window)
	if len(probs) == 0 {
		return 0.5
	}
	return probs[len(probs)-1]
}

type artifactMetadata struct {
	FeatureImportance map[string]float64 `json:"feature_importance"`
}

// loadVariant resolves and loads one variant. "auto" prefers hybrid and
// falls back to legacy; when neither artifact exists the predictor cannot do
// anything useful, so this fails with ErrModelUnavailable.
func loadVariant(ctx context.Context, src ArtifactSource, variant domain.ModelVariant) (variantModel, map[string]float64, error) {
	if variant == domain.VariantAuto {
		model, importance, err := loadVariant(ctx, src, domain.VariantHybrid)
		if err == nil {
			return model, importance, nil
		}
		return loadVariant(ctx, src, domain.VariantLegacy)
	}

	artifact, err := src.GetActive(ctx, string(variant))
	if err != nil {
		return nil, nil, err
	}
	if artifact == nil {
		return nil, nil, fmt.Errorf("%w: variant %q", domain.ErrModelUnavailable, variant)
	}

	importance := parseImportance(artifact.MetadataJSON)

	switch variant {
	case domain.VariantLegacy, domain.VariantDynamic:
		model, err := linear.UnmarshalBinary(artifact.ArtifactBlob)
		if err != nil {
			return nil, nil, fmt.Errorf("decode %s artifact: %w", variant, err)
		}
		return &linearVariant{variant: variant, model: model}, importance, nil
	case domain.VariantHybrid:
		model, err := boost.UnmarshalBinary(artifact.ArtifactBlob)
		if err != nil {
			return nil, nil, fmt.Errorf("decode hybrid artifact: %w", err)
		}
		return &hybridVariant{model: model}, importance, nil
	case domain.VariantLSTM:
		model, err := lstm.UnmarshalBinary(artifact.ArtifactBlob)
		if err != nil {
			return nil, nil, fmt.Errorf("decode lstm artifact: %w", err)
		}
		return &lstmVariant{model: model}, importance, nil
	}
	return nil, nil, fmt.Errorf("unknown model variant %q", variant)
}

func parseImportance(metadataJSON string) map[string]float64 {
	if metadataJSON == "" {
		return nil
	}
	var meta artifactMetadata
	if err := json.Unmarshal([]byte(metadataJSON), &meta); err != nil {
		return nil
	}
	return meta.FeatureImportance
}
