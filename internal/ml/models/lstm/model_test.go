package lstm

import (
	"encoding/json"
	"math"
	"testing"
)

func TestPredictProducesOneProbPerStep(t *testing.T) {
	m := FromArtifact(tinyArtifact())

	seq := [][]float64{{0.1, 0.2}, {0.3, 0.4}, {0.5, 0.6}}
	probs := m.Predict(seq)
	if len(probs) != len(seq) {
		t.Fatalf("expected %d outputs, got %d", len(seq), len(probs))
	}
	for i, p := range probs {
		if p < 0 || p > 1 {
			t.Fatalf("output %d out of range: %v", i, p)
		}
	}
}

func TestPredictDeterministic(t *testing.T) {
	m := FromArtifact(tinyArtifact())
	seq := [][]float64{{0.1, 0.2}, {0.3, 0.4}}

	a := m.Predict(seq)
	b := m.Predict(seq)
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("output %d differs between runs", i)
		}
	}
}

func TestPredictStateCarriesAcrossSteps(t *testing.T) {
	m := FromArtifact(tinyArtifact())

	// The same input at a later step should score differently once the cell
	// has accumulated state.
	same := [][]float64{{0.5, 0.5}, {0.5, 0.5}}
	probs := m.Predict(same)
	if math.Abs(probs[0]-probs[1]) < 1e-12 {
		t.Fatalf("expected recurrent state to shift output, got %v and %v", probs[0], probs[1])
	}
}

func TestPredictBadStepFallsBackToNeutral(t *testing.T) {
	m := FromArtifact(tinyArtifact())

	probs := m.Predict([][]float64{{0.1, 0.2}, {0.1}})
	if probs[1] != 0.5 {
		t.Fatalf("expected neutral 0.5 for malformed step, got %v", probs[1])
	}
}

func TestUnmarshalValidatesShapes(t *testing.T) {
	m := FromArtifact(tinyArtifact())
	blob, err := m.MarshalBinary()
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	restored, err := UnmarshalBinary(blob)
	if err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}

	seq := [][]float64{{0.2, 0.8}}
	if a, b := m.Predict(seq)[0], restored.Predict(seq)[0]; a != b {
		t.Fatalf("restored model disagrees: %v vs %v", a, b)
	}

	if _, err := UnmarshalBinary([]byte(`{"input_size":2,"hidden_size":3}`)); err == nil {
		t.Fatal("expected shape validation error")
	}
	if _, err := UnmarshalBinary(nil); err == nil {
		t.Fatal("expected error for empty blob")
	}
}

func TestUnmarshalRejectsMissingGates(t *testing.T) {
	// Every gate matrix and bias vector must be present; dropping any one of
	// them would make Predict index a nil slice.
	mutations := []func(*Artifact){
		func(a *Artifact) { a.WForget = nil },
		func(a *Artifact) { a.WOutput = nil },
		func(a *Artifact) { a.WCell = nil },
		func(a *Artifact) { a.UForget = nil },
		func(a *Artifact) { a.UOutput = nil },
		func(a *Artifact) { a.UCell = nil },
		func(a *Artifact) { a.BForget = nil },
		func(a *Artifact) { a.BOutput = nil },
		func(a *Artifact) { a.BCell = nil },
		func(a *Artifact) { a.WInput = [][]float64{{0.5}, {0.1}} }, // wrong row width
		func(a *Artifact) { a.UCell = [][]float64{{0.1, 0.1}} },    // wrong row count
	}
	for i, mutate := range mutations {
		a := tinyArtifact()
		mutate(&a)
		blob, err := json.Marshal(a)
		if err != nil {
			t.Fatalf("mutation %d: marshal failed: %v", i, err)
		}
		if _, err := UnmarshalBinary(blob); err == nil {
			t.Fatalf("mutation %d: expected shape validation error", i)
		}
	}
}

func tinyArtifact() Artifact {
	return Artifact{
		FeatureNames: []string{"a", "b"},
		InputSize:    2,
		HiddenSize:   2,
		WInput:       [][]float64{{0.5, -0.2}, {0.1, 0.3}},
		WForget:      [][]float64{{0.2, 0.2}, {-0.1, 0.4}},
		WOutput:      [][]float64{{0.3, 0.1}, {0.2, -0.3}},
		WCell:        [][]float64{{0.4, 0.4}, {-0.2, 0.1}},
		UInput:       [][]float64{{0.1, 0.0}, {0.0, 0.1}},
		UForget:      [][]float64{{0.2, 0.1}, {0.1, 0.2}},
		UOutput:      [][]float64{{0.0, 0.1}, {0.1, 0.0}},
		UCell:        [][]float64{{0.1, 0.1}, {0.2, 0.0}},
		BInput:       []float64{0.01, -0.01},
		BForget:      []float64{0.5, 0.5},
		BOutput:      []float64{0.0, 0.0},
		BCell:        []float64{0.0, 0.0},
		DenseWeights: []float64{0.8, -0.6},
		DenseBias:    0.05,
	}
}
