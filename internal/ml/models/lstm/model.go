package lstm

import (
	"encoding/json"
	"errors"
	"math"
)

// Artifact is the serialized form of a single-layer LSTM classifier with a
// sigmoid output head. Gate weight matrices are stored row-major,
// hidden x input for W* and hidden x hidden for U*.
type Artifact struct {
	FeatureNames []string `json:"feature_names"`
	InputSize    int      `json:"input_size"`
	HiddenSize   int      `json:"hidden_size"`

	WInput  [][]float64 `json:"w_input"`
	WForget [][]float64 `json:"w_forget"`
	WOutput [][]float64 `json:"w_output"`
	WCell   [][]float64 `json:"w_cell"`

	UInput  [][]float64 `json:"u_input"`
	UForget [][]float64 `json:"u_forget"`
	UOutput [][]float64 `json:"u_output"`
	UCell   [][]float64 `json:"u_cell"`

	BInput  []float64 `json:"b_input"`
	BForget []float64 `json:"b_forget"`
	BOutput []float64 `json:"b_output"`
	BCell   []float64 `json:"b_cell"`

	DenseWeights []float64 `json:"dense_weights"`
	DenseBias    float64   `json:"dense_bias"`
}

type Model struct {
	artifact Artifact
}

// Predict runs the whole sequence through the recurrent cell and returns one
// probability per step. The network needs the full sequence; callers wanting
// a point-in-time value take the last element.
func (m *Model) Predict(sequence [][]float64) []float64 {
	if m == nil || len(sequence) == 0 {
		return nil
	}
	a := &m.artifact
	h := make([]float64, a.HiddenSize)
	c := make([]float64, a.HiddenSize)
	out := make([]float64, len(sequence))

	for t, x := range sequence {
		if len(x) != a.InputSize {
			out[t] = 0.5
			continue
		}
		nh := make([]float64, a.HiddenSize)
		nc := make([]float64, a.HiddenSize)
		for j := 0; j < a.HiddenSize; j++ {
			i := sigmoid(gate(a.WInput[j], x) + gate(a.UInput[j], h) + a.BInput[j])
			f := sigmoid(gate(a.WForget[j], x) + gate(a.UForget[j], h) + a.BForget[j])
			o := sigmoid(gate(a.WOutput[j], x) + gate(a.UOutput[j], h) + a.BOutput[j])
			g := math.Tanh(gate(a.WCell[j], x) + gate(a.UCell[j], h) + a.BCell[j])
			nc[j] = f*c[j] + i*g
			nh[j] = o * math.Tanh(nc[j])
		}
		h, c = nh, nc
		out[t] = sigmoid(gate(a.DenseWeights, h) + a.DenseBias)
	}
	return out
}

func (m *Model) MarshalBinary() ([]byte, error) {
	if m == nil {
		return nil, errors.New("nil model")
	}
	return json.Marshal(m.artifact)
}

func UnmarshalBinary(data []byte) (*Model, error) {
	if len(data) == 0 {
		return nil, errors.New("empty artifact")
	}
	var a Artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, err
	}
	if a.HiddenSize <= 0 || a.InputSize <= 0 {
		return nil, errors.New("invalid artifact dimensions")
	}
	if err := validateShapes(&a); err != nil {
		return nil, err
	}
	return &Model{artifact: a}, nil
}

// validateShapes checks every gate matrix and bias vector against the declared
// dimensions. Predict indexes these without further checks, so an artifact
// with a missing gate must be rejected here, not at inference time.
func validateShapes(a *Artifact) error {
	for name, w := range map[string][][]float64{
		"w_input": a.WInput, "w_forget": a.WForget, "w_output": a.WOutput, "w_cell": a.WCell,
	} {
		if err := checkMatrix(name, w, a.HiddenSize, a.InputSize); err != nil {
			return err
		}
	}
	for name, u := range map[string][][]float64{
		"u_input": a.UInput, "u_forget": a.UForget, "u_output": a.UOutput, "u_cell": a.UCell,
	} {
		if err := checkMatrix(name, u, a.HiddenSize, a.HiddenSize); err != nil {
			return err
		}
	}
	for name, b := range map[string][]float64{
		"b_input": a.BInput, "b_forget": a.BForget, "b_output": a.BOutput, "b_cell": a.BCell,
		"dense_weights": a.DenseWeights,
	} {
		if len(b) != a.HiddenSize {
			return errors.New("invalid artifact shape: " + name)
		}
	}
	return nil
}

func checkMatrix(name string, m [][]float64, rows, cols int) error {
	if len(m) != rows {
		return errors.New("invalid artifact shape: " + name)
	}
	for _, row := range m {
		if len(row) != cols {
			return errors.New("invalid artifact shape: " + name)
		}
	}
	return nil
}

// FromArtifact builds a model directly, used by tests and bootstrap tooling.
func FromArtifact(a Artifact) *Model {
	return &Model{artifact: a}
}

func (m *Model) FeatureNames() []string {
	if m == nil {
		return nil
	}
	out := make([]string, len(m.artifact.FeatureNames))
	copy(out, m.artifact.FeatureNames)
	return out
}

func gate(weights, values []float64) float64 {
	if len(weights) != len(values) {
		return 0
	}
	s := 0.0
	for i := range weights {
		s += weights[i] * values[i]
	}
	return s
}

func sigmoid(x float64) float64 {
	if x > 35 {
		return 1
	}
	if x < -35 {
		return 0
	}
	return 1 / (1 + math.Exp(-x))
}
