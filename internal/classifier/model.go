// Package classifier applies a trained model to vectorized messages.
package classifier

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"gonum.org/v1/gonum/mat"
)

// ErrShapeMismatch is returned when a feature matrix does not have the
// number of columns a model was trained on.
var ErrShapeMismatch = errors.New("feature matrix shape does not match model")

// Model predicts one label per feature row
type Model interface {
	Predict(features mat.Matrix) ([]string, error)
}

// LinearModel scores every label as a weighted sum of the features plus a
// bias and predicts the best scoring label.
type LinearModel struct {
	labels  []string
	weights *mat.Dense // labels x features
	bias    []float64
}

// linearModelFile is the on-disk form of a LinearModel
type linearModelFile struct {
	Labels  []string    `json:"labels"`
	Weights [][]float64 `json:"weights"`
	Bias    []float64   `json:"bias"`
}

// NewLinearModel creates a linear model. weights has one row per label; bias
// may be nil.
func NewLinearModel(labels []string, weights *mat.Dense, bias []float64) (*LinearModel, error) {
	if len(labels) == 0 {
		return nil, fmt.Errorf("linear model needs at least one label")
	}
	rows, _ := weights.Dims()
	if rows != len(labels) {
		return nil, fmt.Errorf("linear model has %d labels but %d weight rows", len(labels), rows)
	}
	if bias == nil {
		bias = make([]float64, len(labels))
	}
	if len(bias) != len(labels) {
		return nil, fmt.Errorf("linear model has %d labels but %d bias terms", len(labels), len(bias))
	}

	return &LinearModel{
		labels:  append([]string(nil), labels...),
		weights: weights,
		bias:    append([]float64(nil), bias...),
	}, nil
}

// LoadLinearModel reads a linear model from a JSON file of the form
// {"labels": [...], "weights": [[...], ...], "bias": [...]}.
func LoadLinearModel(path string) (*LinearModel, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read model: %w", err)
	}

	var file linearModelFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to decode model: %w", err)
	}
	if len(file.Weights) == 0 || len(file.Weights[0]) == 0 {
		return nil, fmt.Errorf("model %s has no weights", path)
	}

	cols := len(file.Weights[0])
	flat := make([]float64, 0, len(file.Weights)*cols)
	for i, row := range file.Weights {
		if len(row) != cols {
			return nil, fmt.Errorf("model weight row %d has %d columns, want %d", i, len(row), cols)
		}
		flat = append(flat, row...)
	}

	return NewLinearModel(file.Labels, mat.NewDense(len(file.Weights), cols, flat), file.Bias)
}

// Save writes the model in the format read by LoadLinearModel
func (m *LinearModel) Save(path string) error {
	rows, _ := m.weights.Dims()
	file := linearModelFile{
		Labels:  m.labels,
		Weights: make([][]float64, rows),
		Bias:    m.bias,
	}
	for i := range file.Weights {
		file.Weights[i] = mat.Row(nil, i, m.weights)
	}

	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode model: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write model: %w", err)
	}
	return nil
}

// Labels returns the labels the model can predict
func (m *LinearModel) Labels() []string {
	return append([]string(nil), m.labels...)
}

// Features returns the number of feature columns the model expects
func (m *LinearModel) Features() int {
	_, cols := m.weights.Dims()
	return cols
}

// Predict returns the best scoring label for every row of features. Ties go
// to the label listed first.
func (m *LinearModel) Predict(features mat.Matrix) ([]string, error) {
	rows, cols := features.Dims()
	if cols != m.Features() {
		return nil, fmt.Errorf("%w: got %d columns, want %d", ErrShapeMismatch, cols, m.Features())
	}
	if rows == 0 {
		return []string{}, nil
	}

	scores := m.scores(features, rows)

	predictions := make([]string, rows)
	for i := range predictions {
		best := 0
		for j := 1; j < len(m.labels); j++ {
			if scores.At(i, j) > scores.At(i, best) {
				best = j
			}
		}
		predictions[i] = m.labels[best]
	}
	return predictions, nil
}

// scores computes features x weightsᵀ + bias as a rows x labels matrix
func (m *LinearModel) scores(features mat.Matrix, rows int) *mat.Dense {
	scores := mat.NewDense(rows, len(m.labels), nil)

	if sparse, ok := features.(mat.NonZeroDoer); ok {
		sparse.DoNonZero(func(i, j int, v float64) {
			for k := range m.labels {
				scores.Set(i, k, scores.At(i, k)+v*m.weights.At(k, j))
			}
		})
	} else {
		scores.Mul(features, m.weights.T())
	}

	for i := 0; i < rows; i++ {
		for k, b := range m.bias {
			scores.Set(i, k, scores.At(i, k)+b)
		}
	}
	return scores
}
