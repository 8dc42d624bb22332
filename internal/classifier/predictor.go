package classifier

import (
	"fmt"

	"github.com/felo/eml-vectorizer/internal/mimetree"
	"github.com/felo/eml-vectorizer/internal/pipeline"
)

// Predictor vectorizes messages and hands them to a model
type Predictor struct {
	pipeline *pipeline.Pipeline
	model    Model
	refit    bool
}

// NewPredictor creates a predictor that transforms messages with the
// vocabulary the pipeline was fitted on. The pipeline must be fitted.
func NewPredictor(p *pipeline.Pipeline, model Model) (*Predictor, error) {
	if _, err := p.Vectorizer().Vocabulary(); err != nil {
		return nil, fmt.Errorf("failed to create predictor: %w", err)
	}
	return &Predictor{pipeline: p, model: model}, nil
}

// NewRefittingPredictor creates a predictor that fits a fresh copy of the
// pipeline on every single message before transforming it. The resulting
// vocabulary only knows that message's words, so slot meanings differ from
// training; it exists for compatibility with models trained that way.
func NewRefittingPredictor(p *pipeline.Pipeline, model Model) *Predictor {
	return &Predictor{pipeline: p, model: model, refit: true}
}

// Predict returns the label predicted for msg
func (p *Predictor) Predict(msg mimetree.Node) (string, error) {
	labels, err := p.PredictBatch([]mimetree.Node{msg})
	if err != nil {
		return "", err
	}
	return labels[0], nil
}

// PredictBatch returns one label per message, in order
func (p *Predictor) PredictBatch(msgs []mimetree.Node) ([]string, error) {
	if p.refit {
		labels := make([]string, 0, len(msgs))
		for _, msg := range msgs {
			features, err := p.pipeline.Unfitted().FitTransform([]mimetree.Node{msg}, nil)
			if err != nil {
				return nil, fmt.Errorf("failed to vectorize message: %w", err)
			}
			predicted, err := p.model.Predict(features)
			if err != nil {
				return nil, fmt.Errorf("failed to predict: %w", err)
			}
			labels = append(labels, predicted...)
		}
		return checkLabels(labels, len(msgs))
	}

	features, err := p.pipeline.Transform(msgs)
	if err != nil {
		return nil, fmt.Errorf("failed to vectorize messages: %w", err)
	}
	labels, err := p.model.Predict(features)
	if err != nil {
		return nil, fmt.Errorf("failed to predict: %w", err)
	}
	return checkLabels(labels, len(msgs))
}

func checkLabels(labels []string, want int) ([]string, error) {
	if len(labels) != want {
		return nil, fmt.Errorf("model returned %d labels for %d messages", len(labels), want)
	}
	return labels, nil
}
