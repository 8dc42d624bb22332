// Package pipeline chains body extraction, word counting and vectorization
// behind a single fit/transform contract over batches of messages.
package pipeline

import (
	"fmt"

	"github.com/felo/eml-vectorizer/internal/mimetree"
	"github.com/felo/eml-vectorizer/internal/vectorizer"
	"github.com/felo/eml-vectorizer/internal/words"
)

// Pipeline turns messages into feature rows. The words stage is stateless;
// only the vectorizer stage learns anything.
type Pipeline struct {
	normalizer *words.Normalizer
	vectorizer *vectorizer.Vectorizer
}

// New creates an unfit pipeline
func New(normalizer *words.Normalizer, vocabularySize int) *Pipeline {
	return &Pipeline{
		normalizer: normalizer,
		vectorizer: vectorizer.New(vocabularySize),
	}
}

// Unfitted returns a new unfit pipeline with the same configuration
func (p *Pipeline) Unfitted() *Pipeline {
	return New(p.normalizer, p.vectorizer.Size())
}

// Restore installs a previously learned vocabulary
func (p *Pipeline) Restore(vocab *vectorizer.Vocabulary) error {
	v, err := vectorizer.FromVocabulary(p.vectorizer.Size(), vocab)
	if err != nil {
		return fmt.Errorf("failed to restore vocabulary: %w", err)
	}
	p.vectorizer = v
	return nil
}

// Vectorizer returns the vectorizer stage
func (p *Pipeline) Vectorizer() *vectorizer.Vectorizer {
	return p.vectorizer
}

// Words counts the words of every message
func (p *Pipeline) Words(msgs []mimetree.Node) []*words.Counts {
	corpus := make([]*words.Counts, len(msgs))
	for i, msg := range msgs {
		corpus[i] = p.MessageWords(msg)
	}
	return corpus
}

// MessageWords counts the words of one message body, prefixed by its
// subject unless headers are stripped.
func (p *Pipeline) MessageWords(msg mimetree.Node) *words.Counts {
	body, ok := mimetree.Body(msg)
	if !p.normalizer.Options().StripHeaders {
		if subject := mimetree.Subject(msg); subject != "" {
			body, ok = subject+"\n"+body, true
		}
	}
	return p.normalizer.Normalize(body, ok)
}

// Fit learns the vocabulary from msgs. labels are accepted for symmetry with
// a downstream trainer and ignored.
func (p *Pipeline) Fit(msgs []mimetree.Node, labels []string) *vectorizer.Vocabulary {
	return p.vectorizer.Fit(p.Words(msgs))
}

// Transform maps msgs to a (len(msgs), size+1) feature matrix
func (p *Pipeline) Transform(msgs []mimetree.Node) (*vectorizer.Matrix, error) {
	return p.vectorizer.Transform(p.Words(msgs))
}

// FitTransform fits on msgs and transforms them, counting words only once
func (p *Pipeline) FitTransform(msgs []mimetree.Node, labels []string) (*vectorizer.Matrix, error) {
	return p.vectorizer.FitTransform(p.Words(msgs))
}
