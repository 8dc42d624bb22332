// Package vectorizer learns a bounded vocabulary from word counts and maps
// word counts onto fixed-width sparse feature vectors.
package vectorizer

import (
	"errors"
	"fmt"
	"sort"

	"github.com/felo/eml-vectorizer/internal/words"
)

// DefaultVocabularySize is used when a non-positive size is requested
const DefaultVocabularySize = 1000

// MaxCountPerMessage caps how much a single message adds to a token's score
// while fitting.
const MaxCountPerMessage = 10

// ErrUnfitVectorizer is returned by Transform before Fit
var ErrUnfitVectorizer = errors.New("unfit vectorizer: call Fit before Transform")

// Vocabulary assigns tokens to columns 1..Len(). Column 0 collects every
// token outside the vocabulary.
type Vocabulary struct {
	tokens []string
	slots  map[string]int
}

// NewVocabulary builds a vocabulary whose i-th token gets slot i+1.
// Duplicate tokens keep their first slot.
func NewVocabulary(tokens []string) *Vocabulary {
	v := &Vocabulary{
		tokens: make([]string, 0, len(tokens)),
		slots:  make(map[string]int, len(tokens)),
	}
	for _, token := range tokens {
		if _, ok := v.slots[token]; ok {
			continue
		}
		v.tokens = append(v.tokens, token)
		v.slots[token] = len(v.tokens)
	}
	return v
}

// Slot returns the column of token, or 0 if it is not in the vocabulary
func (v *Vocabulary) Slot(token string) int {
	return v.slots[token]
}

// Len returns the number of tokens
func (v *Vocabulary) Len() int {
	return len(v.tokens)
}

// Tokens returns the tokens in slot order
func (v *Vocabulary) Tokens() []string {
	tokens := make([]string, len(v.tokens))
	copy(tokens, v.tokens)
	return tokens
}

// Vectorizer turns word counts into rows of a (batch, size+1) matrix.
//
// Fit must not run concurrently with any other method. After Fit returns the
// vocabulary is never modified, so Transform may be called concurrently.
type Vectorizer struct {
	size  int
	vocab *Vocabulary
}

// New creates an unfit vectorizer keeping at most size tokens
func New(size int) *Vectorizer {
	if size <= 0 {
		size = DefaultVocabularySize
	}
	return &Vectorizer{size: size}
}

// FromVocabulary creates a fitted vectorizer from a previously learned vocabulary
func FromVocabulary(size int, vocab *Vocabulary) (*Vectorizer, error) {
	v := New(size)
	if vocab == nil {
		return nil, fmt.Errorf("vocabulary is nil")
	}
	if vocab.Len() > v.size {
		return nil, fmt.Errorf("vocabulary has %d tokens, more than the size %d", vocab.Len(), v.size)
	}
	v.vocab = vocab
	return v, nil
}

// Size returns the maximum vocabulary size; rows have Size()+1 columns
func (v *Vectorizer) Size() int {
	return v.size
}

// Vocabulary returns the fitted vocabulary
func (v *Vectorizer) Vocabulary() (*Vocabulary, error) {
	if v.vocab == nil {
		return nil, ErrUnfitVectorizer
	}
	return v.vocab, nil
}

// Fitted reports whether Fit has been called
func (v *Vectorizer) Fitted() bool {
	return v.vocab != nil
}

// Fit ranks tokens by their corpus frequency, each message contributing at
// most MaxCountPerMessage per token, and keeps the top Size() tokens. Ties
// keep the order in which tokens first appear in the corpus.
func (v *Vectorizer) Fit(corpus []*words.Counts) *Vocabulary {
	totals := words.NewCounts()
	for _, counts := range corpus {
		counts.Each(func(token string, count int) {
			totals.Add(token, min(count, MaxCountPerMessage))
		})
	}

	ranked := totals.Tokens()
	sort.SliceStable(ranked, func(i, j int) bool {
		return totals.Get(ranked[i]) > totals.Get(ranked[j])
	})
	if len(ranked) > v.size {
		ranked = ranked[:v.size]
	}

	v.vocab = NewVocabulary(ranked)
	return v.vocab
}

// Transform emits one row per message. Each token adds its raw count to its
// vocabulary column; unknown tokens all add to column 0.
func (v *Vectorizer) Transform(corpus []*words.Counts) (*Matrix, error) {
	if v.vocab == nil {
		return nil, ErrUnfitVectorizer
	}

	var entries []Entry
	for row, counts := range corpus {
		counts.Each(func(token string, count int) {
			entries = append(entries, Entry{
				Row:   row,
				Col:   v.vocab.Slot(token),
				Value: float64(count),
			})
		})
	}

	return NewMatrix(len(corpus), v.size+1, entries), nil
}

// FitTransform fits on corpus and transforms it
func (v *Vectorizer) FitTransform(corpus []*words.Counts) (*Matrix, error) {
	v.Fit(corpus)
	return v.Transform(corpus)
}
