// Package fitter learns a vocabulary from a labeled corpus, stores it, and
// rebuilds pipelines from stored fits.
package fitter

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/felo/eml-vectorizer/internal/corpus"
	"github.com/felo/eml-vectorizer/internal/db"
	"github.com/felo/eml-vectorizer/internal/mimetree"
	"github.com/felo/eml-vectorizer/internal/pipeline"
	"github.com/felo/eml-vectorizer/internal/vectorizer"
	"github.com/felo/eml-vectorizer/internal/words"
)

// Options configures a fit
type Options struct {
	CorpusPath     string
	VocabularySize int
	Workers        int
	Normalizer     words.Options
	StemLanguage   string
}

// Result is the outcome of a fit
type Result struct {
	Fit      *db.Fit
	Load     *corpus.LoadResult
	Pipeline *pipeline.Pipeline
}

// NewNormalizer creates a normalizer stemming in lang
func NewNormalizer(opts words.Options, lang string) *words.Normalizer {
	if lang == "" {
		lang = "english"
	}
	return words.NewNormalizer(opts, words.SnowballStemmer{Language: lang})
}

// Run loads the corpus, fits a pipeline on it and saves the fit as the
// active one. progress may be nil.
func Run(ctx context.Context, database *db.DB, opts Options, logger *slog.Logger, progress func(current, total int, path string)) (*Result, error) {
	if logger == nil {
		logger = slog.Default()
	}

	loader := corpus.NewLoader(opts.CorpusPath, logger).WithConcurrency(opts.Workers)
	msgs, load, err := loader.LoadWithProgress(ctx, progress)
	if err != nil {
		return nil, fmt.Errorf("failed to load corpus: %w", err)
	}
	if len(msgs) == 0 {
		return nil, fmt.Errorf("no messages found in %s", opts.CorpusPath)
	}

	nodes := corpus.Nodes(msgs)
	p := pipeline.New(NewNormalizer(opts.Normalizer, opts.StemLanguage), opts.VocabularySize)
	vocab := p.Fit(nodes, corpus.Labels(msgs))

	fit := &db.Fit{
		VocabularySize: p.Vectorizer().Size(),
		Options:        opts.Normalizer,
		StemLanguage:   opts.StemLanguage,
		CorpusPath:     opts.CorpusPath,
		MessageCount:   len(msgs),
		Vocabulary:     vocab.Tokens(),
		Structures:     mimetree.CountStructures(nodes),
	}
	if _, err := database.SaveFit(fit); err != nil {
		return nil, fmt.Errorf("failed to save fit: %w", err)
	}

	logger.Info("fit saved",
		"fit_id", fit.ID,
		"messages", fit.MessageCount,
		"vocabulary", vocab.Len(),
		"structures", len(fit.Structures),
	)

	return &Result{Fit: fit, Load: load, Pipeline: p}, nil
}

// Restore rebuilds the fitted pipeline described by fit
func Restore(fit *db.Fit) (*pipeline.Pipeline, error) {
	p := pipeline.New(NewNormalizer(fit.Options, fit.StemLanguage), fit.VocabularySize)
	if err := p.Restore(vectorizer.NewVocabulary(fit.Vocabulary)); err != nil {
		return nil, fmt.Errorf("failed to restore fit %s: %w", fit.ID, err)
	}
	return p, nil
}

// RestoreActive rebuilds the pipeline of the active fit
func RestoreActive(database *db.DB) (*db.Fit, *pipeline.Pipeline, error) {
	fit, err := database.ActiveFit()
	if err != nil {
		return nil, nil, err
	}
	p, err := Restore(fit)
	if err != nil {
		return nil, nil, err
	}
	return fit, p, nil
}
