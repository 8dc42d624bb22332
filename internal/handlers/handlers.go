// Package handlers serves the vectorizer over HTTP.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/felo/eml-vectorizer/internal/classifier"
	"github.com/felo/eml-vectorizer/internal/config"
	"github.com/felo/eml-vectorizer/internal/db"
	"github.com/felo/eml-vectorizer/internal/fitter"
	"github.com/felo/eml-vectorizer/internal/pipeline"
)

// maxMessageSize bounds request bodies carrying a message (25 MB)
const maxMessageSize = 25 << 20

// Handlers holds all HTTP handlers and their dependencies
type Handlers struct {
	db     *db.DB
	cfg    *config.Config
	logger *slog.Logger
	model  classifier.Model

	mu        sync.RWMutex
	fitID     string
	pipeline  *pipeline.Pipeline
	predictor *classifier.Predictor

	// ctx lives as long as the server; background fits run under it
	ctx    context.Context
	cancel context.CancelFunc
	fits   sync.WaitGroup

	progress fitProgress
}

// New creates a new Handlers instance
func New(database *db.DB, cfg *config.Config, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Handlers{
		db:     database,
		cfg:    cfg,
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Close cancels a running background fit and waits for it to stop.
// POST /fit is refused afterwards.
func (h *Handlers) Close() {
	h.progress.mu.Lock()
	h.cancel()
	h.progress.mu.Unlock()

	h.fits.Wait()
}

// WithModel enables /predict with model
func (h *Handlers) WithModel(model classifier.Model) *Handlers {
	h.model = model
	return h
}

// LoadActiveFit serves the active fit stored in the database. Having no
// fit yet is not an error; vectorizing endpoints answer 503 until one is
// created through POST /fit.
func (h *Handlers) LoadActiveFit() error {
	fit, p, err := fitter.RestoreActive(h.db)
	if errors.Is(err, db.ErrNoActiveFit) {
		h.logger.Warn("no active fit, run a fit before vectorizing")
		return nil
	}
	if err != nil {
		return err
	}
	return h.setActive(fit.ID, p)
}

// setActive swaps the pipeline used by all requests
func (h *Handlers) setActive(fitID string, p *pipeline.Pipeline) error {
	var predictor *classifier.Predictor
	if h.model != nil {
		var err error
		predictor, err = classifier.NewPredictor(p, h.model)
		if err != nil {
			return err
		}
	}

	h.mu.Lock()
	h.fitID, h.pipeline, h.predictor = fitID, p, predictor
	h.mu.Unlock()

	h.logger.Info("serving fit", "fit_id", fitID)
	return nil
}

// clearActive stops serving fitID if it is the served fit
func (h *Handlers) clearActive(fitID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.fitID != fitID {
		return
	}
	h.fitID, h.pipeline, h.predictor = "", nil, nil
	h.logger.Info("stopped serving fit", "fit_id", fitID)
}

// active returns the current fit id and pipeline, or an empty id if none
func (h *Handlers) active() (string, *pipeline.Pipeline, *classifier.Predictor) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.fitID, h.pipeline, h.predictor
}

// Routes builds the router
func (h *Handlers) Routes() chi.Router {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/health", h.Health)
	r.Get("/vocabulary", h.Vocabulary)
	r.Get("/structures", h.Structures)
	r.Get("/fits", h.ListFits)
	r.Post("/fits/{id}/activate", h.ActivateFit)
	r.Delete("/fits/{id}", h.DeleteFit)
	r.Post("/fit", h.Fit)
	r.Get("/fit/status", h.FitStatus)
	r.Post("/structure", h.Structure)
	r.Post("/vectorize", h.Vectorize)
	r.Post("/predict", h.Predict)

	return r
}

// Health reports whether a fit and a model are loaded
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	fitID, _, _ := h.active()
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":       "ok",
		"fit_id":       fitID,
		"model_loaded": h.model != nil,
	})
}

// writeJSON encodes v as the response body
func (h *Handlers) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

// writeError sends a JSON error body
func (h *Handlers) writeError(w http.ResponseWriter, status int, msg string) {
	h.writeJSON(w, status, map[string]string{"error": msg})
}
