package handlers

import (
	"net/http"
	"sync"
	"time"

	"github.com/felo/eml-vectorizer/internal/fitter"
)

// fitProgress holds the state of the background fit
type fitProgress struct {
	mu          sync.RWMutex
	isFitting   bool
	current     int
	total       int
	currentFile string
	loaded      int
	failed      int
	fitID       string
	completed   bool
	err         error
	lastUpdate  time.Time
}

// FitState is the JSON view of the background fit
type FitState struct {
	Running     bool      `json:"running"`
	Completed   bool      `json:"completed"`
	Current     int       `json:"current"`
	Total       int       `json:"total"`
	CurrentFile string    `json:"current_file,omitempty"`
	Loaded      int       `json:"loaded"`
	Failed      int       `json:"failed"`
	FitID       string    `json:"fit_id,omitempty"`
	Error       string    `json:"error,omitempty"`
	LastUpdate  time.Time `json:"last_update"`
}

func (fp *fitProgress) status() FitState {
	fp.mu.RLock()
	defer fp.mu.RUnlock()

	s := FitState{
		Running:     fp.isFitting,
		Completed:   fp.completed,
		Current:     fp.current,
		Total:       fp.total,
		CurrentFile: fp.currentFile,
		Loaded:      fp.loaded,
		Failed:      fp.failed,
		FitID:       fp.fitID,
		LastUpdate:  fp.lastUpdate,
	}
	if fp.err != nil {
		s.Error = fp.err.Error()
	}
	return s
}

// Fit starts fitting the configured corpus in the background. The new fit
// is served as soon as it is stored.
func (h *Handlers) Fit(w http.ResponseWriter, r *http.Request) {
	fp := &h.progress

	fp.mu.Lock()
	if h.ctx.Err() != nil {
		fp.mu.Unlock()
		h.writeError(w, http.StatusServiceUnavailable, "Server is shutting down")
		return
	}
	if fp.isFitting {
		fp.mu.Unlock()
		h.writeError(w, http.StatusConflict, "Fit already in progress")
		return
	}
	h.fits.Add(1)

	// Reset progress state
	fp.isFitting = true
	fp.current = 0
	fp.total = 0
	fp.currentFile = ""
	fp.loaded = 0
	fp.failed = 0
	fp.fitID = ""
	fp.completed = false
	fp.err = nil
	fp.lastUpdate = time.Now()
	fp.mu.Unlock()

	opts := fitter.Options{
		CorpusPath:     h.cfg.CorpusPath,
		VocabularySize: h.cfg.VocabularySize,
		Workers:        h.cfg.Workers,
		Normalizer:     h.cfg.NormalizerOptions(),
		StemLanguage:   h.cfg.Normalizer.StemLanguage,
	}

	// Run fit in background
	go func() {
		defer h.fits.Done()
		defer func() {
			fp.mu.Lock()
			fp.isFitting = false
			fp.completed = true
			fp.lastUpdate = time.Now()
			fp.mu.Unlock()
		}()

		result, err := fitter.Run(h.ctx, h.db, opts, h.logger,
			func(current, total int, path string) {
				fp.mu.Lock()
				fp.current = current
				fp.total = total
				fp.currentFile = path
				fp.lastUpdate = time.Now()
				fp.mu.Unlock()
			})
		if err == nil {
			err = h.setActive(result.Fit.ID, result.Pipeline)
		}

		fp.mu.Lock()
		defer fp.mu.Unlock()
		if err != nil {
			h.logger.Error("fit failed", "corpus", opts.CorpusPath, "error", err)
			fp.err = err
			return
		}

		// Update final stats
		fp.loaded = result.Load.Loaded
		fp.failed = result.Load.Failed
		fp.fitID = result.Fit.ID
	}()

	h.writeJSON(w, http.StatusAccepted, map[string]string{"status": "Fit started"})
}

// FitStatus reports the progress of the background fit
func (h *Handlers) FitStatus(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.progress.status())
}
