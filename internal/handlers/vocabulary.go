package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/felo/eml-vectorizer/internal/db"
	"github.com/felo/eml-vectorizer/internal/fitter"
)

// Vocabulary lists or searches the tokens of the active fit
func (h *Handlers) Vocabulary(w http.ResponseWriter, r *http.Request) {
	fitID, _, _ := h.active()
	if fitID == "" {
		h.writeError(w, http.StatusServiceUnavailable, "No fit loaded")
		return
	}

	limit := 100
	if l := r.URL.Query().Get("limit"); l != "" {
		parsed, err := strconv.Atoi(l)
		if err != nil || parsed < 1 {
			h.writeError(w, http.StatusBadRequest, "Invalid limit")
			return
		}
		limit = parsed
	}

	entries, err := h.db.SearchVocabulary(fitID, r.URL.Query().Get("q"), limit)
	if err != nil {
		h.logger.Error("failed to search vocabulary", "fit_id", fitID, "error", err)
		h.writeError(w, http.StatusInternalServerError, "Failed to search vocabulary")
		return
	}

	h.writeJSON(w, http.StatusOK, entries)
}

// Structures lists the structure counts of the active fit's corpus
func (h *Handlers) Structures(w http.ResponseWriter, r *http.Request) {
	fitID, _, _ := h.active()
	if fitID == "" {
		h.writeError(w, http.StatusServiceUnavailable, "No fit loaded")
		return
	}

	structures, err := h.db.ListStructures(fitID)
	if err != nil {
		h.logger.Error("failed to list structures", "fit_id", fitID, "error", err)
		h.writeError(w, http.StatusInternalServerError, "Failed to list structures")
		return
	}

	h.writeJSON(w, http.StatusOK, structures)
}

// ListFits lists stored fits, newest first
func (h *Handlers) ListFits(w http.ResponseWriter, r *http.Request) {
	fits, err := h.db.ListFits()
	if err != nil {
		h.logger.Error("failed to list fits", "error", err)
		h.writeError(w, http.StatusInternalServerError, "Failed to list fits")
		return
	}
	if fits == nil {
		h.writeJSON(w, http.StatusOK, []struct{}{})
		return
	}

	h.writeJSON(w, http.StatusOK, fits)
}

// ActivateFit serves a stored fit and makes it the active one
func (h *Handlers) ActivateFit(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	fit, err := h.db.LoadFit(id)
	if errors.Is(err, db.ErrFitNotFound) {
		h.writeError(w, http.StatusNotFound, "Fit not found")
		return
	}
	if err != nil {
		h.logger.Error("failed to load fit", "fit_id", id, "error", err)
		h.writeError(w, http.StatusInternalServerError, "Failed to load fit")
		return
	}

	p, err := fitter.Restore(fit)
	if err != nil {
		h.logger.Error("failed to restore fit", "fit_id", id, "error", err)
		h.writeError(w, http.StatusInternalServerError, "Failed to restore fit")
		return
	}

	if err := h.db.ActivateFit(id); err != nil {
		h.logger.Error("failed to activate fit", "fit_id", id, "error", err)
		h.writeError(w, http.StatusInternalServerError, "Failed to activate fit")
		return
	}
	if err := h.setActive(id, p); err != nil {
		h.logger.Error("failed to serve fit", "fit_id", id, "error", err)
		h.writeError(w, http.StatusInternalServerError, "Failed to serve fit")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{"fit_id": id})
}

// DeleteFit removes a stored fit. Deleting the served fit leaves the
// server without one until another is activated or fitted.
func (h *Handlers) DeleteFit(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	err := h.db.DeleteFit(id)
	if errors.Is(err, db.ErrFitNotFound) {
		h.writeError(w, http.StatusNotFound, "Fit not found")
		return
	}
	if err != nil {
		h.logger.Error("failed to delete fit", "fit_id", id, "error", err)
		h.writeError(w, http.StatusInternalServerError, "Failed to delete fit")
		return
	}

	h.clearActive(id)
	w.WriteHeader(http.StatusNoContent)
}
