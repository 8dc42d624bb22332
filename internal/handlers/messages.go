package handlers

import (
	"net/http"

	"github.com/felo/eml-vectorizer/internal/mimetree"
	"github.com/felo/eml-vectorizer/internal/parser"
	"github.com/felo/eml-vectorizer/internal/vectorizer"
	"github.com/felo/eml-vectorizer/internal/words"
)

// readMessage parses the request body as an RFC 5322 message
func (h *Handlers) readMessage(w http.ResponseWriter, r *http.Request) (mimetree.Node, bool) {
	body := http.MaxBytesReader(w, r.Body, maxMessageSize)
	node, err := parser.ParseEML(body)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid message")
		return nil, false
	}
	return node, true
}

// Structure returns the structure signature of the posted message
func (h *Handlers) Structure(w http.ResponseWriter, r *http.Request) {
	node, ok := h.readMessage(w, r)
	if !ok {
		return
	}

	_, hasBody := mimetree.Body(node)
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"signature": mimetree.Structure(node),
		"subject":   mimetree.Subject(node),
		"has_body":  hasBody,
	})
}

// Vectorize returns the feature row of the posted message under the active fit
func (h *Handlers) Vectorize(w http.ResponseWriter, r *http.Request) {
	fitID, p, _ := h.active()
	if p == nil {
		h.writeError(w, http.StatusServiceUnavailable, "No fit loaded")
		return
	}

	node, ok := h.readMessage(w, r)
	if !ok {
		return
	}

	counts := p.MessageWords(node)
	features, err := p.Vectorizer().Transform([]*words.Counts{counts})
	if err != nil {
		h.logger.Error("failed to vectorize message", "error", err)
		h.writeError(w, http.StatusInternalServerError, "Failed to vectorize message")
		return
	}

	_, cols := features.Dims()
	h.writeJSON(w, http.StatusOK, struct {
		FitID   string             `json:"fit_id"`
		Columns int                `json:"columns"`
		Words   *words.Counts      `json:"words"`
		Entries []vectorizer.Entry `json:"entries"`
	}{
		FitID:   fitID,
		Columns: cols,
		Words:   counts,
		Entries: features.Row(0),
	})
}

// Predict returns the label the loaded model predicts for the posted message
func (h *Handlers) Predict(w http.ResponseWriter, r *http.Request) {
	if h.model == nil {
		h.writeError(w, http.StatusNotImplemented, "No model loaded")
		return
	}
	fitID, _, predictor := h.active()
	if predictor == nil {
		h.writeError(w, http.StatusServiceUnavailable, "No fit loaded")
		return
	}

	node, ok := h.readMessage(w, r)
	if !ok {
		return
	}

	label, err := predictor.Predict(node)
	if err != nil {
		h.logger.Error("failed to predict", "fit_id", fitID, "error", err)
		h.writeError(w, http.StatusInternalServerError, "Failed to predict")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{
		"fit_id": fitID,
		"label":  label,
	})
}
