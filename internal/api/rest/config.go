package rest

import (
	"net/http"

	"coinwhisperer/internal/domain"
	"coinwhisperer/pkg/errors"
)

func (h *Handler) getConfig(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.store.GetConfig(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	respondData(w, http.StatusOK, cfg)
}

func (h *Handler) updateConfig(w http.ResponseWriter, r *http.Request) {
	var patch domain.TradingConfigPatch
	if err := decodeBody(r, &patch); err != nil {
		respondError(w, err)
		return
	}
	if err := patch.Validate(); err != nil {
		respondError(w, err)
		return
	}

	updated, err := h.store.UpdateConfig(r.Context(), patch)
	if err != nil {
		respondError(w, err)
		return
	}
	respondSuccess(w, http.StatusOK, updated)
}

func (h *Handler) getStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.store.GetStats(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	respondData(w, http.StatusOK, stats)
}

func (h *Handler) updateStats(w http.ResponseWriter, r *http.Request) {
	var patch domain.StatsPatch
	if err := decodeBody(r, &patch); err != nil {
		respondError(w, err)
		return
	}
	if patch.OverallSentiment != nil &&
		(*patch.OverallSentiment < 0 || *patch.OverallSentiment > 1) {
		respondError(w, errors.Wrap(errors.ErrInvalidInput, "overallSentiment must be in [0, 1]"))
		return
	}
	if patch.OverallSentimentLabel != nil && !patch.OverallSentimentLabel.Valid() {
		respondError(w, errors.Wrapf(errors.ErrInvalidInput,
			"invalid sentiment label %q", *patch.OverallSentimentLabel))
		return
	}

	updated, err := h.store.UpdateStats(r.Context(), patch)
	if err != nil {
		respondError(w, err)
		return
	}
	respondSuccess(w, http.StatusOK, updated)
}
