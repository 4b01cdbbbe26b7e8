package rest

import (
	"context"
	"net/http"

	"coinwhisperer/pkg/errors"
)

// analyze triggers one ingestion run. Rate limited so a misbehaving client
// cannot hammer the (latency-simulating) feed.
func (h *Handler) analyze(w http.ResponseWriter, r *http.Request) {
	if !h.limiter.Allow() {
		writeJSON(w, http.StatusTooManyRequests, envelope{
			Success: false,
			Error:   "analysis rate limit exceeded, try again shortly",
		})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	result, err := h.analysis.RunAnalysis(ctx)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			respondError(w, errors.Wrap(errors.ErrTimeout, "analysis run"))
			return
		}
		respondError(w, err)
		return
	}
	respondSuccess(w, http.StatusOK, result)
}
