package rest

import (
	"net/http"
)

func (h *Handler) listPosts(w http.ResponseWriter, r *http.Request) {
	limit := parseLimit(r)
	coinTag := r.URL.Query().Get("coinTag")

	posts, err := h.store.ListPosts(r.Context(), limit, coinTag)
	if err != nil {
		respondError(w, err)
		return
	}
	respondData(w, http.StatusOK, posts)
}
