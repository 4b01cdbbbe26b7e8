package rest

import (
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"coinwhisperer/internal/domain"
	"coinwhisperer/pkg/errors"
)

const minPasswordLength = 8

type credentialsRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, err)
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Username == "" {
		respondError(w, errors.Wrapf(errors.ErrInvalidInput, "username is required"))
		return
	}
	if req.Email == "" || !strings.Contains(req.Email, "@") {
		respondError(w, errors.Wrapf(errors.ErrInvalidInput, "valid email is required"))
		return
	}
	if len(req.Password) < minPasswordLength {
		respondError(w, errors.Wrapf(errors.ErrInvalidInput,
			"password must be at least %d characters", minPasswordLength))
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		respondError(w, errors.Wrap(err, "hash password"))
		return
	}

	user, err := h.store.CreateUser(r.Context(), &domain.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: string(hash),
	})
	if err != nil {
		respondError(w, err)
		return
	}
	respondSuccess(w, http.StatusCreated, user)
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, err)
		return
	}

	user, err := h.store.GetUserByUsername(r.Context(), strings.TrimSpace(req.Username))
	if err != nil {
		respondError(w, err)
		return
	}
	if user == nil {
		respondError(w, errors.Wrapf(errors.ErrUnauthorized, "invalid credentials"))
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		respondError(w, errors.Wrapf(errors.ErrUnauthorized, "invalid credentials"))
		return
	}
	respondSuccess(w, http.StatusOK, user)
}
