package rest

import (
	"encoding/json"
	"net/http"

	"coinwhisperer/pkg/errors"
	"coinwhisperer/pkg/logger"
)

// envelope is the JSON shape every mutation response is wrapped in.
type envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Errorf("Failed to encode response: %v", err)
	}
}

// respondData writes a bare JSON payload, the shape reads use.
func respondData(w http.ResponseWriter, status int, data interface{}) {
	writeJSON(w, status, data)
}

// respondSuccess wraps the payload in the success envelope.
func respondSuccess(w http.ResponseWriter, status int, data interface{}) {
	writeJSON(w, status, envelope{Success: true, Data: data})
}

// respondError maps the error to an HTTP status and writes the failure
// envelope. Internal errors are logged but not leaked to the client.
func respondError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	message := "internal server error"

	switch {
	case errors.Is(err, errors.ErrDuplicateSymbol):
		status = http.StatusBadRequest
		message = err.Error()
	case errors.Is(err, errors.ErrInvalidInput):
		status = http.StatusBadRequest
		message = err.Error()
	case errors.Is(err, errors.ErrNotFound):
		status = http.StatusNotFound
		message = err.Error()
	case errors.Is(err, errors.ErrAlreadyExists), errors.Is(err, errors.ErrDuplicatePost):
		status = http.StatusConflict
		message = err.Error()
	case errors.Is(err, errors.ErrUnauthorized):
		status = http.StatusUnauthorized
		message = err.Error()
	case errors.Is(err, errors.ErrUnavailable):
		status = http.StatusServiceUnavailable
		message = err.Error()
	case errors.Is(err, errors.ErrTimeout):
		status = http.StatusGatewayTimeout
		message = err.Error()
	default:
		logger.Errorf("Request failed: %v", err)
	}

	writeJSON(w, status, envelope{Success: false, Error: message})
}

// decodeBody parses the request body into dst, rejecting malformed JSON.
func decodeBody(r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return errors.Wrapf(errors.ErrInvalidInput, "invalid request body: %v", err)
	}
	return nil
}
