package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/bryan-buckman/donorhub/internal/catalog"
	"github.com/bryan-buckman/donorhub/internal/database"
	"github.com/bryan-buckman/donorhub/internal/forms"
	"github.com/bryan-buckman/donorhub/internal/relay"
)

const maxBodyBytes = 1 << 20

var (
	errBadRequest = errors.New("bad request")
	errCampOver   = errors.New("camp has already taken place")
	errTooLarge   = errors.New("request body too large")
)

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error     string            `json:"error"`
	Fields    map[string]string `json:"fields,omitempty"`
	Retryable bool              `json:"retryable,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}

// writeError maps err onto a status code and writes the error body.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	body := errorBody{Error: err.Error()}
	status := http.StatusInternalServerError

	var verr *forms.ValidationError
	switch {
	case errors.As(err, &verr):
		status = http.StatusUnprocessableEntity
		body.Error = "validation failed"
		body.Fields = verr.Fields
	case errors.Is(err, catalog.ErrMalformedCatalog):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, errTooLarge):
		status = http.StatusRequestEntityTooLarge
	case errors.Is(err, errBadRequest):
		status = http.StatusBadRequest
	case errors.Is(err, database.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, database.ErrDuplicate), errors.Is(err, errCampOver):
		status = http.StatusConflict
	case errors.Is(err, relay.ErrRejected), errors.Is(err, relay.ErrUnreachable):
		status = http.StatusBadGateway
		body.Retryable = true
	}

	if status == http.StatusInternalServerError {
		log.Error().Err(err).Str("path", r.URL.Path).Msg("Request failed")
		body.Error = "internal error"
	}
	writeJSON(w, status, body)
}

// decodeJSON reads the request body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("%w: invalid JSON body: %v", errBadRequest, err)
	}
	return nil
}

// idParam parses a numeric path parameter. Anything else is reported as
// not found.
func idParam(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%s %q: %w", name, raw, database.ErrNotFound)
	}
	return id, nil
}
