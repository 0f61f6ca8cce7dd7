package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"strconv"

	"github.com/desertthunder/edbx/internal/shared"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		return fmt.Errorf("failed to encode response: %w", err)
	}
	return nil
}

func writeError(w http.ResponseWriter, status int, message string) error {
	return writeJSON(w, status, ErrorResponse{Error: message})
}

// respond writes v as the JSON body. The status line is already sent when encoding
// fails, so the error is only logged.
func (a *API) respond(w http.ResponseWriter, r *http.Request, status int, v any) {
	if err := writeJSON(w, status, v); err != nil {
		a.logger.Debug("response not written", "path", r.URL.Path, "err", err)
	}
}

// StatusFor maps a library error to its HTTP status.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, shared.ErrNotFound), errors.Is(err, fs.ErrNotExist):
		return http.StatusNotFound
	case errors.Is(err, shared.ErrAlreadyExists):
		return http.StatusConflict
	case errors.Is(err, shared.ErrInvalidOperation),
		errors.Is(err, shared.ErrNoValidFields),
		errors.Is(err, shared.ErrInvalidArgument),
		errors.Is(err, shared.ErrMissingArgument),
		errors.Is(err, shared.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, shared.ErrNoDatabase):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (a *API) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusFor(err)
	if status == http.StatusInternalServerError {
		a.logger.Error("request failed", "path", r.URL.Path, "err", err)
	}
	a.respond(w, r, status, ErrorResponse{Error: err.Error()})
}

// decode reads a JSON body into v. An empty body leaves v untouched.
func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: malformed JSON body: %v", shared.ErrInvalidInput, err)
	}
	return nil
}

// pathID parses the named path wildcard as an id.
func pathID(r *http.Request, name string) (int64, error) {
	raw := r.PathValue(name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %s %q", shared.ErrInvalidArgument, name, raw)
	}
	return id, nil
}
