package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/erazemk/najdeno/internal/imaging"
	"github.com/erazemk/najdeno/internal/model"
)

// jsonResponse writes a JSON response with the given status code.
func jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("encoding response", "error", err)
		}
	}
}

// jsonError writes a JSON error response.
func jsonError(w http.ResponseWriter, status int, message string) {
	jsonResponse(w, status, map[string]string{"error": message})
}

// jsonMessage writes a {"message": ...} success response.
func jsonMessage(w http.ResponseWriter, message string) {
	jsonResponse(w, http.StatusOK, map[string]string{"message": message})
}

// decodeJSON decodes a JSON request body into the given target.
func decodeJSON(r *http.Request, target any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(target)
}

// pathID parses the named path value as a positive integer ID.
func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s", name)
	}
	return id, nil
}

var statusBySentinel = []struct {
	err    error
	status int
}{
	{model.ErrNotFound, http.StatusNotFound},
	{model.ErrUnauthorized, http.StatusUnauthorized},
	{model.ErrInvalidOperation, http.StatusBadRequest},
	{model.ErrConflict, http.StatusBadRequest},
	{imaging.ErrUnsupported, http.StatusBadRequest},
}

// serviceError maps a service error to a response. Known errors carry a
// message meant for the client; anything else is logged and reported as a
// generic failure.
func serviceError(w http.ResponseWriter, err error, failure string) {
	for _, s := range statusBySentinel {
		if errors.Is(err, s.err) {
			jsonError(w, s.status, clientMessage(err, s.err))
			return
		}
	}
	slog.Error(failure, "error", err)
	jsonError(w, http.StatusInternalServerError, failure)
}

// clientMessage strips the sentinel text from a wrapped error message.
func clientMessage(err, sentinel error) string {
	msg := strings.TrimSuffix(err.Error(), ": "+sentinel.Error())
	if msg == "" {
		return sentinel.Error()
	}
	return msg
}
