package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	apperrors "github.com/gurnoorsh/wealthwise/internal/errors"
)

// UserIDHeader carries the authenticated user id set by the auth layer in front of the API.
const UserIDHeader = "X-User-ID"

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps the error taxonomy onto HTTP statuses.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	var verr *apperrors.ErrValidation
	switch {
	case errors.As(err, &verr):
		status = http.StatusBadRequest
	case errors.Is(err, apperrors.ErrNotFound):
		status = http.StatusNotFound
	case apperrors.IsNoData(err):
		status = http.StatusUnprocessableEntity
	case apperrors.IsTransport(err):
		status = http.StatusBadGateway
	}
	http.Error(w, err.Error(), status)
}

func userID(r *http.Request) (uint, bool) {
	id, err := strconv.ParseUint(r.Header.Get(UserIDHeader), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// requireUser writes 401 and returns false when the request has no user.
func requireUser(w http.ResponseWriter, r *http.Request) (uint, bool) {
	id, ok := userID(r)
	if !ok {
		http.Error(w, "missing or invalid "+UserIDHeader+" header", http.StatusUnauthorized)
	}
	return id, ok
}

func pathID(r *http.Request, name string) (uint, bool) {
	id, err := strconv.ParseUint(mux.Vars(r)[name], 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

func queryInt(r *http.Request, name string, fallback int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &apperrors.ErrValidation{Field: name, Message: "must be an integer"}
	}
	return v, nil
}
