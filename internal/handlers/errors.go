package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"wordwebs/internal/game"
	"wordwebs/internal/service"
	"wordwebs/internal/store"
)

func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}

func respondError(w http.ResponseWriter, status int, userMsg string, err error) {
	if err != nil {
		log.Printf("%s: %v", userMsg, err)
	}
	respondJSON(w, status, map[string]string{"error": userMsg})
}

// respondServiceError maps the domain error taxonomy onto HTTP
// statuses. Validation is a 400, missing records a 404, a guess against
// a finished session a 409, anything else a 500.
func respondServiceError(w http.ResponseWriter, userMsg string, err error) {
	switch {
	case errors.Is(err, game.ErrInvalidGuess), errors.Is(err, service.ErrValidation):
		respondError(w, http.StatusBadRequest, err.Error(), nil)
	case errors.Is(err, store.ErrNotFound):
		respondError(w, http.StatusNotFound, userMsg+": not found", err)
	case errors.Is(err, game.ErrSessionFinished):
		respondError(w, http.StatusConflict, "session already finished", nil)
	case errors.Is(err, store.ErrRevisionMismatch):
		respondError(w, http.StatusConflict, "concurrent update, retry", err)
	default:
		respondError(w, http.StatusInternalServerError, userMsg, err)
	}
}
