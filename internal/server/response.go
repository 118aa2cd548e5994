package server

import (
	"encoding/json"
	"net/http"

	"github.com/afroash/smart-planter/internal/models"
)

// Error codes returned in JSON error bodies
const (
	ErrCodeUnknownPlant    = "unknown_plant"
	ErrCodeBadRequest      = "bad_request"
	ErrCodeInvalidSettings = "invalid_settings"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, models.ErrorMessage{Code: code, Message: message})
}
