// Package api exposes a small operational surface for the bot: liveness and
// voice-profile inspection/deletion. Voice registration and synthesis stay on
// the messaging gateway; this API exists for operators, not end users.
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/bobarin/voiceclone/internal/bot"
	"github.com/bobarin/voiceclone/internal/models"
)

type Handler struct {
	service *bot.Service
}

func NewHandler(service *bot.Service) *Handler {
	return &Handler{
		service: service,
	}
}

// GetVoice handles GET /v1/voices/{userID}
func (h *Handler) GetVoice(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	prof, err := h.service.GetVoice(userID)
	if errors.Is(err, models.ErrNotFound) {
		respondError(w, http.StatusNotFound, "No voice profile for this user")
		return
	}
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, prof)
}

// DeleteVoice handles DELETE /v1/voices/{userID}. Deletion competes for the
// user's job slot, so it returns 409 while an ingest or synthesis job for the
// same user is in flight.
func (h *Handler) DeleteVoice(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	err := h.service.DeleteVoice(userID)
	switch {
	case errors.Is(err, models.ErrBusy):
		respondError(w, http.StatusConflict, "A job for this user is in flight, retry later")
	case errors.Is(err, models.ErrNotFound):
		respondError(w, http.StatusNotFound, "No voice profile for this user")
	case err != nil:
		respondError(w, http.StatusInternalServerError, err.Error())
	default:
		respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
	}
}

// Health check
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
