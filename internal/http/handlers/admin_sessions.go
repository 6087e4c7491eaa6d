// Package handlers contains admin HTTP handlers.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Adithya-srikar/Medical-chatbot/internal/chat"
	"github.com/Adithya-srikar/Medical-chatbot/pkg/logging"
)

// AdminSessionsHandler exposes active conversations for operational review.
type AdminSessionsHandler struct {
	store  chat.SessionStore
	logger *logging.Logger
}

// NewAdminSessionsHandler creates the handler.
func NewAdminSessionsHandler(store chat.SessionStore, logger *logging.Logger) *AdminSessionsHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &AdminSessionsHandler{store: store, logger: logger}
}

// ListSessions returns summaries of every active session, newest first.
func (h *AdminSessionsHandler) ListSessions(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.store.List(r.Context())
	if err != nil {
		h.logger.Error("admin: failed to list sessions", "error", err)
		http.Error(w, "failed to list sessions", http.StatusInternalServerError)
		return
	}
	if summaries == nil {
		summaries = []chat.SessionSummary{}
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"sessions": summaries,
		"count":    len(summaries),
	})
}

// GetSession returns the full log and scalars of one session.
func (h *AdminSessionsHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	s, err := h.store.Get(r.Context(), sessionID)
	if err != nil {
		if err == chat.ErrSessionNotFound {
			http.Error(w, "session not found", http.StatusNotFound)
			return
		}
		h.logger.Error("admin: failed to load session", "session_id", sessionID, "error", err)
		http.Error(w, "failed to load session", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(s)
}

// DeleteSession removes a session entirely.
func (h *AdminSessionsHandler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if err := h.store.Delete(r.Context(), sessionID); err != nil {
		h.logger.Error("admin: failed to delete session", "session_id", sessionID, "error", err)
		http.Error(w, "failed to delete session", http.StatusInternalServerError)
		return
	}

	h.logger.Info("admin: session deleted", "session_id", sessionID)
	w.WriteHeader(http.StatusNoContent)
}
