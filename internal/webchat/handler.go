// Package webchat is the HTTP/WebSocket boundary for the chat widget. It
// issues sessions, feeds user input to the chat engine, and pushes appended
// messages back to connected widgets.
package webchat

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/net/websocket"

	"github.com/Adithya-srikar/Medical-chatbot/internal/chat"
	"github.com/Adithya-srikar/Medical-chatbot/internal/observability/metrics"
	"github.com/Adithya-srikar/Medical-chatbot/pkg/logging"
)

// Handler manages chat sessions and routes widget input to the engine.
type Handler struct {
	engine  *chat.Engine
	store   chat.SessionStore
	logger  *logging.Logger
	metrics *metrics.ChatMetrics

	mu       sync.Mutex
	inflight map[string]struct{} // sessions with a handler running (the loading flag)

	connMu sync.RWMutex
	conns  map[string]*wsConn // sessionID -> active connection
}

type wsConn struct {
	conn *websocket.Conn
}

// NewHandler creates a web chat handler.
func NewHandler(engine *chat.Engine, store chat.SessionStore, m *metrics.ChatMetrics, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		engine:   engine,
		store:    store,
		logger:   logger,
		metrics:  m,
		inflight: make(map[string]struct{}),
		conns:    make(map[string]*wsConn),
	}
}

// generateSessionID creates a random session identifier.
func generateSessionID() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return uuid.New().String()
	}
	return hex.EncodeToString(b)
}

// InboundEvent is what the widget sends over the WebSocket.
type InboundEvent struct {
	Type string `json:"type"` // "message", "ping"
	Text string `json:"text,omitempty"`
}

// OutboundEvent is what the server sends to the widget.
type OutboundEvent struct {
	Type      string         `json:"type"` // "message", "history", "session", "pong", "error"
	Message   *chat.Message  `json:"message,omitempty"`
	Messages  []chat.Message `json:"messages,omitempty"`
	SessionID string         `json:"session_id,omitempty"`
	Text      string         `json:"text,omitempty"`
}

type sessionReply struct {
	SessionID string         `json:"session_id"`
	Messages  []chat.Message `json:"messages"`
}

// HandleNewSession issues a session ID and the opening welcome prompt.
func (h *Handler) HandleNewSession(w http.ResponseWriter, r *http.Request) {
	id := generateSessionID()
	s := chat.NewSession(id)
	if err := h.store.Save(r.Context(), s); err != nil {
		h.logger.Error("webchat: failed to create session", "error", err)
		http.Error(w, "failed to create session", http.StatusInternalServerError)
		return
	}

	h.logger.Info("webchat: session created", "session_id", id)
	writeJSON(w, http.StatusOK, sessionReply{SessionID: id, Messages: s.Messages})
}

// HandleMessage routes one free-text submission.
func (h *Handler) HandleMessage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SessionID string `json:"session_id"`
		Text      string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.SessionID == "" || strings.TrimSpace(req.Text) == "" {
		http.Error(w, "session_id and text are required", http.StatusBadRequest)
		return
	}

	h.process(w, r, "message", req.SessionID, func(ctx context.Context, s *chat.Session) {
		h.engine.HandleText(ctx, s, req.Text)
	})
}

// HandleOption routes a clicked option. The clicked label is echoed into the
// log as a user message before dispatch, mirroring what the widget shows.
func (h *Handler) HandleOption(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SessionID string             `json:"session_id"`
		Option    chat.MessageOption `json:"option"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.SessionID == "" || req.Option.Action == "" {
		http.Error(w, "session_id and option action are required", http.StatusBadRequest)
		return
	}

	h.process(w, r, "option", req.SessionID, func(ctx context.Context, s *chat.Session) {
		if req.Option.Text != "" {
			s.AppendMessage(chat.NewUserMessage(req.Option.Text))
			h.metrics.ObserveMessage(string(chat.SenderUser))
		}
		h.engine.HandleOption(ctx, s, req.Option)
	})
}

// HandleReason routes the dedicated reason-entry affordance.
func (h *Handler) HandleReason(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SessionID string `json:"session_id"`
		Reason    string `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.SessionID == "" || strings.TrimSpace(req.Reason) == "" {
		http.Error(w, "session_id and reason are required", http.StatusBadRequest)
		return
	}

	h.process(w, r, "reason", req.SessionID, func(ctx context.Context, s *chat.Session) {
		h.engine.HandleReason(ctx, s, req.Reason)
	})
}

// HandleReset restarts the conversation.
func (h *Handler) HandleReset(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SessionID string `json:"session_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.SessionID == "" {
		http.Error(w, "session_id is required", http.StatusBadRequest)
		return
	}

	h.process(w, r, "reset", req.SessionID, func(_ context.Context, s *chat.Session) {
		s.Reset()
	})
}

// HandleHistory returns the full ordered message log for a session.
func (h *Handler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session")
	if sessionID == "" {
		http.Error(w, "session parameter required", http.StatusBadRequest)
		return
	}

	s, err := h.store.Get(r.Context(), sessionID)
	if err != nil {
		if err == chat.ErrSessionNotFound {
			http.Error(w, "session not found", http.StatusNotFound)
			return
		}
		h.logger.Error("webchat: failed to load history", "error", err)
		http.Error(w, "failed to load history", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, sessionReply{SessionID: s.ID, Messages: s.Messages})
}

// process serializes handler execution per session (the loading flag), runs
// fn against the loaded session, persists it, and replies with the messages
// appended by fn. New messages are also pushed to the session's WebSocket.
func (h *Handler) process(w http.ResponseWriter, r *http.Request, route, sessionID string, fn func(context.Context, *chat.Session)) {
	start := time.Now()

	if !h.acquire(sessionID) {
		http.Error(w, "a previous submission is still being processed", http.StatusConflict)
		return
	}
	defer h.release(sessionID)

	s, err := h.store.Get(r.Context(), sessionID)
	if err != nil {
		if err == chat.ErrSessionNotFound {
			http.Error(w, "session not found", http.StatusNotFound)
			return
		}
		h.logger.Error("webchat: failed to load session", "session_id", sessionID, "error", err)
		http.Error(w, "failed to load session", http.StatusInternalServerError)
		return
	}

	before := len(s.Messages)
	fn(r.Context(), s)

	if err := h.store.Save(r.Context(), s); err != nil {
		h.logger.Error("webchat: failed to save session", "session_id", sessionID, "error", err)
		http.Error(w, "failed to save session", http.StatusInternalServerError)
		return
	}

	// After a reset the log shrinks; send the whole log so the widget redraws.
	var appended []chat.Message
	if len(s.Messages) >= before {
		appended = s.Messages[before:]
	} else {
		appended = s.Messages
	}

	for i := range appended {
		h.pushToSession(sessionID, OutboundEvent{Type: "message", Message: &appended[i]})
	}

	h.metrics.ObserveHandlerLatency(route, time.Since(start).Seconds())
	writeJSON(w, http.StatusOK, sessionReply{SessionID: s.ID, Messages: appended})
}

func (h *Handler) acquire(sessionID string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, busy := h.inflight[sessionID]; busy {
		return false
	}
	h.inflight[sessionID] = struct{}{}
	return true
}

func (h *Handler) release(sessionID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.inflight, sessionID)
}

// HandleWebSocket upgrades to WebSocket for live message push.
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	websocket.Handler(func(conn *websocket.Conn) {
		h.serveWS(conn, r)
	}).ServeHTTP(w, r)
}

func (h *Handler) serveWS(conn *websocket.Conn, r *http.Request) {
	sessionID := r.URL.Query().Get("session")
	if sessionID == "" {
		_ = websocket.JSON.Send(conn, OutboundEvent{Type: "error", Text: "missing session parameter"})
		return
	}

	s, err := h.store.Get(r.Context(), sessionID)
	if err != nil {
		_ = websocket.JSON.Send(conn, OutboundEvent{Type: "error", Text: "session not found"})
		return
	}

	_ = websocket.JSON.Send(conn, OutboundEvent{Type: "session", SessionID: sessionID})
	_ = websocket.JSON.Send(conn, OutboundEvent{Type: "history", Messages: s.Messages})

	wsc := &wsConn{conn: conn}
	h.connMu.Lock()
	h.conns[sessionID] = wsc
	h.connMu.Unlock()
	defer func() {
		h.connMu.Lock()
		if h.conns[sessionID] == wsc {
			delete(h.conns, sessionID)
		}
		h.connMu.Unlock()
	}()

	h.logger.Info("webchat: connection opened", "session_id", sessionID)

	for {
		var ev InboundEvent
		if err := websocket.JSON.Receive(conn, &ev); err != nil {
			h.logger.Debug("webchat: connection closed", "session_id", sessionID, "error", err)
			return
		}

		switch {
		case ev.Type == "ping":
			_ = websocket.JSON.Send(conn, OutboundEvent{Type: "pong"})
		case ev.Type == "message" && strings.TrimSpace(ev.Text) != "":
			h.processWS(r.Context(), sessionID, ev.Text)
		}
	}
}

// processWS handles a free-text message arriving over the WebSocket instead
// of the HTTP endpoint. Replies go out over the same connection.
func (h *Handler) processWS(ctx context.Context, sessionID, text string) {
	if !h.acquire(sessionID) {
		h.pushToSession(sessionID, OutboundEvent{Type: "error", Text: "a previous submission is still being processed"})
		return
	}
	defer h.release(sessionID)

	s, err := h.store.Get(ctx, sessionID)
	if err != nil {
		h.pushToSession(sessionID, OutboundEvent{Type: "error", Text: "session not found"})
		return
	}

	before := len(s.Messages)
	h.engine.HandleText(ctx, s, text)

	if err := h.store.Save(ctx, s); err != nil {
		h.logger.Error("webchat: failed to save session", "session_id", sessionID, "error", err)
		h.pushToSession(sessionID, OutboundEvent{Type: "error", Text: "something went wrong, please try again"})
		return
	}

	appended := s.Messages
	if len(s.Messages) >= before {
		appended = s.Messages[before:]
	}
	for i := range appended {
		h.pushToSession(sessionID, OutboundEvent{Type: "message", Message: &appended[i]})
	}
}

// pushToSession sends an event to the session's WebSocket, if connected.
func (h *Handler) pushToSession(sessionID string, ev OutboundEvent) {
	h.connMu.RLock()
	wsc, ok := h.conns[sessionID]
	h.connMu.RUnlock()
	if !ok {
		return
	}
	_ = websocket.JSON.Send(wsc.conn, ev)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
