package mcp

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/sproutapp/sprout/internal/model"
	"github.com/sproutapp/sprout/internal/service"
)

// eventBufferSize bounds how many undelivered responses a session can
// hold before new deliveries are dropped.
const eventBufferSize = 16

// StreamSession is one live SSE connection bound to one user.
type StreamSession struct {
	ID   string
	User *model.User

	events    chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

// Close terminates the session. Safe to call more than once.
func (s *StreamSession) Close() {
	s.closeOnce.Do(func() {
		close(s.done)
	})
}

// deliver queues one response for the session's event stream. It reports
// false when the session is closed or its buffer is full.
func (s *StreamSession) deliver(b []byte) bool {
	select {
	case <-s.done:
		return false
	case s.events <- b:
		return true
	default:
		return false
	}
}

// SessionRegistry tracks live SSE sessions, at most one per user. A new
// connection for a user supersedes any existing one: the old session is
// closed and its stream terminates.
type SessionRegistry struct {
	mu     sync.Mutex
	byUser map[string]*StreamSession
	byID   map[string]*StreamSession
}

// NewSessionRegistry creates an empty registry.
func NewSessionRegistry() *SessionRegistry {
	return &SessionRegistry{
		byUser: make(map[string]*StreamSession),
		byID:   make(map[string]*StreamSession),
	}
}

// Connect registers a new session for the user, superseding any prior one.
func (r *SessionRegistry) Connect(user *model.User) *StreamSession {
	sess := &StreamSession{
		ID:     uuid.Must(uuid.NewV7()).String(),
		User:   user,
		events: make(chan []byte, eventBufferSize),
		done:   make(chan struct{}),
	}

	r.mu.Lock()
	if prior, ok := r.byUser[user.ID]; ok {
		delete(r.byID, prior.ID)
		prior.Close()
	}
	r.byUser[user.ID] = sess
	r.byID[sess.ID] = sess
	r.mu.Unlock()

	return sess
}

// Disconnect removes the session and closes it. A session that has
// already been superseded leaves the newer registration untouched.
func (r *SessionRegistry) Disconnect(sess *StreamSession) {
	r.mu.Lock()
	if current, ok := r.byUser[sess.User.ID]; ok && current == sess {
		delete(r.byUser, sess.User.ID)
	}
	delete(r.byID, sess.ID)
	r.mu.Unlock()

	sess.Close()
}

// ByID looks up a live session by its session id.
func (r *SessionRegistry) ByID(id string) *StreamSession {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.byID[id]
}

// ByUser looks up the user's live session, if any.
func (r *SessionRegistry) ByUser(userID string) *StreamSession {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.byUser[userID]
}

// Len reports the number of live sessions.
func (r *SessionRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byID)
}

// StreamHandler serves the MCP protocol over HTTP: a long-lived SSE
// stream carries responses while a companion message endpoint accepts
// JSON-RPC requests.
type StreamHandler struct {
	mcp      *MCPServer
	auth     *service.AuthService
	registry *SessionRegistry
	logger   *slog.Logger
}

// NewStreamHandler creates a StreamHandler sharing the given MCP server
// and credential resolver.
func NewStreamHandler(m *MCPServer, auth *service.AuthService, logger *slog.Logger) *StreamHandler {
	return &StreamHandler{
		mcp:      m,
		auth:     auth,
		registry: NewSessionRegistry(),
		logger:   logger,
	}
}

// Registry returns the handler's session registry.
func (h *StreamHandler) Registry() *SessionRegistry {
	return h.registry
}

// ServeSSE handles GET /sse. It opens the event stream, announces the
// message endpoint for this session, then relays responses until the
// client disconnects or a newer connection supersedes this one.
func (h *StreamHandler) ServeSSE(w http.ResponseWriter, r *http.Request) {
	user := service.IdentityFromContext(r.Context())
	if user == nil {
		writeStreamError(w, http.StatusUnauthorized, "Invalid API key")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeStreamError(w, http.StatusInternalServerError, "Streaming unsupported")
		return
	}

	sess := h.registry.Connect(user)
	defer h.registry.Disconnect(sess)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	fmt.Fprintf(w, "event: endpoint\ndata: /message?sessionId=%s\n\n", sess.ID)
	flusher.Flush()

	h.logger.Info("SSE session opened", "session", sess.ID, "user", user.ID)

	for {
		select {
		case <-r.Context().Done():
			h.logger.Info("SSE session closed by client", "session", sess.ID)
			return
		case <-sess.done:
			h.logger.Info("SSE session superseded", "session", sess.ID)
			return
		case ev := <-sess.events:
			fmt.Fprintf(w, "event: message\ndata: %s\n\n", ev)
			flusher.Flush()
		}
	}
}

// ServeMessage handles POST /message. The caller identifies its session
// either by the sessionId query parameter announced on the stream or by
// its API key. The JSON-RPC response is delivered on the session's event
// stream; the POST itself only acknowledges receipt.
func (h *StreamHandler) ServeMessage(w http.ResponseWriter, r *http.Request) {
	sess, status, msg := h.resolveSession(r)
	if sess == nil {
		writeStreamError(w, status, msg)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeStreamError(w, http.StatusBadRequest, "Unreadable request body")
		return
	}

	ctx := service.WithIdentity(r.Context(), sess.User)
	response := h.mcp.HandleMessage(ctx, body)

	if response != nil {
		b, err := json.Marshal(response)
		if err != nil {
			h.logger.Error("failed to marshal MCP response", "error", err)
			writeStreamError(w, http.StatusInternalServerError, "Internal error")
			return
		}
		if !sess.deliver(b) {
			h.logger.Warn("dropped MCP response", "session", sess.ID)
		}
	}

	w.WriteHeader(http.StatusAccepted)
}

// resolveSession finds the live session a message is addressed to. A
// sessionId query parameter wins; otherwise the bearer key's user must
// have an open stream.
func (h *StreamHandler) resolveSession(r *http.Request) (*StreamSession, int, string) {
	if id := r.URL.Query().Get("sessionId"); id != "" {
		sess := h.registry.ByID(id)
		if sess == nil {
			return nil, http.StatusNotFound, "Unknown session"
		}
		return sess, 0, ""
	}

	header := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || token == "" {
		return nil, http.StatusUnauthorized, "Invalid API key"
	}
	user, err := h.auth.Resolve(r.Context(), token)
	if errors.Is(err, service.ErrInvalidToken) {
		return nil, http.StatusUnauthorized, "Invalid API key"
	}
	if err != nil {
		h.logger.Error("failed to resolve API key", "error", err)
		return nil, http.StatusInternalServerError, "Internal server error"
	}

	sess := h.registry.ByUser(user.ID)
	if sess == nil {
		return nil, http.StatusConflict, "No open event stream for this key"
	}
	return sess, 0, ""
}

func writeStreamError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	resp := model.ErrorResponse{}
	resp.Error.Code = status
	resp.Error.Message = message
	_ = json.NewEncoder(w).Encode(resp)
}
