package boundary

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"mirror/internal/constants"
	"mirror/internal/logger"
	"mirror/pkg/errors"
	"mirror/pkg/metrics"
)

const (
	FrameConnected = "connected"
	FrameInvoke    = "invoke"
	FrameAck       = "ack"

	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// Frame is the JSON message exchanged with attached hosts.
type Frame struct {
	Type      string                 `json:"type"`
	SessionID string                 `json:"session_id,omitempty"`
	Method    string                 `json:"method,omitempty"`
	Arguments map[string]interface{} `json:"arguments,omitempty"`
}

type session struct {
	id   string
	conn *websocket.Conn
	send chan []byte
	done chan struct{}
	once sync.Once
}

func (s *session) close() {
	s.once.Do(func() {
		close(s.done)
		s.conn.Close()
	})
}

// Hub pushes invocations to every attached host over WebSocket. A host
// whose buffer is full misses frames rather than slowing capture down.
type Hub struct {
	mu             sync.RWMutex
	sessions       map[string]*session
	allowedOrigins map[string]bool
	sendBuffer     int
	upgrader       websocket.Upgrader
	logger         logger.Logger
	closed         bool
}

func NewHub(allowedOrigins []string, sendBuffer int, log logger.Logger) *Hub {
	origins := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		origins[o] = true
	}
	if sendBuffer <= 0 {
		sendBuffer = 64
	}
	h := &Hub{
		sessions:       make(map[string]*session),
		allowedOrigins: origins,
		sendBuffer:     sendBuffer,
		logger:         log,
	}
	h.upgrader = websocket.Upgrader{CheckOrigin: h.checkOrigin}
	return h
}

func (h *Hub) checkOrigin(r *http.Request) bool {
	if len(h.allowedOrigins) == 0 {
		return true
	}
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true // non-browser hosts
	}
	return h.allowedOrigins[origin]
}

func (h *Hub) Name() string { return constants.TransportWebSocket }

func (h *Hub) Ready() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return !h.closed && len(h.sessions) > 0
}

func (h *Hub) Sessions() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

func (h *Hub) Invoke(ctx context.Context, method string, args map[string]interface{}) error {
	payload, err := json.Marshal(Frame{Type: FrameInvoke, Method: method, Arguments: args})
	if err != nil {
		return err
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.closed || len(h.sessions) == 0 {
		return errors.ErrChannelNotReady
	}
	for _, s := range h.sessions {
		select {
		case s.send <- payload:
		default:
			h.logger.WarnwCtx(ctx, "Host session buffer full, dropping frame",
				"session_id", s.id,
				"method", method,
			)
		}
	}
	return nil
}

// ServeHTTP upgrades the request and keeps the host attached until it
// disconnects or the hub closes.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warnw("WebSocket upgrade failed", "error", err)
		return
	}

	sessionID := r.URL.Query().Get("session_id")
	if sessionID == "" {
		sessionID = uuid.New().String()
	}

	s := &session{
		id:   sessionID,
		conn: conn,
		send: make(chan []byte, h.sendBuffer),
		done: make(chan struct{}),
	}

	if err := conn.WriteJSON(Frame{Type: FrameConnected, SessionID: sessionID}); err != nil {
		h.logger.Warnw("Failed to send connected frame", "session_id", sessionID, "error", err)
		conn.Close()
		return
	}

	if !h.attach(s) {
		conn.Close()
		return
	}
	defer h.detach(s)

	go h.writeLoop(s)
	h.readLoop(s)
}

func (h *Hub) attach(s *session) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return false
	}
	if old, ok := h.sessions[s.id]; ok {
		old.close()
	}
	h.sessions[s.id] = s
	metrics.BoundarySessionsActive.Set(float64(len(h.sessions)))
	h.logger.Infow("Host attached", "session_id", s.id, "sessions", len(h.sessions))
	return true
}

func (h *Hub) detach(s *session) {
	s.close()

	h.mu.Lock()
	defer h.mu.Unlock()

	if cur, ok := h.sessions[s.id]; ok && cur == s {
		delete(h.sessions, s.id)
	}
	metrics.BoundarySessionsActive.Set(float64(len(h.sessions)))
	h.logger.Infow("Host detached", "session_id", s.id, "sessions", len(h.sessions))
}

func (h *Hub) readLoop(s *session) {
	s.conn.SetReadLimit(64 * 1024)
	_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Warnw("Host connection closed unexpectedly", "session_id", s.id, "error", err)
			}
			return
		}

		var frame Frame
		if err := json.Unmarshal(data, &frame); err != nil {
			h.logger.Debugw("Ignoring malformed host frame", "session_id", s.id, "error", err)
			continue
		}
		if frame.Type == FrameAck {
			h.logger.Debugw("Host acknowledged", "session_id", s.id, "method", frame.Method)
		}
	}
}

func (h *Hub) writeLoop(s *session) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case payload := <-s.send:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				h.logger.Warnw("Failed to write to host", "session_id", s.id, "error", err)
				s.close()
				return
			}
		case <-ticker.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				s.close()
				return
			}
		}
	}
}

// Close detaches every host; the hub refuses new hosts afterwards.
func (h *Hub) Close() error {
	h.mu.Lock()
	h.closed = true
	sessions := make([]*session, 0, len(h.sessions))
	for _, s := range h.sessions {
		sessions = append(sessions, s)
	}
	h.mu.Unlock()

	for _, s := range sessions {
		_ = s.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "capture service stopping"),
			time.Now().Add(time.Second))
		s.close()
	}
	return nil
}
