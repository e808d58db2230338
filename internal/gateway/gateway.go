// Package gateway hosts the WebSocket upgrade endpoint: one connection
// per notebook session, bridging client JSON messages to a
// coordinator.Coordinator and the coordinator's ServerEvent stream back
// to the client (spec.md §1 "Isolation", §6 "Wire protocol").
package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/carter293/Carter-Querio-notebook-sub004/internal/coordinator"
	"github.com/carter293/Carter-Querio-notebook-sub004/internal/logger"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 1 << 20 // cell source can be large; generous over the teacher's 512B default
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// SessionFactory builds (or attaches to) the Coordinator backing
// notebookID's session and returns a cleanup func that tears down the
// coordinator's kernel when the connection closes.
type SessionFactory func(ctx context.Context, notebookID string) (*coordinator.Coordinator, func(), error)

// Handler upgrades authenticated HTTP requests to WebSocket connections,
// one per notebook session.
type Handler struct {
	auth    Authenticator
	factory SessionFactory
	log     *logger.Logger
}

// NewHandler returns a Handler using auth to resolve the notebook id and
// factory to obtain that notebook's Coordinator.
func NewHandler(auth Authenticator, factory SessionFactory, log *logger.Logger) *Handler {
	return &Handler{auth: auth, factory: factory, log: log}
}

// ServeHTTP authenticates the request, resolves the notebook's
// coordinator, upgrades the connection, and runs its pumps until the
// client disconnects.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	notebookID, err := h.auth.Authenticate(r)
	if err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	coord, cleanup, err := h.factory(ctx, notebookID)
	if err != nil {
		cancel()
		h.log.Error("session factory failed", "notebook_id", notebookID, "error", err)
		http.Error(w, "could not start session", http.StatusInternalServerError)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		cancel()
		cleanup()
		h.log.Error("websocket upgrade failed", "notebook_id", notebookID, "error", err)
		return
	}

	sess := &session{
		id:          uuid.New().String(),
		notebookID:  notebookID,
		conn:        conn,
		coordinator: coord,
		log:         h.log,
		cancel: func() {
			cancel()
			cleanup()
		},
	}

	h.log.Info("websocket session connected", "session_id", sess.id, "notebook_id", notebookID)

	done := make(chan struct{})
	go sess.writePump(done)
	sess.readPump(done)
}

// session is one client's live WebSocket connection, bound to exactly one
// Coordinator for the lifetime of the connection.
type session struct {
	id          string
	notebookID  string
	conn        *websocket.Conn
	coordinator *coordinator.Coordinator
	log         *logger.Logger
	cancel      func()
}

// readPump decodes inbound ClientMessages and dispatches them to the
// coordinator until the connection closes, then signals writePump via
// done and tears down the session's kernel.
func (s *session) readPump(done chan struct{}) {
	defer func() {
		close(done)
		s.cancel()
		s.conn.Close()
		s.log.Info("websocket session closed", "session_id", s.id, "notebook_id", s.notebookID)
	}()

	s.conn.SetReadLimit(maxMessageSize)
	s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		s.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	ctx := context.Background()
	for {
		_, raw, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				s.log.Warn("websocket unexpected close", "session_id", s.id, "error", err)
			}
			return
		}

		var msg ClientMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			s.log.Warn("dropped malformed client message", "session_id", s.id, "error", err)
			continue
		}
		s.dispatch(ctx, msg)
	}
}

// dispatch routes one decoded ClientMessage to the matching Coordinator
// method, per spec.md §6's client-to-server command set.
func (s *session) dispatch(ctx context.Context, msg ClientMessage) {
	switch msg.Type {
	case CmdAuthenticate:
		s.coordinator.Authenticate(ctx)
	case CmdCellUpdate:
		s.coordinator.CellUpdate(ctx, msg.CellID, msg.Code)
	case CmdCreateCell:
		s.coordinator.CreateCell(ctx, msg.CellType, msg.AfterCellID)
	case CmdDeleteCell:
		s.coordinator.DeleteCell(ctx, msg.CellID)
	case CmdRunCell:
		s.coordinator.RunCell(ctx, msg.CellID)
	case CmdUpdateDBConnection:
		s.coordinator.UpdateDBConnection(ctx, msg.ConnectionString)
	default:
		s.log.Warn("unknown client message type", "session_id", s.id, "type", msg.Type)
	}
}

// writePump subscribes to the coordinator's event stream and forwards
// every ServerEvent to the client as JSON, with a ping keepalive.
func (s *session) writePump(done <-chan struct{}) {
	id, events := s.coordinator.Events().Subscribe()
	defer s.coordinator.Events().Unsubscribe(id)

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case event := <-events:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteJSON(event); err != nil {
				return
			}
		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
