package runs

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"equitydesk/internal/agents/workflows"
	"equitydesk/internal/domain/run"
	"equitydesk/internal/metrics"
	"equitydesk/internal/services/research"
)

const (
	streamWriteTimeout   = 10 * time.Second
	streamRequestTimeout = 30 * time.Second
)

// Stream message types
const (
	MessageProgress = "progress"
	MessageResult   = "result"
)

// StreamMessage is one frame sent to a stream client
type StreamMessage struct {
	Type    string                   `json:"type"`
	Event   *workflows.ProgressEvent `json:"event,omitempty"`
	Outcome *research.Outcome        `json:"outcome,omitempty"`
	Error   string                   `json:"error,omitempty"`
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	// The API has no browser session to protect
	CheckOrigin: func(r *http.Request) bool { return true },
}

// streamConn serialises writes; gorilla connections allow one writer at a time
type streamConn struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (s *streamConn) send(msg StreamMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.conn.SetWriteDeadline(time.Now().Add(streamWriteTimeout)); err != nil {
		return err
	}
	return s.conn.WriteJSON(msg)
}

func (s *streamConn) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = s.conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(streamWriteTimeout),
	)
}

// HandleStream upgrades to a websocket, reads one run request and streams
// progress events followed by the final outcome. A client disconnect cancels
// the run.
func (h *Handler) HandleStream(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warnw("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	metrics.WebSocketConnections.Inc()
	defer metrics.WebSocketConnections.Dec()

	conn.SetReadLimit(maxBodyBytes)
	_ = conn.SetReadDeadline(time.Now().Add(streamRequestTimeout))
	_, payload, err := conn.ReadMessage()
	if err != nil {
		h.log.Debugw("stream client sent no request", "error", err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.runTimeout)
	defer cancel()

	// The only other reader; it exits when the connection closes
	go func() {
		_ = conn.SetReadDeadline(time.Time{})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				cancel()
				return
			}
		}
	}()

	stream := &streamConn{conn: conn}
	sink := func(e workflows.ProgressEvent) {
		if err := stream.send(StreamMessage{Type: MessageProgress, Event: &e}); err != nil {
			h.log.Debugw("dropping progress event", "stage", e.Stage, "error", err)
		}
	}

	outcome, err := h.svc.RunTrigger(ctx, h.defaults(), requestPayload(payload), run.TriggerAPI, sink)
	msg := StreamMessage{Type: MessageResult, Outcome: outcome}
	if err != nil {
		msg.Error = err.Error()
	}
	if err := stream.send(msg); err != nil {
		h.log.Warnw("failed to deliver run outcome", "error", err)
		return
	}
	stream.close()
}
