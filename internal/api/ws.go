package api

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/sshsshje/sshsshje/internal/broadcast"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Browsers on any dashboard origin may subscribe; the stream is read-only.
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// wsSubscriber adapts a websocket connection to broadcast.Subscriber.
// Writes are serialized; gorilla allows one concurrent writer.
type wsSubscriber struct {
	id      string
	conn    *websocket.Conn
	timeout time.Duration

	mu        sync.Mutex
	closeOnce sync.Once
}

func (s *wsSubscriber) ID() string { return s.id }

func (s *wsSubscriber) Send(_ context.Context, msg broadcast.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.conn.SetWriteDeadline(time.Now().Add(s.timeout)); err != nil {
		return err
	}
	return s.conn.WriteJSON(msg)
}

func (s *wsSubscriber) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.mu.Lock()
		_ = s.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		s.mu.Unlock()
		err = s.conn.Close()
	})
	return err
}

// serveWS upgrades the connection, registers it, sends the initial snapshot
// and then reads until the client goes away.
func (s *Server) serveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", "error", err)
		return
	}

	sub := &wsSubscriber{id: uuid.NewString(), conn: conn, timeout: s.wsTimeout}
	s.reg.Add(sub)
	defer s.reg.Drop(sub)

	s.loop.Welcome(r.Context(), sub)

	// Inbound frames are ignored; reading is how close frames and dead
	// peers are noticed.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived) {
				s.log.Debug("websocket closed unexpectedly", "subscriber", sub.id, "error", err)
			}
			return
		}
	}
}
