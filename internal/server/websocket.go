package server

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/lormic/ecomax360/internal/poller"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The monitor serves a local dashboard; cross-origin browsers are
	// fine.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// handleWebSocket upgrades the connection and streams snapshots to the
// peer: the latest one immediately, then every update the poller publishes.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed",
			zap.String("remote_addr", r.RemoteAddr),
			zap.Error(err),
		)
		return
	}

	s.log.Info("websocket client connected", zap.String("remote_addr", r.RemoteAddr))

	updates, cancel := s.poller.Subscribe()

	go s.writeSnapshots(conn, r.RemoteAddr, updates, cancel)
	go s.readUntilClose(conn, r.RemoteAddr)
}

// writeSnapshots owns the write side: snapshots and periodic pings.
func (s *Server) writeSnapshots(conn *websocket.Conn, remoteAddr string, updates <-chan poller.Snapshot, cancel func()) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		cancel()
		conn.Close()
		s.log.Info("websocket client disconnected", zap.String("remote_addr", remoteAddr))
	}()

	// Send the current state up front so the client does not wait a full
	// poll interval for its first frame.
	if snapshot := s.poller.Snapshot(); !snapshot.UpdatedAt.IsZero() {
		if err := writeSnapshot(conn, snapshot); err != nil {
			return
		}
	}

	for {
		select {
		case snapshot, ok := <-updates:
			if !ok {
				return
			}
			if err := writeSnapshot(conn, snapshot); err != nil {
				s.log.Debug("websocket write failed",
					zap.String("remote_addr", remoteAddr),
					zap.Error(err),
				)
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func writeSnapshot(conn *websocket.Conn, snapshot poller.Snapshot) error {
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(snapshot)
}

// readUntilClose drains the read side so close frames and pongs are
// processed; the stream is push-only and inbound data is discarded.
func (s *Server) readUntilClose(conn *websocket.Conn, remoteAddr string) {
	conn.SetReadLimit(512)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.log.Debug("websocket read error",
					zap.String("remote_addr", remoteAddr),
					zap.Error(err),
				)
			}
			conn.Close()
			return
		}
	}
}
