// Package sim is a development stand-in for Maquette's socket endpoint.
// It answers tools/list and tools/call with the same envelope shapes a
// headless worker produces, backed by an in-memory scene, so the bridge
// and its hosts can be exercised without a real Maquette install.
package sim

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/websocket"

	"github.com/maquettehq/mqbridge/internal/socket"
)

// Server upgrades HTTP requests to WebSocket sessions against one
// shared scene, so edits made on one connection are visible to the
// next. CloseAfter > 0 drops each connection after that many replies,
// which is how reconnect and backoff paths get exercised in dev.
type Server struct {
	handler    *Handler
	closeAfter int
	upgrader   websocket.Upgrader
	logf       func(format string, args ...any)
}

func NewServer(scene *Scene, closeAfter int) *Server {
	return &Server{
		handler:    NewHandler(scene),
		closeAfter: closeAfter,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
		logf: func(format string, args ...any) {
			fmt.Fprintf(os.Stderr, "mqsim: "+format+"\n", args...)
		},
	}
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logf("upgrade from %s: %v", r.RemoteAddr, err)
		return
	}
	defer conn.Close()
	s.logf("client connected from %s", conn.RemoteAddr())

	replies := 0
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if !socket.IsClose(err) {
				s.logf("read from %s: %v", conn.RemoteAddr(), err)
			}
			return
		}
		if err := conn.WriteMessage(websocket.TextMessage, s.handler.HandleMessage(raw)); err != nil {
			s.logf("write to %s: %v", conn.RemoteAddr(), err)
			return
		}
		replies++
		if s.closeAfter > 0 && replies >= s.closeAfter {
			s.logf("dropping %s after %d replies", conn.RemoteAddr(), replies)
			deadline := time.Now().Add(time.Second)
			msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
			conn.WriteControl(websocket.CloseMessage, msg, deadline)
			return
		}
	}
}
