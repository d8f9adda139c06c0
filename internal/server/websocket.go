package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/buffer-dashboard/internal/dashboard"
)

// WebSocketConfig holds connection timing and limits.
type WebSocketConfig struct {
	WriteWait      time.Duration
	PongWait       time.Duration
	PingPeriod     time.Duration
	MaxMessageSize int64
}

// DefaultWebSocketConfig returns the connection defaults.
func DefaultWebSocketConfig() WebSocketConfig {
	return WebSocketConfig{
		WriteWait:      10 * time.Second,
		PongWait:       60 * time.Second,
		PingPeriod:     (60 * time.Second * 9) / 10,
		MaxMessageSize: 64 * 1024,
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 64 * 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// errorFrame is sent in place of a reply when an event is rejected.
type errorFrame struct {
	Section dashboard.SectionName `json:"section,omitempty"`
	Error   string                `json:"error"`
}

// handleWebSocket runs one session per connection. Events are read and
// handled one at a time on this goroutine; replies are written in order.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close() //nolint:errcheck

	session := dashboard.NewSession(s.dash)
	log := s.log.With(zap.String("session", session.ID))
	log.Info("websocket session opened")
	defer log.Info("websocket session closed")

	conn.SetReadLimit(s.ws.MaxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(s.ws.PongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(s.ws.PongWait))
	})

	done := make(chan struct{})
	defer close(done)
	go s.pingLoop(conn, done)

	initial, err := session.Initial()
	if err != nil {
		log.Error("initial render failed", zap.Error(err))
		_ = s.write(conn, errorFrame{Error: "internal error"})
		return
	}
	for _, reply := range initial {
		if err := s.write(conn, reply); err != nil {
			return
		}
	}

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn("websocket read failed", zap.Error(err))
			}
			return
		}

		var ev dashboard.Event
		if err := json.Unmarshal(data, &ev); err != nil {
			log.Debug("undecodable event", zap.Error(err))
			if werr := s.write(conn, errorFrame{Error: "invalid event"}); werr != nil {
				return
			}
			continue
		}

		reply, err := session.Handle(ev)
		if err != nil {
			if statusFor(err) >= http.StatusInternalServerError && !isEventError(err) {
				log.Error("event failed", zap.String("section", string(ev.Section)), zap.Error(err))
			}
			if werr := s.write(conn, errorFrame{Section: ev.Section, Error: eventErrorText(err)}); werr != nil {
				return
			}
			continue
		}
		if err := s.write(conn, reply); err != nil {
			return
		}
	}
}

func (s *Server) write(conn *websocket.Conn, v any) error {
	_ = conn.SetWriteDeadline(time.Now().Add(s.ws.WriteWait))
	if err := conn.WriteJSON(v); err != nil {
		return eris.Wrap(err, "server: websocket write")
	}
	return nil
}

// pingLoop keeps the connection alive. WriteControl may run concurrently
// with the reader's writes.
func (s *Server) pingLoop(conn *websocket.Conn, done <-chan struct{}) {
	ticker := time.NewTicker(s.ws.PingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(s.ws.WriteWait)); err != nil {
				return
			}
		}
	}
}

// isEventError reports malformed events, which are the client's fault.
func isEventError(err error) bool {
	return eris.Is(err, dashboard.ErrUnknownSection) || eris.Is(err, dashboard.ErrInvalidEvent)
}

func eventErrorText(err error) string {
	if eris.Is(err, dashboard.ErrInvalidEvent) {
		return "invalid event"
	}
	return errorText(err)
}
