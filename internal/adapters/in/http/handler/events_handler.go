// internal/adapters/in/http/handler/events_handler.go
package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"b7pizza/internal/platform/logging"
	"b7pizza/internal/platform/session"
)

const (
	eventBuffer  = 32
	writeTimeout = 5 * time.Second
	pongTimeout  = 60 * time.Second
	pingInterval = 25 * time.Second
)

// EventsHandler streams the session's cart and auth changes over a websocket.
// The client receives the current cart and auth state right after connecting.
type EventsHandler struct {
	upgrader websocket.Upgrader
	log      *zap.Logger
}

// NewEventsHandler accepts connections from origins; "*" or an empty list
// allows any origin.
func NewEventsHandler(origins []string, log *zap.Logger) *EventsHandler {
	if log == nil {
		log = zap.NewNop()
	}
	allowed := map[string]bool{}
	allowAll := len(origins) == 0
	for _, o := range origins {
		o = strings.TrimRight(strings.TrimSpace(o), "/")
		if o == "*" {
			allowAll = true
		}
		allowed[strings.ToLower(o)] = true
	}
	return &EventsHandler{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if allowAll || origin == "" {
					return true
				}
				return allowed[strings.ToLower(strings.TrimRight(origin, "/"))]
			},
		},
		log: log.Named("events"),
	}
}

// ServeHTTP handles GET /api/events.
func (h *EventsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	sf, ok := storefront(w, r)
	if !ok {
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Debug("upgrade failed", zap.Error(err))
		return
	}
	log := h.log.With(zap.String("session", logging.MaskID(sf.ID())))

	events := make(chan session.Event, eventBuffer)
	unsubscribe := sf.Subscribe(func(e session.Event) {
		select {
		case events <- e:
		default:
			log.Warn("event dropped: client too slow", zap.String("type", e.Type))
		}
	})

	done := make(chan struct{})
	go h.readLoop(conn, done)

	cart := sf.Cart().View()
	auth := sf.AuthView()
	initial := []session.Event{
		{Type: session.EventCart, Cart: &cart},
		{Type: session.EventAuth, Auth: &auth},
	}

	defer func() {
		unsubscribe()
		_ = conn.Close()
	}()

	for _, e := range initial {
		if err := writeEvent(conn, e); err != nil {
			return
		}
	}

	ping := time.NewTicker(pingInterval)
	defer ping.Stop()

	for {
		select {
		case <-done:
			return
		case <-r.Context().Done():
			return
		case e := <-events:
			if err := writeEvent(conn, e); err != nil {
				log.Debug("write failed", zap.Error(err))
				return
			}
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout)); err != nil {
				return
			}
		}
	}
}

// readLoop drains client frames so control messages are processed, and
// closes done when the peer goes away.
func (h *EventsHandler) readLoop(conn *websocket.Conn, done chan<- struct{}) {
	defer close(done)
	_ = conn.SetReadDeadline(time.Now().Add(pongTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongTimeout))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Debug("read failed", zap.Error(err))
			}
			return
		}
	}
}

func writeEvent(conn *websocket.Conn, e session.Event) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return conn.WriteJSON(e)
}
