package ws

import (
	"net/http"
	"sync"
	"time"

	"CandleScope/internal/domain/models"
	domrepo "CandleScope/internal/domain/repository"
	xhttp "CandleScope/pkg/http"
	applogger "CandleScope/pkg/logger"

	json "github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

const (
	writeWait    = 10 * time.Second
	pongWait     = 60 * time.Second
	pingPeriod   = pongWait * 9 / 10
	sendBuffer   = 16
	maxReadBytes = 512
)

// SnapshotSource resolves a session id to its current snapshot. Lookups
// keep the session alive.
type SnapshotSource interface {
	SnapshotOf(id string) (*models.Snapshot, bool)
}

// SubscriberGauge tracks open subscriptions.
type SubscriberGauge interface {
	AddSubscribers(delta int)
}

type message struct {
	Type string           `json:"type"`
	Data *models.Snapshot `json:"data"`
}

type client struct {
	conn *websocket.Conn
	out  chan *models.Snapshot
	done chan struct{}
	once sync.Once
}

func (c *client) close() {
	c.once.Do(func() { close(c.done) })
}

// Hub fans session snapshots out to every page subscribed to that session.
// A subscriber that cannot keep up misses intermediate snapshots; the next
// one it receives is always complete.
type Hub struct {
	mu       sync.RWMutex
	subs     map[string]map[*client]struct{}
	sessions SnapshotSource
	gauge    SubscriberGauge
	upgrader websocket.Upgrader
	l        *applogger.Logger
}

func NewHub(sessions SnapshotSource, gauge SubscriberGauge, l *applogger.Logger) *Hub {
	if l == nil {
		l = applogger.Nop()
	}
	return &Hub{
		subs:     make(map[string]map[*client]struct{}),
		sessions: sessions,
		gauge:    gauge,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		l: l,
	}
}

// SetSessions wires the snapshot source after construction; the source
// itself publishes through the hub.
func (h *Hub) SetSessions(s SnapshotSource) { h.sessions = s }

func (h *Hub) RegisterRoutes(e *echo.Echo) {
	e.GET("/ws/sessions/:id", h.Serve)
}

// Publish implements domrepo.SnapshotPublisher.
func (h *Hub) Publish(sessionID string, snap *models.Snapshot) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.subs[sessionID] {
		select {
		case c.out <- snap:
		default:
			h.l.Debug("ws subscriber lagging, snapshot dropped",
				applogger.String("session", sessionID),
				applogger.Uint64("version", snap.Version))
		}
	}
}

// Subscribers returns how many pages follow sessionID.
func (h *Hub) Subscribers(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[sessionID])
}

func (h *Hub) add(id string, c *client) {
	h.mu.Lock()
	set, ok := h.subs[id]
	if !ok {
		set = make(map[*client]struct{})
		h.subs[id] = set
	}
	set[c] = struct{}{}
	h.mu.Unlock()
	if h.gauge != nil {
		h.gauge.AddSubscribers(1)
	}
}

func (h *Hub) remove(id string, c *client) {
	h.mu.Lock()
	if set, ok := h.subs[id]; ok {
		delete(set, c)
		if len(set) == 0 {
			delete(h.subs, id)
		}
	}
	h.mu.Unlock()
	if h.gauge != nil {
		h.gauge.AddSubscribers(-1)
	}
}

// Serve upgrades the request and streams snapshots of one session until the
// page goes away or the session expires.
func (h *Hub) Serve(c echo.Context) error {
	req := &models.SessionRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if _, ok := h.sessions.SnapshotOf(req.ID); !ok {
		return xhttp.AppErrorResponse(c, xhttp.NotFoundErrorf("session %s not found", req.ID))
	}

	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		h.l.Warn("websocket upgrade failed", applogger.Error(err))
		return nil
	}

	cl := &client{
		conn: conn,
		out:  make(chan *models.Snapshot, sendBuffer),
		done: make(chan struct{}),
	}
	// subscribe before reading the current state so nothing published in
	// between is missed; the page ignores versions it already has
	h.add(req.ID, cl)
	defer h.remove(req.ID, cl)

	snap, ok := h.sessions.SnapshotOf(req.ID)
	if !ok {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "session expired"),
			time.Now().Add(writeWait))
		_ = conn.Close()
		return nil
	}
	select {
	case cl.out <- snap:
	default:
	}

	go h.writeLoop(req.ID, cl)
	h.readLoop(cl)
	return nil
}

func (h *Hub) writeLoop(id string, cl *client) {
	ping := time.NewTicker(pingPeriod)
	defer func() {
		ping.Stop()
		_ = cl.conn.Close()
	}()
	for {
		select {
		case snap := <-cl.out:
			_ = cl.conn.SetWriteDeadline(time.Now().Add(writeWait))
			b, err := json.Marshal(message{Type: "snapshot", Data: snap})
			if err != nil {
				h.l.Error("encode snapshot", applogger.String("session", id), applogger.Error(err))
				continue
			}
			if err := cl.conn.WriteMessage(websocket.TextMessage, b); err != nil {
				cl.close()
				return
			}
		case <-ping.C:
			if _, ok := h.sessions.SnapshotOf(id); !ok {
				_ = cl.conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "session expired"),
					time.Now().Add(writeWait))
				cl.close()
				return
			}
			if err := cl.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				cl.close()
				return
			}
		case <-cl.done:
			return
		}
	}
}

// readLoop only drains control frames; pages never send data.
func (h *Hub) readLoop(cl *client) {
	defer cl.close()
	cl.conn.SetReadLimit(maxReadBytes)
	_ = cl.conn.SetReadDeadline(time.Now().Add(pongWait))
	cl.conn.SetPongHandler(func(string) error {
		return cl.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := cl.conn.ReadMessage(); err != nil {
			return
		}
	}
}

var _ domrepo.SnapshotPublisher = (*Hub)(nil)
