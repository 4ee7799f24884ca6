package live

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/homeroomhq/homeroom/internal/codec"
	"github.com/rs/zerolog"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4 << 10
	sendBuffer     = 64
)

// Hub fans notifications out to every connected subscriber. A subscriber
// that cannot keep up is disconnected rather than slowing down publishers.
type Hub struct {
	logger   zerolog.Logger
	upgrader websocket.Upgrader

	mu     sync.RWMutex
	peers  map[*peer]struct{}
	closed bool
}

func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		peers: make(map[*peer]struct{}),
	}
}

// Publish queues n for every subscriber.
func (h *Hub) Publish(n Notification) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return ErrClosed
	}
	for p := range h.peers {
		select {
		case p.send <- n:
		default:
			h.logger.Warn().Str("remote", p.remote).Msg("dropping slow live subscriber")
			h.drop(p)
		}
	}
	return nil
}

// Len reports the number of connected subscribers.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.peers)
}

// Close disconnects every subscriber and rejects further publishes.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for p := range h.peers {
		h.drop(p)
	}
}

func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already replied with an error status.
		h.logger.Debug().Err(err).Msg("live upgrade failed")
		return
	}

	p := &peer{hub: h, conn: conn, remote: r.RemoteAddr, send: make(chan Notification, sendBuffer)}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"), time.Now().Add(writeWait))
		_ = conn.Close()
		return
	}
	h.peers[p] = struct{}{}
	count := len(h.peers)
	h.mu.Unlock()
	h.logger.Debug().Str("remote", p.remote).Int("subscribers", count).Msg("live subscriber connected")

	go p.writePump()
	go p.readPump()
}

func (h *Hub) unregister(p *peer) {
	h.mu.Lock()
	h.drop(p)
	count := len(h.peers)
	h.mu.Unlock()
	h.logger.Debug().Str("remote", p.remote).Int("subscribers", count).Msg("live subscriber disconnected")
}

// drop removes p and closes its queue. Callers hold mu.
func (h *Hub) drop(p *peer) {
	if _, ok := h.peers[p]; ok {
		delete(h.peers, p)
		close(p.send)
	}
}

type peer struct {
	hub    *Hub
	conn   *websocket.Conn
	remote string
	send   chan Notification
}

// readPump only watches for the connection going away; subscribers do not
// send anything but control frames.
func (p *peer) readPump() {
	defer func() {
		p.hub.unregister(p)
		_ = p.conn.Close()
	}()

	p.conn.SetReadLimit(maxMessageSize)
	_ = p.conn.SetReadDeadline(time.Now().Add(pongWait))
	p.conn.SetPongHandler(func(string) error {
		return p.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := p.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				p.hub.logger.Debug().Err(err).Str("remote", p.remote).Msg("live subscriber read failed")
			}
			return
		}
	}
}

func (p *peer) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = p.conn.Close()
	}()

	for {
		select {
		case n, ok := <-p.send:
			_ = p.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = p.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
				return
			}
			data, err := codec.JSON.Marshal(n)
			if err != nil {
				p.hub.logger.Error().Err(err).Msg("encode live notification")
				continue
			}
			if err := p.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				p.hub.logger.Debug().Err(err).Str("remote", p.remote).Msg("live write failed")
				return
			}
		case <-ticker.C:
			_ = p.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := p.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
