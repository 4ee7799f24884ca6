package live

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/homeroomhq/homeroom/internal/codec"
	"github.com/rs/zerolog"
)

type SubscribeOption func(*subscribeOptions)

type subscribeOptions struct {
	header  http.Header
	logger  zerolog.Logger
	timeout time.Duration
}

// WithAuthToken sends a bearer token with the handshake.
func WithAuthToken(token string) SubscribeOption {
	return func(o *subscribeOptions) {
		if token != "" {
			o.header.Set("Authorization", "Bearer "+token)
		}
	}
}

func WithLogger(logger zerolog.Logger) SubscribeOption {
	return func(o *subscribeOptions) {
		o.logger = logger
	}
}

func WithHandshakeTimeout(d time.Duration) SubscribeOption {
	return func(o *subscribeOptions) {
		o.timeout = d
	}
}

// Subscription is a client connection to a Hub.
type Subscription struct {
	conn   *websocket.Conn
	logger zerolog.Logger
	ch     chan Notification
	done   chan struct{}

	closeOnce sync.Once
	writeLock sync.Mutex
	mu        sync.Mutex
	err       error
}

// Subscribe connects to the hub at url (see URL). The subscription ends when
// ctx is cancelled, Close is called or the server goes away; the channel
// returned by Notifications is closed then.
func Subscribe(ctx context.Context, url string, opts ...SubscribeOption) (*Subscription, error) {
	o := subscribeOptions{header: make(http.Header), logger: zerolog.Nop(), timeout: 10 * time.Second}
	for _, opt := range opts {
		opt(&o)
	}

	dialer := websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: o.timeout,
	}
	conn, resp, err := dialer.DialContext(ctx, url, o.header)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return nil, err
	}

	s := &Subscription{
		conn:   conn,
		logger: o.logger,
		ch:     make(chan Notification, sendBuffer),
		done:   make(chan struct{}),
	}
	go s.readLoop()
	go func() {
		select {
		case <-ctx.Done():
			_ = s.Close()
		case <-s.done:
		}
	}()
	return s, nil
}

func (s *Subscription) Notifications() <-chan Notification {
	return s.ch
}

// Err reports why the subscription ended. It is nil while the subscription
// is open and after a normal close.
func (s *Subscription) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *Subscription) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.done)
		s.writeLock.Lock()
		err = s.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
		s.writeLock.Unlock()
		if cerr := s.conn.Close(); err == nil {
			err = cerr
		}
		if errors.Is(err, websocket.ErrCloseSent) {
			err = nil
		}
	})
	return err
}

func (s *Subscription) readLoop() {
	defer close(s.ch)

	s.conn.SetPingHandler(func(data string) error {
		s.writeLock.Lock()
		defer s.writeLock.Unlock()
		return s.conn.WriteControl(websocket.PongMessage, []byte(data), time.Now().Add(writeWait))
	})

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			select {
			case <-s.done:
			default:
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					s.mu.Lock()
					s.err = err
					s.mu.Unlock()
				}
				_ = s.Close()
			}
			return
		}

		var n Notification
		if err := codec.JSON.Unmarshal(data, &n); err != nil {
			s.logger.Warn().Err(err).Msg("discarding malformed live notification")
			continue
		}

		select {
		case s.ch <- n:
		case <-s.done:
			return
		}
	}
}
