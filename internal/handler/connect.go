// Package handler bridges websocket clients onto SSH framed connections.
// Each text message received is sent as one command packet and answered
// with a single read from the remote stream.
package handler

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/rcarmo/go-minissh/internal/config"
	"github.com/rcarmo/go-minissh/internal/logging"
	"github.com/rcarmo/go-minissh/internal/ssh"
)

const (
	webSocketReadBufferSize  = 8192
	webSocketWriteBufferSize = 8192 * 2
	closeWriteTimeout        = time.Second
)

type sshConn interface {
	Send(command string) error
	Read() (string, error)
}

// Bridge is an http.Handler serving the /connect websocket endpoint.
type Bridge struct {
	cfg      *config.Config
	dialer   ssh.Dialer
	slots    chan struct{}
	upgrader websocket.Upgrader
}

// BridgeOption configures a Bridge.
type BridgeOption func(*Bridge)

// WithDialer replaces the TCP dialer used for outbound SSH streams.
func WithDialer(d ssh.Dialer) BridgeOption {
	return func(b *Bridge) {
		if d != nil {
			b.dialer = d
		}
	}
}

// NewBridge returns a bridge using cfg for default targets, stream timeouts,
// allowed origins and the session limit. A nil cfg uses config.Default.
func NewBridge(cfg *config.Config, opts ...BridgeOption) *Bridge {
	if cfg == nil {
		cfg = config.Default()
	}

	b := &Bridge{
		cfg:    cfg,
		dialer: ssh.TCPDialer(cfg.SSH.ConnectTimeout, cfg.SSH.IOTimeout),
		slots:  make(chan struct{}, cfg.Security.MaxConnections),
	}
	b.upgrader = websocket.Upgrader{
		ReadBufferSize:  webSocketReadBufferSize,
		WriteBufferSize: webSocketWriteBufferSize,
		CheckOrigin: func(r *http.Request) bool {
			return isAllowedOrigin(r.Header.Get("Origin"), cfg.Security.AllowedOrigins)
		},
	}

	for _, opt := range opts {
		opt(b)
	}

	return b
}

func (b *Bridge) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	endpoint, err := b.endpointFromQuery(r.URL.Query())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	select {
	case b.slots <- struct{}{}:
		defer func() { <-b.slots }()
	default:
		http.Error(w, "too many sessions", http.StatusServiceUnavailable)
		return
	}

	wsConn, err := b.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Warn("upgrade websocket: %v", err)
		return
	}

	defer func() {
		if err := wsConn.Close(); err != nil {
			logging.Debug("close websocket: %v", err)
		}
	}()

	id := uuid.NewString()
	conn := ssh.New(endpoint,
		ssh.WithDialer(b.dialer),
		ssh.WithReadBufferSize(b.cfg.SSH.ReadBufferSize),
	)

	logging.Info("session %s: connecting to %s", id, endpoint)
	if err := conn.Connect(); err != nil {
		logging.Error("session %s: %v", id, err)
		closeWebSocket(wsConn, websocket.CloseInternalServerErr, "ssh connect failed")
		return
	}

	defer func() {
		if err := conn.Disconnect(); err != nil {
			logging.Warn("session %s: %v", id, err)
		}
		logging.Info("session %s: closed", id)
	}()

	relay(id, wsConn, conn)
}

func (b *Bridge) endpointFromQuery(q url.Values) (ssh.Endpoint, error) {
	endpoint := ssh.Endpoint{
		Hostname: valueOr(q.Get("host"), b.cfg.SSH.Host),
		Port:     valueOr(q.Get("port"), b.cfg.SSH.Port),
		User:     valueOr(q.Get("user"), b.cfg.SSH.User),
	}

	if err := endpoint.Validate(); err != nil {
		return ssh.Endpoint{}, err
	}

	return endpoint, nil
}

// relay runs the request/response loop until either side goes away.
func relay(id string, wsConn *websocket.Conn, conn sshConn) {
	for {
		_, data, err := wsConn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logging.Warn("session %s: read websocket: %v", id, err)
			}
			return
		}

		logging.Debug("session %s: send %d bytes", id, len(data))
		if err = conn.Send(string(data)); err != nil {
			logging.Error("session %s: %v", id, err)
			closeWebSocket(wsConn, websocket.CloseInternalServerErr, "ssh send failed")
			return
		}

		out, err := conn.Read()
		if err != nil {
			logging.Error("session %s: %v", id, err)
			closeWebSocket(wsConn, websocket.CloseInternalServerErr, "ssh read failed")
			return
		}

		if out == "" {
			logging.Info("session %s: remote closed the stream", id)
			closeWebSocket(wsConn, websocket.CloseNormalClosure, "remote closed")
			return
		}

		if err = wsConn.WriteMessage(websocket.TextMessage, []byte(out)); err != nil {
			if !errors.Is(err, websocket.ErrCloseSent) {
				logging.Warn("session %s: %v", id, fmt.Errorf("write websocket: %w", err))
			}
			return
		}
	}
}

func closeWebSocket(wsConn *websocket.Conn, code int, reason string) {
	msg := websocket.FormatCloseMessage(code, reason)
	if err := wsConn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(closeWriteTimeout)); err != nil {
		logging.Debug("write close frame: %v", err)
	}
}

func valueOr(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

// isAllowedOrigin accepts requests without an Origin header, localhost
// origins, and anything when no allow-list is configured.
func isAllowedOrigin(origin string, allowed []string) bool {
	if origin == "" {
		return true
	}

	normalized := strings.TrimPrefix(strings.TrimPrefix(origin, "http://"), "https://")
	normalized = strings.TrimSuffix(normalized, "/")

	if len(allowed) == 0 {
		return true
	}

	// Always allow localhost-style origins for development, even when a list is provided
	if strings.HasPrefix(normalized, "localhost") || strings.HasPrefix(normalized, "127.0.0.1") {
		return true
	}

	for _, entry := range allowed {
		candidate := strings.TrimSuffix(strings.TrimSpace(entry), "/")
		if candidate == "" {
			continue
		}

		// Support allow-list entries with or without scheme
		if candidate == origin || candidate == normalized {
			return true
		}

		if strings.TrimPrefix(candidate, "http://") == normalized || strings.TrimPrefix(candidate, "https://") == normalized {
			return true
		}
	}

	return false
}
