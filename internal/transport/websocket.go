// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package transport

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const writeWait = 5 * time.Second

// =============================================================================
// OPTIONS
// =============================================================================

// Options configures a WebSocketDialer.
type Options struct {
	// HandshakeTimeout bounds the opening handshake (default: 10s)
	HandshakeTimeout time.Duration

	// PingInterval is the keepalive period; 0 disables pings.
	PingInterval time.Duration

	// ReadTimeout is how long the connection may stay silent. Each pong
	// extends it. 0 disables the deadline.
	ReadTimeout time.Duration

	// MaxMessageBytes limits inbound frames (default: 1MB)
	MaxMessageBytes int64

	// Header is sent with the handshake request.
	Header http.Header

	Logger *zap.Logger
}

// =============================================================================
// DIALER
// =============================================================================

// WebSocketDialer dials relay connections over WebSocket.
type WebSocketDialer struct {
	opts   Options
	dialer *websocket.Dialer
	log    *zap.Logger
}

// NewWebSocketDialer returns a dialer with opts, filling defaults.
func NewWebSocketDialer(opts Options) *WebSocketDialer {
	if opts.HandshakeTimeout <= 0 {
		opts.HandshakeTimeout = 10 * time.Second
	}
	if opts.MaxMessageBytes <= 0 {
		opts.MaxMessageBytes = 1 << 20
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &WebSocketDialer{
		opts: opts,
		dialer: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: opts.HandshakeTimeout,
			ReadBufferSize:   1024,
			WriteBufferSize:  1024,
		},
		log: log.Named("transport"),
	}
}

// Dial opens a connection to target.
func (d *WebSocketDialer) Dial(ctx context.Context, target string) (Conn, error) {
	d.log.Debug("dialing", zap.String("target", target))

	ws, resp, err := d.dialer.DialContext(ctx, target, d.opts.Header)
	if err != nil {
		if resp != nil {
			err = fmt.Errorf("%w (HTTP %d)", err, resp.StatusCode)
		}
		d.log.Warn("dial failed", zap.String("target", target), zap.Error(err))
		return nil, fmt.Errorf("dial %s: %w", target, err)
	}

	c := &wsConn{
		ws:   ws,
		opts: d.opts,
		log:  d.log,
		done: make(chan struct{}),
	}
	c.configure()
	if d.opts.PingInterval > 0 {
		go c.keepalive()
	}
	d.log.Info("connected", zap.String("target", target))
	return c, nil
}

// =============================================================================
// CONNECTION
// =============================================================================

type wsConn struct {
	ws   *websocket.Conn
	opts Options
	log  *zap.Logger

	writeMu   sync.Mutex
	closeOnce sync.Once
	done      chan struct{}
}

func (c *wsConn) configure() {
	c.ws.SetReadLimit(c.opts.MaxMessageBytes)
	if c.opts.ReadTimeout > 0 {
		_ = c.ws.SetReadDeadline(time.Now().Add(c.opts.ReadTimeout))
		c.ws.SetPongHandler(func(string) error {
			return c.ws.SetReadDeadline(time.Now().Add(c.opts.ReadTimeout))
		})
	}
}

// keepalive pings until the connection closes.
func (c *wsConn) keepalive() {
	t := time.NewTicker(c.opts.PingInterval)
	defer t.Stop()
	for {
		select {
		case <-c.done:
			return
		case <-t.C:
			if err := c.ws.WriteControl(websocket.PingMessage, []byte("ping"), time.Now().Add(writeWait)); err != nil {
				c.log.Debug("ping failed", zap.Error(err))
				return
			}
		}
	}
}

func (c *wsConn) ReadMessage() ([]byte, error) {
	for {
		mt, data, err := c.ws.ReadMessage()
		if err != nil {
			return nil, c.readErr(err)
		}
		if mt == websocket.TextMessage || mt == websocket.BinaryMessage {
			return data, nil
		}
	}
}

func (c *wsConn) readErr(err error) error {
	select {
	case <-c.done:
		return ErrClosed
	default:
	}
	if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
		return fmt.Errorf("%w: relay closed the connection", ErrClosed)
	}
	return fmt.Errorf("%w: %v", ErrClosed, err)
}

func (c *wsConn) WriteMessage(data []byte) error {
	select {
	case <-c.done:
		return ErrClosed
	default:
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
	if err := c.ws.WriteMessage(websocket.TextMessage, data); err != nil {
		if errors.Is(err, websocket.ErrCloseSent) {
			return ErrClosed
		}
		return fmt.Errorf("%w: %v", ErrClosed, err)
	}
	return nil
}

// Close sends a close frame and releases the socket.
func (c *wsConn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		_ = c.ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
		err = c.ws.Close()
		c.log.Debug("closed")
	})
	return err
}
