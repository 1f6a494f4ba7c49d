package tinder

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// DefaultKeepaliveInterval is how often the gateway keepalive frame is sent.
const DefaultKeepaliveInterval = 30 * time.Second

// keepaliveFrame is the binary ping the gateway expects.
var keepaliveFrame = []byte{0x2a, 0x00}

// wsConn is the subset of *websocket.Conn the gateway uses.
type wsConn interface {
	ReadMessage() (int, []byte, error)
	WriteMessage(messageType int, data []byte) error
	WriteControl(messageType int, data []byte, deadline time.Time) error
	Close() error
}

// Gateway is a connection to the realtime push gateway. Frames are delivered
// raw; decoding them is left to the caller.
type Gateway struct {
	client   *Client
	dialer   *websocket.Dialer
	interval time.Duration
}

// GatewayOption configures a Gateway.
type GatewayOption func(*Gateway)

// WithKeepaliveInterval overrides the keepalive period.
func WithKeepaliveInterval(d time.Duration) GatewayOption {
	return func(g *Gateway) {
		if d > 0 {
			g.interval = d
		}
	}
}

// WithDialer sets the websocket dialer.
func WithDialer(d *websocket.Dialer) GatewayOption {
	return func(g *Gateway) {
		if d != nil {
			g.dialer = d
		}
	}
}

// Gateway returns a realtime gateway bound to the client's credentials.
func (c *Client) Gateway(opts ...GatewayOption) *Gateway {
	g := &Gateway{
		client: c,
		dialer: &websocket.Dialer{
			HandshakeTimeout: 30 * time.Second,
			Proxy:            http.ProxyFromEnvironment,
		},
		interval: DefaultKeepaliveInterval,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Run obtains a gateway token, connects and sends frames received from the
// gateway on frames until ctx is done or the connection fails. It returns
// ctx.Err() after a clean shutdown.
func (g *Gateway) Run(ctx context.Context, frames chan<- []byte) error {
	token, err := g.client.GatewayToken(ctx)
	if err != nil {
		return err
	}

	target, err := gatewayURL(g.client.config.GatewayURL, token)
	if err != nil {
		return err
	}

	headers := http.Header{}
	headers.Set("User-Agent", g.client.config.UserAgent)
	conn, resp, err := g.dialer.DialContext(ctx, target, headers)
	if err != nil {
		if resp != nil {
			return fmt.Errorf("tinder: gateway handshake: status %d: %w", resp.StatusCode, err)
		}
		return fmt.Errorf("tinder: gateway dial: %w", err)
	}
	return g.serve(ctx, conn, frames)
}

func (g *Gateway) serve(parent context.Context, conn wsConn, frames chan<- []byte) error {
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	var writeMu sync.Mutex
	write := func(data []byte) error {
		writeMu.Lock()
		defer writeMu.Unlock()
		return conn.WriteMessage(websocket.BinaryMessage, data)
	}

	keepaliveErr := make(chan error, 1)
	go func() {
		err := g.keepalive(ctx, write)
		if err != nil {
			cancel()
		}
		keepaliveErr <- err
	}()

	// Closing the connection is the only way to unblock ReadMessage.
	stop := context.AfterFunc(ctx, func() {
		writeMu.Lock()
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		writeMu.Unlock()
		_ = conn.Close()
	})
	defer stop()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			cancel()
			kerr := <-keepaliveErr
			if perr := parent.Err(); perr != nil {
				return perr
			}
			if kerr != nil && !errors.Is(kerr, context.Canceled) {
				return fmt.Errorf("tinder: gateway keepalive: %w", kerr)
			}
			return fmt.Errorf("tinder: gateway read: %w", err)
		}
		select {
		case frames <- data:
		case <-ctx.Done():
		}
	}
}

func (g *Gateway) keepalive(ctx context.Context, write func([]byte) error) error {
	ticker := time.NewTicker(g.interval)
	defer ticker.Stop()
	for {
		if err := write(keepaliveFrame); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func gatewayURL(base, token string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("tinder: invalid gateway URL: %w", err)
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()
	return u.String(), nil
}
