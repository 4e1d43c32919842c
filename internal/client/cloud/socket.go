package cloud

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"nhooyr.io/websocket"
)

const (
	EventAuth     = "auth"
	EventOrderNew = "order:new"
	EventPing     = "ping"
	EventPong     = "pong"
)

// ErrReconnectExhausted is returned by EventStream.Run once MaxAttempts
// consecutive connection attempts have failed.
var ErrReconnectExhausted = errors.New("cloud socket: reconnect attempts exhausted")

type Event struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type OrderNewPayload struct {
	OrderID string `json:"orderId"`
}

// SocketURL maps the API base URL onto the realtime endpoint.
func SocketURL(host string) (string, error) {
	u, err := url.Parse(strings.TrimRight(strings.TrimSpace(host), "/"))
	if err != nil {
		return "", err
	}
	switch strings.ToLower(u.Scheme) {
	case "https", "wss":
		u.Scheme = "wss"
	case "http", "ws":
		u.Scheme = "ws"
	default:
		return "", fmt.Errorf("unsupported cloud url scheme %q", u.Scheme)
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/sync"
	return u.String(), nil
}

type SocketClient struct {
	url    string
	apiKey string
	conn   *websocket.Conn
}

func NewSocketClient(wsURL, apiKey string) *SocketClient {
	return &SocketClient{url: wsURL, apiKey: apiKey}
}

// Connect dials with the key in a header and then sends it again as an
// auth event for servers that only read the first frame.
func (c *SocketClient) Connect(ctx context.Context) error {
	if c == nil {
		return fmt.Errorf("socket client is nil")
	}
	header := http.Header{}
	header.Set(APIKeyHeader, c.apiKey)
	conn, _, err := websocket.Dial(ctx, c.url, &websocket.DialOptions{HTTPHeader: header})
	if err != nil {
		return err
	}
	conn.SetReadLimit(1 << 20)
	c.conn = conn

	auth, err := json.Marshal(map[string]any{
		"event": EventAuth,
		"data":  map[string]string{"apiKey": c.apiKey},
	})
	if err != nil {
		return err
	}
	if err := c.conn.Write(ctx, websocket.MessageText, auth); err != nil {
		_ = c.Close(websocket.StatusInternalError, "auth failed")
		return fmt.Errorf("send auth: %w", err)
	}
	return nil
}

func (c *SocketClient) Close(status websocket.StatusCode, reason string) error {
	if c == nil || c.conn == nil {
		return nil
	}
	return c.conn.Close(status, reason)
}

func (c *SocketClient) Read(ctx context.Context) (Event, []byte, error) {
	if c == nil || c.conn == nil {
		return Event{}, nil, fmt.Errorf("socket not connected")
	}
	_, data, err := c.conn.Read(ctx)
	if err != nil {
		return Event{}, nil, err
	}
	var ev Event
	_ = json.Unmarshal(data, &ev)
	return ev, data, nil
}

func (c *SocketClient) Ping(ctx context.Context) error {
	if c == nil || c.conn == nil {
		return fmt.Errorf("socket not connected")
	}
	return c.conn.Ping(ctx)
}

func (c *SocketClient) respondPong(ctx context.Context) error {
	if c == nil || c.conn == nil {
		return fmt.Errorf("socket not connected")
	}
	return c.conn.Write(ctx, websocket.MessageText, []byte(`{"event":"pong"}`))
}

type EventStreamOptions struct {
	URL               string
	APIKey            string
	DialTimeout       time.Duration
	HeartbeatInterval time.Duration
	PingTimeout       time.Duration
	BackoffMin        time.Duration
	BackoffMax        time.Duration
	// StableAfter is how long a session must last before it resets the
	// attempt counter and the backoff. Defaults to HeartbeatInterval.
	StableAfter time.Duration
	// MaxAttempts caps consecutive failed or short-lived sessions; 0 means
	// unlimited.
	MaxAttempts int
	Logger      *zap.Logger
}

// StreamHandler receives connection state changes and events. Any field
// may be nil.
type StreamHandler struct {
	OnConnected    func()
	OnDisconnected func(err error)
	OnEvent        func(ev Event)
}

type EventStream struct {
	opts EventStreamOptions
}

func NewEventStream(opts EventStreamOptions) *EventStream {
	if opts.DialTimeout == 0 {
		opts.DialTimeout = 10 * time.Second
	}
	if opts.HeartbeatInterval == 0 {
		opts.HeartbeatInterval = 25 * time.Second
	}
	if opts.PingTimeout == 0 {
		opts.PingTimeout = 5 * time.Second
	}
	if opts.BackoffMin == 0 {
		opts.BackoffMin = 1 * time.Second
	}
	if opts.BackoffMax == 0 {
		opts.BackoffMax = 60 * time.Second
	}
	if opts.BackoffMax < opts.BackoffMin {
		opts.BackoffMax = opts.BackoffMin
	}
	if opts.StableAfter == 0 {
		opts.StableAfter = opts.HeartbeatInterval
	}
	return &EventStream{opts: opts}
}

// Run keeps a connection open until ctx ends or reconnects are exhausted.
// Only a session that stays up for StableAfter resets the attempt counter
// and the backoff; a session dropped sooner counts as a failed attempt.
func (s *EventStream) Run(ctx context.Context, h StreamHandler) error {
	if s == nil {
		return fmt.Errorf("stream is nil")
	}
	backoff := s.opts.BackoffMin
	attempts := 0
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		client := NewSocketClient(s.opts.URL, s.opts.APIKey)
		dialCtx, cancel := context.WithTimeout(ctx, s.opts.DialTimeout)
		err := client.Connect(dialCtx)
		cancel()
		if err != nil {
			attempts++
			if s.opts.Logger != nil {
				s.opts.Logger.Warn("cloud socket connect failed",
					zap.Int("attempt", attempts),
					zap.Duration("backoff", backoff),
					zap.Error(err),
				)
			}
			if s.opts.MaxAttempts > 0 && attempts >= s.opts.MaxAttempts {
				return ErrReconnectExhausted
			}
			if err := sleepWithJitter(ctx, backoff); err != nil {
				return err
			}
			backoff = nextBackoff(backoff, s.opts.BackoffMax)
			continue
		}
		if s.opts.Logger != nil {
			s.opts.Logger.Info("cloud socket connected", zap.String("url", s.opts.URL))
		}
		if h.OnConnected != nil {
			h.OnConnected()
		}

		started := time.Now()
		err = s.consume(ctx, client, h)
		_ = client.Close(websocket.StatusNormalClosure, "reconnect")
		if h.OnDisconnected != nil {
			h.OnDisconnected(err)
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if lived := time.Since(started); lived >= s.opts.StableAfter {
			attempts = 0
			backoff = s.opts.BackoffMin
		} else {
			attempts++
			if s.opts.Logger != nil {
				s.opts.Logger.Warn("cloud socket session dropped early",
					zap.Int("attempt", attempts),
					zap.Duration("lived", lived),
					zap.Duration("backoff", backoff),
				)
			}
			if s.opts.MaxAttempts > 0 && attempts >= s.opts.MaxAttempts {
				return ErrReconnectExhausted
			}
		}
		if err := sleepWithJitter(ctx, backoff); err != nil {
			return err
		}
		backoff = nextBackoff(backoff, s.opts.BackoffMax)
	}
}

func (s *EventStream) consume(ctx context.Context, client *SocketClient, h StreamHandler) error {
	connCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	heartbeatErr := make(chan error, 1)
	go func() {
		ticker := time.NewTicker(s.opts.HeartbeatInterval)
		defer ticker.Stop()
		for {
			select {
			case <-connCtx.Done():
				return
			case <-ticker.C:
				pingCtx, cancelPing := context.WithTimeout(connCtx, s.opts.PingTimeout)
				err := client.Ping(pingCtx)
				cancelPing()
				if err != nil {
					heartbeatErr <- err
					// unblock the pending Read
					cancel()
					return
				}
			}
		}
	}()

	for {
		ev, _, err := client.Read(connCtx)
		if err != nil {
			select {
			case hbErr := <-heartbeatErr:
				err = fmt.Errorf("heartbeat: %w", hbErr)
			default:
			}
			if s.opts.Logger != nil && ctx.Err() == nil {
				s.opts.Logger.Warn("cloud socket read failed", zap.Error(err))
			}
			return err
		}
		if strings.EqualFold(ev.Event, EventPing) {
			_ = client.respondPong(connCtx)
			continue
		}
		if h.OnEvent != nil && ev.Event != "" {
			h.OnEvent(ev)
		}
	}
}

func nextBackoff(current, max time.Duration) time.Duration {
	next := current * 2
	if next > max {
		return max
	}
	return next
}

func sleepWithJitter(ctx context.Context, base time.Duration) error {
	if base <= 0 {
		return nil
	}
	wait := base
	if half := int64(base / 2); half > 0 {
		wait += time.Duration(rand.Int63n(half))
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
