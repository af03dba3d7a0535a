package marketdata

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	"otc-signals/internal/domain"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	DefaultMaxReconnect   = 5
	DefaultPriceTimeout   = 5 * time.Second
	DefaultReconnectDelay = time.Second
)

type Config struct {
	URL            string
	SSID           string
	MaxReconnect   int
	PriceTimeout   time.Duration
	ReconnectDelay time.Duration
}

type PriceFunc func(Price)

// Client is a live quote feed over a single websocket. Callers own its
// lifecycle through Connect and Close.
type Client struct {
	cfg    Config
	dialer *websocket.Dialer
	tracer trace.Tracer
	logger zerolog.Logger
	now    func() time.Time

	mu          sync.Mutex
	conn        *websocket.Conn
	connected   bool
	closed      bool
	callbacks   map[string]PriceFunc
	waiters     map[string][]chan Price
	onReconnect func()

	writeMu sync.Mutex
}

func NewClient(cfg Config, tracer trace.Tracer, logger zerolog.Logger) *Client {
	if cfg.MaxReconnect <= 0 {
		cfg.MaxReconnect = DefaultMaxReconnect
	}
	if cfg.PriceTimeout <= 0 {
		cfg.PriceTimeout = DefaultPriceTimeout
	}
	if cfg.ReconnectDelay <= 0 {
		cfg.ReconnectDelay = DefaultReconnectDelay
	}
	return &Client{
		cfg:       cfg,
		dialer:    &websocket.Dialer{HandshakeTimeout: 10 * time.Second},
		tracer:    tracer,
		logger:    logger.With().Str("component", "marketdata").Logger(),
		now:       time.Now,
		callbacks: make(map[string]PriceFunc),
		waiters:   make(map[string][]chan Price),
	}
}

// OnReconnect registers a hook called for every dial attempt after the first.
func (c *Client) OnReconnect(fn func()) {
	c.mu.Lock()
	c.onReconnect = fn
	c.mu.Unlock()
}

// Connect dials with at most MaxReconnect attempts and starts the read loop.
// It is a no-op on a connected client.
func (c *Client) Connect(ctx context.Context) error {
	ctx, span := c.tracer.Start(ctx, "marketdata.connect")
	defer span.End()

	c.mu.Lock()
	if c.connected {
		c.mu.Unlock()
		return nil
	}
	c.closed = false
	c.mu.Unlock()

	conn, err := c.dial(ctx)
	if err != nil {
		span.RecordError(err)
		return err
	}
	c.attach(conn)
	go c.readLoop(conn)
	return nil
}

func (c *Client) endpoint() (string, error) {
	u, err := url.Parse(c.cfg.URL)
	if err != nil {
		return "", fmt.Errorf("parse market url: %w", err)
	}
	if c.cfg.SSID != "" {
		q := u.Query()
		q.Set("ssid", c.cfg.SSID)
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

func (c *Client) dial(ctx context.Context) (*websocket.Conn, error) {
	endpoint, err := c.endpoint()
	if err != nil {
		return nil, err
	}

	var lastErr error
	for attempt := 1; attempt <= c.cfg.MaxReconnect; attempt++ {
		if attempt > 1 {
			c.mu.Lock()
			hook := c.onReconnect
			c.mu.Unlock()
			if hook != nil {
				hook()
			}
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("%w: %v", domain.ErrUpstreamUnavailable, ctx.Err())
			case <-time.After(c.cfg.ReconnectDelay):
			}
		}
		conn, _, err := c.dialer.DialContext(ctx, endpoint, nil)
		if err == nil {
			c.logger.Info().Int("attempt", attempt).Msg("market socket connected")
			return conn, nil
		}
		lastErr = err
		c.logger.Warn().Err(err).Int("attempt", attempt).Int("max", c.cfg.MaxReconnect).Msg("market socket dial failed")
	}
	return nil, fmt.Errorf("%w: market socket after %d attempts: %v", domain.ErrUpstreamUnavailable, c.cfg.MaxReconnect, lastErr)
}

// attach makes conn the live socket and closes the one it replaces, whose
// read loop then exits without redialing.
func (c *Client) attach(conn *websocket.Conn) {
	c.mu.Lock()
	prev := c.conn
	c.conn = conn
	c.connected = true
	symbols := c.interestLocked()
	c.mu.Unlock()

	if prev != nil && prev != conn {
		_ = prev.Close()
	}

	for _, s := range symbols {
		if err := c.send(command{Action: "subscribe", Asset: s, Type: "candles"}); err != nil {
			c.logger.Warn().Err(err).Str("symbol", s).Msg("resubscribe failed")
		}
	}
}

func (c *Client) readLoop(conn *websocket.Conn) {
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			c.mu.Lock()
			closed := c.closed
			current := c.conn == conn
			if current {
				c.connected = false
				c.conn = nil
			}
			c.mu.Unlock()
			if closed || !current {
				return
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.logger.Info().Msg("market socket closed by server")
			} else {
				c.logger.Warn().Err(err).Msg("market socket read failed")
			}
			c.reconnect()
			return
		}

		prices, err := decodeFrame(msg, c.now().UnixMilli())
		if err != nil {
			c.logger.Debug().Err(err).Msg("ignoring undecodable frame")
			continue
		}
		for _, p := range prices {
			c.dispatch(p)
		}
	}
}

func (c *Client) reconnect() {
	ctx := context.Background()
	c.mu.Lock()
	hook := c.onReconnect
	c.mu.Unlock()
	if hook != nil {
		hook()
	}
	conn, err := c.dial(ctx)
	if err != nil {
		c.logger.Error().Err(err).Msg("market socket gave up reconnecting")
		return
	}
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		_ = conn.Close()
		return
	}
	c.mu.Unlock()
	c.attach(conn)
	go c.readLoop(conn)
}

func (c *Client) dispatch(p Price) {
	c.mu.Lock()
	cb := c.callbacks[p.Symbol]
	waiters := c.waiters[p.Symbol]
	delete(c.waiters, p.Symbol)
	idle := len(waiters) > 0 && !c.interestedLocked(p.Symbol)
	c.mu.Unlock()

	if cb != nil {
		cb(p)
	}
	for _, w := range waiters {
		w <- p
	}
	if idle {
		c.sendUnsubscribe(p.Symbol)
	}
}

// Subscribe installs the callback for a symbol, replacing any previous one.
func (c *Client) Subscribe(symbol string, cb PriceFunc) error {
	c.mu.Lock()
	fresh := !c.interestedLocked(symbol)
	c.callbacks[symbol] = cb
	connected := c.connected
	c.mu.Unlock()

	if fresh && connected {
		return c.send(command{Action: "subscribe", Asset: symbol, Type: "candles"})
	}
	return nil
}

func (c *Client) Unsubscribe(symbol string) {
	c.mu.Lock()
	delete(c.callbacks, symbol)
	idle := !c.interestedLocked(symbol)
	c.mu.Unlock()
	if idle {
		c.sendUnsubscribe(symbol)
	}
}

func (c *Client) sendUnsubscribe(symbol string) {
	if !c.IsConnected() {
		return
	}
	if err := c.send(command{Action: "unsubscribe", Asset: symbol}); err != nil {
		c.logger.Debug().Err(err).Str("symbol", symbol).Msg("unsubscribe failed")
	}
}

// CurrentPrice waits for the next update of symbol, at most PriceTimeout.
func (c *Client) CurrentPrice(ctx context.Context, symbol string) (float64, error) {
	ctx, span := c.tracer.Start(ctx, "marketdata.current-price")
	defer span.End()
	span.SetAttributes(attribute.String("symbol", symbol))

	ch := make(chan Price, 1)
	c.mu.Lock()
	if !c.connected {
		c.mu.Unlock()
		return 0, fmt.Errorf("%w: market socket not connected", domain.ErrUpstreamUnavailable)
	}
	fresh := !c.interestedLocked(symbol)
	c.waiters[symbol] = append(c.waiters[symbol], ch)
	c.mu.Unlock()

	if fresh {
		if err := c.send(command{Action: "subscribe", Asset: symbol, Type: "candles"}); err != nil {
			c.removeWaiter(symbol, ch)
			return 0, fmt.Errorf("%w: subscribe %s: %v", domain.ErrUpstreamUnavailable, symbol, err)
		}
	}

	timer := time.NewTimer(c.cfg.PriceTimeout)
	defer timer.Stop()

	select {
	case p := <-ch:
		return p.Price, nil
	case <-timer.C:
		c.removeWaiter(symbol, ch)
		return 0, fmt.Errorf("%w: %s", domain.ErrPriceTimeout, symbol)
	case <-ctx.Done():
		c.removeWaiter(symbol, ch)
		return 0, ctx.Err()
	}
}

func (c *Client) removeWaiter(symbol string, ch chan Price) {
	c.mu.Lock()
	list := c.waiters[symbol]
	for i, w := range list {
		if w == ch {
			list = append(list[:i], list[i+1:]...)
			break
		}
	}
	if len(list) == 0 {
		delete(c.waiters, symbol)
	} else {
		c.waiters[symbol] = list
	}
	idle := !c.interestedLocked(symbol)
	c.mu.Unlock()
	if idle {
		c.sendUnsubscribe(symbol)
	}
}

func (c *Client) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

// Close drops the connection and clears every registration.
func (c *Client) Close() error {
	c.mu.Lock()
	c.closed = true
	conn := c.conn
	c.conn = nil
	c.connected = false
	c.callbacks = make(map[string]PriceFunc)
	c.waiters = make(map[string][]chan Price)
	c.mu.Unlock()

	if conn == nil {
		return nil
	}
	c.writeMu.Lock()
	_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	c.writeMu.Unlock()
	return conn.Close()
}

func (c *Client) send(cmd command) error {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return fmt.Errorf("%w: market socket not connected", domain.ErrUpstreamUnavailable)
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return conn.WriteJSON(cmd)
}

func (c *Client) interestedLocked(symbol string) bool {
	_, ok := c.callbacks[symbol]
	return ok || len(c.waiters[symbol]) > 0
}

func (c *Client) interestLocked() []string {
	seen := make(map[string]struct{}, len(c.callbacks)+len(c.waiters))
	out := make([]string, 0, len(c.callbacks)+len(c.waiters))
	for s := range c.callbacks {
		seen[s] = struct{}{}
		out = append(out, s)
	}
	for s := range c.waiters {
		if _, ok := seen[s]; !ok {
			out = append(out, s)
		}
	}
	return out
}
