package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"stock_go/internal/domain"
	"stock_go/internal/infra"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	maxRetries            = 10
	handshakeTimeout      = 10 * time.Second
	authTimeout           = 5 * time.Second
	readTimeout           = 60 * time.Second
	defaultRequestTimeout = 15 * time.Second
)

// historyRequest asks the gateway for daily history over a closed range
type historyRequest struct {
	Op       string `json:"op"`       // history
	ID       string `json:"id"`       // correlation id
	Symbol   string `json:"symbol"`   // instrument symbol
	From     int64  `json:"from"`     // Unix seconds, inclusive
	To       int64  `json:"to"`       // Unix seconds, inclusive
	Interval string `json:"interval"` // 1d
}

// feedFrame is the envelope for every message the gateway sends
type feedFrame struct {
	Op      string          `json:"op"`
	ID      string          `json:"id"`
	Success *bool           `json:"success,omitempty"`
	Message string          `json:"message,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Client handles the feed gateway WebSocket connection. History requests
// are correlated with responses by id, so callers can fetch concurrently
// over a single connection.
type Client struct {
	wsURL          string
	signer         *Signer
	requestTimeout time.Duration

	conn      *websocket.Conn
	mu        sync.RWMutex
	writeMu   sync.Mutex
	connected bool

	pendingMu sync.Mutex
	pending   map[string]chan feedFrame

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewClient creates a new feed gateway client
func NewClient(wsURL string, signer *Signer, requestTimeoutSec int) *Client {
	c := &Client{
		wsURL:          wsURL,
		signer:         signer,
		requestTimeout: defaultRequestTimeout,
		pending:        make(map[string]chan feedFrame),
	}
	if requestTimeoutSec > 0 {
		c.requestTimeout = time.Duration(requestTimeoutSec) * time.Second
	}
	return c
}

// Connect starts the WebSocket connection
func (c *Client) Connect(ctx context.Context) error {
	ctx, c.cancel = context.WithCancel(ctx)
	c.wg.Add(1)
	go c.connectionLoop(ctx)
	return nil
}

func (c *Client) connectionLoop(ctx context.Context) {
	defer c.wg.Done()
	retryCount := 0
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if err := c.connect(ctx); err != nil {
			slog.Warn("Feed connection failed", slog.Any("error", err), slog.Int("retry", retryCount))
			delay := infra.CalculateBackoff(retryCount)
			retryCount++
			if retryCount > maxRetries {
				retryCount = 0
			}
			select {
			case <-ctx.Done():
				return
			case <-time.After(delay):
				continue
			}
		} else {
			retryCount = 0
			c.readLoop(ctx)
		}
	}
}

func (c *Client) connect(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: handshakeTimeout}

	conn, _, err := dialer.DialContext(ctx, c.wsURL, nil)
	if err != nil {
		return fmt.Errorf("dial failed: %w", err)
	}

	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()

	if err := c.authenticate(conn); err != nil {
		c.closeConnection()
		return err
	}

	c.mu.Lock()
	c.connected = true
	c.mu.Unlock()

	slog.Info("Feed connected", slog.String("url", c.wsURL))
	return nil
}

// authenticate runs the signed handshake synchronously, before the read
// loop takes over the connection.
func (c *Client) authenticate(conn *websocket.Conn) error {
	b, _ := json.Marshal(c.signer.AuthPayload())
	if err := c.threadSafeWrite(websocket.TextMessage, b); err != nil {
		return fmt.Errorf("auth write failed: %w", err)
	}

	conn.SetReadDeadline(time.Now().Add(authTimeout))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		return fmt.Errorf("auth read failed: %w", err)
	}

	var ack feedFrame
	if err := json.Unmarshal(msg, &ack); err != nil {
		return fmt.Errorf("auth ack malformed: %w", err)
	}
	if ack.Op != "auth" || ack.Success == nil || !*ack.Success {
		return fmt.Errorf("auth rejected: %s", ack.Message)
	}
	return nil
}

func (c *Client) threadSafeWrite(msgType int, data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.conn == nil {
		return fmt.Errorf("no conn")
	}
	return c.conn.WriteMessage(msgType, data)
}

func (c *Client) readLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		c.mu.RLock()
		conn := c.conn
		c.mu.RUnlock()
		if conn == nil {
			return
		}

		conn.SetReadDeadline(time.Now().Add(readTimeout))
		_, msg, err := conn.ReadMessage()
		if err != nil {
			c.closeConnection()
			return
		}
		c.dispatch(msg)
	}
}

// dispatch routes a gateway frame to the request waiting on its id.
// Frames without an id (broadcasts, keepalives) are dropped.
func (c *Client) dispatch(msg []byte) {
	var frame feedFrame
	if json.Unmarshal(msg, &frame) != nil || frame.ID == "" {
		return
	}

	c.pendingMu.Lock()
	defer c.pendingMu.Unlock()
	if ch, ok := c.pending[frame.ID]; ok {
		select {
		case ch <- frame:
		default: // DROP
		}
	}
}

// Fetch requests daily history for symbol over r and waits for the
// correlated response.
func (c *Client) Fetch(ctx context.Context, symbol string, r domain.TimeRange) ([]byte, error) {
	if !c.IsConnected() {
		return nil, domain.NewFetchError("feed request", fmt.Errorf("not connected"))
	}

	req := historyRequest{
		Op:       "history",
		ID:       uuid.NewString(),
		Symbol:   symbol,
		From:     r.Start.Unix(),
		To:       r.End.Unix(),
		Interval: "1d",
	}

	respCh := make(chan feedFrame, 1)
	c.pendingMu.Lock()
	c.pending[req.ID] = respCh
	c.pendingMu.Unlock()
	defer func() {
		c.pendingMu.Lock()
		delete(c.pending, req.ID)
		c.pendingMu.Unlock()
	}()

	b, _ := json.Marshal(req)
	if err := c.threadSafeWrite(websocket.TextMessage, b); err != nil {
		return nil, domain.NewFetchError("feed request", err)
	}

	select {
	case frame, ok := <-respCh:
		if !ok {
			return nil, domain.NewFetchError("feed request", fmt.Errorf("connection lost"))
		}
		if frame.Success != nil && !*frame.Success {
			return nil, domain.NewFatalFetchError("feed request", fmt.Errorf("gateway rejected: %s", frame.Message))
		}
		if len(frame.Payload) == 0 {
			return nil, domain.NewFetchError("feed response", fmt.Errorf("empty payload"))
		}
		return frame.Payload, nil
	case <-time.After(c.requestTimeout):
		return nil, domain.NewFetchError("feed request", fmt.Errorf("timed out after %s", c.requestTimeout))
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// IsConnected reports whether the authenticated session is up
func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected
}

func (c *Client) closeConnection() {
	c.mu.Lock()
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
	c.connected = false
	c.mu.Unlock()

	// In-flight requests can never be answered on a dead connection
	c.pendingMu.Lock()
	for id, ch := range c.pending {
		close(ch)
		delete(c.pending, id)
	}
	c.pendingMu.Unlock()
}

// Disconnect stops the connection loop and closes the session
func (c *Client) Disconnect() {
	if c.cancel != nil {
		c.cancel()
	}
	c.closeConnection()
	c.wg.Wait()
}
