package gdax

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/makerdao/gdax-client/internal/infra"
)

const (
	maxRetries       = 10
	handshakeTimeout = 10 * time.Second
	pingInterval     = 15 * time.Second
	readTimeout      = 30 * time.Second
)

// subscribeRequest represents the GDAX websocket subscription request
type subscribeRequest struct {
	Type     string             `json:"type"`
	Channels []subscribeChannel `json:"channels"`
}

type subscribeChannel struct {
	Name       string   `json:"name"`
	ProductIDs []string `json:"product_ids"`
}

// Worker maintains the GDAX websocket subscription for a single product and
// delivers raw text frames to the feed's inbox. It owns the whole connection
// lifecycle: dial, subscribe, read, and reconnect with backoff. The core feed
// never sees any of this.
type Worker struct {
	url       string
	product   string
	frames    chan<- []byte
	onConnect func()

	conn      *websocket.Conn
	mu        sync.RWMutex
	writeMu   sync.Mutex
	connected bool
	cancel    context.CancelFunc
	wg        sync.WaitGroup
}

// NewWorker creates a new GDAX transport worker. onConnect, if non-nil, is
// invoked after every successful subscribe (e.g. to stamp the product
// registry).
func NewWorker(url, product string, frames chan<- []byte, onConnect func()) *Worker {
	return &Worker{
		url:       url,
		product:   product,
		frames:    frames,
		onConnect: onConnect,
	}
}

// Connect starts the WebSocket connection with automatic reconnection
func (w *Worker) Connect(ctx context.Context) error {
	ctx, w.cancel = context.WithCancel(ctx)
	w.wg.Add(1)
	go w.connectionLoop(ctx)
	return nil
}

func (w *Worker) connectionLoop(ctx context.Context) {
	defer w.wg.Done()
	retryCount := 0
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if err := w.connect(ctx); err != nil {
			slog.Warn("GDAX connection failed",
				slog.String("product", w.product),
				slog.Any("error", err),
				slog.Int("retry", retryCount),
			)

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
		}

		retryCount = 0
		w.readLoop(ctx)
	}
}

func (w *Worker) connect(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: handshakeTimeout}
	header := make(http.Header)

	conn, _, err := dialer.DialContext(ctx, w.url, header)
	if err != nil {
		return fmt.Errorf("dial failed: %w", err)
	}

	w.mu.Lock()
	w.conn = conn
	w.connected = true
	w.mu.Unlock()

	if err := w.subscribe(); err != nil {
		w.closeConnection()
		return fmt.Errorf("subscribe failed: %w", err)
	}

	go w.pingLoop(ctx)

	infra.GlobalMetrics.SetConnected(true)
	if w.onConnect != nil {
		w.onConnect()
	}

	slog.Info("GDAX WebSocket connected", slog.String("product", w.product))
	return nil
}

func (w *Worker) subscribe() error {
	req := subscribeRequest{
		Type: "subscribe",
		Channels: []subscribeChannel{
			{Name: "ticker", ProductIDs: []string{w.product}},
			{Name: "heartbeat", ProductIDs: []string{w.product}},
			{Name: "level2", ProductIDs: []string{w.product}},
		},
	}

	msgBytes, err := json.Marshal(req)
	if err != nil {
		return err
	}
	return w.threadSafeWrite(websocket.TextMessage, msgBytes)
}

func (w *Worker) threadSafeWrite(messageType int, data []byte) error {
	w.writeMu.Lock()
	defer w.writeMu.Unlock()

	w.mu.RLock()
	conn := w.conn
	w.mu.RUnlock()

	if conn == nil {
		return fmt.Errorf("connection is nil")
	}
	return conn.WriteMessage(messageType, data)
}

func (w *Worker) pingLoop(ctx context.Context) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !w.IsConnected() {
				return
			}
			if err := w.threadSafeWrite(websocket.PingMessage, nil); err != nil {
				slog.Warn("GDAX ping failed", slog.Any("error", err))
				return
			}
		}
	}
}

func (w *Worker) readLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		w.mu.RLock()
		conn := w.conn
		w.mu.RUnlock()

		if conn == nil {
			return
		}

		conn.SetReadDeadline(time.Now().Add(readTimeout))
		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Warn("GDAX read error", slog.Any("error", err))
			}
			w.closeConnection()
			return
		}

		select {
		case w.frames <- message:
		default:
			slog.Warn("GDAX frame channel full, dropping frame")
		}
	}
}

func (w *Worker) closeConnection() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.conn != nil {
		w.conn.Close()
		w.conn = nil
	}
	w.connected = false
	infra.GlobalMetrics.SetConnected(false)
}

// Disconnect closes the connection
func (w *Worker) Disconnect() {
	if w.cancel != nil {
		w.cancel()
	}
	w.closeConnection()
	w.wg.Wait()
	slog.Info("GDAX WebSocket disconnected", slog.String("product", w.product))
}

// IsConnected returns connection status
func (w *Worker) IsConnected() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.connected
}
