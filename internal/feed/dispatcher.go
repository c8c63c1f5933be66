package feed

import (
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/makerdao/gdax-client/internal/domain"
	"github.com/makerdao/gdax-client/internal/infra"
)

// Dispatcher classifies inbound frames by their type tag and routes them to
// the feed client's update logic. Malformed input is logged and dropped; one
// bad frame must never tear down the feed, so nothing propagates from here.
type Dispatcher struct {
	client  *Client
	metrics *infra.Metrics
	logger  *slog.Logger
}

// NewDispatcher creates a dispatcher bound to a feed client.
func NewDispatcher(client *Client) *Dispatcher {
	return &Dispatcher{
		client:  client,
		metrics: infra.GlobalMetrics,
		logger:  slog.Default().With("module", "dispatcher", "product", client.Product()),
	}
}

// Dispatch decodes one raw text frame and applies it. Frames that fail to
// decode, carry an unknown type tag, or carry unparseable fields are counted,
// logged and dropped without any state change.
func (d *Dispatcher) Dispatch(raw []byte) {
	msg := acquireMessage()
	defer releaseMessage(msg)

	if err := json.Unmarshal(raw, msg); err != nil {
		d.metrics.RecordDecodeError()
		d.logger.Warn("invalid frame dropped", slog.Any("error", err))
		return
	}
	d.metrics.RecordFrame()

	switch msg.Type {
	case typeTicker:
		d.handleTicker(msg)
	case typeHeartbeat:
		d.client.applyHeartbeat()
	case typeSnapshot:
		d.handleSnapshot(msg)
	case typeL2Update:
		d.handleL2Update(msg)
	case typeSubscriptions:
		d.logger.Debug("subscription acknowledged")
	default:
		d.metrics.RecordUnknownMessage()
		d.logger.Warn("unknown message type dropped", slog.String("type", msg.Type))
	}
}

func (d *Dispatcher) handleTicker(msg *gdaxMessage) {
	price, err := decimal.NewFromString(msg.Price)
	if err != nil {
		d.metrics.RecordDecodeError()
		d.logger.Warn("ticker with unparseable price dropped", slog.String("price", msg.Price))
		return
	}
	d.client.applyTicker(price)
}

func (d *Dispatcher) handleSnapshot(msg *gdaxMessage) {
	bids, err := parseLevels(msg.Bids)
	if err != nil {
		d.metrics.RecordDecodeError()
		d.logger.Warn("snapshot rejected", slog.String("side", "bids"), slog.Any("error", err))
		return
	}
	asks, err := parseLevels(msg.Asks)
	if err != nil {
		d.metrics.RecordDecodeError()
		d.logger.Warn("snapshot rejected", slog.String("side", "asks"), slog.Any("error", err))
		return
	}

	if err := d.client.applySnapshot(bids, asks); err != nil {
		d.metrics.RecordDecodeError()
		d.logger.Warn("snapshot rejected", slog.Any("error", err))
		return
	}
	d.metrics.RecordSnapshot()
}

func (d *Dispatcher) handleL2Update(msg *gdaxMessage) {
	diffs, err := parseChanges(msg.Changes)
	if err != nil {
		d.metrics.RecordDecodeError()
		d.logger.Warn("l2update dropped", slog.Any("error", err))
		return
	}

	if err := d.client.applyDiffs(diffs); err != nil {
		if errors.Is(err, domain.ErrBookNotReady) {
			// Diff raced ahead of the first snapshot; tolerated.
			d.logger.Debug("l2update before snapshot dropped")
			return
		}
		d.logger.Warn("l2update dropped", slog.Any("error", err))
		return
	}
	d.metrics.RecordDiffs(len(diffs))
}
