// Package consumer runs the long-poll ingestion loop: acquire a session,
// fetch update batches, dispatch each update in arrival order, and survive
// every flavor of upstream failure without operator help.
package consumer

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/nicosare/minibars/internal/parser"
	"github.com/nicosare/minibars/internal/vk"
)

// LongPollGateway is the chat platform surface the loop drives. Implemented
// by *vk.Client; tests script it.
type LongPollGateway interface {
	GetLongPollServer(ctx context.Context) (*vk.Session, error)
	Poll(ctx context.Context, session *vk.Session, wait int) (*vk.Batch, error)
}

// IntentApplier reconciles one parsed intent. Implemented by
// service.Reconciler.
type IntentApplier interface {
	Apply(ctx context.Context, intent *parser.Intent, msgTS int64)
}

// Notifier reacts to applied intents and to reactions on the bot's own
// messages. Optional; nil disables the feature.
type Notifier interface {
	ConfirmApplied(ctx context.Context, intent *parser.Intent)
	HandleReaction(ctx context.Context, ev vk.ReactionEvent)
}

// Consumer is the single ingestion loop of the process. Updates are handled
// strictly sequentially: each reconciliation completes before the next update
// is decoded. Two messages about the same room must reconcile in send order,
// so ordering wins over throughput here; traffic is a trickle anyway.
type Consumer struct {
	gateway  LongPollGateway
	applier  IntentApplier
	notifier Notifier

	peerID  int64
	wait    int
	backoff time.Duration

	logger *zap.Logger
}

func NewConsumer(gateway LongPollGateway, applier IntentApplier, notifier Notifier, peerID int64, wait int, backoff time.Duration, logger *zap.Logger) *Consumer {
	return &Consumer{
		gateway:  gateway,
		applier:  applier,
		notifier: notifier,
		peerID:   peerID,
		wait:     wait,
		backoff:  backoff,
		logger:   logger,
	}
}

// Run drives the loop until ctx is cancelled. It never returns on upstream
// failure: an expired session is re-acquired immediately, a stale cursor is
// replaced in place, and transport errors wait out the backoff before
// re-acquiring.
func (c *Consumer) Run(ctx context.Context) error {
	c.logger.Info("Starting long poll consumer",
		zap.Int64("peer_id", c.peerID),
		zap.Int("wait", c.wait),
	)

	for {
		if ctx.Err() != nil {
			return nil
		}

		session, err := c.gateway.GetLongPollServer(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			c.logger.Error("Failed to acquire long poll session", zap.Error(err))
			if !c.sleepBackoff(ctx) {
				return nil
			}
			continue
		}

		c.pollSession(ctx, session)
	}
}

// pollSession polls one session until it dies. Returning hands control back
// to Run, which acquires a fresh session.
func (c *Consumer) pollSession(ctx context.Context, session *vk.Session) {
	for {
		if ctx.Err() != nil {
			return
		}

		batch, err := c.gateway.Poll(ctx, session, c.wait)
		if err != nil {
			var stale *vk.StaleCursorError
			switch {
			case errors.As(err, &stale):
				// Soft failure: events are still there, only the cursor moved.
				c.logger.Warn("Long poll cursor stale, resuming", zap.String("ts", stale.TS))
				session.TS = stale.TS
				continue
			case errors.Is(err, vk.ErrSessionExpired):
				c.logger.Warn("Long poll session expired, re-acquiring")
				return
			case ctx.Err() != nil:
				return
			default:
				c.logger.Error("Long poll transport error", zap.Error(err))
				c.sleepBackoff(ctx)
				return
			}
		}

		session.TS = batch.TS
		c.processBatch(ctx, batch)
	}
}

// processBatch dispatches the batch's updates in server order, one at a time.
func (c *Consumer) processBatch(ctx context.Context, batch *vk.Batch) {
	for _, raw := range batch.Updates {
		ev, err := vk.DecodeUpdate(raw)
		if err != nil {
			c.logger.Error("Failed to decode update", zap.Error(err))
			continue
		}

		switch ev := ev.(type) {
		case vk.MessageEvent:
			c.handleMessage(ctx, ev)
		case vk.ReactionEvent:
			if c.notifier != nil && ev.PeerID == c.peerID {
				c.notifier.HandleReaction(ctx, ev)
			}
		case vk.UnknownEvent:
			c.logger.Debug("Ignoring update", zap.String("type", ev.Type))
		}
	}
}

func (c *Consumer) handleMessage(ctx context.Context, ev vk.MessageEvent) {
	if ev.PeerID != c.peerID {
		c.logger.Debug("Ignoring message from foreign peer", zap.Int64("peer_id", ev.PeerID))
		return
	}

	intent := parser.Parse(ev.Text)
	if intent == nil {
		c.logger.Info("Message is not a command, ignored",
			zap.Int64("cmid", ev.CMID),
			zap.String("text", ev.Text),
		)
		return
	}

	ts := ev.Date
	if ts == 0 {
		ts = time.Now().Unix()
	}

	c.applier.Apply(ctx, intent, ts)

	if c.notifier != nil && !ev.Edited {
		c.notifier.ConfirmApplied(ctx, intent)
	}
}

// sleepBackoff waits out the backoff delay; false means ctx was cancelled.
func (c *Consumer) sleepBackoff(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(c.backoff):
		return true
	}
}
