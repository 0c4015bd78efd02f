// Package notifier posts short confirmations for applied commands and cleans
// them up again: anyone reacting to a confirmation makes the bot delete it,
// keeping the conversation readable.
package notifier

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/nicosare/minibars/internal/parser"
	"github.com/nicosare/minibars/internal/vk"
)

// MessagesGateway is the chat platform surface the notifier needs.
// Implemented by *vk.Client.
type MessagesGateway interface {
	SendMessage(ctx context.Context, peerID int64, text string) (int64, error)
	DeleteMessage(ctx context.Context, peerID, cmid int64) error
}

// DefaultCacheSize bounds the remembered confirmation ids. Old entries fall
// out FIFO; a reaction on a forgotten confirmation is ignored.
const DefaultCacheSize = 128

// Notifier owns the cache of its outbound conversation message ids. The
// cache is bounded and entries are evicted both on overflow and after the
// reaction-triggered deletion, so it cannot grow with process lifetime.
type Notifier struct {
	gateway MessagesGateway
	peerID  int64
	logger  *zap.Logger

	mu    sync.Mutex
	sent  map[int64]struct{}
	order []int64
	limit int
}

func New(gateway MessagesGateway, peerID int64, cacheSize int, logger *zap.Logger) *Notifier {
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}
	return &Notifier{
		gateway: gateway,
		peerID:  peerID,
		logger:  logger,
		sent:    make(map[int64]struct{}, cacheSize),
		limit:   cacheSize,
	}
}

// ConfirmApplied posts a one-line summary of the applied intent and remembers
// the message id. Send failures are logged and dropped; confirmations are
// best-effort and never block reconciliation.
func (n *Notifier) ConfirmApplied(ctx context.Context, intent *parser.Intent) {
	text := confirmationText(intent)
	cmid, err := n.gateway.SendMessage(ctx, n.peerID, text)
	if err != nil {
		n.logger.Warn("Failed to send confirmation", zap.Error(err))
		return
	}
	n.remember(cmid)
}

// HandleReaction deletes the confirmation the reaction points at, if it is
// one of ours. Reactions to anything else are ignored.
func (n *Notifier) HandleReaction(ctx context.Context, ev vk.ReactionEvent) {
	if !n.forget(ev.CMID) {
		return
	}
	if err := n.gateway.DeleteMessage(ctx, n.peerID, ev.CMID); err != nil {
		n.logger.Warn("Failed to delete confirmation",
			zap.Int64("cmid", ev.CMID), zap.Error(err))
		return
	}
	n.logger.Info("Confirmation deleted after reaction", zap.Int64("cmid", ev.CMID))
}

func (n *Notifier) remember(cmid int64) {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.sent[cmid] = struct{}{}
	n.order = append(n.order, cmid)
	for len(n.order) > n.limit {
		oldest := n.order[0]
		n.order = n.order[1:]
		delete(n.sent, oldest)
	}
}

// forget reports whether cmid was one of ours and removes it.
func (n *Notifier) forget(cmid int64) bool {
	n.mu.Lock()
	defer n.mu.Unlock()

	if _, ok := n.sent[cmid]; !ok {
		return false
	}
	delete(n.sent, cmid)
	for i, id := range n.order {
		if id == cmid {
			n.order = append(n.order[:i], n.order[i+1:]...)
			break
		}
	}
	return true
}

func confirmationText(intent *parser.Intent) string {
	rooms := strings.Join(intent.Rooms, ", ")
	switch {
	case intent.Kind == parser.IntentDelete:
		return fmt.Sprintf("Снято с проверки: %s", rooms)
	case intent.Emptied:
		return fmt.Sprintf("Проверено и опустошено: %s", rooms)
	default:
		return fmt.Sprintf("Проверено: %s", rooms)
	}
}
