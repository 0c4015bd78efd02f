// Package service holds the bot's core behavior: applying parsed commands to
// persisted room state, and the HTTP server lifecycle.
package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/nicosare/minibars/internal/localtime"
	"github.com/nicosare/minibars/internal/models"
	"github.com/nicosare/minibars/internal/parser"
	"github.com/nicosare/minibars/internal/repository"
)

// InventoryGateway is the slice of the inventory subsystem the reconciler
// touches. Implemented by repository.InventoryRepository; tests use a fake.
type InventoryGateway interface {
	SetDeadlineStatus(ctx context.Context, room string, status models.DeadlineStatus) error
	ClearProducts(ctx context.Context, room string) error
}

// Reconciler applies one parsed intent against the checked/emptied sets and
// mirrors emptied-status transitions into the inventory records.
//
// Each room of an intent is an independent unit of work: a persistence
// failure on one room is logged and does not stop the others. Applying the
// same intent twice with the same timestamp leaves the state unchanged, which
// is what makes at-least-once delivery from the chat platform safe.
type Reconciler struct {
	state     *repository.RoomStateRepository
	inventory InventoryGateway
	logger    *zap.Logger
}

func NewReconciler(state *repository.RoomStateRepository, inventory InventoryGateway, logger *zap.Logger) *Reconciler {
	return &Reconciler{
		state:     state,
		inventory: inventory,
		logger:    logger,
	}
}

// Apply reconciles intent against persisted state. The date bucket comes from
// the message timestamp, not from the wall clock at processing time, so
// edited or redelivered messages land on the day they were sent.
func (r *Reconciler) Apply(ctx context.Context, intent *parser.Intent, msgTS int64) {
	date := localtime.DateKey(msgTS)

	switch intent.Kind {
	case parser.IntentDelete:
		for _, room := range intent.Rooms {
			r.deleteRoom(ctx, date, room)
		}
	case parser.IntentAdd:
		for _, room := range intent.Rooms {
			r.addRoom(ctx, date, room, msgTS, intent.Emptied)
		}
	default:
		r.logger.Error("Unhandled intent kind", zap.Int("kind", int(intent.Kind)))
	}
}

// deleteRoom removes a room from today's checked set. A room that was never
// checked today is skipped. When the checked record is removed, the global
// emptied record goes with it: the emptied set is not date-scoped, and an
// un-checked room must not keep an emptied mark from any day.
func (r *Reconciler) deleteRoom(ctx context.Context, date, room string) {
	checked, err := r.state.IsChecked(ctx, date, room)
	if err != nil {
		r.logger.Error("Failed to read checked state, room skipped",
			zap.String("room", room), zap.String("date", date), zap.Error(err))
		return
	}
	if !checked {
		r.logger.Info("Room not checked today, deletion skipped",
			zap.String("room", room), zap.String("date", date))
		return
	}

	if err := r.state.UnmarkChecked(ctx, date, room); err != nil {
		r.logger.Error("Failed to unmark checked, room skipped",
			zap.String("room", room), zap.String("date", date), zap.Error(err))
		return
	}
	if err := r.state.UnmarkEmptied(ctx, room); err != nil {
		r.logger.Error("Failed to unmark emptied",
			zap.String("room", room), zap.Error(err))
		return
	}

	r.logger.Info("Room removed from checked and emptied",
		zap.String("room", room), zap.String("date", date))
}

// addRoom marks a room checked for the date. With the emptied flag it also
// joins the global emptied set and the inventory record is reset to "ok";
// without the flag, a previously emptied room is un-emptied and its inventory
// status drops back to "neutral". The checked write always comes first so a
// concurrent reader never sees an emptied mark for a room that is not
// checked today.
func (r *Reconciler) addRoom(ctx context.Context, date, room string, msgTS int64, emptied bool) {
	if err := r.state.MarkChecked(ctx, date, room, msgTS); err != nil {
		r.logger.Error("Failed to mark checked, room skipped",
			zap.String("room", room), zap.String("date", date), zap.Error(err))
		return
	}

	if emptied {
		if err := r.state.MarkEmptied(ctx, room, msgTS); err != nil {
			r.logger.Error("Failed to mark emptied",
				zap.String("room", room), zap.Error(err))
			return
		}
		if err := r.inventory.SetDeadlineStatus(ctx, room, models.DeadlineStatusOK); err != nil {
			r.logger.Error("Failed to set inventory status",
				zap.String("room", room), zap.Error(err))
		}
		if err := r.inventory.ClearProducts(ctx, room); err != nil {
			r.logger.Error("Failed to clear inventory products",
				zap.String("room", room), zap.Error(err))
		}
		r.logger.Info("Room checked and emptied",
			zap.String("room", room), zap.String("date", date), zap.Int64("ts", msgTS))
		return
	}

	wasEmptied, err := r.state.IsEmptied(ctx, room)
	if err != nil {
		r.logger.Error("Failed to read emptied state",
			zap.String("room", room), zap.Error(err))
		return
	}
	if err := r.state.UnmarkEmptied(ctx, room); err != nil {
		r.logger.Error("Failed to unmark emptied",
			zap.String("room", room), zap.Error(err))
		return
	}
	if wasEmptied {
		if err := r.inventory.SetDeadlineStatus(ctx, room, models.DeadlineStatusNeutral); err != nil {
			r.logger.Error("Failed to set inventory status",
				zap.String("room", room), zap.Error(err))
		}
		r.logger.Info("Room re-checked without emptied mark, emptied state cleared",
			zap.String("room", room), zap.String("date", date))
		return
	}

	r.logger.Info("Room checked",
		zap.String("room", room), zap.String("date", date), zap.Int64("ts", msgTS))
}
