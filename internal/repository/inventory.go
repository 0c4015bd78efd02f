package repository

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/nicosare/minibars/internal/models"
)

// InventoryRepository mutates the minibar inventory records owned by the
// inventory subsystem: the per-room deadline status and the product rows.
// The bot only ever flips statuses and clears products; it never creates
// rooms or products.
type InventoryRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewInventoryRepository(db *sql.DB, logger *zap.Logger) *InventoryRepository {
	return &InventoryRepository{
		db:     db,
		logger: logger,
	}
}

// SetDeadlineStatus sets the deadline status for a room. A room unknown to
// the inventory subsystem is not an error; the status change is simply lost,
// matching the externally-owned room list.
func (r *InventoryRepository) SetDeadlineStatus(ctx context.Context, room string, status models.DeadlineStatus) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE minibar_rooms SET deadlines_status = $1 WHERE room_number = $2`,
		string(status), room,
	)
	if err != nil {
		return fmt.Errorf("failed to update deadline status for room %s: %w", room, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		r.logger.Debug("Room not present in inventory, status change skipped",
			zap.String("room", room),
			zap.String("status", string(status)),
		)
	}
	return nil
}

// ClearProducts removes all product rows for a room.
func (r *InventoryRepository) ClearProducts(ctx context.Context, room string) error {
	if _, err := r.db.ExecContext(ctx,
		`DELETE FROM minibar_products WHERE room_number = $1`,
		room,
	); err != nil {
		return fmt.Errorf("failed to clear products for room %s: %w", room, err)
	}
	return nil
}
