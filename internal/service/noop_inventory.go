package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/nicosare/minibars/internal/models"
)

// NoopInventory stands in for the inventory gateway when the database is
// disabled or unreachable. Room state keeps reconciling; only the status
// mirror is lost, and every dropped transition is visible in the log.
type NoopInventory struct {
	logger *zap.Logger
}

func NewNoopInventory(logger *zap.Logger) *NoopInventory {
	return &NoopInventory{logger: logger}
}

func (n *NoopInventory) SetDeadlineStatus(_ context.Context, room string, status models.DeadlineStatus) error {
	n.logger.Debug("Inventory disabled, status change dropped",
		zap.String("room", room), zap.String("status", string(status)))
	return nil
}

func (n *NoopInventory) ClearProducts(_ context.Context, room string) error {
	n.logger.Debug("Inventory disabled, product wipe dropped", zap.String("room", room))
	return nil
}
