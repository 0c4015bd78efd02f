// Package repository reads and writes the bot's persisted room state: the
// per-date checked set and the global emptied set in Redis, and the minibar
// inventory records in Postgres.
package repository

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/nicosare/minibars/internal/models"
	"github.com/nicosare/minibars/internal/store"
)

const (
	checkedKeyPrefix = "minibars:checked:" // one hash per civil date, field = room, value = unix ts
	emptiedKey       = "minibars:emptied"  // global hash, field = room, value = unix ts

	// legacyEmptiedValue is the pre-timestamp format of emptied records.
	legacyEmptiedValue = "true"
)

// RoomStateRepository owns the two persisted sets. Every method is a single
// point operation; callers sequence them per room.
type RoomStateRepository struct {
	kv     store.KV
	logger *zap.Logger
}

func NewRoomStateRepository(kv store.KV, logger *zap.Logger) *RoomStateRepository {
	return &RoomStateRepository{kv: kv, logger: logger}
}

func checkedKey(date string) string { return checkedKeyPrefix + date }

// IsChecked reports whether room is in the checked set for date.
func (r *RoomStateRepository) IsChecked(ctx context.Context, date, room string) (bool, error) {
	return r.kv.HExists(ctx, checkedKey(date), room)
}

// MarkChecked writes (or overwrites) the checked record for room on date.
func (r *RoomStateRepository) MarkChecked(ctx context.Context, date, room string, ts int64) error {
	if err := r.kv.HSet(ctx, checkedKey(date), room, strconv.FormatInt(ts, 10)); err != nil {
		return fmt.Errorf("failed to mark room %s checked for %s: %w", room, date, err)
	}
	return nil
}

// UnmarkChecked removes the checked record for room on date.
func (r *RoomStateRepository) UnmarkChecked(ctx context.Context, date, room string) error {
	if err := r.kv.HDel(ctx, checkedKey(date), room); err != nil {
		return fmt.Errorf("failed to unmark room %s checked for %s: %w", room, date, err)
	}
	return nil
}

// CheckedForDate returns room -> checked timestamp for one civil date.
func (r *RoomStateRepository) CheckedForDate(ctx context.Context, date string) (map[string]int64, error) {
	raw, err := r.kv.HGetAll(ctx, checkedKey(date))
	if err != nil {
		return nil, fmt.Errorf("failed to read checked rooms for %s: %w", date, err)
	}
	out := make(map[string]int64, len(raw))
	for room, v := range raw {
		ts, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			r.logger.Warn("Skipping malformed checked record",
				zap.String("date", date),
				zap.String("room", room),
				zap.String("value", v),
			)
			continue
		}
		out[room] = ts
	}
	return out, nil
}

// IsEmptied reports whether room is currently in the global emptied set.
func (r *RoomStateRepository) IsEmptied(ctx context.Context, room string) (bool, error) {
	return r.kv.HExists(ctx, emptiedKey, room)
}

// MarkEmptied writes (or overwrites) the emptied record for room.
func (r *RoomStateRepository) MarkEmptied(ctx context.Context, room string, ts int64) error {
	if err := r.kv.HSet(ctx, emptiedKey, room, strconv.FormatInt(ts, 10)); err != nil {
		return fmt.Errorf("failed to mark room %s emptied: %w", room, err)
	}
	return nil
}

// UnmarkEmptied removes room from the global emptied set. Removing an absent
// room is a no-op.
func (r *RoomStateRepository) UnmarkEmptied(ctx context.Context, room string) error {
	if err := r.kv.HDel(ctx, emptiedKey, room); err != nil {
		return fmt.Errorf("failed to unmark room %s emptied: %w", room, err)
	}
	return nil
}

// EmptiedRooms returns the global emptied set, sorted by room number. Legacy
// records surface with a nil timestamp.
func (r *RoomStateRepository) EmptiedRooms(ctx context.Context) ([]models.EmptiedRoom, error) {
	raw, err := r.kv.HGetAll(ctx, emptiedKey)
	if err != nil {
		return nil, fmt.Errorf("failed to read emptied rooms: %w", err)
	}
	out := make([]models.EmptiedRoom, 0, len(raw))
	for room, v := range raw {
		row := models.EmptiedRoom{Room: room}
		if ts, err := strconv.ParseInt(v, 10, 64); err == nil {
			row.TS = &ts
		}
		out = append(out, row)
	}
	sort.Slice(out, func(i, j int) bool {
		a, _ := strconv.Atoi(out[i].Room)
		b, _ := strconv.Atoi(out[j].Room)
		return a < b
	})
	return out, nil
}

// MigrateLegacyEmptied rewrites legacy "true" emptied records to carry a
// timestamp. The timestamp is recovered from the room's checked history when
// possible, otherwise set to now. Returns the number of migrated rooms.
func (r *RoomStateRepository) MigrateLegacyEmptied(ctx context.Context, now time.Time) (int, error) {
	raw, err := r.kv.HGetAll(ctx, emptiedKey)
	if err != nil {
		return 0, fmt.Errorf("failed to read emptied rooms for migration: %w", err)
	}

	var historyKeys []string
	migrated := 0
	for room, v := range raw {
		if v != legacyEmptiedValue {
			continue
		}

		if historyKeys == nil {
			historyKeys, err = r.kv.ScanKeys(ctx, checkedKeyPrefix+"*")
			if err != nil {
				return migrated, fmt.Errorf("failed to scan checked history: %w", err)
			}
			sort.Strings(historyKeys)
		}

		ts := r.findCheckedTimestamp(ctx, historyKeys, room)
		if ts == 0 {
			ts = now.Unix()
		}

		if err := r.kv.HSet(ctx, emptiedKey, room, strconv.FormatInt(ts, 10)); err != nil {
			r.logger.Error("Failed to migrate emptied record",
				zap.String("room", room),
				zap.Error(err),
			)
			continue
		}
		migrated++
		r.logger.Info("Migrated legacy emptied record",
			zap.String("room", room),
			zap.Int64("ts", ts),
		)
	}
	return migrated, nil
}

// findCheckedTimestamp walks the checked-by-date hashes and returns the first
// timestamp recorded for room, or 0 when the history has none.
func (r *RoomStateRepository) findCheckedTimestamp(ctx context.Context, keys []string, room string) int64 {
	for _, key := range keys {
		v, err := r.kv.HGet(ctx, key, room)
		if err != nil {
			continue
		}
		if ts, err := strconv.ParseInt(v, 10, 64); err == nil {
			return ts
		}
	}
	return 0
}
