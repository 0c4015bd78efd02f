package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nicosare/minibars/internal/localtime"
	"github.com/nicosare/minibars/internal/models"
	"github.com/nicosare/minibars/internal/parser"
	"github.com/nicosare/minibars/internal/repository"
	"github.com/nicosare/minibars/internal/store"
)

// fakeInventory records every status transition and product wipe.
type fakeInventory struct {
	statuses map[string][]models.DeadlineStatus
	cleared  []string
	fail     bool
}

func newFakeInventory() *fakeInventory {
	return &fakeInventory{statuses: make(map[string][]models.DeadlineStatus)}
}

func (f *fakeInventory) SetDeadlineStatus(_ context.Context, room string, status models.DeadlineStatus) error {
	if f.fail {
		return errors.New("inventory down")
	}
	f.statuses[room] = append(f.statuses[room], status)
	return nil
}

func (f *fakeInventory) ClearProducts(_ context.Context, room string) error {
	if f.fail {
		return errors.New("inventory down")
	}
	f.cleared = append(f.cleared, room)
	return nil
}

func setupReconciler(t *testing.T) (*repository.RoomStateRepository, *fakeInventory, *Reconciler) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	state := repository.NewRoomStateRepository(store.NewRedisKV(client), zap.NewNop())
	inv := newFakeInventory()
	return state, inv, NewReconciler(state, inv, zap.NewNop())
}

var testTS = time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC).Unix()

func testDate() string { return localtime.DateKey(testTS) }

func TestApplyAddEmptied(t *testing.T) {
	state, inv, rec := setupReconciler(t)
	ctx := context.Background()

	rec.Apply(ctx, &parser.Intent{Kind: parser.IntentAdd, Rooms: []string{"1000"}, Emptied: true}, testTS)

	checked, err := state.IsChecked(ctx, testDate(), "1000")
	require.NoError(t, err)
	assert.True(t, checked)

	emptied, err := state.IsEmptied(ctx, "1000")
	require.NoError(t, err)
	assert.True(t, emptied)

	assert.Equal(t, []models.DeadlineStatus{models.DeadlineStatusOK}, inv.statuses["1000"])
	assert.Equal(t, []string{"1000"}, inv.cleared)
}

func TestApplyAddIsIdempotent(t *testing.T) {
	state, _, rec := setupReconciler(t)
	ctx := context.Background()

	intent := &parser.Intent{Kind: parser.IntentAdd, Rooms: []string{"1000", "1002"}, Emptied: true}
	rec.Apply(ctx, intent, testTS)

	first, err := state.CheckedForDate(ctx, testDate())
	require.NoError(t, err)

	rec.Apply(ctx, intent, testTS)

	second, err := state.CheckedForDate(ctx, testDate())
	require.NoError(t, err)
	assert.Equal(t, first, second)

	emptied, err := state.EmptiedRooms(ctx)
	require.NoError(t, err)
	assert.Len(t, emptied, 2)
}

func TestApplyAddThenDeleteRoundTrip(t *testing.T) {
	state, _, rec := setupReconciler(t)
	ctx := context.Background()

	rec.Apply(ctx, &parser.Intent{Kind: parser.IntentAdd, Rooms: []string{"1000"}, Emptied: true}, testTS)
	rec.Apply(ctx, &parser.Intent{Kind: parser.IntentDelete, Rooms: []string{"1000"}}, testTS)

	checked, err := state.IsChecked(ctx, testDate(), "1000")
	require.NoError(t, err)
	assert.False(t, checked)

	emptied, err := state.IsEmptied(ctx, "1000")
	require.NoError(t, err)
	assert.False(t, emptied)
}

func TestApplyUnEmptying(t *testing.T) {
	state, inv, rec := setupReconciler(t)
	ctx := context.Background()

	rec.Apply(ctx, &parser.Intent{Kind: parser.IntentAdd, Rooms: []string{"1000"}, Emptied: true}, testTS)
	rec.Apply(ctx, &parser.Intent{Kind: parser.IntentAdd, Rooms: []string{"1000"}}, testTS+600)

	emptied, err := state.IsEmptied(ctx, "1000")
	require.NoError(t, err)
	assert.False(t, emptied)

	checked, err := state.IsChecked(ctx, testDate(), "1000")
	require.NoError(t, err)
	assert.True(t, checked)

	assert.Equal(t,
		[]models.DeadlineStatus{models.DeadlineStatusOK, models.DeadlineStatusNeutral},
		inv.statuses["1000"])
}

func TestApplyAddWithoutEmptiedNoInventoryTouch(t *testing.T) {
	_, inv, rec := setupReconciler(t)
	ctx := context.Background()

	rec.Apply(ctx, &parser.Intent{Kind: parser.IntentAdd, Rooms: []string{"1000"}}, testTS)

	assert.Empty(t, inv.statuses["1000"])
	assert.Empty(t, inv.cleared)
}

func TestApplyDeleteUncheckedRoomKeepsEmptied(t *testing.T) {
	state, _, rec := setupReconciler(t)
	ctx := context.Background()

	// Emptied mark from an earlier date; room is not checked today.
	require.NoError(t, state.MarkEmptied(ctx, "1000", testTS-86400))

	rec.Apply(ctx, &parser.Intent{Kind: parser.IntentDelete, Rooms: []string{"1000"}}, testTS)

	emptied, err := state.IsEmptied(ctx, "1000")
	require.NoError(t, err)
	assert.True(t, emptied)
}

func TestApplyInventoryFailureDoesNotAbortPersistence(t *testing.T) {
	state, inv, rec := setupReconciler(t)
	inv.fail = true
	ctx := context.Background()

	rec.Apply(ctx, &parser.Intent{Kind: parser.IntentAdd, Rooms: []string{"1000", "1002"}, Emptied: true}, testTS)

	for _, room := range []string{"1000", "1002"} {
		checked, err := state.IsChecked(ctx, testDate(), room)
		require.NoError(t, err)
		assert.True(t, checked, room)

		emptied, err := state.IsEmptied(ctx, room)
		require.NoError(t, err)
		assert.True(t, emptied, room)
	}
}
