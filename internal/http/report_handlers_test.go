package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/nicosare/minibars/internal/repository"
	"github.com/nicosare/minibars/internal/store"
)

// fixedNow is 2024-06-10 12:00 UTC, i.e. 2024-06-10 17:00 local.
var fixedNow = time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)

func setupHandler(t *testing.T) (*miniredis.Miniredis, *repository.RoomStateRepository, *Router) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	state := repository.NewRoomStateRepository(store.NewRedisKV(client), zap.NewNop())

	h := NewReportHandler(state, zap.NewNop())
	h.now = func() time.Time { return fixedNow }

	router := NewRouter(zap.NewNop())
	router.RegisterReportRoutes(h)
	return mr, state, router
}

func doRequest(router *Router, method, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	_, _, router := setupHandler(t)

	rec := doRequest(router, http.MethodGet, "/")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())

	rec = doRequest(router, http.MethodGet, "/nope")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetEmptiedRoomsEmpty(t *testing.T) {
	_, _, router := setupHandler(t)

	rec := doRequest(router, http.MethodGet, "/emptied-rooms")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.JSONEq(t, `{"rooms":[]}`, rec.Body.String())
}

func TestGetEmptiedRooms(t *testing.T) {
	mr, state, router := setupHandler(t)
	ctx := context.Background()

	require.NoError(t, state.MarkEmptied(ctx, "1002", 1718000000))
	mr.HSet("minibars:emptied", "900", "true") // legacy, no timestamp

	rec := doRequest(router, http.MethodGet, "/emptied-rooms")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Rooms []struct {
			Room string `json:"room"`
			TS   *int64 `json:"ts"`
		} `json:"rooms"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Rooms, 2)
	assert.Equal(t, "900", resp.Rooms[0].Room)
	assert.Nil(t, resp.Rooms[0].TS)
	assert.Equal(t, "1002", resp.Rooms[1].Room)
	require.NotNil(t, resp.Rooms[1].TS)
	assert.Equal(t, int64(1718000000), *resp.Rooms[1].TS)
}

func TestGetTodayRooms(t *testing.T) {
	_, state, router := setupHandler(t)
	ctx := context.Background()

	// 07:30 UTC = 12:30 local, on today's civil date.
	ts := time.Date(2024, 6, 10, 7, 30, 0, 0, time.UTC).Unix()
	require.NoError(t, state.MarkChecked(ctx, "2024-06-10", "1002", ts))
	require.NoError(t, state.MarkChecked(ctx, "2024-06-10", "900", ts))
	require.NoError(t, state.MarkEmptied(ctx, "1002", ts))
	// Checked yesterday: must not appear.
	require.NoError(t, state.MarkChecked(ctx, "2024-06-09", "1700", ts))

	rec := doRequest(router, http.MethodGet, "/today-rooms")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Rooms []struct {
			Room    string `json:"room"`
			Time    string `json:"time"`
			Emptied bool   `json:"emptied"`
		} `json:"rooms"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Rooms, 2)
	assert.Equal(t, "900", resp.Rooms[0].Room)
	assert.False(t, resp.Rooms[0].Emptied)
	assert.Equal(t, "1002", resp.Rooms[1].Room)
	assert.True(t, resp.Rooms[1].Emptied)
	assert.Equal(t, "12:30", resp.Rooms[1].Time)
}

func TestMethodNotAllowed(t *testing.T) {
	_, _, router := setupHandler(t)

	rec := doRequest(router, http.MethodPost, "/today-rooms")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	rec = doRequest(router, http.MethodGet, "/migrate-emptied-rooms")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestMigrateEndpoint(t *testing.T) {
	mr, _, router := setupHandler(t)
	mr.HSet("minibars:emptied", "1000", "true")

	rec := doRequest(router, http.MethodPost, "/migrate-emptied-rooms")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true,"migrated":1}`, rec.Body.String())

	rec = doRequest(router, http.MethodPost, "/migrate-emptied-rooms")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true,"migrated":0}`, rec.Body.String())
}

func TestExportTodayRooms(t *testing.T) {
	_, state, router := setupHandler(t)
	ctx := context.Background()

	ts := time.Date(2024, 6, 10, 7, 30, 0, 0, time.UTC).Unix()
	require.NoError(t, state.MarkChecked(ctx, "2024-06-10", "1002", ts))
	require.NoError(t, state.MarkEmptied(ctx, "1002", ts))

	rec := doRequest(router, http.MethodGet, "/today-rooms/export")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "rooms-2024-06-10.xlsx")

	f, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()

	room, err := f.GetCellValue("Today Rooms", "A2")
	require.NoError(t, err)
	assert.Equal(t, "1002", room)

	timeCell, err := f.GetCellValue("Today Rooms", "B2")
	require.NoError(t, err)
	assert.Equal(t, "12:30", timeCell)

	emptied, err := f.GetCellValue("Today Rooms", "C2")
	require.NoError(t, err)
	assert.Equal(t, "yes", emptied)
}
