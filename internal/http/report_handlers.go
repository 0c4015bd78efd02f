package httpapi

import (
	"net/http"
	"sort"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/nicosare/minibars/internal/localtime"
	"github.com/nicosare/minibars/internal/models"
	"github.com/nicosare/minibars/internal/repository"
)

// ReportHandler serves the dashboard projections of the two persisted sets.
type ReportHandler struct {
	state  *repository.RoomStateRepository
	logger *zap.Logger
	now    func() time.Time
}

func NewReportHandler(state *repository.RoomStateRepository, logger *zap.Logger) *ReportHandler {
	return &ReportHandler{
		state:  state,
		logger: logger,
		now:    time.Now,
	}
}

type emptiedRoomsResponse struct {
	Rooms []models.EmptiedRoom `json:"rooms"`
}

// GetEmptiedRooms returns the global emptied set with timestamps.
func (h *ReportHandler) GetEmptiedRooms(w http.ResponseWriter, r *http.Request) {
	allowAnyOrigin(w)

	rooms, err := h.state.EmptiedRooms(r.Context())
	if err != nil {
		h.logger.Error("Failed to read emptied rooms", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "DB_ERROR", err)
		return
	}
	if rooms == nil {
		rooms = []models.EmptiedRoom{}
	}
	writeJSON(w, http.StatusOK, emptiedRoomsResponse{Rooms: rooms})
}

type todayRoomsResponse struct {
	Rooms []models.TodayRoom `json:"rooms"`
}

// GetTodayRooms returns the rooms checked on the current civil date. The
// emptied flag comes from the global emptied set only; an emptied-set read
// failure degrades to "nothing emptied" rather than failing the report.
func (h *ReportHandler) GetTodayRooms(w http.ResponseWriter, r *http.Request) {
	allowAnyOrigin(w)

	rooms, err := h.todayRooms(r)
	if err != nil {
		h.logger.Error("Failed to read checked rooms", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "DB_ERROR", err)
		return
	}
	writeJSON(w, http.StatusOK, todayRoomsResponse{Rooms: rooms})
}

func (h *ReportHandler) todayRooms(r *http.Request) ([]models.TodayRoom, error) {
	ctx := r.Context()
	date := localtime.TodayKey(h.now())

	checked, err := h.state.CheckedForDate(ctx, date)
	if err != nil {
		return nil, err
	}

	emptied := map[string]struct{}{}
	if rows, err := h.state.EmptiedRooms(ctx); err != nil {
		h.logger.Error("Failed to read emptied set for today report", zap.Error(err))
	} else {
		for _, row := range rows {
			emptied[row.Room] = struct{}{}
		}
	}

	out := make([]models.TodayRoom, 0, len(checked))
	for room, ts := range checked {
		_, isEmptied := emptied[room]
		out = append(out, models.TodayRoom{
			Room:    room,
			Time:    localtime.ClockTime(ts),
			Emptied: isEmptied,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		a, _ := strconv.Atoi(out[i].Room)
		b, _ := strconv.Atoi(out[j].Room)
		return a < b
	})
	return out, nil
}

// ExportTodayRooms renders the today report as an .xlsx download.
func (h *ReportHandler) ExportTodayRooms(w http.ResponseWriter, r *http.Request) {
	allowAnyOrigin(w)

	rooms, err := h.todayRooms(r)
	if err != nil {
		h.logger.Error("Failed to read checked rooms for export", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "DB_ERROR", err)
		return
	}

	data, err := generateTodayRoomsExcel(rooms)
	if err != nil {
		h.logger.Error("Failed to render export", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "EXPORT_ERROR", err)
		return
	}

	date := localtime.TodayKey(h.now())
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="rooms-`+date+`.xlsx"`)
	_, _ = w.Write(data)
}

type migrateResponse struct {
	Success  bool `json:"success"`
	Migrated int  `json:"migrated"`
}

// MigrateEmptiedRooms runs the legacy-format migration on demand.
func (h *ReportHandler) MigrateEmptiedRooms(w http.ResponseWriter, r *http.Request) {
	allowAnyOrigin(w)

	migrated, err := h.state.MigrateLegacyEmptied(r.Context(), h.now())
	if err != nil {
		h.logger.Error("Migration failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "MIGRATION_ERROR", err)
		return
	}
	writeJSON(w, http.StatusOK, migrateResponse{Success: true, Migrated: migrated})
}
