// Package models holds the shared record types for room state and the
// reporting payloads built from it.
package models

// DeadlineStatus is the minibar deadline marker kept per room by the
// inventory subsystem.
type DeadlineStatus string

const (
	// DeadlineStatusOK: the minibar was emptied, no deadlines apply.
	DeadlineStatusOK DeadlineStatus = "ok"
	// DeadlineStatusNeutral: no emptied mark; deadlines are tracked normally.
	DeadlineStatusNeutral DeadlineStatus = "neutral"
	// DeadlineStatusProducts: products with approaching deadlines present.
	DeadlineStatusProducts DeadlineStatus = "products"
)

// EmptiedRoom is one row of the global emptied set. TS is nil for legacy
// records written before timestamps were recorded.
type EmptiedRoom struct {
	Room string `json:"room"`
	TS   *int64 `json:"ts"`
}

// TodayRoom is one row of the today-checked report. Time is the local HH:MM
// of the message that checked the room; Emptied is derived from the global
// emptied set, not from today's messages.
type TodayRoom struct {
	Room    string `json:"room"`
	Time    string `json:"time"`
	Emptied bool   `json:"emptied"`
}
