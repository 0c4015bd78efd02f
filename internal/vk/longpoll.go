package vk

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrSessionExpired means the long-poll key or server is no longer valid
// (failed=2 or failed=3); the caller must acquire a fresh session.
var ErrSessionExpired = errors.New("vk: long poll session expired")

// StaleCursorError means the cursor fell behind the server's event window
// (failed=1); polling may resume immediately with the cursor it carries.
type StaleCursorError struct {
	TS string
}

func (e *StaleCursorError) Error() string {
	return fmt.Sprintf("vk: long poll cursor stale, resume at ts=%s", e.TS)
}

// Batch is one successful long-poll fetch: the advanced cursor and the raw
// updates delivered with it, in server order.
type Batch struct {
	TS      string
	Updates []json.RawMessage
}

// pollResponse covers both the success and the failure shape of an a_check
// response. VK serializes ts as either a string or a number depending on the
// failure path, hence json.Number.
type pollResponse struct {
	TS      json.Number       `json:"ts"`
	Updates []json.RawMessage `json:"updates"`
	Failed  int               `json:"failed"`
}

// Poll issues one long-poll fetch against the session. It returns the batch,
// a *StaleCursorError carrying the replacement cursor, ErrSessionExpired, or
// a transport error.
func (c *Client) Poll(ctx context.Context, session *Session, wait int) (*Batch, error) {
	server := session.Server
	if !strings.HasPrefix(server, "http") {
		server = "https://" + server
	}

	var resp pollResponse
	_, err := c.poller.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"act":     "a_check",
			"key":     session.Key,
			"ts":      session.TS,
			"wait":    fmt.Sprintf("%d", wait),
			"mode":    "2",
			"version": "3",
		}).
		SetResult(&resp).
		Get(server)
	if err != nil {
		return nil, fmt.Errorf("long poll fetch failed: %w", err)
	}

	switch resp.Failed {
	case 0:
		if resp.TS.String() == "" {
			return nil, fmt.Errorf("long poll response carries no cursor")
		}
		return &Batch{TS: resp.TS.String(), Updates: resp.Updates}, nil
	case 1:
		return nil, &StaleCursorError{TS: resp.TS.String()}
	default:
		// failed=2 (key expired) and failed=3 (information lost) both require
		// a new session.
		return nil, ErrSessionExpired
	}
}
