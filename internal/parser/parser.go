// Package parser turns a raw chat message into a structured command over room
// numbers, or rejects it. The grammar is deliberately narrow: a message is
// either a deletion ("-1000, 1002"), an addition ("1000 1002"), optionally
// annotated after the last number ("1000 опустошили"), or it is not a command
// at all. Anything ambiguous is rejected whole; partial recognition would
// silently act on half of what a human meant.
package parser

import (
	"regexp"
	"strings"

	"github.com/nicosare/minibars/internal/rooms"
)

// IntentKind discriminates the two commands the bot understands.
type IntentKind int

const (
	// IntentAdd marks rooms as checked today.
	IntentAdd IntentKind = iota
	// IntentDelete removes rooms from today's checked state.
	IntentDelete
)

// Intent is the parsed outcome of one message. Rooms are deduplicated and keep
// the order in which they first appear in the text.
type Intent struct {
	Kind    IntentKind
	Rooms   []string
	Emptied bool // only meaningful for IntentAdd
}

// emptiedKeyword flags an addition as "emptied" when found (case-insensitive)
// anywhere after the last room number: "опустошили", "опустошён" etc.
const emptiedKeyword = "опустош"

var (
	roomRun      = regexp.MustCompile(`\d{3,4}`)
	leadingRun   = regexp.MustCompile(`^\d{3,4}`)
	separatorSet = regexp.MustCompile(`[\s,.;:!?-]`)
)

// Parse interprets text as a room command. It returns nil when the message is
// not a command; that is the normal outcome for most chat traffic.
func Parse(text string) *Intent {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil
	}

	if strings.HasPrefix(trimmed, "-") {
		return parseDelete(strings.TrimSpace(trimmed[1:]))
	}
	return parseAdd(trimmed)
}

// parseDelete handles "-<numbers>". Deletions must be bare number lists: after
// stripping number runs and separators nothing may remain.
func parseDelete(body string) *Intent {
	if body == "" {
		return nil
	}

	valid := validRooms(body)
	if len(valid) == 0 {
		return nil
	}

	if leftoverText(body) != "" {
		return nil
	}

	return &Intent{Kind: IntentDelete, Rooms: dedup(valid)}
}

// parseAdd handles "<numbers> [annotation]". The message must begin with a
// valid room number, numbers may be separated only by punctuation, and free
// text is allowed only after the last number.
func parseAdd(body string) *Intent {
	first := leadingRun.FindString(body)
	if first == "" || !rooms.Contains(first) {
		return nil
	}

	valid := validRooms(body)
	if len(valid) == 0 {
		return nil
	}

	// Position of the last valid number decides where the number list ends
	// and the free-text tail begins.
	last := valid[len(valid)-1]
	end := strings.LastIndex(body, last) + len(last)

	if leftoverText(body[:end]) != "" {
		return nil
	}

	tail := strings.ToLower(strings.TrimSpace(body[end:]))
	emptied := strings.Contains(tail, emptiedKeyword)

	return &Intent{Kind: IntentAdd, Rooms: dedup(valid), Emptied: emptied}
}

// validRooms extracts every 3-4 digit run and keeps the ones that are real
// room numbers.
func validRooms(s string) []string {
	var out []string
	for _, run := range roomRun.FindAllString(s, -1) {
		if rooms.Contains(run) {
			out = append(out, run)
		}
	}
	return out
}

// leftoverText strips all digit runs and allow-listed separators. A non-empty
// result means the text carries words the grammar does not permit there.
func leftoverText(s string) string {
	s = roomRun.ReplaceAllString(s, "")
	return separatorSet.ReplaceAllString(s, "")
}

func dedup(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, r := range in {
		if _, ok := seen[r]; ok {
			continue
		}
		seen[r] = struct{}{}
		out = append(out, r)
	}
	return out
}
