package vk

import (
	"encoding/json"
	"fmt"
)

// Event is the closed set of update kinds the bot distinguishes. Consumers
// switch on the concrete type; anything VK adds later arrives as
// UnknownEvent instead of silently falling through a string comparison.
type Event interface {
	isEvent()
}

// MessageEvent is a new or edited conversation message.
type MessageEvent struct {
	PeerID int64
	CMID   int64
	Date   int64 // unix seconds, message send time
	Text   string
	Edited bool
}

// ReactionEvent is a reaction being set on a conversation message.
type ReactionEvent struct {
	PeerID     int64
	CMID       int64
	MemberID   int64
	ReactionID int
}

// UnknownEvent is any update type the bot does not consume.
type UnknownEvent struct {
	Type string
}

func (MessageEvent) isEvent()  {}
func (ReactionEvent) isEvent() {}
func (UnknownEvent) isEvent()  {}

type rawUpdate struct {
	Type   string          `json:"type"`
	Object json.RawMessage `json:"object"`
}

type rawMessage struct {
	PeerID int64  `json:"peer_id"`
	CMID   int64  `json:"conversation_message_id"`
	Date   int64  `json:"date"`
	Text   string `json:"text"`
}

// message_new wraps the message in an object envelope; message_edit delivers
// it directly. Decode both shapes.
type rawMessageObject struct {
	Message *rawMessage `json:"message"`
}

type rawReaction struct {
	PeerID     int64 `json:"peer_id"`
	CMID       int64 `json:"cmid"`
	MemberID   int64 `json:"reacted_id"`
	ReactionID int   `json:"reaction_id"`
}

// DecodeUpdate turns one raw long-poll update into an Event.
func DecodeUpdate(raw json.RawMessage) (Event, error) {
	var upd rawUpdate
	if err := json.Unmarshal(raw, &upd); err != nil {
		return nil, fmt.Errorf("failed to decode update: %w", err)
	}

	switch upd.Type {
	case "message_new", "message_edit":
		var wrapped rawMessageObject
		if err := json.Unmarshal(upd.Object, &wrapped); err != nil {
			return nil, fmt.Errorf("failed to decode %s object: %w", upd.Type, err)
		}
		msg := wrapped.Message
		if msg == nil {
			msg = &rawMessage{}
			if err := json.Unmarshal(upd.Object, msg); err != nil {
				return nil, fmt.Errorf("failed to decode %s message: %w", upd.Type, err)
			}
		}
		return MessageEvent{
			PeerID: msg.PeerID,
			CMID:   msg.CMID,
			Date:   msg.Date,
			Text:   msg.Text,
			Edited: upd.Type == "message_edit",
		}, nil

	case "message_reaction_event":
		var re rawReaction
		if err := json.Unmarshal(upd.Object, &re); err != nil {
			return nil, fmt.Errorf("failed to decode reaction object: %w", err)
		}
		return ReactionEvent{
			PeerID:     re.PeerID,
			CMID:       re.CMID,
			MemberID:   re.MemberID,
			ReactionID: re.ReactionID,
		}, nil

	default:
		return UnknownEvent{Type: upd.Type}, nil
	}
}
