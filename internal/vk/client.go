// Package vk is the gateway to the VK Bots API: session acquisition for the
// Bots Long Poll transport, the long-poll fetch itself, and the couple of
// messages.* calls the notifier needs.
package vk

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

const (
	apiBaseURL = "https://api.vk.com/method"
	apiVersion = "5.199"
)

// APIError is the VK API error envelope.
type APIError struct {
	Code    int    `json:"error_code"`
	Message string `json:"error_msg"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("vk api error %d: %s", e.Code, e.Message)
}

// envelope is the outer shape of every method response.
type envelope struct {
	Response json.RawMessage `json:"response"`
	Error    *APIError       `json:"error"`
}

// Session is a long-poll session descriptor: where to poll, with what key,
// starting at which cursor.
type Session struct {
	Server string `json:"server"`
	Key    string `json:"key"`
	TS     string `json:"ts"`
}

// Client calls the VK Bots API on behalf of one community bot.
type Client struct {
	api     *resty.Client
	poller  *resty.Client
	token   string
	groupID int64
	logger  *zap.Logger
}

// NewClient builds a client for the given bot token and community. wait is
// the long-poll hold time in seconds; the poll transport timeout is derived
// from it.
func NewClient(token string, groupID int64, wait int, logger *zap.Logger) *Client {
	api := resty.New().
		SetBaseURL(apiBaseURL).
		SetTimeout(15 * time.Second).
		SetHeader("Accept", "application/json")

	// The long-poll request is held open server-side for up to wait seconds;
	// the timeout must sit above that, not at the default.
	poller := resty.New().
		SetTimeout(time.Duration(wait+10) * time.Second).
		SetHeader("Accept", "application/json")

	return &Client{
		api:     api,
		poller:  poller,
		token:   token,
		groupID: groupID,
		logger:  logger,
	}
}

// GetLongPollServer acquires a fresh long-poll session from VK.
func (c *Client) GetLongPollServer(ctx context.Context) (*Session, error) {
	var env envelope
	_, err := c.api.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"group_id":     strconv.FormatInt(c.groupID, 10),
			"access_token": c.token,
			"v":            apiVersion,
		}).
		SetResult(&env).
		Get("/groups.getLongPollServer")
	if err != nil {
		return nil, fmt.Errorf("failed to call groups.getLongPollServer: %w", err)
	}
	if env.Error != nil {
		return nil, fmt.Errorf("groups.getLongPollServer: %w", env.Error)
	}

	var session Session
	if err := json.Unmarshal(env.Response, &session); err != nil {
		return nil, fmt.Errorf("failed to decode long poll session: %w", err)
	}
	if session.Server == "" || session.Key == "" {
		return nil, fmt.Errorf("incomplete long poll session: %s", string(env.Response))
	}

	c.logger.Info("Long poll session acquired", zap.String("server", session.Server))
	return &session, nil
}

// sendResult is one element of the messages.send response when peer_ids is
// used; it carries the conversation message id the reaction events refer to.
type sendResult struct {
	PeerID int64 `json:"peer_id"`
	CMID   int64 `json:"conversation_message_id"`
}

// SendMessage posts text to a conversation and returns the conversation
// message id of the sent message.
func (c *Client) SendMessage(ctx context.Context, peerID int64, text string) (int64, error) {
	var env envelope
	_, err := c.api.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"peer_ids":     strconv.FormatInt(peerID, 10),
			"message":      text,
			"random_id":    strconv.FormatInt(rand.Int63(), 10),
			"access_token": c.token,
			"v":            apiVersion,
		}).
		SetResult(&env).
		Post("/messages.send")
	if err != nil {
		return 0, fmt.Errorf("failed to call messages.send: %w", err)
	}
	if env.Error != nil {
		return 0, fmt.Errorf("messages.send: %w", env.Error)
	}

	var results []sendResult
	if err := json.Unmarshal(env.Response, &results); err != nil {
		return 0, fmt.Errorf("failed to decode messages.send response: %w", err)
	}
	for _, res := range results {
		if res.PeerID == peerID {
			return res.CMID, nil
		}
	}
	return 0, fmt.Errorf("messages.send response has no entry for peer %d", peerID)
}

// DeleteMessage deletes a message of the conversation for everyone, addressed
// by its conversation message id.
func (c *Client) DeleteMessage(ctx context.Context, peerID, cmid int64) error {
	var env envelope
	_, err := c.api.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"peer_id":        strconv.FormatInt(peerID, 10),
			"cmids":          strconv.FormatInt(cmid, 10),
			"delete_for_all": "1",
			"access_token":   c.token,
			"v":              apiVersion,
		}).
		SetResult(&env).
		Post("/messages.delete")
	if err != nil {
		return fmt.Errorf("failed to call messages.delete: %w", err)
	}
	if env.Error != nil {
		return fmt.Errorf("messages.delete: %w", env.Error)
	}
	return nil
}
