package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"campuschat/internal/domain"
	"campuschat/internal/ws"
)

// ErrReconnectExhausted is returned when the reconnect attempt budget runs
// out without a successful connection.
var ErrReconnectExhausted = errors.New("reconnect attempts exhausted")

// EventHandler receives every decoded server frame after the built-in
// unread bookkeeping has run.
type EventHandler func(event string, data json.RawMessage)

// Client maintains a websocket session to the chat server, re-joining
// subscribed rooms after every reconnect.
type Client struct {
	url     string
	token   string
	selfID  string
	tracker *UnreadTracker
	onEvent EventHandler
	log     *slog.Logger

	dialer *websocket.Dialer

	mu    sync.Mutex
	conn  *websocket.Conn
	rooms map[string]ws.Envelope // join frames to replay on reconnect
}

func New(url, token, selfID string, tracker *UnreadTracker, onEvent EventHandler, log *slog.Logger) *Client {
	if log == nil {
		log = slog.Default()
	}
	return &Client{
		url:     url,
		token:   token,
		selfID:  selfID,
		tracker: tracker,
		onEvent: onEvent,
		log:     log,
		dialer: &websocket.Dialer{
			HandshakeTimeout: 10 * time.Second,
		},
		rooms: make(map[string]ws.Envelope),
	}
}

// Run connects and keeps the session alive until the context is cancelled.
// Every dropped connection is retried on the backoff schedule; when the
// schedule is exhausted Run returns ErrReconnectExhausted.
func (c *Client) Run(ctx context.Context) error {
	backoff := NewBackoff()

	for {
		if err := c.connect(ctx); err != nil {
			delay, ok := backoff.Next()
			if !ok {
				return fmt.Errorf("%w: %v", ErrReconnectExhausted, err)
			}
			c.log.Warn("connect failed, retrying",
				"attempt", backoff.Attempt(), "delay", delay, "error", err)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			continue
		}

		backoff.Reset()

		// ReadMessage blocks while the connection is idle, so cancellation
		// has to reach it by closing the socket out from under it.
		stop := make(chan struct{})
		go func() {
			select {
			case <-ctx.Done():
				c.closeConn()
			case <-stop:
			}
		}()

		err := c.readLoop(ctx)
		close(stop)
		c.closeConn()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.log.Warn("connection lost", "error", err)
	}
}

func (c *Client) connect(ctx context.Context) error {
	dialer := *c.dialer
	dialer.Subprotocols = []string{"bearer", c.token}

	conn, _, err := dialer.DialContext(ctx, c.url, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}

	c.mu.Lock()
	c.conn = conn
	replay := make([]ws.Envelope, 0, len(c.rooms)+1)
	join, _ := json.Marshal(ws.JoinUserPayload{UserID: c.selfID})
	replay = append(replay, ws.Envelope{Event: ws.EventJoinUser, Data: join})
	for _, env := range c.rooms {
		replay = append(replay, env)
	}
	c.mu.Unlock()

	for _, env := range replay {
		if err := c.writeEnvelope(env); err != nil {
			c.closeConn()
			return fmt.Errorf("rejoin: %w", err)
		}
	}
	return nil
}

func (c *Client) readLoop(ctx context.Context) error {
	for {
		c.mu.Lock()
		conn := c.conn
		c.mu.Unlock()
		if conn == nil {
			return errors.New("not connected")
		}

		_, raw, err := conn.ReadMessage()
		if err != nil {
			return err
		}

		var env ws.Envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			c.log.Debug("skipping malformed frame", "error", err)
			continue
		}
		c.dispatch(env)

		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

func (c *Client) dispatch(env ws.Envelope) {
	switch env.Event {
	case ws.EventNotification:
		var p ws.NotificationPayload
		if err := json.Unmarshal(env.Data, &p); err == nil && c.tracker != nil {
			c.tracker.HandleNotification(p.ChatID)
		}
	case ws.EventGroupMessage:
		var m domain.GroupMessage
		if err := json.Unmarshal(env.Data, &m); err == nil && c.tracker != nil {
			c.tracker.HandleGroupMessage(m.GroupID, m.SenderID)
		}
	}
	if c.onEvent != nil {
		c.onEvent(env.Event, env.Data)
	}
}

// JoinChat subscribes to a one-to-one chat room and remembers the
// subscription for replay after reconnects.
func (c *Client) JoinChat(chatID string) error {
	data, _ := json.Marshal(ws.JoinChatPayload{ChatID: chatID})
	env := ws.Envelope{Event: ws.EventJoinChat, Data: data}

	c.mu.Lock()
	c.rooms[domain.ChatRoom(chatID)] = env
	c.mu.Unlock()

	return c.writeEnvelope(env)
}

// JoinGroup subscribes to a group room.
func (c *Client) JoinGroup(groupID string) error {
	data, _ := json.Marshal(ws.JoinGroupPayload{GroupID: groupID})
	env := ws.Envelope{Event: ws.EventJoinGroup, Data: data}

	c.mu.Lock()
	c.rooms[domain.GroupRoom(groupID)] = env
	c.mu.Unlock()

	return c.writeEnvelope(env)
}

// Send submits a message intent over the active connection.
func (c *Client) Send(intent ws.SendIntent) error {
	event := ws.EventSendMessage
	if intent.IsGroup() {
		event = ws.EventSendGroupMessage
	}
	data, err := json.Marshal(intent)
	if err != nil {
		return err
	}
	return c.writeEnvelope(ws.Envelope{Event: event, Data: data})
}

func (c *Client) writeEnvelope(env ws.Envelope) error {
	raw, err := json.Marshal(env)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return errors.New("not connected")
	}
	c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return c.conn.WriteMessage(websocket.TextMessage, raw)
}

func (c *Client) closeConn() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
}
