package ws

import (
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"campuschat/internal/domain"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 54 * time.Second
	maxMessageSize = 64 << 10
	sendBufferSize = 256
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	Subprotocols:    []string{"bearer"},
}

// Conn is one live transport session. It is created on handshake, bound to
// exactly one identity, and destroyed on disconnect. The set of joined
// rooms lives in the hub; all other state here is owned by the connection's
// handler goroutine.
type Conn struct {
	ID   string
	user *domain.User

	sock    *websocket.Conn
	send    chan []byte
	limiter *rate.Limiter
}

func newConn(sock *websocket.Conn, user *domain.User, sendRate float64, burst int) *Conn {
	return &Conn{
		ID:      uuid.NewString(),
		user:    user,
		sock:    sock,
		send:    make(chan []byte, sendBufferSize),
		limiter: rate.NewLimiter(rate.Limit(sendRate), burst),
	}
}

// User returns the identity bound to this connection at handshake. The
// identity is fetched once and cached for the connection's lifetime.
func (c *Conn) User() *domain.User { return c.user }

// enqueue hands a frame to the write pump without blocking. A full buffer
// means the peer is stalled or gone; the frame is dropped, which is fine
// because durable state is reconstructed from history on the next fetch.
func (c *Conn) enqueue(frame []byte) bool {
	select {
	case c.send <- frame:
		return true
	default:
		return false
	}
}

func (c *Conn) sendEvent(event string, payload any) {
	frame, err := Encode(event, payload)
	if err != nil {
		slog.Error("ws: encode frame", "event", event, "error", err)
		return
	}
	c.enqueue(frame)
}

func (c *Conn) sendError(msg string) {
	c.sendEvent(EventMessageError, ErrorPayload{Error: msg})
}

// writePump drains the send channel onto the socket and keeps the
// connection alive with pings. One pump per connection.
func (c *Conn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.sock.Close()
	}()

	for {
		select {
		case frame, ok := <-c.send:
			c.sock.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.sock.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.sock.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-ticker.C:
			c.sock.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.sock.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Conn) configureRead() {
	c.sock.SetReadLimit(maxMessageSize)
	c.sock.SetReadDeadline(time.Now().Add(pongWait))
	c.sock.SetPongHandler(func(string) error {
		c.sock.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
}
