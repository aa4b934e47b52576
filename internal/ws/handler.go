package ws

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/websocket"

	"campuschat/internal/domain"
	"campuschat/internal/security"
)

type wsAuthError struct {
	status int
	msg    string
}

func (e wsAuthError) Error() string {
	return e.msg
}

func normalizeAllowedOrigins(origins []string) map[string]struct{} {
	res := make(map[string]struct{}, len(origins))
	for _, origin := range origins {
		o := strings.TrimSpace(strings.ToLower(origin))
		if o != "" {
			res[o] = struct{}{}
		}
	}
	return res
}

func makeCheckOrigin(allowedOrigins []string) func(r *http.Request) bool {
	allowed := normalizeAllowedOrigins(allowedOrigins)
	if len(allowed) == 0 {
		return func(r *http.Request) bool {
			return false
		}
	}

	return func(r *http.Request) bool {
		origin := strings.TrimSpace(strings.ToLower(r.Header.Get("Origin")))
		if origin == "" {
			return false
		}
		if _, ok := allowed[origin]; ok {
			return true
		}

		u, err := url.Parse(origin)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return false
		}
		normalized := strings.ToLower(fmt.Sprintf("%s://%s", u.Scheme, u.Host))
		_, ok := allowed[normalized]
		return ok
	}
}

func extractTokenFromWSRequest(r *http.Request) (string, error) {
	authHeader := strings.TrimSpace(r.Header.Get("Authorization"))
	if strings.HasPrefix(strings.ToLower(authHeader), "bearer ") {
		token := strings.TrimSpace(authHeader[len("Bearer "):])
		if token != "" {
			return token, nil
		}
	}

	protocolHeader := r.Header.Get("Sec-WebSocket-Protocol")
	if protocolHeader != "" {
		parts := strings.Split(protocolHeader, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		if len(parts) >= 2 && strings.EqualFold(parts[0], "bearer") {
			token := parts[1]
			if token != "" {
				return token, nil
			}
		}
	}

	return "", wsAuthError{status: http.StatusUnauthorized, msg: "missing bearer token"}
}

// HandlerConfig carries the knobs the /ws endpoint needs from the
// application config.
type HandlerConfig struct {
	AllowedOrigins    []string
	SendRatePerSecond float64
	SendBurst         int
}

// MakeHandler returns the HTTP handler for the /ws endpoint.
// It authenticates via Bearer token (Authorization header or
// Sec-WebSocket-Protocol), registers the connection, auto-joins the
// personal room, then dispatches events:
//   - join_user / join_chat / join_group -> room subscriptions
//   - send_message / send_group_message  -> delivery engine
//
// A connection that fails authentication is never registered; the deferred
// teardown is idempotent.
func MakeHandler(
	hub *Hub,
	tokens *security.TokenService,
	users domain.UserStore,
	chats domain.ChatStore,
	groups domain.GroupStore,
	delivery *Delivery,
	cfg HandlerConfig,
) http.HandlerFunc {
	checkOrigin := makeCheckOrigin(cfg.AllowedOrigins)
	up := upgrader
	up.CheckOrigin = checkOrigin

	return func(w http.ResponseWriter, r *http.Request) {
		if !checkOrigin(r) {
			http.Error(w, "origin not allowed", http.StatusForbidden)
			return
		}

		tokenStr, err := extractTokenFromWSRequest(r)
		if err != nil {
			var authErr wsAuthError
			if errors.As(err, &authErr) {
				http.Error(w, authErr.msg, authErr.status)
				return
			}
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		sub, err := tokens.Subject(tokenStr)
		if err != nil {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}

		ctx := r.Context()
		user, err := users.GetByID(ctx, sub)
		if err != nil || user == nil || user.Status != domain.StatusActive {
			http.Error(w, "user not found or inactive", http.StatusUnauthorized)
			return
		}

		sock, err := up.Upgrade(w, r, nil)
		if err != nil {
			return
		}

		conn := newConn(sock, user, cfg.SendRatePerSecond, cfg.SendBurst)
		hub.Register(conn)
		hub.Join(conn, domain.PersonalRoom(user.ID))
		defer func() {
			hub.RemoveConn(conn)
			close(conn.send)
		}()
		go conn.writePump()

		slog.Info("ws: client connected", "user_id", user.ID, "conn", conn.ID)
		defer slog.Info("ws: client disconnected", "user_id", user.ID, "conn", conn.ID)

		conn.configureRead()
		for {
			_, raw, err := sock.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					slog.Error("ws: read", "user_id", user.ID, "error", err)
				}
				return
			}
			var env Envelope
			if err := json.Unmarshal(raw, &env); err != nil {
				continue
			}

			switch env.Event {

			case EventJoinUser:
				var p JoinUserPayload
				if err := json.Unmarshal(env.Data, &p); err != nil {
					continue
				}
				// Only the authenticated identity's own personal room.
				if p.UserID != user.ID {
					conn.sendError("cannot join another user's personal room")
					continue
				}
				hub.Join(conn, domain.PersonalRoom(user.ID))

			case EventJoinChat:
				var p JoinChatPayload
				if err := json.Unmarshal(env.Data, &p); err != nil || p.ChatID == "" {
					continue
				}
				chat, err := chats.GetByID(ctx, p.ChatID)
				if err != nil || chat == nil || !chat.HasParticipant(user.ID) {
					conn.sendError("not allowed for this chat")
					continue
				}
				hub.Join(conn, domain.ChatRoom(chat.ID))

			case EventJoinGroup:
				var p JoinGroupPayload
				if err := json.Unmarshal(env.Data, &p); err != nil || p.GroupID == "" {
					continue
				}
				isMember, err := groups.IsMember(ctx, p.GroupID, user.ID)
				if err != nil || !isMember {
					conn.sendError("not allowed for this group")
					continue
				}
				hub.Join(conn, domain.GroupRoom(p.GroupID))

			case EventSendMessage, EventSendGroupMessage:
				if !conn.limiter.Allow() {
					conn.sendError("too many messages, slow down")
					continue
				}
				var intent SendIntent
				if err := json.Unmarshal(env.Data, &intent); err != nil {
					conn.sendError("malformed send intent")
					continue
				}
				if env.Event == EventSendGroupMessage && intent.GroupID == "" {
					conn.sendError("group_id is required")
					continue
				}
				if err := delivery.HandleSendIntent(ctx, conn, intent); err != nil {
					slog.Error("ws: send intent", "user_id", user.ID, "error", err)
					conn.sendError(userFacing(err))
				}

			default:
				slog.Debug("ws: unknown event", "event", env.Event, "user_id", user.ID)
			}
		}
	}
}

// userFacing maps an intent failure to the message carried by
// message_error. Taxonomy errors speak for themselves; anything else is an
// internal detail the sender only needs to know is retryable.
func userFacing(err error) string {
	switch {
	case domain.Terminal(err):
		return unwrapSentinel(err).Error()
	case errors.Is(err, domain.ErrStoreUnavailable):
		return domain.ErrStoreUnavailable.Error()
	case errors.Is(err, domain.ErrForbidden):
		return domain.ErrForbidden.Error()
	default:
		return "failed to send message"
	}
}

func unwrapSentinel(err error) error {
	for _, sentinel := range []error{
		domain.ErrEmptyMessage,
		domain.ErrChatNotFound,
		domain.ErrGroupNotFound,
		domain.ErrNotAMember,
		domain.ErrInvalidInput,
	} {
		if errors.Is(err, sentinel) {
			return sentinel
		}
	}
	return err
}
