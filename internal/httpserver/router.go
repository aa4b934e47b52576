package httpserver

import (
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"campuschat/internal/config"
	"campuschat/internal/domain"
	"campuschat/internal/security"
	"campuschat/internal/service"
	"campuschat/internal/store/postgres"
	"campuschat/internal/store/sqlite"
	"campuschat/internal/ws"
)

type stores struct {
	users     domain.UserStore
	chats     domain.ChatStore
	messages  domain.MessageStore
	groups    domain.GroupStore
	groupMsgs domain.GroupMessageStore
	files     domain.FileStore
}

func newStores(driver string, db *sql.DB) stores {
	if driver == "sqlite" {
		return stores{
			users:     sqlite.NewUserRepo(db),
			chats:     sqlite.NewChatRepo(db),
			messages:  sqlite.NewMessageRepo(db),
			groups:    sqlite.NewGroupRepo(db),
			groupMsgs: sqlite.NewGroupMessageRepo(db),
			files:     sqlite.NewFileRepo(db),
		}
	}
	return stores{
		users:     postgres.NewUserRepo(db),
		chats:     postgres.NewChatRepo(db),
		messages:  postgres.NewMessageRepo(db),
		groups:    postgres.NewGroupRepo(db),
		groupMsgs: postgres.NewGroupMessageRepo(db),
		files:     postgres.NewFileRepo(db),
	}
}

// NewRouter constructs the main HTTP router and wires routes, services, and middleware.
func NewRouter(cfg *config.Config, db *sql.DB, hub *ws.Hub, tokenSvc *security.TokenService, passwordHasher *security.PasswordHasher, log *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	st := newStores(cfg.DBDriver, db)

	authSvc := service.NewAuthService(st.users, tokenSvc, passwordHasher)
	userSvc := service.NewUserService(st.users)
	chatSvc := service.NewChatService(st.chats, st.messages, st.users)
	groupSvc := service.NewGroupService(st.groups, st.groupMsgs)

	delivery := ws.NewDelivery(st.chats, st.messages, st.groups, st.groupMsgs, hub, cfg.StoreTimeout, log)

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"message":"CampusChat API","version":"1.0.0"}`))
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy"}`))
	})

	// File downloads are referenced by URL from message payloads and
	// rendered inline by the frontend, so they sit outside the auth group.
	r.Get("/api/files/{fileID}", handleGetFile(st.files))

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", handleRegister(authSvc))
			r.Post("/login", handleLogin(authSvc))
		})

		r.Group(func(r chi.Router) {
			r.Use(AuthMiddleware(tokenSvc, st.users))

			r.Get("/auth/me", handleMe())

			r.Route("/users", func(r chi.Router) {
				r.Get("/contacts", handleContacts(userSvc))
				r.Get("/{userID}", handleGetUser(userSvc))
			})

			r.Route("/chats", func(r chi.Router) {
				r.Post("/", handleCreateChat(chatSvc))
				r.Get("/", handleListChats(chatSvc))
				r.Get("/unread", handleUnreadSummary(chatSvc))
				r.Get("/{chatID}/messages", handleChatHistory(chatSvc))
				r.Post("/{chatID}/read", handleMarkChatRead(chatSvc))
			})

			r.Route("/groups", func(r chi.Router) {
				r.Get("/", handleListGroups(groupSvc))
				r.Get("/{groupID}/messages", handleGroupHistory(groupSvc))
			})

			r.Post("/files", handleUploadFile(st.files, cfg.MaxUploadBytes))
		})
	})

	r.Get("/ws", ws.MakeHandler(hub, tokenSvc, st.users, st.chats, st.groups, delivery, ws.HandlerConfig{
		AllowedOrigins:    cfg.CORSOrigins,
		SendRatePerSecond: cfg.SendRatePerSecond,
		SendBurst:         cfg.SendBurst,
	}))

	return r
}

// writeJSON is a small helper to send JSON responses.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, errStatus(err), map[string]string{"error": err.Error()})
}

func errStatus(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound),
		errors.Is(err, domain.ErrChatNotFound),
		errors.Is(err, domain.ErrGroupNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, domain.ErrForbidden),
		errors.Is(err, domain.ErrNotAMember):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrAuthRejected):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrInvalidInput),
		errors.Is(err, domain.ErrEmptyMessage):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
