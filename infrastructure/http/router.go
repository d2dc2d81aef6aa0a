package http

import (
	"log/slog"
	"net/http"

	"chat-hub/auth"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// RouterDeps bundles everything the REST surface needs.
type RouterDeps struct {
	Log       *slog.Logger
	Tokens    *auth.TokenIssuer
	Auth      *AuthHandler
	Channels  *ChannelHandler
	Messages  *MessageHandler
	Profiles  *ProfileHandler
	Live      http.Handler
	UploadDir string
}

// NewRouter assembles the full HTTP surface: public auth routes, the
// authenticated API, the websocket endpoint, and static uploads.
func NewRouter(d RouterDeps) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/register", d.Auth.Register)
		r.Post("/verify", d.Auth.VerifyOTP)
		r.Post("/resend", d.Auth.ResendOTP)
		r.Post("/login", d.Auth.Login)
	})

	r.Group(func(r chi.Router) {
		r.Use(Authenticator(d.Tokens))

		r.Route("/api/channels", func(r chi.Router) {
			r.Get("/", d.Channels.List)
			r.Post("/", d.Channels.Create)
			r.Get("/{channelID}", d.Channels.Get)
			r.Post("/{channelID}/join", d.Channels.Join)
			r.Post("/{channelID}/leave", d.Channels.Leave)
			r.Post("/{channelID}/requests", d.Channels.RequestAccess)
			r.Get("/{channelID}/requests", d.Channels.ListRequests)
			r.Get("/{channelID}/messages", d.Messages.History)
			r.Post("/{channelID}/messages", d.Messages.Post)
			r.Get("/{channelID}/messages/search", d.Messages.Search)
		})
		r.Post("/api/requests/{requestID}", d.Channels.ResolveRequest)

		r.Route("/api/users", func(r chi.Router) {
			r.Get("/me", d.Profiles.Me)
			r.Post("/me/avatar", d.Profiles.UploadAvatar)
			r.Get("/{userID}", d.Profiles.Get)
		})
	})

	// Websocket handshake carries its own token; the HTTP middleware would
	// reject browser clients that cannot set headers on upgrade.
	r.Handle("/ws", d.Live)

	fs := http.StripPrefix("/uploads/", http.FileServer(http.Dir(d.UploadDir)))
	r.Get("/uploads/*", fs.ServeHTTP)

	return r
}
