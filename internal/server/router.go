package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"roomchat/internal/auth"
	"roomchat/internal/chat"
	"roomchat/internal/config"
	"roomchat/internal/web"
)

type Deps struct {
	Auth   *auth.Service
	Chat   *chat.Service
	Engine *chat.Engine
}

func New(cfg config.Config, d Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(web.RequestID)
	r.Use(web.Logger)
	r.Use(web.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           int((24 * time.Hour).Seconds()),
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		rooms, conns := d.Engine.Stats()
		web.JSON(w, http.StatusOK, map[string]any{"status": "ok", "rooms": rooms, "connections": conns})
	})

	r.Get("/ws", d.Chat.ServeWS)
	r.Mount("/api", newAPI(d))

	return r
}
