package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"roomchat/internal/web"
)

func newAPI(d Deps) http.Handler {
	r := chi.NewRouter()

	r.Mount("/auth", d.Auth.Routes())

	r.Group(func(r chi.Router) {
		r.Use(d.Auth.Middleware)

		r.Get("/users/me", d.Auth.Me)
		r.Get("/rooms", func(w http.ResponseWriter, r *http.Request) {
			web.JSON(w, http.StatusOK, map[string]any{"items": d.Engine.Rooms()})
		})
	})

	return r
}
