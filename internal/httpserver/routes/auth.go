package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/leadscout/leadscout/internal/httpserver/deps"
	"github.com/leadscout/leadscout/internal/httpserver/handlers"
)

func init() { Register(registerAuth) }

func registerAuth(r chi.Router, d deps.Deps) {
	r.Get("/auth", handlers.Auth(d))
	r.Get("/oauth2callback", handlers.OAuthCallback(d))
}
