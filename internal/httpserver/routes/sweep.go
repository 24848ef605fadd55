package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/leadscout/leadscout/internal/httpserver/deps"
	"github.com/leadscout/leadscout/internal/httpserver/handlers"
)

func init() { Register(registerSweep) }

func registerSweep(r chi.Router, d deps.Deps) {
	r.Post("/api/sweep", handlers.Sweep(d))
}
