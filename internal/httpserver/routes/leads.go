package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/leadscout/leadscout/internal/httpserver/deps"
	"github.com/leadscout/leadscout/internal/httpserver/handlers"
)

func init() { Register(registerLeads) }

func registerLeads(r chi.Router, d deps.Deps) {
	r.Get("/api/leads", handlers.Leads(d))
	r.Get("/api/stats", handlers.Stats(d))
}
