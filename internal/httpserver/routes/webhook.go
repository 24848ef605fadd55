package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/leadscout/leadscout/internal/httpserver/deps"
	"github.com/leadscout/leadscout/internal/httpserver/handlers"
	"github.com/leadscout/leadscout/internal/httpserver/mw"
)

func init() { Register(registerWebhook) }

func registerWebhook(r chi.Router, d deps.Deps) {
	r.With(mw.RateLimit(d.WebhookRate)).Get("/webhook", handlers.VerifyWebhook(d))
	r.With(mw.RateLimit(d.WebhookRate)).Post("/webhook", handlers.Notify(d))
}
