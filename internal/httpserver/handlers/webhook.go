package handlers

import (
	"io"
	"net/http"

	"github.com/leadscout/leadscout/internal/httpserver/deps"
	"github.com/leadscout/leadscout/internal/logger"
)

const maxNotificationBytes = 1 << 20

// VerifyWebhook answers the hub's subscription verification: echo the
// challenge back, or 400 when there is none.
func VerifyWebhook(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		challenge := r.URL.Query().Get("hub.challenge")
		if challenge == "" {
			http.Error(w, "no challenge found", http.StatusBadRequest)
			return
		}
		d.Logger.Info("webhook verification succeeded")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(challenge))
	}
}

// Notify accepts one push notification. The 200 is committed before
// the payload is handled so the hub's delivery never depends on our
// processing; OnNotification itself only parses and hands the item to
// the debouncer.
func Notify(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(io.LimitReader(r.Body, maxNotificationBytes))
		if err != nil {
			d.Logger.Warn("failed to read notification body", logger.Error(err))
			// Acknowledge anyway; the hub retries on its own schedule.
			w.WriteHeader(http.StatusOK)
			return
		}

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))

		d.Listener.OnNotification(body)
	}
}
