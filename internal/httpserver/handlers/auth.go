package handlers

import (
	"fmt"
	"net/http"

	"github.com/leadscout/leadscout/internal/httpserver/deps"
	"github.com/leadscout/leadscout/internal/logger"
	"github.com/leadscout/leadscout/internal/provider"
)

// Auth starts the browser consent flow.
func Auth(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, d.Credentials.AuthCodeURL(d.OAuthState), http.StatusFound)
	}
}

// OAuthCallback finishes the consent flow: exchange the code, resolve
// the watched channel, subscribe our webhook to the hub, and kick off
// the initial sweep.
func OAuthCallback(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if state := r.URL.Query().Get("state"); state != d.OAuthState {
			http.Error(w, "state mismatch", http.StatusBadRequest)
			return
		}
		code := r.URL.Query().Get("code")
		if code == "" {
			http.Error(w, "missing authorization code", http.StatusBadRequest)
			return
		}

		if err := d.Credentials.Exchange(ctx, code); err != nil {
			d.Logger.Error("authorization code exchange failed", logger.Error(err))
			http.Error(w, "token exchange failed", http.StatusBadGateway)
			return
		}

		channelID, err := d.Provider.MyChannel(ctx)
		if err != nil {
			d.Logger.Error("failed to resolve watched channel", logger.Error(err))
			http.Error(w, "channel lookup failed", http.StatusBadGateway)
			return
		}
		d.Engine.SetChannel(channelID)
		d.Logger.Info("watching channel", logger.String("channel", channelID))

		// Best effort: polling still covers everything if the hub is down.
		if err := d.Hub.Subscribe(ctx, provider.FeedTopic(channelID), d.CallbackURL, d.HubLease); err != nil {
			d.Logger.Warn("push hub subscription failed, relying on polling",
				logger.Error(err))
		}

		select {
		case d.SweepTrigger <- struct{}{}:
			d.Logger.Info("initial sweep triggered")
		default:
		}

		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		fmt.Fprintf(w, "Authenticated. Watching channel %s for new comments.\n", channelID)
	}
}
