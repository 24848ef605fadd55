package handlers

import (
	"net/http"

	"github.com/leadscout/leadscout/internal/httpserver/deps"
	"github.com/leadscout/leadscout/internal/logger"
)

// Sweep triggers an immediate reconciliation sweep.
func Sweep(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		select {
		case d.SweepTrigger <- struct{}{}:
			d.Logger.Info("manual sweep triggered via endpoint",
				logger.String("remote_ip", r.RemoteAddr))
			w.WriteHeader(http.StatusAccepted)
			_, _ = w.Write([]byte("sweep triggered"))
		default:
			d.Logger.Warn("sweep already pending",
				logger.String("remote_ip", r.RemoteAddr))
			w.WriteHeader(http.StatusConflict)
			_, _ = w.Write([]byte("sweep already pending"))
		}
	}
}
