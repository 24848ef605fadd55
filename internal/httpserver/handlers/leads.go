package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/leadscout/leadscout/internal/domain"
	"github.com/leadscout/leadscout/internal/httpserver/deps"
	"github.com/leadscout/leadscout/internal/leadstore"
	"github.com/leadscout/leadscout/internal/logger"
)

// Leads returns every recorded lead, oldest first.
func Leads(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		records, err := d.Leads.All()
		if err != nil {
			d.Logger.Error("failed to read leads", logger.Error(err))
			http.Error(w, "error fetching leads", http.StatusInternalServerError)
			return
		}
		if records == nil {
			records = []domain.LeadRecord{}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(records)
	}
}

type statsResponse struct {
	leadstore.Stats
	ProcessedComments int64     `json:"processed_comments"`
	ProcessedItems    int64     `json:"processed_items"`
	GeneratedAt       time.Time `json:"generated_at"`
}

// Stats returns lead and ledger aggregates, computed on read.
func Stats(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := d.Leads.ComputeStats()
		if err != nil {
			d.Logger.Error("failed to compute lead stats", logger.Error(err))
			http.Error(w, "error fetching stats", http.StatusInternalServerError)
			return
		}
		comments, items, err := d.Ledger.Totals(r.Context())
		if err != nil {
			d.Logger.Error("failed to read ledger totals", logger.Error(err))
			http.Error(w, "error fetching stats", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(statsResponse{
			Stats:             stats,
			ProcessedComments: comments,
			ProcessedItems:    items,
			GeneratedAt:       d.TimeNow(),
		})
	}
}
