package push

import (
	"encoding/xml"
	"time"

	"github.com/leadscout/leadscout/internal/domain"
	"github.com/leadscout/leadscout/internal/logger"
)

// Atom feed payload pushed by the subscription hub. Only the first
// entry matters; the hub announces one item per notification.
type feed struct {
	XMLName xml.Name `xml:"feed"`
	Entries []entry  `xml:"entry"`
}

type entry struct {
	VideoID   string `xml:"videoId"`
	Title     string `xml:"title"`
	Published string `xml:"published"`
}

// Scheduler is where valid announcements go: a debounced targeted
// reconciliation for exactly that item.
type Scheduler interface {
	Schedule(item domain.Item)
}

// Listener normalizes raw hub notifications into single-item
// reconciliation requests. Malformed payloads are expected from the
// wild and are dropped, never propagated.
type Listener struct {
	sched Scheduler
	log   logger.Logger
}

// NewListener creates a push listener feeding the given scheduler.
func NewListener(sched Scheduler, log logger.Logger) *Listener {
	return &Listener{sched: sched, log: log}
}

// Parse extracts an item announcement from a raw hub payload. Returns
// the zero Item and false for anything unparseable.
func Parse(payload []byte) (domain.Item, bool) {
	var f feed
	if err := xml.Unmarshal(payload, &f); err != nil {
		return domain.Item{}, false
	}
	if len(f.Entries) == 0 || f.Entries[0].VideoID == "" {
		return domain.Item{}, false
	}

	e := f.Entries[0]
	item := domain.Item{ID: e.VideoID, Title: e.Title}
	if t, err := time.Parse(time.RFC3339, e.Published); err == nil {
		item.PublishedAt = t
	}
	return item, true
}

// OnNotification handles one raw payload. The transport acknowledgment
// happens upstream; this only parses and schedules, so it returns fast
// and never fails.
func (l *Listener) OnNotification(payload []byte) {
	item, ok := Parse(payload)
	if !ok {
		l.log.Warn("dropping unparseable push notification",
			logger.Int("bytes", len(payload)))
		return
	}

	l.log.Info("new item announced",
		logger.String("item_id", item.ID),
		logger.String("title", item.Title))
	l.sched.Schedule(item)
}
