package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/leadscout/leadscout/internal/domain"
	"github.com/leadscout/leadscout/internal/httpserver/deps"
	"github.com/leadscout/leadscout/internal/logger"
	"github.com/leadscout/leadscout/internal/push"
)

type channelScheduler struct {
	items chan domain.Item
}

func (s *channelScheduler) Schedule(item domain.Item) { s.items <- item }

func TestVerifyWebhookEchoesChallenge(t *testing.T) {
	d := deps.Deps{Logger: logger.Nop()}
	req := httptest.NewRequest(http.MethodGet, "/webhook?hub.challenge=abc123&hub.mode=subscribe", nil)
	rec := httptest.NewRecorder()

	VerifyWebhook(d)(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %v, want %v", rec.Code, http.StatusOK)
	}
	if got := rec.Body.String(); got != "abc123" {
		t.Errorf("body = %q, want the echoed challenge", got)
	}
}

func TestVerifyWebhookWithoutChallenge(t *testing.T) {
	d := deps.Deps{Logger: logger.Nop()}
	req := httptest.NewRequest(http.MethodGet, "/webhook?hub.mode=subscribe", nil)
	rec := httptest.NewRecorder()

	VerifyWebhook(d)(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %v, want %v", rec.Code, http.StatusBadRequest)
	}
}

func TestNotifyAcknowledgesAndSchedules(t *testing.T) {
	sched := &channelScheduler{items: make(chan domain.Item, 1)}
	d := deps.Deps{
		Logger:   logger.Nop(),
		Listener: push.NewListener(sched, logger.Nop()),
	}

	payload := `<feed xmlns:yt="http://www.youtube.com/xml/schemas/2015" xmlns="http://www.w3.org/2005/Atom">
  <entry><yt:videoId>v42</yt:videoId><title>fresh</title></entry>
</feed>`
	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(payload))
	rec := httptest.NewRecorder()

	Notify(d)(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %v, want %v", rec.Code, http.StatusOK)
	}
	if got := rec.Body.String(); got != "OK" {
		t.Errorf("body = %q, want %q", got, "OK")
	}

	// The handoff is synchronous: by the time the handler returns, the
	// item has reached the scheduler.
	select {
	case item := <-sched.items:
		if item.ID != "v42" {
			t.Errorf("scheduled item = %q, want v42", item.ID)
		}
	default:
		t.Fatal("notification never reached the scheduler")
	}
}

func TestNotifyAcknowledgesMalformedPayload(t *testing.T) {
	sched := &channelScheduler{items: make(chan domain.Item, 1)}
	d := deps.Deps{
		Logger:   logger.Nop(),
		Listener: push.NewListener(sched, logger.Nop()),
	}

	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader("not a feed"))
	rec := httptest.NewRecorder()

	Notify(d)(rec, req)

	// The hub gets its 200 regardless; garbage is dropped internally.
	if rec.Code != http.StatusOK {
		t.Errorf("status = %v, want %v", rec.Code, http.StatusOK)
	}
	select {
	case item := <-sched.items:
		t.Errorf("malformed payload scheduled item %q", item.ID)
	case <-time.After(50 * time.Millisecond):
	}
}
