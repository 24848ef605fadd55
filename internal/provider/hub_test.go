package provider

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestFeedTopic(t *testing.T) {
	got := FeedTopic("UC123")
	want := "https://www.youtube.com/feeds/videos.xml?channel_id=UC123"
	if got != want {
		t.Errorf("FeedTopic() = %q, want %q", got, want)
	}
}

func TestSubscribeSendsHubForm(t *testing.T) {
	var form map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Errorf("ParseForm() error = %v", err)
		}
		form = map[string]string{
			"hub.mode":          r.PostFormValue("hub.mode"),
			"hub.topic":         r.PostFormValue("hub.topic"),
			"hub.callback":      r.PostFormValue("hub.callback"),
			"hub.verify":        r.PostFormValue("hub.verify"),
			"hub.lease_seconds": r.PostFormValue("hub.lease_seconds"),
		}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	h := NewHubClient(srv.URL)
	err := h.Subscribe(context.Background(),
		"https://example.com/feed", "https://me.example.com/webhook", 240*time.Hour)
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}

	want := map[string]string{
		"hub.mode":          "subscribe",
		"hub.topic":         "https://example.com/feed",
		"hub.callback":      "https://me.example.com/webhook",
		"hub.verify":        "async",
		"hub.lease_seconds": "864000",
	}
	for k, v := range want {
		if form[k] != v {
			t.Errorf("form[%s] = %q, want %q", k, form[k], v)
		}
	}
}

func TestSubscribeRejectionIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad topic", http.StatusBadRequest)
	}))
	defer srv.Close()

	h := NewHubClient(srv.URL)
	err := h.Subscribe(context.Background(), "topic", "callback", time.Hour)
	if err == nil {
		t.Fatal("Subscribe() expected error for rejected subscription")
	}
	if !strings.Contains(err.Error(), "400") {
		t.Errorf("Subscribe() error = %v, want the hub status included", err)
	}
}
