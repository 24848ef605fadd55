package provider

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// FeedTopic returns the hub topic URL for a channel's item feed.
func FeedTopic(channelID string) string {
	return "https://www.youtube.com/feeds/videos.xml?channel_id=" + url.QueryEscape(channelID)
}

// HubClient subscribes our webhook to the push hub.
type HubClient struct {
	http   *http.Client
	hubURL string
}

// NewHubClient creates a hub client for the given subscription endpoint.
func NewHubClient(hubURL string) *HubClient {
	return &HubClient{
		http:   &http.Client{Timeout: 15 * time.Second},
		hubURL: hubURL,
	}
}

// Subscribe asks the hub to push notifications for topic to callback
// for the given lease duration. The hub verifies the callback
// asynchronously via a GET challenge.
func (h *HubClient) Subscribe(ctx context.Context, topic, callback string, lease time.Duration) error {
	form := url.Values{
		"hub.mode":          {"subscribe"},
		"hub.topic":         {topic},
		"hub.callback":      {callback},
		"hub.verify":        {"async"},
		"hub.lease_seconds": {strconv.Itoa(int(lease.Seconds()))},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.hubURL, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to build subscribe request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := h.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTransient, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("hub rejected subscription with status %d: %s", resp.StatusCode, body)
	}
	return nil
}
