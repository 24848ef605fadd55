package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/leadscout/leadscout/internal/credentials"
	"github.com/leadscout/leadscout/internal/domain"
)

// Credentials is what the client needs from the credential store.
type Credentials interface {
	Token() (string, error)
	Refresh(ctx context.Context) (string, error)
}

// Client talks to the content provider's REST API. A single token
// bucket paces every outbound call so concurrent reconciliations share
// one global budget.
type Client struct {
	http    *http.Client
	baseURL string
	limiter *rate.Limiter
	creds   Credentials
}

// NewClient builds a provider client. spacing is the minimum delay
// between any two remote calls.
func NewClient(baseURL string, creds Credentials, spacing time.Duration) *Client {
	if spacing <= 0 {
		spacing = 100 * time.Millisecond
	}
	return &Client{
		http:    &http.Client{Timeout: 15 * time.Second},
		baseURL: baseURL,
		limiter: rate.NewLimiter(rate.Every(spacing), 1),
		creds:   creds,
	}
}

// get performs one paced, authenticated API call and decodes the JSON
// response into out. When the provider rejects the held token it
// refreshes once and retries the same request; a second rejection
// surfaces ErrAuthExpired to the caller. Access tokens expire on the
// order of an hour, so every call site has to survive a stale token,
// not just the comment-fetch path.
func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	err := c.do(ctx, path, query, out)
	if !errors.Is(err, ErrAuthExpired) {
		return err
	}
	if _, rerr := c.creds.Refresh(ctx); rerr != nil {
		return fmt.Errorf("failed to refresh expired credentials: %w", rerr)
	}
	return c.do(ctx, path, query, out)
}

func (c *Client) do(ctx context.Context, path string, query url.Values, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	token, err := c.creds.Token()
	if errors.Is(err, credentials.ErrNotAuthenticated) {
		// Headless start: only a refresh token is held.
		token, err = c.creds.Refresh(ctx)
	}
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+query.Encode(), nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTransient, err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		_, _ = io.Copy(io.Discard, resp.Body)
		return ErrAuthExpired
	case resp.StatusCode >= 500:
		return fmt.Errorf("%w: status %d on %s", ErrTransient, resp.StatusCode, path)
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("provider returned status %d on %s: %s", resp.StatusCode, path, body)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", path, err)
	}
	return nil
}

// MyChannel resolves the authenticated account's channel ID.
func (c *Client) MyChannel(ctx context.Context) (string, error) {
	q := url.Values{"part": {"id"}, "mine": {"true"}}
	var resp channelListResponse
	if err := c.get(ctx, "/channels", q, &resp); err != nil {
		return "", err
	}
	if len(resp.Items) == 0 {
		return "", fmt.Errorf("provider returned no channel for the authenticated account")
	}
	return resp.Items[0].ID, nil
}

// ListRecentItems returns up to max of the channel's most recent items,
// newest first. A single bounded page; the sweep does not walk history.
func (c *Client) ListRecentItems(ctx context.Context, channelID string, max int64) ([]domain.Item, error) {
	q := url.Values{
		"part":       {"id,snippet"},
		"channelId":  {channelID},
		"maxResults": {strconv.FormatInt(max, 10)},
		"order":      {"date"},
		"type":       {"video"},
	}
	var resp searchListResponse
	if err := c.get(ctx, "/search", q, &resp); err != nil {
		return nil, err
	}

	items := make([]domain.Item, 0, len(resp.Items))
	for _, it := range resp.Items {
		if it.ID.VideoID == "" {
			continue
		}
		items = append(items, domain.Item{
			ID:          it.ID.VideoID,
			Title:       it.Snippet.Title,
			PublishedAt: it.Snippet.PublishedAt,
		})
	}
	return items, nil
}

// ItemStats returns the item's current total comment count. Used only
// as the sweep pre-filter; reconciliation always diffs by comment ID.
func (c *Client) ItemStats(ctx context.Context, itemID string) (int64, error) {
	q := url.Values{"part": {"statistics"}, "id": {itemID}}
	var resp videoListResponse
	if err := c.get(ctx, "/videos", q, &resp); err != nil {
		return 0, err
	}
	if len(resp.Items) == 0 {
		return 0, nil
	}
	raw := resp.Items[0].Statistics.CommentCount
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid comment count %q for item %s: %w", raw, itemID, err)
	}
	return n, nil
}

// CommentThreadPage fetches one page of comment threads for an item,
// oldest pagination semantics left to the provider (ordered by time).
// An empty pageToken starts from the first page.
func (c *Client) CommentThreadPage(ctx context.Context, itemID, pageToken string) (ThreadPage, error) {
	q := url.Values{
		"part":       {"snippet,replies"},
		"videoId":    {itemID},
		"maxResults": {"100"},
		"order":      {"time"},
	}
	if pageToken != "" {
		q.Set("pageToken", pageToken)
	}
	var resp commentThreadsResponse
	if err := c.get(ctx, "/commentThreads", q, &resp); err != nil {
		return ThreadPage{}, err
	}
	return resp.toThreadPage(itemID), nil
}
