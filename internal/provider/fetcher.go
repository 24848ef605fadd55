package provider

import (
	"context"
	"errors"
	"fmt"

	"github.com/leadscout/leadscout/internal/domain"
)

// ThreadLister pages through an item's comment threads.
type ThreadLister interface {
	CommentThreadPage(ctx context.Context, itemID, pageToken string) (ThreadPage, error)
}

// Fetcher materializes the full comment tree for one item: every
// top-level comment followed by its direct replies, in the provider's
// order.
//
// On an authorization-expired signal mid-pagination it refreshes the
// credentials once and resumes from the same page token. A second
// expiry, or a failed refresh, aborts the whole fetch; the item stays
// untouched in the ledger and is safe to retry later. Single retry
// bounds refresh storms while tolerating the common expiry-mid-sweep
// case.
type Fetcher struct {
	pages ThreadLister
	creds Credentials
}

// NewFetcher creates a comment fetcher.
func NewFetcher(pages ThreadLister, creds Credentials) *Fetcher {
	return &Fetcher{pages: pages, creds: creds}
}

// FetchAllComments returns the flattened comment tree for itemID.
func (f *Fetcher) FetchAllComments(ctx context.Context, itemID string) ([]domain.Comment, error) {
	var (
		comments  []domain.Comment
		pageToken string
		refreshed bool
	)

	for {
		page, err := f.pages.CommentThreadPage(ctx, itemID, pageToken)
		if errors.Is(err, ErrAuthExpired) && !refreshed {
			refreshed = true
			if _, rerr := f.creds.Refresh(ctx); rerr != nil {
				return nil, fmt.Errorf("failed to refresh credentials for item %s: %w", itemID, rerr)
			}
			continue // same page token
		}
		if err != nil {
			return nil, err
		}

		for _, thread := range page.Threads {
			comments = append(comments, thread.TopLevel)
			comments = append(comments, thread.Replies...)
		}

		if page.NextPageToken == "" {
			return comments, nil
		}
		pageToken = page.NextPageToken
	}
}
