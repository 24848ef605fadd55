package domain

import "time"

// Comment is an immutable snapshot of one comment at fetch time.
//
// Identity is fixed by ID; a comment may be fetched again later with
// updated counters but it is still the same comment. ParentID is empty
// for top-level comments and set to the thread root's ID for replies.
type Comment struct {
	ID       string `json:"id"`
	ItemID   string `json:"item_id"`
	ParentID string `json:"parent_id,omitempty"`

	AuthorID   string `json:"author_id,omitempty"`
	AuthorName string `json:"author_name,omitempty"`

	Text string `json:"text"`

	PublishedAt time.Time `json:"published_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	LikeCount  int64 `json:"like_count"`
	ReplyCount int64 `json:"reply_count"`
}

// TopLevel reports whether the comment starts a thread.
func (c Comment) TopLevel() bool {
	return c.ParentID == ""
}
