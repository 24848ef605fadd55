package domain

import "time"

// Item is one unit of published content on the watched channel.
//
// An Item is created the first time it is discovered, either through a
// push announcement or a poll sweep, and is immutable afterwards. Items
// are never deleted; the ledger keeps per-item progress forever.
type Item struct {
	// ID is the provider's opaque, stable identifier.
	ID string `json:"id"`

	// Title as reported at discovery time.
	Title string `json:"title"`

	// PublishedAt is the provider's publication timestamp.
	PublishedAt time.Time `json:"published_at"`
}
