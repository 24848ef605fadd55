package ledger

import "context"

// Ledger is the durable idempotency record of the pipeline. It is the
// only shared mutable state in the system; every mutation must be
// persisted before it is considered committed, so a crash never loses
// acknowledged work and never replays a committed comment.
//
// Implementations must make each mutation atomic with respect to its
// own persistence: a partial write must not be observable on reload.
type Ledger interface {
	// IsCommentProcessed reports whether a comment was already scored.
	IsCommentProcessed(ctx context.Context, commentID string) (bool, error)

	// MarkCommentProcessed records a comment as scored. The comment
	// counts as processed only if this returns nil; on error the caller
	// must treat it as unprocessed so a later pass retries it.
	MarkCommentProcessed(ctx context.Context, commentID string) error

	// CommentCount returns the last observed total comment count for an
	// item, zero if never observed.
	CommentCount(ctx context.Context, itemID string) (int64, error)

	// SetCommentCount records a freshly observed total. The stored value
	// never decreases; counts are a pre-filter, not a source of truth.
	SetCommentCount(ctx context.Context, itemID string, count int64) error

	// IsItemProcessed reports whether an item completed at least one
	// full initial pass.
	IsItemProcessed(ctx context.Context, itemID string) (bool, error)

	// MarkItemProcessed records completion of an item's first full pass.
	MarkItemProcessed(ctx context.Context, itemID string) error

	// Totals returns the number of processed comments and items.
	Totals(ctx context.Context) (comments, items int64, err error)

	Close() error
}
