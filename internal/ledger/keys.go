package ledger

const (
	// KeyProcessedComments is the set of scored comment IDs.
	KeyProcessedComments = "leadscout:comments:processed"
	// KeyProcessedItems is the set of items with a completed first pass.
	KeyProcessedItems = "leadscout:items:processed"
	// KeyItemCounts is the hash of itemID -> last observed comment count.
	KeyItemCounts = "leadscout:items:counts"
)
