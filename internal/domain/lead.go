package domain

import "time"

// Priority bands a lead by its score. Band cutoffs are configuration,
// not domain logic; see the engine's thresholds.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Source records which discovery path produced a lead.
type Source string

const (
	// SourcePush marks leads found via a hub announcement for a new item.
	SourcePush Source = "push"
	// SourcePoll marks leads found by the periodic sweep over known items.
	SourcePoll Source = "poll"
)

// ContactInfo holds contact details extracted from a comment body.
type ContactInfo struct {
	Emails   []string `json:"emails"`
	Phones   []string `json:"phones"`
	Websites []string `json:"websites"`
}

// LeadRecord is the append-only output of the pipeline: a comment that
// scored as a likely business inquiry, plus everything extracted from it.
// Never mutated after creation.
type LeadRecord struct {
	Comment   Comment `json:"comment"`
	ItemTitle string  `json:"item_title"`

	Score      int         `json:"score"`
	Qualified  bool        `json:"qualified"`
	Priority   Priority    `json:"priority"`
	Contact    ContactInfo `json:"contact_info"`
	Indicators []string    `json:"indicators"`

	Source     Source    `json:"source"`
	DetectedAt time.Time `json:"detected_at"`
}
