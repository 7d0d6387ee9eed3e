package domain

import "time"

// Review is one user review as returned by the store feed. Reviewer name
// and avatar are intentionally never carried over from the provider payload.
type Review struct {
	ID                   string
	Content              string
	Score                int
	ThumbsUpCount        int
	At                   time.Time
	ReviewCreatedVersion string
	// Optional extension columns; providers populate these inconsistently.
	Device         string
	AndroidVersion string
}

// ReviewBatch is the result of one fetch call. Immutable once returned.
// Page order from the feed is not chronological; callers that need time
// order must sort explicitly.
type ReviewBatch struct {
	AppID     string
	Language  string
	Country   string
	Requested int
	Reviews   []Review
	// Truncated is set when the source ran out of pages before Requested
	// reviews were collected.
	Truncated bool
}

func (b ReviewBatch) Len() int { return len(b.Reviews) }
