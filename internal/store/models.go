package store

import "time"

// Rating is one recorded score for a single video and criterion. Rows are
// append-only; duplicates from re-delivered events are tolerated and collapsed
// at the reporting layer.
type Rating struct {
	ID        string
	UserID    int64
	Theme     string
	VideoID   string
	Criterion string
	Score     int
	CreatedAt time.Time
}

// BestVideo records a user's favorite pick for a theme, plus the free-text
// reason once supplied.
type BestVideo struct {
	UserID     int64
	Theme      string
	VideoID    string
	Reason     string
	HasReason  bool
	SelectedAt time.Time
}

// CompletedTheme marks one finished theme pass for a user.
type CompletedTheme struct {
	UserID      int64
	Theme       string
	CompletedAt time.Time
}

// ProgressSummary is a lightweight view of an in-flight session for status
// output.
type ProgressSummary struct {
	UserID         int64
	Theme          string
	VideoIndex     int
	VideoTotal     int
	CriterionIndex int
	AwaitingReason bool
	UpdatedAt      time.Time
}

// HealthStatus reports database liveness for status output.
type HealthStatus struct {
	Healthy       bool
	RatingCount   int
	UserCount     int
	ProgressCount int
	Error         string
}
