package session

import "time"

// Stage represents the position of a user inside the rating workflow.
type Stage string

const (
	// StageSelectingTheme means no live session exists; the next StartTheme
	// event creates one.
	StageSelectingTheme Stage = "selecting_theme"
	// StageRating means the user is scoring criteria for a video.
	StageRating Stage = "rating"
	// StageSelectingFavorite means every video has been rated and the user
	// must nominate the best one.
	StageSelectingFavorite Stage = "selecting_favorite"
	// StageAwaitingReason means the favorite is recorded and the user owes a
	// free-text justification.
	StageAwaitingReason Stage = "awaiting_reason"
	// StageCompleted is the terminal pseudo-state after the justification
	// arrives. No session row exists once it is reached.
	StageCompleted Stage = "completed"
)

// Session is the durable cursor tracking one user's position in one theme's
// workflow. At most one exists per user; it is overwritten on every advance
// and deleted on completion.
type Session struct {
	UserID int64
	Theme  string

	// Videos is the permutation of the theme's assets sampled at session
	// start. It is never reshuffled, even across resumption.
	Videos []string

	// VideoIndex is in [0, len(Videos)]; len(Videos) means the rating phase
	// is exhausted.
	VideoIndex int

	// CriterionIndex is in [0, criteria count); it resets to zero when a
	// video's criteria are exhausted.
	CriterionIndex int

	// PartialScores buffers criterion scores for the current video until it
	// is fully rated.
	PartialScores map[string]int

	// AwaitingReason is set once the favorite is chosen and cleared only by
	// deleting the session.
	AwaitingReason bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Stage derives the workflow stage from the snapshot. The stage is never
// stored redundantly; this derivation is the single source of truth, which
// keeps repaired snapshots from landing in an undefined combination of flags.
func (s *Session) Stage() Stage {
	if s == nil {
		return StageSelectingTheme
	}
	if s.AwaitingReason {
		return StageAwaitingReason
	}
	if s.VideoIndex >= len(s.Videos) {
		return StageSelectingFavorite
	}
	return StageRating
}

// CurrentVideo returns the asset under rating. Valid only in StageRating.
func (s *Session) CurrentVideo() string {
	return s.Videos[s.VideoIndex]
}

// Clone returns a deep copy of the session snapshot.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	cp := *s
	cp.Videos = make([]string, len(s.Videos))
	copy(cp.Videos, s.Videos)
	cp.PartialScores = make(map[string]int, len(s.PartialScores))
	for k, v := range s.PartialScores {
		cp.PartialScores[k] = v
	}
	return &cp
}
