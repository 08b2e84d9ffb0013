package session

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"cliprate/internal/catalog"
)

// MinScore and MaxScore bound the rating scale.
const (
	MinScore = 1
	MaxScore = 5
)

var (
	// ErrAllThemesComplete is returned by StartTheme when the user has no
	// unfinished themes left.
	ErrAllThemesComplete = errors.New("all themes completed")
	// ErrUnknownTheme is returned when an explicit theme name is not in the
	// catalog.
	ErrUnknownTheme = errors.New("unknown theme")
	// ErrThemeCompleted is returned when an explicit theme name was already
	// finished by the user.
	ErrThemeCompleted = errors.New("theme already completed")
	// ErrWrongStage rejects an event that does not match the grammar for the
	// session's current stage. Callers drop such events without side effects;
	// this is the duplicate- and late-delivery tolerance mechanism.
	ErrWrongStage = errors.New("event does not match current stage")
	// ErrInvalidScore rejects scores outside the 1..5 scale.
	ErrInvalidScore = errors.New("score out of range")
	// ErrInvalidChoice rejects favorite indexes outside the session's videos.
	ErrInvalidChoice = errors.New("favorite index out of range")
	// ErrEmptyReason rejects blank favorite justifications.
	ErrEmptyReason = errors.New("reason text is empty")
)

// RatingFact is an immutable rating event produced by a score submission.
// The caller persists it append-only before the session snapshot advances.
type RatingFact struct {
	UserID    int64
	Theme     string
	VideoID   string
	Criterion string
	Score     int
}

// FavoriteFact records the best-video nomination for a theme. The reason
// arrives through a later event and starts empty.
type FavoriteFact struct {
	UserID  int64
	Theme   string
	VideoID string
}

// Machine implements the workflow transition rules against a fixed catalog.
// All methods are pure apart from mutating the passed-in session snapshot;
// persistence and rendering belong to the caller.
type Machine struct {
	catalog        *catalog.Catalog
	videosPerTheme int
	rng            Randomizer
}

// NewMachine constructs a Machine. videosPerTheme caps how many assets of a
// theme enter a session; values below one fall back to the theme size.
func NewMachine(cat *catalog.Catalog, videosPerTheme int, rng Randomizer) *Machine {
	return &Machine{catalog: cat, videosPerTheme: videosPerTheme, rng: rng}
}

// Criteria exposes the catalog's criteria list for prompt construction.
func (m *Machine) Criteria() []catalog.Criterion {
	return m.catalog.Criteria()
}

// StartTheme creates a fresh session for the user. When themeName is empty a
// theme is picked uniformly at random among the user's unfinished themes; the
// theme's assets are shuffled once and the permutation is fixed for the
// session's lifetime.
func (m *Machine) StartTheme(userID int64, themeName string, completed []string) (*Session, error) {
	unfinished := m.catalog.Unfinished(completed)
	if len(unfinished) == 0 {
		return nil, ErrAllThemesComplete
	}

	if themeName == "" {
		themeName = unfinished[m.rng.Intn(len(unfinished))]
	} else {
		if _, ok := m.catalog.Theme(themeName); !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownTheme, themeName)
		}
		remaining := false
		for _, name := range unfinished {
			if name == themeName {
				remaining = true
				break
			}
		}
		if !remaining {
			return nil, fmt.Errorf("%w: %q", ErrThemeCompleted, themeName)
		}
	}

	theme, _ := m.catalog.Theme(themeName)
	videos := make([]string, len(theme.Videos))
	copy(videos, theme.Videos)
	m.rng.Shuffle(len(videos), func(i, j int) {
		videos[i], videos[j] = videos[j], videos[i]
	})
	if m.videosPerTheme > 0 && len(videos) > m.videosPerTheme {
		videos = videos[:m.videosPerTheme]
	}

	now := time.Now().UTC()
	return &Session{
		UserID:        userID,
		Theme:         themeName,
		Videos:        videos,
		PartialScores: map[string]int{},
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// ApplyScore records a criterion score and advances the session cursor.
// It returns the rating fact the caller must persist before the snapshot.
func (m *Machine) ApplyScore(sess *Session, score int) (RatingFact, error) {
	if sess.Stage() != StageRating {
		return RatingFact{}, ErrWrongStage
	}
	if score < MinScore || score > MaxScore {
		return RatingFact{}, fmt.Errorf("%w: %d", ErrInvalidScore, score)
	}

	criteria := m.catalog.Criteria()
	if sess.CriterionIndex >= len(criteria) {
		// Only reachable through a snapshot that skipped resumption repair.
		return RatingFact{}, ErrWrongStage
	}

	criterion := criteria[sess.CriterionIndex]
	fact := RatingFact{
		UserID:    sess.UserID,
		Theme:     sess.Theme,
		VideoID:   sess.CurrentVideo(),
		Criterion: criterion.Name,
		Score:     score,
	}

	if sess.PartialScores == nil {
		sess.PartialScores = map[string]int{}
	}
	sess.PartialScores[criterion.Name] = score

	if sess.CriterionIndex+1 < len(criteria) {
		sess.CriterionIndex++
	} else {
		sess.VideoIndex++
		sess.CriterionIndex = 0
		sess.PartialScores = map[string]int{}
	}
	sess.UpdatedAt = time.Now().UTC()
	return fact, nil
}

// ApplyFavorite records the best-video nomination and moves the session to
// the awaiting-reason stage.
func (m *Machine) ApplyFavorite(sess *Session, assetIndex int) (FavoriteFact, error) {
	if sess.Stage() != StageSelectingFavorite {
		return FavoriteFact{}, ErrWrongStage
	}
	if assetIndex < 0 || assetIndex >= len(sess.Videos) {
		return FavoriteFact{}, fmt.Errorf("%w: %d", ErrInvalidChoice, assetIndex)
	}

	sess.AwaitingReason = true
	sess.UpdatedAt = time.Now().UTC()
	return FavoriteFact{
		UserID:  sess.UserID,
		Theme:   sess.Theme,
		VideoID: sess.Videos[assetIndex],
	}, nil
}

// ApplyReason validates the free-text justification that completes a theme.
// On success the caller persists the reason, marks the theme completed, and
// deletes the session; the snapshot itself carries no further state.
func (m *Machine) ApplyReason(sess *Session, text string) (string, error) {
	if sess.Stage() != StageAwaitingReason {
		return "", ErrWrongStage
	}
	reason := strings.TrimSpace(text)
	if reason == "" {
		return "", ErrEmptyReason
	}
	return reason, nil
}
