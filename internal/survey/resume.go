package survey

import (
	"context"
	"errors"

	"cliprate/internal/logging"
	"cliprate/internal/session"
	"cliprate/internal/store"
)

// resume loads the user's persisted snapshot and repairs it into exactly one
// well-defined stage, or discards it. A nil return with nil error means the
// user has no live session and the caller starts fresh.
//
// Repair rules: a snapshot whose rating cursor ran past the asset list is
// rerouted to favorite selection, a criterion cursor past the criteria list
// is clamped to the last criterion, and anything structurally unusable is
// deleted. However stale or malformed the row, the outcome is one of the
// defined stages or a clean reset, never a partially initialized session.
func (m *Manager) resume(ctx context.Context, userID int64) (*session.Session, error) {
	log := logging.WithContext(ctx, m.logger)

	sess, err := m.store.GetProgress(ctx, userID)
	if errors.Is(err, store.ErrCorruptSnapshot) {
		log.Warn("discarding undecodable snapshot", logging.Error(err))
		if delErr := m.store.DeleteProgress(ctx, userID); delErr != nil {
			return nil, delErr
		}
		return nil, nil
	}
	if err != nil {
		// A transient query failure must not cost the user their session.
		return nil, err
	}
	if sess == nil {
		return nil, nil
	}

	if reason := m.validateSnapshot(sess); reason != "" {
		log.Warn("discarding corrupt snapshot",
			logging.String("reason", reason),
			logging.String(logging.FieldTheme, sess.Theme))
		if delErr := m.store.DeleteProgress(ctx, userID); delErr != nil {
			return nil, delErr
		}
		return nil, nil
	}

	repaired := false
	if sess.VideoIndex > len(sess.Videos) {
		// Rating phase exhausted; normalize the cursor so the derived stage
		// is favorite selection with a clean index.
		sess.VideoIndex = len(sess.Videos)
		repaired = true
	}
	if sess.VideoIndex < len(sess.Videos) {
		if criteria := m.machine.Criteria(); sess.CriterionIndex >= len(criteria) {
			sess.CriterionIndex = len(criteria) - 1
			repaired = true
		}
	}
	if sess.AwaitingReason && sess.VideoIndex < len(sess.Videos) {
		// The reason flag only makes sense after the rating phase.
		sess.AwaitingReason = false
		repaired = true
	}

	if repaired {
		log.Warn("repaired out-of-range snapshot",
			logging.String(logging.FieldTheme, sess.Theme),
			logging.Int("video_index", sess.VideoIndex),
			logging.Int("criterion_index", sess.CriterionIndex))
		if err := m.store.UpsertProgress(ctx, sess); err != nil {
			return nil, err
		}
	}
	return sess, nil
}

func (m *Manager) validateSnapshot(sess *session.Session) string {
	if sess.Theme == "" {
		return "missing theme"
	}
	if _, ok := m.catalog.Theme(sess.Theme); !ok {
		return "theme not in catalog"
	}
	if len(sess.Videos) == 0 {
		return "empty asset list"
	}
	if sess.VideoIndex < 0 || sess.CriterionIndex < 0 {
		return "negative cursor"
	}
	return ""
}
