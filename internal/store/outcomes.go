package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"cliprate/internal/session"
)

// RecordBestVideo stores the user's favorite pick for a theme. Re-delivered
// picks overwrite and clear any stale reason.
func (s *Store) RecordBestVideo(ctx context.Context, fact session.FavoriteFact) error {
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO best_videos (user_id, theme, video_id, reason, selected_at)
         VALUES (?, ?, ?, NULL, ?)
         ON CONFLICT(user_id, theme) DO UPDATE SET
            video_id = excluded.video_id,
            reason = NULL,
            selected_at = excluded.selected_at`,
		fact.UserID,
		fact.Theme,
		fact.VideoID,
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("record best video: %w", err)
	}
	return nil
}

// SetBestVideoReason attaches the free-text reason to an existing favorite
// pick.
func (s *Store) SetBestVideoReason(ctx context.Context, userID int64, theme, reason string) error {
	result, err := s.db.ExecContext(
		ctx,
		`UPDATE best_videos SET reason = ? WHERE user_id = ? AND theme = ?`,
		reason,
		userID,
		theme,
	)
	if err != nil {
		return fmt.Errorf("set best video reason: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("set best video reason: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("set best video reason: no favorite recorded for user %d theme %q", userID, theme)
	}
	return nil
}

// MarkThemeCompleted records a finished theme pass. Repeats are no-ops.
func (s *Store) MarkThemeCompleted(ctx context.Context, userID int64, theme string) error {
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO completed_themes (user_id, theme, completed_at)
         VALUES (?, ?, ?)
         ON CONFLICT(user_id, theme) DO NOTHING`,
		userID,
		theme,
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("mark theme completed: %w", err)
	}
	return nil
}

// CompletedThemes returns the names of themes the user has finished.
func (s *Store) CompletedThemes(ctx context.Context, userID int64) ([]string, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT theme FROM completed_themes WHERE user_id = ? ORDER BY completed_at`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("query completed themes: %w", err)
	}
	defer rows.Close()

	var themes []string
	for rows.Next() {
		var theme string
		if err := rows.Scan(&theme); err != nil {
			return nil, fmt.Errorf("scan completed theme: %w", err)
		}
		themes = append(themes, theme)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate completed themes: %w", err)
	}
	return themes, nil
}

// FinishTheme finalizes a theme pass in one transaction: the favorite reason
// lands, the theme is marked complete, and the progress snapshot is removed.
func (s *Store) FinishTheme(ctx context.Context, userID int64, theme, reason string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin finish tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	result, err := tx.ExecContext(
		ctx,
		`UPDATE best_videos SET reason = ? WHERE user_id = ? AND theme = ?`,
		reason,
		userID,
		theme,
	)
	if err != nil {
		return fmt.Errorf("finish theme reason: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("finish theme reason: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("finish theme: no favorite recorded for user %d theme %q", userID, theme)
	}

	if _, err := tx.ExecContext(
		ctx,
		`INSERT INTO completed_themes (user_id, theme, completed_at)
         VALUES (?, ?, ?)
         ON CONFLICT(user_id, theme) DO NOTHING`,
		userID,
		theme,
		time.Now().UTC().Format(time.RFC3339Nano),
	); err != nil {
		return fmt.Errorf("finish theme completion: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM progress WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("finish theme progress: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit finish tx: %w", err)
	}
	return nil
}

// BestVideos returns every favorite pick ordered by user then theme.
func (s *Store) BestVideos(ctx context.Context) ([]BestVideo, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT user_id, theme, video_id, reason, selected_at
         FROM best_videos ORDER BY user_id, theme`,
	)
	if err != nil {
		return nil, fmt.Errorf("query best videos: %w", err)
	}
	defer rows.Close()

	var picks []BestVideo
	for rows.Next() {
		var (
			pick        BestVideo
			reason      sql.NullString
			selectedRaw string
		)
		if err := rows.Scan(&pick.UserID, &pick.Theme, &pick.VideoID, &reason, &selectedRaw); err != nil {
			return nil, fmt.Errorf("scan best video: %w", err)
		}
		pick.Reason = nullableString(reason)
		pick.HasReason = reason.Valid
		if selected, parseErr := parseTimeString(selectedRaw); parseErr == nil {
			pick.SelectedAt = selected
		}
		picks = append(picks, pick)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate best videos: %w", err)
	}
	return picks, nil
}

// ProgressSummaries lists every in-flight session for status output.
func (s *Store) ProgressSummaries(ctx context.Context) ([]ProgressSummary, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT user_id, theme, videos_json, video_index, criterion_index,
                partial_scores_json, awaiting_reason, created_at, updated_at
         FROM progress ORDER BY user_id`,
	)
	if err != nil {
		return nil, fmt.Errorf("query progress summaries: %w", err)
	}
	defer rows.Close()

	var summaries []ProgressSummary
	for rows.Next() {
		sess, scanErr := scanProgress(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("scan progress summary: %w", scanErr)
		}
		summaries = append(summaries, ProgressSummary{
			UserID:         sess.UserID,
			Theme:          sess.Theme,
			VideoIndex:     sess.VideoIndex,
			VideoTotal:     len(sess.Videos),
			CriterionIndex: sess.CriterionIndex,
			AwaitingReason: sess.AwaitingReason,
			UpdatedAt:      sess.UpdatedAt,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate progress summaries: %w", err)
	}
	return summaries, nil
}

// CheckHealth verifies the database responds and gathers headline counts.
func (s *Store) CheckHealth(ctx context.Context) HealthStatus {
	status := HealthStatus{Healthy: true}

	if err := s.db.PingContext(ctx); err != nil {
		status.Healthy = false
		status.Error = err.Error()
		return status
	}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM ratings`).Scan(&status.RatingCount); err != nil {
		status.Healthy = false
		status.Error = err.Error()
		return status
	}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(DISTINCT user_id) FROM ratings`).Scan(&status.UserCount); err != nil {
		status.Healthy = false
		status.Error = err.Error()
		return status
	}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM progress`).Scan(&status.ProgressCount); err != nil {
		status.Healthy = false
		status.Error = err.Error()
		return status
	}
	return status
}
