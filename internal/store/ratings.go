package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"cliprate/internal/session"
)

// AppendRating records one score row. Ratings are append-only; a duplicate
// delivery of the same event produces a second row with a later id.
func (s *Store) AppendRating(ctx context.Context, fact session.RatingFact) error {
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO ratings (id, user_id, theme, video_id, criterion, score, created_at)
         VALUES (?, ?, ?, ?, ?, ?, ?)`,
		s.newEventID(),
		fact.UserID,
		fact.Theme,
		fact.VideoID,
		fact.Criterion,
		fact.Score,
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("append rating: %w", err)
	}
	return nil
}

// AllRatings returns every recorded rating ordered by id, which under ULID ids
// is also insertion order.
func (s *Store) AllRatings(ctx context.Context) ([]Rating, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT id, user_id, theme, video_id, criterion, score, created_at
         FROM ratings ORDER BY id`,
	)
	if err != nil {
		return nil, fmt.Errorf("query ratings: %w", err)
	}
	defer rows.Close()

	var ratings []Rating
	for rows.Next() {
		rating, scanErr := scanRating(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		ratings = append(ratings, rating)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ratings: %w", err)
	}
	return ratings, nil
}

// RatingsForUser returns one user's ratings in insertion order.
func (s *Store) RatingsForUser(ctx context.Context, userID int64) ([]Rating, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT id, user_id, theme, video_id, criterion, score, created_at
         FROM ratings WHERE user_id = ? ORDER BY id`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("query user ratings: %w", err)
	}
	defer rows.Close()

	var ratings []Rating
	for rows.Next() {
		rating, scanErr := scanRating(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		ratings = append(ratings, rating)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate user ratings: %w", err)
	}
	return ratings, nil
}

func scanRating(scanner interface{ Scan(dest ...any) error }) (Rating, error) {
	var (
		rating     Rating
		createdRaw string
	)
	if err := scanner.Scan(
		&rating.ID,
		&rating.UserID,
		&rating.Theme,
		&rating.VideoID,
		&rating.Criterion,
		&rating.Score,
		&createdRaw,
	); err != nil {
		return Rating{}, fmt.Errorf("scan rating: %w", err)
	}
	if created, err := parseTimeString(createdRaw); err == nil {
		rating.CreatedAt = created
	}
	return rating, nil
}

func nullableString(value sql.NullString) string {
	if value.Valid {
		return value.String
	}
	return ""
}
