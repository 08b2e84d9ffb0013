package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"

	"cliprate/internal/config"
	"cliprate/internal/session"
)

// Store manages survey persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string

	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

// Open initializes or connects to the ratings database and applies the schema.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	return OpenPath(cfg.DatabasePath())
}

// OpenPath opens the ratings database at an explicit location.
func OpenPath(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{
		db:      db,
		path:    dbPath,
		entropy: ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0),
	}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// newEventID returns a ULID. Monotonic entropy keeps ids within one
// millisecond in generation order, so ORDER BY id is insertion order.
func (s *Store) newEventID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), s.entropy).String()
}

// UpsertProgress replaces the user's session snapshot. Delete-then-insert in
// one transaction keeps at most one progress row per user at all times.
func (s *Store) UpsertProgress(ctx context.Context, sess *session.Session) error {
	if sess == nil {
		return errors.New("session is nil")
	}

	videosJSON, err := json.Marshal(sess.Videos)
	if err != nil {
		return fmt.Errorf("marshal videos: %w", err)
	}
	partial := sess.PartialScores
	if partial == nil {
		partial = map[string]int{}
	}
	partialJSON, err := json.Marshal(partial)
	if err != nil {
		return fmt.Errorf("marshal partial scores: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin progress tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM progress WHERE user_id = ?`, sess.UserID); err != nil {
		return fmt.Errorf("clear previous progress: %w", err)
	}

	now := time.Now().UTC()
	createdAt := sess.CreatedAt
	if createdAt.IsZero() {
		createdAt = now
	}
	_, err = tx.ExecContext(
		ctx,
		`INSERT INTO progress (
            user_id, theme, videos_json, video_index, criterion_index,
            partial_scores_json, awaiting_reason, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sess.UserID,
		sess.Theme,
		string(videosJSON),
		sess.VideoIndex,
		sess.CriterionIndex,
		string(partialJSON),
		boolToInt(sess.AwaitingReason),
		createdAt.Format(time.RFC3339Nano),
		now.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert progress: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit progress: %w", err)
	}
	return nil
}

// ErrCorruptSnapshot marks a progress row whose stored payload no longer
// decodes. Query and connection failures are never classified as corrupt.
var ErrCorruptSnapshot = errors.New("corrupt progress snapshot")

// GetProgress fetches the user's session snapshot, or nil when none exists.
// A row that fails to decode comes back wrapped in ErrCorruptSnapshot so the
// caller can discard it; any other error is transient and the row may still
// be intact. The returned snapshot is decoded, not validated; index repair is
// the resumption engine's job.
func (s *Store) GetProgress(ctx context.Context, userID int64) (*session.Session, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT user_id, theme, videos_json, video_index, criterion_index,
                partial_scores_json, awaiting_reason, created_at, updated_at
         FROM progress WHERE user_id = ?`,
		userID,
	)
	sess, err := scanProgress(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get progress: %w", err)
	}
	return sess, nil
}

// DeleteProgress removes the user's session snapshot. Used on completion and
// on corrupt-snapshot recovery.
func (s *Store) DeleteProgress(ctx context.Context, userID int64) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM progress WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("delete progress: %w", err)
	}
	return nil
}

// ProgressCount returns the number of in-flight sessions.
func (s *Store) ProgressCount(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM progress`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count progress: %w", err)
	}
	return count, nil
}

func scanProgress(scanner interface{ Scan(dest ...any) error }) (*session.Session, error) {
	var (
		userID         int64
		theme          string
		videosJSON     string
		videoIndex     int
		criterionIndex int
		partialJSON    string
		awaiting       int
		createdRaw     string
		updatedRaw     string
	)
	if err := scanner.Scan(
		&userID,
		&theme,
		&videosJSON,
		&videoIndex,
		&criterionIndex,
		&partialJSON,
		&awaiting,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	var videos []string
	if err := json.Unmarshal([]byte(videosJSON), &videos); err != nil {
		return nil, fmt.Errorf("%w: videos: %v", ErrCorruptSnapshot, err)
	}
	partial := map[string]int{}
	if partialJSON != "" {
		if err := json.Unmarshal([]byte(partialJSON), &partial); err != nil {
			return nil, fmt.Errorf("%w: partial scores: %v", ErrCorruptSnapshot, err)
		}
	}

	sess := &session.Session{
		UserID:         userID,
		Theme:          theme,
		Videos:         videos,
		VideoIndex:     videoIndex,
		CriterionIndex: criterionIndex,
		PartialScores:  partial,
		AwaitingReason: awaiting != 0,
	}
	if created, err := parseTimeString(createdRaw); err == nil {
		sess.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw); err == nil {
		sess.UpdatedAt = updated
	}
	return sess, nil
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}
