package survey

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"

	"cliprate/internal/catalog"
	"cliprate/internal/logging"
	"cliprate/internal/session"
	"cliprate/internal/store"
)

// Manager orchestrates the survey workflow: it resumes or creates sessions,
// feeds decoded events into the state machine, applies the resulting writes in
// order, and hands prompts to the renderer. One instance serves all users.
type Manager struct {
	store    *store.Store
	catalog  *catalog.Catalog
	machine  *session.Machine
	renderer Renderer
	logger   *slog.Logger

	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

// NewManager constructs a survey manager.
func NewManager(st *store.Store, cat *catalog.Catalog, machine *session.Machine, renderer Renderer, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		store:    st,
		catalog:  cat,
		machine:  machine,
		renderer: renderer,
		logger:   logging.NewComponentLogger(logger, "survey"),
		locks:    make(map[int64]*sync.Mutex),
	}
}

// userLock serializes turns for one user. Real input arrives one prompt at a
// time, but a duplicate tap can land two near-simultaneous events; the lock
// makes the second one observe the first's persisted advance and fall into
// the wrong-stage path instead of double-writing.
func (m *Manager) userLock(userID int64) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()
	lock, ok := m.locks[userID]
	if !ok {
		lock = &sync.Mutex{}
		m.locks[userID] = lock
	}
	return lock
}

func (m *Manager) turnContext(ctx context.Context, userID int64) (context.Context, *slog.Logger) {
	ctx = logging.WithUserID(ctx, userID)
	ctx = logging.WithRequestID(ctx, uuid.NewString())
	return ctx, logging.WithContext(ctx, m.logger)
}

// HandleStart begins or resumes the user's survey. An existing snapshot is
// restored and its prompts re-issued; otherwise a fresh theme is started with
// an intro message greeting the user by displayName and laying out the round.
func (m *Manager) HandleStart(ctx context.Context, userID int64, displayName, themeName string) error {
	lock := m.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	ctx, log := m.turnContext(ctx, userID)

	sess, err := m.resume(ctx, userID)
	if err != nil {
		return err
	}
	if sess != nil {
		log.Info("resuming session",
			logging.String(logging.FieldTheme, sess.Theme),
			logging.String(logging.FieldStage, string(sess.Stage())))
		if sess.Stage() == session.StageAwaitingReason {
			// The earlier reason prompt still stands; only remind.
			return m.notice(ctx, userID, Notice{Kind: NoticeResumed, Text: "Welcome back! Please send the reason for your favorite pick."})
		}
		if err := m.notice(ctx, userID, Notice{Kind: NoticeResumed, Text: "Welcome back! Picking up where you left off."}); err != nil {
			return err
		}
		return m.render(ctx, userID, sess)
	}

	completed, err := m.store.CompletedThemes(ctx, userID)
	if err != nil {
		return fmt.Errorf("load completed themes: %w", err)
	}
	sess, err = m.machine.StartTheme(userID, themeName, completed)
	if errors.Is(err, session.ErrAllThemesComplete) {
		log.Info("all themes completed")
		return m.notice(ctx, userID, Notice{
			Kind: NoticeAllComplete,
			Text: greeting(displayName) + " You have already rated every theme. Thank you so much!",
		})
	}
	if err != nil {
		return err
	}

	if err := m.store.UpsertProgress(ctx, sess); err != nil {
		m.retryNotice(ctx, userID)
		return fmt.Errorf("persist new session: %w", err)
	}
	log.Info("session started",
		logging.String(logging.FieldTheme, sess.Theme),
		logging.Int("videos", len(sess.Videos)))
	if err := m.notice(ctx, userID, Notice{Kind: NoticeIntro, Text: m.introText(displayName, sess, completed)}); err != nil {
		return err
	}
	return m.render(ctx, userID, sess)
}

// introText mirrors the onboarding message: greet, announce the assigned
// theme, describe the round, and report how far through the catalog the user
// is.
func (m *Manager) introText(displayName string, sess *session.Session, completed []string) string {
	criteria := m.catalog.Criteria()
	names := make([]string, 0, len(criteria))
	for _, criterion := range criteria {
		names = append(names, strings.ToLower(criterion.Name))
	}
	total := len(m.catalog.ThemeNames())
	remaining := len(m.catalog.Unfinished(completed))
	return fmt.Sprintf(
		"%s\nYour theme is: %s\nYou will see %d videos. Rate each one on %d criteria: %s.\nAt the end, pick the video that presented the theme best and tell us why.\n\nThemes total: %d, completed: %d, remaining: %d.",
		greeting(displayName),
		m.catalog.DisplayName(sess.Theme),
		len(sess.Videos),
		len(criteria),
		strings.Join(names, ", "),
		total, total-remaining, remaining,
	)
}

func greeting(displayName string) string {
	if displayName == "" {
		return "Hello!"
	}
	return fmt.Sprintf("Hello, %s!", displayName)
}

// HandleScore applies one criterion score. The rating fact is appended before
// the session snapshot advances, so a crash between the two resumes on the
// un-advanced snapshot and may produce a duplicate rating row, never a lost
// one.
func (m *Manager) HandleScore(ctx context.Context, userID int64, score int) error {
	lock := m.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	ctx, log := m.turnContext(ctx, userID)

	sess, err := m.resume(ctx, userID)
	if err != nil {
		return err
	}
	if sess == nil {
		return m.notice(ctx, userID, Notice{Kind: NoticeRetry, Text: "No survey in progress. Send /start to begin."})
	}

	videoBefore := sess.VideoIndex
	fact, err := m.machine.ApplyScore(sess, score)
	if errors.Is(err, session.ErrWrongStage) {
		log.Debug("dropping stale score event", logging.String(logging.FieldStage, string(sess.Stage())))
		return m.render(ctx, userID, sess)
	}
	if errors.Is(err, session.ErrInvalidScore) {
		if noticeErr := m.notice(ctx, userID, Notice{Kind: NoticeRetry, Text: "Scores run from 1 to 5. Please pick again."}); noticeErr != nil {
			return noticeErr
		}
		return m.render(ctx, userID, sess)
	}
	if err != nil {
		return err
	}

	if err := m.store.AppendRating(ctx, fact); err != nil {
		m.retryNotice(ctx, userID)
		return fmt.Errorf("persist rating: %w", err)
	}
	if err := m.store.UpsertProgress(ctx, sess); err != nil {
		m.retryNotice(ctx, userID)
		return fmt.Errorf("persist session advance: %w", err)
	}
	log.Debug("score recorded",
		logging.String("video", fact.VideoID),
		logging.String("criterion", fact.Criterion),
		logging.Int("score", fact.Score))

	// Still on the same video: the clip is already on screen, so only the
	// next criterion question goes out.
	if sess.VideoIndex == videoBefore {
		if prompt, ok := session.NextCriterionPrompt(sess, m.catalog); ok {
			if err := m.renderer.RenderPrompts(ctx, userID, []session.Prompt{prompt}); err != nil {
				return fmt.Errorf("render prompts: %w", err)
			}
			return nil
		}
	}
	return m.render(ctx, userID, sess)
}

// HandleFavorite records the best-video nomination and asks for the reason.
func (m *Manager) HandleFavorite(ctx context.Context, userID int64, assetIndex int) error {
	lock := m.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	ctx, log := m.turnContext(ctx, userID)

	sess, err := m.resume(ctx, userID)
	if err != nil {
		return err
	}
	if sess == nil {
		return m.notice(ctx, userID, Notice{Kind: NoticeRetry, Text: "No survey in progress. Send /start to begin."})
	}

	fact, err := m.machine.ApplyFavorite(sess, assetIndex)
	if errors.Is(err, session.ErrWrongStage) {
		log.Debug("dropping stale favorite event", logging.String(logging.FieldStage, string(sess.Stage())))
		return m.render(ctx, userID, sess)
	}
	if errors.Is(err, session.ErrInvalidChoice) {
		if noticeErr := m.notice(ctx, userID, Notice{Kind: NoticeRetry, Text: "That clip is not part of this round. Please pick again."}); noticeErr != nil {
			return noticeErr
		}
		return m.render(ctx, userID, sess)
	}
	if err != nil {
		return err
	}

	if err := m.store.RecordBestVideo(ctx, fact); err != nil {
		m.retryNotice(ctx, userID)
		return fmt.Errorf("persist favorite: %w", err)
	}
	if err := m.store.UpsertProgress(ctx, sess); err != nil {
		m.retryNotice(ctx, userID)
		return fmt.Errorf("persist session advance: %w", err)
	}
	log.Info("favorite selected",
		logging.String(logging.FieldTheme, fact.Theme),
		logging.String("video", fact.VideoID))
	return m.render(ctx, userID, sess)
}

// HandleReason finalizes a theme with the favorite justification.
func (m *Manager) HandleReason(ctx context.Context, userID int64, text string) error {
	lock := m.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	ctx, log := m.turnContext(ctx, userID)

	sess, err := m.resume(ctx, userID)
	if err != nil {
		return err
	}
	if sess == nil {
		return m.notice(ctx, userID, Notice{Kind: NoticeRetry, Text: "No survey in progress. Send /start to begin."})
	}

	reason, err := m.machine.ApplyReason(sess, text)
	if errors.Is(err, session.ErrWrongStage) {
		log.Debug("dropping stray text", logging.String(logging.FieldStage, string(sess.Stage())))
		return m.render(ctx, userID, sess)
	}
	if errors.Is(err, session.ErrEmptyReason) {
		return m.notice(ctx, userID, Notice{Kind: NoticeRetry, Text: "Please write a few words about why you picked that clip."})
	}
	if err != nil {
		return err
	}

	if err := m.store.FinishTheme(ctx, userID, sess.Theme, reason); err != nil {
		m.retryNotice(ctx, userID)
		return fmt.Errorf("finish theme: %w", err)
	}
	log.Info("theme completed", logging.String(logging.FieldTheme, sess.Theme))

	display := m.catalog.DisplayName(sess.Theme)
	if err := m.notice(ctx, userID, Notice{
		Kind: NoticeThemeCompleted,
		Text: fmt.Sprintf("Thanks! Your ratings for %s are saved.", display),
	}); err != nil {
		return err
	}

	completed, err := m.store.CompletedThemes(ctx, userID)
	if err != nil {
		return fmt.Errorf("load completed themes: %w", err)
	}
	if len(m.catalog.Unfinished(completed)) == 0 {
		return m.notice(ctx, userID, Notice{Kind: NoticeAllComplete, Text: "You have rated every theme. Thank you!"})
	}
	return m.notice(ctx, userID, Notice{Kind: NoticeRetry, Text: "Send /start when you are ready for the next theme."})
}

// HandleMedia echoes the identifier of incoming media back to the sender.
// Used by catalog curators to collect asset ids; not part of the workflow.
func (m *Manager) HandleMedia(ctx context.Context, userID int64, assetID string) error {
	ctx, log := m.turnContext(ctx, userID)
	log.Debug("echoing media id", logging.String("asset", assetID))
	return m.notice(ctx, userID, Notice{Kind: NoticeEcho, Text: assetID})
}

func (m *Manager) render(ctx context.Context, userID int64, sess *session.Session) error {
	prompts := session.PromptsFor(sess, m.catalog)
	if len(prompts) == 0 {
		return nil
	}
	if err := m.renderer.RenderPrompts(ctx, userID, prompts); err != nil {
		return fmt.Errorf("render prompts: %w", err)
	}
	return nil
}

func (m *Manager) notice(ctx context.Context, userID int64, notice Notice) error {
	if err := m.renderer.RenderNotice(ctx, userID, notice); err != nil {
		return fmt.Errorf("render notice: %w", err)
	}
	return nil
}

// retryNotice is best effort; the store error it accompanies is what the
// caller reports.
func (m *Manager) retryNotice(ctx context.Context, userID int64) {
	notice := Notice{Kind: NoticeRetry, Text: "Something went wrong saving your answer. Please try again."}
	if err := m.renderer.RenderNotice(ctx, userID, notice); err != nil {
		logging.WithContext(ctx, m.logger).Warn("retry notice failed", logging.Error(err))
	}
}
