package survey_test

import (
	"context"
	"strings"
	"testing"

	"cliprate/internal/catalog"
	"cliprate/internal/logging"
	"cliprate/internal/session"
	"cliprate/internal/store"
	"cliprate/internal/survey"
	"cliprate/internal/testsupport"
)

// fixedPerm swaps the first two assets so the session order is predictable.
type fixedPerm struct{}

func (fixedPerm) Intn(n int) int { return 0 }

func (fixedPerm) Shuffle(n int, swap func(i, j int)) {
	if n >= 2 {
		swap(0, 1)
	}
}

type recordingRenderer struct {
	prompts [][]session.Prompt
	notices []survey.Notice
}

func (r *recordingRenderer) RenderPrompts(_ context.Context, _ int64, prompts []session.Prompt) error {
	r.prompts = append(r.prompts, prompts)
	return nil
}

func (r *recordingRenderer) RenderNotice(_ context.Context, _ int64, notice survey.Notice) error {
	r.notices = append(r.notices, notice)
	return nil
}

func (r *recordingRenderer) lastPrompts(t *testing.T) []session.Prompt {
	t.Helper()
	if len(r.prompts) == 0 {
		t.Fatal("expected prompts to be rendered")
	}
	return r.prompts[len(r.prompts)-1]
}

func (r *recordingRenderer) lastNotice(t *testing.T) survey.Notice {
	t.Helper()
	if len(r.notices) == 0 {
		t.Fatal("expected a notice to be rendered")
	}
	return r.notices[len(r.notices)-1]
}

func newTestManager(t *testing.T) (*survey.Manager, *store.Store, *catalog.Catalog, *recordingRenderer) {
	t.Helper()

	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	cat := testsupport.MustLoadCatalog(t)
	machine := session.NewMachine(cat, cfg.Survey.VideosPerTheme, fixedPerm{})
	renderer := &recordingRenderer{}
	manager := survey.NewManager(st, cat, machine, renderer, logging.NewNop())
	return manager, st, cat, renderer
}

func TestStartCreatesSessionAndPrompts(t *testing.T) {
	manager, st, _, renderer := newTestManager(t)
	ctx := context.Background()

	if err := manager.HandleStart(ctx, 1, "", ""); err != nil {
		t.Fatalf("HandleStart: %v", err)
	}

	prompts := renderer.lastPrompts(t)
	if len(prompts) != 2 {
		t.Fatalf("expected show-asset and criterion prompts, got %d", len(prompts))
	}
	if prompts[0].Kind != session.PromptShowAsset || prompts[1].Kind != session.PromptCriterion {
		t.Fatalf("unexpected prompt kinds: %+v", prompts)
	}
	if prompts[0].VideoIndex != 0 || prompts[1].CriterionIndex != 0 {
		t.Fatalf("expected fresh cursors, got %+v", prompts)
	}

	sess, err := st.GetProgress(ctx, 1)
	if err != nil {
		t.Fatalf("GetProgress: %v", err)
	}
	if sess == nil {
		t.Fatal("expected persisted session")
	}
	if sess.Stage() != session.StageRating {
		t.Fatalf("expected rating stage, got %s", sess.Stage())
	}
}

func TestStartWithExplicitThemeUsesIt(t *testing.T) {
	manager, st, _, _ := newTestManager(t)
	ctx := context.Background()

	if err := manager.HandleStart(ctx, 1, "", "Who Has Been to Space?"); err != nil {
		t.Fatalf("HandleStart: %v", err)
	}
	sess, err := st.GetProgress(ctx, 1)
	if err != nil {
		t.Fatalf("GetProgress: %v", err)
	}
	if sess.Theme != "Who Has Been to Space?" {
		t.Fatalf("unexpected theme %q", sess.Theme)
	}
}

func TestStartGreetsAndAnnouncesTheme(t *testing.T) {
	manager, st, _, renderer := newTestManager(t)
	ctx := context.Background()

	if err := st.MarkThemeCompleted(ctx, 1, "Who Lives in Antarctica?"); err != nil {
		t.Fatalf("MarkThemeCompleted: %v", err)
	}
	if err := manager.HandleStart(ctx, 1, "Alice", "Robotics"); err != nil {
		t.Fatalf("HandleStart: %v", err)
	}

	notice := renderer.notices[0]
	if notice.Kind != survey.NoticeIntro {
		t.Fatalf("expected intro notice first, got %+v", notice)
	}
	for _, want := range []string{
		"Hello, Alice!",
		"Your theme is: Robotics",
		"You will see 3 videos",
		"5 criteria",
		"Themes total: 3, completed: 1, remaining: 2.",
	} {
		if !strings.Contains(notice.Text, want) {
			t.Fatalf("intro missing %q:\n%s", want, notice.Text)
		}
	}
	if len(renderer.prompts) == 0 {
		t.Fatal("expected the first video prompt after the intro")
	}
}

func TestStartWithoutNameStillGreets(t *testing.T) {
	manager, _, _, renderer := newTestManager(t)

	if err := manager.HandleStart(context.Background(), 1, "", "Robotics"); err != nil {
		t.Fatalf("HandleStart: %v", err)
	}
	notice := renderer.notices[0]
	if notice.Kind != survey.NoticeIntro || !strings.HasPrefix(notice.Text, "Hello!") {
		t.Fatalf("unexpected intro: %+v", notice)
	}
}

func TestScoreAdvancesCriterionThenVideo(t *testing.T) {
	manager, st, cat, renderer := newTestManager(t)
	ctx := context.Background()

	if err := manager.HandleStart(ctx, 1, "", "Robotics"); err != nil {
		t.Fatalf("HandleStart: %v", err)
	}

	criteriaCount := cat.CriteriaCount()
	for i := 0; i < criteriaCount; i++ {
		if err := manager.HandleScore(ctx, 1, 4); err != nil {
			t.Fatalf("HandleScore %d: %v", i, err)
		}
	}

	sess, err := st.GetProgress(ctx, 1)
	if err != nil {
		t.Fatalf("GetProgress: %v", err)
	}
	if sess.VideoIndex != 1 || sess.CriterionIndex != 0 {
		t.Fatalf("expected cursor at second video, got v=%d c=%d", sess.VideoIndex, sess.CriterionIndex)
	}
	if len(sess.PartialScores) != 0 {
		t.Fatalf("expected partial buffer cleared, got %v", sess.PartialScores)
	}

	prompts := renderer.lastPrompts(t)
	if prompts[0].Kind != session.PromptShowAsset || prompts[0].VideoIndex != 1 {
		t.Fatalf("expected next asset prompt, got %+v", prompts[0])
	}
}

func TestMidVideoScoreAsksNextCriterionOnly(t *testing.T) {
	manager, _, _, renderer := newTestManager(t)
	ctx := context.Background()

	if err := manager.HandleStart(ctx, 1, "", "Robotics"); err != nil {
		t.Fatalf("HandleStart: %v", err)
	}
	if err := manager.HandleScore(ctx, 1, 4); err != nil {
		t.Fatalf("HandleScore: %v", err)
	}

	// The clip is still on screen, so no second sendVideo: only the next
	// criterion question goes out.
	prompts := renderer.lastPrompts(t)
	if len(prompts) != 1 {
		t.Fatalf("expected a single criterion prompt, got %+v", prompts)
	}
	if prompts[0].Kind != session.PromptCriterion || prompts[0].CriterionIndex != 1 {
		t.Fatalf("expected second criterion, got %+v", prompts[0])
	}
}

func TestInvalidScoreLeavesCursorUnchanged(t *testing.T) {
	manager, st, _, renderer := newTestManager(t)
	ctx := context.Background()

	if err := manager.HandleStart(ctx, 1, "", "Robotics"); err != nil {
		t.Fatalf("HandleStart: %v", err)
	}
	if err := manager.HandleScore(ctx, 1, 6); err != nil {
		t.Fatalf("HandleScore: %v", err)
	}

	sess, err := st.GetProgress(ctx, 1)
	if err != nil {
		t.Fatalf("GetProgress: %v", err)
	}
	if sess.VideoIndex != 0 || sess.CriterionIndex != 0 {
		t.Fatalf("expected cursor untouched, got v=%d c=%d", sess.VideoIndex, sess.CriterionIndex)
	}
	ratings, err := st.AllRatings(ctx)
	if err != nil {
		t.Fatalf("AllRatings: %v", err)
	}
	if len(ratings) != 0 {
		t.Fatalf("expected no rating row, got %d", len(ratings))
	}
	if renderer.lastNotice(t).Kind != survey.NoticeRetry {
		t.Fatalf("expected retry notice, got %+v", renderer.notices)
	}
}

func TestStrayEventsAreDroppedWithoutWrites(t *testing.T) {
	manager, st, _, renderer := newTestManager(t)
	ctx := context.Background()

	if err := manager.HandleStart(ctx, 1, "", "Robotics"); err != nil {
		t.Fatalf("HandleStart: %v", err)
	}

	// Favorite click and reason text during the rating stage are late or
	// duplicate deliveries; both re-show the current prompt instead of
	// writing anything.
	if err := manager.HandleFavorite(ctx, 1, 0); err != nil {
		t.Fatalf("HandleFavorite: %v", err)
	}
	if err := manager.HandleReason(ctx, 1, "too early"); err != nil {
		t.Fatalf("HandleReason: %v", err)
	}

	picks, err := st.BestVideos(ctx)
	if err != nil {
		t.Fatalf("BestVideos: %v", err)
	}
	if len(picks) != 0 {
		t.Fatalf("expected no favorite recorded, got %+v", picks)
	}
	prompts := renderer.lastPrompts(t)
	if prompts[len(prompts)-1].Kind != session.PromptCriterion {
		t.Fatalf("expected rating prompt re-shown, got %+v", prompts)
	}
}

func TestFullThemeFlow(t *testing.T) {
	manager, st, _, renderer := newTestManager(t)
	ctx := context.Background()
	const userID int64 = 7

	if err := manager.HandleStart(ctx, userID, "", "Robotics"); err != nil {
		t.Fatalf("HandleStart: %v", err)
	}

	// fixedPerm swaps the first two assets, so the session order is
	// generated, human, generated-plus.
	sess, err := st.GetProgress(ctx, userID)
	if err != nil {
		t.Fatalf("GetProgress: %v", err)
	}
	wantOrder := []string{"clip-robotics-generated", "clip-robotics-human", "clip-robotics-generated-plus"}
	for i, want := range wantOrder {
		if sess.Videos[i] != want {
			t.Fatalf("unexpected permutation: %v", sess.Videos)
		}
	}

	scores := []int{5, 4, 3, 2, 1}
	for video := 0; video < 3; video++ {
		for _, score := range scores {
			if err := manager.HandleScore(ctx, userID, score); err != nil {
				t.Fatalf("HandleScore: %v", err)
			}
		}
	}

	prompts := renderer.lastPrompts(t)
	if prompts[0].Kind != session.PromptFavoriteChoice || prompts[0].OptionCount != 3 {
		t.Fatalf("expected favorite prompt after last score, got %+v", prompts)
	}

	// Index 1 picks the human clip under the swapped order.
	if err := manager.HandleFavorite(ctx, userID, 1); err != nil {
		t.Fatalf("HandleFavorite: %v", err)
	}
	if renderer.lastPrompts(t)[0].Kind != session.PromptFavoriteReason {
		t.Fatalf("expected reason prompt, got %+v", renderer.lastPrompts(t))
	}

	if err := manager.HandleReason(ctx, userID, "clear narration"); err != nil {
		t.Fatalf("HandleReason: %v", err)
	}

	ratings, err := st.AllRatings(ctx)
	if err != nil {
		t.Fatalf("AllRatings: %v", err)
	}
	if len(ratings) != 15 {
		t.Fatalf("expected 15 rating rows, got %d", len(ratings))
	}
	picks, err := st.BestVideos(ctx)
	if err != nil {
		t.Fatalf("BestVideos: %v", err)
	}
	if len(picks) != 1 || picks[0].VideoID != "clip-robotics-human" || picks[0].Reason != "clear narration" {
		t.Fatalf("unexpected favorite: %+v", picks)
	}
	completed, err := st.CompletedThemes(ctx, userID)
	if err != nil {
		t.Fatalf("CompletedThemes: %v", err)
	}
	if len(completed) != 1 || completed[0] != "Robotics" {
		t.Fatalf("unexpected completions: %v", completed)
	}
	final, err := st.GetProgress(ctx, userID)
	if err != nil {
		t.Fatalf("GetProgress: %v", err)
	}
	if final != nil {
		t.Fatalf("expected progress cleared, got %+v", final)
	}
	if renderer.notices[len(renderer.notices)-2].Kind != survey.NoticeThemeCompleted {
		t.Fatalf("expected completion notice, got %+v", renderer.notices)
	}
}

func TestCompletedThemeCannotRestart(t *testing.T) {
	manager, st, cat, renderer := newTestManager(t)
	ctx := context.Background()

	for _, theme := range cat.ThemeNames() {
		if err := st.MarkThemeCompleted(ctx, 1, theme); err != nil {
			t.Fatalf("MarkThemeCompleted: %v", err)
		}
	}
	if err := manager.HandleStart(ctx, 1, "", ""); err != nil {
		t.Fatalf("HandleStart: %v", err)
	}
	if renderer.lastNotice(t).Kind != survey.NoticeAllComplete {
		t.Fatalf("expected all-complete notice, got %+v", renderer.notices)
	}
	sess, err := st.GetProgress(ctx, 1)
	if err != nil {
		t.Fatalf("GetProgress: %v", err)
	}
	if sess != nil {
		t.Fatal("expected no session created")
	}
}

func TestEmptyReasonReprompts(t *testing.T) {
	manager, st, _, renderer := newTestManager(t)
	ctx := context.Background()

	sess := &session.Session{
		UserID:         1,
		Theme:          "Robotics",
		Videos:         []string{"clip-robotics-human", "clip-robotics-generated", "clip-robotics-generated-plus"},
		VideoIndex:     3,
		AwaitingReason: true,
	}
	if err := st.UpsertProgress(ctx, sess); err != nil {
		t.Fatalf("UpsertProgress: %v", err)
	}
	if err := st.RecordBestVideo(ctx, session.FavoriteFact{UserID: 1, Theme: "Robotics", VideoID: "clip-robotics-human"}); err != nil {
		t.Fatalf("RecordBestVideo: %v", err)
	}

	if err := manager.HandleReason(ctx, 1, "   "); err != nil {
		t.Fatalf("HandleReason: %v", err)
	}
	if renderer.lastNotice(t).Kind != survey.NoticeRetry {
		t.Fatalf("expected retry notice, got %+v", renderer.notices)
	}
	completed, err := st.CompletedThemes(ctx, 1)
	if err != nil {
		t.Fatalf("CompletedThemes: %v", err)
	}
	if len(completed) != 0 {
		t.Fatalf("expected theme still open, got %v", completed)
	}
}

func TestMediaEcho(t *testing.T) {
	manager, _, _, renderer := newTestManager(t)

	if err := manager.HandleMedia(context.Background(), 1, "file-abc123"); err != nil {
		t.Fatalf("HandleMedia: %v", err)
	}
	notice := renderer.lastNotice(t)
	if notice.Kind != survey.NoticeEcho || notice.Text != "file-abc123" {
		t.Fatalf("unexpected echo notice: %+v", notice)
	}
}

func TestScoreWithoutSessionAsksToStart(t *testing.T) {
	manager, _, _, renderer := newTestManager(t)

	if err := manager.HandleScore(context.Background(), 1, 3); err != nil {
		t.Fatalf("HandleScore: %v", err)
	}
	if renderer.lastNotice(t).Kind != survey.NoticeRetry {
		t.Fatalf("expected retry notice, got %+v", renderer.notices)
	}
}
