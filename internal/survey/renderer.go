package survey

import (
	"context"

	"cliprate/internal/session"
)

// NoticeKind classifies out-of-band messages sent alongside prompts.
type NoticeKind string

const (
	// NoticeIntro opens a fresh theme: greeting, assigned theme, round
	// description, and catalog progress counts.
	NoticeIntro NoticeKind = "intro"
	// NoticeResumed tells a returning user their earlier position was restored.
	NoticeResumed NoticeKind = "resumed"
	// NoticeThemeCompleted confirms a finished theme pass.
	NoticeThemeCompleted NoticeKind = "theme_completed"
	// NoticeAllComplete tells the user no unfinished themes remain.
	NoticeAllComplete NoticeKind = "all_complete"
	// NoticeRetry asks the user to repeat an input that failed validation or
	// whose write did not commit.
	NoticeRetry NoticeKind = "retry"
	// NoticeEcho carries the identifier of media the user sent in.
	NoticeEcho NoticeKind = "echo"
)

// Notice is one out-of-band message for the user.
type Notice struct {
	Kind NoticeKind
	Text string
}

// Renderer turns workflow output into transport messages. The manager never
// talks to the transport directly.
type Renderer interface {
	RenderPrompts(ctx context.Context, userID int64, prompts []session.Prompt) error
	RenderNotice(ctx context.Context, userID int64, notice Notice) error
}
