package telegram

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"cliprate/internal/config"
	"cliprate/internal/logging"
	"cliprate/internal/survey"
)

// Poller drives the long-poll loop: fetch updates, decode each into a survey
// command, dispatch, advance the offset. Updates are confirmed to the API by
// the next getUpdates offset, so a crash mid-batch re-delivers events and the
// workflow's duplicate tolerance absorbs them.
type Poller struct {
	client      *Client
	manager     *survey.Manager
	logger      *slog.Logger
	pollTimeout int
}

// NewPoller constructs the update loop.
func NewPoller(cfg *config.Config, client *Client, manager *survey.Manager, logger *slog.Logger) *Poller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Poller{
		client:      client,
		manager:     manager,
		logger:      logging.NewComponentLogger(logger, "telegram"),
		pollTimeout: cfg.Telegram.PollTimeout,
	}
}

// Run polls until the context is cancelled. Poll failures back off and retry;
// they never stop the loop.
func (p *Poller) Run(ctx context.Context) error {
	var offset int64
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		updates, err := p.client.GetUpdates(ctx, offset, p.pollTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			p.logger.Warn("poll failed", logging.Error(err))
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(3 * time.Second):
			}
			continue
		}

		for _, update := range updates {
			p.dispatch(ctx, update)
			if update.UpdateID >= offset {
				offset = update.UpdateID + 1
			}
		}
	}
}

func (p *Poller) dispatch(ctx context.Context, update Update) {
	switch {
	case update.CallbackQuery != nil:
		p.dispatchCallback(ctx, update.CallbackQuery)
	case update.Message != nil:
		p.dispatchMessage(ctx, update.Message)
	}
}

func (p *Poller) dispatchCallback(ctx context.Context, callback *CallbackQuery) {
	// Best effort; an already-answered press fails remotely and the event
	// itself still dispatches.
	if err := p.client.AnswerCallbackQuery(ctx, callback.ID); err != nil {
		p.logger.Debug("answer callback failed", logging.Error(err))
	}
	if callback.Message != nil {
		// Retire the keyboard so a second tap on a stale prompt has nothing
		// to press. Failure here only leaves the buttons visible.
		if err := p.client.EditMessageReplyMarkup(ctx, callback.Message.Chat.ID, callback.Message.MessageID, nil); err != nil {
			p.logger.Debug("clear keyboard failed", logging.Error(err))
		}
	}

	userID := callback.From.ID
	data := callback.Data
	var err error
	switch {
	case strings.HasPrefix(data, scoreCallbackPrefix):
		var score int
		score, err = strconv.Atoi(strings.TrimPrefix(data, scoreCallbackPrefix))
		if err == nil {
			err = p.manager.HandleScore(ctx, userID, score)
		}
	case strings.HasPrefix(data, bestCallbackPrefix):
		var index int
		index, err = strconv.Atoi(strings.TrimPrefix(data, bestCallbackPrefix))
		if err == nil {
			err = p.manager.HandleFavorite(ctx, userID, index)
		}
	default:
		p.logger.Debug("ignoring unknown callback",
			logging.Int64(logging.FieldUserID, userID),
			logging.String("data", data))
		return
	}
	if err != nil {
		p.logger.Error("callback dispatch failed",
			logging.Int64(logging.FieldUserID, userID),
			logging.Error(err))
	}
}

func (p *Poller) dispatchMessage(ctx context.Context, msg *Message) {
	if msg.From == nil {
		return
	}
	userID := msg.From.ID

	var err error
	switch {
	case msg.Video != nil:
		err = p.manager.HandleMedia(ctx, userID, msg.Video.FileID)
	case msg.VideoNote != nil:
		err = p.manager.HandleMedia(ctx, userID, msg.VideoNote.FileID)
	case strings.HasPrefix(msg.Text, "/start"):
		theme := strings.TrimSpace(strings.TrimPrefix(msg.Text, "/start"))
		err = p.manager.HandleStart(ctx, userID, msg.From.FirstName, theme)
	case strings.TrimSpace(msg.Text) != "":
		// Free text is only meaningful as a favorite justification; the
		// manager drops it in any other stage.
		err = p.manager.HandleReason(ctx, userID, msg.Text)
	}
	if err != nil {
		p.logger.Error("message dispatch failed",
			logging.Int64(logging.FieldUserID, userID),
			logging.Error(err))
	}
}
