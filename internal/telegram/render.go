package telegram

import (
	"context"
	"fmt"
	"strconv"

	"cliprate/internal/catalog"
	"cliprate/internal/session"
	"cliprate/internal/survey"
)

// Callback data prefixes. The numeric suffix is the score value or the
// zero-based asset index.
const (
	scoreCallbackPrefix = "score:"
	bestCallbackPrefix  = "best:"
)

// PromptRenderer turns workflow prompts into Bot API calls.
type PromptRenderer struct {
	client  *Client
	catalog *catalog.Catalog
}

// NewPromptRenderer builds the transport-side renderer.
func NewPromptRenderer(client *Client, cat *catalog.Catalog) *PromptRenderer {
	return &PromptRenderer{client: client, catalog: cat}
}

// RenderPrompts sends the prompt sequence in order. A failed send aborts the
// remainder; the user re-triggers the turn and resumption replays it.
func (r *PromptRenderer) RenderPrompts(ctx context.Context, userID int64, prompts []session.Prompt) error {
	for _, prompt := range prompts {
		var err error
		switch prompt.Kind {
		case session.PromptShowAsset:
			caption := fmt.Sprintf("Theme: %s\nVideo %d of %d: %s\nCriterion %d: %s",
				r.catalog.DisplayName(prompt.Theme),
				prompt.VideoIndex+1, prompt.VideoTotal, r.catalog.DisplayName(prompt.AssetID),
				prompt.CriterionIndex+1, prompt.CriterionName)
			err = r.client.SendVideo(ctx, userID, prompt.AssetID, caption)
		case session.PromptCriterion:
			text := fmt.Sprintf("Rate this clip on %s.\n%s", prompt.CriterionName, prompt.CriterionHint)
			err = r.client.SendMessage(ctx, userID, text, scoreKeyboard())
		case session.PromptFavoriteChoice:
			text := "Which clip did you like the most?"
			err = r.client.SendMessage(ctx, userID, text, favoriteKeyboard(prompt.OptionCount))
		case session.PromptFavoriteReason:
			err = r.client.SendMessage(ctx, userID, "Why that one? Reply with a short reason.", nil)
		default:
			err = fmt.Errorf("unknown prompt kind %q", prompt.Kind)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// RenderNotice sends an out-of-band message as plain text.
func (r *PromptRenderer) RenderNotice(ctx context.Context, userID int64, notice survey.Notice) error {
	return r.client.SendMessage(ctx, userID, notice.Text, nil)
}

func scoreKeyboard() *InlineKeyboardMarkup {
	row := make([]InlineKeyboardButton, 0, session.MaxScore)
	for score := session.MinScore; score <= session.MaxScore; score++ {
		row = append(row, InlineKeyboardButton{
			Text:         strconv.Itoa(score),
			CallbackData: scoreCallbackPrefix + strconv.Itoa(score),
		})
	}
	return &InlineKeyboardMarkup{InlineKeyboard: [][]InlineKeyboardButton{row}}
}

func favoriteKeyboard(optionCount int) *InlineKeyboardMarkup {
	rows := make([][]InlineKeyboardButton, 0, optionCount)
	for i := 0; i < optionCount; i++ {
		rows = append(rows, []InlineKeyboardButton{{
			Text:         fmt.Sprintf("Video %d", i+1),
			CallbackData: bestCallbackPrefix + strconv.Itoa(i),
		}})
	}
	return &InlineKeyboardMarkup{InlineKeyboard: rows}
}
