package session

import "cliprate/internal/catalog"

// PromptKind enumerates the outbound prompt intents the workflow produces.
// The transport decides how each kind is rendered.
type PromptKind string

const (
	// PromptShowAsset asks the transport to display a video asset with its
	// position in the session.
	PromptShowAsset PromptKind = "show_asset"
	// PromptCriterion asks for a 1..5 score on one criterion.
	PromptCriterion PromptKind = "criterion"
	// PromptFavoriteChoice asks the user to nominate the best video.
	PromptFavoriteChoice PromptKind = "favorite_choice"
	// PromptFavoriteReason asks for the free-text justification.
	PromptFavoriteReason PromptKind = "favorite_reason"
)

// Prompt is one outbound rendering intent.
type Prompt struct {
	Kind PromptKind

	// ShowAsset fields.
	AssetID    string
	Theme      string
	VideoIndex int
	VideoTotal int

	// Criterion fields (also set on ShowAsset for the caption).
	CriterionIndex int
	CriterionName  string
	CriterionHint  string

	// FavoriteChoice fields.
	OptionCount int
}

// PromptsFor derives the outbound prompts that re-establish the user's
// current stage. Resumption reuses this so a reconstructed session shows
// exactly what the live machine would have shown.
func PromptsFor(sess *Session, cat *catalog.Catalog) []Prompt {
	switch sess.Stage() {
	case StageRating:
		criteria := cat.Criteria()
		criterion := criteria[sess.CriterionIndex]
		return []Prompt{
			{
				Kind:           PromptShowAsset,
				AssetID:        sess.CurrentVideo(),
				Theme:          sess.Theme,
				VideoIndex:     sess.VideoIndex,
				VideoTotal:     len(sess.Videos),
				CriterionIndex: sess.CriterionIndex,
				CriterionName:  criterion.Name,
			},
			{
				Kind:           PromptCriterion,
				CriterionIndex: sess.CriterionIndex,
				CriterionName:  criterion.Name,
				CriterionHint:  criterion.Hint,
			},
		}
	case StageSelectingFavorite:
		return []Prompt{{Kind: PromptFavoriteChoice, OptionCount: len(sess.Videos)}}
	case StageAwaitingReason:
		return []Prompt{{Kind: PromptFavoriteReason}}
	default:
		return nil
	}
}

// NextCriterionPrompt returns only the criterion question for the session's
// current position, used when the video itself is already on screen.
func NextCriterionPrompt(sess *Session, cat *catalog.Catalog) (Prompt, bool) {
	if sess.Stage() != StageRating {
		return Prompt{}, false
	}
	criteria := cat.Criteria()
	criterion := criteria[sess.CriterionIndex]
	return Prompt{
		Kind:           PromptCriterion,
		CriterionIndex: sess.CriterionIndex,
		CriterionName:  criterion.Name,
		CriterionHint:  criterion.Hint,
	}, true
}
