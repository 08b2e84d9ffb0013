package report

import (
	"context"
	"fmt"
	"sort"

	"cliprate/internal/catalog"
	"cliprate/internal/store"
)

// RatingRow is one pivoted line of the ratings sheet: a user's scores for one
// clip, one column per criterion.
type RatingRow struct {
	UserID    int64
	Theme     string
	VideoName string
	Scores    map[string]int
}

// StatusRow describes where a user stands on one theme.
type StatusRow struct {
	UserID   int64
	Theme    string
	Status   string
	Progress string
}

// BestRow is one favorite pick with its justification.
type BestRow struct {
	UserID    int64
	Theme     string
	VideoName string
	Reason    string
}

// Report aggregates everything the export surfaces.
type Report struct {
	Criteria []string
	Ratings  []RatingRow
	Statuses []StatusRow
	Best     []BestRow
}

// Build assembles the report from the store. Duplicate rating rows for the
// same (user, theme, video, criterion) collapse to the earliest one; later
// rows are re-delivery artifacts, not corrections.
func Build(ctx context.Context, st *store.Store, cat *catalog.Catalog) (*Report, error) {
	report := &Report{}
	for _, criterion := range cat.Criteria() {
		report.Criteria = append(report.Criteria, criterion.Name)
	}

	ratings, err := st.AllRatings(ctx)
	if err != nil {
		return nil, fmt.Errorf("load ratings: %w", err)
	}
	report.Ratings = pivotRatings(ratings, cat)

	statuses, err := buildStatuses(ctx, st, cat)
	if err != nil {
		return nil, err
	}
	report.Statuses = statuses

	picks, err := st.BestVideos(ctx)
	if err != nil {
		return nil, fmt.Errorf("load best videos: %w", err)
	}
	for _, pick := range picks {
		report.Best = append(report.Best, BestRow{
			UserID:    pick.UserID,
			Theme:     pick.Theme,
			VideoName: displayName(cat, pick.VideoID),
			Reason:    pick.Reason,
		})
	}

	return report, nil
}

type ratingKey struct {
	userID  int64
	theme   string
	videoID string
}

func pivotRatings(ratings []store.Rating, cat *catalog.Catalog) []RatingRow {
	rows := make(map[ratingKey]map[string]int)
	order := make([]ratingKey, 0)

	// AllRatings returns insertion order, so the first score seen for a key
	// wins and duplicates fall away.
	for _, rating := range ratings {
		key := ratingKey{userID: rating.UserID, theme: rating.Theme, videoID: rating.VideoID}
		scores, ok := rows[key]
		if !ok {
			scores = make(map[string]int)
			rows[key] = scores
			order = append(order, key)
		}
		if _, seen := scores[rating.Criterion]; !seen {
			scores[rating.Criterion] = rating.Score
		}
	}

	sort.SliceStable(order, func(i, j int) bool {
		if order[i].userID != order[j].userID {
			return order[i].userID < order[j].userID
		}
		if order[i].theme != order[j].theme {
			return order[i].theme < order[j].theme
		}
		return false
	})

	pivoted := make([]RatingRow, 0, len(order))
	for _, key := range order {
		pivoted = append(pivoted, RatingRow{
			UserID:    key.userID,
			Theme:     key.theme,
			VideoName: displayName(cat, key.videoID),
			Scores:    rows[key],
		})
	}
	return pivoted
}

func buildStatuses(ctx context.Context, st *store.Store, cat *catalog.Catalog) ([]StatusRow, error) {
	var statuses []StatusRow

	summaries, err := st.ProgressSummaries(ctx)
	if err != nil {
		return nil, fmt.Errorf("load progress: %w", err)
	}
	criteriaCount := cat.CriteriaCount()
	for _, summary := range summaries {
		progress := "Finished rating, picking favorite"
		if summary.AwaitingReason {
			progress = "Writing favorite reason"
		} else if summary.VideoIndex < summary.VideoTotal {
			progress = fmt.Sprintf("Video %d/%d, criterion %d/%d",
				summary.VideoIndex+1, summary.VideoTotal,
				summary.CriterionIndex+1, criteriaCount)
		}
		statuses = append(statuses, StatusRow{
			UserID:   summary.UserID,
			Theme:    summary.Theme,
			Status:   "in progress",
			Progress: progress,
		})
	}

	users, err := usersWithCompletions(ctx, st, cat)
	if err != nil {
		return nil, err
	}
	for _, entry := range users {
		statuses = append(statuses, StatusRow{
			UserID:   entry.UserID,
			Theme:    entry.Theme,
			Status:   "completed",
			Progress: "Done",
		})
	}

	sort.SliceStable(statuses, func(i, j int) bool {
		if statuses[i].UserID != statuses[j].UserID {
			return statuses[i].UserID < statuses[j].UserID
		}
		return statuses[i].Theme < statuses[j].Theme
	})
	return statuses, nil
}

func usersWithCompletions(ctx context.Context, st *store.Store, cat *catalog.Catalog) ([]store.CompletedTheme, error) {
	// Completion rows carry no extra payload, so the rating table supplies
	// the user set and CompletedThemes is checked per user.
	ratings, err := st.AllRatings(ctx)
	if err != nil {
		return nil, fmt.Errorf("load ratings for completions: %w", err)
	}
	seen := make(map[int64]bool)
	var users []int64
	for _, rating := range ratings {
		if !seen[rating.UserID] {
			seen[rating.UserID] = true
			users = append(users, rating.UserID)
		}
	}
	sort.Slice(users, func(i, j int) bool { return users[i] < users[j] })

	var completions []store.CompletedTheme
	for _, userID := range users {
		themes, err := st.CompletedThemes(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("load completions for user %d: %w", userID, err)
		}
		for _, theme := range themes {
			completions = append(completions, store.CompletedTheme{UserID: userID, Theme: theme})
		}
	}
	return completions, nil
}
