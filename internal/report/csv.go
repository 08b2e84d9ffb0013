package report

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// ExportCSV writes the report sections as ratings.csv, theme_status.csv, and
// best_videos.csv under dir.
func ExportCSV(report *Report, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create export dir: %w", err)
	}

	ratingsRows := make([][]string, 0, len(report.Ratings)+1)
	ratingsRows = append(ratingsRows, append([]string{"user_id", "theme", "video_name"}, report.Criteria...))
	for _, row := range report.Ratings {
		line := []string{strconv.FormatInt(row.UserID, 10), row.Theme, row.VideoName}
		for _, criterion := range report.Criteria {
			if score, ok := row.Scores[criterion]; ok {
				line = append(line, strconv.Itoa(score))
			} else {
				line = append(line, "")
			}
		}
		ratingsRows = append(ratingsRows, line)
	}
	if err := writeCSV(filepath.Join(dir, "ratings.csv"), ratingsRows); err != nil {
		return err
	}

	statusRows := [][]string{{"user_id", "theme", "status", "progress"}}
	for _, row := range report.Statuses {
		statusRows = append(statusRows, []string{
			strconv.FormatInt(row.UserID, 10), row.Theme, row.Status, row.Progress,
		})
	}
	if err := writeCSV(filepath.Join(dir, "theme_status.csv"), statusRows); err != nil {
		return err
	}

	bestRows := [][]string{{"user_id", "theme", "video_name", "reason"}}
	for _, row := range report.Best {
		bestRows = append(bestRows, []string{
			strconv.FormatInt(row.UserID, 10), row.Theme, row.VideoName, row.Reason,
		})
	}
	return writeCSV(filepath.Join(dir, "best_videos.csv"), bestRows)
}

func writeCSV(path string, rows [][]string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.WriteAll(rows); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("flush %s: %w", path, err)
	}
	return file.Close()
}
