package report

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"
)

// Render writes the three report sections as tables. Styled borders only show
// on a terminal; redirected output gets the plain style so it stays grep-able.
func Render(w io.Writer, report *Report) error {
	style := table.StyleDefault
	if file, ok := w.(*os.File); ok && isatty.IsTerminal(file.Fd()) {
		style = table.StyleRounded
	}

	if _, err := fmt.Fprintln(w, "Ratings"); err != nil {
		return err
	}
	headers := append([]string{"User", "Theme", "Video"}, report.Criteria...)
	rows := make([][]string, 0, len(report.Ratings))
	for _, row := range report.Ratings {
		line := []string{strconv.FormatInt(row.UserID, 10), row.Theme, row.VideoName}
		for _, criterion := range report.Criteria {
			if score, ok := row.Scores[criterion]; ok {
				line = append(line, strconv.Itoa(score))
			} else {
				line = append(line, "")
			}
		}
		rows = append(rows, line)
	}
	if err := renderSection(w, style, headers, rows); err != nil {
		return err
	}

	if _, err := fmt.Fprintln(w, "\nTheme Status"); err != nil {
		return err
	}
	rows = rows[:0]
	for _, row := range report.Statuses {
		rows = append(rows, []string{strconv.FormatInt(row.UserID, 10), row.Theme, row.Status, row.Progress})
	}
	if err := renderSection(w, style, []string{"User", "Theme", "Status", "Progress"}, rows); err != nil {
		return err
	}

	if _, err := fmt.Fprintln(w, "\nBest Videos"); err != nil {
		return err
	}
	rows = rows[:0]
	for _, row := range report.Best {
		rows = append(rows, []string{strconv.FormatInt(row.UserID, 10), row.Theme, row.VideoName, row.Reason})
	}
	return renderSection(w, style, []string{"User", "Theme", "Video", "Reason"}, rows)
}

func renderSection(w io.Writer, style table.Style, headers []string, rows [][]string) error {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(style)

	header := make(table.Row, len(headers))
	for i, name := range headers {
		header[i] = name
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, len(headers))
		for i := range headers {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	configs := make([]table.ColumnConfig, 0, len(headers))
	for i := range headers {
		align := text.AlignLeft
		if i == 0 {
			align = text.AlignRight
		}
		configs = append(configs, table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
		})
	}
	tw.SetColumnConfigs(configs)

	tw.Render()
	return nil
}
