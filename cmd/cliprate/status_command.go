package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"cliprate/internal/store"
)

func newStatusCommand(cmdCtx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show database health and in-flight sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cmdCtx.ensureConfig()
			if err != nil {
				return err
			}
			st, err := store.Open(cfg)
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}
			defer st.Close()

			out := cmd.OutOrStdout()
			health := st.CheckHealth(cmd.Context())
			if !health.Healthy {
				fmt.Fprintf(out, "Database: UNHEALTHY (%s)\n", health.Error)
				return nil
			}
			fmt.Fprintf(out, "Database: %s\n", st.Path())
			fmt.Fprintln(out, statusTable(
				[]string{"Ratings", "Users", "Active Sessions"},
				[][]string{{
					strconv.Itoa(health.RatingCount),
					strconv.Itoa(health.UserCount),
					strconv.Itoa(health.ProgressCount),
				}},
			))

			summaries, err := st.ProgressSummaries(cmd.Context())
			if err != nil {
				return err
			}
			if len(summaries) == 0 {
				fmt.Fprintln(out, "No sessions in progress.")
				return nil
			}

			rows := make([][]string, 0, len(summaries))
			for _, summary := range summaries {
				position := fmt.Sprintf("video %d/%d, criterion %d",
					summary.VideoIndex+1, summary.VideoTotal, summary.CriterionIndex+1)
				if summary.VideoIndex >= summary.VideoTotal {
					position = "picking favorite"
					if summary.AwaitingReason {
						position = "writing reason"
					}
				}
				rows = append(rows, []string{
					strconv.FormatInt(summary.UserID, 10),
					summary.Theme,
					position,
					summary.UpdatedAt.Format(time.RFC3339),
				})
			}
			fmt.Fprintln(out, statusTable([]string{"User", "Theme", "Position", "Updated"}, rows))
			return nil
		},
	}
}
