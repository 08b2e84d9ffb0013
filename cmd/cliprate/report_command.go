package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"cliprate/internal/catalog"
	"cliprate/internal/report"
	"cliprate/internal/store"
)

func newReportCommand(cmdCtx *commandContext) *cobra.Command {
	var csvDir string

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Show collected ratings, theme progress, and favorite picks",
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

			cat, err := catalog.Load(cfg.Survey.CatalogPath)
			if err != nil {
				return fmt.Errorf("load catalog: %w", err)
			}

			built, err := report.Build(cmd.Context(), st, cat)
			if err != nil {
				return err
			}

			if dir := strings.TrimSpace(csvDir); dir != "" {
				if err := report.ExportCSV(built, dir); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Wrote CSV export to %s\n", dir)
				return nil
			}
			return report.Render(cmd.OutOrStdout(), built)
		},
	}

	cmd.Flags().StringVar(&csvDir, "csv", "", "Write CSV files to this directory instead of printing tables")
	return cmd
}
