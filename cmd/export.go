package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nadlan-labs/shuma-cli/internal/export"
	"github.com/nadlan-labs/shuma-cli/internal/model"
	"github.com/nadlan-labs/shuma-cli/internal/store"
)

var (
	exportOut    string
	exportSource string
	exportYear   int
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write stored decisions to an XLSX workbook",
	RunE: func(cmd *cobra.Command, args []string) error {
		var source model.SourceCategory
		if exportSource != "" {
			s, err := model.ParseSourceCategory(exportSource)
			if err != nil {
				return err
			}
			source = s
		}

		ctx := cmd.Context()
		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		decisions, err := st.ListDecisions(ctx, store.DecisionFilter{
			Source: source,
			Year:   exportYear,
		})
		if err != nil {
			return err
		}

		if err := export.Decisions(exportOut, decisions); err != nil {
			return err
		}
		zap.L().Info("export written",
			zap.String("path", exportOut),
			zap.Int("decisions", len(decisions)))
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportOut, "out", "decisions.xlsx", "output workbook path")
	exportCmd.Flags().StringVar(&exportSource, "source", "", "restrict to one source archive")
	exportCmd.Flags().IntVar(&exportYear, "year", 0, "restrict to a decision year")
	rootCmd.AddCommand(exportCmd)
}
