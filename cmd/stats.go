package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/nadlan-labs/shuma-cli/internal/model"
	"github.com/nadlan-labs/shuma-cli/internal/stats"
	"github.com/nadlan-labs/shuma-cli/internal/store"
)

var (
	statsSource   string
	statsCaseType string
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summarize the stored decision corpus",
	RunE: func(cmd *cobra.Command, args []string) error {
		var source model.SourceCategory
		if statsSource != "" {
			s, err := model.ParseSourceCategory(statsSource)
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
			Source:   source,
			CaseType: statsCaseType,
		})
		if err != nil {
			return err
		}

		rows := make([]model.AggregatedRow, len(decisions))
		for i, d := range decisions {
			rows[i] = model.AggregatedRow{
				DecisionID: d.ID,
				Appraiser:  d.Appraiser,
				Block:      d.Block,
				Plot:       d.Plot,
				Year:       d.Year,
			}
		}
		summary := stats.Summarize(rows, nil)

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(summary)
	},
}

func init() {
	statsCmd.Flags().StringVar(&statsSource, "source", "", "restrict to one source archive")
	statsCmd.Flags().StringVar(&statsCaseType, "case-type", "", "restrict to one case type")
	rootCmd.AddCommand(statsCmd)
}
