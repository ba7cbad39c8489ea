package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/nadlan-labs/shuma-cli/internal/export"
	"github.com/nadlan-labs/shuma-cli/internal/model"
	"github.com/nadlan-labs/shuma-cli/internal/search"
)

var (
	searchTerms     []string
	searchWindow    int
	searchLimit     int
	searchSource    string
	searchYear      int
	searchAppraiser string
	searchCaseType  string
	searchXLSXPath  string
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Extract and aggregate numeric values near terms in stored decisions",
	RunE: func(cmd *cobra.Command, args []string) error {
		var source model.SourceCategory
		if searchSource != "" {
			s, err := model.ParseSourceCategory(searchSource)
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

		window := searchWindow
		if window == 0 {
			window = cfg.Search.Window
		}
		limit := searchLimit
		if limit == 0 {
			limit = cfg.Search.Limit
		}

		res, err := search.NewService(st).Run(ctx, search.Options{
			Terms:     searchTerms,
			Window:    window,
			Limit:     limit,
			Source:    source,
			Year:      searchYear,
			Appraiser: searchAppraiser,
			CaseType:  searchCaseType,
		})
		if err != nil {
			return err
		}

		if searchXLSXPath != "" {
			return export.SearchResult(searchXLSXPath, res.Rows, res.Stats)
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	},
}

func init() {
	searchCmd.Flags().StringSliceVar(&searchTerms, "term", nil, "search term, repeatable")
	searchCmd.Flags().IntVar(&searchWindow, "window", 0, "scan window in runes after each occurrence (default from config)")
	searchCmd.Flags().IntVar(&searchLimit, "limit", 0, "max preview rows (default from config)")
	searchCmd.Flags().StringVar(&searchSource, "source", "", "restrict to one source archive")
	searchCmd.Flags().IntVar(&searchYear, "year", 0, "restrict to a decision year")
	searchCmd.Flags().StringVar(&searchAppraiser, "appraiser", "", "restrict to one appraiser")
	searchCmd.Flags().StringVar(&searchCaseType, "case-type", "", "restrict to one case type")
	searchCmd.Flags().StringVar(&searchXLSXPath, "xlsx", "", "write results to an XLSX workbook instead of stdout")
	searchCmd.MarkFlagRequired("term")
	rootCmd.AddCommand(searchCmd)
}
