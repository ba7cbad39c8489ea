package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/nadlan-labs/shuma-cli/internal/fetch"
	"github.com/nadlan-labs/shuma-cli/internal/ingest"
	"github.com/nadlan-labs/shuma-cli/internal/model"
)

var (
	ingestSource    string
	ingestStartPage int
	ingestMaxPages  int
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Fetch and store decisions from a source archive",
	RunE: func(cmd *cobra.Command, args []string) error {
		source, err := model.ParseSourceCategory(ingestSource)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		registry, err := initRegistry()
		if err != nil {
			return err
		}

		maxPages := ingestMaxPages
		if maxPages == 0 {
			maxPages = cfg.Fetch.MaxPages
		}

		fetcher := fetch.NewHTTPFetcher(registry, cfg.Fetch.RatePerSec)
		pipeline := ingest.NewPipeline(fetcher, buildChain(st), st)

		res, err := pipeline.Run(ctx, ingest.Options{
			Source:    source,
			StartPage: ingestStartPage,
			MaxPages:  maxPages,
		})
		if err != nil {
			return eris.Wrap(err, "ingest")
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	},
}

func init() {
	ingestCmd.Flags().StringVar(&ingestSource, "source", "decisive", "source archive: decisive, appeals or compensation")
	ingestCmd.Flags().IntVar(&ingestStartPage, "start-page", 1, "first result page")
	ingestCmd.Flags().IntVar(&ingestMaxPages, "max-pages", 0, "page cap (default from config)")
	rootCmd.AddCommand(ingestCmd)
}
