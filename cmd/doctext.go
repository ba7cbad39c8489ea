package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/nadlan-labs/shuma-cli/internal/doctext"
	"github.com/nadlan-labs/shuma-cli/internal/model"
)

var (
	doctextSource string
	doctextLimit  int
)

var doctextCmd = &cobra.Command{
	Use:   "doctext",
	Short: "Download decision documents and store their extracted text",
	RunE: func(cmd *cobra.Command, args []string) error {
		source, err := model.ParseSourceCategory(doctextSource)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		extractor := doctext.NewPdfToText(cfg.Doctext.PdfToTextPath)
		filler := doctext.NewFiller(st, extractor, cfg.Fetch.RatePerSec)

		res, err := filler.Fill(ctx, source, doctextLimit)
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	},
}

func init() {
	doctextCmd.Flags().StringVar(&doctextSource, "source", "decisive", "source archive: decisive, appeals or compensation")
	doctextCmd.Flags().IntVar(&doctextLimit, "limit", 0, "max documents to process (0 = all)")
	rootCmd.AddCommand(doctextCmd)
}
