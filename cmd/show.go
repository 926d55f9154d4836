package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/collectorvault/appraise/internal/model"
)

var showHistoryLimit int

var showCmd = &cobra.Command{
	Use:   "show <item-id>",
	Short: "Show the consolidated valuation for an item",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEngine(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		result, err := env.Engine.GetConsolidatedValuation(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "get consolidated valuation")
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	},
}

var historyCmd = &cobra.Command{
	Use:   "history <item-id>",
	Short: "Show an item's valuation history, newest first",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEngine(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		entries, err := env.Engine.History(ctx, args[0], showHistoryLimit)
		if err != nil {
			return eris.Wrap(err, "valuation history")
		}

		if len(entries) == 0 {
			fmt.Fprintln(os.Stderr, "No valuation history.")
			return nil
		}

		formatHistory(os.Stdout, entries)
		return nil
	},
}

func formatHistory(w io.Writer, entries []model.PriceCacheEntry) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "FETCHED\tSOURCE\tVALUE\tCONFIDENCE\tSAMPLES\tEXPIRES")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%s\t$%.2f\t%d\t%d\t%s\n",
			e.FetchedAt.Format("2006-01-02 15:04"),
			e.Purpose,
			float64(e.ValueCents)/100,
			e.Confidence,
			e.SampleSize,
			e.ExpiresAt.Format("2006-01-02 15:04"),
		)
	}
	tw.Flush()
}

func init() {
	historyCmd.Flags().IntVar(&showHistoryLimit, "limit", 20, "maximum entries to show")
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(historyCmd)
}
