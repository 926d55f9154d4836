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
	"github.com/collectorvault/appraise/internal/store"
)

var itemsCmd = &cobra.Command{
	Use:   "items",
	Short: "Manage tracked collectibles",
}

// -- items add --

var (
	itemTitle     string
	itemCategory  string
	itemCondition string
	itemCatalogID string
)

var itemsAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a collectible to track",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		item := model.Item{
			Title:     itemTitle,
			Category:  model.ParseCategory(itemCategory),
			Condition: model.ParseCondition(itemCondition),
			CatalogID: itemCatalogID,
		}

		created, err := st.CreateItem(ctx, item)
		if err != nil {
			return eris.Wrap(err, "create item")
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(created)
	},
}

// -- items list --

var itemsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tracked collectibles",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		category, _ := cmd.Flags().GetString("category")
		limit, _ := cmd.Flags().GetInt("limit")

		filter := store.ItemFilter{Limit: limit}
		if category != "" {
			filter.Category = model.ParseCategory(category)
		}

		items, err := st.ListItems(ctx, filter)
		if err != nil {
			return eris.Wrap(err, "list items")
		}

		if len(items) == 0 {
			fmt.Fprintln(os.Stderr, "No items found.")
			return nil
		}

		formatItemsList(os.Stdout, items)
		return nil
	},
}

func formatItemsList(w io.Writer, items []model.Item) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tCATEGORY\tCONDITION\tVALUE\tCONF\tLINKED")
	for _, it := range items {
		linked := ""
		if it.HasCatalogLink() {
			linked = it.CatalogID
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t$%.2f\t%d\t%s\n",
			it.ID, it.Title, it.Category, it.Condition,
			float64(it.ValueCents)/100, it.Confidence, linked,
		)
	}
	tw.Flush()
}

func init() {
	itemsAddCmd.Flags().StringVar(&itemTitle, "title", "", "item title (required)")
	itemsAddCmd.Flags().StringVar(&itemCategory, "category", "other", "category (video_games, trading_cards, sneakers, electronics, collectibles, other)")
	itemsAddCmd.Flags().StringVar(&itemCondition, "condition", "loose", "condition (new_sealed, complete_in_box, loose, graded, other)")
	itemsAddCmd.Flags().StringVar(&itemCatalogID, "catalog-id", "", "pricing catalog identifier")
	_ = itemsAddCmd.MarkFlagRequired("title")

	itemsListCmd.Flags().String("category", "", "filter by category")
	itemsListCmd.Flags().Int("limit", 50, "maximum items to list")

	itemsCmd.AddCommand(itemsAddCmd)
	itemsCmd.AddCommand(itemsListCmd)
	rootCmd.AddCommand(itemsCmd)
}
