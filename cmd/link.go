package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
)

var (
	linkName   string
	linkSecond string
)

var linkCmd = &cobra.Command{
	Use:   "link <item-id> <catalog-id>",
	Short: "Link an item to a pricing catalog entry",
	Long:  "Attaches a catalog entry to an item and invalidates its cached valuations so the next lookup reprices under the new link.",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEngine(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		if err := env.Engine.LinkCatalogEntry(ctx, args[0], args[1], linkName, linkSecond); err != nil {
			return eris.Wrap(err, "link catalog entry")
		}

		fmt.Printf("Linked item %s to catalog entry %s\n", args[0], args[1])
		return nil
	},
}

func init() {
	linkCmd.Flags().StringVar(&linkName, "name", "", "catalog display name")
	linkCmd.Flags().StringVar(&linkSecond, "secondary", "", "secondary name (set, console, colorway)")
	rootCmd.AddCommand(linkCmd)
}
