package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var valueCmd = &cobra.Command{
	Use:   "value <item-id>",
	Short: "Refresh the valuation for a single item",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEngine(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		result, err := env.Engine.RefreshValuation(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "refresh valuation")
		}

		if result.Success {
			zap.L().Info("valuation complete",
				zap.String("item", args[0]),
				zap.Int64("value_cents", result.ValueCents),
				zap.Int("confidence", result.Confidence),
				zap.String("source", result.SourceTag),
			)
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	},
}

func init() {
	rootCmd.AddCommand(valueCmd)
}
