package cmd

import (
	"github.com/spf13/cobra"

	"github.com/gnoswap-labs/gotoconv/internal/printer"
)

var loopsCmd = &cobra.Command{
	Use:   "loops [paths...]",
	Short: "List the loops of every converted function",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		results, err := process(cmd, args)
		if err != nil {
			return err
		}
		w := cmd.OutOrStdout()
		for _, res := range results {
			for _, fn := range res.Functions {
				if err := printer.Loops(w, fn); err != nil {
					return err
				}
			}
		}
		return nil
	},
}

func init() {
	loopsCmd.Flags().StringSliceVar(&functions, "func", nil, "Only list these functions")
}
