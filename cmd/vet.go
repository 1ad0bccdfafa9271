package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gnoswap-labs/gotoconv/internal/printer"
	"github.com/gnoswap-labs/gotoconv/lower"
)

var vetCmd = &cobra.Command{
	Use:   "vet [paths...]",
	Short: "Report the functions that do not lower and the constructs the lowering approximates",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runVet,
}

func init() {
	vetCmd.Flags().StringVar(&ignoreRules, "ignore", "", "Comma-separated list of rules whose warnings are dropped")
}

func runVet(cmd *cobra.Command, args []string) error {
	results, err := processWith(cmd, args, lower.Vet)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	failed := false
	for _, res := range results {
		if len(res.Issues) == 0 {
			continue
		}
		src, err := printer.ReadSource(res.File)
		if err != nil {
			logger.Warn("Error reading source file", zap.String("file", res.File), zap.Error(err))
		}
		fmt.Fprint(w, printer.FormatIssues(res.Issues, src))
		failed = failed || res.HasErrors()
	}
	if failed {
		return ErrIssues
	}
	return nil
}
