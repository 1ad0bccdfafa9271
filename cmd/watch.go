package cmd

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gnoswap-labs/gotoconv/internal/printer"
	"github.com/gnoswap-labs/gotoconv/lower"
)

var watchCmd = &cobra.Command{
	Use:   "watch [dirs...]",
	Short: "Convert Go files again whenever they change",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, err := lower.New(".", cfgFile, logger)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		w := cmd.OutOrStdout()
		return lower.Watch(ctx, logger, engine, args, func(res *lower.Result) {
			logger.Info("converted", zap.String("file", res.File), zap.Int("functions", len(res.Functions)))
			fmt.Fprintf(w, "%s: %d functions lowered\n", res.File, len(res.Functions))
			if len(res.Issues) > 0 {
				src, _ := printer.ReadSource(res.File)
				fmt.Fprint(w, printer.FormatIssues(res.Issues, src))
			}
		})
	},
}
