package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gnoswap-labs/gotoconv/internal/printer"
	"github.com/gnoswap-labs/gotoconv/lower"
)

var dotFunc string

var dotCmd = &cobra.Command{
	Use:   "dot [file]",
	Short: "Print the GOTO program of a function as a GraphViz graph",
	Long: `Lowers one function and prints its GOTO program in DOT format.
Example) gotoconv dot --func MyFunction main.go | dot -Tsvg > f.svg`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, err := lower.New(".", cfgFile, logger)
		if err != nil {
			return err
		}
		engine.SelectFunctions(dotFunc)

		res, err := engine.Run(args[0])
		if err != nil {
			return err
		}
		fn, ok := res.Function(dotFunc)
		if !ok {
			if res.HasErrors() {
				fmt.Fprint(cmd.ErrOrStderr(), printer.FormatIssues(res.Issues, nil))
				return ErrIssues
			}
			return fmt.Errorf("function not found: %s", dotFunc)
		}

		w, closeOut, err := openOutput(cmd, outPath)
		if err != nil {
			return err
		}
		defer closeOut()
		return printer.DOT(w, fn)
	},
}

func init() {
	dotCmd.Flags().StringVar(&dotFunc, "func", "", "Function to render")
	dotCmd.Flags().StringVarP(&outPath, "output", "o", "", "Output path (default stdout)")
	_ = dotCmd.MarkFlagRequired("func")
}
