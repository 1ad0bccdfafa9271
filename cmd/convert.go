package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gnoswap-labs/gotoconv/internal/printer"
	"github.com/gnoswap-labs/gotoconv/lower"
)

const (
	formatText = "text"
	formatJSON = "json"
	formatYAML = "yaml"
)

// convert command flags
var (
	format      string
	functions   []string
	ignoreRules string
	outPath     string
)

var convertCmd = &cobra.Command{
	Use:   "convert [paths...]",
	Short: "Lower the functions of Go files and print the GOTO programs",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runConvert,
}

func init() {
	convertCmd.Flags().StringVarP(&format, "format", "f", formatText, "Output format: text, json or yaml")
	convertCmd.Flags().StringSliceVar(&functions, "func", nil, "Only convert these functions")
	convertCmd.Flags().StringVar(&ignoreRules, "ignore", "", "Comma-separated list of rules whose warnings are dropped")
	convertCmd.Flags().StringVarP(&outPath, "output", "o", "", "Output path (default stdout)")
}

func runConvert(cmd *cobra.Command, args []string) error {
	switch format {
	case formatText, formatJSON, formatYAML:
	default:
		return fmt.Errorf("unknown format %q", format)
	}

	results, err := process(cmd, args)
	if err != nil {
		return err
	}

	w, closeOut, err := openOutput(cmd, outPath)
	if err != nil {
		return err
	}
	defer closeOut()

	if err := writeResults(w, results, format); err != nil {
		return err
	}
	for _, res := range results {
		if res.HasErrors() {
			return ErrIssues
		}
	}
	return nil
}

// process converts paths with an engine configured from the flags.
func process(cmd *cobra.Command, paths []string) ([]*lower.Result, error) {
	return processWith(cmd, paths, lower.Convert)
}

func processWith(cmd *cobra.Command, paths []string, processor lower.Processor) ([]*lower.Result, error) {
	engine, err := lower.New(".", cfgFile, logger)
	if err != nil {
		logger.Error("Failed to initialize engine", zap.Error(err))
		return nil, err
	}
	if len(functions) > 0 {
		engine.SelectFunctions(functions...)
	}
	for _, rule := range strings.Split(ignoreRules, ",") {
		if rule = strings.TrimSpace(rule); rule != "" {
			engine.IgnoreRule(rule)
		}
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	results, err := lower.ProcessFiles(ctx, logger, engine, paths, processor)
	if err != nil {
		logger.Error("Error processing files", zap.Error(err))
		return nil, err
	}
	return results, nil
}

func openOutput(cmd *cobra.Command, path string) (io.Writer, func(), error) {
	if path == "" {
		return cmd.OutOrStdout(), func() {}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("error creating output file: %w", err)
	}
	return f, func() { _ = f.Close() }, nil
}

func writeResults(w io.Writer, results []*lower.Result, format string) error {
	switch format {
	case formatJSON, formatYAML:
		docs := make([]printer.Document, 0, len(results))
		for _, res := range results {
			docs = append(docs, printer.Build(res.File, res.Functions, res.Issues))
		}
		if format == formatJSON {
			return printer.WriteJSON(w, docs)
		}
		return printer.WriteYAML(w, docs)
	}

	for _, res := range results {
		for _, fn := range res.Functions {
			if err := printer.Text(w, fn); err != nil {
				return err
			}
			fmt.Fprintln(w)
		}
		if len(res.Issues) == 0 {
			continue
		}
		src, err := printer.ReadSource(res.File)
		if err != nil {
			logger.Warn("Error reading source file", zap.String("file", res.File), zap.Error(err))
		}
		fmt.Fprint(w, printer.FormatIssues(res.Issues, src))
	}
	return nil
}
