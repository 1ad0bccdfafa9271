// Package lower drives the conversion of Go source files into GOTO programs:
// it loads the configuration, finds the files under a path and converts
// them concurrently.
package lower

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"sync"

	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"

	"github.com/gnoswap-labs/gotoconv/internal/config"
	"github.com/gnoswap-labs/gotoconv/internal/diag"
	"github.com/gnoswap-labs/gotoconv/scanner"
)

// ConvertEngine is what the processing functions need from an engine.
type ConvertEngine interface {
	Run(filename string) (*Result, error)
	RunSource(filename string, src []byte) (*Result, error)
	Vet(filename string) (*Result, error)
	IgnoreRule(rule string)
}

// sequencer is implemented by engines whose output depends on the order in
// which files are converted.
type sequencer interface {
	Sequential() bool
}

// Processor converts one file with an engine.
type Processor func(ConvertEngine, string) (*Result, error)

// Convert is the default processor.
func Convert(engine ConvertEngine, path string) (*Result, error) {
	return engine.Run(path)
}

// Vet only reports issues.
func Vet(engine ConvertEngine, path string) (*Result, error) {
	return engine.Vet(path)
}

// New creates an engine from the configuration file at configPath. An empty
// path, or a path that does not exist, yields the default configuration.
func New(rootDir, configPath string, logger *zap.Logger) (*Engine, error) {
	file, err := loadConfig(configPath)
	if err != nil {
		return nil, err
	}
	return NewEngine(rootDir, file, logger), nil
}

func loadConfig(path string) (config.File, error) {
	if path == "" {
		return config.Default(), nil
	}
	file, err := config.Load(path)
	if os.IsNotExist(err) {
		return config.Default(), nil
	}
	if err != nil {
		return config.File{}, fmt.Errorf("error reading configuration: %w", err)
	}
	return file, nil
}

// ProcessSources converts in-memory sources. names[i] is the file name
// reported for sources[i].
func ProcessSources(
	ctx context.Context,
	logger *zap.Logger,
	engine ConvertEngine,
	names []string,
	sources [][]byte,
) ([]*Result, error) {
	if len(names) != len(sources) {
		return nil, fmt.Errorf("%d names for %d sources", len(names), len(sources))
	}
	var results []*Result
	for i, src := range sources {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		res, err := engine.RunSource(names[i], src)
		if err != nil {
			if logger != nil {
				logger.Error("Error processing source", zap.String("source", names[i]), zap.Error(err))
			}
			return nil, err
		}
		results = append(results, res)
	}
	return results, nil
}

// ProcessFiles converts every path in turn. On cancellation the results
// gathered so far are returned with the context error.
func ProcessFiles(
	ctx context.Context,
	logger *zap.Logger,
	engine ConvertEngine,
	paths []string,
	processor Processor,
) ([]*Result, error) {
	var all []*Result
	for _, path := range paths {
		results, err := ProcessPath(ctx, logger, engine, path, processor)
		all = append(all, results...)
		if err != nil {
			if logger != nil {
				logger.Error("Error processing path", zap.String("path", path), zap.Error(err))
			}
			return all, err
		}
	}
	return all, nil
}

// ProcessPath converts path, or every Go file below it when it is a
// directory. Files that fail to parse are reported as error issues and do
// not stop the walk. Engines that need a fixed order get their files one at
// a time, in scan order.
func ProcessPath(
	ctx context.Context,
	logger *zap.Logger,
	engine ConvertEngine,
	path string,
	processor Processor,
) ([]*Result, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("error accessing %s: %w", path, err)
	}

	if !info.IsDir() {
		res, err := processor(engine, path)
		if err != nil {
			logger.Error("Error processing file", zap.String("file", path), zap.Error(err))
			return nil, err
		}
		return []*Result{res}, nil
	}

	files, err := scanner.New(path, ".go").Scan()
	if err != nil {
		return nil, fmt.Errorf("error scanning %s: %w", path, err)
	}

	workers := runtime.NumCPU()
	if s, ok := engine.(sequencer); ok && s.Sequential() {
		workers = 1
	}

	results := make([]*Result, len(files))
	sem := make(chan struct{}, workers)
	bar := newBar(path, len(files))

	var (
		wg        sync.WaitGroup
		cancelled error
	)

dispatch:
	for i, f := range files {
		if cancelled = ctx.Err(); cancelled != nil {
			break
		}
		select {
		case <-ctx.Done():
			cancelled = ctx.Err()
			break dispatch
		case sem <- struct{}{}:
		}

		wg.Add(1)
		go func(i int, filePath string) {
			defer wg.Done()
			defer func() { <-sem }()

			res, err := processor(engine, filePath)
			if err != nil {
				logger.Error("Error processing file", zap.String("file", filePath), zap.Error(err))
				res = &Result{File: filePath, Issues: failureIssues(filePath, err)}
			}
			results[i] = res
			_ = bar.Add(1)
		}(i, f.Path)
	}
	wg.Wait()
	_ = bar.Finish()

	out := make([]*Result, 0, len(results))
	for _, res := range results {
		if res != nil {
			out = append(out, res)
		}
	}
	return out, cancelled
}

func failureIssues(filename string, err error) []diag.Issue {
	return []diag.Issue{{
		Rule:     RuleConversion,
		Category: "conversion",
		Severity: diag.SeverityError,
		Filename: filename,
		Message:  err.Error(),
	}}
}

func newBar(description string, n int) *progressbar.ProgressBar {
	return progressbar.NewOptions(n,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetDescription(description),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}))
}
