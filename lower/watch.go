package lower

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/gnoswap-labs/gotoconv/scanner"
)

// settle is how long a file must stay quiet before it is converted again.
const settle = 100 * time.Millisecond

// Watch converts Go files below dirs whenever they are written and hands
// each result to report. It blocks until ctx is done.
func Watch(
	ctx context.Context,
	logger *zap.Logger,
	engine ConvertEngine,
	dirs []string,
	report func(*Result),
) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("error creating watcher: %w", err)
	}
	defer w.Close()

	for _, dir := range dirs {
		if err := addTree(w, dir); err != nil {
			return fmt.Errorf("error adding directory to watcher: %w", err)
		}
	}

	match := scanner.New("", ".go")
	pending := make(map[string]time.Time)
	tick := time.NewTicker(settle / 2)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) != 0 && match.Match(ev.Name) {
				pending[ev.Name] = time.Now()
			}

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watcher error", zap.Error(err))

		case now := <-tick.C:
			for name, at := range pending {
				if now.Sub(at) < settle {
					continue
				}
				delete(pending, name)
				res, err := engine.Run(name)
				if err != nil {
					logger.Error("Error processing file", zap.String("file", name), zap.Error(err))
					res = &Result{File: name, Issues: failureIssues(name, err)}
				}
				report(res)
			}
		}
	}
}

func addTree(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.Add(path)
		}
		return nil
	})
}
