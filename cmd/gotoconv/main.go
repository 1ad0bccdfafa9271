package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/tebeka/atexit"

	"github.com/gnoswap-labs/gotoconv/cmd"
)

func main() {
	atexit.Register(func() {
		_ = cmd.Logger().Sync()
	})
	atexit.Exit(run())
}

func run() int {
	if err := cmd.Execute(); err != nil {
		if !errors.Is(err, cmd.ErrIssues) {
			fmt.Fprintln(os.Stderr, "error:", err)
		}
		return 1
	}
	return 0
}
