package main

import (
	"context"
	"fmt"
	"os"
)

// Execute runs the CLI with the process environment and exits non-zero on
// any failure.
func Execute() {
	cmd := newRootCmd(defaultEnvironment())
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, "Error:", err)
		exitFunc(1)
	}
}
