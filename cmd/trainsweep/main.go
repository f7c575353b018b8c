package main

import (
	"context"
	"errors"
	"fmt"
	"os"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		// Ctrl-C during a run already stopped the child; no need to repeat it.
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintf(os.Stderr, "trainsweep: %v\n", err)
		}
		os.Exit(1)
	}
}
