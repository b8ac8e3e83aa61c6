package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := newRootCommand()
	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, exitMessage(err))
		stop()
		os.Exit(1)
	}
}

// exitMessage is the single diagnostic line printed before a non-zero exit.
func exitMessage(err error) string {
	if errors.Is(err, context.Canceled) {
		return "error: cancelled"
	}
	return fmt.Sprintf("error: %v", err)
}
