package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"tasklist/internal/api"
	"tasklist/internal/cli"
)

func main() {
	// Cancel on interrupt so watch and pending syncs stop cleanly
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := cli.NewRootCommand(api.Open)
	if err := root.Execute(ctx, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}
