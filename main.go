// Package main is the entry point for the devbox CLI application.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"

	"github.com/wellmaintained/devbox/cmd"
)

var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	go func() {
		// a second interrupt kills the process
		<-ctx.Done()
		stop()
	}()

	cmd.SetVersion(version)
	if err := cmd.ExecuteContext(ctx); err != nil {
		log.Fatal(err)
	}
}
