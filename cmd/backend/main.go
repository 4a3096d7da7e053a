// Command backend serves the form-encoded user endpoints the userdesk client talks to.
package main

import (
	"context"
	"log"

	"userdesk/cmd/backend/app"
	"userdesk/cmd/backend/server"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("backend exited with error: %v", err)
	}
}

func run() error {
	a, err := app.New(context.Background())
	if err != nil {
		return err
	}

	ctx, stop := server.WithSignal(context.Background(), a.Logger)
	defer stop()

	return a.Run(ctx)
}
