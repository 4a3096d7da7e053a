// Command userdesk manages users on the backend from a terminal.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"userdesk/cmd/userdesk/shell"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := shell.New().Run(ctx, os.Args[1:])
	stop()
	os.Exit(code)
}
