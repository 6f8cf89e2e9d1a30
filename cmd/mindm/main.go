// Command mindm reads and creates mind maps from the command line, an
// interactive shell, an MCP server or a local preview server.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"mindm/internal/actions"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	a := newApp(os.Stdin, os.Stdout, os.Stderr)
	a.interactive = actions.IsTerminal(os.Stdin)
	code := execute(ctx, a, os.Args[1:])

	stop()
	os.Exit(code)
}
