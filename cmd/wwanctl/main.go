// Command wwanctl lists cellular modems and the kernel interfaces they are
// bound to, and connects or disconnects them.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	a := newApp(openBackends)
	err := a.command().ExecuteContext(ctx)
	if cerr := a.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "wwanctl: %v\n", err)
		cancel()
		os.Exit(1)
	}
}
