// Command econt queries the Econt nomenclatures and manages the local cache.
//
// Settings come from flags, ECONT_* environment variables (ECONT_CACHE_TTL
// for --cache-ttl) or a config file passed with --config. Results are
// printed as JSON.
//
// An interrupt cancels the running command. An export interrupted this way
// is recorded as incomplete.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
