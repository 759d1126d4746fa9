// Command orchestrate is the host CLI around the orchestrator core: it is
// the one place that reads environment variables and flags and injects them
// into a policy.Config, per §6's "the core does not read environment
// variables" guarantee. Grounded on the teacher's cmd/semspec/main.go
// pattern: cobra root command, slog for startup diagnostics,
// signal.NotifyContext for graceful interrupt handling.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "orchestrate: %v\n", err)
		os.Exit(1)
	}
}
