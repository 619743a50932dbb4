package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dazzyddos/OSINT-AI-Agent/internal/cli"
	"github.com/dazzyddos/OSINT-AI-Agent/internal/runner"
	"github.com/dazzyddos/OSINT-AI-Agent/internal/sandbox"
)

func main() {
	// Clean up sandboxed child processes on interrupt. The checkpoint store,
	// if enabled, already holds the latest completed phase.
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigChan
		fmt.Fprintf(os.Stderr, "\n[!] Investigation interrupted, cleaning up...\n")
		sandbox.KillAllProcesses()
		os.Exit(130) // Standard exit code for SIGINT
	}()

	if err := cli.Execute(); err != nil {
		sandbox.KillAllProcesses()
		if errors.Is(err, runner.ErrReportFailed) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(2)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
