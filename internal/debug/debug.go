// Package debug provides opt-in timing logs for sandboxed tool executions.
package debug

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
)

var (
	enabled bool
	mu      sync.Mutex
	entries []Entry
)

// Entry records one tool execution for the end-of-run summary.
type Entry struct {
	Tool     string
	Args     string
	Duration time.Duration
	Status   string
}

// Enable turns on debug logging for the rest of the run.
func Enable() {
	mu.Lock()
	enabled = true
	mu.Unlock()
}

// IsEnabled reports whether debug logging is active.
func IsEnabled() bool {
	mu.Lock()
	defer mu.Unlock()
	return enabled
}

// LogStart notes the start of a tool execution and returns its start time.
func LogStart(tool string, args []string) time.Time {
	start := time.Now()
	if !IsEnabled() {
		return start
	}
	gray := color.New(color.FgHiBlack)
	gray.Printf("    [DEBUG %s] START: %s %s\n", start.Format("15:04:05.000"), tool, strings.Join(args, " "))
	return start
}

// LogEnd notes the completion of a tool execution.
func LogEnd(tool string, args []string, start time.Time, err error, outputLines int) {
	if !IsEnabled() {
		return
	}
	duration := time.Since(start)

	status := "OK"
	statusColor := color.New(color.FgGreen)
	if err != nil {
		status = fmt.Sprintf("ERROR: %v", err)
		statusColor = color.New(color.FgRed)
	}

	gray := color.New(color.FgHiBlack)
	gray.Printf("    [DEBUG %s] END:   %s ", time.Now().Format("15:04:05.000"), tool)
	statusColor.Printf("%s", status)
	gray.Printf(" (duration: %s, output: %d lines)\n", duration.Round(time.Millisecond), outputLines)

	mu.Lock()
	entries = append(entries, Entry{
		Tool:     tool,
		Args:     strings.Join(args, " "),
		Duration: duration,
		Status:   status,
	})
	mu.Unlock()
}

// Summary prints total and per-tool timings collected during the run.
func Summary() {
	if !IsEnabled() {
		return
	}
	mu.Lock()
	defer mu.Unlock()
	if len(entries) == 0 {
		return
	}

	gray := color.New(color.FgHiBlack)
	var total time.Duration
	gray.Println("\n[DEBUG] Tool execution summary:")
	for _, e := range entries {
		total += e.Duration
		gray.Printf("    %-14s %10s  %s\n", e.Tool, e.Duration.Round(time.Millisecond), e.Status)
	}
	gray.Printf("    total tool time: %s over %d executions\n", total.Round(time.Millisecond), len(entries))
}
