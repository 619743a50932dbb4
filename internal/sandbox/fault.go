package sandbox

import "fmt"

// FaultKind classifies how a sandboxed execution went wrong.
type FaultKind string

const (
	// FaultTimeout: the wall-clock limit expired and the process was killed.
	FaultTimeout FaultKind = "timeout"
	// FaultNonZeroExit: the tool ran to completion but reported failure.
	FaultNonZeroExit FaultKind = "nonzero_exit"
	// FaultEnvironment: the sandbox itself is broken (runtime unreachable,
	// image missing or binary not found).
	FaultEnvironment FaultKind = "environment"
)

// Fault is a classified execution failure. Tool-level faults are recoverable:
// the phase that hit one records it and completes with partial data.
type Fault struct {
	Kind     FaultKind
	Tool     string
	ExitCode int
	Stderr   string
	Err      error
}

func (f *Fault) Error() string {
	switch f.Kind {
	case FaultTimeout:
		return fmt.Sprintf("%s: timed out", f.Tool)
	case FaultNonZeroExit:
		return fmt.Sprintf("%s: exit code %d", f.Tool, f.ExitCode)
	default:
		if f.Err != nil {
			return fmt.Sprintf("%s: sandbox environment fault: %v", f.Tool, f.Err)
		}
		return fmt.Sprintf("%s: sandbox environment fault", f.Tool)
	}
}

func (f *Fault) Unwrap() error { return f.Err }

// AsFault extracts a *Fault from err, or nil.
func AsFault(err error) *Fault {
	if f, ok := err.(*Fault); ok {
		return f
	}
	return nil
}
