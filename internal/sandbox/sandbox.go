// Package sandbox runs external reconnaissance tools inside an isolated,
// resource-limited container with an enforced wall-clock timeout. Arguments
// are always passed as an argv vector; nothing here ever builds a shell
// string, so a hostile target value cannot smuggle in a second command.
package sandbox

import (
	"context"
	"errors"
	"io"
	"os/exec"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/dazzyddos/OSINT-AI-Agent/internal/debug"
)

const (
	// maxOutputBytes caps captured stdout/stderr so a misbehaving tool
	// cannot grow memory without bound.
	maxOutputBytes = 10 << 20 // 10 MiB

	memLimit = "512m"
	cpuLimit = "0.5"
)

// Result is the outcome of a successful execution (exit code 0).
type Result struct {
	Stdout   string
	ExitCode int
	Duration time.Duration
}

// Executor runs commands inside Docker containers built from a fixed tools
// image. It keeps no state between invocations; independent commands may run
// concurrently.
type Executor struct {
	Image   string
	Timeout time.Duration

	// DockerBin is the container runtime binary. Overridable for tests.
	DockerBin string
}

// New creates an executor for the given tools image and per-execution timeout.
func New(image string, timeout time.Duration) *Executor {
	return &Executor{
		Image:     image,
		Timeout:   timeout,
		DockerBin: "docker",
	}
}

// processManager tracks running containers' client processes so an
// interrupted run can clean up its children.
var (
	runningProcesses = make(map[int]*exec.Cmd)
	processMu        sync.Mutex
)

func trackProcess(cmd *exec.Cmd) {
	if cmd.Process != nil {
		processMu.Lock()
		runningProcesses[cmd.Process.Pid] = cmd
		processMu.Unlock()
	}
}

func untrackProcess(cmd *exec.Cmd) {
	if cmd.Process != nil {
		processMu.Lock()
		delete(runningProcesses, cmd.Process.Pid)
		processMu.Unlock()
	}
}

// KillAllProcesses terminates every tracked child process group. Called from
// the signal handler in main.
func KillAllProcesses() {
	processMu.Lock()
	defer processMu.Unlock()

	for pid, cmd := range runningProcesses {
		if cmd.Process != nil {
			syscall.Kill(-pid, syscall.SIGKILL)
			cmd.Process.Kill()
		}
	}
	runningProcesses = make(map[int]*exec.Cmd)
}

// CheckRuntime verifies the container runtime is reachable and the tools
// image is present. A failure here is an unrecoverable setup fault, not a
// per-phase tool error.
func (e *Executor) CheckRuntime(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	cmd := exec.CommandContext(ctx, e.DockerBin, "image", "inspect", e.Image)
	var stderr strings.Builder
	cmd.Stdout = io.Discard
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return &Fault{
			Kind:   FaultEnvironment,
			Tool:   e.Image,
			Stderr: truncate(stderr.String(), 2048),
			Err:    err,
		}
	}
	return nil
}

// Execute runs one tool inside the sandbox and returns its stdout. The
// returned error, if any, is always a *Fault.
func (e *Executor) Execute(ctx context.Context, name string, args ...string) (*Result, error) {
	return e.run(ctx, nil, name, args...)
}

// ExecuteInput runs one tool with the given string piped to its stdin.
func (e *Executor) ExecuteInput(ctx context.Context, input, name string, args ...string) (*Result, error) {
	return e.run(ctx, strings.NewReader(input), name, args...)
}

func (e *Executor) run(ctx context.Context, stdin io.Reader, name string, args ...string) (*Result, error) {
	timeout := e.Timeout
	if timeout == 0 {
		timeout = 5 * time.Minute
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	// The container gets bounded memory and CPU, a throwaway root
	// filesystem with a writable /tmp scratch area, and is removed on exit.
	// The tool and its arguments land after the image name, each as its own
	// argv entry.
	dockerArgs := []string{
		"run", "--rm",
		"--network", "bridge",
		"--memory", memLimit,
		"--cpus", cpuLimit,
		"--read-only",
		"--tmpfs", "/tmp",
	}
	if stdin != nil {
		dockerArgs = append(dockerArgs, "-i")
	}
	dockerArgs = append(dockerArgs, e.Image, name)
	dockerArgs = append(dockerArgs, args...)

	start := debug.LogStart(name, args)

	cmd := exec.CommandContext(ctx, e.DockerBin, dockerArgs...)
	// New process group so a timeout or interrupt kills the docker client
	// and anything it spawned.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		if cmd.Process != nil {
			syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
		}
		return cmd.Process.Kill()
	}
	if stdin != nil {
		cmd.Stdin = stdin
	}

	stdout := &boundedBuffer{limit: maxOutputBytes}
	stderr := &boundedBuffer{limit: maxOutputBytes}
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	err := cmd.Start()
	if err == nil {
		trackProcess(cmd)
		err = cmd.Wait()
		untrackProcess(cmd)
	}
	duration := time.Since(start)
	debug.LogEnd(name, args, start, err, len(Lines(stdout.String())))

	if err == nil {
		return &Result{Stdout: stdout.String(), ExitCode: 0, Duration: duration}, nil
	}

	return nil, e.classify(name, err, ctx.Err(), stderr.String())
}

// classify maps a raw execution error onto the fault taxonomy.
func (e *Executor) classify(tool string, err, ctxErr error, stderr string) *Fault {
	if errors.Is(ctxErr, context.DeadlineExceeded) {
		return &Fault{Kind: FaultTimeout, Tool: tool, Err: context.DeadlineExceeded}
	}
	// A cancelled parent context means the run was aborted from outside;
	// the tool was killed, it did not report failure.
	if errors.Is(ctxErr, context.Canceled) {
		return &Fault{Kind: FaultEnvironment, Tool: tool, Err: context.Canceled}
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		code := exitErr.ExitCode()
		// Docker reserves 125 for daemon/CLI failures and 126/127 for an
		// unrunnable or missing tool binary; those are sandbox problems,
		// not the tool reporting failure.
		if code >= 125 || environmentStderr(stderr) {
			return &Fault{Kind: FaultEnvironment, Tool: tool, ExitCode: code, Stderr: truncate(stderr, 2048), Err: err}
		}
		return &Fault{Kind: FaultNonZeroExit, Tool: tool, ExitCode: code, Stderr: truncate(stderr, 2048), Err: err}
	}

	// Runtime binary missing, permission denied, etc.
	return &Fault{Kind: FaultEnvironment, Tool: tool, Stderr: truncate(stderr, 2048), Err: err}
}

func environmentStderr(stderr string) bool {
	s := strings.ToLower(stderr)
	return strings.Contains(s, "unable to find image") ||
		strings.Contains(s, "cannot connect to the docker daemon") ||
		strings.Contains(s, "permission denied while trying to connect")
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// Lines splits output into trimmed, non-empty lines.
func Lines(s string) []string {
	var out []string
	for _, l := range strings.Split(s, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			out = append(out, l)
		}
	}
	return out
}

// boundedBuffer captures at most limit bytes and silently drops the rest.
type boundedBuffer struct {
	buf   strings.Builder
	limit int
}

func (b *boundedBuffer) Write(p []byte) (int, error) {
	remaining := b.limit - b.buf.Len()
	if remaining > 0 {
		if len(p) > remaining {
			b.buf.Write(p[:remaining])
		} else {
			b.buf.Write(p)
		}
	}
	// Report full write so the child never sees a pipe error.
	return len(p), nil
}

func (b *boundedBuffer) String() string { return b.buf.String() }
