package sandbox

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubRuntime writes a shell script standing in for the docker binary and
// returns its path. The script sees the exact argv the executor built.
func stubRuntime(t *testing.T, script string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "docker")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+script), 0755))
	return path
}

func newTestExecutor(t *testing.T, script string, timeout time.Duration) *Executor {
	e := New("osint-tools:test", timeout)
	e.DockerBin = stubRuntime(t, script)
	return e
}

func TestExecutePassesHostileArgumentLiterally(t *testing.T) {
	// The stub prints each argv entry on its own line. If any layer had
	// concatenated arguments into a shell string, the injected sub-command
	// would have executed and "pwned" would appear as its own output.
	e := newTestExecutor(t, `for a in "$@"; do printf '%s\n' "$a"; done`, 10*time.Second)

	res, err := e.Execute(context.Background(), "subfinder", "-d", "example.com; echo pwned")
	require.NoError(t, err)

	lines := Lines(res.Stdout)
	assert.Contains(t, lines, "example.com; echo pwned", "hostile value must survive as a single literal argument")
	assert.NotContains(t, lines, "pwned", "injected sub-command must never execute")
}

func TestExecuteBuildsIsolatedInvocation(t *testing.T) {
	e := newTestExecutor(t, `for a in "$@"; do printf '%s\n' "$a"; done`, 10*time.Second)

	res, err := e.Execute(context.Background(), "whatweb", "https://example.com")
	require.NoError(t, err)

	lines := Lines(res.Stdout)
	assert.Contains(t, lines, "run")
	assert.Contains(t, lines, "--rm")
	assert.Contains(t, lines, "--memory")
	assert.Contains(t, lines, "--read-only")
	assert.Contains(t, lines, "osint-tools:test")
	assert.Contains(t, lines, "whatweb")
}

func TestExecuteTimeoutReturnsTimeoutFault(t *testing.T) {
	e := newTestExecutor(t, `sleep 10`, 200*time.Millisecond)

	start := time.Now()
	_, err := e.Execute(context.Background(), "subfinder", "-d", "example.com")
	elapsed := time.Since(start)

	require.Error(t, err)
	f := AsFault(err)
	require.NotNil(t, f)
	assert.Equal(t, FaultTimeout, f.Kind)
	assert.Less(t, elapsed, 3*time.Second, "timeout must fire near the configured limit, not hang")
}

func TestExecuteCancelledRunIsEnvironmentFault(t *testing.T) {
	// An operator abort kills the child with a nonzero status; that must not
	// be classified as the tool reporting failure.
	e := newTestExecutor(t, `sleep 10`, 30*time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(100 * time.Millisecond)
		cancel()
	}()

	_, err := e.Execute(ctx, "subfinder", "-d", "example.com")
	require.Error(t, err)

	f := AsFault(err)
	require.NotNil(t, f)
	assert.Equal(t, FaultEnvironment, f.Kind)
	assert.ErrorIs(t, f.Err, context.Canceled)
}

func TestExecuteNonZeroExitFault(t *testing.T) {
	e := newTestExecutor(t, `echo "resolver failure" >&2; exit 3`, 10*time.Second)

	_, err := e.Execute(context.Background(), "subfinder", "-d", "example.com")
	require.Error(t, err)

	f := AsFault(err)
	require.NotNil(t, f)
	assert.Equal(t, FaultNonZeroExit, f.Kind)
	assert.Equal(t, 3, f.ExitCode)
	assert.Contains(t, f.Stderr, "resolver failure")
}

func TestExecuteClassifiesRuntimeFailuresAsEnvironment(t *testing.T) {
	tests := []struct {
		name   string
		script string
	}{
		{"docker reserved exit code", `exit 125`},
		{"missing image on stderr", `echo "Unable to find image 'osint-tools:test' locally" >&2; exit 1`},
		{"daemon unreachable on stderr", `echo "Cannot connect to the Docker daemon" >&2; exit 1`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestExecutor(t, tt.script, 10*time.Second)
			_, err := e.Execute(context.Background(), "subfinder", "-d", "example.com")
			require.Error(t, err)
			f := AsFault(err)
			require.NotNil(t, f)
			assert.Equal(t, FaultEnvironment, f.Kind)
		})
	}
}

func TestExecuteMissingRuntimeBinaryIsEnvironmentFault(t *testing.T) {
	e := New("osint-tools:test", 10*time.Second)
	e.DockerBin = filepath.Join(t.TempDir(), "no-such-binary")

	_, err := e.Execute(context.Background(), "subfinder", "-d", "example.com")
	require.Error(t, err)
	f := AsFault(err)
	require.NotNil(t, f)
	assert.Equal(t, FaultEnvironment, f.Kind)
}

func TestExecuteInputPipesStdin(t *testing.T) {
	e := newTestExecutor(t, `cat`, 10*time.Second)

	res, err := e.ExecuteInput(context.Background(), "a.example.com\nb.example.com", "httpx", "-silent")
	require.NoError(t, err)
	assert.Equal(t, []string{"a.example.com", "b.example.com"}, Lines(res.Stdout))
}

func TestCheckRuntime(t *testing.T) {
	t.Run("image present", func(t *testing.T) {
		e := newTestExecutor(t, `exit 0`, 10*time.Second)
		assert.NoError(t, e.CheckRuntime(context.Background()))
	})

	t.Run("image missing", func(t *testing.T) {
		e := newTestExecutor(t, `echo "No such image" >&2; exit 1`, 10*time.Second)
		err := e.CheckRuntime(context.Background())
		require.Error(t, err)
		f := AsFault(err)
		require.NotNil(t, f)
		assert.Equal(t, FaultEnvironment, f.Kind)
	})
}

func TestBoundedBufferStopsAtLimit(t *testing.T) {
	b := &boundedBuffer{limit: 8}

	n, err := b.Write([]byte("0123456789"))
	require.NoError(t, err)
	assert.Equal(t, 10, n, "writer must ack the full write to keep the pipe healthy")
	assert.Equal(t, "01234567", b.String())

	b.Write([]byte("more"))
	assert.Equal(t, "01234567", b.String())
}

func TestLines(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, Lines(" a \n\n\tb\n"))
	assert.Nil(t, Lines("\n \n"))
}
