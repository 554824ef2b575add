//go:build !windows

// Package expect provides terminal session testing utilities using go-expect.
//
// It builds the rselect binary once and runs it attached to a pseudo-terminal
// so the prompt can be driven with real key sequences.
package expect

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"sync"
	"syscall"
	"testing"
	"time"

	expect "github.com/Netflix/go-expect"
)

// Key constants for special keys (ANSI escape sequences)
const (
	KeyUp     = "\x1b[A"
	KeyDown   = "\x1b[B"
	KeyEnter  = "\r"
	KeyCtrlC  = "\x03"
	KeyCtrlN  = "\x0e"
	KeyCtrlP  = "\x10"
	KeyEscape = "\x1b"
)

var (
	buildOnce sync.Once
	binPath   string
	errBuild  error
)

// Binary returns the path of a freshly built rselect binary. The build runs
// once per test process; the test is skipped in short mode or when the go
// tool is unavailable.
func Binary(t *testing.T) string {
	t.Helper()
	SkipIfShort(t, "builds and runs the rselect binary")

	goTool, err := exec.LookPath("go")
	if err != nil {
		t.Skip("go toolchain not available, skipping")
	}

	buildOnce.Do(func() {
		root, err := moduleRoot()
		if err != nil {
			errBuild = err
			return
		}
		dir, err := os.MkdirTemp("", "rselect-expect-")
		if err != nil {
			errBuild = err
			return
		}
		binPath = filepath.Join(dir, "rselect")
		cmd := exec.Command(goTool, "build", "-o", binPath, "./cmd/rselect") //nolint:gosec // G204: fixed arguments
		cmd.Dir = root
		if out, err := cmd.CombinedOutput(); err != nil {
			errBuild = fmt.Errorf("go build: %w\n%s", err, out)
		}
	})
	if errBuild != nil {
		t.Fatalf("failed to build rselect: %v", errBuild)
	}
	return binPath
}

// moduleRoot walks up from the working directory to the go.mod.
func moduleRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for range 8 {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		dir = filepath.Dir(dir)
	}
	return "", errors.New("go.mod not found")
}

// Session is one rselect process attached to a pseudo-terminal. The
// terminal is the process's controlling tty, so the prompt draws on it,
// while stdout is captured separately.
type Session struct {
	Console *expect.Console
	Timeout time.Duration

	cmd    *exec.Cmd
	stdout bytes.Buffer
	done   chan struct{}
	err    error
}

// SessionOption configures a Session.
type SessionOption func(*sessionConfig)

type sessionConfig struct {
	timeout    time.Duration
	env        []string
	showOutput bool
	stdin      []byte
}

// WithTimeout sets the default timeout for expect operations.
func WithTimeout(d time.Duration) SessionOption {
	return func(c *sessionConfig) {
		c.timeout = d
	}
}

// WithEnv adds environment variables to the session.
func WithEnv(env ...string) SessionOption {
	return func(c *sessionConfig) {
		c.env = append(c.env, env...)
	}
}

// WithOutput mirrors the terminal output to stdout for debugging.
func WithOutput(show bool) SessionOption {
	return func(c *sessionConfig) {
		c.showOutput = show
	}
}

// WithStdin pipes data to the process's stdin instead of the terminal.
func WithStdin(data []byte) SessionOption {
	return func(c *sessionConfig) {
		c.stdin = data
	}
}

// NewSession starts bin with args on a new pseudo-terminal.
func NewSession(bin string, args []string, opts ...SessionOption) (*Session, error) {
	cfg := &sessionConfig{
		timeout: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	var consoleOpts []expect.ConsoleOpt
	consoleOpts = append(consoleOpts, expect.WithDefaultTimeout(cfg.timeout))
	if cfg.showOutput {
		consoleOpts = append(consoleOpts, expect.WithStdout(os.Stdout))
	}

	console, err := expect.NewConsole(consoleOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create console: %w", err)
	}

	s := &Session{
		Console: console,
		Timeout: cfg.timeout,
		done:    make(chan struct{}),
	}

	cmd := exec.Command(bin, args...) //nolint:gosec // G204: binary built by the test
	cmd.Stdin = console.Tty()
	if cfg.stdin != nil {
		cmd.Stdin = bytes.NewReader(cfg.stdin)
	}
	cmd.Stdout = &s.stdout
	cmd.Stderr = console.Tty()

	// Make the pty the controlling terminal so /dev/tty resolves to it.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true, Setctty: true}
	if cfg.stdin != nil {
		cmd.SysProcAttr.Ctty = 2 // stderr is the pty
	}

	cmd.Env = append(os.Environ(), cfg.env...)
	// Ensure TERM is set and no user config leaks into the session
	cmd.Env = append(cmd.Env,
		"TERM=xterm-256color",
		"XDG_CONFIG_HOME="+filepath.Join(os.TempDir(), "rselect-expect-none"),
	)

	if err := cmd.Start(); err != nil {
		console.Close()
		return nil, fmt.Errorf("failed to start rselect: %w", err)
	}
	s.cmd = cmd

	go func() {
		s.err = cmd.Wait()
		close(s.done)
	}()

	return s, nil
}

// Send sends text to the terminal without a newline.
func (s *Session) Send(text string) error {
	_, err := s.Console.Send(text)
	return err
}

// SendKey sends a special key (use Key* constants).
func (s *Session) SendKey(key string) error {
	_, err := s.Console.Send(key)
	return err
}

// Expect waits for an exact string match in the terminal output.
func (s *Session) Expect(str string) (string, error) {
	return s.Console.ExpectString(str)
}

// ExpectTimeout waits for an exact string match with a specific timeout.
func (s *Session) ExpectTimeout(str string, timeout time.Duration) (string, error) {
	return s.Console.Expect(expect.String(str), expect.WithTimeout(timeout))
}

// ExpectRegex waits for a regex pattern match in the terminal output.
func (s *Session) ExpectRegex(pattern string) (string, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return "", fmt.Errorf("invalid regex: %w", err)
	}
	return s.Console.Expect(expect.Regexp(re))
}

// Wait waits for the process to exit and returns its exit code.
func (s *Session) Wait(timeout time.Duration) (int, error) {
	select {
	case <-s.done:
	case <-time.After(timeout):
		return -1, fmt.Errorf("rselect did not exit within %s", timeout)
	}

	var exitErr *exec.ExitError
	switch {
	case s.err == nil:
		return 0, nil
	case errors.As(s.err, &exitErr):
		return exitErr.ExitCode(), nil
	default:
		return -1, s.err
	}
}

// Stdout returns what the process wrote to stdout. Call it after Wait.
func (s *Session) Stdout() string {
	return s.stdout.String()
}

// Close kills the process if it is still running and closes the terminal.
func (s *Session) Close() error {
	select {
	case <-s.done:
	default:
		if s.cmd.Process != nil {
			_ = s.cmd.Process.Kill()
		}
		<-s.done
	}
	return s.Console.Close()
}

// SkipIfShort skips the test if running in short mode.
func SkipIfShort(t testing.TB, reason string) {
	if testing.Short() {
		t.Skip("skipping in short mode: " + reason)
	}
}
