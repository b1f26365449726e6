// Package invoke runs backend command-line tools.
//
// Arguments are always handed to exec as discrete tokens; nothing is ever
// passed through a shell.
package invoke

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/masmgr/vcsview-go/internal/vcs"
)

// DefaultTimeout bounds a single invocation when Runner.Timeout is zero.
const DefaultTimeout = 60 * time.Second

const waitDelay = 2 * time.Second

// Runner executes one backend binary with a fixed argument prefix.
type Runner struct {
	Binary string
	// Prefix is prepended to every invocation, e.g. {"-C", root}.
	Prefix []string
	// Env is appended to the inherited environment.
	Env     []string
	Timeout time.Duration
	// FatalMarker makes a command fail when its first output line starts with it.
	FatalMarker string
	Logger      *slog.Logger
}

func (r *Runner) timeout() time.Duration {
	if r.Timeout <= 0 {
		return DefaultTimeout
	}
	return r.Timeout
}

func (r *Runner) logger() *slog.Logger {
	if r.Logger == nil {
		return slog.Default()
	}
	return r.Logger
}

func (r *Runner) command(ctx context.Context, args []string) *exec.Cmd {
	full := make([]string, 0, len(r.Prefix)+len(args))
	full = append(full, r.Prefix...)
	full = append(full, args...)
	cmd := exec.CommandContext(ctx, r.Binary, full...)
	// Children that inherit the pipes must not hold Wait open after a kill.
	cmd.WaitDelay = waitDelay
	if len(r.Env) > 0 {
		cmd.Env = append(os.Environ(), r.Env...)
	}
	return cmd
}

func (r *Runner) isFatal(line string) bool {
	return r.FatalMarker != "" && strings.HasPrefix(line, r.FatalMarker)
}

// Run executes args and returns standard output split into lines.
func (r *Runner) Run(ctx context.Context, args ...string) ([]string, error) {
	out, _, err := r.run(ctx, args, false)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Probe executes args and reports exit status 0 as true and exit status 1
// without error output as false. Anything else is an error.
func (r *Runner) Probe(ctx context.Context, args ...string) (bool, error) {
	_, code, err := r.run(ctx, args, true)
	if err != nil {
		return false, err
	}
	return code == 0, nil
}

func (r *Runner) run(ctx context.Context, args []string, allowExit1 bool) ([]string, int, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout())
	defer cancel()

	cmd := r.command(ctx, args)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	r.logger().Debug("backend command",
		slog.String("cmd", r.Binary),
		slog.Any("args", args),
		slog.Duration("duration", time.Since(start)))

	if err != nil {
		if terr := r.timeoutError(ctx, args); terr != nil {
			return nil, -1, terr
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			code := exitErr.ExitCode()
			if allowExit1 && code == 1 && stderr.Len() == 0 {
				return nil, 1, nil
			}
			return nil, code, r.invocationError(args, code, stderr.String()+stdout.String())
		}
		return nil, -1, r.invocationError(args, -1, err.Error())
	}

	lines := splitLines(stdout.String())
	if len(lines) > 0 && r.isFatal(lines[0]) {
		return nil, 0, r.invocationError(args, 0, stdout.String())
	}
	return lines, 0, nil
}

// RunTo executes args and copies standard output to w unchanged.
func (r *Runner) RunTo(ctx context.Context, w io.Writer, args ...string) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout())
	defer cancel()

	cmd := r.command(ctx, args)
	var stderr bytes.Buffer
	cmd.Stdout = w
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	r.logger().Debug("backend command",
		slog.String("cmd", r.Binary),
		slog.Any("args", args),
		slog.Duration("duration", time.Since(start)))
	if err == nil {
		return nil
	}
	if terr := r.timeoutError(ctx, args); terr != nil {
		return terr
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return r.invocationError(args, exitErr.ExitCode(), stderr.String())
	}
	return r.invocationError(args, -1, err.Error())
}

func (r *Runner) timeoutError(ctx context.Context, args []string) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return &vcs.BackendTimeoutError{Command: r.Binary, Args: args, Timeout: r.timeout()}
	}
	if ctx.Err() != nil {
		return fmt.Errorf("%s %s: %w", r.Binary, strings.Join(args, " "), ctx.Err())
	}
	return nil
}

func (r *Runner) invocationError(args []string, code int, output string) error {
	return &vcs.BackendInvocationError{
		Command:  r.Binary,
		Args:     append([]string(nil), args...),
		ExitCode: code,
		Output:   strings.TrimSpace(output),
	}
}

func splitLines(s string) []string {
	s = strings.TrimSuffix(s, "\n")
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}

// LineReader yields lines without their trailing newline and io.EOF at the end.
type LineReader interface {
	Next() (string, error)
}

type sliceReader struct {
	lines []string
	i     int
}

// Lines returns a LineReader over canned lines.
func Lines(lines ...string) LineReader {
	return &sliceReader{lines: lines}
}

func (s *sliceReader) Next() (string, error) {
	if s.i >= len(s.lines) {
		return "", io.EOF
	}
	line := s.lines[s.i]
	s.i++
	return line, nil
}

type bufReader struct {
	r *bufio.Reader
}

// Reader returns a LineReader over r.
func Reader(r io.Reader) LineReader {
	return &bufReader{r: bufio.NewReader(r)}
}

func (b *bufReader) Next() (string, error) {
	return readLine(b.r)
}

func readLine(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	if err != nil {
		if err == io.EOF && line != "" {
			return line, nil
		}
		return "", err
	}
	return strings.TrimSuffix(line, "\n"), nil
}

// Stream is a running command whose output is consumed line by line.
// Close must be called on every path once the stream is no longer needed.
type Stream struct {
	runner *Runner
	args   []string
	ctx    context.Context
	cancel context.CancelFunc
	cmd    *exec.Cmd
	stdout io.ReadCloser
	stderr bytes.Buffer
	r      *bufio.Reader
	lineNo int
	start  time.Time

	waitOnce sync.Once
	waitErr  error
}

// Start launches args and returns a Stream over its standard output.
func (r *Runner) Start(ctx context.Context, args ...string) (*Stream, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout())
	cmd := r.command(ctx, args)
	s := &Stream{runner: r, args: args, ctx: ctx, cancel: cancel, cmd: cmd, start: time.Now()}
	cmd.Stderr = &s.stderr
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		return nil, fmt.Errorf("%s stdout: %w", r.Binary, err)
	}
	s.stdout = stdout
	s.r = bufio.NewReader(stdout)
	if err := cmd.Start(); err != nil {
		cancel()
		return nil, r.invocationError(args, -1, err.Error())
	}
	return s, nil
}

// Next returns the next output line. At the end of output it waits for the
// process and returns io.EOF on success or the invocation error otherwise.
func (s *Stream) Next() (string, error) {
	line, err := readLine(s.r)
	if err != nil {
		if err == io.EOF {
			if werr := s.wait(); werr != nil {
				return "", werr
			}
			return "", io.EOF
		}
		if terr := s.runner.timeoutError(s.ctx, s.args); terr != nil {
			return "", terr
		}
		return "", err
	}
	s.lineNo++
	if s.lineNo == 1 && s.runner.isFatal(line) {
		rest, _ := io.ReadAll(s.r)
		_ = s.Close()
		return "", s.runner.invocationError(s.args, 0, line+"\n"+string(rest))
	}
	return line, nil
}

// Close stops the process if it is still running and releases the pipe.
func (s *Stream) Close() error {
	s.cancel()
	_ = s.stdout.Close()
	err := s.wait()
	if err != nil && s.ctx.Err() != nil && !errors.Is(s.ctx.Err(), context.DeadlineExceeded) {
		// Killed by our own cancel.
		return nil
	}
	return err
}

func (s *Stream) wait() error {
	s.waitOnce.Do(func() {
		err := s.cmd.Wait()
		s.runner.logger().Debug("backend stream",
			slog.String("cmd", s.runner.Binary),
			slog.Any("args", s.args),
			slog.Duration("duration", time.Since(s.start)))
		if err == nil {
			return
		}
		if terr := s.runner.timeoutError(s.ctx, s.args); terr != nil {
			s.waitErr = terr
			return
		}
		code := -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			code = exitErr.ExitCode()
		}
		s.waitErr = s.runner.invocationError(s.args, code, s.stderr.String())
	})
	return s.waitErr
}
