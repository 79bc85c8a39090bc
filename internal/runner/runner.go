// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package runner executes external programs and captures their combined
// output line by line. It is the only place in conjoin that starts child
// processes; the converter and the container runtime go through it.
package runner

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Status classifies how an external command ended.
type Status int

const (
	// StatusOK means the process exited with code 0.
	StatusOK Status = iota
	// StatusFailed means the process ran and exited with a non-zero code.
	StatusFailed
	// StatusNotFound means the command could not be located or started.
	StatusNotFound
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusFailed:
		return "failed"
	case StatusNotFound:
		return "not found"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

var (
	// ErrNotFound is wrapped by Result.Err for StatusNotFound.
	ErrNotFound = errors.New("command not available")
	// ErrFailed is wrapped by Result.Err for StatusFailed.
	ErrFailed = errors.New("command failed")
)

// Command describes one invocation of an external program.
type Command struct {
	// Name is a full path or a program name looked up on PATH.
	Name string
	Args []string

	// Dir is the working directory of the child. Empty keeps the caller's.
	Dir string

	// ExtraPath is prepended to PATH for the child process only.
	ExtraPath string

	// OnLine, when set, receives every output line as soon as it is read.
	OnLine func(line string)
}

// Argv returns the command name followed by its arguments.
func (c Command) Argv() []string {
	argv := make([]string, 0, len(c.Args)+1)
	argv = append(argv, c.Name)
	return append(argv, c.Args...)
}

// Result is the outcome of Run.
type Result struct {
	Status Status

	// Output is the combined stdout/stderr text with lines joined by "\n".
	// For StatusNotFound it describes the command that could not be started.
	Output string
}

// OK reports whether the command exited with code 0.
func (r Result) OK() bool {
	return r.Status == StatusOK
}

// Err converts a non-OK result into an error wrapping ErrNotFound or ErrFailed.
func (r Result) Err() error {
	switch r.Status {
	case StatusOK:
		return nil
	case StatusNotFound:
		return fmt.Errorf("%w: %s", ErrNotFound, r.Output)
	default:
		return fmt.Errorf("%w: %s", ErrFailed, r.Output)
	}
}

// Runner starts external commands. The zero value is ready to use.
type Runner struct {
	// Environ returns the parent environment. Nil means os.Environ.
	Environ func() []string
}

// New returns a Runner bound to the process environment.
func New() *Runner {
	return &Runner{}
}

// Run executes cmd and blocks until it exits. Stdout and stderr share one
// pipe so lines keep their emission order. No timeout is applied.
func (r *Runner) Run(cmd Command) Result {
	env := r.environ()
	if cmd.ExtraPath != "" {
		env = withExtraPath(env, cmd.ExtraPath)
	}

	path, err := lookPath(cmd.Name, pathValue(env))
	if err != nil {
		return notFound(cmd)
	}

	c := exec.Command(path, cmd.Args...)
	c.Args[0] = cmd.Name
	c.Env = env
	c.Dir = cmd.Dir

	pr, pw, err := os.Pipe()
	if err != nil {
		return Result{Status: StatusFailed, Output: fmt.Sprintf("creating output pipe: %v", err)}
	}
	c.Stdout = pw
	c.Stderr = pw

	if err := c.Start(); err != nil {
		pw.Close()
		pr.Close()
		return notFound(cmd)
	}
	// The child holds its own copy of the write end; closing ours lets the
	// reader see EOF when the child exits.
	pw.Close()

	// ReadString has no line length limit, so long lines are never dropped.
	var lines []string
	rd := bufio.NewReader(pr)
	for {
		line, err := rd.ReadString('\n')
		if line != "" {
			line = strings.TrimRight(line, " \t\r\n")
			lines = append(lines, line)
			if cmd.OnLine != nil {
				cmd.OnLine(line)
			}
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				lines = append(lines, fmt.Sprintf("reading output: %v", err))
			}
			break
		}
	}
	pr.Close()

	out := strings.Join(lines, "\n")
	if err := c.Wait(); err != nil {
		return Result{Status: StatusFailed, Output: out}
	}
	return Result{Status: StatusOK, Output: out}
}

func (r *Runner) environ() []string {
	if r.Environ != nil {
		return append([]string(nil), r.Environ()...)
	}
	return os.Environ()
}

func notFound(cmd Command) Result {
	return Result{
		Status: StatusNotFound,
		Output: fmt.Sprintf("cannot run %q", cmd.Argv()),
	}
}

// withExtraPath returns env with extra prepended to PATH. env is modified
// in place; callers pass a copy.
func withExtraPath(env []string, extra string) []string {
	for i, kv := range env {
		if name, value, ok := strings.Cut(kv, "="); ok && name == "PATH" {
			if value == "" {
				env[i] = "PATH=" + extra
			} else {
				env[i] = "PATH=" + extra + string(os.PathListSeparator) + value
			}
			return env
		}
	}
	return append(env, "PATH="+extra)
}

func pathValue(env []string) string {
	for i := len(env) - 1; i >= 0; i-- {
		if name, value, ok := strings.Cut(env[i], "="); ok && name == "PATH" {
			return value
		}
	}
	return ""
}

// lookPath resolves name against pathList instead of the parent's PATH so
// that ExtraPath also applies to locating the command.
func lookPath(name, pathList string) (string, error) {
	if name == "" {
		return "", exec.ErrNotFound
	}
	if strings.ContainsRune(name, filepath.Separator) || strings.Contains(name, "/") {
		return exec.LookPath(name)
	}
	for _, dir := range filepath.SplitList(pathList) {
		if dir == "" {
			continue
		}
		if !filepath.IsAbs(dir) {
			abs, err := filepath.Abs(dir)
			if err != nil {
				continue
			}
			dir = abs
		}
		if p, err := exec.LookPath(filepath.Join(dir, name)); err == nil {
			return p, nil
		}
	}
	return "", exec.ErrNotFound
}
