// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package container implements container runtime detection and lets the
// converter run LibreOffice inside an image instead of a local install.
package container

import (
	"fmt"
	"os/exec"
	"sort"

	"github.com/pdiddy/conjoin/internal/runner"
)

const (
	binDocker = "docker"
	binPodman = "podman"
)

// Runtime provides container operations: checking availability, verifying
// images, and wrapping commands so they run inside a container.
type Runtime interface {
	// Name returns the runtime name ("docker" or "podman").
	Name() string

	// Available reports whether the runtime binary exists on PATH and
	// responds to an info command.
	Available() bool

	// ImageExists checks whether the named image exists locally.
	// Returns nil when the image is found, or an error describing the failure.
	ImageExists(image string) error

	// Wrap returns a command that runs cmd inside image. Every directory in
	// mounts is bind-mounted at the same path inside the container.
	Wrap(image string, mounts []string, cmd runner.Command) runner.Command
}

// executor abstracts command execution for testing.
type executor interface {
	LookPath(file string) (string, error)
	Run(cmd runner.Command) runner.Result
}

// osExecutor is the production executor backed by the runner package.
type osExecutor struct {
	r *runner.Runner
}

func (o *osExecutor) LookPath(file string) (string, error) {
	return exec.LookPath(file)
}

func (o *osExecutor) Run(cmd runner.Command) runner.Result {
	return o.r.Run(cmd)
}

// runtime implements Runtime for a specific container binary. Both Docker
// and Podman share the same logic; they differ only in binary name and the
// subcommand used to check image existence.
type runtime struct {
	bin           string
	imageCheckCmd []string // e.g. ["image", "inspect"] for docker
	exec          executor
}

func (r *runtime) Name() string { return r.bin }

func (r *runtime) Available() bool {
	if _, err := r.exec.LookPath(r.bin); err != nil {
		return false
	}
	return r.exec.Run(runner.Command{Name: r.bin, Args: []string{"info"}}).OK()
}

func (r *runtime) ImageExists(image string) error {
	args := make([]string, 0, len(r.imageCheckCmd)+1)
	args = append(args, r.imageCheckCmd...)
	args = append(args, image)

	if res := r.exec.Run(runner.Command{Name: r.bin, Args: args}); !res.OK() {
		return fmt.Errorf("image %s not found in %s: %w", image, r.bin, res.Err())
	}
	return nil
}

func (r *runtime) Wrap(image string, mounts []string, cmd runner.Command) runner.Command {
	args := []string{"run", "--rm"}
	if cmd.Dir != "" {
		args = append(args, "-w", cmd.Dir)
	}
	for _, dir := range uniqueSorted(mounts) {
		args = append(args, "-v", dir+":"+dir)
	}
	args = append(args, image)
	args = append(args, cmd.Argv()...)

	return runner.Command{
		Name:      r.bin,
		Args:      args,
		ExtraPath: cmd.ExtraPath,
		OnLine:    cmd.OnLine,
	}
}

func uniqueSorted(dirs []string) []string {
	seen := make(map[string]bool, len(dirs))
	out := make([]string, 0, len(dirs))
	for _, d := range dirs {
		if d == "" || seen[d] {
			continue
		}
		seen[d] = true
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}

func newDockerRuntime(exec executor) *runtime {
	return &runtime{
		bin:           binDocker,
		imageCheckCmd: []string{"image", "inspect"},
		exec:          exec,
	}
}

func newPodmanRuntime(exec executor) *runtime {
	return &runtime{
		bin:           binPodman,
		imageCheckCmd: []string{"image", "exists"},
		exec:          exec,
	}
}

// DetectRuntime tries docker first, falls back to podman. Returns an error
// if neither runtime is available.
func DetectRuntime(r *runner.Runner) (Runtime, error) {
	return detectRuntime(&osExecutor{r: r})
}

func detectRuntime(exec executor) (Runtime, error) {
	docker := newDockerRuntime(exec)
	if docker.Available() {
		return docker, nil
	}

	podman := newPodmanRuntime(exec)
	if podman.Available() {
		return podman, nil
	}

	return nil, fmt.Errorf(
		"no container runtime available: neither %s nor %s found or operational",
		binDocker, binPodman,
	)
}
