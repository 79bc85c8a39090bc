// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"fmt"
	"io"
	"path/filepath"
	goruntime "runtime"

	"github.com/pdiddy/conjoin/internal/container"
	"github.com/pdiddy/conjoin/internal/runner"
	"github.com/pdiddy/conjoin/pkg/types"
)

const (
	// DefaultImage is the container image used when none is configured.
	DefaultImage = "libreoffice:latest"

	windowsBinary = `C:\Program Files\LibreOffice\program\soffice.exe`
	unixBinary    = "libreoffice"
	imageBinary   = "soffice"
)

// DefaultBinary returns the converter command for the current platform.
func DefaultBinary() string {
	if goruntime.GOOS == "windows" {
		return windowsBinary
	}
	return unixBinary
}

// LibreOffice converts documents with a locally installed LibreOffice. Every
// line the converter prints is copied to the log writer as it arrives.
type LibreOffice struct {
	runner    Runner
	binary    string
	extraPath string
	log       io.Writer
}

// NewLibreOffice creates a converter that runs cfg.Binary (or DefaultBinary)
// through r, with cfg.ExtraPath prepended to the child's PATH.
func NewLibreOffice(r Runner, cfg types.ConverterConfig, w io.Writer) *LibreOffice {
	bin := cfg.Binary
	if bin == "" {
		bin = DefaultBinary()
	}
	return &LibreOffice{
		runner:    r,
		binary:    bin,
		extraPath: cfg.ExtraPath,
		log:       w,
	}
}

// ConvertAll runs one converter invocation for all inputs.
func (l *LibreOffice) ConvertAll(inputs []string, outDir string) error {
	if len(inputs) == 0 {
		return nil
	}
	cmd := runner.Command{
		Name:      l.binary,
		Args:      Args(inputs, outDir),
		ExtraPath: l.extraPath,
		OnLine:    forward(l.log),
	}
	return finish(l.runner.Run(cmd), l.log)
}

// Container converts documents with LibreOffice inside a container image.
// The output directory and the directory of every input are bind-mounted
// at their host paths.
type Container struct {
	runner  Runner
	runtime container.Runtime
	image   string
	log     io.Writer
}

// NewContainer creates a container-backed converter. It verifies that the
// image exists locally before returning.
func NewContainer(r Runner, rt container.Runtime, cfg types.ConverterConfig, w io.Writer) (*Container, error) {
	image := cfg.Image
	if image == "" {
		image = DefaultImage
	}
	if err := rt.ImageExists(image); err != nil {
		return nil, fmt.Errorf("converter image not available in %s: %w", rt.Name(), err)
	}
	return &Container{runner: r, runtime: rt, image: image, log: w}, nil
}

// ConvertAll runs one containerized converter invocation for all inputs.
func (c *Container) ConvertAll(inputs []string, outDir string) error {
	if len(inputs) == 0 {
		return nil
	}
	mounts := []string{outDir}
	for _, in := range inputs {
		mounts = append(mounts, filepath.Dir(in))
	}
	inner := runner.Command{
		Name:   imageBinary,
		Args:   Args(inputs, outDir),
		OnLine: forward(c.log),
	}
	return finish(c.runner.Run(c.runtime.Wrap(c.image, mounts, inner)), c.log)
}

func forward(w io.Writer) func(string) {
	return func(line string) {
		fmt.Fprintln(w, line)
	}
}

// finish maps a converter result to an error. Only a missing command is an
// error: LibreOffice exits non-zero when some documents fail, and those are
// detected later by their missing PDFs.
func finish(res runner.Result, w io.Writer) error {
	switch res.Status {
	case runner.StatusNotFound:
		return fmt.Errorf("%w: %s", ErrCommandNotFound, res.Output)
	case runner.StatusFailed:
		fmt.Fprintln(w, "converter exited with an error; checking which files were written")
	}
	return nil
}
