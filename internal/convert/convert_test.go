// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/conjoin/internal/runner"
	"github.com/pdiddy/conjoin/pkg/types"
)

// fakeRunner implements Runner for testing. It records every command,
// replays canned output lines through OnLine, and returns a fixed status.
type fakeRunner struct {
	status runner.Status
	lines  []string
	calls  []runner.Command
}

func (f *fakeRunner) Run(cmd runner.Command) runner.Result {
	f.calls = append(f.calls, cmd)
	for _, l := range f.lines {
		if cmd.OnLine != nil {
			cmd.OnLine(l)
		}
	}
	out := strings.Join(f.lines, "\n")
	if f.status == runner.StatusNotFound {
		out = "cannot run " + cmd.Name
	}
	return runner.Result{Status: f.status, Output: out}
}

// fakeRuntime implements container.Runtime without touching docker.
type fakeRuntime struct {
	missingImage bool
	mounts       []string
}

func (f *fakeRuntime) Name() string    { return "docker" }
func (f *fakeRuntime) Available() bool { return true }

func (f *fakeRuntime) ImageExists(image string) error {
	if f.missingImage {
		return errors.New("no such image: " + image)
	}
	return nil
}

func (f *fakeRuntime) Wrap(image string, mounts []string, cmd runner.Command) runner.Command {
	f.mounts = mounts
	return runner.Command{
		Name:   "docker",
		Args:   append([]string{"run", image}, cmd.Argv()...),
		OnLine: cmd.OnLine,
	}
}

func TestIsRecognized(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"a.odt", true},
		{"b.docx", true},
		{"c.rtf", true},
		{"archive.tar.rtf", true},
		{".odt", true},
		{"A.ODT", false},
		{"b.Docx", false},
		{"notes.txt", false},
		{"report.pdf", false},
		{"odt", false},
		{"Makefile", false},
		{"trailing.", false},
		{"doc.odt.bak", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRecognized(tt.name))
		})
	}
}

func TestExpectedPDF(t *testing.T) {
	out := filepath.Join("tmp", "out")
	tests := []struct {
		input string
		want  string
	}{
		{filepath.Join("docs", "a.odt"), filepath.Join(out, "a.pdf")},
		{filepath.Join("docs", "v1.2.docx"), filepath.Join(out, "v1.2.pdf")},
		{filepath.Join("docs", "letter.rtf"), filepath.Join(out, "letter.pdf")},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, ExpectedPDF(tt.input, out))
		})
	}
}

func TestVerify(t *testing.T) {
	outDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(outDir, "a.pdf"), []byte("%PDF"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(outDir, "c.pdf"), 0o755))

	job := types.ConversionJob{
		Inputs:    []string{"/in/a.odt", "/in/b.docx", "/in/c.rtf"},
		OutputDir: outDir,
	}
	got := Verify(job)

	require.Len(t, got, 3)
	assert.Equal(t, types.ConvertedFile{Source: "/in/a.odt", PDF: filepath.Join(outDir, "a.pdf"), Exists: true}, got[0])
	assert.Equal(t, types.ConvertedFile{Source: "/in/b.docx", PDF: filepath.Join(outDir, "b.pdf"), Exists: false}, got[1])
	assert.False(t, got[2].Exists, "a directory is not a converted file")
}

func TestLibreOfficeConvertAll(t *testing.T) {
	r := &fakeRunner{status: runner.StatusOK, lines: []string{"convert /in/a.odt -> /out/a.pdf", "convert /in/b.docx -> /out/b.pdf"}}
	var log bytes.Buffer
	lo := NewLibreOffice(r, types.ConverterConfig{Binary: "soffice", ExtraPath: "/opt/lo/program"}, &log)

	err := lo.ConvertAll([]string{"/in/a.odt", "/in/b.docx"}, "/out")
	require.NoError(t, err)

	require.Len(t, r.calls, 1, "one invocation per batch")
	call := r.calls[0]
	assert.Equal(t, "soffice", call.Name)
	assert.Equal(t, []string{"--headless", "--convert-to", "pdf", "--outdir", "/out", "/in/a.odt", "/in/b.docx"}, call.Args)
	assert.Equal(t, "/opt/lo/program", call.ExtraPath)
	assert.Empty(t, call.Dir)
	assert.Equal(t, "convert /in/a.odt -> /out/a.pdf\nconvert /in/b.docx -> /out/b.pdf\n", log.String())
}

func TestLibreOfficeDefaultBinary(t *testing.T) {
	r := &fakeRunner{status: runner.StatusOK}
	lo := NewLibreOffice(r, types.ConverterConfig{}, &bytes.Buffer{})
	require.NoError(t, lo.ConvertAll([]string{"/in/a.odt"}, "/out"))
	assert.Equal(t, DefaultBinary(), r.calls[0].Name)
}

func TestLibreOfficeEmptyBatch(t *testing.T) {
	r := &fakeRunner{status: runner.StatusOK}
	lo := NewLibreOffice(r, types.ConverterConfig{}, &bytes.Buffer{})
	require.NoError(t, lo.ConvertAll(nil, "/out"))
	assert.Empty(t, r.calls)
}

func TestLibreOfficeNotFound(t *testing.T) {
	r := &fakeRunner{status: runner.StatusNotFound}
	lo := NewLibreOffice(r, types.ConverterConfig{Binary: "soffice"}, &bytes.Buffer{})

	err := lo.ConvertAll([]string{"/in/a.odt"}, "/out")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCommandNotFound))
	assert.True(t, errors.Is(err, runner.ErrNotFound))
	assert.Contains(t, err.Error(), "soffice")
}

func TestLibreOfficeFailedExitIsNotAnError(t *testing.T) {
	r := &fakeRunner{status: runner.StatusFailed, lines: []string{"Error: source file could not be loaded"}}
	var log bytes.Buffer
	lo := NewLibreOffice(r, types.ConverterConfig{}, &log)

	require.NoError(t, lo.ConvertAll([]string{"/in/a.odt"}, "/out"))
	assert.Contains(t, log.String(), "source file could not be loaded")
	assert.Contains(t, log.String(), "converter exited with an error")
}

func TestContainerConvertAll(t *testing.T) {
	r := &fakeRunner{status: runner.StatusOK, lines: []string{"converted"}}
	rt := &fakeRuntime{}
	var log bytes.Buffer

	c, err := NewContainer(r, rt, types.ConverterConfig{}, &log)
	require.NoError(t, err)

	require.NoError(t, c.ConvertAll([]string{"/in/a.odt", "/in/sub/b.rtf"}, "/out"))
	require.Len(t, r.calls, 1)
	assert.Equal(t, "docker", r.calls[0].Name)
	assert.Equal(t,
		[]string{"run", DefaultImage, "soffice", "--headless", "--convert-to", "pdf", "--outdir", "/out", "/in/a.odt", "/in/sub/b.rtf"},
		r.calls[0].Args)
	assert.Equal(t, []string{"/out", "/in", "/in/sub"}, rt.mounts)
	assert.Equal(t, "converted\n", log.String())
}

func TestNewContainerMissingImage(t *testing.T) {
	_, err := NewContainer(&fakeRunner{}, &fakeRuntime{missingImage: true}, types.ConverterConfig{Image: "lo:7"}, &bytes.Buffer{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "lo:7")
}

func TestContainerRuntimeMissing(t *testing.T) {
	r := &fakeRunner{status: runner.StatusNotFound}
	c, err := NewContainer(r, &fakeRuntime{}, types.ConverterConfig{}, &bytes.Buffer{})
	require.NoError(t, err)

	err = c.ConvertAll([]string{"/in/a.odt"}, "/out")
	assert.True(t, errors.Is(err, ErrCommandNotFound))
}
