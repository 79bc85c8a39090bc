// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package collect

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/conjoin/internal/convert"
	"github.com/pdiddy/conjoin/pkg/types"
)

// fakeConverter writes a placeholder PDF for every input except those whose
// base name is listed in skip.
type fakeConverter struct {
	skip  map[string]bool
	err   error
	calls [][]string
	dirs  []string
}

func (f *fakeConverter) ConvertAll(inputs []string, outDir string) error {
	f.calls = append(f.calls, append([]string(nil), inputs...))
	f.dirs = append(f.dirs, outDir)
	if f.err != nil {
		return f.err
	}
	for _, in := range inputs {
		if f.skip[filepath.Base(in)] {
			continue
		}
		if err := os.WriteFile(convert.ExpectedPDF(in, outDir), []byte("%PDF-1.4"), 0o644); err != nil {
			return err
		}
	}
	return nil
}

type mergeCall struct {
	inputs []string
	output string
	pad    bool
}

// fakeMerger records calls and reports one page per input.
type fakeMerger struct {
	err   error
	calls []mergeCall
}

func (f *fakeMerger) Merge(inputs []string, output string, pad bool) (int, error) {
	f.calls = append(f.calls, mergeCall{inputs: inputs, output: output, pad: pad})
	if f.err != nil {
		return 0, f.err
	}
	for _, in := range inputs {
		if _, err := os.Stat(in); err != nil {
			return 0, fmt.Errorf("input vanished before merge: %w", err)
		}
	}
	return len(inputs), nil
}

// fakeChooser returns dir/suggested, or a canned answer or error.
type fakeChooser struct {
	dir       string
	answer    string
	err       error
	suggested []string
}

func (f *fakeChooser) Choose(suggested string) (string, error) {
	f.suggested = append(f.suggested, suggested)
	if f.err != nil {
		return "", f.err
	}
	if f.answer != "" {
		return f.answer, nil
	}
	return filepath.Join(f.dir, suggested), nil
}

type fakeRecorder struct {
	results []types.GroupResult
	runIDs  []string
	err     error
}

func (f *fakeRecorder) Record(ctx context.Context, runID string, twoSided bool, res types.GroupResult) error {
	f.runIDs = append(f.runIDs, runID)
	f.results = append(f.results, res)
	return f.err
}

type fixture struct {
	conv    *fakeConverter
	merger  *fakeMerger
	chooser *fakeChooser
	log     *bytes.Buffer
	outDir  string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	out := t.TempDir()
	return &fixture{
		conv:    &fakeConverter{skip: map[string]bool{}},
		merger:  &fakeMerger{},
		chooser: &fakeChooser{dir: out},
		log:     &bytes.Buffer{},
		outDir:  out,
	}
}

func (f *fixture) collector(opts Options) *Collector {
	return New(f.conv, f.merger, f.chooser, f.log, opts)
}

func touch(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, n := range names {
		p := filepath.Join(dir, filepath.FromSlash(n))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte("doc"), 0o644))
	}
}

func TestListDocuments(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "b.docx", "a.odt", "c.rtf", "d.txt", "README", "E.ODT", "notes.Rtf", "sub/inner.odt")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "folder.odt"), 0o755))

	got, err := ListDocuments(dir)
	require.NoError(t, err)

	abs, err := filepath.Abs(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(abs, "a.odt"),
		filepath.Join(abs, "b.docx"),
		filepath.Join(abs, "c.rtf"),
	}, got)
}

func TestListDocumentsMissingDir(t *testing.T) {
	_, err := ListDocuments(filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}

func TestEnsurePDF(t *testing.T) {
	assert.Equal(t, "out.pdf", EnsurePDF("out.pdf"))
	assert.Equal(t, "out.pdf", EnsurePDF("out"))
	assert.Equal(t, "out.PDF.pdf", EnsurePDF("out.PDF"))
	assert.Equal(t, filepath.Join("a", "b.docx.pdf"), EnsurePDF(filepath.Join("a", "b.docx")))
}

func TestCollectGroupMerges(t *testing.T) {
	f := newFixture(t)
	src := filepath.Join(t.TempDir(), "Letters")
	touch(t, src, "b.docx", "a.odt", "skip.txt")
	rec := &fakeRecorder{}

	res := f.collector(Options{TwoSided: true, Recorder: rec, RunID: "run-1"}).CollectGroup(context.Background(), src, "")

	assert.Equal(t, types.GroupMerged, res.Status)
	assert.Equal(t, "Letters", res.Name)
	assert.Equal(t, 2, res.Pages)
	assert.Equal(t, filepath.Join(f.outDir, "Letters.pdf"), res.Output)

	require.Len(t, f.conv.calls, 1)
	assert.Equal(t, []string{filepath.Join(src, "a.odt"), filepath.Join(src, "b.docx")}, f.conv.calls[0])

	require.Len(t, f.merger.calls, 1)
	call := f.merger.calls[0]
	assert.True(t, call.pad)
	assert.Equal(t, filepath.Join(f.outDir, "Letters.pdf"), call.output)
	require.Len(t, call.inputs, 2)
	assert.Equal(t, "a.pdf", filepath.Base(call.inputs[0]))
	assert.Equal(t, "b.pdf", filepath.Base(call.inputs[1]))
	assert.Equal(t, f.conv.dirs[0], filepath.Dir(call.inputs[0]))

	assert.Equal(t, []string{"Letters.pdf"}, f.chooser.suggested)
	assert.Contains(t, f.log.String(), " --> "+res.Output)

	_, err := os.Stat(f.conv.dirs[0])
	assert.True(t, os.IsNotExist(err), "scratch directory must be removed")

	require.Len(t, rec.results, 1)
	assert.Equal(t, "run-1", rec.runIDs[0])
	assert.Equal(t, types.GroupMerged, rec.results[0].Status)
}

func TestCollectGroupExplicitName(t *testing.T) {
	f := newFixture(t)
	src := t.TempDir()
	touch(t, src, "a.odt")

	res := f.collector(Options{}).CollectGroup(context.Background(), src, "Book")

	assert.Equal(t, types.GroupMerged, res.Status)
	assert.Equal(t, []string{"Book.pdf"}, f.chooser.suggested)
	assert.False(t, f.merger.calls[0].pad)
}

func TestCollectGroupEmpty(t *testing.T) {
	f := newFixture(t)
	src := t.TempDir()
	touch(t, src, "notes.txt", "README")
	rec := &fakeRecorder{}

	res := f.collector(Options{Recorder: rec}).CollectGroup(context.Background(), src, "")

	assert.Equal(t, types.GroupEmpty, res.Status)
	assert.Empty(t, f.conv.calls, "no conversion for an empty group")
	assert.Empty(t, f.chooser.suggested)
	assert.Empty(t, f.merger.calls)
	assert.Empty(t, f.log.String())
	assert.Empty(t, rec.results)
}

func TestCollectGroupIncomplete(t *testing.T) {
	f := newFixture(t)
	f.conv.skip["b.docx"] = true
	f.conv.skip["d.rtf"] = true
	src := t.TempDir()
	touch(t, src, "a.odt", "b.docx", "c.odt", "d.rtf")

	res := f.collector(Options{TwoSided: true}).CollectGroup(context.Background(), src, "")

	assert.Equal(t, types.GroupIncomplete, res.Status)
	assert.Equal(t, []string{"b.pdf", "d.pdf"}, res.Missing)
	assert.Empty(t, f.chooser.suggested, "no destination prompt for an incomplete group")
	assert.Empty(t, f.merger.calls)

	log := f.log.String()
	assert.Contains(t, log, "missing: b.pdf (from b.docx)")
	assert.Contains(t, log, "missing: d.pdf (from d.rtf)")
	assert.Equal(t, 2, strings.Count(log, "missing:"))
	assert.Contains(t, log, "2 of 4 converted")

	_, err := os.Stat(f.conv.dirs[0])
	assert.True(t, os.IsNotExist(err), "partial results are discarded")
}

func TestCollectGroupConverterNotFound(t *testing.T) {
	f := newFixture(t)
	f.conv.err = fmt.Errorf("%w: cannot run [\"libreoffice\"]", convert.ErrCommandNotFound)
	src := t.TempDir()
	touch(t, src, "a.odt")

	summary, err := f.collector(Options{}).CollectDir(context.Background(), src)

	require.Error(t, err)
	assert.True(t, errors.Is(err, convert.ErrCommandNotFound))
	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, types.GroupFailed, summary.Groups[0].Status)
	assert.NotContains(t, f.log.String(), "missing:", "no output check after a missing converter")
	assert.Contains(t, f.log.String(), "failed:")
	assert.Empty(t, f.merger.calls)

	_, statErr := os.Stat(f.conv.dirs[0])
	assert.True(t, os.IsNotExist(statErr))
}

func TestCollectGroupCancelled(t *testing.T) {
	f := newFixture(t)
	f.chooser.err = ErrCancelled
	src := t.TempDir()
	touch(t, src, "a.odt")

	res := f.collector(Options{}).CollectGroup(context.Background(), src, "")

	assert.Equal(t, types.GroupSkipped, res.Status)
	assert.Empty(t, f.merger.calls)
	assert.NotContains(t, f.log.String(), "failed")
}

func TestCollectGroupChooserError(t *testing.T) {
	f := newFixture(t)
	f.chooser.err = errors.New("out.pdf already exists")
	src := t.TempDir()
	touch(t, src, "a.odt")

	res := f.collector(Options{}).CollectGroup(context.Background(), src, "")

	assert.Equal(t, types.GroupFailed, res.Status)
	assert.Contains(t, res.Message, "already exists")
	assert.Empty(t, f.merger.calls)
}

func TestCollectGroupCoercesPDFExtension(t *testing.T) {
	f := newFixture(t)
	f.chooser.answer = filepath.Join(f.outDir, "handout")
	src := t.TempDir()
	touch(t, src, "a.odt")

	res := f.collector(Options{}).CollectGroup(context.Background(), src, "")

	assert.Equal(t, filepath.Join(f.outDir, "handout.pdf"), res.Output)
	assert.Equal(t, filepath.Join(f.outDir, "handout.pdf"), f.merger.calls[0].output)
}

func TestCollectGroupMergeFailure(t *testing.T) {
	f := newFixture(t)
	f.merger.err = errors.New("malformed PDF: a.pdf")
	src := t.TempDir()
	touch(t, src, "a.odt")
	rec := &fakeRecorder{}

	res := f.collector(Options{Recorder: rec}).CollectGroup(context.Background(), src, "")

	assert.Equal(t, types.GroupFailed, res.Status)
	assert.Contains(t, res.Message, "malformed PDF")
	require.Len(t, rec.results, 1)
	assert.Equal(t, types.GroupFailed, rec.results[0].Status)
}

func TestCollectGroupRecorderErrorIsNotFatal(t *testing.T) {
	f := newFixture(t)
	src := t.TempDir()
	touch(t, src, "a.odt")

	res := f.collector(Options{Recorder: &fakeRecorder{err: errors.New("database is locked")}}).CollectGroup(context.Background(), src, "")

	assert.Equal(t, types.GroupMerged, res.Status)
	assert.Contains(t, f.log.String(), "database is locked")
}

func TestCollectGroupScratchDir(t *testing.T) {
	f := newFixture(t)
	scratch := t.TempDir()
	src := t.TempDir()
	touch(t, src, "a.odt")

	f.collector(Options{ScratchDir: scratch}).CollectGroup(context.Background(), src, "")

	require.Len(t, f.conv.dirs, 1)
	assert.Equal(t, scratch, filepath.Dir(f.conv.dirs[0]))
	entries, err := os.ReadDir(scratch)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestSummary(t *testing.T) {
	var s Summary
	for _, st := range []types.GroupStatus{
		types.GroupMerged, types.GroupMerged, types.GroupEmpty, types.GroupSkipped,
	} {
		s.add(types.GroupResult{Status: st})
	}
	assert.Equal(t, 4, s.Total())
	assert.False(t, s.HasFailures())

	s.add(types.GroupResult{Status: types.GroupIncomplete})
	assert.True(t, s.HasFailures())
	assert.Equal(t, 5, s.Total())
	assert.Len(t, s.Groups, 5)
}
