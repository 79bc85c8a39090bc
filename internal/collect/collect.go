// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package collect drives a conversion group from start to finish: it finds
// the documents of a directory, converts them in one batch into a scratch
// directory, checks that every PDF appeared, and merges them into a single
// file. Archives are unpacked and processed as one group per directory.
package collect

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdiddy/conjoin/internal/convert"
	"github.com/pdiddy/conjoin/pkg/types"
)

const separator = " *******************************"

// ErrCancelled is returned by a Chooser when no destination was picked.
// The group is skipped without reporting an error.
var ErrCancelled = errors.New("cancelled")

// Chooser picks the destination of a merged PDF. suggested is a file name
// such as "Chapter1.pdf".
type Chooser interface {
	Choose(suggested string) (string, error)
}

// Merger joins converted PDFs. *merge.Merger implements it.
type Merger interface {
	Merge(inputs []string, output string, padToEven bool) (int, error)
}

// Recorder persists group results. *history.Store implements it.
type Recorder interface {
	Record(ctx context.Context, runID string, twoSided bool, res types.GroupResult) error
}

// Options tune a Collector. The zero value pads nothing, uses the system
// temp dir, and records no history.
type Options struct {
	// TwoSided pads odd-page documents for double-sided printing.
	TwoSided bool

	// ScratchDir is the parent of per-group and per-archive scratch
	// directories. Empty means os.TempDir.
	ScratchDir string

	// ProgressOutput receives an archive progress bar. Nil disables it.
	ProgressOutput io.Writer

	// Recorder and RunID enable the merge history.
	Recorder Recorder
	RunID    string
}

// Summary holds the outcome of a collection run.
type Summary struct {
	Merged     int                 `json:"merged" yaml:"merged"`
	Empty      int                 `json:"empty" yaml:"empty"`
	Incomplete int                 `json:"incomplete" yaml:"incomplete"`
	Skipped    int                 `json:"skipped" yaml:"skipped"`
	Failed     int                 `json:"failed" yaml:"failed"`
	Groups     []types.GroupResult `json:"groups" yaml:"groups"`
}

// Total returns the number of groups processed.
func (s Summary) Total() int {
	return s.Merged + s.Empty + s.Incomplete + s.Skipped + s.Failed
}

// HasFailures reports whether any group failed or was left unmerged
// because documents did not convert.
func (s Summary) HasFailures() bool {
	return s.Failed > 0 || s.Incomplete > 0
}

func (s *Summary) add(res types.GroupResult) {
	s.Groups = append(s.Groups, res)
	switch res.Status {
	case types.GroupMerged:
		s.Merged++
	case types.GroupEmpty:
		s.Empty++
	case types.GroupIncomplete:
		s.Incomplete++
	case types.GroupSkipped:
		s.Skipped++
	case types.GroupFailed:
		s.Failed++
	}
}

// Collector runs groups through the converter and the merger, reporting
// progress as plain lines on its log writer.
type Collector struct {
	conv    convert.Converter
	merger  Merger
	chooser Chooser
	log     io.Writer
	opts    Options
}

// New creates a Collector.
func New(conv convert.Converter, m Merger, ch Chooser, w io.Writer, opts Options) *Collector {
	return &Collector{conv: conv, merger: m, chooser: ch, log: w, opts: opts}
}

// ListDocuments returns the absolute paths of the regular files in dir with
// a recognized extension, sorted by name. Subdirectories are not entered.
func ListDocuments(dir string) ([]string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", dir, err)
	}
	// ReadDir returns entries sorted by file name.
	entries, err := os.ReadDir(abs)
	if err != nil {
		return nil, fmt.Errorf("reading directory %s: %w", dir, err)
	}

	var docs []string
	for _, e := range entries {
		if !convert.IsRecognized(e.Name()) {
			continue
		}
		path := filepath.Join(abs, e.Name())
		info, err := os.Stat(path)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		docs = append(docs, path)
	}
	return docs, nil
}

// EnsurePDF appends ".pdf" to path unless it already ends with it.
func EnsurePDF(path string) string {
	if strings.HasSuffix(path, ".pdf") {
		return path
	}
	return path + ".pdf"
}

// CollectDir processes dir as a single group named after the directory.
func (c *Collector) CollectDir(ctx context.Context, dir string) (Summary, error) {
	var s Summary
	res, err := c.collectGroup(ctx, dir, "")
	s.add(res)
	if errors.Is(err, convert.ErrCommandNotFound) {
		return s, err
	}
	return s, nil
}

// CollectGroup converts and merges the documents of dir. name is the
// suggested output name; empty uses the directory's base name. All errors
// are reported on the log and reflected in the returned status.
func (c *Collector) CollectGroup(ctx context.Context, dir, name string) types.GroupResult {
	res, _ := c.collectGroup(ctx, dir, name)
	return res
}

// collectGroup also returns the error behind a failed status so callers can
// stop a batch when the converter is missing.
func (c *Collector) collectGroup(ctx context.Context, dir, name string) (res types.GroupResult, err error) {
	if name == "" {
		name = filepath.Base(filepath.Clean(dir))
	}
	res = types.GroupResult{Name: name, SourceDir: dir}

	defer func() {
		if res.Status != types.GroupEmpty {
			c.record(ctx, res)
		}
	}()

	inputs, err := ListDocuments(dir)
	if err != nil {
		return c.fail(res, err), err
	}
	if len(inputs) == 0 {
		res.Status = types.GroupEmpty
		return res, nil
	}
	res.Inputs = inputs

	scratch, err := os.MkdirTemp(c.opts.ScratchDir, "conjoin-pdf-")
	if err != nil {
		err = fmt.Errorf("creating scratch directory: %w", err)
		return c.fail(res, err), err
	}
	defer os.RemoveAll(scratch)

	fmt.Fprintf(c.log, "converting %d document(s) in %s\n", len(inputs), dir)
	if err := c.conv.ConvertAll(inputs, scratch); err != nil {
		return c.fail(res, err), err
	}
	fmt.Fprintf(c.log, "\n%s\n\n", separator)

	var pdfs []string
	for _, f := range convert.Verify(types.ConversionJob{Inputs: inputs, OutputDir: scratch}) {
		if !f.Exists {
			fmt.Fprintf(c.log, "missing: %s (from %s)\n", filepath.Base(f.PDF), filepath.Base(f.Source))
			res.Missing = append(res.Missing, filepath.Base(f.PDF))
			continue
		}
		pdfs = append(pdfs, f.PDF)
	}
	if len(pdfs) != len(inputs) {
		res.Status = types.GroupIncomplete
		fmt.Fprintf(c.log, "incomplete: %s (%d of %d converted), not merged\n", name, len(pdfs), len(inputs))
		return res, nil
	}

	dest, err := c.chooser.Choose(name + ".pdf")
	if errors.Is(err, ErrCancelled) {
		res.Status = types.GroupSkipped
		return res, nil
	}
	if err != nil {
		return c.fail(res, err), err
	}
	dest = EnsurePDF(dest)

	group := types.MergeGroup{PDFs: pdfs, Output: dest, PadToEven: c.opts.TwoSided}
	pages, err := c.merger.Merge(group.PDFs, group.Output, group.PadToEven)
	if err != nil {
		return c.fail(res, err), err
	}

	res.Status = types.GroupMerged
	res.Output = dest
	res.Pages = pages
	fmt.Fprintf(c.log, " --> %s\n", dest)
	return res, nil
}

func (c *Collector) fail(res types.GroupResult, err error) types.GroupResult {
	res.Status = types.GroupFailed
	res.Message = err.Error()
	fmt.Fprintf(c.log, "failed:  %s (%v)\n", res.Name, err)
	return res
}

func (c *Collector) record(ctx context.Context, res types.GroupResult) {
	if c.opts.Recorder == nil {
		return
	}
	if err := c.opts.Recorder.Record(ctx, c.opts.RunID, c.opts.TwoSided, res); err != nil {
		fmt.Fprintf(c.log, "warning: could not record history for %s: %v\n", res.Name, err)
	}
}
