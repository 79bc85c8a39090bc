// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package merge concatenates PDFs into one document, optionally padding
// every odd-page input with a blank page so double-sided prints keep each
// input starting on a front side.
package merge

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// ErrMalformedPDF reports an input that could not be read as a PDF.
var ErrMalformedPDF = errors.New("malformed PDF")

// Merger joins PDF files with pdfcpu.
type Merger struct {
	conf *model.Configuration
}

// New returns a Merger using pdfcpu's relaxed validation, which accepts the
// minor structural slips common in converter output.
func New() *Merger {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return &Merger{conf: conf}
}

// PageCount returns the number of pages in the PDF at path.
func (m *Merger) PageCount(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", ErrMalformedPDF, path, err)
	}
	defer f.Close()

	n, err := api.PageCount(f, m.conf)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", ErrMalformedPDF, path, err)
	}
	return n, nil
}

// Merge writes the pages of inputs, in order, to output and returns the
// number of pages written. With padToEven, every input whose page count is
// odd is followed by one blank page shaped like its first page. The
// decision is made per input, never on the running total.
//
// Any unreadable input aborts the merge; output is only replaced once the
// merged document has been written completely.
func (m *Merger) Merge(inputs []string, output string, padToEven bool) (int, error) {
	if len(inputs) == 0 {
		return 0, errors.New("no input PDFs to merge")
	}

	work, err := os.MkdirTemp("", "conjoin-merge-")
	if err != nil {
		return 0, fmt.Errorf("creating merge scratch directory: %w", err)
	}
	defer os.RemoveAll(work)

	parts := make([]string, 0, len(inputs)*2)
	total := 0
	for i, in := range inputs {
		n, err := m.PageCount(in)
		if err != nil {
			return 0, err
		}
		parts = append(parts, in)
		total += n

		if padToEven && n%2 == 1 {
			blank := filepath.Join(work, fmt.Sprintf("blank-%03d.pdf", i))
			if err := m.blankLike(in, blank, work); err != nil {
				return 0, fmt.Errorf("%w: %s: building blank page: %v", ErrMalformedPDF, in, err)
			}
			parts = append(parts, blank)
			total++
		}
	}

	if err := m.writeAtomic(parts, output); err != nil {
		return 0, err
	}
	return total, nil
}

// blankLike writes a one-page PDF to dst whose only page has the geometry
// and rotation of the first page of src and no content. pdfcpu inserts blank
// pages with the media box of their neighbour but without its /Rotate, so
// the blank is inserted before page 1 of a copy trimmed to that page,
// everything else is trimmed away, and page 1's rotation is applied last.
func (m *Merger) blankLike(src, dst, work string) error {
	base := filepath.Base(dst)
	first := filepath.Join(work, "first-"+base)
	padded := filepath.Join(work, "padded-"+base)
	upright := filepath.Join(work, "upright-"+base)

	if err := api.TrimFile(src, first, []string{"1"}, m.conf); err != nil {
		return fmt.Errorf("extracting first page: %w", err)
	}
	rot, err := m.firstPageRotation(first)
	if err != nil {
		return fmt.Errorf("reading first page rotation: %w", err)
	}
	if err := api.InsertPagesFile(first, padded, []string{"1"}, true, nil, m.conf); err != nil {
		return fmt.Errorf("inserting blank page: %w", err)
	}
	if rot == 0 {
		upright = dst
	}
	if err := api.TrimFile(padded, upright, []string{"1"}, m.conf); err != nil {
		return fmt.Errorf("isolating blank page: %w", err)
	}
	if rot != 0 {
		if err := api.RotateFile(upright, dst, rot, nil, m.conf); err != nil {
			return fmt.Errorf("rotating blank page: %w", err)
		}
	}
	return nil
}

// firstPageRotation returns the effective /Rotate of page 1, inherited
// values included, normalized to 0, 90, 180 or 270.
func (m *Merger) firstPageRotation(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	ctx, err := api.ReadAndValidate(f, m.conf)
	if err != nil {
		return 0, err
	}
	_, _, inherited, err := ctx.PageDict(1, false)
	if err != nil {
		return 0, err
	}
	if inherited == nil {
		return 0, nil
	}
	return ((inherited.Rotate % 360) + 360) % 360, nil
}

// writeAtomic merges parts into a temporary file next to output and renames
// it into place.
func (m *Merger) writeAtomic(parts []string, output string) error {
	tmp, err := os.CreateTemp(filepath.Dir(output), ".conjoin-*.pdf")
	if err != nil {
		return fmt.Errorf("creating output file: %w", err)
	}
	tmpName := tmp.Name()
	tmp.Close()

	if len(parts) == 1 {
		err = copyFile(parts[0], tmpName)
	} else {
		err = api.MergeCreateFile(parts, tmpName, false, m.conf)
	}
	if err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("merging into %s: %w", output, err)
	}

	// CreateTemp makes the file 0600; keep the mode of a replaced output.
	mode := os.FileMode(0o644)
	if info, err := os.Stat(output); err == nil {
		mode = info.Mode().Perm()
	}
	if err := os.Chmod(tmpName, mode); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("setting mode of %s: %w", output, err)
	}

	if err := os.Rename(tmpName, output); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("moving merged PDF to %s: %w", output, err)
	}
	return nil
}

// copyFile copies a file from src to dst
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open source file: %w", err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("failed to create destination file: %w", err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("failed to copy file content: %w", err)
	}
	return out.Close()
}
