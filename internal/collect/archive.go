// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package collect

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/cheggaaa/pb/v3"

	"github.com/pdiddy/conjoin/internal/convert"
)

// ErrMalformedArchive reports a ZIP file that could not be opened or unpacked.
var ErrMalformedArchive = errors.New("malformed archive")

type group struct {
	dir  string
	name string
}

// CollectArchive unpacks the ZIP at zipPath into a scratch directory and
// processes its top level as one group named after the archive, then every
// immediate subdirectory, in name order, as a group of its own. A missing
// converter aborts the remaining groups.
func (c *Collector) CollectArchive(ctx context.Context, zipPath string) (Summary, error) {
	var summary Summary

	zr, err := zip.OpenReader(zipPath)
	if err != nil {
		fmt.Fprintf(c.log, "error: %s: %v\n", zipPath, err)
		return summary, fmt.Errorf("%w: %s: %v", ErrMalformedArchive, zipPath, err)
	}
	defer zr.Close()

	root, err := os.MkdirTemp(c.opts.ScratchDir, "conjoin-zip-")
	if err != nil {
		return summary, fmt.Errorf("creating extraction directory: %w", err)
	}
	defer os.RemoveAll(root)

	if err := extract(&zr.Reader, root); err != nil {
		fmt.Fprintf(c.log, "error: %s: %v\n", zipPath, err)
		return summary, fmt.Errorf("%w: %s: %v", ErrMalformedArchive, zipPath, err)
	}

	groups, err := archiveGroups(root, archiveName(zipPath))
	if err != nil {
		return summary, err
	}

	var bar *pb.ProgressBar
	if c.opts.ProgressOutput != nil {
		bar = pb.New(len(groups)).
			SetTemplateString(`{{ bar . " " "━" "━" " " " "}} {{counters .}} groups`).
			SetWriter(c.opts.ProgressOutput).
			Start()
		defer bar.Finish()
	}

	for _, g := range groups {
		select {
		case <-ctx.Done():
			return summary, ctx.Err()
		default:
		}

		res, err := c.collectGroup(ctx, g.dir, g.name)
		summary.add(res)
		if bar != nil {
			bar.Increment()
		}
		if errors.Is(err, convert.ErrCommandNotFound) {
			return summary, err
		}
	}
	return summary, nil
}

// archiveName is the archive's base name without its last extension.
func archiveName(zipPath string) string {
	base := filepath.Base(zipPath)
	if i := strings.LastIndex(base, "."); i > 0 {
		return base[:i]
	}
	return base
}

// archiveGroups lists the extraction root followed by its immediate
// subdirectories in name order.
func archiveGroups(root, rootName string) ([]group, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("reading extracted archive: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	groups := []group{{dir: root, name: rootName}}
	for _, n := range names {
		groups = append(groups, group{dir: filepath.Join(root, n), name: n})
	}
	return groups, nil
}

// extract writes every entry of zr below dest. Entries whose path would
// leave dest are rejected.
func extract(zr *zip.Reader, dest string) error {
	for _, f := range zr.File {
		target, err := entryPath(dest, f.Name)
		if err != nil {
			return err
		}

		mode := f.Mode()
		switch {
		case mode.IsDir():
			if err := os.MkdirAll(target, 0o755); err != nil {
				return fmt.Errorf("creating %s: %w", f.Name, err)
			}
		case mode.IsRegular():
			if err := extractFile(f, target); err != nil {
				return err
			}
		default:
			// Symlinks and device entries are not documents.
		}
	}
	return nil
}

func entryPath(dest, name string) (string, error) {
	target := filepath.Join(dest, filepath.FromSlash(name))
	rel, err := filepath.Rel(dest, target)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) || filepath.IsAbs(rel) {
		return "", fmt.Errorf("entry %q escapes the archive root", name)
	}
	return target, nil
}

func extractFile(f *zip.File, target string) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("creating directory for %s: %w", f.Name, err)
	}

	rc, err := f.Open()
	if err != nil {
		return fmt.Errorf("opening %s: %w", f.Name, err)
	}
	defer rc.Close()

	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, f.Mode().Perm()|0o600)
	if err != nil {
		return fmt.Errorf("creating %s: %w", f.Name, err)
	}
	if _, err := io.Copy(out, rc); err != nil {
		out.Close()
		return fmt.Errorf("extracting %s: %w", f.Name, err)
	}
	return out.Close()
}
