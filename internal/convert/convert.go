// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package convert turns office documents into PDFs by handing a whole
// batch to an external converter (LibreOffice), then checks which of the
// expected PDFs actually appeared.
package convert

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdiddy/conjoin/internal/runner"
	"github.com/pdiddy/conjoin/pkg/types"
)

// Extensions lists the document suffixes eligible for conversion. Matching
// is exact and case-sensitive on the text after the last dot.
var Extensions = []string{"odt", "docx", "rtf"}

// ErrCommandNotFound reports that the converter binary could not be run.
var ErrCommandNotFound = fmt.Errorf("converter %w", runner.ErrNotFound)

// Converter transforms a batch of documents into PDFs written to outDir.
// A document that fails to convert is not an error; it simply has no PDF.
type Converter interface {
	ConvertAll(inputs []string, outDir string) error
}

// Runner executes external commands. *runner.Runner implements it.
type Runner interface {
	Run(cmd runner.Command) runner.Result
}

// IsRecognized reports whether name carries one of the Extensions.
// Names without a dot are never recognized.
func IsRecognized(name string) bool {
	i := strings.LastIndex(name, ".")
	if i < 0 {
		return false
	}
	ext := name[i+1:]
	for _, e := range Extensions {
		if ext == e {
			return true
		}
	}
	return false
}

// ExpectedPDF returns the path the converter writes for input: the input's
// base name with its extension replaced by ".pdf", inside outDir.
func ExpectedPDF(input, outDir string) string {
	base := filepath.Base(input)
	if i := strings.LastIndex(base, "."); i >= 0 {
		base = base[:i]
	}
	return filepath.Join(outDir, base+".pdf")
}

// Verify checks every input of job for its converted PDF. The result keeps
// the order of job.Inputs.
func Verify(job types.ConversionJob) []types.ConvertedFile {
	files := make([]types.ConvertedFile, len(job.Inputs))
	for i, in := range job.Inputs {
		pdf := ExpectedPDF(in, job.OutputDir)
		info, err := os.Stat(pdf)
		files[i] = types.ConvertedFile{
			Source: in,
			PDF:    pdf,
			Exists: err == nil && info.Mode().IsRegular(),
		}
	}
	return files
}

// Args builds the converter arguments for one batch.
func Args(inputs []string, outDir string) []string {
	args := make([]string, 0, len(inputs)+5)
	args = append(args, "--headless", "--convert-to", "pdf", "--outdir", outDir)
	return append(args, inputs...)
}
