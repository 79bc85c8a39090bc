// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package collect

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// DirChooser writes every merged PDF into Dir under its suggested name.
type DirChooser struct {
	Dir string

	// Overwrite allows replacing an existing file.
	Overwrite bool
}

// Choose returns Dir joined with suggested.
func (d DirChooser) Choose(suggested string) (string, error) {
	path := filepath.Join(d.Dir, suggested)
	if d.Overwrite {
		return path, nil
	}
	if _, err := os.Stat(path); err == nil {
		return "", fmt.Errorf("%s already exists (use --overwrite to replace it)", path)
	}
	return path, nil
}

// PromptChooser asks for each destination on a terminal. An empty answer
// accepts the suggestion inside Dir, "-" or end of input skips the group.
type PromptChooser struct {
	in  *bufio.Reader
	out io.Writer
	dir string
}

// NewPromptChooser reads answers from r and writes prompts to w.
func NewPromptChooser(r io.Reader, w io.Writer, dir string) *PromptChooser {
	return &PromptChooser{in: bufio.NewReader(r), out: w, dir: dir}
}

func (p *PromptChooser) Choose(suggested string) (string, error) {
	def := filepath.Join(p.dir, suggested)
	fmt.Fprintf(p.out, "Save merged PDF as [%s] ('-' to skip): ", def)

	line, err := p.in.ReadString('\n')
	if err != nil {
		if !errors.Is(err, io.EOF) {
			return "", fmt.Errorf("reading answer: %w", err)
		}
		if line == "" {
			fmt.Fprintln(p.out)
			return "", ErrCancelled
		}
	}

	switch answer := strings.TrimSpace(line); answer {
	case "":
		return def, nil
	case "-":
		return "", ErrCancelled
	default:
		return answer, nil
	}
}
