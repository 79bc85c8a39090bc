// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package history

import (
	"context"
	"fmt"
	"io"

	"go.yaml.in/yaml/v3"
)

const exportLimit = 100000

// ExportYAML writes the entries matching q to w as a YAML sequence. Unlike
// List, a zero q.Limit exports everything.
func (s *Store) ExportYAML(ctx context.Context, w io.Writer, q Query) error {
	if q.Limit <= 0 {
		q.Limit = exportLimit
	}
	entries, err := s.List(ctx, q)
	if err != nil {
		return fmt.Errorf("querying for export: %w", err)
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(entries); err != nil {
		return fmt.Errorf("marshaling YAML: %w", err)
	}
	return enc.Close()
}
