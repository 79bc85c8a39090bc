package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var dirCmd = &cobra.Command{
	Use:   "dir <folder>",
	Short: "Convert and merge the documents of one folder",
	Long: `Dir converts every ODT, DOCX, and RTF document directly inside the folder
to PDF and merges the results, in file name order, into <folder>.pdf.
The intermediate PDFs live in a temporary directory that is removed
afterwards. If any document fails to convert, nothing is merged and the
missing files are listed.`,
	Args: cobra.ExactArgs(1),
	RunE: runDir,
}

func init() {
	addCollectFlags(dirCmd)

	rootCmd.AddCommand(dirCmd)
}

func runDir(cmd *cobra.Command, args []string) error {
	cfg := runConfig(cmd)

	c, closeFn, err := newCollector(cfg, nil)
	if err != nil {
		return err
	}
	defer closeFn()

	summary, err := c.CollectDir(context.Background(), args[0])
	if err != nil {
		err = fmt.Errorf("collecting %s: %w", args[0], err)
	}
	return finishRun(cmd, summary, err)
}
