package main

import (
	"context"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
)

var zipCmd = &cobra.Command{
	Use:   "zip <archive.zip>",
	Short: "Convert and merge every folder of a ZIP archive",
	Long: `Zip extracts the archive into a temporary directory and processes it as
independent groups: the documents at the top level, merged into
<archive>.pdf, then every top-level folder, merged into <folder>.pdf.
A group that cannot be converted completely is reported and skipped;
the others are still merged. The extracted files are removed afterwards.`,
	Args: cobra.ExactArgs(1),
	RunE: runZip,
}

func init() {
	addCollectFlags(zipCmd)
	zipCmd.Flags().Bool("progress", true, "show a progress bar on stderr")

	rootCmd.AddCommand(zipCmd)
}

func runZip(cmd *cobra.Command, args []string) error {
	cfg := runConfig(cmd)

	// Prompts and the bar would share the terminal.
	var progress io.Writer
	if show, _ := cmd.Flags().GetBool("progress"); show && !cfg.Output.Interactive {
		progress = os.Stderr
	}

	col, closeFn, err := newCollector(cfg, progress)
	if err != nil {
		return err
	}
	defer closeFn()

	// Interrupting stops before the next group; the extraction directory
	// is still removed.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	summary, err := col.CollectArchive(ctx, args[0])
	return finishRun(cmd, summary, err)
}
