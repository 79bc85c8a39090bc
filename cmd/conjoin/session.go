// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/conjoin/internal/collect"
	"github.com/pdiddy/conjoin/internal/container"
	"github.com/pdiddy/conjoin/internal/convert"
	"github.com/pdiddy/conjoin/internal/history"
	"github.com/pdiddy/conjoin/internal/merge"
	"github.com/pdiddy/conjoin/internal/runner"
	"github.com/pdiddy/conjoin/pkg/types"
)

// addCollectFlags registers the flags shared by the dir and zip commands.
func addCollectFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.Bool("two-sided", true, "follow every odd-page document with a blank page")
	f.String("output-dir", "", "directory receiving merged PDFs (default: current directory)")
	f.BoolP("interactive", "i", false, "ask for every destination on the terminal")
	f.Bool("overwrite", false, "replace existing merged PDFs")
	f.String("backend", "", "conversion backend: local or container (default local)")
	f.String("converter", "", "converter command (default libreoffice, soffice.exe on Windows)")
	f.String("extra-path", "", "directory prepended to PATH for the converter only")
	f.String("image", "", "container image for the container backend")
	f.String("history-dir", "", "directory holding history.db")
	f.Bool("no-history", false, "do not record this run in the history")
	f.String("report", "", "write a YAML summary of the run to this file")
}

// runConfig builds the run configuration from the config file and
// environment, then applies the flags the user set explicitly.
func runConfig(cmd *cobra.Command) types.Config {
	cfg := types.Config{
		Converter: types.ConverterConfig{
			Backend:   types.ConversionBackend(viper.GetString("converter.backend")),
			Binary:    viper.GetString("converter.binary"),
			ExtraPath: viper.GetString("converter.extra_path"),
			Image:     viper.GetString("converter.image"),
		},
		Merge: types.MergeConfig{
			TwoSided: viper.GetBool("merge.two_sided"),
		},
		Output: types.OutputConfig{
			Dir:         viper.GetString("output.dir"),
			Interactive: viper.GetBool("output.interactive"),
			Overwrite:   viper.GetBool("output.overwrite"),
		},
		History: types.HistoryConfig{
			Dir:   viper.GetString("history.dir"),
			Limit: viper.GetInt("history.limit"),
		},
	}

	f := cmd.Flags()
	if f.Changed("two-sided") {
		cfg.Merge.TwoSided, _ = f.GetBool("two-sided")
	}
	if f.Changed("output-dir") {
		cfg.Output.Dir, _ = f.GetString("output-dir")
	}
	if f.Changed("interactive") {
		cfg.Output.Interactive, _ = f.GetBool("interactive")
	}
	if f.Changed("overwrite") {
		cfg.Output.Overwrite, _ = f.GetBool("overwrite")
	}
	if f.Changed("backend") {
		backend, _ := f.GetString("backend")
		cfg.Converter.Backend = types.ConversionBackend(backend)
	}
	if f.Changed("converter") {
		cfg.Converter.Binary, _ = f.GetString("converter")
	}
	if f.Changed("extra-path") {
		cfg.Converter.ExtraPath, _ = f.GetString("extra-path")
	}
	if f.Changed("image") {
		cfg.Converter.Image, _ = f.GetString("image")
	}
	if f.Changed("history-dir") {
		cfg.History.Dir, _ = f.GetString("history-dir")
	}
	if noHistory, _ := f.GetBool("no-history"); noHistory {
		cfg.History.Dir = ""
	}

	if cfg.Converter.Backend == "" {
		cfg.Converter.Backend = types.BackendLocal
	}
	if cfg.Output.Dir == "" {
		cfg.Output.Dir = "."
	}
	return cfg
}

// newConverter selects the conversion backend.
func newConverter(r *runner.Runner, cfg types.ConverterConfig, w io.Writer) (convert.Converter, error) {
	switch cfg.Backend {
	case types.BackendLocal:
		return convert.NewLibreOffice(r, cfg, w), nil
	case types.BackendContainer:
		rt, err := container.DetectRuntime(r)
		if err != nil {
			return nil, err
		}
		return convert.NewContainer(r, rt, cfg, w)
	default:
		return nil, fmt.Errorf("unknown backend %q (use local or container)", cfg.Backend)
	}
}

// newChooser returns the destination policy for merged PDFs.
func newChooser(cfg types.OutputConfig) collect.Chooser {
	if cfg.Interactive {
		return collect.NewPromptChooser(os.Stdin, os.Stdout, cfg.Dir)
	}
	return collect.DirChooser{Dir: cfg.Dir, Overwrite: cfg.Overwrite}
}

// newCollector wires a collector for cfg. The returned close function
// releases the history store, if one was opened.
func newCollector(cfg types.Config, progress io.Writer) (*collect.Collector, func(), error) {
	r := runner.New()
	conv, err := newConverter(r, cfg.Converter, os.Stdout)
	if err != nil {
		return nil, nil, err
	}

	opts := collect.Options{
		TwoSided:       cfg.Merge.TwoSided,
		ProgressOutput: progress,
	}
	closeFn := func() {}
	if cfg.History.Dir != "" {
		store, err := history.Open(cfg.History)
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: history disabled: %v\n", err)
		} else {
			opts.Recorder = store
			opts.RunID = history.NewRunID()
			closeFn = func() { store.Close() }
		}
	}

	c := collect.New(conv, merge.New(), newChooser(cfg.Output), os.Stdout, opts)
	return c, closeFn, nil
}

// finishRun prints the summary, writes the optional report, and turns
// failed or incomplete groups into a non-zero exit.
func finishRun(cmd *cobra.Command, summary collect.Summary, runErr error) error {
	fmt.Printf("\nSummary: %d merged, %d empty, %d incomplete, %d skipped, %d failed (total: %d)\n",
		summary.Merged, summary.Empty, summary.Incomplete, summary.Skipped, summary.Failed, summary.Total())

	if report, _ := cmd.Flags().GetString("report"); report != "" {
		if err := writeReport(report, summary); err != nil {
			return err
		}
	}

	if runErr != nil {
		return runErr
	}
	if summary.HasFailures() {
		return fmt.Errorf("%d group(s) not merged", summary.Failed+summary.Incomplete)
	}
	return nil
}

func writeReport(path string, summary collect.Summary) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating report: %w", err)
	}
	defer f.Close()

	enc := yaml.NewEncoder(f)
	enc.SetIndent(2)
	if err := enc.Encode(summary); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	return enc.Close()
}
