package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/conjoin/internal/collect"
	"github.com/pdiddy/conjoin/internal/merge"
)

var mergeCmd = &cobra.Command{
	Use:   "merge -o <output.pdf> <pdf>...",
	Short: "Merge existing PDF files without converting anything",
	Long: `Merge joins the given PDF files, in the order given, into one file.
With --two-sided every input with an odd number of pages is followed by a
blank page of the same size as its first page.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runMerge,
}

func init() {
	mergeCmd.Flags().StringP("output", "o", "", "merged PDF to write (required)")
	mergeCmd.Flags().Bool("two-sided", true, "follow every odd-page document with a blank page")
	_ = mergeCmd.MarkFlagRequired("output")

	rootCmd.AddCommand(mergeCmd)
}

func runMerge(cmd *cobra.Command, args []string) error {
	output, _ := cmd.Flags().GetString("output")
	output = collect.EnsurePDF(output)

	twoSided := viper.GetBool("merge.two_sided")
	if cmd.Flags().Changed("two-sided") {
		twoSided, _ = cmd.Flags().GetBool("two-sided")
	}

	pages, err := merge.New().Merge(args, output, twoSided)
	if err != nil {
		return err
	}
	fmt.Printf("merged %d file(s), %d page(s) --> %s\n", len(args), pages, output)
	return nil
}
