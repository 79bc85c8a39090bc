// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the conjoin CLI. conjoin converts a
// folder (or a ZIP of folders) of ODT, DOCX, and RTF documents to PDF with
// LibreOffice and merges each folder into a single PDF.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// version is set at build time via ldflags.
var version = "dev"

// rootCmd is the base command for the conjoin CLI.
var rootCmd = &cobra.Command{
	Use:   "conjoin",
	Short: "Convert office documents to PDF and merge them into one file",
	Long: `conjoin converts every ODT, DOCX, and RTF document of a folder to PDF with
LibreOffice and joins the results, in file name order, into a single PDF.
With --two-sided (the default) every document with an odd number of pages
is followed by a blank page, so each one starts on a front side when the
merged file is printed double-sided.

A ZIP archive is processed as several independent groups: the files at its
top level, then every top-level folder on its own.`,
	SilenceUsage: true,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./conjoin.yaml or ~/.config/conjoin/conjoin.yaml)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("conjoin")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "conjoin"))
		}
	}

	viper.SetDefault("converter.backend", "local")
	viper.SetDefault("merge.two_sided", true)
	viper.SetDefault("output.dir", ".")
	viper.SetDefault("history.dir", defaultHistoryDir())
	viper.SetDefault("history.limit", 20)

	viper.SetEnvPrefix("CONJOIN")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func defaultHistoryDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "conjoin")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
