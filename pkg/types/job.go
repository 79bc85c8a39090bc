// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the conjoin pipeline:
// conversion jobs, converted files, merge groups, group results, and the
// configuration that drives a run.
package types

import "time"

// ConversionJob is one batch handed to the office converter: the documents
// of a single group and the directory receiving their PDFs.
type ConversionJob struct {
	// Inputs are absolute document paths, in merge order.
	Inputs []string `json:"inputs" yaml:"inputs"`

	// OutputDir is the scratch directory the converter writes into.
	OutputDir string `json:"output_dir" yaml:"output_dir"`
}

// ConvertedFile pairs a source document with the PDF the converter is
// expected to produce for it.
type ConvertedFile struct {
	Source string `json:"source" yaml:"source"`
	PDF    string `json:"pdf" yaml:"pdf"`

	// Exists is set once the PDF has been checked on disk.
	Exists bool `json:"exists" yaml:"exists"`
}

// MergeGroup is the final input to the merger.
type MergeGroup struct {
	PDFs      []string `json:"pdfs" yaml:"pdfs"`
	Output    string   `json:"output" yaml:"output"`
	PadToEven bool     `json:"pad_to_even" yaml:"pad_to_even"`
}

// GroupStatus is the outcome of processing one group.
type GroupStatus string

const (
	// GroupMerged means every document converted and the merged PDF was written.
	GroupMerged GroupStatus = "merged"
	// GroupEmpty means the directory held no recognized documents.
	GroupEmpty GroupStatus = "empty"
	// GroupIncomplete means at least one document produced no PDF.
	GroupIncomplete GroupStatus = "incomplete"
	// GroupSkipped means the destination was declined.
	GroupSkipped GroupStatus = "skipped"
	// GroupFailed means the converter or the merger returned an error.
	GroupFailed GroupStatus = "failed"
)

// GroupResult records what happened to a single group.
type GroupResult struct {
	Name      string      `json:"name" yaml:"name"`
	SourceDir string      `json:"source_dir" yaml:"source_dir"`
	Status    GroupStatus `json:"status" yaml:"status"`

	// Inputs are the recognized documents, sorted by name.
	Inputs []string `json:"inputs,omitempty" yaml:"inputs,omitempty"`

	// Missing lists the expected PDFs the converter did not produce.
	Missing []string `json:"missing,omitempty" yaml:"missing,omitempty"`

	Output string `json:"output,omitempty" yaml:"output,omitempty"`
	Pages  int    `json:"pages,omitempty" yaml:"pages,omitempty"`

	// Message carries the error text for failed groups.
	Message string `json:"message,omitempty" yaml:"message,omitempty"`
}

// HistoryEntry is a persisted GroupResult from an earlier run.
type HistoryEntry struct {
	ID        string    `json:"id" yaml:"id"`
	RunID     string    `json:"run_id" yaml:"run_id"`
	TwoSided  bool      `json:"two_sided" yaml:"two_sided"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`

	GroupResult `yaml:",inline"`
}
