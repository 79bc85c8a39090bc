package types

// ConversionBackend identifies where the office converter runs.
type ConversionBackend string

const (
	// BackendLocal runs the converter binary found on PATH.
	BackendLocal ConversionBackend = "local"
	// BackendContainer runs the converter inside a docker or podman image.
	BackendContainer ConversionBackend = "container"
)

// ConverterConfig holds settings for the document-to-PDF conversion stage.
type ConverterConfig struct {
	// Backend selects the conversion runtime: local or container.
	Backend ConversionBackend `json:"backend" yaml:"backend"`

	// Binary is the converter command (e.g. "libreoffice" or a full path to soffice).
	Binary string `json:"binary" yaml:"binary"`

	// ExtraPath is prepended to PATH for the converter process only.
	ExtraPath string `json:"extra_path,omitempty" yaml:"extra_path,omitempty"`

	// Image is the container image used by the container backend.
	Image string `json:"image,omitempty" yaml:"image,omitempty"`
}

// MergeConfig holds settings for the PDF merge stage.
type MergeConfig struct {
	// TwoSided pads every odd-page document with a blank page.
	TwoSided bool `json:"two_sided" yaml:"two_sided"`
}

// OutputConfig controls where merged files are written.
type OutputConfig struct {
	// Dir is the directory receiving merged PDFs when not prompting.
	Dir string `json:"dir" yaml:"dir"`

	// Interactive asks for every destination on the terminal.
	Interactive bool `json:"interactive" yaml:"interactive"`

	// Overwrite allows replacing an existing merged PDF.
	Overwrite bool `json:"overwrite" yaml:"overwrite"`
}

// HistoryConfig holds settings for the merge history journal.
type HistoryConfig struct {
	// Dir holds history.db. An empty Dir disables the journal.
	Dir string `json:"dir" yaml:"dir"`

	// Limit is the default number of entries listed (default 20).
	Limit int `json:"limit" yaml:"limit"`
}

// Config groups all settings of a conjoin run.
type Config struct {
	Converter ConverterConfig `json:"converter" yaml:"converter"`
	Merge     MergeConfig     `json:"merge" yaml:"merge"`
	Output    OutputConfig    `json:"output" yaml:"output"`
	History   HistoryConfig   `json:"history" yaml:"history"`
}
