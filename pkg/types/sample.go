// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// PixelFormat identifies the pixel-map flavour written for a sample.
type PixelFormat string

const (
	// FormatRGB is a binary PPM (P6) image.
	FormatRGB PixelFormat = "rgb"
	// FormatGray is a binary PGM (P5) image, written for single-channel sources.
	FormatGray PixelFormat = "gray"
)

// Sample describes one processed calibration image.
type Sample struct {
	// Name is the source basename without directory or extension (e.g. "cat").
	// It is also the manifest line for this sample.
	Name string `json:"name" yaml:"name"`

	// Source is the path of the decoded input image.
	Source string `json:"source" yaml:"source"`

	// Output is the path of the written pixel-map file.
	Output string `json:"output" yaml:"output"`

	// SourceWidth and SourceHeight are the decoded input dimensions.
	SourceWidth  int `json:"source_width" yaml:"source_width"`
	SourceHeight int `json:"source_height" yaml:"source_height"`

	// Width and Height are the output dimensions.
	Width  int `json:"width" yaml:"width"`
	Height int `json:"height" yaml:"height"`

	Format PixelFormat `json:"format" yaml:"format"`
}

// Run is the record of one preparation run as stored in the catalog.
type Run struct {
	ID        int64     `json:"id" yaml:"id"`
	StartedAt time.Time `json:"started_at" yaml:"started_at"`
	InputDir  string    `json:"in_dir" yaml:"in_dir"`
	OutputDir string    `json:"out_dir" yaml:"out_dir"`
	Width     int       `json:"width" yaml:"width"`
	Height    int       `json:"height" yaml:"height"`
	Filter    string    `json:"filter" yaml:"filter"`

	// Count is the number of samples produced by the run.
	Count int `json:"count" yaml:"count"`

	// Samples are listed in manifest order.
	Samples []Sample `json:"samples,omitempty" yaml:"samples,omitempty"`
}
