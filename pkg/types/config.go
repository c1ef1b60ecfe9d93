// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"errors"
	"fmt"
)

const (
	// DefaultWidth and DefaultHeight are the calibration input resolution.
	DefaultWidth  = 224
	DefaultHeight = 224

	// DefaultFilter is the resampling filter used when none is configured.
	DefaultFilter = "bicubic"

	// ManifestName is the file, relative to the output directory, that lists
	// processed sample names.
	ManifestName = "list.txt"

	// ImageExt is the extension of every generated pixel-map file.
	ImageExt = ".ppm"

	// SourceExt is the extension matched in the input directory.
	SourceExt = ".jpg"
)

// PrepareConfig holds settings for a single dataset preparation run.
type PrepareConfig struct {
	// InputDir is the directory scanned (non-recursively) for *.jpg files.
	InputDir string `json:"in_dir" yaml:"in_dir"`

	// OutputDir receives the .ppm files and list.txt. Created if missing.
	OutputDir string `json:"out_dir" yaml:"out_dir"`

	// Width and Height are the exact output dimensions. Aspect ratio is not preserved.
	Width  int `json:"width" yaml:"width"`
	Height int `json:"height" yaml:"height"`

	// Filter names the resampling filter (e.g. "bicubic", "nearest").
	Filter string `json:"filter" yaml:"filter"`

	// Catalog is an optional SQLite database path. When set, each run and
	// its samples are recorded there.
	Catalog string `json:"catalog,omitempty" yaml:"catalog,omitempty"`
}

// WithDefaults returns a copy of c with zero-valued size and filter fields
// replaced by their defaults.
func (c PrepareConfig) WithDefaults() PrepareConfig {
	if c.Width == 0 {
		c.Width = DefaultWidth
	}
	if c.Height == 0 {
		c.Height = DefaultHeight
	}
	if c.Filter == "" {
		c.Filter = DefaultFilter
	}
	return c
}

// Validate reports configuration errors that must stop a run before any I/O.
func (c PrepareConfig) Validate() error {
	var errs []error
	if c.InputDir == "" {
		errs = append(errs, errors.New("input directory is required"))
	}
	if c.OutputDir == "" {
		errs = append(errs, errors.New("output directory is required"))
	}
	if c.Width <= 0 || c.Height <= 0 {
		errs = append(errs, fmt.Errorf("invalid output size %dx%d", c.Width, c.Height))
	}
	return errors.Join(errs...)
}
