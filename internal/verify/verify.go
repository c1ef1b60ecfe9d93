// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package verify checks a prepared calibration dataset for consistency
// between list.txt and the pixel-map files next to it.
package verify

import (
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "github.com/jbuchbinder/gopnm"
	"go.yaml.in/yaml/v3"

	"github.com/iwatake2222/InferenceHelper/internal/manifest"
	"github.com/iwatake2222/InferenceHelper/internal/pathutil"
	"github.com/iwatake2222/InferenceHelper/pkg/types"
)

// Issue kinds reported by Dir.
const (
	IssueMissing    = "missing"
	IssueUnlisted   = "unlisted"
	IssueDuplicate  = "duplicate"
	IssueUnreadable = "unreadable"
	IssueSize       = "size"
	IssueManifest   = "manifest"
)

// Problem is a single inconsistency found in a dataset.
type Problem struct {
	Name   string `json:"name" yaml:"name"`
	Kind   string `json:"kind" yaml:"kind"`
	Detail string `json:"detail,omitempty" yaml:"detail,omitempty"`
}

// Report summarises a dataset check.
type Report struct {
	OutputDir string    `json:"out_dir" yaml:"out_dir"`
	Width     int       `json:"width" yaml:"width"`
	Height    int       `json:"height" yaml:"height"`
	Listed    int       `json:"listed" yaml:"listed"`
	Images    int       `json:"images" yaml:"images"`
	Problems  []Problem `json:"problems,omitempty" yaml:"problems,omitempty"`
}

// OK reports whether no problems were found.
func (r Report) OK() bool {
	return len(r.Problems) == 0
}

func (r *Report) add(name, kind, detail string) {
	r.Problems = append(r.Problems, Problem{Name: name, Kind: kind, Detail: detail})
}

// Dir verifies the dataset in outDir: every manifest entry has a decodable
// width x height pixel-map file, every pixel-map file is listed exactly once,
// and the manifest uses '\n' line endings. A missing manifest is an error;
// everything else is reported as a Problem.
func Dir(outDir string, width, height int) (Report, error) {
	report := Report{OutputDir: outDir, Width: width, Height: height}

	manifestPath := filepath.Join(outDir, types.ManifestName)
	names, err := manifest.Read(manifestPath)
	switch {
	case errors.Is(err, manifest.ErrCRLF):
		report.add(types.ManifestName, IssueManifest, "line endings must be \\n")
	case err != nil:
		return report, err
	}
	report.Listed = len(names)

	images, err := pathutil.GlobExt(outDir, types.ImageExt)
	if err != nil {
		return report, fmt.Errorf("listing images: %w", err)
	}
	report.Images = len(images)

	listed := make(map[string]bool, len(names))
	for _, name := range names {
		if listed[name] {
			report.add(name, IssueDuplicate, "listed more than once")
			continue
		}
		listed[name] = true
		checkImage(&report, outDir, name)
	}

	var unlisted []string
	for _, path := range images {
		name := strings.TrimSuffix(filepath.Base(path), types.ImageExt)
		if !listed[name] {
			unlisted = append(unlisted, name)
		}
	}
	sort.Strings(unlisted)
	for _, name := range unlisted {
		report.add(name, IssueUnlisted, "image not in "+types.ManifestName)
	}

	return report, nil
}

func checkImage(report *Report, outDir, name string) {
	path := filepath.Join(outDir, name+types.ImageExt)
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			report.add(name, IssueMissing, "no "+name+types.ImageExt)
			return
		}
		report.add(name, IssueUnreadable, err.Error())
		return
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		report.add(name, IssueUnreadable, err.Error())
		return
	}
	if cfg.Width != report.Width || cfg.Height != report.Height {
		report.add(name, IssueSize, fmt.Sprintf("got %dx%d, want %dx%d",
			cfg.Width, cfg.Height, report.Width, report.Height))
	}
}

// Write renders the report to w as "yaml" or "json".
func (r Report) Write(w io.Writer, format string) error {
	switch format {
	case "yaml", "":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(r); err != nil {
			return fmt.Errorf("encoding report: %w", err)
		}
		return enc.Close()
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	default:
		return fmt.Errorf("unsupported format %q: use yaml or json", format)
	}
}
