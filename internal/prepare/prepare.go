// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package prepare converts a directory of JPEG images into a calibration
// dataset: one fixed-size pixel-map file per image plus a list.txt manifest.
//
// A run is sequential and fail-fast. The first decode or I/O error aborts
// the run; files already written are left in place.
package prepare

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/iwatake2222/InferenceHelper/internal/manifest"
	"github.com/iwatake2222/InferenceHelper/internal/pathutil"
	"github.com/iwatake2222/InferenceHelper/internal/resample"
	"github.com/iwatake2222/InferenceHelper/pkg/types"
)

// ErrDecode marks an input file that could not be decoded as an image.
var ErrDecode = errors.New("decoding image")

// Result holds the outcome of a successful run.
type Result struct {
	// Pattern is the glob used to enumerate sources.
	Pattern string
	// Samples lists processed images in manifest order.
	Samples []types.Sample
}

// Total returns the number of processed images.
func (r Result) Total() int {
	return len(r.Samples)
}

// Run prepares the dataset described by cfg. Progress is printed to w:
// the resolved source pattern and the number of matched images, before
// any file is processed.
func Run(ctx context.Context, cfg types.PrepareConfig, w io.Writer) (result Result, err error) {
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return Result{}, err
	}
	filter, err := resample.Lookup(cfg.Filter)
	if err != nil {
		return Result{}, err
	}

	pattern, sources, err := Sources(cfg.InputDir)
	if err != nil {
		return Result{}, err
	}
	result.Pattern = pattern

	fmt.Fprintf(w, "Location of dataset = %s\n", pattern)
	fmt.Fprintf(w, "Total number of images = %d\n", len(sources))

	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		return result, fmt.Errorf("creating output directory %s: %w", cfg.OutputDir, err)
	}

	mw, err := manifest.Create(filepath.Join(cfg.OutputDir, types.ManifestName))
	if err != nil {
		return result, err
	}
	defer func() {
		if cerr := mw.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	for _, src := range sources {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		sample, err := convertOne(src, cfg, filter)
		if err != nil {
			return result, err
		}
		if err := mw.Add(sample.Name); err != nil {
			return result, err
		}
		result.Samples = append(result.Samples, sample)

		log.Debug().
			Str("name", sample.Name).
			Int("src_width", sample.SourceWidth).
			Int("src_height", sample.SourceHeight).
			Str("format", string(sample.Format)).
			Msg("sample written")
	}

	return result, nil
}

// Sources returns the glob pattern for inDir and the regular, non-hidden
// *.jpg files directly inside it. A missing directory yields no sources.
func Sources(inDir string) (pattern string, paths []string, err error) {
	pattern = filepath.Join(inDir, "*"+types.SourceExt)

	if info, statErr := os.Stat(inDir); statErr != nil {
		log.Warn().Err(statErr).Str("dir", inDir).Msg("input directory not readable, no images matched")
	} else if !info.IsDir() {
		log.Warn().Str("dir", inDir).Msg("input path is not a directory, no images matched")
	}

	matches, err := pathutil.GlobExt(inDir, types.SourceExt)
	if err != nil {
		return pattern, nil, err
	}

	for _, m := range matches {
		if strings.HasPrefix(filepath.Base(m), ".") {
			continue
		}
		if info, err := os.Stat(m); err == nil && info.IsDir() {
			continue
		}
		paths = append(paths, m)
	}
	return pattern, paths, nil
}

// SampleName strips the directory and extension from path.
func SampleName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func convertOne(src string, cfg types.PrepareConfig, filter resample.Filter) (types.Sample, error) {
	name := SampleName(src)
	if err := manifest.ValidateName(name); err != nil {
		return types.Sample{}, fmt.Errorf("%s: %w", src, err)
	}

	img, err := decodeImage(src)
	if err != nil {
		return types.Sample{}, err
	}

	out := filepath.Join(cfg.OutputDir, name+types.ImageExt)
	resized := filter.Resize(img, cfg.Width, cfg.Height)

	format, err := writePNM(out, resized)
	if err != nil {
		return types.Sample{}, fmt.Errorf("writing %s: %w", out, err)
	}

	b := img.Bounds()
	return types.Sample{
		Name:         name,
		Source:       src,
		Output:       out,
		SourceWidth:  b.Dx(),
		SourceHeight: b.Dy(),
		Width:        cfg.Width,
		Height:       cfg.Height,
		Format:       format,
	}, nil
}
