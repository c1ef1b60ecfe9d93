// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package check runs a prepared calibration dataset through a model to
// confirm that every sample produces finite outputs before the dataset is
// handed to a calibrator.
package check

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"io"
	"math"
	"os"
	"path/filepath"

	_ "github.com/jbuchbinder/gopnm"
	"go.yaml.in/yaml/v3"

	"github.com/iwatake2222/InferenceHelper/internal/manifest"
	"github.com/iwatake2222/InferenceHelper/pkg/types"
)

// Layout is the memory order of the input tensor.
type Layout string

const (
	LayoutNCHW Layout = "nchw"
	LayoutNHWC Layout = "nhwc"
)

// Model runs one inference on a flat float32 input tensor.
type Model interface {
	Run(input []float32) ([]float32, error)
}

// Preprocess describes how a sample image becomes an input tensor.
// Each channel value v in [0, 255] becomes (v - Mean[c]) * Norm[c].
type Preprocess struct {
	Width    int
	Height   int
	Channels int // 1 or 3
	Layout   Layout
	Mean     [3]float32
	Norm     [3]float32
}

// DefaultPreprocess scales pixels to [0, 1] in NCHW order with three channels.
func DefaultPreprocess(width, height int) Preprocess {
	const s = 1.0 / 255
	return Preprocess{
		Width:    width,
		Height:   height,
		Channels: 3,
		Layout:   LayoutNCHW,
		Norm:     [3]float32{s, s, s},
	}
}

// Validate rejects channel counts and layouts that Tensor cannot produce.
func (p Preprocess) Validate() error {
	if p.Width <= 0 || p.Height <= 0 {
		return fmt.Errorf("invalid input size %dx%d", p.Width, p.Height)
	}
	if p.Channels != 1 && p.Channels != 3 {
		return fmt.Errorf("unsupported channel count %d: use 1 or 3", p.Channels)
	}
	if p.Layout != LayoutNCHW && p.Layout != LayoutNHWC {
		return fmt.Errorf("unsupported layout %q: use nchw or nhwc", p.Layout)
	}
	return nil
}

// Shape returns the batch-of-one input tensor shape.
func (p Preprocess) Shape() []int64 {
	if p.Layout == LayoutNHWC {
		return []int64{1, int64(p.Height), int64(p.Width), int64(p.Channels)}
	}
	return []int64{1, int64(p.Channels), int64(p.Height), int64(p.Width)}
}

// Tensor converts img, which must already be Width x Height, to a flat
// normalized tensor. Gray images are replicated into three channels and
// color images are reduced to luminance when Channels is 1.
func (p Preprocess) Tensor(img image.Image) ([]float32, error) {
	b := img.Bounds()
	if b.Dx() != p.Width || b.Dy() != p.Height {
		return nil, fmt.Errorf("image is %dx%d, model expects %dx%d", b.Dx(), b.Dy(), p.Width, p.Height)
	}

	w, h, ch := p.Width, p.Height, p.Channels
	out := make([]float32, w*h*ch)
	var px [3]float32
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := img.At(b.Min.X+x, b.Min.Y+y)
			if ch == 1 {
				g := color.GrayModel.Convert(c).(color.Gray)
				px[0] = float32(g.Y)
			} else {
				r, g, bl, _ := c.RGBA()
				px = [3]float32{float32(r >> 8), float32(g >> 8), float32(bl >> 8)}
			}
			for k := 0; k < ch; k++ {
				v := (px[k] - p.Mean[k]) * p.Norm[k]
				if p.Layout == LayoutNHWC {
					out[(y*w+x)*ch+k] = v
				} else {
					out[k*w*h+y*w+x] = v
				}
			}
		}
	}
	return out, nil
}

// SampleResult summarises the model output for one sample.
type SampleResult struct {
	Name      string  `json:"name" yaml:"name"`
	Class     int     `json:"class" yaml:"class"`
	Score     float32 `json:"score" yaml:"score"`
	Min       float32 `json:"min" yaml:"min"`
	Max       float32 `json:"max" yaml:"max"`
	NonFinite int     `json:"non_finite,omitempty" yaml:"non_finite,omitempty"`
}

// Report is the outcome of checking a dataset.
type Report struct {
	OutputDir string         `json:"out_dir" yaml:"out_dir"`
	Model     string         `json:"model" yaml:"model"`
	Samples   []SampleResult `json:"samples" yaml:"samples"`
	// Failed counts samples with NaN or Inf outputs.
	Failed int `json:"failed" yaml:"failed"`
}

// OK reports whether every sample produced finite outputs.
func (r Report) OK() bool {
	return r.Failed == 0
}

// Dir runs every sample listed in outDir/list.txt through m in manifest order.
// Decode, size and inference errors abort the check.
func Dir(ctx context.Context, outDir, modelName string, m Model, pre Preprocess) (Report, error) {
	if err := pre.Validate(); err != nil {
		return Report{}, err
	}
	names, err := manifest.Read(filepath.Join(outDir, types.ManifestName))
	if err != nil {
		return Report{}, err
	}

	report := Report{OutputDir: outDir, Model: modelName, Samples: []SampleResult{}}
	for _, name := range names {
		select {
		case <-ctx.Done():
			return report, ctx.Err()
		default:
		}

		img, err := loadSample(filepath.Join(outDir, name+types.ImageExt))
		if err != nil {
			return report, err
		}
		input, err := pre.Tensor(img)
		if err != nil {
			return report, fmt.Errorf("sample %s: %w", name, err)
		}
		output, err := m.Run(input)
		if err != nil {
			return report, fmt.Errorf("sample %s: %w", name, err)
		}
		if len(output) == 0 {
			return report, fmt.Errorf("sample %s: model returned no output", name)
		}

		res := summarize(name, output)
		if res.NonFinite > 0 {
			report.Failed++
		}
		report.Samples = append(report.Samples, res)
	}
	return report, nil
}

func loadSample(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening sample: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(bufio.NewReader(f))
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	return img, nil
}

func summarize(name string, output []float32) SampleResult {
	res := SampleResult{Name: name, Class: -1}
	first := true
	for i, v := range output {
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			res.NonFinite++
			continue
		}
		if first || v > res.Max {
			res.Max = v
			res.Class = i
			res.Score = v
		}
		if first || v < res.Min {
			res.Min = v
		}
		first = false
	}
	return res
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
