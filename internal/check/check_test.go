// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package check

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iwatake2222/InferenceHelper/internal/prepare"
	"github.com/iwatake2222/InferenceHelper/pkg/types"
)

// fakeModel returns canned outputs keyed by call order and records inputs.
type fakeModel struct {
	outputs [][]float32
	err     error
	inputs  [][]float32
}

func (f *fakeModel) Run(input []float32) ([]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.inputs = append(f.inputs, input)
	return f.outputs[len(f.inputs)-1], nil
}

// dataset prepares solid-color sources into an 8x8 dataset.
func dataset(t *testing.T, names ...string) string {
	t.Helper()
	inDir := t.TempDir()
	outDir := t.TempDir()
	for _, n := range names {
		img := image.NewRGBA(image.Rect(0, 0, 20, 10))
		for y := 0; y < 10; y++ {
			for x := 0; x < 20; x++ {
				img.Set(x, y, color.RGBA{255, 0, 0, 255})
			}
		}
		f, err := os.Create(filepath.Join(inDir, n+".jpg"))
		require.NoError(t, err)
		require.NoError(t, jpeg.Encode(f, img, &jpeg.Options{Quality: 100}))
		require.NoError(t, f.Close())
	}
	cfg := types.PrepareConfig{InputDir: inDir, OutputDir: outDir, Width: 8, Height: 8, Filter: "nearest"}
	_, err := prepare.Run(context.Background(), cfg, &bytes.Buffer{})
	require.NoError(t, err)
	return outDir
}

func TestTensorLayouts(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 2, 1))
	img.Set(0, 0, color.RGBA{10, 20, 30, 255})
	img.Set(1, 0, color.RGBA{40, 50, 60, 255})

	tests := []struct {
		name   string
		layout Layout
		want   []float32
	}{
		{name: "planar", layout: LayoutNCHW, want: []float32{10, 40, 20, 50, 30, 60}},
		{name: "interleaved", layout: LayoutNHWC, want: []float32{10, 20, 30, 40, 50, 60}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pre := Preprocess{Width: 2, Height: 1, Channels: 3, Layout: tt.layout, Norm: [3]float32{1, 1, 1}}
			got, err := pre.Tensor(img)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTensorNormalize(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 1, 1))
	img.SetGray(0, 0, color.Gray{Y: 200})

	pre := Preprocess{Width: 1, Height: 1, Channels: 3, Layout: LayoutNCHW,
		Mean: [3]float32{100, 0, 200}, Norm: [3]float32{0.5, 1, 2}}
	got, err := pre.Tensor(img)
	require.NoError(t, err)
	assert.Equal(t, []float32{50, 200, 0}, got, "gray replicated into three channels")

	pre.Channels = 1
	got, err = pre.Tensor(img)
	require.NoError(t, err)
	assert.Equal(t, []float32{50}, got)
}

func TestTensorSizeMismatch(t *testing.T) {
	_, err := DefaultPreprocess(4, 4).Tensor(image.NewRGBA(image.Rect(0, 0, 3, 4)))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model expects 4x4")
}

func TestPreprocessValidateAndShape(t *testing.T) {
	pre := DefaultPreprocess(224, 224)
	require.NoError(t, pre.Validate())
	assert.Equal(t, []int64{1, 3, 224, 224}, pre.Shape())

	pre.Layout = LayoutNHWC
	assert.Equal(t, []int64{1, 224, 224, 3}, pre.Shape())

	pre.Channels = 4
	assert.Error(t, pre.Validate())
	pre.Channels = 3
	pre.Layout = "chw"
	assert.Error(t, pre.Validate())
}

func TestDir(t *testing.T) {
	outDir := dataset(t, "cat", "dog")
	model := &fakeModel{outputs: [][]float32{{0.1, 0.7, 0.2}, {0.9, float32(math.NaN()), 0.05}}}

	r, err := Dir(context.Background(), outDir, "m.onnx", model, DefaultPreprocess(8, 8))
	require.NoError(t, err)

	require.Len(t, r.Samples, 2)
	assert.Equal(t, "cat", r.Samples[0].Name)
	assert.Equal(t, 1, r.Samples[0].Class)
	assert.InDelta(t, 0.7, r.Samples[0].Score, 1e-6)
	assert.InDelta(t, 0.1, r.Samples[0].Min, 1e-6)
	assert.Equal(t, 1, r.Samples[1].NonFinite)
	assert.Equal(t, 1, r.Failed)
	assert.False(t, r.OK())

	// Red source, scaled to [0, 1], planar.
	require.Len(t, model.inputs[0], 3*8*8)
	assert.InDelta(t, 1.0, model.inputs[0][0], 0.02)
	assert.InDelta(t, 0.0, model.inputs[0][8*8], 0.02)
}

func TestDirErrors(t *testing.T) {
	t.Run("model failure", func(t *testing.T) {
		outDir := dataset(t, "cat")
		_, err := Dir(context.Background(), outDir, "m", &fakeModel{err: errors.New("boom")}, DefaultPreprocess(8, 8))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "sample cat: boom")
	})
	t.Run("dataset size differs from model", func(t *testing.T) {
		outDir := dataset(t, "cat")
		_, err := Dir(context.Background(), outDir, "m", &fakeModel{outputs: [][]float32{{1}}}, DefaultPreprocess(16, 16))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "model expects 16x16")
	})
	t.Run("missing manifest", func(t *testing.T) {
		_, err := Dir(context.Background(), t.TempDir(), "m", &fakeModel{}, DefaultPreprocess(8, 8))
		assert.ErrorIs(t, err, os.ErrNotExist)
	})
	t.Run("canceled", func(t *testing.T) {
		outDir := dataset(t, "cat")
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := Dir(ctx, outDir, "m", &fakeModel{outputs: [][]float32{{1}}}, DefaultPreprocess(8, 8))
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestReportWrite(t *testing.T) {
	r := Report{OutputDir: "out", Model: "m.onnx", Samples: []SampleResult{{Name: "cat", Class: 2, Score: 0.5}}}

	var jb bytes.Buffer
	require.NoError(t, r.Write(&jb, "json"))
	var back Report
	require.NoError(t, json.Unmarshal(jb.Bytes(), &back))
	assert.Equal(t, r, back)

	var yb bytes.Buffer
	require.NoError(t, r.Write(&yb, "yaml"))
	assert.Contains(t, yb.String(), "model: m.onnx")

	assert.Error(t, r.Write(&bytes.Buffer{}, "toml"))
}

func TestOpenONNXMissingModel(t *testing.T) {
	_, err := OpenONNX(ONNXConfig{
		ModelPath:   filepath.Join(t.TempDir(), "missing.onnx"),
		InputName:   "input",
		OutputName:  "output",
		InputShape:  []int64{1, 3, 8, 8},
		OutputShape: []int64{1, 10},
	})
	assert.Error(t, err)
}
