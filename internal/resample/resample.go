// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package resample maps filter names to fixed-size image scalers.
//
// Every filter stretches or shrinks the source to exactly the requested
// width and height; aspect ratio is never preserved. Single-channel sources
// stay single-channel so they can be written as PGM.
package resample

import (
	"fmt"
	"image"
	"image/color"
	"sort"
	"strings"

	"github.com/nfnt/resize"
	"golang.org/x/image/draw"
)

// Filter scales an image to an exact size.
type Filter interface {
	// Resize returns a new image of exactly width x height pixels.
	Resize(img image.Image, width, height int) image.Image
}

// kernelFilter wraps the nfnt/resize interpolation kernels.
type kernelFilter struct {
	interp resize.InterpolationFunction
}

func (f kernelFilter) Resize(img image.Image, width, height int) image.Image {
	return resize.Resize(uint(width), uint(height), img, f.interp)
}

// drawFilter wraps the golang.org/x/image/draw interpolators.
type drawFilter struct {
	interp draw.Interpolator
}

func (f drawFilter) Resize(img image.Image, width, height int) image.Image {
	r := image.Rect(0, 0, width, height)
	var dst draw.Image
	if IsGray(img) {
		dst = image.NewGray(r)
	} else {
		dst = image.NewRGBA(r)
	}
	f.interp.Scale(dst, r, img, img.Bounds(), draw.Src, nil)
	return dst
}

var filters = map[string]Filter{
	"nearest":        kernelFilter{resize.NearestNeighbor},
	"bilinear":       kernelFilter{resize.Bilinear},
	"bicubic":        kernelFilter{resize.Bicubic},
	"mitchell":       kernelFilter{resize.MitchellNetravali},
	"lanczos2":       kernelFilter{resize.Lanczos2},
	"lanczos3":       kernelFilter{resize.Lanczos3},
	"catmullrom":     drawFilter{draw.CatmullRom},
	"approxbilinear": drawFilter{draw.ApproxBiLinear},
}

// Lookup returns the filter registered under name. Names are case-insensitive.
func Lookup(name string) (Filter, error) {
	f, ok := filters[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("unknown resample filter %q: use one of %s",
			name, strings.Join(Names(), ", "))
	}
	return f, nil
}

// Names returns the registered filter names in sorted order.
func Names() []string {
	names := make([]string, 0, len(filters))
	for n := range filters {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// IsGray reports whether img carries a single luminance channel.
func IsGray(img image.Image) bool {
	m := img.ColorModel()
	return m == color.GrayModel || m == color.Gray16Model
}
