// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package prepare

import (
	"bufio"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"

	pnm "github.com/jbuchbinder/gopnm"

	"github.com/iwatake2222/InferenceHelper/internal/resample"
	"github.com/iwatake2222/InferenceHelper/pkg/types"
)

// decodeImage sniffs the file content, so a PNG saved as .jpg still decodes.
func decodeImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	img, _, err := image.Decode(bufio.NewReader(f))
	if err != nil {
		return nil, fmt.Errorf("%w %s: %v", ErrDecode, path, err)
	}
	return img, nil
}

// writePNM encodes img to destPath via a temporary file in the same
// directory, replacing any existing file. Gray images are written as PGM,
// everything else as PPM.
func writePNM(destPath string, img image.Image) (types.PixelFormat, error) {
	tmpFile, err := os.CreateTemp(filepath.Dir(destPath), ".calibprep-*.tmp")
	if err != nil {
		return "", fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	buf := bufio.NewWriter(tmpFile)
	format := types.FormatRGB
	var encErr error
	if resample.IsGray(img) {
		format = types.FormatGray
		encErr = pnm.Encode(buf, img, pnm.PGM)
	} else {
		encErr = pnm.Encode(buf, img, pnm.PPM)
	}
	if encErr == nil {
		encErr = buf.Flush()
	}
	closeErr := tmpFile.Close()
	if encErr != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("encoding pixel map: %w", encErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("closing temp file: %w", closeErr)
	}

	if err := os.Chmod(tmpPath, 0o644); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("setting permissions: %w", err)
	}
	if err := os.Rename(tmpPath, destPath); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("renaming temp file: %w", err)
	}
	return format, nil
}
