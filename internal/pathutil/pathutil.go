// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pathutil holds small filesystem path helpers shared by the
// dataset packages.
package pathutil

import (
	"fmt"
	"path/filepath"
	"runtime"
	"strings"
)

// GlobEscape quotes glob metacharacters so dir is matched literally.
// Backslash is the path separator on Windows and cannot be used to escape.
func GlobEscape(dir string) string {
	if runtime.GOOS == "windows" {
		return dir
	}
	var b strings.Builder
	for _, r := range dir {
		if strings.ContainsRune(`*?[\`, r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// GlobExt returns the entries directly inside dir whose names end in ext,
// in lexical order. dir is taken literally.
func GlobExt(dir, ext string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(GlobEscape(dir), "*"+ext))
	if err != nil {
		return nil, fmt.Errorf("matching %s: %w", filepath.Join(dir, "*"+ext), err)
	}
	return matches, nil
}
