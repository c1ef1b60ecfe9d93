// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package manifest reads and writes the list.txt sample manifest.
// Lines are always terminated by a single '\n', never "\r\n".
package manifest

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"
)

// ErrCRLF is returned by Read when the manifest contains carriage returns.
var ErrCRLF = errors.New("manifest contains \\r line endings")

// Writer appends sample names to a freshly truncated manifest file.
type Writer struct {
	f      *os.File
	buf    *bufio.Writer
	count  int
	closed bool
}

// Create opens path for writing, truncating any existing manifest.
func Create(path string) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating manifest %s: %w", path, err)
	}
	return &Writer{f: f, buf: bufio.NewWriter(f)}, nil
}

// Add writes name followed by '\n'.
func (w *Writer) Add(name string) error {
	if w.closed {
		return errors.New("manifest: write after close")
	}
	if err := ValidateName(name); err != nil {
		return err
	}
	if _, err := w.buf.WriteString(name); err != nil {
		return fmt.Errorf("writing manifest: %w", err)
	}
	if err := w.buf.WriteByte('\n'); err != nil {
		return fmt.Errorf("writing manifest: %w", err)
	}
	w.count++
	return nil
}

// ValidateName reports whether name can be stored as a single manifest line.
func ValidateName(name string) error {
	if name == "" || strings.ContainsAny(name, "\r\n") {
		return fmt.Errorf("manifest: invalid sample name %q", name)
	}
	return nil
}

// Len returns the number of names written so far.
func (w *Writer) Len() int {
	return w.count
}

// Close flushes buffered lines and closes the file. Calling Close more than
// once returns nil.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	flushErr := w.buf.Flush()
	closeErr := w.f.Close()
	if flushErr != nil {
		return fmt.Errorf("flushing manifest: %w", flushErr)
	}
	if closeErr != nil {
		return fmt.Errorf("closing manifest: %w", closeErr)
	}
	return nil
}

// Read returns the sample names listed in the manifest at path, in file order.
// An empty file yields an empty slice.
func Read(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}
	if bytes.IndexByte(data, '\r') >= 0 {
		return nil, fmt.Errorf("%s: %w", path, ErrCRLF)
	}

	names := []string{}
	for _, line := range strings.SplitAfter(string(data), "\n") {
		if line == "" {
			continue
		}
		if !strings.HasSuffix(line, "\n") {
			return nil, fmt.Errorf("%s: last line %q is not newline-terminated", path, line)
		}
		names = append(names, strings.TrimSuffix(line, "\n"))
	}
	return names, nil
}
