// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package catalog

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iwatake2222/InferenceHelper/pkg/types"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "db", "catalog.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleRun(in string, names ...string) types.Run {
	run := types.Run{
		StartedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		InputDir:  in,
		OutputDir: "out",
		Width:     224,
		Height:    224,
		Filter:    "bicubic",
	}
	for _, n := range names {
		run.Samples = append(run.Samples, types.Sample{
			Name:         n,
			Source:       filepath.Join(in, n+".jpg"),
			Output:       filepath.Join("out", n+".ppm"),
			SourceWidth:  100,
			SourceHeight: 150,
			Width:        224,
			Height:       224,
			Format:       types.FormatRGB,
		})
	}
	return run
}

func TestRecordAndRun(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	in := sampleRun("images", "dog", "cat")
	id, err := s.Record(ctx, in)
	require.NoError(t, err)
	assert.Positive(t, id)

	got, err := s.Run(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, id, got.ID)
	assert.Equal(t, 2, got.Count)
	assert.True(t, in.StartedAt.Equal(got.StartedAt))
	assert.Equal(t, "bicubic", got.Filter)
	require.Len(t, got.Samples, 2)
	assert.Equal(t, "dog", got.Samples[0].Name, "samples keep manifest order")
	assert.Equal(t, in.Samples[1], got.Samples[1])
}

func TestRunsNewestFirst(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	for _, dir := range []string{"first", "second", "third"} {
		_, err := s.Record(ctx, sampleRun(dir, "a"))
		require.NoError(t, err)
	}

	runs, err := s.Runs(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "third", runs[0].InputDir)
	assert.Equal(t, "second", runs[1].InputDir)
	assert.Empty(t, runs[0].Samples)
	assert.Equal(t, 1, runs[0].Count)
}

func TestRecordEmptyRun(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	id, err := s.Record(ctx, sampleRun("empty"))
	require.NoError(t, err)

	got, err := s.Run(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 0, got.Count)
	assert.Empty(t, got.Samples)
}

func TestRunNotFound(t *testing.T) {
	s := testStore(t)
	_, err := s.Run(context.Background(), 42)
	assert.ErrorIs(t, err, ErrRunNotFound)
}

func TestReopenKeepsRuns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.db")
	ctx := context.Background()

	s, err := Open(path)
	require.NoError(t, err)
	_, err = s.Record(ctx, sampleRun("persisted", "x"))
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()
	runs, err := s.Runs(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "persisted", runs[0].InputDir)
}
