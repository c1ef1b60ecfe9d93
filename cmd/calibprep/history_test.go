// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iwatake2222/InferenceHelper/pkg/types"
)

func historyRuns() []types.Run {
	return []types.Run{{
		ID:        7,
		StartedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		InputDir:  "images",
		OutputDir: "calib",
		Width:     224,
		Height:    224,
		Filter:    "bicubic",
		Count:     1,
		Samples:   []types.Sample{{Name: "cat", Source: "images/cat.jpg", SourceWidth: 100, SourceHeight: 150}},
	}}
}

func TestFormatHistoryTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, formatHistory(&buf, historyRuns(), "table"))

	out := buf.String()
	assert.Contains(t, out, "224x224")
	assert.Contains(t, out, "images -> calib")
	assert.Contains(t, out, "cat")
	assert.Contains(t, out, "100x150")
}

func TestFormatHistoryEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, formatHistory(&buf, nil, "table"))
	assert.Equal(t, "No runs recorded.\n", buf.String())
}

func TestFormatHistoryJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, formatHistory(&buf, historyRuns(), "json"))

	var got []types.Run
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, int64(7), got[0].ID)
	assert.Equal(t, "cat", got[0].Samples[0].Name)
}

func TestFormatHistoryUnknownFormat(t *testing.T) {
	err := formatHistory(&bytes.Buffer{}, historyRuns(), "csv")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported format")
}

func TestSetupLogging(t *testing.T) {
	assert.NoError(t, setupLogging("debug"))
	assert.NoError(t, setupLogging(""))
	assert.Error(t, setupLogging("loud"))
}
