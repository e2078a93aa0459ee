package chart_test

import (
	"bytes"
	"os"
	"testing"
	"time"

	"deadline_bot/internal/domain/progress"
	"deadline_bot/internal/infra/chart"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngMagic = []byte("\x89PNG\r\n\x1a\n")

func sampleRecord() progress.Record {
	return progress.Record{Entries: []progress.Entry{
		{Date: time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC), Pages: 0},
		{Date: time.Date(2021, 1, 5, 0, 0, 0, 0, time.UTC), Pages: 22},
		{Date: time.Date(2021, 1, 10, 0, 0, 0, 0, time.UTC), Pages: 40},
	}}
}

func TestNewPlot_YAxisStartsAtZero(t *testing.T) {
	goal := progress.Goal{Deadline: time.Date(2021, 2, 1, 0, 0, 0, 0, time.UTC), Pages: 100}

	p, err := chart.NewPlot(sampleRecord(), goal, time.Date(2021, 1, 10, 7, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	assert.Equal(t, 0.0, p.Y.Min)
	assert.Equal(t, 100.0, p.Y.Max)
	assert.Equal(t, "Date", p.X.Label.Text)
	assert.Equal(t, "Pages", p.Y.Label.Text)
	assert.Equal(t, float64(time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC).Unix()), p.X.Min)
	assert.Equal(t, float64(time.Date(2021, 2, 1, 0, 0, 0, 0, time.UTC).Unix()), p.X.Max)
}

func TestNewPlot_YAxisForcedToZeroWhenDataStartsHigh(t *testing.T) {
	rec := progress.Record{Entries: []progress.Entry{
		{Date: time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC), Pages: 250},
		{Date: time.Date(2021, 1, 3, 0, 0, 0, 0, time.UTC), Pages: 260},
	}}
	goal := progress.Goal{Deadline: time.Date(2021, 1, 20, 0, 0, 0, 0, time.UTC), Pages: 300}

	p, err := chart.NewPlot(rec, goal, time.Date(2021, 1, 3, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 0.0, p.Y.Min)
	assert.Equal(t, 300.0, p.Y.Max)
}

func TestRenderer_RenderWritesPNGAndCleanupRemovesIt(t *testing.T) {
	dir := t.TempDir()
	goal := progress.Goal{Deadline: time.Date(2021, 2, 1, 0, 0, 0, 0, time.UTC), Pages: 100}

	path, err := chart.NewRenderer(dir).Render(sampleRecord(), goal, time.Date(2021, 1, 10, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.FileExists(t, path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, pngMagic), "chart is not a PNG")

	require.NoError(t, os.Remove(path))
	assert.NoFileExists(t, path)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRenderer_EmptyRecordLeavesNoFile(t *testing.T) {
	dir := t.TempDir()
	_, err := chart.NewRenderer(dir).Render(progress.Record{}, progress.Goal{Pages: 1}, time.Now())
	require.ErrorIs(t, err, progress.ErrDataUnavailable)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
