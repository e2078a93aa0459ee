// internal/infra/csvstore/csv_progress_repository.go
package csvstore

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"deadline_bot/internal/domain/progress"
)

const (
	dateColumn  = "Date"
	pagesColumn = "Pages"
)

// Accepted date layouts, most specific last. Only the calendar date is kept.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
}

// CSVProgressRepository reads the progress log from a CSV file with Date and Pages columns.
// The file is owned by another process that appends to it; this repository never writes.
type CSVProgressRepository struct {
	path string
}

func NewCSVProgressRepository(path string) *CSVProgressRepository {
	return &CSVProgressRepository{path: path}
}

func (r *CSVProgressRepository) Load(ctx context.Context) (progress.Record, error) {
	if err := ctx.Err(); err != nil {
		return progress.Record{}, err
	}

	f, err := os.Open(r.path)
	if err != nil {
		return progress.Record{}, fmt.Errorf("%w: open %s: %v", progress.ErrDataUnavailable, r.path, err)
	}
	defer f.Close()

	record, err := Parse(f)
	if err != nil {
		return progress.Record{}, fmt.Errorf("%s: %w", r.path, err)
	}
	return record, nil
}

// Parse reads a progress log in CSV form. Every failure wraps progress.ErrDataUnavailable.
func Parse(in io.Reader) (progress.Record, error) {
	reader := csv.NewReader(in)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return progress.Record{}, fmt.Errorf("%w: empty file", progress.ErrDataUnavailable)
		}
		return progress.Record{}, fmt.Errorf("%w: read header: %v", progress.ErrDataUnavailable, err)
	}

	dateIdx, pagesIdx := -1, -1
	for i, name := range header {
		switch strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")) {
		case dateColumn:
			dateIdx = i
		case pagesColumn:
			pagesIdx = i
		}
	}
	if dateIdx < 0 || pagesIdx < 0 {
		return progress.Record{}, fmt.Errorf("%w: header must contain %q and %q columns, got %v", progress.ErrDataUnavailable, dateColumn, pagesColumn, header)
	}

	var entries []progress.Entry
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return progress.Record{}, fmt.Errorf("%w: read row: %v", progress.ErrDataUnavailable, err)
		}
		line, _ := reader.FieldPos(0)
		if isBlank(row) {
			continue
		}
		if dateIdx >= len(row) || pagesIdx >= len(row) {
			return progress.Record{}, fmt.Errorf("%w: line %d: expected at least %d fields, got %d", progress.ErrDataUnavailable, line, max(dateIdx, pagesIdx)+1, len(row))
		}

		date, err := parseDate(row[dateIdx])
		if err != nil {
			return progress.Record{}, fmt.Errorf("%w: line %d: %v", progress.ErrDataUnavailable, line, err)
		}
		pages, err := strconv.Atoi(strings.TrimSpace(row[pagesIdx]))
		if err != nil {
			return progress.Record{}, fmt.Errorf("%w: line %d: invalid page count %q", progress.ErrDataUnavailable, line, row[pagesIdx])
		}
		entries = append(entries, progress.Entry{Date: date, Pages: pages})
	}

	if len(entries) == 0 {
		return progress.Record{}, fmt.Errorf("%w: no data rows", progress.ErrDataUnavailable)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Date.Before(entries[j].Date)
	})
	return progress.Record{Entries: entries}, nil
}

func parseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return progress.DateOf(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q", value)
}

func isBlank(row []string) bool {
	for _, field := range row {
		if strings.TrimSpace(field) != "" {
			return false
		}
	}
	return true
}
