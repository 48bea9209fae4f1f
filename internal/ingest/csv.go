// Package ingest turns uploaded CSV and JSON documents into engine rows.
//
// Parsing is lenient: ragged records, blank lines and odd headers are
// accepted so that malformed data reaches the detectors instead of being
// rejected here. Only unreadable input fails, with an error wrapping
// core.ErrParseFailure.
package ingest

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/JonMunkholm/dataquality/internal/core"
)

// MaxFileSize is the default upload size limit (100MB).
var MaxFileSize int64 = 100 * 1024 * 1024

// MaxHeaderSearchRows is how many leading records may be blank before the header.
var MaxHeaderSearchRows = 20

// ContextCheckInterval is how often (in records) parsing checks for cancellation.
var ContextCheckInterval = 500

// ErrEmptyFile is returned when the input has no header row.
var ErrEmptyFile = errors.New("empty file")

// Table is a parsed document.
type Table struct {
	Columns []string
	Rows    []core.Row
}

// Options tunes CSV parsing.
type Options struct {
	Comma    rune
	MaxBytes int64
}

// ReadCSV parses a CSV stream. The first non-blank record is the header.
// Short records leave trailing columns nil; extra cells are dropped.
func ReadCSV(ctx context.Context, r io.Reader, opts Options) (*Table, error) {
	if opts.MaxBytes == 0 {
		opts.MaxBytes = MaxFileSize
	}

	cr := csv.NewReader(Wrap(r, opts.MaxBytes))
	if opts.Comma != 0 {
		cr.Comma = opts.Comma
	}
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.ReuseRecord = true

	header, err := readHeader(cr)
	if err != nil {
		return nil, err
	}
	t := &Table{Columns: header}

	for n := 0; ; n++ {
		if n%ContextCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, readError(err)
		}
		if isEmptyRecord(rec) {
			continue
		}
		row := make(core.Row, len(header))
		for i, col := range header {
			if i < len(rec) {
				row[col] = rec[i]
			} else {
				row[col] = nil
			}
		}
		t.Rows = append(t.Rows, row)
	}
	if t.Rows == nil {
		t.Rows = []core.Row{}
	}
	return t, nil
}

func readHeader(cr *csv.Reader) ([]string, error) {
	for i := 0; i < MaxHeaderSearchRows; i++ {
		rec, err := cr.Read()
		if err == io.EOF {
			return nil, fmt.Errorf("%w: %w", core.ErrParseFailure, ErrEmptyFile)
		}
		if err != nil {
			return nil, readError(err)
		}
		if !isEmptyRecord(rec) {
			return NormalizeHeader(rec), nil
		}
	}
	return nil, fmt.Errorf("%w: no header in the first %d records", core.ErrParseFailure, MaxHeaderSearchRows)
}

func readError(err error) error {
	if errors.Is(err, ErrFileTooLarge) {
		return err
	}
	return fmt.Errorf("%w: %w", core.ErrParseFailure, err)
}

// NormalizeHeader trims header names, names blank columns column_N and
// suffixes repeats with _2, _3 and so on.
func NormalizeHeader(rec []string) []string {
	out := make([]string, len(rec))
	seen := make(map[string]int, len(rec))
	for i, h := range rec {
		name := strings.TrimSpace(h)
		if name == "" {
			name = fmt.Sprintf("column_%d", i+1)
		}
		seen[name]++
		if c := seen[name]; c > 1 {
			name = fmt.Sprintf("%s_%d", name, c)
		}
		out[i] = name
	}
	return out
}

func isEmptyRecord(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
