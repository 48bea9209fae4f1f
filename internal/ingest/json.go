package ingest

import (
	"context"
	"fmt"
	"io"

	"github.com/tidwall/gjson"

	"github.com/JonMunkholm/dataquality/internal/core"
)

// ReadJSON parses either a bare array of objects or an object of the form
// {"name": ..., "columns": [...], "rows": [...]}. Column order follows first
// appearance in the document. Nested values are kept as raw JSON text.
func ReadJSON(ctx context.Context, r io.Reader, maxBytes int64) (name string, t *Table, err error) {
	if maxBytes == 0 {
		maxBytes = MaxFileSize
	}
	data, err := io.ReadAll(Wrap(r, maxBytes))
	if err != nil {
		return "", nil, readError(err)
	}
	if len(data) == 0 {
		return "", nil, fmt.Errorf("%w: %w", core.ErrParseFailure, ErrEmptyFile)
	}
	if !gjson.ValidBytes(data) {
		return "", nil, fmt.Errorf("%w: invalid JSON", core.ErrParseFailure)
	}

	doc := gjson.ParseBytes(data)
	rows := doc
	var columns []string
	if doc.IsObject() {
		name = doc.Get("name").String()
		rows = doc.Get("rows")
		for _, c := range doc.Get("columns").Array() {
			columns = append(columns, c.String())
		}
	}
	if !rows.IsArray() {
		return "", nil, fmt.Errorf("%w: expected an array of row objects", core.ErrParseFailure)
	}

	t, err = rowsFromJSON(ctx, rows, columns)
	if err != nil {
		return "", nil, err
	}
	return name, t, nil
}

// RowsFromJSON converts a JSON array of objects held in raw.
func RowsFromJSON(ctx context.Context, raw []byte) (*Table, error) {
	if !gjson.ValidBytes(raw) {
		return nil, fmt.Errorf("%w: invalid JSON", core.ErrParseFailure)
	}
	res := gjson.ParseBytes(raw)
	if !res.IsArray() {
		return nil, fmt.Errorf("%w: expected an array of row objects", core.ErrParseFailure)
	}
	return rowsFromJSON(ctx, res, nil)
}

func rowsFromJSON(ctx context.Context, arr gjson.Result, columns []string) (*Table, error) {
	seen := make(map[string]bool, len(columns))
	for _, c := range columns {
		seen[c] = true
	}
	t := &Table{Rows: []core.Row{}}

	var rowErr error
	n := 0
	arr.ForEach(func(_, item gjson.Result) bool {
		if n%ContextCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				rowErr = err
				return false
			}
		}
		n++
		if !item.IsObject() {
			rowErr = fmt.Errorf("%w: row %d is not an object", core.ErrParseFailure, n)
			return false
		}
		row := make(core.Row)
		item.ForEach(func(key, val gjson.Result) bool {
			k := key.String()
			row[k] = jsonValue(val)
			if !seen[k] {
				seen[k] = true
				columns = append(columns, k)
			}
			return true
		})
		t.Rows = append(t.Rows, row)
		return true
	})
	if rowErr != nil {
		return nil, rowErr
	}
	t.Columns = columns
	return t, nil
}

// jsonValue maps a gjson value onto the engine's cell types.
func jsonValue(v gjson.Result) any {
	switch v.Type {
	case gjson.Null:
		return nil
	case gjson.True:
		return true
	case gjson.False:
		return false
	case gjson.Number:
		return v.Num
	case gjson.String:
		return v.Str
	default:
		return v.Raw
	}
}
