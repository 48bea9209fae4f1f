package web

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/dataquality/internal/core"
)

// maxBodySize caps JSON request bodies that are not dataset uploads.
const maxBodySize = 1 << 20

// parseIntParam parses a non-negative integer query parameter with a default value.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	val := r.URL.Query().Get(name)
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil || i < 0 {
		return defaultVal
	}
	return i
}

// decodeJSON reads a small JSON body into v, rejecting unknown fields.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("empty request body")
		}
		return err
	}
	return nil
}

// parseIssueFilter reads status, severity, type and column query parameters.
func parseIssueFilter(r *http.Request) (core.IssueFilter, error) {
	q := r.URL.Query()
	f := core.IssueFilter{
		Status:   core.IssueStatus(strings.ToLower(q.Get("status"))),
		Severity: core.Severity(strings.ToLower(q.Get("severity"))),
		Type:     core.IssueType(strings.ToLower(q.Get("type"))),
		Column:   q.Get("column"),
	}
	if f.Status != "" && !f.Status.Valid() {
		return f, errors.New("unknown status filter")
	}
	if f.Severity != "" && !f.Severity.Valid() {
		return f, errors.New("unknown severity filter")
	}
	return f, nil
}

// tableIDParam returns the {tableID} path parameter.
func tableIDParam(r *http.Request) string {
	return chi.URLParam(r, "tableID")
}

// issueIDParam returns the {issueID} path parameter.
func issueIDParam(r *http.Request) string {
	return chi.URLParam(r, "issueID")
}

// pageRows returns rows[offset:offset+limit] clamped to the slice bounds.
func pageRows(rows []core.Row, offset, limit int) []core.Row {
	if offset >= len(rows) {
		return []core.Row{}
	}
	end := len(rows)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return rows[offset:end]
}
