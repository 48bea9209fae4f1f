package web

import (
	"errors"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/JonMunkholm/dataquality/internal/core"
	"github.com/JonMunkholm/dataquality/internal/ingest"
	"github.com/JonMunkholm/dataquality/internal/logging"
)

// defaultRowPage is the row page size when no limit is given.
const defaultRowPage = 100

// tableResponse describes a stored table without its rows.
type tableResponse struct {
	core.DatasetInfo
	Columns    []string    `json:"columns"`
	HasOverlay bool        `json:"hasOverlay"`
	CreatedAt  time.Time   `json:"createdAt"`
	KPIs       core.KPISet `json:"kpis"`
}

func (s *Server) describeTable(r *http.Request, ds *core.Dataset) (tableResponse, error) {
	kpis, err := s.service.GetKPIs(r.Context(), ds.TableID)
	if err != nil {
		return tableResponse{}, err
	}
	return tableResponse{
		DatasetInfo: ds.Info(),
		Columns:     ds.Columns,
		HasOverlay:  ds.HasOverlay(),
		CreatedAt:   ds.CreatedAt,
		KPIs:        kpis,
	}, nil
}

// handleListTables returns a summary of every stored table.
func (s *Server) handleListTables(w http.ResponseWriter, r *http.Request) {
	tables, err := s.service.ListTables(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	if tables == nil {
		tables = []core.DatasetInfo{}
	}
	writeJSON(w, http.StatusOK, tables)
}

// handleCreateTable ingests a JSON document: either a bare array of row
// objects or {"name", "columns", "rows"}.
func (s *Server) handleCreateTable(w http.ResponseWriter, r *http.Request) {
	name, table, err := ingest.ReadJSON(r.Context(), r.Body, s.cfg.Upload.MaxFileSize)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if q := r.URL.Query().Get("name"); q != "" {
		name = q
	}
	s.ingestTable(w, r, name, table)
}

// handleUploadTable ingests a multipart file upload. Files ending in .json
// are read as JSON, everything else as CSV.
func (s *Server) handleUploadTable(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Upload.MaxFileSize+(1<<20))
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(w, r, ingest.ErrFileTooLarge)
			return
		}
		respondErrorStatus(w, r, err, http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respondErrorStatus(w, r, errors.New("no file provided"), http.StatusBadRequest)
		return
	}
	defer file.Close()

	name := r.FormValue("name")
	if name == "" {
		name = strings.TrimSuffix(header.Filename, filepath.Ext(header.Filename))
	}

	var table *ingest.Table
	if strings.EqualFold(filepath.Ext(header.Filename), ".json") {
		var docName string
		docName, table, err = ingest.ReadJSON(r.Context(), file, s.cfg.Upload.MaxFileSize)
		if docName != "" && r.FormValue("name") == "" {
			name = docName
		}
	} else {
		opts := ingest.Options{MaxBytes: s.cfg.Upload.MaxFileSize}
		if d := r.FormValue("delimiter"); d != "" {
			opts.Comma = []rune(d)[0]
		}
		table, err = ingest.ReadCSV(r.Context(), file, opts)
	}
	if err != nil {
		respondError(w, r, err)
		return
	}

	s.ingestTable(w, r, name, table)
}

func (s *Server) ingestTable(w http.ResponseWriter, r *http.Request, name string, table *ingest.Table) {
	if name == "" {
		name = "untitled"
	}
	ctx := WithRequestMetadata(r.Context(), r)
	ds, err := s.service.Ingest(ctx, name, table.Columns, table.Rows)
	if err != nil {
		respondError(w, r, err)
		return
	}

	resp, err := s.describeTable(r, ds)
	if err != nil {
		respondError(w, r, err)
		return
	}
	logging.ForTable(r.Context(), ds.TableID).Info("table ingested via api",
		"name", ds.Name,
		"rows", len(ds.Original),
	)
	writeJSON(w, http.StatusCreated, resp)
}

// handleGetTable returns the table summary and its current quality index.
func (s *Server) handleGetTable(w http.ResponseWriter, r *http.Request) {
	ds, err := s.service.GetDataset(r.Context(), tableIDParam(r))
	if err != nil {
		respondError(w, r, err)
		return
	}
	resp, err := s.describeTable(r, ds)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleTableRows pages through the current rows, or the original rows when
// version=original.
func (s *Server) handleTableRows(w http.ResponseWriter, r *http.Request) {
	ds, err := s.service.GetDataset(r.Context(), tableIDParam(r))
	if err != nil {
		respondError(w, r, err)
		return
	}

	rows, version := ds.Current(), "current"
	if r.URL.Query().Get("version") == "original" {
		rows, version = ds.Original, "original"
	}
	offset := parseIntParam(r, "offset", 0)
	limit := parseIntParam(r, "limit", defaultRowPage)

	writeJSON(w, http.StatusOK, map[string]any{
		"version": version,
		"columns": ds.Columns,
		"total":   len(rows),
		"offset":  offset,
		"rows":    pageRows(rows, offset, limit),
	})
}

// handleDeleteTable removes a table and all of its lineage.
func (s *Server) handleDeleteTable(w http.ResponseWriter, r *http.Request) {
	if err := s.service.DeleteTable(r.Context(), tableIDParam(r)); err != nil {
		respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleAnalyze re-profiles and re-detects on the current rows.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	res, err := s.service.Analyze(WithRequestMetadata(r.Context(), r), tableIDParam(r))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// handleResetTable discards the cleaned overlay.
func (s *Server) handleResetTable(w http.ResponseWriter, r *http.Request) {
	res, err := s.service.ResetTable(WithRequestMetadata(r.Context(), r), tableIDParam(r))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// handleProfiles returns column profiles in column order.
func (s *Server) handleProfiles(w http.ResponseWriter, r *http.Request) {
	profiles, err := s.service.GetProfiles(r.Context(), tableIDParam(r))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, profiles)
}

// handleKPIs returns the current quality index.
func (s *Server) handleKPIs(w http.ResponseWriter, r *http.Request) {
	kpis, err := s.service.GetKPIs(r.Context(), tableIDParam(r))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, kpis)
}

// handleComparison contrasts the ingest-time index with the current one.
func (s *Server) handleComparison(w http.ResponseWriter, r *http.Request) {
	cmp, err := s.service.GetComparison(r.Context(), tableIDParam(r))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cmp)
}

// handleLineage lists remediation actions, most recent first.
func (s *Server) handleLineage(w http.ResponseWriter, r *http.Request) {
	actions, err := s.service.ListActions(r.Context(), tableIDParam(r))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, actions)
}
