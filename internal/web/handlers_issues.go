package web

import (
	"net/http"

	"github.com/JonMunkholm/dataquality/internal/core"
	"github.com/JonMunkholm/dataquality/internal/logging"
)

// handleListIssues lists a table's issues, highest score first.
// Query parameters status, severity, type and column narrow the result.
func (s *Server) handleListIssues(w http.ResponseWriter, r *http.Request) {
	filter, err := parseIssueFilter(r)
	if err != nil {
		badRequest(w, r, err.Error())
		return
	}
	issues, err := s.service.ListIssues(r.Context(), tableIDParam(r), filter)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, issues)
}

// handleGetIssue returns one issue with its typed detail.
func (s *Server) handleGetIssue(w http.ResponseWriter, r *http.Request) {
	is, err := s.service.GetIssue(r.Context(), issueIDParam(r))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, is)
}

// handleOptions lists the remediation options offered for an issue.
func (s *Server) handleOptions(w http.ResponseWriter, r *http.Request) {
	opts, err := s.service.ListRemediationOptions(r.Context(), issueIDParam(r))
	if err != nil {
		respondError(w, r, err)
		return
	}
	if opts == nil {
		opts = []core.RemediationOption{}
	}
	writeJSON(w, http.StatusOK, opts)
}

// handleRemediate applies one option to the table's current rows.
func (s *Server) handleRemediate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		OptionID string `json:"optionId"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		badRequest(w, r, "invalid request body")
		return
	}
	if req.OptionID == "" {
		badRequest(w, r, "optionId is required")
		return
	}

	tableID, issueID := tableIDParam(r), issueIDParam(r)
	logger := logging.WithFields(r.Context(), "table_id", tableID, "issue_id", issueID, "option_id", req.OptionID)
	logger.Info("remediation requested")

	res, err := s.service.ApplyRemediation(WithRequestMetadata(r.Context(), r), tableID, issueID, req.OptionID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// handleSetOverride sets a manual severity and/or score.
func (s *Server) handleSetOverride(w http.ResponseWriter, r *http.Request) {
	var req core.OverrideRequest
	if err := decodeJSON(w, r, &req); err != nil {
		badRequest(w, r, "invalid request body")
		return
	}
	is, err := s.service.SetIssueOverride(WithRequestMetadata(r.Context(), r), issueIDParam(r), req)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, is)
}

// handleClearOverride removes a manual override. Clearing twice is not an error.
func (s *Server) handleClearOverride(w http.ResponseWriter, r *http.Request) {
	is, err := s.service.ClearIssueOverride(WithRequestMetadata(r.Context(), r), issueIDParam(r))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, is)
}

// handleSetStatus moves an issue through its workflow.
func (s *Server) handleSetStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status core.IssueStatus `json:"status"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		badRequest(w, r, "invalid request body")
		return
	}
	is, err := s.service.SetIssueStatus(WithRequestMetadata(r.Context(), r), issueIDParam(r), req.Status)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, is)
}

// handleSuggestion returns advisory text for an issue. An unavailable
// advisor yields an empty suggestion, not an error.
func (s *Server) handleSuggestion(w http.ResponseWriter, r *http.Request) {
	sug, err := s.service.SuggestFix(r.Context(), issueIDParam(r))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sug)
}

// handleGetScoringConfig returns the live scoring configuration.
func (s *Server) handleGetScoringConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.service.ScoringConfig())
}

// handlePatchScoringConfig merges a partial scoring configuration.
func (s *Server) handlePatchScoringConfig(w http.ResponseWriter, r *http.Request) {
	var patch core.ScoringConfigPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		badRequest(w, r, "invalid request body")
		return
	}
	cfg, err := s.service.SetScoringConfig(patch)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}
