package core

import (
	"time"

	"github.com/google/uuid"
)

// RemediationAction is one lineage entry: an applied option (or a reset) and
// the cell-level changes it produced.
type RemediationAction struct {
	ID             string     `json:"id"`
	TableID        string     `json:"tableId"`
	IssueID        string     `json:"issueId,omitempty"`
	OptionID       string     `json:"optionId,omitempty"`
	Action         ActionKind `json:"action"`
	Method         Method     `json:"method"`
	Timestamp      time.Time  `json:"timestamp"`
	Summary        string     `json:"summary"`
	AppliedCount   int        `json:"appliedCount"`
	CandidateCount int        `json:"candidateCount"`
	Changes        []Change   `json:"changes"`
	Actor          string     `json:"actor,omitempty"`
	IPAddress      string     `json:"ipAddress,omitempty"`
	UserAgent      string     `json:"userAgent,omitempty"`
}

// newAction builds the lineage entry for an executed option.
func newAction(tableID string, issue *Issue, opt RemediationOption, res ExecuteResult, meta requestMeta, at time.Time) RemediationAction {
	a := RemediationAction{
		ID:             uuid.NewString(),
		TableID:        tableID,
		OptionID:       opt.ID,
		Action:         opt.Action,
		Method:         opt.Method,
		Timestamp:      at,
		Summary:        res.Summary,
		AppliedCount:   res.AppliedCount,
		CandidateCount: res.CandidateCount,
		Changes:        res.Changes,
		Actor:          meta.actor,
		IPAddress:      meta.ip,
		UserAgent:      meta.userAgent,
	}
	if issue != nil {
		a.IssueID = issue.ID
	}
	if a.Changes == nil {
		a.Changes = []Change{}
	}
	return a
}

// newSnapshot records the quality index around an action.
func newSnapshot(tableID, actionID string, before, after KPISet, at time.Time) KPISnapshot {
	return KPISnapshot{
		ID:          uuid.NewString(),
		ActionID:    actionID,
		TableID:     tableID,
		Timestamp:   at,
		Before:      before,
		After:       after,
		Improvement: Diff(before, after),
	}
}
