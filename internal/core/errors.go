package core

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by the engine. Callers wrap them with context via
// fmt.Errorf and match with errors.Is.
var (
	// ErrNotFound is returned when a table, issue or action does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidOption is returned when the chosen option is not offered for the issue.
	ErrInvalidOption = errors.New("invalid remediation option")

	// ErrInvalidConfig is returned when a scoring configuration update is malformed.
	ErrInvalidConfig = errors.New("invalid scoring config")

	// ErrUnsupportedMethod is returned for an action/method pair with no transform.
	ErrUnsupportedMethod = errors.New("unsupported remediation method")

	// ErrParseFailure is returned by ingestion when input cannot be read as rows.
	ErrParseFailure = errors.New("parse failure")

	// ErrInvalidInput is returned for malformed override or status requests.
	ErrInvalidInput = errors.New("invalid input")
)

// Narrower not-found errors. Both match ErrNotFound with errors.Is.
var (
	ErrTableNotFound = fmt.Errorf("table %w", ErrNotFound)
	ErrIssueNotFound = fmt.Errorf("issue %w", ErrNotFound)
)

func tableNotFound(tableID string) error {
	return fmt.Errorf("%w: %s", ErrTableNotFound, tableID)
}

func issueNotFound(issueID string) error {
	return fmt.Errorf("%w: %s", ErrIssueNotFound, issueID)
}

// ErrNoColumns is returned when a dataset has neither rows nor a header.
var ErrNoColumns = errors.New("table has no columns")

func isNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
