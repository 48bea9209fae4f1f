package core

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantCode    string
		wantMessage string
	}{
		{
			name:        "nil error returns empty",
			err:         nil,
			wantCode:    "",
			wantMessage: "",
		},
		{
			name:        "missing table",
			err:         tableNotFound("t-1"),
			wantCode:    "TBL001",
			wantMessage: "Table not found",
		},
		{
			name:        "missing issue",
			err:         issueNotFound("i-1"),
			wantCode:    "DQ001",
			wantMessage: "Issue not found",
		},
		{
			name:        "option not in catalog",
			err:         fmt.Errorf("apply remediation: %w: hash", ErrInvalidOption),
			wantCode:    "REM001",
			wantMessage: "This option is not available for the issue",
		},
		{
			name:        "unsupported method",
			err:         fmt.Errorf("%w: cap/mean", ErrUnsupportedMethod),
			wantCode:    "REM002",
			wantMessage: "This remediation cannot be applied automatically",
		},
		{
			name:        "invalid config",
			err:         fmt.Errorf("%w: highThreshold must be <= 1", ErrInvalidConfig),
			wantCode:    "CFG001",
			wantMessage: "Scoring configuration is invalid",
		},
		{
			name:        "busy limiter",
			err:         ErrTooManyJobs,
			wantCode:    "DQ003",
			wantMessage: "System is busy",
		},
		{
			name:        "cancelled request",
			err:         fmt.Errorf("analyze: %w", context.Canceled),
			wantCode:    "REQ001",
			wantMessage: "Request was cancelled",
		},
		{
			name:        "sqlite busy",
			err:         errors.New("database is locked (5) (SQLITE_BUSY)"),
			wantCode:    "STO002",
			wantMessage: "Storage was busy with conflicting operations",
		},
		{
			name:        "unknown error returns default",
			err:         errors.New("some random internal error"),
			wantCode:    "ERR000",
			wantMessage: "An unexpected error occurred",
		},
		{
			name:        "case insensitive matching",
			err:         errors.New("PARSE FAILURE: bad quote"),
			wantCode:    "ING001",
			wantMessage: "The data could not be read",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapError(tt.err)
			if got.Code != tt.wantCode {
				t.Errorf("MapError() code = %q, want %q", got.Code, tt.wantCode)
			}
			if got.Message != tt.wantMessage {
				t.Errorf("MapError() message = %q, want %q", got.Message, tt.wantMessage)
			}
		})
	}
}

func TestNotFoundErrorsMatchSentinel(t *testing.T) {
	for _, err := range []error{tableNotFound("x"), issueNotFound("y")} {
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("errors.Is(%v, ErrNotFound) = false, want true", err)
		}
	}
	if errors.Is(tableNotFound("x"), ErrIssueNotFound) {
		t.Error("table error matched ErrIssueNotFound")
	}
}

func TestFormatUserError(t *testing.T) {
	result := FormatUserError(tableNotFound("abc"))

	expected := "Table not found (Code: TBL001). Verify the table id is correct"
	if result != expected {
		t.Errorf("FormatUserError() = %q, want %q", result, expected)
	}
}

func TestIsUserFacing(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil error is not user facing", nil, false},
		{"known error is user facing", ErrInvalidOption, true},
		{"unknown error is not user facing", errors.New("random internal error xyz"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsUserFacing(tt.err); got != tt.want {
				t.Errorf("IsUserFacing() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewUserError(t *testing.T) {
	t.Run("nil error returns nil", func(t *testing.T) {
		if got := NewUserError(nil); got != nil {
			t.Errorf("NewUserError(nil) = %v, want nil", got)
		}
	})

	t.Run("wraps technical error with user message", func(t *testing.T) {
		techErr := fmt.Errorf("%w: deadbeef", ErrIssueNotFound)
		userErr := NewUserError(techErr)

		if userErr.Error() != "Issue not found" {
			t.Errorf("Error() = %q, want user message", userErr.Error())
		}
		if !errors.Is(userErr, ErrNotFound) {
			t.Error("Unwrap() should expose ErrNotFound")
		}
	})
}
