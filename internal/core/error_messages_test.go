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
			name:        "file too large",
			err:         fmt.Errorf("%w: exceeds 10 bytes", ErrFileTooLarge),
			wantCode:    "FILE001",
			wantMessage: "File exceeds the maximum upload size",
		},
		{
			name:        "invalid csv",
			err:         errors.New("invalid csv: line 3 has 4 fields, expected 2"),
			wantCode:    "FILE002",
			wantMessage: "File is not a valid CSV",
		},
		{
			name:     "invalid workbook",
			err:      errors.New("invalid xlsx: zip: not a valid zip file"),
			wantCode: "FILE002",
		},
		{
			name:     "empty file",
			err:      ErrEmptyFile,
			wantCode: "FILE005",
		},
		{
			name:     "unsupported file type",
			err:      fmt.Errorf("%w: .pdf", ErrUnsupportedFile),
			wantCode: "FILE006",
		},
		{
			name:     "rename collision",
			err:      &CollisionError{Targets: map[string][]string{"x": {"a", "b"}}},
			wantCode: "REN001",
		},
		{
			name:        "unknown column",
			err:         fmt.Errorf("%q: %w", "zip", ErrUnknownColumn),
			wantCode:    "COL001",
			wantMessage: "Column not found",
		},
		{
			name:     "not categorical",
			err:      fmt.Errorf("%q: %w", "age", ErrNotCategorical),
			wantCode: "MAP001",
		},
		{
			name:     "no mapping declared",
			err:      fmt.Errorf("%q: %w", "color", ErrNoMapping),
			wantCode: "MAP003",
		},
		{
			name:     "session expired",
			err:      ErrSessionNotFound,
			wantCode: "SES001",
		},
		{
			name:     "no dataset",
			err:      ErrNoDataset,
			wantCode: "SES003",
		},
		{
			name:     "limiter busy",
			err:      ErrTooManyUploads,
			wantCode: "UPL002",
		},
		{
			name:     "context cancelled",
			err:      context.Canceled,
			wantCode: "UPL004",
		},
		{
			name:        "connection refused",
			err:         errors.New("dial tcp: connection refused"),
			wantCode:    "DB004",
			wantMessage: "Unable to connect to database",
		},
		{
			name:        "rate limit",
			err:         errors.New("rate limit exceeded"),
			wantCode:    "RATE001",
			wantMessage: "Too many requests",
		},
		{
			name:        "unknown error returns default",
			err:         errors.New("some random internal error"),
			wantCode:    "ERR000",
			wantMessage: "An unexpected error occurred",
		},
		{
			name:     "case insensitive matching",
			err:      errors.New("INVALID CSV: bare quote"),
			wantCode: "FILE002",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapError(tt.err)
			if got.Code != tt.wantCode {
				t.Errorf("MapError() code = %q, want %q", got.Code, tt.wantCode)
			}
			if tt.wantMessage != "" && got.Message != tt.wantMessage {
				t.Errorf("MapError() message = %q, want %q", got.Message, tt.wantMessage)
			}
		})
	}
}

func TestFormatUserError(t *testing.T) {
	err := fmt.Errorf("%q: %w", "zip", ErrUnknownColumn)
	result := FormatUserError(err)

	expected := "Column not found (Code: COL001). Refresh the page; the column may have been renamed"
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
		{
			name: "nil error is not user facing",
			err:  nil,
			want: false,
		},
		{
			name: "known error is user facing",
			err:  ErrEmptyFile,
			want: true,
		},
		{
			name: "unknown error is not user facing",
			err:  errors.New("random internal error xyz"),
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := IsUserFacing(tt.err)
			if got != tt.want {
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
		techErr := fmt.Errorf("%q: %w", "age", ErrNotCategorical)
		userErr := NewUserError(techErr)

		if userErr.Error() != "Mapping not applicable: the column is not categorical" {
			t.Errorf("Error() = %q, want user message", userErr.Error())
		}

		if !errors.Is(userErr, ErrNotCategorical) {
			t.Error("Unwrap() should return original error")
		}
	})
}
