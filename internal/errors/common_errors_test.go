package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name        string
		appError    *AppError
		wantMessage string
	}{
		{
			name:        "error without cause",
			appError:    &AppError{Type: ErrTypeConfig, Message: "no poverty lines configured"},
			wantMessage: "[CONFIG] no poverty lines configured",
		},
		{
			name:        "error with cause",
			appError:    &AppError{Type: ErrTypeNetwork, Message: "query failed", Cause: errors.New("connection reset")},
			wantMessage: "[NETWORK] query failed: connection reset",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantMessage, tt.appError.Error())
		})
	}
}

func TestAppError_UnwrapAndIsType(t *testing.T) {
	cause := errors.New("disk full")
	err := fmt.Errorf("export: %w", NewStorageError("write csv", cause))

	assert.ErrorIs(t, err, cause)
	assert.True(t, IsType(err, ErrTypeStorage))
	assert.False(t, IsType(err, ErrTypeParsing))
	assert.False(t, IsType(cause, ErrTypeStorage))
}

func TestAppError_WithContext(t *testing.T) {
	err := (&AppError{Type: ErrTypeConfig, Message: "bad"}).WithContext("field", "pipeline.poverty_lines")
	assert.Equal(t, "pipeline.poverty_lines", err.Context["field"])
}

func TestRetriesExhausted(t *testing.T) {
	last := &StatusError{StatusCode: 503, URL: "http://pip/pip"}
	err := RetriesExhausted(4, last)

	require.ErrorIs(t, err, ErrRetriesExhausted)
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, 503, statusErr.StatusCode)
	assert.Contains(t, err.Error(), "after 4 attempts")
}

func TestStatusError_Temporary(t *testing.T) {
	tests := []struct {
		status int
		want   bool
	}{
		{status: 500, want: true},
		{status: 503, want: true},
		{status: 429, want: true},
		{status: 408, want: true},
		{status: 404, want: false},
		{status: 400, want: false},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.status), func(t *testing.T) {
			assert.Equal(t, tt.want, (&StatusError{StatusCode: tt.status}).Temporary())
		})
	}
}

func TestUnmappedEntityError(t *testing.T) {
	err := &UnmappedEntityError{Names: []string{"Atlantis", "Lemuria"}}
	assert.Equal(t, "2 entities have no canonical name: Atlantis, Lemuria", err.Error())
}

func TestDuplicateIndexError(t *testing.T) {
	keys := make([]string, 12)
	for i := range keys {
		keys[i] = fmt.Sprintf("Chile|%d", 2000+i)
	}
	err := &DuplicateIndexError{Index: []string{"country", "year"}, Keys: keys}

	msg := err.Error()
	assert.Contains(t, msg, "duplicate country,year index values (12)")
	assert.Contains(t, msg, "Chile|2009")
	assert.NotContains(t, msg, "Chile|2010")
}
