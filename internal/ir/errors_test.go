package ir

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorMessage(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{
			name: "unknown column",
			err:  NewUnknownColumnError(StageWhere, "cz"),
			want: "SCHEMA_RESOLUTION: column not found in schema (column=cz, stage=where)",
		},
		{
			name: "unsupported node",
			err:  NewUnsupportedError(StageSelect, "count(*)", "function calls are not supported"),
			want: `UNSUPPORTED_CONSTRUCT: function calls are not supported (stage=select, node="count(*)")`,
		},
		{
			name: "source error with cause",
			err:  NewSourceError("ta.csv", errors.New("no header")),
			want: "SCHEMA_RESOLUTION: cannot resolve source schema (source=ta.csv, stage=schema): no header",
		},
		{
			name: "codegen invariant",
			err:  NewCodeGenInvariantError(StageWrite, "x"),
			want: "CODEGEN_INVARIANT: column has no resolved type (column=x, stage=write)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestErrorPredicatesThroughWrapping(t *testing.T) {
	cause := errors.New("syntax error at position 7")
	wrapped := fmt.Errorf("compile q.sql: %w", NewParseError(cause))

	assert.True(t, IsParseError(wrapped))
	assert.False(t, IsUnsupported(wrapped))
	assert.ErrorIs(t, wrapped, cause)
	assert.Equal(t, ErrCodeParse, ErrorCodeOf(wrapped))

	assert.True(t, IsResolution(NewResolutionError(StageSelect, "t.ca", "qualified")))
	assert.True(t, IsSchemaResolution(NewUnknownColumnError(StageSelect, "ca")))
	assert.True(t, IsUnsupported(NewUnsupportedError(StageFrom, "a, b", "comma joins")))
	assert.True(t, IsCodeGenInvariant(NewCodeGenInvariantError(StageSort, "ca")))

	assert.Equal(t, ErrorCode(""), ErrorCodeOf(errors.New("plain")))
	assert.Equal(t, ErrorCode(""), ErrorCodeOf(nil))
}
