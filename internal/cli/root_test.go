package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand_Subcommands(t *testing.T) {
	root := NewRootCommand()
	assert.Equal(t, "dfsqlc", root.Use)

	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	for _, want := range []string{"build", "compile", "explain", "schema", "test", "validate"} {
		assert.Contains(t, names, want)
	}
}

func TestRootCommand_Flags(t *testing.T) {
	tests := []struct {
		path      []string
		flag      string
		shorthand string
		def       string
	}{
		{nil, "verbose", "v", "false"},
		{nil, "format", "", "text"},
		{nil, "config", "", ""},
		{[]string{"compile"}, "output", "o", ""},
		{[]string{"build"}, "force", "", "false"},
		{[]string{"test"}, "update", "", "false"},
		{[]string{"test"}, "filter", "", ""},
	}

	root := NewRootCommand()
	for _, tt := range tests {
		t.Run(tt.flag, func(t *testing.T) {
			cmd := root
			if tt.path != nil {
				var err error
				cmd, _, err = root.Find(tt.path)
				require.NoError(t, err)
			}

			f := cmd.Flags().Lookup(tt.flag)
			if f == nil {
				f = cmd.PersistentFlags().Lookup(tt.flag)
			}
			require.NotNil(t, f, "flag --%s", tt.flag)
			assert.Equal(t, tt.shorthand, f.Shorthand)
			assert.Equal(t, tt.def, f.DefValue)
		})
	}
}

func TestIsValidFormat(t *testing.T) {
	for _, f := range []string{"text", "json"} {
		assert.True(t, isValidFormat(f), f)
	}
	for _, f := range []string{"", "xml", "TEXT"} {
		assert.False(t, isValidFormat(f), f)
	}
}

func TestRootCommand_RejectsUnknownFormat(t *testing.T) {
	_, _, err := execute(t, "--format", "yaml", "compile", "q.sql")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `invalid format "yaml"`)
}

func TestRootCommand_MissingArgument(t *testing.T) {
	_, _, err := execute(t, "compile")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg")

	// main prints usage and exits 2 for plain errors.
	assert.False(t, IsExitError(err))
}

func TestRootCommand_VerboseLogsToStderr(t *testing.T) {
	dir := queryDir(t)

	stdout, stderr, err := execute(t, "--verbose", "compile", dir+"/filter.sql")
	require.NoError(t, err)
	assert.Contains(t, stdout, "int main(")
	assert.NotContains(t, stdout, "level=DEBUG")
	assert.Contains(t, stderr, "level=DEBUG")
}
