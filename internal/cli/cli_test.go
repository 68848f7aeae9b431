package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	color.NoColor = true
	os.Exit(m.Run())
}

const (
	taHeader = "INDEX:1:<string>,ca:1:<double>,cb:1:<double>,cc:1:<long>\n"
	tbHeader = "INDEX:1:<string>,ca:1:<double>,cd:1:<int>\n"
)

// writeFiles creates files under a fresh temporary directory.
func writeFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return dir
}

// queryDir holds two sources and a few queries over them.
func queryDir(t *testing.T) string {
	t.Helper()
	return writeFiles(t, map[string]string{
		"ta.csv":      taHeader + "r1,1.5,2.5,3\n",
		"tb.csv":      tbHeader,
		"filter.sql":  "SELECT cc FROM 'ta.csv' WHERE cb = 1 AND ca = 2\n",
		"join.sql":    "SELECT ca, cd AS total FROM ta.csv LEFT JOIN tb.csv USING (ca) ORDER BY total DESC LIMIT 10;\n",
		"star.sql":    "SELECT * FROM 'ta.csv'\n",
		"unknown.sql": "SELECT zz FROM 'ta.csv'\n",
	})
}

// execute runs the root command with args and returns stdout and stderr.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}
