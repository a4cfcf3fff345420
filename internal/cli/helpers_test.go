package cli

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
)

// execute runs cmd with args and returns what it wrote to stdout.
func execute(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

// tempDB returns options pointing at a fresh database path.
func tempDB(t *testing.T, format string) *RootOptions {
	t.Helper()
	return &RootOptions{
		Format:   format,
		Database: filepath.Join(t.TempDir(), "mesh.db"),
	}
}

// seed runs location commands against opts' database.
func seed(t *testing.T, opts *RootOptions, cmds ...[]string) {
	t.Helper()
	for _, args := range cmds {
		root := NewRootCommand()
		full := append([]string{"--db", opts.Database}, args...)
		if _, err := execute(t, root, full...); err != nil {
			t.Fatalf("seed %v: %v", args, err)
		}
	}
}
