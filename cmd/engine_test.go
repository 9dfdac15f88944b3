package cmd

import (
	"bytes"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/haierkeys/wicky/pkg/merge"

	"github.com/bytedance/sonic"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requireTools(t *testing.T) {
	t.Helper()
	for _, name := range []string{"diff", "patch", "diff3"} {
		if _, err := exec.LookPath(name); err != nil {
			t.Skipf("%s not installed", name)
		}
	}
}

func writeFiles(t *testing.T, texts map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, text := range texts {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(text), 0o644))
	}
	return dir
}

func runCommand(c *cobra.Command, args ...string) (string, error) {
	var out bytes.Buffer
	c.SetOut(&out)
	c.SetErr(&out)
	c.SetArgs(args)
	err := c.Execute()
	return out.String(), err
}

func TestDiffAndPatchCommands(t *testing.T) {
	requireTools(t)
	dir := writeFiles(t, map[string]string{"a": "Hello\n", "b": "Hello world\n"})
	a, b := filepath.Join(dir, "a"), filepath.Join(dir, "b")

	out, err := runCommand(newDiffCommand(), a, b)
	require.NoError(t, err)
	assert.Contains(t, out, "+Hello world")
	p := filepath.Join(dir, "p1.diff")
	require.NoError(t, os.WriteFile(p, []byte(out), 0o644))

	out, err = runCommand(newPatchCommand(), a, p)
	require.NoError(t, err)
	assert.Equal(t, "Hello world\n", out)

	out, err = runCommand(newPatchCommand(), "--reverse", b, p)
	require.NoError(t, err)
	assert.Equal(t, "Hello\n", out)

	out, err = runCommand(newDiffCommand(), "--json", a, b)
	require.NoError(t, err)
	var res engineResult
	require.NoError(t, sonic.UnmarshalString(out, &res))
	assert.Equal(t, "diff", res.Command)
	require.NotNil(t, res.Stat)
	assert.Equal(t, 1, res.Stat.Added)
	assert.Equal(t, 1, res.Stat.Deleted)
}

func TestPatchCommand_Conflict(t *testing.T) {
	requireTools(t)
	dir := writeFiles(t, map[string]string{"src": "unrelated\n"})
	patch := "--- original\n+++ updated\n@@ -1 +1 @@\n-alpha\n+beta\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "p.diff"), []byte(patch), 0o644))

	out, err := runCommand(newPatchCommand(), "--json", filepath.Join(dir, "src"), filepath.Join(dir, "p.diff"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "p.diff")

	var res engineResult
	require.NoError(t, sonic.UnmarshalString(out, &res))
	assert.True(t, res.Conflicted)
	assert.Contains(t, res.Text, "-alpha")
}

func TestMerge3Command(t *testing.T) {
	requireTools(t)
	dir := writeFiles(t, map[string]string{
		"original": "1\n2\n3\n4\n5\n6\n7\n8\n9\n",
		"mine":     "one\n2\n3\n4\n5\n6\n7\n8\n9\n",
		"theirs":   "1\n2\n3\n4\n5\n6\n7\n8\nnine\n",
		"left":     "client-line\n",
		"base":     "line\n",
		"right":    "server-line\n",
	})
	path := func(n string) string { return filepath.Join(dir, n) }

	out, err := runCommand(newMerge3Command(), path("mine"), path("original"), path("theirs"))
	require.NoError(t, err)
	assert.Equal(t, "one\n2\n3\n4\n5\n6\n7\n8\nnine\n", out)

	out, err = runCommand(newMerge3Command(), path("left"), path("base"), path("right"))
	require.Error(t, err)
	assert.Contains(t, out, merge.MarkerMine)
	assert.Contains(t, out, merge.MarkerOthers)
	assert.NotContains(t, out, dir)
}

func TestEngineCommand_MissingFile(t *testing.T) {
	_, err := runCommand(newDiffCommand(), "/no/such/a", "/no/such/b")
	assert.Error(t, err)
}
