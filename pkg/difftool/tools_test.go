package difftool

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requireTools(t *testing.T) {
	t.Helper()
	for _, name := range []string{ToolDiff, ToolPatch, ToolDiff3} {
		if _, err := exec.LookPath(name); err != nil {
			t.Skipf("%s not installed", name)
		}
	}
}

// newTestTools points the workspaces at a test-owned directory so leftovers can be checked.
func newTestTools(t *testing.T) (*Tools, string) {
	t.Helper()
	requireTools(t)
	dir := t.TempDir()
	return New(Config{TempDir: dir}, nil), dir
}

func assertNoArtifacts(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.Empty(t, names, "temporary artifacts left behind")
}

func TestDiff(t *testing.T) {
	tools, dir := newTestTools(t)
	ctx := context.Background()

	out, err := tools.Diff(ctx, "same\n", "same\n")
	require.NoError(t, err)
	assert.Empty(t, out)

	out, err = tools.Diff(ctx, "Hello\n", "Hello world\n")
	require.NoError(t, err)
	assert.Contains(t, out, "--- "+LabelOriginal)
	assert.Contains(t, out, "+++ "+LabelUpdated)
	assert.Contains(t, out, "-Hello\n")
	assert.Contains(t, out, "+Hello world\n")
	assert.NotContains(t, out, dir)

	assertNoArtifacts(t, dir)
}

func TestDiff_NulBytes(t *testing.T) {
	tools, dir := newTestTools(t)

	out, err := tools.Diff(context.Background(), "x\n", "x\x00y\n")
	require.NoError(t, err)
	assert.NotContains(t, out, "Binary files")
	assert.Contains(t, out, "+x\x00y\n")

	assertNoArtifacts(t, dir)
}

func TestDiff_BinarySummaryIsAnError(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not installed")
	}
	dir := t.TempDir()
	script := filepath.Join(dir, "summary-diff")
	require.NoError(t, os.WriteFile(script, []byte("#!/bin/sh\necho 'Binary files original and updated differ'\nexit 1\n"), 0o700))

	work := filepath.Join(dir, "work")
	require.NoError(t, os.Mkdir(work, 0o700))
	tools := New(Config{DiffPath: script, TempDir: work}, nil)

	_, err := tools.Diff(context.Background(), "a\n", "b\n")
	var toolErr *ToolError
	require.True(t, errors.As(err, &toolErr), "got %v", err)
	assert.ErrorIs(t, err, ErrBinaryInput)
	assertNoArtifacts(t, work)
}

func TestApplyPatch_RoundTrip(t *testing.T) {
	tools, dir := newTestTools(t)
	ctx := context.Background()

	cases := []struct {
		name string
		a, b string
	}{
		{"append line", "A\n", "A\nB\n"},
		{"from empty", "", "first\nsecond\n"},
		{"to empty", "gone\n", ""},
		{"no trailing newline", "one\ntwo", "one\n2\nthree"},
		{"middle edit", "1\n2\n3\n4\n5\n6\n7\n8\n", "1\n2\n3\nfour\n5\n6\n7\n8\n"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p, err := tools.Diff(ctx, tc.a, tc.b)
			require.NoError(t, err)

			fwd, err := tools.ApplyPatch(ctx, tc.a, []string{p}, true)
			require.NoError(t, err)
			assert.Equal(t, tc.b, fwd)

			rev, err := tools.ApplyPatch(ctx, tc.b, []string{p}, false)
			require.NoError(t, err)
			assert.Equal(t, tc.a, rev)
		})
	}

	assertNoArtifacts(t, dir)
}

func TestApplyPatch_Sequence(t *testing.T) {
	tools, _ := newTestTools(t)
	ctx := context.Background()

	v0, v1, v2 := "", "Hello\n", "Hello world\nBye\n"
	p1, err := tools.Diff(ctx, v0, v1)
	require.NoError(t, err)
	p2, err := tools.Diff(ctx, v1, v2)
	require.NoError(t, err)

	out, err := tools.ApplyPatch(ctx, v0, []string{p1, "", p2}, true)
	require.NoError(t, err)
	assert.Equal(t, v2, out)

	out, err = tools.ApplyPatch(ctx, v2, []string{p2, p1}, false)
	require.NoError(t, err)
	assert.Equal(t, v0, out)
}

func TestApplyPatch_Rejected(t *testing.T) {
	tools, dir := newTestTools(t)
	ctx := context.Background()

	p, err := tools.Diff(ctx, "alpha\n", "beta\n")
	require.NoError(t, err)

	_, err = tools.ApplyPatch(ctx, "something else\n", []string{"", p}, true)
	var rejected *RejectedError
	require.True(t, errors.As(err, &rejected), "got %v", err)
	assert.Equal(t, 1, rejected.Index)
	assert.Contains(t, rejected.Rejects, "-alpha")

	assertNoArtifacts(t, dir)
}

func TestApplyPatch_Malformed(t *testing.T) {
	tools, dir := newTestTools(t)

	_, err := tools.ApplyPatch(context.Background(), "text\n", []string{"this is not a patch\n"}, true)
	var toolErr *ToolError
	require.True(t, errors.As(err, &toolErr), "got %v", err)
	assert.Equal(t, ToolPatch, toolErr.Tool)

	var rejected *RejectedError
	assert.False(t, errors.As(err, &rejected))

	assertNoArtifacts(t, dir)
}

func TestMissingBinary(t *testing.T) {
	dir := t.TempDir()
	tools := New(Config{
		DiffPath:  filepath.Join(dir, "no-such-diff"),
		PatchPath: filepath.Join(dir, "no-such-patch"),
		Diff3Path: filepath.Join(dir, "no-such-diff3"),
		TempDir:   dir,
	}, nil)
	ctx := context.Background()

	var toolErr *ToolError

	_, err := tools.Diff(ctx, "a\n", "b\n")
	require.True(t, errors.As(err, &toolErr))
	assert.Equal(t, -1, toolErr.ExitCode)

	_, err = tools.ApplyPatch(ctx, "a\n", []string{"--- a\n+++ b\n@@ -1 +1 @@\n-a\n+b\n"}, true)
	require.True(t, errors.As(err, &toolErr))

	_, err = tools.Merge3(ctx, "a\n", "b\n", "c\n")
	require.True(t, errors.As(err, &toolErr))

	assert.Len(t, tools.Available(), 3)
	assertNoArtifacts(t, dir)
}

func TestMerge3(t *testing.T) {
	tools, dir := newTestTools(t)
	ctx := context.Background()

	original := "1\n2\n3\n4\n5\n6\n7\n8\n9\n"
	mine := "one\n2\n3\n4\n5\n6\n7\n8\n9\n"
	theirs := "1\n2\n3\n4\n5\n6\n7\n8\nnine\n"

	res, err := tools.Merge3(ctx, mine, original, theirs)
	require.NoError(t, err)
	assert.True(t, res.Merged)
	assert.Equal(t, "one\n2\n3\n4\n5\n6\n7\n8\nnine\n", res.Output)

	res, err = tools.Merge3(ctx, "client-line\n", "line\n", "server-line\n")
	require.NoError(t, err)
	assert.False(t, res.Merged)
	assert.Contains(t, res.Output, "client-line")
	assert.Contains(t, res.Output, "server-line")
	assert.Contains(t, res.Output, res.Identities.Mine)
	assert.Contains(t, res.Output, res.Identities.Theirs)

	assertNoArtifacts(t, dir)
}

func TestTimeout(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not installed")
	}
	dir := t.TempDir()
	script := filepath.Join(dir, "slow-diff3")
	require.NoError(t, os.WriteFile(script, []byte("#!/bin/sh\nsleep 5\n"), 0o700))

	work := filepath.Join(dir, "work")
	require.NoError(t, os.Mkdir(work, 0o700))

	tools := New(Config{Diff3Path: script, TempDir: work, Timeout: 50 * time.Millisecond}, nil)

	start := time.Now()
	_, err := tools.Merge3(context.Background(), "a\n", "b\n", "c\n")
	assert.Less(t, time.Since(start), 4*time.Second)

	var toolErr *ToolError
	require.True(t, errors.As(err, &toolErr), "got %v", err)
	assert.ErrorIs(t, err, ErrToolTimeout)
	assertNoArtifacts(t, work)
}

func TestRoundTripProperty(t *testing.T) {
	tools, dir := newTestTools(t)
	ctx := context.Background()

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 25

	properties := gopter.NewProperties(parameters)

	genText := gen.SliceOf(gen.OneConstOf("a", "b", "c", "dd", "", "e f")).
		Map(func(lines []string) string {
			if len(lines) == 0 {
				return ""
			}
			return strings.Join(lines, "\n") + "\n"
		})

	properties.Property("patch(a, diff(a,b)) == b and reverse gives a", prop.ForAll(
		func(a, b string) bool {
			p, err := tools.Diff(ctx, a, b)
			if err != nil {
				return false
			}
			fwd, err := tools.ApplyPatch(ctx, a, []string{p}, true)
			if err != nil || fwd != b {
				return false
			}
			rev, err := tools.ApplyPatch(ctx, b, []string{p}, false)
			return err == nil && rev == a
		},
		genText, genText,
	))

	properties.TestingRun(t)
	assertNoArtifacts(t, dir)
}

func TestSweepStale(t *testing.T) {
	dir := t.TempDir()
	tools := New(Config{TempDir: dir}, nil)

	old := filepath.Join(dir, workspacePattern+"old")
	fresh := filepath.Join(dir, workspacePattern+"fresh")
	other := filepath.Join(dir, "keep-me")
	for _, d := range []string{old, fresh, other} {
		require.NoError(t, os.Mkdir(d, 0o700))
	}
	past := time.Now().Add(-2 * time.Hour)
	require.NoError(t, os.Chtimes(old, past, past))
	require.NoError(t, os.Chtimes(other, past, past))

	n, err := tools.SweepStale(time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	assert.NoDirExists(t, old)
	assert.DirExists(t, fresh)
	assert.DirExists(t, other)
}
