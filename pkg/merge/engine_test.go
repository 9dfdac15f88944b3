package merge

import (
	"context"
	"errors"
	"os/exec"
	"strings"
	"testing"

	"github.com/haierkeys/wicky/pkg/difftool"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeTools records calls and returns canned results.
type fakeTools struct {
	calls     int
	diffOut   string
	patchOut  string
	merge3Res *difftool.Merge3Result
	err       error
}

func (f *fakeTools) Diff(ctx context.Context, a, b string) (string, error) {
	f.calls++
	return f.diffOut, f.err
}

func (f *fakeTools) ApplyPatch(ctx context.Context, base string, patches []string, forward bool) (string, error) {
	f.calls++
	return f.patchOut, f.err
}

func (f *fakeTools) Merge3(ctx context.Context, mine, original, theirs string) (*difftool.Merge3Result, error) {
	f.calls++
	return f.merge3Res, f.err
}

func TestMerge3_ShortCircuits(t *testing.T) {
	tools := &fakeTools{}
	e := NewEngine(tools, nil)
	ctx := context.Background()

	out, err := e.Merge3(ctx, "x\n", "x\n", "x\n")
	require.NoError(t, err)
	assert.Equal(t, Merged("x\n"), out)

	out, err = e.Merge3(ctx, "mine\n", "base\n", "base\n")
	require.NoError(t, err)
	assert.Equal(t, Merged("mine\n"), out)

	out, err = e.Merge3(ctx, "base\n", "base\n", "theirs\n")
	require.NoError(t, err)
	assert.Equal(t, Merged("theirs\n"), out)

	out, err = e.Merge3(ctx, "same\n", "base\n", "same\n")
	require.NoError(t, err)
	assert.Equal(t, Merged("same\n"), out)

	assert.Zero(t, tools.calls)
}

func TestMerge3_ConflictRewritten(t *testing.T) {
	tools := &fakeTools{merge3Res: &difftool.Merge3Result{
		Merged: false,
		Output: "<<<<<<< /tmp/wicky-difftool-42/mine\nclient-line\n" +
			"||||||| /tmp/wicky-difftool-42/original\nline\n=======\nserver-line\n" +
			">>>>>>> /tmp/wicky-difftool-42/theirs\n",
		Identities: testIDs,
	}}
	e := NewEngine(tools, nil)

	out, err := e.Merge3(context.Background(), "client-line\n", "line\n", "server-line\n")
	require.NoError(t, err)
	assert.True(t, out.Conflicted)
	assert.Equal(t, canonicalConflict, out.Text)
}

func TestMerge3_ToolError(t *testing.T) {
	toolErr := &difftool.ToolError{Tool: difftool.ToolDiff3, ExitCode: 2, Stderr: "diff3: boom"}
	e := NewEngine(&fakeTools{err: toolErr}, nil)

	_, err := e.Merge3(context.Background(), "a\n", "b\n", "c\n")
	assert.ErrorIs(t, err, ErrMergeFailed)

	var got *difftool.ToolError
	require.True(t, errors.As(err, &got))
	assert.Equal(t, 2, got.ExitCode)
}

func TestPatch_Classification(t *testing.T) {
	ctx := context.Background()

	e := NewEngine(&fakeTools{err: &difftool.RejectedError{Index: 3, Rejects: "@@ -1 +1 @@\n-a\n+b\n"}}, nil)
	_, err := e.Patch(ctx, "x\n", "p")
	var conflicted *ConflictedError
	require.True(t, errors.As(err, &conflicted))
	assert.Equal(t, 3, conflicted.Index)
	assert.Contains(t, conflicted.Rejects, "-a")
	assert.NotErrorIs(t, err, ErrMergeFailed)

	e = NewEngine(&fakeTools{err: &difftool.ToolError{Tool: difftool.ToolPatch, ExitCode: 2}}, nil)
	_, err = e.ReversePatch(ctx, "x\n", "p")
	assert.ErrorIs(t, err, ErrMergeFailed)
	assert.False(t, errors.As(err, &conflicted))
}

func TestIsMalformedPatch(t *testing.T) {
	assert.True(t, IsMalformedPatch(classify(&difftool.ToolError{Tool: difftool.ToolPatch, ExitCode: 2})))
	assert.False(t, IsMalformedPatch(classify(&difftool.ToolError{Tool: difftool.ToolPatch, ExitCode: -1, Err: difftool.ErrToolTimeout})))
	assert.False(t, IsMalformedPatch(classify(&difftool.ToolError{Tool: difftool.ToolDiff3, ExitCode: 2})))
	assert.False(t, IsMalformedPatch(classify(&difftool.RejectedError{Index: 0})))
}

func TestPatch_NoPatches(t *testing.T) {
	tools := &fakeTools{}
	e := NewEngine(tools, nil)

	out, err := e.ReversePatch(context.Background(), "value\n")
	require.NoError(t, err)
	assert.Equal(t, "value\n", out)
	assert.Zero(t, tools.calls)
}

func TestMergeOrHandle(t *testing.T) {
	tools := &fakeTools{merge3Res: &difftool.Merge3Result{
		Output:     "<<<<<<< /tmp/wicky-difftool-42/mine\na\n=======\nb\n>>>>>>> /tmp/wicky-difftool-42/theirs\n",
		Identities: testIDs,
	}}
	e := NewEngine(tools, nil)

	var handled string
	merged, ok, err := e.MergeOrHandle(context.Background(), "a\n", "o\n", "b\n", func(conflict string) {
		handled = conflict
	})
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, merged)
	assert.True(t, strings.HasPrefix(handled, MarkerMine))

	merged, ok, err = e.MergeOrHandle(context.Background(), "a\n", "o\n", "o\n", nil)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "a\n", merged)
}

func TestMergeProperties(t *testing.T) {
	e := NewEngine(&fakeTools{err: errors.New("tool must not be called")}, nil)
	ctx := context.Background()

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("merge3(x, x, x) == Merged(x)", prop.ForAll(
		func(x string) bool {
			out, err := e.Merge3(ctx, x, x, x)
			return err == nil && out == Merged(x)
		},
		gen.AnyString(),
	))

	properties.Property("merge3(mine, original, original) == Merged(mine)", prop.ForAll(
		func(mine, original string) bool {
			out, err := e.Merge3(ctx, mine, original, original)
			return err == nil && out == Merged(mine)
		},
		gen.AnyString(), gen.AnyString(),
	))

	properties.TestingRun(t)
}

// Tests below run the real tools.

func newRealEngine(t *testing.T) *Engine {
	t.Helper()
	for _, name := range []string{difftool.ToolDiff, difftool.ToolPatch, difftool.ToolDiff3} {
		if _, err := exec.LookPath(name); err != nil {
			t.Skipf("%s not installed", name)
		}
	}
	return NewEngine(difftool.New(difftool.Config{TempDir: t.TempDir()}, nil), nil)
}

func TestEngine_ConflictMarkersInOrder(t *testing.T) {
	e := newRealEngine(t)

	out, err := e.Merge3(context.Background(), "client-line\n", "line\n", "server-line\n")
	require.NoError(t, err)
	require.True(t, out.Conflicted)

	iMine := strings.Index(out.Text, MarkerMine+"\n")
	iOrig := strings.Index(out.Text, MarkerOriginal+"\n")
	iOthers := strings.Index(out.Text, MarkerOthers+"\n")
	require.True(t, iMine >= 0 && iOrig > iMine && iOthers > iOrig, out.Text)

	assert.Contains(t, out.Text, "client-line\n")
	assert.Contains(t, out.Text, "\nline\n")
	assert.Contains(t, out.Text, "server-line\n")
	assert.NotContains(t, out.Text, "wicky-difftool-")
}

func TestEngine_CleanMerge(t *testing.T) {
	e := newRealEngine(t)

	original := "title\n\nbody one\nbody two\nbody three\n\nfooter\n"
	mine := "new title\n\nbody one\nbody two\nbody three\n\nfooter\n"
	theirs := "title\n\nbody one\nbody two\nbody three\n\nnew footer\n"

	out, err := e.Merge3(context.Background(), mine, original, theirs)
	require.NoError(t, err)
	assert.False(t, out.Conflicted)
	assert.Equal(t, "new title\n\nbody one\nbody two\nbody three\n\nnew footer\n", out.Text)
}

func TestEngine_PatchRoundTrip(t *testing.T) {
	e := newRealEngine(t)
	ctx := context.Background()

	a, b := "Hello\n", "Hello world\n"
	p, err := e.Diff(ctx, a, b)
	require.NoError(t, err)

	st, err := Stat(p)
	require.NoError(t, err)
	assert.Equal(t, PatchStat{Hunks: 1, Added: 1, Deleted: 1}, st)

	fwd, err := e.Patch(ctx, a, p)
	require.NoError(t, err)
	assert.Equal(t, b, fwd)

	rev, err := e.ReversePatch(ctx, b, p)
	require.NoError(t, err)
	assert.Equal(t, a, rev)

	_, err = e.ReversePatch(ctx, "unrelated\n", p)
	var conflicted *ConflictedError
	assert.True(t, errors.As(err, &conflicted))
}

func TestMerge3_AgreeingHunkResolved(t *testing.T) {
	tools := &fakeTools{merge3Res: &difftool.Merge3Result{
		Output: "<<<<<<< /tmp/wicky-difftool-42/original\na\n=======\nA\n" +
			">>>>>>> /tmp/wicky-difftool-42/theirs\nb\n",
		Identities: testIDs,
	}}
	e := NewEngine(tools, nil)

	out, err := e.Merge3(context.Background(), "A\nB\n", "a\nb\n", "A\nb\n")
	require.NoError(t, err)
	assert.Equal(t, Merged("A\nb\n"), out)
}

func TestEngine_SameEditOnBothSides(t *testing.T) {
	e := newRealEngine(t)

	out, err := e.Merge3(context.Background(), "A\nb\nc\nd\nE\n", "a\nb\nc\nd\ne\n", "A\nb\nc\nd\ne\n")
	require.NoError(t, err)
	assert.False(t, out.Conflicted, out.Text)
	assert.Equal(t, "A\nb\nc\nd\nE\n", out.Text)

	// agreeing hunk next to a real conflict: only the conflict is bracketed
	out, err = e.Merge3(context.Background(), "A\nb\nc\nd\nmine\n", "a\nb\nc\nd\ne\n", "A\nb\nc\nd\ntheirs\n")
	require.NoError(t, err)
	require.True(t, out.Conflicted)
	assert.True(t, strings.HasPrefix(out.Text, "A\nb\nc\nd\n"+MarkerMine+"\n"), out.Text)
	assert.Equal(t, 1, strings.Count(out.Text, MarkerMine))
	assert.Equal(t, 1, strings.Count(out.Text, MarkerOriginal))
	assert.Equal(t, 1, strings.Count(out.Text, MarkerOthers))
}

func TestEngine_AdjacentEdits(t *testing.T) {
	e := newRealEngine(t)
	ctx := context.Background()

	out, err := e.Merge3(ctx, "A1\n", "A\n", "A\nB\n")
	require.NoError(t, err)
	assert.Equal(t, Merged("A1\nB\n"), out)

	out, err = e.Merge3(ctx, "a\nB\nc\n", "a\nb\nc\n", "a\nb\nC\n")
	require.NoError(t, err)
	assert.Equal(t, Merged("a\nB\nC\n"), out)
}
