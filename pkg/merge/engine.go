// Package merge turns the raw text tools into typed outcomes:
// clean results, conflicts carried as data, and fatal tool failures.
package merge

import (
	"context"
	"errors"
	"fmt"

	"github.com/haierkeys/wicky/pkg/difftool"
	"github.com/haierkeys/wicky/pkg/logger"

	"go.uber.org/zap"
)

// ErrMergeFailed marks an unrecoverable tool failure. The underlying *difftool.ToolError stays in the chain.
var ErrMergeFailed = errors.New("merge failed")

// ConflictedError reports hunks that patch could not apply, as data for the caller.
type ConflictedError struct {
	Index   int
	Rejects string
}

func (e *ConflictedError) Error() string {
	return fmt.Sprintf("patch %d conflicted", e.Index)
}

// Outcome is the result of a three-way merge.
// When Conflicted is true, Text carries canonical conflict markers and is not a field value.
type Outcome struct {
	Conflicted bool
	Text       string
}

func Merged(text string) Outcome {
	return Outcome{Text: text}
}

func Conflict(text string) Outcome {
	return Outcome{Conflicted: true, Text: text}
}

// Tools is the subprocess boundary, satisfied by *difftool.Tools.
type Tools interface {
	Diff(ctx context.Context, a, b string) (string, error)
	ApplyPatch(ctx context.Context, base string, patches []string, forward bool) (string, error)
	Merge3(ctx context.Context, mine, original, theirs string) (*difftool.Merge3Result, error)
}

type Engine struct {
	tools  Tools
	logger *zap.Logger
}

func NewEngine(tools Tools, lg *zap.Logger) *Engine {
	if lg == nil {
		lg = zap.NewNop()
	}
	return &Engine{tools: tools, logger: lg}
}

// Diff returns the unified diff turning a into b.
func (e *Engine) Diff(ctx context.Context, a, b string) (string, error) {
	if a == b {
		return "", nil
	}
	out, err := e.tools.Diff(ctx, a, b)
	if err != nil {
		return "", classify(err)
	}
	return out, nil
}

// Patch applies patches forward to source.
func (e *Engine) Patch(ctx context.Context, source string, patches ...string) (string, error) {
	return e.apply(ctx, source, patches, true)
}

// ReversePatch undoes patches, given newest first, starting from source.
func (e *Engine) ReversePatch(ctx context.Context, source string, patches ...string) (string, error) {
	return e.apply(ctx, source, patches, false)
}

func (e *Engine) apply(ctx context.Context, source string, patches []string, forward bool) (string, error) {
	if len(patches) == 0 {
		return source, nil
	}
	out, err := e.tools.ApplyPatch(ctx, source, patches, forward)
	if err != nil {
		return "", classify(err)
	}
	return out, nil
}

// Merge3 merges the change original->mine into theirs.
func (e *Engine) Merge3(ctx context.Context, mine, original, theirs string) (Outcome, error) {
	switch {
	case mine == theirs:
		return Merged(mine), nil
	case theirs == original:
		return Merged(mine), nil
	case mine == original:
		return Merged(theirs), nil
	}

	res, err := e.tools.Merge3(ctx, mine, original, theirs)
	if err != nil {
		return Outcome{}, classify(err)
	}
	if res.Merged {
		return Merged(res.Output), nil
	}

	text, conflicted, ok := resolveMerge(res.Output, res.Identities)
	if !ok {
		e.logger.Warn("merge3 output has an unexpected shape", zap.String(logger.FieldOp, "merge3"))
		return Conflict(RewriteMarkers(res.Output, res.Identities)), nil
	}
	if !conflicted {
		e.logger.Debug("merge3 hunks resolved", zap.String(logger.FieldOp, "merge3"))
		return Merged(text), nil
	}

	e.logger.Debug("merge3 produced conflicts", zap.String(logger.FieldOp, "merge3"))
	return Conflict(text), nil
}

// MergeOrHandle hands a conflict to onConflict instead of returning it.
// ok is false when the handler was called.
func (e *Engine) MergeOrHandle(ctx context.Context, mine, original, theirs string, onConflict func(conflict string)) (merged string, ok bool, err error) {
	outcome, err := e.Merge3(ctx, mine, original, theirs)
	if err != nil {
		return "", false, err
	}
	if outcome.Conflicted {
		if onConflict != nil {
			onConflict(outcome.Text)
		}
		return "", false, nil
	}
	return outcome.Text, true, nil
}

// IsMalformedPatch reports whether err is patch refusing the patch text it was given.
// A patch that could not run at all, or timed out, is not malformed.
func IsMalformedPatch(err error) bool {
	var toolErr *difftool.ToolError
	return errors.As(err, &toolErr) && toolErr.Tool == difftool.ToolPatch && toolErr.ExitCode > 0
}

func classify(err error) error {
	var rejected *difftool.RejectedError
	if errors.As(err, &rejected) {
		return &ConflictedError{Index: rejected.Index, Rejects: rejected.Rejects}
	}
	return fmt.Errorf("%w: %w", ErrMergeFailed, err)
}
