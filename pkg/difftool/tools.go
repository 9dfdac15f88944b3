// Package difftool runs the external diff, patch and diff3 programs against
// private temporary copies of the texts involved.
package difftool

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/haierkeys/wicky/pkg/logger"

	"go.uber.org/zap"
)

const (
	ToolDiff  = "diff"
	ToolPatch = "patch"
	ToolDiff3 = "diff3"
)

// Labels written into unified diff headers, so stored patches never carry temp paths.
const (
	LabelOriginal = "original"
	LabelUpdated  = "updated"
)

const (
	fileDiffA    = "a"
	fileDiffB    = "b"
	fileTarget   = "target"
	fileReject   = "target.rej"
	fileMine     = "mine"
	fileOriginal = "original"
	fileTheirs   = "theirs"
)

// Config locates the tools. Empty paths fall back to PATH lookup.
type Config struct {
	DiffPath  string
	PatchPath string
	Diff3Path string
	// TempDir parent of the per-operation workspaces, "" means os.TempDir()
	TempDir string
	// Timeout bounds every subprocess, default 10 seconds
	Timeout time.Duration
}

// Identities are the input paths diff3 embeds in its conflict delimiters.
type Identities struct {
	Mine     string
	Original string
	Theirs   string
}

// Merge3Result is the raw outcome of diff3.
// When Merged is false, Output still carries the tool's own delimiter lines.
type Merge3Result struct {
	Merged     bool
	Output     string
	Identities Identities
}

type Tools struct {
	cfg    Config
	logger *zap.Logger
}

func New(cfg Config, lg *zap.Logger) *Tools {
	if cfg.DiffPath == "" {
		cfg.DiffPath = ToolDiff
	}
	if cfg.PatchPath == "" {
		cfg.PatchPath = ToolPatch
	}
	if cfg.Diff3Path == "" {
		cfg.Diff3Path = ToolDiff3
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if lg == nil {
		lg = zap.NewNop()
	}
	return &Tools{cfg: cfg, logger: lg}
}

// Available reports the tools that cannot be found.
func (t *Tools) Available() []string {
	var missing []string
	for _, p := range []string{t.cfg.DiffPath, t.cfg.PatchPath, t.cfg.Diff3Path} {
		if _, err := exec.LookPath(p); err != nil {
			missing = append(missing, p)
		}
	}
	return missing
}

// Diff returns the unified diff turning a into b, or "" when they are equal.
func (t *Tools) Diff(ctx context.Context, a, b string) (string, error) {
	ws, err := newWorkspace(t.cfg.TempDir)
	if err != nil {
		return "", toolError(ToolDiff, -1, "", err)
	}
	defer ws.Close()

	pa, err := ws.write(fileDiffA, a)
	if err != nil {
		return "", toolError(ToolDiff, -1, "", err)
	}
	pb, err := ws.write(fileDiffB, b)
	if err != nil {
		return "", toolError(ToolDiff, -1, "", err)
	}

	res, err := t.run(ctx, ToolDiff, t.cfg.DiffPath, ws.dir, "",
		"--text", "--unified", "--label", LabelOriginal, "--label", LabelUpdated, pa, pb)
	if err != nil {
		return "", err
	}

	switch res.exitCode {
	case 0:
		return "", nil
	case 1:
		// never store a summary line in place of a patch
		if strings.HasPrefix(res.stdout, "Binary files ") {
			return "", t.fail(ToolDiff, res, ErrBinaryInput)
		}
		return res.stdout, nil
	default:
		return "", t.fail(ToolDiff, res, nil)
	}
}

// ApplyPatch applies patches in order to a private copy of base.
// forward=false reverses each patch. Blank patches are skipped.
// On failure no partially patched text is returned.
func (t *Tools) ApplyPatch(ctx context.Context, base string, patches []string, forward bool) (string, error) {
	ws, err := newWorkspace(t.cfg.TempDir)
	if err != nil {
		return "", toolError(ToolPatch, -1, "", err)
	}
	defer ws.Close()

	target, err := ws.write(fileTarget, base)
	if err != nil {
		return "", toolError(ToolPatch, -1, "", err)
	}
	rejectPath := ws.path(fileReject)

	// --force keeps patch from guessing the direction on its own
	args := []string{"--unified", "--batch", "--quiet", "--posix", "--force", "--fuzz=0", "--reject-file=" + rejectPath}
	if !forward {
		args = append(args, "--reverse")
	}
	args = append(args, target)

	for i, p := range patches {
		if strings.TrimSpace(p) == "" {
			continue
		}
		ws.remove(fileReject)

		res, err := t.run(ctx, ToolPatch, t.cfg.PatchPath, ws.dir, p, args...)
		if err != nil {
			return "", err
		}
		if res.exitCode == 0 {
			continue
		}

		if res.exitCode == 1 && ws.exists(fileReject) {
			rejects, rerr := ws.read(fileReject)
			if rerr != nil {
				return "", toolError(ToolPatch, res.exitCode, res.stderr, rerr)
			}
			t.logger.Debug("patch rejected hunks",
				zap.Int(logger.FieldSeq, i),
				zap.Bool("forward", forward))
			return "", &RejectedError{Index: i, Rejects: rejects}
		}

		return "", t.fail(ToolPatch, res, nil)
	}

	out, err := ws.read(fileTarget)
	if err != nil {
		return "", toolError(ToolPatch, -1, "", err)
	}
	return out, nil
}

// Merge3 runs diff3 with mine, original and theirs.
// Overlapping changes are not an error: Merged is false and Output holds the raw conflict text.
func (t *Tools) Merge3(ctx context.Context, mine, original, theirs string) (*Merge3Result, error) {
	ws, err := newWorkspace(t.cfg.TempDir)
	if err != nil {
		return nil, toolError(ToolDiff3, -1, "", err)
	}
	defer ws.Close()

	var ids Identities
	if ids.Mine, err = ws.write(fileMine, mine); err != nil {
		return nil, toolError(ToolDiff3, -1, "", err)
	}
	if ids.Original, err = ws.write(fileOriginal, original); err != nil {
		return nil, toolError(ToolDiff3, -1, "", err)
	}
	if ids.Theirs, err = ws.write(fileTheirs, theirs); err != nil {
		return nil, toolError(ToolDiff3, -1, "", err)
	}

	res, err := t.run(ctx, ToolDiff3, t.cfg.Diff3Path, ws.dir, "",
		"--text", "--merge", "--show-all", ids.Mine, ids.Original, ids.Theirs)
	if err != nil {
		return nil, err
	}

	switch res.exitCode {
	case 0:
		return &Merge3Result{Merged: true, Output: res.stdout, Identities: ids}, nil
	case 1:
		return &Merge3Result{Merged: false, Output: res.stdout, Identities: ids}, nil
	default:
		return nil, t.fail(ToolDiff3, res, nil)
	}
}

type runResult struct {
	stdout   string
	stderr   string
	exitCode int
}

// run executes one tool under the configured deadline.
// A non-zero exit is reported through exitCode; err is only set when the process could not run to completion.
func (t *Tools) run(ctx context.Context, tool, path, dir, stdin string, args ...string) (*runResult, error) {
	cmdCtx, cancel := context.WithTimeout(ctx, t.cfg.Timeout)
	defer cancel()

	cmd := exec.CommandContext(cmdCtx, path, args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), "LC_ALL=C")
	if stdin != "" {
		cmd.Stdin = strings.NewReader(stdin)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	elapsed := time.Since(start)

	res := &runResult{stdout: stdout.String(), stderr: stderr.String()}

	if cmdCtx.Err() == context.DeadlineExceeded {
		res.exitCode = -1
		toolDuration.WithLabelValues(tool, "timeout").Observe(elapsed.Seconds())
		return nil, t.fail(tool, res, ErrToolTimeout)
	}
	if ctx.Err() != nil {
		res.exitCode = -1
		toolDuration.WithLabelValues(tool, "cancelled").Observe(elapsed.Seconds())
		return nil, t.fail(tool, res, ctx.Err())
	}

	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			res.exitCode = -1
			toolDuration.WithLabelValues(tool, "error").Observe(elapsed.Seconds())
			return nil, t.fail(tool, res, err)
		}
		res.exitCode = exitErr.ExitCode()
	}

	toolDuration.WithLabelValues(tool, "exited").Observe(elapsed.Seconds())
	t.logger.Debug("text tool finished",
		zap.String(logger.FieldTool, tool),
		zap.Int(logger.FieldExitCode, res.exitCode),
		zap.Duration(logger.FieldDuration, elapsed))

	return res, nil
}

func (t *Tools) fail(tool string, res *runResult, cause error) *ToolError {
	toolErrors.WithLabelValues(tool).Inc()
	stderr := strings.TrimSpace(res.stderr)
	if stderr == "" {
		stderr = strings.TrimSpace(res.stdout)
	}
	t.logger.Warn("text tool failed",
		zap.String(logger.FieldTool, tool),
		zap.Int(logger.FieldExitCode, res.exitCode),
		zap.String("stderr", stderr),
		zap.Error(cause))
	return toolError(tool, res.exitCode, stderr, cause)
}
