package service

import (
	"context"
	"errors"
	"testing"

	"github.com/haierkeys/wicky/internal/domain"
	"github.com/haierkeys/wicky/pkg/merge"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubMerger returns canned results and records its calls
type stubMerger struct {
	outcome  merge.Outcome
	mergeErr error
	diffErr  error

	mergeArgs [3]string
	diffArgs  [2]string
}

func (m *stubMerger) Merge3(ctx context.Context, mine, original, theirs string) (merge.Outcome, error) {
	m.mergeArgs = [3]string{mine, original, theirs}
	return m.outcome, m.mergeErr
}

func (m *stubMerger) Diff(ctx context.Context, a, b string) (string, error) {
	m.diffArgs = [2]string{a, b}
	return "patch " + a + "->" + b, m.diffErr
}

type recordingSave struct {
	calls  int
	merged string
	patch  string
	err    error
}

func (r *recordingSave) save(ctx context.Context, merged, patch string) (*domain.Patch, error) {
	r.calls++
	r.merged, r.patch = merged, patch
	if r.err != nil {
		return nil, r.err
	}
	return &domain.Patch{Seq: int64(r.calls), Content: patch}, nil
}

func TestUpdateProtocol_ArgumentOrder(t *testing.T) {
	m := &stubMerger{outcome: merge.Merged("Hello world\n")}
	rec := &recordingSave{}

	_, err := NewUpdateProtocol(m, nil).Run(context.Background(), UpdateAttempt{
		Current:  "server\n",
		Baseline: "base\n",
		Edit:     "edit\n",
	}, rec.save)
	require.NoError(t, err)

	// mine = client edit, original = baseline, others = current
	assert.Equal(t, [3]string{"edit\n", "base\n", "server\n"}, m.mergeArgs)
	assert.Equal(t, [2]string{"server\n", "Hello world\n"}, m.diffArgs)
}

func TestUpdateProtocol_Scenarios(t *testing.T) {
	cases := []struct {
		name      string
		attempt   UpdateAttempt
		outcome   merge.Outcome
		state     UpdateState
		value     string
		saveCalls int
	}{
		{
			name:      "plain edit",
			attempt:   UpdateAttempt{Baseline: "Hello\n", Current: "Hello\n", Edit: "Hello world\n"},
			outcome:   merge.Merged("Hello world\n"),
			state:     StateApplied,
			value:     "Hello world\n",
			saveCalls: 1,
		},
		{
			name:      "edit merged with concurrent append",
			attempt:   UpdateAttempt{Baseline: "A\n", Current: "A\nB\n", Edit: "A1\n"},
			outcome:   merge.Merged("A1\nB\n"),
			state:     StateApplied,
			value:     "A1\nB\n",
			saveCalls: 1,
		},
		{
			name:    "same line changed on both sides",
			attempt: UpdateAttempt{Baseline: "line\n", Current: "server-line\n", Edit: "client-line\n"},
			outcome: merge.Conflict("<<<<<<< mine\nclient-line\n||||||| original\nline\n=======\nserver-line\n>>>>>>> others\n"),
			state:   StateRejected,
			value:   "<<<<<<< mine\nclient-line\n||||||| original\nline\n=======\nserver-line\n>>>>>>> others\n",
		},
		{
			name:    "edit already present",
			attempt: UpdateAttempt{Baseline: "x\n", Current: "y\n", Edit: "y\n"},
			outcome: merge.Merged("y\n"),
			state:   StateApplied,
			value:   "y\n",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := &recordingSave{}
			res, err := NewUpdateProtocol(&stubMerger{outcome: tc.outcome}, nil).Run(context.Background(), tc.attempt, rec.save)
			require.NoError(t, err)

			assert.Equal(t, tc.state, res.State)
			assert.Equal(t, tc.value, res.Value)
			assert.Equal(t, tc.state == StateRejected, res.IsConflicted())
			assert.Equal(t, tc.saveCalls, rec.calls)
			if tc.saveCalls > 0 {
				require.NotNil(t, res.Patch)
				assert.Equal(t, tc.value, rec.merged)
				assert.Equal(t, "patch "+tc.attempt.Current+"->"+tc.value, rec.patch)
			} else {
				assert.Nil(t, res.Patch)
			}
		})
	}
}

func TestUpdateProtocol_Failures(t *testing.T) {
	boom := errors.New("boom")

	t.Run("merge tool failure", func(t *testing.T) {
		rec := &recordingSave{}
		m := &stubMerger{mergeErr: merge.ErrMergeFailed}
		res, err := NewUpdateProtocol(m, nil).Run(context.Background(), UpdateAttempt{Edit: "a\n"}, rec.save)
		assert.ErrorIs(t, err, merge.ErrMergeFailed)
		assert.Equal(t, StateAttempting, res.State)
		assert.Zero(t, rec.calls)
	})

	t.Run("diff failure", func(t *testing.T) {
		rec := &recordingSave{}
		m := &stubMerger{outcome: merge.Merged("b\n"), diffErr: boom}
		_, err := NewUpdateProtocol(m, nil).Run(context.Background(), UpdateAttempt{Current: "a\n"}, rec.save)
		assert.ErrorIs(t, err, boom)
		assert.Zero(t, rec.calls)
	})

	t.Run("save failure", func(t *testing.T) {
		rec := &recordingSave{err: boom}
		m := &stubMerger{outcome: merge.Merged("b\n")}
		res, err := NewUpdateProtocol(m, nil).Run(context.Background(), UpdateAttempt{Current: "a\n"}, rec.save)
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, StateAttempting, res.State)
		assert.Empty(t, res.Value)
	})
}

func TestUpdateState_String(t *testing.T) {
	assert.Equal(t, "applied", StateApplied.String())
	assert.Equal(t, "rejected", StateRejected.String())
	assert.Equal(t, "attempting", StateAttempting.String())
}
