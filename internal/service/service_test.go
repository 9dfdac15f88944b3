package service

import (
	"context"
	"errors"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/haierkeys/wicky/internal/dao"
	"github.com/haierkeys/wicky/internal/domain"
	"github.com/haierkeys/wicky/internal/dto"
	"github.com/haierkeys/wicky/internal/model"
	"github.com/haierkeys/wicky/pkg/app"
	"github.com/haierkeys/wicky/pkg/code"
	"github.com/haierkeys/wicky/pkg/difftool"
	"github.com/haierkeys/wicky/pkg/merge"
	"github.com/haierkeys/wicky/pkg/writequeue"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type testEnv struct {
	db      *gorm.DB
	dao     *dao.Dao
	history HistoryService
	fields  FieldService
	queue   *writequeue.Manager
}

func newTestEnv(t *testing.T, cfg *FieldServiceConfig) *testEnv {
	t.Helper()
	for _, name := range []string{difftool.ToolDiff, difftool.ToolPatch, difftool.ToolDiff3} {
		if _, err := exec.LookPath(name); err != nil {
			t.Skipf("%s not installed", name)
		}
	}

	db, err := dao.NewDBEngineWithConfig(dao.DatabaseConfig{
		Type:        "sqlite",
		Path:        filepath.Join(t.TempDir(), "wicky.db"),
		AutoMigrate: true,
	}, nil)
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	d := dao.New(db)
	engine := merge.NewEngine(difftool.New(difftool.Config{TempDir: t.TempDir()}, nil), nil)
	queue := writequeue.New(nil, nil)
	t.Cleanup(func() { _ = queue.Shutdown(context.Background()) })

	history, err := NewHistoryService(dao.NewPatchRepository(d), dao.NewFieldRepository(d), engine, nil, &HistoryServiceConfig{CacheSize: 16})
	require.NoError(t, err)

	fields := NewFieldService(dao.NewFieldRepository(d), dao.NewUnitOfWork(d), history, engine, queue, nil, cfg)
	return &testEnv{db: db, dao: d, history: history, fields: fields, queue: queue}
}

func (e *testEnv) update(t *testing.T, baseline, value string) *dto.FieldUpdateResult {
	t.Helper()
	res, err := e.fields.Update(context.Background(), &dto.FieldUpdateRequest{
		OwnerKind: "project",
		OwnerID:   1,
		Baseline:  baseline,
		Value:     value,
	})
	require.NoError(t, err)
	return res
}

func (e *testEnv) get(t *testing.T) *dto.FieldDTO {
	t.Helper()
	f, err := e.fields.Get(context.Background(), &dto.FieldRefRequest{OwnerKind: "project", OwnerID: 1})
	require.NoError(t, err)
	return f
}

func projectRef(t *testing.T) domain.FieldRef {
	ref, err := domain.NewFieldRef("project", 1, "")
	require.NoError(t, err)
	return ref
}

func (e *testEnv) patchCount(t *testing.T) int64 {
	n, err := dao.NewPatchRepository(e.dao).Count(context.Background(), projectRef(t))
	require.NoError(t, err)
	return n
}

func TestFieldService_PlainEdit(t *testing.T) {
	env := newTestEnv(t, nil)

	// seed the field at "Hello\n"
	env.update(t, "", "Hello\n")
	require.Equal(t, int64(1), env.patchCount(t))

	res := env.update(t, "Hello\n", "Hello world\n")
	assert.False(t, res.IsConflicted)
	assert.Equal(t, "Hello world\n", res.Value)
	assert.Equal(t, int64(2), res.Version)
	require.NotNil(t, res.Patch)
	assert.Equal(t, int64(2), res.Patch.Seq)
	assert.Equal(t, 1, res.Patch.Added)
	assert.Equal(t, 1, res.Patch.Deleted)

	f := env.get(t)
	assert.Equal(t, "Hello world\n", f.Value)
	assert.Equal(t, int64(2), f.Version)
	assert.Equal(t, int64(2), env.patchCount(t))
}

func TestFieldService_MergesConcurrentEdits(t *testing.T) {
	env := newTestEnv(t, nil)
	base := "A\n1\n2\n3\nB\n"
	env.update(t, "", base)

	// another writer changed the last line
	env.update(t, base, "A\n1\n2\n3\nB2\n")

	// this client still edits from the old baseline
	res := env.update(t, base, "A1\n1\n2\n3\nB\n")
	assert.False(t, res.IsConflicted)
	assert.Equal(t, "A1\n1\n2\n3\nB2\n", res.Value)
	assert.Equal(t, "A1\n1\n2\n3\nB2\n", env.get(t).Value)
	assert.Equal(t, int64(3), env.patchCount(t))
}

func TestFieldService_EditNextToConcurrentAppend(t *testing.T) {
	env := newTestEnv(t, nil)
	env.update(t, "", "A\n")
	env.update(t, "A\n", "A\nB\n")

	res := env.update(t, "A\n", "A1\n")
	assert.False(t, res.IsConflicted, res.Value)
	assert.Equal(t, "A1\nB\n", res.Value)
	assert.Equal(t, int64(3), res.Version)
	assert.Equal(t, "A1\nB\n", env.get(t).Value)
}

func TestFieldService_SameEditFromBothSides(t *testing.T) {
	env := newTestEnv(t, nil)
	base := "a\nb\nc\nd\ne\n"
	env.update(t, "", base)
	env.update(t, base, "A\nb\nc\nd\ne\n")

	res := env.update(t, base, "A\nb\nc\nd\nE\n")
	assert.False(t, res.IsConflicted, res.Value)
	assert.Equal(t, "A\nb\nc\nd\nE\n", res.Value)
}

func TestFieldService_NulBytes(t *testing.T) {
	env := newTestEnv(t, nil)

	res, err := env.fields.Update(context.Background(), &dto.FieldUpdateRequest{
		OwnerKind: "project",
		OwnerID:   1,
		Value:     "x\x00y\n",
	})
	require.NoError(t, err)
	assert.False(t, res.IsConflicted)
	assert.Equal(t, int64(1), res.Version)
	require.NotNil(t, res.Patch)
	assert.NotContains(t, res.Patch.Content, "Binary files")
}

func TestFieldService_ConflictIsRejected(t *testing.T) {
	env := newTestEnv(t, nil)
	env.update(t, "", "line\n")
	env.update(t, "line\n", "server-line\n")

	res := env.update(t, "line\n", "client-line\n")
	assert.True(t, res.IsConflicted)
	assert.Nil(t, res.Patch)

	mine := strings.Index(res.Value, "<<<<<<< mine")
	original := strings.Index(res.Value, "||||||| original")
	others := strings.Index(res.Value, ">>>>>>> others")
	require.True(t, mine >= 0 && original > mine && others > original, res.Value)
	assert.Contains(t, res.Value, "client-line")
	assert.Contains(t, res.Value, "server-line")

	// nothing persisted
	assert.Equal(t, "server-line\n", env.get(t).Value)
	assert.Equal(t, int64(2), env.patchCount(t))
}

func TestFieldService_NoopEditAppendsNothing(t *testing.T) {
	env := newTestEnv(t, nil)
	env.update(t, "", "same\n")

	res := env.update(t, "same\n", "same\n")
	assert.False(t, res.IsConflicted)
	assert.Nil(t, res.Patch)
	assert.Equal(t, int64(1), res.Version)
	assert.Equal(t, int64(1), env.patchCount(t))
}

func TestFieldService_Validation(t *testing.T) {
	env := newTestEnv(t, &FieldServiceConfig{MaxValueSize: 4})
	ctx := context.Background()

	_, err := env.fields.Update(ctx, &dto.FieldUpdateRequest{OwnerKind: "user", OwnerID: 1, Value: "x"})
	assert.ErrorIs(t, err, code.ErrorFieldUnknown)

	_, err = env.fields.Update(ctx, &dto.FieldUpdateRequest{OwnerKind: "project", OwnerID: 1, Field: "title", Value: "x"})
	assert.ErrorIs(t, err, code.ErrorFieldUnknown)

	_, err = env.fields.Update(ctx, &dto.FieldUpdateRequest{OwnerKind: "project", OwnerID: 1, Value: "too long"})
	assert.ErrorIs(t, err, code.ErrorFieldTooLarge)
}

func TestHistory_Reconstruct(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	ref := projectRef(t)

	values := []string{"", "one\n", "one\ntwo\n", "zero\none\ntwo\n", "zero\ntwo\n"}
	for i := 1; i < len(values); i++ {
		env.update(t, values[i-1], values[i])
	}
	current := env.get(t).Value
	require.Equal(t, values[len(values)-1], current)

	for i, want := range values {
		got, err := env.history.ReconstructAt(ctx, ref, current, int64(i))
		require.NoError(t, err, "index %d", i)
		assert.Equal(t, want, got, "index %d", i)
	}

	// second read comes from the cache and agrees
	got, err := env.history.ReconstructAt(ctx, ref, current, 1)
	require.NoError(t, err)
	assert.Equal(t, "one\n", got)

	_, err = env.history.ReconstructAt(ctx, ref, current, int64(len(values)))
	assert.ErrorIs(t, err, ErrHistoryIndexOutOfRange)
	_, err = env.history.ReconstructAt(ctx, ref, current, -1)
	assert.ErrorIs(t, err, ErrHistoryIndexOutOfRange)

	hv, err := env.history.Value(ctx, &dto.FieldHistoryRequest{OwnerKind: "project", OwnerID: 1, Index: 2})
	require.NoError(t, err)
	assert.Equal(t, "one\ntwo\n", hv.Value)
	assert.Equal(t, int64(4), hv.Total)

	_, err = env.history.Value(ctx, &dto.FieldHistoryRequest{OwnerKind: "project", OwnerID: 1, Index: 9})
	assert.ErrorIs(t, err, code.ErrorHistoryIndex)
}

func TestHistory_ListAndGetPatch(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	env.update(t, "", "Hello\n")
	env.update(t, "Hello\n", "Hello world\n")

	list, total, err := env.history.List(ctx, &dto.PatchListRequest{OwnerKind: "project", OwnerID: 1}, &app.Pager{Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, list, 2)
	assert.Equal(t, int64(2), list[0].Seq)
	assert.Empty(t, list[0].Content)
	assert.Equal(t, "project", list[0].OwnerKind)

	detail, err := env.history.GetPatch(ctx, &dto.PatchGetRequest{UUID: list[0].UUID})
	require.NoError(t, err)
	assert.Equal(t, "Hello\n", detail.Before)
	assert.Equal(t, "Hello world\n", detail.After)
	assert.NotEmpty(t, detail.Content)
	assert.NotEmpty(t, detail.Diffs)

	detail, err = env.history.GetPatch(ctx, &dto.PatchGetRequest{ID: list[1].ID})
	require.NoError(t, err)
	assert.Equal(t, "", detail.Before)
	assert.Equal(t, "Hello\n", detail.After)

	_, err = env.history.GetPatch(ctx, &dto.PatchGetRequest{UUID: "00000000-0000-0000-0000-000000000000"})
	assert.ErrorIs(t, err, code.ErrorPatchNotFound)

	_, err = env.history.GetPatch(ctx, &dto.PatchGetRequest{})
	assert.ErrorIs(t, err, code.ErrorInvalidParams)
}

func TestFieldService_Restore(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	env.update(t, "", "v1\n")
	env.update(t, "v1\n", "v2\n")

	res, err := env.fields.Restore(ctx, &dto.FieldRestoreRequest{OwnerKind: "project", OwnerID: 1, Index: 1})
	require.NoError(t, err)
	assert.False(t, res.IsConflicted)
	assert.Equal(t, "v1\n", res.Value)
	assert.Equal(t, int64(3), res.Version)
	assert.Equal(t, "v1\n", env.get(t).Value)

	_, err = env.fields.Restore(ctx, &dto.FieldRestoreRequest{OwnerKind: "project", OwnerID: 1, Index: 7})
	assert.ErrorIs(t, err, code.ErrorHistoryIndex)
}

func TestHistory_Verify(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	ref := projectRef(t)
	env.update(t, "", "a\nb\nc\n")
	env.update(t, "a\nb\nc\n", "a\nB\nc\n")

	res, err := env.history.Verify(ctx, ref)
	require.NoError(t, err)
	assert.True(t, res.Valid, res.Reason)
	assert.Equal(t, int64(2), res.Patches)

	// tamper with the stored value behind the history's back
	require.NoError(t, env.db.Model(&model.FieldValue{}).Where("owner_id = ?", 1).Update("value", "x\n").Error)

	res, err = env.history.Verify(ctx, ref)
	require.NoError(t, err)
	assert.False(t, res.Valid)
	assert.NotEmpty(t, res.Reason)

	_, err = env.history.ReconstructAt(ctx, ref, "x\n", 0)
	assert.ErrorIs(t, err, ErrHistoryCorrupted)
}

func TestHistory_MalformedStoredPatch(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	ref := projectRef(t)
	env.update(t, "", "a\n")
	env.update(t, "a\n", "a\nb\n")
	env.update(t, "a\nb\n", "a\nb\nc\n")

	// hand-edited into a truncated hunk
	broken := "--- original\n+++ updated\n@@ -1,2 +1,3 @@\n a\n"
	require.NoError(t, env.db.Model(&model.Patch{}).Where("seq = ?", 2).Update("content", broken).Error)

	_, err := env.history.ReconstructAt(ctx, ref, "a\nb\nc\n", 1)
	assert.ErrorIs(t, err, ErrHistoryCorrupted)
	assert.NotErrorIs(t, err, merge.ErrMergeFailed)
	assert.ErrorIs(t, toCode(err), code.ErrorHistoryCorrupt)

	res, err := env.history.Verify(ctx, ref)
	require.NoError(t, err)
	assert.False(t, res.Valid)
	assert.NotEmpty(t, res.Reason)
}

func TestHistory_PatchCommittedAfterRead(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	ref := projectRef(t)
	env.update(t, "", "one\n")
	env.update(t, "one\n", "one\ntwo\n")

	// a patch lands between reading the field and listing its history
	engine := merge.NewEngine(difftool.New(difftool.Config{TempDir: t.TempDir()}, nil), nil)
	patch, err := engine.Diff(ctx, "one\ntwo\n", "one\ntwo\nthree\n")
	require.NoError(t, err)
	_, err = env.history.Append(ctx, ref, patch)
	require.NoError(t, err)

	hv, err := env.history.Value(ctx, &dto.FieldHistoryRequest{OwnerKind: "project", OwnerID: 1, Index: 1})
	require.NoError(t, err)
	assert.Equal(t, "one\n", hv.Value)
	assert.Equal(t, int64(2), hv.Total)

	list, _, err := env.history.List(ctx, &dto.PatchListRequest{OwnerKind: "project", OwnerID: 1}, &app.Pager{Page: 1, PageSize: 10})
	require.NoError(t, err)
	require.Len(t, list, 3)
	detail, err := env.history.GetPatch(ctx, &dto.PatchGetRequest{ID: list[1].ID})
	require.NoError(t, err)
	assert.Equal(t, "one\n", detail.Before)
	assert.Equal(t, "one\ntwo\n", detail.After)

	res, err := env.history.Verify(ctx, ref)
	require.NoError(t, err)
	assert.True(t, res.Valid, res.Reason)
	assert.Equal(t, int64(2), res.Patches)
}

func TestHistory_SharedReplayOutlivesCancelledCaller(t *testing.T) {
	env := newTestEnv(t, nil)
	ref := projectRef(t)
	values := []string{"", "1\n", "1\n2\n", "1\n2\n3\n"}
	for i := 1; i < len(values); i++ {
		env.update(t, values[i-1], values[i])
	}
	svc := env.history.(*historyService)

	cancelled, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := svc.reconstruct(cancelled, ref, values[3], 3, 0)
	assert.ErrorIs(t, err, context.Canceled)

	got, err := svc.reconstruct(context.Background(), ref, values[3], 3, 0)
	require.NoError(t, err)
	assert.Equal(t, "", got)
}

func TestFieldService_CompareAndSwap(t *testing.T) {
	env := newTestEnv(t, &FieldServiceConfig{CompareAndSwap: true})
	ctx := context.Background()
	ref := projectRef(t)
	env.update(t, "", "start\n")

	svc := env.fields.(*fieldService)
	stale, err := currentField(ctx, svc.fieldRepo, ref)
	require.NoError(t, err)

	// another process wins the race
	env.update(t, "start\n", "winner\n")

	patch, err := merge.NewEngine(difftool.New(difftool.Config{}, nil), nil).Diff(ctx, "start\n", "loser\n")
	require.NoError(t, err)

	_, err = svc.saver(ref, stale)(ctx, "loser\n", patch)
	assert.True(t, errors.Is(err, domain.ErrVersionConflict), "got %v", err)
	assert.ErrorIs(t, toCode(err), code.ErrorFieldStale)

	// the append rolled back with the failed save
	assert.Equal(t, int64(2), env.patchCount(t))
	assert.Equal(t, "winner\n", env.get(t).Value)
}

func TestToCode(t *testing.T) {
	assert.Nil(t, toCode(nil))
	assert.ErrorIs(t, toCode(writequeue.ErrWriteQueueFull), code.ErrorFieldBusy)
	assert.ErrorIs(t, toCode(context.DeadlineExceeded), code.ErrorFieldBusy)
	assert.ErrorIs(t, toCode(domain.ErrVersionConflict), code.ErrorFieldStale)
	assert.ErrorIs(t, toCode(gorm.ErrRecordNotFound), code.ErrorPatchNotFound)
	assert.ErrorIs(t, toCode(&merge.ConflictedError{Rejects: "x"}), code.ErrorPatchConflict)
	assert.ErrorIs(t, toCode(errors.New("db down")), code.ErrorDBQuery)
	assert.ErrorIs(t, toCode(merge.Validate("Binary files original and updated differ\n")), code.ErrorMergeFailed)
	assert.ErrorIs(t, toCode(code.ErrorInvalidParams), code.ErrorInvalidParams)
}
