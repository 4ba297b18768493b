package persistence

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/subgemma/subtrans/internal/jobs"
	"github.com/subgemma/subtrans/internal/service"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "subtrans.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSQLiteStore_JobRoundTrip(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	job := &jobs.RunJob{
		ID:        "job-1",
		Source:    "cron",
		DedupeKey: "scheduled",
		Config: service.RunConfiguration{
			InputRoot:      "/input",
			OutputRoot:     "/output",
			FileType:       "srt",
			TargetLanguage: "Traditional Chinese",
		},
		Status:    jobs.StatusRunning,
		Progress:  service.Progress{FilesDone: 1, FilesTotal: 3, CurrentFile: "b.srt"},
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, store.UpsertJob(ctx, job))

	loaded, err := store.LoadJobs(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	got := loaded[0]
	assert.Equal(t, "job-1", got.ID)
	assert.Equal(t, jobs.StatusRunning, got.Status)
	assert.Equal(t, "/input", got.Config.InputRoot)
	assert.Equal(t, 1, got.Progress.FilesDone)
	assert.Nil(t, got.Report)

	// finishing the job updates the same row in place
	job.Status = jobs.StatusSuccess
	job.Report = &service.RunReport{Translated: 3}
	require.NoError(t, store.UpsertJob(ctx, job))

	loaded, err = store.LoadJobs(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	require.NotNil(t, loaded[0].Report)
	assert.Equal(t, 3, loaded[0].Report.Translated)
	assert.Equal(t, jobs.StatusSuccess, loaded[0].Status)
}

func TestSQLiteStore_CheckpointLifecycle(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	cps, err := store.Checkpoints(ctx, "job-1")
	require.NoError(t, err)

	_, ok := cps.Load("a.srt", 0, 2)
	assert.False(t, ok)

	require.NoError(t, cps.Save("a.srt", 0, 2, []string{"甲", "乙"}))
	require.NoError(t, cps.Save("a.srt", 2, 4, []string{"丙", "丁"}))
	require.NoError(t, cps.Save("b.srt", 0, 1, []string{"戊"}))

	lines, ok := cps.Load("a.srt", 0, 2)
	require.True(t, ok)
	assert.Equal(t, []string{"甲", "乙"}, lines)

	// a fresh handle reads back what the first one wrote
	reopened, err := store.Checkpoints(ctx, "job-1")
	require.NoError(t, err)
	lines, ok = reopened.Load("a.srt", 2, 4)
	require.True(t, ok)
	assert.Equal(t, []string{"丙", "丁"}, lines)

	// clearing one file leaves the others intact
	require.NoError(t, cps.Clear("a.srt"))
	_, ok = cps.Load("a.srt", 0, 2)
	assert.False(t, ok)

	remaining, err := store.LoadBatchCheckpoints(ctx, "job-1")
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, "b.srt", remaining[0].File)
}

func TestSQLiteStore_CheckpointsIsolatedPerJob(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	first, err := store.Checkpoints(ctx, "job-1")
	require.NoError(t, err)
	require.NoError(t, first.Save("a.srt", 0, 2, []string{"甲"}))

	second, err := store.Checkpoints(ctx, "job-2")
	require.NoError(t, err)
	_, ok := second.Load("a.srt", 0, 2)
	assert.False(t, ok)

	// DeleteJobData drops job-1's checkpoints only
	require.NoError(t, second.Save("a.srt", 0, 2, []string{"乙"}))
	require.NoError(t, store.DeleteJobData(ctx, "job-1"))

	left, err := store.LoadBatchCheckpoints(ctx, "job-1")
	require.NoError(t, err)
	assert.Empty(t, left)

	kept, err := store.LoadBatchCheckpoints(ctx, "job-2")
	require.NoError(t, err)
	require.Len(t, kept, 1)
	assert.Equal(t, []string{"乙"}, kept[0].Lines)
}

// The adapter must satisfy the runner's checkpoint interface.
var _ service.BatchCheckpointStore = (*JobCheckpointStore)(nil)
