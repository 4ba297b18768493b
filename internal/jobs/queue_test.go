package jobs

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/subgemma/subtrans/internal/service"
)

func waitForStatus(t *testing.T, q *Queue, id string, want Status) *RunJob {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if job, ok := q.Get(id); ok && job.Status == want {
			return job
		}
		time.Sleep(10 * time.Millisecond)
	}
	job, _ := q.Get(id)
	t.Fatalf("job %s never reached %s (last: %+v)", id, want, job)
	return nil
}

func TestQueue_RunsJobsSequentially(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	var running int
	var maxRunning int

	q := NewQueue(nil)
	q.Start(func(ctx context.Context, job *RunJob, progress service.ProgressFunc) (*service.RunReport, error) {
		mu.Lock()
		running++
		if running > maxRunning {
			maxRunning = running
		}
		mu.Unlock()

		time.Sleep(20 * time.Millisecond)

		mu.Lock()
		running--
		mu.Unlock()
		return &service.RunReport{Translated: 1}, nil
	})
	defer q.Stop()

	a, fresh := q.Enqueue(EnqueueRequest{Source: "cli"})
	require.True(t, fresh)
	b, fresh := q.Enqueue(EnqueueRequest{Source: "cli"})
	require.True(t, fresh)

	waitForStatus(t, q, a.ID, StatusSuccess)
	done := waitForStatus(t, q, b.ID, StatusSuccess)
	require.NotNil(t, done.Report)
	assert.Equal(t, 1, done.Report.Translated)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, maxRunning, "queue must never overlap runs")
}

func TestQueue_DedupeWhilePending(t *testing.T) {
	t.Parallel()

	q := NewQueue(nil)
	// not started: jobs stay pending

	a, fresh := q.Enqueue(EnqueueRequest{Source: "cron", DedupeKey: "scan"})
	require.True(t, fresh)
	b, fresh := q.Enqueue(EnqueueRequest{Source: "cron", DedupeKey: "scan"})
	assert.False(t, fresh)
	assert.Equal(t, a.ID, b.ID)
}

func TestQueue_FailureRecorded(t *testing.T) {
	t.Parallel()

	q := NewQueue(nil)
	q.Start(func(context.Context, *RunJob, service.ProgressFunc) (*service.RunReport, error) {
		return nil, assert.AnError
	})
	defer q.Stop()

	job, _ := q.Enqueue(EnqueueRequest{Source: "cli"})
	failed := waitForStatus(t, q, job.ID, StatusFailed)
	assert.Contains(t, failed.Error, assert.AnError.Error())
}

func TestQueue_ProgressVisible(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	q := NewQueue(nil)
	q.Start(func(_ context.Context, _ *RunJob, progress service.ProgressFunc) (*service.RunReport, error) {
		progress(service.Progress{CurrentFile: "a.srt", BatchesDone: 1, BatchesTotal: 4})
		<-release
		return &service.RunReport{}, nil
	})
	defer q.Stop()

	job, _ := q.Enqueue(EnqueueRequest{Source: "api"})

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if got, ok := q.Get(job.ID); ok && got.Progress.BatchesDone == 1 {
			assert.Equal(t, "a.srt", got.Progress.CurrentFile)
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	close(release)
	waitForStatus(t, q, job.ID, StatusSuccess)
}

// memoryStore is an in-memory Store for restart tests. It records which
// jobs had their data deleted.
type memoryStore struct {
	mu      sync.Mutex
	jobs    map[string]*RunJob
	deleted []string
}

func newMemoryStore() *memoryStore {
	return &memoryStore{jobs: make(map[string]*RunJob)}
}

func (s *memoryStore) LoadJobs(context.Context) ([]*RunJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*RunJob, 0, len(s.jobs))
	for _, j := range s.jobs {
		out = append(out, cloneJob(j))
	}
	return out, nil
}

func (s *memoryStore) UpsertJob(_ context.Context, job *RunJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = cloneJob(job)
	return nil
}

func (s *memoryStore) DeleteJobData(_ context.Context, jobID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleted = append(s.deleted, jobID)
	return nil
}

func TestQueue_StopKeepsCheckpointsAndRequeuesInterruptedRun(t *testing.T) {
	t.Parallel()

	store := newMemoryStore()
	q := NewQueue(store)

	started := make(chan struct{})
	q.Start(func(ctx context.Context, _ *RunJob, _ service.ProgressFunc) (*service.RunReport, error) {
		close(started)
		<-ctx.Done()
		return nil, ctx.Err()
	})

	job, created := q.Enqueue(EnqueueRequest{Source: "cron", DedupeKey: "scheduled"})
	require.True(t, created)

	<-started
	q.Stop()

	got, ok := q.Get(job.ID)
	require.True(t, ok)
	assert.Equal(t, StatusPending, got.Status, "interrupted run must be requeued, not failed")
	assert.Empty(t, got.Error)

	store.mu.Lock()
	defer store.mu.Unlock()
	assert.NotContains(t, store.deleted, job.ID, "checkpoints of an interrupted run must survive")
	require.NotNil(t, store.jobs[job.ID])
	assert.Equal(t, StatusPending, store.jobs[job.ID].Status, "pending state must be persisted for restart hydration")
}

func TestQueue_SuccessfulRunDropsJobData(t *testing.T) {
	t.Parallel()

	store := newMemoryStore()
	q := NewQueue(store)
	q.Start(func(context.Context, *RunJob, service.ProgressFunc) (*service.RunReport, error) {
		return &service.RunReport{}, nil
	})
	defer q.Stop()

	job, _ := q.Enqueue(EnqueueRequest{Source: "cli"})
	waitForStatus(t, q, job.ID, StatusSuccess)

	assert.Eventually(t, func() bool {
		store.mu.Lock()
		defer store.mu.Unlock()
		for _, id := range store.deleted {
			if id == job.ID {
				return true
			}
		}
		return false
	}, 2*time.Second, 10*time.Millisecond, "finished run must drop its job data")
}

func TestQueue_HydratesInterruptedRuns(t *testing.T) {
	t.Parallel()

	store := newMemoryStore()
	store.jobs["job-7"] = &RunJob{ID: "job-7", Status: StatusRunning, DedupeKey: "scan"}

	q := NewQueue(store)
	job, ok := q.Get("job-7")
	require.True(t, ok)
	assert.Equal(t, StatusPending, job.Status, "interrupted runs are requeued")

	// id counter resumes past hydrated ids
	fresh, _ := q.Enqueue(EnqueueRequest{Source: "cli"})
	assert.Equal(t, "job-8", fresh.ID)
}
