package jobs

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/subgemma/subtrans/internal/service"
	"github.com/subgemma/subtrans/pkg/log"
)

// Executor runs one job. Progress updates flow back through the callback.
type Executor func(ctx context.Context, job *RunJob, progress service.ProgressFunc) (*service.RunReport, error)

// Queue is a single-worker job queue: runs execute strictly one at a time
// on a background goroutine, keeping the pipeline's sequencing guarantees
// while callers stay unblocked.
type Queue struct {
	store Store

	mu         sync.RWMutex
	jobs       map[string]*RunJob
	dedupe     map[string]string
	idCounter  uint64
	started    bool
	pendingIDs chan string
	cancelRun  context.CancelFunc
	stopCh     chan struct{}
	stopOnce   sync.Once
	wg         sync.WaitGroup

	scheduled singleflight.Group
}

// NewQueue creates a queue, hydrating prior jobs from store when given.
func NewQueue(store Store) *Queue {
	q := &Queue{
		store:      store,
		jobs:       make(map[string]*RunJob),
		dedupe:     make(map[string]string),
		pendingIDs: make(chan string, 64),
		stopCh:     make(chan struct{}),
	}
	q.hydrateFromStore(context.Background())
	return q
}

// Enqueue schedules a run. A job with the same dedupe key that is still
// pending or running is returned instead of queuing a duplicate.
func (q *Queue) Enqueue(req EnqueueRequest) (*RunJob, bool) {
	now := time.Now()

	q.mu.Lock()
	if req.DedupeKey != "" {
		if id, ok := q.dedupe[req.DedupeKey]; ok {
			if existing, exists := q.jobs[id]; exists {
				snapshot := cloneJob(existing)
				q.mu.Unlock()
				return snapshot, false
			}
			delete(q.dedupe, req.DedupeKey)
		}
	}

	id := fmt.Sprintf("job-%d", atomic.AddUint64(&q.idCounter, 1))
	job := &RunJob{
		ID:        id,
		Source:    req.Source,
		DedupeKey: req.DedupeKey,
		Config:    req.Config,
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	q.jobs[id] = job
	if req.DedupeKey != "" {
		q.dedupe[req.DedupeKey] = id
	}
	started := q.started
	snapshot := cloneJob(job)
	q.mu.Unlock()

	q.persistJob(snapshot)
	if started {
		q.enqueuePendingID(id)
	}
	return snapshot, true
}

// TriggerScheduled collapses concurrent cron/API triggers into one
// enqueue per tick.
func (q *Queue) TriggerScheduled(cfg service.RunConfiguration) (*RunJob, bool) {
	v, _, _ := q.scheduled.Do("scheduled", func() (any, error) {
		job, fresh := q.Enqueue(EnqueueRequest{
			Source:    "cron",
			DedupeKey: "scheduled",
			Config:    cfg,
		})
		return [2]any{job, fresh}, nil
	})
	pair := v.([2]any)
	return pair[0].(*RunJob), pair[1].(bool)
}

// Get returns a snapshot of one job.
func (q *Queue) Get(id string) (*RunJob, bool) {
	q.mu.RLock()
	job, ok := q.jobs[id]
	q.mu.RUnlock()
	if !ok {
		return nil, false
	}
	return cloneJob(job), true
}

// List returns snapshots of all known jobs, newest first.
func (q *Queue) List() []*RunJob {
	q.mu.RLock()
	ret := make([]*RunJob, 0, len(q.jobs))
	for _, job := range q.jobs {
		ret = append(ret, cloneJob(job))
	}
	q.mu.RUnlock()

	sort.Slice(ret, func(i, j int) bool {
		return ret[i].CreatedAt.After(ret[j].CreatedAt)
	})
	return ret
}

// Start launches the worker goroutine and requeues pending jobs.
func (q *Queue) Start(exec Executor) {
	q.mu.Lock()
	if q.started {
		q.mu.Unlock()
		return
	}
	q.started = true

	pending := make([]string, 0)
	for id, job := range q.jobs {
		if job.Status == StatusPending {
			pending = append(pending, id)
		}
	}
	q.mu.Unlock()

	for _, id := range pending {
		q.enqueuePendingID(id)
	}

	q.wg.Add(1)
	go q.worker(exec)
}

// Stop cancels the in-flight run (cooperatively, between batches) and
// waits for the worker to exit.
func (q *Queue) Stop() {
	q.stopOnce.Do(func() {
		close(q.stopCh)
		q.mu.Lock()
		if q.cancelRun != nil {
			q.cancelRun()
		}
		q.mu.Unlock()
		q.wg.Wait()
	})
}

func (q *Queue) worker(exec Executor) {
	defer q.wg.Done()

	for {
		select {
		case <-q.stopCh:
			return
		case id := <-q.pendingIDs:
			job, ok := q.markRunning(id)
			if !ok {
				continue
			}

			ctx, cancel := context.WithCancel(context.Background())
			q.mu.Lock()
			q.cancelRun = cancel
			q.mu.Unlock()

			report, err := exec(ctx, job, func(p service.Progress) {
				q.updateProgress(id, p)
			})
			cancel()

			if err != nil {
				q.markFailed(id, report, err)
				continue
			}
			q.markSuccess(id, report)
		}
	}
}

func (q *Queue) enqueuePendingID(id string) {
	select {
	case q.pendingIDs <- id:
	default:
		go func() { q.pendingIDs <- id }()
	}
}

func (q *Queue) markRunning(id string) (*RunJob, bool) {
	q.mu.Lock()
	job, ok := q.jobs[id]
	if !ok || job.Status != StatusPending {
		q.mu.Unlock()
		return nil, false
	}
	job.Status = StatusRunning
	job.UpdatedAt = time.Now()
	snapshot := cloneJob(job)
	q.mu.Unlock()

	q.persistJob(snapshot)
	return snapshot, true
}

func (q *Queue) updateProgress(id string, p service.Progress) {
	q.mu.Lock()
	job, ok := q.jobs[id]
	if !ok {
		q.mu.Unlock()
		return
	}
	job.Progress = p
	job.UpdatedAt = time.Now()
	q.mu.Unlock()
}

func (q *Queue) markSuccess(id string, report *service.RunReport) {
	q.finish(id, report, nil)
}

func (q *Queue) markFailed(id string, report *service.RunReport, err error) {
	q.finish(id, report, err)
}

func (q *Queue) finish(id string, report *service.RunReport, runErr error) {
	// a canceled run is interrupted, not failed: it goes back to pending
	// and keeps its batch checkpoints so the next attempt resumes instead
	// of re-translating finished batches
	interrupted := errors.Is(runErr, context.Canceled) || errors.Is(runErr, context.DeadlineExceeded)

	q.mu.Lock()
	job, ok := q.jobs[id]
	if !ok {
		q.mu.Unlock()
		return
	}
	switch {
	case interrupted:
		job.Status = StatusPending
		job.Error = ""
	case runErr != nil:
		job.Status = StatusFailed
		job.Error = runErr.Error()
	default:
		job.Status = StatusSuccess
		job.Error = ""
	}
	job.Report = report
	job.UpdatedAt = time.Now()
	if job.DedupeKey != "" && !interrupted {
		if cur, exists := q.dedupe[job.DedupeKey]; exists && cur == id {
			delete(q.dedupe, job.DedupeKey)
		}
	}
	snapshot := cloneJob(job)
	q.mu.Unlock()

	q.persistJob(snapshot)
	if q.store != nil && !interrupted {
		if err := q.store.DeleteJobData(context.Background(), id); err != nil {
			log.Warn("failed to delete job data for %s: %v", id, err)
		}
	}
}

func (q *Queue) hydrateFromStore(ctx context.Context) {
	if q.store == nil {
		return
	}
	stored, err := q.store.LoadJobs(ctx)
	if err != nil {
		log.Warn("failed to load persisted jobs: %v", err)
		return
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	var maxID uint64
	for _, job := range stored {
		if job == nil {
			continue
		}
		j := cloneJob(job)
		// a run interrupted mid-flight is requeued from its checkpoints
		if j.Status == StatusRunning {
			j.Status = StatusPending
		}
		q.jobs[j.ID] = j
		if j.DedupeKey != "" && (j.Status == StatusPending || j.Status == StatusRunning) {
			q.dedupe[j.DedupeKey] = j.ID
		}
		var n uint64
		if _, err := fmt.Sscanf(j.ID, "job-%d", &n); err == nil && n > maxID {
			maxID = n
		}
	}
	atomic.StoreUint64(&q.idCounter, maxID)
}

func (q *Queue) persistJob(job *RunJob) {
	if q.store == nil || job == nil {
		return
	}
	if err := q.store.UpsertJob(context.Background(), job); err != nil {
		log.Warn("failed to persist job %s: %v", job.ID, err)
	}
}

func cloneJob(job *RunJob) *RunJob {
	if job == nil {
		return nil
	}
	cloned := *job
	if job.Report != nil {
		report := *job.Report
		report.Files = append([]service.FileResult(nil), job.Report.Files...)
		cloned.Report = &report
	}
	return &cloned
}
