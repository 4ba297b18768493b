package persistence

import (
	"context"
	"fmt"
	"sync"
)

// JobCheckpointStore adapts the SQLite store to the runner's
// BatchCheckpointStore interface for one job, with a write-through cache
// so resumed runs read checkpoints without touching the database per
// batch.
type JobCheckpointStore struct {
	store *SQLiteStore
	jobID string

	mu     sync.RWMutex
	cached map[string][]string
}

// Checkpoints loads a job's saved checkpoints and returns a store bound
// to that job.
func (s *SQLiteStore) Checkpoints(ctx context.Context, jobID string) (*JobCheckpointStore, error) {
	if jobID == "" {
		return nil, fmt.Errorf("job id is empty")
	}

	checkpoints, err := s.LoadBatchCheckpoints(ctx, jobID)
	if err != nil {
		return nil, err
	}

	cached := make(map[string][]string, len(checkpoints))
	for _, cp := range checkpoints {
		cached[checkpointKey(cp.File, cp.BatchStart, cp.BatchEnd)] = append([]string(nil), cp.Lines...)
	}

	return &JobCheckpointStore{
		store:  s,
		jobID:  jobID,
		cached: cached,
	}, nil
}

func (c *JobCheckpointStore) Load(file string, start, end int) ([]string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	lines, ok := c.cached[checkpointKey(file, start, end)]
	if !ok {
		return nil, false
	}
	return append([]string(nil), lines...), true
}

func (c *JobCheckpointStore) Save(file string, start, end int, translated []string) error {
	lines := append([]string(nil), translated...)
	if err := c.store.SaveBatchCheckpoint(context.Background(), c.jobID, file, start, end, lines); err != nil {
		return err
	}
	c.mu.Lock()
	c.cached[checkpointKey(file, start, end)] = lines
	c.mu.Unlock()
	return nil
}

func (c *JobCheckpointStore) Clear(file string) error {
	if err := c.store.DeleteFileCheckpoints(context.Background(), c.jobID, file); err != nil {
		return err
	}
	c.mu.Lock()
	for key := range c.cached {
		if keyFile, _, _ := splitCheckpointKey(key); keyFile == file {
			delete(c.cached, key)
		}
	}
	c.mu.Unlock()
	return nil
}

func checkpointKey(file string, start, end int) string {
	return fmt.Sprintf("%s\x00%d:%d", file, start, end)
}

func splitCheckpointKey(key string) (file string, start, end int) {
	var span string
	for i := 0; i < len(key); i++ {
		if key[i] == '\x00' {
			file = key[:i]
			span = key[i+1:]
			break
		}
	}
	fmt.Sscanf(span, "%d:%d", &start, &end)
	return file, start, end
}
