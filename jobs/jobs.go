// Package jobs runs long analyses in the background and keeps their status
// in memory for polling. Jobs expire a fixed time after creation.
package jobs

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusPending Status = "pending"
	StatusRunning Status = "running"
	StatusDone    Status = "done"
	StatusError   Status = "error"
)

const DefaultTTL = 30 * time.Minute

// TimeoutMessage is the error recorded on a job whose work ran out of time.
const TimeoutMessage = "Tempo limite excedido ao analisar o cardápio."

var ErrNotFound = errors.New("job not found")

type Job struct {
	ID        string    `json:"job_id"`
	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Result    any       `json:"result"`
	Error     string    `json:"error,omitempty"`
}

// Finished reports whether the job reached a terminal status.
func (j Job) Finished() bool {
	return j.Status == StatusDone || j.Status == StatusError
}

// Work is the unit a job runs. It should honour ctx; when it does not, the
// job still fails at its deadline and the goroutine is left to finish alone.
type Work func(ctx context.Context) (any, error)

type Options struct {
	TTL time.Duration
	Now func() time.Time
	// OnFinish is called with a copy of every job that reaches a terminal status.
	OnFinish func(Job)
}

type Tracker struct {
	mu   sync.Mutex
	jobs map[string]*Job
	opts Options
	wg   sync.WaitGroup
}

func New(opts Options) *Tracker {
	if opts.TTL == 0 {
		opts.TTL = DefaultTTL
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Tracker{jobs: make(map[string]*Job), opts: opts}
}

// Submit registers a pending job and starts work in the background with the
// given timeout. It returns the job id immediately.
func (t *Tracker) Submit(work Work, timeout time.Duration) string {
	id := newID()

	t.mu.Lock()
	now := t.opts.Now()
	t.pruneLocked(now)
	t.jobs[id] = &Job{ID: id, Status: StatusPending, CreatedAt: now, UpdatedAt: now}
	t.mu.Unlock()

	slog.Info("JOBS: Job submitted", "job_id", id, "timeout", timeout)

	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		t.run(id, work, timeout)
	}()
	return id
}

// Get returns a copy of the job, pruning expired jobs first.
func (t *Tracker) Get(id string) (Job, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.pruneLocked(t.opts.Now())
	j, ok := t.jobs[id]
	if !ok {
		return Job{}, false
	}
	return *j, true
}

// Len counts jobs currently held, expired or not.
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.jobs)
}

// Wait blocks until every submitted job finished or ctx is done.
func (t *Tracker) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		t.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

type outcome struct {
	result any
	err    error
}

func (t *Tracker) run(id string, work Work, timeout time.Duration) {
	t.update(id, StatusRunning, nil, "")

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	ch := make(chan outcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- outcome{err: fmt.Errorf("job panicked: %v", r)}
			}
		}()
		res, err := work(ctx)
		ch <- outcome{result: res, err: err}
	}()

	var out outcome
	select {
	case out = <-ch:
	case <-ctx.Done():
		out = outcome{err: ctx.Err()}
	}

	switch {
	case out.err == nil:
		t.update(id, StatusDone, out.result, "")
	case errors.Is(out.err, context.DeadlineExceeded):
		slog.Warn("JOBS: Job timed out", "job_id", id, "timeout", timeout)
		t.update(id, StatusError, nil, TimeoutMessage)
	default:
		slog.Error("JOBS: Job failed", "job_id", id, "error", out.err)
		t.update(id, StatusError, nil, out.err.Error())
	}
}

// update moves a job forward. Pruned jobs and backward transitions are ignored.
func (t *Tracker) update(id string, status Status, result any, errMsg string) {
	t.mu.Lock()
	j, ok := t.jobs[id]
	if !ok || rank(status) <= rank(j.Status) {
		t.mu.Unlock()
		return
	}
	j.Status = status
	j.UpdatedAt = t.opts.Now()
	j.Result = result
	j.Error = errMsg
	snapshot := *j
	t.mu.Unlock()

	if snapshot.Finished() {
		slog.Info("JOBS: Job finished", "job_id", id, "status", status)
		if t.opts.OnFinish != nil {
			t.opts.OnFinish(snapshot)
		}
	}
}

func (t *Tracker) pruneLocked(now time.Time) {
	for id, j := range t.jobs {
		if now.Sub(j.CreatedAt) > t.opts.TTL {
			delete(t.jobs, id)
		}
	}
}

func rank(s Status) int {
	switch s {
	case StatusPending:
		return 0
	case StatusRunning:
		return 1
	default:
		return 2
	}
}

func newID() string {
	u := uuid.New()
	return hex.EncodeToString(u[:])
}
