package monitor

import (
	"context"
	"sync"

	"github.com/five82/cueweb/internal/jobtable"
	"github.com/five82/cueweb/internal/opencue"
)

// UserJobs fetches the jobs a user owns.
type UserJobs interface {
	GetJobsForUser(ctx context.Context, user string) []opencue.Job
}

// Autoloader keeps the signed-in user's jobs in the table while AutoloadMine
// is on.
type Autoloader struct {
	store  Store
	source UserJobs
	ctx    context.Context

	mu      sync.Mutex
	running bool
	// pending asks the running load to go again once it finishes.
	pending bool
	wg      sync.WaitGroup
}

// NewAutoloader returns an Autoloader. Loads triggered by Observe use ctx.
func NewAutoloader(ctx context.Context, store Store, source UserJobs) *Autoloader {
	return &Autoloader{store: store, source: source, ctx: ctx}
}

// Run loads the user's jobs once and merges any that are not monitored yet.
// It returns how many jobs were added.
func (a *Autoloader) Run(ctx context.Context) int {
	snap := a.store.State()
	if !snap.AutoloadMine || snap.Username == "" {
		return 0
	}
	jobs := a.source.GetJobsForUser(ctx, snap.Username)
	if len(jobs) == 0 {
		return 0
	}

	// Re-read after the fetch; the toggle may have been switched off.
	now := a.store.State()
	if !now.AutoloadMine || now.Username != snap.Username {
		return 0
	}
	fresh := 0
	for _, job := range jobs {
		if !now.Tracks(job.Name) {
			fresh++
		}
	}
	if fresh == 0 {
		return 0
	}
	before := len(now.TableDataUnfiltered)
	after := a.store.Dispatch(jobtable.MergeAutoload(jobs))
	return len(after.TableDataUnfiltered) - before
}

// Observe starts a load when AutoloadMine or Username changes. A change
// that arrives while a load is running queues one more load.
func (a *Autoloader) Observe(prev, next jobtable.State, _ jobtable.Action) {
	if prev.AutoloadMine == next.AutoloadMine && prev.Username == next.Username {
		return
	}
	if !next.AutoloadMine || next.Username == "" {
		return
	}
	a.mu.Lock()
	if a.running {
		a.pending = true
		a.mu.Unlock()
		return
	}
	a.running = true
	a.wg.Add(1)
	a.mu.Unlock()

	go func() {
		defer a.wg.Done()
		for {
			a.Run(a.ctx)
			a.mu.Lock()
			if !a.pending || a.ctx.Err() != nil {
				a.running = false
				a.pending = false
				a.mu.Unlock()
				return
			}
			a.pending = false
			a.mu.Unlock()
		}
	}()
}

// Wait blocks until loads started by Observe have finished.
func (a *Autoloader) Wait() {
	a.wg.Wait()
}
