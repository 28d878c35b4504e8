package monitor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/five82/cueweb/internal/jobtable"
	"github.com/five82/cueweb/internal/opencue"
	"github.com/five82/cueweb/internal/worker"
)

// Store is the part of *jobtable.Store the monitor needs.
type Store interface {
	State() jobtable.State
	Dispatch(jobtable.Action) jobtable.State
}

var _ Store = (*jobtable.Store)(nil)

// JobLookup fetches a single job. ok is false when the request failed.
type JobLookup interface {
	LookupJob(ctx context.Context, id string) (job *opencue.Job, ok bool)
}

// ErrGatewayUnreachable means no tracked job could be fetched.
var ErrGatewayUnreachable = errors.New("no tracked job could be refreshed")

// lookupConcurrency bounds parallel fetches per refresh.
const lookupConcurrency = 8

// Syncer refreshes every monitored job from the backend.
type Syncer struct {
	store  Store
	lookup JobLookup

	mu      sync.Mutex
	current *worker.Worker[[]string, jobtable.SyncResult]
	nextID  uint64
}

// NewSyncer returns a Syncer reading and writing store.
func NewSyncer(store Store, lookup JobLookup) *Syncer {
	return &Syncer{store: store, lookup: lookup}
}

// Tick runs one refresh of the committed job list. It reports whether the
// table changed. A refresh superseded by a change of the monitored set is
// dropped without error.
func (s *Syncer) Tick(ctx context.Context) (bool, error) {
	snap := s.store.State()
	ids := snap.TrackedIDs()
	if len(ids) == 0 {
		return false, nil
	}

	w := worker.Start(s.refresh)
	s.mu.Lock()
	if s.current != nil {
		s.current.Terminate()
	}
	s.current = w
	s.nextID++
	id := s.nextID
	s.mu.Unlock()
	defer s.finish(w)

	result, err := w.Call(ctx, id, ids)
	if errors.Is(err, worker.ErrTerminated) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("refresh jobs: %w", err)
	}
	result.BaseRevision = snap.Revision

	action := jobtable.ApplySync(result)
	current := s.store.State()
	if sameJobs(current.TableDataUnfiltered, jobtable.Reduce(current, action).TableDataUnfiltered) {
		return false, nil
	}
	s.store.Dispatch(action)
	return true, nil
}

// Observe terminates an in-flight refresh when the monitored set changes.
func (s *Syncer) Observe(prev, next jobtable.State, _ jobtable.Action) {
	if idKey(prev) == idKey(next) {
		return
	}
	s.mu.Lock()
	w := s.current
	s.current = nil
	s.mu.Unlock()
	if w != nil {
		w.Terminate()
	}
}

// Stop terminates any in-flight refresh.
func (s *Syncer) Stop() {
	s.mu.Lock()
	w := s.current
	s.current = nil
	s.mu.Unlock()
	if w != nil {
		w.Terminate()
	}
}

func (s *Syncer) finish(w *worker.Worker[[]string, jobtable.SyncResult]) {
	s.mu.Lock()
	if s.current == w {
		s.current = nil
	}
	s.mu.Unlock()
	w.Terminate()
}

// refresh fetches each id in parallel. Ids whose request failed are left
// out of Requested so the table keeps their last known record.
func (s *Syncer) refresh(ctx context.Context, ids []string) (jobtable.SyncResult, error) {
	jobs := make([]*opencue.Job, len(ids))
	answered := make([]bool, len(ids))

	var g errgroup.Group
	g.SetLimit(lookupConcurrency)
	for i, id := range ids {
		i, id := i, id
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			jobs[i], answered[i] = s.lookup.LookupJob(ctx, id)
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return jobtable.SyncResult{}, err
	}

	var result jobtable.SyncResult
	failed := 0
	for i, id := range ids {
		if !answered[i] {
			failed++
			continue
		}
		result.Requested = append(result.Requested, id)
		if jobs[i] != nil {
			result.Jobs = append(result.Jobs, *jobs[i])
		}
	}
	if failed == len(ids) {
		return jobtable.SyncResult{}, ErrGatewayUnreachable
	}
	if failed > 0 {
		log.Printf("refresh: %d of %d jobs could not be fetched", failed, len(ids))
	}
	return result, nil
}

func idKey(s jobtable.State) string {
	return strings.Join(s.TrackedIDs(), "\x00")
}

func sameJobs(a, b []opencue.Job) bool {
	left, err := json.Marshal(a)
	if err != nil {
		return false
	}
	right, err := json.Marshal(b)
	if err != nil {
		return false
	}
	return string(left) == string(right)
}
