package monitor

import (
	"context"
	"log"
	"strings"
	"sync"
	"time"

	"golang.org/x/text/cases"

	"github.com/five82/cueweb/internal/jobtable"
	"github.com/five82/cueweb/internal/opencue"
	"github.com/five82/cueweb/internal/worker"
)

// DefaultDebounce delays backend searches after the last keystroke.
const DefaultDebounce = 300 * time.Millisecond

// Phase is where the search pipeline currently is.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseFetchingByShowShot
	PhaseFetchingByRegex
	PhaseFiltering
)

func (p Phase) String() string {
	switch p {
	case PhaseFetchingByShowShot:
		return "fetching by show/shot"
	case PhaseFetchingByRegex:
		return "fetching by regex"
	case PhaseFiltering:
		return "filtering"
	default:
		return "idle"
	}
}

// JobSearcher runs backend job searches.
type JobSearcher interface {
	GetJobsForShowShot(ctx context.Context, show, shot string) []opencue.Job
	GetJobsForRegex(ctx context.Context, regex string) []opencue.Job
}

// FilterRequest is the filter worker's payload.
type FilterRequest struct {
	Jobs  []opencue.Job
	Query string
}

// FilterJobs keeps the jobs whose name contains query, ignoring case.
func FilterJobs(_ context.Context, req FilterRequest) ([]opencue.Job, error) {
	fold := cases.Fold()
	query := fold.String(req.Query)
	out := []opencue.Job{}
	for _, job := range req.Jobs {
		if strings.Contains(fold.String(job.Name), query) {
			out = append(out, job)
		}
	}
	return out, nil
}

// SearchKey splits input into the show and, once the shot is complete, the
// shot. A shot is complete when another dash follows it. key identifies the
// backend query.
func SearchKey(input string) (show, shot, key string) {
	parts := strings.SplitN(input, "-", 3)
	show = parts[0]
	if len(parts) == 3 {
		shot = parts[1]
	}
	if shot == "" {
		return show, "", show
	}
	return show, shot, show + "-" + shot
}

// Searcher turns search box input into backend searches and local filtering.
// Each input gets a new token; work started for an older token is dropped
// before it reaches the store.
type Searcher struct {
	store    Store
	source   JobSearcher
	debounce time.Duration
	filter   *worker.Worker[FilterRequest, []opencue.Job]

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu    sync.Mutex
	token uint64
	// filterID is the outstanding filter request, zero when none.
	filterID  uint64
	filterSeq uint64
	timer     *time.Timer
	phase     Phase
}

// NewSearcher starts a Searcher and its filter worker. Close releases both.
func NewSearcher(store Store, source JobSearcher, debounce time.Duration) *Searcher {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	ctx, cancel := context.WithCancel(context.Background())
	s := &Searcher{
		store:    store,
		source:   source,
		debounce: debounce,
		filter:   worker.Start(FilterJobs),
		ctx:      ctx,
		cancel:   cancel,
	}
	s.wg.Add(1)
	go s.receive()
	return s
}

// Phase returns the current pipeline phase.
func (s *Searcher) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// Token returns the token of the latest input.
func (s *Searcher) Token() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// Input handles a change of the search box.
func (s *Searcher) Input(query string) {
	s.store.Dispatch(jobtable.SetSearchQuery(query))

	s.mu.Lock()
	s.token++
	tok := s.token
	s.filterID = 0
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	if query == "" {
		s.phase = PhaseIdle
		s.mu.Unlock()
		s.store.Dispatch(jobtable.ClearSearch())
		return
	}
	regex := strings.HasSuffix(query, "!")
	s.timer = time.AfterFunc(s.debounce, func() { s.fire(tok, query) })
	if regex {
		s.phase = PhaseIdle
		s.mu.Unlock()
		return
	}
	s.phase = PhaseFiltering
	s.mu.Unlock()

	s.postFilter(tok, query, s.store.State().JobSearchResults)
}

// Select toggles job in the monitored table.
func (s *Searcher) Select(job opencue.Job) {
	s.store.Dispatch(jobtable.ToggleSearchSelect(job))
}

// Close stops timers and the filter worker. Pending results are dropped.
func (s *Searcher) Close() {
	s.mu.Lock()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.token++
	s.filterID = 0
	s.mu.Unlock()
	s.cancel()
	s.filter.Terminate()
	s.wg.Wait()
}

// commit applies actions only while tok is still the latest input. The
// store is called without s.mu held so observers may use the Searcher.
func (s *Searcher) commit(tok uint64, phase Phase, actions ...jobtable.Action) bool {
	if !s.setPhase(tok, phase) {
		return false
	}
	for _, a := range actions {
		s.store.Dispatch(a)
	}
	return true
}

func (s *Searcher) setPhase(tok uint64, phase Phase) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if tok != s.token {
		return false
	}
	s.phase = phase
	return true
}

func (s *Searcher) fire(tok uint64, query string) {
	if strings.HasSuffix(query, "!") {
		if !s.setPhase(tok, PhaseFetchingByRegex) {
			return
		}
		results := s.source.GetJobsForRegex(s.ctx, strings.TrimSuffix(query, "!"))
		s.commit(tok, PhaseIdle,
			jobtable.SetJobSearchResults(results),
			jobtable.SetFilteredJobSearchResults(results),
		)
		return
	}

	if !strings.Contains(query, "-") {
		s.finishFilter(tok)
		return
	}
	show, shot, key := SearchKey(query)
	if s.store.State().APIQuery != key {
		if !s.setPhase(tok, PhaseFetchingByShowShot) {
			return
		}
		results := s.source.GetJobsForShowShot(s.ctx, show, shot)
		if !s.commit(tok, PhaseFiltering,
			jobtable.SetAPIQuery(key),
			jobtable.SetJobSearchResults(results),
		) {
			return
		}
	} else if !s.setPhase(tok, PhaseFiltering) {
		return
	}
	s.postFilter(tok, query, s.store.State().JobSearchResults)
}

// finishFilter returns to idle once no filter request is outstanding.
func (s *Searcher) finishFilter(tok uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if tok == s.token && s.phase == PhaseFiltering && s.filterID == 0 {
		s.phase = PhaseIdle
	}
}

func (s *Searcher) postFilter(tok uint64, query string, candidates []opencue.Job) {
	s.mu.Lock()
	if tok != s.token {
		s.mu.Unlock()
		return
	}
	s.filterSeq++
	s.filterID = s.filterSeq
	id := s.filterID
	s.mu.Unlock()

	if err := s.filter.Post(worker.Request[FilterRequest]{ID: id, Payload: FilterRequest{Jobs: candidates, Query: query}}); err != nil {
		log.Printf("search: post filter: %v", err)
	}
}

func (s *Searcher) receive() {
	defer s.wg.Done()
	for {
		select {
		case <-s.ctx.Done():
			return
		case resp := <-s.filter.Responses():
			s.commitFilter(resp)
		}
	}
}

func (s *Searcher) commitFilter(resp worker.Response[[]opencue.Job]) {
	s.mu.Lock()
	if s.filterID == 0 || resp.ID != s.filterID {
		s.mu.Unlock()
		return
	}
	s.filterID = 0
	if s.phase == PhaseFiltering {
		s.phase = PhaseIdle
	}
	s.mu.Unlock()

	if resp.Err != nil {
		log.Printf("search: filter: %v", resp.Err)
		return
	}
	s.store.Dispatch(jobtable.SetFilteredJobSearchResults(resp.Result))
}
