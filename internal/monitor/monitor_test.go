package monitor

import (
	"context"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/davecgh/go-spew/spew"

	"github.com/five82/cueweb/internal/jobtable"
	"github.com/five82/cueweb/internal/opencue"
)

func job(id, name string) opencue.Job {
	return opencue.Job{ID: id, Name: name, State: "RUNNING"}
}

func names(jobs []opencue.Job) []string {
	out := []string{}
	for _, j := range jobs {
		out = append(out, j.Name)
	}
	return out
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

type fakeLookup struct {
	mu     sync.Mutex
	jobs   map[string]opencue.Job
	failed map[string]bool
	gate   chan struct{}
	calls  int
}

func (f *fakeLookup) LookupJob(ctx context.Context, id string) (*opencue.Job, bool) {
	if f.gate != nil {
		select {
		case <-f.gate:
		case <-ctx.Done():
			return nil, false
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.failed[id] {
		return nil, false
	}
	if j, ok := f.jobs[id]; ok {
		return &j, true
	}
	return nil, true
}

func TestFilterJobs(t *testing.T) {
	jobs := []opencue.Job{job("1", "show-shot-ALICE_comp"), job("2", "show-shot-bob_lite")}
	got, err := FilterJobs(context.Background(), FilterRequest{Jobs: jobs, Query: "alice"})
	if err != nil {
		t.Fatalf("FilterJobs returned error: %v", err)
	}
	if !reflect.DeepEqual(names(got), []string{"show-shot-ALICE_comp"}) {
		t.Fatalf("FilterJobs = %v", names(got))
	}
}

func TestSearchKey(t *testing.T) {
	tests := []struct {
		input, show, shot, key string
	}{
		{"showA-", "showA", "", "showA"},
		{"showA-sh", "showA", "", "showA"},
		{"showA-shotB-", "showA", "shotB", "showA-shotB"},
		{"showA-shotB-alice_comp", "showA", "shotB", "showA-shotB"},
		{"showA--x", "showA", "", "showA"},
	}
	for _, tt := range tests {
		show, shot, key := SearchKey(tt.input)
		if show != tt.show || shot != tt.shot || key != tt.key {
			t.Errorf("SearchKey(%q) = %q, %q, %q, want %q, %q, %q", tt.input, show, shot, key, tt.show, tt.shot, tt.key)
		}
	}
}

func TestSyncer_PrunesAgedOutJobs(t *testing.T) {
	store := jobtable.NewStore(jobtable.Initial("alice"))
	store.Dispatch(jobtable.SetTableDataUnfiltered([]opencue.Job{job("1", "a"), job("2", "b")}))
	store.Dispatch(jobtable.SetRowSelection(map[string]bool{"1": true, "2": true}))

	updated := job("1", "a")
	updated.JobStats.SucceededFrames = 4
	syncer := NewSyncer(store, &fakeLookup{jobs: map[string]opencue.Job{"1": updated}})

	changed, err := syncer.Tick(context.Background())
	if err != nil || !changed {
		t.Fatalf("Tick = %v, %v, want true, nil", changed, err)
	}
	s := store.State()
	if !reflect.DeepEqual(s.TableDataUnfiltered, []opencue.Job{updated}) {
		t.Fatalf("TableDataUnfiltered = %s", spew.Sdump(s.TableDataUnfiltered))
	}
	if !reflect.DeepEqual(s.RowSelection, map[string]bool{"1": true}) {
		t.Fatalf("RowSelection = %v", s.RowSelection)
	}
}

func TestSyncer_UnchangedSkipsDispatch(t *testing.T) {
	store := jobtable.NewStore(jobtable.Initial("alice"))
	store.Dispatch(jobtable.SetTableDataUnfiltered([]opencue.Job{job("1", "a")}))
	rev := store.State().Revision

	syncer := NewSyncer(store, &fakeLookup{jobs: map[string]opencue.Job{"1": job("1", "a")}})
	changed, err := syncer.Tick(context.Background())
	if err != nil || changed {
		t.Fatalf("Tick = %v, %v, want false, nil", changed, err)
	}
	if store.State().Revision != rev {
		t.Fatalf("revision moved from %d to %d", rev, store.State().Revision)
	}
}

func TestSyncer_FailedLookupsKeepJobs(t *testing.T) {
	store := jobtable.NewStore(jobtable.Initial("alice"))
	store.Dispatch(jobtable.SetTableDataUnfiltered([]opencue.Job{job("1", "a"), job("2", "b")}))

	fresh := job("1", "a")
	fresh.IsPaused = true
	lookup := &fakeLookup{jobs: map[string]opencue.Job{"1": fresh}, failed: map[string]bool{"2": true}}
	if _, err := NewSyncer(store, lookup).Tick(context.Background()); err != nil {
		t.Fatalf("Tick returned error: %v", err)
	}
	if got := names(store.State().TableDataUnfiltered); !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Fatalf("tracked = %v, want [a b]", got)
	}

	lookup.failed["1"] = true
	if _, err := NewSyncer(store, lookup).Tick(context.Background()); err != ErrGatewayUnreachable {
		t.Fatalf("Tick during outage = %v, want ErrGatewayUnreachable", err)
	}
	if len(store.State().TableDataUnfiltered) != 2 {
		t.Fatal("outage pruned tracked jobs")
	}
}

func TestSyncer_TrackedSetChangeDropsRefresh(t *testing.T) {
	store := jobtable.NewStore(jobtable.Initial("alice"))
	store.Dispatch(jobtable.SetTableDataUnfiltered([]opencue.Job{job("1", "a")}))

	gate := make(chan struct{})
	lookup := &fakeLookup{jobs: map[string]opencue.Job{}, gate: gate}
	syncer := NewSyncer(store, lookup)
	store.Subscribe(syncer.Observe)

	done := make(chan struct{})
	var changed bool
	var err error
	go func() {
		changed, err = syncer.Tick(context.Background())
		close(done)
	}()

	waitFor(t, "refresh in flight", func() bool {
		syncer.mu.Lock()
		defer syncer.mu.Unlock()
		return syncer.current != nil
	})
	store.Dispatch(jobtable.ToggleSearchSelect(job("2", "b")))
	close(gate)
	<-done

	if err != nil || changed {
		t.Fatalf("superseded Tick = %v, %v, want false, nil", changed, err)
	}
	if got := names(store.State().TableDataUnfiltered); !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Fatalf("tracked = %v, want [a b]", got)
	}
}

type fakeSearch struct {
	mu       sync.Mutex
	byKey    map[string][]opencue.Job
	gates    map[string]chan struct{}
	showShot []string
	regex    []string
}

func (f *fakeSearch) GetJobsForShowShot(_ context.Context, show, shot string) []opencue.Job {
	key := show
	if shot != "" {
		key += "-" + shot
	}
	f.mu.Lock()
	f.showShot = append(f.showShot, key)
	gate := f.gates[key]
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
	return f.byKey[key]
}

func (f *fakeSearch) GetJobsForRegex(_ context.Context, regex string) []opencue.Job {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.regex = append(f.regex, regex)
	return f.byKey[regex+"!"]
}

func (f *fakeSearch) showShotCalls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.showShot...)
}

func TestSearcher_ShowShotThenFilter(t *testing.T) {
	store := jobtable.NewStore(jobtable.Initial("alice"))
	src := &fakeSearch{byKey: map[string][]opencue.Job{
		"showA-shotB": {job("1", "showA-shotB-alice_comp"), job("2", "showA-shotB-bob_lite")},
	}}
	s := NewSearcher(store, src, 10*time.Millisecond)
	defer s.Close()

	s.Input("showA-shotB-ali")
	waitFor(t, "filtered results", func() bool {
		return len(store.State().FilteredJobSearchResults) == 1 && s.Phase() == PhaseIdle
	})
	st := store.State()
	if st.APIQuery != "showA-shotB" {
		t.Fatalf("APIQuery = %q, want showA-shotB", st.APIQuery)
	}
	if got := names(st.FilteredJobSearchResults); !reflect.DeepEqual(got, []string{"showA-shotB-alice_comp"}) {
		t.Fatalf("filtered = %v", got)
	}

	// Same show-shot key: no second backend call, only local filtering.
	s.Input("showA-shotB-bob")
	waitFor(t, "refiltered results", func() bool {
		f := store.State().FilteredJobSearchResults
		return len(f) == 1 && f[0].ID == "2" && s.Phase() == PhaseIdle
	})
	time.Sleep(30 * time.Millisecond)
	if calls := src.showShotCalls(); len(calls) != 1 {
		t.Fatalf("backend calls = %v, want one", calls)
	}
}

func TestSearcher_StaleFetchDiscarded(t *testing.T) {
	store := jobtable.NewStore(jobtable.Initial("alice"))
	slow := make(chan struct{})
	src := &fakeSearch{
		byKey: map[string][]opencue.Job{
			"old": {job("1", "old-x-alice_a")},
			"new": {job("2", "new-y-alice_b")},
		},
		gates: map[string]chan struct{}{"old": slow},
	}
	s := NewSearcher(store, src, 5*time.Millisecond)
	defer s.Close()

	s.Input("old-")
	waitFor(t, "first fetch in flight", func() bool { return s.Phase() == PhaseFetchingByShowShot })

	s.Input("new-")
	waitFor(t, "second fetch committed", func() bool { return store.State().APIQuery == "new" })
	close(slow)

	waitFor(t, "search idle", func() bool { return s.Phase() == PhaseIdle })
	time.Sleep(30 * time.Millisecond)
	st := store.State()
	if st.APIQuery != "new" {
		t.Fatalf("APIQuery = %q, want new", st.APIQuery)
	}
	if got := names(st.JobSearchResults); !reflect.DeepEqual(got, []string{"new-y-alice_b"}) {
		t.Fatalf("JobSearchResults = %v", got)
	}
}

func TestSearcher_RegexBypassesFilter(t *testing.T) {
	store := jobtable.NewStore(jobtable.Initial("alice"))
	results := []opencue.Job{job("1", "a-b-c_COMP"), job("2", "x-y-z_comp")}
	src := &fakeSearch{byKey: map[string][]opencue.Job{"comp$!": results}}
	s := NewSearcher(store, src, 5*time.Millisecond)
	defer s.Close()

	s.Input("comp$!")
	waitFor(t, "regex results", func() bool {
		st := store.State()
		return len(st.JobSearchResults) == 2 && len(st.FilteredJobSearchResults) == 2
	})
	st := store.State()
	if !reflect.DeepEqual(st.FilteredJobSearchResults, st.JobSearchResults) {
		t.Fatalf("filtered = %v, want raw results %v", names(st.FilteredJobSearchResults), names(st.JobSearchResults))
	}
	if s.Phase() != PhaseIdle {
		t.Fatalf("Phase = %v, want idle", s.Phase())
	}
	if !reflect.DeepEqual(src.regex, []string{"comp$"}) {
		t.Fatalf("regex calls = %v", src.regex)
	}
}

func TestSearcher_ClearResets(t *testing.T) {
	store := jobtable.NewStore(jobtable.Initial("alice"))
	store.Dispatch(jobtable.SetJobSearchResults([]opencue.Job{job("1", "a")}))
	s := NewSearcher(store, &fakeSearch{}, time.Hour)
	defer s.Close()

	s.Input("a")
	s.Input("")
	st := store.State()
	if st.SearchQuery != "" || len(st.JobSearchResults) != 0 || len(st.FilteredJobSearchResults) != 0 {
		t.Fatalf("state after clear = %s", spew.Sdump(st))
	}
	if s.Phase() != PhaseIdle {
		t.Fatalf("Phase = %v, want idle", s.Phase())
	}
	// The filter response for "a" must not land after the clear.
	time.Sleep(30 * time.Millisecond)
	if len(store.State().FilteredJobSearchResults) != 0 {
		t.Fatal("stale filter response committed after clear")
	}
}

func TestSearcher_SelectToggles(t *testing.T) {
	store := jobtable.NewStore(jobtable.Initial("alice"))
	s := NewSearcher(store, &fakeSearch{}, time.Hour)
	defer s.Close()

	j := job("1", "a-b-c_d")
	s.Select(j)
	if !store.State().Tracks(j.Name) {
		t.Fatal("Select did not add the job")
	}
	s.Select(j)
	if store.State().Tracks(j.Name) {
		t.Fatal("second Select did not remove the job")
	}
}

type fakeUserJobs struct {
	mu    sync.Mutex
	users []string
	jobs  []opencue.Job
}

func (f *fakeUserJobs) GetJobsForUser(_ context.Context, user string) []opencue.Job {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users = append(f.users, user)
	return f.jobs
}

func TestAutoloader(t *testing.T) {
	store := jobtable.NewStore(jobtable.Initial("alice"))
	store.Dispatch(jobtable.SetTableDataUnfiltered([]opencue.Job{job("1", "a-b-alice_x")}))
	src := &fakeUserJobs{jobs: []opencue.Job{job("9", "a-b-alice_x"), job("2", "a-b-alice_y")}}
	auto := NewAutoloader(context.Background(), store, src)
	store.Subscribe(auto.Observe)

	if n := auto.Run(context.Background()); n != 0 || len(src.users) != 0 {
		t.Fatalf("Run while disabled added %d and called %v", n, src.users)
	}

	store.Dispatch(jobtable.SetAutoloadMine(true))
	auto.Wait()
	if got := names(store.State().TableDataUnfiltered); !reflect.DeepEqual(got, []string{"a-b-alice_x", "a-b-alice_y"}) {
		t.Fatalf("tracked = %v", got)
	}
	if !reflect.DeepEqual(src.users, []string{"alice"}) {
		t.Fatalf("users fetched = %v", src.users)
	}

	if n := auto.Run(context.Background()); n != 0 {
		t.Fatalf("second Run added %d, want 0", n)
	}
}

type gatedUserJobs struct {
	mu      sync.Mutex
	byUser  map[string][]opencue.Job
	users   []string
	started chan struct{}
	release chan struct{}
}

func (f *gatedUserJobs) GetJobsForUser(_ context.Context, user string) []opencue.Job {
	f.mu.Lock()
	f.users = append(f.users, user)
	first := len(f.users) == 1
	f.mu.Unlock()
	if first {
		close(f.started)
		<-f.release
	}
	return f.byUser[user]
}

func TestAutoloader_UsernameChangeDuringLoadIsQueued(t *testing.T) {
	store := jobtable.NewStore(jobtable.Initial("alice"))
	src := &gatedUserJobs{
		byUser: map[string][]opencue.Job{
			"alice": {job("1", "a-b-alice_x")},
			"bob":   {job("2", "a-b-bob_y")},
		},
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	auto := NewAutoloader(context.Background(), store, src)
	store.Subscribe(auto.Observe)

	store.Dispatch(jobtable.SetAutoloadMine(true))
	<-src.started
	store.Dispatch(jobtable.SetUsername("bob"))
	close(src.release)
	auto.Wait()

	src.mu.Lock()
	users := append([]string(nil), src.users...)
	src.mu.Unlock()
	if !reflect.DeepEqual(users, []string{"alice", "bob"}) {
		t.Fatalf("users fetched = %v, want [alice bob]", users)
	}
	if got := names(store.State().TableDataUnfiltered); !reflect.DeepEqual(got, []string{"a-b-bob_y"}) {
		t.Fatalf("tracked = %v, want only bob's job:\n%s", got, spew.Sdump(store.State()))
	}
}

func TestSearcher_ObserversMayQuerySearcher(t *testing.T) {
	store := jobtable.NewStore(jobtable.Initial("alice"))
	src := &fakeSearch{byKey: map[string][]opencue.Job{
		"comp!":       {job("1", "a-b-c_comp")},
		"showA-shotB": {job("2", "showA-shotB-alice_comp")},
	}}
	s := NewSearcher(store, src, 5*time.Millisecond)
	defer s.Close()

	var mu sync.Mutex
	seen := map[string]uint64{}
	store.Subscribe(func(_, _ jobtable.State, a jobtable.Action) {
		switch a.Name {
		case "SET_JOB_SEARCH_RESULTS", "SET_FILTERED_JOB_SEARCH_RESULTS":
			_ = s.Phase()
			tok := s.Token()
			mu.Lock()
			seen[a.Name] = tok
			mu.Unlock()
		}
	})

	s.Input("comp!")
	waitFor(t, "regex results", func() bool {
		st := store.State()
		return len(st.JobSearchResults) == 1 && len(st.FilteredJobSearchResults) == 1
	})

	s.Input("showA-shotB-ali")
	waitFor(t, "show-shot results filtered", func() bool {
		f := store.State().FilteredJobSearchResults
		return len(f) == 1 && f[0].ID == "2" && s.Phase() == PhaseIdle
	})

	mu.Lock()
	defer mu.Unlock()
	if len(seen) != 2 {
		t.Fatalf("observer saw %v, want both result actions", seen)
	}
}
