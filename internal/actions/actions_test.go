package actions

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/five82/cueweb/internal/api"
	"github.com/five82/cueweb/internal/cueapi"
	"github.com/five82/cueweb/internal/notify"
	"github.com/five82/cueweb/internal/opencue"
)

type post struct {
	path string
	body string
}

// fakeAPI answers each post through respond, keyed by the marshalled body.
type fakeAPI struct {
	mu      sync.Mutex
	posts   []post
	respond func(body string) (cueapi.Envelope, error)
}

func (f *fakeAPI) Post(_ context.Context, path string, body any) (cueapi.Envelope, error) {
	b, _ := json.Marshal(body)
	f.mu.Lock()
	f.posts = append(f.posts, post{path: path, body: string(b)})
	f.mu.Unlock()
	if f.respond == nil {
		return cueapi.Envelope{Success: true}, nil
	}
	return f.respond(string(b))
}

func (f *fakeAPI) bodies() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, p := range f.posts {
		out = append(out, p.body)
	}
	sort.Strings(out)
	return out
}

type fakeResolver map[string]*opencue.Job

func (r fakeResolver) GetJobForLayer(_ context.Context, layer opencue.Layer) *opencue.Job {
	return r[layer.ParentID]
}

func newDispatcher(t *testing.T, fake *fakeAPI, resolver LayerJobResolver) (*Dispatcher, *notify.Recorder) {
	t.Helper()
	var buf bytes.Buffer
	prev := log.Writer()
	log.SetOutput(&buf)
	t.Cleanup(func() { log.SetOutput(prev) })

	rec := notify.NewRecorder(nil)
	return New(fake, resolver, notify.NewClient(rec)), rec
}

func TestPerformAction_OneRejectionFailsBatch(t *testing.T) {
	fake := &fakeAPI{respond: func(body string) (cueapi.Envelope, error) {
		if strings.Contains(body, `"id":"B"`) {
			return cueapi.Envelope{}, &cueapi.RouteError{Status: 500, Message: "B could not be killed"}
		}
		return cueapi.Envelope{Success: true}, nil
	}}
	d, rec := newDispatcher(t, fake, nil)

	ok := d.KillJobs(context.Background(), []opencue.Job{{ID: "A"}, {ID: "B"}}, "alice", "reason")
	if ok {
		t.Fatalf("KillJobs reported success, want failure")
	}
	if len(fake.bodies()) != 2 {
		t.Fatalf("posts = %v, want both items attempted", fake.bodies())
	}
	toasts := rec.Toasts()
	if len(toasts) != 1 {
		t.Fatalf("toasts = %+v, want exactly one", toasts)
	}
	if toasts[0].Kind != notify.KindError || toasts[0].Title != "Error performing action for: "+api.PathJobKill {
		t.Fatalf("toast = %+v", toasts[0])
	}
	if toasts[0].Description != "B could not be killed" {
		t.Fatalf("toast description = %q, want B's message", toasts[0].Description)
	}
}

func TestPerformAction_SuccessFalseFailsBatch(t *testing.T) {
	fake := &fakeAPI{respond: func(string) (cueapi.Envelope, error) {
		return cueapi.Envelope{Success: false}, nil
	}}
	d, rec := newDispatcher(t, fake, nil)

	if d.PauseJobs(context.Background(), []opencue.Job{{ID: "A"}}) {
		t.Fatalf("PauseJobs reported success")
	}
	if last, _ := rec.Last(); last.Kind != notify.KindError {
		t.Fatalf("last toast = %+v, want error", last)
	}
}

func TestPerformAction_EmptyIsNoop(t *testing.T) {
	fake := &fakeAPI{}
	d, rec := newDispatcher(t, fake, nil)

	if !d.PerformAction(context.Background(), api.PathJobKill, nil, "Killed 0 job(s)") {
		t.Fatalf("PerformAction(empty) = false")
	}
	if len(fake.bodies()) != 0 || len(rec.Toasts()) != 0 {
		t.Fatalf("empty batch posted %v / toasted %v", fake.bodies(), rec.Toasts())
	}
}

func TestJobActions_BodiesAndMessages(t *testing.T) {
	jobs := []opencue.Job{{ID: "1", Name: "a-b-c_x"}, {ID: "2", Name: "a-b-c_y"}}
	tests := []struct {
		name    string
		run     func(*Dispatcher) bool
		message string
		want    string
	}{
		{"kill", func(d *Dispatcher) bool { return d.KillJobs(context.Background(), jobs, "alice", "why") }, "Killed 2 job(s)", `"username":"alice","reason":"why"`},
		{"eat", func(d *Dispatcher) bool { return d.EatJobsDeadFrames(context.Background(), jobs) }, "Ate 2 job(s)", `"req":{"states":{"frame_states":[5]}}`},
		{"retry", func(d *Dispatcher) bool { return d.RetryJobsDeadFrames(context.Background(), jobs) }, "Retried 2 job(s)", `"req":{"states":{"frame_states":[5]}}`},
		{"pause", func(d *Dispatcher) bool { return d.PauseJobs(context.Background(), jobs) }, "Paused 2 job(s)", `{"job":{"id":"1"`},
		{"unpause", func(d *Dispatcher) bool { return d.UnpauseJobs(context.Background(), jobs) }, "Unpaused 2 job(s)", `{"job":{"id":"1"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeAPI{}
			d, rec := newDispatcher(t, fake, nil)
			if !tt.run(d) {
				t.Fatalf("action reported failure")
			}
			bodies := fake.bodies()
			if len(bodies) != 2 || !strings.Contains(bodies[0], tt.want) {
				t.Fatalf("bodies = %v, want each to contain %s", bodies, tt.want)
			}
			last, _ := rec.Last()
			if last.Kind != notify.KindSuccess || last.Title != tt.message {
				t.Fatalf("toast = %+v, want success %q", last, tt.message)
			}
		})
	}
}

func TestSelectedHelpers_SkipFinished(t *testing.T) {
	finished := opencue.Job{ID: "f", State: opencue.JobStateFinished}
	running := opencue.Job{ID: "r", State: "RUNNING"}

	fake := &fakeAPI{}
	d, rec := newDispatcher(t, fake, nil)

	if d.PauseSelected(context.Background(), []opencue.Job{finished}) {
		t.Fatalf("PauseSelected(finished only) = true")
	}
	if len(fake.bodies()) != 0 {
		t.Fatalf("finished-only selection posted %v", fake.bodies())
	}
	if last, _ := rec.Last(); last.Kind != notify.KindWarning || last.Title != WarnUnfinishedOnly {
		t.Fatalf("toast = %+v, want warning", last)
	}

	if !d.KillSelected(context.Background(), []opencue.Job{finished, running}, "alice") {
		t.Fatalf("KillSelected reported failure")
	}
	bodies := fake.bodies()
	if len(bodies) != 1 || !strings.Contains(bodies[0], `"id":"r"`) {
		t.Fatalf("bodies = %v, want only the running job", bodies)
	}
	if !strings.Contains(bodies[0], "Manual job kill request in Cueweb's menu bar by alice") {
		t.Fatalf("kill body = %s, want menu bar reason", bodies[0])
	}
	if last, _ := rec.Last(); last.Title != "Killed 1 job(s)" {
		t.Fatalf("toast = %+v", last)
	}
}

func TestContextMenuKillReasons(t *testing.T) {
	fake := &fakeAPI{}
	d, _ := newDispatcher(t, fake, nil)

	d.KillJob(context.Background(), opencue.Job{ID: "1"}, "bob")
	d.KillLayer(context.Background(), opencue.Layer{ID: "l"}, "bob")
	d.KillFrame(context.Background(), opencue.Frame{ID: "f"}, "bob")

	joined := strings.Join(fake.bodies(), "\n")
	for _, kind := range []string{"job", "layer", "frame"} {
		want := "Manual " + kind + " kill request in Cueweb's context menu by bob"
		if !strings.Contains(joined, want) {
			t.Fatalf("bodies = %s, want %q", joined, want)
		}
	}
}

func TestRetryLayersDeadFrames_ResolvesJobs(t *testing.T) {
	fake := &fakeAPI{}
	resolver := fakeResolver{"j1": {ID: "j1", Name: "a-b-c_x"}}
	d, rec := newDispatcher(t, fake, resolver)

	layers := []opencue.Layer{
		{ID: "l1", Name: "render", ParentID: "j1"},
		{ID: "l2", Name: "comp", ParentID: "gone"},
	}
	if !d.RetryLayersDeadFrames(context.Background(), layers) {
		t.Fatalf("RetryLayersDeadFrames reported failure")
	}
	fake.mu.Lock()
	posts := append([]post(nil), fake.posts...)
	fake.mu.Unlock()
	if len(posts) != 1 || posts[0].path != api.PathJobRetryFrames {
		t.Fatalf("posts = %+v", posts)
	}
	if !strings.Contains(posts[0].body, `"req":{"layers":["render"],"states":{"frame_states":[5]}}`) {
		t.Fatalf("body = %s", posts[0].body)
	}
	if last, _ := rec.Last(); last.Title != "Retried 1 layer(s)" {
		t.Fatalf("toast = %+v", last)
	}
}

func TestLayerAndFrameActions(t *testing.T) {
	fake := &fakeAPI{}
	d, rec := newDispatcher(t, fake, nil)
	layers := []opencue.Layer{{ID: "l1"}}
	frames := []opencue.Frame{{ID: "f1"}, {ID: "f2"}}

	checks := []struct {
		ok      bool
		message string
	}{
		{d.EatLayersFrames(context.Background(), layers), "Ate 1 layer(s)"},
		{d.RetryLayersFrames(context.Background(), layers), "Retried 1 layer(s)"},
		{d.KillLayers(context.Background(), layers, "u", "r"), "Killed 1 layer(s)"},
		{d.EatFrames(context.Background(), frames), "Ate 2 frame(s)"},
		{d.RetryFrames(context.Background(), frames), "Retried 2 frame(s)"},
		{d.KillFrames(context.Background(), frames, "u", "r"), "Killed 2 frame(s)"},
	}
	toasts := rec.Toasts()
	if len(toasts) != len(checks) {
		t.Fatalf("toasts = %+v", toasts)
	}
	for i, c := range checks {
		if !c.ok || toasts[i].Title != c.message {
			t.Fatalf("check %d: ok=%v toast=%+v, want %q", i, c.ok, toasts[i], c.message)
		}
	}
}

func TestPerformAction_TransportErrorFails(t *testing.T) {
	fake := &fakeAPI{respond: func(string) (cueapi.Envelope, error) {
		return cueapi.Envelope{}, errors.New("execute request: connection refused")
	}}
	d, rec := newDispatcher(t, fake, nil)
	if d.EatFrames(context.Background(), []opencue.Frame{{ID: "f"}}) {
		t.Fatalf("EatFrames reported success")
	}
	if last, _ := rec.Last(); !strings.Contains(last.Description, "connection refused") {
		t.Fatalf("toast = %+v", last)
	}
}
