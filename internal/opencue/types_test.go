package opencue

import (
	"encoding/json"
	"testing"
	"time"
)

func TestParseName(t *testing.T) {
	got := ParseName("showA-shotB-alice_comp_v002")
	want := JobName{Show: "showA", Shot: "shotB", User: "alice", Rest: "comp_v002"}
	if got != want {
		t.Fatalf("ParseName = %#v, want %#v", got, want)
	}
	if ShowShotUser("plain") != "plain" || RestOfName("plain") != "plain" {
		t.Fatalf("names without underscore should pass through unchanged")
	}
}

func TestFrameLogPath(t *testing.T) {
	job := Job{Name: "showA-shotB-alice_comp", LogDir: "/shots/showA/logs/"}
	got := FrameLogPath(job, Frame{Name: "0001-render"})
	if want := "/shots/showA/logs/showA-shotB-alice_comp.0001-render.rqlog"; got != want {
		t.Fatalf("FrameLogPath = %q, want %q", got, want)
	}
	if got := FrameLogPath(Job{Name: "x"}, Frame{Name: "0001-render"}); got != "" {
		t.Fatalf("FrameLogPath without log dir = %q, want empty", got)
	}
}

func TestParseLastResource(t *testing.T) {
	tests := []struct {
		in   string
		want Resource
	}{
		{"host01/8.0/1", Resource{Host: "host01", Cores: "8.0", Gpus: "1"}},
		{"host01/8.0", Resource{Host: "host01", Cores: "8.0"}},
		{"", Resource{}},
		{"a/b/c/d", Resource{Host: "a", Cores: "b", Gpus: "c"}},
	}
	for _, tt := range tests {
		if got := ParseLastResource(tt.in); got != tt.want {
			t.Errorf("ParseLastResource(%q) = %#v, want %#v", tt.in, got, tt.want)
		}
	}
}

func TestJobAgeAndFrameRuntime(t *testing.T) {
	now := time.Unix(1_000, 0)

	if got := (Job{StartTime: 100, StopTime: 400}).Age(now); got != 300*time.Second {
		t.Fatalf("stopped Age = %v, want 5m", got)
	}
	if got := (Job{StartTime: 400}).Age(now); got != 600*time.Second {
		t.Fatalf("running Age = %v, want 10m", got)
	}
	if got := (Frame{}).Runtime(now); got != 0 {
		t.Fatalf("unstarted Runtime = %v, want 0", got)
	}
	if got := (Frame{StartTime: 990}).Runtime(now); got != 10*time.Second {
		t.Fatalf("running Runtime = %v, want 10s", got)
	}
}

func TestJob_DecodesGatewayPayload(t *testing.T) {
	payload := []byte(`{"id":"1","name":"showA-shotB-alice_comp","state":"RUNNING","isPaused":false,
		"jobStats":{"deadFrames":1,"totalFrames":10,"succeededFrames":5,"maxRss":"1024","reservedCores":2.5}}`)
	var job Job
	if err := json.Unmarshal(payload, &job); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if job.JobStats.DeadFrames != 1 || job.JobStats.MaxRss != "1024" || job.Progress() != 0.5 {
		t.Fatalf("decoded job = %#v", job)
	}
	if DisplayState(job) != StateFailing {
		t.Fatalf("DisplayState = %q, want Failing", DisplayState(job))
	}
}
