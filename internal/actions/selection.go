package actions

import (
	"context"
	"fmt"

	"github.com/five82/cueweb/internal/opencue"
)

// Kill reasons recorded with the backend.
func menuBarKillReason(username string) string {
	return fmt.Sprintf("Manual job kill request in Cueweb's menu bar by %s", username)
}

func contextMenuKillReason(kind, username string) string {
	return fmt.Sprintf("Manual %s kill request in Cueweb's context menu by %s", kind, username)
}

// Unfinished drops jobs the backend reports as finished.
func Unfinished(jobs []opencue.Job) []opencue.Job {
	out := make([]opencue.Job, 0, len(jobs))
	for _, job := range jobs {
		if !job.Finished() {
			out = append(out, job)
		}
	}
	return out
}

// onUnfinished runs fn on the unfinished part of jobs, or warns when there
// is none. It reports whether fn ran and succeeded.
func (d *Dispatcher) onUnfinished(jobs []opencue.Job, fn func([]opencue.Job) bool) bool {
	unfinished := Unfinished(jobs)
	if len(unfinished) == 0 {
		d.notifier.ToastWarning(WarnUnfinishedOnly)
		return false
	}
	return fn(unfinished)
}

// KillSelected kills the unfinished jobs of a table selection.
func (d *Dispatcher) KillSelected(ctx context.Context, jobs []opencue.Job, username string) bool {
	return d.onUnfinished(jobs, func(js []opencue.Job) bool {
		return d.KillJobs(ctx, js, username, menuBarKillReason(username))
	})
}

// EatSelected eats dead frames of the unfinished jobs of a selection.
func (d *Dispatcher) EatSelected(ctx context.Context, jobs []opencue.Job) bool {
	return d.onUnfinished(jobs, func(js []opencue.Job) bool {
		return d.EatJobsDeadFrames(ctx, js)
	})
}

// RetrySelected retries dead frames of the unfinished jobs of a selection.
func (d *Dispatcher) RetrySelected(ctx context.Context, jobs []opencue.Job) bool {
	return d.onUnfinished(jobs, func(js []opencue.Job) bool {
		return d.RetryJobsDeadFrames(ctx, js)
	})
}

// PauseSelected pauses the unfinished jobs of a selection.
func (d *Dispatcher) PauseSelected(ctx context.Context, jobs []opencue.Job) bool {
	return d.onUnfinished(jobs, func(js []opencue.Job) bool {
		return d.PauseJobs(ctx, js)
	})
}

// UnpauseSelected resumes the unfinished jobs of a selection.
func (d *Dispatcher) UnpauseSelected(ctx context.Context, jobs []opencue.Job) bool {
	return d.onUnfinished(jobs, func(js []opencue.Job) bool {
		return d.UnpauseJobs(ctx, js)
	})
}

// KillJob kills a single job from its row menu.
func (d *Dispatcher) KillJob(ctx context.Context, job opencue.Job, username string) bool {
	return d.KillJobs(ctx, []opencue.Job{job}, username, contextMenuKillReason("job", username))
}

// KillLayer kills a single layer from its row menu.
func (d *Dispatcher) KillLayer(ctx context.Context, layer opencue.Layer, username string) bool {
	return d.KillLayers(ctx, []opencue.Layer{layer}, username, contextMenuKillReason("layer", username))
}

// KillFrame kills a single frame from its row menu.
func (d *Dispatcher) KillFrame(ctx context.Context, frame opencue.Frame, username string) bool {
	return d.KillFrames(ctx, []opencue.Frame{frame}, username, contextMenuKillReason("frame", username))
}
