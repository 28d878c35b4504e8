// Package actions fires kill, eat, retry, pause, and unpause commands at
// jobs, layers, and frames.
//
// A batch issues one request per item in parallel and reports one outcome
// for the whole batch: any failed item fails the report, even though the
// other items may already have taken effect on the backend.
package actions

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/five82/cueweb/internal/api"
	"github.com/five82/cueweb/internal/cueapi"
	"github.com/five82/cueweb/internal/notify"
	"github.com/five82/cueweb/internal/opencue"
)

// Warning shown when a selection holds only finished jobs.
const WarnUnfinishedOnly = "Please select unfinished jobs"

// LayerJobResolver finds the job that owns a layer.
type LayerJobResolver interface {
	GetJobForLayer(ctx context.Context, layer opencue.Layer) *opencue.Job
}

// Dispatcher posts action requests and reports their outcome.
type Dispatcher struct {
	api      cueapi.Poster
	resolver LayerJobResolver
	notifier *notify.Notifier
}

// New returns a Dispatcher.
func New(api cueapi.Poster, resolver LayerJobResolver, notifier *notify.Notifier) *Dispatcher {
	return &Dispatcher{api: api, resolver: resolver, notifier: notifier}
}

// PerformAction posts every body to endpoint in parallel. It reports success
// only if every call succeeded; the first failure is the one shown. An empty
// batch does nothing and counts as success.
func (d *Dispatcher) PerformAction(ctx context.Context, endpoint string, bodies []any, successMessage string) bool {
	if len(bodies) == 0 {
		return true
	}

	var g errgroup.Group
	for _, body := range bodies {
		body := body
		g.Go(func() error {
			env, err := d.api.Post(ctx, endpoint, body)
			if err != nil {
				return err
			}
			if !env.Success {
				if env.Error != "" {
					return errors.New(env.Error)
				}
				return fmt.Errorf("action %s was not acknowledged", endpoint)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		d.notifier.HandleError(err, "Error performing action for: "+endpoint)
		return false
	}
	d.notifier.ToastSuccess(successMessage)
	return true
}

type deadFrameStates struct {
	FrameStates []int `json:"frame_states"`
}

type frameRequest struct {
	Layers []string        `json:"layers,omitempty"`
	States deadFrameStates `json:"states"`
}

func deadFramesOnly() frameRequest {
	return frameRequest{States: deadFrameStates{FrameStates: []int{opencue.FrameStateDead}}}
}

type killBody struct {
	Job      *opencue.Job   `json:"job,omitempty"`
	Layer    *opencue.Layer `json:"layer,omitempty"`
	Frame    *opencue.Frame `json:"frame,omitempty"`
	Username string         `json:"username"`
	Reason   string         `json:"reason"`
}

type jobBody struct {
	Job opencue.Job   `json:"job"`
	Req *frameRequest `json:"req,omitempty"`
}

type layerBody struct {
	Layer opencue.Layer `json:"layer"`
}

type frameBody struct {
	Frame opencue.Frame `json:"frame"`
}

func jobBodies(jobs []opencue.Job, req *frameRequest) []any {
	bodies := make([]any, 0, len(jobs))
	for _, job := range jobs {
		bodies = append(bodies, jobBody{Job: job, Req: req})
	}
	return bodies
}

// KillJobs kills each job.
func (d *Dispatcher) KillJobs(ctx context.Context, jobs []opencue.Job, username, reason string) bool {
	bodies := make([]any, 0, len(jobs))
	for i := range jobs {
		bodies = append(bodies, killBody{Job: &jobs[i], Username: username, Reason: reason})
	}
	return d.PerformAction(ctx, api.PathJobKill, bodies, fmt.Sprintf("Killed %d job(s)", len(jobs)))
}

// EatJobsDeadFrames eats the dead frames of each job.
func (d *Dispatcher) EatJobsDeadFrames(ctx context.Context, jobs []opencue.Job) bool {
	req := deadFramesOnly()
	return d.PerformAction(ctx, api.PathJobEatFrames, jobBodies(jobs, &req), fmt.Sprintf("Ate %d job(s)", len(jobs)))
}

// RetryJobsDeadFrames retries the dead frames of each job.
func (d *Dispatcher) RetryJobsDeadFrames(ctx context.Context, jobs []opencue.Job) bool {
	req := deadFramesOnly()
	return d.PerformAction(ctx, api.PathJobRetryFrames, jobBodies(jobs, &req), fmt.Sprintf("Retried %d job(s)", len(jobs)))
}

// PauseJobs pauses each job.
func (d *Dispatcher) PauseJobs(ctx context.Context, jobs []opencue.Job) bool {
	return d.PerformAction(ctx, api.PathJobPause, jobBodies(jobs, nil), fmt.Sprintf("Paused %d job(s)", len(jobs)))
}

// UnpauseJobs resumes each job.
func (d *Dispatcher) UnpauseJobs(ctx context.Context, jobs []opencue.Job) bool {
	return d.PerformAction(ctx, api.PathJobUnpause, jobBodies(jobs, nil), fmt.Sprintf("Unpaused %d job(s)", len(jobs)))
}

// KillLayers kills each layer.
func (d *Dispatcher) KillLayers(ctx context.Context, layers []opencue.Layer, username, reason string) bool {
	bodies := make([]any, 0, len(layers))
	for i := range layers {
		bodies = append(bodies, killBody{Layer: &layers[i], Username: username, Reason: reason})
	}
	return d.PerformAction(ctx, api.PathLayerKill, bodies, fmt.Sprintf("Killed %d layer(s)", len(layers)))
}

// EatLayersFrames eats every frame of each layer.
func (d *Dispatcher) EatLayersFrames(ctx context.Context, layers []opencue.Layer) bool {
	return d.PerformAction(ctx, api.PathLayerEatFrames, layerBodies(layers), fmt.Sprintf("Ate %d layer(s)", len(layers)))
}

// RetryLayersFrames retries every frame of each layer.
func (d *Dispatcher) RetryLayersFrames(ctx context.Context, layers []opencue.Layer) bool {
	return d.PerformAction(ctx, api.PathLayerRetryFrames, layerBodies(layers), fmt.Sprintf("Retried %d layer(s)", len(layers)))
}

// RetryLayersDeadFrames retries only the dead frames of each layer. The
// request goes to the owning job's endpoint, so layers whose job cannot be
// resolved are skipped.
func (d *Dispatcher) RetryLayersDeadFrames(ctx context.Context, layers []opencue.Layer) bool {
	var bodies []any
	for _, layer := range layers {
		job := d.resolver.GetJobForLayer(ctx, layer)
		if job == nil {
			continue
		}
		req := deadFramesOnly()
		req.Layers = []string{layer.Name}
		bodies = append(bodies, jobBody{Job: *job, Req: &req})
	}
	return d.PerformAction(ctx, api.PathJobRetryFrames, bodies, fmt.Sprintf("Retried %d layer(s)", len(bodies)))
}

func layerBodies(layers []opencue.Layer) []any {
	bodies := make([]any, 0, len(layers))
	for _, layer := range layers {
		bodies = append(bodies, layerBody{Layer: layer})
	}
	return bodies
}

// KillFrames kills each frame.
func (d *Dispatcher) KillFrames(ctx context.Context, frames []opencue.Frame, username, reason string) bool {
	bodies := make([]any, 0, len(frames))
	for i := range frames {
		bodies = append(bodies, killBody{Frame: &frames[i], Username: username, Reason: reason})
	}
	return d.PerformAction(ctx, api.PathFrameKill, bodies, fmt.Sprintf("Killed %d frame(s)", len(frames)))
}

// EatFrames eats each frame.
func (d *Dispatcher) EatFrames(ctx context.Context, frames []opencue.Frame) bool {
	return d.PerformAction(ctx, api.PathFrameEat, frameBodies(frames), fmt.Sprintf("Ate %d frame(s)", len(frames)))
}

// RetryFrames retries each frame.
func (d *Dispatcher) RetryFrames(ctx context.Context, frames []opencue.Frame) bool {
	return d.PerformAction(ctx, api.PathFrameRetry, frameBodies(frames), fmt.Sprintf("Retried %d frame(s)", len(frames)))
}

func frameBodies(frames []opencue.Frame) []any {
	bodies := make([]any, 0, len(frames))
	for _, frame := range frames {
		bodies = append(bodies, frameBody{Frame: frame})
	}
	return bodies
}
