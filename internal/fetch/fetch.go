// Package fetch shapes read requests for the dashboard routes and decodes
// the results. Fetchers never fail: a route error is handed to the notifier
// and an empty result comes back.
package fetch

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/five82/cueweb/internal/api"
	"github.com/five82/cueweb/internal/cueapi"
	"github.com/five82/cueweb/internal/notify"
	"github.com/five82/cueweb/internal/opencue"
)

// FramePageLimit caps how many frames a single request returns. Only the
// first page is ever requested.
const FramePageLimit = 500

// JobCriteria is the gateway's job search criteria.
type JobCriteria struct {
	IncludeFinished bool     `json:"include_finished"`
	Users           []string `json:"users,omitempty"`
	Shows           []string `json:"shows,omitempty"`
	Shots           []string `json:"shots,omitempty"`
	Regex           []string `json:"regex,omitempty"`
	IDs             []string `json:"ids,omitempty"`
}

type jobsRequest struct {
	R JobCriteria `json:"r"`
}

type jobRef struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

type pageRequest struct {
	IncludeFinished bool `json:"include_finished"`
	Page            int  `json:"page"`
	Limit           int  `json:"limit"`
}

func firstPage() pageRequest {
	return pageRequest{IncludeFinished: true, Page: 1, Limit: FramePageLimit}
}

// Fetcher reads jobs, layers, and frames through the dashboard API.
type Fetcher struct {
	api      cueapi.Poster
	notifier *notify.Notifier
}

// New returns a Fetcher posting through api.
func New(api cueapi.Poster, notifier *notify.Notifier) *Fetcher {
	return &Fetcher{api: api, notifier: notifier}
}

// GetJobs returns jobs matching criteria.
func (f *Fetcher) GetJobs(ctx context.Context, criteria JobCriteria) []opencue.Job {
	var jobs []opencue.Job
	if !f.post(ctx, api.PathGetJobs, jobsRequest{R: criteria}, &jobs, "Error fetching jobs") {
		return nil
	}
	return jobs
}

// GetJobsForUser returns the user's unfinished jobs.
func (f *Fetcher) GetJobsForUser(ctx context.Context, user string) []opencue.Job {
	return f.GetJobs(ctx, JobCriteria{Users: []string{user}})
}

// GetJobsForShow returns the show's unfinished jobs.
func (f *Fetcher) GetJobsForShow(ctx context.Context, show string) []opencue.Job {
	return f.GetJobs(ctx, JobCriteria{Shows: []string{show}})
}

// GetJobsForShowShot narrows a show search to one shot. An empty shot
// searches the whole show.
func (f *Fetcher) GetJobsForShowShot(ctx context.Context, show, shot string) []opencue.Job {
	if shot == "" {
		return f.GetJobsForShow(ctx, show)
	}
	return f.GetJobs(ctx, JobCriteria{Shows: []string{show}, Shots: []string{shot}})
}

// GetJobsForRegex runs a backend regex search over job names.
func (f *Fetcher) GetJobsForRegex(ctx context.Context, regex string) []opencue.Job {
	return f.GetJobs(ctx, JobCriteria{Regex: []string{regex}})
}

// GetJobsForIDs returns the jobs with the given ids, finished ones included.
func (f *Fetcher) GetJobsForIDs(ctx context.Context, ids []string) []opencue.Job {
	if len(ids) == 0 {
		return nil
	}
	return f.GetJobs(ctx, JobCriteria{IncludeFinished: true, IDs: ids})
}

// GetJobByID returns the job with id, or nil when the backend no longer
// reports it.
func (f *Fetcher) GetJobByID(ctx context.Context, id string) *opencue.Job {
	for _, job := range f.GetJobsForIDs(ctx, []string{id}) {
		if job.ID == id {
			return &job
		}
	}
	return nil
}

// LookupJob is GetJobByID for background refresh. ok is false when the
// request itself failed, so callers can tell an outage from a job that has
// aged out.
func (f *Fetcher) LookupJob(ctx context.Context, id string) (job *opencue.Job, ok bool) {
	var jobs []opencue.Job
	criteria := JobCriteria{IncludeFinished: true, IDs: []string{id}}
	if !f.post(ctx, api.PathGetJobs, jobsRequest{R: criteria}, &jobs, "Error fetching jobs") {
		return nil, false
	}
	for i := range jobs {
		if jobs[i].ID == id {
			return &jobs[i], true
		}
	}
	return nil, true
}

// GetJobForLayer resolves the job a layer belongs to.
func (f *Fetcher) GetJobForLayer(ctx context.Context, layer opencue.Layer) *opencue.Job {
	if layer.ParentID == "" {
		f.notifier.HandleError(fmt.Errorf("layer %s has no parent job", layer.Name), "Error fetching job for layer")
		return nil
	}
	return f.GetJobByID(ctx, layer.ParentID)
}

// GetLayers returns the job's layers.
func (f *Fetcher) GetLayers(ctx context.Context, job opencue.Job) []opencue.Layer {
	body := struct {
		Job jobRef `json:"job"`
	}{Job: jobRef{ID: job.ID}}
	var layers []opencue.Layer
	if !f.post(ctx, api.PathGetLayers, body, &layers, "Error fetching layers") {
		return nil
	}
	return layers
}

// GetFrames returns the first FramePageLimit frames of the job.
func (f *Fetcher) GetFrames(ctx context.Context, job opencue.Job) []opencue.Frame {
	body := struct {
		Job jobRef      `json:"job"`
		Req pageRequest `json:"req"`
	}{Job: jobRef{ID: job.ID, Name: job.Name}, Req: firstPage()}
	var frames []opencue.Frame
	if !f.post(ctx, api.PathGetFrames, body, &frames, "Error fetching frames") {
		return nil
	}
	return frames
}

// GetLayerFrames returns the first FramePageLimit frames of the layer.
func (f *Fetcher) GetLayerFrames(ctx context.Context, layer opencue.Layer) []opencue.Frame {
	body := struct {
		Layer jobRef      `json:"layer"`
		S     pageRequest `json:"s"`
	}{Layer: jobRef{ID: layer.ID, Name: layer.Name}, S: firstPage()}
	var frames []opencue.Frame
	if !f.post(ctx, api.PathLayerGetFrames, body, &frames, "Error fetching frames") {
		return nil
	}
	return frames
}

// GetFrame returns one frame by id, or nil.
func (f *Fetcher) GetFrame(ctx context.Context, id string) *opencue.Frame {
	body := struct {
		ID string `json:"id"`
	}{ID: id}
	var frame *opencue.Frame
	if !f.post(ctx, api.PathGetFrame, body, &frame, "Error fetching frame") {
		return nil
	}
	return frame
}

func (f *Fetcher) post(ctx context.Context, path string, body, dest any, toast string) bool {
	env, err := f.api.Post(ctx, path, body)
	if err != nil {
		f.notifier.HandleError(fmt.Errorf("%s: %w", path, err), toast)
		return false
	}
	if len(env.Data) == 0 {
		return true
	}
	if err := json.Unmarshal(env.Data, dest); err != nil {
		f.notifier.HandleError(fmt.Errorf("%s: decode data: %w", path, err), toast)
		return false
	}
	return true
}
