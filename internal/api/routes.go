package api

import "github.com/five82/cueweb/internal/gateway"

// Route paths served by the dashboard.
const (
	PathGetJobs        = "/api/job/getjobs"
	PathGetLayers      = "/api/job/getlayers"
	PathGetFrames      = "/api/job/getframes"
	PathGetFrame       = "/api/frame/getframe"
	PathLayerGetFrames = "/api/layer/getframes"

	PathJobKill        = "/api/job/action/kill"
	PathJobEatFrames   = "/api/job/action/eatframes"
	PathJobRetryFrames = "/api/job/action/retryframes"
	PathJobPause       = "/api/job/action/pause"
	PathJobUnpause     = "/api/job/action/unpause"

	PathLayerKill        = "/api/layer/action/kill"
	PathLayerEatFrames   = "/api/layer/action/eatframes"
	PathLayerRetryFrames = "/api/layer/action/retryframes"

	PathFrameKill  = "/api/frame/action/kill"
	PathFrameEat   = "/api/frame/action/eat"
	PathFrameRetry = "/api/frame/action/retry"

	PathGetLines       = "/api/getlines"
	PathCountLines     = "/api/countlines"
	PathGetLogVersions = "/api/getlogversions"
	PathIncrement      = "/api/increment"
	PathMetrics        = "/api/metrics"
)

// route describes one POST adapter in front of a gateway endpoint.
type route struct {
	path     string
	endpoint string
	required []string

	// unwrap is the key path into the gateway payload. Empty marks an
	// action route, which answers {success:true}.
	unwrap []string
	// list routes answer [] when the unwrapped key is absent.
	list bool
	// withStatus adds the gateway status to successful data envelopes.
	withStatus bool
}

var forwardRoutes = []route{
	{path: PathGetJobs, endpoint: gateway.JobGetJobs, required: []string{"r"}, unwrap: []string{"jobs", "jobs"}, list: true, withStatus: true},
	{path: PathGetLayers, endpoint: gateway.JobGetLayers, required: []string{"job"}, unwrap: []string{"layers", "layers"}, list: true, withStatus: true},
	{path: PathGetFrames, endpoint: gateway.JobGetFrames, required: []string{"job", "req"}, unwrap: []string{"frames", "frames"}, list: true, withStatus: true},
	{path: PathLayerGetFrames, endpoint: gateway.LayerGetFrames, required: []string{"layer", "s"}, unwrap: []string{"frames", "frames"}, list: true, withStatus: true},
	{path: PathGetFrame, endpoint: gateway.FrameGetFrame, required: []string{"id"}, unwrap: []string{"frame"}},

	{path: PathJobKill, endpoint: gateway.JobKill, required: []string{"job", "username", "reason"}},
	{path: PathJobEatFrames, endpoint: gateway.JobEatFrames, required: []string{"job", "req"}},
	{path: PathJobRetryFrames, endpoint: gateway.JobRetryFrames, required: []string{"job", "req"}},
	{path: PathJobPause, endpoint: gateway.JobPause, required: []string{"job"}},
	{path: PathJobUnpause, endpoint: gateway.JobResume, required: []string{"job"}},

	{path: PathLayerKill, endpoint: gateway.LayerKill, required: []string{"layer", "username", "reason"}},
	{path: PathLayerEatFrames, endpoint: gateway.LayerEatFrames, required: []string{"layer"}},
	{path: PathLayerRetryFrames, endpoint: gateway.LayerRetryFrames, required: []string{"layer"}},

	{path: PathFrameKill, endpoint: gateway.FrameKill, required: []string{"frame", "username", "reason"}},
	{path: PathFrameEat, endpoint: gateway.FrameEat, required: []string{"frame"}},
	{path: PathFrameRetry, endpoint: gateway.FrameRetry, required: []string{"frame"}},
}
