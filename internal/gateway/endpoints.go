package gateway

// Gateway RPC endpoints.
const (
	JobGetJobs     = "/job.JobInterface/GetJobs"
	JobGetLayers   = "/job.JobInterface/GetLayers"
	JobGetFrames   = "/job.JobInterface/GetFrames"
	JobKill        = "/job.JobInterface/Kill"
	JobEatFrames   = "/job.JobInterface/EatFrames"
	JobRetryFrames = "/job.JobInterface/RetryFrames"
	JobPause       = "/job.JobInterface/Pause"
	JobResume      = "/job.JobInterface/Resume"

	LayerGetFrames   = "/job.LayerInterface/GetFrames"
	LayerKill        = "/job.LayerInterface/Kill"
	LayerEatFrames   = "/job.LayerInterface/EatFrames"
	LayerRetryFrames = "/job.LayerInterface/RetryFrames"

	FrameGetFrame = "/job.FrameInterface/GetFrame"
	FrameKill     = "/job.FrameInterface/Kill"
	FrameEat      = "/job.FrameInterface/Eat"
	FrameRetry    = "/job.FrameInterface/Retry"
)
