package opencue

import (
	"strings"
	"time"
)

// FrameStateDead is the wire value the gateway uses for dead frames in
// frame_states filters.
const FrameStateDead = 5

// Raw job states reported by the backend.
const (
	JobStateFinished = "FINISHED"
	JobStatePending  = "PENDING"
)

// JobStats mirrors the aggregate counters attached to each job. Counters the
// gateway encodes as int64 arrive as JSON strings and are kept that way.
type JobStats struct {
	AvgCoreSec         int64   `json:"avgCoreSec"`
	AvgFrameSec        int64   `json:"avgFrameSec"`
	DeadFrames         int     `json:"deadFrames"`
	DependFrames       int     `json:"dependFrames"`
	EatenFrames        int     `json:"eatenFrames"`
	FailedCoreSec      string  `json:"failedCoreSec,omitempty"`
	FailedFrameCount   string  `json:"failedFrameCount,omitempty"`
	FailedGpuSec       string  `json:"failedGpuSec,omitempty"`
	HighFrameSec       int64   `json:"highFrameSec"`
	MaxGpuMemory       string  `json:"maxGpuMemory,omitempty"`
	MaxRss             string  `json:"maxRss,omitempty"`
	PendingFrames      int     `json:"pendingFrames"`
	RemainingCoreSec   string  `json:"remainingCoreSec,omitempty"`
	RenderedCoreSec    string  `json:"renderedCoreSec,omitempty"`
	RenderedFrameCount string  `json:"renderedFrameCount,omitempty"`
	RenderedGpuSec     string  `json:"renderedGpuSec,omitempty"`
	ReservedCores      float64 `json:"reservedCores"`
	ReservedGpus       float64 `json:"reservedGpus"`
	RunningFrames      int     `json:"runningFrames"`
	SucceededFrames    int     `json:"succeededFrames"`
	TotalCoreSec       string  `json:"totalCoreSec,omitempty"`
	TotalFrames        int     `json:"totalFrames"`
	TotalGpuSec        string  `json:"totalGpuSec,omitempty"`
	TotalLayers        int     `json:"totalLayers"`
	WaitingFrames      int     `json:"waitingFrames"`
}

// Job describes a unit of render work as returned by the gateway.
type Job struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	State      string   `json:"state"`
	IsPaused   bool     `json:"isPaused"`
	JobStats   JobStats `json:"jobStats"`
	AutoEat    bool     `json:"autoEat,omitempty"`
	Facility   string   `json:"facility,omitempty"`
	Group      string   `json:"group,omitempty"`
	HasComment bool     `json:"hasComment,omitempty"`
	LogDir     string   `json:"logDir,omitempty"`
	MaxCores   float64  `json:"maxCores,omitempty"`
	MaxGpus    int      `json:"maxGpus,omitempty"`
	MinCores   float64  `json:"minCores,omitempty"`
	MinGpus    int      `json:"minGpus,omitempty"`
	OS         string   `json:"os,omitempty"`
	Priority   int      `json:"priority,omitempty"`
	Show       string   `json:"show,omitempty"`
	Shot       string   `json:"shot,omitempty"`
	User       string   `json:"user,omitempty"`
	UID        int      `json:"uid,omitempty"`
	StartTime  int64    `json:"startTime,omitempty"`
	StopTime   int64    `json:"stopTime,omitempty"`
}

// Finished reports whether the backend considers the job terminal.
func (j Job) Finished() bool {
	return j.State == JobStateFinished
}

// Age returns how long the job ran, or has been running when it has not
// stopped yet.
func (j Job) Age(now time.Time) time.Duration {
	if j.StopTime != 0 {
		return time.Duration(j.StopTime-j.StartTime) * time.Second
	}
	if j.StartTime == 0 {
		return 0
	}
	return now.Sub(time.Unix(j.StartTime, 0)).Truncate(time.Second)
}

// Progress returns succeeded/total frames as a fraction in [0,1].
func (j Job) Progress() float64 {
	if j.JobStats.TotalFrames <= 0 {
		return 0
	}
	return float64(j.JobStats.SucceededFrames) / float64(j.JobStats.TotalFrames)
}

// LayerStats mirrors JobStats for a single layer.
type LayerStats struct {
	AvgCoreSec       int64  `json:"avgCoreSec"`
	AvgFrameSec      int64  `json:"avgFrameSec"`
	DeadFrames       int    `json:"deadFrames"`
	DependFrames     int    `json:"dependFrames"`
	EatenFrames      int    `json:"eatenFrames"`
	HighFrameSec     int64  `json:"highFrameSec"`
	MaxRss           string `json:"maxRss,omitempty"`
	PendingFrames    int    `json:"pendingFrames"`
	RemainingCoreSec string `json:"remainingCoreSec,omitempty"`
	RunningFrames    int    `json:"runningFrames"`
	SucceededFrames  int    `json:"succeededFrames"`
	TotalCoreSec     string `json:"totalCoreSec,omitempty"`
	TotalFrames      int    `json:"totalFrames"`
	TotalGpuSec      string `json:"totalGpuSec,omitempty"`
	WaitingFrames    int    `json:"waitingFrames"`
}

// Layer is a sub-unit of a job sharing scheduling parameters.
type Layer struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	ParentID     string     `json:"parentId"`
	LayerStats   LayerStats `json:"layerStats"`
	Type         string     `json:"type,omitempty"`
	Range        string     `json:"range,omitempty"`
	ChunkSize    int        `json:"chunkSize,omitempty"`
	MinCores     float64    `json:"minCores,omitempty"`
	MaxCores     float64    `json:"maxCores,omitempty"`
	MinGpus      int        `json:"minGpus,omitempty"`
	MinMemory    string     `json:"minMemory,omitempty"`
	MinGpuMemory string     `json:"minGpuMemory,omitempty"`
	Services     []string   `json:"services,omitempty"`
	Limits       []string   `json:"limits,omitempty"`
	Tags         []string   `json:"tags,omitempty"`
	IsEnabled    bool       `json:"isEnabled,omitempty"`
	Timeout      int        `json:"timeout,omitempty"`
}

// Frame is the smallest schedulable unit of work within a layer.
type Frame struct {
	ID                string `json:"id"`
	Name              string `json:"name"`
	LayerName         string `json:"layerName"`
	Number            int    `json:"number"`
	State             string `json:"state"`
	RetryCount        int    `json:"retryCount"`
	ExitStatus        int    `json:"exitStatus"`
	DispatchOrder     int    `json:"dispatchOrder"`
	StartTime         int64  `json:"startTime"`
	StopTime          int64  `json:"stopTime"`
	MaxRss            string `json:"maxRss,omitempty"`
	UsedMemory        string `json:"usedMemory,omitempty"`
	ReservedMemory    string `json:"reservedMemory,omitempty"`
	ReservedGpuMemory string `json:"reservedGpuMemory,omitempty"`
	LastResource      string `json:"lastResource,omitempty"`
	CheckpointState   string `json:"checkpointState,omitempty"`
	CheckpointCount   int    `json:"checkpointCount,omitempty"`
	TotalCoreTime     int64  `json:"totalCoreTime,omitempty"`
	TotalGpuTime      int64  `json:"totalGpuTime,omitempty"`
	LluTime           int64  `json:"lluTime,omitempty"`
	MaxGpuMemory      string `json:"maxGpuMemory,omitempty"`
	UsedGpuMemory     string `json:"usedGpuMemory,omitempty"`
}

// Runtime mirrors the frame runtime column: stop-start when stopped,
// now-start while running, zero when never started.
func (f Frame) Runtime(now time.Time) time.Duration {
	if f.StopTime != 0 {
		return time.Duration(f.StopTime-f.StartTime) * time.Second
	}
	if f.StartTime != 0 {
		return now.Sub(time.Unix(f.StartTime, 0)).Truncate(time.Second)
	}
	return 0
}

// Resource is the positional breakdown of a frame's lastResource string.
type Resource struct {
	Host  string
	Cores string
	Gpus  string
}

// ParseLastResource splits "host/cores/gpus" positionally. Missing segments
// come back empty; values are not validated.
func ParseLastResource(lastResource string) Resource {
	parts := strings.Split(lastResource, "/")
	var res Resource
	if len(parts) > 0 {
		res.Host = parts[0]
	}
	if len(parts) > 1 {
		res.Cores = parts[1]
	}
	if len(parts) > 2 {
		res.Gpus = parts[2]
	}
	return res
}
