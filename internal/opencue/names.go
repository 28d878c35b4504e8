package opencue

import (
	"path"
	"strings"
)

// JobName is the parsed form of a "show-shot-user_rest" job name.
type JobName struct {
	Show string
	Shot string
	User string
	Rest string
}

// ShowShotUser returns the part of a job name before the first underscore.
func ShowShotUser(name string) string {
	head, _, _ := strings.Cut(name, "_")
	return head
}

// RestOfName returns the part of a job name after show-shot-user.
func RestOfName(name string) string {
	_, rest, found := strings.Cut(name, "_")
	if !found {
		return name
	}
	return rest
}

// ParseName splits a job name positionally. Shots and users may contain
// dashes of their own, so the user takes everything after the second dash.
func ParseName(name string) JobName {
	parsed := JobName{Rest: RestOfName(name)}
	parts := strings.SplitN(ShowShotUser(name), "-", 3)
	parsed.Show = parts[0]
	if len(parts) > 1 {
		parsed.Shot = parts[1]
	}
	if len(parts) > 2 {
		parsed.User = parts[2]
	}
	return parsed
}

// FrameLogPath returns where the render host writes a frame's log:
// <logDir>/<job>.<frame>.rqlog. It is empty when the job has no log dir.
func FrameLogPath(job Job, frame Frame) string {
	if job.LogDir == "" || frame.Name == "" {
		return ""
	}
	return path.Join(job.LogDir, job.Name+"."+frame.Name+".rqlog")
}
