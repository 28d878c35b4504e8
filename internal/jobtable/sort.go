package jobtable

import (
	"sort"
	"strings"
	"time"

	"github.com/five82/cueweb/internal/opencue"
)

// Column ids shared by sorting, filtering and visibility.
const (
	ColumnName     = "name"
	ColumnState    = "state"
	ColumnDone     = "done / total"
	ColumnStarted  = "started"
	ColumnFinished = "finished"
	ColumnRunning  = "running"
	ColumnDead     = "dead"
	ColumnEaten    = "eaten"
	ColumnWait     = "wait"
	ColumnMaxRss   = "maxRss"
	ColumnAge      = "age"
	ColumnProgress = "progress"
)

// Columns lists every column in display order.
var Columns = []string{
	ColumnName, ColumnState, ColumnDone, ColumnStarted, ColumnFinished,
	ColumnRunning, ColumnDead, ColumnEaten, ColumnWait, ColumnMaxRss,
	ColumnAge, ColumnProgress,
}

// Sort returns jobs ordered by rules. Later rules break ties of earlier
// ones; equal rows keep their table order.
func Sort(jobs []opencue.Job, rules []SortRule) []opencue.Job {
	out := cloneJobs(jobs)
	if len(rules) == 0 {
		return out
	}
	now := time.Now()
	sort.SliceStable(out, func(i, j int) bool {
		for _, rule := range rules {
			c := compare(out[i], out[j], rule.ID, now)
			if c == 0 {
				continue
			}
			if rule.Desc {
				return c > 0
			}
			return c < 0
		}
		return false
	})
	return out
}

// Visible returns the displayed rows after column filters and sorting.
func Visible(s State) []opencue.Job {
	rows := []opencue.Job{}
	for _, job := range s.TableData {
		if matchesFilters(job, s.ColumnFilters) {
			rows = append(rows, job)
		}
	}
	return Sort(rows, s.Sorting)
}

func matchesFilters(job opencue.Job, filters []ColumnFilter) bool {
	for _, f := range filters {
		value := strings.ToLower(strings.TrimSpace(f.Value))
		if value == "" {
			continue
		}
		var field string
		switch f.ID {
		case ColumnName:
			field = job.Name
		case ColumnState:
			field = opencue.DisplayState(job)
		default:
			continue
		}
		if !strings.Contains(strings.ToLower(field), value) {
			return false
		}
	}
	return true
}

func compare(a, b opencue.Job, column string, now time.Time) int {
	switch column {
	case ColumnName:
		return strings.Compare(a.Name, b.Name)
	case ColumnState:
		return cmpInt(opencue.StateRank(opencue.DisplayState(a)), opencue.StateRank(opencue.DisplayState(b)))
	case ColumnDone:
		return cmpInt(a.JobStats.SucceededFrames, b.JobStats.SucceededFrames)
	case ColumnStarted:
		return cmpInt64(a.StartTime, b.StartTime)
	case ColumnFinished:
		return cmpInt64(a.StopTime, b.StopTime)
	case ColumnRunning:
		return cmpInt(a.JobStats.RunningFrames, b.JobStats.RunningFrames)
	case ColumnDead:
		return cmpInt(a.JobStats.DeadFrames, b.JobStats.DeadFrames)
	case ColumnEaten:
		return cmpInt(a.JobStats.EatenFrames, b.JobStats.EatenFrames)
	case ColumnWait:
		return cmpInt(a.JobStats.WaitingFrames, b.JobStats.WaitingFrames)
	case ColumnAge:
		return cmpInt64(int64(a.Age(now)), int64(b.Age(now)))
	case ColumnProgress:
		pa, pb := a.Progress(), b.Progress()
		switch {
		case pa < pb:
			return -1
		case pa > pb:
			return 1
		}
		return 0
	}
	return 0
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func cmpInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
