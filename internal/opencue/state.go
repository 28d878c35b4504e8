package opencue

// Display states shown for a job. They are derived from the raw backend
// state and frame counters on every read and never stored.
const (
	StateAllStates  = "All States"
	StateFinished   = "Finished"
	StatePaused     = "Paused"
	StateFailing    = "Failing"
	StateDependency = "Dependency"
	StateInProgress = "In Progress"
)

// FilterStates lists the state filter choices in menu order.
var FilterStates = []string{
	StateAllStates,
	StateFinished,
	StateFailing,
	StateDependency,
	StateInProgress,
	StatePaused,
}

// stateOrder ranks display states for sorting; unknown states sort last.
var stateOrder = map[string]int{
	StateFailing:    0,
	StateFinished:   1,
	StateInProgress: 2,
	StateDependency: 3,
	StatePaused:     4,
}

// DisplayState derives the state shown for a job. It reads only the raw
// state, the paused flag and the dead/depend/pending/running counters.
func DisplayState(job Job) string {
	stats := job.JobStats
	switch {
	case job.State == JobStateFinished:
		return StateFinished
	case job.IsPaused:
		return StatePaused
	case stats.DeadFrames > 0:
		return StateFailing
	case stats.DependFrames > 0 &&
		stats.DependFrames == stats.PendingFrames &&
		stats.RunningFrames == 0:
		return StateDependency
	default:
		return StateInProgress
	}
}

// StateRank returns the sort rank of a display state.
func StateRank(state string) int {
	if rank, ok := stateOrder[state]; ok {
		return rank
	}
	return len(stateOrder)
}

// NextFilterState cycles through FilterStates, wrapping at the end.
func NextFilterState(current string) string {
	for i, s := range FilterStates {
		if s == current {
			return FilterStates[(i+1)%len(FilterStates)]
		}
	}
	return StateAllStates
}
