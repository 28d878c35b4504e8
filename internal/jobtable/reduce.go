package jobtable

import (
	mapset "github.com/deckarep/golang-set"

	"github.com/five82/cueweb/internal/opencue"
)

// Action is one named transition. Build actions with the constructors in
// this package.
type Action struct {
	Name  string
	apply func(*State)
	// refilter re-derives TableData from TableDataUnfiltered afterwards.
	refilter bool
}

// Reduce applies a to a copy of s and returns the result. The returned state
// always satisfies the table invariants: every TableData id and every
// RowSelection key belongs to TableDataUnfiltered.
func Reduce(s State, a Action) State {
	next := s.Clone()
	if a.apply != nil {
		a.apply(&next)
	}
	if a.refilter {
		next.TableData = filterByState(next.TableDataUnfiltered, next.StateSelectValue)
	}
	normalize(&next)
	next.Revision = s.Revision + 1
	return next
}

func normalize(s *State) {
	ids := idSet(s.TableDataUnfiltered)

	kept := s.TableData[:0:0]
	for _, job := range s.TableData {
		if ids.Contains(job.ID) {
			kept = append(kept, job)
		}
	}
	s.TableData = kept

	for id := range s.RowSelection {
		if !ids.Contains(id) || !s.RowSelection[id] {
			delete(s.RowSelection, id)
		}
	}
	for id := range s.touched {
		if !ids.Contains(id) {
			delete(s.touched, id)
		}
	}
}

func filterByState(jobs []opencue.Job, state string) []opencue.Job {
	if state == "" || state == opencue.StateAllStates {
		return cloneJobs(jobs)
	}
	out := []opencue.Job{}
	for _, job := range jobs {
		if opencue.DisplayState(job) == state {
			out = append(out, job)
		}
	}
	return out
}

func idSet(jobs []opencue.Job) mapset.Set {
	set := mapset.NewThreadUnsafeSet()
	for _, job := range jobs {
		set.Add(job.ID)
	}
	return set
}

func stringSet(values []string) mapset.Set {
	set := mapset.NewThreadUnsafeSet()
	for _, v := range values {
		set.Add(v)
	}
	return set
}

func without(jobs []opencue.Job, ids mapset.Set) []opencue.Job {
	out := []opencue.Job{}
	for _, job := range jobs {
		if !ids.Contains(job.ID) {
			out = append(out, job)
		}
	}
	return out
}

// unmonitor removes ids from both views, unfiltered first, and drops their
// selection.
func unmonitor(s *State, ids mapset.Set) {
	s.TableDataUnfiltered = without(s.TableDataUnfiltered, ids)
	s.TableData = without(s.TableData, ids)
	for id := range s.RowSelection {
		if ids.Contains(id) {
			delete(s.RowSelection, id)
		}
	}
}

// SetTableDataUnfiltered replaces the monitored job list.
func SetTableDataUnfiltered(jobs []opencue.Job) Action {
	jobs = cloneJobs(jobs)
	return Action{
		Name:     "SET_TABLE_DATA_UNFILTERED",
		apply:    func(s *State) { s.TableDataUnfiltered = jobs },
		refilter: true,
	}
}

// SetTableData replaces the displayed rows. Rows that are not monitored or
// do not match the active state filter are dropped.
func SetTableData(jobs []opencue.Job) Action {
	jobs = cloneJobs(jobs)
	return Action{
		Name: "SET_TABLE_DATA",
		apply: func(s *State) {
			s.TableData = filterByState(jobs, s.StateSelectValue)
		},
	}
}

// UnmonitorSelected stops monitoring every selected job and clears the
// selection.
func UnmonitorSelected() Action {
	return Action{
		Name: "UNMONITOR_SELECTED",
		apply: func(s *State) {
			unmonitor(s, stringSet(s.SelectedIDs()))
			s.RowSelection = map[string]bool{}
		},
	}
}

// UnmonitorPaused stops monitoring the paused jobs currently displayed.
func UnmonitorPaused() Action {
	return Action{
		Name: "UNMONITOR_PAUSED",
		apply: func(s *State) {
			ids := mapset.NewThreadUnsafeSet()
			for _, job := range s.TableData {
				if opencue.DisplayState(job) == opencue.StatePaused {
					ids.Add(job.ID)
				}
			}
			unmonitor(s, ids)
		},
	}
}

// UnmonitorFinished stops monitoring every finished job, displayed or not.
func UnmonitorFinished() Action {
	return Action{
		Name: "UNMONITOR_FINISHED",
		apply: func(s *State) {
			ids := mapset.NewThreadUnsafeSet()
			for _, job := range s.TableDataUnfiltered {
				if opencue.DisplayState(job) == opencue.StateFinished {
					ids.Add(job.ID)
				}
			}
			unmonitor(s, ids)
		},
	}
}

// UnmonitorAll empties the table.
func UnmonitorAll() Action {
	return Action{
		Name: "UNMONITOR_ALL",
		apply: func(s *State) {
			s.TableDataUnfiltered = []opencue.Job{}
			s.TableData = []opencue.Job{}
			s.RowSelection = map[string]bool{}
		},
	}
}

// UnmonitorJob stops monitoring a single job.
func UnmonitorJob(id string) Action {
	return Action{
		Name:  "UNMONITOR_JOB",
		apply: func(s *State) { unmonitor(s, stringSet([]string{id})) },
	}
}

// FilterByState selects the state filter and re-derives the displayed rows.
func FilterByState(state string) Action {
	return Action{
		Name:     "FILTER_BY_STATE",
		apply:    func(s *State) { s.StateSelectValue = state },
		refilter: true,
	}
}

// ToggleSearchSelect adds job to the monitored list, or removes it when a
// job with the same name is already monitored. Matching is by name, unlike
// the id matching used everywhere else. The displayed rows follow the active
// state filter.
func ToggleSearchSelect(job opencue.Job) Action {
	return Action{
		Name: "TOGGLE_SEARCH_SELECT",
		apply: func(s *State) {
			if i := indexByName(s.TableDataUnfiltered, job.Name); i >= 0 {
				s.TableDataUnfiltered = append(s.TableDataUnfiltered[:i:i], s.TableDataUnfiltered[i+1:]...)
				return
			}
			s.TableDataUnfiltered = append(s.TableDataUnfiltered, job)
		},
		refilter: true,
	}
}

// SyncResult is the outcome of one background refresh.
type SyncResult struct {
	// Requested holds the ids that were fetched.
	Requested []string
	// Jobs holds the records the gateway returned.
	Jobs []opencue.Job
	// BaseRevision is the state revision the request was built from.
	BaseRevision uint64
}

// ApplySync merges a refresh into the monitored jobs by id. A fetched
// record replaces the tracked one. A requested id with no record has aged
// out and is dropped. Jobs added after the request was issued are kept.
// Jobs changed locally after BaseRevision keep their local record for this
// tick.
func ApplySync(result SyncResult) Action {
	fetched := make(map[string]opencue.Job, len(result.Jobs))
	for _, job := range result.Jobs {
		fetched[job.ID] = job
	}
	requested := stringSet(result.Requested)
	return Action{
		Name: "APPLY_SYNC",
		apply: func(s *State) {
			merged := []opencue.Job{}
			for _, job := range s.TableDataUnfiltered {
				if rev, ok := s.touched[job.ID]; ok && rev > result.BaseRevision {
					merged = append(merged, job)
					continue
				}
				if fresh, ok := fetched[job.ID]; ok {
					merged = append(merged, fresh)
					continue
				}
				if requested.Contains(job.ID) {
					continue
				}
				merged = append(merged, job)
			}
			s.TableDataUnfiltered = merged
			for id, rev := range s.touched {
				if rev <= result.BaseRevision {
					delete(s.touched, id)
				}
			}
		},
		refilter: true,
	}
}

// MergeAutoload adds jobs whose names are not yet monitored.
func MergeAutoload(jobs []opencue.Job) Action {
	jobs = cloneJobs(jobs)
	return Action{
		Name: "MERGE_AUTOLOAD",
		apply: func(s *State) {
			names := mapset.NewThreadUnsafeSet()
			for _, job := range s.TableDataUnfiltered {
				names.Add(job.Name)
			}
			for _, job := range jobs {
				if names.Contains(job.Name) {
					continue
				}
				names.Add(job.Name)
				s.TableDataUnfiltered = append(s.TableDataUnfiltered, job)
			}
		},
		refilter: true,
	}
}

// SetRowSelection replaces the selection.
func SetRowSelection(selection map[string]bool) Action {
	selection = cloneBools(selection)
	return Action{
		Name:  "SET_ROW_SELECTION",
		apply: func(s *State) { s.RowSelection = selection },
	}
}

// ToggleRowSelected flips the selection of one row.
func ToggleRowSelected(id string) Action {
	return Action{
		Name: "TOGGLE_ROW_SELECTED",
		apply: func(s *State) {
			if s.RowSelection[id] {
				delete(s.RowSelection, id)
				return
			}
			s.RowSelection[id] = true
		},
	}
}

// SetSorting replaces the sort rules.
func SetSorting(rules []SortRule) Action {
	rules = append([]SortRule{}, rules...)
	return Action{
		Name:  "SET_SORTING",
		apply: func(s *State) { s.Sorting = rules },
	}
}

// SetColumnFilters replaces the column filters.
func SetColumnFilters(filters []ColumnFilter) Action {
	filters = append([]ColumnFilter{}, filters...)
	return Action{
		Name:  "SET_COLUMN_FILTERS",
		apply: func(s *State) { s.ColumnFilters = filters },
	}
}

// SetColumnVisibility replaces the column visibility map.
func SetColumnVisibility(visibility map[string]bool) Action {
	visibility = cloneBools(visibility)
	return Action{
		Name:  "SET_COLUMN_VISIBILITY",
		apply: func(s *State) { s.ColumnVisibility = visibility },
	}
}

// ResetColumnVisibility restores the default hidden columns.
func ResetColumnVisibility() Action {
	return Action{
		Name:  "RESET_COLUMN_VISIBILITY",
		apply: func(s *State) { s.ColumnVisibility = DefaultColumnVisibility() },
	}
}

// SetAutoloadMine toggles loading the user's own jobs.
func SetAutoloadMine(enabled bool) Action {
	return Action{
		Name:  "SET_AUTOLOAD_MINE",
		apply: func(s *State) { s.AutoloadMine = enabled },
	}
}

// SetUsername records the signed-in user.
func SetUsername(username string) Action {
	return Action{
		Name:  "SET_USERNAME",
		apply: func(s *State) { s.Username = username },
	}
}

// SetSearchQuery records the raw search input.
func SetSearchQuery(query string) Action {
	return Action{
		Name:  "SET_SEARCH_QUERY",
		apply: func(s *State) { s.SearchQuery = query },
	}
}

// SetAPIQuery records the show-shot key of the last backend search.
func SetAPIQuery(query string) Action {
	return Action{
		Name:  "SET_API_QUERY",
		apply: func(s *State) { s.APIQuery = query },
	}
}

// SetJobSearchResults replaces the backend search candidates.
func SetJobSearchResults(jobs []opencue.Job) Action {
	jobs = cloneJobs(jobs)
	return Action{
		Name:  "SET_JOB_SEARCH_RESULTS",
		apply: func(s *State) { s.JobSearchResults = jobs },
	}
}

// SetFilteredJobSearchResults replaces the locally filtered candidates.
func SetFilteredJobSearchResults(jobs []opencue.Job) Action {
	jobs = cloneJobs(jobs)
	return Action{
		Name:  "SET_FILTERED_JOB_SEARCH_RESULTS",
		apply: func(s *State) { s.FilteredJobSearchResults = jobs },
	}
}

// ClearSearch resets the search input and both result lists.
func ClearSearch() Action {
	return Action{
		Name: "CLEAR_SEARCH",
		apply: func(s *State) {
			s.SearchQuery = ""
			s.APIQuery = ""
			s.JobSearchResults = []opencue.Job{}
			s.FilteredJobSearchResults = []opencue.Job{}
		},
	}
}

// MarkJobsPaused sets the paused flag on ids ahead of the next refresh.
func MarkJobsPaused(ids []string, paused bool) Action {
	return markJobs("MARK_JOBS_PAUSED", ids, func(job *opencue.Job) {
		job.IsPaused = paused
	})
}

// MarkJobsKilled marks ids finished ahead of the next refresh.
func MarkJobsKilled(ids []string) Action {
	return markJobs("MARK_JOBS_KILLED", ids, func(job *opencue.Job) {
		job.State = opencue.JobStateFinished
	})
}

func markJobs(name string, ids []string, mutate func(*opencue.Job)) Action {
	set := stringSet(ids)
	return Action{
		Name: name,
		apply: func(s *State) {
			rev := s.Revision + 1
			for i := range s.TableDataUnfiltered {
				job := &s.TableDataUnfiltered[i]
				if !set.Contains(job.ID) {
					continue
				}
				mutate(job)
				s.touched[job.ID] = rev
			}
		},
		refilter: true,
	}
}
