package jobtable

import (
	"github.com/five82/cueweb/internal/opencue"
)

// SortRule orders the table by one column.
type SortRule struct {
	ID   string `json:"id"`
	Desc bool   `json:"desc"`
}

// ColumnFilter narrows the visible rows by a column value.
type ColumnFilter struct {
	ID    string `json:"id"`
	Value string `json:"value"`
}

// DefaultUsername is used until the signed-in user is known.
const DefaultUsername = "monitor"

// State is the whole job table view. It is only ever replaced through Reduce.
type State struct {
	AutoloadMine             bool
	TableData                []opencue.Job
	TableDataUnfiltered      []opencue.Job
	Sorting                  []SortRule
	ColumnFilters            []ColumnFilter
	StateSelectValue         string
	JobSearchResults         []opencue.Job
	FilteredJobSearchResults []opencue.Job
	SearchQuery              string
	APIQuery                 string
	RowSelection             map[string]bool
	ColumnVisibility         map[string]bool
	Username                 string

	// Revision increases by one on every committed transition.
	Revision uint64
	// touched maps job ids to the revision of their last optimistic change.
	touched map[string]uint64
}

// DefaultColumnVisibility hides the secondary counter columns.
func DefaultColumnVisibility() map[string]bool {
	return map[string]bool{
		"running": false,
		"dead":    false,
		"wait":    false,
		"eaten":   false,
		"age":     false,
		"maxRss":  false,
	}
}

// Initial returns the empty table for username.
func Initial(username string) State {
	if username == "" {
		username = DefaultUsername
	}
	return State{
		TableData:                []opencue.Job{},
		TableDataUnfiltered:      []opencue.Job{},
		Sorting:                  []SortRule{},
		ColumnFilters:            []ColumnFilter{},
		StateSelectValue:         opencue.StateAllStates,
		JobSearchResults:         []opencue.Job{},
		FilteredJobSearchResults: []opencue.Job{},
		RowSelection:             map[string]bool{},
		ColumnVisibility:         DefaultColumnVisibility(),
		Username:                 username,
		touched:                  map[string]uint64{},
	}
}

// Clone returns a deep copy of s.
func (s State) Clone() State {
	dup := s
	dup.TableData = cloneJobs(s.TableData)
	dup.TableDataUnfiltered = cloneJobs(s.TableDataUnfiltered)
	dup.JobSearchResults = cloneJobs(s.JobSearchResults)
	dup.FilteredJobSearchResults = cloneJobs(s.FilteredJobSearchResults)
	dup.Sorting = append([]SortRule{}, s.Sorting...)
	dup.ColumnFilters = append([]ColumnFilter{}, s.ColumnFilters...)
	dup.RowSelection = cloneBools(s.RowSelection)
	dup.ColumnVisibility = cloneBools(s.ColumnVisibility)
	dup.touched = make(map[string]uint64, len(s.touched))
	for k, v := range s.touched {
		dup.touched[k] = v
	}
	return dup
}

// SelectedIDs returns the ids of selected rows in table order.
func (s State) SelectedIDs() []string {
	var ids []string
	for _, job := range s.TableDataUnfiltered {
		if s.RowSelection[job.ID] {
			ids = append(ids, job.ID)
		}
	}
	return ids
}

// SelectedJobs returns the selected jobs in table order.
func (s State) SelectedJobs() []opencue.Job {
	var jobs []opencue.Job
	for _, job := range s.TableDataUnfiltered {
		if s.RowSelection[job.ID] {
			jobs = append(jobs, job)
		}
	}
	return jobs
}

// TrackedIDs returns the ids of every monitored job.
func (s State) TrackedIDs() []string {
	ids := make([]string, 0, len(s.TableDataUnfiltered))
	for _, job := range s.TableDataUnfiltered {
		ids = append(ids, job.ID)
	}
	return ids
}

// Tracks reports whether a job with the given name is monitored.
func (s State) Tracks(name string) bool {
	return indexByName(s.TableDataUnfiltered, name) >= 0
}

func cloneJobs(jobs []opencue.Job) []opencue.Job {
	if jobs == nil {
		return []opencue.Job{}
	}
	dup := make([]opencue.Job, len(jobs))
	copy(dup, jobs)
	return dup
}

func cloneBools(m map[string]bool) map[string]bool {
	dup := make(map[string]bool, len(m))
	for k, v := range m {
		dup[k] = v
	}
	return dup
}

func indexByName(jobs []opencue.Job, name string) int {
	for i, job := range jobs {
		if job.Name == name {
			return i
		}
	}
	return -1
}
