package ui

import (
	"strconv"
	"time"

	"github.com/charmbracelet/bubbles/table"

	"github.com/five82/cueweb/internal/jobtable"
	"github.com/five82/cueweb/internal/opencue"
)

const (
	markWidth    = 1
	minNameWidth = 20
	// cellPadding is the horizontal padding bubbles/table adds to each cell.
	cellPadding = 2
	barWidth    = 8
)

var columnTitles = map[string]string{
	jobtable.ColumnName:     "Name",
	jobtable.ColumnState:    "State",
	jobtable.ColumnDone:     "Done / Total",
	jobtable.ColumnStarted:  "Started",
	jobtable.ColumnFinished: "Finished",
	jobtable.ColumnRunning:  "Running",
	jobtable.ColumnDead:     "Dead",
	jobtable.ColumnEaten:    "Eaten",
	jobtable.ColumnWait:     "Wait",
	jobtable.ColumnMaxRss:   "MaxRSS",
	jobtable.ColumnAge:      "Age",
	jobtable.ColumnProgress: "Progress",
}

var columnWidths = map[string]int{
	jobtable.ColumnState:    11,
	jobtable.ColumnDone:     12,
	jobtable.ColumnStarted:  11,
	jobtable.ColumnFinished: 11,
	jobtable.ColumnRunning:  7,
	jobtable.ColumnDead:     5,
	jobtable.ColumnEaten:    5,
	jobtable.ColumnWait:     5,
	jobtable.ColumnMaxRss:   7,
	jobtable.ColumnAge:      7,
	jobtable.ColumnProgress: barWidth + 5,
}

// visibleColumns lists the column ids not hidden by visibility, in display
// order. Columns absent from the map are shown.
func visibleColumns(visibility map[string]bool) []string {
	out := make([]string, 0, len(jobtable.Columns))
	for _, id := range jobtable.Columns {
		if shown, ok := visibility[id]; ok && !shown {
			continue
		}
		out = append(out, id)
	}
	return out
}

// allColumnsVisible reports whether no column is hidden.
func allColumnsVisible(visibility map[string]bool) bool {
	return len(visibleColumns(visibility)) == len(jobtable.Columns)
}

func showAllColumns() map[string]bool {
	out := make(map[string]bool, len(jobtable.Columns))
	for _, id := range jobtable.Columns {
		out[id] = true
	}
	return out
}

// jobColumns sizes the table columns for ids; the name column takes
// whatever width is left.
func jobColumns(ids []string, width int) []table.Column {
	used := markWidth + cellPadding
	for _, id := range ids {
		used += cellPadding
		if id != jobtable.ColumnName {
			used += columnWidths[id]
		}
	}
	nameWidth := width - used
	if nameWidth < minNameWidth {
		nameWidth = minNameWidth
	}

	cols := []table.Column{{Title: "", Width: markWidth}}
	for _, id := range ids {
		w := columnWidths[id]
		if id == jobtable.ColumnName {
			w = nameWidth
		}
		cols = append(cols, table.Column{Title: columnTitles[id], Width: w})
	}
	return cols
}

// jobRows renders jobs in order, marking selected rows.
func jobRows(jobs []opencue.Job, ids []string, selection map[string]bool, now time.Time) []table.Row {
	rows := make([]table.Row, 0, len(jobs))
	for _, job := range jobs {
		row := make(table.Row, 0, len(ids)+1)
		mark := " "
		if selection[job.ID] {
			mark = "●"
		}
		row = append(row, mark)
		for _, id := range ids {
			row = append(row, jobCell(job, id, now))
		}
		rows = append(rows, row)
	}
	return rows
}

func jobCell(job opencue.Job, column string, now time.Time) string {
	stats := job.JobStats
	switch column {
	case jobtable.ColumnName:
		return job.Name
	case jobtable.ColumnState:
		return opencue.DisplayState(job)
	case jobtable.ColumnDone:
		return strconv.Itoa(stats.SucceededFrames) + " / " + strconv.Itoa(stats.TotalFrames)
	case jobtable.ColumnStarted:
		return formatUnix(job.StartTime)
	case jobtable.ColumnFinished:
		return formatUnix(job.StopTime)
	case jobtable.ColumnRunning:
		return strconv.Itoa(stats.RunningFrames)
	case jobtable.ColumnDead:
		return strconv.Itoa(stats.DeadFrames)
	case jobtable.ColumnEaten:
		return strconv.Itoa(stats.EatenFrames)
	case jobtable.ColumnWait:
		return strconv.Itoa(stats.WaitingFrames)
	case jobtable.ColumnMaxRss:
		return formatKB(stats.MaxRss)
	case jobtable.ColumnAge:
		return humanizeDuration(job.Age(now))
	case jobtable.ColumnProgress:
		return progressBar(job.Progress(), barWidth)
	default:
		return ""
	}
}

// nextSort moves the primary sort to the next visible column. Sorting by
// the last column wraps back to no sorting.
func nextSort(current []jobtable.SortRule, ids []string) []jobtable.SortRule {
	if len(ids) == 0 {
		return nil
	}
	if len(current) == 0 {
		return []jobtable.SortRule{{ID: ids[0]}}
	}
	for i, id := range ids {
		if id != current[0].ID {
			continue
		}
		if i == len(ids)-1 {
			return nil
		}
		return []jobtable.SortRule{{ID: ids[i+1], Desc: current[0].Desc}}
	}
	return []jobtable.SortRule{{ID: ids[0]}}
}

// reverseSort flips the direction of every rule.
func reverseSort(current []jobtable.SortRule) []jobtable.SortRule {
	out := make([]jobtable.SortRule, len(current))
	for i, rule := range current {
		out[i] = jobtable.SortRule{ID: rule.ID, Desc: !rule.Desc}
	}
	return out
}

// toggleAll selects every row, or clears the selection when every row is
// already selected.
func toggleAll(jobs []opencue.Job, selection map[string]bool) map[string]bool {
	all := len(jobs) > 0
	for _, job := range jobs {
		if !selection[job.ID] {
			all = false
			break
		}
	}
	out := map[string]bool{}
	if all {
		return out
	}
	for _, job := range jobs {
		out[job.ID] = true
	}
	return out
}

func sortLabel(rules []jobtable.SortRule) string {
	if len(rules) == 0 {
		return "unsorted"
	}
	dir := "↑"
	if rules[0].Desc {
		dir = "↓"
	}
	return columnTitles[rules[0].ID] + " " + dir
}

func jobIDs(jobs []opencue.Job) []string {
	ids := make([]string, 0, len(jobs))
	for _, job := range jobs {
		ids = append(ids, job.ID)
	}
	return ids
}
