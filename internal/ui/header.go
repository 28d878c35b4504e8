package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/five82/cueweb/internal/monitor"
	"github.com/five82/cueweb/internal/opencue"
)

// summaryStates are the badges shown in the header, in menu order.
var summaryStates = opencue.FilterStates[1:]

// stateCounts tallies display states across jobs.
func stateCounts(jobs []opencue.Job) map[string]int {
	counts := make(map[string]int, len(summaryStates))
	for _, job := range jobs {
		counts[opencue.DisplayState(job)]++
	}
	return counts
}

// renderHeader renders the two status lines above the content.
func (m Model) renderHeader() string {
	styles := m.theme.Styles()
	sep := "  "

	line1 := []string{
		styles.Logo.Render("cuemon"),
		styles.MutedText.Render("user ") + styles.Text.Render(m.state.Username),
		styles.MutedText.Render("filter ") + styles.AccentText.Render(m.state.StateSelectValue),
		styles.MutedText.Render("sort ") + styles.Text.Render(sortLabel(m.state.Sorting)),
	}
	if m.state.AutoloadMine {
		line1 = append(line1, styles.InfoText.Render("autoload"))
	}
	line1 = append(line1, m.renderHealth())
	if m.busy != "" {
		line1 = append(line1, styles.WarningText.Render(m.busy+"..."))
	}

	counts := stateCounts(m.state.TableDataUnfiltered)
	line2 := make([]string, 0, len(summaryStates)+1)
	for _, state := range summaryStates {
		line2 = append(line2, styles.StateStyle(state).Render(fmt.Sprintf("%s %d", state, counts[state])))
	}
	line2 = append(line2, styles.MutedText.Render(fmt.Sprintf("%d monitored · %d shown · %d selected",
		len(m.state.TableDataUnfiltered), len(m.rows), len(m.state.SelectedIDs()))))

	header := styles.Header.Width(m.width)
	return header.Render(strings.Join(line1, sep)) + "\n" +
		lipgloss.NewStyle().Padding(0, 1).Render(strings.Join(line2, " "))
}

func (m Model) renderHealth() string {
	styles := m.theme.Styles()
	if m.health == nil {
		return ""
	}
	snap := m.status
	switch {
	case snap.LastUpdated.IsZero():
		return styles.WarningText.Render("connecting")
	case snap.IsOffline():
		last := "never"
		if !snap.LastSuccess.IsZero() {
			last = snap.LastSuccess.Format("15:04:05")
		}
		return styles.DangerText.Render("OFFLINE") + " " +
			styles.MutedText.Render(fmt.Sprintf("retrying, last ok %s", last))
	default:
		return styles.SuccessText.Render("online") + " " +
			styles.MutedText.Render(snap.LastUpdated.Format("15:04:05"))
	}
}

// renderFooter shows the latest toast above the short help.
func (m Model) renderFooter() string {
	styles := m.theme.Styles()
	toast := ""
	if m.hasToast {
		toast = styles.ToastStyle(m.toast.Kind).Render(m.toast.Title)
		if m.toast.Description != "" {
			toast += " " + styles.MutedText.Render(truncateMiddle(m.toast.Description, m.width/2))
		}
	}
	return styles.Footer.Render(toast) + "\n" + styles.Footer.Render(m.help.View(m.keys))
}

// renderSearch draws the search box and its results.
func (m Model) renderSearch() string {
	styles := m.theme.Styles()
	var b strings.Builder
	b.WriteString(m.input.View())
	if m.search != nil {
		if phase := m.search.Phase(); phase != monitor.PhaseIdle {
			b.WriteString("  " + styles.WarningText.Render(phase.String()))
		}
	}
	results := m.state.FilteredJobSearchResults
	if len(results) == 0 && m.input.Value() != "" {
		b.WriteString("\n" + styles.MutedText.Render("  no matching jobs"))
	}
	start := 0
	if m.searchCursor >= searchRows {
		start = m.searchCursor - searchRows + 1
	}
	for i := start; i < len(results) && i < start+searchRows; i++ {
		job := results[i]
		mark := "  "
		if m.state.Tracks(job.Name) {
			mark = "+ "
		}
		line := mark + job.Name
		if i == m.searchCursor {
			line = styles.Selected.Render(line)
		} else {
			line = styles.Text.Render(line)
		}
		b.WriteString("\n" + line)
	}
	return b.String()
}
