package ui

import (
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"

	"github.com/five82/cueweb/internal/opencue"
)

func frameColumns(width int) []table.Column {
	cols := []table.Column{
		{Title: "#", Width: 6},
		{Title: "Layer", Width: 16},
		{Title: "State", Width: 11},
		{Title: "Retries", Width: 7},
		{Title: "Exit", Width: 5},
		{Title: "Host", Width: 20},
		{Title: "Runtime", Width: 8},
	}
	used := 0
	for _, c := range cols {
		used += c.Width + cellPadding
	}
	if extra := width - used; extra > 0 {
		cols[1].Width += extra / 2
		cols[5].Width += extra - extra/2
	}
	return cols
}

func frameRows(frames []opencue.Frame, now time.Time) []table.Row {
	rows := make([]table.Row, 0, len(frames))
	for _, f := range frames {
		rows = append(rows, table.Row{
			strconv.Itoa(f.Number),
			f.LayerName,
			f.State,
			strconv.Itoa(f.RetryCount),
			strconv.Itoa(f.ExitStatus),
			opencue.ParseLastResource(f.LastResource).Host,
			humanizeDuration(f.Runtime(now)),
		})
	}
	return rows
}

func (m Model) renderFrames() string {
	styles := m.theme.Styles()
	title := styles.AccentText.Bold(true).Render(m.frameJob.Name) +
		styles.MutedText.Render("  "+strconv.Itoa(len(m.frameList))+" frames  enter log · R retry · E eat · K kill · esc back")
	return title + "\n" + m.frameTable.View()
}

func (m Model) renderLog() string {
	styles := m.theme.Styles()
	follow := "paused"
	if m.follow {
		follow = "following"
	}
	title := styles.AccentText.Bold(true).Render(truncateMiddle(m.logPath, m.width/2)) +
		styles.MutedText.Render("  "+follow)
	if m.logErr != nil {
		title += "  " + styles.DangerText.Render(m.logErr.Error())
	}
	return title + "\n" + m.logView.View()
}

func (m *Model) syncLogView() {
	m.logView.SetContent(strings.Join(m.logLines, "\n"))
	if m.follow {
		m.logView.GotoBottom()
	}
}
