package ui

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/cueweb/internal/actions"
	"github.com/five82/cueweb/internal/cueapi"
	"github.com/five82/cueweb/internal/fetch"
	"github.com/five82/cueweb/internal/health"
	"github.com/five82/cueweb/internal/jobtable"
	"github.com/five82/cueweb/internal/monitor"
	"github.com/five82/cueweb/internal/notify"
	"github.com/five82/cueweb/internal/opencue"
	"github.com/five82/cueweb/internal/prefs"
)

// View represents the current active view.
type View int

const (
	ViewJobs View = iota
	ViewFrames
	ViewLog
)

const (
	defaultTick  = time.Second
	logTailLines = 200
	searchRows   = 8
	// chromeLines are taken by the header and footer.
	chromeLines = 4
)

// JobActions runs menu actions against the render farm.
type JobActions interface {
	KillSelected(ctx context.Context, jobs []opencue.Job, username string) bool
	EatSelected(ctx context.Context, jobs []opencue.Job) bool
	RetrySelected(ctx context.Context, jobs []opencue.Job) bool
	PauseSelected(ctx context.Context, jobs []opencue.Job) bool
	UnpauseSelected(ctx context.Context, jobs []opencue.Job) bool
	KillFrame(ctx context.Context, frame opencue.Frame, username string) bool
	EatFrames(ctx context.Context, frames []opencue.Frame) bool
	RetryFrames(ctx context.Context, frames []opencue.Frame) bool
}

// FrameSource lists the frames of a job.
type FrameSource interface {
	GetFrames(ctx context.Context, job opencue.Job) []opencue.Frame
}

// LogSource reads frame log lines.
type LogSource interface {
	GetLines(ctx context.Context, query cueapi.LineQuery) ([]string, error)
}

// SearchInput receives search box edits.
type SearchInput interface {
	Input(query string)
	Select(job opencue.Job)
	Phase() monitor.Phase
}

var (
	_ JobActions  = (*actions.Dispatcher)(nil)
	_ FrameSource = (*fetch.Fetcher)(nil)
	_ LogSource   = (*cueapi.Client)(nil)
	_ SearchInput = (*monitor.Searcher)(nil)
)

var errNoLogDir = errors.New("job has no log directory")

// Options configure the UI.
type Options struct {
	Context   context.Context
	Store     monitor.Store
	Search    SearchInput
	Actions   JobActions
	Frames    FrameSource
	Logs      LogSource
	Toasts    *notify.Recorder
	Health    *health.Tracker
	Storage   prefs.Storage
	Tick      time.Duration
	ThemeName string
}

// Model is the root application state for Bubble Tea.
type Model struct {
	ctx     context.Context
	store   monitor.Store
	search  SearchInput
	actions JobActions
	frames  FrameSource
	logs    LogSource
	toasts  *notify.Recorder
	health  *health.Tracker
	storage prefs.Storage
	tick    time.Duration

	keys     keyMap
	help     help.Model
	theme    Theme
	view     View
	width    int
	height   int
	ready    bool
	showHelp bool
	busy     string

	// Job table
	state jobtable.State
	rows  []opencue.Job
	jobs  table.Model

	// Search box
	searching    bool
	input        textinput.Model
	searchCursor int

	// Frames of one job
	frameJob   opencue.Job
	frameList  []opencue.Frame
	frameTable table.Model

	// Frame log
	logPath  string
	logLines []string
	logErr   error
	follow   bool
	logView  viewport.Model

	status   health.Snapshot
	toast    notify.Toast
	hasToast bool
}

// New creates a new Bubble Tea model.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	tick := opts.Tick
	if tick <= 0 {
		tick = defaultTick
	}
	themeName := opts.ThemeName
	if themeName == "" {
		themeName = "Dracula"
	}

	input := textinput.New()
	input.Prompt = "/ "
	input.Placeholder = "show-shot, or regex ending in !"

	m := Model{
		ctx:        ctx,
		store:      opts.Store,
		search:     opts.Search,
		actions:    opts.Actions,
		frames:     opts.Frames,
		logs:       opts.Logs,
		toasts:     opts.Toasts,
		health:     opts.Health,
		storage:    opts.Storage,
		tick:       tick,
		keys:       DefaultKeyMap(),
		help:       help.New(),
		theme:      GetTheme(themeName),
		view:       ViewJobs,
		jobs:       table.New(table.WithFocused(true)),
		frameTable: table.New(table.WithFocused(true)),
		input:      input,
		logView:    viewport.New(0, 0),
		follow:     true,
	}
	m.applyTableStyles()
	m.refresh()
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tickCmd(m.tick)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.layout()
		return m, nil

	case tickMsg:
		return m.handleTick()

	case actionDoneMsg:
		m.busy = ""
		m.refresh()
		if msg.reloadFrames {
			return m, m.loadFrames(m.frameJob)
		}
		return m, nil

	case framesMsg:
		if msg.jobID == m.frameJob.ID {
			m.frameList = msg.frames
			m.syncFrameTable()
		}
		return m, nil

	case logMsg:
		if msg.path == m.logPath {
			m.logLines = msg.lines
			m.logErr = msg.err
			m.syncLogView()
		}
		return m, nil
	}
	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	if m.showHelp {
		return m.renderHelp()
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.renderContent())
	b.WriteString("\n")
	b.WriteString(m.renderFooter())
	return b.String()
}

func (m Model) renderContent() string {
	switch m.view {
	case ViewFrames:
		return m.renderFrames()
	case ViewLog:
		return m.renderLog()
	default:
		if m.searching {
			return m.renderSearch() + "\n" + m.jobs.View()
		}
		return m.jobs.View()
	}
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showHelp {
		// Any key closes help
		m.showHelp = false
		return m, nil
	}
	if m.searching {
		return m.handleSearchKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil
	case key.Matches(msg, m.keys.CycleTheme):
		m.theme = GetTheme(NextTheme(m.theme.Name))
		m.applyTableStyles()
		return m, nil
	case key.Matches(msg, m.keys.SignOut):
		if err := jobtable.Forget(m.storage); err != nil {
			log.Printf("sign out: %v", err)
		}
		return m, tea.Quit
	}

	switch m.view {
	case ViewFrames:
		return m.handleFramesKey(msg)
	case ViewLog:
		return m.handleLogKey(msg)
	default:
		return m.handleJobsKey(msg)
	}
}

func (m Model) handleJobsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	k := m.keys
	username := m.state.Username
	switch {
	case key.Matches(msg, k.ToggleSelect):
		if job, ok := m.cursorJob(); ok {
			m.dispatch(jobtable.ToggleRowSelected(job.ID))
		}
	case key.Matches(msg, k.SelectAll):
		m.dispatch(jobtable.SetRowSelection(toggleAll(m.rows, m.state.RowSelection)))
	case key.Matches(msg, k.CycleFilter):
		m.dispatch(jobtable.FilterByState(opencue.NextFilterState(m.state.StateSelectValue)))
	case key.Matches(msg, k.CycleSort):
		m.dispatch(jobtable.SetSorting(nextSort(m.state.Sorting, visibleColumns(m.state.ColumnVisibility))))
	case key.Matches(msg, k.ReverseSort):
		m.dispatch(jobtable.SetSorting(reverseSort(m.state.Sorting)))
	case key.Matches(msg, k.ToggleColumns):
		if allColumnsVisible(m.state.ColumnVisibility) {
			m.dispatch(jobtable.ResetColumnVisibility())
		} else {
			m.dispatch(jobtable.SetColumnVisibility(showAllColumns()))
		}
	case key.Matches(msg, k.Autoload):
		m.dispatch(jobtable.SetAutoloadMine(!m.state.AutoloadMine))
	case key.Matches(msg, k.Search):
		if m.search == nil {
			return m, nil
		}
		m.searching = true
		m.searchCursor = 0
		m.input.SetValue(m.state.SearchQuery)
		m.layout()
		return m, m.input.Focus()
	case key.Matches(msg, k.Open):
		job, ok := m.cursorJob()
		if !ok {
			return m, nil
		}
		m.view = ViewFrames
		m.frameJob = job
		m.frameList = nil
		m.frameTable.SetCursor(0)
		m.syncFrameTable()
		return m, m.loadFrames(job)

	case key.Matches(msg, k.Kill):
		return m.runJobs("Killing", func(ctx context.Context, jobs []opencue.Job) bool {
			return m.actions.KillSelected(ctx, jobs, username)
		}, jobtable.MarkJobsKilled)
	case key.Matches(msg, k.Eat):
		return m.runJobs("Eating", func(ctx context.Context, jobs []opencue.Job) bool {
			return m.actions.EatSelected(ctx, jobs)
		}, nil)
	case key.Matches(msg, k.Retry):
		return m.runJobs("Retrying", func(ctx context.Context, jobs []opencue.Job) bool {
			return m.actions.RetrySelected(ctx, jobs)
		}, nil)
	case key.Matches(msg, k.Pause):
		return m.runJobs("Pausing", func(ctx context.Context, jobs []opencue.Job) bool {
			return m.actions.PauseSelected(ctx, jobs)
		}, func(ids []string) jobtable.Action {
			return jobtable.MarkJobsPaused(ids, true)
		})
	case key.Matches(msg, k.Unpause):
		return m.runJobs("Unpausing", func(ctx context.Context, jobs []opencue.Job) bool {
			return m.actions.UnpauseSelected(ctx, jobs)
		}, func(ids []string) jobtable.Action {
			return jobtable.MarkJobsPaused(ids, false)
		})

	case key.Matches(msg, k.UnmonitorSelected):
		m.dispatch(jobtable.UnmonitorSelected())
	case key.Matches(msg, k.UnmonitorPaused):
		m.dispatch(jobtable.UnmonitorPaused())
	case key.Matches(msg, k.UnmonitorFinished):
		m.dispatch(jobtable.UnmonitorFinished())
	case key.Matches(msg, k.UnmonitorAll):
		m.dispatch(jobtable.UnmonitorAll())

	default:
		var cmd tea.Cmd
		m.jobs, cmd = m.jobs.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	results := m.state.FilteredJobSearchResults
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.searching = false
		m.input.Blur()
		m.layout()
		return m, nil
	case "up":
		if m.searchCursor > 0 {
			m.searchCursor--
		}
		return m, nil
	case "down":
		if m.searchCursor < len(results)-1 {
			m.searchCursor++
		}
		return m, nil
	case "enter":
		if m.searchCursor < len(results) {
			m.search.Select(results[m.searchCursor])
			m.refresh()
		}
		return m, nil
	}

	before := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if value := m.input.Value(); value != before {
		m.search.Input(value)
		m.searchCursor = 0
		m.refresh()
	}
	return m, cmd
}

func (m Model) handleFramesKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	k := m.keys
	username := m.state.Username
	switch {
	case key.Matches(msg, k.Escape):
		m.view = ViewJobs
		return m, nil
	case key.Matches(msg, k.Open):
		frame, ok := m.cursorFrame()
		if !ok {
			return m, nil
		}
		m.view = ViewLog
		m.logPath = opencue.FrameLogPath(m.frameJob, frame)
		m.logLines = nil
		m.logErr = nil
		if m.logPath == "" {
			m.logErr = errNoLogDir
		}
		m.syncLogView()
		return m, m.loadLog()
	case key.Matches(msg, k.Retry):
		return m.runFrame("Retrying", func(ctx context.Context, f opencue.Frame) bool {
			return m.actions.RetryFrames(ctx, []opencue.Frame{f})
		})
	case key.Matches(msg, k.Eat):
		return m.runFrame("Eating", func(ctx context.Context, f opencue.Frame) bool {
			return m.actions.EatFrames(ctx, []opencue.Frame{f})
		})
	case key.Matches(msg, k.Kill):
		return m.runFrame("Killing", func(ctx context.Context, f opencue.Frame) bool {
			return m.actions.KillFrame(ctx, f, username)
		})
	}
	var cmd tea.Cmd
	m.frameTable, cmd = m.frameTable.Update(msg)
	return m, cmd
}

func (m Model) handleLogKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Escape):
		m.view = ViewFrames
		return m, nil
	case key.Matches(msg, m.keys.ToggleFollow):
		m.follow = !m.follow
		if m.follow {
			return m, m.loadLog()
		}
		return m, nil
	}
	var cmd tea.Cmd
	m.logView, cmd = m.logView.Update(msg)
	return m, cmd
}

// handleTick processes the polling tick.
func (m Model) handleTick() (tea.Model, tea.Cmd) {
	m.refresh()
	cmds := []tea.Cmd{tickCmd(m.tick)}
	if m.view == ViewLog && m.follow {
		if cmd := m.loadLog(); cmd != nil {
			cmds = append(cmds, cmd)
		}
	}
	return m, tea.Batch(cmds...)
}

// refresh pulls the committed store state and status into the model.
func (m *Model) refresh() {
	if m.store != nil {
		m.state = m.store.State()
	}
	m.rows = jobtable.Visible(m.state)
	if m.health != nil {
		m.status = m.health.Snapshot()
	}
	if m.toasts != nil {
		m.toast, m.hasToast = m.toasts.Last()
	}
	m.syncJobTable()
}

func (m *Model) dispatch(a jobtable.Action) {
	if m.store == nil {
		return
	}
	m.store.Dispatch(a)
	m.refresh()
}

func (m *Model) layout() {
	m.help.Width = m.width
	height := m.height - chromeLines
	if height < 3 {
		height = 3
	}
	tableHeight := height
	if m.searching {
		tableHeight -= searchRows + 2
	}
	if tableHeight < 3 {
		tableHeight = 3
	}
	m.jobs.SetHeight(tableHeight)
	m.jobs.SetWidth(m.width)
	m.frameTable.SetHeight(height - 1)
	m.frameTable.SetWidth(m.width)
	m.logView.Width = m.width
	m.logView.Height = height - 1
	m.syncJobTable()
	m.syncFrameTable()
	m.syncLogView()
}

func (m *Model) syncJobTable() {
	ids := visibleColumns(m.state.ColumnVisibility)
	cursor := m.jobs.Cursor()
	// Rows are cleared first so they never outnumber the columns.
	m.jobs.SetRows(nil)
	m.jobs.SetColumns(jobColumns(ids, m.width))
	m.jobs.SetRows(jobRows(m.rows, ids, m.state.RowSelection, time.Now()))
	m.jobs.SetCursor(cursor)
}

func (m *Model) syncFrameTable() {
	cursor := m.frameTable.Cursor()
	m.frameTable.SetRows(nil)
	m.frameTable.SetColumns(frameColumns(m.width))
	m.frameTable.SetRows(frameRows(m.frameList, time.Now()))
	m.frameTable.SetCursor(cursor)
}

func (m *Model) applyTableStyles() {
	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color(m.theme.Border)).
		BorderBottom(true).
		Foreground(lipgloss.Color(m.theme.Accent)).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color(m.theme.SelectionText)).
		Background(lipgloss.Color(m.theme.SelectionBg)).
		Bold(false)
	m.jobs.SetStyles(s)
	m.frameTable.SetStyles(s)
}

func (m Model) cursorJob() (opencue.Job, bool) {
	i := m.jobs.Cursor()
	if i < 0 || i >= len(m.rows) {
		return opencue.Job{}, false
	}
	return m.rows[i], true
}

func (m Model) cursorFrame() (opencue.Frame, bool) {
	i := m.frameTable.Cursor()
	if i < 0 || i >= len(m.frameList) {
		return opencue.Frame{}, false
	}
	return m.frameList[i], true
}

// targetJobs is the selection, or the cursor row when nothing is selected.
func (m Model) targetJobs() []opencue.Job {
	if selected := m.state.SelectedJobs(); len(selected) > 0 {
		return selected
	}
	if job, ok := m.cursorJob(); ok {
		return []opencue.Job{job}
	}
	return nil
}

// runJobs runs an action on the target jobs in the background. after, when
// set, records the optimistic outcome for the unfinished jobs on success.
func (m Model) runJobs(label string, run func(context.Context, []opencue.Job) bool, after func([]string) jobtable.Action) (tea.Model, tea.Cmd) {
	jobs := m.targetJobs()
	if len(jobs) == 0 || m.actions == nil || m.busy != "" {
		return m, nil
	}
	m.busy = label
	ctx, store := m.ctx, m.store
	return m, func() tea.Msg {
		ok := run(ctx, jobs)
		if ok && after != nil && store != nil {
			store.Dispatch(after(jobIDs(actions.Unfinished(jobs))))
		}
		return actionDoneMsg{ok: ok}
	}
}

func (m Model) runFrame(label string, run func(context.Context, opencue.Frame) bool) (tea.Model, tea.Cmd) {
	frame, ok := m.cursorFrame()
	if !ok || m.actions == nil || m.busy != "" {
		return m, nil
	}
	m.busy = label
	ctx := m.ctx
	return m, func() tea.Msg {
		return actionDoneMsg{ok: run(ctx, frame), reloadFrames: true}
	}
}

// Messages

type tickMsg time.Time

type actionDoneMsg struct {
	ok           bool
	reloadFrames bool
}

type framesMsg struct {
	jobID  string
	frames []opencue.Frame
}

type logMsg struct {
	path  string
	lines []string
	err   error
}

// Commands

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m Model) loadFrames(job opencue.Job) tea.Cmd {
	if m.frames == nil {
		return nil
	}
	frames, ctx := m.frames, m.ctx
	return func() tea.Msg {
		return framesMsg{jobID: job.ID, frames: frames.GetFrames(ctx, job)}
	}
}

func (m Model) loadLog() tea.Cmd {
	if m.logs == nil || m.logPath == "" {
		return nil
	}
	logs, ctx, path := m.logs, m.ctx, m.logPath
	return func() tea.Msg {
		lines, err := logs.GetLines(ctx, cueapi.LineQuery{Path: path, Start: -logTailLines})
		return logMsg{path: path, lines: lines, err: err}
	}
}

// Run starts the Bubble Tea program and blocks until the user quits or the
// context is cancelled.
func Run(opts Options) error {
	if opts.Store == nil {
		return fmt.Errorf("ui requires a job store")
	}
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	p := tea.NewProgram(New(opts), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
