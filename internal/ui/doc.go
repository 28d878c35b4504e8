// Package ui provides the terminal view of the cuemon job monitor.
//
// # Architecture Overview
//
// The view is a Bubble Tea program. It owns no job data: every tick it
// reads the committed jobtable.State from the shared store, and every key
// that changes the table dispatches a jobtable action. Background work
// (sync, autoload, search) runs elsewhere and reaches the screen the same
// way, through the store.
//
// # Package Structure
//
//   - app.go: Model, Update loop, key handling and background commands
//   - table.go: job table columns, cell formatting, sort and selection helpers
//   - frames.go: frame list and frame log views
//   - header.go: status header, state badges, toast line and search box
//   - keys.go, help.go: key map and help overlay
//   - theme.go: color palettes and display-state badge styles
//
// # Views
//
//   - Jobs: the monitored jobs after state filter, column filters and sorting
//   - Frames: the first page of frames for the job under the cursor
//   - Log: the tail of one frame's log, optionally following new output
//
// # Actions
//
// Kill, eat, retry, pause and unpause act on the selected rows, or on the
// cursor row when nothing is selected. They run as commands so the screen
// stays responsive; successful pause and kill requests are recorded in the
// store right away and later confirmed by the background sync.
package ui
