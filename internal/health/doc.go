// Package health tracks the outcome of the monitor's background refreshes.
//
// The poller calls Tracker.Record after every tick and the UI reads
// Tracker.Snapshot on its own schedule to show when the table last changed
// and whether the server is reachable. A failed refresh keeps the previous
// success time so the UI can say how stale the table is.
//
// The zero Tracker is ready to use.
package health
