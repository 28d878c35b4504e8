// Package jobtable holds the monitored job table and every transition on it.
//
// # State and actions
//
// State is a plain value. Reduce applies one Action to a copy and returns the
// new State; it never touches storage, the network or the clock. Actions are
// built with named constructors (UnmonitorPaused, FilterByState, ApplySync,
// and so on) rather than assembled by callers.
//
// Every committed State satisfies two rules:
//
//   - each TableData row is also in TableDataUnfiltered
//   - each RowSelection key names a job in TableDataUnfiltered
//
// Changes to TableDataUnfiltered re-apply the active state filter, so a
// background refresh cannot slip rows past it.
//
// # Refresh precedence
//
// Background refreshes carry the revision they were built from. Jobs changed
// by an optimistic local action (MarkJobsPaused, MarkJobsKilled) after that
// revision keep their local record for the tick; the following refresh
// replaces them as usual.
//
// # Store
//
// Store serializes Dispatch calls and tells observers about each commit in
// dispatch order. Mirror is an observer that writes changed fields to a
// prefs.Storage, and Restore rebuilds a State from the same keys on startup.
// Row selection is never restored.
package jobtable
