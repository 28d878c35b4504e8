// Package monitor runs the background work behind the job table: periodic
// refresh of monitored jobs, the debounced search pipeline, and autoload of
// the user's own jobs. All of it reaches the table only by dispatching
// jobtable actions, and re-reads committed state after every fetch.
package monitor
