package health

import (
	"fmt"
	"sync"
	"time"
)

// Snapshot describes how background refreshes have been going.
type Snapshot struct {
	LastUpdated         time.Time
	LastSuccess         time.Time
	LastChange          time.Time
	LastError           error
	ConsecutiveFailures int
	Refreshes           int
}

// IsOffline returns true when the API has been unreachable for multiple polls.
func (s Snapshot) IsOffline() bool {
	return s.ConsecutiveFailures >= 2
}

// Tracker records refresh outcomes for the UI.
type Tracker struct {
	mu       sync.RWMutex
	snapshot Snapshot
	now      func() time.Time
}

// Record stores the outcome of one refresh. On error the last success and
// change times are kept so the UI can show how stale the table is.
func (t *Tracker) Record(changed bool, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.clock()
	t.snapshot.LastUpdated = now
	t.snapshot.Refreshes++
	if err != nil {
		t.snapshot.LastError = err
		t.snapshot.ConsecutiveFailures++
		return
	}
	t.snapshot.LastError = nil
	t.snapshot.ConsecutiveFailures = 0
	t.snapshot.LastSuccess = now
	if changed {
		t.snapshot.LastChange = now
	}
}

// Failures returns the current run of failed refreshes.
func (t *Tracker) Failures() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.snapshot.ConsecutiveFailures
}

// Snapshot returns a copy of the current snapshot.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()

	snap := t.snapshot
	if t.snapshot.LastError != nil {
		snap.LastError = fmt.Errorf("%w", t.snapshot.LastError)
	}
	return snap
}

func (t *Tracker) clock() time.Time {
	if t.now != nil {
		return t.now()
	}
	return time.Now()
}
