package jobtable

import "sync"

// Observer is told about every committed transition, in dispatch order.
type Observer func(prev, next State, action Action)

// Store owns the job table state. Dispatch applies actions one at a time;
// observers run after each commit, outside the state lock, so they may
// dispatch further actions.
type Store struct {
	mu        sync.Mutex
	state     State
	observers []Observer

	deliverMu sync.Mutex
	pending   []change
	draining  bool
}

type change struct {
	prev, next State
	action     Action
}

// NewStore returns a store holding initial.
func NewStore(initial State) *Store {
	return &Store{state: initial.Clone()}
}

// State returns a copy of the committed state.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// Subscribe registers an observer for later transitions.
func (s *Store) Subscribe(observer Observer) {
	s.deliverMu.Lock()
	defer s.deliverMu.Unlock()
	s.observers = append(s.observers, observer)
}

// Dispatch commits a and returns the new state.
func (s *Store) Dispatch(a Action) State {
	s.mu.Lock()
	prev := s.state
	next := Reduce(prev, a)
	s.state = next
	s.deliverMu.Lock()
	s.pending = append(s.pending, change{prev: prev.Clone(), next: next.Clone(), action: a})
	s.mu.Unlock()

	if s.draining {
		s.deliverMu.Unlock()
		return next.Clone()
	}
	s.draining = true
	for len(s.pending) > 0 {
		c := s.pending[0]
		s.pending = s.pending[1:]
		observers := append([]Observer(nil), s.observers...)
		s.deliverMu.Unlock()
		for _, observe := range observers {
			observe(c.prev, c.next, c.action)
		}
		s.deliverMu.Lock()
	}
	s.draining = false
	s.deliverMu.Unlock()
	return next.Clone()
}
