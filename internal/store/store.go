// Package store holds process-wide application state in reducer-driven containers.
//
// A [Store] owns one state value. Mutations happen only through [Store.Dispatch],
// which runs the reducer under a lock so actions never interleave, then notifies
// subscribers with the resulting snapshot. Reducers never mutate their input:
// snapshots handed to readers stay valid after later dispatches.
package store

import (
	"sync"
)

// Action is any value a reducer understands. Unknown actions leave state unchanged.
type Action any

// Reducer computes the next state from the current state and an action.
type Reducer[S any] func(state S, action Action) S

// Listener receives the state produced by a dispatch.
type Listener[S any] func(state S)

// Store is a single-writer state container.
type Store[S any] struct {
	mu        sync.Mutex
	state     S
	reduce    Reducer[S]
	listeners []subscriber[S]
	nextID    int
}

type subscriber[S any] struct {
	id int
	fn Listener[S]
}

// New creates a Store seeded with initial.
func New[S any](initial S, reduce Reducer[S]) *Store[S] {
	return &Store[S]{state: initial, reduce: reduce}
}

// State returns the current snapshot.
func (s *Store[S]) State() S {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Dispatch applies action and notifies subscribers in registration order.
//
// Listeners run on the dispatching goroutine after the lock is released, so they
// may read State or dispatch further actions.
func (s *Store[S]) Dispatch(action Action) S {
	s.mu.Lock()
	next := s.reduce(s.state, action)
	s.state = next
	listeners := make([]Listener[S], len(s.listeners))
	for i, sub := range s.listeners {
		listeners[i] = sub.fn
	}
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(next)
	}
	return next
}

// Subscribe registers fn for future dispatches and returns a function that removes it.
func (s *Store[S]) Subscribe(fn Listener[S]) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	id := s.nextID
	s.listeners = append(s.listeners, subscriber[S]{id: id, fn: fn})

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			for i, sub := range s.listeners {
				if sub.id == id {
					s.listeners = append(s.listeners[:i:i], s.listeners[i+1:]...)
					return
				}
			}
		})
	}
}
