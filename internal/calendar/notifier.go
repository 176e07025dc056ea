package calendar

import "sync"

// Subscribers is a set of change callbacks. The zero value is ready to use
// and can be embedded to implement Notifier.
type Subscribers struct {
	mu   sync.Mutex
	next int
	fns  map[int]func()
}

// Subscribe registers fn and returns a function that removes it.
func (s *Subscribers) Subscribe(fn func()) (cancel func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.fns == nil {
		s.fns = make(map[int]func())
	}
	id := s.next
	s.next++
	s.fns[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.fns, id)
			s.mu.Unlock()
		})
	}
}

// Notify calls every registered callback. Callbacks run outside the lock so
// they may subscribe or cancel.
func (s *Subscribers) Notify() {
	s.mu.Lock()
	fns := make([]func(), 0, len(s.fns))
	for _, fn := range s.fns {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

// Len returns the number of active subscriptions.
func (s *Subscribers) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.fns)
}
