package session

import "sync"

// State is an observable boolean: whether the user is signed in.
// Subscribers receive the latest value; intermediate values may be skipped
// by slow readers.
type State struct {
	mu            sync.Mutex
	authenticated bool
	subs          map[int]chan bool
	next          int
}

func NewState() *State {
	return &State{subs: make(map[int]chan bool)}
}

func (s *State) Authenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.authenticated
}

// Set stores v and notifies subscribers when it changed.
func (s *State) Set(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.authenticated == v {
		return
	}
	s.authenticated = v
	for _, ch := range s.subs {
		select {
		case <-ch:
		default:
		}
		ch <- v
	}
}

// Subscribe returns a channel carrying state changes and a function that
// cancels the subscription and closes the channel.
func (s *State) Subscribe() (<-chan bool, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.next
	s.next++
	ch := make(chan bool, 1)
	s.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			delete(s.subs, id)
			close(ch)
		})
	}
}
