package guard

import "sync"

// Sequencer hands out monotonically increasing generation numbers per
// operation class (lock acquisition, decision submission, detail fetch).
// The client stamps every async request with the current generation at
// launch; by the time the response arrives, a newer generation means the
// user moved on and the response must be discarded without touching
// shared state.
type Sequencer struct {
	mu   sync.Mutex
	gens map[string]uint64
}

func NewSequencer() *Sequencer {
	return &Sequencer{gens: make(map[string]uint64)}
}

// Next advances the class's generation and returns it. Call it at the
// moment that invalidates in-flight work: a selection change, an overlay
// close, a new request of the same class.
func (s *Sequencer) Next(class string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gens[class]++
	return s.gens[class]
}

// Current returns the class's latest generation without advancing it.
func (s *Sequencer) Current(class string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gens[class]
}

// Stale reports whether a response tagged with gen belongs to a
// superseded request.
func (s *Sequencer) Stale(class string, gen uint64) bool {
	return gen < s.Current(class)
}
