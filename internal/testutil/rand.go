package testutil

import "sync"

// ScriptedRand replays a fixed list of draws, cycling when exhausted.
//
// It satisfies engine.Rand, so tests can force a specific weighted pick
// without searching for a seed that happens to produce it.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type ScriptedRand struct {
	mu     sync.Mutex
	values []uint64
	next   int
}

// NewScriptedRand creates a stream over values. An empty list yields zeros.
func NewScriptedRand(values ...uint64) *ScriptedRand {
	return &ScriptedRand{values: values}
}

// Uint64 returns the next scripted draw.
func (r *ScriptedRand) Uint64() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.values) == 0 {
		return 0
	}
	v := r.values[r.next%len(r.values)]
	r.next++
	return v
}

// Drawn returns how many values have been consumed.
func (r *ScriptedRand) Drawn() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.next
}

// Reset rewinds the stream to its first value.
func (r *ScriptedRand) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.next = 0
}

// SeedRecorder wraps a generator constructor and records every seed it is
// asked for. Its Factory method has the shape of engine.RandFactory:
//
//	rec := testutil.NewSeedRecorder(engine.NewSplitMix64)
//	engine.New(layer, policy, engine.WithRand(rec.Factory))
type SeedRecorder[R any] struct {
	mu    sync.Mutex
	seeds []uint64
	newR  func(seed uint64) R
}

// NewSeedRecorder creates a recorder delegating to mk.
func NewSeedRecorder[R any](mk func(seed uint64) R) *SeedRecorder[R] {
	return &SeedRecorder[R]{newR: mk}
}

// Factory records seed and returns the delegate's generator.
func (s *SeedRecorder[R]) Factory(seed uint64) R {
	s.mu.Lock()
	s.seeds = append(s.seeds, seed)
	s.mu.Unlock()
	return s.newR(seed)
}

// Seeds returns a copy of the recorded seeds, in request order.
func (s *SeedRecorder[R]) Seeds() []uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]uint64(nil), s.seeds...)
}

// Reset forgets recorded seeds.
func (s *SeedRecorder[R]) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seeds = nil
}
