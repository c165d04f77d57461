package cache

import "sync"

// Dirtier is anything that can be told its cached state is stale.
type Dirtier interface {
	MarkDirty()
}

// Memo holds one lazily computed value.
//
// The value is computed by the first Get after construction or after
// MarkDirty, and returned as is until the next MarkDirty. Errors are
// memoized too. MarkDirty also marks every parent dirty, so a memo of a scene
// container goes stale whenever one of its children changes.
//
// Memo is safe for concurrent use. The compute function runs with the memo
// locked and must not call back into the same memo.
type Memo[T any] struct {
	mu      sync.Mutex
	valid   bool
	value   T
	err     error
	parents []Dirtier
	hits    int
	misses  int
}

// Get returns the memoized value, computing it if needed.
func (m *Memo[T]) Get(compute func() (T, error)) (T, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.valid {
		m.hits++
		return m.value, m.err
	}
	m.misses++
	m.value, m.err = compute()
	m.valid = true
	return m.value, m.err
}

// Valid reports whether a value is memoized.
func (m *Memo[T]) Valid() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.valid
}

// MarkDirty drops the value and propagates to the parents.
func (m *Memo[T]) MarkDirty() {
	m.mu.Lock()
	var zero T
	m.valid, m.value, m.err = false, zero, nil
	parents := m.parents
	m.mu.Unlock()

	for _, p := range parents {
		p.MarkDirty()
	}
}

// AddParent registers p to be marked dirty together with m.
func (m *Memo[T]) AddParent(p Dirtier) {
	if p == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.parents = append(m.parents, p)
}

// Stats returns how often Get was served from the memo and how often it
// had to compute.
func (m *Memo[T]) Stats() (hits, misses int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.hits, m.misses
}
