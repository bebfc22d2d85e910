package eligibility

import (
	"fmt"
	"sync"

	"github.com/hashicorp/golang-lru/v2"
	"github.com/loving2/Chisels-and-Bits/define"
)

// Result is the outcome of analysing whether blocks of a state may be subdivided.
type Result struct {
	Eligible bool
	// Reason explains why a state is not eligible. It is empty for eligible states.
	Reason string
}

// Analyser decides whether blocks of a state may be subdivided.
type Analyser func(s define.State) Result

// Source is a collection of materials that knows which of them may be subdivided.
type Source interface {
	Eligible(s define.State) bool
}

// FromSource returns an Analyser deferring to the Source passed.
func FromSource(src Source) Analyser {
	return func(s define.State) Result {
		if s.IsAir() {
			return Result{Reason: "air cannot be subdivided"}
		}
		if !src.Eligible(s) {
			return Result{Reason: fmt.Sprintf("%v is not chiselable", s)}
		}
		return Result{Eligible: true}
	}
}

// Notifier is implemented by registries that report changes in their size.
type Notifier interface {
	OnChange(f func(size int))
}

// Manager caches the results of an Analyser in a bounded cache. The capacity of the cache is set explicitly,
// either directly through Resize or by following a registry with Follow.
type Manager struct {
	analyse  Analyser
	fallback int

	mu       sync.Mutex
	cache    *lru.Cache[define.State, Result]
	capacity int
}

// NewManager returns a Manager caching up to capacity results of the analyser passed. The capacity is also
// used as the fallback capacity when resizing to zero.
func NewManager(capacity int, analyse Analyser) (*Manager, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("invalid eligibility cache capacity %v", capacity)
	}
	cache, err := lru.New[define.State, Result](capacity)
	if err != nil {
		return nil, err
	}
	return &Manager{analyse: analyse, fallback: capacity, cache: cache, capacity: capacity}, nil
}

// Analyse returns the cached result for the state passed, running the analyser on a miss.
func (m *Manager) Analyse(s define.State) Result {
	if r, ok := m.cache.Get(s); ok {
		return r
	}
	r := m.analyse(s)
	m.cache.Add(s, r)
	return r
}

// Eligible checks if blocks of the state passed may be subdivided.
func (m *Manager) Eligible(s define.State) bool {
	return m.Analyse(s).Eligible
}

// Resize changes the capacity of the cache to n, evicting the least recently used results if needed. A
// capacity of zero or less resets the cache to the fallback capacity.
func (m *Manager) Resize(n int) {
	if n <= 0 {
		n = m.fallback
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if n == m.capacity {
		return
	}
	m.cache.Resize(n)
	m.capacity = n
}

// Follow resizes the cache to the size of the registry passed every time the registry changes.
func (m *Manager) Follow(n Notifier) {
	n.OnChange(m.Resize)
}

// Purge drops every cached result, for example after the properties of materials changed.
func (m *Manager) Purge() {
	m.cache.Purge()
}

// Capacity returns the current capacity of the cache.
func (m *Manager) Capacity() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.capacity
}

// Len returns the amount of cached results.
func (m *Manager) Len() int {
	return m.cache.Len()
}
