package tokens

import "sync"

// memo is a content-addressed result cache that coalesces concurrent
// computations of the same key. Entries are immutable once written, so there
// is no invalidation and no expiry; token counts are small and the key set is
// bounded by the texts a chat actually contains.
type memo[K comparable, V any] struct {
	done map[K]V
	dmu  sync.RWMutex

	pending map[K]*call[V]
	pmu     sync.Mutex

	work func(K) (V, error)
}

type call[V any] struct {
	val  V
	err  error
	done chan struct{}
}

func newMemo[K comparable, V any](work func(K) (V, error)) *memo[K, V] {
	return &memo[K, V]{
		done:    make(map[K]V),
		pending: make(map[K]*call[V]),
		work:    work,
	}
}

func (m *memo[K, V]) get(k K) (V, error) {
	m.dmu.RLock()
	v, ok := m.done[k]
	m.dmu.RUnlock()
	if ok {
		return v, nil
	}

	m.pmu.Lock()
	if c, ok := m.pending[k]; ok {
		m.pmu.Unlock()
		<-c.done
		return c.val, c.err
	}
	c := &call[V]{done: make(chan struct{})}
	m.pending[k] = c
	m.pmu.Unlock()

	c.val, c.err = m.work(k)
	if c.err == nil {
		m.dmu.Lock()
		m.done[k] = c.val
		m.dmu.Unlock()
	}

	m.pmu.Lock()
	close(c.done)
	delete(m.pending, k)
	m.pmu.Unlock()

	return c.val, c.err
}

// Cache is a process-wide Counter memoizing both counting modes per exact
// text. Safe for concurrent use by any number of in-flight format calls.
type Cache struct {
	estimate *memo[string, int]
	precise  *memo[string, int]
}

func NewCache() *Cache {
	return &Cache{
		estimate: newMemo(func(text string) (int, error) {
			return CountEstimate(text), nil
		}),
		precise: newMemo(CountPrecise),
	}
}

func (c *Cache) Count(text string, mode Mode) (int, error) {
	if mode == Precise {
		return c.precise.get(text)
	}
	return c.estimate.get(text)
}
