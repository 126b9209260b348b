package embeddings

import (
	"container/list"
	"context"
	"fmt"
	"sync"
)

// Store persists vectors across runs. pkg/db implements it over SQLite.
type Store interface {
	GetEmbedding(model string, hash uint64) ([]float32, bool, error)
	PutEmbedding(model string, hash uint64, vec []float32) error
}

type embedCache struct {
	mu    sync.Mutex
	cap   int
	ll    *list.List
	items map[uint64]*list.Element
}

type embedEntry struct {
	key uint64
	vec []float32
}

func newEmbedCache(capacity int) *embedCache {
	if capacity <= 0 {
		return nil
	}
	return &embedCache{
		cap:   capacity,
		ll:    list.New(),
		items: make(map[uint64]*list.Element, capacity),
	}
}

func (c *embedCache) Get(key uint64) ([]float32, bool) {
	if c == nil {
		return nil, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.items[key]; ok {
		c.ll.MoveToFront(el)
		return cloneVec(el.Value.(*embedEntry).vec), true
	}
	return nil, false
}

func (c *embedCache) Add(key uint64, vec []float32) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.items[key]; ok {
		el.Value.(*embedEntry).vec = cloneVec(vec)
		c.ll.MoveToFront(el)
		return
	}
	c.items[key] = c.ll.PushFront(&embedEntry{key: key, vec: cloneVec(vec)})
	if c.ll.Len() > c.cap {
		if back := c.ll.Back(); back != nil {
			c.ll.Remove(back)
			delete(c.items, back.Value.(*embedEntry).key)
		}
	}
}

func (c *embedCache) Len() int {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ll.Len()
}

func cloneVec(vec []float32) []float32 {
	if len(vec) == 0 {
		return nil
	}
	out := make([]float32, len(vec))
	copy(out, vec)
	return out
}

// CacheStats counts where vectors came from.
type CacheStats struct {
	MemoryHits int
	StoreHits  int
	Computed   int
}

// Cached memoizes an Embedder in memory and, when a Store is given, on disk.
// Only texts missing from both layers reach the wrapped embedder, in one batch.
type Cached struct {
	next  Embedder
	model string
	mem   *embedCache
	store Store

	mu    sync.Mutex
	stats CacheStats
}

// NewCached wraps next. model namespaces persisted vectors; store may be nil.
func NewCached(next Embedder, model string, capacity int, store Store) *Cached {
	return &Cached{next: next, model: model, mem: newEmbedCache(capacity), store: store}
}

func (c *Cached) Stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

func (c *Cached) EmbedDocuments(ctx context.Context, docs []string) ([][]float32, error) {
	if len(docs) == 0 {
		return nil, ErrEmptyInput
	}
	out := make([][]float32, len(docs))
	keys := make([]uint64, len(docs))
	var missing []int
	var memHits, storeHits int
	for i, d := range docs {
		keys[i] = Hash([]byte(d))
		if vec, ok := c.mem.Get(keys[i]); ok {
			out[i] = vec
			memHits++
			continue
		}
		if c.store != nil {
			vec, ok, err := c.store.GetEmbedding(c.model, keys[i])
			if err == nil && ok {
				out[i] = vec
				c.mem.Add(keys[i], vec)
				storeHits++
				continue
			}
		}
		missing = append(missing, i)
	}

	if len(missing) > 0 {
		batch := make([]string, len(missing))
		for j, i := range missing {
			batch[j] = docs[i]
		}
		vecs, err := c.next.EmbedDocuments(ctx, batch)
		if err != nil {
			return nil, err
		}
		if len(vecs) != len(batch) {
			return nil, fmt.Errorf("embedder returned %d vectors for %d inputs", len(vecs), len(batch))
		}
		for j, i := range missing {
			out[i] = vecs[j]
			c.mem.Add(keys[i], vecs[j])
			if c.store != nil {
				// A failed write only costs a recomputation next run.
				_ = c.store.PutEmbedding(c.model, keys[i], vecs[j])
			}
		}
	}

	c.mu.Lock()
	c.stats.MemoryHits += memHits
	c.stats.StoreHits += storeHits
	c.stats.Computed += len(missing)
	c.mu.Unlock()
	return out, nil
}

func (c *Cached) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vecs, err := c.EmbedDocuments(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}
