package repository

import "sync"

const branchesCacheCategoryConstant = "branches"

// metadataCache stores fetched metadata keyed by category, then by entry name.
type metadataCache struct {
	mutex   sync.RWMutex
	entries map[string]any
}

func newMetadataCache() *metadataCache {
	return &metadataCache{entries: map[string]any{}}
}

// lookup walks nested maps by keys. It stops at the last key or at the first
// value that is not a nested map, and returns nil on a miss.
func (cache *metadataCache) lookup(keys ...string) any {
	cache.mutex.RLock()
	defer cache.mutex.RUnlock()

	current := cache.entries
	for keyIndex, key := range keys {
		value, exists := current[key]
		if !exists {
			return nil
		}
		nested, isNested := value.(map[string]any)
		if !isNested || keyIndex == len(keys)-1 {
			return value
		}
		current = nested
	}
	return nil
}

// replace swaps the whole category with a freshly built map.
func (cache *metadataCache) replace(category string, entries map[string]any) {
	cache.mutex.Lock()
	defer cache.mutex.Unlock()
	cache.entries[category] = entries
}
