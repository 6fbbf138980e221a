package orderserver

import (
	"sync"

	"order-server/src/utils"
)

// -----------------------------------------------------------------------------
// clientRegistry owns the client table and the histories as one unit.
// Ids are table indexes and are never reused.
// -----------------------------------------------------------------------------

type clientEntry struct {
	publicKey []byte
	history   *ClientHistory
}

type clientRegistry struct {
	mu              sync.RWMutex
	entries         []*clientEntry
	byKey           map[string]int
	historyCapacity int
	maxClients      int // 0 means unlimited
}

// -----------------------------------------------------------------------------

func newClientRegistry(historyCapacity, maxClients int) *clientRegistry {
	if historyCapacity <= 0 {
		historyCapacity = utils.DefaultHistoryCapacity
	}
	return &clientRegistry{
		byKey:           make(map[string]int),
		historyCapacity: historyCapacity,
		maxClients:      maxClients,
	}
}

// -----------------------------------------------------------------------------

// register returns the id bound to publicKey, allocating one when allowNew is
// set and the table has room. created tells whether an entry was added.
// The lookup and the insert happen under one write lock.
func (r *clientRegistry) register(publicKey []byte, allowNew bool) (id int, created bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.byKey[string(publicKey)]; ok {
		return existing, false
	}
	if !allowNew {
		return utils.RefusedClientID, false
	}
	if r.maxClients > 0 && len(r.entries) >= r.maxClients {
		return utils.RefusedClientID, false
	}

	key := make([]byte, len(publicKey))
	copy(key, publicKey)

	id = len(r.entries)
	r.entries = append(r.entries, &clientEntry{
		publicKey: key,
		history:   newClientHistory(r.historyCapacity),
	})
	r.byKey[string(key)] = id
	return id, true
}

// -----------------------------------------------------------------------------

// lookup returns the entry for id; false when id is out of range
func (r *clientRegistry) lookup(id int) (*clientEntry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if id < 0 || id >= len(r.entries) {
		return nil, false
	}
	return r.entries[id], true
}

// -----------------------------------------------------------------------------

func (r *clientRegistry) count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// -----------------------------------------------------------------------------

// storedOrders sums the current size of every history
func (r *clientRegistry) storedOrders() int {
	r.mu.RLock()
	entries := make([]*clientEntry, len(r.entries))
	copy(entries, r.entries)
	r.mu.RUnlock()

	total := 0
	for _, e := range entries {
		total += e.history.Size()
	}
	return total
}
