package beacon

import (
	"sort"
	"sync"

	"golang.org/x/exp/maps"
)

// Registry keeps the most recent record seen for every device address. It never evicts
// entries on its own. Safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	records map[string]Record
}

func NewRegistry() *Registry {
	return &Registry{
		records: make(map[string]Record),
	}
}

// Upsert stores r under its bluetooth address, replacing any previous record for that
// address. Records without an address share the empty key.
func (r *Registry) Upsert(rec Record) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.records[rec.BluetoothAddress] = rec
}

func (r *Registry) Get(addr string) (Record, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.records[addr]
	return rec, ok
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.records)
}

// Snapshot returns a copy of all records ordered by address.
func (r *Registry) Snapshot() []Record {
	r.mu.RLock()
	defer r.mu.RUnlock()

	addrs := maps.Keys(r.records)
	sort.Strings(addrs)

	out := make([]Record, len(addrs))

	for i, addr := range addrs {
		out[i] = r.records[addr]
	}

	return out
}

// Clear drops every record, e.g. when a new scanning session starts.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.records = make(map[string]Record)
}
