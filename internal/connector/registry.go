package connector

import "sync"

// Registry holds the registered connectors per contract, in registration
// order. Lookup by id is a linear first-match scan; duplicate ids are not
// rejected, so a later registration with an id that already matches is
// never reachable by id lookup.
type Registry struct {
	mu      sync.RWMutex
	storage []StorageConnector
	hosting []HostingConnector
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// RegisterStorage appends a storage connector.
func (r *Registry) RegisterStorage(c StorageConnector) {
	r.mu.Lock()
	r.storage = append(r.storage, c)
	r.mu.Unlock()
}

// RegisterHosting appends a hosting connector.
func (r *Registry) RegisterHosting(c HostingConnector) {
	r.mu.Lock()
	r.hosting = append(r.hosting, c)
	r.mu.Unlock()
}

// StorageConnectors returns all storage connectors in registration order.
func (r *Registry) StorageConnectors() []StorageConnector {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]StorageConnector, len(r.storage))
	copy(out, r.storage)
	return out
}

// HostingConnectors returns all hosting connectors in registration order.
func (r *Registry) HostingConnectors() []HostingConnector {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]HostingConnector, len(r.hosting))
	copy(out, r.hosting)
	return out
}

// Storage finds a storage connector by id.
func (r *Registry) Storage(id string) (StorageConnector, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, c := range r.storage {
		if c.ID() == id {
			return c, true
		}
	}
	return nil, false
}

// Hosting finds a hosting connector by id.
func (r *Registry) Hosting(id string) (HostingConnector, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, c := range r.hosting {
		if c.ID() == id {
			return c, true
		}
	}
	return nil, false
}

// StorageOrDefault resolves a storage connector: an explicit id is matched
// exactly, an empty id returns the first registered connector.
func (r *Registry) StorageOrDefault(id string) (StorageConnector, bool) {
	if id != "" {
		return r.Storage(id)
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	if len(r.storage) == 0 {
		return nil, false
	}
	return r.storage[0], true
}

// HostingOrDefault resolves a hosting connector: an explicit id is matched
// exactly, an empty id returns the first registered connector.
func (r *Registry) HostingOrDefault(id string) (HostingConnector, bool) {
	if id != "" {
		return r.Hosting(id)
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	if len(r.hosting) == 0 {
		return nil, false
	}
	return r.hosting[0], true
}
