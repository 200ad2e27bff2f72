package session

import "sync"

// Registry maps session ids to live coordinators. It is the only structure
// shared across sessions; everything else is owned by one coordinator.
type Registry struct {
	mu     sync.Mutex
	active map[string]*Coordinator
}

func NewRegistry() *Registry {
	return &Registry{active: make(map[string]*Coordinator)}
}

func (r *Registry) Add(c *Coordinator) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.active[c.ID()] = c
	activeSessions.Set(float64(len(r.active)))
}

func (r *Registry) Get(id string) *Coordinator {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active[id]
}

func (r *Registry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.active, id)
	activeSessions.Set(float64(len(r.active)))
}

func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.active)
}
