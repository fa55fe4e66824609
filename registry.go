package binlogrouter

import "sync"

// Registry is a process-wide set of router instances, required only
// for operator introspection (spec.md §9's "Global registry of
// instances" design note). A shared collection protected by a lock
// suffices; there is no ownership graph to worry about, so insertion
// is the only mutating operation — instances are torn down only on
// process exit per spec.md §3's lifecycle note.
type Registry struct {
	mu        sync.Mutex
	instances []*RouterInstance
}

// DefaultRegistry is the process-wide registry new router instances
// are expected to register with.
var DefaultRegistry = &Registry{}

// Register adds ri to the registry. Safe for concurrent use.
func (r *Registry) Register(ri *RouterInstance) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.instances = append(r.instances, ri)
}

// Instances returns a snapshot of the currently registered instances.
func (r *Registry) Instances() []*RouterInstance {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*RouterInstance, len(r.instances))
	copy(out, r.instances)
	return out
}

// Find returns the registered instance with the given server id, or
// nil if none matches.
func (r *Registry) Find(serverID uint32) *RouterInstance {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ri := range r.instances {
		if ri.ServerID == serverID {
			return ri
		}
	}
	return nil
}
