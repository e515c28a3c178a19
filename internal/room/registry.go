package room

// ConnID identifies one live connection. Empty means "no connection".
type ConnID string

// Registry tracks live connections, whether or not they sit in a room
type Registry struct {
	active map[ConnID]struct{}
}

func NewRegistry() *Registry {
	return &Registry{active: make(map[ConnID]struct{})}
}

func (r *Registry) MarkActive(id ConnID) {
	r.active[id] = struct{}{}
}

func (r *Registry) IsActive(id ConnID) bool {
	_, ok := r.active[id]
	return ok
}

func (r *Registry) Remove(id ConnID) {
	delete(r.active, id)
}

func (r *Registry) Len() int {
	return len(r.active)
}
