package interp

// Scope is a nested variable environment. Lookup walks outward through
// parents until the name is found or the chain is exhausted.
//
// Scopes are created per loop-body iteration and per closure call and
// discarded when that invocation returns, so the chain is always a tree
// with strictly nested lifetimes - never cyclic, never escaping the call
// that created it. No locking is needed: evaluation is single-threaded.
type Scope struct {
	vars   map[string]Value
	parent *Scope
}

// NewScope creates a scope with an optional parent (nil for the global
// scope).
func NewScope(parent *Scope) *Scope {
	return &Scope{
		vars:   make(map[string]Value),
		parent: parent,
	}
}

// Get resolves a name through the scope chain.
func (s *Scope) Get(name string) (Value, bool) {
	for cur := s; cur != nil; cur = cur.parent {
		if v, ok := cur.vars[name]; ok {
			return v, true
		}
	}
	return nil, false
}

// Set binds a name in this scope, shadowing any parent binding.
func (s *Scope) Set(name string, v Value) {
	s.vars[name] = v
}

// Has reports whether the name resolves anywhere in the chain.
func (s *Scope) Has(name string) bool {
	_, ok := s.Get(name)
	return ok
}
