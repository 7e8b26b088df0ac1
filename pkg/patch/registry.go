package patch

import (
	"fmt"
	"slices"
)

// Registry maps fix names to their routines. Patch definition files
// reference fixes by name; discovery resolves those names against a
// registry supplied by the host application.
//
// A registry is an explicit argument to discovery rather than process-wide
// state, so repeated discovery runs (a dry-run preview followed by a real
// run, say) stay independent of one another.
type Registry struct {
	fixes map[string]Fix
}

// NewRegistry creates an empty fix registry.
func NewRegistry() *Registry {
	return &Registry{fixes: make(map[string]Fix)}
}

// Register makes a fix available to patch definitions under the given name.
// It returns the registry to allow chaining.
//
// Like database/sql.Register, registering a nil fix or the same name twice
// is a programming error and panics.
func (r *Registry) Register(name string, fn Fix) *Registry {
	if name == "" {
		panic("patch: fix name cannot be empty")
	}
	if fn == nil {
		panic(fmt.Sprintf("patch: fix %q is nil", name))
	}
	if _, dup := r.fixes[name]; dup {
		panic(fmt.Sprintf("patch: fix %q registered twice", name))
	}

	r.fixes[name] = fn
	return r
}

// Lookup returns the fix registered under name, if any.
func (r *Registry) Lookup(name string) (Fix, bool) {
	if r == nil {
		return nil, false
	}
	fn, ok := r.fixes[name]
	return fn, ok
}

// Names returns the registered fix names in lexical order.
func (r *Registry) Names() []string {
	if r == nil {
		return nil
	}

	names := make([]string, 0, len(r.fixes))
	for name := range r.fixes {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
